package store

import (
	"context"
	"fmt"

	"github.com/example/wholesale-clothing/internal/domain/order"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger stores orders in PostgreSQL. Ids come from a BIGSERIAL, so
// they increase with commit order of the INSERT.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

// ConnectLedgerPool opens and pings a pgx pool.
func ConnectLedgerPool(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// EnsureLedgerSchema creates the orders table if it does not exist.
func EnsureLedgerSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS orders (
	id            BIGSERIAL PRIMARY KEY,
	product_id    TEXT NOT NULL,
	customer_name TEXT NOT NULL,
	quantity      INTEGER NOT NULL CHECK (quantity > 0),
	order_date    DATE NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS orders_product_id_idx ON orders (product_id);
CREATE INDEX IF NOT EXISTS orders_recent_idx ON orders (order_date DESC, id DESC);`)
	return err
}

func (l *PostgresLedger) Append(ctx context.Context, o order.Order) (int64, error) {
	var id int64
	err := l.pool.QueryRow(ctx,
		`INSERT INTO orders (product_id, customer_name, quantity, order_date)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		o.ProductID, o.CustomerName, o.Quantity, o.OrderDate,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	return id, nil
}

const orderColumns = `id, product_id, customer_name, quantity, order_date, created_at`

func (l *PostgresLedger) ListByProduct(ctx context.Context, productID string) ([]order.Order, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE product_id = $1 ORDER BY id ASC`,
		productID,
	)
	if err != nil {
		return nil, err
	}
	return scanOrders(rows)
}

func (l *PostgresLedger) ListRecent(ctx context.Context, n int) ([]order.Order, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if n > 0 {
		rows, err = l.pool.Query(ctx,
			`SELECT `+orderColumns+` FROM orders ORDER BY order_date DESC, id DESC LIMIT $1`, n)
	} else {
		rows, err = l.pool.Query(ctx,
			`SELECT `+orderColumns+` FROM orders ORDER BY order_date DESC, id DESC`)
	}
	if err != nil {
		return nil, err
	}
	return scanOrders(rows)
}

func (l *PostgresLedger) CountByProduct(ctx context.Context, productID string) (int, error) {
	var count int
	err := l.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE product_id = $1`, productID).Scan(&count)
	return count, err
}

func (l *PostgresLedger) QuantitiesByProduct(ctx context.Context) (map[string]int, error) {
	rows, err := l.pool.Query(ctx, `SELECT product_id, SUM(quantity) FROM orders GROUP BY product_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var productID string
		var total int64
		if err := rows.Scan(&productID, &total); err != nil {
			return nil, err
		}
		totals[productID] = int(total)
	}
	return totals, rows.Err()
}

func scanOrders(rows pgx.Rows) ([]order.Order, error) {
	defer rows.Close()

	orders := make([]order.Order, 0)
	for rows.Next() {
		var o order.Order
		if err := rows.Scan(&o.ID, &o.ProductID, &o.CustomerName, &o.Quantity, &o.OrderDate, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

var _ order.Ledger = (*PostgresLedger)(nil)
