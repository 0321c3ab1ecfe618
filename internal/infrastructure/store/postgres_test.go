package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/example/wholesale-clothing/internal/domain/order"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postgresTestURL returns DATABASE_URL pointed at a fresh schema that is
// dropped when the test ends. Tests skip when DATABASE_URL is unset.
func postgresTestURL(t *testing.T) string {
	t.Helper()
	base := os.Getenv("DATABASE_URL")
	if base == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	admin, err := pgxpool.New(ctx, base)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		admin.Close()
	})

	if u, err := url.Parse(base); err == nil && u.Scheme != "" {
		q := u.Query()
		q.Set("search_path", schema)
		u.RawQuery = q.Encode()
		return u.String()
	}
	return base + " search_path=" + schema
}

func newTestPostgresLedger(t *testing.T) *PostgresLedger {
	t.Helper()
	ctx := context.Background()
	pool, err := ConnectLedgerPool(ctx, postgresTestURL(t))
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, EnsureLedgerSchema(ctx, pool))
	return NewPostgresLedger(pool)
}

func newTestPostgresEventStore(t *testing.T) *PostgresEventStore {
	t.Helper()
	ctx := context.Background()
	db, err := ConnectPostgres(ctx, postgresTestURL(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	es := NewPostgresEventStore(db)
	require.NoError(t, es.EnsureSchema(ctx))
	return es
}

// ============================================
// PostgresLedger
// ============================================

func TestPostgresLedger_AppendAndList(t *testing.T) {
	ledger := newTestPostgresLedger(t)
	ctx := context.Background()

	id1, err := ledger.Append(ctx, order.Order{ProductID: "p1", CustomerName: "Alice", Quantity: 2, OrderDate: date(1)})
	require.NoError(t, err)
	id2, err := ledger.Append(ctx, order.Order{ProductID: "p2", CustomerName: "Bob", Quantity: 5, OrderDate: date(1)})
	require.NoError(t, err)
	id3, err := ledger.Append(ctx, order.Order{ProductID: "p1", CustomerName: "Carol", Quantity: 3, OrderDate: date(2)})
	require.NoError(t, err)
	assert.Less(t, id1, id2)
	assert.Less(t, id2, id3)

	p1, err := ledger.ListByProduct(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, p1, 2)
	assert.Equal(t, []int64{id1, id3}, []int64{p1[0].ID, p1[1].ID})
	assert.Equal(t, "Alice", p1[0].CustomerName)
	assert.True(t, date(1).Equal(p1[0].OrderDate.UTC()))

	count, err := ledger.CountByProduct(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	totals, err := ledger.QuantitiesByProduct(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"p1": 5, "p2": 5}, totals)
}

func TestPostgresLedger_ListRecent(t *testing.T) {
	ledger := newTestPostgresLedger(t)
	ctx := context.Background()

	var ids []int64
	for _, d := range []int{3, 1, 3, 2} {
		id, err := ledger.Append(ctx, order.Order{ProductID: "p1", CustomerName: "c", Quantity: 1, OrderDate: date(d)})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	all, err := ledger.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []int64{ids[2], ids[0], ids[3], ids[1]}, []int64{all[0].ID, all[1].ID, all[2].ID, all[3].ID})

	negative, err := ledger.ListRecent(ctx, -1)
	require.NoError(t, err)
	assert.Len(t, negative, 4)

	top, err := ledger.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, ids[2], top[0].ID)
	assert.Equal(t, ids[0], top[1].ID)
}

func TestPostgresLedger_Empty(t *testing.T) {
	ledger := newTestPostgresLedger(t)
	ctx := context.Background()

	orders, err := ledger.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, orders)

	count, err := ledger.CountByProduct(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPostgresLedger_Append_CancelledContext(t *testing.T) {
	ledger := newTestPostgresLedger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ledger.Append(ctx, order.Order{ProductID: "p1", CustomerName: "Alice", Quantity: 1, OrderDate: date(1)})

	assert.Error(t, err)
	count, _ := ledger.CountByProduct(context.Background(), "p1")
	assert.Zero(t, count)
}

// ============================================
// PostgresEventStore
// ============================================

func TestPostgresEventStore_AppendAndRead(t *testing.T) {
	es := newTestPostgresEventStore(t)
	ctx := context.Background()

	e1, err := es.Append(ctx, "prod-1", "Product", "ProductCreated", map[string]int{"quantity": 10})
	require.NoError(t, err)
	e2, err := es.Append(ctx, "prod-1", "Inventory", "StockAdded", map[string]int{"quantity": 5})
	require.NoError(t, err)
	_, err = es.Append(ctx, "prod-2", "Product", "ProductCreated", map[string]int{"quantity": 1})
	require.NoError(t, err)

	assert.Equal(t, 1, e1.Version)
	assert.Equal(t, 2, e2.Version)

	events, err := es.GetEvents(ctx, "prod-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "StockAdded", events[1].EventType)

	all, err := es.GetAllEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPostgresEventStore_ConcurrentAppendsSameAggregate(t *testing.T) {
	es := newTestPostgresEventStore(t)
	ctx := context.Background()

	const rounds = 20
	for i := 0; i < rounds; i++ {
		var wg sync.WaitGroup
		errs := make([]error, 2)
		for w := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[w] = es.Append(ctx, "prod-1", "Inventory", "StockAdded", map[string]int{"quantity": 1})
			}()
		}
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}
	}

	events, err := es.GetEvents(ctx, "prod-1")
	require.NoError(t, err)
	require.Len(t, events, 2*rounds)
	for i, e := range events {
		assert.Equal(t, i+1, e.Version)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pq.Error{Code: "23505"}

	assert.True(t, isUniqueViolation(unique))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", unique)))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("connection reset")))
	assert.False(t, isUniqueViolation(nil))
}
