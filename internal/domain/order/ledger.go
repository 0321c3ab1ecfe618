package order

import "context"

// Ledger is the durable, append-only record of accepted orders.
//
// Append must be safe for concurrent use and must assign strictly increasing ids.
// Per-product safety is the inventory store's job, not the ledger's.
type Ledger interface {
	Append(ctx context.Context, o Order) (int64, error)
	ListByProduct(ctx context.Context, productID string) ([]Order, error)
	// ListRecent returns up to n orders by order date descending, id descending.
	// n <= 0 returns every order.
	ListRecent(ctx context.Context, n int) ([]Order, error)
	CountByProduct(ctx context.Context, productID string) (int, error)
	// QuantitiesByProduct sums ordered quantity per product id.
	QuantitiesByProduct(ctx context.Context) (map[string]int, error)
}
