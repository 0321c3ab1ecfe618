package store

import (
	"context"
	"sync"
	"time"

	"github.com/example/wholesale-clothing/internal/domain/order"
)

// MemoryLedger is an in-process order ledger.
type MemoryLedger struct {
	mu     sync.RWMutex
	orders []order.Order
	nextID int64
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) Append(ctx context.Context, o order.Order) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	o.ID = l.nextID
	o.CreatedAt = time.Now()
	l.orders = append(l.orders, o)
	return o.ID, nil
}

func (l *MemoryLedger) ListByProduct(ctx context.Context, productID string) ([]order.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]order.Order, 0)
	for _, o := range l.orders {
		if o.ProductID == productID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (l *MemoryLedger) ListRecent(ctx context.Context, n int) ([]order.Order, error) {
	l.mu.RLock()
	out := append([]order.Order(nil), l.orders...)
	l.mu.RUnlock()

	order.SortRecent(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []order.Order{}
	}
	return out, nil
}

func (l *MemoryLedger) CountByProduct(ctx context.Context, productID string) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for _, o := range l.orders {
		if o.ProductID == productID {
			count++
		}
	}
	return count, nil
}

func (l *MemoryLedger) QuantitiesByProduct(ctx context.Context) (map[string]int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	totals := make(map[string]int)
	for _, o := range l.orders {
		totals[o.ProductID] += o.Quantity
	}
	return totals, nil
}

var _ order.Ledger = (*MemoryLedger)(nil)
