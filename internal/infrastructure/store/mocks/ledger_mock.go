package mocks

import (
	"context"
	"sync"

	"github.com/example/wholesale-clothing/internal/domain/order"
	"github.com/example/wholesale-clothing/internal/infrastructure/store"
)

// MockLedger wraps a MemoryLedger with error injection and call counting.
type MockLedger struct {
	*store.MemoryLedger

	mu          sync.Mutex
	AppendErr   error
	CountErr    error
	AppendCalls int
	// AppendHook runs before each Append, outside the mock's lock.
	AppendHook func(ctx context.Context, o order.Order)
}

func NewMockLedger() *MockLedger {
	return &MockLedger{MemoryLedger: store.NewMemoryLedger()}
}

func (m *MockLedger) Append(ctx context.Context, o order.Order) (int64, error) {
	m.mu.Lock()
	m.AppendCalls++
	hook := m.AppendHook
	appendErr := m.AppendErr
	m.mu.Unlock()

	if hook != nil {
		hook(ctx, o)
	}
	if appendErr != nil {
		return 0, appendErr
	}
	return m.MemoryLedger.Append(ctx, o)
}

func (m *MockLedger) CountByProduct(ctx context.Context, productID string) (int, error) {
	m.mu.Lock()
	countErr := m.CountErr
	m.mu.Unlock()

	if countErr != nil {
		return 0, countErr
	}
	return m.MemoryLedger.CountByProduct(ctx, productID)
}

// SetAppendErr changes the injected Append error.
func (m *MockLedger) SetAppendErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppendErr = err
}

var _ order.Ledger = (*MockLedger)(nil)
