package fulfillment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/wholesale-clothing/internal/domain/inventory"
	"github.com/example/wholesale-clothing/internal/domain/order"
	"github.com/example/wholesale-clothing/internal/infrastructure/store"
	"github.com/example/wholesale-clothing/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog map[string]string

func (f fakeCatalog) Exists(id string) bool { _, ok := f[id]; return ok }

func (f fakeCatalog) NameOf(id string) (string, bool) {
	name, ok := f[id]
	return name, ok
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []store.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := event.(store.Event); ok {
		p.events = append(p.events, e)
	}
	return p.err
}

type fixture struct {
	coord  *Coordinator
	stock  *inventory.Store
	ledger *mocks.MockLedger
}

func newFixture(t *testing.T, stock map[string]int, opts ...Option) *fixture {
	t.Helper()
	s := inventory.NewStore()
	catalog := fakeCatalog{}
	for id, q := range stock {
		require.True(t, s.Register(id, q))
		catalog[id] = "Product " + id
	}
	ledger := mocks.NewMockLedger()
	return &fixture{
		coord:  NewCoordinator(s, ledger, catalog, opts...),
		stock:  s,
		ledger: ledger,
	}
}

func (f *fixture) quantity(t *testing.T, id string) int {
	t.Helper()
	q, err := f.stock.QuantityOf(id)
	require.NoError(t, err)
	return q
}

func (f *fixture) orders(t *testing.T, id string) []order.Order {
	t.Helper()
	orders, err := f.ledger.ListByProduct(context.Background(), id)
	require.NoError(t, err)
	return orders
}

func req(productID string, qty int) Request {
	return Request{ProductID: productID, CustomerName: "Alice", Quantity: qty, OrderDate: "2024-01-01"}
}

// ============================================
// Single order tests
// ============================================

func TestPlaceOrder_Accepted(t *testing.T) {
	f := newFixture(t, map[string]int{"P": 10})

	out := f.coord.PlaceOrder(context.Background(), req("P", 3))

	require.True(t, out.Accepted())
	assert.NoError(t, out.Err())
	assert.Equal(t, int64(1), out.OrderID)
	assert.Equal(t, 7, out.Remaining)
	assert.Equal(t, 7, f.quantity(t, "P"))

	orders := f.orders(t, "P")
	require.Len(t, orders, 1)
	assert.Equal(t, out.OrderID, orders[0].ID)
	assert.Equal(t, "Alice", orders[0].CustomerName)
	assert.Equal(t, 3, orders[0].Quantity)
	assert.Equal(t, "2024-01-01", orders[0].OrderDate.Format(order.DateLayout))
}

func TestPlaceOrder_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"zero quantity", Request{ProductID: "P", CustomerName: "Bob", Quantity: 0, OrderDate: "2024-01-01"}},
		{"negative quantity", Request{ProductID: "P", CustomerName: "Bob", Quantity: -2, OrderDate: "2024-01-01"}},
		{"missing customer", Request{ProductID: "P", CustomerName: "  ", Quantity: 1, OrderDate: "2024-01-01"}},
		{"missing date", Request{ProductID: "P", CustomerName: "Bob", Quantity: 1}},
		{"malformed date", Request{ProductID: "P", CustomerName: "Bob", Quantity: 1, OrderDate: "01/02/2024"}},
		{"zero quantity on unknown product", Request{ProductID: "nope", CustomerName: "Bob", Quantity: 0, OrderDate: "2024-01-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, map[string]int{"P": 10})

			out := f.coord.PlaceOrder(context.Background(), tt.req)

			assert.Equal(t, ReasonInvalidInput, out.Reason)
			assert.ErrorIs(t, out.Err(), ErrInvalidInput)
			assert.NotEmpty(t, out.Message)
			assert.Equal(t, 10, f.quantity(t, "P"))
			assert.Zero(t, f.ledger.AppendCalls)
		})
	}
}

func TestPlaceOrder_InvalidInput_ReportsOrderValidation(t *testing.T) {
	f := newFixture(t, map[string]int{"P": 10})

	out := f.coord.PlaceOrder(context.Background(), Request{ProductID: "P", CustomerName: "Bob", Quantity: 1, OrderDate: "01/02/2024"})
	assert.Equal(t, order.ErrInvalidDate.Error(), out.Message)

	out = f.coord.PlaceOrder(context.Background(), Request{ProductID: "P", CustomerName: " Bob ", Quantity: 1, OrderDate: "2024-01-01"})
	require.True(t, out.Accepted())
	assert.Equal(t, "Bob", f.orders(t, "P")[0].CustomerName)
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	f := newFixture(t, map[string]int{"P": 10})

	out := f.coord.PlaceOrder(context.Background(), Request{ProductID: "unknown", CustomerName: "Alice", Quantity: 1, OrderDate: "2024-01-01"})

	assert.Equal(t, ReasonProductNotFound, out.Reason)
	assert.ErrorIs(t, out.Err(), ErrProductNotFound)
	assert.Equal(t, 10, f.quantity(t, "P"))
	assert.Zero(t, f.ledger.AppendCalls)
}

func TestPlaceOrder_InsufficientStock_NoMutation(t *testing.T) {
	f := newFixture(t, map[string]int{"P": 5})

	out := f.coord.PlaceOrder(context.Background(), req("P", 6))

	assert.Equal(t, ReasonInsufficientStock, out.Reason)
	assert.ErrorIs(t, out.Err(), ErrInsufficientStock)
	assert.Equal(t, 5, f.quantity(t, "P"))
	assert.Empty(t, f.orders(t, "P"))
}

func TestPlaceOrder_RetiredProductIsNotFound(t *testing.T) {
	f := newFixture(t, map[string]int{"P": 5})
	require.NoError(t, f.stock.Retire("P"))

	out := f.coord.PlaceOrder(context.Background(), req("P", 1))

	assert.Equal(t, ReasonProductNotFound, out.Reason)
}

func TestPlaceOrder_ExactStockSucceeds(t *testing.T) {
	f := newFixture(t, map[string]int{"P": 4})

	out := f.coord.PlaceOrder(context.Background(), req("P", 4))

	require.True(t, out.Accepted())
	assert.Zero(t, f.quantity(t, "P"))
}

// ============================================
// Ledger failure and cancellation
// ============================================

func TestPlaceOrder_LedgerFailure_ReleasesStock(t *testing.T) {
	f := newFixture(t, map[string]int{"P": 10})
	f.ledger.SetAppendErr(errors.New("disk full"))

	out := f.coord.PlaceOrder(context.Background(), req("P", 4))

	assert.Equal(t, ReasonLedgerUnavailable, out.Reason)
	assert.ErrorIs(t, out.Err(), ErrLedgerUnavailable)
	assert.Equal(t, 10, f.quantity(t, "P"))
	assert.Empty(t, f.orders(t, "P"))
	// The rolled back reservation is no longer in flight.
	assert.NoError(t, f.stock.Retire("P"))
}

func TestPlaceOrder_LedgerTimeout(t *testing.T) {
	f := newFixture(t, map[string]int{"P": 10}, WithLedgerTimeout(20*time.Millisecond))
	f.ledger.AppendHook = func(ctx context.Context, o order.Order) {
		<-ctx.Done()
	}
	f.ledger.SetAppendErr(context.DeadlineExceeded)

	out := f.coord.PlaceOrder(context.Background(), req("P", 2))

	assert.Equal(t, ReasonLedgerUnavailable, out.Reason)
	assert.Equal(t, 10, f.quantity(t, "P"))
}

func TestPlaceOrder_CallerCancellationDoesNotAbortCommit(t *testing.T) {
	f := newFixture(t, map[string]int{"P": 10})
	ctx, cancel := context.WithCancel(context.Background())

	var appendCtxErr error
	f.ledger.AppendHook = func(actx context.Context, o order.Order) {
		cancel()
		appendCtxErr = actx.Err()
	}

	out := f.coord.PlaceOrder(ctx, req("P", 2))

	require.True(t, out.Accepted())
	assert.NoError(t, appendCtxErr)
	assert.Equal(t, 8, f.quantity(t, "P"))
	assert.Len(t, f.orders(t, "P"), 1)
}

// ============================================
// Concurrency
// ============================================

func TestPlaceOrder_TwoConcurrentSixesAgainstTen(t *testing.T) {
	for i := 0; i < 100; i++ {
		f := newFixture(t, map[string]int{"P": 10})

		var wg sync.WaitGroup
		start := make(chan struct{})
		outcomes := make([]Outcome, 2)
		for j := range outcomes {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				<-start
				outcomes[j] = f.coord.PlaceOrder(context.Background(), req("P", 6))
			}(j)
		}
		close(start)
		wg.Wait()

		accepted := 0
		for _, out := range outcomes {
			if out.Accepted() {
				accepted++
			} else {
				assert.Equal(t, ReasonInsufficientStock, out.Reason)
			}
		}
		require.Equal(t, 1, accepted)
		require.Equal(t, 4, f.quantity(t, "P"))
		require.Len(t, f.orders(t, "P"), 1)
	}
}

func TestPlaceOrder_NoOversellUnderLoad(t *testing.T) {
	const initial = 500
	f := newFixture(t, map[string]int{"P": initial})

	var (
		wg            sync.WaitGroup
		acceptedUnits atomic.Int64
		acceptedCount atomic.Int64
	)
	for w := 0; w < 50; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				qty := (w+i)%5 + 1
				out := f.coord.PlaceOrder(context.Background(), req("P", qty))
				if out.Accepted() {
					acceptedUnits.Add(int64(qty))
					acceptedCount.Add(1)
				} else {
					assert.Equal(t, ReasonInsufficientStock, out.Reason)
				}
			}
		}(w)
	}
	wg.Wait()

	final := f.quantity(t, "P")
	assert.GreaterOrEqual(t, final, 0)
	assert.Equal(t, initial-int(acceptedUnits.Load()), final)

	orders := f.orders(t, "P")
	assert.Len(t, orders, int(acceptedCount.Load()))
	total := 0
	seen := make(map[int64]bool)
	for _, o := range orders {
		assert.False(t, seen[o.ID], "duplicate order id %d", o.ID)
		seen[o.ID] = true
		total += o.Quantity
	}
	assert.Equal(t, int(acceptedUnits.Load()), total)
}

func TestPlaceOrder_FlakyLedgerKeepsJointInvariant(t *testing.T) {
	f := newFixture(t, map[string]int{"P": 200})
	var calls atomic.Int64
	f.ledger.AppendHook = func(ctx context.Context, o order.Order) {
		if calls.Add(1)%3 == 0 {
			f.ledger.SetAppendErr(errors.New("transient"))
		} else {
			f.ledger.SetAppendErr(nil)
		}
	}

	var wg sync.WaitGroup
	var acceptedUnits atomic.Int64
	for w := 0; w < 20; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				if out := f.coord.PlaceOrder(context.Background(), req("P", 1)); out.Accepted() {
					acceptedUnits.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	total := 0
	for _, o := range f.orders(t, "P") {
		total += o.Quantity
	}
	assert.Equal(t, int(acceptedUnits.Load()), total)
	assert.Equal(t, 200-total, f.quantity(t, "P"))
}

func TestPlaceOrder_SequentialWithinStockAllSucceed(t *testing.T) {
	f := newFixture(t, map[string]int{"P": 15})

	for _, qty := range []int{1, 2, 3, 4, 5} {
		out := f.coord.PlaceOrder(context.Background(), req("P", qty))
		require.True(t, out.Accepted(), "qty %d rejected: %s", qty, out.Reason)
	}
	assert.Zero(t, f.quantity(t, "P"))
}

func TestPlaceOrder_SlowLedgerOnOneProductDoesNotBlockAnother(t *testing.T) {
	f := newFixture(t, map[string]int{"A": 10, "B": 10})
	release := make(chan struct{})
	entered := make(chan struct{})
	f.ledger.AppendHook = func(ctx context.Context, o order.Order) {
		if o.ProductID == "A" {
			close(entered)
			<-release
		}
	}

	doneA := make(chan Outcome)
	go func() { doneA <- f.coord.PlaceOrder(context.Background(), req("A", 1)) }()
	<-entered

	doneB := make(chan Outcome)
	go func() { doneB <- f.coord.PlaceOrder(context.Background(), req("B", 1)) }()

	select {
	case out := <-doneB:
		assert.True(t, out.Accepted())
	case <-time.After(2 * time.Second):
		t.Fatal("order for B blocked behind A")
	}

	close(release)
	assert.True(t, (<-doneA).Accepted())
}

// ============================================
// Publishing
// ============================================

func TestPlaceOrder_PublishesOrderPlaced(t *testing.T) {
	pub := &recordingPublisher{}
	f := newFixture(t, map[string]int{"P": 10}, WithPublisher(pub))

	out := f.coord.PlaceOrder(context.Background(), req("P", 3))

	require.True(t, out.Accepted())
	require.Len(t, pub.events, 1)
	assert.Equal(t, order.EventOrderPlaced, pub.events[0].EventType)

	var placed order.OrderPlaced
	require.NoError(t, pub.events[0].Decode(&placed))
	assert.Equal(t, out.OrderID, placed.OrderID)
	assert.Equal(t, "Product P", placed.ProductName)
	assert.Equal(t, 7, placed.RemainingQuantity)
}

func TestPlaceOrder_PublishFailureKeepsAcceptance(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	f := newFixture(t, map[string]int{"P": 10}, WithPublisher(pub))

	out := f.coord.PlaceOrder(context.Background(), req("P", 3))

	assert.True(t, out.Accepted())
	assert.Len(t, f.orders(t, "P"), 1)
}

func TestPlaceOrder_RejectionsAreNotPublished(t *testing.T) {
	pub := &recordingPublisher{}
	f := newFixture(t, map[string]int{"P": 1}, WithPublisher(pub))

	f.coord.PlaceOrder(context.Background(), req("P", 2))

	assert.Empty(t, pub.events)
}

func TestOutcome_Err(t *testing.T) {
	assert.NoError(t, Outcome{OrderID: 1}.Err())
	assert.ErrorIs(t, rejected(ReasonProductNotFound, "").Err(), ErrProductNotFound)
	assert.ErrorIs(t, rejected(ReasonLedgerUnavailable, "").Err(), ErrLedgerUnavailable)
	assert.EqualError(t, Outcome{Reason: "other"}.Err(), "other")
}
