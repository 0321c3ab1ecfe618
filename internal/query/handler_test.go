package query

import (
	"context"
	"testing"
	"time"

	"github.com/example/wholesale-clothing/internal/domain/inventory"
	"github.com/example/wholesale-clothing/internal/domain/order"
	"github.com/example/wholesale-clothing/internal/domain/product"
	"github.com/example/wholesale-clothing/internal/infrastructure/store"
	"github.com/example/wholesale-clothing/internal/projection"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	handler   *Handler
	projector *projection.Projector
	stock     *inventory.Store
	ledger    *store.MemoryLedger
}

func newTestQueryHandler() *testEnv {
	catalog := projection.NewCatalog()
	stock := inventory.NewStore()
	ledger := store.NewMemoryLedger()
	return &testEnv{
		handler:   NewHandler(catalog, stock, ledger),
		projector: projection.NewProjector(catalog, stock, nil),
		stock:     stock,
		ledger:    ledger,
	}
}

func (e *testEnv) addProduct(t *testing.T, id, name string, qty int) {
	t.Helper()
	event, err := store.NewEvent(id, product.AggregateType, product.EventProductCreated, product.ProductCreated{
		ProductID: id,
		Name:      name,
		Category:  "Tops",
		Size:      "M",
		Price:     decimal.RequireFromString("12.99"),
		Quantity:  qty,
	})
	require.NoError(t, err)
	require.NoError(t, e.projector.Apply(event))
}

func (e *testEnv) addOrder(t *testing.T, productID, customer string, qty int, date string) int64 {
	t.Helper()
	d, err := order.ParseDate(date)
	require.NoError(t, err)
	id, err := e.ledger.Append(context.Background(), order.Order{ProductID: productID, CustomerName: customer, Quantity: qty, OrderDate: d})
	require.NoError(t, err)
	return id
}

// ============================================
// Product Query Tests
// ============================================

func TestHandler_GetProduct_Found(t *testing.T) {
	env := newTestQueryHandler()
	env.addProduct(t, "prod-1", "Men's T-Shirt", 100)
	res, err := env.stock.TryReserve("prod-1", 40)
	require.NoError(t, err)
	res.Commit()

	p, ok := env.handler.GetProduct("prod-1")

	require.True(t, ok)
	assert.Equal(t, "Men's T-Shirt", p.Name)
	assert.Equal(t, 60, p.Quantity)
}

func TestHandler_GetProduct_NotFound(t *testing.T) {
	env := newTestQueryHandler()

	_, ok := env.handler.GetProduct("missing")

	assert.False(t, ok)
}

func TestHandler_ListInventory_SortedWithQuantities(t *testing.T) {
	env := newTestQueryHandler()
	env.addProduct(t, "b", "Women's Jeans", 75)
	env.addProduct(t, "a", "Unisex Hoodie", 50)

	list := env.handler.ListInventory()

	require.Len(t, list, 2)
	assert.Equal(t, "Unisex Hoodie", list[0].Name)
	assert.Equal(t, 50, list[0].Quantity)
	assert.Equal(t, "Women's Jeans", list[1].Name)
	assert.Equal(t, 75, list[1].Quantity)
}

func TestHandler_ListInventory_Empty(t *testing.T) {
	env := newTestQueryHandler()

	list := env.handler.ListInventory()

	assert.NotNil(t, list)
	assert.Empty(t, list)
}

// ============================================
// Order Query Tests
// ============================================

func TestHandler_ListRecentOrders_JoinsProductName(t *testing.T) {
	env := newTestQueryHandler()
	env.addProduct(t, "prod-1", "Men's T-Shirt", 100)
	env.addOrder(t, "prod-1", "Alice", 2, "2024-01-01")
	second := env.addOrder(t, "prod-1", "Bob", 1, "2024-02-01")

	orders, err := env.handler.ListRecentOrders(context.Background(), 0)

	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second, orders[0].ID)
	assert.Equal(t, "Men's T-Shirt", orders[0].ProductName)
	assert.Equal(t, "2024-02-01", orders[0].OrderDate)
}

func TestHandler_ListRecentOrders_Limit(t *testing.T) {
	env := newTestQueryHandler()
	env.addProduct(t, "prod-1", "Tee", 100)
	for i := 0; i < 5; i++ {
		env.addOrder(t, "prod-1", "C", 1, "2024-01-01")
	}

	orders, err := env.handler.ListRecentOrders(context.Background(), 3)

	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, int64(5), orders[0].ID)
}

func TestHandler_ListOrdersByProduct(t *testing.T) {
	env := newTestQueryHandler()
	env.addProduct(t, "prod-1", "Tee", 100)
	env.addProduct(t, "prod-2", "Jeans", 100)
	env.addOrder(t, "prod-1", "Alice", 1, "2024-03-01")
	env.addOrder(t, "prod-2", "Bob", 1, "2024-03-01")
	env.addOrder(t, "prod-1", "Carol", 1, "2024-01-01")

	orders, err := env.handler.ListOrdersByProduct(context.Background(), "prod-1")

	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "Alice", orders[0].CustomerName)
	assert.Equal(t, "Carol", orders[1].CustomerName)
	assert.Less(t, orders[0].ID, orders[1].ID)
}

func TestHandler_ListOrdersByProduct_UnknownProduct(t *testing.T) {
	env := newTestQueryHandler()

	_, err := env.handler.ListOrdersByProduct(context.Background(), "missing")

	assert.ErrorIs(t, err, product.ErrProductNotFound)
}

func TestHandler_OrderViewCarriesCreatedAt(t *testing.T) {
	env := newTestQueryHandler()
	env.addProduct(t, "prod-1", "Tee", 1)
	env.addOrder(t, "prod-1", "Alice", 1, "2024-01-01")

	orders, err := env.handler.ListRecentOrders(context.Background(), 1)

	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), orders[0].CreatedAt, time.Minute)
}
