package query

import (
	"context"
	"fmt"

	"github.com/example/wholesale-clothing/internal/domain/inventory"
	"github.com/example/wholesale-clothing/internal/domain/order"
	"github.com/example/wholesale-clothing/internal/domain/product"
	"github.com/example/wholesale-clothing/internal/projection"
	"github.com/example/wholesale-clothing/internal/readmodel"
)

type Handler struct {
	catalog *projection.Catalog
	stock   *inventory.Store
	ledger  order.Ledger
}

func NewHandler(catalog *projection.Catalog, stock *inventory.Store, ledger order.Ledger) *Handler {
	return &Handler{catalog: catalog, stock: stock, ledger: ledger}
}

// Products

// GetProduct returns the catalog entry joined with its current quantity.
func (h *Handler) GetProduct(id string) (readmodel.ProductReadModel, bool) {
	p, ok := h.catalog.Get(id)
	if !ok {
		return readmodel.ProductReadModel{}, false
	}
	q, err := h.stock.QuantityOf(id)
	if err != nil {
		return readmodel.ProductReadModel{}, false
	}
	p.Quantity = q
	return p, true
}

// ListInventory returns every product with its current quantity, sorted by name.
// Products being deleted are left out.
func (h *Handler) ListInventory() []readmodel.ProductReadModel {
	products := h.catalog.List()
	out := make([]readmodel.ProductReadModel, 0, len(products))
	for _, p := range products {
		q, err := h.stock.QuantityOf(p.ID)
		if err != nil {
			continue
		}
		p.Quantity = q
		out = append(out, p)
	}
	return out
}

// Orders

// ListRecentOrders returns up to n orders, newest order date first. n <= 0 returns all.
func (h *Handler) ListRecentOrders(ctx context.Context, n int) ([]readmodel.OrderReadModel, error) {
	orders, err := h.ledger.ListRecent(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("list recent orders: %w", err)
	}
	return h.views(orders), nil
}

// ListOrdersByProduct returns the orders of one product in id order.
func (h *Handler) ListOrdersByProduct(ctx context.Context, productID string) ([]readmodel.OrderReadModel, error) {
	if !h.catalog.Exists(productID) {
		return nil, product.ErrProductNotFound
	}
	orders, err := h.ledger.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list orders for %s: %w", productID, err)
	}
	return h.views(orders), nil
}

func (h *Handler) views(orders []order.Order) []readmodel.OrderReadModel {
	out := make([]readmodel.OrderReadModel, 0, len(orders))
	for _, o := range orders {
		name, _ := h.catalog.NameOf(o.ProductID)
		out = append(out, readmodel.OrderReadModel{
			ID:           o.ID,
			ProductID:    o.ProductID,
			ProductName:  name,
			CustomerName: o.CustomerName,
			Quantity:     o.Quantity,
			OrderDate:    o.OrderDate.Format(order.DateLayout),
			CreatedAt:    o.CreatedAt,
		})
	}
	return out
}
