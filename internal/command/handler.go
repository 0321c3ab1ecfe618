package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/wholesale-clothing/internal/domain/inventory"
	"github.com/example/wholesale-clothing/internal/domain/order"
	"github.com/example/wholesale-clothing/internal/domain/product"
	"github.com/example/wholesale-clothing/internal/fulfillment"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrProductReferenced is returned when deleting a product that has orders.
var ErrProductReferenced = errors.New("product is referenced by orders")

// CatalogSize reports how many products the catalog holds.
type CatalogSize interface {
	Len() int
}

type Handler struct {
	productSvc   *product.Service
	inventorySvc *inventory.Service
	coordinator  *fulfillment.Coordinator
	ledger       order.Ledger
	catalog      CatalogSize
	logger       *zap.Logger
}

func NewHandler(
	productSvc *product.Service,
	inventorySvc *inventory.Service,
	coordinator *fulfillment.Coordinator,
	ledger order.Ledger,
	catalog CatalogSize,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		productSvc:   productSvc,
		inventorySvc: inventorySvc,
		coordinator:  coordinator,
		ledger:       ledger,
		catalog:      catalog,
		logger:       logger,
	}
}

// CreateProduct emits ProductCreated; the projector registers its stock.
func (h *Handler) CreateProduct(ctx context.Context, cmd CreateProduct) (*product.Product, error) {
	p, err := h.productSvc.Create(ctx, product.Details{
		Name:     cmd.Name,
		Category: cmd.Category,
		Size:     cmd.Size,
		Price:    cmd.Price,
	}, cmd.Quantity)
	if err != nil {
		return nil, err
	}
	h.logger.Info("product created", zap.String("product_id", p.ID), zap.String("name", p.Name), zap.Int("quantity", p.Quantity))
	return p, nil
}

func (h *Handler) UpdateProduct(ctx context.Context, cmd UpdateProduct) error {
	return h.productSvc.Update(ctx, cmd.ProductID, product.Details{
		Name:     cmd.Name,
		Category: cmd.Category,
		Size:     cmd.Size,
		Price:    cmd.Price,
	})
}

// DeleteProduct removes a product that no order references. New reservations
// are blocked while the ledger is checked, so an order cannot slip in between
// the check and the delete.
func (h *Handler) DeleteProduct(ctx context.Context, cmd DeleteProduct) error {
	stock := h.inventorySvc.Store()
	if err := stock.Retire(cmd.ProductID); err != nil {
		if errors.Is(err, inventory.ErrProductNotFound) {
			return product.ErrProductNotFound
		}
		return err
	}

	count, err := h.ledger.CountByProduct(ctx, cmd.ProductID)
	if err != nil {
		stock.Reinstate(cmd.ProductID)
		return fmt.Errorf("count orders for %s: %w", cmd.ProductID, err)
	}
	if count > 0 {
		stock.Reinstate(cmd.ProductID)
		return fmt.Errorf("%w: %d orders", ErrProductReferenced, count)
	}

	if err := h.productSvc.Delete(ctx, cmd.ProductID); err != nil {
		stock.Reinstate(cmd.ProductID)
		return err
	}
	h.logger.Info("product deleted", zap.String("product_id", cmd.ProductID))
	return nil
}

// Restock emits StockAdded; the projector releases the units into the store.
func (h *Handler) Restock(ctx context.Context, cmd Restock) error {
	if err := h.inventorySvc.AddStock(ctx, cmd.ProductID, cmd.Quantity); err != nil {
		return err
	}
	h.logger.Info("product restocked", zap.String("product_id", cmd.ProductID), zap.Int("quantity", cmd.Quantity))
	return nil
}

func (h *Handler) PlaceOrder(ctx context.Context, cmd PlaceOrder) fulfillment.Outcome {
	return h.coordinator.PlaceOrder(ctx, fulfillment.Request{
		ProductID:    cmd.ProductID,
		CustomerName: cmd.CustomerName,
		Quantity:     cmd.Quantity,
		OrderDate:    cmd.OrderDate,
	})
}

// SampleProducts is the starter catalog used on an empty store.
var SampleProducts = []CreateProduct{
	{Name: "Men's T-Shirt", Category: "Tops", Size: "M", Quantity: 100, Price: decimal.RequireFromString("12.99")},
	{Name: "Women's Jeans", Category: "Bottoms", Size: "L", Quantity: 75, Price: decimal.RequireFromString("29.99")},
	{Name: "Unisex Hoodie", Category: "Outerwear", Size: "XL", Quantity: 50, Price: decimal.RequireFromString("39.99")},
}

// SeedSampleProducts creates SampleProducts if the catalog is empty and
// returns how many were created.
func (h *Handler) SeedSampleProducts(ctx context.Context) (int, error) {
	if h.catalog.Len() > 0 {
		return 0, nil
	}
	for i, cmd := range SampleProducts {
		if _, err := h.CreateProduct(ctx, cmd); err != nil {
			return i, fmt.Errorf("seed %s: %w", cmd.Name, err)
		}
	}
	return len(SampleProducts), nil
}
