package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/wholesale-clothing/internal/domain/inventory"
	"github.com/example/wholesale-clothing/internal/domain/order"
	"github.com/example/wholesale-clothing/internal/infrastructure/store"
	"go.uber.org/zap"
)

const DefaultLedgerTimeout = 5 * time.Second

// Catalog answers product lookups for the coordinator.
type Catalog interface {
	Exists(productID string) bool
	NameOf(productID string) (string, bool)
}

// Request is one order for a single product.
type Request struct {
	ProductID    string
	CustomerName string
	Quantity     int
	OrderDate    string
}

// Coordinator turns requests into committed orders. Stock is reserved in the
// inventory store first and the order is then appended to the ledger; if the
// append fails the reservation is rolled back.
type Coordinator struct {
	stock         *inventory.Store
	ledger        order.Ledger
	catalog       Catalog
	publisher     store.Publisher
	ledgerTimeout time.Duration
	logger        *zap.Logger
}

type Option func(*Coordinator)

// WithPublisher emits an OrderPlaced event after every accepted order.
func WithPublisher(p store.Publisher) Option {
	return func(c *Coordinator) { c.publisher = p }
}

func WithLedgerTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.ledgerTimeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewCoordinator(stock *inventory.Store, ledger order.Ledger, catalog Catalog, opts ...Option) *Coordinator {
	c := &Coordinator{
		stock:         stock,
		ledger:        ledger,
		catalog:       catalog,
		ledgerTimeout: DefaultLedgerTimeout,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PlaceOrder reserves stock and records the order. Once a reservation has been
// taken the call runs to completion even if ctx is cancelled.
func (c *Coordinator) PlaceOrder(ctx context.Context, req Request) Outcome {
	out := c.placeOrder(ctx, req)

	fields := []zap.Field{
		zap.String("product_id", req.ProductID),
		zap.String("customer", req.CustomerName),
		zap.Int("quantity", req.Quantity),
	}
	if out.Accepted() {
		c.logger.Info("order accepted", append(fields, zap.Int64("order_id", out.OrderID), zap.Int("remaining", out.Remaining))...)
	} else {
		c.logger.Info("order rejected", append(fields, zap.String("reason", string(out.Reason)))...)
	}
	return out
}

func (c *Coordinator) placeOrder(ctx context.Context, req Request) Outcome {
	o, err := order.New(req.ProductID, req.CustomerName, req.Quantity, req.OrderDate)
	if err != nil {
		return rejected(ReasonInvalidInput, err.Error())
	}

	name, ok := c.catalog.NameOf(req.ProductID)
	if !ok {
		return rejected(ReasonProductNotFound, fmt.Sprintf("product %s not found", req.ProductID))
	}

	res, err := c.stock.TryReserve(req.ProductID, req.Quantity)
	switch {
	case errors.Is(err, inventory.ErrInsufficientStock):
		return rejected(ReasonInsufficientStock, fmt.Sprintf("insufficient stock for %s", name))
	case errors.Is(err, inventory.ErrProductNotFound):
		return rejected(ReasonProductNotFound, fmt.Sprintf("product %s not found", req.ProductID))
	case errors.Is(err, inventory.ErrInvalidQuantity):
		return rejected(ReasonInvalidInput, err.Error())
	case err != nil:
		return rejected(ReasonInsufficientStock, err.Error())
	}

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.ledgerTimeout)
	defer cancel()

	orderID, err := c.ledger.Append(actx, o)
	if err != nil {
		res.Rollback()
		c.logger.Error("ledger append failed, reservation released",
			zap.String("product_id", req.ProductID),
			zap.Int("quantity", req.Quantity),
			zap.Error(err))
		return rejected(ReasonLedgerUnavailable, "order could not be recorded, please retry")
	}
	res.Commit()

	c.publish(actx, orderID, name, req, res.Remaining)
	return accepted(orderID, res.Remaining)
}

func (c *Coordinator) publish(ctx context.Context, orderID int64, name string, req Request, remaining int) {
	if c.publisher == nil {
		return
	}
	event, err := store.NewEvent(req.ProductID, order.AggregateType, order.EventOrderPlaced, order.OrderPlaced{
		OrderID:           orderID,
		ProductID:         req.ProductID,
		ProductName:       name,
		CustomerName:      strings.TrimSpace(req.CustomerName),
		Quantity:          req.Quantity,
		OrderDate:         req.OrderDate,
		RemainingQuantity: remaining,
		PlacedAt:          time.Now(),
	})
	if err == nil {
		err = c.publisher.Publish(ctx, req.ProductID, event)
	}
	if err != nil {
		c.logger.Warn("publish OrderPlaced failed", zap.Int64("order_id", orderID), zap.Error(err))
	}
}
