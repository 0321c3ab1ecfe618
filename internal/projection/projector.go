package projection

import (
	"context"
	"fmt"

	"github.com/example/wholesale-clothing/internal/domain/inventory"
	"github.com/example/wholesale-clothing/internal/domain/order"
	"github.com/example/wholesale-clothing/internal/domain/product"
	"github.com/example/wholesale-clothing/internal/infrastructure/store"
	"github.com/example/wholesale-clothing/internal/readmodel"
	"go.uber.org/zap"
)

// Projector applies product and stock events to the catalog and the
// inventory store. It runs both as a live listener and during startup replay.
type Projector struct {
	catalog *Catalog
	stock   *inventory.Store
	logger  *zap.Logger
}

func NewProjector(catalog *Catalog, stock *inventory.Store, logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{catalog: catalog, stock: stock, logger: logger}
}

// Listener adapts the projector for store.ObservedEventStore.
func (p *Projector) Listener() store.Listener {
	return func(ctx context.Context, event store.Event) {
		if err := p.Apply(event); err != nil {
			p.logger.Error("apply event",
				zap.String("event_type", event.EventType),
				zap.String("aggregate_id", event.AggregateID),
				zap.Error(err))
		}
	}
}

func (p *Projector) Apply(event store.Event) error {
	p.logger.Debug("event received",
		zap.String("event_type", event.EventType),
		zap.String("aggregate_type", event.AggregateType))

	switch event.AggregateType {
	case product.AggregateType:
		return p.handleProductEvent(event)
	case inventory.AggregateType:
		return p.handleInventoryEvent(event)
	}
	return nil
}

func (p *Projector) handleProductEvent(event store.Event) error {
	switch event.EventType {
	case product.EventProductCreated:
		var e product.ProductCreated
		if err := event.Decode(&e); err != nil {
			return err
		}
		p.catalog.set(readmodel.ProductReadModel{
			ID:        e.ProductID,
			Name:      e.Name,
			Category:  e.Category,
			Size:      e.Size,
			Price:     e.Price,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.CreatedAt,
		})
		p.stock.Register(e.ProductID, e.Quantity)

	case product.EventProductUpdated:
		var e product.ProductUpdated
		if err := event.Decode(&e); err != nil {
			return err
		}
		p.catalog.update(e.ProductID, func(prod *readmodel.ProductReadModel) {
			prod.Name = e.Name
			prod.Category = e.Category
			prod.Size = e.Size
			prod.Price = e.Price
			prod.UpdatedAt = e.UpdatedAt
		})

	case product.EventProductDeleted:
		var e product.ProductDeleted
		if err := event.Decode(&e); err != nil {
			return err
		}
		p.catalog.remove(e.ProductID)
		p.stock.Remove(e.ProductID)
	}
	return nil
}

func (p *Projector) handleInventoryEvent(event store.Event) error {
	if event.EventType != inventory.EventStockAdded {
		return nil
	}
	var e inventory.StockAdded
	if err := event.Decode(&e); err != nil {
		return err
	}
	return p.stock.Release(e.ProductID, e.Quantity)
}

// Rebuild replays the journal and then takes committed order quantities out
// of stock, restoring the state of the last run.
func (p *Projector) Rebuild(ctx context.Context, es store.EventStoreInterface, ledger order.Ledger) error {
	events, err := es.GetAllEvents(ctx)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	for _, event := range events {
		if err := p.Apply(event); err != nil {
			return fmt.Errorf("replay %s %s: %w", event.EventType, event.AggregateID, err)
		}
	}

	ordered, err := ledger.QuantitiesByProduct(ctx)
	if err != nil {
		return fmt.Errorf("load order totals: %w", err)
	}
	for productID, qty := range ordered {
		if qty <= 0 {
			continue
		}
		res, err := p.stock.TryReserve(productID, qty)
		if err != nil {
			return fmt.Errorf("apply %d ordered units of %s: %w", qty, productID, err)
		}
		res.Commit()
	}

	p.logger.Info("state rebuilt",
		zap.Int("events", len(events)),
		zap.Int("products", p.catalog.Len()))
	return nil
}
