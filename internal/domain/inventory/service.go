package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/example/wholesale-clothing/internal/infrastructure/store"
)

const AggregateType = "Inventory"

// Service records durable stock movements. The in-memory Store is updated by
// the event listener (see projection.Projector), never directly here.
type Service struct {
	eventStore store.EventStoreInterface
	stock      *Store
}

func NewService(es store.EventStoreInterface, stock *Store) *Service {
	return &Service{eventStore: es, stock: stock}
}

// AddStock journals a restock of quantity units for productID. The resulting
// stock may not exceed MaxQuantity, so a journaled restock always replays.
func (s *Service) AddStock(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > MaxQuantity {
		return ErrQuantityOverflow
	}
	current, err := s.stock.QuantityOf(productID)
	if err != nil {
		return err
	}
	if quantity > MaxQuantity-current {
		return ErrQuantityOverflow
	}

	event := StockAdded{
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   time.Now(),
	}

	if _, err := s.eventStore.Append(ctx, productID, AggregateType, EventStockAdded, event); err != nil {
		return fmt.Errorf("record stock added: %w", err)
	}
	return nil
}

// Store exposes the in-memory stock for readers.
func (s *Service) Store() *Store {
	return s.stock
}
