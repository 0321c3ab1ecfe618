package product

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/example/wholesale-clothing/internal/infrastructure/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateType = "Product"

// MaxInitialQuantity bounds the stock a product can be created with.
const MaxInitialQuantity = math.MaxInt32

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidName     = errors.New("name is required")
	ErrInvalidQuantity = errors.New("quantity must be between 0 and 2147483647")
)

// Product is the catalog entry. Quantity here is the initial stock only; the
// live count is owned by the inventory store.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Size      string          `json:"size"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	IsDeleted bool            `json:"is_deleted,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Details are the admin-editable attributes of a product.
type Details struct {
	Name     string
	Category string
	Size     string
	Price    decimal.Decimal
}

func (d Details) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrInvalidName
	}
	if d.Price.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}

// ApplyEvent folds one stored event into the product state.
func (p *Product) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventProductCreated:
		var e ProductCreated
		if err := event.Decode(&e); err != nil {
			return err
		}
		*p = Product{
			ID:        e.ProductID,
			Name:      e.Name,
			Category:  e.Category,
			Size:      e.Size,
			Price:     e.Price,
			Quantity:  e.Quantity,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.CreatedAt,
		}
	case EventProductUpdated:
		var e ProductUpdated
		if err := event.Decode(&e); err != nil {
			return err
		}
		p.Name = e.Name
		p.Category = e.Category
		p.Size = e.Size
		p.Price = e.Price
		p.UpdatedAt = e.UpdatedAt
	case EventProductDeleted:
		p.IsDeleted = true
	}
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Load rebuilds a product from its events. Deleted products are not found.
func (s *Service) Load(ctx context.Context, productID string) (*Product, error) {
	events, err := s.eventStore.GetEvents(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", productID, err)
	}
	if len(events) == 0 {
		return nil, ErrProductNotFound
	}

	p := &Product{}
	for _, event := range events {
		if err := p.ApplyEvent(event); err != nil {
			return nil, fmt.Errorf("apply %s: %w", event.EventType, err)
		}
	}
	if p.ID == "" || p.IsDeleted {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, d Details, quantity int) (*Product, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	if quantity < 0 || quantity > MaxInitialQuantity {
		return nil, ErrInvalidQuantity
	}

	productID := uuid.New().String()
	now := time.Now()

	event := ProductCreated{
		ProductID: productID,
		Name:      strings.TrimSpace(d.Name),
		Category:  d.Category,
		Size:      d.Size,
		Price:     d.Price,
		Quantity:  quantity,
		CreatedAt: now,
	}

	if _, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductCreated, event); err != nil {
		return nil, err
	}

	return &Product{
		ID:        productID,
		Name:      event.Name,
		Category:  d.Category,
		Size:      d.Size,
		Price:     d.Price,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *Service) Update(ctx context.Context, productID string, d Details) error {
	if err := d.validate(); err != nil {
		return err
	}
	if _, err := s.Load(ctx, productID); err != nil {
		return err
	}

	event := ProductUpdated{
		ProductID: productID,
		Name:      strings.TrimSpace(d.Name),
		Category:  d.Category,
		Size:      d.Size,
		Price:     d.Price,
		UpdatedAt: time.Now(),
	}

	_, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductUpdated, event)
	return err
}

// Delete journals the deletion. Callers must have checked that no order
// references the product.
func (s *Service) Delete(ctx context.Context, productID string) error {
	if _, err := s.Load(ctx, productID); err != nil {
		return err
	}

	event := ProductDeleted{
		ProductID: productID,
		DeletedAt: time.Now(),
	}

	_, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductDeleted, event)
	return err
}
