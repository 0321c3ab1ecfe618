package order

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"time"
)

const AggregateType = "Order"

// DateLayout is the calendar date format accepted for order dates.
const DateLayout = "2006-01-02"

var (
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrCustomerRequired = errors.New("customer name is required")
	ErrDateRequired     = errors.New("order date is required")
	ErrInvalidDate      = errors.New("order date must be formatted as YYYY-MM-DD")
)

// Order is an accepted order. Orders are immutable once appended to a Ledger.
type Order struct {
	ID           int64     `json:"id"`
	ProductID    string    `json:"product_id"`
	CustomerName string    `json:"customer_name"`
	Quantity     int       `json:"quantity"`
	OrderDate    time.Time `json:"order_date"`
	CreatedAt    time.Time `json:"created_at"`
}

// Validate checks the fields a caller supplies. ID and CreatedAt are owned by the ledger.
func (o Order) Validate() error {
	if o.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if strings.TrimSpace(o.CustomerName) == "" {
		return ErrCustomerRequired
	}
	if o.OrderDate.IsZero() {
		return ErrDateRequired
	}
	return nil
}

// New builds an order from caller input, trimming the customer name and
// parsing the date, and validates it.
func New(productID, customerName string, quantity int, date string) (Order, error) {
	d, dateErr := ParseDate(date)
	o := Order{
		ProductID:    productID,
		CustomerName: strings.TrimSpace(customerName),
		Quantity:     quantity,
		OrderDate:    d,
	}
	if err := o.Validate(); err != nil && (dateErr == nil || !errors.Is(err, ErrDateRequired)) {
		return Order{}, err
	}
	if dateErr != nil {
		return Order{}, dateErr
	}
	return o, nil
}

// ParseDate parses a YYYY-MM-DD order date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrDateRequired
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// SortRecent orders by order date descending, ties broken by id descending.
func SortRecent(orders []Order) {
	slices.SortFunc(orders, func(a, b Order) int {
		if c := b.OrderDate.Compare(a.OrderDate); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
