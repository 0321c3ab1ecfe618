package readmodel

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductReadModel is the catalog view of a product joined with its live quantity.
type ProductReadModel struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Size      string          `json:"size"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// OrderReadModel is an order joined with its product name
type OrderReadModel struct {
	ID           int64     `json:"id"`
	ProductID    string    `json:"product_id"`
	ProductName  string    `json:"product_name"`
	CustomerName string    `json:"customer_name"`
	Quantity     int       `json:"quantity"`
	OrderDate    string    `json:"order_date"`
	CreatedAt    time.Time `json:"created_at"`
}
