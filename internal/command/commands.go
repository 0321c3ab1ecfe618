package command

import "github.com/shopspring/decimal"

// Product Commands
type CreateProduct struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Size     string          `json:"size"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type UpdateProduct struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Size      string          `json:"size"`
	Price     decimal.Decimal `json:"price"`
}

type DeleteProduct struct {
	ProductID string `json:"product_id"`
}

// Inventory Commands
type Restock struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Order Commands
type PlaceOrder struct {
	ProductID    string `json:"product_id"`
	CustomerName string `json:"customer_name"`
	Quantity     int    `json:"quantity"`
	OrderDate    string `json:"order_date"`
}
