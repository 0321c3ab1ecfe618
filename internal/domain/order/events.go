package order

import "time"

const EventOrderPlaced = "OrderPlaced"

// OrderPlaced is published after an order has been committed to the ledger.
type OrderPlaced struct {
	OrderID           int64     `json:"order_id"`
	ProductID         string    `json:"product_id"`
	ProductName       string    `json:"product_name"`
	CustomerName      string    `json:"customer_name"`
	Quantity          int       `json:"quantity"`
	OrderDate         string    `json:"order_date"`
	RemainingQuantity int       `json:"remaining_quantity"`
	PlacedAt          time.Time `json:"placed_at"`
}
