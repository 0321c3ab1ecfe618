package fulfillment

import "errors"

// Reason classifies a rejected order.
type Reason string

const (
	ReasonInvalidInput      Reason = "invalid_input"
	ReasonProductNotFound   Reason = "product_not_found"
	ReasonInsufficientStock Reason = "insufficient_stock"
	ReasonLedgerUnavailable Reason = "ledger_unavailable"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrLedgerUnavailable = errors.New("order ledger unavailable")
)

// Outcome is the result of PlaceOrder: accepted with an order id, or
// rejected with a reason. No state change is left behind by a rejection.
type Outcome struct {
	OrderID int64
	Reason  Reason
	Message string
	// Remaining is the product quantity right after an accepted reservation.
	Remaining int
}

func accepted(orderID int64, remaining int) Outcome {
	return Outcome{OrderID: orderID, Remaining: remaining}
}

func rejected(reason Reason, message string) Outcome {
	return Outcome{Reason: reason, Message: message}
}

func (o Outcome) Accepted() bool {
	return o.Reason == ""
}

// Err maps a rejection onto its sentinel error. Accepted outcomes return nil.
func (o Outcome) Err() error {
	switch o.Reason {
	case "":
		return nil
	case ReasonInvalidInput:
		return ErrInvalidInput
	case ReasonProductNotFound:
		return ErrProductNotFound
	case ReasonInsufficientStock:
		return ErrInsufficientStock
	case ReasonLedgerUnavailable:
		return ErrLedgerUnavailable
	}
	return errors.New(string(o.Reason))
}
