package notification

import (
	"context"
	"encoding/json"

	"github.com/example/wholesale-clothing/internal/domain/order"
	"github.com/example/wholesale-clothing/internal/email"
	"github.com/example/wholesale-clothing/internal/infrastructure/store"
	"go.uber.org/zap"
)

// AlertSender delivers low stock alerts
type AlertSender interface {
	SendLowStockAlert(to string, alert email.LowStockAlert) error
}

// Handler watches OrderPlaced events and alerts when stock runs low
type Handler struct {
	sender    AlertSender
	alertTo   string
	threshold int
	logger    *zap.Logger
}

func NewHandler(sender AlertSender, alertTo string, threshold int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		sender:    sender,
		alertTo:   alertTo,
		threshold: threshold,
		logger:    logger,
	}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		h.logger.Warn("unmarshal event", zap.Error(err))
		return err
	}

	if event.EventType == order.EventOrderPlaced {
		return h.handleOrderPlaced(event)
	}
	return nil
}

func (h *Handler) handleOrderPlaced(event store.Event) error {
	var e order.OrderPlaced
	if err := event.Decode(&e); err != nil {
		h.logger.Warn("unmarshal OrderPlaced", zap.Error(err))
		return err
	}

	h.logger.Info("order placed",
		zap.Int64("order_id", e.OrderID),
		zap.String("product", e.ProductName),
		zap.String("customer", e.CustomerName),
		zap.Int("quantity", e.Quantity),
		zap.Int("remaining", e.RemainingQuantity))

	if e.RemainingQuantity > h.threshold {
		return nil
	}
	if h.alertTo == "" {
		h.logger.Warn("low stock, no alert recipient configured",
			zap.String("product_id", e.ProductID),
			zap.Int("remaining", e.RemainingQuantity))
		return nil
	}

	alert := email.LowStockAlert{
		ProductID:    e.ProductID,
		ProductName:  e.ProductName,
		Remaining:    e.RemainingQuantity,
		Threshold:    h.threshold,
		LastOrderID:  e.OrderID,
		LastCustomer: e.CustomerName,
		LastQuantity: e.Quantity,
	}
	if err := h.sender.SendLowStockAlert(h.alertTo, alert); err != nil {
		h.logger.Error("send low stock alert", zap.String("to", h.alertTo), zap.Error(err))
		return err
	}

	h.logger.Info("low stock alert sent", zap.String("to", h.alertTo), zap.String("product_id", e.ProductID))
	return nil
}
