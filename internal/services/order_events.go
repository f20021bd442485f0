package services

import (
	"encoding/json"
	"fmt"

	"storefront/internal/models"

	"go.uber.org/zap"
)

// OrderEventHandler processes order events delivered by the broker.
type OrderEventHandler struct {
	logger *zap.Logger
}

// NewOrderEventHandler creates a new OrderEventHandler.
func NewOrderEventHandler(logger *zap.Logger) *OrderEventHandler {
	return &OrderEventHandler{logger: logger}
}

// Handle decodes one event body. A decode error makes the consumer
// reject the delivery.
func (h *OrderEventHandler) Handle(body []byte) error {
	var event models.OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to decode order event: %w", err)
	}
	if event.OrderID == "" {
		return fmt.Errorf("order event %q has no order id", event.Type)
	}

	h.logger.Info("order event received",
		zap.String("type", event.Type),
		zap.String("order_id", event.OrderID),
		zap.String("user_id", event.UserID),
		zap.String("status", string(event.Status)),
		zap.String("total", event.Total.StringFixed(2)),
		zap.Int("items", event.ItemCount),
	)
	return nil
}
