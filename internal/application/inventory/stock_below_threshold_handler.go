package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/muniworks/backend/internal/domain/inventory"
	"github.com/muniworks/backend/internal/domain/shared"
)

// StockBelowThresholdHandler reacts to stock dropping under the reorder
// threshold. It surfaces the condition in the logs so operators can raise
// a restocking purchase.
type StockBelowThresholdHandler struct {
	logger *zap.Logger
}

// NewStockBelowThresholdHandler creates a new handler for low-stock events
func NewStockBelowThresholdHandler(logger *zap.Logger) *StockBelowThresholdHandler {
	return &StockBelowThresholdHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *StockBelowThresholdHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowThreshold}
}

// Handle processes a StockBelowThresholdEvent
func (h *StockBelowThresholdHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	lowStockEvent, ok := event.(*inventory.StockBelowThresholdEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockBelowThreshold, event.EventType())
	}

	h.logger.Warn("inventory item below reorder threshold",
		zap.String("item_code", lowStockEvent.ItemCode),
		zap.String("current_stock", lowStockEvent.CurrentStock.String()),
		zap.String("minimum_threshold", lowStockEvent.MinimumThreshold.String()),
	)
	return nil
}
