package material

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/muniworks/backend/internal/domain/procurement"
	"github.com/muniworks/backend/internal/domain/shared"
)

// PurchaseDeliveredHandler reacts to purchase hand-overs. When the
// delivered purchase was spawned by a material request and every sibling
// purchase is now delivered, the material request advances to DELIVERED.
type PurchaseDeliveredHandler struct {
	fulfillmentService *FulfillmentService
	logger             *zap.Logger
}

// NewPurchaseDeliveredHandler creates a new handler for purchase delivered events
func NewPurchaseDeliveredHandler(fulfillmentService *FulfillmentService, logger *zap.Logger) *PurchaseDeliveredHandler {
	return &PurchaseDeliveredHandler{
		fulfillmentService: fulfillmentService,
		logger:             logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *PurchaseDeliveredHandler) EventTypes() []string {
	return []string{procurement.EventTypePurchaseDelivered}
}

// Handle processes a PurchaseDeliveredEvent
func (h *PurchaseDeliveredHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	deliveredEvent, ok := event.(*procurement.PurchaseDeliveredEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			procurement.EventTypePurchaseDelivered, event.EventType())
	}

	if deliveredEvent.MaterialRequestID == nil {
		// Standalone restocking purchase, nothing to signal.
		return nil
	}

	h.logger.Info("purchase delivered, checking material request",
		zap.String("purchase_number", deliveredEvent.RequestNumber),
		zap.String("material_request_id", deliveredEvent.MaterialRequestID.String()),
	)

	if err := h.fulfillmentService.DeliverIfComplete(ctx, *deliveredEvent.MaterialRequestID, deliveredEvent.ActorID); err != nil {
		h.logger.Error("failed to advance material request after purchase delivery",
			zap.String("material_request_id", deliveredEvent.MaterialRequestID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}
