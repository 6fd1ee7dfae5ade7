package procurement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/muniworks/backend/internal/domain/shared"
)

// Event types for the procurement context
const (
	EventTypePurchaseSubmitted = "procurement.purchase_submitted"
	EventTypePurchaseApproved  = "procurement.purchase_approved"
	EventTypePurchaseRejected  = "procurement.purchase_rejected"
	EventTypePurchaseOrdered   = "procurement.purchase_ordered"
	EventTypePurchaseArrived   = "procurement.purchase_arrived"
	EventTypePurchaseDelivered = "procurement.purchase_delivered"
)

const aggregateTypePurchaseRequest = "PurchaseRequest"

// PurchaseSubmittedEvent is emitted when a purchase request is created
type PurchaseSubmittedEvent struct {
	shared.BaseDomainEvent
	RequestNumber     string     `json:"request_number"`
	MaterialRequestID *uuid.UUID `json:"material_request_id,omitempty"`
}

// NewPurchaseSubmittedEvent creates a new PurchaseSubmittedEvent
func NewPurchaseSubmittedEvent(pr *PurchaseRequest) *PurchaseSubmittedEvent {
	return &PurchaseSubmittedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypePurchaseSubmitted, aggregateTypePurchaseRequest, pr.ID),
		RequestNumber:     pr.RequestNumber,
		MaterialRequestID: pr.MaterialRequestID,
	}
}

// PurchaseApprovedEvent is emitted when a purchase is approved and priced
type PurchaseApprovedEvent struct {
	shared.BaseDomainEvent
	RequestNumber string          `json:"request_number"`
	TotalCost     decimal.Decimal `json:"total_cost"`
}

// NewPurchaseApprovedEvent creates a new PurchaseApprovedEvent
func NewPurchaseApprovedEvent(pr *PurchaseRequest) *PurchaseApprovedEvent {
	return &PurchaseApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseApproved, aggregateTypePurchaseRequest, pr.ID),
		RequestNumber:   pr.RequestNumber,
		TotalCost:       pr.TotalCost,
	}
}

// PurchaseRejectedEvent is emitted when a pending purchase is rejected
type PurchaseRejectedEvent struct {
	shared.BaseDomainEvent
	RequestNumber string `json:"request_number"`
	Reason        string `json:"reason"`
}

// NewPurchaseRejectedEvent creates a new PurchaseRejectedEvent
func NewPurchaseRejectedEvent(pr *PurchaseRequest, reason string) *PurchaseRejectedEvent {
	return &PurchaseRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseRejected, aggregateTypePurchaseRequest, pr.ID),
		RequestNumber:   pr.RequestNumber,
		Reason:          reason,
	}
}

// PurchaseOrderedEvent is emitted when the order is placed with a supplier
type PurchaseOrderedEvent struct {
	shared.BaseDomainEvent
	RequestNumber string `json:"request_number"`
}

// NewPurchaseOrderedEvent creates a new PurchaseOrderedEvent
func NewPurchaseOrderedEvent(pr *PurchaseRequest) *PurchaseOrderedEvent {
	return &PurchaseOrderedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrdered, aggregateTypePurchaseRequest, pr.ID),
		RequestNumber:   pr.RequestNumber,
	}
}

// PurchaseArrivedEvent is emitted when goods physically reach the warehouse
type PurchaseArrivedEvent struct {
	shared.BaseDomainEvent
	RequestNumber string `json:"request_number"`
}

// NewPurchaseArrivedEvent creates a new PurchaseArrivedEvent
func NewPurchaseArrivedEvent(pr *PurchaseRequest) *PurchaseArrivedEvent {
	return &PurchaseArrivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseArrived, aggregateTypePurchaseRequest, pr.ID),
		RequestNumber:   pr.RequestNumber,
	}
}

// PurchaseDeliveredEvent is emitted when goods are handed to the
// requester. Consumers use MaterialRequestID to decide whether the
// originating material request can advance.
type PurchaseDeliveredEvent struct {
	shared.BaseDomainEvent
	RequestNumber     string     `json:"request_number"`
	MaterialRequestID *uuid.UUID `json:"material_request_id,omitempty"`
	ActorID           uuid.UUID  `json:"actor_id"`
}

// NewPurchaseDeliveredEvent creates a new PurchaseDeliveredEvent
func NewPurchaseDeliveredEvent(pr *PurchaseRequest, actorID uuid.UUID) *PurchaseDeliveredEvent {
	return &PurchaseDeliveredEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypePurchaseDelivered, aggregateTypePurchaseRequest, pr.ID),
		RequestNumber:     pr.RequestNumber,
		MaterialRequestID: pr.MaterialRequestID,
		ActorID:           actorID,
	}
}
