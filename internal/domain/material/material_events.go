package material

import (
	"github.com/muniworks/backend/internal/domain/shared"
)

// Event types for the material context
const (
	EventTypeMaterialRequestSubmitted = "material.request_submitted"
	EventTypeMaterialRequestApproved  = "material.request_approved"
	EventTypeMaterialRequestRejected  = "material.request_rejected"
	EventTypeMaterialRequestDelivered = "material.request_delivered"
)

const aggregateTypeMaterialRequest = "MaterialRequest"

// MaterialRequestSubmittedEvent is emitted when a new request is submitted
type MaterialRequestSubmittedEvent struct {
	shared.BaseDomainEvent
	RequestNumber string `json:"request_number"`
	LineCount     int    `json:"line_count"`
}

// NewMaterialRequestSubmittedEvent creates a new MaterialRequestSubmittedEvent
func NewMaterialRequestSubmittedEvent(mr *MaterialRequest) *MaterialRequestSubmittedEvent {
	return &MaterialRequestSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMaterialRequestSubmitted, aggregateTypeMaterialRequest, mr.ID),
		RequestNumber:   mr.RequestNumber,
		LineCount:       len(mr.Items),
	}
}

// MaterialRequestApprovedEvent is emitted after an approval resolves every
// line to usage or purchase
type MaterialRequestApprovedEvent struct {
	shared.BaseDomainEvent
	RequestNumber string `json:"request_number"`
	Status        Status `json:"status"`
	HasShortfall  bool   `json:"has_shortfall"`
}

// NewMaterialRequestApprovedEvent creates a new MaterialRequestApprovedEvent
func NewMaterialRequestApprovedEvent(mr *MaterialRequest) *MaterialRequestApprovedEvent {
	return &MaterialRequestApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMaterialRequestApproved, aggregateTypeMaterialRequest, mr.ID),
		RequestNumber:   mr.RequestNumber,
		Status:          mr.Status,
		HasShortfall:    mr.HasShortfall(),
	}
}

// MaterialRequestRejectedEvent is emitted when a pending request is rejected
type MaterialRequestRejectedEvent struct {
	shared.BaseDomainEvent
	RequestNumber string `json:"request_number"`
	Reason        string `json:"reason"`
}

// NewMaterialRequestRejectedEvent creates a new MaterialRequestRejectedEvent
func NewMaterialRequestRejectedEvent(mr *MaterialRequest, reason string) *MaterialRequestRejectedEvent {
	return &MaterialRequestRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMaterialRequestRejected, aggregateTypeMaterialRequest, mr.ID),
		RequestNumber:   mr.RequestNumber,
		Reason:          reason,
	}
}

// MaterialRequestDeliveredEvent is emitted when all purchases for the
// request have been handed over and the originating task may proceed
type MaterialRequestDeliveredEvent struct {
	shared.BaseDomainEvent
	RequestNumber string `json:"request_number"`
}

// NewMaterialRequestDeliveredEvent creates a new MaterialRequestDeliveredEvent
func NewMaterialRequestDeliveredEvent(mr *MaterialRequest) *MaterialRequestDeliveredEvent {
	return &MaterialRequestDeliveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMaterialRequestDelivered, aggregateTypeMaterialRequest, mr.ID),
		RequestNumber:   mr.RequestNumber,
	}
}
