package material

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/muniworks/backend/internal/domain/shared"
)

// Status represents the overall status of a material request
type Status string

const (
	StatusPending          Status = "PENDING"
	StatusProcessing       Status = "PROCESSING"
	StatusAwaitingDelivery Status = "AWAITING_DELIVERY"
	StatusDelivered        Status = "DELIVERED"
	StatusRejected         Status = "REJECTED"
	StatusFulfilled        Status = "FULFILLED"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusAwaitingDelivery, StatusDelivered, StatusRejected, StatusFulfilled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusProcessing || target == StatusFulfilled ||
			target == StatusAwaitingDelivery || target == StatusRejected
	case StatusProcessing:
		return target == StatusFulfilled || target == StatusAwaitingDelivery
	case StatusAwaitingDelivery:
		return target == StatusDelivered
	case StatusDelivered, StatusRejected, StatusFulfilled:
		return false // Terminal states
	}
	return false
}

// RequestType marks how a line is being satisfied
type RequestType string

const (
	RequestTypeUsage    RequestType = "USAGE"
	RequestTypePurchase RequestType = "PURCHASE"
)

// ItemStatus is the per-line fulfillment status
type ItemStatus string

const (
	ItemStatusPending         ItemStatus = "PENDING"
	ItemStatusFulfilled       ItemStatus = "FULFILLED"
	ItemStatusPendingPurchase ItemStatus = "PENDING_PURCHASE"
)

// RequestItem is a single line of a material request. Quantities issued
// from stock and quantities routed to purchase are tracked separately so a
// partially covered line keeps both halves visible.
type RequestItem struct {
	shared.BaseEntity
	MaterialRequestID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemCode                  string          `gorm:"type:varchar(50);not null"`
	ItemName                  string          `gorm:"type:varchar(255);not null"`
	RequestedQuantity         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AvailableQuantitySnapshot decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IssuedQuantity            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ShortfallQuantity         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RequestType               RequestType     `gorm:"type:varchar(20);not null;default:'USAGE'"`
	ItemStatus                ItemStatus      `gorm:"type:varchar(20);not null;default:'PENDING'"`
}

// TableName returns the table name for GORM
func (RequestItem) TableName() string {
	return "material_request_items"
}

// LineAsk is a submitted line before any stock is consulted
type LineAsk struct {
	ItemCode string
	ItemName string
	Quantity decimal.Decimal
}

// LineFulfillment is the per-line outcome of an approval: the stock
// snapshot taken at approval time, the quantity actually issued, and the
// remainder routed to purchase.
type LineFulfillment struct {
	ItemCode  string
	Snapshot  decimal.Decimal
	Issued    decimal.Decimal
	Shortfall decimal.Decimal
}

// MaterialRequest is an ask for inventory items raised against a
// maintenance task. Submission records the ask only; stock is consulted and
// consumed at approval time.
type MaterialRequest struct {
	shared.BaseAggregateRoot
	RequestNumber   string        `gorm:"type:varchar(50);not null;uniqueIndex"`
	RequestedBy     uuid.UUID     `gorm:"type:uuid;not null"`
	Status          Status        `gorm:"type:varchar(30);not null;default:'PENDING'"`
	Notes           string        `gorm:"type:text"`
	RejectionReason string        `gorm:"type:text"`
	ApprovedBy      *uuid.UUID    `gorm:"type:uuid"`
	ApprovedAt      *time.Time    `gorm:""`
	DeliveredAt     *time.Time    `gorm:""`
	Items           []RequestItem `gorm:"foreignKey:MaterialRequestID;references:ID"`
}

// TableName returns the table name for GORM
func (MaterialRequest) TableName() string {
	return "material_requests"
}

// NewMaterialRequest creates a pending material request from submitted asks
func NewMaterialRequest(requestNumber string, requestedBy uuid.UUID, notes string, asks []LineAsk) (*MaterialRequest, error) {
	if requestNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Request number cannot be empty")
	}
	if requestedBy == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Requester is required")
	}
	if len(asks) == 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "At least one line item is required")
	}

	mr := &MaterialRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RequestNumber:     requestNumber,
		RequestedBy:       requestedBy,
		Status:            StatusPending,
		Notes:             notes,
		Items:             make([]RequestItem, 0, len(asks)),
	}

	seen := make(map[string]bool, len(asks))
	for _, ask := range asks {
		if ask.ItemCode == "" {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Line item code cannot be empty")
		}
		if !ask.Quantity.IsPositive() {
			return nil, shared.NewDomainError("VALIDATION_ERROR",
				fmt.Sprintf("Requested quantity for %s must be positive", ask.ItemCode))
		}
		if seen[ask.ItemCode] {
			return nil, shared.NewDomainError("VALIDATION_ERROR",
				fmt.Sprintf("Duplicate line item %s", ask.ItemCode))
		}
		seen[ask.ItemCode] = true

		mr.Items = append(mr.Items, RequestItem{
			BaseEntity:                shared.NewBaseEntity(),
			MaterialRequestID:         mr.ID,
			ItemCode:                  ask.ItemCode,
			ItemName:                  ask.ItemName,
			RequestedQuantity:         ask.Quantity,
			AvailableQuantitySnapshot: decimal.Zero,
			IssuedQuantity:            decimal.Zero,
			ShortfallQuantity:         decimal.Zero,
			RequestType:               RequestTypeUsage,
			ItemStatus:                ItemStatusPending,
		})
	}

	mr.AddDomainEvent(NewMaterialRequestSubmittedEvent(mr))

	return mr, nil
}

// BeginApproval claims a pending request for fulfillment. Persisting the
// PROCESSING state through the version check serializes concurrent approvals
// of the same request before any stock moves; the loser surfaces CONFLICT
// with the ledger untouched.
func (m *MaterialRequest) BeginApproval(actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Actor is required")
	}
	if m.Status != StatusPending {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot approve material request in status %s", m.Status))
	}

	m.Status = StatusProcessing
	m.UpdatedAt = time.Now()
	m.IncrementVersion()

	return nil
}

// ApplyFulfillment records the outcome of an approval across all lines as
// one unit. Every submitted line must appear exactly once in the results;
// the overall status becomes FULFILLED when nothing was routed to purchase,
// AWAITING_DELIVERY otherwise. PENDING is accepted alongside PROCESSING so
// an approval can also be applied in one step.
func (m *MaterialRequest) ApplyFulfillment(results []LineFulfillment, actorID uuid.UUID) error {
	if m.Status != StatusPending && m.Status != StatusProcessing {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot approve material request in status %s", m.Status))
	}
	if actorID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Actor is required")
	}
	if len(results) != len(m.Items) {
		return shared.NewDomainError("VALIDATION_ERROR", "Fulfillment must cover every line item")
	}

	byCode := make(map[string]LineFulfillment, len(results))
	for _, r := range results {
		byCode[r.ItemCode] = r
	}

	hasShortfall := false
	updated := make([]RequestItem, len(m.Items))
	for idx, item := range m.Items {
		result, ok := byCode[item.ItemCode]
		if !ok {
			return shared.NewDomainError("VALIDATION_ERROR",
				fmt.Sprintf("Fulfillment missing line item %s", item.ItemCode))
		}
		if !result.Issued.Add(result.Shortfall).Equal(item.RequestedQuantity) {
			return shared.NewDomainError("VALIDATION_ERROR",
				fmt.Sprintf("Issued plus shortfall for %s must equal the requested quantity", item.ItemCode))
		}

		item.AvailableQuantitySnapshot = result.Snapshot
		item.IssuedQuantity = result.Issued
		item.ShortfallQuantity = result.Shortfall
		if result.Shortfall.IsPositive() {
			item.RequestType = RequestTypePurchase
			item.ItemStatus = ItemStatusPendingPurchase
			hasShortfall = true
		} else {
			item.RequestType = RequestTypeUsage
			item.ItemStatus = ItemStatusFulfilled
		}
		item.UpdatedAt = time.Now()
		updated[idx] = item
	}

	target := StatusFulfilled
	if hasShortfall {
		target = StatusAwaitingDelivery
	}

	now := time.Now()
	m.Items = updated
	m.Status = target
	m.ApprovedBy = &actorID
	m.ApprovedAt = &now
	m.UpdatedAt = now
	m.IncrementVersion()

	m.AddDomainEvent(NewMaterialRequestApprovedEvent(m))

	return nil
}

// Reject terminates a pending request. The reason is mandatory and no
// stock is touched.
func (m *MaterialRequest) Reject(actorID uuid.UUID, reason string) error {
	if reason == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Rejection reason cannot be empty")
	}
	if actorID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Actor is required")
	}
	if !m.Status.CanTransitionTo(StatusRejected) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot reject material request in status %s", m.Status))
	}

	m.Status = StatusRejected
	m.RejectionReason = reason
	m.UpdatedAt = time.Now()
	m.IncrementVersion()

	m.AddDomainEvent(NewMaterialRequestRejectedEvent(m, reason))

	return nil
}

// MarkDelivered transitions AWAITING_DELIVERY to DELIVERED once every
// purchase spawned for this request has been handed over. It is the signal
// that lets the originating maintenance task proceed.
func (m *MaterialRequest) MarkDelivered(actorID uuid.UUID, notes string) error {
	if actorID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Actor is required")
	}
	if !m.Status.CanTransitionTo(StatusDelivered) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot mark material request delivered in status %s", m.Status))
	}

	now := time.Now()
	m.Status = StatusDelivered
	m.DeliveredAt = &now
	if notes != "" {
		m.Notes = notes
	}
	for idx := range m.Items {
		if m.Items[idx].ItemStatus == ItemStatusPendingPurchase {
			m.Items[idx].ItemStatus = ItemStatusFulfilled
			m.Items[idx].UpdatedAt = now
		}
	}
	m.UpdatedAt = now
	m.IncrementVersion()

	m.AddDomainEvent(NewMaterialRequestDeliveredEvent(m))

	return nil
}

// HasShortfall returns true if any line was routed to purchase
func (m *MaterialRequest) HasShortfall() bool {
	for _, item := range m.Items {
		if item.ShortfallQuantity.IsPositive() {
			return true
		}
	}
	return false
}

// ShortfallLines returns the lines awaiting purchase
func (m *MaterialRequest) ShortfallLines() []RequestItem {
	lines := make([]RequestItem, 0)
	for _, item := range m.Items {
		if item.ShortfallQuantity.IsPositive() {
			lines = append(lines, item)
		}
	}
	return lines
}

// IsTerminal returns true if the request reached a terminal state
func (m *MaterialRequest) IsTerminal() bool {
	return m.Status == StatusDelivered || m.Status == StatusRejected || m.Status == StatusFulfilled
}
