package procurement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/muniworks/backend/internal/domain/shared"
)

// Status represents the status of a purchase request
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusApproved       Status = "APPROVED"
	StatusRejected       Status = "REJECTED"
	StatusOrdered        Status = "ORDERED"
	StatusArrivedInStock Status = "ARRIVED_IN_STOCK"
	StatusDelivered      Status = "DELIVERED"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusOrdered, StatusArrivedInStock, StatusDelivered:
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
		return target == StatusApproved || target == StatusRejected
	case StatusApproved:
		return target == StatusOrdered
	case StatusOrdered:
		return target == StatusArrivedInStock
	case StatusArrivedInStock:
		return target == StatusDelivered
	case StatusRejected, StatusDelivered:
		return false // Terminal states
	}
	return false
}

// PurchaseItem is a single line of a purchase request. The unit cost is
// captured at approval time and frozen; later cost changes on the inventory
// item do not alter an approved purchase.
type PurchaseItem struct {
	shared.BaseEntity
	PurchaseRequestID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemCode          string          `gorm:"type:varchar(50);not null"`
	ItemName          string          `gorm:"type:varchar(255);not null"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (PurchaseItem) TableName() string {
	return "purchase_request_items"
}

// LineCost returns the frozen cost of this line
func (p *PurchaseItem) LineCost() decimal.Decimal {
	return p.UnitCost.Mul(p.Quantity)
}

// PurchaseLine is a submitted line before approval prices it
type PurchaseLine struct {
	ItemCode string
	ItemName string
	Quantity decimal.Decimal
}

// PurchaseRequest tracks goods bought to cover inventory shortfalls. When
// spawned by a material request approval it carries that request's ID so
// delivery can be signalled back.
type PurchaseRequest struct {
	shared.BaseAggregateRoot
	RequestNumber     string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	MaterialRequestID *uuid.UUID      `gorm:"type:uuid;index"`
	RequestedBy       uuid.UUID       `gorm:"type:uuid;not null"`
	Status            Status          `gorm:"type:varchar(30);not null;default:'PENDING'"`
	RejectionReason   string          `gorm:"type:text"`
	TotalCost         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ApprovedBy        *uuid.UUID      `gorm:"type:uuid"`
	ApprovedAt        *time.Time      `gorm:""`
	OrderedAt         *time.Time      `gorm:""`
	ArrivedAt         *time.Time      `gorm:""`
	DeliveredAt       *time.Time      `gorm:""`
	Items             []PurchaseItem  `gorm:"foreignKey:PurchaseRequestID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseRequest) TableName() string {
	return "purchase_requests"
}

// NewPurchaseRequest creates a pending purchase request. materialRequestID
// is nil for standalone restocking purchases.
func NewPurchaseRequest(requestNumber string, requestedBy uuid.UUID, materialRequestID *uuid.UUID, lines []PurchaseLine) (*PurchaseRequest, error) {
	if requestNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Request number cannot be empty")
	}
	if requestedBy == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Requester is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "At least one line item is required")
	}

	pr := &PurchaseRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RequestNumber:     requestNumber,
		MaterialRequestID: materialRequestID,
		RequestedBy:       requestedBy,
		Status:            StatusPending,
		TotalCost:         decimal.Zero,
		Items:             make([]PurchaseItem, 0, len(lines)),
	}

	for _, line := range lines {
		if line.ItemCode == "" {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Line item code cannot be empty")
		}
		if !line.Quantity.IsPositive() {
			return nil, shared.NewDomainError("VALIDATION_ERROR",
				fmt.Sprintf("Quantity for %s must be positive", line.ItemCode))
		}
		pr.Items = append(pr.Items, PurchaseItem{
			BaseEntity:        shared.NewBaseEntity(),
			PurchaseRequestID: pr.ID,
			ItemCode:          line.ItemCode,
			ItemName:          line.ItemName,
			Quantity:          line.Quantity,
			UnitCost:          decimal.Zero,
		})
	}

	pr.AddDomainEvent(NewPurchaseSubmittedEvent(pr))

	return pr, nil
}

// Approve prices every line with the given unit costs and freezes the
// total. unitCosts is keyed by item code and must cover every line.
func (p *PurchaseRequest) Approve(actorID uuid.UUID, unitCosts map[string]decimal.Decimal) error {
	if actorID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Actor is required")
	}
	if !p.Status.CanTransitionTo(StatusApproved) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot approve purchase request in status %s", p.Status))
	}

	total := decimal.Zero
	priced := make([]PurchaseItem, len(p.Items))
	for idx, item := range p.Items {
		cost, ok := unitCosts[item.ItemCode]
		if !ok {
			return shared.NewDomainError("VALIDATION_ERROR",
				fmt.Sprintf("Missing unit cost for %s", item.ItemCode))
		}
		if cost.IsNegative() {
			return shared.NewDomainError("VALIDATION_ERROR",
				fmt.Sprintf("Unit cost for %s cannot be negative", item.ItemCode))
		}
		item.UnitCost = cost
		item.UpdatedAt = time.Now()
		total = total.Add(item.LineCost())
		priced[idx] = item
	}

	now := time.Now()
	p.Items = priced
	p.Status = StatusApproved
	p.TotalCost = total
	p.ApprovedBy = &actorID
	p.ApprovedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPurchaseApprovedEvent(p))

	return nil
}

// Reject terminates a pending purchase. The reason is mandatory.
func (p *PurchaseRequest) Reject(actorID uuid.UUID, reason string) error {
	if reason == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Rejection reason cannot be empty")
	}
	if actorID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Actor is required")
	}
	if !p.Status.CanTransitionTo(StatusRejected) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot reject purchase request in status %s", p.Status))
	}

	p.Status = StatusRejected
	p.RejectionReason = reason
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewPurchaseRejectedEvent(p, reason))

	return nil
}

// MarkOrdered records that the order was placed with the supplier. No
// stock changes here.
func (p *PurchaseRequest) MarkOrdered(actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Actor is required")
	}
	if !p.Status.CanTransitionTo(StatusOrdered) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot order purchase request in status %s", p.Status))
	}

	now := time.Now()
	p.Status = StatusOrdered
	p.OrderedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPurchaseOrderedEvent(p))

	return nil
}

// MarkArrived records physical arrival in the warehouse. The caller
// credits the ledger for every line exactly once alongside this
// transition; re-running the command fails here and never double-credits.
func (p *PurchaseRequest) MarkArrived(actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Actor is required")
	}
	if !p.Status.CanTransitionTo(StatusArrivedInStock) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot mark purchase request arrived in status %s", p.Status))
	}

	now := time.Now()
	p.Status = StatusArrivedInStock
	p.ArrivedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPurchaseArrivedEvent(p))

	return nil
}

// MarkDelivered records the hand-over to the requester. Stock was already
// credited at arrival; this only flips the status and announces delivery.
func (p *PurchaseRequest) MarkDelivered(actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Actor is required")
	}
	if !p.Status.CanTransitionTo(StatusDelivered) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot deliver purchase request in status %s", p.Status))
	}

	now := time.Now()
	p.Status = StatusDelivered
	p.DeliveredAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPurchaseDeliveredEvent(p, actorID))

	return nil
}

// IsTerminal returns true if the purchase reached a terminal state
func (p *PurchaseRequest) IsTerminal() bool {
	return p.Status == StatusRejected || p.Status == StatusDelivered
}
