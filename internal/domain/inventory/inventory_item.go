package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/muniworks/backend/internal/domain/shared"
)

// InventoryItem represents the authoritative stock record for a single
// material item (bulbs, paint, pipes, ...). It is the aggregate root for all
// stock mutations: stock only changes through Issue, Receive, and Adjust,
// each of which appends an immutable InventoryTransaction.
type InventoryItem struct {
	shared.BaseAggregateRoot
	Code             string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name             string          `gorm:"type:varchar(200);not null"`
	Unit             string          `gorm:"type:varchar(20);not null"`
	CurrentStock     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MinimumThreshold decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// NewInventoryItem creates a new inventory item with an opening balance.
// The opening balance is recorded by the caller as an INITIAL_STOCK receipt.
func NewInventoryItem(code, name, unit string, minimumThreshold, unitCost decimal.Decimal) (*InventoryItem, error) {
	if code == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Item code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Item name cannot be empty")
	}
	if unit == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Item unit cannot be empty")
	}
	if minimumThreshold.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Minimum threshold cannot be negative")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Unit cost cannot be negative")
	}

	return &InventoryItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Unit:              unit,
		CurrentStock:      decimal.Zero,
		MinimumThreshold:  minimumThreshold,
		UnitCost:          unitCost,
	}, nil
}

// Issue decrements stock for a usage allocation. It succeeds only if the
// full quantity is available; on refusal no state changes. The returned
// transaction must be persisted atomically with the stock change.
func (i *InventoryItem) Issue(quantity decimal.Decimal, actorID uuid.UUID, sourceType SourceType, sourceID string) (*InventoryTransaction, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Issue quantity must be positive")
	}
	if i.CurrentStock.LessThan(quantity) {
		return nil, shared.ErrInsufficientStock
	}

	before := i.CurrentStock
	i.CurrentStock = i.CurrentStock.Sub(quantity)
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	tx, err := NewInventoryTransaction(i, TransactionTypeIssue, quantity, before, i.CurrentStock, sourceType, sourceID, actorID)
	if err != nil {
		return nil, err
	}

	i.AddDomainEvent(NewStockIssuedEvent(i, quantity, sourceType, sourceID))
	if i.IsBelowMinimum() {
		i.AddDomainEvent(NewStockBelowThresholdEvent(i))
	}

	return tx, nil
}

// Receive increments stock, e.g. on purchase arrival or opening balance.
// It always succeeds for a positive quantity.
func (i *InventoryItem) Receive(quantity decimal.Decimal, actorID uuid.UUID, sourceType SourceType, sourceID string) (*InventoryTransaction, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Receive quantity must be positive")
	}

	before := i.CurrentStock
	i.CurrentStock = i.CurrentStock.Add(quantity)
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	tx, err := NewInventoryTransaction(i, TransactionTypeReceipt, quantity, before, i.CurrentStock, sourceType, sourceID, actorID)
	if err != nil {
		return nil, err
	}

	i.AddDomainEvent(NewStockReceivedEvent(i, quantity, sourceType, sourceID))

	return tx, nil
}

// Adjust sets the stock to the counted quantity. The reason is recorded for
// audit purposes.
func (i *InventoryItem) Adjust(actualQuantity decimal.Decimal, reason string, actorID uuid.UUID) (*InventoryTransaction, error) {
	if actualQuantity.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Actual quantity cannot be negative")
	}
	if reason == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Adjustment reason is required")
	}
	if actualQuantity.Equal(i.CurrentStock) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Adjustment quantity equals current stock")
	}

	before := i.CurrentStock
	difference := actualQuantity.Sub(before).Abs()
	i.CurrentStock = actualQuantity
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	tx, err := NewInventoryTransaction(i, TransactionTypeAdjustment, difference, before, i.CurrentStock, SourceTypeManualAdjustment, i.Code, actorID)
	if err != nil {
		return nil, err
	}
	tx.Reason = reason

	i.AddDomainEvent(NewStockAdjustedEvent(i, before, actualQuantity, reason))
	if i.IsBelowMinimum() {
		i.AddDomainEvent(NewStockBelowThresholdEvent(i))
	}

	return tx, nil
}

// SetUnitCost updates the reference cost for future purchase lines. Already
// approved purchases keep their frozen cost.
func (i *InventoryItem) SetUnitCost(cost decimal.Decimal) error {
	if cost.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Unit cost cannot be negative")
	}
	i.UnitCost = cost
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// SetMinimumThreshold updates the reorder threshold
func (i *InventoryItem) SetMinimumThreshold(threshold decimal.Decimal) error {
	if threshold.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Minimum threshold cannot be negative")
	}
	i.MinimumThreshold = threshold
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// CanFulfill returns true if current stock covers the requested quantity
func (i *InventoryItem) CanFulfill(quantity decimal.Decimal) bool {
	return i.CurrentStock.GreaterThanOrEqual(quantity)
}

// IsBelowMinimum returns true if stock has dropped under the reorder threshold
func (i *InventoryItem) IsBelowMinimum() bool {
	return i.MinimumThreshold.GreaterThan(decimal.Zero) && i.CurrentStock.LessThan(i.MinimumThreshold)
}

// HasStock returns true if there is any stock on hand
func (i *InventoryItem) HasStock() bool {
	return i.CurrentStock.GreaterThan(decimal.Zero)
}
