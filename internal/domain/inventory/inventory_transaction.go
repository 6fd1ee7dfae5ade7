package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/muniworks/backend/internal/domain/shared"
)

// TransactionType represents the type of inventory transaction
type TransactionType string

const (
	// TransactionTypeIssue represents stock leaving inventory for a usage allocation
	TransactionTypeIssue TransactionType = "ISSUE"
	// TransactionTypeReceipt represents stock arriving (purchase arrival, opening balance)
	TransactionTypeReceipt TransactionType = "RECEIPT"
	// TransactionTypeAdjustment represents a counted correction
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeIssue, TransactionTypeReceipt, TransactionTypeAdjustment:
		return true
	}
	return false
}

// SourceType represents the document that caused a transaction
type SourceType string

const (
	SourceTypeMaterialRequest  SourceType = "MATERIAL_REQUEST"
	SourceTypePurchaseRequest  SourceType = "PURCHASE_REQUEST"
	SourceTypeManualAdjustment SourceType = "MANUAL_ADJUSTMENT"
	SourceTypeInitialStock     SourceType = "INITIAL_STOCK"
)

// String returns the string representation of SourceType
func (s SourceType) String() string {
	return string(s)
}

// IsValid returns true if the source type is valid
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeMaterialRequest, SourceTypePurchaseRequest, SourceTypeManualAdjustment, SourceTypeInitialStock:
		return true
	}
	return false
}

// InventoryTransaction is an immutable record of a single stock movement.
// Once created, transactions are never updated or deleted; corrections are
// made with new transactions. The sum of issues minus receipts since item
// creation always equals initial minus current stock.
type InventoryTransaction struct {
	shared.BaseEntity
	InventoryItemID uuid.UUID       `gorm:"type:uuid;not null;index:idx_inv_tx_item"`
	ItemCode        string          `gorm:"type:varchar(50);not null;index"`
	TransactionType TransactionType `gorm:"type:varchar(20);not null;index"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Always positive; direction given by type
	StockBefore     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	StockAfter      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SourceType      SourceType      `gorm:"type:varchar(30);not null;index:idx_inv_tx_source"`
	SourceID        string          `gorm:"type:varchar(50);not null;index:idx_inv_tx_source"`
	Reason          string          `gorm:"type:varchar(255)"`
	ActorID         uuid.UUID       `gorm:"type:uuid;not null"`
	TransactionDate time.Time       `gorm:"type:timestamptz;not null;index"`
}

// TableName returns the table name for GORM
func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}

// NewInventoryTransaction creates a new transaction for an item mutation
func NewInventoryTransaction(
	item *InventoryItem,
	txType TransactionType,
	quantity decimal.Decimal,
	stockBefore decimal.Decimal,
	stockAfter decimal.Decimal,
	sourceType SourceType,
	sourceID string,
	actorID uuid.UUID,
) (*InventoryTransaction, error) {
	if item == nil || item.ID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Inventory item is required")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invalid transaction type")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Quantity must be positive")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Invalid source type")
	}
	if sourceID == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Source ID cannot be empty")
	}
	if actorID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Actor is required")
	}
	if stockAfter.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Stock cannot go negative")
	}

	return &InventoryTransaction{
		BaseEntity:      shared.NewBaseEntity(),
		InventoryItemID: item.ID,
		ItemCode:        item.Code,
		TransactionType: txType,
		Quantity:        quantity,
		StockBefore:     stockBefore,
		StockAfter:      stockAfter,
		SourceType:      sourceType,
		SourceID:        sourceID,
		ActorID:         actorID,
		TransactionDate: time.Now(),
	}, nil
}

// SignedQuantity returns the quantity with sign: positive for receipts,
// negative for issues. Adjustments carry the sign of their direction.
func (t *InventoryTransaction) SignedQuantity() decimal.Decimal {
	switch t.TransactionType {
	case TransactionTypeIssue:
		return t.Quantity.Neg()
	case TransactionTypeAdjustment:
		return t.StockAfter.Sub(t.StockBefore)
	default:
		return t.Quantity
	}
}
