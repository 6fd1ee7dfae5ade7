package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/muniworks/backend/internal/domain/shared"
)

// Event types for the inventory context
const (
	EventTypeStockIssued         = "inventory.stock_issued"
	EventTypeStockReceived       = "inventory.stock_received"
	EventTypeStockAdjusted       = "inventory.stock_adjusted"
	EventTypeStockBelowThreshold = "inventory.stock_below_threshold"
)

// aggregateTypeInventoryItem is the aggregate type for inventory events
const aggregateTypeInventoryItem = "InventoryItem"

// StockIssuedEvent is emitted when stock is issued for a usage allocation
type StockIssuedEvent struct {
	shared.BaseDomainEvent
	ItemCode   string          `json:"item_code"`
	Quantity   decimal.Decimal `json:"quantity"`
	NewStock   decimal.Decimal `json:"new_stock"`
	SourceType SourceType      `json:"source_type"`
	SourceID   string          `json:"source_id"`
}

// NewStockIssuedEvent creates a new StockIssuedEvent
func NewStockIssuedEvent(item *InventoryItem, quantity decimal.Decimal, sourceType SourceType, sourceID string) *StockIssuedEvent {
	return &StockIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockIssued, aggregateTypeInventoryItem, item.ID),
		ItemCode:        item.Code,
		Quantity:        quantity,
		NewStock:        item.CurrentStock,
		SourceType:      sourceType,
		SourceID:        sourceID,
	}
}

// StockReceivedEvent is emitted when stock arrives
type StockReceivedEvent struct {
	shared.BaseDomainEvent
	ItemCode   string          `json:"item_code"`
	Quantity   decimal.Decimal `json:"quantity"`
	NewStock   decimal.Decimal `json:"new_stock"`
	SourceType SourceType      `json:"source_type"`
	SourceID   string          `json:"source_id"`
}

// NewStockReceivedEvent creates a new StockReceivedEvent
func NewStockReceivedEvent(item *InventoryItem, quantity decimal.Decimal, sourceType SourceType, sourceID string) *StockReceivedEvent {
	return &StockReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReceived, aggregateTypeInventoryItem, item.ID),
		ItemCode:        item.Code,
		Quantity:        quantity,
		NewStock:        item.CurrentStock,
		SourceType:      sourceType,
		SourceID:        sourceID,
	}
}

// StockAdjustedEvent is emitted when stock is corrected to a counted value
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	ItemCode    string          `json:"item_code"`
	StockBefore decimal.Decimal `json:"stock_before"`
	StockAfter  decimal.Decimal `json:"stock_after"`
	Reason      string          `json:"reason"`
}

// NewStockAdjustedEvent creates a new StockAdjustedEvent
func NewStockAdjustedEvent(item *InventoryItem, before, after decimal.Decimal, reason string) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdjusted, aggregateTypeInventoryItem, item.ID),
		ItemCode:        item.Code,
		StockBefore:     before,
		StockAfter:      after,
		Reason:          reason,
	}
}

// StockBelowThresholdEvent is emitted when stock drops under the reorder threshold
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	ItemCode         string          `json:"item_code"`
	CurrentStock     decimal.Decimal `json:"current_stock"`
	MinimumThreshold decimal.Decimal `json:"minimum_threshold"`
}

// NewStockBelowThresholdEvent creates a new StockBelowThresholdEvent
func NewStockBelowThresholdEvent(item *InventoryItem) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, aggregateTypeInventoryItem, item.ID),
		ItemCode:         item.Code,
		CurrentStock:     item.CurrentStock,
		MinimumThreshold: item.MinimumThreshold,
	}
}
