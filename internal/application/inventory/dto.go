package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/muniworks/backend/internal/domain/inventory"
)

// CreateItemRequest is the payload for registering a new inventory item
type CreateItemRequest struct {
	Code             string          `json:"code" binding:"required"`
	Name             string          `json:"name" binding:"required"`
	Unit             string          `json:"unit" binding:"required"`
	MinimumThreshold decimal.Decimal `json:"minimum_threshold"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	OpeningStock     decimal.Decimal `json:"opening_stock"`
}

// UpdateItemRequest is the payload for updating item settings. Stock is
// never changed here; only the ledger operations move stock.
type UpdateItemRequest struct {
	Name             *string          `json:"name"`
	MinimumThreshold *decimal.Decimal `json:"minimum_threshold"`
	UnitCost         *decimal.Decimal `json:"unit_cost"`
}

// ReceiveStockRequest is the payload for a manual stock receipt
type ReceiveStockRequest struct {
	ItemCode  string          `json:"item_code" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	Reference string          `json:"reference"`
}

// IssueStockRequest is the payload for a manual stock issue
type IssueStockRequest struct {
	ItemCode  string          `json:"item_code" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	Reference string          `json:"reference"`
}

// AdjustStockRequest is the payload for a stock-taking correction
type AdjustStockRequest struct {
	ItemCode       string          `json:"item_code" binding:"required"`
	ActualQuantity decimal.Decimal `json:"actual_quantity"`
	Reason         string          `json:"reason" binding:"required"`
}

// ItemResponse is the read model of an inventory item
type ItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Unit             string          `json:"unit"`
	CurrentStock     decimal.Decimal `json:"current_stock"`
	MinimumThreshold decimal.Decimal `json:"minimum_threshold"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	BelowMinimum     bool            `json:"below_minimum"`
	Version          int             `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TransactionResponse is the read model of one ledger entry
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	ItemCode        string          `json:"item_code"`
	TransactionType string          `json:"transaction_type"`
	Quantity        decimal.Decimal `json:"quantity"`
	StockBefore     decimal.Decimal `json:"stock_before"`
	StockAfter      decimal.Decimal `json:"stock_after"`
	SourceType      string          `json:"source_type"`
	SourceID        string          `json:"source_id"`
	Reason          string          `json:"reason,omitempty"`
	ActorID         uuid.UUID       `json:"actor_id"`
	TransactionDate time.Time       `json:"transaction_date"`
}

// ItemDetailResponse is an item together with its append-only ledger
type ItemDetailResponse struct {
	ItemResponse
	Transactions []TransactionResponse `json:"transactions"`
}

// StockMovementResponse is the outcome of a ledger command
type StockMovementResponse struct {
	ItemCode    string              `json:"item_code"`
	Applied     bool                `json:"applied"`
	NewStock    decimal.Decimal     `json:"new_stock"`
	Transaction TransactionResponse `json:"transaction"`
}

// IssueResult is the outcome of an all-or-nothing issue
type IssueResult struct {
	Applied  bool
	NewStock decimal.Decimal
}

// PartialIssueResult is the outcome of issuing whatever stock is available
type PartialIssueResult struct {
	Snapshot  decimal.Decimal
	Issued    decimal.Decimal
	Shortfall decimal.Decimal
}

// ToItemResponse converts a domain item to its read model
func ToItemResponse(item *inventory.InventoryItem) ItemResponse {
	return ItemResponse{
		ID:               item.ID,
		Code:             item.Code,
		Name:             item.Name,
		Unit:             item.Unit,
		CurrentStock:     item.CurrentStock,
		MinimumThreshold: item.MinimumThreshold,
		UnitCost:         item.UnitCost,
		BelowMinimum:     item.IsBelowMinimum(),
		Version:          item.GetVersion(),
		CreatedAt:        item.CreatedAt,
		UpdatedAt:        item.UpdatedAt,
	}
}

// ToTransactionResponse converts a ledger entry to its read model
func ToTransactionResponse(tx *inventory.InventoryTransaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		ItemCode:        tx.ItemCode,
		TransactionType: string(tx.TransactionType),
		Quantity:        tx.Quantity,
		StockBefore:     tx.StockBefore,
		StockAfter:      tx.StockAfter,
		SourceType:      string(tx.SourceType),
		SourceID:        tx.SourceID,
		Reason:          tx.Reason,
		ActorID:         tx.ActorID,
		TransactionDate: tx.TransactionDate,
	}
}
