package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/muniworks/backend/internal/domain/shared"
)

// InventoryItemRepository defines the interface for inventory item persistence
type InventoryItemRepository interface {
	// FindByID finds an inventory item by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryItem, error)

	// FindByCode finds an inventory item by its code
	FindByCode(ctx context.Context, code string) (*InventoryItem, error)

	// FindAll finds inventory items matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]InventoryItem, error)

	// FindBelowMinimum finds items below their reorder threshold
	FindBelowMinimum(ctx context.Context, filter shared.Filter) ([]InventoryItem, error)

	// Save creates or updates an inventory item
	Save(ctx context.Context, item *InventoryItem) error

	// SaveWithTransactions persists the item with optimistic locking and
	// appends the given ledger transactions in the same database transaction.
	// Returns shared.ErrConcurrencyConflict if the version check fails.
	SaveWithTransactions(ctx context.Context, item *InventoryItem, txs ...*InventoryTransaction) error

	// ExistsByCode checks if an item code is already registered
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// Count counts items matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// InventoryTransactionRepository defines the interface for the append-only
// transaction log. Transactions are never updated or deleted.
type InventoryTransactionRepository interface {
	// FindByID finds a transaction by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryTransaction, error)

	// FindByItemCode finds transactions for an item, newest first
	FindByItemCode(ctx context.Context, code string, filter shared.Filter) ([]InventoryTransaction, error)

	// FindBySource finds transactions caused by a source document
	FindBySource(ctx context.Context, sourceType SourceType, sourceID string) ([]InventoryTransaction, error)

	// Create appends a new transaction
	Create(ctx context.Context, tx *InventoryTransaction) error

	// CountByItemCode counts transactions for an item
	CountByItemCode(ctx context.Context, code string) (int64, error)
}
