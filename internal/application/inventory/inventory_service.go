package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/muniworks/backend/internal/domain/authz"
	"github.com/muniworks/backend/internal/domain/inventory"
	"github.com/muniworks/backend/internal/domain/shared"
)

// maxConflictRetries bounds the optimistic-lock retry loop. Exhaustion
// surfaces CONFLICT to the caller, who may retry the whole command.
const maxConflictRetries = 3

// InventoryService handles stock-ledger business operations. All stock
// movements funnel through here so the read-decide-write cycle always
// happens inside one optimistic-lock attempt.
type InventoryService struct {
	itemRepo       inventory.InventoryItemRepository
	txRepo         inventory.InventoryTransactionRepository
	guard          *authz.Guard
	eventPublisher shared.EventPublisher
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	itemRepo inventory.InventoryItemRepository,
	txRepo inventory.InventoryTransactionRepository,
	guard *authz.Guard,
) *InventoryService {
	return &InventoryService{
		itemRepo: itemRepo,
		txRepo:   txRepo,
		guard:    guard,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InventoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *InventoryService) publishEvents(ctx context.Context, item *inventory.InventoryItem) {
	if s.eventPublisher == nil {
		return
	}
	events := item.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	item.ClearDomainEvents()
}

func (s *InventoryService) authorize(actor authz.Actor, action authz.Action) error {
	if !s.guard.CanPerform(actor.Role, action) {
		return shared.ErrPermissionDenied
	}
	return nil
}

// CreateItem registers a new inventory item, optionally with an opening
// balance recorded as an INITIAL_STOCK receipt.
func (s *InventoryService) CreateItem(ctx context.Context, actor authz.Actor, req CreateItemRequest) (*ItemResponse, error) {
	if err := s.authorize(actor, authz.ActionManageInventory); err != nil {
		return nil, err
	}

	exists, err := s.itemRepo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.ErrAlreadyExists
	}

	item, err := inventory.NewInventoryItem(req.Code, req.Name, req.Unit, req.MinimumThreshold, req.UnitCost)
	if err != nil {
		return nil, err
	}

	var txs []*inventory.InventoryTransaction
	if req.OpeningStock.IsPositive() {
		tx, err := item.Receive(req.OpeningStock, actor.ID, inventory.SourceTypeInitialStock, req.Code)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	if err := s.itemRepo.SaveWithTransactions(ctx, item, txs...); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, item)

	resp := ToItemResponse(item)
	return &resp, nil
}

// UpdateItem changes item settings without touching stock
func (s *InventoryService) UpdateItem(ctx context.Context, actor authz.Actor, code string, req UpdateItemRequest) (*ItemResponse, error) {
	if err := s.authorize(actor, authz.ActionManageInventory); err != nil {
		return nil, err
	}

	item, err := s.itemRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Item name cannot be empty")
		}
		item.Name = *req.Name
	}
	if req.MinimumThreshold != nil {
		if err := item.SetMinimumThreshold(*req.MinimumThreshold); err != nil {
			return nil, err
		}
	}
	if req.UnitCost != nil {
		if err := item.SetUnitCost(*req.UnitCost); err != nil {
			return nil, err
		}
	}

	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}

	resp := ToItemResponse(item)
	return &resp, nil
}

// ReceiveStock is the manual receipt command
func (s *InventoryService) ReceiveStock(ctx context.Context, actor authz.Actor, req ReceiveStockRequest) (*StockMovementResponse, error) {
	if err := s.authorize(actor, authz.ActionManageInventory); err != nil {
		return nil, err
	}
	return s.Receive(ctx, req.ItemCode, req.Quantity, actor.ID, inventory.SourceTypeManualAdjustment, req.Reference)
}

// IssueStock is the manual issue command. It refuses with
// INSUFFICIENT_STOCK when the full quantity is not available.
func (s *InventoryService) IssueStock(ctx context.Context, actor authz.Actor, req IssueStockRequest) (*StockMovementResponse, error) {
	if err := s.authorize(actor, authz.ActionManageInventory); err != nil {
		return nil, err
	}
	return s.issue(ctx, req.ItemCode, req.Quantity, actor.ID, inventory.SourceTypeManualAdjustment, req.Reference)
}

// AdjustStock corrects the stock to a counted quantity
func (s *InventoryService) AdjustStock(ctx context.Context, actor authz.Actor, req AdjustStockRequest) (*StockMovementResponse, error) {
	if err := s.authorize(actor, authz.ActionManageInventory); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		item, err := s.itemRepo.FindByCode(ctx, req.ItemCode)
		if err != nil {
			return nil, err
		}

		tx, err := item.Adjust(req.ActualQuantity, req.Reason, actor.ID)
		if err != nil {
			return nil, err
		}

		if err := s.itemRepo.SaveWithTransactions(ctx, item, tx); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		s.publishEvents(ctx, item)
		return movementResponse(item, tx), nil
	}
	return nil, lastErr
}

// ReserveAndIssue atomically issues the full quantity or nothing. Used by
// other pipelines that must not oversell.
func (s *InventoryService) ReserveAndIssue(ctx context.Context, itemCode string, quantity decimal.Decimal, actorID uuid.UUID, sourceType inventory.SourceType, sourceID string) (*IssueResult, error) {
	resp, err := s.issue(ctx, itemCode, quantity, actorID, sourceType, sourceID)
	if err != nil {
		return nil, err
	}
	return &IssueResult{Applied: true, NewStock: resp.NewStock}, nil
}

// IssueAvailable issues as much of the requested quantity as stock allows,
// possibly zero, and reports the snapshot and shortfall. The availability
// check and the issue happen against the same loaded item inside one
// optimistic-lock attempt, so a stale snapshot can never oversell.
func (s *InventoryService) IssueAvailable(ctx context.Context, itemCode string, requested decimal.Decimal, actorID uuid.UUID, sourceType inventory.SourceType, sourceID string) (*PartialIssueResult, error) {
	if !requested.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Requested quantity must be positive")
	}

	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		item, err := s.itemRepo.FindByCode(ctx, itemCode)
		if err != nil {
			return nil, err
		}

		snapshot := item.CurrentStock
		issueQty := decimal.Min(requested, snapshot)
		if !issueQty.IsPositive() {
			return &PartialIssueResult{Snapshot: snapshot, Issued: decimal.Zero, Shortfall: requested}, nil
		}

		tx, err := item.Issue(issueQty, actorID, sourceType, sourceID)
		if err != nil {
			return nil, err
		}

		if err := s.itemRepo.SaveWithTransactions(ctx, item, tx); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		s.publishEvents(ctx, item)
		return &PartialIssueResult{
			Snapshot:  snapshot,
			Issued:    issueQty,
			Shortfall: requested.Sub(issueQty),
		}, nil
	}
	return nil, lastErr
}

// IssueAvailableOnce is the replay-safe form of IssueAvailable: the ledger
// is consulted first for an issue already recorded against the same source
// document and item, and that recorded outcome is returned instead of
// issuing again. Used when resuming a fulfillment that was interrupted
// between the issue and the requesting document's own save.
func (s *InventoryService) IssueAvailableOnce(ctx context.Context, itemCode string, requested decimal.Decimal, actorID uuid.UUID, sourceType inventory.SourceType, sourceID string) (*PartialIssueResult, error) {
	txs, err := s.txRepo.FindBySource(ctx, sourceType, sourceID)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		if txs[i].ItemCode == itemCode && txs[i].TransactionType == inventory.TransactionTypeIssue {
			return &PartialIssueResult{
				Snapshot:  txs[i].StockBefore,
				Issued:    txs[i].Quantity,
				Shortfall: requested.Sub(txs[i].Quantity),
			}, nil
		}
	}
	return s.IssueAvailable(ctx, itemCode, requested, actorID, sourceType, sourceID)
}

// Receive credits stock on behalf of another pipeline, e.g. purchase
// arrival. Always succeeds for a positive quantity.
func (s *InventoryService) Receive(ctx context.Context, itemCode string, quantity decimal.Decimal, actorID uuid.UUID, sourceType inventory.SourceType, sourceID string) (*StockMovementResponse, error) {
	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		item, err := s.itemRepo.FindByCode(ctx, itemCode)
		if err != nil {
			return nil, err
		}

		tx, err := item.Receive(quantity, actorID, sourceType, sourceID)
		if err != nil {
			return nil, err
		}

		if err := s.itemRepo.SaveWithTransactions(ctx, item, tx); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		s.publishEvents(ctx, item)
		return movementResponse(item, tx), nil
	}
	return nil, lastErr
}

// ReceiveOnce credits stock like Receive but skips items whose receipt for
// the same source document is already in the ledger, so resuming an
// interrupted arrival credits each line at most once. The recorded movement
// is returned with Applied false when the credit already existed.
func (s *InventoryService) ReceiveOnce(ctx context.Context, itemCode string, quantity decimal.Decimal, actorID uuid.UUID, sourceType inventory.SourceType, sourceID string) (*StockMovementResponse, error) {
	txs, err := s.txRepo.FindBySource(ctx, sourceType, sourceID)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		if txs[i].ItemCode == itemCode && txs[i].TransactionType == inventory.TransactionTypeReceipt {
			return &StockMovementResponse{
				ItemCode:    itemCode,
				Applied:     false,
				NewStock:    txs[i].StockAfter,
				Transaction: ToTransactionResponse(&txs[i]),
			}, nil
		}
	}
	return s.Receive(ctx, itemCode, quantity, actorID, sourceType, sourceID)
}

func (s *InventoryService) issue(ctx context.Context, itemCode string, quantity decimal.Decimal, actorID uuid.UUID, sourceType inventory.SourceType, sourceID string) (*StockMovementResponse, error) {
	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		item, err := s.itemRepo.FindByCode(ctx, itemCode)
		if err != nil {
			return nil, err
		}

		tx, err := item.Issue(quantity, actorID, sourceType, sourceID)
		if err != nil {
			return nil, err
		}

		if err := s.itemRepo.SaveWithTransactions(ctx, item, tx); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		s.publishEvents(ctx, item)
		return movementResponse(item, tx), nil
	}
	return nil, lastErr
}

// GetItemByCode returns an item together with its ledger, newest first
func (s *InventoryService) GetItemByCode(ctx context.Context, code string) (*ItemDetailResponse, error) {
	item, err := s.itemRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	txs, err := s.txRepo.FindByItemCode(ctx, code, shared.DefaultFilter())
	if err != nil {
		return nil, err
	}

	resp := &ItemDetailResponse{
		ItemResponse: ToItemResponse(item),
		Transactions: make([]TransactionResponse, 0, len(txs)),
	}
	for i := range txs {
		resp.Transactions = append(resp.Transactions, ToTransactionResponse(&txs[i]))
	}
	return resp, nil
}

// ListItems returns a page of inventory items
func (s *InventoryService) ListItems(ctx context.Context, filter shared.Filter) (*shared.Paginated[ItemResponse], error) {
	items, err := s.itemRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.itemRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]ItemResponse, 0, len(items))
	for i := range items {
		responses = append(responses, ToItemResponse(&items[i]))
	}
	page := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListBelowMinimum returns items under their reorder threshold
func (s *InventoryService) ListBelowMinimum(ctx context.Context, filter shared.Filter) ([]ItemResponse, error) {
	items, err := s.itemRepo.FindBelowMinimum(ctx, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]ItemResponse, 0, len(items))
	for i := range items {
		responses = append(responses, ToItemResponse(&items[i]))
	}
	return responses, nil
}

func movementResponse(item *inventory.InventoryItem, tx *inventory.InventoryTransaction) *StockMovementResponse {
	return &StockMovementResponse{
		ItemCode:    item.Code,
		Applied:     true,
		NewStock:    item.CurrentStock,
		Transaction: ToTransactionResponse(tx),
	}
}
