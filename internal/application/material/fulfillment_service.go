package material

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	inventoryapp "github.com/muniworks/backend/internal/application/inventory"
	procurementapp "github.com/muniworks/backend/internal/application/procurement"
	"github.com/muniworks/backend/internal/domain/authz"
	"github.com/muniworks/backend/internal/domain/inventory"
	"github.com/muniworks/backend/internal/domain/material"
	"github.com/muniworks/backend/internal/domain/procurement"
	"github.com/muniworks/backend/internal/domain/shared"
)

// FulfillmentService orchestrates material request fulfillment: at approval
// time it snapshots stock, issues whatever is available per line, and spawns
// one purchase request covering all shortfalls.
type FulfillmentService struct {
	materialRepo     material.MaterialRequestRepository
	purchaseRepo     procurement.PurchaseRequestRepository
	itemRepo         inventory.InventoryItemRepository
	inventoryService *inventoryapp.InventoryService
	purchaseService  *procurementapp.PurchaseService
	guard            *authz.Guard
	eventPublisher   shared.EventPublisher
}

// NewFulfillmentService creates a new FulfillmentService
func NewFulfillmentService(
	materialRepo material.MaterialRequestRepository,
	purchaseRepo procurement.PurchaseRequestRepository,
	itemRepo inventory.InventoryItemRepository,
	inventoryService *inventoryapp.InventoryService,
	purchaseService *procurementapp.PurchaseService,
	guard *authz.Guard,
) *FulfillmentService {
	return &FulfillmentService{
		materialRepo:     materialRepo,
		purchaseRepo:     purchaseRepo,
		itemRepo:         itemRepo,
		inventoryService: inventoryService,
		purchaseService:  purchaseService,
		guard:            guard,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *FulfillmentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *FulfillmentService) publishEvents(ctx context.Context, mr *material.MaterialRequest) {
	if s.eventPublisher == nil {
		return
	}
	events := mr.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	mr.ClearDomainEvents()
}

func (s *FulfillmentService) authorize(actor authz.Actor, action authz.Action) error {
	if !s.guard.CanPerform(actor.Role, action) {
		return shared.ErrPermissionDenied
	}
	return nil
}

func generateRequestNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("MR-%s-%s", time.Now().Format("20060102"), suffix)
}

// Submit records the ask. No stock is read or reserved yet.
func (s *FulfillmentService) Submit(ctx context.Context, actor authz.Actor, req SubmitMaterialRequest) (*MaterialRequestResponse, error) {
	if err := s.authorize(actor, authz.ActionSubmitMaterialRequest); err != nil {
		return nil, err
	}

	asks := make([]material.LineAsk, 0, len(req.Items))
	for _, line := range req.Items {
		item, err := s.itemRepo.FindByCode(ctx, line.ItemCode)
		if err != nil {
			return nil, err
		}
		asks = append(asks, material.LineAsk{
			ItemCode: item.Code,
			ItemName: item.Name,
			Quantity: line.Quantity,
		})
	}

	mr, err := material.NewMaterialRequest(generateRequestNumber(), actor.ID, req.Notes, asks)
	if err != nil {
		return nil, err
	}

	if err := s.materialRepo.Save(ctx, mr); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, mr)

	resp := ToMaterialRequestResponse(mr)
	return &resp, nil
}

// Approve resolves every line to usage or purchase. All item codes are
// verified before any stock moves, so a request referencing a deleted item
// fails whole with ITEM_NOT_FOUND and no line is applied. The request is
// claimed (PENDING to PROCESSING) through the version check before the
// first issue: of two concurrent approvals one loses with CONFLICT while
// the ledger is still untouched. Approving a PROCESSING request resumes an
// interrupted approval, replaying issues and the purchase spawn against the
// ledger so nothing is applied twice.
func (s *FulfillmentService) Approve(ctx context.Context, actor authz.Actor, requestID uuid.UUID) (*MaterialRequestResponse, error) {
	if err := s.authorize(actor, authz.ActionApproveMaterial); err != nil {
		return nil, err
	}

	mr, err := s.materialRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	resuming := mr.Status == material.StatusProcessing
	if !resuming && mr.Status != material.StatusPending {
		return nil, shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot approve material request in status %s", mr.Status))
	}

	for _, item := range mr.Items {
		if _, err := s.itemRepo.FindByCode(ctx, item.ItemCode); err != nil {
			return nil, err
		}
	}

	if !resuming {
		if err := mr.BeginApproval(actor.ID); err != nil {
			return nil, err
		}
		if err := s.materialRepo.SaveWithLock(ctx, mr); err != nil {
			return nil, err
		}
	}

	issue := s.inventoryService.IssueAvailable
	if resuming {
		issue = s.inventoryService.IssueAvailableOnce
	}

	results := make([]material.LineFulfillment, 0, len(mr.Items))
	for _, item := range mr.Items {
		issued, err := issue(ctx, item.ItemCode, item.RequestedQuantity, actor.ID, inventory.SourceTypeMaterialRequest, mr.RequestNumber)
		if err != nil {
			return nil, err
		}
		results = append(results, material.LineFulfillment{
			ItemCode:  item.ItemCode,
			Snapshot:  issued.Snapshot,
			Issued:    issued.Issued,
			Shortfall: issued.Shortfall,
		})
	}

	if err := mr.ApplyFulfillment(results, actor.ID); err != nil {
		return nil, err
	}

	if mr.HasShortfall() {
		spawn := true
		if resuming {
			existing, err := s.purchaseRepo.FindByMaterialRequestID(ctx, mr.ID)
			if err != nil {
				return nil, err
			}
			spawn = len(existing) == 0
		}
		if spawn {
			lines := make([]procurement.PurchaseLine, 0)
			for _, item := range mr.ShortfallLines() {
				lines = append(lines, procurement.PurchaseLine{
					ItemCode: item.ItemCode,
					ItemName: item.ItemName,
					Quantity: item.ShortfallQuantity,
				})
			}
			if _, err := s.purchaseService.CreateForMaterialRequest(ctx, actor.ID, mr.ID, lines); err != nil {
				return nil, err
			}
		}
	}

	if err := s.materialRepo.SaveWithLock(ctx, mr); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, mr)

	resp := ToMaterialRequestResponse(mr)
	return &resp, nil
}

// Reject terminates a pending request with a mandatory reason. No stock
// is touched.
func (s *FulfillmentService) Reject(ctx context.Context, actor authz.Actor, requestID uuid.UUID, req RejectMaterialRequest) (*MaterialRequestResponse, error) {
	if err := s.authorize(actor, authz.ActionRejectMaterial); err != nil {
		return nil, err
	}

	mr, err := s.materialRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if err := mr.Reject(actor.ID, req.Reason); err != nil {
		return nil, err
	}

	if err := s.materialRepo.SaveWithLock(ctx, mr); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, mr)

	resp := ToMaterialRequestResponse(mr)
	return &resp, nil
}

// Receive confirms delivery of an awaiting request. It is accepted only
// once every purchase spawned for the request has been handed over.
func (s *FulfillmentService) Receive(ctx context.Context, actor authz.Actor, requestID uuid.UUID, req ReceiveMaterialRequest) (*MaterialRequestResponse, error) {
	if err := s.authorize(actor, authz.ActionReceiveMaterial); err != nil {
		return nil, err
	}

	mr, err := s.materialRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	pending, err := s.undeliveredPurchase(ctx, mr.ID)
	if err != nil {
		return nil, err
	}
	if pending != "" {
		return nil, shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Purchase %s has not been delivered yet", pending))
	}

	if err := mr.MarkDelivered(actor.ID, req.Notes); err != nil {
		return nil, err
	}

	if err := s.materialRepo.SaveWithLock(ctx, mr); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, mr)

	resp := ToMaterialRequestResponse(mr)
	return &resp, nil
}

// DeliverIfComplete advances an awaiting request to DELIVERED once all its
// purchases are delivered. It is a no-op for requests in any other status
// and while a sibling purchase is still outstanding, so replaying a
// delivery event is safe. Lookup failures propagate so the event is
// redelivered instead of being marked processed.
func (s *FulfillmentService) DeliverIfComplete(ctx context.Context, requestID uuid.UUID, actorID uuid.UUID) error {
	mr, err := s.materialRepo.FindByID(ctx, requestID)
	if err != nil {
		return err
	}
	if mr.Status != material.StatusAwaitingDelivery {
		return nil
	}

	pending, err := s.undeliveredPurchase(ctx, mr.ID)
	if err != nil {
		return err
	}
	if pending != "" {
		return nil
	}

	if err := mr.MarkDelivered(actorID, ""); err != nil {
		return err
	}

	if err := s.materialRepo.SaveWithLock(ctx, mr); err != nil {
		return err
	}
	s.publishEvents(ctx, mr)
	return nil
}

// undeliveredPurchase returns the number of the first purchase spawned for
// the request that has not reached DELIVERED, or "" when none remain.
func (s *FulfillmentService) undeliveredPurchase(ctx context.Context, requestID uuid.UUID) (string, error) {
	purchases, err := s.purchaseRepo.FindByMaterialRequestID(ctx, requestID)
	if err != nil {
		return "", err
	}
	for i := range purchases {
		if purchases[i].Status != procurement.StatusDelivered {
			return purchases[i].RequestNumber, nil
		}
	}
	return "", nil
}

// GetRequest returns a material request with its lines and spawned purchases
func (s *FulfillmentService) GetRequest(ctx context.Context, requestID uuid.UUID) (*MaterialRequestResponse, error) {
	mr, err := s.materialRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	resp := ToMaterialRequestResponse(mr)
	purchases, err := s.purchaseRepo.FindByMaterialRequestID(ctx, requestID)
	if err == nil {
		for i := range purchases {
			resp.PurchaseIDs = append(resp.PurchaseIDs, purchases[i].ID)
		}
	}
	return &resp, nil
}

// ListRequests returns a page of material requests
func (s *FulfillmentService) ListRequests(ctx context.Context, filter shared.Filter) (*shared.Paginated[MaterialRequestResponse], error) {
	requests, err := s.materialRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.materialRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]MaterialRequestResponse, 0, len(requests))
	for i := range requests {
		responses = append(responses, ToMaterialRequestResponse(&requests[i]))
	}
	page := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &page, nil
}
