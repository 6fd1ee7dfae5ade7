package procurement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	inventoryapp "github.com/muniworks/backend/internal/application/inventory"
	"github.com/muniworks/backend/internal/domain/authz"
	"github.com/muniworks/backend/internal/domain/inventory"
	"github.com/muniworks/backend/internal/domain/procurement"
	"github.com/muniworks/backend/internal/domain/shared"
)

// PurchaseService handles the purchase pipeline: approval with frozen
// pricing, ordering, warehouse arrival with the single stock credit, and
// hand-over to the requester.
type PurchaseService struct {
	purchaseRepo     procurement.PurchaseRequestRepository
	itemRepo         inventory.InventoryItemRepository
	inventoryService *inventoryapp.InventoryService
	guard            *authz.Guard
	eventPublisher   shared.EventPublisher
}

// NewPurchaseService creates a new PurchaseService
func NewPurchaseService(
	purchaseRepo procurement.PurchaseRequestRepository,
	itemRepo inventory.InventoryItemRepository,
	inventoryService *inventoryapp.InventoryService,
	guard *authz.Guard,
) *PurchaseService {
	return &PurchaseService{
		purchaseRepo:     purchaseRepo,
		itemRepo:         itemRepo,
		inventoryService: inventoryService,
		guard:            guard,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PurchaseService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *PurchaseService) publishEvents(ctx context.Context, pr *procurement.PurchaseRequest) {
	if s.eventPublisher == nil {
		return
	}
	events := pr.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	pr.ClearDomainEvents()
}

func (s *PurchaseService) authorize(actor authz.Actor, action authz.Action) error {
	if !s.guard.CanPerform(actor.Role, action) {
		return shared.ErrPermissionDenied
	}
	return nil
}

func generatePurchaseNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("PO-%s-%s", time.Now().Format("20060102"), suffix)
}

// Submit raises a standalone restocking purchase
func (s *PurchaseService) Submit(ctx context.Context, actor authz.Actor, req SubmitPurchaseRequest) (*PurchaseResponse, error) {
	if err := s.authorize(actor, authz.ActionManageInventory); err != nil {
		return nil, err
	}

	lines := make([]procurement.PurchaseLine, 0, len(req.Items))
	for _, line := range req.Items {
		item, err := s.itemRepo.FindByCode(ctx, line.ItemCode)
		if err != nil {
			return nil, err
		}
		lines = append(lines, procurement.PurchaseLine{
			ItemCode: item.Code,
			ItemName: item.Name,
			Quantity: line.Quantity,
		})
	}

	return s.create(ctx, actor.ID, nil, lines)
}

// CreateForMaterialRequest spawns the single purchase covering all
// shortfall lines of a material request approval. Authorization was
// already checked by the caller.
func (s *PurchaseService) CreateForMaterialRequest(ctx context.Context, actorID uuid.UUID, materialRequestID uuid.UUID, lines []procurement.PurchaseLine) (*PurchaseResponse, error) {
	return s.create(ctx, actorID, &materialRequestID, lines)
}

func (s *PurchaseService) create(ctx context.Context, actorID uuid.UUID, materialRequestID *uuid.UUID, lines []procurement.PurchaseLine) (*PurchaseResponse, error) {
	pr, err := procurement.NewPurchaseRequest(generatePurchaseNumber(), actorID, materialRequestID, lines)
	if err != nil {
		return nil, err
	}

	if err := s.purchaseRepo.Save(ctx, pr); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, pr)

	resp := ToPurchaseResponse(pr)
	return &resp, nil
}

// Approve prices every line from the current inventory unit costs and
// freezes the total
func (s *PurchaseService) Approve(ctx context.Context, actor authz.Actor, purchaseID uuid.UUID) (*PurchaseResponse, error) {
	if err := s.authorize(actor, authz.ActionApprovePurchase); err != nil {
		return nil, err
	}

	pr, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	unitCosts := make(map[string]decimal.Decimal, len(pr.Items))
	for _, line := range pr.Items {
		item, err := s.itemRepo.FindByCode(ctx, line.ItemCode)
		if err != nil {
			return nil, err
		}
		unitCosts[line.ItemCode] = item.UnitCost
	}

	if err := pr.Approve(actor.ID, unitCosts); err != nil {
		return nil, err
	}

	if err := s.purchaseRepo.SaveWithLock(ctx, pr); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, pr)

	resp := ToPurchaseResponse(pr)
	return &resp, nil
}

// Reject terminates a pending purchase with a mandatory reason
func (s *PurchaseService) Reject(ctx context.Context, actor authz.Actor, purchaseID uuid.UUID, req RejectPurchaseRequest) (*PurchaseResponse, error) {
	if err := s.authorize(actor, authz.ActionRejectPurchase); err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, purchaseID, func(pr *procurement.PurchaseRequest) error {
		return pr.Reject(actor.ID, req.Reason)
	})
}

// Order records that the order was placed with the supplier
func (s *PurchaseService) Order(ctx context.Context, actor authz.Actor, purchaseID uuid.UUID) (*PurchaseResponse, error) {
	if err := s.authorize(actor, authz.ActionOrderPurchase); err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, purchaseID, func(pr *procurement.PurchaseRequest) error {
		return pr.MarkOrdered(actor.ID)
	})
}

// MarkArrived records warehouse arrival and credits the ledger for every
// line exactly once. Credits are keyed in the ledger by purchase number and
// item, so replaying the command against a purchase already
// ARRIVED_IN_STOCK applies only the credits a partial failure left missing
// and never double-credits.
func (s *PurchaseService) MarkArrived(ctx context.Context, actor authz.Actor, purchaseID uuid.UUID) (*PurchaseResponse, error) {
	if err := s.authorize(actor, authz.ActionMarkPurchaseArrived); err != nil {
		return nil, err
	}

	pr, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	if pr.Status == procurement.StatusArrivedInStock {
		// The arrival is already persisted; only line credits can be missing.
		for _, line := range pr.Items {
			if _, err := s.inventoryService.ReceiveOnce(ctx, line.ItemCode, line.Quantity, actor.ID, inventory.SourceTypePurchaseRequest, pr.RequestNumber); err != nil {
				return nil, err
			}
		}
		resp := ToPurchaseResponse(pr)
		return &resp, nil
	}

	if err := pr.MarkArrived(actor.ID); err != nil {
		return nil, err
	}
	if err := s.purchaseRepo.SaveWithLock(ctx, pr); err != nil {
		return nil, err
	}

	for _, line := range pr.Items {
		if _, err := s.inventoryService.Receive(ctx, line.ItemCode, line.Quantity, actor.ID, inventory.SourceTypePurchaseRequest, pr.RequestNumber); err != nil {
			return nil, err
		}
	}
	s.publishEvents(ctx, pr)

	resp := ToPurchaseResponse(pr)
	return &resp, nil
}

// Deliver marks the hand-over to the requester. Stock was credited at
// arrival; this publishes the delivered event that lets the originating
// material request advance.
func (s *PurchaseService) Deliver(ctx context.Context, actor authz.Actor, purchaseID uuid.UUID) (*PurchaseResponse, error) {
	if err := s.authorize(actor, authz.ActionDeliverPurchase); err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, purchaseID, func(pr *procurement.PurchaseRequest) error {
		return pr.MarkDelivered(actor.ID)
	})
}

func (s *PurchaseService) applyTransition(ctx context.Context, purchaseID uuid.UUID, mutate func(*procurement.PurchaseRequest) error) (*PurchaseResponse, error) {
	pr, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	if err := mutate(pr); err != nil {
		return nil, err
	}

	if err := s.purchaseRepo.SaveWithLock(ctx, pr); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, pr)

	resp := ToPurchaseResponse(pr)
	return &resp, nil
}

// GetPurchase returns a purchase request with its lines
func (s *PurchaseService) GetPurchase(ctx context.Context, purchaseID uuid.UUID) (*PurchaseResponse, error) {
	pr, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseResponse(pr)
	return &resp, nil
}

// ListPurchases returns a page of purchase requests
func (s *PurchaseService) ListPurchases(ctx context.Context, filter shared.Filter) (*shared.Paginated[PurchaseResponse], error) {
	purchases, err := s.purchaseRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.purchaseRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]PurchaseResponse, 0, len(purchases))
	for i := range purchases {
		responses = append(responses, ToPurchaseResponse(&purchases[i]))
	}
	page := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListByMaterialRequest returns the purchases spawned by one material request
func (s *PurchaseService) ListByMaterialRequest(ctx context.Context, materialRequestID uuid.UUID) ([]PurchaseResponse, error) {
	purchases, err := s.purchaseRepo.FindByMaterialRequestID(ctx, materialRequestID)
	if err != nil {
		return nil, err
	}
	responses := make([]PurchaseResponse, 0, len(purchases))
	for i := range purchases {
		responses = append(responses, ToPurchaseResponse(&purchases[i]))
	}
	return responses, nil
}
