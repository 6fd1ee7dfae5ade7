package material

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	inventoryapp "github.com/muniworks/backend/internal/application/inventory"
	procurementapp "github.com/muniworks/backend/internal/application/procurement"
	"github.com/muniworks/backend/internal/domain/authz"
	"github.com/muniworks/backend/internal/domain/inventory"
	"github.com/muniworks/backend/internal/domain/material"
	"github.com/muniworks/backend/internal/domain/procurement"
	"github.com/muniworks/backend/internal/domain/shared"
)

// MockMaterialRequestRepository is a mock implementation of MaterialRequestRepository
type MockMaterialRequestRepository struct {
	mock.Mock
}

func (m *MockMaterialRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*material.MaterialRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*material.MaterialRequest), args.Error(1)
}

func (m *MockMaterialRequestRepository) FindByNumber(ctx context.Context, number string) (*material.MaterialRequest, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*material.MaterialRequest), args.Error(1)
}

func (m *MockMaterialRequestRepository) FindByStatus(ctx context.Context, status material.Status, filter shared.Filter) ([]material.MaterialRequest, error) {
	args := m.Called(ctx, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]material.MaterialRequest), args.Error(1)
}

func (m *MockMaterialRequestRepository) FindAll(ctx context.Context, filter shared.Filter) ([]material.MaterialRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]material.MaterialRequest), args.Error(1)
}

func (m *MockMaterialRequestRepository) Save(ctx context.Context, mr *material.MaterialRequest) error {
	args := m.Called(ctx, mr)
	return args.Error(0)
}

func (m *MockMaterialRequestRepository) SaveWithLock(ctx context.Context, mr *material.MaterialRequest) error {
	args := m.Called(ctx, mr)
	return args.Error(0)
}

func (m *MockMaterialRequestRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockPurchaseRequestRepository is a mock implementation of PurchaseRequestRepository
type MockPurchaseRequestRepository struct {
	mock.Mock
}

func (m *MockPurchaseRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.PurchaseRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.PurchaseRequest), args.Error(1)
}

func (m *MockPurchaseRequestRepository) FindByNumber(ctx context.Context, number string) (*procurement.PurchaseRequest, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.PurchaseRequest), args.Error(1)
}

func (m *MockPurchaseRequestRepository) FindByMaterialRequestID(ctx context.Context, materialRequestID uuid.UUID) ([]procurement.PurchaseRequest, error) {
	args := m.Called(ctx, materialRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]procurement.PurchaseRequest), args.Error(1)
}

func (m *MockPurchaseRequestRepository) FindByStatus(ctx context.Context, status procurement.Status, filter shared.Filter) ([]procurement.PurchaseRequest, error) {
	args := m.Called(ctx, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]procurement.PurchaseRequest), args.Error(1)
}

func (m *MockPurchaseRequestRepository) FindAll(ctx context.Context, filter shared.Filter) ([]procurement.PurchaseRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]procurement.PurchaseRequest), args.Error(1)
}

func (m *MockPurchaseRequestRepository) Save(ctx context.Context, pr *procurement.PurchaseRequest) error {
	args := m.Called(ctx, pr)
	return args.Error(0)
}

func (m *MockPurchaseRequestRepository) SaveWithLock(ctx context.Context, pr *procurement.PurchaseRequest) error {
	args := m.Called(ctx, pr)
	return args.Error(0)
}

func (m *MockPurchaseRequestRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockInventoryItemRepository is a mock implementation of InventoryItemRepository
type MockInventoryItemRepository struct {
	mock.Mock
}

func (m *MockInventoryItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryItem), args.Error(1)
}

func (m *MockInventoryItemRepository) FindByCode(ctx context.Context, code string) (*inventory.InventoryItem, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryItem), args.Error(1)
}

func (m *MockInventoryItemRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.InventoryItem, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.InventoryItem), args.Error(1)
}

func (m *MockInventoryItemRepository) FindBelowMinimum(ctx context.Context, filter shared.Filter) ([]inventory.InventoryItem, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.InventoryItem), args.Error(1)
}

func (m *MockInventoryItemRepository) Save(ctx context.Context, item *inventory.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockInventoryItemRepository) SaveWithTransactions(ctx context.Context, item *inventory.InventoryItem, txs ...*inventory.InventoryTransaction) error {
	args := m.Called(ctx, item, txs)
	return args.Error(0)
}

func (m *MockInventoryItemRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockInventoryItemRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

type fixture struct {
	materialRepo *MockMaterialRequestRepository
	purchaseRepo *MockPurchaseRequestRepository
	itemRepo     *MockInventoryItemRepository
	service      *FulfillmentService
}

func newFixture() *fixture {
	materialRepo := new(MockMaterialRequestRepository)
	purchaseRepo := new(MockPurchaseRequestRepository)
	itemRepo := new(MockInventoryItemRepository)
	guard := authz.NewGuard()
	inventoryService := inventoryapp.NewInventoryService(itemRepo, nil, guard)
	purchaseService := procurementapp.NewPurchaseService(purchaseRepo, itemRepo, inventoryService, guard)
	return &fixture{
		materialRepo: materialRepo,
		purchaseRepo: purchaseRepo,
		itemRepo:     itemRepo,
		service: NewFulfillmentService(
			materialRepo, purchaseRepo, itemRepo, inventoryService, purchaseService, guard,
		),
	}
}

func admin() authz.Actor {
	return authz.NewActor(uuid.New(), authz.RoleAdmin)
}

func stockedItem(t *testing.T, code string, stock int64) *inventory.InventoryItem {
	t.Helper()
	item, err := inventory.NewInventoryItem(code, "Item "+code, "pcs", decimal.Zero, decimal.NewFromInt(10))
	require.NoError(t, err)
	if stock > 0 {
		_, err = item.Receive(decimal.NewFromInt(stock), uuid.New(), inventory.SourceTypeInitialStock, code)
		require.NoError(t, err)
	}
	item.ClearDomainEvents()
	return item
}

func pendingRequest(t *testing.T, quantities map[string]int64) *material.MaterialRequest {
	t.Helper()
	asks := make([]material.LineAsk, 0, len(quantities))
	for code, qty := range quantities {
		asks = append(asks, material.LineAsk{ItemCode: code, ItemName: "Item " + code, Quantity: decimal.NewFromInt(qty)})
	}
	mr, err := material.NewMaterialRequest("MR-TEST-1", uuid.New(), "", asks)
	require.NoError(t, err)
	mr.ClearDomainEvents()
	return mr
}

func TestFulfillmentService_Submit(t *testing.T) {
	t.Run("engineer submits an ask without touching stock", func(t *testing.T) {
		f := newFixture()
		f.itemRepo.On("FindByCode", mock.Anything, "BULB-01").Return(stockedItem(t, "BULB-01", 5), nil)
		f.materialRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		actor := authz.NewActor(uuid.New(), authz.RoleMaintenanceEngineer)
		resp, err := f.service.Submit(context.Background(), actor, SubmitMaterialRequest{
			Items: []LineAskRequest{{ItemCode: "BULB-01", Quantity: decimal.NewFromInt(10)}},
		})

		require.NoError(t, err)
		assert.Equal(t, "PENDING", resp.Status)
		require.Len(t, resp.Items, 1)
		assert.True(t, resp.Items[0].AvailableQuantitySnapshot.IsZero())
		f.itemRepo.AssertNotCalled(t, "SaveWithTransactions")
	})

	t.Run("unknown item fails the submission", func(t *testing.T) {
		f := newFixture()
		f.itemRepo.On("FindByCode", mock.Anything, "GONE-01").Return(nil, shared.ErrItemNotFound)

		actor := authz.NewActor(uuid.New(), authz.RoleMaintenanceEngineer)
		_, err := f.service.Submit(context.Background(), actor, SubmitMaterialRequest{
			Items: []LineAskRequest{{ItemCode: "GONE-01", Quantity: decimal.NewFromInt(1)}},
		})

		assert.ErrorIs(t, err, shared.ErrItemNotFound)
	})
}

func TestFulfillmentService_Approve(t *testing.T) {
	t.Run("only admin may approve", func(t *testing.T) {
		f := newFixture()

		for _, role := range []authz.Role{authz.RoleInspector, authz.RoleSupervisor, authz.RoleFinance, authz.RoleMaintenanceEngineer} {
			actor := authz.NewActor(uuid.New(), role)
			_, err := f.service.Approve(context.Background(), actor, uuid.New())
			assert.ErrorIs(t, err, shared.ErrPermissionDenied, "role %s", role)
		}
		f.materialRepo.AssertNotCalled(t, "FindByID")
	})

	t.Run("full stock coverage fulfills without a purchase", func(t *testing.T) {
		f := newFixture()
		mr := pendingRequest(t, map[string]int64{"BULB-01": 10})

		f.materialRepo.On("FindByID", mock.Anything, mr.ID).Return(mr, nil)
		f.itemRepo.On("FindByCode", mock.Anything, "BULB-01").Return(stockedItem(t, "BULB-01", 20), nil)
		f.itemRepo.On("SaveWithTransactions", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.materialRepo.On("SaveWithLock", mock.Anything, mr).Return(nil)

		resp, err := f.service.Approve(context.Background(), admin(), mr.ID)

		require.NoError(t, err)
		assert.Equal(t, "FULFILLED", resp.Status)
		assert.True(t, resp.Items[0].IssuedQuantity.Equal(decimal.NewFromInt(10)))
		f.purchaseRepo.AssertNotCalled(t, "Save")
	})

	t.Run("partial stock issues what is available and spawns one purchase", func(t *testing.T) {
		f := newFixture()
		mr := pendingRequest(t, map[string]int64{"BULB-01": 10})
		item := stockedItem(t, "BULB-01", 4)

		f.materialRepo.On("FindByID", mock.Anything, mr.ID).Return(mr, nil)
		f.itemRepo.On("FindByCode", mock.Anything, "BULB-01").Return(item, nil)
		f.itemRepo.On("SaveWithTransactions", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.purchaseRepo.On("Save", mock.Anything, mock.MatchedBy(func(pr *procurement.PurchaseRequest) bool {
			return pr.MaterialRequestID != nil && *pr.MaterialRequestID == mr.ID &&
				len(pr.Items) == 1 &&
				pr.Items[0].Quantity.Equal(decimal.NewFromInt(6))
		})).Return(nil)
		f.materialRepo.On("SaveWithLock", mock.Anything, mr).Return(nil)

		resp, err := f.service.Approve(context.Background(), admin(), mr.ID)

		require.NoError(t, err)
		assert.Equal(t, "AWAITING_DELIVERY", resp.Status)
		assert.True(t, resp.Items[0].IssuedQuantity.Equal(decimal.NewFromInt(4)))
		assert.True(t, resp.Items[0].ShortfallQuantity.Equal(decimal.NewFromInt(6)))
		assert.Equal(t, "PENDING_PURCHASE", resp.Items[0].ItemStatus)
		assert.True(t, item.CurrentStock.IsZero())
		f.purchaseRepo.AssertExpectations(t)
	})

	t.Run("missing item fails whole before any stock moves", func(t *testing.T) {
		f := newFixture()
		mr := pendingRequest(t, map[string]int64{"BULB-01": 5, "GONE-01": 2})

		f.materialRepo.On("FindByID", mock.Anything, mr.ID).Return(mr, nil)
		f.itemRepo.On("FindByCode", mock.Anything, "BULB-01").Return(stockedItem(t, "BULB-01", 10), nil)
		f.itemRepo.On("FindByCode", mock.Anything, "GONE-01").Return(nil, shared.ErrItemNotFound)

		_, err := f.service.Approve(context.Background(), admin(), mr.ID)

		assert.ErrorIs(t, err, shared.ErrItemNotFound)
		assert.Equal(t, material.StatusPending, mr.Status)
		f.itemRepo.AssertNotCalled(t, "SaveWithTransactions")
		f.materialRepo.AssertNotCalled(t, "SaveWithLock")
	})

	t.Run("losing the claim race issues no stock", func(t *testing.T) {
		f := newFixture()
		mr := pendingRequest(t, map[string]int64{"BULB-01": 4})

		f.materialRepo.On("FindByID", mock.Anything, mr.ID).Return(mr, nil)
		f.itemRepo.On("FindByCode", mock.Anything, "BULB-01").Return(stockedItem(t, "BULB-01", 10), nil)
		f.materialRepo.On("SaveWithLock", mock.Anything, mr).Return(shared.ErrConcurrencyConflict)

		_, err := f.service.Approve(context.Background(), admin(), mr.ID)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		f.itemRepo.AssertNotCalled(t, "SaveWithTransactions")
		f.purchaseRepo.AssertNotCalled(t, "Save")
	})

	t.Run("approving a non-pending request fails before issuing", func(t *testing.T) {
		f := newFixture()
		mr := pendingRequest(t, map[string]int64{"BULB-01": 5})
		require.NoError(t, mr.Reject(uuid.New(), "not needed"))
		mr.ClearDomainEvents()

		f.materialRepo.On("FindByID", mock.Anything, mr.ID).Return(mr, nil)

		_, err := f.service.Approve(context.Background(), admin(), mr.ID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_TRANSITION", domainErr.Code)
		f.itemRepo.AssertNotCalled(t, "SaveWithTransactions")
	})
}

func TestFulfillmentService_Reject(t *testing.T) {
	t.Run("reason is mandatory", func(t *testing.T) {
		f := newFixture()
		mr := pendingRequest(t, map[string]int64{"BULB-01": 5})
		f.materialRepo.On("FindByID", mock.Anything, mr.ID).Return(mr, nil)

		_, err := f.service.Reject(context.Background(), admin(), mr.ID, RejectMaterialRequest{Reason: ""})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
		assert.Equal(t, material.StatusPending, mr.Status)
	})

	t.Run("terminal rejection touches no stock", func(t *testing.T) {
		f := newFixture()
		mr := pendingRequest(t, map[string]int64{"BULB-01": 5})
		f.materialRepo.On("FindByID", mock.Anything, mr.ID).Return(mr, nil)
		f.materialRepo.On("SaveWithLock", mock.Anything, mr).Return(nil)

		resp, err := f.service.Reject(context.Background(), admin(), mr.ID, RejectMaterialRequest{Reason: "not needed"})

		require.NoError(t, err)
		assert.Equal(t, "REJECTED", resp.Status)
		f.itemRepo.AssertNotCalled(t, "SaveWithTransactions")
	})
}

func approvedAwaitingRequest(t *testing.T, f *fixture) *material.MaterialRequest {
	t.Helper()
	mr := pendingRequest(t, map[string]int64{"BULB-01": 10})
	require.NoError(t, mr.ApplyFulfillment([]material.LineFulfillment{
		{ItemCode: "BULB-01", Snapshot: decimal.NewFromInt(4), Issued: decimal.NewFromInt(4), Shortfall: decimal.NewFromInt(6)},
	}, uuid.New()))
	mr.ClearDomainEvents()
	return mr
}

func deliveredPurchase(t *testing.T, mrID uuid.UUID) procurement.PurchaseRequest {
	t.Helper()
	pr, err := procurement.NewPurchaseRequest("PO-TEST-1", uuid.New(), &mrID, []procurement.PurchaseLine{
		{ItemCode: "BULB-01", ItemName: "Bulb", Quantity: decimal.NewFromInt(6)},
	})
	require.NoError(t, err)
	actor := uuid.New()
	require.NoError(t, pr.Approve(actor, map[string]decimal.Decimal{"BULB-01": decimal.NewFromInt(10)}))
	require.NoError(t, pr.MarkOrdered(actor))
	require.NoError(t, pr.MarkArrived(actor))
	require.NoError(t, pr.MarkDelivered(actor))
	pr.ClearDomainEvents()
	return *pr
}

func TestFulfillmentService_Receive(t *testing.T) {
	t.Run("blocked while a purchase is outstanding", func(t *testing.T) {
		f := newFixture()
		mr := approvedAwaitingRequest(t, f)
		pending, err := procurement.NewPurchaseRequest("PO-TEST-2", uuid.New(), &mr.ID, []procurement.PurchaseLine{
			{ItemCode: "BULB-01", Quantity: decimal.NewFromInt(6)},
		})
		require.NoError(t, err)

		f.materialRepo.On("FindByID", mock.Anything, mr.ID).Return(mr, nil)
		f.purchaseRepo.On("FindByMaterialRequestID", mock.Anything, mr.ID).Return([]procurement.PurchaseRequest{*pending}, nil)

		_, err = f.service.Receive(context.Background(), admin(), mr.ID, ReceiveMaterialRequest{})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_TRANSITION", domainErr.Code)
	})

	t.Run("delivers once every purchase is delivered", func(t *testing.T) {
		f := newFixture()
		mr := approvedAwaitingRequest(t, f)

		f.materialRepo.On("FindByID", mock.Anything, mr.ID).Return(mr, nil)
		f.purchaseRepo.On("FindByMaterialRequestID", mock.Anything, mr.ID).Return([]procurement.PurchaseRequest{deliveredPurchase(t, mr.ID)}, nil)
		f.materialRepo.On("SaveWithLock", mock.Anything, mr).Return(nil)

		resp, err := f.service.Receive(context.Background(), admin(), mr.ID, ReceiveMaterialRequest{Notes: "crew picked up"})

		require.NoError(t, err)
		assert.Equal(t, "DELIVERED", resp.Status)
	})
}

func TestFulfillmentService_DeliverIfComplete(t *testing.T) {
	t.Run("advances an awaiting request", func(t *testing.T) {
		f := newFixture()
		mr := approvedAwaitingRequest(t, f)

		f.materialRepo.On("FindByID", mock.Anything, mr.ID).Return(mr, nil)
		f.purchaseRepo.On("FindByMaterialRequestID", mock.Anything, mr.ID).Return([]procurement.PurchaseRequest{deliveredPurchase(t, mr.ID)}, nil)
		f.materialRepo.On("SaveWithLock", mock.Anything, mr).Return(nil)

		err := f.service.DeliverIfComplete(context.Background(), mr.ID, uuid.New())

		require.NoError(t, err)
		assert.Equal(t, material.StatusDelivered, mr.Status)
	})

	t.Run("no-op for already delivered requests", func(t *testing.T) {
		f := newFixture()
		mr := approvedAwaitingRequest(t, f)
		require.NoError(t, mr.MarkDelivered(uuid.New(), ""))
		mr.ClearDomainEvents()

		f.materialRepo.On("FindByID", mock.Anything, mr.ID).Return(mr, nil)

		err := f.service.DeliverIfComplete(context.Background(), mr.ID, uuid.New())

		require.NoError(t, err)
		f.materialRepo.AssertNotCalled(t, "SaveWithLock")
	})

	t.Run("surfaces a purchase lookup failure for redelivery", func(t *testing.T) {
		f := newFixture()
		mr := approvedAwaitingRequest(t, f)

		f.materialRepo.On("FindByID", mock.Anything, mr.ID).Return(mr, nil)
		f.purchaseRepo.On("FindByMaterialRequestID", mock.Anything, mr.ID).
			Return(nil, errors.New("connection reset"))

		err := f.service.DeliverIfComplete(context.Background(), mr.ID, uuid.New())

		assert.Error(t, err)
		assert.Equal(t, material.StatusAwaitingDelivery, mr.Status)
		f.materialRepo.AssertNotCalled(t, "SaveWithLock")
	})

	t.Run("waits while a sibling purchase is outstanding", func(t *testing.T) {
		f := newFixture()
		mr := approvedAwaitingRequest(t, f)
		pending, err := procurement.NewPurchaseRequest("PO-TEST-3", uuid.New(), &mr.ID, []procurement.PurchaseLine{
			{ItemCode: "BULB-01", Quantity: decimal.NewFromInt(6)},
		})
		require.NoError(t, err)

		f.materialRepo.On("FindByID", mock.Anything, mr.ID).Return(mr, nil)
		f.purchaseRepo.On("FindByMaterialRequestID", mock.Anything, mr.ID).Return([]procurement.PurchaseRequest{deliveredPurchase(t, mr.ID), *pending}, nil)

		err = f.service.DeliverIfComplete(context.Background(), mr.ID, uuid.New())

		require.NoError(t, err)
		assert.Equal(t, material.StatusAwaitingDelivery, mr.Status)
		f.materialRepo.AssertNotCalled(t, "SaveWithLock")
	})
}
