package material

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	inventoryapp "github.com/muniworks/backend/internal/application/inventory"
	procurementapp "github.com/muniworks/backend/internal/application/procurement"
	"github.com/muniworks/backend/internal/domain/authz"
	"github.com/muniworks/backend/internal/domain/inventory"
	"github.com/muniworks/backend/internal/domain/material"
	"github.com/muniworks/backend/internal/domain/procurement"
	"github.com/muniworks/backend/internal/domain/shared"
	"github.com/muniworks/backend/internal/infrastructure/persistence"
)

// Tests here run the whole approval path against a real database so the
// claim, the ledger writes and the version-checked saves are exercised
// together instead of through mocks.
type fulfillmentEnv struct {
	materialRepo *persistence.GormMaterialRequestRepository
	purchaseRepo *persistence.GormPurchaseRequestRepository
	itemRepo     *persistence.GormInventoryItemRepository
	txRepo       *persistence.GormInventoryTransactionRepository
	inventory    *inventoryapp.InventoryService
	purchases    *procurementapp.PurchaseService
	guard        *authz.Guard
	service      *FulfillmentService
}

func newFulfillmentEnv(t *testing.T) *fulfillmentEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&inventory.InventoryItem{},
		&inventory.InventoryTransaction{},
		&material.MaterialRequest{},
		&material.RequestItem{},
		&procurement.PurchaseRequest{},
		&procurement.PurchaseItem{},
	))

	env := &fulfillmentEnv{
		materialRepo: persistence.NewGormMaterialRequestRepository(db),
		purchaseRepo: persistence.NewGormPurchaseRequestRepository(db),
		itemRepo:     persistence.NewGormInventoryItemRepository(db),
		txRepo:       persistence.NewGormInventoryTransactionRepository(db),
		guard:        authz.NewGuard(),
	}
	env.inventory = inventoryapp.NewInventoryService(env.itemRepo, env.txRepo, env.guard)
	env.purchases = procurementapp.NewPurchaseService(env.purchaseRepo, env.itemRepo, env.inventory, env.guard)
	env.service = NewFulfillmentService(env.materialRepo, env.purchaseRepo, env.itemRepo, env.inventory, env.purchases, env.guard)
	return env
}

func (e *fulfillmentEnv) serviceWith(materialRepo material.MaterialRequestRepository) *FulfillmentService {
	return NewFulfillmentService(materialRepo, e.purchaseRepo, e.itemRepo, e.inventory, e.purchases, e.guard)
}

func (e *fulfillmentEnv) seedStock(t *testing.T, code string, opening int64) {
	t.Helper()
	_, err := e.inventory.CreateItem(context.Background(), admin(), inventoryapp.CreateItemRequest{
		Code:         code,
		Name:         "Item " + code,
		Unit:         "pcs",
		UnitCost:     decimal.NewFromFloat(12.50),
		OpeningStock: decimal.NewFromInt(opening),
	})
	require.NoError(t, err)
}

func (e *fulfillmentEnv) submit(t *testing.T, code string, quantity int64) *material.MaterialRequest {
	t.Helper()
	resp, err := e.service.Submit(context.Background(), admin(), SubmitMaterialRequest{
		Items: []LineAskRequest{{ItemCode: code, Quantity: decimal.NewFromInt(quantity)}},
	})
	require.NoError(t, err)
	mr, err := e.materialRepo.FindByID(context.Background(), resp.ID)
	require.NoError(t, err)
	return mr
}

func (e *fulfillmentEnv) currentStock(t *testing.T, code string) decimal.Decimal {
	t.Helper()
	item, err := e.itemRepo.FindByCode(context.Background(), code)
	require.NoError(t, err)
	return item.CurrentStock
}

func (e *fulfillmentEnv) issuesFor(t *testing.T, requestNumber string) []inventory.InventoryTransaction {
	t.Helper()
	txs, err := e.txRepo.FindBySource(context.Background(), inventory.SourceTypeMaterialRequest, requestNumber)
	require.NoError(t, err)
	issues := make([]inventory.InventoryTransaction, 0, len(txs))
	for i := range txs {
		if txs[i].TransactionType == inventory.TransactionTypeIssue {
			issues = append(issues, txs[i])
		}
	}
	return issues
}

// rereadRepo hands every FindByID caller the same loaded copy of one
// request, standing in for two handlers that both read it before either
// commits.
type rereadRepo struct {
	material.MaterialRequestRepository
	snapshot material.MaterialRequest
}

func (r *rereadRepo) FindByID(ctx context.Context, id uuid.UUID) (*material.MaterialRequest, error) {
	if id == r.snapshot.ID {
		clone := r.snapshot
		clone.Items = append([]material.RequestItem(nil), r.snapshot.Items...)
		return &clone, nil
	}
	return r.MaterialRequestRepository.FindByID(ctx, id)
}

func TestFulfillmentService_Approve_ConcurrentSameRequest(t *testing.T) {
	env := newFulfillmentEnv(t)
	ctx := context.Background()
	env.seedStock(t, "BULB-01", 10)
	mr := env.submit(t, "BULB-01", 4)

	stale := &rereadRepo{MaterialRequestRepository: env.materialRepo, snapshot: *mr}
	service := env.serviceWith(stale)

	first, err := service.Approve(ctx, admin(), mr.ID)
	require.NoError(t, err)
	assert.Equal(t, "FULFILLED", first.Status)

	// The second approval still sees the pending copy and must lose the
	// version check before any stock moves.
	_, err = service.Approve(ctx, admin(), mr.ID)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	assert.True(t, env.currentStock(t, "BULB-01").Equal(decimal.NewFromInt(6)),
		"stock should reflect a single issue of 4")
	issues := env.issuesFor(t, mr.RequestNumber)
	require.Len(t, issues, 1)
	assert.True(t, issues[0].Quantity.Equal(decimal.NewFromInt(4)))
}

func TestFulfillmentService_Approve_CompetingRequests(t *testing.T) {
	env := newFulfillmentEnv(t)
	ctx := context.Background()
	env.seedStock(t, "CABLE-02", 5)
	mrA := env.submit(t, "CABLE-02", 4)
	mrB := env.submit(t, "CABLE-02", 4)

	respA, err := env.service.Approve(ctx, admin(), mrA.ID)
	require.NoError(t, err)
	respB, err := env.service.Approve(ctx, admin(), mrB.ID)
	require.NoError(t, err)

	assert.Equal(t, "FULFILLED", respA.Status)
	assert.True(t, respA.Items[0].IssuedQuantity.Equal(decimal.NewFromInt(4)))

	// The second request only gets the single remaining unit and goes to
	// purchasing for the rest.
	assert.Equal(t, "AWAITING_DELIVERY", respB.Status)
	assert.True(t, respB.Items[0].IssuedQuantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, respB.Items[0].ShortfallQuantity.Equal(decimal.NewFromInt(3)))

	assert.True(t, env.currentStock(t, "CABLE-02").IsZero())

	purchases, err := env.purchaseRepo.FindByMaterialRequestID(ctx, mrB.ID)
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	require.Len(t, purchases[0].Items, 1)
	assert.True(t, purchases[0].Items[0].Quantity.Equal(decimal.NewFromInt(3)))
}

func TestFulfillmentService_Approve_ResumesInterruptedApproval(t *testing.T) {
	t.Run("issues already in the ledger are not reapplied", func(t *testing.T) {
		env := newFulfillmentEnv(t)
		ctx := context.Background()
		env.seedStock(t, "BULB-01", 10)
		mr := env.submit(t, "BULB-01", 4)

		// First attempt claimed the request and issued the line, then died
		// before the final save.
		actorID := uuid.New()
		require.NoError(t, mr.BeginApproval(actorID))
		require.NoError(t, env.materialRepo.SaveWithLock(ctx, mr))
		_, err := env.inventory.IssueAvailable(ctx, "BULB-01", decimal.NewFromInt(4), actorID,
			inventory.SourceTypeMaterialRequest, mr.RequestNumber)
		require.NoError(t, err)

		resp, err := env.service.Approve(ctx, admin(), mr.ID)
		require.NoError(t, err)
		assert.Equal(t, "FULFILLED", resp.Status)
		assert.True(t, resp.Items[0].IssuedQuantity.Equal(decimal.NewFromInt(4)))

		assert.True(t, env.currentStock(t, "BULB-01").Equal(decimal.NewFromInt(6)),
			"resume must not issue the line a second time")
		assert.Len(t, env.issuesFor(t, mr.RequestNumber), 1)
	})

	t.Run("an already spawned purchase is not spawned again", func(t *testing.T) {
		env := newFulfillmentEnv(t)
		ctx := context.Background()
		env.seedStock(t, "CABLE-02", 2)
		mr := env.submit(t, "CABLE-02", 4)

		actorID := uuid.New()
		require.NoError(t, mr.BeginApproval(actorID))
		require.NoError(t, env.materialRepo.SaveWithLock(ctx, mr))
		_, err := env.inventory.IssueAvailable(ctx, "CABLE-02", decimal.NewFromInt(4), actorID,
			inventory.SourceTypeMaterialRequest, mr.RequestNumber)
		require.NoError(t, err)
		_, err = env.purchases.CreateForMaterialRequest(ctx, actorID, mr.ID, []procurement.PurchaseLine{
			{ItemCode: "CABLE-02", ItemName: "Item CABLE-02", Quantity: decimal.NewFromInt(2)},
		})
		require.NoError(t, err)

		resp, err := env.service.Approve(ctx, admin(), mr.ID)
		require.NoError(t, err)
		assert.Equal(t, "AWAITING_DELIVERY", resp.Status)
		assert.True(t, resp.Items[0].IssuedQuantity.Equal(decimal.NewFromInt(2)))
		assert.True(t, resp.Items[0].ShortfallQuantity.Equal(decimal.NewFromInt(2)))

		purchases, err := env.purchaseRepo.FindByMaterialRequestID(ctx, mr.ID)
		require.NoError(t, err)
		assert.Len(t, purchases, 1)
		assert.Len(t, env.issuesFor(t, mr.RequestNumber), 1)
	})
}
