package material

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muniworks/backend/internal/domain/shared"
)

func createPendingRequest(t *testing.T) *MaterialRequest {
	t.Helper()
	mr, err := NewMaterialRequest("MR-2026-001", uuid.New(), "streetlight repair", []LineAsk{
		{ItemCode: "BULB-01", ItemName: "Street Light Bulb 150W", Quantity: decimal.NewFromInt(10)},
		{ItemCode: "CABLE-02", ItemName: "Copper Cable 2.5mm", Quantity: decimal.NewFromInt(3)},
	})
	require.NoError(t, err)
	mr.ClearDomainEvents()
	return mr
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, code, domainErr.Code)
}

func TestNewMaterialRequest(t *testing.T) {
	tests := []struct {
		name    string
		number  string
		by      uuid.UUID
		asks    []LineAsk
		wantErr bool
	}{
		{"valid", "MR-1", uuid.New(), []LineAsk{{ItemCode: "A", Quantity: decimal.NewFromInt(1)}}, false},
		{"empty number", "", uuid.New(), []LineAsk{{ItemCode: "A", Quantity: decimal.NewFromInt(1)}}, true},
		{"nil requester", "MR-1", uuid.Nil, []LineAsk{{ItemCode: "A", Quantity: decimal.NewFromInt(1)}}, true},
		{"no lines", "MR-1", uuid.New(), nil, true},
		{"zero quantity", "MR-1", uuid.New(), []LineAsk{{ItemCode: "A", Quantity: decimal.Zero}}, true},
		{"duplicate line", "MR-1", uuid.New(), []LineAsk{
			{ItemCode: "A", Quantity: decimal.NewFromInt(1)},
			{ItemCode: "A", Quantity: decimal.NewFromInt(2)},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr, err := NewMaterialRequest(tt.number, tt.by, "", tt.asks)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusPending, mr.Status)
			for _, item := range mr.Items {
				assert.Equal(t, ItemStatusPending, item.ItemStatus)
				assert.Equal(t, RequestTypeUsage, item.RequestType)
			}
		})
	}
}

func TestMaterialRequest_ApplyFulfillment(t *testing.T) {
	t.Run("full coverage ends FULFILLED", func(t *testing.T) {
		mr := createPendingRequest(t)

		err := mr.ApplyFulfillment([]LineFulfillment{
			{ItemCode: "BULB-01", Snapshot: decimal.NewFromInt(20), Issued: decimal.NewFromInt(10), Shortfall: decimal.Zero},
			{ItemCode: "CABLE-02", Snapshot: decimal.NewFromInt(5), Issued: decimal.NewFromInt(3), Shortfall: decimal.Zero},
		}, uuid.New())
		require.NoError(t, err)

		assert.Equal(t, StatusFulfilled, mr.Status)
		assert.False(t, mr.HasShortfall())
		for _, item := range mr.Items {
			assert.Equal(t, ItemStatusFulfilled, item.ItemStatus)
			assert.Equal(t, RequestTypeUsage, item.RequestType)
		}
	})

	t.Run("partial coverage routes the remainder to purchase", func(t *testing.T) {
		mr := createPendingRequest(t)

		err := mr.ApplyFulfillment([]LineFulfillment{
			{ItemCode: "BULB-01", Snapshot: decimal.NewFromInt(4), Issued: decimal.NewFromInt(4), Shortfall: decimal.NewFromInt(6)},
			{ItemCode: "CABLE-02", Snapshot: decimal.NewFromInt(5), Issued: decimal.NewFromInt(3), Shortfall: decimal.Zero},
		}, uuid.New())
		require.NoError(t, err)

		assert.Equal(t, StatusAwaitingDelivery, mr.Status)
		require.True(t, mr.HasShortfall())

		shortfalls := mr.ShortfallLines()
		require.Len(t, shortfalls, 1)
		assert.Equal(t, "BULB-01", shortfalls[0].ItemCode)
		assert.True(t, shortfalls[0].ShortfallQuantity.Equal(decimal.NewFromInt(6)))
		assert.Equal(t, ItemStatusPendingPurchase, shortfalls[0].ItemStatus)
		assert.Equal(t, RequestTypePurchase, shortfalls[0].RequestType)
	})

	t.Run("zero stock everywhere ends AWAITING_DELIVERY", func(t *testing.T) {
		mr := createPendingRequest(t)

		err := mr.ApplyFulfillment([]LineFulfillment{
			{ItemCode: "BULB-01", Snapshot: decimal.Zero, Issued: decimal.Zero, Shortfall: decimal.NewFromInt(10)},
			{ItemCode: "CABLE-02", Snapshot: decimal.Zero, Issued: decimal.Zero, Shortfall: decimal.NewFromInt(3)},
		}, uuid.New())
		require.NoError(t, err)

		assert.Equal(t, StatusAwaitingDelivery, mr.Status)
		assert.Len(t, mr.ShortfallLines(), 2)
	})

	t.Run("rejects coverage that does not add up", func(t *testing.T) {
		mr := createPendingRequest(t)

		err := mr.ApplyFulfillment([]LineFulfillment{
			{ItemCode: "BULB-01", Snapshot: decimal.NewFromInt(4), Issued: decimal.NewFromInt(4), Shortfall: decimal.NewFromInt(5)},
			{ItemCode: "CABLE-02", Snapshot: decimal.NewFromInt(5), Issued: decimal.NewFromInt(3), Shortfall: decimal.Zero},
		}, uuid.New())

		assertDomainCode(t, err, "VALIDATION_ERROR")
		assert.Equal(t, StatusPending, mr.Status)
	})

	t.Run("rejects incomplete coverage", func(t *testing.T) {
		mr := createPendingRequest(t)

		err := mr.ApplyFulfillment([]LineFulfillment{
			{ItemCode: "BULB-01", Snapshot: decimal.NewFromInt(4), Issued: decimal.NewFromInt(10), Shortfall: decimal.Zero},
		}, uuid.New())

		assertDomainCode(t, err, "VALIDATION_ERROR")
		assert.Equal(t, StatusPending, mr.Status)
		for _, item := range mr.Items {
			assert.Equal(t, ItemStatusPending, item.ItemStatus)
		}
	})

	t.Run("cannot approve twice", func(t *testing.T) {
		mr := createPendingRequest(t)
		results := []LineFulfillment{
			{ItemCode: "BULB-01", Snapshot: decimal.NewFromInt(20), Issued: decimal.NewFromInt(10), Shortfall: decimal.Zero},
			{ItemCode: "CABLE-02", Snapshot: decimal.NewFromInt(5), Issued: decimal.NewFromInt(3), Shortfall: decimal.Zero},
		}
		require.NoError(t, mr.ApplyFulfillment(results, uuid.New()))

		err := mr.ApplyFulfillment(results, uuid.New())
		assertDomainCode(t, err, "INVALID_TRANSITION")
	})
}

func TestMaterialRequest_Reject(t *testing.T) {
	t.Run("requires a reason", func(t *testing.T) {
		mr := createPendingRequest(t)

		err := mr.Reject(uuid.New(), "")

		assertDomainCode(t, err, "VALIDATION_ERROR")
		assert.Equal(t, StatusPending, mr.Status)
	})

	t.Run("terminal with reason recorded", func(t *testing.T) {
		mr := createPendingRequest(t)

		require.NoError(t, mr.Reject(uuid.New(), "wrong asset"))

		assert.Equal(t, StatusRejected, mr.Status)
		assert.Equal(t, "wrong asset", mr.RejectionReason)
		assert.True(t, mr.IsTerminal())
		assertDomainCode(t, mr.MarkDelivered(uuid.New(), ""), "INVALID_TRANSITION")
	})

	t.Run("cannot reject after approval", func(t *testing.T) {
		mr := createPendingRequest(t)
		require.NoError(t, mr.ApplyFulfillment([]LineFulfillment{
			{ItemCode: "BULB-01", Snapshot: decimal.NewFromInt(20), Issued: decimal.NewFromInt(10), Shortfall: decimal.Zero},
			{ItemCode: "CABLE-02", Snapshot: decimal.NewFromInt(5), Issued: decimal.NewFromInt(3), Shortfall: decimal.Zero},
		}, uuid.New()))

		assertDomainCode(t, mr.Reject(uuid.New(), "too late"), "INVALID_TRANSITION")
	})
}

func TestMaterialRequest_MarkDelivered(t *testing.T) {
	t.Run("delivers an awaiting request and settles purchase lines", func(t *testing.T) {
		mr := createPendingRequest(t)
		require.NoError(t, mr.ApplyFulfillment([]LineFulfillment{
			{ItemCode: "BULB-01", Snapshot: decimal.NewFromInt(4), Issued: decimal.NewFromInt(4), Shortfall: decimal.NewFromInt(6)},
			{ItemCode: "CABLE-02", Snapshot: decimal.NewFromInt(5), Issued: decimal.NewFromInt(3), Shortfall: decimal.Zero},
		}, uuid.New()))

		require.NoError(t, mr.MarkDelivered(uuid.New(), "handed to crew"))

		assert.Equal(t, StatusDelivered, mr.Status)
		require.NotNil(t, mr.DeliveredAt)
		for _, item := range mr.Items {
			assert.Equal(t, ItemStatusFulfilled, item.ItemStatus)
		}
	})

	t.Run("fully fulfilled requests never pass through delivery", func(t *testing.T) {
		mr := createPendingRequest(t)
		require.NoError(t, mr.ApplyFulfillment([]LineFulfillment{
			{ItemCode: "BULB-01", Snapshot: decimal.NewFromInt(20), Issued: decimal.NewFromInt(10), Shortfall: decimal.Zero},
			{ItemCode: "CABLE-02", Snapshot: decimal.NewFromInt(5), Issued: decimal.NewFromInt(3), Shortfall: decimal.Zero},
		}, uuid.New()))

		assertDomainCode(t, mr.MarkDelivered(uuid.New(), ""), "INVALID_TRANSITION")
	})

	t.Run("cannot deliver a pending request", func(t *testing.T) {
		mr := createPendingRequest(t)
		assertDomainCode(t, mr.MarkDelivered(uuid.New(), ""), "INVALID_TRANSITION")
	})
}

func TestMaterialRequest_Events(t *testing.T) {
	mr := createPendingRequest(t)

	require.NoError(t, mr.ApplyFulfillment([]LineFulfillment{
		{ItemCode: "BULB-01", Snapshot: decimal.NewFromInt(4), Issued: decimal.NewFromInt(4), Shortfall: decimal.NewFromInt(6)},
		{ItemCode: "CABLE-02", Snapshot: decimal.NewFromInt(5), Issued: decimal.NewFromInt(3), Shortfall: decimal.Zero},
	}, uuid.New()))

	events := mr.GetDomainEvents()
	require.Len(t, events, 1)
	approved, ok := events[0].(*MaterialRequestApprovedEvent)
	require.True(t, ok)
	assert.Equal(t, StatusAwaitingDelivery, approved.Status)
	assert.True(t, approved.HasShortfall)
}
