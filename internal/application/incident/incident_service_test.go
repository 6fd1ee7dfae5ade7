package incident

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/muniworks/backend/internal/domain/authz"
	"github.com/muniworks/backend/internal/domain/incident"
	"github.com/muniworks/backend/internal/domain/shared"
)

// MockIncidentRepository is a mock implementation of IncidentRepository
type MockIncidentRepository struct {
	mock.Mock
}

func (m *MockIncidentRepository) FindByID(ctx context.Context, id uuid.UUID) (*incident.Incident, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*incident.Incident), args.Error(1)
}

func (m *MockIncidentRepository) FindByNumber(ctx context.Context, number string) (*incident.Incident, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*incident.Incident), args.Error(1)
}

func (m *MockIncidentRepository) FindByStatus(ctx context.Context, status incident.Status, filter shared.Filter) ([]incident.Incident, error) {
	args := m.Called(ctx, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]incident.Incident), args.Error(1)
}

func (m *MockIncidentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]incident.Incident, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]incident.Incident), args.Error(1)
}

func (m *MockIncidentRepository) Save(ctx context.Context, inc *incident.Incident) error {
	args := m.Called(ctx, inc)
	return args.Error(0)
}

func (m *MockIncidentRepository) SaveWithLock(ctx context.Context, inc *incident.Incident) error {
	args := m.Called(ctx, inc)
	return args.Error(0)
}

func (m *MockIncidentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func newService(repo *MockIncidentRepository) *IncidentService {
	return NewIncidentService(repo, authz.NewGuard())
}

func reportedIncident(t *testing.T) *incident.Incident {
	t.Helper()
	inc, err := incident.NewIncident("INC-1", "POLE-0042", "collision", uuid.New())
	require.NoError(t, err)
	inc.ClearDomainEvents()
	return inc
}

func inspectedIncident(t *testing.T) *incident.Incident {
	t.Helper()
	inc := reportedIncident(t)
	require.NoError(t, inc.Inspect(incident.InspectionFindings{
		DamageLevel:       incident.DamageModerate,
		DamageDescription: "bent pole",
		SafetyRisk:        false,
		DamagedComponents: incident.Components{"pole"},
		EstimatedCost:     decimal.NewFromInt(500),
	}, uuid.New(), ""))
	inc.ClearDomainEvents()
	return inc
}

func validInspectRequest() InspectIncidentRequest {
	return InspectIncidentRequest{
		DamageLevel:       "SEVERE",
		DamageDescription: "pole bent at base",
		SafetyRisk:        true,
		DamagedComponents: []string{"pole", "luminaire"},
		EstimatedCost:     decimal.NewFromInt(1800),
	}
}

func TestIncidentService_Submit(t *testing.T) {
	t.Run("any known role may report", func(t *testing.T) {
		repo := new(MockIncidentRepository)
		service := newService(repo)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)

		actor := authz.NewActor(uuid.New(), authz.RoleMaintenanceEngineer)
		resp, err := service.Submit(context.Background(), actor, SubmitIncidentRequest{
			AssetCode:   "POLE-0042",
			Description: "vehicle collision",
		})

		require.NoError(t, err)
		assert.Equal(t, "REPORTED", resp.Status)
		assert.Equal(t, actor.ID, resp.ReportedBy)
		assert.NotEmpty(t, resp.IncidentNumber)
	})

	t.Run("unknown role is denied", func(t *testing.T) {
		repo := new(MockIncidentRepository)
		service := newService(repo)

		actor := authz.NewActor(uuid.New(), authz.Role("VISITOR"))
		_, err := service.Submit(context.Background(), actor, SubmitIncidentRequest{AssetCode: "A", Description: "d"})

		assert.ErrorIs(t, err, shared.ErrPermissionDenied)
		repo.AssertNotCalled(t, "Save")
	})
}

func TestIncidentService_Inspect(t *testing.T) {
	t.Run("inspector records findings", func(t *testing.T) {
		repo := new(MockIncidentRepository)
		service := newService(repo)
		inc := reportedIncident(t)

		repo.On("FindByID", mock.Anything, inc.ID).Return(inc, nil)
		repo.On("SaveWithLock", mock.Anything, inc).Return(nil)

		actor := authz.NewActor(uuid.New(), authz.RoleInspector)
		resp, err := service.Inspect(context.Background(), actor, inc.ID, validInspectRequest())

		require.NoError(t, err)
		assert.Equal(t, "INSPECTED", resp.Status)
		assert.Len(t, resp.Approvals, 1)
	})

	t.Run("supervisor may not inspect", func(t *testing.T) {
		repo := new(MockIncidentRepository)
		service := newService(repo)

		actor := authz.NewActor(uuid.New(), authz.RoleSupervisor)
		_, err := service.Inspect(context.Background(), actor, uuid.New(), validInspectRequest())

		assert.ErrorIs(t, err, shared.ErrPermissionDenied)
		repo.AssertNotCalled(t, "FindByID")
	})
}

func TestIncidentService_Review(t *testing.T) {
	t.Run("supervisor reviews an inspected incident", func(t *testing.T) {
		repo := new(MockIncidentRepository)
		service := newService(repo)
		inc := inspectedIncident(t)

		repo.On("FindByID", mock.Anything, inc.ID).Return(inc, nil)
		repo.On("SaveWithLock", mock.Anything, inc).Return(nil)

		actor := authz.NewActor(uuid.New(), authz.RoleSupervisor)
		resp, err := service.Review(context.Background(), actor, inc.ID, ReviewIncidentRequest{Action: "APPROVE", Comments: "ok"})

		require.NoError(t, err)
		assert.Equal(t, "FINANCE_REVIEW", resp.Status)
	})

	t.Run("finance may not take the supervisor tier", func(t *testing.T) {
		repo := new(MockIncidentRepository)
		service := newService(repo)
		inc := inspectedIncident(t)

		repo.On("FindByID", mock.Anything, inc.ID).Return(inc, nil)

		actor := authz.NewActor(uuid.New(), authz.RoleFinance)
		_, err := service.Review(context.Background(), actor, inc.ID, ReviewIncidentRequest{Action: "APPROVE"})

		assert.ErrorIs(t, err, shared.ErrPermissionDenied)
		repo.AssertNotCalled(t, "SaveWithLock")
	})

	t.Run("finance approves after supervisor", func(t *testing.T) {
		repo := new(MockIncidentRepository)
		service := newService(repo)
		inc := inspectedIncident(t)
		require.NoError(t, inc.SupervisorReview(incident.ActionApprove, uuid.New(), ""))
		inc.ClearDomainEvents()

		repo.On("FindByID", mock.Anything, inc.ID).Return(inc, nil)
		repo.On("SaveWithLock", mock.Anything, inc).Return(nil)

		actor := authz.NewActor(uuid.New(), authz.RoleFinance)
		resp, err := service.Review(context.Background(), actor, inc.ID, ReviewIncidentRequest{Action: "APPROVE", Comments: "budgeted"})

		require.NoError(t, err)
		assert.Equal(t, "APPROVED", resp.Status)
	})

	t.Run("review against a rejected incident fails", func(t *testing.T) {
		repo := new(MockIncidentRepository)
		service := newService(repo)
		inc := inspectedIncident(t)
		require.NoError(t, inc.SupervisorReview(incident.ActionReject, uuid.New(), "duplicate"))
		inc.ClearDomainEvents()

		repo.On("FindByID", mock.Anything, inc.ID).Return(inc, nil)

		actor := authz.NewActor(uuid.New(), authz.RoleFinance)
		_, err := service.Review(context.Background(), actor, inc.ID, ReviewIncidentRequest{Action: "APPROVE"})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_TRANSITION", domainErr.Code)
	})

	t.Run("rejects unknown actions before loading", func(t *testing.T) {
		repo := new(MockIncidentRepository)
		service := newService(repo)

		actor := authz.NewActor(uuid.New(), authz.RoleSupervisor)
		_, err := service.Review(context.Background(), actor, uuid.New(), ReviewIncidentRequest{Action: "MAYBE"})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
		repo.AssertNotCalled(t, "FindByID")
	})
}

func TestIncidentService_UpdateClaimStatus(t *testing.T) {
	t.Run("finance advances the claim on an approved incident", func(t *testing.T) {
		repo := new(MockIncidentRepository)
		service := newService(repo)
		inc := inspectedIncident(t)
		require.NoError(t, inc.SupervisorReview(incident.ActionApprove, uuid.New(), ""))
		require.NoError(t, inc.FinanceReview(incident.ActionApprove, uuid.New(), ""))
		inc.ClearDomainEvents()

		repo.On("FindByID", mock.Anything, inc.ID).Return(inc, nil)
		repo.On("SaveWithLock", mock.Anything, inc).Return(nil)

		actor := authz.NewActor(uuid.New(), authz.RoleFinance)
		resp, err := service.UpdateClaimStatus(context.Background(), actor, inc.ID, UpdateClaimStatusRequest{ClaimStatus: "SUBMITTED"})

		require.NoError(t, err)
		assert.Equal(t, "SUBMITTED", resp.ClaimStatus)
		assert.Equal(t, "APPROVED", resp.Status)
	})

	t.Run("inspector may not touch the claim", func(t *testing.T) {
		repo := new(MockIncidentRepository)
		service := newService(repo)

		actor := authz.NewActor(uuid.New(), authz.RoleInspector)
		_, err := service.UpdateClaimStatus(context.Background(), actor, uuid.New(), UpdateClaimStatusRequest{ClaimStatus: "SUBMITTED"})

		assert.ErrorIs(t, err, shared.ErrPermissionDenied)
	})
}

func TestIncidentService_ConflictSurfaced(t *testing.T) {
	// A concurrent mutation shows up as a failed version check on save.
	repo := new(MockIncidentRepository)
	service := newService(repo)
	inc := reportedIncident(t)

	repo.On("FindByID", mock.Anything, inc.ID).Return(inc, nil)
	repo.On("SaveWithLock", mock.Anything, inc).Return(shared.ErrConcurrencyConflict)

	actor := authz.NewActor(uuid.New(), authz.RoleInspector)
	_, err := service.Inspect(context.Background(), actor, inc.ID, validInspectRequest())

	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}
