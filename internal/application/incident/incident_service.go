package incident

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/muniworks/backend/internal/domain/authz"
	"github.com/muniworks/backend/internal/domain/incident"
	"github.com/muniworks/backend/internal/domain/shared"
)

// IncidentService handles incident lifecycle commands and queries
type IncidentService struct {
	incidentRepo   incident.IncidentRepository
	guard          *authz.Guard
	eventPublisher shared.EventPublisher
}

// NewIncidentService creates a new IncidentService
func NewIncidentService(incidentRepo incident.IncidentRepository, guard *authz.Guard) *IncidentService {
	return &IncidentService{
		incidentRepo: incidentRepo,
		guard:        guard,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *IncidentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *IncidentService) publishEvents(ctx context.Context, inc *incident.Incident) {
	if s.eventPublisher == nil {
		return
	}
	events := inc.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	inc.ClearDomainEvents()
}

func (s *IncidentService) authorize(actor authz.Actor, action authz.Action) error {
	if !s.guard.CanPerform(actor.Role, action) {
		return shared.ErrPermissionDenied
	}
	return nil
}

func generateIncidentNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("INC-%s-%s", time.Now().Format("20060102"), suffix)
}

// Submit reports a new incident
func (s *IncidentService) Submit(ctx context.Context, actor authz.Actor, req SubmitIncidentRequest) (*IncidentResponse, error) {
	if err := s.authorize(actor, authz.ActionSubmitIncident); err != nil {
		return nil, err
	}

	inc, err := incident.NewIncident(generateIncidentNumber(), req.AssetCode, req.Description, actor.ID)
	if err != nil {
		return nil, err
	}

	if err := s.incidentRepo.Save(ctx, inc); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, inc)

	resp := ToIncidentResponse(inc)
	return &resp, nil
}

// Inspect records inspection findings and advances the incident
func (s *IncidentService) Inspect(ctx context.Context, actor authz.Actor, incidentID uuid.UUID, req InspectIncidentRequest) (*IncidentResponse, error) {
	if err := s.authorize(actor, authz.ActionInspectIncident); err != nil {
		return nil, err
	}

	inc, err := s.incidentRepo.FindByID(ctx, incidentID)
	if err != nil {
		return nil, err
	}

	findings := incident.InspectionFindings{
		DamageLevel:       incident.DamageLevel(req.DamageLevel),
		DamageDescription: req.DamageDescription,
		SafetyRisk:        req.SafetyRisk,
		DamagedComponents: incident.Components(req.DamagedComponents),
		EstimatedCost:     req.EstimatedCost,
	}
	if err := inc.Inspect(findings, actor.ID, req.Comments); err != nil {
		return nil, err
	}

	if err := s.incidentRepo.SaveWithLock(ctx, inc); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, inc)

	resp := ToIncidentResponse(inc)
	return &resp, nil
}

// Review applies a review-tier decision. The tier is derived from the
// incident's current status: INSPECTED incidents are reviewed by the
// supervisor tier, incidents awaiting finance by the finance tier.
func (s *IncidentService) Review(ctx context.Context, actor authz.Actor, incidentID uuid.UUID, req ReviewIncidentRequest) (*IncidentResponse, error) {
	action := incident.ApprovalAction(req.Action)
	if !action.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Review action must be APPROVE or REJECT")
	}

	inc, err := s.incidentRepo.FindByID(ctx, incidentID)
	if err != nil {
		return nil, err
	}

	switch inc.Status {
	case incident.StatusReported, incident.StatusInspected:
		if err := s.authorize(actor, authz.ActionSupervisorReview); err != nil {
			return nil, err
		}
		if err := inc.SupervisorReview(action, actor.ID, req.Comments); err != nil {
			return nil, err
		}
	default:
		if err := s.authorize(actor, authz.ActionFinanceReview); err != nil {
			return nil, err
		}
		if err := inc.FinanceReview(action, actor.ID, req.Comments); err != nil {
			return nil, err
		}
	}

	if err := s.incidentRepo.SaveWithLock(ctx, inc); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, inc)

	resp := ToIncidentResponse(inc)
	return &resp, nil
}

// StartRepair moves an approved incident into repair
func (s *IncidentService) StartRepair(ctx context.Context, actor authz.Actor, incidentID uuid.UUID, req RepairRequest) (*IncidentResponse, error) {
	if err := s.authorize(actor, authz.ActionStartRepair); err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, incidentID, func(inc *incident.Incident) error {
		return inc.StartRepair(actor.ID, req.Comments)
	})
}

// CompleteRepair finishes the repair
func (s *IncidentService) CompleteRepair(ctx context.Context, actor authz.Actor, incidentID uuid.UUID, req RepairRequest) (*IncidentResponse, error) {
	if err := s.authorize(actor, authz.ActionCompleteRepair); err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, incidentID, func(inc *incident.Incident) error {
		return inc.CompleteRepair(actor.ID, req.Comments)
	})
}

// UpdateClaimStatus advances the insurance-claim axis
func (s *IncidentService) UpdateClaimStatus(ctx context.Context, actor authz.Actor, incidentID uuid.UUID, req UpdateClaimStatusRequest) (*IncidentResponse, error) {
	if err := s.authorize(actor, authz.ActionUpdateClaimStatus); err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, incidentID, func(inc *incident.Incident) error {
		return inc.UpdateClaimStatus(incident.ClaimStatus(req.ClaimStatus), actor.ID)
	})
}

func (s *IncidentService) applyTransition(ctx context.Context, incidentID uuid.UUID, mutate func(*incident.Incident) error) (*IncidentResponse, error) {
	inc, err := s.incidentRepo.FindByID(ctx, incidentID)
	if err != nil {
		return nil, err
	}

	if err := mutate(inc); err != nil {
		return nil, err
	}

	if err := s.incidentRepo.SaveWithLock(ctx, inc); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, inc)

	resp := ToIncidentResponse(inc)
	return &resp, nil
}

// GetIncident returns an incident with its approval trail
func (s *IncidentService) GetIncident(ctx context.Context, incidentID uuid.UUID) (*IncidentResponse, error) {
	inc, err := s.incidentRepo.FindByID(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	resp := ToIncidentResponse(inc)
	return &resp, nil
}

// ListIncidents returns a page of incidents
func (s *IncidentService) ListIncidents(ctx context.Context, filter shared.Filter) (*shared.Paginated[IncidentResponse], error) {
	incidents, err := s.incidentRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.incidentRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]IncidentResponse, 0, len(incidents))
	for i := range incidents {
		responses = append(responses, ToIncidentResponse(&incidents[i]))
	}
	page := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &page, nil
}
