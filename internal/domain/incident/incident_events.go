package incident

import (
	"github.com/muniworks/backend/internal/domain/shared"
)

// Event types for the incident context
const (
	EventTypeIncidentReported   = "incident.reported"
	EventTypeIncidentInspected  = "incident.inspected"
	EventTypeIncidentReviewed   = "incident.reviewed"
	EventTypeRepairStarted      = "incident.repair_started"
	EventTypeRepairCompleted    = "incident.repair_completed"
	EventTypeClaimStatusChanged = "incident.claim_status_changed"
)

const aggregateTypeIncident = "Incident"

// IncidentReportedEvent is emitted when a new incident is reported
type IncidentReportedEvent struct {
	shared.BaseDomainEvent
	IncidentNumber string `json:"incident_number"`
	AssetCode      string `json:"asset_code"`
}

// NewIncidentReportedEvent creates a new IncidentReportedEvent
func NewIncidentReportedEvent(inc *Incident) *IncidentReportedEvent {
	return &IncidentReportedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeIncidentReported, aggregateTypeIncident, inc.ID),
		IncidentNumber:  inc.IncidentNumber,
		AssetCode:       inc.AssetCode,
	}
}

// IncidentInspectedEvent is emitted when inspection findings are recorded
type IncidentInspectedEvent struct {
	shared.BaseDomainEvent
	IncidentNumber string      `json:"incident_number"`
	DamageLevel    DamageLevel `json:"damage_level"`
	SafetyRisk     bool        `json:"safety_risk"`
}

// NewIncidentInspectedEvent creates a new IncidentInspectedEvent
func NewIncidentInspectedEvent(inc *Incident) *IncidentInspectedEvent {
	return &IncidentInspectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeIncidentInspected, aggregateTypeIncident, inc.ID),
		IncidentNumber:  inc.IncidentNumber,
		DamageLevel:     inc.DamageLevel,
		SafetyRisk:      inc.SafetyRisk,
	}
}

// IncidentReviewedEvent is emitted for each review-tier decision
type IncidentReviewedEvent struct {
	shared.BaseDomainEvent
	IncidentNumber string         `json:"incident_number"`
	Stage          ApprovalStage  `json:"stage"`
	Action         ApprovalAction `json:"action"`
	NewStatus      Status         `json:"new_status"`
}

// NewIncidentReviewedEvent creates a new IncidentReviewedEvent
func NewIncidentReviewedEvent(inc *Incident, record *ApprovalRecord) *IncidentReviewedEvent {
	return &IncidentReviewedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeIncidentReviewed, aggregateTypeIncident, inc.ID),
		IncidentNumber:  inc.IncidentNumber,
		Stage:           record.Stage,
		Action:          record.Action,
		NewStatus:       record.NewStatus,
	}
}

// RepairStartedEvent is emitted when repair work begins
type RepairStartedEvent struct {
	shared.BaseDomainEvent
	IncidentNumber string `json:"incident_number"`
	AssetCode      string `json:"asset_code"`
}

// NewRepairStartedEvent creates a new RepairStartedEvent
func NewRepairStartedEvent(inc *Incident, _ *ApprovalRecord) *RepairStartedEvent {
	return &RepairStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRepairStarted, aggregateTypeIncident, inc.ID),
		IncidentNumber:  inc.IncidentNumber,
		AssetCode:       inc.AssetCode,
	}
}

// RepairCompletedEvent is emitted when the repair is finished
type RepairCompletedEvent struct {
	shared.BaseDomainEvent
	IncidentNumber string `json:"incident_number"`
	AssetCode      string `json:"asset_code"`
}

// NewRepairCompletedEvent creates a new RepairCompletedEvent
func NewRepairCompletedEvent(inc *Incident, _ *ApprovalRecord) *RepairCompletedEvent {
	return &RepairCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRepairCompleted, aggregateTypeIncident, inc.ID),
		IncidentNumber:  inc.IncidentNumber,
		AssetCode:       inc.AssetCode,
	}
}

// ClaimStatusChangedEvent is emitted when the claim axis advances
type ClaimStatusChangedEvent struct {
	shared.BaseDomainEvent
	IncidentNumber string      `json:"incident_number"`
	Previous       ClaimStatus `json:"previous"`
	Current        ClaimStatus `json:"current"`
}

// NewClaimStatusChangedEvent creates a new ClaimStatusChangedEvent
func NewClaimStatusChangedEvent(inc *Incident, previous, current ClaimStatus) *ClaimStatusChangedEvent {
	return &ClaimStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClaimStatusChanged, aggregateTypeIncident, inc.ID),
		IncidentNumber:  inc.IncidentNumber,
		Previous:        previous,
		Current:         current,
	}
}
