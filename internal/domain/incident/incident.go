package incident

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/muniworks/backend/internal/domain/shared"
)

// Status represents the main lifecycle status of an incident
type Status string

const (
	StatusReported         Status = "REPORTED"
	StatusInspected        Status = "INSPECTED"
	StatusSupervisorReview Status = "SUPERVISOR_REVIEW"
	StatusFinanceReview    Status = "FINANCE_REVIEW"
	StatusApproved         Status = "APPROVED"
	StatusRejected         Status = "REJECTED"
	StatusUnderRepair      Status = "UNDER_REPAIR"
	StatusCompleted        Status = "COMPLETED"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusReported, StatusInspected, StatusSupervisorReview, StatusFinanceReview,
		StatusApproved, StatusRejected, StatusUnderRepair, StatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusReported:
		return target == StatusInspected
	case StatusInspected:
		return target == StatusSupervisorReview || target == StatusFinanceReview || target == StatusRejected
	case StatusSupervisorReview:
		return target == StatusFinanceReview || target == StatusApproved || target == StatusRejected
	case StatusFinanceReview:
		return target == StatusApproved || target == StatusRejected
	case StatusApproved:
		return target == StatusUnderRepair
	case StatusUnderRepair:
		return target == StatusCompleted
	case StatusRejected, StatusCompleted:
		return false // Terminal states
	}
	return false
}

// IsTerminal returns true for terminal states of the main axis
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

// ClaimStatus represents the insurance-claim sub-state, an axis independent
// of the main lifecycle. The two axes never merge.
type ClaimStatus string

const (
	ClaimNotSubmitted ClaimStatus = "NOT_SUBMITTED"
	ClaimSubmitted    ClaimStatus = "SUBMITTED"
	ClaimApproved     ClaimStatus = "APPROVED"
	ClaimRejected     ClaimStatus = "REJECTED"
	ClaimPaid         ClaimStatus = "PAID"
)

// IsValid checks if the claim status is valid
func (c ClaimStatus) IsValid() bool {
	switch c {
	case ClaimNotSubmitted, ClaimSubmitted, ClaimApproved, ClaimRejected, ClaimPaid:
		return true
	}
	return false
}

// String returns the string representation of ClaimStatus
func (c ClaimStatus) String() string {
	return string(c)
}

// CanTransitionTo checks if the claim status can transition to the target
func (c ClaimStatus) CanTransitionTo(target ClaimStatus) bool {
	switch c {
	case ClaimNotSubmitted:
		return target == ClaimSubmitted
	case ClaimSubmitted:
		return target == ClaimApproved || target == ClaimRejected
	case ClaimApproved:
		return target == ClaimPaid
	case ClaimRejected, ClaimPaid:
		return false
	}
	return false
}

// DamageLevel classifies the inspected damage
type DamageLevel string

const (
	DamageMinor    DamageLevel = "MINOR"
	DamageModerate DamageLevel = "MODERATE"
	DamageSevere   DamageLevel = "SEVERE"
)

// IsValid checks if the damage level is valid
func (d DamageLevel) IsValid() bool {
	switch d {
	case DamageMinor, DamageModerate, DamageSevere:
		return true
	}
	return false
}

// Components is a set of damaged component names stored as a JSON column
type Components []string

// Value implements driver.Valuer
func (c Components) Value() (driver.Value, error) {
	if c == nil {
		c = Components{}
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner
func (c *Components) Scan(value interface{}) error {
	if value == nil {
		*c = Components{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return errors.New("unsupported type for Components")
	}
}

// InspectionFindings carries the fields an inspector must record atomically
// with the REPORTED -> INSPECTED transition
type InspectionFindings struct {
	DamageLevel       DamageLevel
	DamageDescription string
	SafetyRisk        bool
	DamagedComponents Components
	EstimatedCost     decimal.Decimal
}

// Incident represents a reported collision or damage event against a
// municipal asset, tracked through a branching approval chain. It is the
// aggregate root; ApprovalRecord children form its append-only audit trail.
type Incident struct {
	shared.BaseAggregateRoot
	IncidentNumber    string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	AssetCode         string          `gorm:"type:varchar(50);not null;index"`
	Description       string          `gorm:"type:text;not null"`
	ReportedBy        uuid.UUID       `gorm:"type:uuid;not null"`
	Status            Status          `gorm:"type:varchar(30);not null;default:'REPORTED'"`
	ClaimStatus       ClaimStatus     `gorm:"type:varchar(30);not null;default:'NOT_SUBMITTED'"`
	DamageLevel       DamageLevel     `gorm:"type:varchar(20)"`
	DamageDescription string          `gorm:"type:text"`
	SafetyRisk        bool            `gorm:"not null;default:false"`
	DamagedComponents Components      `gorm:"type:jsonb"`
	EstimatedCost     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Approvals         []ApprovalRecord `gorm:"foreignKey:IncidentID;references:ID"`
}

// TableName returns the table name for GORM
func (Incident) TableName() string {
	return "incidents"
}

// NewIncident creates a newly reported incident
func NewIncident(incidentNumber, assetCode, description string, reportedBy uuid.UUID) (*Incident, error) {
	if incidentNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Incident number cannot be empty")
	}
	if assetCode == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Asset code cannot be empty")
	}
	if description == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Description cannot be empty")
	}
	if reportedBy == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Reporter is required")
	}

	inc := &Incident{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		IncidentNumber:    incidentNumber,
		AssetCode:         assetCode,
		Description:       description,
		ReportedBy:        reportedBy,
		Status:            StatusReported,
		ClaimStatus:       ClaimNotSubmitted,
		DamagedComponents: Components{},
		EstimatedCost:     decimal.Zero,
		Approvals:         make([]ApprovalRecord, 0),
	}

	inc.AddDomainEvent(NewIncidentReportedEvent(inc))

	return inc, nil
}

// transition applies a main-axis status change and appends the matching
// approval record as one unit. A failed validation leaves both unchanged.
func (i *Incident) transition(target Status, stage ApprovalStage, action ApprovalAction, actorID uuid.UUID, comments string) (*ApprovalRecord, error) {
	if !i.Status.CanTransitionTo(target) {
		return nil, shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition incident from %s to %s", i.Status, target))
	}
	if actorID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Actor is required")
	}

	record := NewApprovalRecord(i.ID, stage, action, actorID, i.Status, target, comments)

	i.Status = target
	i.Approvals = append(i.Approvals, *record)
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return record, nil
}

// Inspect records the inspection findings and moves the incident from
// REPORTED to INSPECTED. All findings are mandatory and applied atomically
// with the transition.
func (i *Incident) Inspect(findings InspectionFindings, actorID uuid.UUID, comments string) error {
	if !findings.DamageLevel.IsValid() {
		return shared.NewDomainError("VALIDATION_ERROR", "Damage level is required")
	}
	if findings.DamageDescription == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Damage description is required")
	}
	if len(findings.DamagedComponents) == 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Damaged components are required")
	}
	if findings.EstimatedCost.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Estimated cost cannot be negative")
	}

	if _, err := i.transition(StatusInspected, StageInspection, ActionApprove, actorID, comments); err != nil {
		return err
	}

	i.DamageLevel = findings.DamageLevel
	i.DamageDescription = findings.DamageDescription
	i.SafetyRisk = findings.SafetyRisk
	i.DamagedComponents = findings.DamagedComponents
	i.EstimatedCost = findings.EstimatedCost

	i.AddDomainEvent(NewIncidentInspectedEvent(i))

	return nil
}

// SupervisorReview is the first review tier: APPROVE forwards the incident
// to FINANCE_REVIEW (awaiting finance), REJECT is terminal.
func (i *Incident) SupervisorReview(action ApprovalAction, actorID uuid.UUID, comments string) error {
	if i.Status != StatusInspected {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Supervisor review requires INSPECTED status, incident is %s", i.Status))
	}

	target := StatusFinanceReview
	if action == ActionReject {
		target = StatusRejected
	}

	record, err := i.transition(target, StageSupervisorReview, action, actorID, comments)
	if err != nil {
		return err
	}

	i.AddDomainEvent(NewIncidentReviewedEvent(i, record))

	return nil
}

// FinanceReview is the second review tier: APPROVE or REJECT are the only
// outcomes. Incidents awaiting finance normally carry the FINANCE_REVIEW
// label; SUPERVISOR_REVIEW is accepted as well for rows written before
// supervisor approvals forwarded to finance directly.
func (i *Incident) FinanceReview(action ApprovalAction, actorID uuid.UUID, comments string) error {
	if i.Status != StatusSupervisorReview && i.Status != StatusFinanceReview {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Finance review requires SUPERVISOR_REVIEW status, incident is %s", i.Status))
	}

	target := StatusApproved
	if action == ActionReject {
		target = StatusRejected
	}

	record, err := i.transition(target, StageFinanceReview, action, actorID, comments)
	if err != nil {
		return err
	}

	i.AddDomainEvent(NewIncidentReviewedEvent(i, record))

	return nil
}

// StartRepair moves an approved incident into repair
func (i *Incident) StartRepair(actorID uuid.UUID, comments string) error {
	record, err := i.transition(StatusUnderRepair, StageRepair, ActionApprove, actorID, comments)
	if err != nil {
		return err
	}
	i.AddDomainEvent(NewRepairStartedEvent(i, record))
	return nil
}

// CompleteRepair finishes the repair; COMPLETED has no outbound edges
func (i *Incident) CompleteRepair(actorID uuid.UUID, comments string) error {
	record, err := i.transition(StatusCompleted, StageRepair, ActionApprove, actorID, comments)
	if err != nil {
		return err
	}
	i.AddDomainEvent(NewRepairCompletedEvent(i, record))
	return nil
}

// UpdateClaimStatus advances the insurance-claim axis. It is permitted only
// once the main status has reached APPROVED or later, never appends to the
// approvals log, and never affects the main status.
func (i *Incident) UpdateClaimStatus(target ClaimStatus, actorID uuid.UUID) error {
	if !target.IsValid() {
		return shared.NewDomainError("VALIDATION_ERROR", "Invalid claim status")
	}
	if actorID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Actor is required")
	}
	if !i.ClaimEligible() {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Claim cannot progress while incident is %s", i.Status))
	}
	if !i.ClaimStatus.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition claim from %s to %s", i.ClaimStatus, target))
	}

	previous := i.ClaimStatus
	i.ClaimStatus = target
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewClaimStatusChangedEvent(i, previous, target))

	return nil
}

// ClaimEligible returns true once the main axis allows claim progression
func (i *Incident) ClaimEligible() bool {
	return i.Status == StatusApproved || i.Status == StatusUnderRepair || i.Status == StatusCompleted
}

// IsTerminal returns true if the main axis reached a terminal state
func (i *Incident) IsTerminal() bool {
	return i.Status.IsTerminal()
}
