package incident

import (
	"github.com/google/uuid"

	"github.com/muniworks/backend/internal/domain/shared"
)

// ApprovalStage identifies which review tier produced a record
type ApprovalStage string

const (
	StageInspection       ApprovalStage = "INSPECTION"
	StageSupervisorReview ApprovalStage = "SUPERVISOR_REVIEW"
	StageFinanceReview    ApprovalStage = "FINANCE_REVIEW"
	StageRepair           ApprovalStage = "REPAIR"
)

// ApprovalAction is the decision taken at a stage
type ApprovalAction string

const (
	ActionApprove ApprovalAction = "APPROVE"
	ActionReject  ApprovalAction = "REJECT"
)

// IsValid checks if the approval action is valid
func (a ApprovalAction) IsValid() bool {
	return a == ActionApprove || a == ActionReject
}

// ApprovalRecord is an immutable audit entry appended with every main-axis
// transition. Records are never mutated or deleted; the trail is the proof
// of how a terminal state was reached.
type ApprovalRecord struct {
	shared.BaseEntity
	IncidentID     uuid.UUID      `gorm:"type:uuid;not null;index"`
	Stage          ApprovalStage  `gorm:"type:varchar(30);not null"`
	Action         ApprovalAction `gorm:"type:varchar(10);not null"`
	ActorID        uuid.UUID      `gorm:"type:uuid;not null"`
	PreviousStatus Status         `gorm:"type:varchar(30);not null"`
	NewStatus      Status         `gorm:"type:varchar(30);not null"`
	Comments       string         `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ApprovalRecord) TableName() string {
	return "incident_approval_records"
}

// NewApprovalRecord creates a new approval record
func NewApprovalRecord(incidentID uuid.UUID, stage ApprovalStage, action ApprovalAction, actorID uuid.UUID, previous, next Status, comments string) *ApprovalRecord {
	return &ApprovalRecord{
		BaseEntity:     shared.NewBaseEntity(),
		IncidentID:     incidentID,
		Stage:          stage,
		Action:         action,
		ActorID:        actorID,
		PreviousStatus: previous,
		NewStatus:      next,
		Comments:       comments,
	}
}
