package incident

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/muniworks/backend/internal/domain/incident"
)

// SubmitIncidentRequest is the payload for reporting a new incident
type SubmitIncidentRequest struct {
	AssetCode   string `json:"asset_code" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// InspectIncidentRequest is the payload for recording inspection findings
type InspectIncidentRequest struct {
	DamageLevel       string          `json:"damage_level" binding:"required"`
	DamageDescription string          `json:"damage_description" binding:"required"`
	SafetyRisk        bool            `json:"safety_risk"`
	DamagedComponents []string        `json:"damaged_components" binding:"required"`
	EstimatedCost     decimal.Decimal `json:"estimated_cost"`
	Comments          string          `json:"comments"`
}

// ReviewIncidentRequest is the payload for a review-tier decision
type ReviewIncidentRequest struct {
	Action   string `json:"action" binding:"required"`
	Comments string `json:"comments"`
}

// RepairRequest is the payload for starting or completing a repair
type RepairRequest struct {
	Comments string `json:"comments"`
}

// UpdateClaimStatusRequest is the payload for advancing the claim axis
type UpdateClaimStatusRequest struct {
	ClaimStatus string `json:"claim_status" binding:"required"`
}

// ApprovalRecordResponse is the read model of one audit entry
type ApprovalRecordResponse struct {
	ID             uuid.UUID `json:"id"`
	Stage          string    `json:"stage"`
	Action         string    `json:"action"`
	ActorID        uuid.UUID `json:"actor_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Comments       string    `json:"comments,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// IncidentResponse is the read model of an incident with its audit trail
type IncidentResponse struct {
	ID                uuid.UUID                `json:"id"`
	IncidentNumber    string                   `json:"incident_number"`
	AssetCode         string                   `json:"asset_code"`
	Description       string                   `json:"description"`
	ReportedBy        uuid.UUID                `json:"reported_by"`
	Status            string                   `json:"status"`
	ClaimStatus       string                   `json:"claim_status"`
	DamageLevel       string                   `json:"damage_level,omitempty"`
	DamageDescription string                   `json:"damage_description,omitempty"`
	SafetyRisk        bool                     `json:"safety_risk"`
	DamagedComponents []string                 `json:"damaged_components"`
	EstimatedCost     decimal.Decimal          `json:"estimated_cost"`
	Approvals         []ApprovalRecordResponse `json:"approvals"`
	Version           int                      `json:"version"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
}

// ToIncidentResponse converts a domain incident to its read model
func ToIncidentResponse(inc *incident.Incident) IncidentResponse {
	approvals := make([]ApprovalRecordResponse, 0, len(inc.Approvals))
	for _, record := range inc.Approvals {
		approvals = append(approvals, ApprovalRecordResponse{
			ID:             record.ID,
			Stage:          string(record.Stage),
			Action:         string(record.Action),
			ActorID:        record.ActorID,
			PreviousStatus: record.PreviousStatus.String(),
			NewStatus:      record.NewStatus.String(),
			Comments:       record.Comments,
			CreatedAt:      record.CreatedAt,
		})
	}

	return IncidentResponse{
		ID:                inc.ID,
		IncidentNumber:    inc.IncidentNumber,
		AssetCode:         inc.AssetCode,
		Description:       inc.Description,
		ReportedBy:        inc.ReportedBy,
		Status:            inc.Status.String(),
		ClaimStatus:       inc.ClaimStatus.String(),
		DamageLevel:       string(inc.DamageLevel),
		DamageDescription: inc.DamageDescription,
		SafetyRisk:        inc.SafetyRisk,
		DamagedComponents: inc.DamagedComponents,
		EstimatedCost:     inc.EstimatedCost,
		Approvals:         approvals,
		Version:           inc.GetVersion(),
		CreatedAt:         inc.CreatedAt,
		UpdatedAt:         inc.UpdatedAt,
	}
}
