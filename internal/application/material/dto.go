package material

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/muniworks/backend/internal/domain/material"
)

// LineAskRequest is one submitted line of a material request
type LineAskRequest struct {
	ItemCode string          `json:"item_code" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// SubmitMaterialRequest is the payload for submitting a material request
type SubmitMaterialRequest struct {
	Notes string           `json:"notes"`
	Items []LineAskRequest `json:"items" binding:"required,min=1"`
}

// RejectMaterialRequest is the payload for rejecting a material request
type RejectMaterialRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ReceiveMaterialRequest is the payload for confirming delivery
type ReceiveMaterialRequest struct {
	Notes string `json:"notes"`
}

// RequestItemResponse is the read model of one request line
type RequestItemResponse struct {
	ID                        uuid.UUID       `json:"id"`
	ItemCode                  string          `json:"item_code"`
	ItemName                  string          `json:"item_name"`
	RequestedQuantity         decimal.Decimal `json:"requested_quantity"`
	AvailableQuantitySnapshot decimal.Decimal `json:"available_quantity_snapshot"`
	IssuedQuantity            decimal.Decimal `json:"issued_quantity"`
	ShortfallQuantity         decimal.Decimal `json:"shortfall_quantity"`
	RequestType               string          `json:"request_type"`
	ItemStatus                string          `json:"item_status"`
}

// MaterialRequestResponse is the read model of a material request
type MaterialRequestResponse struct {
	ID              uuid.UUID             `json:"id"`
	RequestNumber   string                `json:"request_number"`
	RequestedBy     uuid.UUID             `json:"requested_by"`
	Status          string                `json:"status"`
	Notes           string                `json:"notes,omitempty"`
	RejectionReason string                `json:"rejection_reason,omitempty"`
	ApprovedAt      *time.Time            `json:"approved_at,omitempty"`
	DeliveredAt     *time.Time            `json:"delivered_at,omitempty"`
	Items           []RequestItemResponse `json:"items"`
	PurchaseIDs     []uuid.UUID           `json:"purchase_ids,omitempty"`
	Version         int                   `json:"version"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// ToMaterialRequestResponse converts a domain request to its read model
func ToMaterialRequestResponse(mr *material.MaterialRequest) MaterialRequestResponse {
	items := make([]RequestItemResponse, 0, len(mr.Items))
	for i := range mr.Items {
		item := mr.Items[i]
		items = append(items, RequestItemResponse{
			ID:                        item.ID,
			ItemCode:                  item.ItemCode,
			ItemName:                  item.ItemName,
			RequestedQuantity:         item.RequestedQuantity,
			AvailableQuantitySnapshot: item.AvailableQuantitySnapshot,
			IssuedQuantity:            item.IssuedQuantity,
			ShortfallQuantity:         item.ShortfallQuantity,
			RequestType:               string(item.RequestType),
			ItemStatus:                string(item.ItemStatus),
		})
	}

	return MaterialRequestResponse{
		ID:              mr.ID,
		RequestNumber:   mr.RequestNumber,
		RequestedBy:     mr.RequestedBy,
		Status:          mr.Status.String(),
		Notes:           mr.Notes,
		RejectionReason: mr.RejectionReason,
		ApprovedAt:      mr.ApprovedAt,
		DeliveredAt:     mr.DeliveredAt,
		Items:           items,
		Version:         mr.GetVersion(),
		CreatedAt:       mr.CreatedAt,
		UpdatedAt:       mr.UpdatedAt,
	}
}
