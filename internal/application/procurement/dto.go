package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/muniworks/backend/internal/domain/procurement"
)

// PurchaseLineRequest is one submitted purchase line
type PurchaseLineRequest struct {
	ItemCode string          `json:"item_code" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// SubmitPurchaseRequest is the payload for a standalone restocking purchase
type SubmitPurchaseRequest struct {
	Items []PurchaseLineRequest `json:"items" binding:"required,min=1"`
}

// RejectPurchaseRequest is the payload for rejecting a purchase
type RejectPurchaseRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// PurchaseItemResponse is the read model of one purchase line
type PurchaseItemResponse struct {
	ID       uuid.UUID       `json:"id"`
	ItemCode string          `json:"item_code"`
	ItemName string          `json:"item_name"`
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	LineCost decimal.Decimal `json:"line_cost"`
}

// PurchaseResponse is the read model of a purchase request
type PurchaseResponse struct {
	ID                uuid.UUID              `json:"id"`
	RequestNumber     string                 `json:"request_number"`
	MaterialRequestID *uuid.UUID             `json:"material_request_id,omitempty"`
	RequestedBy       uuid.UUID              `json:"requested_by"`
	Status            string                 `json:"status"`
	RejectionReason   string                 `json:"rejection_reason,omitempty"`
	TotalCost         decimal.Decimal        `json:"total_cost"`
	ApprovedAt        *time.Time             `json:"approved_at,omitempty"`
	OrderedAt         *time.Time             `json:"ordered_at,omitempty"`
	ArrivedAt         *time.Time             `json:"arrived_at,omitempty"`
	DeliveredAt       *time.Time             `json:"delivered_at,omitempty"`
	Items             []PurchaseItemResponse `json:"items"`
	Version           int                    `json:"version"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// ToPurchaseResponse converts a domain purchase request to its read model
func ToPurchaseResponse(pr *procurement.PurchaseRequest) PurchaseResponse {
	items := make([]PurchaseItemResponse, 0, len(pr.Items))
	for i := range pr.Items {
		item := pr.Items[i]
		items = append(items, PurchaseItemResponse{
			ID:       item.ID,
			ItemCode: item.ItemCode,
			ItemName: item.ItemName,
			Quantity: item.Quantity,
			UnitCost: item.UnitCost,
			LineCost: item.LineCost(),
		})
	}

	return PurchaseResponse{
		ID:                pr.ID,
		RequestNumber:     pr.RequestNumber,
		MaterialRequestID: pr.MaterialRequestID,
		RequestedBy:       pr.RequestedBy,
		Status:            pr.Status.String(),
		RejectionReason:   pr.RejectionReason,
		TotalCost:         pr.TotalCost,
		ApprovedAt:        pr.ApprovedAt,
		OrderedAt:         pr.OrderedAt,
		ArrivedAt:         pr.ArrivedAt,
		DeliveredAt:       pr.DeliveredAt,
		Items:             items,
		Version:           pr.GetVersion(),
		CreatedAt:         pr.CreatedAt,
		UpdatedAt:         pr.UpdatedAt,
	}
}
