package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	procurementapp "github.com/muniworks/backend/internal/application/procurement"
	"github.com/muniworks/backend/internal/domain/authz"
	"github.com/muniworks/backend/internal/domain/shared"
	"github.com/muniworks/backend/internal/interfaces/http/dto"
)

// PurchaseService is the application surface the purchase handler drives
type PurchaseService interface {
	Submit(ctx context.Context, actor authz.Actor, req procurementapp.SubmitPurchaseRequest) (*procurementapp.PurchaseResponse, error)
	Approve(ctx context.Context, actor authz.Actor, purchaseID uuid.UUID) (*procurementapp.PurchaseResponse, error)
	Reject(ctx context.Context, actor authz.Actor, purchaseID uuid.UUID, req procurementapp.RejectPurchaseRequest) (*procurementapp.PurchaseResponse, error)
	Order(ctx context.Context, actor authz.Actor, purchaseID uuid.UUID) (*procurementapp.PurchaseResponse, error)
	MarkArrived(ctx context.Context, actor authz.Actor, purchaseID uuid.UUID) (*procurementapp.PurchaseResponse, error)
	Deliver(ctx context.Context, actor authz.Actor, purchaseID uuid.UUID) (*procurementapp.PurchaseResponse, error)
	GetPurchase(ctx context.Context, purchaseID uuid.UUID) (*procurementapp.PurchaseResponse, error)
	ListPurchases(ctx context.Context, filter shared.Filter) (*shared.Paginated[procurementapp.PurchaseResponse], error)
}

// PurchaseHandler handles purchase pipeline endpoints
type PurchaseHandler struct {
	BaseHandler
	service PurchaseService
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(service PurchaseService, logger *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// RegisterRoutes registers purchase routes on the given group
func (h *PurchaseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	purchases := rg.Group("/purchases")
	{
		purchases.POST("", h.Submit)
		purchases.GET("", h.List)
		purchases.GET("/:id", h.Get)
		purchases.POST("/:id/approve", h.Approve)
		purchases.POST("/:id/reject", h.Reject)
		purchases.POST("/:id/order", h.Order)
		purchases.POST("/:id/arrive", h.MarkArrived)
		purchases.POST("/:id/deliver", h.Deliver)
	}
}

// Submit files a standalone restocking purchase
func (h *PurchaseHandler) Submit(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req procurementapp.SubmitPurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.Submit(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Approve approves a pending purchase, freezing line costs
func (h *PurchaseHandler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

// Reject rejects a pending purchase with a reason
func (h *PurchaseHandler) Reject(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := UUIDParam(c, "id")
	if !ok {
		return
	}

	var req procurementapp.RejectPurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.Reject(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Order marks an approved purchase as placed with the supplier
func (h *PurchaseHandler) Order(c *gin.Context) {
	h.transition(c, h.service.Order)
}

// MarkArrived books arrived goods into the inventory ledger
func (h *PurchaseHandler) MarkArrived(c *gin.Context) {
	h.transition(c, h.service.MarkArrived)
}

// Deliver hands the arrived goods over to the requester
func (h *PurchaseHandler) Deliver(c *gin.Context) {
	h.transition(c, h.service.Deliver)
}

// Get returns one purchase with its lines
func (h *PurchaseHandler) Get(c *gin.Context) {
	id, ok := UUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.GetPurchase(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns purchases matching the query
func (h *PurchaseHandler) List(c *gin.Context) {
	var listReq dto.ListRequest
	if !h.BindQuery(c, &listReq) {
		return
	}

	filter := listReq.ToFilter()
	filter.Filters = queryFilters(c, "status", "requested_by", "material_request_id")

	result, err := h.service.ListPurchases(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, dto.MetaFromPaginated(result))
}

func (h *PurchaseHandler) transition(c *gin.Context,
	apply func(context.Context, authz.Actor, uuid.UUID) (*procurementapp.PurchaseResponse, error)) {

	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := UUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := apply(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
