package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	materialapp "github.com/muniworks/backend/internal/application/material"
	procurementapp "github.com/muniworks/backend/internal/application/procurement"
	"github.com/muniworks/backend/internal/domain/authz"
	"github.com/muniworks/backend/internal/domain/shared"
	"github.com/muniworks/backend/internal/interfaces/http/dto"
)

// FulfillmentService is the application surface the material handler drives
type FulfillmentService interface {
	Submit(ctx context.Context, actor authz.Actor, req materialapp.SubmitMaterialRequest) (*materialapp.MaterialRequestResponse, error)
	Approve(ctx context.Context, actor authz.Actor, requestID uuid.UUID) (*materialapp.MaterialRequestResponse, error)
	Reject(ctx context.Context, actor authz.Actor, requestID uuid.UUID, req materialapp.RejectMaterialRequest) (*materialapp.MaterialRequestResponse, error)
	Receive(ctx context.Context, actor authz.Actor, requestID uuid.UUID, req materialapp.ReceiveMaterialRequest) (*materialapp.MaterialRequestResponse, error)
	GetRequest(ctx context.Context, requestID uuid.UUID) (*materialapp.MaterialRequestResponse, error)
	ListRequests(ctx context.Context, filter shared.Filter) (*shared.Paginated[materialapp.MaterialRequestResponse], error)
}

// PurchaseLister lists purchases spawned by a material request
type PurchaseLister interface {
	ListByMaterialRequest(ctx context.Context, materialRequestID uuid.UUID) ([]procurementapp.PurchaseResponse, error)
}

// MaterialHandler handles material request endpoints
type MaterialHandler struct {
	BaseHandler
	service   FulfillmentService
	purchases PurchaseLister
}

// NewMaterialHandler creates a new material request handler
func NewMaterialHandler(service FulfillmentService, purchases PurchaseLister, logger *zap.Logger) *MaterialHandler {
	return &MaterialHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		purchases:   purchases,
	}
}

// RegisterRoutes registers material request routes on the given group
func (h *MaterialHandler) RegisterRoutes(rg *gin.RouterGroup) {
	requests := rg.Group("/material-requests")
	{
		requests.POST("", h.Submit)
		requests.GET("", h.List)
		requests.GET("/:id", h.Get)
		requests.GET("/:id/purchases", h.ListPurchases)
		requests.POST("/:id/approve", h.Approve)
		requests.POST("/:id/reject", h.Reject)
		requests.POST("/:id/deliveries", h.Receive)
	}
}

// Submit files a new material request
func (h *MaterialHandler) Submit(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req materialapp.SubmitMaterialRequest
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

// Approve approves a pending request, issuing stock and spawning
// purchases for the shortfall
func (h *MaterialHandler) Approve(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := UUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.Approve(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reject rejects a pending request with a reason
func (h *MaterialHandler) Reject(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := UUIDParam(c, "id")
	if !ok {
		return
	}

	var req materialapp.RejectMaterialRequest
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

// Receive confirms delivery of the requested materials
func (h *MaterialHandler) Receive(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := UUIDParam(c, "id")
	if !ok {
		return
	}

	var req materialapp.ReceiveMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.Receive(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get returns one material request with its lines
func (h *MaterialHandler) Get(c *gin.Context) {
	id, ok := UUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.GetRequest(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListPurchases returns the purchases spawned by one material request
func (h *MaterialHandler) ListPurchases(c *gin.Context) {
	id, ok := UUIDParam(c, "id")
	if !ok {
		return
	}

	purchases, err := h.purchases.ListByMaterialRequest(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, purchases)
}

// List returns material requests matching the query
func (h *MaterialHandler) List(c *gin.Context) {
	var listReq dto.ListRequest
	if !h.BindQuery(c, &listReq) {
		return
	}

	filter := listReq.ToFilter()
	filter.Filters = queryFilters(c, "status", "requested_by")

	result, err := h.service.ListRequests(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, dto.MetaFromPaginated(result))
}
