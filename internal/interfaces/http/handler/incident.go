package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	incidentapp "github.com/muniworks/backend/internal/application/incident"
	"github.com/muniworks/backend/internal/domain/authz"
	"github.com/muniworks/backend/internal/domain/shared"
	"github.com/muniworks/backend/internal/interfaces/http/dto"
)

// IncidentService is the application surface the incident handler drives
type IncidentService interface {
	Submit(ctx context.Context, actor authz.Actor, req incidentapp.SubmitIncidentRequest) (*incidentapp.IncidentResponse, error)
	Inspect(ctx context.Context, actor authz.Actor, incidentID uuid.UUID, req incidentapp.InspectIncidentRequest) (*incidentapp.IncidentResponse, error)
	Review(ctx context.Context, actor authz.Actor, incidentID uuid.UUID, req incidentapp.ReviewIncidentRequest) (*incidentapp.IncidentResponse, error)
	StartRepair(ctx context.Context, actor authz.Actor, incidentID uuid.UUID, req incidentapp.RepairRequest) (*incidentapp.IncidentResponse, error)
	CompleteRepair(ctx context.Context, actor authz.Actor, incidentID uuid.UUID, req incidentapp.RepairRequest) (*incidentapp.IncidentResponse, error)
	UpdateClaimStatus(ctx context.Context, actor authz.Actor, incidentID uuid.UUID, req incidentapp.UpdateClaimStatusRequest) (*incidentapp.IncidentResponse, error)
	GetIncident(ctx context.Context, incidentID uuid.UUID) (*incidentapp.IncidentResponse, error)
	ListIncidents(ctx context.Context, filter shared.Filter) (*shared.Paginated[incidentapp.IncidentResponse], error)
}

// IncidentHandler handles incident lifecycle endpoints
type IncidentHandler struct {
	BaseHandler
	service IncidentService
}

// NewIncidentHandler creates a new incident handler
func NewIncidentHandler(service IncidentService, logger *zap.Logger) *IncidentHandler {
	return &IncidentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// RegisterRoutes registers incident routes on the given group
func (h *IncidentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	incidents := rg.Group("/incidents")
	{
		incidents.POST("", h.Submit)
		incidents.GET("", h.List)
		incidents.GET("/:id", h.Get)
		incidents.POST("/:id/inspect", h.Inspect)
		incidents.POST("/:id/review", h.Review)
		incidents.POST("/:id/start-repair", h.StartRepair)
		incidents.POST("/:id/complete-repair", h.CompleteRepair)
		incidents.POST("/:id/claim", h.UpdateClaimStatus)
	}
}

// Submit reports a new incident
func (h *IncidentHandler) Submit(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req incidentapp.SubmitIncidentRequest
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

// Inspect records inspection findings on a submitted incident
func (h *IncidentHandler) Inspect(c *gin.Context) {
	h.transition(c, func(ctx context.Context, actor authz.Actor, id uuid.UUID) (*incidentapp.IncidentResponse, error) {
		var req incidentapp.InspectIncidentRequest
		if !h.BindJSON(c, &req) {
			return nil, errHandled
		}
		return h.service.Inspect(ctx, actor, id, req)
	})
}

// Review applies a review-tier decision
func (h *IncidentHandler) Review(c *gin.Context) {
	h.transition(c, func(ctx context.Context, actor authz.Actor, id uuid.UUID) (*incidentapp.IncidentResponse, error) {
		var req incidentapp.ReviewIncidentRequest
		if !h.BindJSON(c, &req) {
			return nil, errHandled
		}
		return h.service.Review(ctx, actor, id, req)
	})
}

// StartRepair moves an approved incident into repair
func (h *IncidentHandler) StartRepair(c *gin.Context) {
	h.transition(c, func(ctx context.Context, actor authz.Actor, id uuid.UUID) (*incidentapp.IncidentResponse, error) {
		var req incidentapp.RepairRequest
		if !h.BindJSON(c, &req) {
			return nil, errHandled
		}
		return h.service.StartRepair(ctx, actor, id, req)
	})
}

// CompleteRepair finishes an in-progress repair
func (h *IncidentHandler) CompleteRepair(c *gin.Context) {
	h.transition(c, func(ctx context.Context, actor authz.Actor, id uuid.UUID) (*incidentapp.IncidentResponse, error) {
		var req incidentapp.RepairRequest
		if !h.BindJSON(c, &req) {
			return nil, errHandled
		}
		return h.service.CompleteRepair(ctx, actor, id, req)
	})
}

// UpdateClaimStatus advances the insurance claim axis
func (h *IncidentHandler) UpdateClaimStatus(c *gin.Context) {
	h.transition(c, func(ctx context.Context, actor authz.Actor, id uuid.UUID) (*incidentapp.IncidentResponse, error) {
		var req incidentapp.UpdateClaimStatusRequest
		if !h.BindJSON(c, &req) {
			return nil, errHandled
		}
		return h.service.UpdateClaimStatus(ctx, actor, id, req)
	})
}

// Get returns one incident with its audit trail
func (h *IncidentHandler) Get(c *gin.Context) {
	id, ok := UUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.GetIncident(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns incidents matching the query
func (h *IncidentHandler) List(c *gin.Context) {
	var listReq dto.ListRequest
	if !h.BindQuery(c, &listReq) {
		return
	}

	filter := listReq.ToFilter()
	filter.Filters = queryFilters(c, "status", "claim_status", "asset_code", "reported_by", "safety_risk")

	result, err := h.service.ListIncidents(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, dto.MetaFromPaginated(result))
}

func (h *IncidentHandler) transition(c *gin.Context,
	apply func(context.Context, authz.Actor, uuid.UUID) (*incidentapp.IncidentResponse, error)) {

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
		if err != errHandled {
			h.HandleError(c, err)
		}
		return
	}
	h.Success(c, resp)
}
