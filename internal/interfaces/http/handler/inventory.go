package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	inventoryapp "github.com/muniworks/backend/internal/application/inventory"
	"github.com/muniworks/backend/internal/domain/authz"
	"github.com/muniworks/backend/internal/domain/shared"
	"github.com/muniworks/backend/internal/interfaces/http/dto"
)

// InventoryService is the application surface the inventory handler drives
type InventoryService interface {
	CreateItem(ctx context.Context, actor authz.Actor, req inventoryapp.CreateItemRequest) (*inventoryapp.ItemResponse, error)
	UpdateItem(ctx context.Context, actor authz.Actor, code string, req inventoryapp.UpdateItemRequest) (*inventoryapp.ItemResponse, error)
	ReceiveStock(ctx context.Context, actor authz.Actor, req inventoryapp.ReceiveStockRequest) (*inventoryapp.StockMovementResponse, error)
	IssueStock(ctx context.Context, actor authz.Actor, req inventoryapp.IssueStockRequest) (*inventoryapp.StockMovementResponse, error)
	AdjustStock(ctx context.Context, actor authz.Actor, req inventoryapp.AdjustStockRequest) (*inventoryapp.StockMovementResponse, error)
	GetItemByCode(ctx context.Context, code string) (*inventoryapp.ItemDetailResponse, error)
	ListItems(ctx context.Context, filter shared.Filter) (*shared.Paginated[inventoryapp.ItemResponse], error)
	ListBelowMinimum(ctx context.Context, filter shared.Filter) ([]inventoryapp.ItemResponse, error)
}

// InventoryHandler handles inventory ledger endpoints
type InventoryHandler struct {
	BaseHandler
	service InventoryService
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(service InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// RegisterRoutes registers inventory routes on the given group
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	inventory := rg.Group("/inventory")
	{
		inventory.POST("/items", h.CreateItem)
		inventory.GET("/items", h.ListItems)
		inventory.GET("/items/below-minimum", h.ListBelowMinimum)
		inventory.GET("/items/:code", h.GetItem)
		inventory.PUT("/items/:code", h.UpdateItem)
		inventory.POST("/receive", h.Receive)
		inventory.POST("/issue", h.Issue)
		inventory.POST("/adjust", h.Adjust)
	}
}

// CreateItem registers a new inventory item
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req inventoryapp.CreateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.CreateItem(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// UpdateItem updates item settings; stock is only moved by ledger commands
func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req inventoryapp.UpdateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.UpdateItem(c.Request.Context(), actor, c.Param("code"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Receive records a manual stock receipt
func (h *InventoryHandler) Receive(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req inventoryapp.ReceiveStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.ReceiveStock(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Issue records a manual stock issue
func (h *InventoryHandler) Issue(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req inventoryapp.IssueStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.IssueStock(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Adjust records a stock-taking correction
func (h *InventoryHandler) Adjust(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req inventoryapp.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.AdjustStock(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetItem returns one item with its append-only ledger
func (h *InventoryHandler) GetItem(c *gin.Context) {
	resp, err := h.service.GetItemByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListItems returns inventory items matching the query
func (h *InventoryHandler) ListItems(c *gin.Context) {
	var listReq dto.ListRequest
	if !h.BindQuery(c, &listReq) {
		return
	}

	filter := listReq.ToFilter()
	filter.Filters = queryFilters(c, "unit", "below_minimum", "has_stock", "no_stock")

	result, err := h.service.ListItems(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, dto.MetaFromPaginated(result))
}

// ListBelowMinimum returns items whose stock fell under the threshold
func (h *InventoryHandler) ListBelowMinimum(c *gin.Context) {
	var listReq dto.ListRequest
	if !h.BindQuery(c, &listReq) {
		return
	}

	items, err := h.service.ListBelowMinimum(c.Request.Context(), listReq.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}
