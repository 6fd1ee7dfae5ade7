package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/muniworks/backend/internal/interfaces/http/dto"
)

// errHandled signals that the request was already answered while
// binding inside a transition closure
var errHandled = errors.New("response already written")

// UUIDParam parses a UUID path parameter, answering 400 on failure.
// Returns false when the request has already been answered.
func UUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest,
			dto.ErrorResponse(dto.ErrCodeValidation, "Invalid "+name+" parameter"))
		return uuid.Nil, false
	}
	return id, true
}

// queryFilters copies the named query parameters into a filter map,
// skipping absent ones
func queryFilters(c *gin.Context, names ...string) map[string]interface{} {
	filters := make(map[string]interface{})
	for _, name := range names {
		if value := c.Query(name); value != "" {
			filters[name] = value
		}
	}
	return filters
}
