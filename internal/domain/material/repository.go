package material

import (
	"context"

	"github.com/google/uuid"

	"github.com/muniworks/backend/internal/domain/shared"
)

// MaterialRequestRepository defines the interface for material request
// persistence. Line items travel with the aggregate.
type MaterialRequestRepository interface {
	// FindByID finds a material request by its ID, items included
	FindByID(ctx context.Context, id uuid.UUID) (*MaterialRequest, error)

	// FindByNumber finds a material request by its human-readable number
	FindByNumber(ctx context.Context, number string) (*MaterialRequest, error)

	// FindByStatus finds material requests with a specific status
	FindByStatus(ctx context.Context, status Status, filter shared.Filter) ([]MaterialRequest, error)

	// FindAll finds material requests matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]MaterialRequest, error)

	// Save creates or updates a material request with its items
	Save(ctx context.Context, mr *MaterialRequest) error

	// SaveWithLock saves with optimistic locking; returns
	// shared.ErrConcurrencyConflict if the version check fails
	SaveWithLock(ctx context.Context, mr *MaterialRequest) error

	// Count counts material requests matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
