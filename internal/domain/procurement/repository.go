package procurement

import (
	"context"

	"github.com/google/uuid"

	"github.com/muniworks/backend/internal/domain/shared"
)

// PurchaseRequestRepository defines the interface for purchase request
// persistence
type PurchaseRequestRepository interface {
	// FindByID finds a purchase request by its ID, items included
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseRequest, error)

	// FindByNumber finds a purchase request by its human-readable number
	FindByNumber(ctx context.Context, number string) (*PurchaseRequest, error)

	// FindByMaterialRequestID finds all purchases spawned by one material
	// request
	FindByMaterialRequestID(ctx context.Context, materialRequestID uuid.UUID) ([]PurchaseRequest, error)

	// FindByStatus finds purchase requests with a specific status
	FindByStatus(ctx context.Context, status Status, filter shared.Filter) ([]PurchaseRequest, error)

	// FindAll finds purchase requests matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]PurchaseRequest, error)

	// Save creates or updates a purchase request with its items
	Save(ctx context.Context, pr *PurchaseRequest) error

	// SaveWithLock saves with optimistic locking; returns
	// shared.ErrConcurrencyConflict if the version check fails
	SaveWithLock(ctx context.Context, pr *PurchaseRequest) error

	// Count counts purchase requests matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
