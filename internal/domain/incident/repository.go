package incident

import (
	"context"

	"github.com/google/uuid"

	"github.com/muniworks/backend/internal/domain/shared"
)

// IncidentRepository defines the interface for incident persistence.
// Approval records are children of the aggregate and are appended when the
// aggregate is saved; they are never updated or deleted.
type IncidentRepository interface {
	// FindByID finds an incident by its ID, approvals included
	FindByID(ctx context.Context, id uuid.UUID) (*Incident, error)

	// FindByNumber finds an incident by its human-readable number
	FindByNumber(ctx context.Context, number string) (*Incident, error)

	// FindByStatus finds incidents with a specific status
	FindByStatus(ctx context.Context, status Status, filter shared.Filter) ([]Incident, error)

	// FindAll finds incidents matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Incident, error)

	// Save creates or updates an incident together with any newly appended
	// approval records
	Save(ctx context.Context, inc *Incident) error

	// SaveWithLock saves with optimistic locking; returns
	// shared.ErrConcurrencyConflict if the version check fails
	SaveWithLock(ctx context.Context, inc *Incident) error

	// Count counts incidents matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
