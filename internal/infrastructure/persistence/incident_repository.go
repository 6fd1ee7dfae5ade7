package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/muniworks/backend/internal/domain/incident"
	"github.com/muniworks/backend/internal/domain/shared"
)

// GormIncidentRepository implements IncidentRepository using GORM
type GormIncidentRepository struct {
	db *gorm.DB
}

// NewGormIncidentRepository creates a new GormIncidentRepository
func NewGormIncidentRepository(db *gorm.DB) *GormIncidentRepository {
	return &GormIncidentRepository{db: db}
}

// FindByID finds an incident by its ID, approvals included
func (r *GormIncidentRepository) FindByID(ctx context.Context, id uuid.UUID) (*incident.Incident, error) {
	var inc incident.Incident
	if err := r.db.WithContext(ctx).
		Preload("Approvals", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&inc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &inc, nil
}

// FindByNumber finds an incident by its human-readable number
func (r *GormIncidentRepository) FindByNumber(ctx context.Context, number string) (*incident.Incident, error) {
	var inc incident.Incident
	if err := r.db.WithContext(ctx).
		Preload("Approvals", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&inc, "incident_number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &inc, nil
}

// FindByStatus finds incidents with a specific status
func (r *GormIncidentRepository) FindByStatus(ctx context.Context, status incident.Status, filter shared.Filter) ([]incident.Incident, error) {
	var incidents []incident.Incident
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&incident.Incident{}).Where("status = ?", status),
		filter,
	)

	if err := query.Find(&incidents).Error; err != nil {
		return nil, err
	}
	return incidents, nil
}

// FindAll finds incidents matching the filter
func (r *GormIncidentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]incident.Incident, error) {
	var incidents []incident.Incident
	query := r.applyFilter(r.db.WithContext(ctx).Model(&incident.Incident{}), filter)

	if err := query.Find(&incidents).Error; err != nil {
		return nil, err
	}
	return incidents, nil
}

// Save creates or updates an incident together with any newly appended
// approval records
func (r *GormIncidentRepository) Save(ctx context.Context, inc *incident.Incident) error {
	return r.db.WithContext(ctx).Save(inc).Error
}

// SaveWithLock saves with optimistic locking. The aggregate version was
// incremented by the domain mutation, so the row must still hold the
// previous version. Approval records are append-only; existing rows are
// left untouched.
func (r *GormIncidentRepository) SaveWithLock(ctx context.Context, inc *incident.Incident) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&incident.Incident{}).
			Where("id = ? AND version = ?", inc.ID, inc.Version-1).
			Updates(map[string]interface{}{
				"status":             inc.Status,
				"claim_status":       inc.ClaimStatus,
				"damage_level":       inc.DamageLevel,
				"damage_description": inc.DamageDescription,
				"safety_risk":        inc.SafetyRisk,
				"damaged_components": inc.DamagedComponents,
				"estimated_cost":     inc.EstimatedCost,
				"version":            inc.Version,
				"updated_at":         inc.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		for i := range inc.Approvals {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&inc.Approvals[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Count counts incidents matching the filter
func (r *GormIncidentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&incident.Incident{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormIncidentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, IncidentSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

func (r *GormIncidentRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("incident_number ILIKE ? OR asset_code ILIKE ? OR description ILIKE ?",
			pattern, pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "claim_status":
			query = query.Where("claim_status = ?", value)
		case "asset_code":
			query = query.Where("asset_code = ?", value)
		case "reported_by":
			query = query.Where("reported_by = ?", value)
		case "safety_risk":
			query = query.Where("safety_risk = ?", value)
		}
	}

	return query
}

var _ incident.IncidentRepository = (*GormIncidentRepository)(nil)
