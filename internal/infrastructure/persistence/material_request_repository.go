package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/muniworks/backend/internal/domain/material"
	"github.com/muniworks/backend/internal/domain/shared"
)

// GormMaterialRequestRepository implements MaterialRequestRepository using GORM
type GormMaterialRequestRepository struct {
	db *gorm.DB
}

// NewGormMaterialRequestRepository creates a new GormMaterialRequestRepository
func NewGormMaterialRequestRepository(db *gorm.DB) *GormMaterialRequestRepository {
	return &GormMaterialRequestRepository{db: db}
}

// FindByID finds a material request by its ID, items included
func (r *GormMaterialRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*material.MaterialRequest, error) {
	var mr material.MaterialRequest
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&mr, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &mr, nil
}

// FindByNumber finds a material request by its human-readable number
func (r *GormMaterialRequestRepository) FindByNumber(ctx context.Context, number string) (*material.MaterialRequest, error) {
	var mr material.MaterialRequest
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&mr, "request_number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &mr, nil
}

// FindByStatus finds material requests with a specific status
func (r *GormMaterialRequestRepository) FindByStatus(ctx context.Context, status material.Status, filter shared.Filter) ([]material.MaterialRequest, error) {
	var requests []material.MaterialRequest
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&material.MaterialRequest{}).
			Preload("Items").
			Where("status = ?", status),
		filter,
	)

	if err := query.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// FindAll finds material requests matching the filter
func (r *GormMaterialRequestRepository) FindAll(ctx context.Context, filter shared.Filter) ([]material.MaterialRequest, error) {
	var requests []material.MaterialRequest
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&material.MaterialRequest{}).Preload("Items"),
		filter,
	)

	if err := query.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// Save creates or updates a material request with its items
func (r *GormMaterialRequestRepository) Save(ctx context.Context, mr *material.MaterialRequest) error {
	return r.db.WithContext(ctx).Save(mr).Error
}

// SaveWithLock saves with optimistic locking. Line items are written in the
// same database transaction as the version-checked parent update, so a lost
// fulfillment race cannot leave half-settled lines behind.
func (r *GormMaterialRequestRepository) SaveWithLock(ctx context.Context, mr *material.MaterialRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&material.MaterialRequest{}).
			Where("id = ? AND version = ?", mr.ID, mr.Version-1).
			Updates(map[string]interface{}{
				"status":           mr.Status,
				"notes":            mr.Notes,
				"rejection_reason": mr.RejectionReason,
				"approved_by":      mr.ApprovedBy,
				"approved_at":      mr.ApprovedAt,
				"delivered_at":     mr.DeliveredAt,
				"version":          mr.Version,
				"updated_at":       mr.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		for i := range mr.Items {
			if err := tx.Save(&mr.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Count counts material requests matching the filter
func (r *GormMaterialRequestRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&material.MaterialRequest{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormMaterialRequestRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, MaterialRequestSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

func (r *GormMaterialRequestRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("request_number ILIKE ?", pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "requested_by":
			query = query.Where("requested_by = ?", value)
		}
	}

	return query
}

var _ material.MaterialRequestRepository = (*GormMaterialRequestRepository)(nil)
