package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/muniworks/backend/internal/domain/procurement"
	"github.com/muniworks/backend/internal/domain/shared"
)

// GormPurchaseRequestRepository implements PurchaseRequestRepository using GORM
type GormPurchaseRequestRepository struct {
	db *gorm.DB
}

// NewGormPurchaseRequestRepository creates a new GormPurchaseRequestRepository
func NewGormPurchaseRequestRepository(db *gorm.DB) *GormPurchaseRequestRepository {
	return &GormPurchaseRequestRepository{db: db}
}

// FindByID finds a purchase request by its ID, items included
func (r *GormPurchaseRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.PurchaseRequest, error) {
	var pr procurement.PurchaseRequest
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&pr, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &pr, nil
}

// FindByNumber finds a purchase request by its human-readable number
func (r *GormPurchaseRequestRepository) FindByNumber(ctx context.Context, number string) (*procurement.PurchaseRequest, error) {
	var pr procurement.PurchaseRequest
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&pr, "request_number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &pr, nil
}

// FindByMaterialRequestID finds all purchases spawned by one material request
func (r *GormPurchaseRequestRepository) FindByMaterialRequestID(ctx context.Context, materialRequestID uuid.UUID) ([]procurement.PurchaseRequest, error) {
	var requests []procurement.PurchaseRequest
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("material_request_id = ?", materialRequestID).
		Order("created_at ASC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// FindByStatus finds purchase requests with a specific status
func (r *GormPurchaseRequestRepository) FindByStatus(ctx context.Context, status procurement.Status, filter shared.Filter) ([]procurement.PurchaseRequest, error) {
	var requests []procurement.PurchaseRequest
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&procurement.PurchaseRequest{}).
			Preload("Items").
			Where("status = ?", status),
		filter,
	)

	if err := query.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// FindAll finds purchase requests matching the filter
func (r *GormPurchaseRequestRepository) FindAll(ctx context.Context, filter shared.Filter) ([]procurement.PurchaseRequest, error) {
	var requests []procurement.PurchaseRequest
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&procurement.PurchaseRequest{}).Preload("Items"),
		filter,
	)

	if err := query.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// Save creates or updates a purchase request with its items
func (r *GormPurchaseRequestRepository) Save(ctx context.Context, pr *procurement.PurchaseRequest) error {
	return r.db.WithContext(ctx).Save(pr).Error
}

// SaveWithLock saves with optimistic locking. Items are written in the same
// database transaction as the version-checked parent update because approval
// freezes unit costs into the lines.
func (r *GormPurchaseRequestRepository) SaveWithLock(ctx context.Context, pr *procurement.PurchaseRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&procurement.PurchaseRequest{}).
			Where("id = ? AND version = ?", pr.ID, pr.Version-1).
			Updates(map[string]interface{}{
				"status":           pr.Status,
				"rejection_reason": pr.RejectionReason,
				"total_cost":       pr.TotalCost,
				"approved_by":      pr.ApprovedBy,
				"approved_at":      pr.ApprovedAt,
				"ordered_at":       pr.OrderedAt,
				"arrived_at":       pr.ArrivedAt,
				"delivered_at":     pr.DeliveredAt,
				"version":          pr.Version,
				"updated_at":       pr.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		for i := range pr.Items {
			if err := tx.Save(&pr.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Count counts purchase requests matching the filter
func (r *GormPurchaseRequestRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&procurement.PurchaseRequest{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormPurchaseRequestRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, PurchaseRequestSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

func (r *GormPurchaseRequestRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
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
		case "material_request_id":
			query = query.Where("material_request_id = ?", value)
		}
	}

	return query
}

var _ procurement.PurchaseRequestRepository = (*GormPurchaseRequestRepository)(nil)
