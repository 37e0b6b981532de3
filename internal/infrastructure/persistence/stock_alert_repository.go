package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/alert"
	"github.com/mrp/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// StockAlertSortFields contains allowed sort fields for stock alerts
var StockAlertSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"material_id":    true,
	"severity":       true,
	"status":         true,
	"stock_quantity": true,
	"detected_at":    true,
}

// severityRankOrder sorts out_of_stock before critical before low.
const severityRankOrder = "CASE severity WHEN 'out_of_stock' THEN 0 WHEN 'critical' THEN 1 ELSE 2 END ASC"

// actionableStatuses are the statuses an operator still has to act on.
var actionableStatuses = []alert.AlertStatus{alert.AlertStatusPending, alert.AlertStatusAcknowledged}

// GormStockAlertRepository implements StockAlertRepository using GORM
type GormStockAlertRepository struct {
	db *gorm.DB
}

// NewGormStockAlertRepository creates a new GormStockAlertRepository
func NewGormStockAlertRepository(db *gorm.DB) *GormStockAlertRepository {
	return &GormStockAlertRepository{db: db}
}

// FindByIDForTenant finds an alert by ID within a tenant
func (r *GormStockAlertRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*alert.StockAlert, error) {
	var stockAlert alert.StockAlert
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&stockAlert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &stockAlert, nil
}

// FindActionableByMaterial finds the pending or acknowledged alert for a
// material. At most one alert per material is ever actionable; detection
// refreshes the open one instead of inserting a second.
func (r *GormStockAlertRepository) FindActionableByMaterial(ctx context.Context, tenantID, materialID uuid.UUID) (*alert.StockAlert, error) {
	var stockAlert alert.StockAlert
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND material_id = ? AND status IN ?", tenantID, materialID, actionableStatuses).
		Order("detected_at DESC").
		First(&stockAlert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &stockAlert, nil
}

// FindActionable finds every pending or acknowledged alert of a tenant, most
// urgent severity first. The filter order breaks ties within a severity.
func (r *GormStockAlertRepository) FindActionable(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]alert.StockAlert, error) {
	var alerts []alert.StockAlert
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&alert.StockAlert{}).
			Where("tenant_id = ? AND status IN ?", tenantID, actionableStatuses),
		filter,
	)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	query = query.Order(severityRankOrder)
	if sortField := ValidateSortField(filter.OrderBy, StockAlertSortFields, ""); sortField != "" {
		query = query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("detected_at DESC")
	}

	if err := query.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// FindAllForTenant finds alerts for a tenant
func (r *GormStockAlertRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]alert.StockAlert, error) {
	var alerts []alert.StockAlert
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&alert.StockAlert{}).
			Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// CountActionableBySeverity counts actionable alerts grouped by severity.
// Severities without alerts are absent from the map.
func (r *GormStockAlertRepository) CountActionableBySeverity(ctx context.Context, tenantID uuid.UUID) (map[alert.Severity]int64, error) {
	var rows []struct {
		Severity alert.Severity
		Count    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&alert.StockAlert{}).
		Select("severity, COUNT(*) as count").
		Where("tenant_id = ? AND status IN ?", tenantID, actionableStatuses).
		Group("severity").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[alert.Severity]int64, len(rows))
	for _, row := range rows {
		counts[row.Severity] = row.Count
	}
	return counts, nil
}

// Save creates or updates an alert
func (r *GormStockAlertRepository) Save(ctx context.Context, stockAlert *alert.StockAlert) error {
	return r.db.WithContext(ctx).Save(stockAlert).Error
}

// CountForTenant counts alerts for a tenant
func (r *GormStockAlertRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&alert.StockAlert{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormStockAlertRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering with whitelist validation to prevent SQL injection
	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, StockAlertSortFields, "")
		if sortField != "" {
			query = query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))
			return query
		}
	}
	return query.Order("detected_at DESC")
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormStockAlertRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "material_id":
			query = query.Where("material_id = ?", value)
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "severity":
			query = query.Where("severity = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		}
	}

	return query
}

// Ensure GormStockAlertRepository implements StockAlertRepository
var _ alert.StockAlertRepository = (*GormStockAlertRepository)(nil)
