package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/inventory"
	"github.com/mrp/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaterialSortFields contains allowed sort fields for materials
var MaterialSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"sku":            true,
	"name":           true,
	"unit":           true,
	"stock_quantity": true,
	"reorder_level":  true,
	"unit_cost":      true,
	"lifecycle":      true,
}

// GormMaterialRepository implements MaterialRepository using GORM
type GormMaterialRepository struct {
	db *gorm.DB
}

// NewGormMaterialRepository creates a new GormMaterialRepository
func NewGormMaterialRepository(db *gorm.DB) *GormMaterialRepository {
	return &GormMaterialRepository{db: db}
}

// FindByID finds a material by its ID
func (r *GormMaterialRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Material, error) {
	var material inventory.Material
	if err := r.db.WithContext(ctx).First(&material, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &material, nil
}

// FindByIDForTenant finds a material by ID within a tenant
func (r *GormMaterialRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Material, error) {
	var material inventory.Material
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&material).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &material, nil
}

// FindByIDForTenantLocked finds a material by ID and takes a row lock
// (SELECT ... FOR UPDATE). Only meaningful inside a transaction scope: the
// lock is held until that transaction commits or rolls back.
func (r *GormMaterialRepository) FindByIDForTenantLocked(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Material, error) {
	var material inventory.Material
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&material).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &material, nil
}

// FindBySKU finds a material by its SKU within a tenant
func (r *GormMaterialRepository) FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*inventory.Material, error) {
	var material inventory.Material
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sku = ?", tenantID, strings.ToUpper(sku)).
		First(&material).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &material, nil
}

// FindAllForTenant finds all materials for a tenant
func (r *GormMaterialRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.Material, error) {
	var materials []inventory.Material
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inventory.Material{}).
			Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

// FindActive finds all active materials for a tenant
func (r *GormMaterialRepository) FindActive(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.Material, error) {
	var materials []inventory.Material
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inventory.Material{}).
			Where("tenant_id = ? AND lifecycle = ?", tenantID, shared.LifecycleActive),
		filter,
	)

	if err := query.Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

// FindByIDs finds multiple materials by their IDs
func (r *GormMaterialRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]inventory.Material, error) {
	if len(ids) == 0 {
		return []inventory.Material{}, nil
	}

	var materials []inventory.Material
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

// FindBelowReorderLevel finds active materials whose stock is under their
// reorder level
func (r *GormMaterialRepository) FindBelowReorderLevel(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.Material, error) {
	var materials []inventory.Material
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inventory.Material{}).
			Where("tenant_id = ? AND lifecycle = ? AND stock_quantity < reorder_level",
				tenantID, shared.LifecycleActive),
		filter,
	)

	if err := query.Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

// ListTenantIDs returns the distinct tenants that own materials
func (r *GormMaterialRepository) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&inventory.Material{}).
		Distinct("tenant_id").
		Order("tenant_id ASC").
		Pluck("tenant_id", &tenantIDs).Error; err != nil {
		return nil, err
	}
	return tenantIDs, nil
}

// Save creates or updates a material
func (r *GormMaterialRepository) Save(ctx context.Context, material *inventory.Material) error {
	return r.db.WithContext(ctx).Save(material).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormMaterialRepository) SaveWithLock(ctx context.Context, material *inventory.Material) error {
	result := r.db.WithContext(ctx).
		Model(material).
		Where("id = ? AND version = ?", material.ID, material.Version-1).
		Updates(map[string]interface{}{
			"name":           material.Name,
			"description":    material.Description,
			"unit":           material.Unit,
			"stock_quantity": material.StockQuantity,
			"reorder_level":  material.ReorderLevel,
			"unit_cost":      material.UnitCost,
			"lifecycle":      material.Lifecycle,
			"version":        material.Version,
			"updated_at":     material.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// CountForTenant counts materials for a tenant
func (r *GormMaterialRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&inventory.Material{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsBySKU checks if a material with the given SKU exists in the tenant
func (r *GormMaterialRepository) ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.Material{}).
		Where("tenant_id = ? AND sku = ?", tenantID, strings.ToUpper(sku)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter options to the query
func (r *GormMaterialRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering with whitelist validation to prevent SQL injection
	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, MaterialSortFields, "")
		if sortField != "" {
			query = query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))
			return query
		}
	}
	return query.Order("sku ASC")
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormMaterialRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	// Apply search (searches SKU and name)
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("sku ILIKE ? OR name ILIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "unit":
			query = query.Where("unit = ?", value)
		case "lifecycle":
			query = query.Where("lifecycle = ?", value)
		case "below_reorder_level":
			if below, ok := value.(bool); ok && below {
				query = query.Where("stock_quantity < reorder_level")
			}
		}
	}

	return query
}

// Ensure GormMaterialRepository implements MaterialRepository
var _ inventory.MaterialRepository = (*GormMaterialRepository)(nil)
