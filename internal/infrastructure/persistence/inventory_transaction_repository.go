package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/inventory"
	"github.com/mrp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionSortFields contains allowed sort fields for ledger entries
var TransactionSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"transaction_date": true,
	"transaction_type": true,
	"material_id":      true,
	"quantity_change":  true,
	"reference_type":   true,
}

// GormInventoryTransactionRepository implements the append-only ledger using
// GORM. Entries are only ever inserted; there is no update or delete path.
type GormInventoryTransactionRepository struct {
	db *gorm.DB
}

// NewGormInventoryTransactionRepository creates a new GormInventoryTransactionRepository
func NewGormInventoryTransactionRepository(db *gorm.DB) *GormInventoryTransactionRepository {
	return &GormInventoryTransactionRepository{db: db}
}

// Create inserts a new ledger entry
func (r *GormInventoryTransactionRepository) Create(ctx context.Context, transaction *inventory.InventoryTransaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

// FindByIDForTenant finds a ledger entry by ID within a tenant
func (r *GormInventoryTransactionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.InventoryTransaction, error) {
	var tx inventory.InventoryTransaction
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// FindByMaterial finds ledger entries for a material, newest first
func (r *GormInventoryTransactionRepository) FindByMaterial(ctx context.Context, tenantID, materialID uuid.UUID, filter shared.Filter) ([]inventory.InventoryTransaction, error) {
	var txs []inventory.InventoryTransaction
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inventory.InventoryTransaction{}).
			Where("tenant_id = ? AND material_id = ?", tenantID, materialID),
		filter,
	)

	if err := query.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// FindAllForTenant finds ledger entries for a tenant, newest first
func (r *GormInventoryTransactionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.InventoryTransaction, error) {
	var txs []inventory.InventoryTransaction
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inventory.InventoryTransaction{}).
			Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// CountByMaterial counts ledger entries for a material
func (r *GormInventoryTransactionRepository) CountByMaterial(ctx context.Context, tenantID, materialID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.InventoryTransaction{}).
		Where("tenant_id = ? AND material_id = ?", tenantID, materialID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountForTenant counts ledger entries for a tenant
func (r *GormInventoryTransactionRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&inventory.InventoryTransaction{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumDeductionsByMaterial returns the total deducted quantity per material
// since the given time. Deductions carry negative quantity changes, so the
// sum is negated into a positive consumption magnitude.
func (r *GormInventoryTransactionRepository) SumDeductionsByMaterial(ctx context.Context, tenantID uuid.UUID, since time.Time) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []struct {
		MaterialID uuid.UUID
		Total      decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&inventory.InventoryTransaction{}).
		Select("material_id, COALESCE(SUM(-quantity_change), 0) as total").
		Where("tenant_id = ? AND transaction_type = ? AND transaction_date >= ?",
			tenantID, inventory.TransactionTypeDeduction, since).
		Group("material_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		totals[row.MaterialID] = row.Total
	}
	return totals, nil
}

// applyFilter applies filter options to the query
func (r *GormInventoryTransactionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering with whitelist validation to prevent SQL injection
	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, TransactionSortFields, "")
		if sortField != "" {
			query = query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))
			return query
		}
	}
	return query.Order("transaction_date DESC")
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormInventoryTransactionRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "material_id":
			query = query.Where("material_id = ?", value)
		case "transaction_type":
			query = query.Where("transaction_type = ?", value)
		case "reference_type":
			query = query.Where("reference_type = ?", value)
		case "reference_id":
			query = query.Where("reference_id = ?", value)
		case "operator_id":
			query = query.Where("operator_id = ?", value)
		case "start_date":
			query = query.Where("transaction_date >= ?", value)
		case "end_date":
			query = query.Where("transaction_date <= ?", value)
		}
	}

	return query
}

// Ensure GormInventoryTransactionRepository implements InventoryTransactionRepository
var _ inventory.InventoryTransactionRepository = (*GormInventoryTransactionRepository)(nil)
