// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockMetricsProvider implements StockMetricsProvider using GORM.
// It queries the materials table directly for aggregated stock health counts.
type GormStockMetricsProvider struct {
	db *gorm.DB
}

// NewGormStockMetricsProvider creates a new GormStockMetricsProvider.
func NewGormStockMetricsProvider(db *gorm.DB) *GormStockMetricsProvider {
	return &GormStockMetricsProvider{db: db}
}

// GetLowStockCount returns the number of active materials that still have
// stock but sit under their reorder level for a tenant.
func (p *GormStockMetricsProvider) GetLowStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("materials").
		Where("tenant_id = ? AND lifecycle = ?", tenantID, "active").
		Where("stock_quantity > 0 AND stock_quantity < reorder_level").
		Count(&count).Error

	return count, err
}

// GetOutOfStockCount returns the number of active materials with nothing left
// on hand for a tenant.
func (p *GormStockMetricsProvider) GetOutOfStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("materials").
		Where("tenant_id = ? AND lifecycle = ?", tenantID, "active").
		Where("stock_quantity <= 0").
		Count(&count).Error

	return count, err
}

// GormTenantProvider implements TenantProvider using GORM. There is no
// tenants table; the set of tenants is derived from material ownership.
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider.
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetActiveTenantIDs returns the distinct tenants that own materials.
func (p *GormTenantProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("materials").
		Distinct("tenant_id").
		Order("tenant_id ASC").
		Pluck("tenant_id", &ids).Error

	return ids, err
}
