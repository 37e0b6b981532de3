package alert

import (
	"context"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/shared"
)

// StockAlertRepository defines the interface for stock alert persistence
type StockAlertRepository interface {
	// FindByIDForTenant finds an alert by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*StockAlert, error)

	// FindActionableByMaterial finds the pending or acknowledged alert for a
	// material, or shared.ErrNotFound when the material has none. At most one
	// alert per material is ever actionable.
	FindActionableByMaterial(ctx context.Context, tenantID, materialID uuid.UUID) (*StockAlert, error)

	// FindActionable finds every pending or acknowledged alert of a tenant,
	// most urgent severity first
	FindActionable(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockAlert, error)

	// FindAllForTenant finds alerts for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockAlert, error)

	// CountActionableBySeverity counts actionable alerts grouped by severity
	CountActionableBySeverity(ctx context.Context, tenantID uuid.UUID) (map[Severity]int64, error)

	// Save creates or updates an alert
	Save(ctx context.Context, alert *StockAlert) error

	// CountForTenant counts alerts for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}
