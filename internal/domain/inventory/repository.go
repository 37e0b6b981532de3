package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MaterialRepository defines the interface for material persistence.
//
// Materials are never hard-deleted: the ledger references them forever, so
// removal is modelled as archival through Save.
type MaterialRepository interface {
	// FindByID finds a material by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Material, error)

	// FindByIDForTenant finds a material by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Material, error)

	// FindByIDForTenantLocked finds a material by ID and takes a row lock
	// (SELECT ... FOR UPDATE). Only valid inside a transaction scope.
	FindByIDForTenantLocked(ctx context.Context, tenantID, id uuid.UUID) (*Material, error)

	// FindBySKU finds a material by its SKU within a tenant
	FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*Material, error)

	// FindAllForTenant finds all materials for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Material, error)

	// FindActive finds all active materials for a tenant
	FindActive(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Material, error)

	// FindByIDs finds multiple materials by their IDs
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Material, error)

	// FindBelowReorderLevel finds active materials whose stock is under their
	// reorder level
	FindBelowReorderLevel(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Material, error)

	// ListTenantIDs returns the distinct tenants that own materials. Used by
	// the periodic alert scan.
	ListTenantIDs(ctx context.Context) ([]uuid.UUID, error)

	// Save creates or updates a material
	Save(ctx context.Context, material *Material) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, material *Material) error

	// CountForTenant counts materials for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// ExistsBySKU checks if a material with the given SKU exists in the tenant
	ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error)
}

// InventoryTransactionRepository defines the interface for the append-only
// stock ledger. Entries are inserted, never updated or deleted.
type InventoryTransactionRepository interface {
	// Create inserts a new ledger entry
	Create(ctx context.Context, transaction *InventoryTransaction) error

	// FindByIDForTenant finds a ledger entry by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*InventoryTransaction, error)

	// FindByMaterial finds ledger entries for a material, newest first
	FindByMaterial(ctx context.Context, tenantID, materialID uuid.UUID, filter shared.Filter) ([]InventoryTransaction, error)

	// FindAllForTenant finds ledger entries for a tenant, newest first
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]InventoryTransaction, error)

	// CountByMaterial counts ledger entries for a material
	CountByMaterial(ctx context.Context, tenantID, materialID uuid.UUID) (int64, error)

	// CountForTenant counts ledger entries for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// SumDeductionsByMaterial returns the total deducted quantity per material
	// since the given time, as positive magnitudes. Materials without
	// deductions in the window are absent from the map.
	SumDeductionsByMaterial(ctx context.Context, tenantID uuid.UUID, since time.Time) (map[uuid.UUID]decimal.Decimal, error)
}
