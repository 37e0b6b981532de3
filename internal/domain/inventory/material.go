package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/shared"
	"github.com/mrp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// StockStatus classifies a material's stock level against its reorder level.
// It is derived on read and never stored.
type StockStatus string

const (
	StockStatusNormal     StockStatus = "normal"
	StockStatusLow        StockStatus = "low"
	StockStatusCritical   StockStatus = "critical"
	StockStatusOutOfStock StockStatus = "out_of_stock"
)

// ClassifyStock returns the stock status for a quantity against a reorder
// level. The critical band includes its upper boundary: a stock of exactly
// half the reorder level is critical, not low.
//
//	out_of_stock : stock == 0
//	critical     : 0 < stock <= 0.5 * reorder
//	low          : 0.5 * reorder < stock < reorder
//	normal       : stock >= reorder
func ClassifyStock(stock, reorderLevel decimal.Decimal) StockStatus {
	if stock.LessThanOrEqual(decimal.Zero) {
		return StockStatusOutOfStock
	}
	half := reorderLevel.Div(decimal.NewFromInt(2))
	switch {
	case stock.LessThanOrEqual(half):
		return StockStatusCritical
	case stock.LessThan(reorderLevel):
		return StockStatusLow
	default:
		return StockStatusNormal
	}
}

// Material is a raw ingredient tracked by the stock ledger. Its quantity is
// only ever mutated through ledger adjustments so that every change leaves an
// InventoryTransaction behind.
type Material struct {
	shared.TenantAggregateRoot
	SKU           string           `gorm:"type:varchar(50);not null;uniqueIndex:idx_material_tenant_sku,priority:2"`
	Name          string           `gorm:"type:varchar(200);not null"`
	Description   string           `gorm:"type:text"`
	Unit          valueobject.Unit `gorm:"type:varchar(10);not null"`
	StockQuantity decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	ReorderLevel  decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost      decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	Lifecycle     shared.Lifecycle `gorm:"type:varchar(10);not null;default:'active';index"`
}

// TableName returns the table name for GORM
func (Material) TableName() string {
	return "materials"
}

// NewMaterial creates a new active material with zero stock. Starting stock
// is applied through the ledger so that the opening balance is auditable.
func NewMaterial(tenantID uuid.UUID, sku, name string, unit valueobject.Unit, reorderLevel, unitCost decimal.Decimal) (*Material, error) {
	if err := validateMaterialSKU(sku); err != nil {
		return nil, err
	}
	if err := validateMaterialName(name); err != nil {
		return nil, err
	}
	if !unit.IsValid() {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit must be one of the supported units")
	}
	if reorderLevel.IsNegative() {
		return nil, shared.NewDomainError("INVALID_REORDER_LEVEL", "Reorder level cannot be negative")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	material := &Material{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SKU:                 strings.ToUpper(sku),
		Name:                name,
		Unit:                unit,
		StockQuantity:       decimal.Zero,
		ReorderLevel:        reorderLevel,
		UnitCost:            unitCost,
		Lifecycle:           shared.LifecycleActive,
	}

	return material, nil
}

// Update updates the material's descriptive fields. Stock cannot be changed
// here; use ApplyStockChange via the ledger.
func (m *Material) Update(name, description string) error {
	if err := validateMaterialName(name); err != nil {
		return err
	}

	m.Name = name
	m.Description = description
	m.UpdatedAt = time.Now()
	m.IncrementVersion()

	return nil
}

// SetUnit changes the unit of measure. Existing quantities are not converted.
func (m *Material) SetUnit(unit valueobject.Unit) error {
	if !unit.IsValid() {
		return shared.NewDomainError("INVALID_UNIT", "Unit must be one of the supported units")
	}

	m.Unit = unit
	m.UpdatedAt = time.Now()
	m.IncrementVersion()

	return nil
}

// SetReorderLevel sets the reorder threshold used for alerting.
func (m *Material) SetReorderLevel(level decimal.Decimal) error {
	if level.IsNegative() {
		return shared.NewDomainError("INVALID_REORDER_LEVEL", "Reorder level cannot be negative")
	}

	m.ReorderLevel = level
	m.UpdatedAt = time.Now()
	m.IncrementVersion()

	return nil
}

// SetUnitCost sets the per-unit cost used for requirement costing.
func (m *Material) SetUnitCost(cost decimal.Decimal) error {
	if cost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	m.UnitCost = cost
	m.UpdatedAt = time.Now()
	m.IncrementVersion()

	return nil
}

// ApplyStockChange applies a signed quantity change and returns the balance
// before the change. The change must respect the transaction type's sign
// rules, and the resulting quantity must not go negative; when it would, the
// material is left untouched and ErrInsufficientStock is returned.
func (m *Material) ApplyStockChange(change decimal.Decimal, txType TransactionType) (decimal.Decimal, error) {
	if err := txType.ValidateChange(change); err != nil {
		return decimal.Zero, err
	}

	before := m.StockQuantity
	after := before.Add(change)
	if after.IsNegative() {
		return decimal.Zero, shared.ErrInsufficientStock
	}

	m.StockQuantity = after
	m.UpdatedAt = time.Now()
	m.IncrementVersion()

	m.AddDomainEvent(NewMaterialStockAdjustedEvent(m, txType, before, change, after))

	return before, nil
}

// Archive hides the material from normal listings. The caller must first
// verify no active recipe references it.
func (m *Material) Archive() error {
	if m.Lifecycle == shared.LifecycleArchived {
		return shared.NewDomainError("ALREADY_ARCHIVED", "Material is already archived")
	}

	m.Lifecycle = shared.LifecycleArchived
	m.UpdatedAt = time.Now()
	m.IncrementVersion()

	m.AddDomainEvent(NewMaterialArchivedEvent(m))

	return nil
}

// Restore returns an archived material to the active state.
func (m *Material) Restore() error {
	if m.Lifecycle != shared.LifecycleArchived {
		return shared.NewDomainError("NOT_ARCHIVED", "Material is not archived")
	}

	m.Lifecycle = shared.LifecycleActive
	m.UpdatedAt = time.Now()
	m.IncrementVersion()

	m.AddDomainEvent(NewMaterialRestoredEvent(m))

	return nil
}

// IsArchived returns true if the material is archived.
func (m *Material) IsArchived() bool {
	return m.Lifecycle == shared.LifecycleArchived
}

// StockStatus returns the derived stock classification.
func (m *Material) StockStatus() StockStatus {
	return ClassifyStock(m.StockQuantity, m.ReorderLevel)
}

// IsBelowReorderLevel returns true if stock has fallen under the reorder
// threshold.
func (m *Material) IsBelowReorderLevel() bool {
	return m.StockQuantity.LessThan(m.ReorderLevel)
}

// StockValue returns the value of the stock on hand (quantity * unit cost).
func (m *Material) StockValue() decimal.Decimal {
	return m.StockQuantity.Mul(m.UnitCost)
}

// validateMaterialSKU validates the material SKU.
func validateMaterialSKU(sku string) error {
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 50 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 50 characters")
	}
	for _, r := range sku {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_SKU", "SKU can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

// validateMaterialName validates the material name.
func validateMaterialName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Material name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Material name cannot exceed 200 characters")
	}
	return nil
}
