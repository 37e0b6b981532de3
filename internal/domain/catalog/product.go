package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/shared"
	"github.com/mrp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InventoryMode declares how a product's stock is tracked.
type InventoryMode string

const (
	// InventoryModeBOMManaged products are produced from a recipe; their
	// availability is derived from component material stock.
	InventoryModeBOMManaged InventoryMode = "bom_managed"
	// InventoryModeSimple products are bought and sold as-is and carry no
	// bill of materials. Planning operations reject them.
	InventoryModeSimple InventoryMode = "simple"
)

// IsValid reports whether the mode is one of the known values.
func (m InventoryMode) IsValid() bool {
	return m == InventoryModeBOMManaged || m == InventoryModeSimple
}

// Product is a sellable item in the catalog. BOM-managed products are the
// subjects of recipes and production planning.
type Product struct {
	shared.TenantAggregateRoot
	SKU           string           `gorm:"type:varchar(50);not null;uniqueIndex:idx_product_tenant_sku,priority:2"`
	Name          string           `gorm:"type:varchar(200);not null"`
	Description   string           `gorm:"type:text"`
	Unit          valueobject.Unit `gorm:"type:varchar(10);not null"`
	InventoryMode InventoryMode    `gorm:"type:varchar(20);not null;default:'bom_managed'"`
	SellingPrice  decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	Lifecycle     shared.Lifecycle `gorm:"type:varchar(10);not null;default:'active';index"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new active product.
func NewProduct(tenantID uuid.UUID, sku, name string, unit valueobject.Unit, mode InventoryMode) (*Product, error) {
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if !unit.IsValid() {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit must be one of the supported units")
	}
	if !mode.IsValid() {
		return nil, shared.NewDomainError("INVALID_INVENTORY_MODE", "Inventory mode must be bom_managed or simple")
	}

	product := &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SKU:                 strings.ToUpper(sku),
		Name:                name,
		Unit:                unit,
		InventoryMode:       mode,
		SellingPrice:        decimal.Zero,
		Lifecycle:           shared.LifecycleActive,
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// Update updates the product's basic information.
func (p *Product) Update(name, description string) error {
	if err := validateProductName(name); err != nil {
		return err
	}

	p.Name = name
	p.Description = description
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductUpdatedEvent(p))

	return nil
}

// SetSellingPrice sets the selling price.
func (p *Product) SetSellingPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}

	p.SellingPrice = price
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// SetInventoryMode switches the product between BOM-managed and simple
// stock tracking.
func (p *Product) SetInventoryMode(mode InventoryMode) error {
	if !mode.IsValid() {
		return shared.NewDomainError("INVALID_INVENTORY_MODE", "Inventory mode must be bom_managed or simple")
	}

	p.InventoryMode = mode
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductUpdatedEvent(p))

	return nil
}

// Archive hides the product from normal listings. Archived products keep
// their recipes but cannot be planned against.
func (p *Product) Archive() error {
	if p.Lifecycle == shared.LifecycleArchived {
		return shared.NewDomainError("ALREADY_ARCHIVED", "Product is already archived")
	}

	p.Lifecycle = shared.LifecycleArchived
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductArchivedEvent(p))

	return nil
}

// Restore returns an archived product to the active state.
func (p *Product) Restore() error {
	if p.Lifecycle != shared.LifecycleArchived {
		return shared.NewDomainError("NOT_ARCHIVED", "Product is not archived")
	}

	p.Lifecycle = shared.LifecycleActive
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductRestoredEvent(p))

	return nil
}

// IsArchived returns true if the product is archived.
func (p *Product) IsArchived() bool {
	return p.Lifecycle == shared.LifecycleArchived
}

// IsBOMManaged returns true if the product's stock is derived from a recipe.
func (p *Product) IsBOMManaged() bool {
	return p.InventoryMode == InventoryModeBOMManaged
}

// validateSKU validates the product SKU.
func validateSKU(sku string) error {
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

// validateProductName validates the product name.
func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
