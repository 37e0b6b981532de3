package recipe

import (
	"time"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/shared"
	"github.com/mrp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Recipe is the bill of materials for one product. A product may carry many
// recipe versions but at most one of them is active per tenant; the active
// one drives every planning calculation.
//
// IsActive (which recipe is used for production) is independent of Lifecycle
// (archival): archiving always deactivates, restoring never reactivates.
type Recipe struct {
	shared.TenantAggregateRoot
	ProductID     uuid.UUID        `gorm:"type:uuid;not null;index:idx_recipe_tenant_product"`
	Name          string           `gorm:"type:varchar(200);not null"`
	YieldQuantity decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:1"`
	YieldUnit     valueobject.Unit `gorm:"type:varchar(10);not null"`
	IsActive      bool             `gorm:"not null;default:false;index"`
	Notes         string           `gorm:"type:text"`
	Lifecycle     shared.Lifecycle `gorm:"type:varchar(10);not null;default:'active';index"`

	Components []RecipeComponent `gorm:"foreignKey:RecipeID;references:ID"`
}

// TableName returns the table name for GORM
func (Recipe) TableName() string {
	return "recipes"
}

// RecipeComponent is one material line of a recipe. The waste percentage
// inflates the nominal quantity to the amount actually consumed per unit
// produced.
type RecipeComponent struct {
	shared.BaseEntity
	RecipeID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_component_recipe_material,priority:1"`
	MaterialID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_component_recipe_material,priority:2"`
	QuantityRequired decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	WastePercentage  decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (RecipeComponent) TableName() string {
	return "recipe_components"
}

// EffectiveQuantity returns the quantity consumed per unit produced once
// waste is factored in: quantity * (1 + waste/100).
func (c *RecipeComponent) EffectiveQuantity() decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(c.WastePercentage.Div(decimal.NewFromInt(100)))
	return c.QuantityRequired.Mul(factor)
}

// TotalCost returns the cost of this component per unit produced at the
// given material unit cost.
func (c *RecipeComponent) TotalCost(unitCost decimal.Decimal) decimal.Decimal {
	return c.EffectiveQuantity().Mul(unitCost)
}

// NewRecipe creates a new inactive recipe for a product. Activation is a
// separate, exclusive operation.
func NewRecipe(tenantID, productID uuid.UUID, name string, yieldQuantity decimal.Decimal, yieldUnit valueobject.Unit) (*Recipe, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if err := validateRecipeName(name); err != nil {
		return nil, err
	}
	if yieldQuantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_YIELD", "Yield quantity must be positive")
	}
	if !yieldUnit.IsValid() {
		return nil, shared.NewDomainError("INVALID_UNIT", "Yield unit must be one of the supported units")
	}

	recipe := &Recipe{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductID:           productID,
		Name:                name,
		YieldQuantity:       yieldQuantity,
		YieldUnit:           yieldUnit,
		IsActive:            false,
		Lifecycle:           shared.LifecycleActive,
		Components:          make([]RecipeComponent, 0),
	}

	return recipe, nil
}

// Update updates the recipe's descriptive fields.
func (r *Recipe) Update(name string, yieldQuantity decimal.Decimal, yieldUnit valueobject.Unit, notes string) error {
	if err := validateRecipeName(name); err != nil {
		return err
	}
	if yieldQuantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_YIELD", "Yield quantity must be positive")
	}
	if !yieldUnit.IsValid() {
		return shared.NewDomainError("INVALID_UNIT", "Yield unit must be one of the supported units")
	}

	r.Name = name
	r.YieldQuantity = yieldQuantity
	r.YieldUnit = yieldUnit
	r.Notes = notes
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// AddComponent adds a material line. A material may appear at most once per
// recipe.
func (r *Recipe) AddComponent(materialID uuid.UUID, quantityRequired, wastePercentage decimal.Decimal) error {
	if err := validateComponent(materialID, quantityRequired, wastePercentage); err != nil {
		return err
	}
	if r.HasComponent(materialID) {
		return shared.NewDomainError("DUPLICATE_COMPONENT", "Material already appears in this recipe")
	}

	component := RecipeComponent{
		BaseEntity:       shared.NewBaseEntity(),
		RecipeID:         r.ID,
		MaterialID:       materialID,
		QuantityRequired: quantityRequired,
		WastePercentage:  wastePercentage,
	}
	r.Components = append(r.Components, component)
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// UpdateComponent changes the quantity or waste of an existing line.
func (r *Recipe) UpdateComponent(materialID uuid.UUID, quantityRequired, wastePercentage decimal.Decimal) error {
	if err := validateComponent(materialID, quantityRequired, wastePercentage); err != nil {
		return err
	}

	for i := range r.Components {
		if r.Components[i].MaterialID == materialID {
			r.Components[i].QuantityRequired = quantityRequired
			r.Components[i].WastePercentage = wastePercentage
			r.Components[i].Touch()
			r.UpdatedAt = time.Now()
			r.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("COMPONENT_NOT_FOUND", "Material is not a component of this recipe")
}

// RemoveComponent removes a material line.
func (r *Recipe) RemoveComponent(materialID uuid.UUID) error {
	for i := range r.Components {
		if r.Components[i].MaterialID == materialID {
			r.Components = append(r.Components[:i], r.Components[i+1:]...)
			r.UpdatedAt = time.Now()
			r.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("COMPONENT_NOT_FOUND", "Material is not a component of this recipe")
}

// HasComponent reports whether the material appears in the recipe.
func (r *Recipe) HasComponent(materialID uuid.UUID) bool {
	for i := range r.Components {
		if r.Components[i].MaterialID == materialID {
			return true
		}
	}
	return false
}

// Activate marks this recipe as the production recipe. Exclusivity against
// sibling recipes of the same product is enforced by the repository inside
// one transaction; this method only guards local state.
func (r *Recipe) Activate() error {
	if r.Lifecycle == shared.LifecycleArchived {
		return shared.NewDomainError("RECIPE_ARCHIVED", "Archived recipes cannot be activated")
	}
	if len(r.Components) == 0 {
		return shared.NewDomainError("EMPTY_RECIPE", "A recipe needs at least one component before activation")
	}
	if r.IsActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Recipe is already active")
	}

	r.IsActive = true
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// Deactivate removes the recipe from production use.
func (r *Recipe) Deactivate() error {
	if !r.IsActive {
		return shared.NewDomainError("NOT_ACTIVE", "Recipe is not active")
	}

	r.IsActive = false
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// Archive hides the recipe and takes it out of production.
func (r *Recipe) Archive() error {
	if r.Lifecycle == shared.LifecycleArchived {
		return shared.NewDomainError("ALREADY_ARCHIVED", "Recipe is already archived")
	}

	r.IsActive = false
	r.Lifecycle = shared.LifecycleArchived
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// Restore returns an archived recipe to the catalog without reactivating it.
func (r *Recipe) Restore() error {
	if r.Lifecycle != shared.LifecycleArchived {
		return shared.NewDomainError("NOT_ARCHIVED", "Recipe is not archived")
	}

	r.Lifecycle = shared.LifecycleActive
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// IsArchived returns true if the recipe is archived.
func (r *Recipe) IsArchived() bool {
	return r.Lifecycle == shared.LifecycleArchived
}

// ComponentFor returns the line for a material, or nil.
func (r *Recipe) ComponentFor(materialID uuid.UUID) *RecipeComponent {
	for i := range r.Components {
		if r.Components[i].MaterialID == materialID {
			return &r.Components[i]
		}
	}
	return nil
}

// MaterialIDs returns the distinct materials consumed by the recipe.
func (r *Recipe) MaterialIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Components))
	for i := range r.Components {
		ids = append(ids, r.Components[i].MaterialID)
	}
	return ids
}

func validateRecipeName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Recipe name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Recipe name cannot exceed 200 characters")
	}
	return nil
}

func validateComponent(materialID uuid.UUID, quantityRequired, wastePercentage decimal.Decimal) error {
	if materialID == uuid.Nil {
		return shared.NewDomainError("INVALID_MATERIAL", "Material ID cannot be empty")
	}
	if quantityRequired.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Component quantity must be positive")
	}
	if wastePercentage.IsNegative() || wastePercentage.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_WASTE", "Waste percentage must be at least 0 and below 100")
	}
	return nil
}
