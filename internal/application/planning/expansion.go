package planning

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/catalog"
	"github.com/mrp/backend/internal/domain/inventory"
	"github.com/mrp/backend/internal/domain/recipe"
	"github.com/mrp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// componentLine is one recipe component joined with the current snapshot of
// its material. Every planning calculation starts from these lines.
type componentLine struct {
	Component recipe.RecipeComponent
	Material  inventory.Material
	Effective decimal.Decimal
}

// unitsAvailable returns how many whole units the material's current stock
// covers at this line's effective quantity.
func (l componentLine) unitsAvailable() int64 {
	if !l.Effective.IsPositive() {
		return 0
	}
	return l.Material.StockQuantity.Div(l.Effective).Floor().IntPart()
}

// expandedRecipe is a product's active recipe joined with current material
// snapshots. Recipe is nil when the product has no active recipe, which is a
// valid state the caller decides how to present.
type expandedRecipe struct {
	Product *catalog.Product
	Recipe  *recipe.Recipe
	Lines   []componentLine
}

// planner bundles the repositories the planning services read from. Both
// services run the same product/recipe/material join, so it lives here once.
type planner struct {
	productRepo  catalog.ProductRepository
	recipeRepo   recipe.RecipeRepository
	materialRepo inventory.MaterialRepository
}

// loadProduct fetches a tenant's product and verifies it participates in
// recipe-based planning.
func (p planner) loadProduct(ctx context.Context, tenantID, productID uuid.UUID) (*catalog.Product, error) {
	product, err := p.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if !product.IsBOMManaged() {
		return nil, shared.NewDomainError("CONFIGURATION_ERROR", "Product is not BOM-managed")
	}
	return product, nil
}

// expandActive loads a product and joins its active recipe with the material
// snapshot of every component. A missing active recipe is not an error: the
// result carries a nil Recipe and the caller presents it as data.
func (p planner) expandActive(ctx context.Context, tenantID, productID uuid.UUID) (*expandedRecipe, error) {
	product, err := p.loadProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	rec, err := p.recipeRepo.FindActiveByProduct(ctx, tenantID, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &expandedRecipe{Product: product}, nil
		}
		return nil, fmt.Errorf("failed to find active recipe: %w", err)
	}

	materials, err := p.loadComponentMaterials(ctx, tenantID, rec)
	if err != nil {
		return nil, err
	}
	lines, err := joinComponents(rec, materials)
	if err != nil {
		return nil, err
	}
	return &expandedRecipe{Product: product, Recipe: rec, Lines: lines}, nil
}

// loadComponentMaterials batch-loads the materials a recipe's components
// reference, keyed by material ID.
func (p planner) loadComponentMaterials(ctx context.Context, tenantID uuid.UUID, rec *recipe.Recipe) (map[uuid.UUID]inventory.Material, error) {
	if len(rec.Components) == 0 {
		return map[uuid.UUID]inventory.Material{}, nil
	}
	ids := make([]uuid.UUID, 0, len(rec.Components))
	for _, c := range rec.Components {
		ids = append(ids, c.MaterialID)
	}
	materials, err := p.materialRepo.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find recipe materials: %w", err)
	}
	byID := make(map[uuid.UUID]inventory.Material, len(materials))
	for _, m := range materials {
		byID[m.ID] = m
	}
	return byID, nil
}

// joinComponents resolves a recipe's components against a preloaded material
// snapshot map.
func joinComponents(rec *recipe.Recipe, materials map[uuid.UUID]inventory.Material) ([]componentLine, error) {
	lines := make([]componentLine, 0, len(rec.Components))
	for _, c := range rec.Components {
		material, ok := materials[c.MaterialID]
		if !ok {
			return nil, shared.NewDomainError("MATERIAL_NOT_FOUND",
				fmt.Sprintf("Material %s referenced by the recipe was not found", c.MaterialID))
		}
		lines = append(lines, componentLine{Component: c, Material: material, Effective: c.EffectiveQuantity()})
	}
	return lines, nil
}

// bottleneck folds the lines into the producible unit count and the limiting
// line. An empty expansion yields zero units and no bottleneck.
func bottleneck(lines []componentLine) (int64, *componentLine) {
	if len(lines) == 0 {
		return 0, nil
	}
	units := lines[0].unitsAvailable()
	limiting := &lines[0]
	for i := 1; i < len(lines); i++ {
		if u := lines[i].unitsAvailable(); u < units {
			units = u
			limiting = &lines[i]
		}
	}
	return units, limiting
}
