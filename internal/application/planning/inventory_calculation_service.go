package planning

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/catalog"
	"github.com/mrp/backend/internal/domain/inventory"
	"github.com/mrp/backend/internal/domain/recipe"
	"github.com/mrp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InventoryCalculationService answers single-product planning questions: how
// many units current stock supports, whether a requested quantity is
// feasible, and what a run would consume and cost. Every operation is a
// non-blocking snapshot read; results may trail concurrent ledger writes,
// which the ledger itself re-validates at commit time.
type InventoryCalculationService struct {
	planner
}

// NewInventoryCalculationService creates a new InventoryCalculationService
func NewInventoryCalculationService(
	productRepo catalog.ProductRepository,
	recipeRepo recipe.RecipeRepository,
	materialRepo inventory.MaterialRepository,
) *InventoryCalculationService {
	return &InventoryCalculationService{planner{
		productRepo:  productRepo,
		recipeRepo:   recipeRepo,
		materialRepo: materialRepo,
	}}
}

// CalculateAvailableQuantity reports how many units of the product current
// stock supports. Each component caps production at
// floor(stock / effective quantity); the smallest cap wins and its material
// is reported as the bottleneck. A product without an active recipe yields
// zero availability with a message, not an error.
func (s *InventoryCalculationService) CalculateAvailableQuantity(ctx context.Context, tenantID, productID uuid.UUID) (*AvailabilityResponse, error) {
	exp, err := s.expandActive(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	return buildAvailability(exp), nil
}

// CheckProductionFeasibility compares a requested quantity against current
// availability.
func (s *InventoryCalculationService) CheckProductionFeasibility(ctx context.Context, tenantID, productID uuid.UUID, requested int64) (*FeasibilityResponse, error) {
	if requested <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}

	availability, err := s.CalculateAvailableQuantity(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	shortage := requested - availability.AvailableQuantity
	if shortage < 0 {
		shortage = 0
	}
	return &FeasibilityResponse{
		ProductID:         productID,
		RequestedQuantity: requested,
		AvailableQuantity: availability.AvailableQuantity,
		Shortage:          shortage,
		IsFeasible:        shortage == 0,
	}, nil
}

// GetMaterialRequirements prices a production run of the given quantity.
// Components with insufficient stock are flagged per line, never raised as
// errors. Unlike availability, pricing a run requires an active recipe.
func (s *InventoryCalculationService) GetMaterialRequirements(ctx context.Context, tenantID, productID uuid.UUID, quantity int64) (*RequirementsResponse, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	exp, err := s.expandActive(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if exp.Recipe == nil {
		return nil, shared.NewDomainError("CONFIGURATION_ERROR", "Product has no active recipe")
	}
	return buildRequirements(exp, quantity), nil
}

// BulkCalculateAvailability runs the single-product availability calculation
// independently for each product. It deliberately does not account for
// materials shared between the products; that contention is the multi-product
// planner's job. Structural failures are isolated into the affected entry.
func (s *InventoryCalculationService) BulkCalculateAvailability(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) ([]BulkAvailabilityEntry, error) {
	if len(productIDs) == 0 {
		return []BulkAvailabilityEntry{}, nil
	}

	products, err := s.productRepo.FindByIDs(ctx, tenantID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	productByID := make(map[uuid.UUID]catalog.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	activeRecipes, err := s.recipeRepo.FindActiveByProducts(ctx, tenantID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to find active recipes: %w", err)
	}

	materialByID, err := s.loadPlanMaterials(ctx, tenantID, activeRecipes)
	if err != nil {
		return nil, err
	}

	results := make([]BulkAvailabilityEntry, 0, len(productIDs))
	for _, productID := range productIDs {
		entry := BulkAvailabilityEntry{ProductID: productID}

		product, ok := productByID[productID]
		if !ok {
			entry.Error = "product not found"
			results = append(results, entry)
			continue
		}
		entry.ProductSKU = product.SKU
		entry.ProductName = product.Name
		if !product.IsBOMManaged() {
			entry.Error = "product is not BOM-managed"
			results = append(results, entry)
			continue
		}

		rec, ok := activeRecipes[productID]
		if !ok {
			entry.Message = "no active recipe"
			results = append(results, entry)
			continue
		}
		lines, err := joinComponents(rec, materialByID)
		if err != nil {
			entry.Error = err.Error()
			results = append(results, entry)
			continue
		}
		if len(lines) == 0 {
			entry.Message = "active recipe has no components"
			results = append(results, entry)
			continue
		}

		units, limiting := bottleneck(lines)
		entry.AvailableQuantity = units
		entry.CanProduce = units > 0
		if limiting != nil {
			entry.BottleneckMaterial = limiting.Material.Name
		}
		results = append(results, entry)
	}
	return results, nil
}

// GetLowStockMaterialsInActiveRecipes returns materials that are below their
// reorder level or depleted and that at least one active recipe depends on,
// each with the products it would bottleneck.
func (s *InventoryCalculationService) GetLowStockMaterialsInActiveRecipes(ctx context.Context, tenantID uuid.UUID) ([]LowStockRecipeMaterial, error) {
	recipes, err := s.recipeRepo.FindActiveForTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to find active recipes: %w", err)
	}
	if len(recipes) == 0 {
		return []LowStockRecipeMaterial{}, nil
	}

	// At most one recipe per product is active, so product IDs are already
	// distinct across the result.
	productIDs := make([]uuid.UUID, 0, len(recipes))
	materialIDs := make([]uuid.UUID, 0)
	productsByMaterial := make(map[uuid.UUID][]uuid.UUID)
	seenMaterial := make(map[uuid.UUID]bool)
	for i := range recipes {
		rec := &recipes[i]
		productIDs = append(productIDs, rec.ProductID)
		for _, c := range rec.Components {
			if !seenMaterial[c.MaterialID] {
				seenMaterial[c.MaterialID] = true
				materialIDs = append(materialIDs, c.MaterialID)
			}
			productsByMaterial[c.MaterialID] = append(productsByMaterial[c.MaterialID], rec.ProductID)
		}
	}
	if len(materialIDs) == 0 {
		return []LowStockRecipeMaterial{}, nil
	}

	materials, err := s.materialRepo.FindByIDs(ctx, tenantID, materialIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to find recipe materials: %w", err)
	}
	products, err := s.productRepo.FindByIDs(ctx, tenantID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	productByID := make(map[uuid.UUID]catalog.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	results := make([]LowStockRecipeMaterial, 0)
	for _, m := range materials {
		status := m.StockStatus()
		if status == inventory.StockStatusNormal {
			continue
		}

		affected := make([]AffectedProduct, 0, len(productsByMaterial[m.ID]))
		for _, productID := range productsByMaterial[m.ID] {
			product, ok := productByID[productID]
			if !ok {
				continue
			}
			affected = append(affected, AffectedProduct{
				ProductID:   product.ID,
				ProductSKU:  product.SKU,
				ProductName: product.Name,
			})
		}
		sort.Slice(affected, func(i, j int) bool { return affected[i].ProductSKU < affected[j].ProductSKU })

		results = append(results, LowStockRecipeMaterial{
			MaterialID:       m.ID,
			MaterialSKU:      m.SKU,
			MaterialName:     m.Name,
			Unit:             string(m.Unit),
			CurrentStock:     m.StockQuantity,
			ReorderLevel:     m.ReorderLevel,
			StockStatus:      string(status),
			AffectedProducts: affected,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].MaterialSKU < results[j].MaterialSKU })
	return results, nil
}

// loadPlanMaterials batch-loads the materials referenced by any of the given
// recipes, keyed by material ID.
func (p planner) loadPlanMaterials(ctx context.Context, tenantID uuid.UUID, recipes map[uuid.UUID]*recipe.Recipe) (map[uuid.UUID]inventory.Material, error) {
	seen := make(map[uuid.UUID]bool)
	ids := make([]uuid.UUID, 0)
	for _, rec := range recipes {
		for _, c := range rec.Components {
			if !seen[c.MaterialID] {
				seen[c.MaterialID] = true
				ids = append(ids, c.MaterialID)
			}
		}
	}
	if len(ids) == 0 {
		return map[uuid.UUID]inventory.Material{}, nil
	}
	materials, err := p.materialRepo.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find plan materials: %w", err)
	}
	byID := make(map[uuid.UUID]inventory.Material, len(materials))
	for _, m := range materials {
		byID[m.ID] = m
	}
	return byID, nil
}

// buildAvailability folds an expansion into the availability picture.
func buildAvailability(exp *expandedRecipe) *AvailabilityResponse {
	resp := &AvailabilityResponse{
		ProductID:        exp.Product.ID,
		ProductSKU:       exp.Product.SKU,
		ProductName:      exp.Product.Name,
		ComponentDetails: make([]ComponentDetail, 0, len(exp.Lines)),
	}
	if exp.Recipe == nil {
		resp.Message = "no active recipe"
		return resp
	}
	if len(exp.Lines) == 0 {
		resp.Message = "active recipe has no components"
		return resp
	}

	for i := range exp.Lines {
		resp.ComponentDetails = append(resp.ComponentDetails, toComponentDetail(exp.Lines[i]))
	}
	units, limiting := bottleneck(exp.Lines)
	resp.AvailableQuantity = units
	resp.CanProduce = units > 0
	if limiting != nil {
		id := limiting.Material.ID
		resp.BottleneckMaterialID = &id
		resp.BottleneckMaterial = limiting.Material.Name
	}
	return resp
}

// buildRequirements prices a production run of the given quantity against an
// expanded recipe. The caller guarantees quantity is positive.
func buildRequirements(exp *expandedRecipe, quantity int64) *RequirementsResponse {
	qty := decimal.NewFromInt(quantity)
	resp := &RequirementsResponse{
		ProductID:    exp.Product.ID,
		ProductName:  exp.Product.Name,
		Quantity:     quantity,
		Requirements: make([]MaterialRequirement, 0, len(exp.Lines)),
		TotalCost:    decimal.Zero,
	}
	for i := range exp.Lines {
		line := exp.Lines[i]
		totalRequired := qty.Mul(line.Effective)
		totalCost := totalRequired.Mul(line.Material.UnitCost)
		resp.Requirements = append(resp.Requirements, MaterialRequirement{
			MaterialID:        line.Material.ID,
			MaterialSKU:       line.Material.SKU,
			MaterialName:      line.Material.Name,
			Unit:              string(line.Material.Unit),
			QuantityRequired:  line.Component.QuantityRequired,
			EffectiveQuantity: line.Effective,
			TotalRequired:     totalRequired,
			UnitCost:          line.Material.UnitCost,
			TotalCost:         totalCost,
			CurrentStock:      line.Material.StockQuantity,
			Sufficient:        totalRequired.LessThanOrEqual(line.Material.StockQuantity),
		})
		resp.TotalCost = resp.TotalCost.Add(totalCost)
	}
	resp.CostPerUnit = resp.TotalCost.Div(qty)
	return resp
}

func toComponentDetail(line componentLine) ComponentDetail {
	return ComponentDetail{
		MaterialID:        line.Material.ID,
		MaterialSKU:       line.Material.SKU,
		MaterialName:      line.Material.Name,
		Unit:              string(line.Material.Unit),
		QuantityRequired:  line.Component.QuantityRequired,
		WastePercentage:   line.Component.WastePercentage,
		EffectiveQuantity: line.Effective,
		CurrentStock:      line.Material.StockQuantity,
		UnitsAvailable:    line.unitsAvailable(),
	}
}
