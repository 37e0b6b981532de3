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

// BatchProductionService sizes production runs: requirements with shortage
// flags, batch-size suggestions, linear multi-product plans and dry-run
// simulations. Like the calculation service it only reads snapshots;
// committing a run is the stock ledger's job.
type BatchProductionService struct {
	planner
}

// NewBatchProductionService creates a new BatchProductionService
func NewBatchProductionService(
	productRepo catalog.ProductRepository,
	recipeRepo recipe.RecipeRepository,
	materialRepo inventory.MaterialRepository,
) *BatchProductionService {
	return &BatchProductionService{planner{
		productRepo:  productRepo,
		recipeRepo:   recipeRepo,
		materialRepo: materialRepo,
	}}
}

// CalculateBatchRequirements prices a run of the given quantity and pulls
// the components whose requirement exceeds current stock into a shortage
// list. The run can be produced only when that list is empty.
func (s *BatchProductionService) CalculateBatchRequirements(ctx context.Context, tenantID, productID uuid.UUID, quantity int64) (*BatchRequirementsResponse, error) {
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

	requirements := buildRequirements(exp, quantity)
	shortages := make([]MaterialShortage, 0)
	for _, r := range requirements.Requirements {
		if r.Sufficient {
			continue
		}
		shortages = append(shortages, MaterialShortage{
			MaterialID:   r.MaterialID,
			MaterialSKU:  r.MaterialSKU,
			MaterialName: r.MaterialName,
			Unit:         r.Unit,
			Required:     r.TotalRequired,
			Available:    r.CurrentStock,
			Shortage:     r.TotalRequired.Sub(r.CurrentStock),
		})
	}
	return &BatchRequirementsResponse{
		RequirementsResponse: *requirements,
		Shortages:            shortages,
		CanProduce:           len(shortages) == 0,
	}, nil
}

// CalculateOptimalBatchSize reports the producible maximum and the batch
// sizes that divide it into equal whole runs, with a plain-language
// recommendation.
func (s *BatchProductionService) CalculateOptimalBatchSize(ctx context.Context, tenantID, productID uuid.UUID) (*BatchPlanResponse, error) {
	exp, err := s.expandActive(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if exp.Recipe == nil {
		return nil, shared.NewDomainError("CONFIGURATION_ERROR", "Product has no active recipe")
	}

	units, limiting := bottleneck(exp.Lines)
	resp := &BatchPlanResponse{
		ProductID:         exp.Product.ID,
		ProductName:       exp.Product.Name,
		MaximumProducible: units,
		SuggestedBatches:  suggestedBatches(units),
		Recommendation:    batchRecommendation(units, limiting),
	}
	if limiting != nil {
		id := limiting.Material.ID
		resp.BottleneckMaterialID = &id
		resp.BottleneckMaterial = limiting.Material.Name
	}
	return resp, nil
}

// CalculateMultiProductBatch plans several products against shared material
// stock: each product's active recipe is expanded at its requested quantity
// and the per-material requirements are summed. The plan is feasible only
// when every aggregated requirement fits current stock and no product failed
// structurally. A failing product is reported in ProductErrors and never
// silently contributes zero requirements.
//
// When demand exceeds stock the plan reports the aggregate shortage; it does
// not decide which product gets the scarce material.
func (s *BatchProductionService) CalculateMultiProductBatch(ctx context.Context, tenantID uuid.UUID, plan []ProductionPlanEntry) (*MultiProductPlanResponse, error) {
	if len(plan) == 0 {
		return nil, shared.NewDomainError("INVALID_PLAN", "Production plan cannot be empty")
	}

	// Entries naming the same product are summed into one requested quantity.
	quantities := make(map[uuid.UUID]int64, len(plan))
	productIDs := make([]uuid.UUID, 0, len(plan))
	for _, entry := range plan {
		if _, seen := quantities[entry.ProductID]; !seen {
			productIDs = append(productIDs, entry.ProductID)
		}
		quantities[entry.ProductID] += entry.Quantity
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

	type aggregate struct {
		material inventory.Material
		required decimal.Decimal
	}
	aggregates := make(map[uuid.UUID]*aggregate)
	productErrors := make([]ProductPlanError, 0)

	for _, productID := range productIDs {
		fail := func(message string) {
			productErrors = append(productErrors, ProductPlanError{ProductID: productID, Error: message})
		}

		quantity := quantities[productID]
		if quantity <= 0 {
			fail("quantity must be positive")
			continue
		}
		product, ok := productByID[productID]
		if !ok {
			fail("product not found")
			continue
		}
		if !product.IsBOMManaged() {
			fail("product is not BOM-managed")
			continue
		}
		rec, ok := activeRecipes[productID]
		if !ok {
			fail("no active recipe")
			continue
		}
		lines, err := joinComponents(rec, materialByID)
		if err != nil {
			fail(err.Error())
			continue
		}
		if len(lines) == 0 {
			fail("active recipe has no components")
			continue
		}

		qty := decimal.NewFromInt(quantity)
		for _, line := range lines {
			agg, ok := aggregates[line.Material.ID]
			if !ok {
				agg = &aggregate{material: line.Material, required: decimal.Zero}
				aggregates[line.Material.ID] = agg
			}
			agg.required = agg.required.Add(qty.Mul(line.Effective))
		}
	}

	rows := make([]AggregatedRequirement, 0, len(aggregates))
	allSufficient := true
	for _, agg := range aggregates {
		shortage := decimal.Zero
		sufficient := agg.required.LessThanOrEqual(agg.material.StockQuantity)
		if !sufficient {
			shortage = agg.required.Sub(agg.material.StockQuantity)
			allSufficient = false
		}
		rows = append(rows, AggregatedRequirement{
			MaterialID:    agg.material.ID,
			MaterialSKU:   agg.material.SKU,
			MaterialName:  agg.material.Name,
			Unit:          string(agg.material.Unit),
			TotalRequired: agg.required,
			CurrentStock:  agg.material.StockQuantity,
			Shortage:      shortage,
			Sufficient:    sufficient,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].MaterialSKU < rows[j].MaterialSKU })

	return &MultiProductPlanResponse{
		TotalProducts:                  len(productIDs),
		AggregatedMaterialRequirements: rows,
		ProductErrors:                  productErrors,
		Feasible:                       allSufficient && len(productErrors) == 0,
	}, nil
}

// SimulateProduction previews what committing a run would do to stock: the
// before/after level per material and the total production cost. Nothing is
// persisted; the after level may go negative to show exactly what the ledger
// would reject.
func (s *BatchProductionService) SimulateProduction(ctx context.Context, tenantID, productID uuid.UUID, quantity int64) (*SimulationResponse, error) {
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

	qty := decimal.NewFromInt(quantity)
	changes := make([]MaterialChange, 0, len(exp.Lines))
	cost := decimal.Zero
	canExecute := len(exp.Lines) > 0
	for i := range exp.Lines {
		line := exp.Lines[i]
		required := qty.Mul(line.Effective)
		after := line.Material.StockQuantity.Sub(required)
		sufficient := !after.IsNegative()
		if !sufficient {
			canExecute = false
		}
		changes = append(changes, MaterialChange{
			MaterialID:   line.Material.ID,
			MaterialSKU:  line.Material.SKU,
			MaterialName: line.Material.Name,
			Unit:         string(line.Material.Unit),
			Before:       line.Material.StockQuantity,
			Change:       required.Neg(),
			After:        after,
			Sufficient:   sufficient,
		})
		cost = cost.Add(required.Mul(line.Material.UnitCost))
	}

	return &SimulationResponse{
		ProductID:       exp.Product.ID,
		ProductName:     exp.Product.Name,
		Quantity:        quantity,
		MaterialChanges: changes,
		ProductionCost:  cost,
		CanExecute:      canExecute,
	}, nil
}

// suggestedBatches returns the divisors of the maximum in ascending order:
// the batch sizes that split the maximum into equal whole runs.
func suggestedBatches(maximum int64) []int64 {
	if maximum <= 0 {
		return []int64{}
	}
	divisors := make([]int64, 0)
	upper := make([]int64, 0)
	for d := int64(1); d*d <= maximum; d++ {
		if maximum%d != 0 {
			continue
		}
		divisors = append(divisors, d)
		if q := maximum / d; q != d {
			upper = append(upper, q)
		}
	}
	for i := len(upper) - 1; i >= 0; i-- {
		divisors = append(divisors, upper[i])
	}
	return divisors
}

// batchRecommendation phrases the plan for an operator.
func batchRecommendation(maximum int64, limiting *componentLine) string {
	switch {
	case limiting == nil:
		return "The active recipe has no components; add components before planning a batch."
	case maximum == 0:
		return fmt.Sprintf("Production is blocked: stock of %s does not cover a single unit. Restock it before planning a batch.", limiting.Material.Name)
	case maximum == 1:
		return fmt.Sprintf("Current stock covers a single unit; %s runs out after that. Restock it to enable larger batches.", limiting.Material.Name)
	default:
		return fmt.Sprintf("Up to %d units can be produced before %s runs out. The suggested batch sizes split that maximum into equal runs.", maximum, limiting.Material.Name)
	}
}
