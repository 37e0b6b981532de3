package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	alertapp "github.com/mrp/backend/internal/application/alert"
	catalogapp "github.com/mrp/backend/internal/application/catalog"
	inventoryapp "github.com/mrp/backend/internal/application/inventory"
	planningapp "github.com/mrp/backend/internal/application/planning"
	recipeapp "github.com/mrp/backend/internal/application/recipe"
	"github.com/mrp/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type planningFixture struct {
	products *catalogapp.ProductService
	recipes  *recipeapp.RecipeService
	ledger   *inventoryapp.StockLedgerService
	calc     *planningapp.InventoryCalculationService
	batch    *planningapp.BatchProductionService
	alerts   *alertapp.StockAlertService
	tenantID uuid.UUID
}

func newPlanningFixture(testDB *TestDB) *planningFixture {
	productRepo := persistence.NewGormProductRepository(testDB.DB)
	materialRepo := persistence.NewGormMaterialRepository(testDB.DB)
	recipeRepo := persistence.NewGormRecipeRepository(testDB.DB)
	transactionRepo := persistence.NewGormInventoryTransactionRepository(testDB.DB)
	alertRepo := persistence.NewGormStockAlertRepository(testDB.DB)
	txScope := persistence.NewGormTransactionScope(testDB.DB)

	batch := planningapp.NewBatchProductionService(productRepo, recipeRepo, materialRepo)
	return &planningFixture{
		products: catalogapp.NewProductService(productRepo),
		recipes:  recipeapp.NewRecipeService(recipeRepo, productRepo, materialRepo),
		ledger:   inventoryapp.NewStockLedgerService(materialRepo, transactionRepo, recipeRepo, txScope),
		calc:     planningapp.NewInventoryCalculationService(productRepo, recipeRepo, materialRepo),
		batch:    batch,
		alerts:   alertapp.NewStockAlertService(alertRepo, materialRepo, transactionRepo, batch, zap.NewNop()),
		tenantID: uuid.New(),
	}
}

func (f *planningFixture) stockedMaterial(t *testing.T, sku string, stock, reorderLevel, unitCost decimal.Decimal) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	material, err := f.ledger.CreateMaterial(ctx, f.tenantID, inventoryapp.CreateMaterialRequest{
		SKU:          sku,
		Name:         sku,
		Unit:         "g",
		ReorderLevel: reorderLevel,
		UnitCost:     unitCost,
	})
	require.NoError(t, err)

	if stock.IsPositive() {
		_, err = f.ledger.AdjustStock(ctx, f.tenantID, inventoryapp.AdjustStockRequest{
			MaterialID: material.ID,
			Type:       "restock",
			Quantity:   stock,
			Reason:     "test seed",
		})
		require.NoError(t, err)
	}
	return material.ID
}

// TestProductionPlanning_Integration builds a product with an active recipe
// over a real database and checks the whole planning surface against hand
// calculated numbers.
func TestProductionPlanning_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	f := newPlanningFixture(testDB)
	ctx := context.Background()

	product, err := f.products.Create(ctx, f.tenantID, catalogapp.CreateProductRequest{
		SKU:  "CAKE-001",
		Name: "Pound Cake",
		Unit: "pcs",
	})
	require.NoError(t, err)

	// Flour: 80g per unit with 25% waste -> effective 100g. Stock 1000g
	// covers 10 units. Sugar: 40g flat, stock 240g covers 6 units and is
	// the bottleneck.
	flourID := f.stockedMaterial(t, "FLOUR-001", decimal.NewFromInt(1000), decimal.NewFromInt(50), decimal.NewFromFloat(0.02))
	sugarID := f.stockedMaterial(t, "SUGAR-001", decimal.NewFromInt(240), decimal.NewFromInt(50), decimal.NewFromFloat(0.03))

	created, err := f.recipes.Create(ctx, f.tenantID, recipeapp.CreateRecipeRequest{
		ProductID:     product.ID,
		Name:          "Pound Cake v1",
		YieldQuantity: decimal.NewFromInt(1),
		YieldUnit:     "pcs",
		Components: []recipeapp.ComponentInput{
			{MaterialID: flourID, QuantityRequired: decimal.NewFromInt(80), WastePercentage: decimal.NewFromInt(25)},
			{MaterialID: sugarID, QuantityRequired: decimal.NewFromInt(40)},
		},
	})
	require.NoError(t, err)
	_, err = f.recipes.Activate(ctx, f.tenantID, created.ID)
	require.NoError(t, err)

	t.Run("availability finds the bottleneck", func(t *testing.T) {
		availability, err := f.calc.CalculateAvailableQuantity(ctx, f.tenantID, product.ID)
		require.NoError(t, err)

		assert.Equal(t, int64(6), availability.AvailableQuantity)
		assert.True(t, availability.CanProduce)
		require.NotNil(t, availability.BottleneckMaterialID)
		assert.Equal(t, sugarID, *availability.BottleneckMaterialID)
		require.Len(t, availability.ComponentDetails, 2)

		for _, detail := range availability.ComponentDetails {
			if detail.MaterialID == flourID {
				assert.True(t, detail.EffectiveQuantity.Equal(decimal.NewFromInt(100)))
				assert.Equal(t, int64(10), detail.UnitsAvailable)
			}
		}
	})

	t.Run("feasibility reports the shortage", func(t *testing.T) {
		feasible, err := f.calc.CheckProductionFeasibility(ctx, f.tenantID, product.ID, 6)
		require.NoError(t, err)
		assert.True(t, feasible.IsFeasible)
		assert.Zero(t, feasible.Shortage)

		infeasible, err := f.calc.CheckProductionFeasibility(ctx, f.tenantID, product.ID, 10)
		require.NoError(t, err)
		assert.False(t, infeasible.IsFeasible)
		assert.Equal(t, int64(4), infeasible.Shortage)
		assert.Equal(t, int64(6), infeasible.AvailableQuantity)
	})

	t.Run("batch requirements price the run and list shortages", func(t *testing.T) {
		batch, err := f.batch.CalculateBatchRequirements(ctx, f.tenantID, product.ID, 8)
		require.NoError(t, err)

		assert.False(t, batch.CanProduce)
		require.Len(t, batch.Shortages, 1)
		assert.Equal(t, sugarID, batch.Shortages[0].MaterialID)
		// 8 units need 320g of sugar against 240g on hand.
		assert.True(t, batch.Shortages[0].Shortage.Equal(decimal.NewFromInt(80)),
			"expected 80, got %s", batch.Shortages[0].Shortage)

		// flour 800g * 0.02 + sugar 320g * 0.03 = 16 + 9.60
		assert.True(t, batch.TotalCost.Equal(decimal.NewFromFloat(25.6)),
			"expected 25.6, got %s", batch.TotalCost)
	})

	t.Run("product without active recipe has zero availability", func(t *testing.T) {
		bare, err := f.products.Create(ctx, f.tenantID, catalogapp.CreateProductRequest{
			SKU:  "SCONE-001",
			Name: "Scone",
			Unit: "pcs",
		})
		require.NoError(t, err)

		availability, err := f.calc.CalculateAvailableQuantity(ctx, f.tenantID, bare.ID)
		require.NoError(t, err)
		assert.Zero(t, availability.AvailableQuantity)
		assert.False(t, availability.CanProduce)
		assert.NotEmpty(t, availability.Message)
	})
}

// TestStockAlerts_Integration drives the alert detection over real materials
// and walks one alert through its lifecycle.
func TestStockAlerts_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	f := newPlanningFixture(testDB)
	ctx := context.Background()
	userID := uuid.New()

	// Two healthy materials, one empty, one deep in the critical band.
	f.stockedMaterial(t, "FLOUR-001", decimal.NewFromInt(1000), decimal.NewFromInt(50), decimal.NewFromFloat(0.02))
	f.stockedMaterial(t, "SUGAR-001", decimal.NewFromInt(500), decimal.NewFromInt(50), decimal.NewFromFloat(0.03))
	saltID := f.stockedMaterial(t, "SALT-001", decimal.Zero, decimal.NewFromInt(100), decimal.NewFromFloat(0.01))
	butterID := f.stockedMaterial(t, "BUTTER-001", decimal.NewFromInt(30), decimal.NewFromInt(100), decimal.NewFromFloat(1.20))

	t.Run("tenant evaluation opens alerts for unhealthy materials", func(t *testing.T) {
		touched, err := f.alerts.EvaluateTenant(ctx, f.tenantID)
		require.NoError(t, err)
		assert.Equal(t, 2, touched)

		active, err := f.alerts.GetActiveAlerts(ctx, f.tenantID, alertapp.AlertListFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), active.Summary.OutOfStock)
		assert.Equal(t, int64(1), active.Summary.Critical)
		assert.Equal(t, int64(0), active.Summary.Low)
		require.Len(t, active.Alerts, 2)
	})

	t.Run("re-evaluation refreshes instead of duplicating", func(t *testing.T) {
		before, err := f.alerts.GetActiveAlerts(ctx, f.tenantID, alertapp.AlertListFilter{})
		require.NoError(t, err)

		// Butter drops from critical to out of stock; the open alert is
		// refreshed in place.
		_, err = f.ledger.AdjustStock(ctx, f.tenantID, inventoryapp.AdjustStockRequest{
			MaterialID: butterID,
			Type:       "deduction",
			Quantity:   decimal.NewFromInt(-30),
			Reason:     "production draw",
		})
		require.NoError(t, err)

		refreshed, err := f.alerts.EvaluateMaterial(ctx, f.tenantID, butterID)
		require.NoError(t, err)
		require.NotNil(t, refreshed)
		assert.Equal(t, "out_of_stock", refreshed.Severity)

		after, err := f.alerts.GetActiveAlerts(ctx, f.tenantID, alertapp.AlertListFilter{})
		require.NoError(t, err)
		assert.Len(t, after.Alerts, len(before.Alerts), "no duplicate alert rows")
		assert.Equal(t, int64(2), after.Summary.OutOfStock)
	})

	t.Run("acknowledge and resolve lifecycle", func(t *testing.T) {
		active, err := f.alerts.GetActiveAlerts(ctx, f.tenantID, alertapp.AlertListFilter{})
		require.NoError(t, err)

		var saltAlert *alertapp.AlertResponse
		for i := range active.Alerts {
			if active.Alerts[i].MaterialID == saltID {
				saltAlert = &active.Alerts[i]
			}
		}
		require.NotNil(t, saltAlert)

		acked, err := f.alerts.Acknowledge(ctx, f.tenantID, saltAlert.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, "acknowledged", acked.Status)
		require.NotNil(t, acked.AcknowledgedBy)
		assert.Equal(t, userID, *acked.AcknowledgedBy)

		// Acknowledged alerts stay on the active list.
		stillActive, err := f.alerts.GetActiveAlerts(ctx, f.tenantID, alertapp.AlertListFilter{})
		require.NoError(t, err)
		assert.Len(t, stillActive.Alerts, 2)

		resolved, err := f.alerts.Resolve(ctx, f.tenantID, saltAlert.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, "resolved", resolved.Status)
		require.NotNil(t, resolved.ResolvedAt)

		remaining, err := f.alerts.GetActiveAlerts(ctx, f.tenantID, alertapp.AlertListFilter{})
		require.NoError(t, err)
		assert.Len(t, remaining.Alerts, 1)
	})

	t.Run("resolved material can alert again", func(t *testing.T) {
		touched, err := f.alerts.EvaluateTenant(ctx, f.tenantID)
		require.NoError(t, err)
		// Salt is still empty: its resolved alert is gone, so a fresh one
		// opens next to butter's refresh.
		assert.Equal(t, 2, touched)

		active, err := f.alerts.GetActiveAlerts(ctx, f.tenantID, alertapp.AlertListFilter{})
		require.NoError(t, err)
		assert.Len(t, active.Alerts, 2)
	})
}
