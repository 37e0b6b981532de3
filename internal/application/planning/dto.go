package planning

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BulkAvailabilityRequest asks for availability of several products at once.
type BulkAvailabilityRequest struct {
	ProductIDs []uuid.UUID `json:"product_ids" binding:"required,min=1"`
}

// BatchRequirementsRequest asks what a production run of a product would
// consume.
type BatchRequirementsRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int64     `json:"quantity" binding:"required,gt=0"`
}

// ProductionPlanEntry is one (product, quantity) pair of a production plan.
type ProductionPlanEntry struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int64     `json:"quantity" binding:"required,gt=0"`
}

// MultiProductBatchRequest is a production plan across several products.
// Entries naming the same product are summed.
type MultiProductBatchRequest struct {
	Plan []ProductionPlanEntry `json:"plan" binding:"required,min=1,dive"`
}

// SimulateProductionRequest asks for a dry run of a production commit.
type SimulateProductionRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int64     `json:"quantity" binding:"required,gt=0"`
}

// ComponentDetail is the per-component breakdown of an availability
// calculation.
type ComponentDetail struct {
	MaterialID        uuid.UUID       `json:"material_id"`
	MaterialSKU       string          `json:"material_sku"`
	MaterialName      string          `json:"material_name"`
	Unit              string          `json:"unit"`
	QuantityRequired  decimal.Decimal `json:"quantity_required"`
	WastePercentage   decimal.Decimal `json:"waste_percentage"`
	EffectiveQuantity decimal.Decimal `json:"effective_quantity"`
	CurrentStock      decimal.Decimal `json:"current_stock"`
	UnitsAvailable    int64           `json:"units_available"`
}

// AvailabilityResponse reports how many units of a product current stock
// supports. A product without an active recipe reports zero availability
// with a message rather than an error.
type AvailabilityResponse struct {
	ProductID            uuid.UUID         `json:"product_id"`
	ProductSKU           string            `json:"product_sku"`
	ProductName          string            `json:"product_name"`
	AvailableQuantity    int64             `json:"available_quantity"`
	CanProduce           bool              `json:"can_produce"`
	BottleneckMaterialID *uuid.UUID        `json:"bottleneck_material_id,omitempty"`
	BottleneckMaterial   string            `json:"bottleneck_material,omitempty"`
	Message              string            `json:"message,omitempty"`
	ComponentDetails     []ComponentDetail `json:"component_details"`
}

// BulkAvailabilityEntry is the availability of one product in a bulk
// calculation. Structural failures land in Error instead of aborting the
// whole batch.
type BulkAvailabilityEntry struct {
	ProductID          uuid.UUID `json:"product_id"`
	ProductSKU         string    `json:"product_sku,omitempty"`
	ProductName        string    `json:"product_name,omitempty"`
	AvailableQuantity  int64     `json:"available_quantity"`
	CanProduce         bool      `json:"can_produce"`
	BottleneckMaterial string    `json:"bottleneck_material,omitempty"`
	Message            string    `json:"message,omitempty"`
	Error              string    `json:"error,omitempty"`
}

// FeasibilityResponse reports whether a requested quantity can be produced
// from current stock.
type FeasibilityResponse struct {
	ProductID         uuid.UUID `json:"product_id"`
	RequestedQuantity int64     `json:"requested_quantity"`
	AvailableQuantity int64     `json:"available_quantity"`
	Shortage          int64     `json:"shortage"`
	IsFeasible        bool      `json:"is_feasible"`
}

// MaterialRequirement is one material line of a requirements calculation.
type MaterialRequirement struct {
	MaterialID        uuid.UUID       `json:"material_id"`
	MaterialSKU       string          `json:"material_sku"`
	MaterialName      string          `json:"material_name"`
	Unit              string          `json:"unit"`
	QuantityRequired  decimal.Decimal `json:"quantity_required"`
	EffectiveQuantity decimal.Decimal `json:"effective_quantity"`
	TotalRequired     decimal.Decimal `json:"total_required"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	CurrentStock      decimal.Decimal `json:"current_stock"`
	Sufficient        bool            `json:"sufficient"`
}

// RequirementsResponse prices a production run of a given quantity.
// Insufficient components are flagged per line, never raised as errors, so
// the caller always sees the complete picture.
type RequirementsResponse struct {
	ProductID    uuid.UUID             `json:"product_id"`
	ProductName  string                `json:"product_name"`
	Quantity     int64                 `json:"quantity"`
	Requirements []MaterialRequirement `json:"requirements"`
	TotalCost    decimal.Decimal       `json:"total_cost"`
	CostPerUnit  decimal.Decimal       `json:"cost_per_unit"`
}

// MaterialShortage is a component whose requirement exceeds current stock.
type MaterialShortage struct {
	MaterialID   uuid.UUID       `json:"material_id"`
	MaterialSKU  string          `json:"material_sku"`
	MaterialName string          `json:"material_name"`
	Unit         string          `json:"unit"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
	Shortage     decimal.Decimal `json:"shortage"`
}

// BatchRequirementsResponse is a requirements calculation with the shortage
// list pulled out for batch planning.
type BatchRequirementsResponse struct {
	RequirementsResponse
	Shortages  []MaterialShortage `json:"shortages"`
	CanProduce bool               `json:"can_produce"`
}

// BatchPlanResponse suggests how to split the producible maximum into equal
// batch runs.
type BatchPlanResponse struct {
	ProductID            uuid.UUID  `json:"product_id"`
	ProductName          string     `json:"product_name"`
	MaximumProducible    int64      `json:"maximum_producible"`
	SuggestedBatches     []int64    `json:"suggested_batches"`
	Recommendation       string     `json:"recommendation"`
	BottleneckMaterialID *uuid.UUID `json:"bottleneck_material_id,omitempty"`
	BottleneckMaterial   string     `json:"bottleneck_material,omitempty"`
}

// AggregatedRequirement is one material row of a multi-product plan: the
// summed requirement across every product in the plan.
type AggregatedRequirement struct {
	MaterialID    uuid.UUID       `json:"material_id"`
	MaterialSKU   string          `json:"material_sku"`
	MaterialName  string          `json:"material_name"`
	Unit          string          `json:"unit"`
	TotalRequired decimal.Decimal `json:"total_required"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
	Shortage      decimal.Decimal `json:"shortage"`
	Sufficient    bool            `json:"sufficient"`
}

// ProductPlanError is a per-product structural failure inside a
// multi-product plan.
type ProductPlanError struct {
	ProductID uuid.UUID `json:"product_id"`
	Error     string    `json:"error"`
}

// MultiProductPlanResponse is the outcome of planning several products
// against shared material stock. Feasible only when every aggregated
// requirement fits current stock and no product failed structurally.
type MultiProductPlanResponse struct {
	TotalProducts                  int                     `json:"total_products"`
	AggregatedMaterialRequirements []AggregatedRequirement `json:"aggregated_material_requirements"`
	ProductErrors                  []ProductPlanError      `json:"product_errors,omitempty"`
	Feasible                       bool                    `json:"feasible"`
}

// MaterialChange is the before/after stock picture for one material in a
// production simulation. After may be negative: the preview shows what the
// ledger would reject.
type MaterialChange struct {
	MaterialID   uuid.UUID       `json:"material_id"`
	MaterialSKU  string          `json:"material_sku"`
	MaterialName string          `json:"material_name"`
	Unit         string          `json:"unit"`
	Before       decimal.Decimal `json:"before"`
	Change       decimal.Decimal `json:"change"`
	After        decimal.Decimal `json:"after"`
	Sufficient   bool            `json:"sufficient"`
}

// SimulationResponse is a dry run of a production commit. Nothing is
// persisted.
type SimulationResponse struct {
	ProductID       uuid.UUID        `json:"product_id"`
	ProductName     string           `json:"product_name"`
	Quantity        int64            `json:"quantity"`
	MaterialChanges []MaterialChange `json:"material_changes"`
	ProductionCost  decimal.Decimal  `json:"production_cost"`
	CanExecute      bool             `json:"can_execute"`
}

// AffectedProduct names a product whose active recipe consumes a low
// material.
type AffectedProduct struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductSKU  string    `json:"product_sku"`
	ProductName string    `json:"product_name"`
}

// LowStockRecipeMaterial is a low or depleted material that at least one
// active recipe depends on, with the products it would bottleneck.
type LowStockRecipeMaterial struct {
	MaterialID       uuid.UUID         `json:"material_id"`
	MaterialSKU      string            `json:"material_sku"`
	MaterialName     string            `json:"material_name"`
	Unit             string            `json:"unit"`
	CurrentStock     decimal.Decimal   `json:"current_stock"`
	ReorderLevel     decimal.Decimal   `json:"reorder_level"`
	StockStatus      string            `json:"stock_status"`
	AffectedProducts []AffectedProduct `json:"affected_products"`
}
