package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// MaterialResponse represents a material in API responses
type MaterialResponse struct {
	ID                  uuid.UUID       `json:"id"`
	TenantID            uuid.UUID       `json:"tenant_id"`
	SKU                 string          `json:"sku"`
	Name                string          `json:"name"`
	Description         string          `json:"description,omitempty"`
	Unit                string          `json:"unit"`
	StockQuantity       decimal.Decimal `json:"stock_quantity"`
	ReorderLevel        decimal.Decimal `json:"reorder_level"`
	UnitCost            decimal.Decimal `json:"unit_cost"`
	StockValue          decimal.Decimal `json:"stock_value"`
	StockStatus         string          `json:"stock_status"`
	IsBelowReorderLevel bool            `json:"is_below_reorder_level"`
	Lifecycle           string          `json:"lifecycle"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Version             int             `json:"version"`
}

// CreateMaterialRequest represents a request to create a material
type CreateMaterialRequest struct {
	SKU          string          `json:"sku" binding:"required,min=1,max=50"`
	Name         string          `json:"name" binding:"required,min=1,max=200"`
	Description  string          `json:"description"`
	Unit         string          `json:"unit" binding:"required,unit"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

// UpdateMaterialRequest represents a request to update a material's
// descriptive fields. Stock is never updated here; it only moves through
// ledger adjustments.
type UpdateMaterialRequest struct {
	Name         string           `json:"name" binding:"required,min=1,max=200"`
	Description  string           `json:"description"`
	Unit         *string          `json:"unit" binding:"omitempty,unit"`
	ReorderLevel *decimal.Decimal `json:"reorder_level"`
	UnitCost     *decimal.Decimal `json:"unit_cost"`
}

// MaterialListFilter represents filter options for the material list
type MaterialListFilter struct {
	Search            string `form:"search"`
	Lifecycle         string `form:"lifecycle" binding:"omitempty,oneof=active archived"`
	StockStatus       string `form:"stock_status" binding:"omitempty,oneof=normal low critical out_of_stock"`
	Unit              string `form:"unit"`
	BelowReorderLevel *bool  `form:"below_reorder_level"`
	Page              int    `form:"page" binding:"min=0"`
	PageSize          int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy           string `form:"order_by"`
	OrderDir          string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// AdjustStockRequest represents a request to record a stock movement in the
// ledger. Quantity is signed: restocks must be positive, deductions negative,
// adjustments either (but not zero).
type AdjustStockRequest struct {
	MaterialID     uuid.UUID       `json:"material_id" binding:"required"`
	Type           string          `json:"type" binding:"required,oneof=restock deduction adjustment"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	Reason         string          `json:"reason" binding:"required,min=1,max=255"`
	Notes          string          `json:"notes"`
	ReferenceType  string          `json:"reference_type" binding:"omitempty,oneof=production_run purchase_order stock_take import manual"`
	ReferenceID    *uuid.UUID      `json:"reference_id"`
	OperatorID     *uuid.UUID      `json:"operator_id"`
	IdempotencyKey string          `json:"idempotency_key" binding:"omitempty,max=128"`
}

// TransactionResponse represents a ledger entry in API responses
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	MaterialID      uuid.UUID       `json:"material_id"`
	TransactionType string          `json:"transaction_type"`
	QuantityBefore  decimal.Decimal `json:"quantity_before"`
	QuantityChange  decimal.Decimal `json:"quantity_change"`
	QuantityAfter   decimal.Decimal `json:"quantity_after"`
	Reason          string          `json:"reason"`
	Notes           string          `json:"notes,omitempty"`
	ReferenceType   *string         `json:"reference_type,omitempty"`
	ReferenceID     *uuid.UUID      `json:"reference_id,omitempty"`
	OperatorID      *uuid.UUID      `json:"operator_id,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TransactionListFilter represents filter options for the ledger listing
type TransactionListFilter struct {
	MaterialID      *uuid.UUID `form:"material_id"`
	TransactionType string     `form:"transaction_type" binding:"omitempty,oneof=restock deduction adjustment"`
	ReferenceType   string     `form:"reference_type"`
	StartDate       *time.Time `form:"start_date"`
	EndDate         *time.Time `form:"end_date"`
	Page            int        `form:"page" binding:"min=0"`
	PageSize        int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy         string     `form:"order_by"`
	OrderDir        string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// BlockingRecipeRef identifies an active recipe that prevents a material
// from being archived.
type BlockingRecipeRef struct {
	RecipeID   uuid.UUID `json:"recipe_id"`
	RecipeName string    `json:"recipe_name"`
	ProductID  uuid.UUID `json:"product_id"`
}

// DeletionCheckResponse reports whether a material can be archived and, if
// not, the active recipes that block it.
type DeletionCheckResponse struct {
	CanBeDeleted    bool                `json:"can_be_deleted"`
	BlockingRecipes []BlockingRecipeRef `json:"blocking_recipes,omitempty"`
}

// ToMaterialResponse converts domain Material to response DTO
func ToMaterialResponse(m *inventory.Material) MaterialResponse {
	return MaterialResponse{
		ID:                  m.ID,
		TenantID:            m.TenantID,
		SKU:                 m.SKU,
		Name:                m.Name,
		Description:         m.Description,
		Unit:                string(m.Unit),
		StockQuantity:       m.StockQuantity,
		ReorderLevel:        m.ReorderLevel,
		UnitCost:            m.UnitCost,
		StockValue:          m.StockValue(),
		StockStatus:         string(m.StockStatus()),
		IsBelowReorderLevel: m.IsBelowReorderLevel(),
		Lifecycle:           string(m.Lifecycle),
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
		Version:             m.Version,
	}
}

// ToMaterialResponses converts a slice of domain Materials to responses
func ToMaterialResponses(materials []inventory.Material) []MaterialResponse {
	responses := make([]MaterialResponse, len(materials))
	for i := range materials {
		responses[i] = ToMaterialResponse(&materials[i])
	}
	return responses
}

// ToTransactionResponse converts a domain ledger entry to a response DTO
func ToTransactionResponse(tx *inventory.InventoryTransaction) TransactionResponse {
	resp := TransactionResponse{
		ID:              tx.ID,
		TenantID:        tx.TenantID,
		MaterialID:      tx.MaterialID,
		TransactionType: string(tx.TransactionType),
		QuantityBefore:  tx.QuantityBefore,
		QuantityChange:  tx.QuantityChange,
		QuantityAfter:   tx.QuantityAfter,
		Reason:          tx.Reason,
		Notes:           tx.Notes,
		ReferenceID:     tx.ReferenceID,
		OperatorID:      tx.OperatorID,
		TransactionDate: tx.TransactionDate,
		CreatedAt:       tx.CreatedAt,
	}
	if tx.ReferenceType != nil {
		refType := string(*tx.ReferenceType)
		resp.ReferenceType = &refType
	}
	return resp
}

// ToTransactionResponses converts a slice of domain ledger entries to responses
func ToTransactionResponses(txs []inventory.InventoryTransaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txs))
	for i := range txs {
		responses[i] = ToTransactionResponse(&txs[i])
	}
	return responses
}
