package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	SKU           string           `json:"sku" binding:"required,min=1,max=50"`
	Name          string           `json:"name" binding:"required,min=1,max=200"`
	Description   string           `json:"description" binding:"max=2000"`
	Unit          string           `json:"unit" binding:"required"`
	InventoryMode string           `json:"inventory_mode" binding:"omitempty,oneof=bom_managed simple"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description   *string          `json:"description" binding:"omitempty,max=2000"`
	InventoryMode *string          `json:"inventory_mode" binding:"omitempty,oneof=bom_managed simple"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID            uuid.UUID       `json:"id"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Unit          string          `json:"unit"`
	InventoryMode string          `json:"inventory_mode"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	Lifecycle     string          `json:"lifecycle"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// ProductListResponse represents a list item for products
type ProductListResponse struct {
	ID            uuid.UUID       `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	InventoryMode string          `json:"inventory_mode"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	Lifecycle     string          `json:"lifecycle"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ProductListFilter represents filter options for the product list
type ProductListFilter struct {
	Search        string `form:"search"`
	Lifecycle     string `form:"lifecycle" binding:"omitempty,oneof=active archived"`
	InventoryMode string `form:"inventory_mode" binding:"omitempty,oneof=bom_managed simple"`
	Unit          string `form:"unit"`
	Page          int    `form:"page" binding:"min=0"`
	PageSize      int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy       string `form:"order_by"`
	OrderDir      string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		TenantID:      p.TenantID,
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		Unit:          string(p.Unit),
		InventoryMode: string(p.InventoryMode),
		SellingPrice:  p.SellingPrice,
		Lifecycle:     string(p.Lifecycle),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		Version:       p.Version,
	}
}

// ToProductListResponse converts a domain Product to ProductListResponse
func ToProductListResponse(p *catalog.Product) ProductListResponse {
	return ProductListResponse{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Unit:          string(p.Unit),
		InventoryMode: string(p.InventoryMode),
		SellingPrice:  p.SellingPrice,
		Lifecycle:     string(p.Lifecycle),
		CreatedAt:     p.CreatedAt,
	}
}

// ToProductListResponses converts a slice of domain Products to list responses
func ToProductListResponses(products []catalog.Product) []ProductListResponse {
	responses := make([]ProductListResponse, len(products))
	for i := range products {
		responses[i] = ToProductListResponse(&products[i])
	}
	return responses
}
