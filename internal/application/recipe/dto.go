package recipe

import (
	"time"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/recipe"
	"github.com/shopspring/decimal"
)

// ComponentInput is one material line in a create request
type ComponentInput struct {
	MaterialID       uuid.UUID       `json:"material_id" binding:"required"`
	QuantityRequired decimal.Decimal `json:"quantity_required" binding:"required"`
	WastePercentage  decimal.Decimal `json:"waste_percentage"`
}

// CreateRecipeRequest represents a request to create a new recipe
type CreateRecipeRequest struct {
	ProductID     uuid.UUID        `json:"product_id" binding:"required"`
	Name          string           `json:"name" binding:"required,min=1,max=200"`
	YieldQuantity decimal.Decimal  `json:"yield_quantity" binding:"required"`
	YieldUnit     string           `json:"yield_unit" binding:"required,unit"`
	Notes         string           `json:"notes" binding:"omitempty,max=2000"`
	Components    []ComponentInput `json:"components" binding:"omitempty,dive"`
}

// UpdateRecipeRequest represents a request to update a recipe's descriptive
// fields. Components are managed through the component endpoints.
type UpdateRecipeRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1,max=200"`
	YieldQuantity *decimal.Decimal `json:"yield_quantity"`
	YieldUnit     *string          `json:"yield_unit" binding:"omitempty,unit"`
	Notes         *string          `json:"notes" binding:"omitempty,max=2000"`
}

// AddComponentRequest represents a request to add a material line
type AddComponentRequest struct {
	MaterialID       uuid.UUID       `json:"material_id" binding:"required"`
	QuantityRequired decimal.Decimal `json:"quantity_required" binding:"required"`
	WastePercentage  decimal.Decimal `json:"waste_percentage"`
}

// UpdateComponentRequest represents a request to change an existing line
type UpdateComponentRequest struct {
	QuantityRequired decimal.Decimal `json:"quantity_required" binding:"required"`
	WastePercentage  decimal.Decimal `json:"waste_percentage"`
}

// RecipeListFilter represents filter options for the recipe list
type RecipeListFilter struct {
	Search    string     `form:"search"`
	ProductID *uuid.UUID `form:"product_id"`
	Lifecycle string     `form:"lifecycle" binding:"omitempty,oneof=active archived"`
	IsActive  *bool      `form:"is_active"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ComponentResponse represents a recipe component in API responses.
// EffectiveQuantity is the per-unit consumption with waste factored in.
type ComponentResponse struct {
	ID                uuid.UUID       `json:"id"`
	MaterialID        uuid.UUID       `json:"material_id"`
	QuantityRequired  decimal.Decimal `json:"quantity_required"`
	WastePercentage   decimal.Decimal `json:"waste_percentage"`
	EffectiveQuantity decimal.Decimal `json:"effective_quantity"`
}

// RecipeResponse represents a recipe in API responses
type RecipeResponse struct {
	ID            uuid.UUID           `json:"id"`
	TenantID      uuid.UUID           `json:"tenant_id"`
	ProductID     uuid.UUID           `json:"product_id"`
	Name          string              `json:"name"`
	YieldQuantity decimal.Decimal     `json:"yield_quantity"`
	YieldUnit     string              `json:"yield_unit"`
	IsActive      bool                `json:"is_active"`
	Notes         string              `json:"notes,omitempty"`
	Lifecycle     string              `json:"lifecycle"`
	Components    []ComponentResponse `json:"components"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Version       int                 `json:"version"`
}

// RecipeListResponse represents a list item for recipes
type RecipeListResponse struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	Name           string          `json:"name"`
	YieldQuantity  decimal.Decimal `json:"yield_quantity"`
	YieldUnit      string          `json:"yield_unit"`
	IsActive       bool            `json:"is_active"`
	Lifecycle      string          `json:"lifecycle"`
	ComponentCount int             `json:"component_count"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ActivationResponse reports the outcome of an exclusive activation
type ActivationResponse struct {
	RecipeID            uuid.UUID `json:"recipe_id"`
	ProductID           uuid.UUID `json:"product_id"`
	DeactivatedSiblings int64     `json:"deactivated_siblings"`
}

// ToComponentResponse converts a domain RecipeComponent to ComponentResponse
func ToComponentResponse(c *recipe.RecipeComponent) ComponentResponse {
	return ComponentResponse{
		ID:                c.ID,
		MaterialID:        c.MaterialID,
		QuantityRequired:  c.QuantityRequired,
		WastePercentage:   c.WastePercentage,
		EffectiveQuantity: c.EffectiveQuantity(),
	}
}

// ToRecipeResponse converts a domain Recipe to RecipeResponse
func ToRecipeResponse(r *recipe.Recipe) RecipeResponse {
	components := make([]ComponentResponse, len(r.Components))
	for i := range r.Components {
		components[i] = ToComponentResponse(&r.Components[i])
	}
	return RecipeResponse{
		ID:            r.ID,
		TenantID:      r.TenantID,
		ProductID:     r.ProductID,
		Name:          r.Name,
		YieldQuantity: r.YieldQuantity,
		YieldUnit:     string(r.YieldUnit),
		IsActive:      r.IsActive,
		Notes:         r.Notes,
		Lifecycle:     string(r.Lifecycle),
		Components:    components,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		Version:       r.Version,
	}
}

// ToRecipeListResponse converts a domain Recipe to RecipeListResponse
func ToRecipeListResponse(r *recipe.Recipe) RecipeListResponse {
	return RecipeListResponse{
		ID:             r.ID,
		ProductID:      r.ProductID,
		Name:           r.Name,
		YieldQuantity:  r.YieldQuantity,
		YieldUnit:      string(r.YieldUnit),
		IsActive:       r.IsActive,
		Lifecycle:      string(r.Lifecycle),
		ComponentCount: len(r.Components),
		UpdatedAt:      r.UpdatedAt,
	}
}

// ToRecipeListResponses converts a slice of domain Recipes to RecipeListResponses
func ToRecipeListResponses(recipes []recipe.Recipe) []RecipeListResponse {
	responses := make([]RecipeListResponse, len(recipes))
	for i := range recipes {
		responses[i] = ToRecipeListResponse(&recipes[i])
	}
	return responses
}
