package recipe

import (
	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeRecipe = "Recipe"

// Event type constants
const (
	EventTypeRecipeActivated = "recipe.activated"
)

// RecipeActivatedEvent is published when a recipe becomes the production
// recipe for its product. DeactivatedSiblings counts the recipes of the same
// product that were switched off in the same transaction.
type RecipeActivatedEvent struct {
	shared.BaseDomainEvent
	RecipeID            uuid.UUID `json:"recipe_id"`
	ProductID           uuid.UUID `json:"product_id"`
	DeactivatedSiblings int64     `json:"deactivated_siblings"`
}

// NewRecipeActivatedEvent creates a new RecipeActivatedEvent
func NewRecipeActivatedEvent(r *Recipe, deactivatedSiblings int64) *RecipeActivatedEvent {
	return &RecipeActivatedEvent{
		BaseDomainEvent:     shared.NewBaseDomainEvent(EventTypeRecipeActivated, AggregateTypeRecipe, r.ID, r.TenantID),
		RecipeID:            r.ID,
		ProductID:           r.ProductID,
		DeactivatedSiblings: deactivatedSiblings,
	}
}
