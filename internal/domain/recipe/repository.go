package recipe

import (
	"context"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/shared"
)

// RecipeRepository defines the interface for recipe persistence. Finders
// load components eagerly; the aggregate is always complete in memory.
type RecipeRepository interface {
	// FindByID finds a recipe by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Recipe, error)

	// FindByIDForTenant finds a recipe by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Recipe, error)

	// FindByProduct finds all recipes of a product
	FindByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]Recipe, error)

	// FindActiveByProduct finds the single active recipe of a product, or
	// shared.ErrNotFound when the product has none
	FindActiveByProduct(ctx context.Context, tenantID, productID uuid.UUID) (*Recipe, error)

	// FindActiveByProducts finds the active recipes for a set of products in
	// one query, keyed by product ID
	FindActiveByProducts(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]*Recipe, error)

	// FindAllForTenant finds all recipes for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Recipe, error)

	// FindActiveForTenant finds every active recipe of a tenant
	FindActiveForTenant(ctx context.Context, tenantID uuid.UUID) ([]Recipe, error)

	// FindActiveByComponentMaterial finds active recipes that consume the
	// given material
	FindActiveByComponentMaterial(ctx context.Context, tenantID, materialID uuid.UUID) ([]Recipe, error)

	// Save creates or updates a recipe together with its components
	Save(ctx context.Context, recipe *Recipe) error

	// ActivateExclusive marks the recipe active and deactivates every sibling
	// recipe of the same product in one transaction. Returns the number of
	// siblings deactivated.
	ActivateExclusive(ctx context.Context, tenantID, recipeID, productID uuid.UUID) (int64, error)

	// DeleteForTenant deletes a recipe and its components within a tenant
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	// CountForTenant counts recipes for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}

// RecipeAttachmentRepository defines the interface for attachment metadata
// persistence.
type RecipeAttachmentRepository interface {
	// FindByIDForTenant finds an attachment by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*RecipeAttachment, error)

	// FindByRecipe finds the non-deleted attachments of a recipe
	FindByRecipe(ctx context.Context, tenantID, recipeID uuid.UUID) ([]RecipeAttachment, error)

	// Save creates or updates an attachment
	Save(ctx context.Context, attachment *RecipeAttachment) error

	// DeleteForTenant removes an attachment row within a tenant
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}
