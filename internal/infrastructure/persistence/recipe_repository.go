package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/recipe"
	"github.com/mrp/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// RecipeSortFields contains allowed sort fields for recipes
var RecipeSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"name":           true,
	"product_id":     true,
	"is_active":      true,
	"yield_quantity": true,
	"lifecycle":      true,
}

// GormRecipeRepository implements RecipeRepository using GORM. Every finder
// preloads the component lines so the aggregate is complete in memory.
type GormRecipeRepository struct {
	db *gorm.DB
}

// NewGormRecipeRepository creates a new GormRecipeRepository
func NewGormRecipeRepository(db *gorm.DB) *GormRecipeRepository {
	return &GormRecipeRepository{db: db}
}

// FindByID finds a recipe by its ID
func (r *GormRecipeRepository) FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	var rec recipe.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Components").
		First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// FindByIDForTenant finds a recipe by ID within a tenant
func (r *GormRecipeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*recipe.Recipe, error) {
	var rec recipe.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Components").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// FindByProduct finds all recipes of a product
func (r *GormRecipeRepository) FindByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]recipe.Recipe, error) {
	var recipes []recipe.Recipe
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&recipe.Recipe{}).
			Where("tenant_id = ? AND product_id = ?", tenantID, productID),
		filter,
	)

	if err := query.Preload("Components").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// FindActiveByProduct finds the single active recipe of a product
func (r *GormRecipeRepository) FindActiveByProduct(ctx context.Context, tenantID, productID uuid.UUID) (*recipe.Recipe, error) {
	var rec recipe.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Components").
		Where("tenant_id = ? AND product_id = ? AND is_active = ?", tenantID, productID, true).
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// FindActiveByProducts finds the active recipes for a set of products in one
// query, keyed by product ID. Products without an active recipe are absent.
func (r *GormRecipeRepository) FindActiveByProducts(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]*recipe.Recipe, error) {
	if len(productIDs) == 0 {
		return map[uuid.UUID]*recipe.Recipe{}, nil
	}

	var recipes []recipe.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Components").
		Where("tenant_id = ? AND product_id IN ? AND is_active = ?", tenantID, productIDs, true).
		Find(&recipes).Error; err != nil {
		return nil, err
	}

	byProduct := make(map[uuid.UUID]*recipe.Recipe, len(recipes))
	for i := range recipes {
		byProduct[recipes[i].ProductID] = &recipes[i]
	}
	return byProduct, nil
}

// FindAllForTenant finds all recipes for a tenant
func (r *GormRecipeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]recipe.Recipe, error) {
	var recipes []recipe.Recipe
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&recipe.Recipe{}).
			Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Preload("Components").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// FindActiveForTenant finds every active recipe of a tenant
func (r *GormRecipeRepository) FindActiveForTenant(ctx context.Context, tenantID uuid.UUID) ([]recipe.Recipe, error) {
	var recipes []recipe.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Components").
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Order("name ASC").
		Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// FindActiveByComponentMaterial finds active recipes that consume the given
// material. A material appears at most once per recipe, so the join cannot
// duplicate rows.
func (r *GormRecipeRepository) FindActiveByComponentMaterial(ctx context.Context, tenantID, materialID uuid.UUID) ([]recipe.Recipe, error) {
	var recipes []recipe.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Components").
		Joins("JOIN recipe_components rc ON rc.recipe_id = recipes.id").
		Where("recipes.tenant_id = ? AND recipes.is_active = ? AND rc.material_id = ?", tenantID, true, materialID).
		Order("recipes.name ASC").
		Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// Save creates or updates a recipe together with its components
func (r *GormRecipeRepository) Save(ctx context.Context, rec *recipe.Recipe) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Save the recipe
		if err := tx.Save(rec).Error; err != nil {
			return err
		}

		// Handle components: delete removed lines and save/update existing ones
		if rec.ID != uuid.Nil {
			// Get current component IDs
			currentComponentIDs := make([]uuid.UUID, len(rec.Components))
			for i, component := range rec.Components {
				currentComponentIDs[i] = component.ID
			}

			// Delete components not in the current list
			if len(currentComponentIDs) > 0 {
				if err := tx.Where("recipe_id = ? AND id NOT IN ?", rec.ID, currentComponentIDs).
					Delete(&recipe.RecipeComponent{}).Error; err != nil {
					return err
				}
			} else {
				// Delete all components if none remain
				if err := tx.Where("recipe_id = ?", rec.ID).
					Delete(&recipe.RecipeComponent{}).Error; err != nil {
					return err
				}
			}

			// Save/update remaining components
			for i := range rec.Components {
				rec.Components[i].RecipeID = rec.ID
				if err := tx.Save(&rec.Components[i]).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
}

// ActivateExclusive marks the recipe active and deactivates every sibling
// recipe of the same product in one transaction. Returns the number of
// siblings deactivated.
func (r *GormRecipeRepository) ActivateExclusive(ctx context.Context, tenantID, recipeID, productID uuid.UUID) (int64, error) {
	var deactivated int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Deactivate siblings first so the partial unique index on active
		// recipes never sees two active rows for the same product.
		siblings := tx.Model(&recipe.Recipe{}).
			Where("tenant_id = ? AND product_id = ? AND id <> ? AND is_active = ?", tenantID, productID, recipeID, true).
			Updates(map[string]interface{}{
				"is_active":  false,
				"version":    gorm.Expr("version + 1"),
				"updated_at": time.Now(),
			})
		if siblings.Error != nil {
			return siblings.Error
		}
		deactivated = siblings.RowsAffected

		// Activate the target
		result := tx.Model(&recipe.Recipe{}).
			Where("tenant_id = ? AND id = ?", tenantID, recipeID).
			Updates(map[string]interface{}{
				"is_active":  true,
				"version":    gorm.Expr("version + 1"),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deactivated, nil
}

// DeleteForTenant deletes a recipe and its components within a tenant
func (r *GormRecipeRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Find the recipe first
		var rec recipe.Recipe
		if err := tx.Where("tenant_id = ? AND id = ?", tenantID, id).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		// Delete components
		if err := tx.Where("recipe_id = ?", id).Delete(&recipe.RecipeComponent{}).Error; err != nil {
			return err
		}

		// Delete recipe
		result := tx.Delete(&recipe.Recipe{}, "tenant_id = ? AND id = ?", tenantID, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// CountForTenant counts recipes for a tenant
func (r *GormRecipeRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&recipe.Recipe{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormRecipeRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering with whitelist validation to prevent SQL injection
	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, RecipeSortFields, "")
		if sortField != "" {
			query = query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))
			return query
		}
	}
	return query.Order("name ASC")
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormRecipeRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	// Apply search
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ?", searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "is_active":
			query = query.Where("is_active = ?", value)
		case "lifecycle":
			query = query.Where("lifecycle = ?", value)
		}
	}

	return query
}

// Ensure GormRecipeRepository implements RecipeRepository
var _ recipe.RecipeRepository = (*GormRecipeRepository)(nil)
