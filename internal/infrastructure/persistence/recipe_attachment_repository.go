package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/recipe"
	"github.com/mrp/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormRecipeAttachmentRepository implements RecipeAttachmentRepository using GORM
type GormRecipeAttachmentRepository struct {
	db *gorm.DB
}

// NewGormRecipeAttachmentRepository creates a new GormRecipeAttachmentRepository
func NewGormRecipeAttachmentRepository(db *gorm.DB) *GormRecipeAttachmentRepository {
	return &GormRecipeAttachmentRepository{db: db}
}

// FindByIDForTenant finds an attachment by ID within a tenant
func (r *GormRecipeAttachmentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*recipe.RecipeAttachment, error) {
	var attachment recipe.RecipeAttachment
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&attachment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &attachment, nil
}

// FindByRecipe finds the non-deleted attachments of a recipe, newest first
func (r *GormRecipeAttachmentRepository) FindByRecipe(ctx context.Context, tenantID, recipeID uuid.UUID) ([]recipe.RecipeAttachment, error) {
	var attachments []recipe.RecipeAttachment
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND recipe_id = ? AND status <> ?", tenantID, recipeID, recipe.AttachmentStatusDeleted).
		Order("created_at DESC").
		Find(&attachments).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}

// Save creates or updates an attachment
func (r *GormRecipeAttachmentRepository) Save(ctx context.Context, attachment *recipe.RecipeAttachment) error {
	return r.db.WithContext(ctx).Save(attachment).Error
}

// DeleteForTenant removes an attachment row within a tenant
func (r *GormRecipeAttachmentRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&recipe.RecipeAttachment{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormRecipeAttachmentRepository implements RecipeAttachmentRepository
var _ recipe.RecipeAttachmentRepository = (*GormRecipeAttachmentRepository)(nil)
