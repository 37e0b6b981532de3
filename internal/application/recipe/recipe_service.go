package recipe

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/catalog"
	"github.com/mrp/backend/internal/domain/inventory"
	"github.com/mrp/backend/internal/domain/recipe"
	"github.com/mrp/backend/internal/domain/shared"
	"github.com/mrp/backend/internal/domain/shared/valueobject"
)

// RecipeService manages recipes and their component lines. Activation is the
// one operation with cross-row semantics: at most one recipe per product may
// be active, enforced by the repository inside a single transaction.
type RecipeService struct {
	recipeRepo     recipe.RecipeRepository
	productRepo    catalog.ProductRepository
	materialRepo   inventory.MaterialRepository
	eventPublisher shared.EventPublisher
}

// NewRecipeService creates a new RecipeService
func NewRecipeService(
	recipeRepo recipe.RecipeRepository,
	productRepo catalog.ProductRepository,
	materialRepo inventory.MaterialRepository,
) *RecipeService {
	return &RecipeService{
		recipeRepo:   recipeRepo,
		productRepo:  productRepo,
		materialRepo: materialRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *RecipeService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishDomainEvents publishes all domain events from the recipe
func (s *RecipeService) publishDomainEvents(ctx context.Context, rec *recipe.Recipe) {
	if s.eventPublisher == nil {
		return
	}
	events := rec.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Publish events (errors are logged by the event bus, not propagated)
	_ = s.eventPublisher.Publish(ctx, events...)
	// Clear events after publishing
	rec.ClearDomainEvents()
}

// Create creates a new inactive recipe for a product, optionally with its
// component lines. Every referenced material must exist in the tenant and be
// active.
func (s *RecipeService) Create(ctx context.Context, tenantID uuid.UUID, req CreateRecipeRequest) (*RecipeResponse, error) {
	if _, err := s.productRepo.FindByIDForTenant(ctx, tenantID, req.ProductID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
		}
		return nil, err
	}

	yieldUnit, err := valueobject.ParseUnit(req.YieldUnit)
	if err != nil {
		return nil, err
	}

	rec, err := recipe.NewRecipe(tenantID, req.ProductID, req.Name, req.YieldQuantity, yieldUnit)
	if err != nil {
		return nil, err
	}
	if req.Notes != "" {
		if err := rec.Update(rec.Name, rec.YieldQuantity, rec.YieldUnit, req.Notes); err != nil {
			return nil, err
		}
	}

	if len(req.Components) > 0 {
		if err := s.validateMaterials(ctx, tenantID, componentMaterialIDs(req.Components)); err != nil {
			return nil, err
		}
		for _, c := range req.Components {
			if err := rec.AddComponent(c.MaterialID, c.QuantityRequired, c.WastePercentage); err != nil {
				return nil, err
			}
		}
	}

	if err := s.recipeRepo.Save(ctx, rec); err != nil {
		return nil, err
	}

	response := ToRecipeResponse(rec)
	return &response, nil
}

// GetByID retrieves a recipe with its components
func (s *RecipeService) GetByID(ctx context.Context, tenantID, recipeID uuid.UUID) (*RecipeResponse, error) {
	rec, err := s.recipeRepo.FindByIDForTenant(ctx, tenantID, recipeID)
	if err != nil {
		return nil, err
	}
	response := ToRecipeResponse(rec)
	return &response, nil
}

// List retrieves recipes with filtering and pagination. When a product filter
// is set the query is scoped to that product's recipes.
func (s *RecipeService) List(ctx context.Context, tenantID uuid.UUID, filter RecipeListFilter) ([]RecipeListResponse, int64, error) {
	// Set defaults
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "updated_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	// Build domain filter
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}

	if filter.Lifecycle != "" {
		domainFilter.Filters["lifecycle"] = filter.Lifecycle
	}
	if filter.IsActive != nil {
		domainFilter.Filters["is_active"] = *filter.IsActive
	}

	var recipes []recipe.Recipe
	var err error
	if filter.ProductID != nil {
		domainFilter.Filters["product_id"] = *filter.ProductID
		recipes, err = s.recipeRepo.FindByProduct(ctx, tenantID, *filter.ProductID, domainFilter)
	} else {
		recipes, err = s.recipeRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	}
	if err != nil {
		return nil, 0, err
	}

	total, err := s.recipeRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToRecipeListResponses(recipes), total, nil
}

// Update updates a recipe's descriptive fields
func (s *RecipeService) Update(ctx context.Context, tenantID, recipeID uuid.UUID, req UpdateRecipeRequest) (*RecipeResponse, error) {
	rec, err := s.recipeRepo.FindByIDForTenant(ctx, tenantID, recipeID)
	if err != nil {
		return nil, err
	}

	name := rec.Name
	if req.Name != nil {
		name = *req.Name
	}
	yieldQuantity := rec.YieldQuantity
	if req.YieldQuantity != nil {
		yieldQuantity = *req.YieldQuantity
	}
	yieldUnit := rec.YieldUnit
	if req.YieldUnit != nil {
		yieldUnit, err = valueobject.ParseUnit(*req.YieldUnit)
		if err != nil {
			return nil, err
		}
	}
	notes := rec.Notes
	if req.Notes != nil {
		notes = *req.Notes
	}

	if err := rec.Update(name, yieldQuantity, yieldUnit, notes); err != nil {
		return nil, err
	}
	if err := s.recipeRepo.Save(ctx, rec); err != nil {
		return nil, err
	}

	response := ToRecipeResponse(rec)
	return &response, nil
}

// Activate marks the recipe as the production recipe for its product and
// deactivates every sibling in the same transaction. The activation event
// carries how many siblings were switched off.
func (s *RecipeService) Activate(ctx context.Context, tenantID, recipeID uuid.UUID) (*ActivationResponse, error) {
	rec, err := s.recipeRepo.FindByIDForTenant(ctx, tenantID, recipeID)
	if err != nil {
		return nil, err
	}

	// Local guards first: archived, empty or already-active recipes never
	// reach the exclusive update.
	if err := rec.Activate(); err != nil {
		return nil, err
	}

	deactivated, err := s.recipeRepo.ActivateExclusive(ctx, tenantID, rec.ID, rec.ProductID)
	if err != nil {
		return nil, err
	}

	rec.AddDomainEvent(recipe.NewRecipeActivatedEvent(rec, deactivated))
	s.publishDomainEvents(ctx, rec)

	return &ActivationResponse{
		RecipeID:            rec.ID,
		ProductID:           rec.ProductID,
		DeactivatedSiblings: deactivated,
	}, nil
}

// Archive hides the recipe and takes it out of production use
func (s *RecipeService) Archive(ctx context.Context, tenantID, recipeID uuid.UUID) error {
	rec, err := s.recipeRepo.FindByIDForTenant(ctx, tenantID, recipeID)
	if err != nil {
		return err
	}
	if err := rec.Archive(); err != nil {
		return err
	}
	return s.recipeRepo.Save(ctx, rec)
}

// Restore brings an archived recipe back without reactivating it
func (s *RecipeService) Restore(ctx context.Context, tenantID, recipeID uuid.UUID) (*RecipeResponse, error) {
	rec, err := s.recipeRepo.FindByIDForTenant(ctx, tenantID, recipeID)
	if err != nil {
		return nil, err
	}
	if err := rec.Restore(); err != nil {
		return nil, err
	}
	if err := s.recipeRepo.Save(ctx, rec); err != nil {
		return nil, err
	}

	response := ToRecipeResponse(rec)
	return &response, nil
}

// AddComponent adds a material line to the recipe
func (s *RecipeService) AddComponent(ctx context.Context, tenantID, recipeID uuid.UUID, req AddComponentRequest) (*RecipeResponse, error) {
	rec, err := s.recipeRepo.FindByIDForTenant(ctx, tenantID, recipeID)
	if err != nil {
		return nil, err
	}

	if err := s.validateMaterials(ctx, tenantID, []uuid.UUID{req.MaterialID}); err != nil {
		return nil, err
	}
	if err := rec.AddComponent(req.MaterialID, req.QuantityRequired, req.WastePercentage); err != nil {
		return nil, err
	}
	if err := s.recipeRepo.Save(ctx, rec); err != nil {
		return nil, err
	}

	response := ToRecipeResponse(rec)
	return &response, nil
}

// UpdateComponent changes the quantity or waste of an existing line
func (s *RecipeService) UpdateComponent(ctx context.Context, tenantID, recipeID, componentID uuid.UUID, req UpdateComponentRequest) (*RecipeResponse, error) {
	rec, err := s.recipeRepo.FindByIDForTenant(ctx, tenantID, recipeID)
	if err != nil {
		return nil, err
	}

	component := componentByID(rec, componentID)
	if component == nil {
		return nil, shared.NewDomainError("COMPONENT_NOT_FOUND", "Component does not belong to this recipe")
	}
	if err := rec.UpdateComponent(component.MaterialID, req.QuantityRequired, req.WastePercentage); err != nil {
		return nil, err
	}
	if err := s.recipeRepo.Save(ctx, rec); err != nil {
		return nil, err
	}

	response := ToRecipeResponse(rec)
	return &response, nil
}

// RemoveComponent removes a material line. An active recipe must keep at
// least one line; deactivate or archive it first.
func (s *RecipeService) RemoveComponent(ctx context.Context, tenantID, recipeID, componentID uuid.UUID) (*RecipeResponse, error) {
	rec, err := s.recipeRepo.FindByIDForTenant(ctx, tenantID, recipeID)
	if err != nil {
		return nil, err
	}

	component := componentByID(rec, componentID)
	if component == nil {
		return nil, shared.NewDomainError("COMPONENT_NOT_FOUND", "Component does not belong to this recipe")
	}
	if rec.IsActive && len(rec.Components) == 1 {
		return nil, shared.NewDomainError("LAST_COMPONENT",
			"An active recipe must keep at least one component")
	}
	if err := rec.RemoveComponent(component.MaterialID); err != nil {
		return nil, err
	}
	if err := s.recipeRepo.Save(ctx, rec); err != nil {
		return nil, err
	}

	response := ToRecipeResponse(rec)
	return &response, nil
}

// validateMaterials verifies every material exists in the tenant and is not
// archived. Recipes built on archived materials would plan against stock that
// can no longer move.
func (s *RecipeService) validateMaterials(ctx context.Context, tenantID uuid.UUID, materialIDs []uuid.UUID) error {
	materials, err := s.materialRepo.FindByIDs(ctx, tenantID, materialIDs)
	if err != nil {
		return err
	}

	found := make(map[uuid.UUID]*inventory.Material, len(materials))
	for i := range materials {
		found[materials[i].ID] = &materials[i]
	}
	for _, id := range materialIDs {
		material, ok := found[id]
		if !ok {
			return shared.NewDomainError("MATERIAL_NOT_FOUND",
				fmt.Sprintf("Material %s not found", id))
		}
		if material.IsArchived() {
			return shared.NewDomainError("MATERIAL_ARCHIVED",
				fmt.Sprintf("Material '%s' is archived and cannot be used in a recipe", material.SKU))
		}
	}
	return nil
}

func componentByID(rec *recipe.Recipe, componentID uuid.UUID) *recipe.RecipeComponent {
	for i := range rec.Components {
		if rec.Components[i].ID == componentID {
			return &rec.Components[i]
		}
	}
	return nil
}

func componentMaterialIDs(components []ComponentInput) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(components))
	for _, c := range components {
		ids = append(ids, c.MaterialID)
	}
	return ids
}
