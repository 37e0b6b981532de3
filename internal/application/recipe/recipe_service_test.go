package recipe

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/catalog"
	"github.com/mrp/backend/internal/domain/inventory"
	"github.com/mrp/backend/internal/domain/recipe"
	"github.com/mrp/backend/internal/domain/shared"
	"github.com/mrp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{
		events: make([]shared.DomainEvent, 0),
	}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEvents() []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, len(m.events))
	copy(result, m.events)
	return result
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// MockRecipeRepository is a mock implementation of recipe.RecipeRepository
type MockRecipeRepository struct {
	mock.Mock
}

func (m *MockRecipeRepository) FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recipe.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*recipe.Recipe, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recipe.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) FindByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]recipe.Recipe, error) {
	args := m.Called(ctx, tenantID, productID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recipe.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) FindActiveByProduct(ctx context.Context, tenantID, productID uuid.UUID) (*recipe.Recipe, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recipe.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) FindActiveByProducts(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]*recipe.Recipe, error) {
	args := m.Called(ctx, tenantID, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*recipe.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]recipe.Recipe, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recipe.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) FindActiveForTenant(ctx context.Context, tenantID uuid.UUID) ([]recipe.Recipe, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recipe.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) FindActiveByComponentMaterial(ctx context.Context, tenantID, materialID uuid.UUID) ([]recipe.Recipe, error) {
	args := m.Called(ctx, tenantID, materialID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recipe.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) Save(ctx context.Context, r *recipe.Recipe) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRecipeRepository) ActivateExclusive(ctx context.Context, tenantID, recipeID, productID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, recipeID, productID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRecipeRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockRecipeRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindActive(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByInventoryMode(ctx context.Context, tenantID uuid.UUID, mode catalog.InventoryMode, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, mode, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockProductRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error) {
	args := m.Called(ctx, tenantID, sku)
	return args.Get(0).(bool), args.Error(1)
}

// MockMaterialRepository is a mock implementation of inventory.MaterialRepository
type MockMaterialRepository struct {
	mock.Mock
}

func (m *MockMaterialRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Material, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Material), args.Error(1)
}

func (m *MockMaterialRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Material, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Material), args.Error(1)
}

func (m *MockMaterialRepository) FindByIDForTenantLocked(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Material, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Material), args.Error(1)
}

func (m *MockMaterialRepository) FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*inventory.Material, error) {
	args := m.Called(ctx, tenantID, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Material), args.Error(1)
}

func (m *MockMaterialRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.Material, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Material), args.Error(1)
}

func (m *MockMaterialRepository) FindActive(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.Material, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Material), args.Error(1)
}

func (m *MockMaterialRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]inventory.Material, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Material), args.Error(1)
}

func (m *MockMaterialRepository) FindBelowReorderLevel(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.Material, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Material), args.Error(1)
}

func (m *MockMaterialRepository) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockMaterialRepository) Save(ctx context.Context, material *inventory.Material) error {
	args := m.Called(ctx, material)
	return args.Error(0)
}

func (m *MockMaterialRepository) SaveWithLock(ctx context.Context, material *inventory.Material) error {
	args := m.Called(ctx, material)
	return args.Error(0)
}

func (m *MockMaterialRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMaterialRepository) ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error) {
	args := m.Called(ctx, tenantID, sku)
	return args.Get(0).(bool), args.Error(1)
}

// Test helpers

func newTestRecipeService(recipeRepo *MockRecipeRepository, productRepo *MockProductRepository, materialRepo *MockMaterialRepository) *RecipeService {
	return NewRecipeService(recipeRepo, productRepo, materialRepo)
}

func createTestProduct(tenantID uuid.UUID, sku string) *catalog.Product {
	product, _ := catalog.NewProduct(tenantID, sku, "Test product "+sku, valueobject.UnitPiece, catalog.InventoryModeBOMManaged)
	product.ClearDomainEvents()
	return product
}

func createTestMaterial(tenantID uuid.UUID, sku string) *inventory.Material {
	material, _ := inventory.NewMaterial(tenantID, sku, "Test material "+sku, valueobject.UnitKilogram,
		decimal.NewFromInt(10), decimal.NewFromFloat(2.5))
	return material
}

func createTestRecipe(tenantID, productID uuid.UUID, name string) *recipe.Recipe {
	rec, _ := recipe.NewRecipe(tenantID, productID, name, decimal.NewFromInt(1), valueobject.UnitPiece)
	return rec
}

// Tests

func TestNewRecipeService(t *testing.T) {
	service := newTestRecipeService(new(MockRecipeRepository), new(MockProductRepository), new(MockMaterialRepository))
	assert.NotNil(t, service)
}

func TestRecipeService_Create(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	productID := uuid.New()

	t.Run("success with components", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		productRepo := new(MockProductRepository)
		materialRepo := new(MockMaterialRepository)
		service := newTestRecipeService(recipeRepo, productRepo, materialRepo)

		flour := createTestMaterial(tenantID, "FLOUR-001")
		water := createTestMaterial(tenantID, "WATER-001")

		productRepo.On("FindByIDForTenant", ctx, tenantID, productID).
			Return(createTestProduct(tenantID, "BREAD-001"), nil).Once()
		materialRepo.On("FindByIDs", ctx, tenantID, []uuid.UUID{flour.ID, water.ID}).
			Return([]inventory.Material{*flour, *water}, nil).Once()
		recipeRepo.On("Save", ctx, mock.AnythingOfType("*recipe.Recipe")).Return(nil).Once()

		response, err := service.Create(ctx, tenantID, CreateRecipeRequest{
			ProductID:     productID,
			Name:          "Sourdough v2",
			YieldQuantity: decimal.NewFromInt(10),
			YieldUnit:     "pcs",
			Notes:         "Overnight proof",
			Components: []ComponentInput{
				{MaterialID: flour.ID, QuantityRequired: decimal.NewFromFloat(0.5), WastePercentage: decimal.NewFromInt(10)},
				{MaterialID: water.ID, QuantityRequired: decimal.NewFromFloat(0.35)},
			},
		})

		require.NoError(t, err)
		require.NotNil(t, response)
		assert.Equal(t, "Sourdough v2", response.Name)
		assert.Equal(t, productID, response.ProductID)
		assert.False(t, response.IsActive)
		assert.Equal(t, "Overnight proof", response.Notes)
		require.Len(t, response.Components, 2)
		// 0.5 kg with 10% waste -> 0.55 kg consumed per unit produced
		assert.True(t, response.Components[0].EffectiveQuantity.Equal(decimal.NewFromFloat(0.55)))
		assert.True(t, response.Components[1].EffectiveQuantity.Equal(decimal.NewFromFloat(0.35)))
		recipeRepo.AssertExpectations(t)
		productRepo.AssertExpectations(t)
		materialRepo.AssertExpectations(t)
	})

	t.Run("product not found", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		productRepo := new(MockProductRepository)
		materialRepo := new(MockMaterialRepository)
		service := newTestRecipeService(recipeRepo, productRepo, materialRepo)

		productRepo.On("FindByIDForTenant", ctx, tenantID, productID).
			Return(nil, shared.ErrNotFound).Once()

		response, err := service.Create(ctx, tenantID, CreateRecipeRequest{
			ProductID:     productID,
			Name:          "Orphan recipe",
			YieldQuantity: decimal.NewFromInt(1),
			YieldUnit:     "pcs",
		})

		assert.Nil(t, response)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "PRODUCT_NOT_FOUND", domainErr.Code)
		recipeRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("component material missing", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		productRepo := new(MockProductRepository)
		materialRepo := new(MockMaterialRepository)
		service := newTestRecipeService(recipeRepo, productRepo, materialRepo)

		missingID := uuid.New()
		productRepo.On("FindByIDForTenant", ctx, tenantID, productID).
			Return(createTestProduct(tenantID, "BREAD-001"), nil).Once()
		materialRepo.On("FindByIDs", ctx, tenantID, []uuid.UUID{missingID}).
			Return([]inventory.Material{}, nil).Once()

		_, err := service.Create(ctx, tenantID, CreateRecipeRequest{
			ProductID:     productID,
			Name:          "Sourdough v2",
			YieldQuantity: decimal.NewFromInt(10),
			YieldUnit:     "pcs",
			Components: []ComponentInput{
				{MaterialID: missingID, QuantityRequired: decimal.NewFromInt(1)},
			},
		})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "MATERIAL_NOT_FOUND", domainErr.Code)
		recipeRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("archived component material", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		productRepo := new(MockProductRepository)
		materialRepo := new(MockMaterialRepository)
		service := newTestRecipeService(recipeRepo, productRepo, materialRepo)

		retired := createTestMaterial(tenantID, "LARD-001")
		require.NoError(t, retired.Archive())

		productRepo.On("FindByIDForTenant", ctx, tenantID, productID).
			Return(createTestProduct(tenantID, "BREAD-001"), nil).Once()
		materialRepo.On("FindByIDs", ctx, tenantID, []uuid.UUID{retired.ID}).
			Return([]inventory.Material{*retired}, nil).Once()

		_, err := service.Create(ctx, tenantID, CreateRecipeRequest{
			ProductID:     productID,
			Name:          "Old formulation",
			YieldQuantity: decimal.NewFromInt(1),
			YieldUnit:     "pcs",
			Components: []ComponentInput{
				{MaterialID: retired.ID, QuantityRequired: decimal.NewFromInt(1)},
			},
		})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "MATERIAL_ARCHIVED", domainErr.Code)
		recipeRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("duplicate component material", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		productRepo := new(MockProductRepository)
		materialRepo := new(MockMaterialRepository)
		service := newTestRecipeService(recipeRepo, productRepo, materialRepo)

		flour := createTestMaterial(tenantID, "FLOUR-001")
		productRepo.On("FindByIDForTenant", ctx, tenantID, productID).
			Return(createTestProduct(tenantID, "BREAD-001"), nil).Once()
		materialRepo.On("FindByIDs", ctx, tenantID, []uuid.UUID{flour.ID, flour.ID}).
			Return([]inventory.Material{*flour}, nil).Once()

		_, err := service.Create(ctx, tenantID, CreateRecipeRequest{
			ProductID:     productID,
			Name:          "Double flour",
			YieldQuantity: decimal.NewFromInt(1),
			YieldUnit:     "pcs",
			Components: []ComponentInput{
				{MaterialID: flour.ID, QuantityRequired: decimal.NewFromInt(1)},
				{MaterialID: flour.ID, QuantityRequired: decimal.NewFromInt(2)},
			},
		})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "DUPLICATE_COMPONENT", domainErr.Code)
		recipeRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("invalid yield unit", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		productRepo := new(MockProductRepository)
		materialRepo := new(MockMaterialRepository)
		service := newTestRecipeService(recipeRepo, productRepo, materialRepo)

		productRepo.On("FindByIDForTenant", ctx, tenantID, productID).
			Return(createTestProduct(tenantID, "BREAD-001"), nil).Once()

		response, err := service.Create(ctx, tenantID, CreateRecipeRequest{
			ProductID:     productID,
			Name:          "Sourdough v2",
			YieldQuantity: decimal.NewFromInt(10),
			YieldUnit:     "dozen",
		})

		assert.Error(t, err)
		assert.Nil(t, response)
		recipeRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestRecipeService_GetByID(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("success", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), new(MockMaterialRepository))

		rec := createTestRecipe(tenantID, uuid.New(), "Sourdough v1")
		require.NoError(t, rec.AddComponent(uuid.New(), decimal.NewFromFloat(0.5), decimal.Zero))
		recipeRepo.On("FindByIDForTenant", ctx, tenantID, rec.ID).Return(rec, nil).Once()

		response, err := service.GetByID(ctx, tenantID, rec.ID)

		require.NoError(t, err)
		assert.Equal(t, rec.ID, response.ID)
		assert.Len(t, response.Components, 1)
		recipeRepo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), new(MockMaterialRepository))

		recipeID := uuid.New()
		recipeRepo.On("FindByIDForTenant", ctx, tenantID, recipeID).Return(nil, shared.ErrNotFound).Once()

		response, err := service.GetByID(ctx, tenantID, recipeID)

		assert.Nil(t, response)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestRecipeService_List(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("defaults applied", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), new(MockMaterialRepository))

		rec := createTestRecipe(tenantID, uuid.New(), "Sourdough v1")
		filterMatch := mock.MatchedBy(func(f shared.Filter) bool {
			return f.Page == 1 && f.PageSize == 20 && f.OrderBy == "updated_at" && f.OrderDir == "desc"
		})
		recipeRepo.On("FindAllForTenant", ctx, tenantID, filterMatch).
			Return([]recipe.Recipe{*rec}, nil).Once()
		recipeRepo.On("CountForTenant", ctx, tenantID, filterMatch).
			Return(int64(1), nil).Once()

		responses, total, err := service.List(ctx, tenantID, RecipeListFilter{})

		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, responses, 1)
		assert.Equal(t, "Sourdough v1", responses[0].Name)
		assert.Equal(t, 0, responses[0].ComponentCount)
		recipeRepo.AssertExpectations(t)
	})

	t.Run("product filter routes to product query", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), new(MockMaterialRepository))

		productID := uuid.New()
		rec := createTestRecipe(tenantID, productID, "Sourdough v1")
		filterMatch := mock.MatchedBy(func(f shared.Filter) bool {
			id, ok := f.Filters["product_id"].(uuid.UUID)
			return ok && id == productID
		})
		recipeRepo.On("FindByProduct", ctx, tenantID, productID, filterMatch).
			Return([]recipe.Recipe{*rec}, nil).Once()
		recipeRepo.On("CountForTenant", ctx, tenantID, filterMatch).
			Return(int64(1), nil).Once()

		responses, total, err := service.List(ctx, tenantID, RecipeListFilter{ProductID: &productID})

		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, responses, 1)
		recipeRepo.AssertNotCalled(t, "FindAllForTenant", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRecipeService_Update(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("success", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), new(MockMaterialRepository))

		rec := createTestRecipe(tenantID, uuid.New(), "Sourdough v1")
		recipeRepo.On("FindByIDForTenant", ctx, tenantID, rec.ID).Return(rec, nil).Once()
		recipeRepo.On("Save", ctx, rec).Return(nil).Once()

		name := "Sourdough v2"
		yield := decimal.NewFromInt(12)
		response, err := service.Update(ctx, tenantID, rec.ID, UpdateRecipeRequest{
			Name:          &name,
			YieldQuantity: &yield,
		})

		require.NoError(t, err)
		assert.Equal(t, "Sourdough v2", response.Name)
		assert.True(t, response.YieldQuantity.Equal(decimal.NewFromInt(12)))
		// Unit untouched by the partial update
		assert.Equal(t, "pcs", response.YieldUnit)
		recipeRepo.AssertExpectations(t)
	})

	t.Run("invalid yield quantity", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), new(MockMaterialRepository))

		rec := createTestRecipe(tenantID, uuid.New(), "Sourdough v1")
		recipeRepo.On("FindByIDForTenant", ctx, tenantID, rec.ID).Return(rec, nil).Once()

		yield := decimal.Zero
		_, err := service.Update(ctx, tenantID, rec.ID, UpdateRecipeRequest{YieldQuantity: &yield})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_YIELD", domainErr.Code)
		recipeRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), new(MockMaterialRepository))

		recipeID := uuid.New()
		recipeRepo.On("FindByIDForTenant", ctx, tenantID, recipeID).Return(nil, shared.ErrNotFound).Once()

		_, err := service.Update(ctx, tenantID, recipeID, UpdateRecipeRequest{})

		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestRecipeService_Activate(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	productID := uuid.New()

	t.Run("success deactivates siblings and publishes event", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), new(MockMaterialRepository))
		publisher := NewMockEventPublisher()
		service.SetEventPublisher(publisher)

		rec := createTestRecipe(tenantID, productID, "Sourdough v2")
		require.NoError(t, rec.AddComponent(uuid.New(), decimal.NewFromFloat(0.5), decimal.Zero))

		recipeRepo.On("FindByIDForTenant", ctx, tenantID, rec.ID).Return(rec, nil).Once()
		recipeRepo.On("ActivateExclusive", ctx, tenantID, rec.ID, productID).Return(int64(2), nil).Once()

		response, err := service.Activate(ctx, tenantID, rec.ID)

		require.NoError(t, err)
		assert.Equal(t, rec.ID, response.RecipeID)
		assert.Equal(t, productID, response.ProductID)
		assert.Equal(t, int64(2), response.DeactivatedSiblings)

		events := publisher.GetEventsByType(recipe.EventTypeRecipeActivated)
		require.Len(t, events, 1)
		activated := events[0].(*recipe.RecipeActivatedEvent)
		assert.Equal(t, rec.ID, activated.RecipeID)
		assert.Equal(t, int64(2), activated.DeactivatedSiblings)
		recipeRepo.AssertExpectations(t)
	})

	t.Run("empty recipe", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), new(MockMaterialRepository))

		rec := createTestRecipe(tenantID, productID, "Sketch")
		recipeRepo.On("FindByIDForTenant", ctx, tenantID, rec.ID).Return(rec, nil).Once()

		_, err := service.Activate(ctx, tenantID, rec.ID)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "EMPTY_RECIPE", domainErr.Code)
		recipeRepo.AssertNotCalled(t, "ActivateExclusive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already active", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), new(MockMaterialRepository))

		rec := createTestRecipe(tenantID, productID, "Sourdough v1")
		require.NoError(t, rec.AddComponent(uuid.New(), decimal.NewFromFloat(0.5), decimal.Zero))
		require.NoError(t, rec.Activate())
		recipeRepo.On("FindByIDForTenant", ctx, tenantID, rec.ID).Return(rec, nil).Once()

		_, err := service.Activate(ctx, tenantID, rec.ID)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "ALREADY_ACTIVE", domainErr.Code)
	})

	t.Run("archived recipe", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), new(MockMaterialRepository))

		rec := createTestRecipe(tenantID, productID, "Retired")
		require.NoError(t, rec.AddComponent(uuid.New(), decimal.NewFromFloat(0.5), decimal.Zero))
		require.NoError(t, rec.Archive())
		recipeRepo.On("FindByIDForTenant", ctx, tenantID, rec.ID).Return(rec, nil).Once()

		_, err := service.Activate(ctx, tenantID, rec.ID)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "RECIPE_ARCHIVED", domainErr.Code)
	})
}

func TestRecipeService_Archive(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("archiving deactivates", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), new(MockMaterialRepository))

		rec := createTestRecipe(tenantID, uuid.New(), "Sourdough v1")
		require.NoError(t, rec.AddComponent(uuid.New(), decimal.NewFromFloat(0.5), decimal.Zero))
		require.NoError(t, rec.Activate())

		recipeRepo.On("FindByIDForTenant", ctx, tenantID, rec.ID).Return(rec, nil).Once()
		recipeRepo.On("Save", ctx, rec).Return(nil).Once()

		err := service.Archive(ctx, tenantID, rec.ID)

		require.NoError(t, err)
		assert.True(t, rec.IsArchived())
		assert.False(t, rec.IsActive)
		recipeRepo.AssertExpectations(t)
	})

	t.Run("already archived", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), new(MockMaterialRepository))

		rec := createTestRecipe(tenantID, uuid.New(), "Sourdough v1")
		require.NoError(t, rec.Archive())
		recipeRepo.On("FindByIDForTenant", ctx, tenantID, rec.ID).Return(rec, nil).Once()

		err := service.Archive(ctx, tenantID, rec.ID)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "ALREADY_ARCHIVED", domainErr.Code)
		recipeRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestRecipeService_Restore(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("restore does not reactivate", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), new(MockMaterialRepository))

		rec := createTestRecipe(tenantID, uuid.New(), "Sourdough v1")
		require.NoError(t, rec.AddComponent(uuid.New(), decimal.NewFromFloat(0.5), decimal.Zero))
		require.NoError(t, rec.Activate())
		require.NoError(t, rec.Archive())

		recipeRepo.On("FindByIDForTenant", ctx, tenantID, rec.ID).Return(rec, nil).Once()
		recipeRepo.On("Save", ctx, rec).Return(nil).Once()

		response, err := service.Restore(ctx, tenantID, rec.ID)

		require.NoError(t, err)
		assert.Equal(t, "active", response.Lifecycle)
		assert.False(t, response.IsActive)
		recipeRepo.AssertExpectations(t)
	})

	t.Run("not archived", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), new(MockMaterialRepository))

		rec := createTestRecipe(tenantID, uuid.New(), "Sourdough v1")
		recipeRepo.On("FindByIDForTenant", ctx, tenantID, rec.ID).Return(rec, nil).Once()

		_, err := service.Restore(ctx, tenantID, rec.ID)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "NOT_ARCHIVED", domainErr.Code)
	})
}

func TestRecipeService_AddComponent(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("success", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		materialRepo := new(MockMaterialRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), materialRepo)

		rec := createTestRecipe(tenantID, uuid.New(), "Sourdough v1")
		salt := createTestMaterial(tenantID, "SALT-001")

		recipeRepo.On("FindByIDForTenant", ctx, tenantID, rec.ID).Return(rec, nil).Once()
		materialRepo.On("FindByIDs", ctx, tenantID, []uuid.UUID{salt.ID}).
			Return([]inventory.Material{*salt}, nil).Once()
		recipeRepo.On("Save", ctx, rec).Return(nil).Once()

		response, err := service.AddComponent(ctx, tenantID, rec.ID, AddComponentRequest{
			MaterialID:       salt.ID,
			QuantityRequired: decimal.NewFromFloat(0.01),
		})

		require.NoError(t, err)
		require.Len(t, response.Components, 1)
		assert.Equal(t, salt.ID, response.Components[0].MaterialID)
		recipeRepo.AssertExpectations(t)
	})

	t.Run("duplicate material", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		materialRepo := new(MockMaterialRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), materialRepo)

		rec := createTestRecipe(tenantID, uuid.New(), "Sourdough v1")
		salt := createTestMaterial(tenantID, "SALT-001")
		require.NoError(t, rec.AddComponent(salt.ID, decimal.NewFromFloat(0.01), decimal.Zero))

		recipeRepo.On("FindByIDForTenant", ctx, tenantID, rec.ID).Return(rec, nil).Once()
		materialRepo.On("FindByIDs", ctx, tenantID, []uuid.UUID{salt.ID}).
			Return([]inventory.Material{*salt}, nil).Once()

		_, err := service.AddComponent(ctx, tenantID, rec.ID, AddComponentRequest{
			MaterialID:       salt.ID,
			QuantityRequired: decimal.NewFromFloat(0.02),
		})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "DUPLICATE_COMPONENT", domainErr.Code)
		recipeRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestRecipeService_UpdateComponent(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("success", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), new(MockMaterialRepository))

		rec := createTestRecipe(tenantID, uuid.New(), "Sourdough v1")
		materialID := uuid.New()
		require.NoError(t, rec.AddComponent(materialID, decimal.NewFromFloat(0.5), decimal.Zero))
		componentID := rec.Components[0].ID

		recipeRepo.On("FindByIDForTenant", ctx, tenantID, rec.ID).Return(rec, nil).Once()
		recipeRepo.On("Save", ctx, rec).Return(nil).Once()

		response, err := service.UpdateComponent(ctx, tenantID, rec.ID, componentID, UpdateComponentRequest{
			QuantityRequired: decimal.NewFromFloat(0.6),
			WastePercentage:  decimal.NewFromInt(5),
		})

		require.NoError(t, err)
		require.Len(t, response.Components, 1)
		assert.True(t, response.Components[0].QuantityRequired.Equal(decimal.NewFromFloat(0.6)))
		assert.True(t, response.Components[0].WastePercentage.Equal(decimal.NewFromInt(5)))
		recipeRepo.AssertExpectations(t)
	})

	t.Run("component not found", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), new(MockMaterialRepository))

		rec := createTestRecipe(tenantID, uuid.New(), "Sourdough v1")
		recipeRepo.On("FindByIDForTenant", ctx, tenantID, rec.ID).Return(rec, nil).Once()

		_, err := service.UpdateComponent(ctx, tenantID, rec.ID, uuid.New(), UpdateComponentRequest{
			QuantityRequired: decimal.NewFromInt(1),
		})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "COMPONENT_NOT_FOUND", domainErr.Code)
		recipeRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestRecipeService_RemoveComponent(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("success", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), new(MockMaterialRepository))

		rec := createTestRecipe(tenantID, uuid.New(), "Sourdough v1")
		require.NoError(t, rec.AddComponent(uuid.New(), decimal.NewFromFloat(0.5), decimal.Zero))
		require.NoError(t, rec.AddComponent(uuid.New(), decimal.NewFromFloat(0.3), decimal.Zero))
		componentID := rec.Components[1].ID

		recipeRepo.On("FindByIDForTenant", ctx, tenantID, rec.ID).Return(rec, nil).Once()
		recipeRepo.On("Save", ctx, rec).Return(nil).Once()

		response, err := service.RemoveComponent(ctx, tenantID, rec.ID, componentID)

		require.NoError(t, err)
		assert.Len(t, response.Components, 1)
		recipeRepo.AssertExpectations(t)
	})

	t.Run("last component of an active recipe", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), new(MockMaterialRepository))

		rec := createTestRecipe(tenantID, uuid.New(), "Sourdough v1")
		require.NoError(t, rec.AddComponent(uuid.New(), decimal.NewFromFloat(0.5), decimal.Zero))
		require.NoError(t, rec.Activate())
		componentID := rec.Components[0].ID

		recipeRepo.On("FindByIDForTenant", ctx, tenantID, rec.ID).Return(rec, nil).Once()

		_, err := service.RemoveComponent(ctx, tenantID, rec.ID, componentID)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "LAST_COMPONENT", domainErr.Code)
		recipeRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("component not found", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		service := newTestRecipeService(recipeRepo, new(MockProductRepository), new(MockMaterialRepository))

		rec := createTestRecipe(tenantID, uuid.New(), "Sourdough v1")
		recipeRepo.On("FindByIDForTenant", ctx, tenantID, rec.ID).Return(rec, nil).Once()

		_, err := service.RemoveComponent(ctx, tenantID, rec.ID, uuid.New())

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "COMPONENT_NOT_FOUND", domainErr.Code)
	})
}
