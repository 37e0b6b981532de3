package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
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

func (m *MockEventPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make([]shared.DomainEvent, 0)
}

// MockMaterialRepository is a mock implementation of MaterialRepository
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

// MockTransactionRepository is a mock implementation of InventoryTransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, transaction *inventory.InventoryTransaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.InventoryTransaction, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryTransaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByMaterial(ctx context.Context, tenantID, materialID uuid.UUID, filter shared.Filter) ([]inventory.InventoryTransaction, error) {
	args := m.Called(ctx, tenantID, materialID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.InventoryTransaction), args.Error(1)
}

func (m *MockTransactionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.InventoryTransaction, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.InventoryTransaction), args.Error(1)
}

func (m *MockTransactionRepository) CountByMaterial(ctx context.Context, tenantID, materialID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, materialID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) SumDeductionsByMaterial(ctx context.Context, tenantID uuid.UUID, since time.Time) (map[uuid.UUID]decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]decimal.Decimal), args.Error(1)
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

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Get(0).(bool), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(bool), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Test helpers

func createTestMaterial(tenantID uuid.UUID, sku string, stock, reorderLevel decimal.Decimal) *inventory.Material {
	material, _ := inventory.NewMaterial(tenantID, sku, "Test material "+sku, valueobject.UnitKilogram, reorderLevel, decimal.NewFromFloat(2.5))
	material.StockQuantity = stock
	return material
}

func newTestLedgerService(materialRepo *MockMaterialRepository, txRepo *MockTransactionRepository, recipeRepo *MockRecipeRepository) *StockLedgerService {
	return NewStockLedgerService(materialRepo, txRepo, recipeRepo, NewNoOpTransactionScope(materialRepo, txRepo))
}

// Tests

func TestNewStockLedgerService(t *testing.T) {
	materialRepo := new(MockMaterialRepository)
	txRepo := new(MockTransactionRepository)
	recipeRepo := new(MockRecipeRepository)

	service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

	assert.NotNil(t, service)
}

func TestStockLedgerService_CreateMaterial(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("success", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

		materialRepo.On("ExistsBySKU", ctx, tenantID, "FLOUR-001").Return(false, nil).Once()
		materialRepo.On("Save", ctx, mock.AnythingOfType("*inventory.Material")).Return(nil).Once()

		response, err := service.CreateMaterial(ctx, tenantID, CreateMaterialRequest{
			SKU:          "FLOUR-001",
			Name:         "Bread flour",
			Description:  "High gluten",
			Unit:         "kg",
			ReorderLevel: decimal.NewFromInt(10),
			UnitCost:     decimal.NewFromFloat(1.2),
		})

		require.NoError(t, err)
		require.NotNil(t, response)
		assert.Equal(t, "FLOUR-001", response.SKU)
		assert.Equal(t, "Bread flour", response.Name)
		assert.Equal(t, "High gluten", response.Description)
		assert.True(t, response.StockQuantity.IsZero())
		assert.Equal(t, "out_of_stock", response.StockStatus)
		materialRepo.AssertExpectations(t)
	})

	t.Run("duplicate sku", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

		materialRepo.On("ExistsBySKU", ctx, tenantID, "FLOUR-001").Return(true, nil).Once()

		response, err := service.CreateMaterial(ctx, tenantID, CreateMaterialRequest{
			SKU:      "FLOUR-001",
			Name:     "Bread flour",
			Unit:     "kg",
			UnitCost: decimal.NewFromFloat(1.2),
		})

		assert.Error(t, err)
		assert.Nil(t, response)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "DUPLICATE_SKU", domainErr.Code)
		materialRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("invalid unit", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

		response, err := service.CreateMaterial(ctx, tenantID, CreateMaterialRequest{
			SKU:  "FLOUR-001",
			Name: "Bread flour",
			Unit: "barrel",
		})

		assert.Error(t, err)
		assert.Nil(t, response)
		materialRepo.AssertNotCalled(t, "ExistsBySKU", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestStockLedgerService_UpdateMaterial(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	materialID := uuid.New()

	t.Run("success", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

		material := createTestMaterial(tenantID, "SUGAR-001", decimal.NewFromInt(50), decimal.NewFromInt(10))
		material.ID = materialID

		materialRepo.On("FindByIDForTenant", ctx, tenantID, materialID).Return(material, nil).Once()
		materialRepo.On("SaveWithLock", ctx, material).Return(nil).Once()

		newUnit := "g"
		newReorder := decimal.NewFromInt(25)
		response, err := service.UpdateMaterial(ctx, tenantID, materialID, UpdateMaterialRequest{
			Name:         "Caster sugar",
			Description:  "Fine grain",
			Unit:         &newUnit,
			ReorderLevel: &newReorder,
		})

		require.NoError(t, err)
		require.NotNil(t, response)
		assert.Equal(t, "Caster sugar", response.Name)
		assert.Equal(t, "g", response.Unit)
		assert.Equal(t, newReorder, response.ReorderLevel)
		materialRepo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

		materialRepo.On("FindByIDForTenant", ctx, tenantID, materialID).Return(nil, shared.ErrNotFound).Once()

		response, err := service.UpdateMaterial(ctx, tenantID, materialID, UpdateMaterialRequest{Name: "Caster sugar"})

		assert.Nil(t, response)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestStockLedgerService_GetMaterial(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	materialID := uuid.New()

	materialRepo := new(MockMaterialRepository)
	txRepo := new(MockTransactionRepository)
	recipeRepo := new(MockRecipeRepository)
	service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

	t.Run("success", func(t *testing.T) {
		material := createTestMaterial(tenantID, "BUTTER-001", decimal.NewFromInt(8), decimal.NewFromInt(10))
		material.ID = materialID

		materialRepo.On("FindByIDForTenant", ctx, tenantID, materialID).Return(material, nil).Once()

		response, err := service.GetMaterial(ctx, tenantID, materialID)

		require.NoError(t, err)
		require.NotNil(t, response)
		assert.Equal(t, materialID, response.ID)
		assert.True(t, response.IsBelowReorderLevel)
		assert.True(t, response.StockValue.Equal(decimal.NewFromInt(20)))
	})

	t.Run("not found", func(t *testing.T) {
		materialRepo.On("FindByIDForTenant", ctx, tenantID, materialID).Return(nil, shared.ErrNotFound).Once()

		response, err := service.GetMaterial(ctx, tenantID, materialID)

		assert.Nil(t, response)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestStockLedgerService_ListMaterials(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	materialRepo := new(MockMaterialRepository)
	txRepo := new(MockTransactionRepository)
	recipeRepo := new(MockRecipeRepository)
	service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

	t.Run("applies defaults", func(t *testing.T) {
		materials := []inventory.Material{
			*createTestMaterial(tenantID, "FLOUR-001", decimal.NewFromInt(100), decimal.NewFromInt(10)),
			*createTestMaterial(tenantID, "SUGAR-001", decimal.NewFromInt(50), decimal.NewFromInt(5)),
		}

		expectedFilter := mock.MatchedBy(func(f shared.Filter) bool {
			return f.Page == 1 && f.PageSize == 20 && f.OrderBy == "updated_at" && f.OrderDir == "desc"
		})
		materialRepo.On("FindAllForTenant", ctx, tenantID, expectedFilter).Return(materials, nil).Once()
		materialRepo.On("CountForTenant", ctx, tenantID, expectedFilter).Return(int64(2), nil).Once()

		responses, total, err := service.ListMaterials(ctx, tenantID, MaterialListFilter{})

		require.NoError(t, err)
		assert.Len(t, responses, 2)
		assert.Equal(t, int64(2), total)
		materialRepo.AssertExpectations(t)
	})

	t.Run("passes lifecycle and stock status filters", func(t *testing.T) {
		expectedFilter := mock.MatchedBy(func(f shared.Filter) bool {
			return f.Filters["lifecycle"] == "archived" && f.Filters["stock_status"] == "critical"
		})
		materialRepo.On("FindAllForTenant", ctx, tenantID, expectedFilter).Return([]inventory.Material{}, nil).Once()
		materialRepo.On("CountForTenant", ctx, tenantID, expectedFilter).Return(int64(0), nil).Once()

		responses, total, err := service.ListMaterials(ctx, tenantID, MaterialListFilter{
			Lifecycle:   "archived",
			StockStatus: "critical",
		})

		require.NoError(t, err)
		assert.Empty(t, responses)
		assert.Equal(t, int64(0), total)
	})
}

func TestStockLedgerService_AdjustStock(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	materialID := uuid.New()

	t.Run("restock success", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)
		publisher := NewMockEventPublisher()
		service.SetEventPublisher(publisher)

		material := createTestMaterial(tenantID, "FLOUR-001", decimal.NewFromInt(40), decimal.NewFromInt(10))
		material.ID = materialID

		materialRepo.On("FindByIDForTenantLocked", ctx, tenantID, materialID).Return(material, nil).Once()
		materialRepo.On("SaveWithLock", ctx, material).Return(nil).Once()
		txRepo.On("Create", ctx, mock.AnythingOfType("*inventory.InventoryTransaction")).Return(nil).Once()

		response, err := service.AdjustStock(ctx, tenantID, AdjustStockRequest{
			MaterialID: materialID,
			Type:       "restock",
			Quantity:   decimal.NewFromInt(20),
			Reason:     "Weekly delivery",
		})

		require.NoError(t, err)
		require.NotNil(t, response)
		assert.Equal(t, decimal.NewFromInt(40), response.QuantityBefore)
		assert.Equal(t, decimal.NewFromInt(20), response.QuantityChange)
		assert.Equal(t, decimal.NewFromInt(60), response.QuantityAfter)
		assert.Equal(t, "Weekly delivery", response.Reason)
		assert.Equal(t, decimal.NewFromInt(60), material.StockQuantity)

		events := publisher.GetEventsByType(inventory.EventTypeMaterialStockAdjusted)
		require.Len(t, events, 1)
		adjusted := events[0].(*inventory.MaterialStockAdjustedEvent)
		assert.Equal(t, decimal.NewFromInt(60), adjusted.QuantityAfter)

		materialRepo.AssertExpectations(t)
		txRepo.AssertExpectations(t)
	})

	t.Run("deduction exceeding stock leaves nothing persisted", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

		material := createTestMaterial(tenantID, "FLOUR-001", decimal.NewFromInt(5), decimal.NewFromInt(10))
		material.ID = materialID

		materialRepo.On("FindByIDForTenantLocked", ctx, tenantID, materialID).Return(material, nil).Once()

		response, err := service.AdjustStock(ctx, tenantID, AdjustStockRequest{
			MaterialID: materialID,
			Type:       "deduction",
			Quantity:   decimal.NewFromInt(-10),
			Reason:     "Production run",
		})

		assert.Nil(t, response)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.Equal(t, decimal.NewFromInt(5), material.StockQuantity)
		materialRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid transaction type", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

		response, err := service.AdjustStock(ctx, tenantID, AdjustStockRequest{
			MaterialID: materialID,
			Type:       "transfer",
			Quantity:   decimal.NewFromInt(5),
			Reason:     "Move",
		})

		assert.Nil(t, response)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_TRANSACTION_TYPE", domainErr.Code)
		materialRepo.AssertNotCalled(t, "FindByIDForTenantLocked", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("archived material", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

		material := createTestMaterial(tenantID, "FLOUR-001", decimal.NewFromInt(40), decimal.NewFromInt(10))
		material.ID = materialID
		require.NoError(t, material.Archive())
		material.ClearDomainEvents()

		materialRepo.On("FindByIDForTenantLocked", ctx, tenantID, materialID).Return(material, nil).Once()

		response, err := service.AdjustStock(ctx, tenantID, AdjustStockRequest{
			MaterialID: materialID,
			Type:       "restock",
			Quantity:   decimal.NewFromInt(20),
			Reason:     "Weekly delivery",
		})

		assert.Nil(t, response)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "MATERIAL_ARCHIVED", domainErr.Code)
		txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("records reference", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

		material := createTestMaterial(tenantID, "FLOUR-001", decimal.NewFromInt(40), decimal.NewFromInt(10))
		material.ID = materialID
		runID := uuid.New()
		operatorID := uuid.New()

		materialRepo.On("FindByIDForTenantLocked", ctx, tenantID, materialID).Return(material, nil).Once()
		materialRepo.On("SaveWithLock", ctx, material).Return(nil).Once()
		txRepo.On("Create", ctx, mock.AnythingOfType("*inventory.InventoryTransaction")).Return(nil).Once()

		response, err := service.AdjustStock(ctx, tenantID, AdjustStockRequest{
			MaterialID:    materialID,
			Type:          "deduction",
			Quantity:      decimal.NewFromInt(-10),
			Reason:        "Batch of 50 loaves",
			Notes:         "Morning shift",
			ReferenceType: "production_run",
			ReferenceID:   &runID,
			OperatorID:    &operatorID,
		})

		require.NoError(t, err)
		require.NotNil(t, response)
		require.NotNil(t, response.ReferenceType)
		assert.Equal(t, "production_run", *response.ReferenceType)
		require.NotNil(t, response.ReferenceID)
		assert.Equal(t, runID, *response.ReferenceID)
		require.NotNil(t, response.OperatorID)
		assert.Equal(t, operatorID, *response.OperatorID)
		assert.Equal(t, "Morning shift", response.Notes)
	})

	t.Run("invalid reference type", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

		material := createTestMaterial(tenantID, "FLOUR-001", decimal.NewFromInt(40), decimal.NewFromInt(10))
		material.ID = materialID
		refID := uuid.New()

		materialRepo.On("FindByIDForTenantLocked", ctx, tenantID, materialID).Return(material, nil).Once()

		response, err := service.AdjustStock(ctx, tenantID, AdjustStockRequest{
			MaterialID:    materialID,
			Type:          "restock",
			Quantity:      decimal.NewFromInt(20),
			Reason:        "Weekly delivery",
			ReferenceType: "invoice",
			ReferenceID:   &refID,
		})

		assert.Nil(t, response)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_REFERENCE_TYPE", domainErr.Code)
		txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate idempotency key", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

		store := new(MockIdempotencyStore)
		cfg := shared.DefaultIdempotencyConfig()
		service.SetIdempotencyStore(store, cfg)

		key := "stock-adjust:" + tenantID.String() + ":retry-42"
		store.On("MarkProcessed", ctx, key, cfg.TTL).Return(false, nil).Once()

		response, err := service.AdjustStock(ctx, tenantID, AdjustStockRequest{
			MaterialID:     materialID,
			Type:           "restock",
			Quantity:       decimal.NewFromInt(20),
			Reason:         "Weekly delivery",
			IdempotencyKey: "retry-42",
		})

		assert.Nil(t, response)
		assert.True(t, errors.Is(err, shared.ErrDuplicateAdjustment))
		materialRepo.AssertNotCalled(t, "FindByIDForTenantLocked", mock.Anything, mock.Anything, mock.Anything)
		store.AssertExpectations(t)
	})

	t.Run("failed adjustment releases the key", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

		store := new(MockIdempotencyStore)
		cfg := shared.DefaultIdempotencyConfig()
		service.SetIdempotencyStore(store, cfg)

		key := "stock-adjust:" + tenantID.String() + ":retry-43"
		store.On("MarkProcessed", ctx, key, cfg.TTL).Return(true, nil).Once()
		store.On("Release", ctx, key).Return(nil).Once()
		materialRepo.On("FindByIDForTenantLocked", ctx, tenantID, materialID).Return(nil, shared.ErrNotFound).Once()

		response, err := service.AdjustStock(ctx, tenantID, AdjustStockRequest{
			MaterialID:     materialID,
			Type:           "restock",
			Quantity:       decimal.NewFromInt(20),
			Reason:         "Weekly delivery",
			IdempotencyKey: "retry-43",
		})

		assert.Nil(t, response)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		store.AssertExpectations(t)
	})

	t.Run("idempotency disabled skips the store", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

		store := new(MockIdempotencyStore)
		service.SetIdempotencyStore(store, shared.IdempotencyConfig{Enabled: false})

		material := createTestMaterial(tenantID, "FLOUR-001", decimal.NewFromInt(40), decimal.NewFromInt(10))
		material.ID = materialID

		materialRepo.On("FindByIDForTenantLocked", ctx, tenantID, materialID).Return(material, nil).Once()
		materialRepo.On("SaveWithLock", ctx, material).Return(nil).Once()
		txRepo.On("Create", ctx, mock.AnythingOfType("*inventory.InventoryTransaction")).Return(nil).Once()

		response, err := service.AdjustStock(ctx, tenantID, AdjustStockRequest{
			MaterialID:     materialID,
			Type:           "restock",
			Quantity:       decimal.NewFromInt(20),
			Reason:         "Weekly delivery",
			IdempotencyKey: "retry-44",
		})

		require.NoError(t, err)
		require.NotNil(t, response)
		store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestStockLedgerService_CanBeDeleted(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	materialID := uuid.New()

	t.Run("blocked by active recipes", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

		material := createTestMaterial(tenantID, "FLOUR-001", decimal.NewFromInt(40), decimal.NewFromInt(10))
		material.ID = materialID

		productID := uuid.New()
		blocking, err := recipe.NewRecipe(tenantID, productID, "Sourdough loaf", decimal.NewFromInt(1), valueobject.UnitPiece)
		require.NoError(t, err)

		materialRepo.On("FindByIDForTenant", ctx, tenantID, materialID).Return(material, nil).Once()
		recipeRepo.On("FindActiveByComponentMaterial", ctx, tenantID, materialID).Return([]recipe.Recipe{*blocking}, nil).Once()

		response, err := service.CanBeDeleted(ctx, tenantID, materialID)

		require.NoError(t, err)
		require.NotNil(t, response)
		assert.False(t, response.CanBeDeleted)
		require.Len(t, response.BlockingRecipes, 1)
		assert.Equal(t, "Sourdough loaf", response.BlockingRecipes[0].RecipeName)
		assert.Equal(t, productID, response.BlockingRecipes[0].ProductID)
	})

	t.Run("free when no active recipe references it", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

		material := createTestMaterial(tenantID, "FLOUR-001", decimal.NewFromInt(40), decimal.NewFromInt(10))
		material.ID = materialID

		materialRepo.On("FindByIDForTenant", ctx, tenantID, materialID).Return(material, nil).Once()
		recipeRepo.On("FindActiveByComponentMaterial", ctx, tenantID, materialID).Return([]recipe.Recipe{}, nil).Once()

		response, err := service.CanBeDeleted(ctx, tenantID, materialID)

		require.NoError(t, err)
		require.NotNil(t, response)
		assert.True(t, response.CanBeDeleted)
		assert.Empty(t, response.BlockingRecipes)
	})
}

func TestStockLedgerService_ArchiveMaterial(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	materialID := uuid.New()

	t.Run("blocked when used by an active recipe", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

		material := createTestMaterial(tenantID, "FLOUR-001", decimal.NewFromInt(40), decimal.NewFromInt(10))
		material.ID = materialID

		blocking, err := recipe.NewRecipe(tenantID, uuid.New(), "Sourdough loaf", decimal.NewFromInt(1), valueobject.UnitPiece)
		require.NoError(t, err)

		materialRepo.On("FindByIDForTenant", ctx, tenantID, materialID).Return(material, nil).Once()
		recipeRepo.On("FindActiveByComponentMaterial", ctx, tenantID, materialID).Return([]recipe.Recipe{*blocking}, nil).Once()

		err = service.ArchiveMaterial(ctx, tenantID, materialID)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "MATERIAL_IN_USE", domainErr.Code)
		materialRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("success", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)
		publisher := NewMockEventPublisher()
		service.SetEventPublisher(publisher)

		material := createTestMaterial(tenantID, "FLOUR-001", decimal.NewFromInt(40), decimal.NewFromInt(10))
		material.ID = materialID

		materialRepo.On("FindByIDForTenant", ctx, tenantID, materialID).Return(material, nil).Twice()
		recipeRepo.On("FindActiveByComponentMaterial", ctx, tenantID, materialID).Return([]recipe.Recipe{}, nil).Once()
		materialRepo.On("SaveWithLock", ctx, material).Return(nil).Once()

		err := service.ArchiveMaterial(ctx, tenantID, materialID)

		require.NoError(t, err)
		assert.True(t, material.IsArchived())
		assert.Len(t, publisher.GetEventsByType(inventory.EventTypeMaterialArchived), 1)
		materialRepo.AssertExpectations(t)
	})
}

func TestStockLedgerService_RestoreMaterial(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	materialID := uuid.New()

	t.Run("success", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)
		publisher := NewMockEventPublisher()
		service.SetEventPublisher(publisher)

		material := createTestMaterial(tenantID, "FLOUR-001", decimal.NewFromInt(40), decimal.NewFromInt(10))
		material.ID = materialID
		require.NoError(t, material.Archive())
		material.ClearDomainEvents()

		materialRepo.On("FindByIDForTenant", ctx, tenantID, materialID).Return(material, nil).Once()
		materialRepo.On("SaveWithLock", ctx, material).Return(nil).Once()

		response, err := service.RestoreMaterial(ctx, tenantID, materialID)

		require.NoError(t, err)
		require.NotNil(t, response)
		assert.Equal(t, "active", response.Lifecycle)
		assert.Len(t, publisher.GetEventsByType(inventory.EventTypeMaterialRestored), 1)
	})

	t.Run("not archived", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

		material := createTestMaterial(tenantID, "FLOUR-001", decimal.NewFromInt(40), decimal.NewFromInt(10))
		material.ID = materialID

		materialRepo.On("FindByIDForTenant", ctx, tenantID, materialID).Return(material, nil).Once()

		response, err := service.RestoreMaterial(ctx, tenantID, materialID)

		assert.Nil(t, response)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "NOT_ARCHIVED", domainErr.Code)
		materialRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestStockLedgerService_ListMaterialTransactions(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	materialID := uuid.New()

	t.Run("success", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

		material := createTestMaterial(tenantID, "FLOUR-001", decimal.NewFromInt(60), decimal.NewFromInt(10))
		material.ID = materialID

		entry, err := inventory.NewInventoryTransaction(tenantID, materialID, inventory.TransactionTypeRestock,
			decimal.NewFromInt(40), decimal.NewFromInt(20), "Weekly delivery")
		require.NoError(t, err)

		expectedFilter := mock.MatchedBy(func(f shared.Filter) bool {
			return f.OrderBy == "transaction_date" && f.OrderDir == "desc"
		})
		materialRepo.On("FindByIDForTenant", ctx, tenantID, materialID).Return(material, nil).Once()
		txRepo.On("FindByMaterial", ctx, tenantID, materialID, expectedFilter).Return([]inventory.InventoryTransaction{*entry}, nil).Once()
		txRepo.On("CountByMaterial", ctx, tenantID, materialID).Return(int64(1), nil).Once()

		responses, total, err := service.ListMaterialTransactions(ctx, tenantID, materialID, TransactionListFilter{})

		require.NoError(t, err)
		require.Len(t, responses, 1)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, decimal.NewFromInt(40), responses[0].QuantityBefore)
		assert.Equal(t, decimal.NewFromInt(60), responses[0].QuantityAfter)
	})

	t.Run("material not found", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		txRepo := new(MockTransactionRepository)
		recipeRepo := new(MockRecipeRepository)
		service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

		materialRepo.On("FindByIDForTenant", ctx, tenantID, materialID).Return(nil, shared.ErrNotFound).Once()

		responses, total, err := service.ListMaterialTransactions(ctx, tenantID, materialID, TransactionListFilter{})

		assert.Nil(t, responses)
		assert.Equal(t, int64(0), total)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		txRepo.AssertNotCalled(t, "FindByMaterial", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestStockLedgerService_GetTransaction(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	transactionID := uuid.New()

	materialRepo := new(MockMaterialRepository)
	txRepo := new(MockTransactionRepository)
	recipeRepo := new(MockRecipeRepository)
	service := newTestLedgerService(materialRepo, txRepo, recipeRepo)

	t.Run("success", func(t *testing.T) {
		entry, err := inventory.NewInventoryTransaction(tenantID, uuid.New(), inventory.TransactionTypeDeduction,
			decimal.NewFromInt(60), decimal.NewFromInt(-15), "Batch of 50 loaves")
		require.NoError(t, err)
		entry.ID = transactionID

		txRepo.On("FindByIDForTenant", ctx, tenantID, transactionID).Return(entry, nil).Once()

		response, err := service.GetTransaction(ctx, tenantID, transactionID)

		require.NoError(t, err)
		require.NotNil(t, response)
		assert.Equal(t, transactionID, response.ID)
		assert.Equal(t, "deduction", response.TransactionType)
		assert.Equal(t, decimal.NewFromInt(45), response.QuantityAfter)
	})

	t.Run("not found", func(t *testing.T) {
		txRepo.On("FindByIDForTenant", ctx, tenantID, transactionID).Return(nil, shared.ErrNotFound).Once()

		response, err := service.GetTransaction(ctx, tenantID, transactionID)

		assert.Nil(t, response)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}
