package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/shared"
	"github.com/mrp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates product with valid inputs", func(t *testing.T) {
		product, err := NewProduct(tenantID, "PIZZA-001", "Margherita Pizza", valueobject.UnitPiece, InventoryModeBOMManaged)
		require.NoError(t, err)
		require.NotNil(t, product)

		assert.Equal(t, tenantID, product.TenantID)
		assert.Equal(t, "PIZZA-001", product.SKU)
		assert.Equal(t, "Margherita Pizza", product.Name)
		assert.Equal(t, valueobject.UnitPiece, product.Unit)
		assert.Equal(t, InventoryModeBOMManaged, product.InventoryMode)
		assert.True(t, product.SellingPrice.IsZero())
		assert.Equal(t, shared.LifecycleActive, product.Lifecycle)
		assert.NotEmpty(t, product.ID)
		assert.Equal(t, 1, product.GetVersion())
	})

	t.Run("converts SKU to uppercase", func(t *testing.T) {
		product, err := NewProduct(tenantID, "pizza-001", "Margherita Pizza", valueobject.UnitPiece, InventoryModeBOMManaged)
		require.NoError(t, err)
		assert.Equal(t, "PIZZA-001", product.SKU)
	})

	t.Run("publishes ProductCreated event", func(t *testing.T) {
		product, err := NewProduct(tenantID, "PIZZA-002", "Pepperoni Pizza", valueobject.UnitPiece, InventoryModeBOMManaged)
		require.NoError(t, err)

		events := product.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeProductCreated, events[0].EventType())

		event, ok := events[0].(*ProductCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, product.ID, event.ProductID)
		assert.Equal(t, product.SKU, event.SKU)
		assert.Equal(t, product.Name, event.Name)
		assert.Equal(t, InventoryModeBOMManaged, event.InventoryMode)
	})

	t.Run("fails with empty SKU", func(t *testing.T) {
		_, err := NewProduct(tenantID, "", "Margherita Pizza", valueobject.UnitPiece, InventoryModeBOMManaged)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SKU cannot be empty")
	})

	t.Run("fails with SKU too long", func(t *testing.T) {
		longSKU := "ABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890ABCDEFGHIJKLMNOP"
		_, err := NewProduct(tenantID, longSKU, "Margherita Pizza", valueobject.UnitPiece, InventoryModeBOMManaged)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed 50 characters")
	})

	t.Run("fails with invalid SKU characters", func(t *testing.T) {
		_, err := NewProduct(tenantID, "PIZZA@001", "Margherita Pizza", valueobject.UnitPiece, InventoryModeBOMManaged)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "can only contain letters")
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewProduct(tenantID, "PIZZA-001", "", valueobject.UnitPiece, InventoryModeBOMManaged)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name cannot be empty")
	})

	t.Run("fails with name too long", func(t *testing.T) {
		longName := string(make([]byte, 201))
		_, err := NewProduct(tenantID, "PIZZA-001", longName, valueobject.UnitPiece, InventoryModeBOMManaged)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed 200 characters")
	})

	t.Run("fails with invalid unit", func(t *testing.T) {
		_, err := NewProduct(tenantID, "PIZZA-001", "Margherita Pizza", valueobject.Unit("ton"), InventoryModeBOMManaged)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "supported units")
	})

	t.Run("fails with invalid inventory mode", func(t *testing.T) {
		_, err := NewProduct(tenantID, "PIZZA-001", "Margherita Pizza", valueobject.UnitPiece, InventoryMode("derived"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bom_managed or simple")
	})

	t.Run("accepts SKU with underscore and hyphen", func(t *testing.T) {
		product, err := NewProduct(tenantID, "PIZZA_SPECIAL-001", "Special Pizza", valueobject.UnitPiece, InventoryModeSimple)
		require.NoError(t, err)
		assert.Equal(t, "PIZZA_SPECIAL-001", product.SKU)
	})
}

func TestProductUpdate(t *testing.T) {
	tenantID := uuid.New()
	product, _ := NewProduct(tenantID, "PIZZA-001", "Original Name", valueobject.UnitPiece, InventoryModeBOMManaged)
	product.ClearDomainEvents()

	t.Run("updates name and description", func(t *testing.T) {
		originalVersion := product.GetVersion()
		err := product.Update("Updated Name", "New description")
		require.NoError(t, err)

		assert.Equal(t, "Updated Name", product.Name)
		assert.Equal(t, "New description", product.Description)
		assert.Equal(t, originalVersion+1, product.GetVersion())
	})

	t.Run("publishes ProductUpdated event", func(t *testing.T) {
		product.ClearDomainEvents()
		err := product.Update("Another Name", "Another description")
		require.NoError(t, err)

		events := product.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeProductUpdated, events[0].EventType())
	})

	t.Run("fails with empty name", func(t *testing.T) {
		err := product.Update("", "Description")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name cannot be empty")
	})
}

func TestProductSetSellingPrice(t *testing.T) {
	tenantID := uuid.New()
	product, _ := NewProduct(tenantID, "PIZZA-001", "Margherita Pizza", valueobject.UnitPiece, InventoryModeBOMManaged)

	t.Run("sets a non-negative price", func(t *testing.T) {
		err := product.SetSellingPrice(decimal.NewFromFloat(12.50))
		require.NoError(t, err)
		assert.True(t, product.SellingPrice.Equal(decimal.NewFromFloat(12.50)))
	})

	t.Run("fails with negative price", func(t *testing.T) {
		err := product.SetSellingPrice(decimal.NewFromFloat(-1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be negative")
	})
}

func TestProductSetInventoryMode(t *testing.T) {
	tenantID := uuid.New()
	product, _ := NewProduct(tenantID, "PIZZA-001", "Margherita Pizza", valueobject.UnitPiece, InventoryModeBOMManaged)
	product.ClearDomainEvents()

	t.Run("switches to simple mode", func(t *testing.T) {
		err := product.SetInventoryMode(InventoryModeSimple)
		require.NoError(t, err)
		assert.Equal(t, InventoryModeSimple, product.InventoryMode)
		assert.False(t, product.IsBOMManaged())
	})

	t.Run("fails with unknown mode", func(t *testing.T) {
		err := product.SetInventoryMode(InventoryMode("phantom"))
		require.Error(t, err)
	})
}

func TestProductArchiveRestore(t *testing.T) {
	tenantID := uuid.New()

	t.Run("archives an active product", func(t *testing.T) {
		product, _ := NewProduct(tenantID, "PIZZA-001", "Margherita Pizza", valueobject.UnitPiece, InventoryModeBOMManaged)
		product.ClearDomainEvents()

		err := product.Archive()
		require.NoError(t, err)
		assert.True(t, product.IsArchived())

		events := product.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeProductArchived, events[0].EventType())
	})

	t.Run("fails to archive twice", func(t *testing.T) {
		product, _ := NewProduct(tenantID, "PIZZA-001", "Margherita Pizza", valueobject.UnitPiece, InventoryModeBOMManaged)
		_ = product.Archive()

		err := product.Archive()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already archived")
	})

	t.Run("restores an archived product", func(t *testing.T) {
		product, _ := NewProduct(tenantID, "PIZZA-001", "Margherita Pizza", valueobject.UnitPiece, InventoryModeBOMManaged)
		_ = product.Archive()
		product.ClearDomainEvents()

		err := product.Restore()
		require.NoError(t, err)
		assert.False(t, product.IsArchived())
		assert.Equal(t, shared.LifecycleActive, product.Lifecycle)

		events := product.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeProductRestored, events[0].EventType())
	})

	t.Run("fails to restore an active product", func(t *testing.T) {
		product, _ := NewProduct(tenantID, "PIZZA-001", "Margherita Pizza", valueobject.UnitPiece, InventoryModeBOMManaged)

		err := product.Restore()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not archived")
	})
}
