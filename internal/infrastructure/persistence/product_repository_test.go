package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/catalog"
	"github.com/mrp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockProductRepository creates a GormProductRepository with a mocked SQL connection
func newMockProductRepository(t *testing.T) (*GormProductRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormProductRepository(gormDB), mock, mockDB
}

func productRows(id, tenantID uuid.UUID, sku, name string, mode catalog.InventoryMode) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tenant_id", "sku", "name", "unit", "inventory_mode", "selling_price", "lifecycle", "version"}).
		AddRow(id, tenantID, sku, name, "pcs", mode, decimal.NewFromInt(12), "active", 1)
}

func TestGormProductRepository_FindByIDForTenant(t *testing.T) {
	t.Run("finds product within tenant", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, productID, 1).
			WillReturnRows(productRows(productID, tenantID, "PIZZA-001", "Margherita Pizza", catalog.InventoryModeBOMManaged))

		product, err := repo.FindByIDForTenant(context.Background(), tenantID, productID)

		assert.NoError(t, err)
		assert.NotNil(t, product)
		assert.Equal(t, tenantID, product.TenantID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for non-existent product", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, productID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		product, err := repo.FindByIDForTenant(context.Background(), tenantID, productID)

		assert.Error(t, err)
		assert.Nil(t, product)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_FindBySKU(t *testing.T) {
	t.Run("finds product by SKU", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE tenant_id = \$1 AND sku = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, "PIZZA-001", 1).
			WillReturnRows(productRows(productID, tenantID, "PIZZA-001", "Margherita Pizza", catalog.InventoryModeBOMManaged))

		product, err := repo.FindBySKU(context.Background(), tenantID, "pizza-001") // lowercase to test uppercasing

		assert.NoError(t, err)
		assert.NotNil(t, product)
		assert.Equal(t, "PIZZA-001", product.SKU)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_FindByInventoryMode(t *testing.T) {
	t.Run("filters on the inventory mode column", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE tenant_id = \$1 AND inventory_mode = \$2 ORDER BY sku ASC`).
			WithArgs(tenantID, catalog.InventoryModeSimple).
			WillReturnRows(productRows(productID, tenantID, "COLA-001", "Cola Can", catalog.InventoryModeSimple))

		products, err := repo.FindByInventoryMode(context.Background(), tenantID, catalog.InventoryModeSimple, shared.Filter{})

		assert.NoError(t, err)
		assert.Len(t, products, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_FindByIDs(t *testing.T) {
	t.Run("returns empty slice for empty IDs", func(t *testing.T) {
		repo, _, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		products, err := repo.FindByIDs(context.Background(), uuid.New(), []uuid.UUID{})

		assert.NoError(t, err)
		assert.Empty(t, products)
	})
}

func TestGormProductRepository_DeleteForTenant(t *testing.T) {
	t.Run("deletes product within tenant", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		productID := uuid.New()

		mock.ExpectExec(`DELETE FROM "products" WHERE tenant_id = \$1 AND id = \$2`).
			WithArgs(tenantID, productID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.DeleteForTenant(context.Background(), tenantID, productID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for non-existent product", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		productID := uuid.New()

		mock.ExpectExec(`DELETE FROM "products" WHERE tenant_id = \$1 AND id = \$2`).
			WithArgs(tenantID, productID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DeleteForTenant(context.Background(), tenantID, productID)

		assert.Error(t, err)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_ExistsBySKU(t *testing.T) {
	t.Run("returns true when product exists", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "products" WHERE tenant_id = \$1 AND sku = \$2`).
			WithArgs(tenantID, "PIZZA-001").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := repo.ExistsBySKU(context.Background(), tenantID, "pizza-001")

		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_InterfaceCompliance(t *testing.T) {
	t.Run("implements ProductRepository interface", func(t *testing.T) {
		repo, _, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		var _ catalog.ProductRepository = repo
	})
}
