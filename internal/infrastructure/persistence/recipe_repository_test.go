package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/recipe"
	"github.com/mrp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockRecipeRepository creates a GormRecipeRepository with a mocked SQL connection
func newMockRecipeRepository(t *testing.T) (*GormRecipeRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormRecipeRepository(gormDB), mock, mockDB
}

func recipeRows(id, tenantID, productID uuid.UUID, name string, isActive bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tenant_id", "product_id", "name", "yield_quantity", "yield_unit", "is_active", "lifecycle", "version"}).
		AddRow(id, tenantID, productID, name, decimal.NewFromInt(1), "pcs", isActive, "active", 1)
}

func componentRows(recipeID, materialID uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "recipe_id", "material_id", "quantity_required", "waste_percentage"}).
		AddRow(uuid.New(), recipeID, materialID, decimal.NewFromFloat(0.25), decimal.NewFromInt(10))
}

func TestGormRecipeRepository_FindByIDForTenant(t *testing.T) {
	t.Run("loads the recipe with its components", func(t *testing.T) {
		repo, mock, mockDB := newMockRecipeRepository(t)
		defer mockDB.Close()

		recipeID := uuid.New()
		tenantID := uuid.New()
		productID := uuid.New()
		materialID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "recipes" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, recipeID, 1).
			WillReturnRows(recipeRows(recipeID, tenantID, productID, "Margherita v2", true))
		mock.ExpectQuery(`SELECT \* FROM "recipe_components"`).
			WillReturnRows(componentRows(recipeID, materialID))

		rec, err := repo.FindByIDForTenant(context.Background(), tenantID, recipeID)

		assert.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, recipeID, rec.ID)
		require.Len(t, rec.Components, 1)
		assert.Equal(t, materialID, rec.Components[0].MaterialID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for non-existent recipe", func(t *testing.T) {
		repo, mock, mockDB := newMockRecipeRepository(t)
		defer mockDB.Close()

		recipeID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "recipes" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, recipeID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		rec, err := repo.FindByIDForTenant(context.Background(), tenantID, recipeID)

		assert.Error(t, err)
		assert.Nil(t, rec)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRecipeRepository_FindActiveByProduct(t *testing.T) {
	t.Run("finds the active recipe", func(t *testing.T) {
		repo, mock, mockDB := newMockRecipeRepository(t)
		defer mockDB.Close()

		recipeID := uuid.New()
		tenantID := uuid.New()
		productID := uuid.New()
		materialID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "recipes" WHERE tenant_id = \$1 AND product_id = \$2 AND is_active = \$3 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, productID, true, 1).
			WillReturnRows(recipeRows(recipeID, tenantID, productID, "Margherita v2", true))
		mock.ExpectQuery(`SELECT \* FROM "recipe_components"`).
			WillReturnRows(componentRows(recipeID, materialID))

		rec, err := repo.FindActiveByProduct(context.Background(), tenantID, productID)

		assert.NoError(t, err)
		require.NotNil(t, rec)
		assert.True(t, rec.IsActive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when the product has no active recipe", func(t *testing.T) {
		repo, mock, mockDB := newMockRecipeRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		productID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "recipes" WHERE tenant_id = \$1 AND product_id = \$2 AND is_active = \$3 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, productID, true, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		rec, err := repo.FindActiveByProduct(context.Background(), tenantID, productID)

		assert.Error(t, err)
		assert.Nil(t, rec)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRecipeRepository_FindActiveByProducts(t *testing.T) {
	t.Run("keys active recipes by product", func(t *testing.T) {
		repo, mock, mockDB := newMockRecipeRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		product1 := uuid.New()
		product2 := uuid.New()
		recipe1 := uuid.New()
		materialID := uuid.New()

		// product2 has no active recipe; only product1 comes back
		mock.ExpectQuery(`SELECT \* FROM "recipes" WHERE tenant_id = \$1 AND product_id IN \(\$2,\$3\) AND is_active = \$4`).
			WithArgs(tenantID, product1, product2, true).
			WillReturnRows(recipeRows(recipe1, tenantID, product1, "Margherita v2", true))
		mock.ExpectQuery(`SELECT \* FROM "recipe_components"`).
			WillReturnRows(componentRows(recipe1, materialID))

		byProduct, err := repo.FindActiveByProducts(context.Background(), tenantID, []uuid.UUID{product1, product2})

		assert.NoError(t, err)
		require.Len(t, byProduct, 1)
		assert.Equal(t, recipe1, byProduct[product1].ID)
		assert.NotContains(t, byProduct, product2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty map for empty product list", func(t *testing.T) {
		repo, _, mockDB := newMockRecipeRepository(t)
		defer mockDB.Close()

		byProduct, err := repo.FindActiveByProducts(context.Background(), uuid.New(), []uuid.UUID{})

		assert.NoError(t, err)
		assert.Empty(t, byProduct)
	})
}

func TestGormRecipeRepository_FindActiveByComponentMaterial(t *testing.T) {
	t.Run("joins through the component lines", func(t *testing.T) {
		repo, mock, mockDB := newMockRecipeRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		productID := uuid.New()
		recipeID := uuid.New()
		materialID := uuid.New()

		mock.ExpectQuery(`SELECT "recipes"\..* FROM "recipes" JOIN recipe_components rc ON rc\.recipe_id = recipes\.id WHERE recipes\.tenant_id = \$1 AND recipes\.is_active = \$2 AND rc\.material_id = \$3 ORDER BY recipes\.name ASC`).
			WithArgs(tenantID, true, materialID).
			WillReturnRows(recipeRows(recipeID, tenantID, productID, "Margherita v2", true))
		mock.ExpectQuery(`SELECT \* FROM "recipe_components"`).
			WillReturnRows(componentRows(recipeID, materialID))

		recipes, err := repo.FindActiveByComponentMaterial(context.Background(), tenantID, materialID)

		assert.NoError(t, err)
		assert.Len(t, recipes, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRecipeRepository_ActivateExclusive(t *testing.T) {
	t.Run("deactivates siblings and activates the target atomically", func(t *testing.T) {
		repo, mock, mockDB := newMockRecipeRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		recipeID := uuid.New()
		productID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "recipes" SET .* WHERE tenant_id = \$\d+ AND product_id = \$\d+ AND id <> \$\d+ AND is_active = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`UPDATE "recipes" SET .* WHERE tenant_id = \$\d+ AND id = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		deactivated, err := repo.ActivateExclusive(context.Background(), tenantID, recipeID, productID)

		assert.NoError(t, err)
		assert.Equal(t, int64(2), deactivated)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the target does not exist", func(t *testing.T) {
		repo, mock, mockDB := newMockRecipeRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		recipeID := uuid.New()
		productID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "recipes" SET .* WHERE tenant_id = \$\d+ AND product_id = \$\d+ AND id <> \$\d+ AND is_active = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`UPDATE "recipes" SET .* WHERE tenant_id = \$\d+ AND id = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		deactivated, err := repo.ActivateExclusive(context.Background(), tenantID, recipeID, productID)

		assert.Error(t, err)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.Equal(t, int64(0), deactivated)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRecipeRepository_DeleteForTenant(t *testing.T) {
	t.Run("deletes the recipe and its components", func(t *testing.T) {
		repo, mock, mockDB := newMockRecipeRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		recipeID := uuid.New()
		productID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "recipes" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, recipeID, 1).
			WillReturnRows(recipeRows(recipeID, tenantID, productID, "Margherita v1", false))
		mock.ExpectExec(`DELETE FROM "recipe_components" WHERE recipe_id = \$1`).
			WithArgs(recipeID).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(`DELETE FROM "recipes" WHERE tenant_id = \$1 AND id = \$2`).
			WithArgs(tenantID, recipeID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.DeleteForTenant(context.Background(), tenantID, recipeID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found without touching components", func(t *testing.T) {
		repo, mock, mockDB := newMockRecipeRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		recipeID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "recipes" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, recipeID, 1).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectRollback()

		err := repo.DeleteForTenant(context.Background(), tenantID, recipeID)

		assert.Error(t, err)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRecipeRepository_CountForTenant(t *testing.T) {
	t.Run("honors the product filter", func(t *testing.T) {
		repo, mock, mockDB := newMockRecipeRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		productID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "recipes" WHERE tenant_id = \$1 AND product_id = \$2`).
			WithArgs(tenantID, productID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		count, err := repo.CountForTenant(context.Background(), tenantID, shared.Filter{
			Filters: map[string]interface{}{"product_id": productID},
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(3), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRecipeRepository_InterfaceCompliance(t *testing.T) {
	t.Run("implements RecipeRepository interface", func(t *testing.T) {
		repo, _, mockDB := newMockRecipeRepository(t)
		defer mockDB.Close()

		var _ recipe.RecipeRepository = repo
	})
}
