package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/inventory"
	"github.com/mrp/backend/internal/domain/recipe"
	"github.com/mrp/backend/internal/domain/shared"
	"github.com/mrp/backend/internal/domain/shared/valueobject"
)

// StockLedgerService owns material master data and the append-only stock
// ledger. Every stock mutation goes through AdjustStock, which is the only
// blocking operation in the system: it serializes writers per (tenant,
// material) with a row lock so concurrent deductions cannot overdraw.
type StockLedgerService struct {
	materialRepo    inventory.MaterialRepository
	transactionRepo inventory.InventoryTransactionRepository
	recipeRepo      recipe.RecipeRepository
	txScope         TransactionScope
	idempotency     shared.IdempotencyStore
	idempotencyCfg  shared.IdempotencyConfig
	eventPublisher  shared.EventPublisher
}

// NewStockLedgerService creates a new StockLedgerService
func NewStockLedgerService(
	materialRepo inventory.MaterialRepository,
	transactionRepo inventory.InventoryTransactionRepository,
	recipeRepo recipe.RecipeRepository,
	txScope TransactionScope,
) *StockLedgerService {
	return &StockLedgerService{
		materialRepo:    materialRepo,
		transactionRepo: transactionRepo,
		recipeRepo:      recipeRepo,
		txScope:         txScope,
		idempotencyCfg:  shared.DefaultIdempotencyConfig(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *StockLedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore enables replay protection for adjustments that carry
// an idempotency key.
func (s *StockLedgerService) SetIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) {
	s.idempotency = store
	s.idempotencyCfg = cfg
}

// publishDomainEvents publishes all domain events from the material
func (s *StockLedgerService) publishDomainEvents(ctx context.Context, material *inventory.Material) {
	if s.eventPublisher == nil {
		return
	}
	events := material.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Publish events (errors are logged by the event bus, not propagated)
	_ = s.eventPublisher.Publish(ctx, events...)
	// Clear events after publishing
	material.ClearDomainEvents()
}

// CreateMaterial creates a new material with zero stock. Starting stock is
// recorded through AdjustStock so the opening balance shows up in the ledger.
func (s *StockLedgerService) CreateMaterial(ctx context.Context, tenantID uuid.UUID, req CreateMaterialRequest) (*MaterialResponse, error) {
	unit, err := valueobject.ParseUnit(req.Unit)
	if err != nil {
		return nil, err
	}

	exists, err := s.materialRepo.ExistsBySKU(ctx, tenantID, req.SKU)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("DUPLICATE_SKU", fmt.Sprintf("Material with SKU '%s' already exists", req.SKU))
	}

	material, err := inventory.NewMaterial(tenantID, req.SKU, req.Name, unit, req.ReorderLevel, req.UnitCost)
	if err != nil {
		return nil, err
	}
	if req.Description != "" {
		if err := material.Update(req.Name, req.Description); err != nil {
			return nil, err
		}
	}

	if err := s.materialRepo.Save(ctx, material); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, material)

	response := ToMaterialResponse(material)
	return &response, nil
}

// UpdateMaterial updates a material's descriptive fields. Stock quantity is
// deliberately not updatable here.
func (s *StockLedgerService) UpdateMaterial(ctx context.Context, tenantID, materialID uuid.UUID, req UpdateMaterialRequest) (*MaterialResponse, error) {
	material, err := s.materialRepo.FindByIDForTenant(ctx, tenantID, materialID)
	if err != nil {
		return nil, err
	}

	if err := material.Update(req.Name, req.Description); err != nil {
		return nil, err
	}
	if req.Unit != nil {
		unit, err := valueobject.ParseUnit(*req.Unit)
		if err != nil {
			return nil, err
		}
		if err := material.SetUnit(unit); err != nil {
			return nil, err
		}
	}
	if req.ReorderLevel != nil {
		if err := material.SetReorderLevel(*req.ReorderLevel); err != nil {
			return nil, err
		}
	}
	if req.UnitCost != nil {
		if err := material.SetUnitCost(*req.UnitCost); err != nil {
			return nil, err
		}
	}

	if err := s.materialRepo.SaveWithLock(ctx, material); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, material)

	response := ToMaterialResponse(material)
	return &response, nil
}

// GetMaterial retrieves a material by ID
func (s *StockLedgerService) GetMaterial(ctx context.Context, tenantID, materialID uuid.UUID) (*MaterialResponse, error) {
	material, err := s.materialRepo.FindByIDForTenant(ctx, tenantID, materialID)
	if err != nil {
		return nil, err
	}
	response := ToMaterialResponse(material)
	return &response, nil
}

// GetMaterialBySKU retrieves a material by its SKU
func (s *StockLedgerService) GetMaterialBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*MaterialResponse, error) {
	material, err := s.materialRepo.FindBySKU(ctx, tenantID, sku)
	if err != nil {
		return nil, err
	}
	response := ToMaterialResponse(material)
	return &response, nil
}

// ListMaterials retrieves materials with filtering and pagination
func (s *StockLedgerService) ListMaterials(ctx context.Context, tenantID uuid.UUID, filter MaterialListFilter) ([]MaterialResponse, int64, error) {
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
	if filter.Unit != "" {
		domainFilter.Filters["unit"] = filter.Unit
	}
	if filter.BelowReorderLevel != nil && *filter.BelowReorderLevel {
		domainFilter.Filters["below_reorder_level"] = true
	}
	if filter.StockStatus != "" {
		domainFilter.Filters["stock_status"] = filter.StockStatus
	}

	materials, err := s.materialRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.materialRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToMaterialResponses(materials), total, nil
}

// CanBeDeleted reports whether the material may be archived. A material
// referenced by any active recipe cannot be removed until those recipes are
// deactivated or reworked.
func (s *StockLedgerService) CanBeDeleted(ctx context.Context, tenantID, materialID uuid.UUID) (*DeletionCheckResponse, error) {
	if _, err := s.materialRepo.FindByIDForTenant(ctx, tenantID, materialID); err != nil {
		return nil, err
	}

	blocking, err := s.recipeRepo.FindActiveByComponentMaterial(ctx, tenantID, materialID)
	if err != nil {
		return nil, err
	}

	resp := &DeletionCheckResponse{CanBeDeleted: len(blocking) == 0}
	for i := range blocking {
		resp.BlockingRecipes = append(resp.BlockingRecipes, BlockingRecipeRef{
			RecipeID:   blocking[i].ID,
			RecipeName: blocking[i].Name,
			ProductID:  blocking[i].ProductID,
		})
	}
	return resp, nil
}

// ArchiveMaterial archives a material after verifying no active recipe still
// references it. The ledger history stays intact.
func (s *StockLedgerService) ArchiveMaterial(ctx context.Context, tenantID, materialID uuid.UUID) error {
	check, err := s.CanBeDeleted(ctx, tenantID, materialID)
	if err != nil {
		return err
	}
	if !check.CanBeDeleted {
		return shared.NewDomainError("MATERIAL_IN_USE",
			fmt.Sprintf("Material is used by %d active recipe(s) and cannot be archived", len(check.BlockingRecipes)))
	}

	material, err := s.materialRepo.FindByIDForTenant(ctx, tenantID, materialID)
	if err != nil {
		return err
	}
	if err := material.Archive(); err != nil {
		return err
	}
	if err := s.materialRepo.SaveWithLock(ctx, material); err != nil {
		return err
	}

	s.publishDomainEvents(ctx, material)
	return nil
}

// RestoreMaterial brings an archived material back into active use
func (s *StockLedgerService) RestoreMaterial(ctx context.Context, tenantID, materialID uuid.UUID) (*MaterialResponse, error) {
	material, err := s.materialRepo.FindByIDForTenant(ctx, tenantID, materialID)
	if err != nil {
		return nil, err
	}
	if err := material.Restore(); err != nil {
		return nil, err
	}
	if err := s.materialRepo.SaveWithLock(ctx, material); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, material)

	response := ToMaterialResponse(material)
	return &response, nil
}

// AdjustStock records a stock movement in the ledger. The material row is
// locked, the new balance validated (never below zero), and the material
// update plus the ledger entry commit in one transaction; on any error
// nothing is persisted.
//
// When the request carries an idempotency key the key is claimed atomically
// before the adjustment runs, so a concurrent or later replay returns
// ErrDuplicateAdjustment instead of applying twice. A key claimed by an
// adjustment that then fails is released again.
func (s *StockLedgerService) AdjustStock(ctx context.Context, tenantID uuid.UUID, req AdjustStockRequest) (*TransactionResponse, error) {
	txType := inventory.TransactionType(req.Type)
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE",
			fmt.Sprintf("Transaction type must be restock, deduction or adjustment, got '%s'", req.Type))
	}

	claimedKey := ""
	if req.IdempotencyKey != "" && s.idempotency != nil && s.idempotencyCfg.Enabled {
		fresh, err := s.idempotency.MarkProcessed(ctx, adjustmentKey(tenantID, req.IdempotencyKey), s.idempotencyCfg.TTL)
		if err != nil {
			return nil, err
		}
		if !fresh {
			return nil, shared.ErrDuplicateAdjustment
		}
		claimedKey = adjustmentKey(tenantID, req.IdempotencyKey)
	}

	var entry *inventory.InventoryTransaction
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		material, err := repos.MaterialRepo().FindByIDForTenantLocked(ctx, tenantID, req.MaterialID)
		if err != nil {
			return err
		}
		if material.IsArchived() {
			return shared.NewDomainError("MATERIAL_ARCHIVED", "Stock cannot be adjusted on an archived material")
		}

		before, err := material.ApplyStockChange(req.Quantity, txType)
		if err != nil {
			return err
		}

		tx, err := inventory.NewInventoryTransaction(tenantID, material.ID, txType, before, req.Quantity, req.Reason)
		if err != nil {
			return err
		}
		if req.Notes != "" {
			tx.WithNotes(req.Notes)
		}
		if req.ReferenceType != "" {
			refType := inventory.ReferenceType(req.ReferenceType)
			if !refType.IsValid() {
				return shared.NewDomainError("INVALID_REFERENCE_TYPE",
					fmt.Sprintf("Reference type '%s' is not supported", req.ReferenceType))
			}
			if req.ReferenceID != nil {
				tx.WithReference(refType, *req.ReferenceID)
			}
		}
		if req.OperatorID != nil {
			tx.WithOperatorID(*req.OperatorID)
		}

		if err := repos.MaterialRepo().SaveWithLock(ctx, material); err != nil {
			return err
		}
		if err := repos.TransactionRepo().Create(ctx, tx); err != nil {
			return err
		}

		entry = tx
		events = material.GetDomainEvents()
		material.ClearDomainEvents()
		return nil
	})
	if err != nil {
		if claimedKey != "" {
			// Nothing was applied; free the key for a retry.
			_ = s.idempotency.Release(ctx, claimedKey)
		}
		return nil, err
	}

	// Publish after commit so consumers never observe an uncommitted balance.
	if s.eventPublisher != nil && len(events) > 0 {
		_ = s.eventPublisher.Publish(ctx, events...)
	}

	response := ToTransactionResponse(entry)
	return &response, nil
}

// ListTransactions retrieves ledger entries for a tenant, newest first
func (s *StockLedgerService) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
	domainFilter := buildTransactionFilter(filter)

	txs, err := s.transactionRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.transactionRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToTransactionResponses(txs), total, nil
}

// ListMaterialTransactions retrieves the ledger history of one material
func (s *StockLedgerService) ListMaterialTransactions(ctx context.Context, tenantID, materialID uuid.UUID, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
	if _, err := s.materialRepo.FindByIDForTenant(ctx, tenantID, materialID); err != nil {
		return nil, 0, err
	}

	domainFilter := buildTransactionFilter(filter)

	txs, err := s.transactionRepo.FindByMaterial(ctx, tenantID, materialID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.transactionRepo.CountByMaterial(ctx, tenantID, materialID)
	if err != nil {
		return nil, 0, err
	}

	return ToTransactionResponses(txs), total, nil
}

// GetTransaction retrieves a single ledger entry
func (s *StockLedgerService) GetTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) (*TransactionResponse, error) {
	tx, err := s.transactionRepo.FindByIDForTenant(ctx, tenantID, transactionID)
	if err != nil {
		return nil, err
	}
	response := ToTransactionResponse(tx)
	return &response, nil
}

// buildTransactionFilter converts the API filter into a domain filter with defaults applied
func buildTransactionFilter(filter TransactionListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "transaction_date"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  make(map[string]interface{}),
	}
	if filter.MaterialID != nil {
		domainFilter.Filters["material_id"] = *filter.MaterialID
	}
	if filter.TransactionType != "" {
		domainFilter.Filters["transaction_type"] = filter.TransactionType
	}
	if filter.ReferenceType != "" {
		domainFilter.Filters["reference_type"] = filter.ReferenceType
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}
	return domainFilter
}

// adjustmentKey namespaces an idempotency key per tenant so two tenants can
// use the same client-generated key without colliding.
func adjustmentKey(tenantID uuid.UUID, key string) string {
	return "stock-adjust:" + tenantID.String() + ":" + key
}
