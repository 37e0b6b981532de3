package handler

import (
	inventoryapp "github.com/mrp/backend/internal/application/inventory"
	planningapp "github.com/mrp/backend/internal/application/planning"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InventoryHandler handles material and stock ledger API endpoints
type InventoryHandler struct {
	BaseHandler
	ledgerService   *inventoryapp.StockLedgerService
	planningService *planningapp.InventoryCalculationService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(
	ledgerService *inventoryapp.StockLedgerService,
	planningService *planningapp.InventoryCalculationService,
) *InventoryHandler {
	return &InventoryHandler{
		ledgerService:   ledgerService,
		planningService: planningService,
	}
}

// CreateMaterial godoc
// @ID           createMaterial
//
//	@Summary		Create a material
//	@Description	Create a new raw material for the tenant
//	@Tags			inventory
//	@Accept			json
//	@Produce		json
//	@Param			X-Tenant-ID	header		string										false	"Tenant ID (optional for dev)"
//	@Param			request		body		inventoryapp.CreateMaterialRequest			true	"Material to create"
//	@Success		201			{object}	APIResponse[inventoryapp.MaterialResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/inventory/materials [post]
func (h *InventoryHandler) CreateMaterial(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req inventoryapp.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	material, err := h.ledgerService.CreateMaterial(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, material)
}

// ListMaterials godoc
// @ID           listMaterials
//
//	@Summary		List materials
//	@Description	Retrieve a paginated list of materials with optional filtering
//	@Tags			inventory
//	@Produce		json
//	@Param			X-Tenant-ID			header		string	false	"Tenant ID (optional for dev)"
//	@Param			search				query		string	false	"Search term (SKU or name)"
//	@Param			lifecycle			query		string	false	"Lifecycle filter"	Enums(active, archived)
//	@Param			stock_status		query		string	false	"Stock status filter"	Enums(normal, low, critical, out_of_stock)
//	@Param			unit				query		string	false	"Unit filter"
//	@Param			below_reorder_level	query		boolean	false	"Only materials below their reorder level"
//	@Param			page				query		int		false	"Page number"	default(1)
//	@Param			page_size			query		int		false	"Page size"		default(20)	maximum(100)
//	@Success		200					{object}	APIResponse[[]inventoryapp.MaterialResponse]
//	@Failure		400					{object}	ErrorResponse
//	@Failure		401					{object}	ErrorResponse
//	@Failure		500					{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/inventory/materials [get]
func (h *InventoryHandler) ListMaterials(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter inventoryapp.MaterialListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	materials, total, err := h.ledgerService.ListMaterials(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, materials, total, filter.Page, filter.PageSize)
}

// GetMaterial godoc
// @ID           getMaterialById
//
//	@Summary		Get material by ID
//	@Description	Retrieve a material by its ID
//	@Tags			inventory
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			id			path		string	true	"Material ID"	format(uuid)
//	@Success		200			{object}	APIResponse[inventoryapp.MaterialResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/inventory/materials/{id} [get]
func (h *InventoryHandler) GetMaterial(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	material, err := h.ledgerService.GetMaterial(c.Request.Context(), tenantID, materialID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, material)
}

// GetMaterialBySKU godoc
// @ID           getMaterialBySku
//
//	@Summary		Get material by SKU
//	@Description	Retrieve a material by its SKU
//	@Tags			inventory
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			sku			path		string	true	"Material SKU"
//	@Success		200			{object}	APIResponse[inventoryapp.MaterialResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/inventory/materials/sku/{sku} [get]
func (h *InventoryHandler) GetMaterialBySKU(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	sku := c.Param("sku")
	if sku == "" {
		h.BadRequest(c, "Material SKU is required")
		return
	}

	material, err := h.ledgerService.GetMaterialBySKU(c.Request.Context(), tenantID, sku)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, material)
}

// UpdateMaterial godoc
// @ID           updateMaterial
//
//	@Summary		Update a material
//	@Description	Update a material's descriptive fields. Stock moves only through ledger adjustments.
//	@Tags			inventory
//	@Accept			json
//	@Produce		json
//	@Param			X-Tenant-ID	header		string										false	"Tenant ID (optional for dev)"
//	@Param			id			path		string										true	"Material ID"	format(uuid)
//	@Param			request		body		inventoryapp.UpdateMaterialRequest			true	"Fields to update"
//	@Success		200			{object}	APIResponse[inventoryapp.MaterialResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/inventory/materials/{id} [put]
func (h *InventoryHandler) UpdateMaterial(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	var req inventoryapp.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	material, err := h.ledgerService.UpdateMaterial(c.Request.Context(), tenantID, materialID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, material)
}

// ArchiveMaterial godoc
// @ID           archiveMaterial
//
//	@Summary		Archive a material
//	@Description	Archive a material. Blocked while any active recipe references it.
//	@Tags			inventory
//	@Produce		json
//	@Param			X-Tenant-ID	header	string	false	"Tenant ID (optional for dev)"
//	@Param			id			path	string	true	"Material ID"	format(uuid)
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/inventory/materials/{id} [delete]
func (h *InventoryHandler) ArchiveMaterial(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	if err := h.ledgerService.ArchiveMaterial(c.Request.Context(), tenantID, materialID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// RestoreMaterial godoc
// @ID           restoreMaterial
//
//	@Summary		Restore an archived material
//	@Description	Bring an archived material back into the active catalog
//	@Tags			inventory
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			id			path		string	true	"Material ID"	format(uuid)
//	@Success		200			{object}	APIResponse[inventoryapp.MaterialResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/inventory/materials/{id}/restore [post]
func (h *InventoryHandler) RestoreMaterial(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	material, err := h.ledgerService.RestoreMaterial(c.Request.Context(), tenantID, materialID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, material)
}

// CheckDeletable godoc
// @ID           checkMaterialDeletable
//
//	@Summary		Check whether a material can be archived
//	@Description	Report whether the material is free of active recipe references, with the blocking recipes if not
//	@Tags			inventory
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			id			path		string	true	"Material ID"	format(uuid)
//	@Success		200			{object}	APIResponse[inventoryapp.DeletionCheckResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/inventory/materials/{id}/deletable [get]
func (h *InventoryHandler) CheckDeletable(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	check, err := h.ledgerService.CanBeDeleted(c.Request.Context(), tenantID, materialID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, check)
}

// ListLowStockMaterials godoc
// @ID           listLowStockMaterials
//
//	@Summary		Low stock materials in active recipes
//	@Description	Materials at or below their reorder level that at least one active recipe depends on, with the products they would bottleneck
//	@Tags			inventory
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Success		200			{object}	APIResponse[[]planningapp.LowStockRecipeMaterial]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/inventory/materials/low-stock [get]
func (h *InventoryHandler) ListLowStockMaterials(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	materials, err := h.planningService.GetLowStockMaterialsInActiveRecipes(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, materials)
}

// AdjustStock godoc
// @ID           adjustStock
//
//	@Summary		Record a stock movement
//	@Description	Apply a restock, deduction or adjustment through the ledger. All-or-nothing: the stock change and the audit record commit together, and a movement that would drive stock negative is rejected.
//	@Tags			inventory
//	@Accept			json
//	@Produce		json
//	@Param			X-Tenant-ID	header		string										false	"Tenant ID (optional for dev)"
//	@Param			request		body		inventoryapp.AdjustStockRequest				true	"Stock movement"
//	@Success		201			{object}	APIResponse[inventoryapp.TransactionResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/inventory/stock/adjust [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req inventoryapp.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	// Attribute the movement to the authenticated user unless the caller
	// names an operator explicitly
	if req.OperatorID == nil {
		if userID, err := getUserID(c); err == nil {
			req.OperatorID = &userID
		}
	}

	tx, err := h.ledgerService.AdjustStock(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, tx)
}

// ListTransactions godoc
// @ID           listInventoryTransactions
//
//	@Summary		List ledger entries
//	@Description	Query the inventory transaction audit trail
//	@Tags			inventory
//	@Produce		json
//	@Param			X-Tenant-ID			header		string	false	"Tenant ID (optional for dev)"
//	@Param			material_id			query		string	false	"Filter by material ID"	format(uuid)
//	@Param			transaction_type	query		string	false	"Filter by type"	Enums(restock, deduction, adjustment)
//	@Param			reference_type		query		string	false	"Filter by reference type"
//	@Param			page				query		int		false	"Page number"	default(1)
//	@Param			page_size			query		int		false	"Page size"		default(20)	maximum(100)
//	@Success		200					{object}	APIResponse[[]inventoryapp.TransactionResponse]
//	@Failure		400					{object}	ErrorResponse
//	@Failure		401					{object}	ErrorResponse
//	@Failure		500					{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/inventory/transactions [get]
func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter inventoryapp.TransactionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	txs, total, err := h.ledgerService.ListTransactions(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, txs, total, filter.Page, filter.PageSize)
}

// ListMaterialTransactions godoc
// @ID           listMaterialTransactions
//
//	@Summary		List ledger entries for a material
//	@Description	Query the audit trail of a single material
//	@Tags			inventory
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			id			path		string	true	"Material ID"	format(uuid)
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)	maximum(100)
//	@Success		200			{object}	APIResponse[[]inventoryapp.TransactionResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/inventory/materials/{id}/transactions [get]
func (h *InventoryHandler) ListMaterialTransactions(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	var filter inventoryapp.TransactionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	txs, total, err := h.ledgerService.ListMaterialTransactions(c.Request.Context(), tenantID, materialID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, txs, total, filter.Page, filter.PageSize)
}

// GetTransaction godoc
// @ID           getInventoryTransactionById
//
//	@Summary		Get ledger entry by ID
//	@Description	Retrieve a single inventory transaction
//	@Tags			inventory
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			id			path		string	true	"Transaction ID"	format(uuid)
//	@Success		200			{object}	APIResponse[inventoryapp.TransactionResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/inventory/transactions/{id} [get]
func (h *InventoryHandler) GetTransaction(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	txID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID format")
		return
	}

	tx, err := h.ledgerService.GetTransaction(c.Request.Context(), tenantID, txID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, tx)
}
