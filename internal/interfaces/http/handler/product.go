package handler

import (
	catalogapp "github.com/mrp/backend/internal/application/catalog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProductHandler handles product-related API endpoints
type ProductHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *catalogapp.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// Create godoc
// @ID           createProduct
//
//	@Summary		Create a product
//	@Description	Create a new product. BOM-managed products derive availability from their active recipe; simple products track plain stock.
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			X-Tenant-ID	header		string									false	"Tenant ID (optional for dev)"
//	@Param			request		body		catalogapp.CreateProductRequest			true	"Product to create"
//	@Success		201			{object}	APIResponse[catalogapp.ProductResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/catalog/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req catalogapp.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product, err := h.productService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, product)
}

// List godoc
// @ID           listProducts
//
//	@Summary		List products
//	@Description	Retrieve a paginated list of products with optional filtering
//	@Tags			catalog
//	@Produce		json
//	@Param			X-Tenant-ID		header		string	false	"Tenant ID (optional for dev)"
//	@Param			search			query		string	false	"Search term (SKU or name)"
//	@Param			lifecycle		query		string	false	"Lifecycle filter"	Enums(active, archived)
//	@Param			inventory_mode	query		string	false	"Inventory mode filter"	Enums(bom_managed, simple)
//	@Param			page			query		int		false	"Page number"	default(1)
//	@Param			page_size		query		int		false	"Page size"		default(20)	maximum(100)
//	@Success		200				{object}	APIResponse[[]catalogapp.ProductListResponse]
//	@Failure		400				{object}	ErrorResponse
//	@Failure		401				{object}	ErrorResponse
//	@Failure		500				{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/catalog/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter catalogapp.ProductListFilter
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

	products, total, err := h.productService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, products, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getProductById
//
//	@Summary		Get product by ID
//	@Description	Retrieve a product by its ID
//	@Tags			catalog
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			id			path		string	true	"Product ID"	format(uuid)
//	@Success		200			{object}	APIResponse[catalogapp.ProductResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/catalog/products/{id} [get]
func (h *ProductHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), tenantID, productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, product)
}

// GetBySKU godoc
// @ID           getProductBySku
//
//	@Summary		Get product by SKU
//	@Description	Retrieve a product by its SKU
//	@Tags			catalog
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			sku			path		string	true	"Product SKU"
//	@Success		200			{object}	APIResponse[catalogapp.ProductResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/catalog/products/sku/{sku} [get]
func (h *ProductHandler) GetBySKU(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	sku := c.Param("sku")
	if sku == "" {
		h.BadRequest(c, "Product SKU is required")
		return
	}

	product, err := h.productService.GetBySKU(c.Request.Context(), tenantID, sku)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, product)
}

// Update godoc
// @ID           updateProduct
//
//	@Summary		Update a product
//	@Description	Update an existing product's details, including its inventory mode
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			X-Tenant-ID	header		string									false	"Tenant ID (optional for dev)"
//	@Param			id			path		string									true	"Product ID"	format(uuid)
//	@Param			request		body		catalogapp.UpdateProductRequest			true	"Fields to update"
//	@Success		200			{object}	APIResponse[catalogapp.ProductResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/catalog/products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var req catalogapp.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product, err := h.productService.Update(c.Request.Context(), tenantID, productID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, product)
}

// Archive godoc
// @ID           archiveProduct
//
//	@Summary		Archive a product
//	@Description	Archive a product, removing it from planning without deleting its history
//	@Tags			catalog
//	@Produce		json
//	@Param			X-Tenant-ID	header	string	false	"Tenant ID (optional for dev)"
//	@Param			id			path	string	true	"Product ID"	format(uuid)
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/catalog/products/{id} [delete]
func (h *ProductHandler) Archive(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	if err := h.productService.Archive(c.Request.Context(), tenantID, productID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Restore godoc
// @ID           restoreProduct
//
//	@Summary		Restore an archived product
//	@Description	Bring an archived product back into the active catalog
//	@Tags			catalog
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			id			path		string	true	"Product ID"	format(uuid)
//	@Success		200			{object}	APIResponse[catalogapp.ProductResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/catalog/products/{id}/restore [post]
func (h *ProductHandler) Restore(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	product, err := h.productService.Restore(c.Request.Context(), tenantID, productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, product)
}
