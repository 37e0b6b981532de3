package handler

import (
	recipeapp "github.com/mrp/backend/internal/application/recipe"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RecipeHandler handles recipe and recipe component API endpoints
type RecipeHandler struct {
	BaseHandler
	recipeService *recipeapp.RecipeService
}

// NewRecipeHandler creates a new RecipeHandler
func NewRecipeHandler(recipeService *recipeapp.RecipeService) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
	}
}

// Create godoc
// @ID           createRecipe
//
//	@Summary		Create a recipe
//	@Description	Create a bill of materials for a product, optionally with its component lines. New recipes start inactive.
//	@Tags			recipes
//	@Accept			json
//	@Produce		json
//	@Param			X-Tenant-ID	header		string								false	"Tenant ID (optional for dev)"
//	@Param			request		body		recipeapp.CreateRecipeRequest		true	"Recipe to create"
//	@Success		201			{object}	APIResponse[recipeapp.RecipeResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/recipes [post]
func (h *RecipeHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req recipeapp.CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rec, err := h.recipeService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, rec)
}

// List godoc
// @ID           listRecipes
//
//	@Summary		List recipes
//	@Description	Retrieve a paginated list of recipes with optional filtering
//	@Tags			recipes
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			search		query		string	false	"Search term (name)"
//	@Param			product_id	query		string	false	"Filter by product"	format(uuid)
//	@Param			lifecycle	query		string	false	"Lifecycle filter"	Enums(active, archived)
//	@Param			is_active	query		boolean	false	"Only active (or inactive) recipes"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)	maximum(100)
//	@Success		200			{object}	APIResponse[[]recipeapp.RecipeListResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/recipes [get]
func (h *RecipeHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter recipeapp.RecipeListFilter
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

	recipes, total, err := h.recipeService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, recipes, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getRecipeById
//
//	@Summary		Get recipe by ID
//	@Description	Retrieve a recipe with its component lines
//	@Tags			recipes
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			id			path		string	true	"Recipe ID"	format(uuid)
//	@Success		200			{object}	APIResponse[recipeapp.RecipeResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/recipes/{id} [get]
func (h *RecipeHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid recipe ID format")
		return
	}

	rec, err := h.recipeService.GetByID(c.Request.Context(), tenantID, recipeID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, rec)
}

// Update godoc
// @ID           updateRecipe
//
//	@Summary		Update a recipe
//	@Description	Update a recipe's descriptive fields. Components move through the component endpoints.
//	@Tags			recipes
//	@Accept			json
//	@Produce		json
//	@Param			X-Tenant-ID	header		string								false	"Tenant ID (optional for dev)"
//	@Param			id			path		string								true	"Recipe ID"	format(uuid)
//	@Param			request		body		recipeapp.UpdateRecipeRequest		true	"Fields to update"
//	@Success		200			{object}	APIResponse[recipeapp.RecipeResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/recipes/{id} [put]
func (h *RecipeHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid recipe ID format")
		return
	}

	var req recipeapp.UpdateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rec, err := h.recipeService.Update(c.Request.Context(), tenantID, recipeID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, rec)
}

// Activate godoc
// @ID           activateRecipe
//
//	@Summary		Activate a recipe
//	@Description	Make this recipe the product's active bill of materials. Every other recipe of the same product is deactivated in the same transaction.
//	@Tags			recipes
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			id			path		string	true	"Recipe ID"	format(uuid)
//	@Success		200			{object}	APIResponse[recipeapp.ActivationResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/recipes/{id}/activate [post]
func (h *RecipeHandler) Activate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid recipe ID format")
		return
	}

	activation, err := h.recipeService.Activate(c.Request.Context(), tenantID, recipeID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, activation)
}

// Archive godoc
// @ID           archiveRecipe
//
//	@Summary		Archive a recipe
//	@Description	Archive a recipe. An active recipe is deactivated first; restoring does not reactivate it.
//	@Tags			recipes
//	@Produce		json
//	@Param			X-Tenant-ID	header	string	false	"Tenant ID (optional for dev)"
//	@Param			id			path	string	true	"Recipe ID"	format(uuid)
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/recipes/{id} [delete]
func (h *RecipeHandler) Archive(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid recipe ID format")
		return
	}

	if err := h.recipeService.Archive(c.Request.Context(), tenantID, recipeID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Restore godoc
// @ID           restoreRecipe
//
//	@Summary		Restore an archived recipe
//	@Description	Bring an archived recipe back. The restored recipe is inactive until explicitly activated.
//	@Tags			recipes
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			id			path		string	true	"Recipe ID"	format(uuid)
//	@Success		200			{object}	APIResponse[recipeapp.RecipeResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/recipes/{id}/restore [post]
func (h *RecipeHandler) Restore(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid recipe ID format")
		return
	}

	rec, err := h.recipeService.Restore(c.Request.Context(), tenantID, recipeID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, rec)
}

// AddComponent godoc
// @ID           addRecipeComponent
//
//	@Summary		Add a component
//	@Description	Add a material line to a recipe. A material may appear at most once per recipe.
//	@Tags			recipes
//	@Accept			json
//	@Produce		json
//	@Param			X-Tenant-ID	header		string								false	"Tenant ID (optional for dev)"
//	@Param			id			path		string								true	"Recipe ID"	format(uuid)
//	@Param			request		body		recipeapp.AddComponentRequest		true	"Component line"
//	@Success		200			{object}	APIResponse[recipeapp.RecipeResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/recipes/{id}/components [post]
func (h *RecipeHandler) AddComponent(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid recipe ID format")
		return
	}

	var req recipeapp.AddComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rec, err := h.recipeService.AddComponent(c.Request.Context(), tenantID, recipeID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, rec)
}

// UpdateComponent godoc
// @ID           updateRecipeComponent
//
//	@Summary		Update a component
//	@Description	Change the required quantity or waste percentage of a component line
//	@Tags			recipes
//	@Accept			json
//	@Produce		json
//	@Param			X-Tenant-ID		header		string								false	"Tenant ID (optional for dev)"
//	@Param			id				path		string								true	"Recipe ID"		format(uuid)
//	@Param			component_id	path		string								true	"Component ID"	format(uuid)
//	@Param			request			body		recipeapp.UpdateComponentRequest	true	"New values"
//	@Success		200				{object}	APIResponse[recipeapp.RecipeResponse]
//	@Failure		400				{object}	ErrorResponse
//	@Failure		401				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Failure		500				{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/recipes/{id}/components/{component_id} [put]
func (h *RecipeHandler) UpdateComponent(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid recipe ID format")
		return
	}

	componentID, err := uuid.Parse(c.Param("component_id"))
	if err != nil {
		h.BadRequest(c, "Invalid component ID format")
		return
	}

	var req recipeapp.UpdateComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rec, err := h.recipeService.UpdateComponent(c.Request.Context(), tenantID, recipeID, componentID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, rec)
}

// RemoveComponent godoc
// @ID           removeRecipeComponent
//
//	@Summary		Remove a component
//	@Description	Remove a material line from a recipe. The last line of an active recipe cannot be removed.
//	@Tags			recipes
//	@Produce		json
//	@Param			X-Tenant-ID		header		string	false	"Tenant ID (optional for dev)"
//	@Param			id				path		string	true	"Recipe ID"		format(uuid)
//	@Param			component_id	path		string	true	"Component ID"	format(uuid)
//	@Success		200				{object}	APIResponse[recipeapp.RecipeResponse]
//	@Failure		400				{object}	ErrorResponse
//	@Failure		401				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Failure		409				{object}	ErrorResponse
//	@Failure		500				{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/recipes/{id}/components/{component_id} [delete]
func (h *RecipeHandler) RemoveComponent(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid recipe ID format")
		return
	}

	componentID, err := uuid.Parse(c.Param("component_id"))
	if err != nil {
		h.BadRequest(c, "Invalid component ID format")
		return
	}

	rec, err := h.recipeService.RemoveComponent(c.Request.Context(), tenantID, recipeID, componentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, rec)
}
