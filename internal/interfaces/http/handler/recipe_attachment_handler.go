package handler

import (
	recipeapp "github.com/mrp/backend/internal/application/recipe"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RecipeAttachmentHandler handles recipe attachment API endpoints.
// Uploads go through a presigned URL flow: initiate, PUT the bytes to
// object storage, then confirm.
type RecipeAttachmentHandler struct {
	BaseHandler
	attachmentService *recipeapp.AttachmentService
}

// NewRecipeAttachmentHandler creates a new RecipeAttachmentHandler
func NewRecipeAttachmentHandler(attachmentService *recipeapp.AttachmentService) *RecipeAttachmentHandler {
	return &RecipeAttachmentHandler{
		attachmentService: attachmentService,
	}
}

// InitiateUpload godoc
// @ID           initiateRecipeAttachmentUpload
//
//	@Summary		Start an attachment upload
//	@Description	Create a pending attachment and return a presigned URL the client PUTs the file to
//	@Tags			recipes
//	@Accept			json
//	@Produce		json
//	@Param			X-Tenant-ID	header		string								false	"Tenant ID (optional for dev)"
//	@Param			id			path		string								true	"Recipe ID"	format(uuid)
//	@Param			request		body		recipeapp.InitiateUploadRequest		true	"File metadata"
//	@Success		201			{object}	APIResponse[recipeapp.InitiateUploadResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/recipes/{id}/attachments [post]
func (h *RecipeAttachmentHandler) InitiateUpload(c *gin.Context) {
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

	var req recipeapp.InitiateUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var uploadedBy *uuid.UUID
	if userID, err := getUserID(c); err == nil {
		uploadedBy = &userID
	}

	resp, err := h.attachmentService.InitiateUpload(c.Request.Context(), tenantID, recipeID, req, uploadedBy)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// ConfirmUpload godoc
// @ID           confirmRecipeAttachmentUpload
//
//	@Summary		Confirm an attachment upload
//	@Description	Verify the object landed in storage and activate the pending attachment
//	@Tags			recipes
//	@Produce		json
//	@Param			X-Tenant-ID		header		string	false	"Tenant ID (optional for dev)"
//	@Param			id				path		string	true	"Recipe ID"		format(uuid)
//	@Param			attachment_id	path		string	true	"Attachment ID"	format(uuid)
//	@Success		200				{object}	APIResponse[recipeapp.AttachmentResponse]
//	@Failure		400				{object}	ErrorResponse
//	@Failure		401				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Failure		422				{object}	ErrorResponse
//	@Failure		500				{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/recipes/{id}/attachments/{attachment_id}/confirm [post]
func (h *RecipeAttachmentHandler) ConfirmUpload(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	attachmentID, err := uuid.Parse(c.Param("attachment_id"))
	if err != nil {
		h.BadRequest(c, "Invalid attachment ID format")
		return
	}

	attachment, err := h.attachmentService.ConfirmUpload(c.Request.Context(), tenantID, attachmentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, attachment)
}

// ListByRecipe godoc
// @ID           listRecipeAttachments
//
//	@Summary		List attachments of a recipe
//	@Description	Active attachments with short-lived download URLs
//	@Tags			recipes
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			id			path		string	true	"Recipe ID"	format(uuid)
//	@Success		200			{object}	APIResponse[[]recipeapp.AttachmentResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/recipes/{id}/attachments [get]
func (h *RecipeAttachmentHandler) ListByRecipe(c *gin.Context) {
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

	attachments, err := h.attachmentService.ListByRecipe(c.Request.Context(), tenantID, recipeID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, attachments)
}

// Delete godoc
// @ID           deleteRecipeAttachment
//
//	@Summary		Delete an attachment
//	@Description	Remove an attachment record and reclaim its stored object best-effort
//	@Tags			recipes
//	@Produce		json
//	@Param			X-Tenant-ID		header	string	false	"Tenant ID (optional for dev)"
//	@Param			id				path	string	true	"Recipe ID"		format(uuid)
//	@Param			attachment_id	path	string	true	"Attachment ID"	format(uuid)
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/recipes/{id}/attachments/{attachment_id} [delete]
func (h *RecipeAttachmentHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	attachmentID, err := uuid.Parse(c.Param("attachment_id"))
	if err != nil {
		h.BadRequest(c, "Invalid attachment ID format")
		return
	}

	if err := h.attachmentService.Delete(c.Request.Context(), tenantID, attachmentID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
