package handler

import (
	"io"
	"net/http"

	inventoryapp "github.com/mrp/backend/internal/application/inventory"
	"github.com/mrp/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MaterialImportHandler handles bulk material import from CSV files
type MaterialImportHandler struct {
	BaseHandler
	importService *inventoryapp.MaterialImportService
}

// NewMaterialImportHandler creates a new MaterialImportHandler
func NewMaterialImportHandler(importService *inventoryapp.MaterialImportService) *MaterialImportHandler {
	return &MaterialImportHandler{
		importService: importService,
	}
}

// Import godoc
// @ID           importMaterials
//
//	@Summary		Import materials from CSV
//	@Description	Bulk-create materials from an uploaded CSV file (columns: sku, name, unit, optional stock_quantity, reorder_level, unit_cost, description). Each row commits atomically with its opening ledger entry; row failures are collected without aborting the rest of the file.
//	@Tags			inventory
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			file		formData	file	true	"CSV file (max 5MB)"
//	@Success		200			{object}	APIResponse[inventoryapp.MaterialImportResult]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		413			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/inventory/import/materials [post]
func (h *MaterialImportHandler) Import(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "CSV file is required (multipart field 'file')")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > inventoryapp.MaxImportFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeValidationLength, "CSV file exceeds the 5MB import limit")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, inventoryapp.MaxImportFileSize+1))
	if err != nil {
		h.InternalError(c, "Failed to read uploaded file")
		return
	}
	if int64(len(data)) > inventoryapp.MaxImportFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeValidationLength, "CSV file exceeds the 5MB import limit")
		return
	}

	var operatorID *uuid.UUID
	if userID, err := getUserID(c); err == nil {
		operatorID = &userID
	}

	result, err := h.importService.ImportFromBytes(c.Request.Context(), tenantID, operatorID, data)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}
