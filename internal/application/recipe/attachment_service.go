package recipe

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/recipe"
	"github.com/mrp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AllowedContentTypes is the whitelist for recipe attachments: process
// sheets, plating photos and bundled documentation. SVG is excluded because
// it can carry scripts.
var AllowedContentTypes = map[string]bool{
	// Images (SVG excluded)
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
	"image/tiff": true,
	// Documents
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	// Text
	"text/plain": true,
	"text/csv":   true,
	// Archives (for bundled documentation)
	"application/zip": true,
}

// ObjectStorageService is the port to presigned object storage. Implemented
// by the infrastructure layer (S3 or any S3-compatible backend).
type ObjectStorageService interface {
	// GenerateUploadURL generates a presigned URL for uploading a file
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// GenerateDownloadURL generates a presigned URL for downloading a file
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error

	// ObjectExists checks if an object exists in storage
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// AttachmentServiceConfig holds configuration for the attachment service
type AttachmentServiceConfig struct {
	// UploadURLExpiry is the duration for which upload URLs are valid
	UploadURLExpiry time.Duration
	// DownloadURLExpiry is the duration for which download URLs are valid
	DownloadURLExpiry time.Duration
	// MaxAttachmentsPerRecipe is the maximum number of attachments per recipe
	MaxAttachmentsPerRecipe int
}

// DefaultAttachmentServiceConfig returns the default configuration
func DefaultAttachmentServiceConfig() AttachmentServiceConfig {
	return AttachmentServiceConfig{
		UploadURLExpiry:         15 * time.Minute,
		DownloadURLExpiry:       1 * time.Hour,
		MaxAttachmentsPerRecipe: 20,
	}
}

// AttachmentService handles recipe attachment uploads via presigned URLs.
// Metadata rows move pending → active → deleted; the bytes live in object
// storage and are only ever reached through presigned URLs.
type AttachmentService struct {
	attachmentRepo recipe.RecipeAttachmentRepository
	recipeRepo     recipe.RecipeRepository
	storage        ObjectStorageService
	config         AttachmentServiceConfig
	logger         *zap.Logger
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(
	attachmentRepo recipe.RecipeAttachmentRepository,
	recipeRepo recipe.RecipeRepository,
	storage ObjectStorageService,
	logger *zap.Logger,
) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		recipeRepo:     recipeRepo,
		storage:        storage,
		config:         DefaultAttachmentServiceConfig(),
		logger:         logger,
	}
}

// SetConfig sets the service configuration
func (s *AttachmentService) SetConfig(config AttachmentServiceConfig) {
	s.config = config
}

// InitiateUpload creates a pending attachment record and returns a presigned
// upload URL. The record is removed again if no URL can be generated.
func (s *AttachmentService) InitiateUpload(
	ctx context.Context,
	tenantID, recipeID uuid.UUID,
	req InitiateUploadRequest,
	uploadedBy *uuid.UUID,
) (*InitiateUploadResponse, error) {
	if _, err := s.recipeRepo.FindByIDForTenant(ctx, tenantID, recipeID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("RECIPE_NOT_FOUND", "Recipe not found")
		}
		return nil, err
	}

	existing, err := s.attachmentRepo.FindByRecipe(ctx, tenantID, recipeID)
	if err != nil {
		return nil, err
	}
	if len(existing) >= s.config.MaxAttachmentsPerRecipe {
		return nil, shared.NewDomainError("ATTACHMENT_LIMIT_EXCEEDED",
			fmt.Sprintf("Maximum %d attachments per recipe allowed", s.config.MaxAttachmentsPerRecipe))
	}

	if !isAllowedContentType(req.ContentType) {
		return nil, shared.NewDomainError("DISALLOWED_CONTENT_TYPE",
			fmt.Sprintf("Content type '%s' is not allowed. Allowed types: images, PDF, Office documents and text files.", req.ContentType))
	}

	storageKey := s.generateStorageKey(tenantID, recipeID, req.FileName)

	attachment, err := recipe.NewRecipeAttachment(
		tenantID,
		recipeID,
		req.FileName,
		req.ContentType,
		req.SizeBytes,
		storageKey,
		uploadedBy,
	)
	if err != nil {
		return nil, err
	}

	if err := s.attachmentRepo.Save(ctx, attachment); err != nil {
		return nil, err
	}

	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, storageKey, req.ContentType, s.config.UploadURLExpiry)
	if err != nil {
		// Clean up the pending record so a retry starts fresh.
		_ = s.attachmentRepo.DeleteForTenant(ctx, tenantID, attachment.ID)
		return nil, shared.NewDomainError("UPLOAD_URL_FAILED", "Failed to generate upload URL")
	}

	return &InitiateUploadResponse{
		AttachmentID: attachment.ID,
		UploadURL:    uploadURL,
		StorageKey:   storageKey,
		ExpiresAt:    expiresAt,
	}, nil
}

// ConfirmUpload verifies the bytes landed in storage and activates the
// attachment.
func (s *AttachmentService) ConfirmUpload(ctx context.Context, tenantID, attachmentID uuid.UUID) (*AttachmentResponse, error) {
	attachment, err := s.attachmentRepo.FindByIDForTenant(ctx, tenantID, attachmentID)
	if err != nil {
		return nil, err
	}

	exists, err := s.storage.ObjectExists(ctx, attachment.StorageKey)
	if err != nil {
		return nil, shared.NewDomainError("STORAGE_CHECK_FAILED", "Failed to verify upload")
	}
	if !exists {
		return nil, shared.NewDomainError("UPLOAD_NOT_FOUND",
			"File not found in storage. Please upload the file first.")
	}

	if err := attachment.Confirm(); err != nil {
		return nil, err
	}
	if err := s.attachmentRepo.Save(ctx, attachment); err != nil {
		return nil, err
	}

	response := ToAttachmentResponse(attachment)
	s.enrichWithURL(ctx, &response, attachment)
	return &response, nil
}

// GetByID retrieves an attachment by ID
func (s *AttachmentService) GetByID(ctx context.Context, tenantID, attachmentID uuid.UUID) (*AttachmentResponse, error) {
	attachment, err := s.attachmentRepo.FindByIDForTenant(ctx, tenantID, attachmentID)
	if err != nil {
		return nil, err
	}

	response := ToAttachmentResponse(attachment)
	s.enrichWithURL(ctx, &response, attachment)
	return &response, nil
}

// ListByRecipe retrieves the non-deleted attachments of a recipe with
// download URLs for the confirmed ones.
func (s *AttachmentService) ListByRecipe(ctx context.Context, tenantID, recipeID uuid.UUID) ([]AttachmentResponse, error) {
	if _, err := s.recipeRepo.FindByIDForTenant(ctx, tenantID, recipeID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("RECIPE_NOT_FOUND", "Recipe not found")
		}
		return nil, err
	}

	attachments, err := s.attachmentRepo.FindByRecipe(ctx, tenantID, recipeID)
	if err != nil {
		return nil, err
	}

	responses := ToAttachmentResponses(attachments)
	for i := range attachments {
		s.enrichWithURL(ctx, &responses[i], &attachments[i])
	}
	return responses, nil
}

// Delete marks the attachment deleted and reclaims the stored object. A
// failed storage delete is logged and left behind; the metadata row is the
// source of truth.
func (s *AttachmentService) Delete(ctx context.Context, tenantID, attachmentID uuid.UUID) error {
	attachment, err := s.attachmentRepo.FindByIDForTenant(ctx, tenantID, attachmentID)
	if err != nil {
		return err
	}

	if err := attachment.Delete(); err != nil {
		return err
	}
	if err := s.attachmentRepo.Save(ctx, attachment); err != nil {
		return err
	}

	if err := s.storage.DeleteObject(ctx, attachment.StorageKey); err != nil {
		s.logger.Warn("failed to delete attachment object from storage",
			zap.String("attachment_id", attachment.ID.String()),
			zap.String("storage_key", attachment.StorageKey),
			zap.Error(err))
	}
	return nil
}

// generateStorageKey generates a unique storage key for a file
func (s *AttachmentService) generateStorageKey(tenantID, recipeID uuid.UUID, fileName string) string {
	ext := filepath.Ext(fileName)
	// Format: tenants/{tenantID}/recipes/{recipeID}/attachments/{uniqueID}{ext}
	return fmt.Sprintf("tenants/%s/recipes/%s/attachments/%s%s",
		tenantID.String(),
		recipeID.String(),
		uuid.New().String(),
		ext,
	)
}

// enrichWithURL adds a download URL to a confirmed attachment response
func (s *AttachmentService) enrichWithURL(ctx context.Context, response *AttachmentResponse, attachment *recipe.RecipeAttachment) {
	if !attachment.IsActive() {
		return
	}
	url, _, err := s.storage.GenerateDownloadURL(ctx, attachment.StorageKey, s.config.DownloadURLExpiry)
	if err == nil {
		response.URL = url
	}
}

// isAllowedContentType checks if a content type is in the whitelist
func isAllowedContentType(contentType string) bool {
	return AllowedContentTypes[strings.ToLower(contentType)]
}
