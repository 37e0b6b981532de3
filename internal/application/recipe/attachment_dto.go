package recipe

import (
	"time"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/recipe"
)

// InitiateUploadRequest represents a request to attach a file to a recipe
type InitiateUploadRequest struct {
	FileName    string `json:"file_name" binding:"required,min=1,max=255"`
	SizeBytes   int64  `json:"size_bytes" binding:"required,gt=0"`
	ContentType string `json:"content_type" binding:"required"`
}

// InitiateUploadResponse carries the presigned URL the client PUTs the bytes
// to. The attachment stays pending until the upload is confirmed.
type InitiateUploadResponse struct {
	AttachmentID uuid.UUID `json:"attachment_id"`
	UploadURL    string    `json:"upload_url"`
	StorageKey   string    `json:"storage_key"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AttachmentResponse represents a recipe attachment in API responses
type AttachmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	RecipeID    uuid.UUID  `json:"recipe_id"`
	Status      string     `json:"status"`
	FileName    string     `json:"file_name"`
	ContentType string     `json:"content_type"`
	SizeBytes   int64      `json:"size_bytes"`
	StorageKey  string     `json:"storage_key"`
	UploadedBy  *uuid.UUID `json:"uploaded_by,omitempty"`
	URL         string     `json:"url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Version     int        `json:"version"`
}

// ToAttachmentResponse converts a domain RecipeAttachment to AttachmentResponse
func ToAttachmentResponse(a *recipe.RecipeAttachment) AttachmentResponse {
	return AttachmentResponse{
		ID:          a.ID,
		TenantID:    a.TenantID,
		RecipeID:    a.RecipeID,
		Status:      string(a.Status),
		FileName:    a.FileName,
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
		StorageKey:  a.StorageKey,
		UploadedBy:  a.UploadedBy,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		Version:     a.Version,
	}
}

// ToAttachmentResponses converts a slice of domain RecipeAttachments to AttachmentResponses
func ToAttachmentResponses(attachments []recipe.RecipeAttachment) []AttachmentResponse {
	responses := make([]AttachmentResponse, len(attachments))
	for i := range attachments {
		responses[i] = ToAttachmentResponse(&attachments[i])
	}
	return responses
}
