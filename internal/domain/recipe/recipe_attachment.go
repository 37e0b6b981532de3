package recipe

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/shared"
)

// MaxAttachmentFileSize is the maximum allowed file size (20MB)
const MaxAttachmentFileSize = 20 * 1024 * 1024

// AttachmentStatus represents the upload lifecycle of a recipe attachment
type AttachmentStatus string

const (
	AttachmentStatusPending AttachmentStatus = "pending"
	AttachmentStatusActive  AttachmentStatus = "active"
	AttachmentStatusDeleted AttachmentStatus = "deleted"
)

// IsValid checks if the attachment status is valid
func (s AttachmentStatus) IsValid() bool {
	switch s {
	case AttachmentStatusPending, AttachmentStatusActive, AttachmentStatusDeleted:
		return true
	default:
		return false
	}
}

// RecipeAttachment is a document or photo attached to a recipe (process
// sheets, plating photos). Metadata lives here; the bytes live in object
// storage under StorageKey.
type RecipeAttachment struct {
	shared.TenantAggregateRoot
	RecipeID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	Status      AttachmentStatus `gorm:"type:varchar(10);not null;default:'pending'"`
	FileName    string           `gorm:"type:varchar(255);not null"`
	ContentType string           `gorm:"type:varchar(100);not null"`
	SizeBytes   int64            `gorm:"not null"`
	StorageKey  string           `gorm:"type:varchar(500);not null"`
	UploadedBy  *uuid.UUID       `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (RecipeAttachment) TableName() string {
	return "recipe_attachments"
}

// NewRecipeAttachment creates an attachment in pending status. Confirm it
// once the bytes have landed in object storage.
func NewRecipeAttachment(
	tenantID uuid.UUID,
	recipeID uuid.UUID,
	fileName string,
	contentType string,
	sizeBytes int64,
	storageKey string,
	uploadedBy *uuid.UUID,
) (*RecipeAttachment, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if recipeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECIPE", "Recipe ID cannot be empty")
	}
	if err := validateFileName(fileName); err != nil {
		return nil, err
	}
	if err := validateContentType(contentType); err != nil {
		return nil, err
	}
	if err := validateFileSize(sizeBytes); err != nil {
		return nil, err
	}
	if err := validateStorageKey(storageKey); err != nil {
		return nil, err
	}

	attachment := &RecipeAttachment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		RecipeID:            recipeID,
		Status:              AttachmentStatusPending,
		FileName:            fileName,
		ContentType:         contentType,
		SizeBytes:           sizeBytes,
		StorageKey:          storageKey,
		UploadedBy:          uploadedBy,
	}

	return attachment, nil
}

// Confirm activates the attachment after a successful upload.
func (a *RecipeAttachment) Confirm() error {
	if a.Status == AttachmentStatusActive {
		return shared.NewDomainError("ALREADY_CONFIRMED", "Attachment is already confirmed")
	}
	if a.Status == AttachmentStatusDeleted {
		return shared.NewDomainError("CANNOT_CONFIRM_DELETED", "Cannot confirm a deleted attachment")
	}

	a.Status = AttachmentStatusActive
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// Delete marks the attachment as deleted. Reclaiming the stored object is
// the caller's concern.
func (a *RecipeAttachment) Delete() error {
	if a.Status == AttachmentStatusDeleted {
		return shared.NewDomainError("ALREADY_DELETED", "Attachment is already deleted")
	}

	a.Status = AttachmentStatusDeleted
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// IsPending returns true if the attachment is pending confirmation
func (a *RecipeAttachment) IsPending() bool {
	return a.Status == AttachmentStatusPending
}

// IsActive returns true if the attachment is active
func (a *RecipeAttachment) IsActive() bool {
	return a.Status == AttachmentStatusActive
}

// IsDeleted returns true if the attachment is deleted
func (a *RecipeAttachment) IsDeleted() bool {
	return a.Status == AttachmentStatusDeleted
}

func validateFileName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot exceed 255 characters")
	}
	for _, r := range name {
		if r < 32 || r == 127 {
			return shared.NewDomainError("INVALID_FILE_NAME", "File name contains invalid characters")
		}
	}
	if strings.Contains(name, "/") || strings.Contains(name, "\\") {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot contain path separators")
	}
	return nil
}

func validateContentType(contentType string) error {
	if contentType == "" {
		return shared.NewDomainError("INVALID_CONTENT_TYPE", "Content type cannot be empty")
	}
	if len(contentType) > 100 {
		return shared.NewDomainError("INVALID_CONTENT_TYPE", "Content type cannot exceed 100 characters")
	}
	if !strings.Contains(contentType, "/") ||
		strings.HasPrefix(contentType, "/") || strings.HasSuffix(contentType, "/") {
		return shared.NewDomainError("INVALID_CONTENT_TYPE", "Content type must be in type/subtype format")
	}
	return nil
}

func validateFileSize(size int64) error {
	if size <= 0 {
		return shared.NewDomainError("INVALID_FILE_SIZE", "File size must be greater than 0")
	}
	if size > MaxAttachmentFileSize {
		return shared.NewDomainError("FILE_TOO_LARGE", "File size cannot exceed 20MB")
	}
	return nil
}

func validateStorageKey(key string) error {
	if key == "" {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key cannot be empty")
	}
	if len(key) > 500 {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key cannot exceed 500 characters")
	}
	if strings.Contains(key, "..") {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key cannot contain path traversal sequences")
	}
	if strings.HasPrefix(key, "/") {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key must be a relative path")
	}
	return nil
}
