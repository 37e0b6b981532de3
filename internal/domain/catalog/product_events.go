package catalog

import (
	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCreated  = "ProductCreated"
	EventTypeProductUpdated  = "ProductUpdated"
	EventTypeProductArchived = "ProductArchived"
	EventTypeProductRestored = "ProductRestored"
)

// ProductCreatedEvent is published when a new product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID     uuid.UUID     `json:"product_id"`
	SKU           string        `json:"sku"`
	Name          string        `json:"name"`
	Unit          string        `json:"unit"`
	InventoryMode InventoryMode `json:"inventory_mode"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(product *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, product.ID, product.TenantID),
		ProductID:       product.ID,
		SKU:             product.SKU,
		Name:            product.Name,
		Unit:            product.Unit.String(),
		InventoryMode:   product.InventoryMode,
	}
}

// ProductUpdatedEvent is published when a product is updated
type ProductUpdatedEvent struct {
	shared.BaseDomainEvent
	ProductID     uuid.UUID     `json:"product_id"`
	SKU           string        `json:"sku"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	InventoryMode InventoryMode `json:"inventory_mode"`
}

// NewProductUpdatedEvent creates a new ProductUpdatedEvent
func NewProductUpdatedEvent(product *Product) *ProductUpdatedEvent {
	return &ProductUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductUpdated, AggregateTypeProduct, product.ID, product.TenantID),
		ProductID:       product.ID,
		SKU:             product.SKU,
		Name:            product.Name,
		Description:     product.Description,
		InventoryMode:   product.InventoryMode,
	}
}

// ProductArchivedEvent is published when a product is archived
type ProductArchivedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
}

// NewProductArchivedEvent creates a new ProductArchivedEvent
func NewProductArchivedEvent(product *Product) *ProductArchivedEvent {
	return &ProductArchivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductArchived, AggregateTypeProduct, product.ID, product.TenantID),
		ProductID:       product.ID,
		SKU:             product.SKU,
	}
}

// ProductRestoredEvent is published when an archived product is restored
type ProductRestoredEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
}

// NewProductRestoredEvent creates a new ProductRestoredEvent
func NewProductRestoredEvent(product *Product) *ProductRestoredEvent {
	return &ProductRestoredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductRestored, AggregateTypeProduct, product.ID, product.TenantID),
		ProductID:       product.ID,
		SKU:             product.SKU,
	}
}
