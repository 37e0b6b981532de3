package inventory

import (
	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeMaterial = "Material"

// Event type constants. The stock_adjusted event is the contract the alert
// service subscribes to; its name is part of the public surface.
const (
	EventTypeMaterialStockAdjusted = "inventory.material.stock_adjusted"
	EventTypeMaterialArchived      = "inventory.material.archived"
	EventTypeMaterialRestored      = "inventory.material.restored"
)

// MaterialStockAdjustedEvent is raised for every ledger mutation of a
// material's stock, regardless of transaction type.
type MaterialStockAdjustedEvent struct {
	shared.BaseDomainEvent
	MaterialID      uuid.UUID       `json:"material_id"`
	SKU             string          `json:"sku"`
	TransactionType TransactionType `json:"transaction_type"`
	QuantityBefore  decimal.Decimal `json:"quantity_before"`
	QuantityChange  decimal.Decimal `json:"quantity_change"`
	QuantityAfter   decimal.Decimal `json:"quantity_after"`
	ReorderLevel    decimal.Decimal `json:"reorder_level"`
}

// NewMaterialStockAdjustedEvent creates a new MaterialStockAdjustedEvent
func NewMaterialStockAdjustedEvent(material *Material, txType TransactionType, before, change, after decimal.Decimal) *MaterialStockAdjustedEvent {
	return &MaterialStockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMaterialStockAdjusted, AggregateTypeMaterial, material.ID, material.TenantID),
		MaterialID:      material.ID,
		SKU:             material.SKU,
		TransactionType: txType,
		QuantityBefore:  before,
		QuantityChange:  change,
		QuantityAfter:   after,
		ReorderLevel:    material.ReorderLevel,
	}
}

// MaterialArchivedEvent is raised when a material is archived
type MaterialArchivedEvent struct {
	shared.BaseDomainEvent
	MaterialID uuid.UUID `json:"material_id"`
	SKU        string    `json:"sku"`
}

// NewMaterialArchivedEvent creates a new MaterialArchivedEvent
func NewMaterialArchivedEvent(material *Material) *MaterialArchivedEvent {
	return &MaterialArchivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMaterialArchived, AggregateTypeMaterial, material.ID, material.TenantID),
		MaterialID:      material.ID,
		SKU:             material.SKU,
	}
}

// MaterialRestoredEvent is raised when an archived material is restored
type MaterialRestoredEvent struct {
	shared.BaseDomainEvent
	MaterialID uuid.UUID `json:"material_id"`
	SKU        string    `json:"sku"`
}

// NewMaterialRestoredEvent creates a new MaterialRestoredEvent
func NewMaterialRestoredEvent(material *Material) *MaterialRestoredEvent {
	return &MaterialRestoredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMaterialRestored, AggregateTypeMaterial, material.ID, material.TenantID),
		MaterialID:      material.ID,
		SKU:             material.SKU,
	}
}
