package alert

import (
	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeStockAlert = "StockAlert"

// Event type constants
const (
	EventTypeStockAlertTriggered = "alert.stock.triggered"
)

// StockAlertTriggeredEvent is published on the first detection of a
// low-stock incident. Snapshot refreshes of the same incident do not emit
// further events.
type StockAlertTriggeredEvent struct {
	shared.BaseDomainEvent
	AlertID       uuid.UUID       `json:"alert_id"`
	MaterialID    uuid.UUID       `json:"material_id"`
	Severity      Severity        `json:"severity"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	ReorderLevel  decimal.Decimal `json:"reorder_level"`
}

// NewStockAlertTriggeredEvent creates a new StockAlertTriggeredEvent
func NewStockAlertTriggeredEvent(a *StockAlert) *StockAlertTriggeredEvent {
	return &StockAlertTriggeredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAlertTriggered, AggregateTypeStockAlert, a.ID, a.TenantID),
		AlertID:         a.ID,
		MaterialID:      a.MaterialID,
		Severity:        a.Severity,
		StockQuantity:   a.StockQuantity,
		ReorderLevel:    a.ReorderLevel,
	}
}
