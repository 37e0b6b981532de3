package alert

import (
	"time"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Severity grades how far a material's stock has fallen. Normal stock never
// produces an alert, so there is no "normal" severity.
type Severity string

const (
	SeverityLow        Severity = "low"
	SeverityCritical   Severity = "critical"
	SeverityOutOfStock Severity = "out_of_stock"
)

// IsValid returns true if the severity is one of the known grades
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityCritical, SeverityOutOfStock:
		return true
	}
	return false
}

// Rank orders severities for sorting, most urgent first.
func (s Severity) Rank() int {
	switch s {
	case SeverityOutOfStock:
		return 0
	case SeverityCritical:
		return 1
	default:
		return 2
	}
}

// AlertStatus is the lifecycle state of a stock alert
type AlertStatus string

const (
	AlertStatusPending      AlertStatus = "pending"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
	AlertStatusDismissed    AlertStatus = "dismissed"
)

// IsValid returns true if the status is one of the known states
func (s AlertStatus) IsValid() bool {
	switch s {
	case AlertStatusPending, AlertStatusAcknowledged, AlertStatusResolved, AlertStatusDismissed:
		return true
	}
	return false
}

// IsTerminal returns true for resolved and dismissed alerts, which never
// change again; recurrence creates a new alert row.
func (s AlertStatus) IsTerminal() bool {
	return s == AlertStatusResolved || s == AlertStatusDismissed
}

// StockAlert records one low-stock incident for a material. While the alert
// is actionable (pending or acknowledged) re-detections refresh its snapshot
// in place; once terminal it is immutable history.
type StockAlert struct {
	shared.TenantAggregateRoot
	MaterialID uuid.UUID  `gorm:"type:uuid;not null;index:idx_alert_tenant_material"`
	ProductID  *uuid.UUID `gorm:"type:uuid;index"`

	Severity Severity    `gorm:"type:varchar(15);not null;index"`
	Status   AlertStatus `gorm:"type:varchar(15);not null;default:'pending';index"`

	StockQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReorderLevel  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Message       string          `gorm:"type:varchar(500);not null"`
	DetectedAt    time.Time       `gorm:"type:timestamptz;not null"`

	AcknowledgedAt *time.Time `gorm:"type:timestamptz"`
	AcknowledgedBy *uuid.UUID `gorm:"type:uuid"`
	ResolvedAt     *time.Time `gorm:"type:timestamptz"`
	ResolvedBy     *uuid.UUID `gorm:"type:uuid"`
	DismissedAt    *time.Time `gorm:"type:timestamptz"`
	DismissedBy    *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (StockAlert) TableName() string {
	return "stock_alerts"
}

// NewStockAlert opens a new pending alert for a material.
func NewStockAlert(tenantID, materialID uuid.UUID, severity Severity, stockQuantity, reorderLevel decimal.Decimal, message string) (*StockAlert, error) {
	if materialID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MATERIAL", "Material ID cannot be empty")
	}
	if !severity.IsValid() {
		return nil, shared.NewDomainError("INVALID_SEVERITY", "Severity must be low, critical or out_of_stock")
	}
	if message == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Alert message cannot be empty")
	}

	alert := &StockAlert{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		MaterialID:          materialID,
		Severity:            severity,
		Status:              AlertStatusPending,
		StockQuantity:       stockQuantity,
		ReorderLevel:        reorderLevel,
		Message:             message,
		DetectedAt:          time.Now(),
	}

	alert.AddDomainEvent(NewStockAlertTriggeredEvent(alert))

	return alert, nil
}

// WithProduct links the alert to a product the shortage would bottleneck.
func (a *StockAlert) WithProduct(productID uuid.UUID) *StockAlert {
	a.ProductID = &productID
	return a
}

// RefreshSnapshot re-records the observed stock situation on an actionable
// alert. The status and transition stamps are untouched, so repeated
// detections of the same incident stay one row.
func (a *StockAlert) RefreshSnapshot(severity Severity, stockQuantity, reorderLevel decimal.Decimal, message string) error {
	if a.Status.IsTerminal() {
		return shared.NewDomainError("ALERT_TERMINAL", "Resolved or dismissed alerts cannot be updated")
	}
	if !severity.IsValid() {
		return shared.NewDomainError("INVALID_SEVERITY", "Severity must be low, critical or out_of_stock")
	}

	a.Severity = severity
	a.StockQuantity = stockQuantity
	a.ReorderLevel = reorderLevel
	a.Message = message
	a.DetectedAt = time.Now()
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// Acknowledge moves a pending alert into the acknowledged state.
func (a *StockAlert) Acknowledge(userID uuid.UUID) error {
	if a.Status != AlertStatusPending {
		return shared.NewDomainError("INVALID_TRANSITION", "Only pending alerts can be acknowledged")
	}

	now := time.Now()
	a.Status = AlertStatusAcknowledged
	a.AcknowledgedAt = &now
	a.AcknowledgedBy = &userID
	a.UpdatedAt = now
	a.IncrementVersion()

	return nil
}

// Resolve closes a pending or acknowledged alert as handled.
func (a *StockAlert) Resolve(userID uuid.UUID) error {
	if a.Status != AlertStatusPending && a.Status != AlertStatusAcknowledged {
		return shared.NewDomainError("INVALID_TRANSITION", "Only pending or acknowledged alerts can be resolved")
	}

	now := time.Now()
	a.Status = AlertStatusResolved
	a.ResolvedAt = &now
	a.ResolvedBy = &userID
	a.UpdatedAt = now
	a.IncrementVersion()

	return nil
}

// Dismiss closes a pending alert as not worth acting on. Acknowledged alerts
// cannot be dismissed; resolve them instead.
func (a *StockAlert) Dismiss(userID uuid.UUID) error {
	if a.Status != AlertStatusPending {
		return shared.NewDomainError("INVALID_TRANSITION", "Only pending alerts can be dismissed")
	}

	now := time.Now()
	a.Status = AlertStatusDismissed
	a.DismissedAt = &now
	a.DismissedBy = &userID
	a.UpdatedAt = now
	a.IncrementVersion()

	return nil
}

// IsActionable returns true while the alert still needs attention.
func (a *StockAlert) IsActionable() bool {
	return a.Status == AlertStatusPending || a.Status == AlertStatusAcknowledged
}
