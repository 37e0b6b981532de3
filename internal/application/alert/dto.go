package alert

import (
	"time"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/application/planning"
	"github.com/mrp/backend/internal/domain/alert"
	"github.com/shopspring/decimal"
)

// AlertListFilter filters and paginates alert listings.
type AlertListFilter struct {
	Severity string `form:"severity" binding:"omitempty,oneof=low critical out_of_stock"`
	Status   string `form:"status" binding:"omitempty,oneof=pending acknowledged resolved dismissed"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// StockSufficiencyRequest is a proposed set of orders to check against
// current stock.
type StockSufficiencyRequest struct {
	Plan []planning.ProductionPlanEntry `json:"plan" binding:"required,min=1,dive"`
}

// AlertResponse is the full representation of a stock alert.
type AlertResponse struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	MaterialID     uuid.UUID       `json:"material_id"`
	ProductID      *uuid.UUID      `json:"product_id,omitempty"`
	Severity       string          `json:"severity"`
	Status         string          `json:"status"`
	StockQuantity  decimal.Decimal `json:"stock_quantity"`
	ReorderLevel   decimal.Decimal `json:"reorder_level"`
	Message        string          `json:"message"`
	DetectedAt     time.Time       `json:"detected_at"`
	AcknowledgedAt *time.Time      `json:"acknowledged_at,omitempty"`
	AcknowledgedBy *uuid.UUID      `json:"acknowledged_by,omitempty"`
	ResolvedAt     *time.Time      `json:"resolved_at,omitempty"`
	ResolvedBy     *uuid.UUID      `json:"resolved_by,omitempty"`
	DismissedAt    *time.Time      `json:"dismissed_at,omitempty"`
	DismissedBy    *uuid.UUID      `json:"dismissed_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Version        int             `json:"version"`
}

// SeveritySummary counts a tenant's actionable alerts per severity grade.
type SeveritySummary struct {
	OutOfStock int64 `json:"out_of_stock"`
	Critical   int64 `json:"critical"`
	Low        int64 `json:"low"`
	Total      int64 `json:"total"`
}

// ActiveAlertsResponse is the alert overview: severity counts plus the
// actionable rows, most urgent first.
type ActiveAlertsResponse struct {
	Summary SeveritySummary `json:"summary"`
	Alerts  []AlertResponse `json:"alerts"`
}

// PredictiveAlert projects when a material runs dry at its recent
// consumption rate.
type PredictiveAlert struct {
	MaterialID        uuid.UUID       `json:"material_id"`
	MaterialSKU       string          `json:"material_sku"`
	MaterialName      string          `json:"material_name"`
	Unit              string          `json:"unit"`
	CurrentStock      decimal.Decimal `json:"current_stock"`
	DailyConsumption  decimal.Decimal `json:"daily_consumption"`
	DaysUntilStockout int64           `json:"days_until_stockout"`
}

// ReorderRecommendation suggests a purchase quantity for a material that is
// below its reorder level or projected to run out within the horizon.
type ReorderRecommendation struct {
	MaterialID          uuid.UUID       `json:"material_id"`
	MaterialSKU         string          `json:"material_sku"`
	MaterialName        string          `json:"material_name"`
	Unit                string          `json:"unit"`
	CurrentStock        decimal.Decimal `json:"current_stock"`
	ReorderLevel        decimal.Decimal `json:"reorder_level"`
	DailyConsumption    decimal.Decimal `json:"daily_consumption"`
	RecommendedQuantity decimal.Decimal `json:"recommended_quantity"`
	EstimatedCost       decimal.Decimal `json:"estimated_cost"`
	Reason              string          `json:"reason"`
}

// StockSufficiencyResponse reports whether a proposed set of orders can be
// produced from current stock, with the materials that fall short.
type StockSufficiencyResponse struct {
	Feasible      bool                             `json:"feasible"`
	Shortages     []planning.AggregatedRequirement `json:"shortages"`
	ProductErrors []planning.ProductPlanError      `json:"product_errors,omitempty"`
}

// ToAlertResponse converts a stock alert to its response representation
func ToAlertResponse(a *alert.StockAlert) *AlertResponse {
	return &AlertResponse{
		ID:             a.ID,
		TenantID:       a.TenantID,
		MaterialID:     a.MaterialID,
		ProductID:      a.ProductID,
		Severity:       string(a.Severity),
		Status:         string(a.Status),
		StockQuantity:  a.StockQuantity,
		ReorderLevel:   a.ReorderLevel,
		Message:        a.Message,
		DetectedAt:     a.DetectedAt,
		AcknowledgedAt: a.AcknowledgedAt,
		AcknowledgedBy: a.AcknowledgedBy,
		ResolvedAt:     a.ResolvedAt,
		ResolvedBy:     a.ResolvedBy,
		DismissedAt:    a.DismissedAt,
		DismissedBy:    a.DismissedBy,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		Version:        a.Version,
	}
}

// ToAlertResponses converts a slice of stock alerts to responses
func ToAlertResponses(alerts []alert.StockAlert) []AlertResponse {
	responses := make([]AlertResponse, 0, len(alerts))
	for i := range alerts {
		responses = append(responses, *ToAlertResponse(&alerts[i]))
	}
	return responses
}
