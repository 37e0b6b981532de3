package handler

import (
	"context"
	"strconv"

	alertapp "github.com/mrp/backend/internal/application/alert"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// defaultAlertHorizonDays is the projection window when the caller does not
// name one
const defaultAlertHorizonDays = 7

// AlertHandler handles stock alert API endpoints
type AlertHandler struct {
	BaseHandler
	alertService *alertapp.StockAlertService
}

// NewAlertHandler creates a new AlertHandler
func NewAlertHandler(alertService *alertapp.StockAlertService) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
	}
}

// parseHorizonDays reads the horizon_days query parameter with a default
func parseHorizonDays(c *gin.Context) (int, bool) {
	raw := c.Query("horizon_days")
	if raw == "" {
		return defaultAlertHorizonDays, true
	}
	horizon, err := strconv.Atoi(raw)
	if err != nil || horizon <= 0 || horizon > 365 {
		return 0, false
	}
	return horizon, true
}

// GetActiveAlerts godoc
// @ID           getActiveAlerts
//
//	@Summary		Active alerts overview
//	@Description	Actionable (pending or acknowledged) alerts with per-severity counts, most urgent first
//	@Tags			alerts
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			severity	query		string	false	"Severity filter"	Enums(low, critical, out_of_stock)
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)	maximum(100)
//	@Success		200			{object}	APIResponse[alertapp.ActiveAlertsResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/alerts [get]
func (h *AlertHandler) GetActiveAlerts(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter alertapp.AlertListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	alerts, err := h.alertService.GetActiveAlerts(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, alerts)
}

// ListAlerts godoc
// @ID           listAlerts
//
//	@Summary		List alert history
//	@Description	Retrieve alerts of any status, including resolved and dismissed incidents
//	@Tags			alerts
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			severity	query		string	false	"Severity filter"	Enums(low, critical, out_of_stock)
//	@Param			status		query		string	false	"Status filter"		Enums(pending, acknowledged, resolved, dismissed)
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)	maximum(100)
//	@Success		200			{object}	APIResponse[[]alertapp.AlertResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/alerts/history [get]
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter alertapp.AlertListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	alerts, total, err := h.alertService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, alerts, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getAlertById
//
//	@Summary		Get alert by ID
//	@Description	Retrieve a single stock alert
//	@Tags			alerts
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			id			path		string	true	"Alert ID"	format(uuid)
//	@Success		200			{object}	APIResponse[alertapp.AlertResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/alerts/{id} [get]
func (h *AlertHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	alertID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid alert ID format")
		return
	}

	alertResp, err := h.alertService.GetByID(c.Request.Context(), tenantID, alertID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, alertResp)
}

// GetPredictiveAlerts godoc
// @ID           getPredictiveAlerts
//
//	@Summary		Predictive stockout alerts
//	@Description	Materials projected to run out within the horizon at their recent consumption rate
//	@Tags			alerts
//	@Produce		json
//	@Param			X-Tenant-ID		header		string	false	"Tenant ID (optional for dev)"
//	@Param			horizon_days	query		int		false	"Projection horizon in days"	default(7)	maximum(365)
//	@Success		200				{object}	APIResponse[[]alertapp.PredictiveAlert]
//	@Failure		400				{object}	ErrorResponse
//	@Failure		401				{object}	ErrorResponse
//	@Failure		500				{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/alerts/predictive [get]
func (h *AlertHandler) GetPredictiveAlerts(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	horizon, ok := parseHorizonDays(c)
	if !ok {
		h.BadRequest(c, "horizon_days must be between 1 and 365")
		return
	}

	alerts, err := h.alertService.GetPredictiveAlerts(c.Request.Context(), tenantID, horizon)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, alerts)
}

// GetReorderRecommendations godoc
// @ID           getReorderRecommendations
//
//	@Summary		Reorder recommendations
//	@Description	Suggested purchase quantities and estimated costs for materials below their reorder level or trending toward shortage
//	@Tags			alerts
//	@Produce		json
//	@Param			X-Tenant-ID		header		string	false	"Tenant ID (optional for dev)"
//	@Param			horizon_days	query		int		false	"Demand horizon in days"	default(7)	maximum(365)
//	@Success		200				{object}	APIResponse[[]alertapp.ReorderRecommendation]
//	@Failure		400				{object}	ErrorResponse
//	@Failure		401				{object}	ErrorResponse
//	@Failure		500				{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/alerts/reorder-recommendations [get]
func (h *AlertHandler) GetReorderRecommendations(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	horizon, ok := parseHorizonDays(c)
	if !ok {
		h.BadRequest(c, "horizon_days must be between 1 and 365")
		return
	}

	recommendations, err := h.alertService.GetReorderRecommendations(c.Request.Context(), tenantID, horizon)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, recommendations)
}

// CheckSufficiency godoc
// @ID           checkStockSufficiency
//
//	@Summary		Order sufficiency check
//	@Description	Whether a proposed set of orders can be produced from current stock, with the aggregated shortages if not
//	@Tags			alerts
//	@Accept			json
//	@Produce		json
//	@Param			X-Tenant-ID	header		string										false	"Tenant ID (optional for dev)"
//	@Param			request		body		alertapp.StockSufficiencyRequest			true	"Proposed orders"
//	@Success		200			{object}	APIResponse[alertapp.StockSufficiencyResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/alerts/sufficiency [post]
func (h *AlertHandler) CheckSufficiency(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req alertapp.StockSufficiencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sufficiency, err := h.alertService.CheckStockSufficiencyForOrders(c.Request.Context(), tenantID, req.Plan)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sufficiency)
}

// TriggerScan godoc
// @ID           triggerAlertScan
//
//	@Summary		Trigger an alert scan
//	@Description	Evaluate every material of the tenant immediately instead of waiting for the scheduled scan
//	@Tags			alerts
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Success		200			{object}	APIResponse[ScanResultData]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/alerts/scan [post]
func (h *AlertHandler) TriggerScan(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	evaluated, err := h.alertService.EvaluateTenant(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, ScanResultData{EvaluatedAlerts: evaluated})
}

// Acknowledge godoc
// @ID           acknowledgeAlert
//
//	@Summary		Acknowledge an alert
//	@Description	Mark a pending alert as acknowledged by the acting user
//	@Tags			alerts
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			id			path		string	true	"Alert ID"	format(uuid)
//	@Success		200			{object}	APIResponse[alertapp.AlertResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/alerts/{id}/acknowledge [post]
func (h *AlertHandler) Acknowledge(c *gin.Context) {
	h.transition(c, h.alertService.Acknowledge)
}

// Resolve godoc
// @ID           resolveAlert
//
//	@Summary		Resolve an alert
//	@Description	Close an actionable alert as handled. A recurrence opens a new alert.
//	@Tags			alerts
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			id			path		string	true	"Alert ID"	format(uuid)
//	@Success		200			{object}	APIResponse[alertapp.AlertResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/alerts/{id}/resolve [post]
func (h *AlertHandler) Resolve(c *gin.Context) {
	h.transition(c, h.alertService.Resolve)
}

// Dismiss godoc
// @ID           dismissAlert
//
//	@Summary		Dismiss an alert
//	@Description	Close a pending alert as not actionable. A recurrence opens a new alert.
//	@Tags			alerts
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			id			path		string	true	"Alert ID"	format(uuid)
//	@Success		200			{object}	APIResponse[alertapp.AlertResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/alerts/{id}/dismiss [post]
func (h *AlertHandler) Dismiss(c *gin.Context) {
	h.transition(c, h.alertService.Dismiss)
}

// transition runs one of the user-driven status transitions, which all share
// the same shape: alert ID from the path, acting user from the auth context.
func (h *AlertHandler) transition(
	c *gin.Context,
	apply func(ctx context.Context, tenantID, alertID, userID uuid.UUID) (*alertapp.AlertResponse, error),
) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	alertID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid alert ID format")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user required for alert transitions")
		return
	}

	alertResp, err := apply(c.Request.Context(), tenantID, alertID, userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, alertResp)
}
