package handler

import (
	"strconv"

	planningapp "github.com/mrp/backend/internal/application/planning"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PlanningHandler handles production planning API endpoints
type PlanningHandler struct {
	BaseHandler
	calcService  *planningapp.InventoryCalculationService
	batchService *planningapp.BatchProductionService
}

// NewPlanningHandler creates a new PlanningHandler
func NewPlanningHandler(
	calcService *planningapp.InventoryCalculationService,
	batchService *planningapp.BatchProductionService,
) *PlanningHandler {
	return &PlanningHandler{
		calcService:  calcService,
		batchService: batchService,
	}
}

// parseQuantity reads a positive integer quantity from a query parameter
func parseQuantity(c *gin.Context, param string) (int64, bool) {
	raw := c.Query(param)
	if raw == "" {
		return 0, false
	}
	quantity, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || quantity <= 0 {
		return 0, false
	}
	return quantity, true
}

// GetAvailability godoc
// @ID           getProductAvailability
//
//	@Summary		Available production quantity
//	@Description	How many units of the product current stock supports, with the bottleneck material and per-component breakdown. A product without an active recipe reports zero with a message.
//	@Tags			planning
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			id			path		string	true	"Product ID"	format(uuid)
//	@Success		200			{object}	APIResponse[planningapp.AvailabilityResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/planning/products/{id}/availability [get]
func (h *PlanningHandler) GetAvailability(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	availability, err := h.calcService.CalculateAvailableQuantity(c.Request.Context(), tenantID, productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, availability)
}

// CheckFeasibility godoc
// @ID           checkProductionFeasibility
//
//	@Summary		Production feasibility check
//	@Description	Whether the requested quantity can be produced from current stock, with the shortage if not
//	@Tags			planning
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			id			path		string	true	"Product ID"	format(uuid)
//	@Param			quantity	query		int		true	"Requested quantity"	minimum(1)
//	@Success		200			{object}	APIResponse[planningapp.FeasibilityResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/planning/products/{id}/feasibility [get]
func (h *PlanningHandler) CheckFeasibility(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	quantity, ok := parseQuantity(c, "quantity")
	if !ok {
		h.BadRequest(c, "quantity must be a positive integer")
		return
	}

	feasibility, err := h.calcService.CheckProductionFeasibility(c.Request.Context(), tenantID, productID, quantity)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, feasibility)
}

// GetRequirements godoc
// @ID           getMaterialRequirements
//
//	@Summary		Material requirements for a run
//	@Description	Per-material quantities and costs for producing the given quantity. Insufficient lines are flagged, not raised as errors.
//	@Tags			planning
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			id			path		string	true	"Product ID"	format(uuid)
//	@Param			quantity	query		int		true	"Production quantity"	minimum(1)
//	@Success		200			{object}	APIResponse[planningapp.RequirementsResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/planning/products/{id}/requirements [get]
func (h *PlanningHandler) GetRequirements(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	quantity, ok := parseQuantity(c, "quantity")
	if !ok {
		h.BadRequest(c, "quantity must be a positive integer")
		return
	}

	requirements, err := h.calcService.GetMaterialRequirements(c.Request.Context(), tenantID, productID, quantity)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, requirements)
}

// GetOptimalBatchSize godoc
// @ID           getOptimalBatchSize
//
//	@Summary		Optimal batch size
//	@Description	The maximum producible quantity from current stock, with suggested equal batch splits and a recommendation
//	@Tags			planning
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Tenant ID (optional for dev)"
//	@Param			id			path		string	true	"Product ID"	format(uuid)
//	@Success		200			{object}	APIResponse[planningapp.BatchPlanResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/planning/products/{id}/batch-size [get]
func (h *PlanningHandler) GetOptimalBatchSize(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	plan, err := h.batchService.CalculateOptimalBatchSize(c.Request.Context(), tenantID, productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, plan)
}

// BulkAvailability godoc
// @ID           bulkCalculateAvailability
//
//	@Summary		Bulk availability
//	@Description	Availability for several products, each computed independently against current stock. Shared-material contention is the multi-product planner's concern, not this call's.
//	@Tags			planning
//	@Accept			json
//	@Produce		json
//	@Param			X-Tenant-ID	header		string										false	"Tenant ID (optional for dev)"
//	@Param			request		body		planningapp.BulkAvailabilityRequest			true	"Products to evaluate"
//	@Success		200			{object}	APIResponse[[]planningapp.BulkAvailabilityEntry]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/planning/availability/bulk [post]
func (h *PlanningHandler) BulkAvailability(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req planningapp.BulkAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	entries, err := h.calcService.BulkCalculateAvailability(c.Request.Context(), tenantID, req.ProductIDs)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entries)
}

// BatchRequirements godoc
// @ID           calculateBatchRequirements
//
//	@Summary		Batch requirements with shortages
//	@Description	Material requirements for a production run with the shortage list pulled out for planning
//	@Tags			planning
//	@Accept			json
//	@Produce		json
//	@Param			X-Tenant-ID	header		string										false	"Tenant ID (optional for dev)"
//	@Param			request		body		planningapp.BatchRequirementsRequest		true	"Product and quantity"
//	@Success		200			{object}	APIResponse[planningapp.BatchRequirementsResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/planning/batch/requirements [post]
func (h *PlanningHandler) BatchRequirements(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req planningapp.BatchRequirementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	requirements, err := h.batchService.CalculateBatchRequirements(c.Request.Context(), tenantID, req.ProductID, req.Quantity)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, requirements)
}

// MultiProductBatch godoc
// @ID           calculateMultiProductBatch
//
//	@Summary		Multi-product batch plan
//	@Description	Aggregate material demand across several products competing for shared stock. Feasible only when every summed requirement fits current stock. Structural failures are reported per product without aborting the plan.
//	@Tags			planning
//	@Accept			json
//	@Produce		json
//	@Param			X-Tenant-ID	header		string										false	"Tenant ID (optional for dev)"
//	@Param			request		body		planningapp.MultiProductBatchRequest		true	"Production plan"
//	@Success		200			{object}	APIResponse[planningapp.MultiProductPlanResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/planning/batch/multi-product [post]
func (h *PlanningHandler) MultiProductBatch(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req planningapp.MultiProductBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	plan, err := h.batchService.CalculateMultiProductBatch(c.Request.Context(), tenantID, req.Plan)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, plan)
}

// SimulateProduction godoc
// @ID           simulateProduction
//
//	@Summary		Simulate a production run
//	@Description	Dry-run preview of the per-material stock changes and cost of a production commit. Nothing is persisted.
//	@Tags			planning
//	@Accept			json
//	@Produce		json
//	@Param			X-Tenant-ID	header		string										false	"Tenant ID (optional for dev)"
//	@Param			request		body		planningapp.SimulateProductionRequest		true	"Product and quantity"
//	@Success		200			{object}	APIResponse[planningapp.SimulationResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/planning/batch/simulate [post]
func (h *PlanningHandler) SimulateProduction(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req planningapp.SimulateProductionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	simulation, err := h.batchService.SimulateProduction(c.Request.Context(), tenantID, req.ProductID, req.Quantity)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, simulation)
}
