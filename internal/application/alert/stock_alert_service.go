package alert

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/application/planning"
	"github.com/mrp/backend/internal/domain/alert"
	"github.com/mrp/backend/internal/domain/inventory"
	"github.com/mrp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MultiProductPlanner is the slice of the batch production service the alert
// service uses to price a proposed set of orders.
type MultiProductPlanner interface {
	CalculateMultiProductBatch(ctx context.Context, tenantID uuid.UUID, plan []planning.ProductionPlanEntry) (*planning.MultiProductPlanResponse, error)
}

var _ MultiProductPlanner = (*planning.BatchProductionService)(nil)

// StockAlertServiceConfig tunes the predictive calculations.
type StockAlertServiceConfig struct {
	// ConsumptionWindowDays is the trailing window the deduction velocity is
	// averaged over.
	ConsumptionWindowDays int
}

// DefaultStockAlertServiceConfig returns the default prediction settings
func DefaultStockAlertServiceConfig() StockAlertServiceConfig {
	return StockAlertServiceConfig{
		ConsumptionWindowDays: 30,
	}
}

// StockAlertService watches material stock levels: it opens and refreshes
// alerts, projects stockouts from ledger history and suggests reorders.
// Detection runs on every stock adjustment (via the event handler) and
// periodically per tenant (via the scheduler); both paths converge on
// EvaluateMaterial, which keeps at most one actionable alert per material.
type StockAlertService struct {
	alertRepo       alert.StockAlertRepository
	materialRepo    inventory.MaterialRepository
	transactionRepo inventory.InventoryTransactionRepository
	planner         MultiProductPlanner
	config          StockAlertServiceConfig
	logger          *zap.Logger
	eventPublisher  shared.EventPublisher
}

// NewStockAlertService creates a new StockAlertService
func NewStockAlertService(
	alertRepo alert.StockAlertRepository,
	materialRepo inventory.MaterialRepository,
	transactionRepo inventory.InventoryTransactionRepository,
	planner MultiProductPlanner,
	logger *zap.Logger,
) *StockAlertService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockAlertService{
		alertRepo:       alertRepo,
		materialRepo:    materialRepo,
		transactionRepo: transactionRepo,
		planner:         planner,
		config:          DefaultStockAlertServiceConfig(),
		logger:          logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *StockAlertService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetConfig overrides the prediction settings.
func (s *StockAlertService) SetConfig(config StockAlertServiceConfig) {
	s.config = config
}

// publishDomainEvents publishes all domain events from the alert
func (s *StockAlertService) publishDomainEvents(ctx context.Context, a *alert.StockAlert) {
	if s.eventPublisher == nil {
		return
	}
	events := a.GetDomainEvents()
	if len(events) > 0 {
		_ = s.eventPublisher.Publish(ctx, events...)
		a.ClearDomainEvents()
	}
}

// GetActiveAlerts returns the alert overview of a tenant: actionable alert
// counts per severity plus the actionable rows, most urgent first.
func (s *StockAlertService) GetActiveAlerts(ctx context.Context, tenantID uuid.UUID, filter AlertListFilter) (*ActiveAlertsResponse, error) {
	counts, err := s.alertRepo.CountActionableBySeverity(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}

	alerts, err := s.alertRepo.FindActionable(ctx, tenantID, buildAlertFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to find alerts: %w", err)
	}

	summary := SeveritySummary{
		OutOfStock: counts[alert.SeverityOutOfStock],
		Critical:   counts[alert.SeverityCritical],
		Low:        counts[alert.SeverityLow],
	}
	summary.Total = summary.OutOfStock + summary.Critical + summary.Low

	return &ActiveAlertsResponse{
		Summary: summary,
		Alerts:  ToAlertResponses(alerts),
	}, nil
}

// List returns a tenant's alert history, newest detections first.
func (s *StockAlertService) List(ctx context.Context, tenantID uuid.UUID, filter AlertListFilter) ([]AlertResponse, int64, error) {
	repoFilter := buildAlertFilter(filter)

	alerts, err := s.alertRepo.FindAllForTenant(ctx, tenantID, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}
	total, err := s.alertRepo.CountForTenant(ctx, tenantID, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return ToAlertResponses(alerts), total, nil
}

// GetByID returns one alert.
func (s *StockAlertService) GetByID(ctx context.Context, tenantID, alertID uuid.UUID) (*AlertResponse, error) {
	a, err := s.alertRepo.FindByIDForTenant(ctx, tenantID, alertID)
	if err != nil {
		return nil, err
	}
	return ToAlertResponse(a), nil
}

// GetPredictiveAlerts projects stockouts from recent consumption: the
// deduction total over the trailing window gives a daily velocity, and
// materials whose stock runs out within the horizon are reported.
func (s *StockAlertService) GetPredictiveAlerts(ctx context.Context, tenantID uuid.UUID, horizonDays int) ([]PredictiveAlert, error) {
	if horizonDays <= 0 {
		return nil, shared.NewDomainError("INVALID_HORIZON", "Horizon must be a positive number of days")
	}

	since := time.Now().AddDate(0, 0, -s.config.ConsumptionWindowDays)
	deductions, err := s.transactionRepo.SumDeductionsByMaterial(ctx, tenantID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate deductions: %w", err)
	}
	if len(deductions) == 0 {
		return []PredictiveAlert{}, nil
	}

	ids := make([]uuid.UUID, 0, len(deductions))
	for id := range deductions {
		ids = append(ids, id)
	}
	materials, err := s.materialRepo.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find materials: %w", err)
	}

	results := make([]PredictiveAlert, 0)
	for i := range materials {
		m := &materials[i]
		if m.IsArchived() {
			continue
		}
		velocity := s.dailyVelocity(deductions[m.ID])
		if !velocity.IsPositive() {
			continue
		}
		days := m.StockQuantity.Div(velocity).Floor().IntPart()
		if days > int64(horizonDays) {
			continue
		}
		results = append(results, PredictiveAlert{
			MaterialID:        m.ID,
			MaterialSKU:       m.SKU,
			MaterialName:      m.Name,
			Unit:              string(m.Unit),
			CurrentStock:      m.StockQuantity,
			DailyConsumption:  velocity,
			DaysUntilStockout: days,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].DaysUntilStockout != results[j].DaysUntilStockout {
			return results[i].DaysUntilStockout < results[j].DaysUntilStockout
		}
		return results[i].MaterialSKU < results[j].MaterialSKU
	})
	return results, nil
}

// GetReorderRecommendations suggests purchase quantities for materials that
// are below their reorder level or projected to run out within the horizon.
// The quantity covers the horizon's demand and refills to twice the reorder
// level, whichever is larger.
func (s *StockAlertService) GetReorderRecommendations(ctx context.Context, tenantID uuid.UUID, horizonDays int) ([]ReorderRecommendation, error) {
	if horizonDays <= 0 {
		return nil, shared.NewDomainError("INVALID_HORIZON", "Horizon must be a positive number of days")
	}

	since := time.Now().AddDate(0, 0, -s.config.ConsumptionWindowDays)
	deductions, err := s.transactionRepo.SumDeductionsByMaterial(ctx, tenantID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate deductions: %w", err)
	}

	below, err := s.materialRepo.FindBelowReorderLevel(ctx, tenantID, shared.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to find materials below reorder level: %w", err)
	}
	candidates := make(map[uuid.UUID]inventory.Material, len(below))
	for _, m := range below {
		candidates[m.ID] = m
	}

	// Materials still above their reorder level qualify too when recent
	// consumption would drain them within the horizon.
	missing := make([]uuid.UUID, 0)
	for id := range deductions {
		if _, ok := candidates[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		trending, err := s.materialRepo.FindByIDs(ctx, tenantID, missing)
		if err != nil {
			return nil, fmt.Errorf("failed to find materials: %w", err)
		}
		for _, m := range trending {
			if !m.IsArchived() {
				candidates[m.ID] = m
			}
		}
	}

	horizon := decimal.NewFromInt(int64(horizonDays))
	results := make([]ReorderRecommendation, 0)
	for _, m := range candidates {
		velocity := s.dailyVelocity(deductions[m.ID])
		belowReorder := m.IsBelowReorderLevel()

		days := int64(-1)
		if velocity.IsPositive() {
			days = m.StockQuantity.Div(velocity).Floor().IntPart()
		}
		trending := days >= 0 && days <= int64(horizonDays)
		if !belowReorder && !trending {
			continue
		}

		refill := m.ReorderLevel.Mul(decimal.NewFromInt(2)).Sub(m.StockQuantity)
		demand := velocity.Mul(horizon).Sub(m.StockQuantity)
		quantity := decimal.Max(refill, demand).Ceil()
		if !quantity.IsPositive() {
			continue
		}

		results = append(results, ReorderRecommendation{
			MaterialID:          m.ID,
			MaterialSKU:         m.SKU,
			MaterialName:        m.Name,
			Unit:                string(m.Unit),
			CurrentStock:        m.StockQuantity,
			ReorderLevel:        m.ReorderLevel,
			DailyConsumption:    velocity,
			RecommendedQuantity: quantity,
			EstimatedCost:       quantity.Mul(m.UnitCost),
			Reason:              reorderReason(belowReorder, trending, days),
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].MaterialSKU < results[j].MaterialSKU })
	return results, nil
}

// CheckStockSufficiencyForOrders prices a proposed set of orders through the
// multi-product planner and reports the materials that fall short.
func (s *StockAlertService) CheckStockSufficiencyForOrders(ctx context.Context, tenantID uuid.UUID, plan []planning.ProductionPlanEntry) (*StockSufficiencyResponse, error) {
	result, err := s.planner.CalculateMultiProductBatch(ctx, tenantID, plan)
	if err != nil {
		return nil, err
	}

	shortages := make([]planning.AggregatedRequirement, 0)
	for _, row := range result.AggregatedMaterialRequirements {
		if !row.Sufficient {
			shortages = append(shortages, row)
		}
	}
	return &StockSufficiencyResponse{
		Feasible:      result.Feasible,
		Shortages:     shortages,
		ProductErrors: result.ProductErrors,
	}, nil
}

// EvaluateMaterial classifies a material's stock level and upserts its
// alert: an actionable alert gets its snapshot refreshed in place, otherwise
// a new pending alert opens when the level is alarming. Normal stock returns
// nil without touching anything; recovery never auto-resolves an alert, the
// user closes it.
func (s *StockAlertService) EvaluateMaterial(ctx context.Context, tenantID, materialID uuid.UUID) (*AlertResponse, error) {
	material, err := s.materialRepo.FindByIDForTenant(ctx, tenantID, materialID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("MATERIAL_NOT_FOUND", "Material not found")
		}
		return nil, fmt.Errorf("failed to find material: %w", err)
	}
	return s.evaluate(ctx, material)
}

func (s *StockAlertService) evaluate(ctx context.Context, material *inventory.Material) (*AlertResponse, error) {
	status := material.StockStatus()
	if status == inventory.StockStatusNormal {
		return nil, nil
	}

	severity := severityFor(status)
	message := alertMessage(material, severity)

	existing, err := s.alertRepo.FindActionableByMaterial(ctx, material.TenantID, material.ID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to find actionable alert: %w", err)
	}

	if existing != nil {
		if err := existing.RefreshSnapshot(severity, material.StockQuantity, material.ReorderLevel, message); err != nil {
			return nil, err
		}
		if err := s.alertRepo.Save(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to save alert: %w", err)
		}
		return ToAlertResponse(existing), nil
	}

	opened, err := alert.NewStockAlert(material.TenantID, material.ID, severity,
		material.StockQuantity, material.ReorderLevel, message)
	if err != nil {
		return nil, err
	}
	if err := s.alertRepo.Save(ctx, opened); err != nil {
		return nil, fmt.Errorf("failed to save alert: %w", err)
	}
	s.publishDomainEvents(ctx, opened)
	return ToAlertResponse(opened), nil
}

// EvaluateTenant runs the detection over every active material of a tenant.
// A single material's failure is logged and skipped. Returns how many alerts
// were opened or refreshed.
func (s *StockAlertService) EvaluateTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	materials, err := s.materialRepo.FindActive(ctx, tenantID, shared.Filter{})
	if err != nil {
		return 0, fmt.Errorf("failed to find materials: %w", err)
	}

	touched := 0
	for i := range materials {
		response, err := s.evaluate(ctx, &materials[i])
		if err != nil {
			s.logger.Warn("material evaluation failed",
				zap.String("tenant_id", tenantID.String()),
				zap.String("material_id", materials[i].ID.String()),
				zap.Error(err),
			)
			continue
		}
		if response != nil {
			touched++
		}
	}
	return touched, nil
}

// ScanTenants runs the detection for every tenant that owns materials. One
// tenant's failure is logged and never aborts the others.
func (s *StockAlertService) ScanTenants(ctx context.Context) error {
	tenantIDs, err := s.materialRepo.ListTenantIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tenants: %w", err)
	}

	for _, tenantID := range tenantIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		touched, err := s.EvaluateTenant(ctx, tenantID)
		if err != nil {
			s.logger.Error("tenant alert scan failed",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		s.logger.Debug("tenant alert scan finished",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("alerts_touched", touched),
		)
	}
	return nil
}

// Acknowledge marks a pending alert as seen.
func (s *StockAlertService) Acknowledge(ctx context.Context, tenantID, alertID, userID uuid.UUID) (*AlertResponse, error) {
	a, err := s.alertRepo.FindByIDForTenant(ctx, tenantID, alertID)
	if err != nil {
		return nil, err
	}
	if err := a.Acknowledge(userID); err != nil {
		return nil, err
	}
	if err := s.alertRepo.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to save alert: %w", err)
	}
	return ToAlertResponse(a), nil
}

// Resolve closes a pending or acknowledged alert as handled.
func (s *StockAlertService) Resolve(ctx context.Context, tenantID, alertID, userID uuid.UUID) (*AlertResponse, error) {
	a, err := s.alertRepo.FindByIDForTenant(ctx, tenantID, alertID)
	if err != nil {
		return nil, err
	}
	if err := a.Resolve(userID); err != nil {
		return nil, err
	}
	if err := s.alertRepo.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to save alert: %w", err)
	}
	return ToAlertResponse(a), nil
}

// Dismiss closes a pending alert as not worth acting on.
func (s *StockAlertService) Dismiss(ctx context.Context, tenantID, alertID, userID uuid.UUID) (*AlertResponse, error) {
	a, err := s.alertRepo.FindByIDForTenant(ctx, tenantID, alertID)
	if err != nil {
		return nil, err
	}
	if err := a.Dismiss(userID); err != nil {
		return nil, err
	}
	if err := s.alertRepo.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to save alert: %w", err)
	}
	return ToAlertResponse(a), nil
}

// dailyVelocity converts a windowed deduction total into a per-day rate.
func (s *StockAlertService) dailyVelocity(total decimal.Decimal) decimal.Decimal {
	days := decimal.NewFromInt(int64(s.config.ConsumptionWindowDays))
	if !days.IsPositive() {
		return decimal.Zero
	}
	return total.Div(days)
}

func severityFor(status inventory.StockStatus) alert.Severity {
	switch status {
	case inventory.StockStatusOutOfStock:
		return alert.SeverityOutOfStock
	case inventory.StockStatusCritical:
		return alert.SeverityCritical
	default:
		return alert.SeverityLow
	}
}

func alertMessage(material *inventory.Material, severity alert.Severity) string {
	switch severity {
	case alert.SeverityOutOfStock:
		return fmt.Sprintf("%s (%s) is out of stock", material.Name, material.SKU)
	case alert.SeverityCritical:
		return fmt.Sprintf("%s (%s) is critically low: %s %s on hand, reorder level %s",
			material.Name, material.SKU, material.StockQuantity, material.Unit, material.ReorderLevel)
	default:
		return fmt.Sprintf("%s (%s) is below its reorder level: %s %s on hand, reorder level %s",
			material.Name, material.SKU, material.StockQuantity, material.Unit, material.ReorderLevel)
	}
}

// reorderReason names why the material needs restocking.
func reorderReason(belowReorder, trending bool, days int64) string {
	switch {
	case belowReorder && trending:
		return fmt.Sprintf("below reorder level and projected to run out in %d day(s)", days)
	case trending:
		return fmt.Sprintf("projected to run out in %d day(s)", days)
	default:
		return "below reorder level"
	}
}

func buildAlertFilter(filter AlertListFilter) shared.Filter {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "detected_at",
		OrderDir: "desc",
		Filters:  map[string]interface{}{},
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	} else if f.PageSize > 100 {
		f.PageSize = 100
	}
	if filter.Severity != "" {
		f.Filters["severity"] = filter.Severity
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	return f
}
