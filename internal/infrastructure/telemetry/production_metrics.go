// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ProductionMetrics provides domain metrics for the production planning
// backend. It counts stock ledger adjustments and raised alerts, times plan
// calculations, and keeps stock-health gauges fresh through periodic
// collection.
type ProductionMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	stockAdjustmentTotal *Counter
	alertRaisedTotal     *Counter

	// Histogram metrics (distributions)
	planCalculationSeconds *Histogram

	// Gauge metrics (point-in-time values)
	lowStockCount   *Gauge
	outOfStockCount *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	stockProvider StockMetricsProvider
}

// StockMetricsProvider provides stock health data for periodic metrics
// collection. This interface allows the telemetry layer to query stock state
// without depending on the inventory domain directly.
type StockMetricsProvider interface {
	// GetLowStockCount returns the number of active materials that still have
	// stock but sit under their reorder level for a tenant
	GetLowStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// GetOutOfStockCount returns the number of active materials with nothing
	// left on hand for a tenant
	GetOutOfStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// ProductionMetricsConfig holds configuration for production metrics.
type ProductionMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	StockProvider   StockMetricsProvider
}

// NewProductionMetrics creates a new ProductionMetrics instance.
func NewProductionMetrics(cfg ProductionMetricsConfig) (*ProductionMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pm := &ProductionMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		stockProvider: cfg.StockProvider,
	}

	var err error

	// Stock ledger metrics
	pm.stockAdjustmentTotal, err = NewCounter(
		cfg.Meter,
		"mrp_stock_adjustment_total",
		"Total number of stock ledger adjustments",
		"{adjustments}",
	)
	if err != nil {
		return nil, err
	}

	// Alert metrics
	pm.alertRaisedTotal, err = NewCounter(
		cfg.Meter,
		"mrp_stock_alert_raised_total",
		"Total number of stock alerts raised",
		"{alerts}",
	)
	if err != nil {
		return nil, err
	}

	// Planning metrics
	pm.planCalculationSeconds, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "mrp_plan_calculation_duration_seconds",
		Description: "Duration of production plan calculations",
		Unit:        "s",
		Boundaries:  PlanDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	// Stock health gauge metrics
	pm.lowStockCount, err = NewGauge(
		cfg.Meter,
		"mrp_material_low_stock_count",
		"Number of active materials under their reorder level",
		"{materials}",
	)
	if err != nil {
		return nil, err
	}

	pm.outOfStockCount, err = NewGauge(
		cfg.Meter,
		"mrp_material_out_of_stock_count",
		"Number of active materials with zero stock",
		"{materials}",
	)
	if err != nil {
		return nil, err
	}

	return pm, nil
}

// =============================================================================
// Stock Ledger Metrics
// =============================================================================

// AdjustmentType labels a stock adjustment for metrics. Values mirror the
// ledger's transaction types.
type AdjustmentType string

const (
	AdjustmentTypeRestock    AdjustmentType = "restock"
	AdjustmentTypeDeduction  AdjustmentType = "deduction"
	AdjustmentTypeAdjustment AdjustmentType = "adjustment"
)

// RecordStockAdjustment records a committed stock ledger adjustment.
// This should be called from the application layer after the adjustment
// transaction commits.
func (pm *ProductionMetrics) RecordStockAdjustment(ctx context.Context, tenantID uuid.UUID, adjustmentType AdjustmentType) {
	pm.stockAdjustmentTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrTransactionType.String(string(adjustmentType)),
	)
}

// =============================================================================
// Alert Metrics
// =============================================================================

// AlertSeverity labels a raised alert for metrics. Values mirror the alert
// domain's severity bands.
type AlertSeverity string

const (
	AlertSeverityLow        AlertSeverity = "low"
	AlertSeverityCritical   AlertSeverity = "critical"
	AlertSeverityOutOfStock AlertSeverity = "out_of_stock"
)

// RecordAlertRaised records a newly opened stock alert.
func (pm *ProductionMetrics) RecordAlertRaised(ctx context.Context, tenantID uuid.UUID, severity AlertSeverity) {
	pm.alertRaisedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrAlertSeverity.String(string(severity)),
	)
}

// =============================================================================
// Planning Metrics
// =============================================================================

// RecordPlanCalculation records how long a production plan calculation took.
func (pm *ProductionMetrics) RecordPlanCalculation(ctx context.Context, tenantID uuid.UUID, d time.Duration) {
	pm.planCalculationSeconds.RecordDuration(ctx, d,
		AttrTenantID.String(tenantID.String()),
	)
}

// =============================================================================
// Stock Health Metrics
// =============================================================================

// RecordLowStockCount records the number of materials under their reorder
// level. This is a gauge metric that should be updated periodically.
func (pm *ProductionMetrics) RecordLowStockCount(ctx context.Context, tenantID uuid.UUID, count int64) {
	pm.lowStockCount.Record(ctx, count,
		AttrTenantID.String(tenantID.String()),
	)
}

// RecordOutOfStockCount records the number of materials with zero stock.
// This is a gauge metric that should be updated periodically.
func (pm *ProductionMetrics) RecordOutOfStockCount(ctx context.Context, tenantID uuid.UUID, count int64) {
	pm.outOfStockCount.Record(ctx, count,
		AttrTenantID.String(tenantID.String()),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// TenantProvider provides tenant IDs for periodic metrics collection.
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects stock health metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (pm *ProductionMetrics) StartPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	pm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go pm.runPeriodicCollection(ctx, tenantProvider, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (pm *ProductionMetrics) runPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	pm.collectStockMetrics(ctx, tenantProvider)

	for {
		select {
		case <-pm.stopChan:
			pm.logger.Info("Stopping periodic production metrics collection")
			return
		case <-ctx.Done():
			pm.logger.Info("Context cancelled, stopping periodic production metrics collection")
			return
		case <-ticker.C:
			pm.collectStockMetrics(ctx, tenantProvider)
		}
	}
}

// collectStockMetrics collects stock health gauges for all tenants.
func (pm *ProductionMetrics) collectStockMetrics(ctx context.Context, tenantProvider TenantProvider) {
	if pm.stockProvider == nil {
		pm.logger.Debug("No stock provider configured, skipping stock metrics collection")
		return
	}

	tenantIDs, err := tenantProvider.GetActiveTenantIDs(ctx)
	if err != nil {
		pm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		pm.collectTenantStockMetrics(ctx, tenantID)
	}
}

// collectTenantStockMetrics collects stock health gauges for a single tenant.
func (pm *ProductionMetrics) collectTenantStockMetrics(ctx context.Context, tenantID uuid.UUID) {
	lowStock, err := pm.stockProvider.GetLowStockCount(ctx, tenantID)
	if err != nil {
		pm.logger.Warn("Failed to get low stock count for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		pm.RecordLowStockCount(ctx, tenantID, lowStock)
	}

	outOfStock, err := pm.stockProvider.GetOutOfStockCount(ctx, tenantID)
	if err != nil {
		pm.logger.Warn("Failed to get out of stock count for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		pm.RecordOutOfStockCount(ctx, tenantID, outOfStock)
	}
}

// Stop stops the periodic collection.
func (pm *ProductionMetrics) Stop() {
	pm.stopOnce.Do(func() {
		close(pm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewProductionMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
