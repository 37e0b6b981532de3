package alert

import (
	"context"
	"time"

	"github.com/mrp/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// ScanExecutor adapts the stock alert scan to the scheduler's job contract.
// A job without a tenant ID walks every tenant; a tenant-scoped job
// re-evaluates just that tenant's materials.
type ScanExecutor struct {
	alerts *StockAlertService
	logger *zap.Logger
}

// NewScanExecutor creates a new scan executor
func NewScanExecutor(alerts *StockAlertService, logger *zap.Logger) *ScanExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanExecutor{
		alerts: alerts,
		logger: logger,
	}
}

// Execute implements scheduler.JobExecutor
func (e *ScanExecutor) Execute(ctx context.Context, job *scheduler.Job) error {
	if job.Type != scheduler.JobTypeAlertScan {
		return scheduler.ErrUnknownJobType
	}

	started := time.Now()

	if job.TenantID != nil {
		touched, err := e.alerts.EvaluateTenant(ctx, *job.TenantID)
		if err != nil {
			return err
		}
		e.logger.Info("tenant alert scan completed",
			zap.String("tenant_id", job.TenantID.String()),
			zap.Int("alerts_touched", touched),
			zap.Duration("duration", time.Since(started)),
		)
		return nil
	}

	if err := e.alerts.ScanTenants(ctx); err != nil {
		return err
	}
	e.logger.Info("full alert scan completed",
		zap.Duration("duration", time.Since(started)),
	)
	return nil
}

// Ensure ScanExecutor implements JobExecutor
var _ scheduler.JobExecutor = (*ScanExecutor)(nil)
