package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AlertScanTriggerConfig holds configuration for the alert scan trigger
type AlertScanTriggerConfig struct {
	// Enabled determines if the trigger is active
	Enabled bool

	// Interval is how often a full scan is submitted
	Interval time.Duration
}

// DefaultAlertScanTriggerConfig returns default trigger configuration
func DefaultAlertScanTriggerConfig() AlertScanTriggerConfig {
	return AlertScanTriggerConfig{
		Enabled:  true,
		Interval: time.Hour,
	}
}

// AlertScanTrigger submits a full stock alert scan on a fixed interval.
// The scan itself runs on the scheduler's worker pool.
type AlertScanTrigger struct {
	config    AlertScanTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewAlertScanTrigger creates a new alert scan trigger
func NewAlertScanTrigger(
	config AlertScanTriggerConfig,
	scheduler *Scheduler,
	logger *zap.Logger,
) *AlertScanTrigger {
	return &AlertScanTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Start starts the trigger
func (t *AlertScanTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	if !t.config.Enabled {
		t.mu.Unlock()
		t.logger.Info("Alert scan trigger is disabled")
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Alert scan trigger started",
		zap.Duration("interval", t.config.Interval),
	)

	return nil
}

// Stop stops the trigger
func (t *AlertScanTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Alert scan trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning returns whether the trigger is running
func (t *AlertScanTrigger) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isRunning
}

// runLoop submits a scan at startup and then on every interval tick. The
// startup scan means a fresh deployment has alerts without waiting a full
// interval.
func (t *AlertScanTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	t.submitScan()

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.submitScan()
		}
	}
}

// submitScan submits one all-tenant scan job
func (t *AlertScanTrigger) submitScan() {
	if err := t.scheduler.ScheduleScan(nil); err != nil {
		t.logger.Error("Failed to submit alert scan", zap.Error(err))
		return
	}
	t.logger.Debug("Alert scan submitted")
}
