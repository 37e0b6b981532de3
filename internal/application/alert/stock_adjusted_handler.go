package alert

import (
	"context"
	"fmt"

	"github.com/mrp/backend/internal/domain/inventory"
	"github.com/mrp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// StockAdjustedHandler re-evaluates a material's alert whenever its stock
// level changes, so alerts follow the ledger instead of waiting for the next
// periodic scan.
type StockAdjustedHandler struct {
	alertService *StockAlertService
	logger       *zap.Logger
}

// NewStockAdjustedHandler creates a new StockAdjustedHandler
func NewStockAdjustedHandler(alertService *StockAlertService, logger *zap.Logger) *StockAdjustedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockAdjustedHandler{
		alertService: alertService,
		logger:       logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *StockAdjustedHandler) EventTypes() []string {
	return []string{inventory.EventTypeMaterialStockAdjusted}
}

// Handle processes the material stock adjusted event
func (h *StockAdjustedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	adjusted, ok := event.(*inventory.MaterialStockAdjustedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("event_type", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	response, err := h.alertService.EvaluateMaterial(ctx, adjusted.TenantID(), adjusted.MaterialID)
	if err != nil {
		h.logger.Error("failed to evaluate material after stock adjustment",
			zap.String("tenant_id", adjusted.TenantID().String()),
			zap.String("material_id", adjusted.MaterialID.String()),
			zap.Error(err),
		)
		return err
	}

	if response != nil {
		h.logger.Info("stock alert updated",
			zap.String("tenant_id", adjusted.TenantID().String()),
			zap.String("material_id", adjusted.MaterialID.String()),
			zap.String("severity", response.Severity),
			zap.String("status", response.Status),
		)
	}
	return nil
}

var _ shared.EventHandler = (*StockAdjustedHandler)(nil)
