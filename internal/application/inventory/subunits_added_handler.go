package inventory

import (
	"context"
	"fmt"

	"github.com/estateflow/backend/internal/domain/inventory"
	"github.com/estateflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SubUnitsAddedHandler handles SubUnitsAddedEvent
// and reconciles the parent building so its counters include the new units
type SubUnitsAddedHandler struct {
	inventoryService *InventoryService
	logger           *zap.Logger
}

// NewSubUnitsAddedHandler creates a new handler for sub-units added events
func NewSubUnitsAddedHandler(inventoryService *InventoryService, logger *zap.Logger) *SubUnitsAddedHandler {
	return &SubUnitsAddedHandler{
		inventoryService: inventoryService,
		logger:           logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *SubUnitsAddedHandler) EventTypes() []string {
	return []string{inventory.EventTypeSubUnitsAdded}
}

// Handle processes a SubUnitsAddedEvent by reconciling the building
func (h *SubUnitsAddedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	added, ok := event.(*inventory.SubUnitsAddedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", inventory.EventTypeSubUnitsAdded),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeSubUnitsAdded, event.EventType())
	}

	result, err := h.inventoryService.ReconcileBuilding(ctx, added.BuildingID)
	if err != nil {
		h.logger.Error("failed to reconcile building after sub-units were added",
			zap.String("building_id", added.BuildingID.String()),
			zap.String("floor_unit_id", added.FloorUnitID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("reconcile building %s: %w", added.BuildingID, err)
	}

	h.logger.Debug("building reconciled after sub-units added",
		zap.String("building_id", added.BuildingID.String()),
		zap.Bool("drifted", result.Drifted),
		zap.Int("total_units", result.After.TotalUnits),
	)
	return nil
}

var _ shared.EventHandler = (*SubUnitsAddedHandler)(nil)
