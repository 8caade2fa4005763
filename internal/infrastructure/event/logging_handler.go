package event

import (
	"context"

	"github.com/estateflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LoggingHandler writes every domain event to the activity log
type LoggingHandler struct {
	logger *zap.Logger
}

// NewLoggingHandler creates a handler that logs events at info level
func NewLoggingHandler(logger *zap.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger.Named("activity")}
}

// EventTypes returns nil so the handler receives every event
func (h *LoggingHandler) EventTypes() []string {
	return nil
}

// Handle logs the event envelope
func (h *LoggingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.logger.Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

var _ shared.EventHandler = (*LoggingHandler)(nil)
