package telemetry

import (
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterDBTracing emits a span for every GORM statement. Query arguments
// are never recorded since lead rows carry contact details.
func RegisterDBTracing(db *gorm.DB, tp trace.TracerProvider, dbSystem string, logger *zap.Logger) error {
	plugin := otelgorm.NewPlugin(
		otelgorm.WithTracerProvider(tp),
		otelgorm.WithDBName(dbSystem),
		otelgorm.WithoutQueryVariables(),
	)
	if err := db.Use(plugin); err != nil {
		return fmt.Errorf("failed to register otelgorm plugin: %w", err)
	}
	logger.Info("Database tracing enabled", zap.String("db_system", dbSystem))
	return nil
}
