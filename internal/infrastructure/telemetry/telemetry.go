// Package telemetry exports worker traces, metrics and logs over OTLP and
// runs the Pyroscope continuous profiler. Every provider degrades to a
// no-op when its switch in config.TelemetryConfig is off.
package telemetry

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// ErrMeterNil is returned when an instrument set is built without a meter
var ErrMeterNil = errors.New("meter cannot be nil")

// Service identifies the process in exported telemetry
type Service struct {
	Name    string
	Version string
	Env     string
}

func newResource(svc Service) (*resource.Resource, error) {
	version := svc.Version
	if version == "" {
		version = "dev"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(svc.Name),
			semconv.ServiceVersion(version),
			attribute.String("deployment.environment.name", svc.Env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
