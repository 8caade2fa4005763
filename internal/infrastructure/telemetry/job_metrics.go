package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// JobMetrics records scheduler run counts and durations
type JobMetrics struct {
	runs     metric.Int64Counter
	duration metric.Float64Histogram
}

// NewJobMetrics creates the job instruments on meter
func NewJobMetrics(meter metric.Meter) (*JobMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	runs, err := meter.Int64Counter(
		"estate_job_runs_total",
		metric.WithDescription("Scheduled job runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create estate_job_runs_total counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"estate_job_duration_seconds",
		metric.WithDescription("Scheduled job run duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 15, 60, 300, 900, 1800),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create estate_job_duration_seconds histogram: %w", err)
	}

	return &JobMetrics{runs: runs, duration: duration}, nil
}

// ObserveRun records one finished run
func (m *JobMetrics) ObserveRun(ctx context.Context, job, status string, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("job", job),
		attribute.String("status", status),
	)
	m.runs.Add(ctx, 1, attrs)
	m.duration.Record(ctx, d.Seconds(), attrs)
}
