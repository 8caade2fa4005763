package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	actorIDKey   contextKey = "actor_id"
	jobKey       contextKey = "job"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID tags the context and its logger with a request ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return WithContext(ctx, FromContext(ctx).With(zap.String("request_id", requestID)))
}

// WithActorID tags the context and its logger with the acting user
func WithActorID(ctx context.Context, actorID string) context.Context {
	ctx = context.WithValue(ctx, actorIDKey, actorID)
	return WithContext(ctx, FromContext(ctx).With(zap.String("actor_id", actorID)))
}

// WithJob tags the context and its logger with a scheduled job run
func WithJob(ctx context.Context, job, runID string) context.Context {
	ctx = context.WithValue(ctx, jobKey, job)
	return WithContext(ctx, FromContext(ctx).With(zap.String("job", job), zap.String("run_id", runID)))
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// GetActorID retrieves the acting user from context
func GetActorID(ctx context.Context) string {
	id, _ := ctx.Value(actorIDKey).(string)
	return id
}

// GetJob retrieves the scheduled job name from context
func GetJob(ctx context.Context) string {
	job, _ := ctx.Value(jobKey).(string)
	return job
}
