package logger

import (
	"context"

	"go.uber.org/zap"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	TraceIDKey   ContextKey = "trace_id"
	UserIDKey    ContextKey = "user_id"
)

var contextFields = []ContextKey{RequestIDKey, TraceIDKey, UserIDKey}

// WithContext returns log enriched with the request_id, trace_id and user_id
// values found in ctx. Missing or empty values are skipped.
func WithContext(ctx context.Context, log *zap.Logger) *zap.Logger {
	if ctx == nil {
		return log
	}

	var fields []zap.Field
	for _, key := range contextFields {
		if v := valueOf(ctx, key); v != "" {
			fields = append(fields, zap.String(string(key), v))
		}
	}
	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}

// ContextWithRequestID stores id under RequestIDKey.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func GetRequestID(ctx context.Context) string { return valueOf(ctx, RequestIDKey) }

func GetTraceID(ctx context.Context) string { return valueOf(ctx, TraceIDKey) }

func GetUserID(ctx context.Context) string { return valueOf(ctx, UserIDKey) }

func valueOf(ctx context.Context, key ContextKey) string {
	id, _ := ctx.Value(key).(string)
	return id
}
