package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	requestIDKey  contextKey = "request_id"
	adminEmailKey contextKey = "admin_email"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func WithAdminEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, adminEmailKey, email)
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

func GetAdminEmail(ctx context.Context) string {
	if email, ok := ctx.Value(adminEmailKey).(string); ok {
		return email
	}
	return ""
}

// FromContext returns the global logger enriched with request_id, admin and
// trace_id when they are present on ctx.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	l := GetLogger()
	if ctx == nil {
		return l
	}

	var fields []any
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if email := GetAdminEmail(ctx); email != "" {
		fields = append(fields, "admin", MaskEmail(email))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		fields = append(fields, "trace_id", sc.TraceID().String())
	}

	if len(fields) > 0 {
		l = l.With(fields...)
	}
	return l
}

func CtxDebug(ctx context.Context, msg string, kv ...any) {
	FromContext(ctx).Debugw(msg, redact(kv)...)
}

func CtxInfo(ctx context.Context, msg string, kv ...any) {
	FromContext(ctx).Infow(msg, redact(kv)...)
}

func CtxWarn(ctx context.Context, msg string, kv ...any) {
	FromContext(ctx).Warnw(msg, redact(kv)...)
}

func CtxError(ctx context.Context, msg string, kv ...any) {
	FromContext(ctx).Errorw(msg, redact(kv)...)
}

func CtxWithError(ctx context.Context, msg string, err error, kv ...any) {
	fields := append([]any{"error", err.Error()}, kv...)
	FromContext(ctx).Errorw(msg, redact(fields)...)
}
