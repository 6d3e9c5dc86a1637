package services

import "context"

type contextKey string

const (
	requestIDKey    contextKey = "request_id"
	comparisonIDKey contextKey = "comparison_id"
	stageKey        contextKey = "stage"
)

// WithRequestID annotates context with the HTTP request identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the request identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, requestIDKey)
}

// WithComparisonID annotates context with the comparison identifier.
func WithComparisonID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, comparisonIDKey, id)
}

// ComparisonIDFromContext extracts the comparison identifier if present.
func ComparisonIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, comparisonIDKey)
}

// WithStage annotates context with the pipeline stage name (probe, convert, embed...).
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, stageKey)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
