package tracing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type traceID struct{}

// InjectTraceID attaches a fresh trace id to ctx and to the zerolog logger
// carried by ctx.
func InjectTraceID(ctx context.Context) context.Context {
	id := uuid.New().String()
	logger := log.With().Str("traceId", id).Logger()
	ctx = context.WithValue(ctx, traceID{}, id)
	return logger.WithContext(ctx)
}

// TraceIDFromContext returns the id set by InjectTraceID, or an empty string.
func TraceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceID{}).(string)
	return id
}
