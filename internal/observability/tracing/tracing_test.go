package tracing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInjectTraceID(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))

	ctx := InjectTraceID(context.Background())
	id := TraceIDFromContext(ctx)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	other := TraceIDFromContext(InjectTraceID(context.Background()))
	assert.NotEqual(t, id, other)
}
