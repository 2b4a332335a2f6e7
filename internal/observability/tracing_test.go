package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracingDisabled(t *testing.T) {
	var buf bytes.Buffer
	tp, shutdown, err := InitTracing(context.Background(), &buf, false)
	require.NoError(t, err)
	require.NotNil(t, tp)

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Empty(t, buf.String(), "disabled tracing must not emit spans")
}

func TestInitTracingWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	tp, shutdown, err := InitTracing(context.Background(), &buf, true)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "engine.execute_mission")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "engine.execute_mission")
}
