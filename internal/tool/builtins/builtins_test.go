package builtins

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/straylight-ai/wintermute/internal/tool"
)

func TestRegisterBuiltinTools(t *testing.T) {
	r := tool.NewRegistry()
	require.NoError(t, RegisterBuiltinTools(r))

	list := r.List()
	names := make([]string, len(list))
	for i, d := range list {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"echo", "sleep", "template"}, names)

	// Re-registration collides.
	assert.Error(t, RegisterBuiltinTools(r))
}

func TestEchoTool(t *testing.T) {
	res, err := NewEchoTool().Invoke(context.Background(), map[string]any{"message": "hi"})
	require.NoError(t, err)
	assert.Equal(t, tool.ResultSuccess, res.Kind)
	assert.Equal(t, "hi", res.Output["message"])
}

func TestSleepTool(t *testing.T) {
	start := time.Now()
	res, err := NewSleepTool().Invoke(context.Background(), map[string]any{"duration_ms": 20})
	require.NoError(t, err)
	assert.Equal(t, 20, res.Output["slept_ms"])
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSleepToolHonorsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewSleepTool().Invoke(ctx, map[string]any{"duration_ms": 5000})
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSleepToolRejectsNegative(t *testing.T) {
	_, err := NewSleepTool().Invoke(context.Background(), map[string]any{"duration_ms": -1})
	assert.Error(t, err)
}

func TestTemplateTool(t *testing.T) {
	res, err := NewTemplateTool().Invoke(context.Background(), map[string]any{
		"template": "host=${host} port=${port}",
		"values":   map[string]any{"host": "10.0.0.1", "port": 443},
	})
	require.NoError(t, err)
	assert.Equal(t, tool.ResultStructured, res.Kind)
	assert.Equal(t, "host=10.0.0.1 port=443", res.Output["rendered"])
}

func TestTemplateToolRequiresTemplate(t *testing.T) {
	_, err := NewTemplateTool().Invoke(context.Background(), map[string]any{"values": map[string]any{}})
	assert.Error(t, err)
}
