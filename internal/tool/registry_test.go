package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/straylight-ai/wintermute/internal/types"
)

// fakeTool is a configurable test double.
type fakeTool struct {
	name   string
	result Result
	err    error
}

func (f *fakeTool) Name() string                    { return f.name }
func (f *fakeTool) Description() string             { return "fake tool" }
func (f *fakeTool) Capabilities() []Capability      { return []Capability{CapabilityBasic} }
func (f *fakeTool) Invoke(_ context.Context, _ map[string]any) (Result, error) {
	return f.result, f.err
}

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(&fakeTool{name: "alpha"}))

	got, err := r.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", got.Name())
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeTool{name: "alpha"}))

	err := r.Register(&fakeTool{name: "alpha"})
	require.Error(t, err)
	assert.Equal(t, types.TOOL_ALREADY_EXISTS, types.CodeOf(err))
}

func TestRegisterRejectsEmptyName(t *testing.T) {
	r := NewRegistry()
	err := r.Register(&fakeTool{name: ""})
	require.Error(t, err)
	assert.Equal(t, types.TOOL_INVALID_INPUT, types.CodeOf(err))
}

func TestGetUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("ghost")
	require.Error(t, err)
	assert.Equal(t, types.TOOL_NOT_FOUND, types.CodeOf(err))
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeTool{name: "alpha"}))
	require.NoError(t, r.Unregister("alpha"))

	_, err := r.Get("alpha")
	assert.Equal(t, types.TOOL_NOT_FOUND, types.CodeOf(err))

	err = r.Unregister("alpha")
	assert.Equal(t, types.TOOL_NOT_FOUND, types.CodeOf(err))
}

func TestListSortedByName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeTool{name: "zeta"}))
	require.NoError(t, r.Register(&fakeTool{name: "alpha"}))
	require.NoError(t, r.Register(&fakeTool{name: "mid"}))

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "mid", list[1].Name)
	assert.Equal(t, "zeta", list[2].Name)
}

func TestExecuteRecordsMetrics(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeTool{
		name:   "ok",
		result: Result{Kind: ResultSuccess, Output: map[string]any{"x": 1}},
	}))
	require.NoError(t, r.Register(&fakeTool{
		name: "broken",
		err:  errors.New("boom"),
	}))

	res, err := r.Execute(context.Background(), "ok", nil)
	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, res.Kind)

	_, err = r.Execute(context.Background(), "broken", nil)
	require.Error(t, err)
	assert.Equal(t, types.TOOL_EXEC_FAILED, types.CodeOf(err))
	assert.True(t, types.IsRetryable(err), "invocation failures are transient")
	assert.ErrorContains(t, err, "boom")

	okMetrics, err := r.Metrics("ok")
	require.NoError(t, err)
	assert.Equal(t, int64(1), okMetrics.TotalCalls)
	assert.Equal(t, int64(1), okMetrics.SuccessCalls)
	assert.Equal(t, int64(0), okMetrics.FailedCalls)
	assert.NotNil(t, okMetrics.LastExecutedAt)

	brokenMetrics, err := r.Metrics("broken")
	require.NoError(t, err)
	assert.Equal(t, int64(1), brokenMetrics.FailedCalls)
}

func TestExecuteErrorResultCountsAsFailure(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeTool{
		name:   "soft-fail",
		result: Result{Kind: ResultError, Message: "bad input"},
	}))

	res, err := r.Execute(context.Background(), "soft-fail", nil)
	require.NoError(t, err)
	assert.Equal(t, ResultError, res.Kind)

	m, err := r.Metrics("soft-fail")
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.FailedCalls)
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute(context.Background(), "ghost", nil)
	assert.Equal(t, types.TOOL_NOT_FOUND, types.CodeOf(err))
}

func TestCapabilityIsValid(t *testing.T) {
	for _, c := range []Capability{CapabilityBasic, CapabilityNetwork, CapabilitySystem, CapabilityPlugin} {
		assert.True(t, c.IsValid())
	}
	assert.False(t, Capability("psychic").IsValid())
}
