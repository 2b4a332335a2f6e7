package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *CoreError
		want string
	}{
		{
			name: "without cause",
			err:  NewError(MISSION_PARSE_FAILED, "bad yaml"),
			want: "[MISSION_PARSE_FAILED] bad yaml",
		},
		{
			name: "with cause",
			err:  WrapError(STEP_EXEC_FAILED, "step exploded", errors.New("boom")),
			want: "[STEP_EXEC_FAILED] step exploded: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestCoreError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := WrapError(CONFIG_LOAD_FAILED, "cannot load", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestCoreError_Is_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewError(GRAPH_CYCLE_DETECTED, "a -> b -> a"))

	assert.True(t, errors.Is(err, NewError(GRAPH_CYCLE_DETECTED, "different message")))
	assert.False(t, errors.Is(err, NewError(GRAPH_DUPLICATE_STEP, "")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewRetryableError(TOOL_EXEC_FAILED, "transient")))
	assert.False(t, IsRetryable(NewError(TOOL_EXEC_FAILED, "permanent")))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestCodeOf(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewError(MISSION_UNSAFE, "risk too high"))
	assert.Equal(t, MISSION_UNSAFE, CodeOf(err))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}

func TestNewID_Valid(t *testing.T) {
	id := NewID()
	require.NoError(t, id.Validate())
	assert.False(t, id.IsZero())
}

func TestParseID(t *testing.T) {
	id := NewID()

	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseID("")
	assert.Error(t, err)

	_, err = ParseID("not-a-uuid")
	assert.Error(t, err)
}

func TestID_JSONRoundTrip(t *testing.T) {
	id := NewID()

	data, err := id.MarshalJSON()
	require.NoError(t, err)

	var decoded ID
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.Equal(t, id, decoded)
}
