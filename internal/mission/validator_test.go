package mission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMission() *Mission {
	return &Mission{
		Name: "valid",
		Steps: []MissionStep{
			{ID: "a", Type: StepTypeNoop},
			{ID: "b", Type: StepTypeCommand, DependsOn: []string{"a"},
				Parameters: map[string]any{"command": "true"}},
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	errs := Validate(validMission())
	assert.False(t, errs.HasErrors(), "unexpected errors: %v", errs)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(m *Mission)
		wantCode string
	}{
		{
			name:     "missing name",
			mutate:   func(m *Mission) { m.Name = "" },
			wantCode: "missing_name",
		},
		{
			name:     "no steps",
			mutate:   func(m *Mission) { m.Steps = nil },
			wantCode: "no_steps",
		},
		{
			name:     "empty step id",
			mutate:   func(m *Mission) { m.Steps[0].ID = "" },
			wantCode: "missing_step_id",
		},
		{
			name:     "duplicate step id",
			mutate:   func(m *Mission) { m.Steps[1].ID = "a"; m.Steps[1].DependsOn = nil },
			wantCode: "duplicate_step_id",
		},
		{
			name:     "unknown step type",
			mutate:   func(m *Mission) { m.Steps[0].Type = "warp" },
			wantCode: "unknown_step_type",
		},
		{
			name:     "unknown dependency",
			mutate:   func(m *Mission) { m.Steps[1].DependsOn = []string{"ghost"} },
			wantCode: "unknown_dependency",
		},
		{
			name:     "self dependency",
			mutate:   func(m *Mission) { m.Steps[0].DependsOn = []string{"a"} },
			wantCode: "self_dependency",
		},
		{
			name:     "non-positive step timeout",
			mutate:   func(m *Mission) { m.Steps[0].TimeoutSecs = intPtr(-5) },
			wantCode: "invalid_timeout",
		},
		{
			name:     "command without command param",
			mutate:   func(m *Mission) { m.Steps[1].Parameters = nil },
			wantCode: "missing_parameter",
		},
		{
			name: "create_file without path",
			mutate: func(m *Mission) {
				m.Steps[0].Type = StepTypeCreateFile
				m.Steps[0].Parameters = map[string]any{"content": "x"}
			},
			wantCode: "missing_parameter",
		},
		{
			name:     "non-positive concurrency",
			mutate:   func(m *Mission) { m.Config = &MissionConfig{MaxParallelSteps: intPtr(0)} },
			wantCode: "invalid_concurrency",
		},
		{
			name:     "non-positive mission timeout",
			mutate:   func(m *Mission) { m.Config = &MissionConfig{TimeoutSecs: intPtr(-1)} },
			wantCode: "invalid_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMission()
			tt.mutate(m)

			errs := Validate(m)
			require.True(t, errs.HasErrors(), "expected validation to fail")

			found := false
			for _, e := range errs {
				if e.ErrorCode == tt.wantCode {
					found = true
					break
				}
			}
			assert.True(t, found, "expected code %s in %v", tt.wantCode, errs)
		})
	}
}

func TestValidateNilMission(t *testing.T) {
	errs := Validate(nil)
	require.True(t, errs.HasErrors())
	assert.Equal(t, "mission_nil", errs[0].ErrorCode)
}

func TestValidationErrorsError(t *testing.T) {
	errs := ValidationErrors{
		{StepID: "a", Field: "id", ErrorCode: "duplicate_step_id", Message: "dup"},
		{ErrorCode: "missing_name", Message: "name required"},
	}
	msg := errs.Error()
	assert.Contains(t, msg, "2 validation errors")
	assert.Contains(t, msg, "duplicate_step_id")
	assert.Contains(t, msg, "missing_name")

	single := ValidationErrors{errs[0]}
	assert.Equal(t, "duplicate_step_id [step=a, field=id]: dup", single.Error())
}
