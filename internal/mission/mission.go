package mission

import (
	"time"
)

// StepType defines the kind of operation a mission step performs.
type StepType string

const (
	// StepTypeNoop performs no operation. Useful as a join/barrier node.
	StepTypeNoop StepType = "noop"

	// StepTypeCreateFile writes a new file under the configured work root.
	StepTypeCreateFile StepType = "create_file"

	// StepTypeEditFile overwrites or appends to an existing file.
	StepTypeEditFile StepType = "edit_file"

	// StepTypeDeleteFile removes a file under the configured work root.
	StepTypeDeleteFile StepType = "delete_file"

	// StepTypeCommand spawns a subprocess and captures its output.
	StepTypeCommand StepType = "command"

	// StepTypeTool invokes a named tool from the registry.
	StepTypeTool StepType = "tool"
)

// IsValid checks if the StepType is one of the known operation kinds.
func (t StepType) IsValid() bool {
	switch t {
	case StepTypeNoop, StepTypeCreateFile, StepTypeEditFile, StepTypeDeleteFile,
		StepTypeCommand, StepTypeTool:
		return true
	default:
		return false
	}
}

// String returns the string representation of the step type.
func (t StepType) String() string {
	return string(t)
}

// DefaultStepTimeout bounds a step whose definition carries no explicit timeout.
const DefaultStepTimeout = 300 * time.Second

// Mission is an immutable declarative description of a multi-step task graph.
// It is created once by the loader and consumed by a single engine run;
// nothing mutates it after parse.
type Mission struct {
	// Version is the mission format version declared by the author.
	Version string `json:"version" yaml:"version"`

	// Name is a human-readable name for the mission.
	Name string `json:"name" yaml:"name"`

	// Description provides additional context about what this mission does.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Steps lists the units of work in declaration order. Declaration order
	// is the deterministic tie-break when several steps are ready at once.
	Steps []MissionStep `json:"steps" yaml:"steps"`

	// Config holds mission-wide scheduling policy. Optional.
	Config *MissionConfig `json:"config,omitempty" yaml:"config,omitempty"`
}

// MissionStep is one unit of work with a unique id, optionally depending on
// other steps by id.
type MissionStep struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Type        StepType `json:"step_type" yaml:"step_type"`
	DependsOn   []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	TimeoutSecs *int     `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`

	// ContinueOnError lets dependents of this step proceed even when this
	// step fails or times out.
	ContinueOnError bool `json:"continue_on_error,omitempty" yaml:"continue_on_error,omitempty"`

	// Parameters holds the operation-specific arguments (path/content for
	// file steps, command/args for command steps, tool/input for tool steps).
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Timeout returns the effective timeout for this step.
func (s *MissionStep) Timeout() time.Duration {
	if s.TimeoutSecs != nil && *s.TimeoutSecs > 0 {
		return time.Duration(*s.TimeoutSecs) * time.Second
	}
	return DefaultStepTimeout
}

// StringParam returns the named string parameter, or "" when absent or not a string.
func (s *MissionStep) StringParam(key string) string {
	if s.Parameters == nil {
		return ""
	}
	v, _ := s.Parameters[key].(string)
	return v
}

// BoolParam returns the named bool parameter, or false when absent or not a bool.
func (s *MissionStep) BoolParam(key string) bool {
	if s.Parameters == nil {
		return false
	}
	v, _ := s.Parameters[key].(bool)
	return v
}

// StringSliceParam returns the named parameter as a string slice. YAML and
// JSON decoders hand us []any, so each element is converted individually.
func (s *MissionStep) StringSliceParam(key string) []string {
	if s.Parameters == nil {
		return nil
	}

	switch v := s.Parameters[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// MapParam returns the named parameter as a map, or nil when absent.
func (s *MissionStep) MapParam(key string) map[string]any {
	if s.Parameters == nil {
		return nil
	}
	v, _ := s.Parameters[key].(map[string]any)
	return v
}

// MissionConfig holds mission-wide scheduling policy. All fields are optional;
// accessor methods apply the defaults (serial execution, no mission deadline,
// fail-fast enabled).
type MissionConfig struct {
	MaxParallelSteps *int  `json:"max_parallel_steps,omitempty" yaml:"max_parallel_steps,omitempty"`
	TimeoutSecs      *int  `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	FailFast         *bool `json:"fail_fast,omitempty" yaml:"fail_fast,omitempty"`
}

// MaxParallel returns the concurrency budget for the mission.
// The budget is an admission limit on simultaneously running steps.
func (m *Mission) MaxParallel() int {
	if m.Config != nil && m.Config.MaxParallelSteps != nil && *m.Config.MaxParallelSteps > 0 {
		return *m.Config.MaxParallelSteps
	}
	return 1
}

// Deadline returns the mission-wide timeout, or 0 when the mission has none.
func (m *Mission) Deadline() time.Duration {
	if m.Config != nil && m.Config.TimeoutSecs != nil && *m.Config.TimeoutSecs > 0 {
		return time.Duration(*m.Config.TimeoutSecs) * time.Second
	}
	return 0
}

// FailFast reports whether the first step failure aborts the remaining run.
func (m *Mission) FailFast() bool {
	if m.Config != nil && m.Config.FailFast != nil {
		return *m.Config.FailFast
	}
	return true
}

// GetStep retrieves a step by its id. Returns nil if not found.
func (m *Mission) GetStep(id string) *MissionStep {
	for i := range m.Steps {
		if m.Steps[i].ID == id {
			return &m.Steps[i]
		}
	}
	return nil
}
