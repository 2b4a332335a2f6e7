package mission

import (
	"time"

	"github.com/straylight-ai/wintermute/internal/types"
)

// StepStatus represents the execution status of a mission step.
type StepStatus string

const (
	StepStatusPending  StepStatus = "pending"
	StepStatusRunning  StepStatus = "running"
	StepStatusSuccess  StepStatus = "success"
	StepStatusFailed   StepStatus = "failed"
	StepStatusSkipped  StepStatus = "skipped"
	StepStatusTimedOut StepStatus = "timed_out"
)

// String returns the string representation of the step status.
func (s StepStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the status is one of the four terminal states.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StepStatusSuccess, StepStatusFailed, StepStatusSkipped, StepStatusTimedOut:
		return true
	default:
		return false
	}
}

// MissionStatus represents the terminal outcome of a mission run.
type MissionStatus string

const (
	// MissionStatusCompleted means every step reached Success.
	MissionStatusCompleted MissionStatus = "completed"

	// MissionStatusCompletedWithErrors means the run completed with
	// fail-fast disabled and every failure covered by continue-on-error.
	MissionStatusCompletedWithErrors MissionStatus = "completed_with_errors"

	// MissionStatusFailed means fail-fast aborted the run, or the run
	// completed with a failure not covered by continue-on-error.
	MissionStatusFailed MissionStatus = "failed"

	// MissionStatusTimedOut means the mission deadline fired while steps
	// were still in flight.
	MissionStatusTimedOut MissionStatus = "timed_out"
)

// String returns the string representation of the mission status.
func (s MissionStatus) String() string {
	return string(s)
}

// StepResult is the terminal outcome of one attempted or skipped step.
type StepResult struct {
	StepID   string         `json:"step_id"`
	Status   StepStatus     `json:"status"`
	Output   map[string]any `json:"output,omitempty"`
	Error    string         `json:"error,omitempty"`
	Duration time.Duration  `json:"duration"`
}

// MissionResult is the terminal outcome of one mission run.
// Immutable after the engine returns it.
type MissionResult struct {
	MissionID   types.ID               `json:"mission_id"`
	MissionName string                 `json:"mission_name"`
	Status      MissionStatus          `json:"status"`

	// StepResults maps step id to its terminal result, exactly one entry
	// per declared step.
	StepResults map[string]*StepResult `json:"step_results"`

	// TotalDuration spans first dispatch to the last terminal event.
	TotalDuration time.Duration `json:"total_duration"`

	StepsSucceeded int `json:"steps_succeeded"`
	StepsFailed    int `json:"steps_failed"`
	StepsSkipped   int `json:"steps_skipped"`
	StepsTimedOut  int `json:"steps_timed_out"`
}
