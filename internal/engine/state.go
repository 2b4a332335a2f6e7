package engine

import (
	"time"

	"github.com/straylight-ai/wintermute/internal/graph"
	"github.com/straylight-ai/wintermute/internal/mission"
)

// runState tracks per-step status for one mission run. It is owned by the
// scheduler loop goroutine; workers report completions over a channel, so
// no locking is needed here.
type runState struct {
	g        *graph.Graph
	statuses []mission.StepStatus
	results  map[string]*mission.StepResult

	terminal   int
	running    int
	firstEvent time.Time
	lastEvent  time.Time
}

func newRunState(g *graph.Graph) *runState {
	s := &runState{
		g:        g,
		statuses: make([]mission.StepStatus, g.Len()),
		results:  make(map[string]*mission.StepResult, g.Len()),
	}
	for i := range s.statuses {
		s.statuses[i] = mission.StepStatusPending
	}
	return s
}

func (s *runState) touch() {
	now := time.Now()
	if s.firstEvent.IsZero() {
		s.firstEvent = now
	}
	s.lastEvent = now
}

// markRunning admits step i for dispatch.
func (s *runState) markRunning(i int) {
	s.statuses[i] = mission.StepStatusRunning
	s.running++
	s.touch()
}

// complete records a terminal result delivered by a worker.
func (s *runState) complete(i int, res *mission.StepResult) {
	s.statuses[i] = res.Status
	s.results[res.StepID] = res
	s.running--
	s.terminal++
	s.touch()
}

// fail records a synchronous terminal failure (policy denial) without a
// dispatch.
func (s *runState) fail(i int, res *mission.StepResult) {
	s.statuses[i] = res.Status
	s.results[res.StepID] = res
	s.terminal++
	s.touch()
}

// skip marks step i Skipped with the given reason.
func (s *runState) skip(i int, reason string) {
	step := s.g.Step(i)
	s.statuses[i] = mission.StepStatusSkipped
	s.results[step.ID] = &mission.StepResult{
		StepID: step.ID,
		Status: mission.StepStatusSkipped,
		Error:  reason,
	}
	s.terminal++
	s.touch()
}

func (s *runState) allTerminal() bool {
	return s.terminal == s.g.Len()
}

// depsBlock reports whether a dependency of step i rules it out, returning
// the blocking dependency id. A dependency blocks when it is Skipped, or
// Failed/TimedOut without continue-on-error.
func (s *runState) depsBlock(i int) (string, bool) {
	for _, j := range s.g.Dependencies(i) {
		dep := s.g.Step(j)
		switch s.statuses[j] {
		case mission.StepStatusSkipped:
			return dep.ID, true
		case mission.StepStatusFailed, mission.StepStatusTimedOut:
			if !dep.ContinueOnError {
				return dep.ID, true
			}
		}
	}
	return "", false
}

// depsSatisfied reports whether every dependency of step i is terminal and
// proceed-compatible.
func (s *runState) depsSatisfied(i int) bool {
	for _, j := range s.g.Dependencies(i) {
		dep := s.g.Step(j)
		switch s.statuses[j] {
		case mission.StepStatusSuccess:
		case mission.StepStatusFailed, mission.StepStatusTimedOut:
			if !dep.ContinueOnError {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// cascadeSkips marks every pending step with a blocking dependency as
// Skipped, repeating until the skip set stops growing.
func (s *runState) cascadeSkips() {
	for changed := true; changed; {
		changed = false
		for i := 0; i < s.g.Len(); i++ {
			if s.statuses[i] != mission.StepStatusPending {
				continue
			}
			if dep, blocked := s.depsBlock(i); blocked {
				s.skip(i, "dependency "+dep+" did not succeed")
				changed = true
			}
		}
	}
}

// skipRemaining marks every still-pending step as Skipped.
func (s *runState) skipRemaining(reason string) {
	for i := 0; i < s.g.Len(); i++ {
		if s.statuses[i] == mission.StepStatusPending {
			s.skip(i, reason)
		}
	}
}

// readySteps returns the pending steps whose dependencies are satisfied, in
// declaration order.
func (s *runState) readySteps() []int {
	var ready []int
	for i := 0; i < s.g.Len(); i++ {
		if s.statuses[i] == mission.StepStatusPending && s.depsSatisfied(i) {
			ready = append(ready, i)
		}
	}
	return ready
}

// duration spans the first scheduling event to the last terminal event.
func (s *runState) duration() time.Duration {
	if s.firstEvent.IsZero() {
		return 0
	}
	return s.lastEvent.Sub(s.firstEvent)
}
