// Package engine drives a mission to completion: it validates and risk-checks
// the definition, builds the dependency graph, and schedules steps through
// the dispatcher under the mission's concurrency budget and deadlines.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/straylight-ai/wintermute/internal/audit"
	"github.com/straylight-ai/wintermute/internal/dispatch"
	"github.com/straylight-ai/wintermute/internal/graph"
	"github.com/straylight-ai/wintermute/internal/mission"
	"github.com/straylight-ai/wintermute/internal/policy"
	"github.com/straylight-ai/wintermute/internal/safety"
	"github.com/straylight-ai/wintermute/internal/tool"
	"github.com/straylight-ai/wintermute/internal/types"
)

// SafetyRejectionError is returned when the pre-flight safety assessment
// refuses to start the mission. It carries the full report so callers can
// render every issue.
type SafetyRejectionError struct {
	Report safety.Result
}

func (e *SafetyRejectionError) Error() string {
	return fmt.Sprintf("mission rejected by safety validation: risk score %d, %d issues",
		e.Report.RiskScore, len(e.Report.Issues))
}

// Engine executes missions. Construct with New; the zero value is not usable.
type Engine struct {
	logger         *slog.Logger
	tracer         trace.Tracer
	gate           *policy.Gate
	chain          *audit.Chain
	safetyMode     safety.Mode
	safetyDisabled bool
	registry       tool.Registry
	workRoot       string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTracer sets the OpenTelemetry tracer for mission and step spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithPolicyGate sets the policy gate consulted before every dispatch.
func WithPolicyGate(g *policy.Gate) Option {
	return func(e *Engine) { e.gate = g }
}

// WithAuditChain sets the audit chain shared with the caller.
func WithAuditChain(c *audit.Chain) Option {
	return func(e *Engine) { e.chain = c }
}

// WithSafetyMode sets the pre-flight validation mode.
func WithSafetyMode(m safety.Mode) Option {
	return func(e *Engine) { e.safetyMode = m }
}

// WithSafetyDisabled skips the pre-flight safety assessment entirely.
// For trusted local definitions only.
func WithSafetyDisabled() Option {
	return func(e *Engine) { e.safetyDisabled = true }
}

// WithRegistry sets the tool registry used by tool steps.
func WithRegistry(r tool.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithWorkRoot sets the workspace directory file steps are sandboxed to.
func WithWorkRoot(dir string) Option {
	return func(e *Engine) { e.workRoot = dir }
}

// New creates an engine with a default-deny policy gate, a fresh audit
// chain, and standard safety mode unless options say otherwise.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:     slog.Default(),
		tracer:     noop.NewTracerProvider().Tracer("engine"),
		gate:       policy.NewGate(policy.DefaultRules()),
		chain:      audit.NewChain(),
		safetyMode: safety.ModeStandard,
		registry:   tool.NewRegistry(),
		workRoot:   "workspace",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AuditChain returns the chain this engine appends to.
func (e *Engine) AuditChain() *audit.Chain {
	return e.chain
}

// completion is one worker's report back to the scheduler loop.
type completion struct {
	index  int
	result *mission.StepResult
}

// ExecuteMission runs the mission to a terminal MissionResult. The returned
// error is non-nil only for pre-flight rejections (validation, safety, graph
// construction); step failures are reported through the result.
func (e *Engine) ExecuteMission(ctx context.Context, m *mission.Mission) (*mission.MissionResult, error) {
	ctx, span := e.tracer.Start(ctx, "engine.execute_mission",
		trace.WithAttributes(
			attribute.String("mission.name", m.Name),
			attribute.Int("mission.steps", len(m.Steps)),
		),
	)
	defer span.End()

	if errs := mission.Validate(m); errs.HasErrors() {
		span.SetStatus(codes.Error, "validation failed")
		return nil, types.WrapError(types.MISSION_VALIDATION_FAILED,
			fmt.Sprintf("mission %q failed validation", m.Name), errs)
	}

	if !e.safetyDisabled {
		report := safety.Validate(m, e.safetyMode)
		e.chain.Append("engine", "safety.assess",
			fmt.Sprintf("mission=%s mode=%s risk=%d safe=%t",
				m.Name, e.safetyMode, report.RiskScore, report.IsSafe))
		if !report.IsSafe {
			e.logger.Warn("mission rejected by safety validation",
				"mission", m.Name,
				"risk_score", report.RiskScore,
				"issues", len(report.Issues),
			)
			span.SetStatus(codes.Error, "safety rejection")
			return nil, &SafetyRejectionError{Report: report}
		}
	}

	g, err := graph.Build(m.Steps)
	if err != nil {
		span.SetStatus(codes.Error, "graph build failed")
		return nil, err
	}

	missionID := types.NewID()
	e.chain.Append("engine", "mission.start",
		fmt.Sprintf("mission=%s id=%s steps=%d", m.Name, missionID, len(m.Steps)))
	e.logger.Info("mission started",
		"mission", m.Name,
		"mission_id", missionID,
		"steps", len(m.Steps),
		"max_parallel", m.MaxParallel(),
		"fail_fast", m.FailFast(),
	)

	result := e.runScheduler(ctx, m, g)
	result.MissionID = missionID
	result.MissionName = m.Name

	e.chain.Append("engine", "mission.finish",
		fmt.Sprintf("mission=%s id=%s status=%s", m.Name, missionID, result.Status))
	e.logger.Info("mission finished",
		"mission", m.Name,
		"mission_id", missionID,
		"status", result.Status,
		"duration", result.TotalDuration,
	)
	span.SetAttributes(attribute.String("mission.status", string(result.Status)))
	return result, nil
}

// runScheduler is the event loop: admit ready steps up to the concurrency
// budget, wait for a completion or the mission deadline, re-evaluate.
func (e *Engine) runScheduler(ctx context.Context, m *mission.Mission, g *graph.Graph) *mission.MissionResult {
	runCtx := ctx
	var cancel context.CancelFunc
	if d := m.Deadline(); d > 0 {
		runCtx, cancel = context.WithTimeout(ctx, d)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	dispatcher := dispatch.NewDispatcher(e.workRoot,
		dispatch.WithRegistry(e.registry),
		dispatch.WithLogger(e.logger),
		dispatch.WithTracer(e.tracer),
	)

	state := newRunState(g)
	completions := make(chan completion, g.Len())
	budget := m.MaxParallel()
	failFast := m.FailFast()

	admitting := true
	failFastTripped := false
	deadlineFired := false

	for !state.allTerminal() {
		state.cascadeSkips()
		if state.allTerminal() {
			break
		}

		if admitting {
			for _, i := range state.readySteps() {
				if !admitting || state.running >= budget {
					break
				}
				step := g.Step(i)

				op := policy.OperationForStep(step)
				decision := e.gate.Decide(op)
				if !decision.Allowed {
					e.chain.Append("gate", "policy.deny",
						fmt.Sprintf("step=%s op=%s reason=%s", step.ID, op, decision.Reason))
					e.logger.Warn("policy denied step",
						"step_id", step.ID, "operation", op.String(), "reason", decision.Reason)
					state.fail(i, &mission.StepResult{
						StepID: step.ID,
						Status: mission.StepStatusFailed,
						Error: types.NewError(types.STEP_POLICY_DENIED,
							fmt.Sprintf("denied by policy: %s", decision.Reason)).Error(),
					})
					if failFast && !step.ContinueOnError {
						admitting = false
						failFastTripped = true
					}
					continue
				}
				e.chain.Append("gate", "policy.allow",
					fmt.Sprintf("step=%s op=%s", step.ID, op))

				state.markRunning(i)
				go func(i int, step *mission.MissionStep) {
					completions <- completion{index: i, result: dispatcher.Dispatch(runCtx, step)}
				}(i, step)
			}
		}

		// A fail-fast trip or a fired deadline stops admission for good;
		// everything not yet admitted is skipped.
		if !admitting {
			if deadlineFired {
				state.skipRemaining("mission deadline exceeded")
			} else {
				state.skipRemaining("aborted by fail-fast")
			}
			if state.allTerminal() {
				break
			}
		}

		if state.running == 0 {
			// Nothing in flight and nothing admitted this pass: the
			// remaining pending steps can never run.
			if len(state.readySteps()) == 0 {
				state.cascadeSkips()
				state.skipRemaining("unreachable")
			}
			continue
		}

		if deadlineFired {
			// The run context is already done; selecting on it again would
			// spin. Drain in-flight completions only.
			c := <-completions
			e.applyCompletion(state, c)
			continue
		}

		select {
		case c := <-completions:
			e.applyCompletion(state, c)
			step := g.Step(c.index)
			failed := c.result.Status == mission.StepStatusFailed ||
				c.result.Status == mission.StepStatusTimedOut
			if failed && failFast && !step.ContinueOnError {
				admitting = false
				failFastTripped = true
			}
		case <-runCtx.Done():
			deadlineFired = true
			admitting = false
			e.chain.Append("engine", "mission.timeout",
				fmt.Sprintf("mission=%s in_flight=%d", m.Name, state.running))
			e.logger.Warn("mission deadline exceeded", "mission", m.Name, "in_flight", state.running)
		}
	}

	return e.aggregate(m, g, state, failFastTripped, deadlineFired)
}

func (e *Engine) applyCompletion(state *runState, c completion) {
	state.complete(c.index, c.result)
	e.chain.Append("dispatcher", "step."+string(c.result.Status),
		fmt.Sprintf("step=%s duration=%s", c.result.StepID, c.result.Duration))
}

// aggregate folds the terminal step results into the mission result.
func (e *Engine) aggregate(m *mission.Mission, g *graph.Graph, state *runState,
	failFastTripped, deadlineFired bool) *mission.MissionResult {

	result := &mission.MissionResult{
		StepResults:   state.results,
		TotalDuration: state.duration(),
	}

	uncoveredFailure := false
	anyFailure := false
	for i := 0; i < g.Len(); i++ {
		step := g.Step(i)
		switch state.statuses[i] {
		case mission.StepStatusSuccess:
			result.StepsSucceeded++
		case mission.StepStatusFailed:
			result.StepsFailed++
			anyFailure = true
			if !step.ContinueOnError {
				uncoveredFailure = true
			}
		case mission.StepStatusTimedOut:
			result.StepsTimedOut++
			anyFailure = true
			if !step.ContinueOnError {
				uncoveredFailure = true
			}
		case mission.StepStatusSkipped:
			result.StepsSkipped++
		}
	}

	switch {
	case deadlineFired:
		result.Status = mission.MissionStatusTimedOut
	case failFastTripped || uncoveredFailure:
		result.Status = mission.MissionStatusFailed
	case anyFailure || result.StepsSkipped > 0:
		result.Status = mission.MissionStatusCompletedWithErrors
	default:
		result.Status = mission.MissionStatusCompleted
	}
	return result
}
