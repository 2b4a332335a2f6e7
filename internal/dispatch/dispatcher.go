// Package dispatch executes individual mission steps. The dispatcher owns
// the step timeout, the workspace sandbox for file operations, and the
// subprocess lifecycle for command steps. Scheduling is the engine's job;
// the dispatcher only ever sees one ready, policy-approved step at a time.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/straylight-ai/wintermute/internal/mission"
	"github.com/straylight-ai/wintermute/internal/tool"
	"github.com/straylight-ai/wintermute/internal/types"
)

// Dispatcher executes single steps against the workspace and tool registry.
type Dispatcher struct {
	registry tool.Registry
	workRoot string
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRegistry sets the tool registry used by tool steps.
func WithRegistry(r tool.Registry) Option {
	return func(d *Dispatcher) { d.registry = r }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithTracer sets the OpenTelemetry tracer for per-step spans.
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) { d.tracer = t }
}

// NewDispatcher creates a dispatcher sandboxed to workRoot. File steps may
// only touch paths under workRoot.
func NewDispatcher(workRoot string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		workRoot: workRoot,
		logger:   slog.Default(),
		tracer:   noop.NewTracerProvider().Tracer("dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs one step to a terminal StepResult. The step's timeout bounds
// the handler; a deadline that fires mid-handler yields a TimedOut result.
// Dispatch never panics on handler failure and never returns a nil result.
func (d *Dispatcher) Dispatch(ctx context.Context, step *mission.MissionStep) *mission.StepResult {
	ctx, span := d.tracer.Start(ctx, "dispatch.step",
		trace.WithAttributes(
			attribute.String("step.id", step.ID),
			attribute.String("step.type", step.Type.String()),
		),
	)
	defer span.End()

	d.logger.Info("dispatching step",
		"step_id", step.ID,
		"step_type", step.Type,
		"timeout", step.Timeout(),
	)

	start := time.Now()
	stepCtx, cancel := context.WithTimeout(ctx, step.Timeout())
	defer cancel()

	output, err := d.run(stepCtx, step)
	duration := time.Since(start)

	result := &mission.StepResult{
		StepID:   step.ID,
		Duration: duration,
		Output:   output,
	}

	switch {
	case err == nil && stepCtx.Err() == nil:
		result.Status = mission.StepStatusSuccess
		span.SetStatus(codes.Ok, "step succeeded")

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(stepCtx.Err(), context.DeadlineExceeded),
		errors.Is(err, context.Canceled) || errors.Is(stepCtx.Err(), context.Canceled):
		result.Status = mission.StepStatusTimedOut
		result.Error = types.NewError(types.STEP_TIMEOUT,
			fmt.Sprintf("step exceeded deadline after %v", duration.Round(time.Millisecond))).Error()
		span.SetStatus(codes.Error, result.Error)

	default:
		result.Status = mission.StepStatusFailed
		result.Error = err.Error()
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("step.retryable", types.IsRetryable(err)))
	}

	d.logger.Info("step finished",
		"step_id", step.ID,
		"status", result.Status,
		"duration", duration,
	)
	return result
}

// run routes the step to its type handler.
func (d *Dispatcher) run(ctx context.Context, step *mission.MissionStep) (map[string]any, error) {
	switch step.Type {
	case mission.StepTypeNoop:
		return map[string]any{"noop": true}, nil
	case mission.StepTypeCreateFile:
		return d.createFile(step)
	case mission.StepTypeEditFile:
		return d.editFile(step)
	case mission.StepTypeDeleteFile:
		return d.deleteFile(step)
	case mission.StepTypeCommand:
		return d.runCommand(ctx, step)
	case mission.StepTypeTool:
		return d.runTool(ctx, step)
	default:
		return nil, types.NewError(types.STEP_INVALID_PARAMS,
			fmt.Sprintf("unknown step type %q", step.Type))
	}
}

func (d *Dispatcher) runTool(ctx context.Context, step *mission.MissionStep) (map[string]any, error) {
	if d.registry == nil {
		return nil, types.NewError(types.TOOL_NOT_FOUND, "no tool registry configured")
	}

	name := step.StringParam("tool")
	input := step.MapParam("input")

	result, err := d.registry.Execute(ctx, name, input)
	if err != nil {
		return nil, err
	}
	if result.Kind == tool.ResultError {
		return result.Output, types.NewError(types.STEP_EXEC_FAILED,
			fmt.Sprintf("tool %q reported failure: %s", name, result.Message))
	}
	return result.Output, nil
}
