// Package builtins provides the built-in tools shipped with the engine.
// They are registered automatically when the CLI constructs a registry.
package builtins

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/straylight-ai/wintermute/internal/tool"
	"github.com/straylight-ai/wintermute/internal/types"
)

// RegisterBuiltinTools registers the built-in tools with the registry:
//   - echo: returns its input message, for pipeline smoke tests
//   - sleep: blocks for a duration, for timeout and concurrency exercises
//   - template: renders a string with ${key} placeholders from its input
func RegisterBuiltinTools(registry tool.Registry) error {
	for _, t := range []tool.Tool{
		NewEchoTool(),
		NewSleepTool(),
		NewTemplateTool(),
	} {
		if err := registry.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// EchoTool returns its "message" input unchanged.
type EchoTool struct{}

func NewEchoTool() tool.Tool { return &EchoTool{} }

func (t *EchoTool) Name() string        { return "echo" }
func (t *EchoTool) Description() string { return "Returns the input message unchanged" }

func (t *EchoTool) Capabilities() []tool.Capability {
	return []tool.Capability{tool.CapabilityBasic}
}

func (t *EchoTool) Invoke(_ context.Context, input map[string]any) (tool.Result, error) {
	msg, _ := input["message"].(string)
	return tool.Result{
		Kind:   tool.ResultSuccess,
		Output: map[string]any{"message": msg},
	}, nil
}

// SleepTool blocks for "duration_ms" milliseconds or until the context is
// done, whichever comes first.
type SleepTool struct{}

func NewSleepTool() tool.Tool { return &SleepTool{} }

func (t *SleepTool) Name() string        { return "sleep" }
func (t *SleepTool) Description() string { return "Blocks for duration_ms milliseconds" }

func (t *SleepTool) Capabilities() []tool.Capability {
	return []tool.Capability{tool.CapabilityBasic}
}

func (t *SleepTool) Invoke(ctx context.Context, input map[string]any) (tool.Result, error) {
	ms := 0
	switch v := input["duration_ms"].(type) {
	case int:
		ms = v
	case float64:
		ms = int(v)
	}
	if ms < 0 {
		return tool.Result{}, types.NewError(types.TOOL_INVALID_INPUT,
			"duration_ms must be non-negative")
	}

	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return tool.Result{
			Kind:   tool.ResultSuccess,
			Output: map[string]any{"slept_ms": ms},
		}, nil
	case <-ctx.Done():
		return tool.Result{}, ctx.Err()
	}
}

// TemplateTool renders "template" by substituting ${key} placeholders with
// the string values of "values".
type TemplateTool struct{}

func NewTemplateTool() tool.Tool { return &TemplateTool{} }

func (t *TemplateTool) Name() string { return "template" }

func (t *TemplateTool) Description() string {
	return "Renders a template string with ${key} placeholders"
}

func (t *TemplateTool) Capabilities() []tool.Capability {
	return []tool.Capability{tool.CapabilityBasic}
}

func (t *TemplateTool) Invoke(_ context.Context, input map[string]any) (tool.Result, error) {
	tmpl, ok := input["template"].(string)
	if !ok {
		return tool.Result{}, types.NewError(types.TOOL_INVALID_INPUT,
			"template input must be a string")
	}

	values, _ := input["values"].(map[string]any)
	rendered := tmpl
	for k, v := range values {
		rendered = strings.ReplaceAll(rendered, "${"+k+"}", fmt.Sprintf("%v", v))
	}

	return tool.Result{
		Kind:   tool.ResultStructured,
		Output: map[string]any{"rendered": rendered},
	}, nil
}
