package tool

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/straylight-ai/wintermute/internal/types"
)

// Registry manages tool registration, discovery, and execution.
type Registry interface {
	// Register adds a tool under its Name. Registering a name twice is
	// an error.
	Register(tool Tool) error

	// Unregister removes a tool by name.
	Unregister(name string) error

	// Get retrieves a tool by name.
	Get(name string) (Tool, error)

	// List returns descriptors for all registered tools, sorted by name.
	List() []Descriptor

	// Execute runs a tool by name with the given input, recording metrics.
	Execute(ctx context.Context, name string, input map[string]any) (Result, error)

	// Metrics returns execution metrics for a specific tool.
	Metrics(name string) (Metrics, error)
}

// DefaultRegistry implements Registry with thread-safe operations.
type DefaultRegistry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	metrics map[string]*Metrics
}

// NewRegistry creates an empty DefaultRegistry.
func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{
		tools:   make(map[string]Tool),
		metrics: make(map[string]*Metrics),
	}
}

// Register adds a tool under its Name.
func (r *DefaultRegistry) Register(tool Tool) error {
	if tool == nil || tool.Name() == "" {
		return types.NewError(types.TOOL_INVALID_INPUT, "tool must have a non-empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return types.NewError(types.TOOL_ALREADY_EXISTS,
			fmt.Sprintf("tool %q is already registered", name))
	}

	r.tools[name] = tool
	r.metrics[name] = &Metrics{}
	return nil
}

// Unregister removes a tool by name.
func (r *DefaultRegistry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		return types.NewError(types.TOOL_NOT_FOUND,
			fmt.Sprintf("tool %q is not registered", name))
	}

	delete(r.tools, name)
	delete(r.metrics, name)
	return nil
}

// Get retrieves a tool by name.
func (r *DefaultRegistry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, types.NewError(types.TOOL_NOT_FOUND,
			fmt.Sprintf("tool %q is not registered", name))
	}
	return tool, nil
}

// List returns descriptors for all registered tools, sorted by name.
func (r *DefaultRegistry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]Descriptor, 0, len(r.tools))
	for _, t := range r.tools {
		descriptors = append(descriptors, Descriptor{
			Name:         t.Name(),
			Description:  t.Description(),
			Capabilities: t.Capabilities(),
		})
	}
	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Name < descriptors[j].Name
	})
	return descriptors
}

// Execute runs a tool by name, recording success/failure metrics. An error
// Result from the tool counts as a failure even without a Go error.
func (r *DefaultRegistry) Execute(ctx context.Context, name string, input map[string]any) (Result, error) {
	t, err := r.Get(name)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	result, invokeErr := t.Invoke(ctx, input)
	duration := time.Since(start)

	r.mu.Lock()
	if m, exists := r.metrics[name]; exists {
		if invokeErr != nil || result.Kind == ResultError {
			m.recordFailure(duration)
		} else {
			m.recordSuccess(duration)
		}
	}
	r.mu.Unlock()

	if invokeErr != nil {
		// Invocation errors are transport-level (the tool itself never ran
		// to a verdict), so callers may retry them.
		wrapped := types.NewRetryableError(types.TOOL_EXEC_FAILED,
			fmt.Sprintf("tool %q invocation failed", name))
		wrapped.Cause = invokeErr
		return Result{}, wrapped
	}
	return result, nil
}

// Metrics returns a snapshot of the execution metrics for a tool.
func (r *DefaultRegistry) Metrics(name string) (Metrics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, exists := r.metrics[name]
	if !exists {
		return Metrics{}, types.NewError(types.TOOL_NOT_FOUND,
			fmt.Sprintf("tool %q is not registered", name))
	}
	return *m, nil
}
