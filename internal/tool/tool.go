// Package tool defines the capability contract for invokable tools and a
// thread-safe registry for discovering and executing them.
package tool

import (
	"context"
	"time"
)

// Capability classifies what a tool is allowed to touch. Steps invoking a
// tool inherit the tool's declared capabilities for policy and audit.
type Capability string

const (
	// CapabilityBasic covers pure computation with no external effects.
	CapabilityBasic Capability = "basic"

	// CapabilityNetwork covers tools that open network connections.
	CapabilityNetwork Capability = "network"

	// CapabilitySystem covers tools that read or mutate host state.
	CapabilitySystem Capability = "system"

	// CapabilityPlugin covers tools backed by out-of-process plugins.
	CapabilityPlugin Capability = "plugin"
)

// IsValid checks if the capability is one of the known classes.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityBasic, CapabilityNetwork, CapabilitySystem, CapabilityPlugin:
		return true
	default:
		return false
	}
}

func (c Capability) String() string {
	return string(c)
}

// ResultKind classifies a tool invocation outcome.
type ResultKind string

const (
	ResultSuccess    ResultKind = "success"
	ResultStructured ResultKind = "structured"
	ResultError      ResultKind = "error"
)

// Result is the outcome of one tool invocation.
type Result struct {
	Kind    ResultKind     `json:"kind"`
	Output  map[string]any `json:"output,omitempty"`
	Message string         `json:"message,omitempty"`
}

// Tool is the contract every invokable tool implements. Invoke must honor
// context cancellation and return rather than block past a deadline.
type Tool interface {
	// Name returns the unique registry name of the tool.
	Name() string

	// Description returns a human-readable summary of what the tool does.
	Description() string

	// Capabilities declares what the tool is allowed to touch.
	Capabilities() []Capability

	// Invoke runs the tool against the given input.
	Invoke(ctx context.Context, input map[string]any) (Result, error)
}

// Metrics tracks per-tool execution statistics. Updated by the registry
// under its lock during Execute.
type Metrics struct {
	TotalCalls     int64         `json:"total_calls"`
	SuccessCalls   int64         `json:"success_calls"`
	FailedCalls    int64         `json:"failed_calls"`
	TotalDuration  time.Duration `json:"total_duration"`
	AvgDuration    time.Duration `json:"avg_duration"`
	LastExecutedAt *time.Time    `json:"last_executed_at,omitempty"`
}

func (m *Metrics) recordSuccess(d time.Duration) {
	m.TotalCalls++
	m.SuccessCalls++
	m.record(d)
}

func (m *Metrics) recordFailure(d time.Duration) {
	m.TotalCalls++
	m.FailedCalls++
	m.record(d)
}

func (m *Metrics) record(d time.Duration) {
	m.TotalDuration += d
	m.AvgDuration = m.TotalDuration / time.Duration(m.TotalCalls)
	now := time.Now()
	m.LastExecutedAt = &now
}

// Descriptor summarizes a registered tool for listings.
type Descriptor struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Capabilities []Capability `json:"capabilities"`
}
