// Package policy is the per-action authorization gate. Every side-effecting
// step is reduced to a single Operation and matched against an ordered rule
// list before dispatch. Unmatched operations are denied.
package policy

import (
	"fmt"
	"strings"

	"github.com/straylight-ai/wintermute/internal/mission"
)

// Effect is the outcome a rule assigns to matching operations.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Operation describes one concrete action a step wants to perform, in the
// canonical "kind:target" form the rule patterns match against.
type Operation struct {
	// Kind is the action class: "tool", "command", "file:write",
	// "file:edit", "file:delete", or "noop".
	Kind string

	// Target is the action object: tool name, command argv[0], or file path.
	Target string

	// Attributes carries supplementary facts for logging and audit.
	Attributes map[string]string
}

// String returns the canonical pattern-matchable form of the operation.
func (o Operation) String() string {
	if o.Target == "" {
		return o.Kind
	}
	return o.Kind + ":" + o.Target
}

// OperationForStep derives the operation a step will perform from its type
// and parameters.
func OperationForStep(step *mission.MissionStep) Operation {
	switch step.Type {
	case mission.StepTypeCreateFile:
		return Operation{Kind: "file:write", Target: step.StringParam("path"),
			Attributes: map[string]string{"step_id": step.ID}}
	case mission.StepTypeEditFile:
		return Operation{Kind: "file:edit", Target: step.StringParam("path"),
			Attributes: map[string]string{"step_id": step.ID}}
	case mission.StepTypeDeleteFile:
		return Operation{Kind: "file:delete", Target: step.StringParam("path"),
			Attributes: map[string]string{"step_id": step.ID}}
	case mission.StepTypeCommand:
		// Same normalization the dispatcher applies: trim, then split on any
		// whitespace. The gate must see the argv[0] that will actually run.
		argv0 := ""
		if fields := strings.Fields(step.StringParam("command")); len(fields) > 0 {
			argv0 = fields[0]
		}
		return Operation{Kind: "command", Target: argv0,
			Attributes: map[string]string{"step_id": step.ID}}
	case mission.StepTypeTool:
		return Operation{Kind: "tool", Target: step.StringParam("tool"),
			Attributes: map[string]string{"step_id": step.ID}}
	default:
		return Operation{Kind: "noop",
			Attributes: map[string]string{"step_id": step.ID}}
	}
}

// Rule matches operations by pattern and assigns an effect. Patterns match
// the operation's canonical string exactly, or as a prefix when the pattern
// ends with "*" ("tool:*" matches every tool invocation, "*" matches
// everything).
type Rule struct {
	Pattern string `json:"pattern" yaml:"pattern"`
	Effect  Effect `json:"effect" yaml:"effect"`
	Reason  string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Matches reports whether the rule's pattern covers the operation.
func (r Rule) Matches(op Operation) bool {
	s := op.String()
	if strings.HasSuffix(r.Pattern, "*") {
		return strings.HasPrefix(s, strings.TrimSuffix(r.Pattern, "*"))
	}
	return s == r.Pattern
}

// Decision is the gate's verdict on one operation.
type Decision struct {
	Allowed bool
	// Rule is the matched rule, nil when no rule matched and the default
	// deny applied.
	Rule   *Rule
	Reason string
}

// Gate evaluates operations against an ordered rule list. First match wins;
// an operation no rule matches is denied. The gate is read-only after
// construction and safe for concurrent use without locking.
type Gate struct {
	rules []Rule
}

// NewGate builds a gate over the given rules, evaluated in order.
func NewGate(rules []Rule) *Gate {
	return &Gate{rules: rules}
}

// Decide evaluates the operation against the rule list.
func (g *Gate) Decide(op Operation) Decision {
	for i := range g.rules {
		if g.rules[i].Matches(op) {
			r := g.rules[i]
			reason := r.Reason
			if reason == "" {
				reason = fmt.Sprintf("matched rule %q", r.Pattern)
			}
			return Decision{
				Allowed: r.Effect == EffectAllow,
				Rule:    &r,
				Reason:  reason,
			}
		}
	}
	return Decision{
		Allowed: false,
		Reason:  fmt.Sprintf("no rule matches %q, default deny", op.String()),
	}
}

// Rules returns a copy of the gate's rule list.
func (g *Gate) Rules() []Rule {
	out := make([]Rule, len(g.rules))
	copy(out, g.rules)
	return out
}

// DefaultRules is the conservative baseline rule set: no-ops, workspace
// file operations, registered tools, and a short list of innocuous commands
// are allowed; everything else falls through to the default deny.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "noop", Effect: EffectAllow, Reason: "no-op steps have no side effects"},
		{Pattern: "file:write:*", Effect: EffectAllow, Reason: "workspace file writes are sandboxed"},
		{Pattern: "file:edit:*", Effect: EffectAllow, Reason: "workspace file edits are sandboxed"},
		{Pattern: "file:delete:*", Effect: EffectAllow, Reason: "workspace file deletes are sandboxed"},
		{Pattern: "tool:*", Effect: EffectAllow, Reason: "registered tools declare their capabilities"},
		{Pattern: "command:echo", Effect: EffectAllow},
		{Pattern: "command:ls", Effect: EffectAllow},
		{Pattern: "command:cat", Effect: EffectAllow},
		{Pattern: "command:true", Effect: EffectAllow},
		{Pattern: "command:date", Effect: EffectAllow},
		{Pattern: "command:sleep", Effect: EffectAllow},
	}
}

// AllowAllRules permits every operation. Intended for trusted local use
// and tests.
func AllowAllRules() []Rule {
	return []Rule{{Pattern: "*", Effect: EffectAllow, Reason: "allow-all policy"}}
}
