package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/straylight-ai/wintermute/internal/mission"
)

func TestOperationForStep(t *testing.T) {
	tests := []struct {
		name string
		step mission.MissionStep
		want string
	}{
		{
			name: "tool step",
			step: mission.MissionStep{ID: "s", Type: mission.StepTypeTool,
				Parameters: map[string]any{"tool": "port_scan"}},
			want: "tool:port_scan",
		},
		{
			name: "create file step",
			step: mission.MissionStep{ID: "s", Type: mission.StepTypeCreateFile,
				Parameters: map[string]any{"path": "out/report.txt"}},
			want: "file:write:out/report.txt",
		},
		{
			name: "edit file step",
			step: mission.MissionStep{ID: "s", Type: mission.StepTypeEditFile,
				Parameters: map[string]any{"path": "out/report.txt"}},
			want: "file:edit:out/report.txt",
		},
		{
			name: "delete file step",
			step: mission.MissionStep{ID: "s", Type: mission.StepTypeDeleteFile,
				Parameters: map[string]any{"path": "out/tmp.txt"}},
			want: "file:delete:out/tmp.txt",
		},
		{
			name: "command step uses argv0",
			step: mission.MissionStep{ID: "s", Type: mission.StepTypeCommand,
				Parameters: map[string]any{"command": "echo hello world"}},
			want: "command:echo",
		},
		{
			name: "command step normalizes whitespace like the dispatcher",
			step: mission.MissionStep{ID: "s", Type: mission.StepTypeCommand,
				Parameters: map[string]any{"command": "  rm\t-rf /"}},
			want: "command:rm",
		},
		{
			name: "noop step",
			step: mission.MissionStep{ID: "s", Type: mission.StepTypeNoop},
			want: "noop",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := OperationForStep(&tt.step)
			assert.Equal(t, tt.want, op.String())
			assert.Equal(t, "s", op.Attributes["step_id"])
		})
	}
}

func TestGateFirstMatchWins(t *testing.T) {
	gate := NewGate([]Rule{
		{Pattern: "command:rm", Effect: EffectDeny, Reason: "destructive"},
		{Pattern: "command:*", Effect: EffectAllow},
	})

	denied := gate.Decide(Operation{Kind: "command", Target: "rm"})
	assert.False(t, denied.Allowed)
	assert.Equal(t, "destructive", denied.Reason)
	require.NotNil(t, denied.Rule)
	assert.Equal(t, "command:rm", denied.Rule.Pattern)

	allowed := gate.Decide(Operation{Kind: "command", Target: "ls"})
	assert.True(t, allowed.Allowed)
}

func TestGateDefaultDeny(t *testing.T) {
	gate := NewGate([]Rule{
		{Pattern: "tool:*", Effect: EffectAllow},
	})

	d := gate.Decide(Operation{Kind: "command", Target: "curl"})
	assert.False(t, d.Allowed)
	assert.Nil(t, d.Rule)
	assert.Contains(t, d.Reason, "default deny")
}

func TestGateEmptyRulesDeniesEverything(t *testing.T) {
	gate := NewGate(nil)

	d := gate.Decide(Operation{Kind: "noop"})
	assert.False(t, d.Allowed)
}

func TestRuleWildcardMatching(t *testing.T) {
	tests := []struct {
		pattern string
		op      Operation
		want    bool
	}{
		{"tool:*", Operation{Kind: "tool", Target: "port_scan"}, true},
		{"tool:*", Operation{Kind: "command", Target: "tool"}, false},
		{"file:write:out/*", Operation{Kind: "file:write", Target: "out/a.txt"}, true},
		{"file:write:out/*", Operation{Kind: "file:write", Target: "etc/a.txt"}, false},
		{"*", Operation{Kind: "command", Target: "anything"}, true},
		{"command:echo", Operation{Kind: "command", Target: "echo"}, true},
		{"command:echo", Operation{Kind: "command", Target: "echoes"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.op.String(), func(t *testing.T) {
			r := Rule{Pattern: tt.pattern, Effect: EffectAllow}
			assert.Equal(t, tt.want, r.Matches(tt.op))
		})
	}
}

func TestDefaultRules(t *testing.T) {
	gate := NewGate(DefaultRules())

	assert.True(t, gate.Decide(Operation{Kind: "noop"}).Allowed)
	assert.True(t, gate.Decide(Operation{Kind: "file:write", Target: "out/x"}).Allowed)
	assert.True(t, gate.Decide(Operation{Kind: "tool", Target: "echo"}).Allowed)
	assert.True(t, gate.Decide(Operation{Kind: "command", Target: "echo"}).Allowed)

	// Anything not explicitly allowed is denied.
	assert.False(t, gate.Decide(Operation{Kind: "command", Target: "rm"}).Allowed)
	assert.False(t, gate.Decide(Operation{Kind: "command", Target: "curl"}).Allowed)
}

func TestAllowAllRules(t *testing.T) {
	gate := NewGate(AllowAllRules())
	assert.True(t, gate.Decide(Operation{Kind: "command", Target: "rm"}).Allowed)
}

func TestGateRulesReturnsCopy(t *testing.T) {
	gate := NewGate(DefaultRules())
	rules := gate.Rules()
	rules[0].Effect = EffectDeny

	assert.True(t, gate.Decide(Operation{Kind: "noop"}).Allowed)
}
