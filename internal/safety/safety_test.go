package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/straylight-ai/wintermute/internal/mission"
)

func intPtr(v int) *int { return &v }

func commandMission(cmd string) *mission.Mission {
	return &mission.Mission{
		Name: "m",
		Steps: []mission.MissionStep{
			{ID: "s1", Type: mission.StepTypeCommand, TimeoutSecs: intPtr(30),
				Parameters: map[string]any{"command": cmd}},
		},
	}
}

func fileMission(t mission.StepType, path string) *mission.Mission {
	return &mission.Mission{
		Name: "m",
		Steps: []mission.MissionStep{
			{ID: "s1", Type: t, TimeoutSecs: intPtr(30),
				Parameters: map[string]any{"path": path, "content": "x"}},
		},
	}
}

func TestValidateBenignMission(t *testing.T) {
	m := &mission.Mission{
		Name: "benign",
		Steps: []mission.MissionStep{
			{ID: "a", Type: mission.StepTypeNoop, TimeoutSecs: intPtr(10)},
			{ID: "b", Type: mission.StepTypeCreateFile, TimeoutSecs: intPtr(10),
				Parameters: map[string]any{"path": "out/report.txt", "content": "hi"}},
		},
	}

	for _, mode := range []Mode{ModePermissive, ModeStandard, ModeStrict} {
		r := Validate(m, mode)
		assert.True(t, r.IsSafe, "mode %s", mode)
		assert.Equal(t, 0, r.RiskScore, "mode %s", mode)
		assert.Empty(t, r.Issues, "mode %s", mode)
	}
}

func TestValidateDangerousCommand(t *testing.T) {
	r := Validate(commandMission("rm -rf /tmp/scratch"), ModeStandard)

	// A single dangerous command scores 30, which standard mode tolerates
	// but strict mode does not.
	assert.True(t, r.IsSafe)
	assert.Equal(t, 30, r.RiskScore)
	assert.False(t, Validate(commandMission("rm -rf /tmp/scratch"), ModeStrict).IsSafe)
	require.NotEmpty(t, r.CriticalIssues())
	assert.Equal(t, "dangerous_command", r.CriticalIssues()[0].RuleID)
	assert.Equal(t, "s1", r.CriticalIssues()[0].StepID)
}

func TestValidateCriticalPathDelete(t *testing.T) {
	r := Validate(fileMission(mission.StepTypeDeleteFile, "/etc/passwd"), ModePermissive)

	// critical path contributes 50, below the permissive threshold of 80,
	// but standard mode blocks it.
	assert.True(t, r.IsSafe)
	assert.Equal(t, 50, r.RiskScore)

	r = Validate(fileMission(mission.StepTypeDeleteFile, "/etc/passwd"), ModeStandard)
	assert.False(t, r.IsSafe)
	require.Len(t, r.Issues, 1)
	assert.Equal(t, "critical_path", r.Issues[0].RuleID)
	assert.Equal(t, SeverityCritical, r.Issues[0].Severity)
}

func TestValidateCriticalPathWrite(t *testing.T) {
	r := Validate(fileMission(mission.StepTypeCreateFile, "C:\\Windows\\system32\\x.dll"), ModeStandard)
	assert.False(t, r.IsSafe)
	assert.Equal(t, "critical_path", r.Issues[0].RuleID)
}

func TestValidatePathTraversal(t *testing.T) {
	r := Validate(fileMission(mission.StepTypeEditFile, "../outside/secrets.txt"), ModeStandard)

	assert.True(t, r.IsSafe) // 25 < 50
	assert.Equal(t, 25, r.RiskScore)
	require.Len(t, r.Issues, 1)
	assert.Equal(t, "path_traversal", r.Issues[0].RuleID)
	assert.Equal(t, SeverityWarning, r.Issues[0].Severity)

	r = Validate(fileMission(mission.StepTypeEditFile, "../outside/secrets.txt"), ModeStrict)
	assert.False(t, r.IsSafe)
}

func TestValidateShellMetacharacters(t *testing.T) {
	r := Validate(commandMission("echo hi; cat /etc/shadow"), ModeStandard)

	assert.True(t, r.IsSafe) // 20 < 50
	assert.Equal(t, 20, r.RiskScore)
	assert.Equal(t, "shell_metacharacters", r.Issues[0].RuleID)
}

func TestValidateStrictFlagsMissingTimeout(t *testing.T) {
	m := &mission.Mission{
		Name: "m",
		Steps: []mission.MissionStep{
			{ID: "a", Type: mission.StepTypeNoop},
		},
	}

	standard := Validate(m, ModeStandard)
	assert.Empty(t, standard.Issues)

	strict := Validate(m, ModeStrict)
	require.Len(t, strict.Issues, 1)
	assert.Equal(t, "missing_timeout", strict.Issues[0].RuleID)
	assert.Equal(t, SeverityInfo, strict.Issues[0].Severity)
	assert.Equal(t, 5, strict.RiskScore)
	assert.True(t, strict.IsSafe)
}

func TestValidateStrictBlocksAnyCritical(t *testing.T) {
	// Score of a single dangerous command (30 + metachars absent) would
	// block strict mode on the threshold alone, so use the critical flag
	// path with a score below 20 is impossible here; instead verify both
	// conditions report unsafe.
	r := Validate(commandMission("sudo ls"), ModeStrict)
	assert.False(t, r.IsSafe)
	assert.NotEmpty(t, r.CriticalIssues())
}

func TestValidateModeThresholds(t *testing.T) {
	// Dangerous command (30) + metacharacters (20) = 50.
	m := commandMission("sudo rm; ls")
	tests := []struct {
		mode Mode
		want bool
	}{
		{ModePermissive, true},
		{ModeStandard, false},
		{ModeStrict, false},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			r := Validate(m, tt.mode)
			assert.Equal(t, tt.want, r.IsSafe)
			assert.Equal(t, 50, r.RiskScore)
		})
	}
}

func TestValidateIsPure(t *testing.T) {
	m := commandMission("sudo rm -rf /; echo done")

	first := Validate(m, ModeStandard)
	for i := 0; i < 10; i++ {
		again := Validate(m, ModeStandard)
		assert.Equal(t, first.RiskScore, again.RiskScore)
		assert.Equal(t, first.IsSafe, again.IsSafe)
		assert.Equal(t, first.Issues, again.Issues)
	}
}

func TestValidateMetadata(t *testing.T) {
	r := Validate(commandMission("echo hi"), ModeStandard)
	assert.Equal(t, "1", r.Metadata["total_steps"])
	assert.Equal(t, "standard", r.Metadata["validation_mode"])
}

func TestModeIsValid(t *testing.T) {
	assert.True(t, ModePermissive.IsValid())
	assert.True(t, ModeStandard.IsValid())
	assert.True(t, ModeStrict.IsValid())
	assert.False(t, Mode("reckless").IsValid())
}
