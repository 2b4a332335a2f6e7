// Package safety performs static pre-flight risk assessment of a mission.
// Validation is pure: it inspects the parsed definition only, never touches
// the filesystem or network, and returns the same result for the same input.
package safety

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/straylight-ai/wintermute/internal/mission"
)

// Mode selects the risk tolerance applied to a validation run.
type Mode string

const (
	// ModePermissive blocks only the highest-risk missions (score >= 80).
	ModePermissive Mode = "permissive"

	// ModeStandard is the default tolerance (score >= 50 blocks).
	ModeStandard Mode = "standard"

	// ModeStrict blocks at score >= 20 or on any critical issue.
	ModeStrict Mode = "strict"
)

// IsValid checks if the mode is one of the known tolerance levels.
func (m Mode) IsValid() bool {
	switch m {
	case ModePermissive, ModeStandard, ModeStrict:
		return true
	default:
		return false
	}
}

func (m Mode) String() string {
	return string(m)
}

// Severity classifies a safety issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Issue is one finding from a validation run.
type Issue struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	StepID   string   `json:"step_id,omitempty"`
	RuleID   string   `json:"rule_id,omitempty"`
}

// Result is the outcome of validating one mission.
type Result struct {
	IsSafe    bool              `json:"is_safe"`
	RiskScore int               `json:"risk_score"`
	Issues    []Issue           `json:"issues"`
	Metadata  map[string]string `json:"metadata"`
}

// CriticalIssues returns the issues with critical severity.
func (r Result) CriticalIssues() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityCritical {
			out = append(out, issue)
		}
	}
	return out
}

// dangerousCommands are substrings whose presence in a command parameter
// marks the step critical.
var dangerousCommands = []string{
	"rm -rf",
	"sudo",
	"su ",
	"chmod 777",
	"mkfs",
	"dd if=",
	"format",
	":(){:|:&};:",
	"curl | sh",
	"wget | sh",
	"eval",
}

// criticalPaths are filesystem prefixes file operations must never target.
var criticalPaths = []string{
	"/etc",
	"/bin",
	"/sbin",
	"/usr/bin",
	"/usr/sbin",
	"/boot",
	"/lib",
	"/lib64",
	"/sys",
	"/proc",
	"C:\\Windows",
	"C:\\Program Files",
	"~/.ssh",
	"~/.aws",
}

// shellMetachars are characters that change command interpretation when a
// command string reaches a shell.
const shellMetachars = ";|&$`<>"

// Validate statically assesses the mission and scores its aggregate risk.
// The mode only affects the safety threshold and the missing-timeout check;
// the issue list is otherwise identical across modes.
func Validate(m *mission.Mission, mode Mode) Result {
	issues := []Issue{}
	riskScore := 0

	for i := range m.Steps {
		step := &m.Steps[i]

		switch step.Type {
		case mission.StepTypeCommand:
			cmd := step.StringParam("command")
			full := strings.TrimSpace(strings.Join(append([]string{cmd}, step.StringSliceParam("args")...), " "))
			if cmd != "" && isDangerousCommand(full) {
				issues = append(issues, Issue{
					Severity: SeverityCritical,
					Message:  fmt.Sprintf("dangerous command detected: %s", full),
					StepID:   step.ID,
					RuleID:   "dangerous_command",
				})
				riskScore += 30
			}
			if cmd != "" && strings.ContainsAny(full, shellMetachars) {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Message:  fmt.Sprintf("command contains shell metacharacters: %s", full),
					StepID:   step.ID,
					RuleID:   "shell_metacharacters",
				})
				riskScore += 20
			}

		case mission.StepTypeCreateFile, mission.StepTypeEditFile, mission.StepTypeDeleteFile:
			path := step.StringParam("path")
			if path == "" {
				break
			}
			if isCriticalPath(path) {
				issues = append(issues, Issue{
					Severity: SeverityCritical,
					Message:  fmt.Sprintf("file operation targets critical path: %s", path),
					StepID:   step.ID,
					RuleID:   "critical_path",
				})
				riskScore += 50
			}
			if strings.Contains(path, "..") || strings.HasPrefix(path, "~") {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Message:  fmt.Sprintf("path escapes the workspace: %s", path),
					StepID:   step.ID,
					RuleID:   "path_traversal",
				})
				riskScore += 25
			}
		}

		if step.TimeoutSecs == nil && mode == ModeStrict {
			issues = append(issues, Issue{
				Severity: SeverityInfo,
				Message:  fmt.Sprintf("step %s has no timeout specified", step.ID),
				StepID:   step.ID,
				RuleID:   "missing_timeout",
			})
			riskScore += 5
		}
	}

	hasCritical := false
	for _, issue := range issues {
		if issue.Severity == SeverityCritical {
			hasCritical = true
			break
		}
	}

	var isSafe bool
	switch mode {
	case ModePermissive:
		isSafe = riskScore < 80
	case ModeStrict:
		isSafe = riskScore < 20 && !hasCritical
	default:
		isSafe = riskScore < 50
	}

	return Result{
		IsSafe:    isSafe,
		RiskScore: riskScore,
		Issues:    issues,
		Metadata: map[string]string{
			"total_steps":     strconv.Itoa(len(m.Steps)),
			"validation_mode": mode.String(),
		},
	}
}

func isDangerousCommand(command string) bool {
	lower := strings.ToLower(command)
	for _, d := range dangerousCommands {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

func isCriticalPath(path string) bool {
	for _, c := range criticalPaths {
		if strings.HasPrefix(path, c) {
			return true
		}
	}
	return false
}
