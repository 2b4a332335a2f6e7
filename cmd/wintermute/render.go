package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/straylight-ai/wintermute/internal/mission"
	"github.com/straylight-ai/wintermute/internal/safety"
	"github.com/straylight-ai/wintermute/internal/tool"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

func statusStyle(s mission.StepStatus) lipgloss.Style {
	switch s {
	case mission.StepStatusSuccess:
		return successStyle
	case mission.StepStatusFailed, mission.StepStatusTimedOut:
		return failStyle
	case mission.StepStatusSkipped:
		return skipStyle
	default:
		return dimStyle
	}
}

func missionStatusStyle(s mission.MissionStatus) lipgloss.Style {
	switch s {
	case mission.MissionStatusCompleted:
		return successStyle
	case mission.MissionStatusCompletedWithErrors:
		return warnStyle
	default:
		return failStyle
	}
}

// renderResult formats a finished mission run as a step table plus summary.
func renderResult(result *mission.MissionResult) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("Mission %s", result.MissionName)))
	sb.WriteString("\n\n")

	ids := make([]string, 0, len(result.StepResults))
	for id := range result.StepResults {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		res := result.StepResults[id]
		line := fmt.Sprintf("  %-24s %-10s %8s",
			id, res.Status, res.Duration.Round(time.Millisecond))
		if res.Error != "" {
			line += "  " + dimStyle.Render(res.Error)
		}
		sb.WriteString(statusStyle(res.Status).Render(line))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(missionStatusStyle(result.Status).Render(
		fmt.Sprintf("status: %s", result.Status)))
	sb.WriteString(dimStyle.Render(fmt.Sprintf(
		"  (%d succeeded, %d failed, %d skipped, %d timed out, %s total)",
		result.StepsSucceeded, result.StepsFailed, result.StepsSkipped,
		result.StepsTimedOut, result.TotalDuration.Round(time.Millisecond))))
	return sb.String()
}

// renderSafetyReport formats a pre-flight assessment.
func renderSafetyReport(name string, report safety.Result) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("Safety assessment: %s", name)))
	sb.WriteString("\n\n")

	for _, issue := range report.Issues {
		style := dimStyle
		switch issue.Severity {
		case safety.SeverityCritical:
			style = failStyle
		case safety.SeverityWarning:
			style = warnStyle
		}
		line := fmt.Sprintf("  [%s] %s", issue.Severity, issue.Message)
		if issue.StepID != "" {
			line += dimStyle.Render(fmt.Sprintf(" (step %s)", issue.StepID))
		}
		sb.WriteString(style.Render(line))
		sb.WriteString("\n")
	}
	if len(report.Issues) == 0 {
		sb.WriteString(dimStyle.Render("  no issues found"))
		sb.WriteString("\n")
	}

	verdict := successStyle.Render("SAFE")
	if !report.IsSafe {
		verdict = failStyle.Render("UNSAFE")
	}
	sb.WriteString(fmt.Sprintf("\nrisk score %d: %s\n", report.RiskScore, verdict))
	return sb.String()
}

// renderValidationErrors formats structural validation failures.
func renderValidationErrors(name string, errs mission.ValidationErrors) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Validation failed: %s", name)))
	sb.WriteString("\n\n")
	for _, e := range errs {
		sb.WriteString(failStyle.Render("  " + e.Error()))
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderTools formats the registry listing.
func renderTools(descriptors []tool.Descriptor) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Built-in tools"))
	sb.WriteString("\n\n")
	for _, d := range descriptors {
		caps := make([]string, len(d.Capabilities))
		for i, c := range d.Capabilities {
			caps[i] = c.String()
		}
		sb.WriteString(fmt.Sprintf("  %-12s %s %s\n",
			d.Name, d.Description, dimStyle.Render("["+strings.Join(caps, ", ")+"]")))
	}
	return sb.String()
}
