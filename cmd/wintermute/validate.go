package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/straylight-ai/wintermute/internal/graph"
	"github.com/straylight-ai/wintermute/internal/mission"
	"github.com/straylight-ai/wintermute/internal/safety"
	"github.com/straylight-ai/wintermute/internal/types"
)

var validateCmd = &cobra.Command{
	Use:   "validate <mission.yaml>",
	Short: "Validate a mission without executing it",
	Long: `Validate parses the mission, checks its structure and dependency
graph, and prints the safety assessment. Exits nonzero when the mission is
structurally invalid or unsafe under the configured safety mode.`,
	Args: cobra.ExactArgs(1),
	RunE: validateMission,
}

func validateMission(cmd *cobra.Command, args []string) error {
	m, err := mission.ParseDefinition(args[0])
	if err != nil {
		return err
	}

	if errs := mission.Validate(m); errs.HasErrors() {
		fmt.Fprintln(cmd.OutOrStdout(), renderValidationErrors(m.Name, errs))
		return fmt.Errorf("mission %s: %d validation errors", m.Name, len(errs))
	}

	if _, err := graph.Build(m.Steps); err != nil {
		return err
	}

	report := safety.Validate(m, cfg.Mode())
	fmt.Fprintln(cmd.OutOrStdout(), renderSafetyReport(m.Name, report))

	if !report.IsSafe {
		return types.NewError(types.MISSION_UNSAFE,
			fmt.Sprintf("mission %s is unsafe under %s mode (risk score %d)",
				m.Name, cfg.Mode(), report.RiskScore))
	}
	return nil
}
