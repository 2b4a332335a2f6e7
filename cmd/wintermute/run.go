package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/straylight-ai/wintermute/internal/engine"
	"github.com/straylight-ai/wintermute/internal/mission"
	"github.com/straylight-ai/wintermute/internal/observability"
	"github.com/straylight-ai/wintermute/internal/policy"
	"github.com/straylight-ai/wintermute/internal/tool"
	"github.com/straylight-ai/wintermute/internal/tool/builtins"
	"github.com/straylight-ai/wintermute/internal/types"
)

var runCmd = &cobra.Command{
	Use:   "run <mission.yaml>",
	Short: "Execute a mission definition",
	Long: `Run parses, validates, and risk-checks the mission, then executes
its step graph. The result table, mission status, and the audit chain head
hash are printed when the run finishes.`,
	Args: cobra.ExactArgs(1),
	RunE: runMission,
}

func runMission(cmd *cobra.Command, args []string) error {
	m, err := mission.ParseDefinition(args[0])
	if err != nil {
		return err
	}

	// A CLI-level concurrency override takes precedence over the mission's
	// own config.
	if cfg.MaxParallelSteps > 0 {
		if m.Config == nil {
			m.Config = &mission.MissionConfig{}
		}
		m.Config.MaxParallelSteps = &cfg.MaxParallelSteps
	}

	registry := tool.NewRegistry()
	if err := builtins.RegisterBuiltinTools(registry); err != nil {
		return err
	}

	tp, shutdownTracing, err := observability.InitTracing(cmd.Context(), cmd.ErrOrStderr(), traceEnabled)
	if err != nil {
		return err
	}
	defer func() {
		_ = shutdownTracing(context.Background())
	}()

	opts := []engine.Option{
		engine.WithWorkRoot(cfg.WorkRoot),
		engine.WithSafetyMode(cfg.Mode()),
		engine.WithPolicyGate(policy.NewGate(cfg.Rules())),
		engine.WithRegistry(registry),
		engine.WithTracer(tp.Tracer("wintermute")),
	}
	if cfg.SafetyDisabled {
		opts = append(opts, engine.WithSafetyDisabled())
	}
	e := engine.New(opts...)

	result, err := e.ExecuteMission(cmd.Context(), m)
	if err != nil {
		var rejection *engine.SafetyRejectionError
		if errors.As(err, &rejection) {
			fmt.Fprintln(cmd.OutOrStdout(), renderSafetyReport(m.Name, rejection.Report))
		}
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderResult(result))
	fmt.Fprintf(cmd.OutOrStdout(), "audit head: %s\n", e.AuditChain().HeadHash())

	switch result.Status {
	case mission.MissionStatusTimedOut:
		return types.NewError(types.MISSION_TIMEOUT,
			fmt.Sprintf("mission %s exceeded its deadline", m.Name))
	case mission.MissionStatusFailed:
		return fmt.Errorf("mission %s: %s", m.Name, result.Status)
	}
	return nil
}
