package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/straylight-ai/wintermute/internal/config"
)

var (
	cfgFile        string
	workRoot       string
	safetyModeFlag string
	unsafe         bool
	verbose        bool
	traceEnabled   bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "wintermute",
	Short: "Wintermute - declarative mission execution engine",
	Long: `Wintermute executes declarative missions: dependency-ordered task
graphs of file operations, commands, and tool invocations, run under a
concurrency budget with pre-flight safety assessment, a per-action policy
gate, and a tamper-evident audit trail.`,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&workRoot, "work-root", "", "workspace directory for file steps")
	rootCmd.PersistentFlags().StringVar(&safetyModeFlag, "safety-mode", "", "safety mode: permissive, standard, strict")
	rootCmd.PersistentFlags().BoolVar(&unsafe, "disable-safety", false, "skip the pre-flight safety assessment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&traceEnabled, "trace", false, "emit OpenTelemetry spans to stderr")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(toolsCmd)
}

// loadConfig resolves configuration before any command runs. Flags override
// file and environment values.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.LoadWithDefaults(cfgFile)
	if err != nil {
		return err
	}

	if workRoot != "" {
		cfg.WorkRoot = workRoot
	}
	if safetyModeFlag != "" {
		cfg.SafetyMode = safetyModeFlag
	}
	if unsafe {
		cfg.SafetyDisabled = true
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	slog.SetDefault(newLogger(cfg.Logging))
	return nil
}

func newLogger(lc config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
