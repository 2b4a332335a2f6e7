// Package config holds runtime configuration for the CLI and engine.
package config

import (
	"fmt"

	"github.com/straylight-ai/wintermute/internal/policy"
	"github.com/straylight-ai/wintermute/internal/safety"
	"github.com/straylight-ai/wintermute/internal/types"
)

// Config is the runtime configuration.
type Config struct {
	// SafetyMode selects the pre-flight validation tolerance.
	SafetyMode string `mapstructure:"safety_mode" yaml:"safety_mode"`

	// SafetyDisabled skips the pre-flight assessment. Trusted input only.
	SafetyDisabled bool `mapstructure:"safety_disabled" yaml:"safety_disabled"`

	// WorkRoot is the workspace directory file steps are sandboxed to.
	WorkRoot string `mapstructure:"work_root" yaml:"work_root"`

	// MaxParallelSteps overrides the mission's concurrency budget when
	// positive.
	MaxParallelSteps int `mapstructure:"max_parallel_steps" yaml:"max_parallel_steps"`

	// PolicyRules replaces the default policy rule list when non-empty.
	PolicyRules []policy.Rule `mapstructure:"policy_rules" yaml:"policy_rules"`

	// Logging configures the structured logger.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`

	// Format is "text" or "json".
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		SafetyMode: safety.ModeStandard.String(),
		WorkRoot:   "workspace",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if !safety.Mode(c.SafetyMode).IsValid() {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("unknown safety_mode %q", c.SafetyMode))
	}
	if c.WorkRoot == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "work_root must not be empty")
	}
	if c.MaxParallelSteps < 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"max_parallel_steps must not be negative")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("unknown logging level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("unknown logging format %q", c.Logging.Format))
	}
	for _, r := range c.PolicyRules {
		if r.Pattern == "" {
			return types.NewError(types.CONFIG_VALIDATION_FAILED,
				"policy rule pattern must not be empty")
		}
		if r.Effect != policy.EffectAllow && r.Effect != policy.EffectDeny {
			return types.NewError(types.CONFIG_VALIDATION_FAILED,
				fmt.Sprintf("policy rule %q has unknown effect %q", r.Pattern, r.Effect))
		}
	}
	return nil
}

// Mode returns the configured safety mode.
func (c *Config) Mode() safety.Mode {
	return safety.Mode(c.SafetyMode)
}

// Rules returns the configured policy rules, or the default rule set.
func (c *Config) Rules() []policy.Rule {
	if len(c.PolicyRules) > 0 {
		return c.PolicyRules
	}
	return policy.DefaultRules()
}
