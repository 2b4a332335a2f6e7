package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/straylight-ai/wintermute/internal/types"
)

// Load reads configuration from the specified YAML file. Environment
// variables prefixed WINTERMUTE_ override file values (dots become
// underscores, e.g. WINTERMUTE_LOGGING_LEVEL).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED,
			"failed to read config file", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED,
			"failed to unmarshal config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithDefaults loads configuration from path, or returns the defaults
// (plus environment overrides) when the file does not exist.
func LoadWithDefaults(path string) (*Config, error) {
	if path == "" {
		return fromEnv()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fromEnv()
	}
	return Load(path)
}

func fromEnv() (*Config, error) {
	v := viper.New()
	bindEnv(v)

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED,
			"failed to unmarshal config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("WINTERMUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone does not surface env-only keys in Unmarshal, so
	// the known keys are bound explicitly.
	for _, key := range []string{
		"safety_mode",
		"safety_disabled",
		"work_root",
		"max_parallel_steps",
		"logging.level",
		"logging.format",
	} {
		_ = v.BindEnv(key)
	}
}
