package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// DATADESTROYER_WIPE_PASSES=5.
const EnvPrefix = "DATADESTROYER"

// overrideKeys are the settings that may come from the environment or from
// flags bound on the viper instance.
var overrideKeys = []string{
	"wipe.mode",
	"wipe.passes",
	"wipe.chunk_size",
	"wipe.max_speed_mbps",
	"wipe.obscure_names",
	"security.require_confirmation",
	"security.warn_if_not_root",
	"logging.level",
	"logging.file",
	"logging.structured",
	"reporting.enabled",
	"reporting.local_path",
	"reporting.format",
}

// NewViper returns a viper instance that resolves overrideKeys from the
// environment. Callers may bind cobra flags to the same keys.
func NewViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range overrideKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding env var for %s: %w", key, err)
		}
	}
	return v, nil
}

// ApplyOverrides copies every key set in v onto cfg and validates the result.
// Flags win over environment variables, which win over the config file.
func ApplyOverrides(cfg *Config, v *viper.Viper) error {
	if v.IsSet("wipe.mode") {
		cfg.Wipe.Mode = strings.ToLower(v.GetString("wipe.mode"))
	}
	if v.IsSet("wipe.passes") {
		cfg.Wipe.Passes = v.GetInt("wipe.passes")
	}
	if v.IsSet("wipe.chunk_size") {
		cfg.Wipe.ChunkSize = v.GetInt("wipe.chunk_size")
	}
	if v.IsSet("wipe.max_speed_mbps") {
		cfg.Wipe.MaxSpeedMBps = v.GetFloat64("wipe.max_speed_mbps")
	}
	if v.IsSet("wipe.obscure_names") {
		cfg.Wipe.ObscureNames = v.GetBool("wipe.obscure_names")
	}
	if v.IsSet("security.require_confirmation") {
		cfg.Security.RequireConfirmation = v.GetBool("security.require_confirmation")
	}
	if v.IsSet("security.warn_if_not_root") {
		cfg.Security.WarnIfNotRoot = v.GetBool("security.warn_if_not_root")
	}
	if v.IsSet("logging.level") {
		cfg.Logging.Level = strings.ToUpper(v.GetString("logging.level"))
	}
	if v.IsSet("logging.file") {
		cfg.Logging.File = v.GetString("logging.file")
	}
	if v.IsSet("logging.structured") {
		cfg.Logging.Structured = v.GetBool("logging.structured")
	}
	if v.IsSet("reporting.enabled") {
		cfg.Reporting.Enabled = v.GetBool("reporting.enabled")
	}
	if v.IsSet("reporting.local_path") {
		cfg.Reporting.LocalPath = v.GetString("reporting.local_path")
	}
	if v.IsSet("reporting.format") {
		cfg.Reporting.Format = strings.ToLower(v.GetString("reporting.format"))
	}

	if err := Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration after overrides: %w", err)
	}
	return nil
}
