package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"datadestroyer/internal/config"
	"datadestroyer/internal/logging"
	"datadestroyer/internal/reporting"
)

const (
	Version = "1.0.0"
	AppName = "DataDestroyer"

	// Exit codes
	EXIT_SUCCESS = 0
	EXIT_WARNING = 2
	EXIT_ERROR   = 1
)

var (
	cfg        *config.Config
	logger     *logging.Logger
	verbose    bool
	configPath string
	profile    string
)

// flagBindings maps command flags onto config keys resolved by viper.
var flagBindings = map[string]string{
	"passes":        "wipe.passes",
	"mode":          "wipe.mode",
	"chunk-size":    "wipe.chunk_size",
	"max-speed":     "wipe.max_speed_mbps",
	"log-level":     "logging.level",
	"log-file":      "logging.file",
	"report":        "reporting.enabled",
	"report-dir":    "reporting.local_path",
	"report-format": "reporting.format",
}

var rootCmd = &cobra.Command{
	Use:               "datadestroyer",
	Short:             "Secure file destruction utility",
	Long:              "Overwrites files in place, renames them to random names and removes them so their contents cannot be recovered",
	Version:           Version,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose console logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML configuration")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Wipe profile (quick/standard/thorough/nsa)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (DEBUG/INFO/WARN/ERROR)")
	rootCmd.PersistentFlags().String("log-file", "", "Append logs to this file")

	rootCmd.AddCommand(destroyCmd, infoCmd, verifyCmd, diagnoseCmd)
}

// setup loads the configuration, layers profile, environment and flags on
// top of it and opens the logger.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if profile != "" {
		if err := config.ApplyProfile(cfg, profile); err != nil {
			return fmt.Errorf("failed to apply profile %s: %w", profile, err)
		}
	}

	v, err := config.NewViper()
	if err != nil {
		return err
	}
	for name, key := range flagBindings {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("error binding flag %s: %w", name, err)
			}
		}
	}
	if err := config.ApplyOverrides(cfg, v); err != nil {
		return err
	}

	logger, err = logging.New(cfg, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	reporting.Version = Version
	logger.Log("DEBUG", "Configuration loaded",
		"config", configPath,
		"profile", profile,
		"mode", cfg.Wipe.Mode,
		"passes", cfg.Wipe.Passes)
	return nil
}

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func exitCode(err error) int {
	if err == nil {
		return EXIT_SUCCESS
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return EXIT_ERROR
}

func main() {
	err := rootCmd.Execute()
	if logger != nil {
		logger.Close()
	}
	code := exitCode(err)
	var ee *exitError
	if err != nil && (!errors.As(err, &ee) || ee.err != nil) {
		pterm.Error.Println(err.Error())
	}
	os.Exit(code)
}
