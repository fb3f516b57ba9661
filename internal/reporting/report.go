package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"datadestroyer/internal/config"
	"datadestroyer/internal/wipe"
)

// Version is stamped into every report.
var Version = "dev"

// Report is the record of one destruction batch.
type Report struct {
	RunID     string                 `json:"run_id" yaml:"run_id"`
	Version   string                 `json:"version" yaml:"version"`
	Hostname  string                 `json:"hostname" yaml:"hostname"`
	Timestamp time.Time              `json:"timestamp" yaml:"timestamp"`
	Config    map[string]interface{} `json:"config" yaml:"config"`
	Mode      string                 `json:"mode" yaml:"mode"`
	Passes    int                    `json:"passes" yaml:"passes"`
	Files     []FileReport           `json:"files" yaml:"files"`
	Summary   SummaryReport          `json:"summary" yaml:"summary"`
	ExitCode  int                    `json:"exit_code" yaml:"exit_code"`
	Duration  string                 `json:"duration" yaml:"duration"`
}

// FileReport is the outcome of one file.
type FileReport struct {
	Index     int      `json:"index" yaml:"index"`
	Path      string   `json:"path" yaml:"path"`
	FinalPath string   `json:"final_path,omitempty" yaml:"final_path,omitempty"`
	State     string   `json:"state" yaml:"state"`
	Verified  bool     `json:"verified" yaml:"verified"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorKind string   `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Warnings  []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// SummaryReport aggregates the file outcomes.
type SummaryReport struct {
	TotalFiles  int     `json:"total_files" yaml:"total_files"`
	Destroyed   int     `json:"destroyed" yaml:"destroyed"`
	Unverified  int     `json:"unverified" yaml:"unverified"`
	Failed      int     `json:"failed" yaml:"failed"`
	Cancelled   int     `json:"cancelled" yaml:"cancelled"`
	SuccessRate float64 `json:"success_rate" yaml:"success_rate"`
}

// GenerateReport builds a Report from a finished batch.
func GenerateReport(summary wipe.BatchSummary, req wipe.Request, cfg *config.Config, exitCode int) *Report {
	hostname, _ := os.Hostname()

	report := &Report{
		RunID:     uuid.NewString(),
		Version:   Version,
		Hostname:  hostname,
		Timestamp: summary.Started,
		Config:    configToMap(cfg),
		Mode:      string(req.Mode),
		Passes:    req.EffectivePasses(),
		Files:     make([]FileReport, len(summary.Outcomes)),
		ExitCode:  exitCode,
		Duration:  summary.Finished.Sub(summary.Started).String(),
	}

	unverified := 0
	for i, o := range summary.Outcomes {
		fr := FileReport{
			Index:    o.Index,
			Path:     o.Path,
			State:    o.State.String(),
			Verified: o.Verified,
			Warnings: o.Warnings,
		}
		if o.FinalPath != o.Path {
			fr.FinalPath = o.FinalPath
		}
		if o.Err != nil {
			fr.Error = o.Err.Error()
			if kind := wipe.Kind(o.Err); kind != nil {
				fr.ErrorKind = strings.TrimPrefix(kind.Error(), "wipe: ")
			}
		}
		if o.State == wipe.StateDestroyed && !o.Verified {
			unverified++
		}
		report.Files[i] = fr
	}

	report.Summary = SummaryReport{
		TotalFiles: summary.Total,
		Destroyed:  summary.Destroyed,
		Unverified: unverified,
		Failed:     summary.Failed,
		Cancelled:  summary.Cancelled,
	}
	if summary.Total > 0 {
		report.Summary.SuccessRate = float64(summary.Destroyed) / float64(summary.Total) * 100
	}

	return report
}

// SaveReport writes report under cfg.Reporting.LocalPath in the configured
// format and returns the file path. It does nothing when reporting is disabled.
func SaveReport(report *Report, cfg *config.Config) (string, error) {
	if !cfg.Reporting.Enabled {
		return "", nil
	}

	if err := os.MkdirAll(cfg.Reporting.LocalPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	format := cfg.Reporting.Format
	switch format {
	case "yaml":
		data, err = yaml.Marshal(report)
	case "json", "":
		format = "json"
		data, err = json.MarshalIndent(report, "", "  ")
	default:
		return "", fmt.Errorf("unsupported report format: %s", format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	filename := fmt.Sprintf("datadestroyer_report_%s_%s.%s",
		report.Timestamp.Format("20060102_150405"), shortID(report.RunID), format)
	path := filepath.Join(cfg.Reporting.LocalPath, filename)

	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return path, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// configToMap keeps the settings that shaped the run. Protected paths are
// left out, they are not relevant to the outcome.
func configToMap(cfg *config.Config) map[string]interface{} {
	return map[string]interface{}{
		"wipe": map[string]interface{}{
			"mode":           cfg.Wipe.Mode,
			"passes":         cfg.Wipe.Passes,
			"chunk_size":     cfg.Wipe.ChunkSize,
			"max_speed_mbps": cfg.Wipe.MaxSpeedMBps,
			"obscure_names":  cfg.Wipe.ObscureNames,
		},
		"security": map[string]interface{}{
			"require_confirmation": cfg.Security.RequireConfirmation,
		},
		"logging": map[string]interface{}{
			"level":      cfg.Logging.Level,
			"file":       cfg.Logging.File,
			"structured": cfg.Logging.Structured,
		},
	}
}
