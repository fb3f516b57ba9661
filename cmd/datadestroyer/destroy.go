package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"datadestroyer/internal/reporting"
	"datadestroyer/internal/security"
	"datadestroyer/internal/system"
	"datadestroyer/internal/wipe"
)

var destroyCmd = &cobra.Command{
	Use:   "destroy [files...]",
	Short: "Securely destroy files",
	Long: "Overwrites every file with random data (standard) or the random/zeros/ones/random sequence (nsa), " +
		"renames it to a random name and removes it.",
	Args: cobra.MinimumNArgs(1),
	RunE: runDestroy,
}

func init() {
	destroyCmd.Flags().IntP("passes", "p", 3, "Number of overwrite passes in standard mode (1-10)")
	destroyCmd.Flags().StringP("mode", "m", "standard", "Wipe mode (standard/nsa)")
	destroyCmd.Flags().BoolP("recursive", "r", false, "Destroy every file inside the given folders")
	destroyCmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")
	destroyCmd.Flags().BoolP("dry-run", "n", false, "Only run the prechecks, touch nothing")
	destroyCmd.Flags().Bool("no-obscure", false, "Remove files under their original name")
	destroyCmd.Flags().Int("chunk-size", wipe.DefaultChunkSize, "Write chunk size in bytes")
	destroyCmd.Flags().Float64("max-speed", 0, "Write speed limit in MB/s (0 = unlimited)")
	destroyCmd.Flags().Bool("report", false, "Save a report of the run")
	destroyCmd.Flags().String("report-dir", "", "Directory for reports")
	destroyCmd.Flags().String("report-format", "", "Report format (json/yaml)")
}

func runDestroy(cmd *cobra.Command, args []string) error {
	recursive, _ := cmd.Flags().GetBool("recursive")
	force, _ := cmd.Flags().GetBool("force")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if noObscure, _ := cmd.Flags().GetBool("no-obscure"); noObscure {
		cfg.Wipe.ObscureNames = false
	}

	if cfg.Security.WarnIfNotRoot && !security.IsRoot() {
		pterm.Warning.Println(security.RootWarning())
	}

	targets, err := collectTargets(args, recursive)
	if err != nil {
		return err
	}

	allowed, refused := security.FilterProtected(cfg, targets)
	for _, p := range targets {
		if err, ok := refused[p]; ok {
			pterm.Error.Printfln("Refusing to destroy %s: %v", p, err)
			logger.Log("WARN", "Protected path refused", "path", p, "error", err.Error())
		}
	}
	if len(allowed) == 0 {
		return &exitError{code: EXIT_ERROR, err: fmt.Errorf("no files left to destroy")}
	}

	mode, err := wipe.ParseMode(cfg.Wipe.Mode)
	if err != nil {
		return err
	}
	req := wipe.Request{Paths: allowed, Passes: cfg.Wipe.Passes, Mode: mode}
	if err := req.Validate(); err != nil {
		return err
	}

	destroyer := wipe.NewDestroyer(wipe.OSStorage(), wipe.Options{
		ChunkSize:    cfg.Wipe.ChunkSize,
		MaxSpeedMBps: cfg.Wipe.MaxSpeedMBps,
		SkipObscure:  !cfg.Wipe.ObscureNames,
	}, logger)

	if dryRun {
		return runDryRun(destroyer, req)
	}

	if cfg.Security.RequireConfirmation && !force {
		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		ok, err := confirm(os.Stdin, os.Stdout, interactive, req)
		if err != nil {
			return err
		}
		if !ok {
			logger.Log("INFO", "Operation cancelled by user")
			pterm.Info.Println("Operation cancelled")
			return nil
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log("INFO", "Starting destruction", "version", Version, "files", len(req.Paths),
		"mode", string(req.Mode), "passes", req.EffectivePasses())

	events, err := wipe.NewBatch(destroyer, logger).Start(ctx, req)
	if err != nil {
		return err
	}
	summary := consumeEvents(events, newRenderer(os.Stdout))

	printSummary(summary)

	code := summaryExitCode(summary, len(refused))
	if cfg.Reporting.Enabled {
		report := reporting.GenerateReport(summary, req, cfg, code)
		path, err := reporting.SaveReport(report, cfg)
		if err != nil {
			logger.Log("WARN", "Failed to save report", "error", err.Error())
			pterm.Warning.Printfln("Failed to save report: %v", err)
		} else {
			logger.Log("INFO", "Report saved", "run_id", report.RunID, "file", path)
			pterm.Info.Printfln("Report saved: %s", path)
		}
	}

	if code != EXIT_SUCCESS {
		return &exitError{code: code}
	}
	return nil
}

// collectTargets turns the arguments into absolute file paths. Folders are
// only accepted with recursive set and expand to the files below them.
func collectTargets(args []string, recursive bool) ([]string, error) {
	var targets []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			targets = append(targets, p)
		}
	}

	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", arg, err)
		}
		state, err := system.Verify(abs)
		if err != nil {
			return nil, err
		}
		if state != system.PathDirectory {
			// missing files are reported by the precheck
			add(abs)
			continue
		}
		if !recursive {
			return nil, fmt.Errorf("%s is a directory, use --recursive to destroy the files inside it", arg)
		}
		files, err := system.CollectFiles(abs)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			pterm.Warning.Printfln("No files found in %s", arg)
		}
		for _, f := range files {
			add(f)
		}
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("no files to destroy")
	}
	return targets, nil
}

// confirm asks before anything is destroyed. A non-interactive input is
// never taken as consent.
func confirm(in io.Reader, out io.Writer, interactive bool, req wipe.Request) (bool, error) {
	if !interactive {
		return false, fmt.Errorf("confirmation required but stdin is not a terminal, use --force to proceed")
	}

	fmt.Fprintf(out, "WARNING: %d file(s) will be permanently destroyed (%s, %d passes):\n",
		len(req.Paths), req.Mode, req.EffectivePasses())
	for _, p := range req.Paths {
		fmt.Fprintf(out, "  %s\n", p)
	}
	fmt.Fprint(out, "This cannot be undone. Continue? (y/N): ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func runDryRun(destroyer *wipe.Destroyer, req wipe.Request) error {
	passes := req.EffectivePasses()
	data := pterm.TableData{{"File", "Size", "Required", "Free", "Result"}}
	failed := 0

	for _, path := range req.Paths {
		res, err := destroyer.Prechecker.Check(path, req.Mode, req.Passes)
		if err != nil {
			failed++
			data = append(data, []string{path, "-", "-", "-", "FAIL: " + err.Error()})
			continue
		}
		result := "ready"
		if res.Symlink {
			result = "ready (symbolic link)"
		}
		data = append(data, []string{
			path,
			system.FormatSize(res.Size),
			system.FormatSize(int64(res.Required)),
			system.FormatSize(int64(res.Free)),
			result,
		})
	}

	pterm.DefaultSection.Printfln("Dry run: %s mode, %d passes", req.Mode, passes)
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	logger.Log("INFO", "Dry run finished", "files", len(req.Paths), "failed", failed)

	if failed > 0 {
		return &exitError{code: EXIT_ERROR, err: fmt.Errorf("%d of %d files would fail", failed, len(req.Paths))}
	}
	pterm.Success.Printfln("All %d files can be destroyed", len(req.Paths))
	return nil
}

func printSummary(summary wipe.BatchSummary) {
	data := pterm.TableData{{"#", "File", "Result", "Verified", "Details"}}
	for _, o := range summary.Outcomes {
		details := strings.Join(o.Warnings, "; ")
		if o.Err != nil {
			details = o.Err.Error()
		}
		verified := "no"
		if o.Verified {
			verified = "yes"
		}
		data = append(data, []string{fmt.Sprint(o.Index), o.Path, o.State.String(), verified, details})
	}

	pterm.DefaultSection.Println("Results")
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		logger.Log("WARN", "Failed to render summary", "error", err.Error())
	}

	duration := summary.Finished.Sub(summary.Started).Round(time.Millisecond)
	switch {
	case summary.Failed > 0:
		pterm.Error.Printfln("%d destroyed, %d failed, %d cancelled (%s)",
			summary.Destroyed, summary.Failed, summary.Cancelled, duration)
	case summary.Cancelled > 0:
		pterm.Warning.Printfln("%d destroyed, %d cancelled (%s)", summary.Destroyed, summary.Cancelled, duration)
	default:
		pterm.Success.Printfln("Completed processing %d file(s) (%s)", summary.Destroyed, duration)
	}
}

// summaryExitCode is EXIT_ERROR if any file failed, EXIT_WARNING if any file
// was cancelled, refused, renamed with errors or not verified.
func summaryExitCode(summary wipe.BatchSummary, refused int) int {
	if summary.Failed > 0 {
		return EXIT_ERROR
	}
	if summary.Cancelled > 0 || refused > 0 {
		return EXIT_WARNING
	}
	for _, o := range summary.Outcomes {
		if !o.Verified || len(o.Warnings) > 0 {
			return EXIT_WARNING
		}
	}
	return EXIT_SUCCESS
}
