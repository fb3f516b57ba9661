package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"datadestroyer/internal/security"
	"datadestroyer/internal/system"
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show file information without modifying it",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <path>",
	Short: "Check whether a path still exists",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Check that this host can destroy files",
	Args:  cobra.NoArgs,
	RunE:  runDiagnose,
}

func init() {
	diagnoseCmd.Flags().Bool("full", false, "Run every check, including a test destruction")
	diagnoseCmd.Flags().String("test", "", "Run a single check (permissions/disk/memory/cpu/wipe)")
	diagnoseCmd.Flags().String("output", "", "Save the results as JSON")
	diagnoseCmd.Flags().String("dir", "", "Directory to check (default: temp directory)")
}

func runInfo(cmd *cobra.Command, args []string) error {
	info, err := system.Inspect(args[0])
	if err != nil {
		return err
	}

	data := pterm.TableData{{"Property", "Value"}}
	for _, f := range info.Fields() {
		data = append(data, []string{f[0], f[1]})
	}
	pterm.DefaultSection.Printfln("File information: %s", info.Name)
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func runVerify(cmd *cobra.Command, args []string) error {
	path := args[0]
	state, err := system.Verify(path)
	if err != nil {
		return err
	}

	logger.Log("DEBUG", "Verified path", "path", path, "state", state.String())
	switch state {
	case system.PathFile:
		pterm.Info.Printfln("The file %s exists.", path)
	case system.PathDirectory:
		pterm.Warning.Println("The path exists but is a directory, not a file.")
	default:
		pterm.Success.Printfln("%s does not exist.", path)
	}
	return nil
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	full, _ := cmd.Flags().GetBool("full")
	testName, _ := cmd.Flags().GetString("test")
	output, _ := cmd.Flags().GetString("output")
	dir, _ := cmd.Flags().GetString("dir")

	level := system.LevelQuick
	if full {
		level = system.LevelFull
	}

	var test system.DiagnosticTest
	if testName != "" {
		switch t := system.DiagnosticTest(testName); t {
		case system.TestPermissions, system.TestDisk, system.TestMemory, system.TestCPU, system.TestWipe:
			test = t
		default:
			return fmt.Errorf("unknown test: %s", testName)
		}
	}

	pterm.DefaultHeader.Println(AppName + " " + Version)
	pterm.Info.Printfln("Host: %s", system.HostDistro())
	if security.IsRoot() {
		pterm.Info.Println("Running with root privileges")
	} else {
		pterm.Warning.Println(security.RootWarning())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	runner := system.NewDiagnosticsRunner(level, dir, test, logger)
	diagnostics, err := runner.RunDiagnostics(ctx)
	if err != nil {
		return fmt.Errorf("diagnostics failed: %w", err)
	}

	data := pterm.TableData{{"Test", "Status", "Message", "Duration"}}
	for _, r := range diagnostics.Results {
		data = append(data, []string{string(r.Test), r.Status, r.Message, r.Duration.Round(time.Millisecond).String()})
	}
	pterm.DefaultSection.Printfln("Diagnostics (%s)", diagnostics.Level)
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}

	env := diagnostics.Environment
	pterm.Info.Printfln("%s@%s, %s, %d CPU", env.Username, env.Hostname, env.Architecture, env.CPUCount)

	if output != "" {
		path, err := system.SaveDiagnostics(diagnostics, output)
		if err != nil {
			return err
		}
		pterm.Info.Printfln("Diagnostics saved: %s", path)
	}

	switch diagnostics.Overall {
	case "CRITICAL":
		pterm.Error.Printfln("Overall: %s (%d failed)", diagnostics.Overall, diagnostics.Summary.Failed)
		return &exitError{code: EXIT_ERROR}
	case "WARNING":
		pterm.Warning.Printfln("Overall: %s (%d warnings)", diagnostics.Overall, diagnostics.Summary.Warnings)
		return &exitError{code: EXIT_WARNING}
	}
	pterm.Success.Printfln("Overall: %s", diagnostics.Overall)
	if verbose {
		fmt.Fprintf(os.Stdout, "Checked %d tests in %s\n", diagnostics.Summary.TotalTests, diagnostics.Duration)
	}
	return nil
}
