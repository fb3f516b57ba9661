package system

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"datadestroyer/internal/logging"
	"datadestroyer/internal/security"
	"datadestroyer/internal/wipe"
)

// DiagnosticLevel selects how many checks run.
type DiagnosticLevel string

const (
	LevelQuick DiagnosticLevel = "quick"
	LevelFull  DiagnosticLevel = "full"
)

// DiagnosticTest names a single check.
type DiagnosticTest string

const (
	TestPermissions DiagnosticTest = "permissions"
	TestDisk        DiagnosticTest = "disk"
	TestMemory      DiagnosticTest = "memory"
	TestCPU         DiagnosticTest = "cpu"
	TestWipe        DiagnosticTest = "wipe"
)

// DiagnosticResult is the outcome of one check.
type DiagnosticResult struct {
	Test      DiagnosticTest `json:"test"`
	Status    string         `json:"status"` // PASS, FAIL, WARN
	Message   string         `json:"message"`
	Details   interface{}    `json:"details,omitempty"`
	Duration  time.Duration  `json:"duration"`
	Timestamp time.Time      `json:"timestamp"`
}

// SystemDiagnostics is a full diagnostics run.
type SystemDiagnostics struct {
	Level       DiagnosticLevel    `json:"level"`
	StartTime   time.Time          `json:"start_time"`
	EndTime     time.Time          `json:"end_time"`
	Duration    time.Duration      `json:"duration"`
	Overall     string             `json:"overall"` // HEALTHY, WARNING, CRITICAL
	Results     []DiagnosticResult `json:"results"`
	Summary     DiagnosticSummary  `json:"summary"`
	Environment SystemEnvironment  `json:"environment"`
}

type DiagnosticSummary struct {
	TotalTests int `json:"total_tests"`
	Passed     int `json:"passed"`
	Failed     int `json:"failed"`
	Warnings   int `json:"warnings"`
}

// SystemEnvironment describes the host.
type SystemEnvironment struct {
	Distro       Distro `json:"distro"`
	Architecture string `json:"architecture"`
	Username     string `json:"username"`
	Hostname     string `json:"hostname"`
	IsRoot       bool   `json:"is_root"`
	CPUCount     int    `json:"cpu_count"`
}

// DiagnosticsRunner runs the checks against a working directory, usually the
// directory holding the files to destroy.
type DiagnosticsRunner struct {
	level   DiagnosticLevel
	dir     string
	test    DiagnosticTest
	logger  *logging.Logger
	release string
}

func NewDiagnosticsRunner(level DiagnosticLevel, dir string, test DiagnosticTest, logger *logging.Logger) *DiagnosticsRunner {
	if logger == nil {
		logger = logging.NewNop()
	}
	if dir == "" {
		dir = os.TempDir()
	}
	return &DiagnosticsRunner{
		level:   level,
		dir:     dir,
		test:    test,
		logger:  logger.Named("diagnostics"),
		release: osReleasePath,
	}
}

// RunDiagnostics runs every check for the level, stopping early if ctx ends.
func (r *DiagnosticsRunner) RunDiagnostics(ctx context.Context) (*SystemDiagnostics, error) {
	startTime := time.Now()

	diagnostics := &SystemDiagnostics{
		Level:       r.level,
		StartTime:   startTime,
		Results:     make([]DiagnosticResult, 0),
		Environment: r.collectEnvironmentInfo(),
	}

	for _, test := range r.testsForLevel() {
		select {
		case <-ctx.Done():
			return diagnostics, ctx.Err()
		default:
		}

		result := r.runTest(ctx, test)
		diagnostics.Results = append(diagnostics.Results, result)
	}

	diagnostics.EndTime = time.Now()
	diagnostics.Duration = diagnostics.EndTime.Sub(diagnostics.StartTime)
	diagnostics.Summary = calculateSummary(diagnostics.Results)
	diagnostics.Overall = determineOverallStatus(diagnostics.Summary)

	return diagnostics, nil
}

func (r *DiagnosticsRunner) testsForLevel() []DiagnosticTest {
	if r.test != "" {
		return []DiagnosticTest{r.test}
	}

	switch r.level {
	case LevelFull:
		return []DiagnosticTest{TestPermissions, TestDisk, TestMemory, TestCPU, TestWipe}
	default:
		return []DiagnosticTest{TestPermissions, TestDisk}
	}
}

func (r *DiagnosticsRunner) runTest(ctx context.Context, test DiagnosticTest) DiagnosticResult {
	startTime := time.Now()

	result := DiagnosticResult{
		Test:      test,
		Timestamp: startTime,
	}

	switch test {
	case TestPermissions:
		result.Status, result.Message, result.Details = r.testPermissions()
	case TestDisk:
		result.Status, result.Message, result.Details = r.testDisk()
	case TestMemory:
		result.Status, result.Message, result.Details = r.testMemory()
	case TestCPU:
		result.Status, result.Message, result.Details = r.testCPU()
	case TestWipe:
		result.Status, result.Message, result.Details = r.testWipe(ctx)
	default:
		result.Status, result.Message = "FAIL", fmt.Sprintf("unknown test: %s", test)
	}

	result.Duration = time.Since(startTime)
	r.logger.Log("DEBUG", "Diagnostic test finished",
		"test", string(result.Test), "status", result.Status, "message", result.Message, "duration", result.Duration.String())

	return result
}

func (r *DiagnosticsRunner) testPermissions() (string, string, interface{}) {
	root := security.IsRoot()
	details := map[string]interface{}{
		"is_root": root,
		"uid":     os.Geteuid(),
	}
	if root {
		return "PASS", "Running with root privileges", details
	}
	return "WARN", "Not running as root, some files may not be accessible", details
}

func (r *DiagnosticsRunner) testDisk() (string, string, interface{}) {
	usage, err := disk.Usage(r.dir)
	if err != nil {
		return "FAIL", fmt.Sprintf("Cannot read disk usage for %s: %v", r.dir, err), nil
	}

	details := map[string]interface{}{
		"path":       r.dir,
		"fstype":     usage.Fstype,
		"total_gb":   float64(usage.Total) / (1024 * 1024 * 1024),
		"free_gb":    float64(usage.Free) / (1024 * 1024 * 1024),
		"used_pct":   usage.UsedPercent,
		"filesystem": FilesystemType(r.dir),
	}

	if err := (wipe.OSVolume{}).CheckWritable(r.dir); err != nil {
		return "FAIL", fmt.Sprintf("%s is not writable: %v", r.dir, err), details
	}

	minFree := uint64(1024 * 1024 * 1024) // 1GB
	if usage.Free < minFree {
		return "WARN", fmt.Sprintf("Low free space on %s: %s", r.dir, FormatSize(int64(usage.Free))), details
	}
	return "PASS", fmt.Sprintf("%s free on %s", FormatSize(int64(usage.Free)), r.dir), details
}

func (r *DiagnosticsRunner) testMemory() (string, string, interface{}) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return "WARN", fmt.Sprintf("Cannot read memory statistics: %v", err), nil
	}

	details := map[string]interface{}{
		"total_mb":      vm.Total / (1024 * 1024),
		"available_mb":  vm.Available / (1024 * 1024),
		"usage_percent": vm.UsedPercent,
	}

	if vm.UsedPercent > 90 {
		return "WARN", fmt.Sprintf("High memory usage: %.1f%%", vm.UsedPercent), details
	}
	return "PASS", fmt.Sprintf("Memory usage: %.1f%%", vm.UsedPercent), details
}

func (r *DiagnosticsRunner) testCPU() (string, string, interface{}) {
	cpuCount := runtime.NumCPU()
	details := map[string]interface{}{
		"cpu_count": cpuCount,
		"os":        runtime.GOOS,
		"arch":      runtime.GOARCH,
	}
	return "PASS", fmt.Sprintf("%d CPU cores available", cpuCount), details
}

// testWipe destroys a scratch file in the working directory end to end.
func (r *DiagnosticsRunner) testWipe(ctx context.Context) (string, string, interface{}) {
	f, err := os.CreateTemp(r.dir, ".datadestroyer-diag-*")
	if err != nil {
		return "FAIL", fmt.Sprintf("Cannot create test file: %v", err), nil
	}
	path := f.Name()
	_, err = f.Write([]byte(strings.Repeat("datadestroyer", 1024)))
	f.Close()
	if err != nil {
		os.Remove(path)
		return "FAIL", fmt.Sprintf("Cannot write test file: %v", err), nil
	}

	d := wipe.NewDestroyer(wipe.OSStorage(), wipe.Options{}, r.logger)
	out := d.Destroy(ctx, 1, path, wipe.ModeNSA, 0, wipe.Discard)
	details := map[string]interface{}{
		"test_file": path,
		"state":     out.State.String(),
		"verified":  out.Verified,
	}

	if out.State != wipe.StateDestroyed {
		os.Remove(out.FinalPath)
		return "FAIL", fmt.Sprintf("Test destruction failed: %v", out.Err), details
	}
	if !out.Verified {
		return "WARN", "Test file destroyed but removal could not be verified", details
	}
	return "PASS", "Test file overwritten, renamed and removed", details
}

func (r *DiagnosticsRunner) collectEnvironmentInfo() SystemEnvironment {
	hostname, _ := os.Hostname()
	return SystemEnvironment{
		Distro:       readDistro(r.release),
		Architecture: runtime.GOARCH,
		Username:     os.Getenv("USER"),
		Hostname:     hostname,
		IsRoot:       security.IsRoot(),
		CPUCount:     runtime.NumCPU(),
	}
}

func calculateSummary(results []DiagnosticResult) DiagnosticSummary {
	summary := DiagnosticSummary{TotalTests: len(results)}

	for _, result := range results {
		switch result.Status {
		case "PASS":
			summary.Passed++
		case "FAIL":
			summary.Failed++
		case "WARN":
			summary.Warnings++
		}
	}

	return summary
}

func determineOverallStatus(summary DiagnosticSummary) string {
	if summary.Failed > 0 {
		return "CRITICAL"
	}
	if summary.Warnings > 0 {
		return "WARNING"
	}
	return "HEALTHY"
}

// SaveDiagnostics writes diagnostics as indented JSON. An empty outputPath
// picks a timestamped file in the temp directory.
func SaveDiagnostics(diagnostics *SystemDiagnostics, outputPath string) (string, error) {
	if outputPath == "" {
		timestamp := diagnostics.StartTime.Format("20060102_150405")
		outputPath = filepath.Join(os.TempDir(), fmt.Sprintf("datadestroyer_diagnostics_%s.json", timestamp))
	}

	data, err := json.MarshalIndent(diagnostics, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode diagnostics: %w", err)
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write diagnostics file: %w", err)
	}

	return outputPath, nil
}

const osReleasePath = "/etc/os-release"

// Distro is the Linux distribution as reported by os-release.
type Distro struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Codename string `json:"codename,omitempty"`
}

// String renders "Name Version (codename)".
func (d Distro) String() string {
	s := d.Name
	if d.Version != "" {
		s += " " + d.Version
	}
	if d.Codename != "" {
		s += " (" + d.Codename + ")"
	}
	return s
}

// ParseOSRelease reads NAME, VERSION and VERSION_CODENAME from an
// os-release file.
func ParseOSRelease(r io.Reader) (Distro, error) {
	d := Distro{Name: "Linux", Version: "Unknown"}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)
		switch key {
		case "NAME":
			d.Name = value
		case "VERSION":
			d.Version = value
		case "VERSION_CODENAME":
			d.Codename = value
		}
	}
	return d, sc.Err()
}

// readDistro falls back to a bare "Linux" when the file is unreadable.
func readDistro(path string) Distro {
	f, err := os.Open(path)
	if err != nil {
		return Distro{Name: "Linux"}
	}
	defer f.Close()

	d, err := ParseOSRelease(f)
	if err != nil {
		return Distro{Name: "Linux"}
	}
	return d
}

// HostDistro describes the running system.
func HostDistro() Distro {
	return readDistro(osReleasePath)
}
