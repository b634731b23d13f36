// Package preflight provides startup validation checks.
package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeselxe/video-cropper/internal/proxy"
	"github.com/jeselxe/video-cropper/internal/supervisor"
)

// DefaultCheckTimeout bounds each external tool invocation.
const DefaultCheckTimeout = 10 * time.Second

// Check represents the result of a single preflight check.
type Check struct {
	Name     string // Name of the check
	Required int    // Required value (if applicable)
	Actual   int    // Actual value found
	Passed   bool   // Whether the check passed
	Warning  bool   // True if it's a warning (non-fatal)
	Message  string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}

	if c.Required > 0 {
		return fmt.Sprintf("  %s %s: %d available (need %d)", status, c.Name, c.Actual, c.Required)
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

// Options selects what RunAll checks.
type Options struct {
	FFmpegPath  string
	FFprobePath string

	// DataDir is the application data directory; the proxy cache lives
	// below it. Empty skips the check.
	DataDir string

	// HWAccel is the proxy hardware decoder. Empty skips the check.
	HWAccel string

	Supervisor *supervisor.Supervisor
	Timeout    time.Duration
}

// RunAll executes all preflight checks.
func RunAll(ctx context.Context, opts Options) *Result {
	sup := opts.Supervisor
	if sup == nil {
		sup = supervisor.New(supervisor.Config{})
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}

	result := &Result{
		Checks: make([]Check, 0, 5),
		Passed: true,
	}
	add := func(c Check) {
		result.Checks = append(result.Checks, c)
		if !c.Passed {
			result.Passed = false
		}
	}

	ffmpeg := checkBinary(ctx, sup, timeout, "ffmpeg", opts.FFmpegPath)
	add(ffmpeg)
	add(checkBinary(ctx, sup, timeout, "ffprobe", opts.FFprobePath))

	// Only meaningful once ffmpeg itself runs.
	if opts.HWAccel != "" && ffmpeg.Passed {
		add(checkHWAccel(ctx, sup, timeout, opts.FFmpegPath, opts.HWAccel))
	}
	if opts.DataDir != "" {
		add(checkDataDir(opts.DataDir))
	}
	add(checkFileDescriptors())

	return result
}

// checkBinary verifies a tool is available and working.
func checkBinary(ctx context.Context, sup *supervisor.Supervisor, timeout time.Duration, name, path string) Check {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := sup.Run(ctx, path, []string{"-version"})
	if err != nil {
		return Check{
			Name:    name,
			Passed:  false,
			Message: fmt.Sprintf("not found at %s: %v", path, err),
		}
	}
	if !res.Outcome.IsSuccess() {
		return Check{
			Name:    name,
			Passed:  false,
			Message: fmt.Sprintf("%s -version failed: %s", path, res.Outcome.Describe(name)),
		}
	}

	return Check{
		Name:    name,
		Passed:  true,
		Message: fmt.Sprintf("found at %s (version %s)", path, parseVersion(res.Stdout)),
	}
}

// parseVersion extracts the version from "ffmpeg version 6.1 Copyright ...".
func parseVersion(output string) string {
	first, _, _ := strings.Cut(output, "\n")
	parts := strings.Fields(first)
	if len(parts) >= 3 && parts[1] == "version" {
		return parts[2]
	}
	return "unknown"
}

// checkHWAccel verifies ffmpeg was built with the proxy's hardware decoder.
// A missing decoder only slows proxies down, so it is a warning.
func checkHWAccel(ctx context.Context, sup *supervisor.Supervisor, timeout time.Duration, ffmpegPath, hwaccel string) Check {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := sup.Run(ctx, ffmpegPath, []string{"-hide_banner", "-hwaccels"})
	if err != nil || !res.Outcome.IsSuccess() {
		return Check{
			Name:    "hwaccel",
			Passed:  true,
			Warning: true,
			Message: "unable to list hardware accelerations",
		}
	}

	for _, line := range strings.Split(res.Stdout, "\n") {
		if strings.TrimSpace(line) == hwaccel {
			return Check{
				Name:    "hwaccel",
				Passed:  true,
				Message: fmt.Sprintf("%s available", hwaccel),
			}
		}
	}
	return Check{
		Name:    "hwaccel",
		Passed:  true,
		Warning: true,
		Message: fmt.Sprintf("%s not supported by this ffmpeg build; proxies will fail", hwaccel),
	}
}

// checkDataDir verifies the proxy cache directory can be created and written.
func checkDataDir(dataDir string) Check {
	dir := filepath.Join(dataDir, proxy.CacheDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Check{
			Name:    "cache_dir",
			Passed:  false,
			Message: fmt.Sprintf("cannot create %s: %v", dir, err),
		}
	}

	f, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		return Check{
			Name:    "cache_dir",
			Passed:  false,
			Message: fmt.Sprintf("%s is not writable: %v", dir, err),
		}
	}
	name := f.Name()
	f.Close()
	os.Remove(name)

	return Check{
		Name:    "cache_dir",
		Passed:  true,
		Message: dir,
	}
}

// PrintResults writes the preflight check results to w.
func PrintResults(w io.Writer, result *Result) {
	fmt.Fprintln(w, "Preflight checks:")
	for _, check := range result.Checks {
		fmt.Fprintln(w, check.String())
		if !check.Passed {
			fmt.Fprintf(w, "    Fix: %s\n", suggestFix(check.Name))
		}
	}
	fmt.Fprintln(w)
}

// suggestFix returns a suggestion for fixing a failed check.
func suggestFix(name string) string {
	switch name {
	case "file_descriptors":
		return "ulimit -n 1024 (or edit /etc/security/limits.conf)"
	case "ffmpeg":
		return "install ffmpeg (apt install ffmpeg / brew install ffmpeg) or pass --ffmpeg"
	case "ffprobe":
		return "install ffprobe alongside ffmpeg or pass --ffprobe"
	case "cache_dir":
		return "pass a writable --data-dir"
	default:
		return "see documentation"
	}
}
