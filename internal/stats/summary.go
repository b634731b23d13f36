package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	heavyRule = "═══════════════════════════════════════════════════════════════════════════════\n"
	lightRule = "───────────────────────────────────────────────────────────────────────────────\n"
)

// SummaryConfig holds configuration for summary formatting.
type SummaryConfig struct {
	// Duration is the total run duration
	Duration time.Duration

	// MetricsAddr is the Prometheus metrics endpoint address
	MetricsAddr string

	// ExitCodes is a map of ffmpeg exit codes to counts
	ExitCodes map[int]int

	// CacheHits and CacheMisses come from the proxy generator
	CacheHits   int
	CacheMisses int
}

// FormatSummary formats a tracker snapshot for display at program exit.
func FormatSummary(snap *Snapshot, cfg SummaryConfig) string {
	if snap == nil {
		return formatBasicSummary(cfg)
	}

	var b strings.Builder
	writeBanner(&b)

	fmt.Fprintf(&b, "Run Duration:           %s\n", FormatDuration(cfg.Duration))
	fmt.Fprintf(&b, "Jobs:                   %d\n", snap.Jobs)
	fmt.Fprintf(&b, "  Succeeded:            %d\n", snap.Succeeded)
	fmt.Fprintf(&b, "  Failed:               %d\n", snap.Failed)
	if snap.Running > 0 {
		fmt.Fprintf(&b, "  Still running:        %d\n", snap.Running)
	}
	b.WriteString("\n")

	if snap.ProgressUpdates > 0 {
		writeSection(&b, "Encoding")
		fmt.Fprintf(&b, "  Frames:               %s\n", FormatNumber(snap.Frames))
		fmt.Fprintf(&b, "  Progress updates:     %s\n", FormatNumber(snap.ProgressUpdates))
		if snap.SpeedMax > 0 {
			fmt.Fprintf(&b, "  Speed P50:            %s\n", FormatSpeed(snap.SpeedP50))
			fmt.Fprintf(&b, "  Speed P95:            %s\n", FormatSpeed(snap.SpeedP95))
			fmt.Fprintf(&b, "  Speed Max:            %s\n", FormatSpeed(snap.SpeedMax))
		}
		b.WriteString("\n")
	}

	if snap.DurationP50 > 0 || snap.DurationP95 > 0 {
		writeSection(&b, "Job Duration")
		fmt.Fprintf(&b, "  P50 (median):         %s\n", FormatDuration(snap.DurationP50))
		fmt.Fprintf(&b, "  P95:                  %s\n", FormatDuration(snap.DurationP95))
		fmt.Fprintf(&b, "  P99:                  %s\n", FormatDuration(snap.DurationP99))
		b.WriteString("\n")
	}

	writeCache(&b, cfg)

	if len(cfg.ExitCodes) > 0 {
		writeSection(&b, "Exit Codes")
		codes := make([]int, 0, len(cfg.ExitCodes))
		for code := range cfg.ExitCodes {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			fmt.Fprintf(&b, "  %3d %-16s %d\n", code, exitCodeLabel(code), cfg.ExitCodes[code])
		}
		b.WriteString("\n")
	}

	if len(snap.Errors) > 0 {
		writeSection(&b, "Errors")
		for _, e := range snap.Errors {
			fmt.Fprintf(&b, "  %s  %s\n", shortID(e.ID), firstLine(e.Message))
		}
		b.WriteString("\n")
	}

	if cfg.MetricsAddr != "" {
		fmt.Fprintf(&b, "Metrics endpoint was: http://%s/metrics\n", cfg.MetricsAddr)
	}

	b.WriteString(heavyRule)
	return b.String()
}

// formatBasicSummary formats a basic summary when no jobs were tracked.
func formatBasicSummary(cfg SummaryConfig) string {
	var b strings.Builder
	writeBanner(&b)

	fmt.Fprintf(&b, "Run Duration:           %s\n\n", FormatDuration(cfg.Duration))
	b.WriteString("(No jobs were tracked)\n\n")
	writeCache(&b, cfg)

	if cfg.MetricsAddr != "" {
		fmt.Fprintf(&b, "Metrics endpoint was: http://%s/metrics\n", cfg.MetricsAddr)
	}

	b.WriteString(heavyRule)
	return b.String()
}

func writeCache(b *strings.Builder, cfg SummaryConfig) {
	if cfg.CacheHits == 0 && cfg.CacheMisses == 0 {
		return
	}
	writeSection(b, "Proxy Cache")
	fmt.Fprintf(b, "  Hits:                 %d\n", cfg.CacheHits)
	fmt.Fprintf(b, "  Misses:               %d\n", cfg.CacheMisses)
	b.WriteString("\n")
}

func writeBanner(b *strings.Builder) {
	b.WriteString("\n")
	b.WriteString(heavyRule)
	b.WriteString("                          video-cropper Exit Summary\n")
	b.WriteString(heavyRule)
	b.WriteString("\n")
}

func writeSection(b *strings.Builder, title string) {
	pad := (len([]rune(lightRule)) - 1 - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	b.WriteString(lightRule)
	b.WriteString(strings.Repeat(" ", pad) + title + "\n")
	b.WriteString(lightRule)
	b.WriteString("\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// exitCodeLabel returns a human-readable label for common exit codes.
func exitCodeLabel(code int) string {
	switch code {
	case 0:
		return "(clean)"
	case 1:
		return "(error)"
	case 137:
		return "(SIGKILL)"
	case 143:
		return "(SIGTERM)"
	default:
		return ""
	}
}

// =============================================================================
// Formatting Helper Functions (exported for reuse)
// =============================================================================

// FormatDuration formats a duration as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatNumber formats a number with K/M suffixes for readability.
func FormatNumber(n int64) string {
	if n >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

// FormatSpeed formats an encode speed relative to realtime.
func FormatSpeed(speed float64) string {
	return fmt.Sprintf("%.2fx", speed)
}
