// Package tui provides a live terminal view of a running export.
//
// The TUI uses Bubble Tea for the application framework and Lipgloss for styling.
// It shows the completion bar, the latest ffmpeg stats line and the most
// recent diagnostic output until the job's terminal event arrives.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Adaptive colors keep the view readable on light and dark terminals.
var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#14B8A6"} // teal
	colorFrame  = lipgloss.AdaptiveColor{Light: "#CBD5E1", Dark: "#334155"}

	colorSuccess = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#22C55E"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	colorError   = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}

	colorText  = lipgloss.AdaptiveColor{Light: "#0F172A", Dark: "#F1F5F9"}
	colorMuted = lipgloss.AdaptiveColor{Light: "#475569", Dark: "#94A3B8"}
	colorDim   = lipgloss.AdaptiveColor{Light: "#64748B", Dark: "#64748B"}
)

var (
	dimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorFrame).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorAccent).
			Bold(true).
			Padding(0, 1).
			MarginBottom(1)

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(colorFrame)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(14)

	valueStyle = lipgloss.NewStyle().Foreground(colorText).Bold(true)

	barFilledStyle = lipgloss.NewStyle().Foreground(colorAccent)
	barEmptyStyle  = lipgloss.NewStyle().Foreground(colorFrame)
)

// tone picks a foreground for good, middling and bad values.
func tone(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c).Bold(true)
}

// jobState is what the header badge shows.
type jobState int

const (
	stateExporting jobState = iota
	stateStopping
	stateDone
	stateFailed
)

var stateBadges = map[jobState]struct {
	label string
	color lipgloss.TerminalColor
}{
	stateExporting: {"Exporting", colorAccent},
	stateStopping:  {"Stopping", colorWarning},
	stateDone:      {"Done", colorSuccess},
	stateFailed:    {"Failed", colorError},
}

func (s jobState) badge() string {
	b := stateBadges[s]
	return tone(b.color).Render("● " + b.label)
}

func (s jobState) style() lipgloss.Style {
	return tone(stateBadges[s].color)
}

// GetSpeedStyle colors an encode speed relative to realtime: at least 1x is
// good, at least 0.5x is slow, anything else (including unknown) is bad.
func GetSpeedStyle(speed float64) lipgloss.Style {
	switch {
	case speed >= 1.0:
		return tone(colorSuccess)
	case speed >= 0.5:
		return tone(colorWarning)
	default:
		return tone(colorError)
	}
}

// GetSpeedLabel returns a styled speed value.
func GetSpeedLabel(speed float64) string {
	label := "N/A"
	if speed > 0 {
		label = fmt.Sprintf("%.2fx", speed)
	}
	return GetSpeedStyle(speed).Render(label)
}

// RenderKeyValue renders a label-value pair.
func RenderKeyValue(label string, value string) string {
	return labelStyle.Render(label+":") + valueStyle.Render(value)
}

// RenderProgressBar renders a bar for progress in [0, 1] followed by the
// percentage. Out-of-range progress is clamped.
func RenderProgressBar(progress float64, width int) string {
	width = max(width, 10)
	progress = min(max(progress, 0), 1)
	filled := int(progress * float64(width))

	return barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled)) +
		valueStyle.Render(fmt.Sprintf(" %3.0f%%", progress*100))
}
