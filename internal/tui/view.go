package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeselxe/video-cropper/internal/stats"
)

// =============================================================================
// Main View Rendering
// =============================================================================

func (m Model) renderView() string {
	sections := []string{
		m.renderHeader(),
		m.renderProgress(),
	}
	if m.hasStats {
		sections = append(sections, m.renderEncoding())
	}
	if len(m.logs) > 0 {
		sections = append(sections, m.renderLogs())
	}
	if m.done {
		sections = append(sections, m.renderResult())
	}
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// Header
// =============================================================================

func (m Model) state() jobState {
	switch {
	case m.done && m.failed:
		return stateFailed
	case m.done:
		return stateDone
	case m.cancelled:
		return stateStopping
	default:
		return stateExporting
	}
}

func (m Model) renderHeader() string {
	header := fmt.Sprintf(
		" video-cropper │ %s │ Elapsed: %s ",
		m.state().badge(),
		stats.FormatDuration(m.Elapsed()),
	)
	return headerStyle.Width(m.width).Render(header)
}

// =============================================================================
// Progress Section
// =============================================================================

func (m Model) renderProgress() string {
	barWidth := m.width - 30
	if barWidth < 20 {
		barWidth = 20
	}

	lines := []string{
		sectionHeaderStyle.Render("Progress"),
		RenderProgressBar(m.percent/100, barWidth),
	}
	if m.clip > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("%s / %s",
			stats.FormatDuration(m.last.OutTime),
			stats.FormatDuration(m.clip),
		)))
	}

	return boxStyle.Width(m.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// =============================================================================
// Encoding Stats
// =============================================================================

func (m Model) renderEncoding() string {
	s := m.last
	lines := []string{
		sectionHeaderStyle.Render("Encoding"),
		RenderKeyValue("Frame", stats.FormatNumber(s.Frame)),
		RenderKeyValue("FPS", fmt.Sprintf("%.1f", s.FPS)),
		RenderKeyValue("Size", orNA(s.Size)),
		RenderKeyValue("Bitrate", orNA(s.Bitrate)),
		lipgloss.JoinHorizontal(lipgloss.Left,
			labelStyle.Render("Speed:"),
			GetSpeedLabel(s.Speed),
		),
	}
	return boxStyle.Width(m.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

// =============================================================================
// Recent Output
// =============================================================================

func (m Model) renderLogs() string {
	maxLen := m.width - 6
	if maxLen < 20 {
		maxLen = 20
	}

	lines := []string{sectionHeaderStyle.Render("FFmpeg Output")}
	for _, l := range m.logs {
		lines = append(lines, dimStyle.Render(truncate(l, maxLen)))
	}
	return boxStyle.Width(m.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// =============================================================================
// Result
// =============================================================================

func (m Model) renderResult() string {
	return m.state().style().Render(m.result)
}

// =============================================================================
// Footer
// =============================================================================

func (m Model) renderFooter() string {
	left := dimStyle.Render("q: quit")
	if !m.done {
		left = dimStyle.Render("q: cancel export")
	}

	right := dimStyle.Render(filepath.Base(m.input) + " → " + filepath.Base(m.output))
	if m.metricsAddr != "" {
		right += dimStyle.Render(" │ http://" + m.metricsAddr + "/metrics")
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return footerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Left,
			left,
			strings.Repeat(" ", padding),
			right,
		),
	)
}
