package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestGetSpeedStyle(t *testing.T) {
	tests := []struct {
		name  string
		speed float64
		want  lipgloss.TerminalColor
	}{
		{"realtime", 1.0, colorSuccess},
		{"fast", 4.2, colorSuccess},
		{"slow", 0.75, colorWarning},
		{"threshold", 0.5, colorWarning},
		{"crawling", 0.1, colorError},
		{"unknown", 0, colorError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSpeedStyle(tt.speed).GetForeground(); got != tt.want {
				t.Errorf("GetSpeedStyle(%v) foreground = %v, want %v", tt.speed, got, tt.want)
			}
		})
	}
}

func TestGetSpeedLabel(t *testing.T) {
	tests := []struct {
		speed float64
		want  string
	}{
		{0, "N/A"},
		{-1, "N/A"},
		{1.0, "1.00x"},
		{0.95, "0.95x"},
		{12.5, "12.50x"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := GetSpeedLabel(tt.speed); !strings.Contains(got, tt.want) {
				t.Errorf("GetSpeedLabel(%v) = %q, want to contain %q", tt.speed, got, tt.want)
			}
		})
	}
}

func TestRenderKeyValue(t *testing.T) {
	result := RenderKeyValue("Label", "Value")

	if !strings.Contains(result, "Label:") {
		t.Error("result should contain label")
	}
	if !strings.Contains(result, "Value") {
		t.Error("result should contain value")
	}
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		name     string
		progress float64
		width    int
		percent  string
		cells    int
	}{
		{"empty", 0, 20, "0%", 20},
		{"half", 0.5, 20, "50%", 20},
		{"full", 1.0, 20, "100%", 20},
		{"narrow widens to minimum", 0.5, 5, "50%", 10},
		{"over 100% clamps", 1.5, 20, "100%", 20},
		{"negative clamps", -0.1, 20, "0%", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RenderProgressBar(tt.progress, tt.width)
			if !strings.Contains(result, tt.percent) {
				t.Errorf("RenderProgressBar(%v) = %q, want %s", tt.progress, result, tt.percent)
			}
			cells := strings.Count(result, "█") + strings.Count(result, "░")
			if cells != tt.cells {
				t.Errorf("bar has %d cells, want %d", cells, tt.cells)
			}
		})
	}
}

func TestJobStateBadge(t *testing.T) {
	tests := []struct {
		state jobState
		want  string
	}{
		{stateExporting, "Exporting"},
		{stateStopping, "Stopping"},
		{stateDone, "Done"},
		{stateFailed, "Failed"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.badge(); !strings.Contains(got, tt.want) {
				t.Errorf("badge() = %q, want to contain %q", got, tt.want)
			}
		})
	}
}
