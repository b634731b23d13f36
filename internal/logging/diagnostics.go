package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

const (
	// MaxLineLength is the maximum length of a single retained line before truncation.
	MaxLineLength = 4096

	// DefaultDiagnosticLines is the number of lines a DiagnosticBuffer keeps
	// when no capacity is given.
	DefaultDiagnosticLines = 500
)

// DiagnosticBuffer retains the most recent output lines of an external tool
// so they can be attached to error messages after the process exits.
// Every line is also logged at a level chosen from its content.
type DiagnosticBuffer struct {
	tool   string
	stream string
	logger *slog.Logger

	mu     sync.Mutex
	lines  []string
	next   int
	filled bool
}

// NewDiagnosticBuffer creates a buffer holding at most capacity lines of the
// given tool stream ("stdout" or "stderr"). A nil logger disables logging.
func NewDiagnosticBuffer(tool, stream string, capacity int, logger *slog.Logger) *DiagnosticBuffer {
	if capacity <= 0 {
		capacity = DefaultDiagnosticLines
	}
	return &DiagnosticBuffer{
		tool:   tool,
		stream: stream,
		logger: logger,
		lines:  make([]string, capacity),
	}
}

// HandleLine stores a line and logs it.
func (b *DiagnosticBuffer) HandleLine(line string) {
	if len(line) > MaxLineLength {
		line = line[:MaxLineLength] + "...(truncated)"
	}

	b.mu.Lock()
	b.lines[b.next] = line
	b.next = (b.next + 1) % len(b.lines)
	if b.next == 0 {
		b.filled = true
	}
	b.mu.Unlock()

	if b.logger != nil {
		b.logger.Log(context.Background(), ClassifyLine(line), "tool_output",
			"tool", b.tool,
			"stream", b.stream,
			"line", line,
		)
	}
}

// Lines returns the retained lines, oldest first.
func (b *DiagnosticBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.filled {
		return append([]string(nil), b.lines[:b.next]...)
	}
	out := make([]string, 0, len(b.lines))
	out = append(out, b.lines[b.next:]...)
	out = append(out, b.lines[:b.next]...)
	return out
}

// String joins the retained lines with newlines.
func (b *DiagnosticBuffer) String() string {
	return strings.Join(b.Lines(), "\n")
}

// ClassifyLine picks a log level for a line of tool output.
// Stats lines are debug noise; errors and warnings surface at warn.
func ClassifyLine(line string) slog.Level {
	lower := strings.ToLower(line)

	if strings.Contains(lower, "error") ||
		strings.Contains(lower, "invalid") ||
		strings.Contains(lower, "no such file") ||
		strings.Contains(lower, "not supported") ||
		strings.Contains(lower, "[warning]") {
		return slog.LevelWarn
	}

	return slog.LevelDebug
}
