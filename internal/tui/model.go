package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeselxe/video-cropper/internal/notify"
	"github.com/jeselxe/video-cropper/internal/parser"
)

// maxLogLines is the number of non-stats output lines kept for display.
const maxLogLines = 6

// =============================================================================
// Messages
// =============================================================================

// TickMsg is sent periodically to update the elapsed time.
type TickMsg time.Time

// EventMsg carries a job notification into the program.
type EventMsg struct {
	Event notify.Event
}

// QuitMsg signals the TUI should exit.
type QuitMsg struct{}

// =============================================================================
// Model
// =============================================================================

// Model represents the TUI state for one export.
type Model struct {
	// Configuration
	input       string
	output      string
	clip        time.Duration
	metricsAddr string
	cancel      func()

	// Current state
	jobID     string
	percent   float64
	last      parser.Stats
	hasStats  bool
	logs      []string
	done      bool
	failed    bool
	result    string
	cancelled bool
	startTime time.Time
	now       time.Time

	// Display options
	width  int
	height int

	quitting bool
}

// Config holds TUI configuration.
type Config struct {
	Input       string
	Output      string
	Clip        time.Duration
	MetricsAddr string

	// Cancel stops the export. It is called at most once, when the user
	// quits before the job has finished.
	Cancel func()
}

// New creates a new TUI model.
func New(cfg Config) Model {
	now := time.Now()
	return Model{
		input:       cfg.Input,
		output:      cfg.Output,
		clip:        cfg.Clip,
		metricsAddr: cfg.MetricsAddr,
		cancel:      cfg.Cancel,
		startTime:   now,
		now:         now,
		width:       80,
		height:      24,
	}
}

// =============================================================================
// Bubble Tea Interface
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.done && !m.cancelled && m.cancel != nil {
				m.cancel()
				m.cancelled = true
			}
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		m.now = time.Time(msg)
		if m.done {
			return m, nil
		}
		return m, tickCmd()

	case EventMsg:
		return m.handleEvent(msg.Event)

	case QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleEvent(ev notify.Event) (tea.Model, tea.Cmd) {
	if m.done {
		return m, nil
	}
	if m.jobID == "" {
		m.jobID = ev.JobID
	}

	switch ev.Name {
	case notify.EventProgress:
		if s, ok := parser.ParseStatsLine(ev.Payload); ok {
			m.last = s
			m.hasStats = true
			if ev.Percent >= 0 {
				m.percent = ev.Percent
			}
			return m, nil
		}
		m.logs = append(m.logs, ev.Payload)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		return m, nil

	case notify.EventFinished, notify.EventError:
		m.done = true
		m.failed = ev.Name == notify.EventError
		m.result = ev.Payload
		if !m.failed {
			m.percent = 100
		}
		return m, tea.Quit
	}
	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting && !m.done {
		return ""
	}
	return m.renderView()
}

// =============================================================================
// Commands
// =============================================================================

// tickCmd returns a command that sends a tick after 500ms.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// =============================================================================
// Accessors
// =============================================================================

// Elapsed returns the time since the export started.
func (m Model) Elapsed() time.Duration {
	return m.now.Sub(m.startTime)
}

// Percent returns the last reported completion percentage.
func (m Model) Percent() float64 {
	return m.percent
}

// Done reports whether the terminal event has arrived.
func (m Model) Done() bool {
	return m.done
}

// Failed reports whether the job ended with an error event.
func (m Model) Failed() bool {
	return m.failed
}

// Result returns the terminal message.
func (m Model) Result() string {
	return m.result
}

// =============================================================================
// Sink
// =============================================================================

// Sink forwards job notifications to a running program.
type Sink struct {
	p *tea.Program
}

// NewSink returns a notify.Sink that sends every event to p.
func NewSink(p *tea.Program) *Sink {
	return &Sink{p: p}
}

// Emit sends ev to the program. After the program exits it is a no-op.
func (s *Sink) Emit(_ context.Context, ev notify.Event) error {
	if s.p != nil {
		s.p.Send(EventMsg{Event: ev})
	}
	return nil
}

// SendQuit sends a quit message to the TUI.
func SendQuit(p *tea.Program) {
	if p != nil {
		p.Send(QuitMsg{})
	}
}
