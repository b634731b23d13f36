package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jeselxe/video-cropper/internal/logging"
	"github.com/jeselxe/video-cropper/internal/notify"
	"github.com/jeselxe/video-cropper/internal/parser"
)

const (
	// DefaultTailLines is how many lines of each stream are retained.
	DefaultTailLines = 500

	// DefaultStopTimeout is how long a process gets between SIGTERM and SIGKILL.
	DefaultStopTimeout = 5 * time.Second
)

// SpawnError is returned when the executable could not be started.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Callbacks contains optional callback functions for supervisor events.
type Callbacks struct {
	// OnStart is called when a process starts.
	OnStart func(tool string, pid int)

	// OnProgress is called for each progress line surfaced after dedup.
	OnProgress func(tool string, line string)

	// OnExit is called once per run with its outcome, including runs that
	// failed to spawn.
	OnExit func(tool string, outcome Outcome, duration time.Duration)
}

// Config holds configuration for creating a new Supervisor.
type Config struct {
	Logger    *slog.Logger
	Callbacks Callbacks

	// TailLines bounds the stdout/stderr lines kept per run.
	TailLines int

	// StopTimeout is the grace period after SIGTERM before SIGKILL.
	StopTimeout time.Duration
}

// Supervisor spawns processes and drives their supervision loop.
// A single Supervisor may run any number of processes concurrently.
type Supervisor struct {
	logger      *slog.Logger
	callbacks   Callbacks
	tailLines   int
	stopTimeout time.Duration
}

// New creates a new Supervisor with the given configuration.
func New(cfg Config) *Supervisor {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	tail := cfg.TailLines
	if tail <= 0 {
		tail = DefaultTailLines
	}
	stop := cfg.StopTimeout
	if stop <= 0 {
		stop = DefaultStopTimeout
	}
	return &Supervisor{
		logger:      logger,
		callbacks:   cfg.Callbacks,
		tailLines:   tail,
		stopTimeout: stop,
	}
}

// Handle is a running process.
type Handle struct {
	tool    string
	cmd     *exec.Cmd
	pid     int
	started time.Time
	logger  *slog.Logger
	cancel  context.CancelFunc

	events chan Event

	// abandon is closed when the consumer stops reading events
	abandon     chan struct{}
	abandonOnce sync.Once

	// exited is closed after cmd.Wait returns
	exited   chan struct{}
	exitedAt time.Time

	// done is closed when every goroutine of the handle has returned
	done chan struct{}

	stdout *logging.DiagnosticBuffer
	stderr *logging.DiagnosticBuffer
}

// Spawn starts executable with args. Arguments are passed as discrete tokens,
// never through a shell. Cancelling ctx stops the process.
//
// The returned Handle must be passed to Supervise, or released with Release
// after its events are no longer wanted.
func (s *Supervisor) Spawn(ctx context.Context, executable string, args []string) (*Handle, error) {
	tool := toolName(executable)
	runCtx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(runCtx, executable, args...)
	configureCommand(cmd)
	cmd.WaitDelay = s.stopTimeout

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, s.spawnFailed(tool, executable, fmt.Errorf("stdout pipe: %w", err))
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, s.spawnFailed(tool, executable, fmt.Errorf("stderr pipe: %w", err))
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, s.spawnFailed(tool, executable, err)
	}

	h := &Handle{
		tool:    tool,
		cmd:     cmd,
		pid:     cmd.Process.Pid,
		started: time.Now(),
		logger:  s.logger,
		cancel:  cancel,
		events:  make(chan Event),
		abandon: make(chan struct{}),
		exited:  make(chan struct{}),
		done:    make(chan struct{}),
		stdout:  logging.NewDiagnosticBuffer(tool, "stdout", s.tailLines, s.logger),
		stderr:  logging.NewDiagnosticBuffer(tool, "stderr", s.tailLines, s.logger),
	}

	s.logger.Info("process_started",
		"tool", tool,
		"pid", h.pid,
		"args", strings.Join(args, " "),
	)
	if s.callbacks.OnStart != nil {
		s.callbacks.OnStart(tool, h.pid)
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go h.read(&readers, "stdout", parser.NewPipeReader(stdoutPipe, h.lineHandler(EventStdout, h.stdout)))
	go h.read(&readers, "stderr", parser.NewPipeReader(stderrPipe, h.lineHandler(EventStderr, h.stderr)))
	go h.wait(runCtx, &readers)

	return h, nil
}

func (s *Supervisor) spawnFailed(tool, executable string, err error) error {
	s.logger.Error("failed_to_start_process",
		"tool", tool,
		"path", executable,
		"error", err,
	)
	spawnErr := &SpawnError{Path: executable, Err: err}
	if s.callbacks.OnExit != nil {
		s.callbacks.OnExit(tool, Outcome{Kind: OutcomeSpawnOrRuntimeError, Err: spawnErr.Error()}, 0)
	}
	return spawnErr
}

func (h *Handle) lineHandler(kind EventKind, buf *logging.DiagnosticBuffer) parser.LineHandler {
	return func(line string) {
		buf.HandleLine(line)
		select {
		case h.events <- Event{Kind: kind, Line: line}:
		case <-h.abandon:
		}
	}
}

func (h *Handle) read(wg *sync.WaitGroup, stream string, pr *parser.PipeReader) {
	defer wg.Done()
	if err := pr.Run(); err != nil {
		h.logger.Warn("pipe_read_failed",
			"tool", h.tool,
			"pid", h.pid,
			"stream", stream,
			"error", err,
		)
	}
}

// wait reaps the process once both pipes reached EOF, so every line is
// delivered before the terminal event.
func (h *Handle) wait(runCtx context.Context, readers *sync.WaitGroup) {
	defer close(h.done)
	defer close(h.events)

	readers.Wait()
	waitErr := h.cmd.Wait()
	stopped := runCtx.Err() != nil
	h.exitedAt = time.Now()
	h.cancel()
	close(h.exited)

	ev := exitEvent(h.cmd, waitErr, stopped)
	select {
	case h.events <- ev:
	case <-h.abandon:
	}
}

// exitEvent converts the result of cmd.Wait into the terminal event.
func exitEvent(cmd *exec.Cmd, waitErr error, stopped bool) Event {
	state := cmd.ProcessState
	if state == nil {
		msg := "unknown wait failure"
		if waitErr != nil {
			msg = waitErr.Error()
		}
		return Event{Kind: EventError, Message: msg}
	}

	if stopped {
		return Event{Kind: EventTerminated, Signal: "stopped (" + state.String() + ")"}
	}

	code := state.ExitCode()
	if code < 0 {
		return Event{Kind: EventTerminated, Signal: state.String()}
	}
	return Event{Kind: EventTerminated, Code: &code}
}

// Events returns the ordered event stream. It is closed after the terminal
// event.
func (h *Handle) Events() <-chan Event {
	return h.events
}

// Release tells the handle its events are no longer read. Readers keep
// draining the pipes so the process never blocks on output.
func (h *Handle) Release() {
	h.abandonOnce.Do(func() { close(h.abandon) })
}

// Tool returns the base name of the executable.
func (h *Handle) Tool() string { return h.tool }

// PID returns the process ID.
func (h *Handle) PID() int { return h.pid }

// Stdout returns the retained standard output.
func (h *Handle) Stdout() string { return h.stdout.String() }

// Stderr returns the retained diagnostic output.
func (h *Handle) Stderr() string { return h.stderr.String() }

// Started returns when the process was spawned.
func (h *Handle) Started() time.Time { return h.started }

// Duration returns the run time so far, or the total once exited.
func (h *Handle) Duration() time.Duration {
	select {
	case <-h.exited:
		return h.exitedAt.Sub(h.started)
	default:
		return time.Since(h.started)
	}
}

// Stop gracefully stops the process.
// It first sends SIGTERM to the process group, then SIGKILL if the process
// doesn't exit within timeout.
func (h *Handle) Stop(timeout time.Duration) error {
	select {
	case <-h.exited:
		return nil
	default:
	}

	h.logger.Info("stopping_process", "tool", h.tool, "pid", h.pid)
	h.cancel()

	select {
	case <-h.exited:
		return nil
	case <-time.After(timeout):
	}

	h.logger.Warn("force_killing_process",
		"tool", h.tool,
		"pid", h.pid,
	)
	if err := killCommand(h.cmd); err != nil {
		h.logger.Debug("kill_failed", "tool", h.tool, "pid", h.pid, "error", err)
	}

	select {
	case <-h.exited:
	case <-time.After(timeout):
	}
	return errors.New("process did not exit gracefully")
}

// Supervise drives the supervision loop for h and delivers notifications to
// sink: every deduplicated stderr line as progress, then exactly one terminal
// event. It blocks until the process has exited and returns its Outcome.
//
// Sink failures are logged and never stop the loop.
func (s *Supervisor) Supervise(ctx context.Context, h *Handle, sink notify.Sink) Outcome {
	if sink == nil {
		sink = notify.Discard
	}
	defer func() {
		h.Release()
		<-h.done
	}()

	var (
		state LoopState
		n     Notification
	)
	for ev := range h.events {
		state, n = Reduce(state, ev)
		s.deliver(ctx, h, sink, n)
		if state.Done {
			break
		}
	}
	state, n = Finish(state)
	s.deliver(ctx, h, sink, n)

	return state.Outcome
}

func (s *Supervisor) deliver(ctx context.Context, h *Handle, sink notify.Sink, n Notification) {
	var e notify.Event
	switch n.Kind {
	case NotifyProgress:
		e = notify.Event{Name: notify.EventProgress, Payload: n.Line, Percent: -1}
		if s.callbacks.OnProgress != nil {
			s.callbacks.OnProgress(h.tool, n.Line)
		}
	case NotifyTerminal:
		s.logExit(h, n.Outcome)
		e = notify.Event{Name: n.Outcome.EventName(), Payload: n.Outcome.Message(), Percent: -1}
	default:
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("notification_panicked",
				"tool", h.tool,
				"event", e.Name,
				"panic", fmt.Sprint(r),
			)
		}
	}()
	if err := sink.Emit(ctx, e); err != nil {
		s.logger.Warn("notification_failed",
			"tool", h.tool,
			"event", e.Name,
			"error", err,
		)
	}
}

func (s *Supervisor) logExit(h *Handle, o Outcome) {
	d := h.Duration()
	attrs := []any{
		"tool", h.tool,
		"pid", h.pid,
		"outcome", o.Kind.String(),
		"duration", d.String(),
	}
	switch o.Kind {
	case OutcomeNonZeroExit:
		attrs = append(attrs, "exit_code", o.Code)
	case OutcomeUnknownTermination:
		attrs = append(attrs, "signal", o.Signal)
	case OutcomeSpawnOrRuntimeError:
		attrs = append(attrs, "error", o.Err)
	}

	if o.IsSuccess() {
		s.logger.Info("process_exited", attrs...)
	} else {
		s.logger.Warn("process_exited", attrs...)
	}

	if s.callbacks.OnExit != nil {
		s.callbacks.OnExit(h.tool, o, d)
	}
}

// Result is the captured result of a blocking Run.
type Result struct {
	Outcome  Outcome
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Run spawns executable, waits for it to exit and returns its captured
// output. The error is non-nil only when the process could not be spawned;
// exit status is reported through Result.Outcome.
func (s *Supervisor) Run(ctx context.Context, executable string, args []string) (Result, error) {
	h, err := s.Spawn(ctx, executable, args)
	if err != nil {
		return Result{Outcome: Outcome{Kind: OutcomeSpawnOrRuntimeError, Err: err.Error()}}, err
	}

	outcome := s.Supervise(ctx, h, notify.Discard)
	return Result{
		Outcome:  outcome,
		Stdout:   h.Stdout(),
		Stderr:   h.Stderr(),
		Duration: h.Duration(),
	}, nil
}

// toolName returns the executable's base name without a Windows suffix.
func toolName(executable string) string {
	return strings.TrimSuffix(filepath.Base(executable), ".exe")
}
