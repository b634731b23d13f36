package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeselxe/video-cropper/internal/logging"
	"github.com/jeselxe/video-cropper/internal/notify"
	"github.com/jeselxe/video-cropper/internal/parser"
	"github.com/jeselxe/video-cropper/internal/process"
	"github.com/jeselxe/video-cropper/internal/supervisor"
)

// Ack is the acknowledgment returned once an export process has spawned.
const Ack = "Processing started"

// ErrJobNotFound is returned by Cancel for unknown or finished jobs.
var ErrJobNotFound = errors.New("export job not found")

// Job identifies a started export.
type Job struct {
	ID  string
	Ack string
}

// Config holds configuration for creating a new Exporter.
type Config struct {
	Supervisor *supervisor.Supervisor
	Runner     *process.FFmpegRunner
	Sink       notify.Sink
	Logger     *slog.Logger

	// RunTimeout bounds a single export. Zero means no limit.
	RunTimeout time.Duration

	// StopTimeout is the grace period given to a cancelled export.
	StopTimeout time.Duration

	// OnStart, if set, is called once per job after ffmpeg has spawned and
	// before any of its events reach Sink.
	OnStart func(id string, started time.Time)
}

// Exporter starts exports and tracks them until their terminal event.
type Exporter struct {
	sup         *supervisor.Supervisor
	runner      *process.FFmpegRunner
	sink        notify.Sink
	logger      *slog.Logger
	runTimeout  time.Duration
	stopTimeout time.Duration
	onStart     func(id string, started time.Time)

	mu   sync.Mutex
	jobs map[string]*supervisor.Handle
	wg   sync.WaitGroup
}

// New creates an Exporter.
func New(cfg Config) *Exporter {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	sup := cfg.Supervisor
	if sup == nil {
		sup = supervisor.New(supervisor.Config{Logger: logger})
	}
	sink := cfg.Sink
	if sink == nil {
		sink = notify.Discard
	}
	runner := cfg.Runner
	if runner == nil {
		runner = process.NewFFmpegRunner(nil)
	}
	stop := cfg.StopTimeout
	if stop <= 0 {
		stop = supervisor.DefaultStopTimeout
	}
	return &Exporter{
		sup:         sup,
		runner:      runner,
		sink:        sink,
		logger:      logging.WithComponent(logger, "export"),
		runTimeout:  cfg.RunTimeout,
		stopTimeout: stop,
		onStart:     cfg.OnStart,
		jobs:        make(map[string]*supervisor.Handle),
	}
}

// Command returns the ffmpeg invocation for req without running it.
func (e *Exporter) Command(req Request) (process.Command, error) {
	if err := req.Validate(); err != nil {
		return process.Command{}, err
	}
	return e.runner.ExportCommand(req.clip()), nil
}

// Export validates req and spawns ffmpeg. It returns as soon as the process
// is running; progress and the single terminal event go to the configured
// sink, stamped with the job ID. A spawn failure is returned here and
// produces no events.
//
// The export is detached from ctx: cancelling ctx after Export returns does
// not stop it. Use Cancel.
func (e *Exporter) Export(ctx context.Context, req Request) (Job, error) {
	cmd, err := e.Command(req)
	if err != nil {
		return Job{}, err
	}

	id := uuid.NewString()
	logger := logging.WithJobID(e.logger, id)

	detached := context.WithoutCancel(ctx)
	runCtx, cancel := detached, context.CancelFunc(func() {})
	if e.runTimeout > 0 {
		runCtx, cancel = context.WithTimeout(detached, e.runTimeout)
	}

	h, err := e.sup.Spawn(runCtx, cmd.Path, cmd.Args)
	if err != nil {
		cancel()
		return Job{}, fmt.Errorf("export %s: %w", req.InputPath, err)
	}

	e.mu.Lock()
	e.jobs[id] = h
	e.mu.Unlock()

	if e.onStart != nil {
		e.onStart(id, h.Started())
	}

	logger.Info("export_started",
		"input", req.InputPath,
		"output", req.OutputPath,
		"start", req.Selection.Start,
		"end", req.Selection.End,
		"pid", h.PID(),
	)

	sink := notify.WithJob(&progressSink{
		next:   e.sink,
		parser: parser.NewProgressParser(nil),
		total:  req.Selection.Duration(),
	}, id)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()

		outcome := e.sup.Supervise(detached, h, sink)

		e.mu.Lock()
		delete(e.jobs, id)
		e.mu.Unlock()

		logger.Info("export_finished",
			"outcome", outcome.Kind.String(),
			"duration", h.Duration().String(),
		)
	}()

	return Job{ID: id, Ack: Ack}, nil
}

// Cancel stops a running export. The job still delivers its terminal event.
func (e *Exporter) Cancel(id string) error {
	e.mu.Lock()
	h, ok := e.jobs[id]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	e.logger.Info("export_cancelled", "job_id", id)
	return h.Stop(e.stopTimeout)
}

// CancelAll stops every running export.
func (e *Exporter) CancelAll() {
	e.mu.Lock()
	ids := make([]string, 0, len(e.jobs))
	for id := range e.jobs {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	for _, id := range ids {
		if err := e.Cancel(id); err != nil && !errors.Is(err, ErrJobNotFound) {
			e.logger.Warn("export_cancel_failed", "job_id", id, "error", err)
		}
	}
}

// Active returns the number of exports still running.
func (e *Exporter) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.jobs)
}

// Wait blocks until every started export has delivered its terminal event.
func (e *Exporter) Wait() {
	e.wg.Wait()
}

// progressSink attaches a completion percentage to progress events that are
// ffmpeg stats lines.
type progressSink struct {
	next   notify.Sink
	parser *parser.ProgressParser
	total  time.Duration
}

func (p *progressSink) Emit(ctx context.Context, ev notify.Event) error {
	if ev.Name == notify.EventProgress && p.parser.ParseLine(ev.Payload) {
		if s, ok := p.parser.Last(); ok {
			ev.Percent = s.Percent(p.total)
		}
	}
	return p.next.Emit(ctx, ev)
}
