// Package notify defines the event sink that carries export progress and
// lifecycle events to whatever host is listening (CLI, TUI, metrics).
package notify

import (
	"context"
	"errors"
	"log/slog"
)

// Event names. A run emits zero or more EventProgress, then exactly one of
// EventFinished or EventError.
const (
	EventProgress = "ffmpeg-progress"
	EventFinished = "ffmpeg-finished"
	EventError    = "ffmpeg-error"
)

// Event is a single notification.
type Event struct {
	Name    string
	JobID   string
	Payload string

	// Percent is the completion estimate attached to progress events when
	// the line was a stats update and the run length is known. Otherwise -1.
	Percent float64
}

// Terminal reports whether e ends a run.
func (e Event) Terminal() bool {
	return e.Name == EventFinished || e.Name == EventError
}

// Sink receives events. Implementations must be safe for concurrent use.
// A returned error is reported by the caller and never stops a run.
type Sink interface {
	Emit(ctx context.Context, e Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Event) error

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, Event) error { return nil })

type fanout []Sink

// Fanout returns a sink that delivers each event to every sink in order.
// All sinks are tried; their errors are joined.
func Fanout(sinks ...Sink) Sink {
	out := make(fanout, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (f fanout) Emit(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range f {
		if err := s.Emit(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithJob stamps every event passing through with jobID.
func WithJob(s Sink, jobID string) Sink {
	return SinkFunc(func(ctx context.Context, e Event) error {
		e.JobID = jobID
		return s.Emit(ctx, e)
	})
}

// LogSink writes events to a structured logger. Progress goes to debug,
// terminal events to info or warn.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Emit logs e.
func (l *LogSink) Emit(ctx context.Context, e Event) error {
	level := slog.LevelDebug
	switch e.Name {
	case EventFinished:
		level = slog.LevelInfo
	case EventError:
		level = slog.LevelWarn
	}

	attrs := []any{"event", e.Name, "job_id", e.JobID, "payload", e.Payload}
	if e.Percent >= 0 && e.Name == EventProgress {
		attrs = append(attrs, "percent", e.Percent)
	}
	l.logger.Log(ctx, level, "job_event", attrs...)
	return nil
}
