// Package supervisor spawns external media tools and turns their output and
// exit into an ordered stream of notifications ending in exactly one Outcome.
package supervisor

import (
	"fmt"

	"github.com/jeselxe/video-cropper/internal/notify"
)

// OutcomeKind classifies how a supervised run ended.
type OutcomeKind int

const (
	// OutcomeUnknownTermination means the process ended without an exit
	// code: killed by a signal, stopped, or the event stream closed early.
	OutcomeUnknownTermination OutcomeKind = iota

	// OutcomeSuccess means exit code 0.
	OutcomeSuccess

	// OutcomeNonZeroExit means the process exited with a non-zero code.
	OutcomeNonZeroExit

	// OutcomeSpawnOrRuntimeError means the process could not be started or
	// waiting on it failed.
	OutcomeSpawnOrRuntimeError
)

// String returns a human-readable name for the kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeNonZeroExit:
		return "nonzero_exit"
	case OutcomeSpawnOrRuntimeError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is the single result of a supervised run.
type Outcome struct {
	Kind OutcomeKind

	// Code is the exit code for OutcomeNonZeroExit.
	Code int

	// Err is the error text for OutcomeSpawnOrRuntimeError.
	Err string

	// Signal describes how the process ended for OutcomeUnknownTermination,
	// when known (e.g. "signal: killed").
	Signal string
}

// IsSuccess reports whether the run succeeded.
func (o Outcome) IsSuccess() bool {
	return o.Kind == OutcomeSuccess
}

// Message is the human-readable text delivered with the terminal event.
func (o Outcome) Message() string {
	switch o.Kind {
	case OutcomeSuccess:
		return "Successfully processed video"
	case OutcomeNonZeroExit:
		return fmt.Sprintf("FFmpeg exited with error code: %d", o.Code)
	case OutcomeSpawnOrRuntimeError:
		return "Command error: " + o.Err
	default:
		return "FFmpeg process finished without explicit status code."
	}
}

// Describe is like Message but names tool instead of assuming ffmpeg. It is
// used for ffprobe and preflight diagnostics.
func (o Outcome) Describe(tool string) string {
	switch o.Kind {
	case OutcomeSuccess:
		return tool + " exited successfully"
	case OutcomeNonZeroExit:
		return fmt.Sprintf("%s exited with error code: %d", tool, o.Code)
	case OutcomeSpawnOrRuntimeError:
		return tool + " could not run: " + o.Err
	default:
		if o.Signal != "" {
			return fmt.Sprintf("%s was terminated (%s)", tool, o.Signal)
		}
		return tool + " finished without explicit status code"
	}
}

// EventName returns the terminal sink event name for o.
func (o Outcome) EventName() string {
	if o.IsSuccess() {
		return notify.EventFinished
	}
	return notify.EventError
}

// String implements fmt.Stringer.
func (o Outcome) String() string {
	return o.Kind.String()
}
