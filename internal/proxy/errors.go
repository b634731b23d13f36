package proxy

import (
	"errors"
	"fmt"

	"github.com/jeselxe/video-cropper/internal/supervisor"
)

var (
	// ErrInputNotFound is returned when the source video does not exist.
	ErrInputNotFound = errors.New("input file not found")

	// ErrCacheDirUnavailable is returned when the cache directory cannot be
	// resolved or created.
	ErrCacheDirUnavailable = errors.New("cache directory unavailable")

	// ErrMetadataRead is returned when the source modification time cannot
	// be read.
	ErrMetadataRead = errors.New("failed to read input metadata")

	// ErrTranscodeFailed matches every *TranscodeError.
	ErrTranscodeFailed = errors.New("transcode failed")

	// ErrOutputMissingAfterSuccess is returned when ffmpeg reported success
	// but wrote no output file.
	ErrOutputMissingAfterSuccess = errors.New("ffmpeg reported success but output file was not created")
)

// TranscodeError describes a proxy transcode that did not succeed. Stderr and
// Stdout hold the tool output verbatim (bounded to the retained tail).
type TranscodeError struct {
	Outcome supervisor.Outcome
	Stderr  string
	Stdout  string
}

func (e *TranscodeError) Error() string {
	var head string
	if e.Outcome.Kind == supervisor.OutcomeNonZeroExit {
		head = fmt.Sprintf("FFmpeg failed with exit code %d", e.Outcome.Code)
	} else {
		head = "FFmpeg failed: " + e.Outcome.Message()
	}
	return fmt.Sprintf("%s:\nStderr: %s\nStdout: %s", head, e.Stderr, e.Stdout)
}

// Is reports whether target is ErrTranscodeFailed.
func (e *TranscodeError) Is(target error) bool {
	return target == ErrTranscodeFailed
}

// ExitCode returns the exit code, or -1 when the process had none.
func (e *TranscodeError) ExitCode() int {
	if e.Outcome.Kind == supervisor.OutcomeNonZeroExit {
		return e.Outcome.Code
	}
	return -1
}
