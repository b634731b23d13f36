// Package export runs clip exports: one ffmpeg invocation that trims and
// crops a source video, reported asynchronously through a notify.Sink.
package export

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jeselxe/video-cropper/internal/process"
)

// ErrInvalidRequest is returned for structurally invalid requests.
var ErrInvalidRequest = errors.New("invalid export request")

// ClipSelection is the time range to export, in seconds from the start of
// the source.
type ClipSelection struct {
	Start float64
	End   float64
}

// Duration returns the length of the selection.
func (s ClipSelection) Duration() time.Duration {
	return time.Duration((s.End - s.Start) * float64(time.Second))
}

// CropArea is the rectangle to keep, in source pixels. It is not checked
// against the real frame size; ffmpeg rejects rectangles that do not fit.
type CropArea struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Request is one export.
type Request struct {
	InputPath  string
	OutputPath string
	Selection  ClipSelection
	Crop       CropArea
}

// Validate checks the request shape. It does not look at the filesystem or
// the media.
func (r Request) Validate() error {
	var errs []error
	if r.InputPath == "" {
		errs = append(errs, errors.New("input path is required"))
	}
	if r.OutputPath == "" {
		errs = append(errs, errors.New("output path is required"))
	}
	if r.InputPath != "" && r.InputPath == r.OutputPath {
		errs = append(errs, errors.New("output path must differ from input path"))
	}

	s := r.Selection
	switch {
	case math.IsNaN(s.Start) || math.IsInf(s.Start, 0) || math.IsNaN(s.End) || math.IsInf(s.End, 0):
		errs = append(errs, errors.New("selection bounds must be finite"))
	case s.Start < 0:
		errs = append(errs, fmt.Errorf("selection start %v is negative", s.Start))
	case s.End <= s.Start:
		errs = append(errs, fmt.Errorf("selection end %v must be after start %v", s.End, s.Start))
	}

	c := r.Crop
	if c.X < 0 || c.Y < 0 {
		errs = append(errs, fmt.Errorf("crop origin (%d,%d) is negative", c.X, c.Y))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("crop size %dx%d must be positive", c.Width, c.Height))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidRequest, errors.Join(errs...))
}

func (r Request) clip() process.Clip {
	return process.Clip{
		Input:      r.InputPath,
		Output:     r.OutputPath,
		Start:      r.Selection.Start,
		End:        r.Selection.End,
		CropX:      r.Crop.X,
		CropY:      r.Crop.Y,
		CropWidth:  r.Crop.Width,
		CropHeight: r.Crop.Height,
	}
}
