// Package parser provides parsers for FFmpeg output streams.
package parser

import (
	"bufio"
	"bytes"
	"io"
)

const (
	// initialLineBuffer is the scanner's starting buffer size.
	initialLineBuffer = 64 * 1024

	// MaxLineSize bounds a single line. FFmpeg banner and stream dumps can be
	// long, but never this long.
	MaxLineSize = 1024 * 1024
)

// ScanLines returns a bufio.SplitFunc that splits on '\n', '\r' or "\r\n".
//
// FFmpeg rewrites its stats line in place by ending it with a bare carriage
// return, so bufio.ScanLines would glue every update of a run into one line.
// A line ended by '\r' is returned as soon as the '\r' arrives, and a '\n'
// read right after it is dropped. Blank lines are kept.
//
// The returned function carries state and serves a single scanner.
func ScanLines() bufio.SplitFunc {
	var afterCR bool
	return func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		if len(data) == 0 {
			return 0, nil, nil
		}
		if afterCR {
			afterCR = false
			if data[0] == '\n' {
				return 1, nil, nil
			}
		}

		i := bytes.IndexAny(data, "\r\n")
		if i < 0 {
			if atEOF {
				return len(data), data, nil
			}
			return 0, nil, nil
		}
		if data[i] == '\r' {
			if i+1 == len(data) {
				afterCR = true
			} else if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
		}
		return i + 1, data[:i], nil
	}
}

// NewScanner returns a scanner over r that uses ScanLines and tolerates
// lines up to MaxLineSize.
func NewScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialLineBuffer), MaxLineSize)
	scanner.Split(ScanLines())
	return scanner
}
