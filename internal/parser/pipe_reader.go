package parser

import (
	"io"
	"sync/atomic"
)

// LineHandler receives one line of output, without its terminator.
type LineHandler func(line string)

// PipeReader reads lines from an io.Reader (FFmpeg stdout/stderr pipe) and
// hands each one to a LineHandler in order.
//
// Every byte is read until EOF even when the handler stops caring, so the
// child never blocks on a full pipe.
type PipeReader struct {
	reader  io.Reader
	handler LineHandler
	closed  atomic.Bool

	// Stats (atomic for thread-safety)
	bytesRead atomic.Int64
	linesRead atomic.Int64
}

// NewPipeReader creates a new pipe-based line source.
//
// The reader is typically cmd.StdoutPipe() or cmd.StderrPipe().
func NewPipeReader(r io.Reader, handler LineHandler) *PipeReader {
	if handler == nil {
		handler = func(string) {}
	}
	return &PipeReader{
		reader:  r,
		handler: handler,
	}
}

// Run reads lines until EOF or a read error. A clean EOF returns nil.
func (p *PipeReader) Run() error {
	defer p.closed.Store(true)

	scanner := NewScanner(p.reader)
	for scanner.Scan() {
		line := scanner.Text()
		p.bytesRead.Add(int64(len(line) + 1)) // +1 for terminator
		p.linesRead.Add(1)
		p.handler(line)
	}
	if err := scanner.Err(); err != nil {
		// Keep draining so the writer is not blocked; the content is lost.
		n, _ := io.Copy(io.Discard, p.reader)
		p.bytesRead.Add(n)
		return err
	}
	return nil
}

// Stats returns (bytesRead, linesRead, open).
func (p *PipeReader) Stats() (bytesRead int64, linesRead int64, open bool) {
	return p.bytesRead.Load(),
		p.linesRead.Load(),
		!p.closed.Load()
}
