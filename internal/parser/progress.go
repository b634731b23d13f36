// This file parses the periodic stats line FFmpeg writes to stderr while
// transcoding. Each update ends with '\r' and looks like:
//
//	frame=  120 fps= 30 q=28.0 size=     512KiB time=00:00:04.00 bitrate=1048.6kbits/s speed=1.9x
//
// Audio-only runs omit frame/fps/q, and the final update uses "Lsize=".
// Values may be "N/A" before the first packet is muxed.

package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Stats is one parsed FFmpeg stats update. Values are cumulative.
type Stats struct {
	// Frame count
	Frame int64

	// Frames per second (current)
	FPS float64

	// Muxed output size as printed (e.g., "512KiB", "N/A")
	Size string

	// Output timestamp reached so far
	OutTime time.Duration

	// Current bitrate as printed (e.g., "1048.6kbits/s", "N/A")
	Bitrate string

	// Encode speed relative to realtime; 0 means N/A
	Speed float64

	// Final reports whether this is the summary line printed at exit
	Final bool
}

// Percent returns OutTime as a percentage of total, clamped to [0, 100].
// A non-positive total yields 0.
func (s Stats) Percent(total time.Duration) float64 {
	if total <= 0 || s.OutTime <= 0 {
		return 0
	}
	p := float64(s.OutTime) / float64(total) * 100
	if p > 100 {
		return 100
	}
	return p
}

// padding after '=' that FFmpeg inserts for column alignment
var alignRe = regexp.MustCompile(`=\s+`)

// ParseStatsLine parses a stats line. ok is false for any other stderr line.
func ParseStatsLine(line string) (s Stats, ok bool) {
	// Fast path: every stats line carries a time= field.
	if !strings.Contains(line, "time=") {
		return Stats{}, false
	}

	line = alignRe.ReplaceAllString(strings.TrimSpace(line), "=")

	var sawTime, sawSize bool
	for _, field := range strings.Fields(line) {
		key, value, ok := parseKeyValue(field)
		if !ok {
			continue
		}
		switch key {
		case "frame":
			s.Frame, _ = strconv.ParseInt(value, 10, 64)
		case "fps":
			s.FPS, _ = strconv.ParseFloat(value, 64)
		case "size", "Lsize":
			s.Size = value
			s.Final = key == "Lsize"
			sawSize = true
		case "time":
			s.OutTime = parseClock(value)
			sawTime = true
		case "bitrate":
			s.Bitrate = value
		case "speed":
			s.Speed = parseSpeed(value)
		}
	}

	// "time=" alone shows up in metadata dumps; a stats line also has size.
	if !sawTime || !sawSize {
		return Stats{}, false
	}
	return s, true
}

// ProgressCallback is called for each parsed stats update.
type ProgressCallback func(Stats)

// ProgressParser feeds stderr lines through ParseStatsLine and keeps the
// latest update.
//
// Thread-safe: can be called from multiple goroutines.
type ProgressParser struct {
	callback ProgressCallback

	mu      sync.Mutex
	last    Stats
	updates int64
	lines   int64
}

// NewProgressParser creates a new progress parser with the given callback.
// Pass nil for callback if you only want Last and Stats.
func NewProgressParser(cb ProgressCallback) *ProgressParser {
	return &ProgressParser{callback: cb}
}

// ParseLine parses one line. It reports whether the line was a stats update.
func (p *ProgressParser) ParseLine(line string) bool {
	s, ok := ParseStatsLine(line)

	p.mu.Lock()
	p.lines++
	if ok {
		p.updates++
		p.last = s
	}
	p.mu.Unlock()

	if ok && p.callback != nil {
		p.callback(s)
	}
	return ok
}

// Last returns the most recent update and whether there was one.
func (p *ProgressParser) Last() (Stats, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.updates > 0
}

// Stats returns parser statistics.
func (p *ProgressParser) Stats() (updates, linesProcessed int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updates, p.lines
}

// parseKeyValue splits "key=value" into parts.
//
// Returns empty strings and false if the field doesn't contain '='.
func parseKeyValue(field string) (key, value string, ok bool) {
	idx := strings.Index(field, "=")
	if idx < 0 {
		return "", "", false
	}
	return field[:idx], field[idx+1:], true
}

// parseSpeed converts FFmpeg speed string to float64.
//
// Examples:
//   - "1.00x" -> 1.0
//   - "0.95x" -> 0.95
//   - "N/A"   -> 0.0
//   - ""      -> 0.0
func parseSpeed(s string) float64 {
	s = strings.TrimSuffix(s, "x")
	if s == "N/A" || s == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// parseClock converts "HH:MM:SS.xx" to a duration. Negative timestamps
// (printed before the first packet) and N/A map to 0.
func parseClock(s string) time.Duration {
	if s == "" || s == "N/A" || strings.HasPrefix(s, "-") {
		return 0
	}
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0
	}
	h, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0
	}
	m, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0
	}
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(math.Round(sec*float64(time.Second)))
}
