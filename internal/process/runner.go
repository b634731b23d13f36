// Package process builds the command lines for the external media tools.
// It never runs anything itself; the supervisor does.
package process

import (
	"strconv"
	"strings"
)

// Command is a fully built invocation: an executable and its discrete
// arguments.
type Command struct {
	Path string
	Args []string
}

// String returns the command in a form that can be pasted into a POSIX
// shell. Used for --print-cmd and logging only.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, shellQuote(c.Path))
	for _, a := range c.Args {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

// shellQuote single-quotes s when it contains anything a shell would
// interpret.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
			strings.ContainsRune("-_./:=,+@%", r))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// FormatSeconds renders a time offset with the shortest representation that
// round-trips, so 1.25 stays "1.25" and 3 becomes "3".
func FormatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// PathArg returns p in a form the media tools cannot mistake for an option.
// A path starting with '-' gets a "./" prefix, which names the same file.
func PathArg(p string) string {
	if strings.HasPrefix(p, "-") {
		return "./" + p
	}
	return p
}
