//go:build !windows

package preflight

import (
	"fmt"
	"syscall"
)

// Each ffmpeg child holds its input, output and three pipes; leave room for
// a handful of concurrent exports plus the metrics server.
const requiredFileDescriptors = 256

// checkFileDescriptors verifies sufficient file descriptors are available.
func checkFileDescriptors() Check {
	var limit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &limit); err != nil {
		return Check{
			Name:    "file_descriptors",
			Passed:  true,
			Warning: true,
			Message: fmt.Sprintf("unable to check: %v", err),
		}
	}

	cur := uint64(limit.Cur)
	if cur > 1<<31-1 {
		cur = 1<<31 - 1
	}
	actual := int(cur)

	return Check{
		Name:     "file_descriptors",
		Required: requiredFileDescriptors,
		Actual:   actual,
		Passed:   actual >= requiredFileDescriptors,
		Message:  fmt.Sprintf("ulimit -n %d (need %d)", actual, requiredFileDescriptors),
	}
}
