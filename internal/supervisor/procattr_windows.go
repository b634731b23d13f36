//go:build windows

package supervisor

import "os/exec"

// configureCommand keeps the default cancellation, which kills the process.
// Windows has no process groups to signal.
func configureCommand(cmd *exec.Cmd) {}

func killCommand(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
