//go:build !windows

package supervisor

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// configureCommand puts the child in its own process group so that stopping
// it also stops anything it spawned. Cancellation sends SIGTERM, giving
// ffmpeg the chance to finalize its output.
func configureCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
	cmd.Cancel = func() error {
		return signalGroup(cmd, syscall.SIGTERM)
	}
}

func killCommand(cmd *exec.Cmd) error {
	return signalGroup(cmd, syscall.SIGKILL)
}

func signalGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd.Process == nil {
		return nil
	}

	var err error
	if pgid, pgErr := syscall.Getpgid(cmd.Process.Pid); pgErr == nil {
		err = syscall.Kill(-pgid, sig)
	} else {
		err = cmd.Process.Signal(sig)
	}
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}
