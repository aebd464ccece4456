//go:build !windows

package ipc

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"github.com/pscue/pscue/internal/transport"
)

// newDefaultTransport returns the platform transport used for daemon
// discovery and spawn — a Unix domain socket on this platform.
func newDefaultTransport() transport.Transport {
	return transport.NewUnixTransport("")
}

// setProcAttr sets process attributes for Unix systems to detach from parent process group.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// signalTerm sends SIGTERM, the graceful-shutdown signal daemons listen for.
func signalTerm(proc *os.Process) error {
	return proc.Signal(syscall.SIGTERM)
}

// processAlive reports whether proc still answers signal 0.
func processAlive(proc *os.Process) bool {
	err := proc.Signal(syscall.Signal(0))
	return err == nil || (!errors.Is(err, syscall.ESRCH) && !errors.Is(err, os.ErrProcessDone))
}
