//go:build windows

package ipc

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"

	"github.com/pscue/pscue/internal/transport"
)

// newDefaultTransport returns the platform transport used for daemon
// discovery and spawn — a named pipe on this platform.
func newDefaultTransport() transport.Transport {
	return transport.NewWindowsTransport("")
}

// setProcAttr sets process attributes for Windows systems.
// On Windows, we use CREATE_NEW_PROCESS_GROUP to detach from parent.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// signalTerm has no SIGTERM equivalent for a detached console process on
// Windows; Kill is used directly by the caller's deadline loop instead.
func signalTerm(proc *os.Process) error {
	return nil
}

// processAlive reports whether proc is still running, by reading its exit
// code without waiting on it.
func processAlive(proc *os.Process) bool {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(proc.Pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	return code == 259 // STILL_ACTIVE
}
