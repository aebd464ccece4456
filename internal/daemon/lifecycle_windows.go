//go:build windows

package daemon

import (
	"fmt"
	"time"

	"golang.org/x/sys/windows"

	"github.com/pscue/pscue/internal/config"
)

// IsRunning reports whether a predictor daemon currently holds the lock
// file. On Windows ReadHeldPID infers this from the lock file's presence;
// the recorded PID is not checked for liveness.
func IsRunning() bool {
	_, held, err := ReadHeldPID(LockFilePath(config.DefaultPaths().RunDir()))
	return err == nil && held
}

// Stop terminates the running daemon immediately and then waits up to 2
// seconds for the process to disappear.
func Stop() error {
	pid, held, err := ReadHeldPID(LockFilePath(config.DefaultPaths().RunDir()))
	if err != nil {
		return fmt.Errorf("read daemon lock: %w", err)
	}
	if !held || pid <= 0 {
		return fmt.Errorf("daemon not running")
	}

	h, err := windows.OpenProcess(windows.PROCESS_TERMINATE|windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("open daemon process: %w", err)
	}
	defer windows.CloseHandle(h)

	// Windows has no SIGTERM equivalent reachable from another process
	// without a shared named event; terminate directly rather than polling
	// for a graceful exit that will never happen.
	if err := windows.TerminateProcess(h, 0); err != nil {
		return fmt.Errorf("terminate daemon process: %w", err)
	}

	deadline := time.After(2 * time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-deadline:
			return nil
		case <-ticker.C:
			if !isProcessAlive(pid) {
				return nil
			}
		}
	}
}
