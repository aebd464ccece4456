//go:build !windows

package daemon

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/pscue/pscue/internal/config"
)

// IsRunning reports whether a predictor daemon currently holds the lock
// file, checked by probing the flock on the lock file (ReadHeldPID) rather
// than a separate PID file; the recorded PID is not checked for liveness.
func IsRunning() bool {
	_, held, err := ReadHeldPID(LockFilePath(config.DefaultPaths().RunDir()))
	return err == nil && held
}

// Stop sends SIGTERM to the running daemon and waits up to 10 seconds for
// it to exit, force-killing it if it doesn't.
func Stop() error {
	pid, held, err := ReadHeldPID(LockFilePath(config.DefaultPaths().RunDir()))
	if err != nil {
		return fmt.Errorf("read daemon lock: %w", err)
	}
	if !held || pid <= 0 {
		return fmt.Errorf("daemon not running")
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("send SIGTERM: %w", err)
	}

	deadline := time.After(10 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-deadline:
			_ = process.Kill()
			return nil
		case <-ticker.C:
			if process.Signal(syscall.Signal(0)) != nil {
				return nil
			}
		}
	}
}
