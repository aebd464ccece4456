package ipc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/sys/execabs"

	"github.com/pscue/pscue/internal/config"
	"github.com/pscue/pscue/internal/daemon"
	"github.com/pscue/pscue/internal/transport"
)

// PredictorBinaryName is the name of the long-lived daemon executable.
const PredictorBinaryName = "pscue-predictor"

var (
	// Test seams for exercising spawn failure paths without a real binary.
	quickDialFn  = quickDial
	daemonLockFn = daemonLockHeldPID

	staleSocketDialAttempts = 3
	staleSocketRetryDelay   = 25 * time.Millisecond
)

func quickDial() (*Client, error) {
	return Dial(newDefaultTransport(), DialTimeout)
}

func daemonLockHeldPID() (pid int, held bool, err error) {
	lockPath := daemon.LockFilePath(config.DefaultPaths().RunDir())
	return daemon.ReadHeldPID(lockPath)
}

// EnsureDaemon ensures the predictor daemon is running, spawning it if
// necessary. It returns nil at once if the daemon is reachable; when it
// has to spawn one, it returns as soon as the process has started, without
// waiting for it to accept connections.
func EnsureDaemon() error {
	t := newDefaultTransport()
	if _, err := os.Stat(t.SocketPath()); err == nil {
		if c, err := quickDialFn(); err == nil {
			c.Close()
			return nil
		}
		if err := removeStaleSocket(context.Background(), t); err != nil {
			return err
		}
	}

	if _, err := os.Stat(t.SocketPath()); os.IsNotExist(err) {
		if pid, held, _ := daemonLockFn(); held && pid > 0 {
			deadline := time.Now().Add(150 * time.Millisecond)
			for time.Now().Before(deadline) {
				if _, err := os.Stat(t.SocketPath()); err == nil {
					if c, err := quickDialFn(); err == nil {
						c.Close()
						return nil
					}
				}
				time.Sleep(25 * time.Millisecond)
			}
			_ = terminatePID(pid, 500*time.Millisecond)
		}
	}

	return SpawnDaemon()
}

// SpawnDaemon starts the daemon process in the background without waiting
// for it to become ready.
func SpawnDaemon() error {
	return SpawnDaemonContext(context.Background())
}

// SpawnDaemonContext starts the daemon process, honoring ctx cancellation
// before the process is created.
func SpawnDaemonContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	paths := config.DefaultPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create run dir: %w", err)
	}

	t := newDefaultTransport()
	if err := removeStaleSocket(ctx, t); err != nil {
		return err
	}

	daemonPath, err := findDaemonBinary()
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(paths.LogFile(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logFile, _ = os.Open(os.DevNull)
	}
	defer logFile.Close()

	// nosemgrep: go.lang.security.audit.os-exec.os-exec
	cmd := execabs.Command(daemonPath)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil
	setProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	pidPath := filepath.Join(paths.RunDir(), "predictor.pid")
	_ = os.WriteFile(pidPath, fmt.Appendf(nil, "%d", cmd.Process.Pid), 0644)

	return nil
}

// SpawnAndWait spawns the daemon and blocks until its socket is reachable
// or timeout elapses.
func SpawnAndWait(timeout time.Duration) error {
	return SpawnAndWaitContext(context.Background(), timeout)
}

// SpawnAndWaitContext spawns the daemon and waits for readiness, honoring
// ctx cancellation.
func SpawnAndWaitContext(ctx context.Context, timeout time.Duration) error {
	if err := SpawnDaemonContext(ctx); err != nil {
		return err
	}

	t := newDefaultTransport()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("daemon did not start within %v", timeout)
		case <-ticker.C:
			if _, err := os.Stat(t.SocketPath()); err == nil {
				if c, err := quickDialFn(); err == nil {
					c.Close()
					return nil
				}
			}
		}
	}
}

// IsDaemonRunning reports whether a predictor daemon answers on the
// default socket.
func IsDaemonRunning() bool {
	t := newDefaultTransport()
	if _, err := os.Stat(t.SocketPath()); err != nil {
		return false
	}
	c, err := quickDialFn()
	if err != nil {
		return false
	}
	c.Close()
	return true
}

func findDaemonBinary() (string, error) {
	if path := os.Getenv("PSCUE_DAEMON_PATH"); path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to resolve PSCUE_DAEMON_PATH: %w", err)
		}
		if _, err := os.Stat(absPath); err == nil {
			return absPath, nil
		}
	}

	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		daemonPath := filepath.Join(dir, PredictorBinaryName)
		if _, err := os.Stat(daemonPath); err == nil {
			return daemonPath, nil
		}
	}

	if path, err := exec.LookPath(PredictorBinaryName); err == nil {
		absPath, absErr := filepath.Abs(path)
		if absErr == nil {
			return absPath, nil
		}
		return path, nil
	}

	commonPaths := []string{
		"/usr/local/bin/" + PredictorBinaryName,
		"/usr/bin/" + PredictorBinaryName,
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		commonPaths = append(commonPaths,
			filepath.Join(home, ".local", "bin", PredictorBinaryName),
			filepath.Join(home, "go", "bin", PredictorBinaryName),
		)
	}
	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("daemon binary %q not found", PredictorBinaryName)
}

func removeStaleSocket(ctx context.Context, t transport.Transport) error {
	if _, err := os.Stat(t.SocketPath()); os.IsNotExist(err) {
		return nil
	}

	var lastDialErr error
	for attempt := 0; attempt < staleSocketDialAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		c, err := quickDialFn()
		if err == nil {
			c.Close()
			return nil
		}
		lastDialErr = err
		if attempt < staleSocketDialAttempts-1 {
			timer := time.NewTimer(staleSocketRetryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	if !transport.IsLikelyStaleDialError(lastDialErr) {
		return fmt.Errorf("socket exists but dial failed: %w", lastDialErr)
	}

	if pid, held, _ := daemonLockFn(); held {
		return fmt.Errorf("socket dial failed but daemon lock is held (pid %d): %w", pid, lastDialErr)
	}

	if _, err := os.Stat(t.SocketPath()); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(t.SocketPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}
	return nil
}

func terminatePID(pid int, timeout time.Duration) error {
	if pid <= 0 {
		return nil
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := signalTerm(proc); err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !processAlive(proc) {
			return nil
		}
		time.Sleep(20 * time.Millisecond)
	}
	_ = proc.Kill()
	return nil
}
