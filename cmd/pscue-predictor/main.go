// pscue-predictor is the long-lived daemon that holds every learning
// component in memory and answers completion requests over a local
// socket. It is spawned on demand by the completer and runs until it
// receives SIGTERM or SIGINT; it has no idle timeout.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pscue/pscue/internal/config"
	"github.com/pscue/pscue/internal/daemon"
	"github.com/pscue/pscue/internal/engine"
	"github.com/pscue/pscue/internal/ipc"
	"github.com/pscue/pscue/internal/persistence"
	"github.com/pscue/pscue/internal/pslog"
	"github.com/pscue/pscue/internal/transport"
)

// Version is injected at build time via ldflags.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pscue-predictor: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := pslog.NewFromEnv()

	paths := config.DefaultPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	cfg, warnings, err := config.LoadFromFile(paths.ConfigFile())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	for _, w := range warnings {
		pslog.LogConfigWarning(logger, w.Field, w.Reason)
	}

	lock := daemon.NewLockFile(daemon.LockFilePath(paths.RunDir()))
	if err := lock.Acquire(); err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	defer lock.Release()

	store, err := persistence.Open(paths.DatabaseFile())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	eng := engine.New(cfg, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	eng.Load(ctx)
	eng.StartAutosave(ctx)

	t := transport.NewUnixTransport(cfg.Daemon.SocketPath)
	server := ipc.NewServer(t, eng, logger)

	pslog.LogStartup(logger, pslog.StartupInfo{
		Version:      Version,
		ConfigPath:   paths.ConfigFile(),
		DatabasePath: paths.DatabaseFile(),
		SocketPath:   t.SocketPath(),
		PID:          os.Getpid(),
	})

	serveErr := server.Serve(ctx)

	pslog.LogShutdown(logger, "context cancelled")

	// StartAutosave's goroutine already observed ctx.Done(); Shutdown waits
	// for it to finish, performs a final save, and closes the store.
	shutdownCtx := context.Background()
	if err := eng.Shutdown(shutdownCtx); err != nil {
		pslog.LogPersistenceError(logger, "shutdown_save", err)
	}

	if serveErr != nil && serveErr != context.Canceled {
		return serveErr
	}
	return nil
}
