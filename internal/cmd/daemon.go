package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pscue/pscue/internal/daemon"
	"github.com/pscue/pscue/internal/ipc"
	"github.com/pscue/pscue/internal/transport"
)

const daemonFailedFmt = " %sfailed%s\n"

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	Short:   "Manage the pscue predictor daemon",
	GroupID: groupSetup,
	Long: `Manage the pscue predictor daemon (pscue-predictor).

The daemon holds every learning component in memory and answers
completion requests over a local socket. It starts automatically when
needed but can be managed manually.

Subcommands:
  start    Start the daemon
  stop     Stop the daemon
  restart  Restart the daemon
  status   Show daemon status`,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the predictor daemon",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// If the process is alive but the socket is missing, treat it as
		// unhealthy and restart. This can happen if the socket path was
		// unlinked while the daemon is still running, leaving it unreachable.
		socketPresent, socketErr := socketExists()
		if socketErr != nil {
			return socketErr
		}
		running := daemon.IsRunning()
		if running && socketPresent {
			fmt.Printf("Daemon: %salready running%s\n", colorCyan, colorReset)
			return nil
		}
		if running && !socketPresent {
			fmt.Printf("Daemon: %sunhealthy%s (socket missing), restarting...\n", colorYellow, colorReset)
			_ = daemon.Stop()
		}

		fmt.Print("Starting daemon...")
		if err := ipc.SpawnAndWaitContext(cmd.Context(), 5*time.Second); err != nil {
			fmt.Printf(daemonFailedFmt, colorRed, colorReset)
			return err
		}
		fmt.Printf(" %srunning%s\n", colorGreen, colorReset)
		return nil
	},
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the predictor daemon",
	RunE: func(_ *cobra.Command, _ []string) error {
		if !daemon.IsRunning() {
			fmt.Printf("Daemon: %snot running%s\n", colorDim, colorReset)
			return nil
		}

		fmt.Print("Stopping daemon...")
		if err := daemon.Stop(); err != nil {
			fmt.Printf(daemonFailedFmt, colorRed, colorReset)
			return err
		}
		fmt.Printf(" %sstopped%s\n", colorGreen, colorReset)
		return nil
	},
}

var daemonRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the predictor daemon",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if daemon.IsRunning() {
			fmt.Print("Stopping daemon...")
			if err := daemon.Stop(); err != nil {
				fmt.Printf(daemonFailedFmt, colorRed, colorReset)
				return err
			}
			fmt.Printf(" %sstopped%s\n", colorGreen, colorReset)
		}

		fmt.Print("Starting daemon...")
		if err := ipc.SpawnAndWaitContext(cmd.Context(), 5*time.Second); err != nil {
			fmt.Printf(daemonFailedFmt, colorRed, colorReset)
			return err
		}
		fmt.Printf(" %srunning%s\n", colorGreen, colorReset)
		return nil
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Run: func(_ *cobra.Command, _ []string) {
		if daemon.IsRunning() {
			fmt.Printf("Daemon: %srunning%s\n", colorGreen, colorReset)
		} else {
			fmt.Printf("Daemon: %snot running%s\n", colorDim, colorReset)
		}
		fmt.Printf("  Socket: %s\n", transport.DefaultUnixSocketPath())
		if exists, err := socketExists(); err != nil {
			fmt.Printf("  Socket: %scheck failed%s (%v)\n", colorYellow, colorReset, err)
		} else if !exists {
			fmt.Printf("  Socket: %smissing%s\n", colorYellow, colorReset)
		}
	},
}

func socketExists() (bool, error) {
	_, err := os.Stat(transport.DefaultUnixSocketPath())
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat daemon socket: %w", err)
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonRestartCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
}
