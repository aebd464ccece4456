package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pscue/pscue/internal/config"
	"github.com/pscue/pscue/internal/daemon"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show pscue status",
	GroupID: groupSetup,
	Long: `Show the current status of pscue: daemon, storage, and configuration.

Examples:
  pscue status`,
	RunE: runStatus,
}

type statusCheck struct {
	name    string
	status  string // "ok", "warn", "error"
	message string
}

func runStatus(_ *cobra.Command, _ []string) error {
	paths := config.DefaultPaths()

	fmt.Printf("%spscue status%s\n", colorBold, colorReset)
	fmt.Println(strings.Repeat("-", 40))

	checks := []statusCheck{
		checkDaemonStatus(),
		checkStorage(paths),
		checkConfig(paths),
	}

	hasErrors := false
	hasWarnings := false
	for _, c := range checks {
		var icon string
		switch c.status {
		case "ok":
			icon = colorGreen + "[OK]" + colorReset
		case "warn":
			icon = colorYellow + "[WARN]" + colorReset
			hasWarnings = true
		case "error":
			icon = colorRed + "[ERROR]" + colorReset
			hasErrors = true
		}
		fmt.Printf("  %s %-12s %s%s%s\n", icon, c.name, colorDim, c.message, colorReset)
	}

	fmt.Println()
	switch {
	case hasErrors:
		fmt.Printf("%sSome checks failed.%s\n", colorRed, colorReset)
		return fmt.Errorf("status check found errors")
	case hasWarnings:
		fmt.Printf("%sAll critical checks passed.%s\n", colorYellow, colorReset)
	default:
		fmt.Printf("%sAll checks passed!%s\n", colorGreen, colorReset)
	}
	return nil
}

func checkDaemonStatus() statusCheck {
	if daemon.IsRunning() {
		return statusCheck{name: "Daemon", status: "ok", message: "running"}
	}
	return statusCheck{name: "Daemon", status: "warn", message: "not running (starts automatically)"}
}

func checkStorage(paths *config.Paths) statusCheck {
	if _, err := os.Stat(paths.BaseDir); os.IsNotExist(err) {
		return statusCheck{name: "Storage", status: "warn", message: fmt.Sprintf("%s (will be created)", paths.BaseDir)}
	}

	dbSize := ""
	if info, err := os.Stat(paths.DatabaseFile()); err == nil {
		dbSize = fmt.Sprintf(" (db: %s)", formatSize(info.Size()))
	}
	return statusCheck{name: "Storage", status: "ok", message: paths.BaseDir + dbSize}
}

func checkConfig(paths *config.Paths) statusCheck {
	_, warnings, err := config.LoadFromFile(paths.ConfigFile())
	if err != nil {
		return statusCheck{name: "Config", status: "error", message: fmt.Sprintf("failed to load: %v", err)}
	}
	if len(warnings) > 0 {
		return statusCheck{name: "Config", status: "warn", message: fmt.Sprintf("%d value(s) clamped to defaults", len(warnings))}
	}
	if _, err := os.Stat(paths.ConfigFile()); os.IsNotExist(err) {
		return statusCheck{name: "Config", status: "ok", message: "using defaults"}
	}
	return statusCheck{name: "Config", status: "ok", message: paths.ConfigFile()}
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
