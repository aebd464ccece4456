// Package config provides configuration and path resolution for pscue.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Paths holds the directories and files pscue reads and writes.
//
// The data directory resolves to:
//   - Windows: %LOCALAPPDATA%\PSCue
//   - Unix:    $XDG_DATA_HOME/PSCue or ~/.local/share/PSCue
//
// PSCUE_HOME overrides the base directory on every platform.
type Paths struct {
	BaseDir string
}

// DefaultPaths returns the default path set for the current platform.
func DefaultPaths() *Paths {
	if home := os.Getenv("PSCUE_HOME"); home != "" {
		return &Paths{BaseDir: home}
	}

	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(homeDir(), "AppData", "Local")
		}
		return &Paths{BaseDir: filepath.Join(localAppData, "PSCue")}
	}

	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return &Paths{BaseDir: filepath.Join(xdg, "PSCue")}
	}

	return &Paths{BaseDir: filepath.Join(homeDir(), ".local", "share", "PSCue")}
}

// DatabaseFile returns the path to the persisted SQLite database.
func (p *Paths) DatabaseFile() string {
	return filepath.Join(p.BaseDir, "learned-data.db")
}

// ConfigFile returns the path to the optional YAML config file.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.BaseDir, "config.yaml")
}

// LogFile returns the path to the daemon log file.
func (p *Paths) LogFile() string {
	return filepath.Join(p.BaseDir, "logs", "predictor.log")
}

// RunDir returns the directory containing the socket and PID/lock files.
func (p *Paths) RunDir() string {
	if xdgRuntime := os.Getenv("XDG_RUNTIME_DIR"); xdgRuntime != "" {
		return filepath.Join(xdgRuntime, "pscue")
	}
	if tmpdir := os.Getenv("TMPDIR"); tmpdir != "" {
		return filepath.Join(tmpdir, "pscue-"+uidString())
	}
	return filepath.Join(os.TempDir(), "pscue-"+uidString())
}

// EnsureDirectories creates every directory pscue needs, best-effort.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.BaseDir, filepath.Dir(p.LogFile()), p.RunDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		if runtime.GOOS == "windows" {
			return os.Getenv("USERPROFILE")
		}
		return os.Getenv("HOME")
	}
	return home
}
