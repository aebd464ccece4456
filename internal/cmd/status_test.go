package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pscue/pscue/internal/config"
)

func TestCheckStorage_MissingDir(t *testing.T) {
	paths := &config.Paths{BaseDir: filepath.Join(t.TempDir(), "missing")}
	check := checkStorage(paths)
	if check.status != "warn" {
		t.Errorf("expected warn status for missing dir, got %q", check.status)
	}
}

func TestCheckStorage_ExistingDir(t *testing.T) {
	dir := t.TempDir()
	paths := &config.Paths{BaseDir: dir}
	check := checkStorage(paths)
	if check.status != "ok" {
		t.Errorf("expected ok status, got %q: %s", check.status, check.message)
	}
}

func TestCheckConfig_NoFile(t *testing.T) {
	dir := t.TempDir()
	paths := &config.Paths{BaseDir: dir}
	check := checkConfig(paths)
	if check.status != "ok" {
		t.Errorf("expected ok status, got %q: %s", check.status, check.message)
	}
}

func TestCheckConfig_WithWarnings(t *testing.T) {
	dir := t.TempDir()
	paths := &config.Paths{BaseDir: dir}
	yamlContent := "daemon:\n  cache_ttl_minutes: -5\n"
	if err := os.WriteFile(paths.ConfigFile(), []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	check := checkConfig(paths)
	if check.status != "warn" {
		t.Errorf("expected warn status for out-of-range value, got %q: %s", check.status, check.message)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tt := range tests {
		result := formatSize(tt.bytes)
		if result != tt.expected {
			t.Errorf("formatSize(%d) = %q, want %q", tt.bytes, result, tt.expected)
		}
	}
}

func TestCheckDaemonStatus_NotRunning(t *testing.T) {
	t.Setenv("PSCUE_HOME", t.TempDir())
	check := checkDaemonStatus()
	if check.status != "warn" {
		t.Errorf("expected warn status when daemon isn't running, got %q", check.status)
	}
}
