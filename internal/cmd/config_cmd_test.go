package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pscue/pscue/internal/config"
)

func TestRunConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PSCUE_HOME", dir)

	paths := config.DefaultPaths()
	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	if err := runConfig(configCmd, nil); err != nil {
		t.Fatalf("runConfig: %v", err)
	}
}

func TestRunConfig_WithFileOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PSCUE_HOME", dir)

	paths := config.DefaultPaths()
	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	yamlContent := "daemon:\n  cache_ttl_minutes: 7\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := runConfig(configCmd, nil); err != nil {
		t.Fatalf("runConfig: %v", err)
	}
}
