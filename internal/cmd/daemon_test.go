package cmd

import (
	"testing"
)

func TestSocketExists_Missing(t *testing.T) {
	t.Setenv("PSCUE_HOME", t.TempDir())
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	exists, err := socketExists()
	if err != nil {
		t.Fatalf("socketExists: %v", err)
	}
	if exists {
		t.Fatal("expected no socket to exist in a fresh temp dir")
	}
}

func TestDaemonStopCmd_NotRunning(t *testing.T) {
	t.Setenv("PSCUE_HOME", t.TempDir())
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	if err := daemonStopCmd.RunE(daemonStopCmd, nil); err != nil {
		t.Fatalf("daemon stop on idle daemon should be a no-op, got: %v", err)
	}
}
