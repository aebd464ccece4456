package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	warnings := cfg.ValidateAndFix()
	assert.Empty(t, warnings)
}

func TestLoadFromFile_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, warnings, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, DefaultConfig().Engine.HistorySize, cfg.Engine.HistorySize)
}

func TestLoadFromFile_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
engine:
  history_size: 250
sequence:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, warnings, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 250, cfg.Engine.HistorySize)
	assert.False(t, cfg.Sequence.Enabled)
}

func TestValidateAndFix_ClampsInvalidValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.HistorySize = -5
	cfg.Workflow.MinConfidence = 2.0
	cfg.Directory.WeightFreq = 0
	cfg.Directory.WeightRecency = 0
	cfg.Directory.WeightDistance = 0
	cfg.Daemon.LogLevel = "verbose"

	warnings := cfg.ValidateAndFix()

	assert.Equal(t, DefaultConfig().Engine.HistorySize, cfg.Engine.HistorySize)
	assert.Equal(t, DefaultConfig().Workflow.MinConfidence, cfg.Workflow.MinConfidence)
	assert.Equal(t, DefaultConfig().Directory.WeightFreq, cfg.Directory.WeightFreq)
	assert.Equal(t, "info", cfg.Daemon.LogLevel)
	assert.NotEmpty(t, warnings)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PSCUE_DISABLE_LEARNING", "true")
	t.Setenv("PSCUE_HISTORY_SIZE", "42")
	t.Setenv("PSCUE_ML_ENABLED", "false")
	t.Setenv("PSCUE_WORKFLOW_MIN_CONFIDENCE", "0.9")
	t.Setenv("PSCUE_SOCKET_PATH", "/tmp/custom.sock")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	assert.True(t, cfg.Engine.LearningDisabled)
	assert.Equal(t, 42, cfg.Engine.HistorySize)
	assert.False(t, cfg.Sequence.Enabled)
	assert.Equal(t, 0.9, cfg.Workflow.MinConfidence)
	assert.Equal(t, "/tmp/custom.sock", cfg.Daemon.SocketPath)
}

func TestApplyEnvOverrides_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("PSCUE_HISTORY_SIZE", "not-a-number")
	t.Setenv("PSCUE_DECAY_DAYS", "-1")

	cfg := DefaultConfig()
	before := cfg.Engine.HistorySize
	beforeDecay := cfg.Engine.DecayDays
	cfg.ApplyEnvOverrides()

	assert.Equal(t, before, cfg.Engine.HistorySize)
	assert.Equal(t, beforeDecay, cfg.Engine.DecayDays)
}
