package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the prediction engine. Defaults match
// construction-time configuration; environment variables override file
// values, which override these defaults.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Sequence  SequenceConfig  `yaml:"sequence"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	Directory DirectoryConfig `yaml:"directory"`
	Daemon    DaemonConfig    `yaml:"daemon"`
}

// EngineConfig configures the Knowledge Graph and Command History.
type EngineConfig struct {
	// LearningDisabled maps to PSCUE_DISABLE_LEARNING.
	LearningDisabled bool `yaml:"learning_disabled"`
	// HistorySize is CH's ring buffer capacity. Default 100.
	HistorySize int `yaml:"history_size"`
	// MaxCommands is KG's command cap. Default 500.
	MaxCommands int `yaml:"max_commands"`
	// MaxArgsPerCommand is KG's per-command argument cap. Default 100.
	MaxArgsPerCommand int `yaml:"max_args_per_command"`
	// DecayDays is the frecency recency decay constant. Default 30.
	DecayDays float64 `yaml:"decay_days"`
}

// SequenceConfig configures the Sequence Predictor (SL).
type SequenceConfig struct {
	Enabled  bool `yaml:"enabled"`
	Order    int  `yaml:"ngram_order"`
	MinFreq  int  `yaml:"min_frequency"`
	MaxCount int  `yaml:"max_results"`
}

// WorkflowConfig configures the Workflow Learner (WL).
type WorkflowConfig struct {
	Enabled             bool    `yaml:"enabled"`
	MinFrequency        int     `yaml:"min_frequency"`
	MaxTimeDeltaMinutes float64 `yaml:"max_time_delta_minutes"`
	MinConfidence       float64 `yaml:"min_confidence"`
	DecayDays           float64 `yaml:"decay_days"`
	MaxTransitionsPerSrc int    `yaml:"max_transitions_per_source"`
}

// DirectoryConfig configures the Directory Engine (DE).
type DirectoryConfig struct {
	WeightFreq      float64  `yaml:"weight_freq"`
	WeightRecency   float64  `yaml:"weight_recency"`
	WeightDistance  float64  `yaml:"weight_distance"`
	MaxDepth        int      `yaml:"max_depth"`
	RecursiveSearch bool     `yaml:"recursive_search"`
	BlocklistExtra  []string `yaml:"blocklist_extra"`
	ExactMatchBoost float64  `yaml:"exact_match_boost"`
	DecayDays       float64  `yaml:"decay_days"`
	MinMatchPct     float64  `yaml:"min_match_pct"`
}

// DaemonConfig configures the IPC server process.
type DaemonConfig struct {
	SocketPath        string `yaml:"socket_path"`
	LogLevel          string `yaml:"log_level"`
	PartialCommands   bool   `yaml:"partial_command_predictions"`
	AutoSaveMinutes   int    `yaml:"autosave_minutes"`
	CacheTTLMinutes   int    `yaml:"cache_ttl_minutes"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			HistorySize:       100,
			MaxCommands:       500,
			MaxArgsPerCommand: 100,
			DecayDays:         30,
		},
		Sequence: SequenceConfig{
			Enabled:  true,
			Order:    2,
			MinFreq:  1,
			MaxCount: 5,
		},
		Workflow: WorkflowConfig{
			Enabled:              true,
			MinFrequency:         1,
			MaxTimeDeltaMinutes:  30,
			MinConfidence:        0.5,
			DecayDays:            30,
			MaxTransitionsPerSrc: 20,
		},
		Directory: DirectoryConfig{
			WeightFreq:      0.5,
			WeightRecency:   0.3,
			WeightDistance:  0.2,
			MaxDepth:        6,
			RecursiveSearch: true,
			ExactMatchBoost: 100,
			DecayDays:       30,
			MinMatchPct:     0.7,
		},
		Daemon: DaemonConfig{
			LogLevel:        "info",
			PartialCommands: true,
			AutoSaveMinutes: 5,
			CacheTTLMinutes: 5,
		},
	}
}

// Load reads the config file at the default path, applies environment
// overrides, and validates the result. Missing files fall back to defaults
// (configuration errors never fail startup).
func Load() (*Config, error) {
	cfg, _, err := LoadFromFile(DefaultPaths().ConfigFile())
	return cfg, err
}

// LoadFromFile loads configuration from path, applies PSCUE_* overrides, and
// clamps out-of-range values to defaults.
func LoadFromFile(path string) (*Config, []ValidationWarning, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()
	warnings := cfg.ValidateAndFix()
	return cfg, warnings, nil
}

// ValidationWarning describes a single clamped or defaulted field.
type ValidationWarning struct {
	Field  string
	Reason string
}

// ValidateAndFix clamps out-of-range values to their defaults, following the
// teacher's ValidateAndFix pattern (internal/config/config.go): invalid
// configuration degrades gracefully rather than failing startup.
func (c *Config) ValidateAndFix() []ValidationWarning {
	def := DefaultConfig()
	var warnings []ValidationWarning
	warn := func(field, reason string) {
		warnings = append(warnings, ValidationWarning{Field: field, Reason: reason})
	}

	if c.Engine.HistorySize <= 0 {
		c.Engine.HistorySize = def.Engine.HistorySize
		warn("engine.history_size", "must be positive")
	}
	if c.Engine.MaxCommands <= 0 {
		c.Engine.MaxCommands = def.Engine.MaxCommands
		warn("engine.max_commands", "must be positive")
	}
	if c.Engine.MaxArgsPerCommand <= 0 {
		c.Engine.MaxArgsPerCommand = def.Engine.MaxArgsPerCommand
		warn("engine.max_args_per_command", "must be positive")
	}
	if c.Engine.DecayDays <= 0 {
		c.Engine.DecayDays = def.Engine.DecayDays
		warn("engine.decay_days", "must be positive")
	}
	if c.Sequence.Order < 2 {
		c.Sequence.Order = def.Sequence.Order
		warn("sequence.ngram_order", "must be >= 2")
	}
	if c.Workflow.MaxTimeDeltaMinutes <= 0 {
		c.Workflow.MaxTimeDeltaMinutes = def.Workflow.MaxTimeDeltaMinutes
		warn("workflow.max_time_delta_minutes", "must be positive")
	}
	if c.Workflow.MinConfidence < 0 || c.Workflow.MinConfidence > 1 {
		c.Workflow.MinConfidence = def.Workflow.MinConfidence
		warn("workflow.min_confidence", "must be in [0,1]")
	}
	sumW := c.Directory.WeightFreq + c.Directory.WeightRecency + c.Directory.WeightDistance
	if sumW <= 0 {
		c.Directory.WeightFreq = def.Directory.WeightFreq
		c.Directory.WeightRecency = def.Directory.WeightRecency
		c.Directory.WeightDistance = def.Directory.WeightDistance
		warn("directory.weight_*", "weights must sum to a positive value")
	}
	if c.Directory.MinMatchPct <= 0 || c.Directory.MinMatchPct > 1 {
		c.Directory.MinMatchPct = def.Directory.MinMatchPct
		warn("directory.min_match_pct", "must be in (0,1]")
	}
	if !isValidLogLevel(c.Daemon.LogLevel) {
		c.Daemon.LogLevel = def.Daemon.LogLevel
		warn("daemon.log_level", "unrecognized level")
	}
	if c.Daemon.AutoSaveMinutes <= 0 {
		c.Daemon.AutoSaveMinutes = def.Daemon.AutoSaveMinutes
		warn("daemon.autosave_minutes", "must be positive")
	}
	if c.Daemon.CacheTTLMinutes <= 0 {
		c.Daemon.CacheTTLMinutes = def.Daemon.CacheTTLMinutes
		warn("daemon.cache_ttl_minutes", "must be positive")
	}

	return warnings
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// ApplyEnvOverrides applies the PSCUE_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PSCUE_DISABLE_LEARNING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Engine.LearningDisabled = b
		}
	}
	if v := os.Getenv("PSCUE_HISTORY_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Engine.HistorySize = n
		}
	}
	if v := os.Getenv("PSCUE_MAX_COMMANDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Engine.MaxCommands = n
		}
	}
	if v := os.Getenv("PSCUE_MAX_ARGS_PER_CMD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Engine.MaxArgsPerCommand = n
		}
	}
	if v := os.Getenv("PSCUE_DECAY_DAYS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.Engine.DecayDays = f
		}
	}
	if v := os.Getenv("PSCUE_ML_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Sequence.Enabled = b
		}
	}
	if v := os.Getenv("PSCUE_ML_NGRAM_ORDER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Sequence.Order = n
		}
	}
	if v := os.Getenv("PSCUE_ML_NGRAM_MIN_FREQ"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Sequence.MinFreq = n
		}
	}
	if v := os.Getenv("PSCUE_WORKFLOW_LEARNING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Workflow.Enabled = b
		}
	}
	if v := os.Getenv("PSCUE_WORKFLOW_MIN_FREQUENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workflow.MinFrequency = n
		}
	}
	if v := os.Getenv("PSCUE_WORKFLOW_MAX_TIME_DELTA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Workflow.MaxTimeDeltaMinutes = f
		}
	}
	if v := os.Getenv("PSCUE_WORKFLOW_MIN_CONFIDENCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Workflow.MinConfidence = f
		}
	}
	if v := os.Getenv("PSCUE_PCD_WEIGHT_FREQ"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Directory.WeightFreq = f
		}
	}
	if v := os.Getenv("PSCUE_PCD_WEIGHT_RECENCY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Directory.WeightRecency = f
		}
	}
	if v := os.Getenv("PSCUE_PCD_WEIGHT_DISTANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Directory.WeightDistance = f
		}
	}
	if v := os.Getenv("PSCUE_PCD_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Directory.MaxDepth = n
		}
	}
	if v := os.Getenv("PSCUE_PCD_RECURSIVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Directory.RecursiveSearch = b
		}
	}
	if v := os.Getenv("PSCUE_PCD_EXACT_BOOST"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Directory.ExactMatchBoost = f
		}
	}
	if v := os.Getenv("PSCUE_PARTIAL_COMMAND_PREDICTIONS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Daemon.PartialCommands = b
		}
	}
	if v := os.Getenv("PSCUE_SOCKET_PATH"); v != "" {
		c.Daemon.SocketPath = v
	}
	if v := os.Getenv("PSCUE_LOG_LEVEL"); v != "" {
		c.Daemon.LogLevel = v
	}
}
