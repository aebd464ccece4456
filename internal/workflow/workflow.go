// Package workflow implements the time-weighted workflow transition
// learner (WL): like the sequence predictor, but transitions carry timing
// information and commands are normalized to base+subcommand before being
// tracked, so "git commit -m x" and "git commit -m y" collapse to the same
// transition node.
//
// Command-line tokenization for normalization is grounded on
// internal/suggestions/normalize/normalize.go's use of github.com/google/shlex
// for quote-aware splitting.
package workflow

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"
)

// multiVerbTools lists commands whose meaningful identity includes their
// first non-flag argument (subcommand).
var multiVerbTools = map[string]bool{
	"git":      true,
	"docker":   true,
	"kubectl":  true,
	"npm":      true,
	"yarn":     true,
	"go":       true,
	"cargo":    true,
	"systemctl": true,
	"apt":      true,
	"brew":     true,
}

// Normalize reduces a raw command line to "base" or "base subcommand" for
// multi-verb tools. Falls back to the raw command line split on whitespace
// if shlex tokenization fails (e.g. unbalanced quotes).
func Normalize(commandLine string) string {
	tokens, err := shlex.Split(commandLine)
	if err != nil || len(tokens) == 0 {
		tokens = strings.Fields(commandLine)
	}
	if len(tokens) == 0 {
		return ""
	}
	base := strings.ToLower(tokens[0])
	if !multiVerbTools[base] {
		return base
	}
	for _, tok := range tokens[1:] {
		if !strings.HasPrefix(tok, "-") {
			return base + " " + strings.ToLower(tok)
		}
	}
	return base
}

type transition struct {
	frequency     uint64
	totalDeltaMs  int64
	firstSeen     time.Time
	lastSeen      time.Time
	deltaFreq     uint64
	deltaTimeMs   int64
}

// Config tunes the learner's behavior.
type Config struct {
	MaxTimeDeltaMinutes  float64
	MinConfidence        float64
	DecayDays            float64
	MaxTransitionsPerSrc int
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{
		MaxTimeDeltaMinutes:  30,
		MinConfidence:        0.5,
		DecayDays:            30,
		MaxTransitionsPerSrc: 20,
	}
}

// Graph is the concurrent time-weighted transition graph.
type Graph struct {
	mu     sync.Mutex
	edges  map[string]map[string]*transition // from -> to -> transition
	cfg    Config
	now    func() time.Time
}

// New creates a Graph with the given configuration.
func New(cfg Config) *Graph {
	if cfg.MaxTimeDeltaMinutes <= 0 {
		cfg.MaxTimeDeltaMinutes = DefaultConfig().MaxTimeDeltaMinutes
	}
	if cfg.DecayDays <= 0 {
		cfg.DecayDays = DefaultConfig().DecayDays
	}
	if cfg.MaxTransitionsPerSrc <= 0 {
		cfg.MaxTransitionsPerSrc = DefaultConfig().MaxTransitionsPerSrc
	}
	return &Graph{
		edges: make(map[string]map[string]*transition),
		cfg:   cfg,
		now:   time.Now,
	}
}

// RecordTransition records a from->to transition observed delta after
// `from`. Self-transitions and transitions exceeding MaxTimeDeltaMinutes are
// dropped.
func (g *Graph) RecordTransition(from, to string, delta time.Duration, at time.Time) {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))
	if from == "" || to == "" || from == to {
		return
	}
	if delta.Minutes() > g.cfg.MaxTimeDeltaMinutes {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	byTo, ok := g.edges[from]
	if !ok {
		byTo = make(map[string]*transition)
		g.edges[from] = byTo
	}
	tr, ok := byTo[to]
	if !ok {
		tr = &transition{firstSeen: at}
		byTo[to] = tr
	}
	tr.frequency++
	tr.deltaFreq++
	tr.totalDeltaMs += delta.Milliseconds()
	tr.deltaTimeMs += delta.Milliseconds()
	tr.lastSeen = at

	g.enforceCapLocked(from)
}

// enforceCapLocked keeps only the top MaxTransitionsPerSrc transitions from
// `from`, ranked by frequency then recency. Caller holds g.mu.
func (g *Graph) enforceCapLocked(from string) {
	byTo := g.edges[from]
	if len(byTo) <= g.cfg.MaxTransitionsPerSrc {
		return
	}
	type row struct {
		to string
		tr *transition
	}
	rows := make([]row, 0, len(byTo))
	for to, tr := range byTo {
		rows = append(rows, row{to: to, tr: tr})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].tr.frequency != rows[j].tr.frequency {
			return rows[i].tr.frequency > rows[j].tr.frequency
		}
		return rows[i].tr.lastSeen.After(rows[j].tr.lastSeen)
	})
	for _, r := range rows[g.cfg.MaxTransitionsPerSrc:] {
		delete(byTo, r.to)
	}
}

// Prediction is a scored next-command suggestion with confidence and the
// time-sensitive boost applied.
type Prediction struct {
	Command    string
	Confidence float64
	Boost      float64
}

// Predict returns confidence-ranked next commands for `from`, with the
// time-sensitive boost applied given elapsedSinceFrom.
func (g *Graph) Predict(from string, elapsedSinceFrom time.Duration) []Prediction {
	from = strings.ToLower(strings.TrimSpace(from))

	g.mu.Lock()
	byTo, ok := g.edges[from]
	if !ok {
		g.mu.Unlock()
		return nil
	}
	type row struct {
		to           string
		frequency    uint64
		avgDeltaMs   int64
		lastSeen     time.Time
	}
	rows := make([]row, 0, len(byTo))
	for to, tr := range byTo {
		avg := int64(0)
		if tr.frequency > 0 {
			avg = tr.totalDeltaMs / int64(tr.frequency)
		}
		rows = append(rows, row{to: to, frequency: tr.frequency, avgDeltaMs: avg, lastSeen: tr.lastSeen})
	}
	now := g.now()
	minConf := g.cfg.MinConfidence
	decayDays := g.cfg.DecayDays
	g.mu.Unlock()

	var out []Prediction
	for _, r := range rows {
		base := math.Min(1.0, float64(r.frequency)/20.0)
		ageDays := now.Sub(r.lastSeen).Hours() / 24
		rec := math.Exp(-ageDays / decayDays)
		confidence := 0.7*base + 0.3*rec

		avgMs := r.avgDeltaMs
		if avgMs == 0 {
			avgMs = 60000 // fall back to 60s
		}
		ratio := elapsedSinceFrom.Milliseconds()
		boost := timeSensitiveBoost(float64(ratio) / float64(avgMs))
		confidence *= boost

		if confidence < minConf {
			continue
		}
		out = append(out, Prediction{Command: r.to, Confidence: confidence, Boost: boost})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

// timeSensitiveBoost implements a piecewise boost over r = t/avg.
func timeSensitiveBoost(r float64) float64 {
	switch {
	case r < 1.5:
		return 1.5
	case r < 5:
		return 1.2
	case r < 30:
		return 1.0
	default:
		return 0.8
	}
}

// TransitionDelta is one accumulated transition delta for persistence.
type TransitionDelta struct {
	From, To         string
	FrequencyDelta   uint64
	TimeDeltaMsDelta int64
	FirstSeen        time.Time
	LastSeen         time.Time
}

// Deltas returns every transition's accumulated delta since the last
// ClearDeltas call.
func (g *Graph) Deltas() []TransitionDelta {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []TransitionDelta
	for from, byTo := range g.edges {
		for to, tr := range byTo {
			if tr.deltaFreq == 0 {
				continue
			}
			out = append(out, TransitionDelta{
				From:             from,
				To:               to,
				FrequencyDelta:   tr.deltaFreq,
				TimeDeltaMsDelta: tr.deltaTimeMs,
				FirstSeen:        tr.firstSeen,
				LastSeen:         tr.lastSeen,
			})
		}
	}
	return out
}

// ClearDeltas resets every transition's delta counters after a successful
// persistence save.
func (g *Graph) ClearDeltas() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, byTo := range g.edges {
		for _, tr := range byTo {
			tr.deltaFreq = 0
			tr.deltaTimeMs = 0
		}
	}
}

// Initialize seeds a transition loaded from persistence with no pending
// delta.
func (g *Graph) Initialize(from, to string, frequency uint64, totalDeltaMs int64, firstSeen, lastSeen time.Time) {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))

	g.mu.Lock()
	defer g.mu.Unlock()

	byTo, ok := g.edges[from]
	if !ok {
		byTo = make(map[string]*transition)
		g.edges[from] = byTo
	}
	byTo[to] = &transition{
		frequency:    frequency,
		totalDeltaMs: totalDeltaMs,
		firstSeen:    firstSeen,
		lastSeen:     lastSeen,
	}
}
