// Package kgraph implements the knowledge graph: a concurrent, memory-bounded
// map of commands to the arguments, co-occurrences, and flag combinations
// observed for them, with frecency scoring over usage and recency.
//
// Eviction is least-recently-used by last_used, built on top of
// internal/lru.Cache: every mutation calls Put, so Put order tracks the
// recency without a separate timestamp index.
package kgraph

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pscue/pscue/internal/directory"
	"github.com/pscue/pscue/internal/lru"
)

// navigationCommands are the commands whose non-flag arguments name a
// directory and so get normalized to an absolute path at record time.
var navigationCommands = map[string]bool{
	"cd":           true,
	"set-location": true,
	"sl":           true,
	"chdir":        true,
}

// Defaults for the knowledge graph.
const (
	DefaultMaxCommands       = 500
	DefaultMaxArgsPerCommand = 100
	DefaultDecayDays         = 30.0
)

// Argument is a single argument observed for a command.
type Argument struct {
	Text          string
	UsageCount    uint64
	FirstSeen     time.Time
	LastUsed      time.Time
	IsFlag        bool
	CoOccurrences map[string]uint64
}

// Suggestion is a scored argument returned from Suggestions.
type Suggestion struct {
	Argument
	Score float64
}

// commandKnowledge is the per-command bucket: its own mutex, argument LRU,
// flag-combination counts, and persistence baseline.
type commandKnowledge struct {
	mu         sync.Mutex
	name       string
	totalUsage uint64
	firstSeen  time.Time
	lastUsed   time.Time
	args       *lru.Cache[string, *Argument]
	flagCombos map[string]uint64

	baselineTotal    uint64
	baselineArgUsage map[string]uint64
	baselineFlags    map[string]uint64
}

// Graph is the concurrent knowledge graph of commands.
type Graph struct {
	commands *lru.Cache[string, *commandKnowledge]

	maxArgsPerCommand int
	decayDays         float64

	// Now is the clock used for timestamps; overridable in tests.
	Now func() time.Time
}

// New creates a Graph with the given limits. Non-positive values fall back
// to the package defaults.
func New(maxCommands, maxArgsPerCommand int, decayDays float64) *Graph {
	if maxCommands <= 0 {
		maxCommands = DefaultMaxCommands
	}
	if maxArgsPerCommand <= 0 {
		maxArgsPerCommand = DefaultMaxArgsPerCommand
	}
	if decayDays <= 0 {
		decayDays = DefaultDecayDays
	}
	return &Graph{
		commands:          lru.New[string, *commandKnowledge](maxCommands),
		maxArgsPerCommand: maxArgsPerCommand,
		decayDays:         decayDays,
		Now:               time.Now,
	}
}

func key(command string) string { return strings.ToLower(command) }

// RecordUsage records one execution of command with the given arguments,
// normalizing navigation-command arguments (cd, Set-Location, sl, chdir) to
// an absolute path resolved against cwd; a path that fails to normalize
// falls back to the original argument string. Non-empty arguments are
// tracked individually; co-occurrence counts are updated pairwise
// (excluding self); when two or more flag-like arguments are present, all of
// them, joined in input order, are recorded as one flag combination.
func (g *Graph) RecordUsage(command string, args []string, cwd string) {
	if command == "" {
		return
	}
	now := g.Now()
	ck := g.getOrCreate(command, now)

	ck.mu.Lock()
	defer ck.mu.Unlock()

	ck.totalUsage++
	ck.lastUsed = now
	if ck.firstSeen.IsZero() {
		ck.firstSeen = now
	}

	isNav := navigationCommands[strings.ToLower(command)]
	var nonEmpty []string
	for _, a := range args {
		if a == "" {
			continue
		}
		if isNav && !strings.HasPrefix(a, "-") && cwd != "" {
			if normalized, ok := directory.NormalizePath(a, cwd); ok {
				a = normalized
			}
		}
		nonEmpty = append(nonEmpty, a)
	}

	for _, a := range nonEmpty {
		arg, ok := ck.args.Get(strings.ToLower(a))
		if !ok {
			arg = &Argument{
				Text:          a,
				IsFlag:        strings.HasPrefix(a, "-"),
				FirstSeen:     now,
				CoOccurrences: make(map[string]uint64),
			}
		}
		arg.UsageCount++
		arg.LastUsed = now

		for _, other := range nonEmpty {
			if other == a || strings.EqualFold(other, a) {
				continue
			}
			arg.CoOccurrences[other]++
		}

		evictedKey, evictedArg, evicted := ck.args.Put(strings.ToLower(a), arg)
		if evicted {
			delete(ck.baselineArgUsage, evictedArg.Text)
			_ = evictedKey
		}
	}

	var flags []string
	for _, a := range nonEmpty {
		if strings.HasPrefix(a, "-") {
			flags = append(flags, a)
		}
	}
	if len(flags) >= 2 {
		combo := strings.Join(flags, " ")
		if ck.flagCombos == nil {
			ck.flagCombos = make(map[string]uint64)
		}
		ck.flagCombos[combo]++
	}
}

func (g *Graph) getOrCreate(command string, now time.Time) *commandKnowledge {
	k := key(command)
	if ck, ok := g.commands.Get(k); ok {
		g.commands.Put(k, ck)
		return ck
	}
	ck := &commandKnowledge{
		name:             command,
		args:             lru.New[string, *Argument](g.maxArgsPerCommand),
		flagCombos:       make(map[string]uint64),
		baselineArgUsage: make(map[string]uint64),
		baselineFlags:    make(map[string]uint64),
	}
	g.commands.Put(k, ck)
	return ck
}

// Suggestions returns up to max arguments observed for command, excluding
// anything already typed (case-insensitive), ranked by frecency score then
// usage_count.
func (g *Graph) Suggestions(command string, alreadyTyped []string, max int) []Suggestion {
	ck, ok := g.commands.Get(key(command))
	if !ok {
		return nil
	}

	typed := make(map[string]struct{}, len(alreadyTyped))
	for _, a := range alreadyTyped {
		typed[strings.ToLower(a)] = struct{}{}
	}

	ck.mu.Lock()
	now := g.Now()
	total := ck.totalUsage
	decayDays := g.decayDays
	var out []Suggestion
	for _, k := range ck.args.Keys() {
		arg, ok := ck.args.Get(k)
		if !ok {
			continue
		}
		if _, skip := typed[strings.ToLower(arg.Text)]; skip {
			continue
		}
		out = append(out, Suggestion{
			Argument: *arg,
			Score:    frecency(arg.UsageCount, total, arg.LastUsed, now, decayDays),
		})
	}
	ck.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].UsageCount > out[j].UsageCount
	})

	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// frecency computes the combined score: 0.6*freq + 0.4*recency,
// clamped to [0,1].
func frecency(usageCount, totalUsage uint64, lastUsed, now time.Time, decayDays float64) float64 {
	if totalUsage == 0 {
		return 0
	}
	freq := float64(usageCount) / float64(totalUsage)
	ageDays := now.Sub(lastUsed).Hours() / 24
	recency := math.Exp(-ageDays / decayDays)
	if recency > 1 {
		recency = 1
	}
	score := 0.6*freq + 0.4*recency
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Delta returns max(0, current-baseline) for the given command/argument pair.
func (g *Graph) Delta(command, argument string) uint64 {
	ck, ok := g.commands.Get(key(command))
	if !ok {
		return 0
	}
	ck.mu.Lock()
	defer ck.mu.Unlock()

	arg, ok := ck.args.Get(strings.ToLower(argument))
	if !ok {
		return 0
	}
	baseline := ck.baselineArgUsage[arg.Text]
	if arg.UsageCount <= baseline {
		return 0
	}
	return arg.UsageCount - baseline
}

// CommandSnapshot is a point-in-time view of a command and its arguments,
// used by the persistence manager to compute save deltas.
type CommandSnapshot struct {
	Command          string
	TotalUsage       uint64
	TotalUsageDelta  uint64
	FirstSeen        time.Time
	LastUsed         time.Time
	Arguments        []Argument
	ArgumentDeltas   map[string]uint64
	FlagCombinations map[string]uint64
	FlagDeltas       map[string]uint64
}

// Snapshot returns every tracked command with its current state and its
// delta since the last UpdateBaseline call.
func (g *Graph) Snapshot() []CommandSnapshot {
	var out []CommandSnapshot
	for _, k := range g.commands.Keys() {
		ck, ok := g.commands.Get(k)
		if !ok {
			continue
		}
		ck.mu.Lock()
		snap := CommandSnapshot{
			Command:          ck.name,
			TotalUsage:       ck.totalUsage,
			FirstSeen:        ck.firstSeen,
			LastUsed:         ck.lastUsed,
			ArgumentDeltas:   make(map[string]uint64),
			FlagCombinations: make(map[string]uint64, len(ck.flagCombos)),
			FlagDeltas:       make(map[string]uint64),
		}
		if ck.totalUsage > ck.baselineTotal {
			snap.TotalUsageDelta = ck.totalUsage - ck.baselineTotal
		}
		for _, ak := range ck.args.Keys() {
			arg, ok := ck.args.Get(ak)
			if !ok {
				continue
			}
			snap.Arguments = append(snap.Arguments, *arg)
			baseline := ck.baselineArgUsage[arg.Text]
			if arg.UsageCount > baseline {
				snap.ArgumentDeltas[arg.Text] = arg.UsageCount - baseline
			}
		}
		for combo, count := range ck.flagCombos {
			snap.FlagCombinations[combo] = count
			baseline := ck.baselineFlags[combo]
			if count > baseline {
				snap.FlagDeltas[combo] = count - baseline
			}
		}
		ck.mu.Unlock()
		out = append(out, snap)
	}
	return out
}

// UpdateBaseline copies current counts into the persistence baseline for
// every tracked command, to be called after a successful save.
func (g *Graph) UpdateBaseline() {
	for _, k := range g.commands.Keys() {
		ck, ok := g.commands.Get(k)
		if !ok {
			continue
		}
		ck.mu.Lock()
		ck.baselineTotal = ck.totalUsage
		ck.baselineArgUsage = make(map[string]uint64)
		for _, ak := range ck.args.Keys() {
			if arg, ok := ck.args.Get(ak); ok {
				ck.baselineArgUsage[arg.Text] = arg.UsageCount
			}
		}
		ck.baselineFlags = make(map[string]uint64, len(ck.flagCombos))
		for combo, count := range ck.flagCombos {
			ck.baselineFlags[combo] = count
		}
		ck.mu.Unlock()
	}
}

// InitializeCommand seeds a command loaded from persistence, setting its
// baseline equal to the loaded values so it contributes no spurious delta.
func (g *Graph) InitializeCommand(command string, totalUsage uint64, firstSeen, lastUsed time.Time) {
	k := key(command)
	ck, ok := g.commands.Get(k)
	if !ok {
		ck = &commandKnowledge{
			name:             command,
			args:             lru.New[string, *Argument](g.maxArgsPerCommand),
			flagCombos:       make(map[string]uint64),
			baselineArgUsage: make(map[string]uint64),
			baselineFlags:    make(map[string]uint64),
		}
	}
	ck.mu.Lock()
	ck.totalUsage = totalUsage
	ck.baselineTotal = totalUsage
	ck.firstSeen = firstSeen
	ck.lastUsed = lastUsed
	ck.mu.Unlock()
	g.commands.Put(k, ck)
}

// InitializeArgument seeds an argument loaded from persistence.
func (g *Graph) InitializeArgument(command string, arg Argument) {
	k := key(command)
	ck, ok := g.commands.Get(k)
	if !ok {
		ck = &commandKnowledge{
			name:             command,
			args:             lru.New[string, *Argument](g.maxArgsPerCommand),
			flagCombos:       make(map[string]uint64),
			baselineArgUsage: make(map[string]uint64),
			baselineFlags:    make(map[string]uint64),
		}
		g.commands.Put(k, ck)
	}
	ck.mu.Lock()
	a := arg
	ck.args.Put(strings.ToLower(arg.Text), &a)
	ck.baselineArgUsage[arg.Text] = arg.UsageCount
	ck.mu.Unlock()
}

// CommandCount reports how many commands are currently tracked.
func (g *Graph) CommandCount() int { return g.commands.Len() }
