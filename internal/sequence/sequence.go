// Package sequence implements the n-gram next-command predictor (SL):
// a bigram table of prev_command -> {next_command -> (frequency, last_seen)}
// with exponential recency decay on top of raw frequency.
//
// Grounded on the bigram upsert idiom of
// internal/suggestions/score/transition.go (TransitionStore), adapted from
// a SQL-backed store to an in-memory concurrent map since this predictor
// runs entirely on the in-process hot path.
package sequence

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultDecayDays matches the frecency decay constant used elsewhere.
const DefaultDecayDays = 30.0

type nextEntry struct {
	frequency uint64
	lastSeen  time.Time
	delta     uint64
}

// Table is the concurrent bigram table.
type Table struct {
	mu        sync.Mutex
	forward   map[string]map[string]*nextEntry // prev -> next -> entry
	minFreq   int
	decayDays float64
	now       func() time.Time
}

// New creates a Table. minFreq is the minimum frequency a transition must
// have accumulated before Predict will surface it.
func New(minFreq int, decayDays float64) *Table {
	if decayDays <= 0 {
		decayDays = DefaultDecayDays
	}
	return &Table{
		forward:   make(map[string]map[string]*nextEntry),
		minFreq:   minFreq,
		decayDays: decayDays,
		now:       time.Now,
	}
}

func norm(command string) string { return strings.ToLower(strings.TrimSpace(command)) }

// RecordTransition increments the (prev, next) bigram and stamps its
// last-seen time. Self-transitions are allowed here; WL is the component
// that rejects them.
func (t *Table) RecordTransition(prev, next string, at time.Time) {
	prev, next = norm(prev), norm(next)
	if prev == "" || next == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	byNext, ok := t.forward[prev]
	if !ok {
		byNext = make(map[string]*nextEntry)
		t.forward[prev] = byNext
	}
	e, ok := byNext[next]
	if !ok {
		e = &nextEntry{}
		byNext[next] = e
	}
	e.frequency++
	e.delta++
	e.lastSeen = at
}

// Prediction is a scored next-command suggestion.
type Prediction struct {
	Command string
	Score   float64
}

// Predict returns next-command predictions for the most recent commands
// observed, using only the single most recent command as the Markov state
// (bigram model), ranked by combined probability + recency score.
func (t *Table) Predict(recentCommands []string, maxResults int) []Prediction {
	if len(recentCommands) == 0 {
		return nil
	}
	prev := norm(recentCommands[len(recentCommands)-1])

	t.mu.Lock()
	byNext, ok := t.forward[prev]
	if !ok {
		t.mu.Unlock()
		return nil
	}
	var total uint64
	type row struct {
		next      string
		frequency uint64
		lastSeen  time.Time
	}
	rows := make([]row, 0, len(byNext))
	for next, e := range byNext {
		total += e.frequency
		rows = append(rows, row{next: next, frequency: e.frequency, lastSeen: e.lastSeen})
	}
	now := t.now()
	decayDays := t.decayDays
	t.mu.Unlock()

	if total == 0 {
		return nil
	}

	var out []Prediction
	for _, r := range rows {
		if int(r.frequency) < t.minFreq {
			continue
		}
		probability := float64(r.frequency) / float64(total)
		ageDays := now.Sub(r.lastSeen).Hours() / 24
		recency := math.Exp(-ageDays / decayDays)
		score := 0.7*probability + 0.3*recency
		out = append(out, Prediction{Command: r.next, Score: score})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}

// Deltas returns the accumulated transition counts since the last call to
// ClearDeltas, for additive persistence merging.
func (t *Table) Deltas() map[[2]string]uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[[2]string]uint64)
	for prev, byNext := range t.forward {
		for next, e := range byNext {
			if e.delta > 0 {
				out[[2]string{prev, next}] = e.delta
			}
		}
	}
	return out
}

// ClearDeltas resets every transition's delta counter after a successful
// persistence save.
func (t *Table) ClearDeltas() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, byNext := range t.forward {
		for _, e := range byNext {
			e.delta = 0
		}
	}
}

// Initialize seeds a transition loaded from persistence with no pending
// delta, used at startup load.
func (t *Table) Initialize(prev, next string, frequency uint64, lastSeen time.Time) {
	prev, next = norm(prev), norm(next)
	t.mu.Lock()
	defer t.mu.Unlock()

	byNext, ok := t.forward[prev]
	if !ok {
		byNext = make(map[string]*nextEntry)
		t.forward[prev] = byNext
	}
	byNext[next] = &nextEntry{frequency: frequency, lastSeen: lastSeen}
}
