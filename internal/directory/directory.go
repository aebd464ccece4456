// Package directory implements the directory-navigation engine (DE):
// frecency + fuzzy + distance ranking over visited and filesystem
// directories for "jump-to-directory" completions.
//
// Fuzzy scoring is grounded on internal/suggestions/typo/levenshtein.go via
// this module's internal/fuzzy package. The overall multi-stage,
// multi-factor ranking pipeline follows the shape of
// internal/suggestions/suggest/scorer.go (weighted terms, match-type
// classification, tooltip generation) adapted to filesystem paths instead
// of argument text.
package directory

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pscue/pscue/internal/fuzzy"
)

// MatchType classifies how a directory suggestion was produced.
type MatchType int

const (
	WellKnown MatchType = iota
	Exact
	Prefix
	Fuzzy
	Learned
	Filesystem
)

func (m MatchType) String() string {
	switch m {
	case WellKnown:
		return "WellKnown"
	case Exact:
		return "Exact"
	case Prefix:
		return "Prefix"
	case Fuzzy:
		return "Fuzzy"
	case Learned:
		return "Learned"
	case Filesystem:
		return "Filesystem"
	default:
		return "Unknown"
	}
}

// Suggestion is a single ranked directory completion.
type Suggestion struct {
	Path        string
	DisplayPath string
	Score       float64
	UsageCount  uint64
	LastUsed    time.Time
	MatchType   MatchType
	Tooltip     string
}

// LearnedEntry is one "cd" argument record pulled from the knowledge graph.
type LearnedEntry struct {
	Path       string
	UsageCount uint64
	LastUsed   time.Time
}

// LearnedSource supplies learned "cd" argument history. Satisfied by
// internal/kgraph.Graph via a thin adapter in the engine package, kept
// as an interface here so directory has no dependency on kgraph.
type LearnedSource interface {
	LearnedDirectories(max int) []LearnedEntry
}

// DefaultBlocklist are directory leaf names filtered out of suggestions
// unless the user's input literally contains that name.
var DefaultBlocklist = []string{
	"node_modules", "bin", "obj", "target", "__pycache__",
	".git", ".vs", ".vscode", ".idea", ".nuget", ".dotnet", ".pytest_cache",
}

// Config tunes the engine's scoring and search behavior.
type Config struct {
	WeightFreq      float64
	WeightRecency   float64
	WeightDistance  float64
	MaxDepth        int
	RecursiveSearch bool
	BlocklistExtra  []string
	ExactMatchBoost float64
	DecayDays       float64
	MinMatchPct     float64
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{
		WeightFreq:      0.5,
		WeightRecency:   0.3,
		WeightDistance:  0.2,
		MaxDepth:        6,
		RecursiveSearch: true,
		ExactMatchBoost: 100,
		DecayDays:       30,
		MinMatchPct:     0.7,
	}
}

// Engine computes directory suggestions.
type Engine struct {
	cfg       Config
	blocklist map[string]bool
	source    LearnedSource
	now       func() time.Time
}

// New creates an Engine. source may be nil, in which case the learned-
// directories stage is skipped.
func New(cfg Config, source LearnedSource) *Engine {
	if cfg.WeightFreq+cfg.WeightRecency+cfg.WeightDistance <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultConfig().MaxDepth
	}
	if cfg.DecayDays <= 0 {
		cfg.DecayDays = DefaultConfig().DecayDays
	}
	if cfg.MinMatchPct <= 0 {
		cfg.MinMatchPct = DefaultConfig().MinMatchPct
	}
	bl := make(map[string]bool, len(DefaultBlocklist)+len(cfg.BlocklistExtra))
	for _, b := range DefaultBlocklist {
		bl[b] = true
	}
	for _, b := range cfg.BlocklistExtra {
		bl[b] = true
	}
	return &Engine{cfg: cfg, blocklist: bl, source: source, now: time.Now}
}

func isAbsolutePathLike(w string) bool {
	return filepath.IsAbs(w) || strings.HasPrefix(w, `\\`)
}

// Suggest produces ranked directory suggestions for partial path w given
// the current directory cwd.
func (e *Engine) Suggest(w, cwd string) []Suggestion {
	var all []Suggestion

	if !isAbsolutePathLike(w) {
		all = append(all, e.wellKnownShortcuts(w)...)
	}

	if e.source != nil {
		all = append(all, e.learnedDirectories(w, cwd)...)
	}

	all = append(all, e.directChildMatch(w, cwd)...)

	if e.cfg.RecursiveSearch {
		all = append(all, e.recursiveSearch(w, cwd)...)
	}

	return e.finalize(all)
}

func (e *Engine) wellKnownShortcuts(w string) []Suggestion {
	var out []Suggestion
	type shortcut struct {
		token string
		score float64
	}
	shortcuts := []shortcut{{"~", 1000}, {"..", 999}}
	for _, sc := range shortcuts {
		if !strings.HasPrefix(sc.token, w) {
			continue
		}
		path := e.resolveShortcut(sc.token)
		if path == "" {
			continue
		}
		out = append(out, Suggestion{
			Path:      path,
			Score:     sc.score,
			MatchType: WellKnown,
			Tooltip:   sc.token,
		})
	}
	return out
}

func (e *Engine) resolveShortcut(token string) string {
	switch token {
	case "~":
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		return home
	case "..":
		cwd, err := os.Getwd()
		if err != nil {
			return ""
		}
		return filepath.Dir(cwd)
	default:
		return ""
	}
}

func (e *Engine) learnedDirectories(w, cwd string) []Suggestion {
	entries := e.source.LearnedDirectories(50)
	absW := isAbsolutePathLike(w)

	var maxUsage uint64
	for _, en := range entries {
		if en.UsageCount > maxUsage {
			maxUsage = en.UsageCount
		}
	}
	if maxUsage == 0 {
		maxUsage = 1
	}

	var out []Suggestion
	for _, en := range entries {
		if en.Path == "-" || en.Path == "." {
			continue
		}
		normalized, ok := NormalizePath(en.Path, cwd)
		if !ok {
			continue
		}
		if normalized == cwd {
			continue
		}
		if e.isBlocklisted(normalized, w) {
			continue
		}
		if _, err := os.Stat(normalized); err != nil {
			continue
		}
		if absW && isAncestor(normalized, w) {
			continue
		}

		matchScore := e.matchScore(w, filepath.Base(normalized))
		if matchScore <= 0 {
			continue
		}
		freqScore := float64(en.UsageCount) / float64(maxUsage)
		ageDays := e.now().Sub(en.LastUsed).Hours() / 24
		recScore := math.Exp(-ageDays / e.cfg.DecayDays)
		distScore := e.distanceScore(normalized, cwd)

		exactBoost := 1.0
		if matchScore >= 0.999 {
			exactBoost = e.cfg.ExactMatchBoost
		}
		total := matchScore*0.1*exactBoost +
			e.cfg.WeightFreq*freqScore +
			e.cfg.WeightRecency*recScore +
			e.cfg.WeightDistance*distScore

		out = append(out, Suggestion{
			Path:       normalized,
			Score:      total,
			UsageCount: en.UsageCount,
			LastUsed:   en.LastUsed,
			MatchType:  Learned,
			Tooltip:    tooltipFor(en.UsageCount, e.now().Sub(en.LastUsed)),
		})
	}
	return out
}

func (e *Engine) directChildMatch(w, cwd string) []Suggestion {
	var dir, leaf string
	if isAbsolutePathLike(w) {
		dir = filepath.Dir(w)
		leaf = filepath.Base(w)
	} else {
		dir = cwd
		leaf = w
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var out []Suggestion
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		name := ent.Name()
		if e.blocklist[name] && !strings.Contains(w, name) {
			continue
		}
		score := e.matchScore(leaf, name)
		if score <= 0 {
			continue
		}
		full := filepath.Join(dir, name)
		mt := Prefix
		if strings.EqualFold(name, leaf) {
			mt = Exact
		}
		out = append(out, Suggestion{
			Path:      full,
			Score:     0.6 + 0.3*score,
			MatchType: mt,
		})
	}
	return out
}

func (e *Engine) recursiveSearch(w, cwd string) []Suggestion {
	leaf := w
	if isAbsolutePathLike(w) {
		leaf = filepath.Base(w)
	}
	if leaf == "" {
		return nil
	}

	var out []Suggestion
	var walk func(dir string, depth int)
	walk = func(dir string, depth int) {
		if depth > e.cfg.MaxDepth {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, ent := range entries {
			if !ent.IsDir() {
				continue
			}
			name := ent.Name()
			if e.blocklist[name] && !strings.Contains(w, name) {
				continue
			}
			full := filepath.Join(dir, name)
			if score, ok := fuzzyMatch(leaf, name, e.cfg.MinMatchPct); ok {
				out = append(out, Suggestion{
					Path:      full,
					Score:     0.4 * score,
					MatchType: Fuzzy,
				})
			}
			walk(full, depth+1)
		}
	}
	walk(cwd, 0)
	return out
}

// matchScore returns the [0,1] match_score for learned/child stages:
// 1 exact, 0.9 prefix, 0.7*positional for substring, else Levenshtein-based.
func (e *Engine) matchScore(query, candidate string) float64 {
	if query == "" {
		return 0.5
	}
	q, c := strings.ToLower(query), strings.ToLower(candidate)
	if q == c {
		return 1.0
	}
	if strings.HasPrefix(c, q) {
		return 0.9
	}
	if idx := strings.Index(c, q); idx >= 0 {
		positional := 1.0 - float64(idx)/float64(len(c))
		return 0.7 * positional
	}
	score, ok := fuzzyMatch(q, c, e.cfg.MinMatchPct)
	if !ok {
		return 0
	}
	return score * 0.6 // capped below prefix-match
}

// fuzzyMatch implements the fuzzy-match stage: substring match yields
// 0.7*(1-index/len); else Levenshtein similarity gated by min_match_pct and,
// for queries over 10 chars, an additional LCS ratio requirement.
func fuzzyMatch(query, candidate string, minMatchPct float64) (float64, bool) {
	q, c := strings.ToLower(query), strings.ToLower(candidate)
	if q == "" {
		return 0, false
	}
	if idx := strings.Index(c, q); idx >= 0 {
		return 0.7 * (1 - float64(idx)/float64(len(c))), true
	}
	sim := fuzzy.Similarity(q, c)
	if sim < minMatchPct {
		return 0, false
	}
	if len(q) > 10 {
		lcsRatio := float64(fuzzy.LCSLength(q, c)) / float64(len(q))
		if lcsRatio < 0.6 {
			return 0, false
		}
	}
	return sim, true
}

// distanceScore computes the dist_score term relating a candidate
// directory to cwd.
func (e *Engine) distanceScore(path, cwd string) float64 {
	if path == cwd {
		return 1.0
	}
	if filepath.Dir(cwd) == path {
		return 0.9 // path is the direct parent of cwd
	}
	rel, err := filepath.Rel(cwd, path)
	if err == nil && !strings.HasPrefix(rel, "..") {
		depth := strings.Count(rel, string(filepath.Separator)) + 1
		return math.Max(0.1, 0.85-0.1*float64(depth))
	}
	if strings.HasPrefix(cwd, path) {
		common := len(strings.Split(path, string(filepath.Separator)))
		total := len(strings.Split(cwd, string(filepath.Separator)))
		d := total - common
		return math.Max(0.1, 0.6-0.05*float64(d))
	}
	if filepath.Dir(path) == filepath.Dir(cwd) {
		return 0.7
	}
	return 0.1
}

func (e *Engine) isBlocklisted(path, w string) bool {
	name := filepath.Base(path)
	if !e.blocklist[name] {
		return false
	}
	return !strings.Contains(w, name)
}

func isAncestor(path, absW string) bool {
	rel, err := filepath.Rel(path, absW)
	if err != nil {
		return false
	}
	return !strings.HasPrefix(rel, "..") && rel != "."
}

// NormalizePath expands ~, resolves relative paths against cwd, and
// canonicalizes the result. Failures return the original string.
func NormalizePath(p, cwd string) (string, bool) {
	if p == "" {
		return p, false
	}
	expanded := p
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return p, true
		}
		expanded = filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(p, "~/"), `~\`))
		if p == "~" {
			expanded = home
		}
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(cwd, expanded)
	}
	clean := filepath.Clean(expanded)
	return clean, true
}

// normalizeDisplayPath resolves symlinks segment-by-segment and appends a
// trailing separator. Failures return the input as-is.
func normalizeDisplayPath(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	if !strings.HasSuffix(resolved, string(filepath.Separator)) {
		resolved += string(filepath.Separator)
	}
	return resolved
}

// finalize normalizes display paths, dedupes by display path keeping the
// highest score, and sorts by score desc then usage_count desc.
func (e *Engine) finalize(all []Suggestion) []Suggestion {
	best := make(map[string]Suggestion)
	for _, s := range all {
		s.DisplayPath = normalizeDisplayPath(s.Path)
		if existing, ok := best[s.DisplayPath]; !ok || s.Score > existing.Score {
			best[s.DisplayPath] = s
		}
	}

	out := make([]Suggestion, 0, len(best))
	for _, s := range best {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].UsageCount > out[j].UsageCount
	})
	return out
}

func tooltipFor(usageCount uint64, age time.Duration) string {
	return "used " + strconv.FormatUint(usageCount, 10) + "x, " + humanize.Time(time.Now().Add(-age))
}
