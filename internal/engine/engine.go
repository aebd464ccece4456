// Package engine wires every learning component — knowledge graph, command
// history, sequence and workflow learners, directory engine, generic
// predictor, rank fusion, completion cache, and the durable store — into a
// single explicit handle. There is no process-wide singleton: callers
// construct one Engine per process and pass it to every entry point,
// including the IPC server.
package engine

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pscue/pscue/internal/cache"
	"github.com/pscue/pscue/internal/config"
	"github.com/pscue/pscue/internal/directory"
	"github.com/pscue/pscue/internal/fusion"
	"github.com/pscue/pscue/internal/history"
	"github.com/pscue/pscue/internal/ipc"
	"github.com/pscue/pscue/internal/kgraph"
	"github.com/pscue/pscue/internal/persistence"
	"github.com/pscue/pscue/internal/predictor"
	"github.com/pscue/pscue/internal/pslog"
	"github.com/pscue/pscue/internal/sequence"
	"github.com/pscue/pscue/internal/workflow"
)

// KnownCompletion is one entry from the external known-completions catalog
// (e.g. static per-tool completion tables for git, gh, scoop). The catalog
// itself is an external collaborator; Engine only consumes its ordering as
// a relevance prior.
type KnownCompletion struct {
	Text    string
	Tooltip string
}

// KnownCompletionsProvider supplies the pre-sorted known-completions stream
// for rank fusion. Completions returns entries ordered most-relevant-first.
type KnownCompletionsProvider interface {
	Completions(ctx context.Context, commandLine, wordSpan string, includeDynamicArguments bool) []KnownCompletion
}

// noCatalog is the default provider when the host hasn't wired a known-
// completions source: it contributes nothing to the fused suggestion list.
type noCatalog struct{}

func (noCatalog) Completions(context.Context, string, string, bool) []KnownCompletion { return nil }

// Engine holds every learning component for one process.
type Engine struct {
	cfg *config.Config
	log *slog.Logger

	KG *kgraph.Graph
	CH *history.History
	SL *sequence.Table
	WL *workflow.Graph
	DE *directory.Engine
	GP *predictor.Predictor
	CC *cache.Cache
	PM *persistence.Store

	Known KnownCompletionsProvider

	mu          sync.Mutex
	lastCommand string
	lastLine    string
	lastAt      time.Time

	autosaveDone chan struct{}
}

// New constructs an Engine from cfg. store may be nil for a purely
// in-memory engine that never persists.
func New(cfg *config.Config, store *persistence.Store, log *slog.Logger) *Engine {
	if log == nil {
		log = pslog.NewFromEnv()
	}

	kg := kgraph.New(cfg.Engine.MaxCommands, cfg.Engine.MaxArgsPerCommand, cfg.Engine.DecayDays)
	ch := history.New(cfg.Engine.HistorySize)
	sl := sequence.New(cfg.Sequence.MinFreq, cfg.Engine.DecayDays)
	wl := workflow.New(workflow.Config{
		MaxTimeDeltaMinutes:  cfg.Workflow.MaxTimeDeltaMinutes,
		MinConfidence:        cfg.Workflow.MinConfidence,
		DecayDays:            cfg.Workflow.DecayDays,
		MaxTransitionsPerSrc: cfg.Workflow.MaxTransitionsPerSrc,
	})
	de := directory.New(directory.Config{
		WeightFreq:      cfg.Directory.WeightFreq,
		WeightRecency:   cfg.Directory.WeightRecency,
		WeightDistance:  cfg.Directory.WeightDistance,
		MaxDepth:        cfg.Directory.MaxDepth,
		RecursiveSearch: cfg.Directory.RecursiveSearch,
		BlocklistExtra:  cfg.Directory.BlocklistExtra,
		ExactMatchBoost: cfg.Directory.ExactMatchBoost,
		DecayDays:       cfg.Directory.DecayDays,
		MinMatchPct:     cfg.Directory.MinMatchPct,
	}, &kgraphDirectorySource{kg: kg})
	gp := predictor.New(kg, de, sl, cfg.Sequence.MaxCount)
	cc := cache.New(time.Duration(cfg.Daemon.CacheTTLMinutes) * time.Minute)

	return &Engine{
		cfg:   cfg,
		log:   log,
		KG:    kg,
		CH:    ch,
		SL:    sl,
		WL:    wl,
		DE:    de,
		GP:    gp,
		CC:    cc,
		PM:    store,
		Known: noCatalog{},
	}
}

// kgraphDirectorySource adapts the knowledge graph's "cd" argument history
// to the directory engine's LearnedSource, keeping the two packages free of
// a direct dependency on each other.
type kgraphDirectorySource struct {
	kg *kgraph.Graph
}

func (s *kgraphDirectorySource) LearnedDirectories(max int) []directory.LearnedEntry {
	sugg := s.kg.Suggestions("cd", nil, max)
	out := make([]directory.LearnedEntry, 0, len(sugg))
	for _, sg := range sugg {
		out = append(out, directory.LearnedEntry{
			Path:       sg.Text,
			UsageCount: sg.UsageCount,
			LastUsed:   sg.LastUsed,
		})
	}
	return out
}

// RecordCommand folds one executed command into every in-memory component:
// the knowledge graph, history ring buffer, and — when it follows a prior
// command in the same session — the sequence and workflow learners. This is
// the engine-side half of the shell shim's record_command contract.
func (e *Engine) RecordCommand(command, commandLine string, args []string, success bool, cwd string, at time.Time) {
	if e.cfg.Engine.LearningDisabled {
		return
	}

	e.KG.RecordUsage(command, args, cwd)
	e.CH.AddEntry(history.Entry{
		Command:          command,
		CommandLine:      commandLine,
		Arguments:        args,
		TimestampUTC:     at,
		Success:          success,
		WorkingDirectory: cwd,
	})

	e.mu.Lock()
	prevCommand, prevLine, prevAt := e.lastCommand, e.lastLine, e.lastAt
	e.lastCommand, e.lastLine, e.lastAt = command, commandLine, at
	e.mu.Unlock()

	if prevCommand == "" || !success {
		return
	}
	if e.cfg.Sequence.Enabled {
		e.SL.RecordTransition(prevCommand, command, at)
	}
	if e.cfg.Workflow.Enabled {
		e.WL.RecordTransition(workflow.Normalize(prevLine), workflow.Normalize(commandLine), at.Sub(prevAt), at)
	}
}

// Complete implements ipc.Handler. It consults the completion cache first;
// on a miss it fuses the known-completions catalog with generic-predictor
// and workflow suggestions, caches the result, and returns it.
func (e *Engine) Complete(ctx context.Context, req ipc.CompletionRequest) ipc.CompletionResponse {
	tok := predictor.Tokenize(req.CommandLine)
	key := cacheKey(req.Command, tok.ArgsExcludingPartial())

	if items, ok := e.CC.TryGet(key); ok {
		return ipc.CompletionResponse{
			Completions: toCompletionItems(items),
			Cached:      true,
			Timestamp:   time.Now(),
		}
	}

	// The wire protocol carries no explicit cwd; the daemon answers with
	// its own working directory, which matches the shim's invocation
	// pattern of launching the daemon from the shell's current directory.
	cwd, _ := os.Getwd()

	var known, knownTooltips []string
	if e.Known != nil {
		for _, kc := range e.Known.Completions(ctx, req.CommandLine, req.WordToComplete, req.IncludeDynamicArguments) {
			known = append(known, kc.Text)
			knownTooltips = append(knownTooltips, kc.Tooltip)
		}
	}

	var gpItems []fusion.Item
	for _, s := range e.GP.Suggest(ctx, predictor.Input{Text: req.CommandLine, CWD: cwd}) {
		gpItems = append(gpItems, fusion.Item{Text: s.Text, Tooltip: s.Description, Score: s.Score})
	}

	merged := fusion.Merge(known, knownTooltips, gpItems, e.workflowSuggestions())
	e.CC.Set(key, toCacheItems(merged))

	return ipc.CompletionResponse{
		Completions: toCompletionItems(toCacheItems(merged)),
		Cached:      false,
		Timestamp:   time.Now(),
	}
}

// Debug implements ipc.Handler's debug side: ping, stats, cache, and clear
// requests.
func (e *Engine) Debug(_ context.Context, req ipc.DebugRequest) ipc.DebugResponse {
	switch req.RequestType {
	case ipc.DebugPing:
		return ipc.DebugResponse{Success: true}
	case ipc.DebugStats:
		st := e.CC.Stats()
		return ipc.DebugResponse{
			Success: true,
			Stats: map[string]any{
				"commands_tracked": e.KG.CommandCount(),
				"history_count":    e.CH.Count(),
				"cache_entries":    st.Entries,
				"cache_hits":       st.TotalHits,
			},
			CacheEntries: st.Entries,
		}
	case ipc.DebugCache:
		return ipc.DebugResponse{Success: true, CacheEntries: e.CC.Size()}
	case ipc.DebugClear:
		if req.Filter != "" {
			e.CC.Invalidate(req.Filter)
		} else {
			e.CC.InvalidateAll()
		}
		return ipc.DebugResponse{Success: true}
	default:
		return ipc.DebugResponse{Success: false, Message: "unknown debug request type"}
	}
}

func (e *Engine) workflowSuggestions() []fusion.Item {
	e.mu.Lock()
	prevLine, at := e.lastLine, e.lastAt
	e.mu.Unlock()
	if prevLine == "" {
		return nil
	}

	preds := e.WL.Predict(workflow.Normalize(prevLine), time.Since(at))
	out := make([]fusion.Item, 0, len(preds))
	for _, p := range preds {
		out = append(out, fusion.Item{Text: p.Command, Score: clamp01(p.Confidence)})
	}
	return out
}

func cacheKey(command string, contextArgs []string) string {
	parts := make([]string, 0, len(contextArgs)+1)
	parts = append(parts, strings.ToLower(command))
	parts = append(parts, contextArgs...)
	return strings.Join(parts, "|")
}

func toCacheItems(items []fusion.Item) []cache.Item {
	out := make([]cache.Item, len(items))
	for i, it := range items {
		out[i] = cache.Item{Text: it.Text, Tooltip: it.Tooltip, Score: it.Score}
	}
	return out
}

func toCompletionItems(items []cache.Item) []ipc.CompletionItem {
	out := make([]ipc.CompletionItem, len(items))
	for i, it := range items {
		out[i] = ipc.CompletionItem{Text: it.Text, Description: it.Tooltip, Score: it.Score}
	}
	return out
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
