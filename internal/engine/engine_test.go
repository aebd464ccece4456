package engine

import (
	"context"
	"testing"
	"time"

	"github.com/pscue/pscue/internal/config"
	"github.com/pscue/pscue/internal/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.DefaultConfig()
	return New(cfg, nil, nil)
}

func TestRecordCommand_PopulatesKnowledgeGraphAndHistory(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()

	e.RecordCommand("git", "git commit -m msg", []string{"commit", "-m", "msg"}, true, "/home/user", now)
	e.RecordCommand("git", "git commit -m msg", []string{"commit", "-m", "msg"}, true, "/home/user", now)
	e.RecordCommand("git", "git commit -m msg", []string{"commit", "-m", "msg"}, true, "/home/user", now)

	sugg := e.KG.Suggestions("git", nil, 10)
	require.NotEmpty(t, sugg)

	assert.Equal(t, 3, e.CH.Count())
}

func TestRecordCommand_FeedsSequenceLearner(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()

	e.RecordCommand("git", "git add .", []string{"."}, true, "/repo", now)
	e.RecordCommand("git", "git commit -m x", []string{"-m", "x"}, true, "/repo", now.Add(30*time.Second))

	preds := e.SL.Predict([]string{"git"}, 5)
	require.NotEmpty(t, preds)
	assert.Equal(t, "git", preds[0].Command)
}

func TestRecordCommand_LearningDisabledNoop(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine.LearningDisabled = true
	e := New(cfg, nil, nil)

	e.RecordCommand("ls", "ls -la", []string{"-la"}, true, "/tmp", time.Now())
	assert.Equal(t, 0, e.CH.Count())
	assert.Equal(t, 0, e.KG.CommandCount())
}

func TestComplete_UsesKnownCompletionsAndCachesResult(t *testing.T) {
	e := newTestEngine(t)
	e.Known = stubCatalog{items: []KnownCompletion{{Text: "checkout", Tooltip: "switch branches"}}}

	ctx := context.Background()
	resp := e.Complete(ctx, ipc.CompletionRequest{Command: "git", CommandLine: "git "})
	require.NotEmpty(t, resp.Completions)
	assert.False(t, resp.Cached)
	assert.Equal(t, "checkout", resp.Completions[0].Text)

	resp2 := e.Complete(ctx, ipc.CompletionRequest{Command: "git", CommandLine: "git "})
	assert.True(t, resp2.Cached)
	assert.Equal(t, resp.Completions, resp2.Completions)
}

func TestComplete_BoostsLearnedSuggestionOverKnown(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()
	for i := 0; i < 5; i++ {
		e.RecordCommand("git", "git commit -m x", []string{"commit", "-m", "x"}, true, "/repo", now)
	}
	e.Known = stubCatalog{items: []KnownCompletion{{Text: "commit"}, {Text: "checkout"}}}

	resp := e.Complete(context.Background(), ipc.CompletionRequest{Command: "git", CommandLine: "git "})
	require.NotEmpty(t, resp.Completions)
	assert.Equal(t, "commit", resp.Completions[0].Text)
}

func TestDebug_Ping(t *testing.T) {
	e := newTestEngine(t)
	resp := e.Debug(context.Background(), ipc.DebugRequest{RequestType: ipc.DebugPing})
	assert.True(t, resp.Success)
}

func TestDebug_StatsReportsCacheAndKnowledgeGraphCounts(t *testing.T) {
	e := newTestEngine(t)
	e.RecordCommand("git", "git status", nil, true, "/repo", time.Now())
	e.Complete(context.Background(), ipc.CompletionRequest{Command: "git", CommandLine: "git "})

	resp := e.Debug(context.Background(), ipc.DebugRequest{RequestType: ipc.DebugStats})
	require.True(t, resp.Success)
	assert.Equal(t, 1, resp.Stats["commands_tracked"])
	assert.Equal(t, 1, resp.CacheEntries)
}

func TestDebug_ClearInvalidatesCache(t *testing.T) {
	e := newTestEngine(t)
	e.Complete(context.Background(), ipc.CompletionRequest{Command: "git", CommandLine: "git "})
	require.Equal(t, 1, e.CC.Size())

	resp := e.Debug(context.Background(), ipc.DebugRequest{RequestType: ipc.DebugClear})
	assert.True(t, resp.Success)
	assert.Equal(t, 0, e.CC.Size())
}

func TestDebug_UnknownRequestTypeFails(t *testing.T) {
	e := newTestEngine(t)
	resp := e.Debug(context.Background(), ipc.DebugRequest{RequestType: "bogus"})
	assert.False(t, resp.Success)
}

type stubCatalog struct {
	items []KnownCompletion
}

func (s stubCatalog) Completions(context.Context, string, string, bool) []KnownCompletion {
	return s.items
}
