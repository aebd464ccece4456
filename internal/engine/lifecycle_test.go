package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pscue/pscue/internal/config"
	"github.com/pscue/pscue/internal/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreBackedEngine(t *testing.T) (*Engine, *persistence.Store) {
	t.Helper()
	store, err := persistence.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.DefaultConfig()
	return New(cfg, store, nil), store
}

func TestSave_PersistsKnowledgeGraphAndAdvancesBaseline(t *testing.T) {
	e, store := newStoreBackedEngine(t)
	ctx := context.Background()

	e.RecordCommand("git", "git push", []string{"push"}, true, "/repo", time.Now())
	e.Save(ctx)

	snap, err := store.Export(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Commands, 1)
	assert.Equal(t, uint64(1), snap.Commands[0].TotalUsage)

	// A second save with no new usage should not double-count the delta,
	// since UpdateBaseline reset it to zero after the first save.
	e.Save(ctx)
	snap, err = store.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Commands[0].TotalUsage)
}

func TestLoad_RestoresKnowledgeGraphFromPriorSave(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "restore.db")

	store1, err := persistence.Open(path)
	require.NoError(t, err)
	cfg := config.DefaultConfig()
	first := New(cfg, store1, nil)
	first.RecordCommand("git", "git commit -m x", []string{"commit", "-m", "x"}, true, "/repo", time.Now())
	first.Save(ctx)
	require.NoError(t, store1.Close())

	store2, err := persistence.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store2.Close() })
	second := New(cfg, store2, nil)
	second.Load(ctx)

	sugg := second.KG.Suggestions("git", nil, 10)
	assert.NotEmpty(t, sugg)
}

func TestStartAutosaveAndShutdown_SavesOnCancel(t *testing.T) {
	e, store := newStoreBackedEngine(t)
	e.RecordCommand("git", "git status", nil, true, "/repo", time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	e.StartAutosave(ctx)
	cancel()

	require.NoError(t, e.Shutdown(context.Background()))

	snap, err := store.Export(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Commands, 1)
	assert.Equal(t, uint64(1), snap.Commands[0].TotalUsage)
}
