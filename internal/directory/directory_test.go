package directory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	entries []LearnedEntry
}

func (f *fakeSource) LearnedDirectories(max int) []LearnedEntry { return f.entries }

func TestWellKnownShortcuts_EmitsTildeAndDotDot(t *testing.T) {
	e := New(DefaultConfig(), nil)
	sugg := e.Suggest("", "/tmp")

	var foundTilde, foundDotDot bool
	for _, s := range sugg {
		if s.MatchType == WellKnown && s.Score == 1000 {
			foundTilde = true
		}
		if s.MatchType == WellKnown && s.Score == 999 {
			foundDotDot = true
		}
	}
	assert.True(t, foundTilde)
	assert.True(t, foundDotDot)
}

func TestWellKnownShortcuts_SkippedForAbsolutePath(t *testing.T) {
	e := New(DefaultConfig(), nil)
	sugg := e.Suggest("/etc", "/tmp")
	for _, s := range sugg {
		assert.NotEqual(t, WellKnown, s.MatchType)
	}
}

func TestDirectChildMatch_FindsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "project-a"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "project-b"), 0o755))

	e := New(DefaultConfig(), nil)
	sugg := e.Suggest("project", dir)

	names := map[string]bool{}
	for _, s := range sugg {
		names[filepath.Base(s.Path)] = true
	}
	assert.True(t, names["project-a"])
	assert.True(t, names["project-b"])
}

func TestDirectChildMatch_BlocklistsNodeModules(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "node_modules"), 0o755))

	e := New(DefaultConfig(), nil)
	sugg := e.Suggest("node", dir)
	for _, s := range sugg {
		assert.NotEqual(t, "node_modules", filepath.Base(s.Path))
	}
}

func TestDirectChildMatch_AllowsBlocklistedWhenTyped(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "node_modules"), 0o755))

	e := New(DefaultConfig(), nil)
	sugg := e.Suggest("node_modules", dir)
	var found bool
	for _, s := range sugg {
		if filepath.Base(s.Path) == "node_modules" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLearnedDirectories_SkipsNonExistentAndCWD(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "real")
	require.NoError(t, os.Mkdir(existing, 0o755))

	src := &fakeSource{entries: []LearnedEntry{
		{Path: existing, UsageCount: 5, LastUsed: time.Now()},
		{Path: filepath.Join(dir, "missing"), UsageCount: 5, LastUsed: time.Now()},
		{Path: dir, UsageCount: 5, LastUsed: time.Now()},
	}}
	e := New(DefaultConfig(), src)
	sugg := e.Suggest("real", dir)

	var foundReal, foundMissing, foundCWD bool
	for _, s := range sugg {
		switch s.Path {
		case existing:
			foundReal = true
		case filepath.Join(dir, "missing"):
			foundMissing = true
		case dir:
			foundCWD = true
		}
	}
	assert.True(t, foundReal)
	assert.False(t, foundMissing)
	assert.False(t, foundCWD)
}

func TestFinalize_DedupesByDisplayPathKeepingHighestScore(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	e := New(DefaultConfig(), nil)
	result := e.finalize([]Suggestion{
		{Path: sub, Score: 1},
		{Path: sub, Score: 5},
	})
	require.Len(t, result, 1)
	assert.Equal(t, 5.0, result[0].Score)
}

func TestMatchScore_ExactPrefixSubstring(t *testing.T) {
	e := New(DefaultConfig(), nil)
	assert.Equal(t, 1.0, e.matchScore("foo", "foo"))
	assert.Equal(t, 0.9, e.matchScore("fo", "foobar"))
	assert.Greater(t, e.matchScore("bar", "foobar"), 0.0)
}

func TestDistanceScore_CWDItself(t *testing.T) {
	e := New(DefaultConfig(), nil)
	assert.Equal(t, 1.0, e.distanceScore("/home/user/project", "/home/user/project"))
}

func TestDistanceScore_ParentOfCWDScoresHighest(t *testing.T) {
	e := New(DefaultConfig(), nil)
	parent := e.distanceScore("/home/user", "/home/user/project")
	child := e.distanceScore("/home/user/project/sub", "/home/user/project")
	assert.Equal(t, 0.9, parent)
	assert.Greater(t, parent, child)
}

func TestDistanceScore_ChildDepthDecaysByFormula(t *testing.T) {
	e := New(DefaultConfig(), nil)
	direct := e.distanceScore("/home/user/project/sub", "/home/user/project")
	nested := e.distanceScore("/home/user/project/sub/deeper", "/home/user/project")
	assert.Equal(t, 0.75, direct)
	assert.InDelta(t, 0.65, nested, 1e-9)
	assert.Greater(t, direct, nested)
}

func TestDistanceScore_Sibling(t *testing.T) {
	e := New(DefaultConfig(), nil)
	sibling := e.distanceScore("/home/user/other", "/home/user/project")
	assert.Equal(t, 0.7, sibling)
}

func TestNormalizePath_ExpandsTilde(t *testing.T) {
	home, _ := os.UserHomeDir()
	got, ok := NormalizePath("~", "/tmp")
	require.True(t, ok)
	assert.Equal(t, home, got)
}

func TestNormalizePath_RelativeResolvesAgainstCWD(t *testing.T) {
	got, ok := NormalizePath("sub/dir", "/tmp")
	require.True(t, ok)
	assert.Equal(t, filepath.Clean("/tmp/sub/dir"), got)
}
