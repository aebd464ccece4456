package kgraph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordUsage_NormalizesNavigationArgument(t *testing.T) {
	g := New(10, 10, 30)
	g.RecordUsage("cd", []string{"projects"}, "/home/user")

	sugg := g.Suggestions("cd", nil, 10)
	require.Len(t, sugg, 1)
	assert.Equal(t, "/home/user/projects", sugg[0].Text)
}

func TestRecordUsage_NavigationAliasesNormalize(t *testing.T) {
	g := New(10, 10, 30)
	g.RecordUsage("Set-Location", []string{"../sibling"}, "/home/user/projects")
	g.RecordUsage("chdir", []string{"."}, "/home/user")

	sugg := g.Suggestions("set-location", nil, 10)
	require.Len(t, sugg, 1)
	assert.Equal(t, "/home/user/sibling", sugg[0].Text)

	sugg = g.Suggestions("chdir", nil, 10)
	require.Len(t, sugg, 1)
	assert.Equal(t, "/home/user", sugg[0].Text)
}

func TestRecordUsage_NonNavigationArgumentNotNormalized(t *testing.T) {
	g := New(10, 10, 30)
	g.RecordUsage("git", []string{"checkout"}, "/home/user")

	sugg := g.Suggestions("git", nil, 10)
	require.Len(t, sugg, 1)
	assert.Equal(t, "checkout", sugg[0].Text)
}

func TestRecordUsage_TracksArgumentsAndCoOccurrence(t *testing.T) {
	g := New(10, 10, 30)
	g.RecordUsage("git", []string{"commit", "-m"}, "")

	sugg := g.Suggestions("git", nil, 10)
	require.Len(t, sugg, 2)

	var commit, flag *Suggestion
	for i := range sugg {
		switch sugg[i].Text {
		case "commit":
			commit = &sugg[i]
		case "-m":
			flag = &sugg[i]
		}
	}
	require.NotNil(t, commit)
	require.NotNil(t, flag)
	assert.False(t, commit.IsFlag)
	assert.True(t, flag.IsFlag)
	assert.Equal(t, uint64(1), commit.CoOccurrences["-m"])
	assert.Equal(t, uint64(1), flag.CoOccurrences["commit"])
}

func TestRecordUsage_NoSelfCoOccurrence(t *testing.T) {
	g := New(10, 10, 30)
	g.RecordUsage("echo", []string{"hi", "hi"}, "")

	sugg := g.Suggestions("echo", nil, 10)
	require.Len(t, sugg, 1)
	assert.Equal(t, uint64(0), sugg[0].CoOccurrences["hi"])
	assert.Equal(t, uint64(2), sugg[0].UsageCount)
}

func TestRecordUsage_FlagCombinationRequiresTwo(t *testing.T) {
	g := New(10, 10, 30)
	g.RecordUsage("ls", []string{"-l"}, "")
	g.RecordUsage("ls", []string{"-l", "-a"}, "")

	snap := g.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, uint64(1), snap[0].FlagCombinations["-l -a"])
	assert.Empty(t, snap[0].FlagCombinations["-l"])
}

func TestSuggestions_ExcludesAlreadyTyped(t *testing.T) {
	g := New(10, 10, 30)
	g.RecordUsage("git", []string{"commit"}, "")
	g.RecordUsage("git", []string{"push"}, "")

	sugg := g.Suggestions("git", []string{"COMMIT"}, 10)
	require.Len(t, sugg, 1)
	assert.Equal(t, "push", sugg[0].Text)
}

func TestSuggestions_CommandIsCaseInsensitive(t *testing.T) {
	g := New(10, 10, 30)
	g.RecordUsage("Git", []string{"status"}, "")

	sugg := g.Suggestions("git", nil, 10)
	require.Len(t, sugg, 1)
	assert.Equal(t, "status", sugg[0].Text)
}

func TestFrecency_ZeroTotalUsageIsZero(t *testing.T) {
	score := frecency(0, 0, time.Now(), time.Now(), 30)
	assert.Equal(t, 0.0, score)
}

func TestFrecency_SameDayClampsRecencyToOne(t *testing.T) {
	now := time.Now()
	score := frecency(1, 1, now, now, 30)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestArgumentEviction_LRUByLastUsed(t *testing.T) {
	g := New(10, 2, 30)
	g.RecordUsage("cmd", []string{"a"}, "")
	g.RecordUsage("cmd", []string{"b"}, "")
	// touch "a" again so "b" becomes least-recently-used
	g.RecordUsage("cmd", []string{"a"}, "")
	g.RecordUsage("cmd", []string{"c"}, "")

	sugg := g.Suggestions("cmd", nil, 10)
	texts := map[string]bool{}
	for _, s := range sugg {
		texts[s.Text] = true
	}
	assert.True(t, texts["a"])
	assert.True(t, texts["c"])
	assert.False(t, texts["b"])
}

func TestCommandEviction_LRUByLastUsed(t *testing.T) {
	g := New(2, 10, 30)
	g.RecordUsage("one", nil, "")
	g.RecordUsage("two", nil, "")
	g.RecordUsage("one", nil, "")
	g.RecordUsage("three", nil, "")

	assert.Equal(t, 2, g.CommandCount())
	assert.Empty(t, g.Suggestions("two", nil, 10))
}

func TestDeltaAndUpdateBaseline(t *testing.T) {
	g := New(10, 10, 30)
	g.RecordUsage("git", []string{"commit"}, "")
	g.RecordUsage("git", []string{"commit"}, "")

	assert.Equal(t, uint64(2), g.Delta("git", "commit"))

	g.UpdateBaseline()
	assert.Equal(t, uint64(0), g.Delta("git", "commit"))

	g.RecordUsage("git", []string{"commit"}, "")
	assert.Equal(t, uint64(1), g.Delta("git", "commit"))
}

func TestSnapshot_ReportsDeltas(t *testing.T) {
	g := New(10, 10, 30)
	g.RecordUsage("git", []string{"push"}, "")

	snap := g.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, uint64(1), snap[0].TotalUsageDelta)
	assert.Equal(t, uint64(1), snap[0].ArgumentDeltas["push"])
}

func TestInitializeCommandAndArgument_NoSpuriousDelta(t *testing.T) {
	g := New(10, 10, 30)
	now := time.Now()
	g.InitializeCommand("git", 5, now.Add(-time.Hour), now)
	g.InitializeArgument("git", Argument{Text: "push", UsageCount: 3, LastUsed: now})

	assert.Equal(t, uint64(0), g.Delta("git", "push"))

	g.RecordUsage("git", []string{"push"}, "")
	assert.Equal(t, uint64(1), g.Delta("git", "push"))
}
