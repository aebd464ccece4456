package predictor

import (
	"context"
	"testing"
	"time"

	"github.com/pscue/pscue/internal/kgraph"
	"github.com/pscue/pscue/internal/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_TrailingSpaceMeansReady(t *testing.T) {
	tok := Tokenize("git commit ")
	assert.True(t, tok.ReadyForNewArg)
	assert.Equal(t, "git", tok.Command)
	assert.Equal(t, "", tok.WordBeingCompleted())
}

func TestTokenize_PartialWord(t *testing.T) {
	tok := Tokenize("git comm")
	assert.False(t, tok.ReadyForNewArg)
	assert.Equal(t, "comm", tok.WordBeingCompleted())
	assert.Empty(t, tok.ArgsExcludingPartial())
}

func TestSuggest_ArgumentSuggestionsFilteredByPrefix(t *testing.T) {
	kg := kgraph.New(10, 10, 30)
	kg.RecordUsage("git", []string{"commit"}, "")
	kg.RecordUsage("git", []string{"checkout"}, "")

	p := New(kg, nil, nil, 10)
	out := p.Suggest(context.Background(), Input{Text: "git com"})

	require.Len(t, out, 1)
	assert.Equal(t, "commit", out[0].Text)
}

func TestSuggest_NextCommandFromSequenceLearner(t *testing.T) {
	kg := kgraph.New(10, 10, 30)
	sl := sequence.New(1, 30)
	sl.RecordTransition("git", "git-flow", time.Now())

	p := New(kg, nil, sl, 10)
	out := p.Suggest(context.Background(), Input{Text: "git"})

	var found bool
	for _, s := range out {
		if s.Text == "git-flow" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSuggest_CommonNextStepForKnownCommand(t *testing.T) {
	p := New(nil, nil, nil, 10)
	out := p.Suggest(context.Background(), Input{Text: "git"})

	var found bool
	for _, s := range out {
		if s.Text == "git commit" {
			found = true
			assert.InDelta(t, 0.85, s.Score, 1e-9)
		}
	}
	assert.True(t, found)
}

func TestSuggest_CommonNextStepAbsentForUnknownCommand(t *testing.T) {
	p := New(nil, nil, nil, 10)
	out := p.Suggest(context.Background(), Input{Text: "frobnicate"})
	assert.Empty(t, out)
}

func TestSuggest_EmptyCommandReturnsNil(t *testing.T) {
	p := New(nil, nil, nil, 10)
	assert.Empty(t, p.Suggest(context.Background(), Input{Text: "  "}))
}

func TestSuggest_CancelledContextReturnsBestSoFar(t *testing.T) {
	kg := kgraph.New(10, 10, 30)
	kg.RecordUsage("git", []string{"commit"}, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(kg, nil, nil, 10)
	out := p.Suggest(ctx, Input{Text: "git com"})
	assert.Empty(t, out)
}
