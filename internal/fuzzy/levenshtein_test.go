package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, LevenshteinDistance("", ""))
	assert.Equal(t, 3, LevenshteinDistance("", "abc"))
	assert.Equal(t, 3, LevenshteinDistance("abc", ""))
	assert.Equal(t, 0, LevenshteinDistance("commit", "commit"))
	assert.Equal(t, 1, LevenshteinDistance("commit", "comit"))
}

func TestDamerauLevenshteinDistance_Transposition(t *testing.T) {
	// A single adjacent transposition costs 1 under Damerau-Levenshtein,
	// but 2 under plain Levenshtein.
	assert.Equal(t, 1, DamerauLevenshteinDistance("checkotu", "checkout"))
	assert.Equal(t, 2, LevenshteinDistance("checkotu", "checkout"))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("same", "same"))
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.InDelta(t, 0.83, Similarity("commit", "commti"), 0.01)
}

func TestLCSLength(t *testing.T) {
	assert.Equal(t, 0, LCSLength("", "abc"))
	assert.Equal(t, 3, LCSLength("abc", "abc"))
	assert.Equal(t, 2, LCSLength("gti", "git"))
}
