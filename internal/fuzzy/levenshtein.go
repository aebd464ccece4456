// Package fuzzy provides edit-distance and similarity scoring used by the
// directory engine's fuzzy-match stage.
//
// Adapted directly from internal/suggestions/typo/levenshtein.go: same
// two-row Levenshtein and full-matrix Damerau-Levenshtein implementations,
// plus a longest-common-subsequence helper the directory engine needs for
// its length-gated fuzzy threshold.
package fuzzy

// LevenshteinDistance computes the Levenshtein edit distance between two
// strings: the minimum number of single-character insertions, deletions, or
// substitutions to change one into the other.
func LevenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	runesA := []rune(a)
	runesB := []rune(b)

	prev := make([]int, len(runesB)+1)
	curr := make([]int, len(runesB)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(runesA); i++ {
		curr[0] = i

		for j := 1; j <= len(runesB); j++ {
			cost := 0
			if runesA[i-1] != runesB[j-1] {
				cost = 1
			}
			curr[j] = min3(
				prev[j]+1,
				curr[j-1]+1,
				prev[j-1]+cost,
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(runesB)]
}

// DamerauLevenshteinDistance is Levenshtein distance extended with adjacent
// transpositions as a single edit.
func DamerauLevenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	runesA := []rune(a)
	runesB := []rune(b)
	lenA, lenB := len(runesA), len(runesB)

	d := make([][]int, lenA+1)
	for i := range d {
		d[i] = make([]int, lenB+1)
	}
	for i := 0; i <= lenA; i++ {
		d[i][0] = i
	}
	for j := 0; j <= lenB; j++ {
		d[0][j] = j
	}

	for i := 1; i <= lenA; i++ {
		for j := 1; j <= lenB; j++ {
			cost := 0
			if runesA[i-1] != runesB[j-1] {
				cost = 1
			}
			d[i][j] = min3(
				d[i-1][j]+1,
				d[i][j-1]+1,
				d[i-1][j-1]+cost,
			)
			if i > 1 && j > 1 && runesA[i-1] == runesB[j-2] && runesA[i-2] == runesB[j-1] {
				d[i][j] = min(d[i][j], d[i-2][j-2]+cost)
			}
		}
	}

	return d[lenA][lenB]
}

// Similarity returns a 0..1 score derived from Damerau-Levenshtein distance.
// 1.0 means identical, 0.0 means maximally different.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	distance := DamerauLevenshteinDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}

// LCSLength returns the length of the longest common subsequence of a and b.
func LCSLength(a, b string) int {
	runesA := []rune(a)
	runesB := []rune(b)
	lenA, lenB := len(runesA), len(runesB)

	dp := make([][]int, lenA+1)
	for i := range dp {
		dp[i] = make([]int, lenB+1)
	}
	for i := 1; i <= lenA; i++ {
		for j := 1; j <= lenB; j++ {
			if runesA[i-1] == runesB[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}
	return dp[lenA][lenB]
}

func min3(a, b, c int) int { return min(a, min(b, c)) }
