// Package fusion implements rank fusion (RF): merging known completions,
// generic-predictor suggestions, and workflow-learner suggestions into a
// single deduplicated, capped, ordered list, plus the fold rule for
// building the final insertable text.
//
// The three-stream merge-by-key-with-score-max pattern is grounded on
// internal/suggestions/suggest/sources.go's QueryAllScopes, which merges
// session/cwd/global/ai scopes the same way: by lowercase key, taking the
// higher score on collision.
package fusion

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Item is a single candidate suggestion going into the fusion merge.
type Item struct {
	Text    string
	Tooltip string
	Score   float64
}

const (
	gpBoost = 1.2
	wlBoost = 1.3
	topN    = 10
)

// Merge combines known completions (pre-sorted, scored 1.0-0.05*i), GP
// learned suggestions, and WL workflow suggestions into a ranked list of at
// most 10 items.
func Merge(known []string, knownTooltips []string, gp []Item, wl []Item) []Item {
	merged := make(map[string]*Item)
	order := make([]string, 0, len(known)+len(gp)+len(wl))

	addOrBoost := func(text, tooltip string, score, boost float64) {
		k := strings.ToLower(text)
		if existing, ok := merged[k]; ok {
			newScore := existing.Score
			if score > newScore {
				newScore = score
			}
			newScore *= boost
			if newScore > 1 {
				newScore = 1
			}
			existing.Score = newScore
			if tooltip != "" {
				if existing.Tooltip != "" {
					existing.Tooltip += "; " + tooltip
				} else {
					existing.Tooltip = tooltip
				}
			}
			return
		}
		merged[k] = &Item{Text: text, Tooltip: tooltip, Score: score}
		order = append(order, k)
	}

	for i, text := range known {
		tooltip := ""
		if i < len(knownTooltips) {
			tooltip = knownTooltips[i]
		}
		score := 1.0 - 0.05*float64(i)
		if score < 0 {
			score = 0
		}
		addOrBoost(text, tooltip, score, 1.0)
	}
	for _, item := range gp {
		addOrBoost(item.Text, item.Tooltip, item.Score, gpBoost)
	}
	for _, item := range wl {
		addOrBoost(item.Text, item.Tooltip, item.Score, wlBoost)
	}

	out := make([]Item, 0, len(order))
	for _, k := range order {
		out = append(out, *merged[k])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

var (
	windowsDrivePattern = regexp.MustCompile(`^[A-Za-z]:`)
)

func isAbsolutePath(s string) bool {
	if windowsDrivePattern.MatchString(s) || strings.HasPrefix(s, `\\`) {
		return true
	}
	return filepath.IsAbs(s)
}

// FoldInsertText builds the final text to insert given the full input span
// I and a chosen completion c.
func FoldInsertText(inputSpan, completion string) string {
	ls := strings.LastIndex(inputSpan, " ")
	lw := inputSpan[ls+1:]

	if strings.Contains(completion, " ") {
		firstTok := completion
		if sp := strings.Index(completion, " "); sp >= 0 {
			firstTok = completion[:sp]
		}
		if strings.HasPrefix(firstTok, lw) {
			return inputSpan[:ls+1] + completion
		}
	}
	if strings.HasPrefix(completion, lw) {
		return inputSpan[:ls+1] + completion
	}
	if isAbsolutePath(completion) && ls >= 0 {
		return inputSpan[:ls+1] + completion
	}
	return inputSpan + " " + completion
}
