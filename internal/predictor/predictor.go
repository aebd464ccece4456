// Package predictor implements the generic predictor (GP): it tokenizes
// the current command line, delegates to the directory engine for
// navigation commands, and otherwise merges knowledge-graph argument
// suggestions with sequence-learner next-command predictions.
//
// The overall "tokenize, branch on navigation command, merge scored
// sources" shape is grounded on internal/suggestions/suggest/sources.go's
// QueryAllScopes and internal/suggestions/suggest/scorer.go's weighted
// merge, adapted from the session/cwd/global/ai source scopes to
// this spec's KG/DE/SL source scopes.
package predictor

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pscue/pscue/internal/directory"
	"github.com/pscue/pscue/internal/kgraph"
	"github.com/pscue/pscue/internal/sequence"
)

// navigationCommands are delegated to the directory engine.
var navigationCommands = map[string]bool{
	"cd":           true,
	"set-location": true,
	"sl":           true,
	"chdir":        true,
}

// Suggestion is a single ranked completion produced by the predictor.
type Suggestion struct {
	Text        string
	Description string
	Score       float64
}

// Input describes the current command-line state.
type Input struct {
	Text string
	CWD  string
}

// Tokenized holds the parsed command line.
type Tokenized struct {
	Command        string
	Args           []string
	ReadyForNewArg bool // true when Text ends in whitespace
}

// Tokenize splits input text by whitespace; a trailing space marks
// "ready for a new token".
func Tokenize(text string) Tokenized {
	ready := strings.HasSuffix(text, " ") || strings.HasSuffix(text, "\t")
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Tokenized{ReadyForNewArg: ready}
	}
	return Tokenized{Command: fields[0], Args: fields[1:], ReadyForNewArg: ready}
}

// WordBeingCompleted returns the token currently being typed (empty if the
// cursor is ready for a new token).
func (t Tokenized) WordBeingCompleted() string {
	if t.ReadyForNewArg || len(t.Args) == 0 {
		return ""
	}
	return t.Args[len(t.Args)-1]
}

// ArgsExcludingPartial returns the already-completed arguments, excluding
// the in-progress word being typed.
func (t Tokenized) ArgsExcludingPartial() []string {
	if t.ReadyForNewArg || len(t.Args) == 0 {
		return t.Args
	}
	return t.Args[:len(t.Args)-1]
}

// Predictor wires the knowledge graph, directory engine, and sequence
// learner together to produce ranked suggestions.
type Predictor struct {
	KG        *kgraph.Graph
	DE        *directory.Engine
	SL        *sequence.Table
	MaxResults int
}

// New creates a Predictor. MaxResults defaults to 10 if non-positive.
func New(kg *kgraph.Graph, de *directory.Engine, sl *sequence.Table, maxResults int) *Predictor {
	if maxResults <= 0 {
		maxResults = 10
	}
	return &Predictor{KG: kg, DE: de, SL: sl, MaxResults: maxResults}
}

// Suggest produces ranked completions for the current input. ctx is
// checked between pipeline stages so callers can cancel promptly; a
// cancelled context returns the best-so-far results rather than an error.
func (p *Predictor) Suggest(ctx context.Context, in Input) []Suggestion {
	tok := Tokenize(in.Text)
	if tok.Command == "" {
		return nil
	}

	if navigationCommands[strings.ToLower(tok.Command)] && p.DE != nil {
		return p.suggestDirectories(tok, in.CWD)
	}

	if ctx.Err() != nil {
		return nil
	}

	var out []Suggestion
	if p.KG != nil {
		out = append(out, p.argumentSuggestions(tok)...)
	}

	if ctx.Err() != nil {
		return finalize(out, p.MaxResults)
	}

	if len(tok.Args) == 0 {
		if p.SL != nil {
			out = append(out, p.nextCommandSuggestions(tok.Command)...)
		}
		out = append(out, p.commonNextStepSuggestions(tok.Command)...)
	}

	return finalize(out, p.MaxResults)
}

func (p *Predictor) suggestDirectories(tok Tokenized, cwd string) []Suggestion {
	word := tok.WordBeingCompleted()
	dirs := p.DE.Suggest(word, cwd)

	out := make([]Suggestion, 0, len(dirs))
	for _, d := range dirs {
		if d.Path == cwd {
			continue
		}
		score := d.Score
		switch d.MatchType {
		case directory.Learned:
			score = 0.85 + 0.15*clamp01(score/1000)
		case directory.Filesystem, directory.Prefix, directory.Exact:
			if score < 0.6 {
				score = 0.6
			}
		}
		out = append(out, Suggestion{
			Text:        d.DisplayPath,
			Description: d.Tooltip,
			Score:       clamp01(score / maxScoreFor(d.MatchType)),
		})
	}
	return out
}

func maxScoreFor(mt directory.MatchType) float64 {
	if mt == directory.WellKnown {
		return 1000
	}
	return 1
}

func (p *Predictor) argumentSuggestions(tok Tokenized) []Suggestion {
	word := strings.ToLower(tok.WordBeingCompleted())
	already := tok.ArgsExcludingPartial()

	sugg := p.KG.Suggestions(tok.Command, already, 0)
	out := make([]Suggestion, 0, len(sugg))
	for _, s := range sugg {
		if word != "" && !strings.HasPrefix(strings.ToLower(s.Text), word) {
			continue
		}
		out = append(out, Suggestion{
			Text:        s.Text,
			Description: tooltipFor(s),
			Score:       s.Score,
		})
	}
	return out
}

func (p *Predictor) nextCommandSuggestions(currentCommand string) []Suggestion {
	preds := p.SL.Predict([]string{currentCommand}, 5)
	out := make([]Suggestion, 0, len(preds))
	for _, pr := range preds {
		if !strings.HasPrefix(pr.Command, currentCommand) {
			continue
		}
		out = append(out, Suggestion{
			Text:  pr.Command,
			Score: clamp01(0.9 * pr.Score),
		})
	}
	return out
}

// commonNextSteps lists the subcommands most users reach for right after
// typing a bare command. Suggest adds these entries for every bare command
// in the table, whatever sequence-learner history it has. Modeled on
// the category-grouped static command table of
// internal/suggestions/normalize/tags.go, adapted from semantic tagging to
// ranked subcommand suggestions.
var commonNextSteps = map[string][]string{
	"git":       {"status", "add", "commit", "push", "pull", "checkout"},
	"docker":    {"ps", "build", "run", "compose"},
	"npm":       {"install", "run", "test", "start"},
	"yarn":      {"install", "add", "run"},
	"pnpm":      {"install", "run", "add"},
	"kubectl":   {"get", "apply", "describe", "logs"},
	"go":        {"build", "test", "run", "mod"},
	"cargo":     {"build", "run", "test"},
	"make":      {"build", "test", "clean"},
	"terraform": {"plan", "apply", "init"},
	"gh":        {"pr", "issue", "repo"},
}

// commonNextStepSuggestions returns the hardcoded common-next-step table
// entries for currentCommand, each scored 0.85, as a source of subcommand
// suggestions alongside the sequence learner.
func (p *Predictor) commonNextStepSuggestions(currentCommand string) []Suggestion {
	subs, ok := commonNextSteps[strings.ToLower(currentCommand)]
	if !ok {
		return nil
	}
	out := make([]Suggestion, 0, len(subs))
	for _, sub := range subs {
		out = append(out, Suggestion{
			Text:  currentCommand + " " + sub,
			Score: 0.85,
		})
	}
	return out
}

func tooltipFor(s kgraph.Suggestion) string {
	var b strings.Builder
	b.WriteString("used ")
	b.WriteString(strconv.FormatUint(s.UsageCount, 10))
	b.WriteString("x")
	if !s.LastUsed.IsZero() {
		b.WriteString(", ")
		b.WriteString(humanize.Time(s.LastUsed))
	}
	var coOccur string
	var topCount uint64
	for other, count := range s.CoOccurrences {
		if count > topCount {
			topCount = count
			coOccur = other
		}
	}
	if coOccur != "" {
		b.WriteString(", often with ")
		b.WriteString(coOccur)
	}
	return b.String()
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

func finalize(out []Suggestion, max int) []Suggestion {
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return strings.HasPrefix(out[i].Text, "-") && !strings.HasPrefix(out[j].Text, "-")
	})
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}
