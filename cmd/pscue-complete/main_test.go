package main

import (
	"testing"

	"github.com/pscue/pscue/internal/ipc"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name string
		args []string
		ok   bool
		want ipc.CompletionRequest
	}{
		{
			name: "too few args",
			args: []string{"git"},
			ok:   false,
		},
		{
			name: "command and line only",
			args: []string{"git", "git com"},
			ok:   true,
			want: ipc.CompletionRequest{Command: "git", CommandLine: "git com"},
		},
		{
			name: "with partial word",
			args: []string{"git", "git com", "com"},
			ok:   true,
			want: ipc.CompletionRequest{Command: "git", CommandLine: "git com", WordToComplete: "com"},
		},
		{
			name: "with dynamic flag",
			args: []string{"git", "git checkout ", "", "true"},
			ok:   true,
			want: ipc.CompletionRequest{Command: "git", CommandLine: "git checkout ", IncludeDynamicArguments: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseRequest(tt.args)
			if ok != tt.ok {
				t.Fatalf("parseRequest(%v) ok = %v, want %v", tt.args, ok, tt.ok)
			}
			if !ok {
				return
			}
			if got != tt.want {
				t.Errorf("parseRequest(%v) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

func TestFilterByWord(t *testing.T) {
	items := []ipc.CompletionItem{
		{Text: "commit"},
		{Text: "checkout"},
		{Text: "push"},
	}

	got := filterByWord(items, "com")
	if len(got) != 1 || got[0].Text != "commit" {
		t.Errorf("filterByWord(items, %q) = %v, want [commit]", "com", got)
	}

	got = filterByWord(items, "")
	if len(got) != 3 {
		t.Errorf("filterByWord with empty word should return all items, got %v", got)
	}

	got = filterByWord(items, "COM")
	if len(got) != 1 || got[0].Text != "commit" {
		t.Errorf("filterByWord should be case-insensitive, got %v", got)
	}
}
