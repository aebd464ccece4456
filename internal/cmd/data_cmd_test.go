package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/pscue/pscue/internal/kgraph"
	"github.com/pscue/pscue/internal/persistence"
)

func TestDataExport_WritesFullSnapshot(t *testing.T) {
	t.Setenv("PSCUE_HOME", t.TempDir())

	store, err := openDataStore()
	if err != nil {
		t.Fatalf("openDataStore: %v", err)
	}
	defer store.Close()

	g := kgraph.New(10, 10, 30)
	g.RecordUsage("git", []string{"commit"}, "")
	if err := store.SaveKnowledgeGraph(context.Background(), g.Snapshot()); err != nil {
		t.Fatalf("SaveKnowledgeGraph: %v", err)
	}

	snap, err := store.Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(snap.Commands) != 1 || snap.Commands[0].Command != "git" {
		t.Fatalf("expected 1 exported command %q, got %+v", "git", snap.Commands)
	}
}

func TestDataImport_ClearMode(t *testing.T) {
	t.Setenv("PSCUE_HOME", t.TempDir())

	store, err := openDataStore()
	if err != nil {
		t.Fatalf("openDataStore: %v", err)
	}
	defer store.Close()

	var buf bytes.Buffer
	snap := persistence.Snapshot{
		Commands: []persistence.SnapshotCommand{{Command: "npm", TotalUsage: 3}},
	}
	if err := json.NewEncoder(&buf).Encode(snap); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var decoded persistence.Snapshot
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := store.Import(context.Background(), &decoded, persistence.ImportClear); err != nil {
		t.Fatalf("Import: %v", err)
	}

	out, err := store.Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(out.Commands) != 1 || out.Commands[0].Command != "npm" {
		t.Fatalf("expected only npm after clear import, got %+v", out.Commands)
	}
}
