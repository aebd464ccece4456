package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pscue/pscue/internal/config"
	"github.com/pscue/pscue/internal/persistence"
)

var (
	dataExportFile string
	dataImportFile string
	dataImportMode string
)

var dataCmd = &cobra.Command{
	Use:     "data",
	Short:   "Export or import the learned store as a JSON snapshot",
	GroupID: groupSetup,
	Long: `Export or import the learned store as a JSON snapshot.

A snapshot is a full copy of every table: commands, arguments,
co-occurrences, flag combinations, command sequences, workflow
transitions, and history. Use it to migrate between machines or back up
before an upgrade.

Subcommands:
  export  Write a JSON snapshot of the database
  import  Load a JSON snapshot into the database`,
}

var dataExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a JSON snapshot of the database",
	RunE:  runDataExport,
}

var dataImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a JSON snapshot into the database",
	Long: `Load a JSON snapshot into the database.

--mode=clear wipes every table before loading the snapshot, so the
database ends up containing exactly the snapshot's rows. --mode=merge
(the default) additively folds the snapshot into whatever is already
stored, using the same upsert rules as a normal save.`,
	RunE: runDataImport,
}

func init() {
	dataExportCmd.Flags().StringVar(&dataExportFile, "file", "", "write the snapshot here instead of stdout")
	dataImportCmd.Flags().StringVar(&dataImportFile, "file", "", "read the snapshot from here instead of stdin")
	dataImportCmd.Flags().StringVar(&dataImportMode, "mode", "merge", "clear or merge")

	dataCmd.AddCommand(dataExportCmd)
	dataCmd.AddCommand(dataImportCmd)
}

func openDataStore() (*persistence.Store, error) {
	paths := config.DefaultPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("create directories: %w", err)
	}
	store, err := persistence.Open(paths.DatabaseFile())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return store, nil
}

func runDataExport(_ *cobra.Command, _ []string) error {
	store, err := openDataStore()
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Export(context.Background())
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}

	out := os.Stdout
	if dataExportFile != "" {
		f, err := os.Create(dataExportFile)
		if err != nil {
			return fmt.Errorf("create %s: %w", dataExportFile, err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func runDataImport(_ *cobra.Command, _ []string) error {
	var mode persistence.ImportMode
	switch dataImportMode {
	case "clear":
		mode = persistence.ImportClear
	case "merge":
		mode = persistence.ImportMerge
	default:
		return fmt.Errorf("unknown import mode %q (want clear or merge)", dataImportMode)
	}

	in := os.Stdin
	if dataImportFile != "" {
		f, err := os.Open(dataImportFile)
		if err != nil {
			return fmt.Errorf("open %s: %w", dataImportFile, err)
		}
		defer f.Close()
		in = f
	}

	var snap persistence.Snapshot
	if err := json.NewDecoder(in).Decode(&snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	store, err := openDataStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Import(context.Background(), &snap, mode); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}

	fmt.Printf("%simported%s snapshot (mode=%s)\n", colorGreen, colorReset, dataImportMode)
	return nil
}
