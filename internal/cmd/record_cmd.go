package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pscue/pscue/internal/config"
	"github.com/pscue/pscue/internal/engine"
	"github.com/pscue/pscue/internal/persistence"
)

var recordSuccess bool
var recordCwd string

var recordCmd = &cobra.Command{
	Use:   "record <command-line>",
	Short: "Record an executed command into the learned store",
	GroupID: groupCore,
	Long: `Record one executed command directly into the durable store.

This is the entry point an external shell integration (out of scope for
this tool) would call after every command; it writes straight to the
database rather than through the running daemon; a running daemon sees it
only after it restarts and loads the database again.

Examples:
  pscue record "git commit -m fix"
  pscue record --success=false "make test"`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().BoolVar(&recordSuccess, "success", true, "whether the command exited successfully")
	recordCmd.Flags().StringVar(&recordCwd, "cwd", "", "working directory the command ran in")
}

func runRecord(_ *cobra.Command, args []string) error {
	line := strings.TrimSpace(args[0])
	if line == "" {
		return fmt.Errorf("empty command line")
	}
	fields := strings.Fields(line)
	command := fields[0]
	cmdArgs := fields[1:]

	paths := config.DefaultPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	cfg, warnings, err := config.LoadFromFile(paths.ConfigFile())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	for _, w := range warnings {
		fmt.Printf("%swarning:%s %s: %s\n", colorYellow, colorReset, w.Field, w.Reason)
	}

	store, err := persistence.Open(paths.DatabaseFile())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	eng := engine.New(cfg, store, nil)
	ctx := context.Background()
	eng.Load(ctx)
	eng.RecordCommand(command, line, cmdArgs, recordSuccess, recordCwd, time.Now())
	eng.Save(ctx)

	fmt.Printf("recorded: %s (success=%s)\n", line, strconv.FormatBool(recordSuccess))
	return nil
}
