package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pscue/pscue/internal/ipc"
	"github.com/pscue/pscue/internal/predictor"
	"github.com/pscue/pscue/internal/transport"
)

// Command group IDs
const (
	groupCore  = "core"
	groupSetup = "setup"
)

var rootCmd = &cobra.Command{
	Use:   "pscue [input line]",
	Short: "learning command-line prediction engine",
	Long: `pscue - a learning command-line prediction engine

Run with a single argument (the input line typed so far) to print ranked
completions, one per line, on stdout:

  pscue "git com"

Subcommands manage the background daemon and its configuration.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runComplete,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupCore, Title: "Core Commands:"},
		&cobra.Group{ID: groupSetup, Title: "Setup & Configuration:"},
	)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(versionCmd)
}

// runComplete implements the standalone CLI surface: a single positional
// argument (the input line), exit 0 on success, 1 on usage or error,
// suggestion texts on stdout, errors on stderr.
func runComplete(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected one argument: the input line")
	}
	line := args[0]

	if err := ipc.EnsureDaemon(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	client, err := ipc.Dial(transport.NewUnixTransport(""), ipc.DialTimeout)
	if err != nil {
		return fmt.Errorf("connect to daemon: %w", err)
	}
	defer client.Close()

	tok := predictor.Tokenize(line)
	ctx, cancel := context.WithTimeout(context.Background(), ipc.SuggestTimeout)
	defer cancel()

	resp, err := client.Complete(ctx, ipc.CompletionRequest{
		Command:        tok.Command,
		CommandLine:    line,
		WordToComplete: tok.WordBeingCompleted(),
	})
	if err != nil {
		return fmt.Errorf("get suggestions: %w", err)
	}

	word := strings.ToLower(tok.WordBeingCompleted())
	for _, c := range resp.Completions {
		if word != "" && !strings.HasPrefix(strings.ToLower(c.Text), word) {
			continue
		}
		fmt.Fprintln(os.Stdout, c.Text)
	}
	return nil
}
