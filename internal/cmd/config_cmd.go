package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pscue/pscue/internal/config"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Show the effective configuration",
	GroupID: groupSetup,
	Long: `Show the configuration pscue is running with: defaults, overridden by
the YAML file at the default config path, overridden by PSCUE_* environment
variables.

Examples:
  pscue config`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(_ *cobra.Command, _ []string) error {
	paths := config.DefaultPaths()
	cfg, warnings, err := config.LoadFromFile(paths.ConfigFile())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	for _, w := range warnings {
		fmt.Printf("%swarning:%s %s: %s\n", colorYellow, colorReset, w.Field, w.Reason)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Printf("# %s\n", paths.ConfigFile())
	fmt.Print(string(out))
	return nil
}
