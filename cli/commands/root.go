// Package commands provides the CLI command implementations for presage.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alightgoesout/presage/cli/config"
	"github.com/alightgoesout/presage/cli/styles"
	"github.com/alightgoesout/presage/cli/ui"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// NewRootCommand creates the root command for the presage CLI
func NewRootCommand() *cobra.Command {
	var noColor bool

	rootCmd := &cobra.Command{
		Use:   "presage",
		Short: "Command and event dispatch for Go",
		Long: ui.SimpleBanner() + `

Presage runs commands through their handlers, writes the events they
produce and hands them to event handlers, which may issue new commands.
This CLI drives the task list example with the settings of presage.yaml.

` + styles.Title.Render("Quick Start:") + `

  ` + styles.Code.Render("presage init") + `           Create presage.yaml
  ` + styles.Code.Render("presage inspect") + `        Show the handler registrations
  ` + styles.Code.Render("presage demo") + `           Replay a task script
  ` + styles.Code.Render("presage todo") + `           Manage tasks interactively`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				styles.DisableColors()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().String("config", "", "Path to the configuration file (default: search for "+config.ConfigFileName+")")

	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewInspectCommand())
	rootCmd.AddCommand(NewDemoCommand())
	rootCmd.AddCommand(NewTodoCommand())
	rootCmd.AddCommand(NewVersionCommand(Version, Commit, BuildDate))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles.FormatError(err.Error()))
		return err
	}

	return nil
}

// loadConfig returns the configuration named by --config, the closest
// presage.yaml above the working directory, or the defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load %s: %w", path, err)
		}
		return cfg, path, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}

	dir, cfg, err := config.FindConfig(cwd)
	if err != nil {
		if os.IsNotExist(err) {
			return config.DefaultConfig(), "", nil
		}
		return nil, "", err
	}
	return cfg, filepath.Join(dir, config.ConfigFileName), nil
}
