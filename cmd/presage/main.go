// presage is the command-line interface of the presage dispatch engine.
//
// Usage:
//
//	presage <command> [flags]
//
// Commands:
//
//	init        Create a presage.yaml configuration file
//	config      Show or validate the configuration
//	inspect     Show the handler registrations of the task list
//	demo        Replay a script of task commands
//	todo        Manage an in-memory task list interactively
//	version     Show version information
//
// Examples:
//
//	# Create a configuration with metrics enabled
//	presage init --metrics --non-interactive
//
//	# Replay the built-in script
//	presage demo
//
//	# Replay a script with the settings of another file
//	presage demo tasks.yaml --config ./staging.yaml
package main

import (
	"os"

	"github.com/alightgoesout/presage/cli/commands"
)

// Build information (set via ldflags)
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.BuildDate = buildDate

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
