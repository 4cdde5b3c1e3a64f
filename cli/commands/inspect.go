package commands

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alightgoesout/presage"
	"github.com/alightgoesout/presage/cli/styles"
	"github.com/alightgoesout/presage/cli/ui"
	"github.com/alightgoesout/presage/examples/todo"
)

// NewInspectCommand creates the inspect command
func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show the handler registrations of the task list",
		Long: `Show the commands and events registered in the task list configuration:
which commands have a handler, which events are written and how many event
handlers react to each event.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg := todo.Configuration()

			fmt.Fprintln(out, styles.Title.Render("Commands"))
			fmt.Fprintln(out, commandTable(cfg).Render())
			fmt.Fprintln(out, ui.Divider(dividerWidth))
			fmt.Fprintln(out, styles.Title.Render("Events"))
			fmt.Fprintln(out, eventTable(cfg).Render())

			if unwritten := unwrittenEvents(cfg); len(unwritten) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, styles.FormatWarning("Events handled but never persisted:"))
				fmt.Fprint(out, ui.ListItems(unwritten))
			}
			return nil
		},
	}
}

func commandTable[C any](cfg *presage.Configuration[C]) *ui.Table {
	table := ui.NewTable("Command", "Handler")
	for _, name := range cfg.CommandNames() {
		table.AddRow(name, ui.StatusBadge("ok"))
	}
	return table
}

func eventTable[C any](cfg *presage.Configuration[C]) *ui.Table {
	table := ui.NewTable("Event", "Writer", "Handlers")
	for _, name := range eventNames(cfg) {
		writer := "unwritten"
		if cfg.HasEventWriter(name) {
			writer = "written"
		}
		table.AddRow(name, ui.StatusBadge(writer), strconv.Itoa(cfg.EventHandlerCount(name)))
	}
	return table
}

// eventNames returns every event name known to the configuration, sorted.
func eventNames[C any](cfg *presage.Configuration[C]) []string {
	seen := make(map[string]bool)
	var names []string
	for _, name := range append(cfg.WrittenEventNames(), cfg.HandledEventNames()...) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func unwrittenEvents[C any](cfg *presage.Configuration[C]) []string {
	var names []string
	for _, name := range cfg.HandledEventNames() {
		if !cfg.HasEventWriter(name) {
			names = append(names, name)
		}
	}
	return names
}
