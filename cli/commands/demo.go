package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alightgoesout/presage/cli/styles"
	"github.com/alightgoesout/presage/cli/ui"
	"github.com/alightgoesout/presage/examples/todo"
)

// NewDemoCommand creates the demo command
func NewDemoCommand() *cobra.Command {
	var animate bool

	cmd := &cobra.Command{
		Use:   "demo [script.yaml]",
		Short: "Replay a script of task commands",
		Long: `Replay a script of task commands against an in-memory task list, then
print the resulting tasks. Logging, metrics and tracing follow presage.yaml.

Without a script, a built-in one is replayed.

Examples:
  presage demo
  presage demo tasks.yaml
  presage demo --config ./presage.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if problems := cfg.Validate(); len(problems) > 0 {
				return fmt.Errorf("invalid configuration: %s", problems[0])
			}

			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			script, err := LoadScript(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rt, err := newTaskRuntime(cfg, cmd.ErrOrStderr(), out)
			if err != nil {
				return err
			}
			defer rt.Close(context.Background())

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if animate {
				err = replayWithSpinner(ctx, rt.app, script)
			} else {
				err = replay(ctx, rt.app, script, out)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(out, ui.Divider(dividerWidth))
			printTasks(out, rt.app)

			samples, err := rt.gatherMetrics()
			if err != nil {
				return err
			}
			if len(samples) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, styles.Subtitle.Render("Metrics"))
				table := ui.NewTable("Metric", "Labels", "Value")
				for _, s := range samples {
					table.AddRow(s.Name, s.Labels, s.Value)
				}
				fmt.Fprintln(out, table.Render())
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&animate, "animate", false, "Show a spinner instead of the step list")

	return cmd
}

const dividerWidth = 48

// replay executes every step, printing each one. It stops at the first failure.
func replay(ctx context.Context, app *todo.App, script *Script, out io.Writer) error {
	total := len(script.Steps)
	for i, step := range script.Steps {
		line := step.Command
		if step.Task != "" {
			line += " " + styles.Muted.Render(step.Task)
		}

		if err := runStep(ctx, app, step); err != nil {
			fmt.Fprintln(out, styles.FormatStep(i+1, total, line)+" "+styles.ErrorStyle.Render(styles.IconError))
			return fmt.Errorf("step %d (%s): %w", i+1, step.Command, err)
		}
		fmt.Fprintln(out, styles.FormatStep(i+1, total, line)+" "+styles.SuccessStyle.Render(styles.IconSuccess))
	}
	return nil
}

func replayWithSpinner(ctx context.Context, app *todo.App, script *Script) error {
	p := tea.NewProgram(ui.NewSpinner(fmt.Sprintf("Replaying %d commands...", len(script.Steps))))

	var replayErr error
	go func() {
		replayErr = replay(ctx, app, script, io.Discard)
		if replayErr != nil {
			p.Send(ui.SpinnerDoneMsg{Result: "Replay failed", Err: replayErr})
			return
		}
		p.Send(ui.SpinnerDoneMsg{Result: fmt.Sprintf("Replayed %d commands", len(script.Steps))})
	}()

	model, err := p.Run()
	if err != nil {
		return err
	}
	if model.(ui.SpinnerModel).Cancelled() {
		return fmt.Errorf("replay cancelled")
	}
	return replayErr
}

func runStep(ctx context.Context, app *todo.App, step Step) error {
	cmd, err := step.TaskCommand(time.Now().UTC())
	if err != nil {
		return err
	}
	return app.Execute(ctx, cmd)
}

// printTasks prints the summary and the visible and archived tasks.
func printTasks(out io.Writer, app *todo.App) {
	fmt.Fprintln(out, styles.Title.Render(app.Summary().String()))

	visible := app.ListVisible()
	if len(visible) == 0 {
		fmt.Fprintln(out, styles.Muted.Render("No tasks"))
	} else {
		fmt.Fprintln(out, taskTable(visible).Render())
	}

	if archived := app.ListArchived(); len(archived) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, styles.Subtitle.Render("Archive"))
		fmt.Fprintln(out, taskTable(archived).Render())
	}
}

func taskTable(tasks []*todo.Task) *ui.Table {
	table := ui.NewTable("Task", "Status", "Done", "Archived")
	for _, task := range tasks {
		state := task.State()
		table.AddRow(task.Name(), ui.StatusBadge(state.Status.String()), formatDate(state.DoneDate), formatDate(state.ArchivedDate))
	}
	return table
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
