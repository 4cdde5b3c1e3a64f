package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/alightgoesout/presage"
	"github.com/alightgoesout/presage/cli/styles"
	"github.com/alightgoesout/presage/cli/ui"
	"github.com/alightgoesout/presage/examples/todo"
)

const (
	menuNew      = "new"
	menuEdit     = "edit"
	menuArchived = "archived"
	menuDelete   = "delete"
	menuQuit     = "quit"
)

// taskAction is an edit applied to a single task.
type taskAction string

const (
	actionRename  taskAction = "rename"
	actionCheck   taskAction = "check"
	actionArchive taskAction = "archive"
	actionBack    taskAction = "back"
)

// NewTodoCommand creates the interactive todo command
func NewTodoCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "todo",
		Short: "Manage an in-memory task list interactively",
		Long: `Manage an in-memory task list from a menu. Every change is a command
executed on the command bus; the list is lost on exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logs := io.Discard
			if verbose {
				logs = cmd.ErrOrStderr()
			}
			rt, err := newTaskRuntime(cfg, logs, io.Discard)
			if err != nil {
				return err
			}
			defer rt.Close(context.Background())

			err = runTodo(cmd.Context(), rt.app, cmd.OutOrStdout())
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print dispatch logs to stderr")

	return cmd
}

func runTodo(ctx context.Context, app *todo.App, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTaskList(app))

		choice, err := selectMenu(app)
		if err != nil {
			return err
		}

		switch choice {
		case menuNew:
			var name string
			if err := promptName("New task", "", &name); err != nil {
				return err
			}
			report(out, app.Execute(ctx, todo.CreateTask{ID: todo.NewTaskID(), Name: name}))

		case menuEdit:
			if err := editTask(ctx, app, out); err != nil {
				return err
			}

		case menuArchived:
			archived := app.ListArchived()
			if len(archived) == 0 {
				fmt.Fprintln(out, styles.Muted.Render("No archived tasks"))
				continue
			}
			fmt.Fprintln(out, styles.Subtitle.Render("Archive"))
			fmt.Fprint(out, ui.ListItems(taskNames(archived)))

		case menuDelete:
			confirmed := false
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title(fmt.Sprintf("Delete %d archived task(s)?", app.Summary().Archived)).
						Value(&confirmed),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}
			if confirmed {
				report(out, app.Execute(ctx, todo.DeleteArchivedTasks{}))
			}

		case menuQuit:
			return nil
		}
	}
}

func selectMenu(app *todo.App) (string, error) {
	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("What do you want to do?").
				Options(menuOptions(app.Summary())...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return choice, nil
}

// menuOptions lists the main menu entries that make sense for the summary.
func menuOptions(summary todo.Summary) []huh.Option[string] {
	options := []huh.Option[string]{huh.NewOption("New task", menuNew)}
	if summary.New+summary.Done > 0 {
		options = append(options, huh.NewOption("Edit task", menuEdit))
	}
	if summary.Archived > 0 {
		options = append(options,
			huh.NewOption("List archived tasks", menuArchived),
			huh.NewOption("Delete archived tasks", menuDelete),
		)
	}
	return append(options, huh.NewOption("Quit", menuQuit))
}

func editTask(ctx context.Context, app *todo.App, out io.Writer) error {
	tasks := app.ListVisible()
	if len(tasks) == 0 {
		return nil
	}

	options := make([]huh.Option[int], len(tasks))
	for i, task := range tasks {
		options[i] = huh.NewOption(task.Name(), i)
	}

	var index int
	var action taskAction
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Task").
				Options(options...).
				Value(&index),
		),
		huh.NewGroup(
			huh.NewSelect[taskAction]().
				Title("Action").
				OptionsFunc(func() []huh.Option[taskAction] {
					return actionOptions(tasks[index])
				}, &index).
				Value(&action),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	task := tasks[index]
	var name string
	if action == actionRename {
		if err := promptName("Rename task", task.Name(), &name); err != nil {
			return err
		}
	}

	cmd := action.command(task, name, time.Now().UTC())
	if cmd == nil {
		return nil
	}
	report(out, app.Execute(ctx, cmd))
	return nil
}

// taskActions returns the actions allowed for the task in its current state.
func taskActions(task *todo.Task) []taskAction {
	actions := []taskAction{actionRename}
	switch task.State().Status {
	case todo.StatusNew:
		actions = append(actions, actionCheck)
	case todo.StatusDone:
		actions = append(actions, actionArchive)
	}
	return append(actions, actionBack)
}

func actionOptions(task *todo.Task) []huh.Option[taskAction] {
	actions := taskActions(task)
	options := make([]huh.Option[taskAction], len(actions))
	for i, action := range actions {
		options[i] = huh.NewOption(action.label(), action)
	}
	return options
}

func (a taskAction) label() string {
	switch a {
	case actionRename:
		return "Rename"
	case actionCheck:
		return "Mark as done"
	case actionArchive:
		return "Archive"
	default:
		return "Back"
	}
}

// command returns the command performing the action, or nil for actionBack.
func (a taskAction) command(task *todo.Task, name string, now time.Time) presage.Command {
	switch a {
	case actionRename:
		return todo.RenameTask{ID: task.ID(), Name: name}
	case actionCheck:
		return todo.CheckTask{ID: task.ID(), Date: now}
	case actionArchive:
		return todo.ArchiveTask{ID: task.ID(), Date: now}
	default:
		return nil
	}
}

func promptName(title, current string, name *string) error {
	*name = current
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Value(name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}),
		),
	)
	return form.Run()
}

// renderTaskList renders the summary followed by the visible tasks.
func renderTaskList(app *todo.App) string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(app.Summary().String()))
	sb.WriteString("\n")

	tasks := app.ListVisible()
	if len(tasks) == 0 {
		sb.WriteString(styles.Muted.Render("Nothing to do"))
		sb.WriteString("\n")
		return sb.String()
	}

	done := make([]bool, len(tasks))
	for i, task := range tasks {
		done[i] = task.State().Status == todo.StatusDone
	}
	sb.WriteString(ui.Checklist(taskNames(tasks), done))
	return sb.String()
}

func taskNames(tasks []*todo.Task) []string {
	names := make([]string, len(tasks))
	for i, task := range tasks {
		names[i] = task.Name()
	}
	return names
}

func report(out io.Writer, err error) {
	if err != nil {
		fmt.Fprintln(out, styles.FormatError(err.Error()))
	}
}
