package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alightgoesout/presage"
	"github.com/alightgoesout/presage/cli/config"
	"github.com/alightgoesout/presage/examples/todo"
)

// ============================================================================
// Test Helpers
// ============================================================================

// configOption is a function that modifies a config
type configOption func(*config.Config)

func withCodec(codec string) configOption {
	return func(c *config.Config) {
		c.Dispatch.Codec = codec
	}
}

func withMetrics() configOption {
	return func(c *config.Config) {
		c.Metrics.Enabled = true
	}
}

func withTracing(exporter string) configOption {
	return func(c *config.Config) {
		c.Tracing.Enabled = true
		c.Tracing.Exporter = exporter
	}
}

// writeConfig saves a configuration in a temporary directory and returns its path.
func writeConfig(t *testing.T, opts ...configOption) string {
	t.Helper()
	cfg := config.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	require.NoError(t, cfg.SaveFile(path))
	return path
}

// run executes the root command with args and returns what it printed on stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--no-color"}, args...))
	err := root.Execute()
	return stdout.String(), err
}

// ============================================================================
// Root
// ============================================================================

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "presage", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("no-color"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	for _, expected := range []string{"init", "config", "inspect", "demo", "todo", "version"} {
		assert.Contains(t, names, expected)
	}
}

func TestCommandSubcommands(t *testing.T) {
	cmd := NewConfigCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"show", "validate"}, names)
}

func TestSubcommandFlags(t *testing.T) {
	initCmd := NewInitCommand()
	for _, flag := range []string{"name", "codec", "metrics", "tracing", "non-interactive"} {
		assert.NotNil(t, initCmd.Flags().Lookup(flag), flag)
	}
	assert.Equal(t, "n", initCmd.Flags().Lookup("name").Shorthand)

	assert.NotNil(t, NewDemoCommand().Flags().Lookup("animate"))
	assert.Equal(t, "v", NewTodoCommand().Flags().Lookup("verbose").Shorthand)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := run(t, "config", "show", "--config", filepath.Join(t.TempDir(), "missing.yaml"))

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// ============================================================================
// Version
// ============================================================================

func TestVersionCommand_Execute(t *testing.T) {
	var out bytes.Buffer
	cmd := NewVersionCommand("1.2.3", "abc123", "2024-03-04")
	cmd.SetOut(&out)
	cmd.SetArgs(nil)

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "1.2.3")
	assert.Contains(t, out.String(), "abc123")
	assert.Contains(t, out.String(), "2024-03-04")
	assert.Contains(t, out.String(), presage.Version())
}

// ============================================================================
// Init
// ============================================================================

func TestInitCommand_NonInteractive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "billing")

	out, err := run(t, "init", dir, "--non-interactive", "--codec=msgpack", "--metrics")
	require.NoError(t, err)

	assert.Contains(t, out, "Created")
	assert.FileExists(t, filepath.Join(dir, config.ConfigFileName))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "billing", cfg.Service.Name)
	assert.Equal(t, "msgpack", cfg.Dispatch.Codec)
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestInitCommand_Name(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "init", dir, "--non-interactive", "-n", "tasks")
	require.NoError(t, err)

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "tasks", cfg.Service.Name)
	assert.Equal(t, "json", cfg.Dispatch.Codec)
}

func TestInitCommand_AlreadyExists(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.DefaultConfig().Save(dir))

	out, err := run(t, "init", dir, "--non-interactive", "--codec=msgpack")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Dispatch.Codec)
}

func TestInitCommand_InvalidCodec(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "init", dir, "--non-interactive", "--codec=xml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispatch.codec")
	assert.False(t, config.Exists(dir))
}

// ============================================================================
// Config
// ============================================================================

func TestConfigShow(t *testing.T) {
	path := writeConfig(t, withCodec("msgpack"))

	out, err := run(t, "config", "show", "--config", path)
	require.NoError(t, err)

	assert.Contains(t, out, "# "+path)
	assert.Contains(t, out, "codec: msgpack")
	assert.Contains(t, out, "recover_panics: true")
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		out, err := run(t, "config", "validate", "--config", writeConfig(t))

		require.NoError(t, err)
		assert.Contains(t, out, "Configuration is valid")
	})

	t.Run("invalid", func(t *testing.T) {
		path := writeConfig(t, withCodec("xml"), withTracing("jaeger"))

		out, err := run(t, "config", "validate", "--config", path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration has 2 error(s)")
		assert.Contains(t, out, "dispatch.codec")
		assert.Contains(t, out, "tracing.exporter")
	})
}

// ============================================================================
// Script
// ============================================================================

func TestLoadScript_Default(t *testing.T) {
	script, err := LoadScript("")
	require.NoError(t, err)

	require.Len(t, script.Steps, 8)
	assert.Equal(t, Step{Command: "create-task", Task: "milk", Name: "Buy milk"}, script.Steps[0])
	assert.Equal(t, time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), script.Steps[4].Date.UTC())
	assert.Equal(t, "delete-archived-tasks", script.Steps[7].Command)
}

func TestLoadScript_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`steps:
  - command: create-task
    task: a
    name: Read a book
`), 0644))

	script, err := LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, []Step{{Command: "create-task", Task: "a", Name: "Read a book"}}, script.Steps)

	_, err = LoadScript(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseScript_Errors(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		expected string
	}{
		{"invalid yaml", "steps: [", "invalid script"},
		{"unknown command", "steps:\n  - command: snooze-task\n    task: a\n", `step 1: unknown command "snooze-task"`},
		{"missing task", "steps:\n  - command: delete-archived-tasks\n  - command: check-task\n", "step 2: check-task needs a task reference"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScript([]byte(tt.script))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestTaskID(t *testing.T) {
	assert.Equal(t, TaskID("milk"), TaskID("milk"))
	assert.NotEqual(t, TaskID("milk"), TaskID("plants"))
}

func TestStep_TaskCommand(t *testing.T) {
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	date := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	id := TaskID("a")

	tests := []struct {
		step     Step
		expected presage.Command
	}{
		{Step{Command: "create-task", Task: "a", Name: "Read"}, todo.CreateTask{ID: id, Name: "Read"}},
		{Step{Command: "rename-task", Task: "a", Name: "Write"}, todo.RenameTask{ID: id, Name: "Write"}},
		{Step{Command: "check-task", Task: "a"}, todo.CheckTask{ID: id, Date: now}},
		{Step{Command: "check-task", Task: "a", Date: date}, todo.CheckTask{ID: id, Date: date}},
		{Step{Command: "archive-done-task", Task: "a"}, todo.ArchiveTask{ID: id, Date: now}},
		{Step{Command: "delete-archived-tasks"}, todo.DeleteArchivedTasks{}},
	}

	for _, tt := range tests {
		t.Run(tt.step.Command, func(t *testing.T) {
			cmd, err := tt.step.TaskCommand(now)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, cmd)
		})
	}
}

// ============================================================================
// Demo
// ============================================================================

func TestDemoCommand_DefaultScript(t *testing.T) {
	out, err := run(t, "demo", "--config", writeConfig(t))
	require.NoError(t, err)

	assert.Contains(t, out, "[1/8]")
	assert.Contains(t, out, "[8/8]")
	assert.Contains(t, out, strings.Repeat("─", dividerWidth))
	assert.Contains(t, out, "Tasks [new: 1, done: 1, archived: 0]")
	assert.Contains(t, out, "Buy oat milk")
	assert.Contains(t, out, "File taxes")
	assert.Contains(t, out, "2024-03-05 18:30")
	assert.NotContains(t, out, "Water the plants")
	assert.NotContains(t, out, "Metrics")
}

func TestDemoCommand_ScriptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`steps:
  - command: create-task
    task: a
    name: Read a book
  - command: check-task
    task: a
  - command: archive-done-task
    task: a
`), 0644))

	out, err := run(t, "demo", path, "--config", writeConfig(t, withCodec("msgpack")))
	require.NoError(t, err)

	assert.Contains(t, out, "Tasks [new: 0, done: 0, archived: 1]")
	assert.Contains(t, out, "No tasks")
	assert.Contains(t, out, "Archive")
	assert.Contains(t, out, "Read a book")
}

func TestDemoCommand_StopsOnFirstError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`steps:
  - command: create-task
    task: a
    name: Read a book
  - command: create-task
    task: a
    name: Read a book again
  - command: create-task
    task: b
    name: Never created
`), 0644))

	out, err := run(t, "demo", path, "--config", writeConfig(t))

	require.Error(t, err)
	assert.ErrorIs(t, err, todo.ErrTaskExists)
	assert.Contains(t, err.Error(), "step 2 (create-task)")
	assert.NotContains(t, out, "[3/3]")
}

func TestDemoCommand_InvalidConfig(t *testing.T) {
	_, err := run(t, "demo", "--config", writeConfig(t, withCodec("xml")))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestDemoCommand_Metrics(t *testing.T) {
	out, err := run(t, "demo", "--config", writeConfig(t, withMetrics()))
	require.NoError(t, err)

	assert.Contains(t, out, "Metrics")
	assert.Contains(t, out, "presage_commands_total")
	assert.Contains(t, out, "command_name=create-task")
	assert.Contains(t, out, "presage_events_written_total")
	assert.NotContains(t, out, "service=")
}

func TestDemoCommand_Tracing(t *testing.T) {
	out, err := run(t, "demo", "--config", writeConfig(t, withTracing("stdout")))
	require.NoError(t, err)

	assert.Contains(t, out, "command.create-task")
	assert.Contains(t, out, "SpanContext")
}

// ============================================================================
// Inspect
// ============================================================================

func TestInspectCommand(t *testing.T) {
	out, err := run(t, "inspect")
	require.NoError(t, err)

	for _, name := range []string{
		"create-task", "rename-task", "check-task", "archive-done-task", "delete-archived-tasks",
		"task-created", "task-updated", "task-deleted",
	} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "written")
	assert.Contains(t, out, strings.Repeat("─", dividerWidth))
	assert.NotContains(t, out, "never persisted")
}

func TestEventNames(t *testing.T) {
	noop := func(ctx context.Context, _ struct{}, event presage.SerializedEvent) (presage.Commands, error) {
		return nil, nil
	}
	write := func(ctx context.Context, _ struct{}, event presage.SerializedEvent) error { return nil }

	cfg := presage.NewConfiguration[struct{}]().
		EventHandler(presage.NewEventHandlerFunc(noop, "b-happened", "a-happened")).
		EventWriter(presage.NewEventWriterFunc(write, "a-happened", "c-happened"))

	assert.Equal(t, []string{"a-happened", "b-happened", "c-happened"}, eventNames(cfg))
	assert.Equal(t, []string{"b-happened"}, unwrittenEvents(cfg))
}

// ============================================================================
// Runtime
// ============================================================================

func TestTaskRuntime(t *testing.T) {
	t.Run("metrics disabled", func(t *testing.T) {
		var logs bytes.Buffer
		rt, err := newTaskRuntime(config.DefaultConfig(), &logs, &bytes.Buffer{})
		require.NoError(t, err)

		samples, err := rt.gatherMetrics()
		require.NoError(t, err)
		assert.Empty(t, samples)
		assert.NoError(t, rt.Close(context.Background()))
	})

	t.Run("command logging", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Dispatch.LogCommands = true
		cfg.Logging.Format = "json"

		var logs bytes.Buffer
		rt, err := newTaskRuntime(cfg, &logs, &bytes.Buffer{})
		require.NoError(t, err)

		require.NoError(t, rt.app.Execute(context.Background(), todo.CreateTask{ID: TaskID("a"), Name: "Read"}))
		assert.Contains(t, logs.String(), `"msg":"Command completed"`)
		assert.Contains(t, logs.String(), `"command":"create-task"`)
	})

	t.Run("validation", func(t *testing.T) {
		rt, err := newTaskRuntime(config.DefaultConfig(), &bytes.Buffer{}, &bytes.Buffer{})
		require.NoError(t, err)

		err = rt.app.Execute(context.Background(), todo.CreateTask{ID: TaskID("a"), Name: " "})
		assert.ErrorIs(t, err, presage.ErrValidationFailed)
	})

	t.Run("metrics", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Metrics.Enabled = true
		cfg.Metrics.Subsystem = "tasks"

		rt, err := newTaskRuntime(cfg, &bytes.Buffer{}, &bytes.Buffer{})
		require.NoError(t, err)
		require.NoError(t, rt.app.Execute(context.Background(), todo.CreateTask{ID: TaskID("a"), Name: "Read"}))

		samples, err := rt.gatherMetrics()
		require.NoError(t, err)

		var found bool
		for _, s := range samples {
			if s.Name == "presage_tasks_commands_total" && s.Labels == "command_name=create-task,status=success" {
				found = true
				assert.Equal(t, "1", s.Value)
			}
		}
		assert.True(t, found, "commands_total sample not found in %v", samples)
	})
}
