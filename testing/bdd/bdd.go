// Package bdd provides BDD-style test fixtures for presage configurations.
// It enables expressive Given-When-Then testing of command handlers, event
// writers and event handlers running together on a command bus.
//
//	bdd.Given(t, todo.Configuration(), todo.NewStore(), todo.CreateTask{ID: id, Name: "Buy milk"}).
//	    When(todo.CheckTask{ID: id, Date: date}).
//	    Then(todo.TaskUpdated{Kind: todo.TaskDone, ID: id, DoneDate: date})
package bdd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alightgoesout/presage"
	"github.com/alightgoesout/presage/testing/assertions"
)

// TB is an alias for testing.TB interface to allow mocking in tests
type TB = testing.TB

// TestFixture runs commands on a command bus built from a configuration and
// records what happened.
type TestFixture[C any] struct {
	t       TB
	ctx     context.Context
	cfg     *presage.Configuration[C]
	value   C
	history []presage.Command
	options []presage.CommandBusOption[C]

	events   presage.Events
	handled  []string
	result   error
	executed bool
}

// Given creates a fixture. The history commands are executed, in order, before
// the command under test; they must succeed and what they produce is not
// recorded.
func Given[C any](t TB, cfg *presage.Configuration[C], c C, history ...presage.Command) *TestFixture[C] {
	t.Helper()
	return &TestFixture[C]{
		t:       t,
		ctx:     context.Background(),
		cfg:     cfg,
		value:   c,
		history: history,
	}
}

// WithContext sets a custom context for the executions.
func (f *TestFixture[C]) WithContext(ctx context.Context) *TestFixture[C] {
	f.ctx = ctx
	return f
}

// WithOptions adds command bus options, such as middleware.
func (f *TestFixture[C]) WithOptions(opts ...presage.CommandBusOption[C]) *TestFixture[C] {
	f.options = append(f.options, opts...)
	return f
}

// When executes the history, then the command under test.
func (f *TestFixture[C]) When(cmd presage.Command) *TestFixture[C] {
	f.t.Helper()

	recording := false
	recorder := func(next presage.HandlerFunc[C]) presage.HandlerFunc[C] {
		return func(ctx context.Context, c C, cmd presage.BoxedCommand) (presage.Events, error) {
			events, err := next(ctx, c, cmd)
			if recording {
				f.handled = append(f.handled, cmd.Name())
				if err == nil {
					f.events = append(f.events, events...)
				}
			}
			return events, err
		}
	}

	opts := append([]presage.CommandBusOption[C]{presage.WithMiddleware[C](recorder)}, f.options...)
	bus := presage.NewCommandBus(f.cfg, opts...)

	for _, past := range f.history {
		if err := bus.Execute(f.ctx, f.value, past); err != nil {
			f.t.Fatalf("Failed to execute given command %s: %v", commandName(past), err)
		}
	}

	recording = true
	f.result = bus.Execute(f.ctx, f.value, cmd)
	f.executed = true

	return f
}

// Then asserts that the execution succeeded and produced the expected events,
// in order, including events produced by commands issued along the way.
func (f *TestFixture[C]) Then(expectedEvents ...presage.Event) *TestFixture[C] {
	f.t.Helper()
	f.requireSuccess("Then")

	if len(f.events) != len(expectedEvents) {
		f.t.Fatalf("Expected %d events, got %d.\nExpected: %+v\nActual: %v",
			len(expectedEvents), len(f.events), expectedEvents, f.events.Names())
	}

	if diffs := assertions.DiffEvents(expectedEvents, f.events); len(diffs) > 0 {
		f.t.Error(assertions.FormatDiffs(diffs))
	}

	return f
}

// ThenEventNames asserts that the execution succeeded and produced events with
// the expected names, in order.
func (f *TestFixture[C]) ThenEventNames(names ...string) *TestFixture[C] {
	f.t.Helper()
	f.requireSuccess("ThenEventNames")

	assertions.AssertEventNames(f.t, f.events, names...)
	return f
}

// ThenNoEvents asserts that no events were produced.
func (f *TestFixture[C]) ThenNoEvents() *TestFixture[C] {
	f.t.Helper()
	f.requireSuccess("ThenNoEvents")

	if len(f.events) > 0 {
		f.t.Errorf("Expected no events, got %d: %v", len(f.events), f.events.Names())
	}

	return f
}

// ThenCommands asserts the names of every command handled during the
// execution, starting with the command under test.
func (f *TestFixture[C]) ThenCommands(names ...string) *TestFixture[C] {
	f.t.Helper()

	if !f.executed {
		f.t.Fatal("bdd: ThenCommands() must be called after When() - no command was executed")
	}

	if strings.Join(f.handled, ",") != strings.Join(names, ",") {
		f.t.Errorf("Expected handled commands %v, got %v", names, f.handled)
	}

	return f
}

// ThenState runs assertions on the context value.
func (f *TestFixture[C]) ThenState(check func(t TB, c C)) *TestFixture[C] {
	f.t.Helper()

	if !f.executed {
		f.t.Fatal("bdd: ThenState() must be called after When() - no command was executed")
	}

	check(f.t, f.value)
	return f
}

// ThenError asserts that the execution failed with the expected error.
func (f *TestFixture[C]) ThenError(expectedErr error) *TestFixture[C] {
	f.t.Helper()

	if !f.executed {
		f.t.Fatal("bdd: ThenError() must be called after When() - no command was executed")
	}

	if f.result == nil {
		f.t.Fatal("Expected error but got success")
	}

	if !errors.Is(f.result, expectedErr) {
		f.t.Errorf("Expected error %v, got %v", expectedErr, f.result)
	}

	return f
}

// ThenErrorContains asserts that the error message contains a substring.
func (f *TestFixture[C]) ThenErrorContains(substring string) *TestFixture[C] {
	f.t.Helper()

	if !f.executed {
		f.t.Fatal("bdd: ThenErrorContains() must be called after When() - no command was executed")
	}

	if f.result == nil {
		f.t.Fatal("Expected error but got success")
	}

	if !strings.Contains(f.result.Error(), substring) {
		f.t.Errorf("Expected error containing %q, got %q", substring, f.result.Error())
	}

	return f
}

// Events returns the events recorded during the execution.
func (f *TestFixture[C]) Events() presage.Events {
	return f.events
}

// Err returns the error of the execution.
func (f *TestFixture[C]) Err() error {
	return f.result
}

func (f *TestFixture[C]) requireSuccess(step string) {
	f.t.Helper()

	if !f.executed {
		f.t.Fatalf("bdd: %s() must be called after When() - no command was executed", step)
	}

	if f.result != nil {
		f.t.Fatalf("Expected success but got error: %v", f.result)
	}
}

func commandName(cmd presage.Command) string {
	if cmd == nil {
		return "<nil>"
	}
	return cmd.CommandName()
}
