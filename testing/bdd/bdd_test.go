package bdd

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alightgoesout/presage"
)

// =============================================================================
// Test Domain
// =============================================================================

type counter struct {
	value int
	log   []string
}

type Increment struct {
	By int
}

func (Increment) CommandName() string { return "increment" }

type Reset struct{}

func (Reset) CommandName() string { return "reset" }

type Incremented struct {
	By int `json:"by"`
}

func (Incremented) EventName() string { return "incremented" }

type WasReset struct{}

func (WasReset) EventName() string { return "was-reset" }

var errNegative = errors.New("negative increment")

func counterConfiguration() *presage.Configuration[*counter] {
	return presage.NewConfiguration[*counter]().
		CommandHandler(presage.NewCommandHandler(func(ctx context.Context, c *counter, cmd Increment) (presage.Events, error) {
			if cmd.By < 0 {
				return nil, errNegative
			}
			if cmd.By == 0 {
				return nil, nil
			}
			return presage.NewEvents(Incremented{By: cmd.By})
		})).
		CommandHandler(presage.NewCommandHandler(func(ctx context.Context, c *counter, cmd Reset) (presage.Events, error) {
			return presage.NewEvents(WasReset{})
		})).
		EventWriter(presage.NewEventWriter(func(ctx context.Context, c *counter, e Incremented) error {
			c.value += e.By
			c.log = append(c.log, "incremented")
			return nil
		})).
		EventWriter(presage.NewEventWriter(func(ctx context.Context, c *counter, e WasReset) error {
			c.value = 0
			return nil
		})).
		EventHandler(presage.NewEventHandler(func(ctx context.Context, c *counter, e Incremented) (presage.Commands, error) {
			if c.value > 10 {
				return presage.NewCommands(Reset{}), nil
			}
			return nil, nil
		}))
}

// =============================================================================
// Mock Testing Helper
// =============================================================================

// mockT is a mock testing.TB that captures test failures for testing BDD functions
type mockT struct {
	testing.TB
	failed  bool
	message string
	fatal   bool
}

func newMockT() *mockT {
	return &mockT{}
}

func (m *mockT) Helper() {}

func (m *mockT) Errorf(format string, args ...interface{}) {
	m.failed = true
	m.message = format
}

func (m *mockT) Fatalf(format string, args ...interface{}) {
	m.failed = true
	m.fatal = true
	m.message = format
	runtime.Goexit()
}

func (m *mockT) Fatal(args ...interface{}) {
	m.failed = true
	m.fatal = true
	if len(args) > 0 {
		if msg, ok := args[0].(string); ok {
			m.message = msg
		}
	}
	runtime.Goexit()
}

func (m *mockT) Error(args ...interface{}) {
	m.failed = true
	if len(args) > 0 {
		if msg, ok := args[0].(string); ok {
			m.message = msg
		}
	}
}

// runWithMockT runs a function with a mockT and returns whether it failed
func runWithMockT(fn func(*mockT)) (mt *mockT) {
	mt = newMockT()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(mt)
	}()
	<-done
	return mt
}

// =============================================================================
// TestFixture Tests
// =============================================================================

func TestTestFixture_Then(t *testing.T) {
	t.Run("passes with expected events", func(t *testing.T) {
		Given(t, counterConfiguration(), &counter{}).
			When(Increment{By: 2}).
			Then(Incremented{By: 2})
	})

	t.Run("history is applied but not recorded", func(t *testing.T) {
		c := &counter{}

		fixture := Given(t, counterConfiguration(), c, Increment{By: 1}, Increment{By: 2}).
			When(Increment{By: 3}).
			Then(Incremented{By: 3})

		assert.Equal(t, 6, c.value)
		assert.Len(t, fixture.Events(), 1)
	})

	t.Run("records events of issued commands", func(t *testing.T) {
		Given(t, counterConfiguration(), &counter{}, Increment{By: 9}).
			When(Increment{By: 5}).
			Then(Incremented{By: 5}, WasReset{}).
			ThenCommands("increment", "reset").
			ThenState(func(t TB, c *counter) {
				assert.Equal(t, 0, c.value)
			})
	})

	t.Run("fails on different events", func(t *testing.T) {
		mt := runWithMockT(func(m *mockT) {
			Given(m, counterConfiguration(), &counter{}).
				When(Increment{By: 2}).
				Then(Incremented{By: 3})
		})

		assert.True(t, mt.failed)
		assert.False(t, mt.fatal)
	})

	t.Run("fails on event count mismatch", func(t *testing.T) {
		mt := runWithMockT(func(m *mockT) {
			Given(m, counterConfiguration(), &counter{}).
				When(Increment{By: 2}).
				Then(Incremented{By: 2}, Incremented{By: 2})
		})

		assert.True(t, mt.fatal)
	})

	t.Run("fails when the execution failed", func(t *testing.T) {
		mt := runWithMockT(func(m *mockT) {
			Given(m, counterConfiguration(), &counter{}).
				When(Increment{By: -1}).
				Then()
		})

		assert.True(t, mt.fatal)
		assert.Equal(t, "Expected success but got error: %v", mt.message)
	})

	t.Run("fails when a given command fails", func(t *testing.T) {
		mt := runWithMockT(func(m *mockT) {
			Given(m, counterConfiguration(), &counter{}, Increment{By: -1}).
				When(Increment{By: 1})
		})

		assert.True(t, mt.fatal)
	})
}

func TestTestFixture_ThenEventNames(t *testing.T) {
	Given(t, counterConfiguration(), &counter{}, Increment{By: 10}).
		When(Increment{By: 1}).
		ThenEventNames("incremented", "was-reset")
}

func TestTestFixture_ThenNoEvents(t *testing.T) {
	t.Run("passes when nothing happened", func(t *testing.T) {
		Given(t, counterConfiguration(), &counter{}).
			When(Increment{By: 0}).
			ThenNoEvents()
	})

	t.Run("fails when events were produced", func(t *testing.T) {
		mt := runWithMockT(func(m *mockT) {
			Given(m, counterConfiguration(), &counter{}).
				When(Increment{By: 1}).
				ThenNoEvents()
		})

		assert.True(t, mt.failed)
	})
}

func TestTestFixture_ThenError(t *testing.T) {
	t.Run("matches error", func(t *testing.T) {
		Given(t, counterConfiguration(), &counter{}).
			When(Increment{By: -1}).
			ThenError(errNegative).
			ThenErrorContains("negative")
	})

	t.Run("missing handler", func(t *testing.T) {
		c := &counter{}
		Given(t, counterConfiguration(), c).
			When(unknownCommand{}).
			ThenError(presage.ErrHandlerNotFound).
			ThenState(func(t TB, c *counter) {
				assert.Equal(t, 0, c.value)
			})
	})

	t.Run("fails on success", func(t *testing.T) {
		mt := runWithMockT(func(m *mockT) {
			Given(m, counterConfiguration(), &counter{}).
				When(Increment{By: 1}).
				ThenError(errNegative)
		})

		assert.True(t, mt.fatal)
		assert.Equal(t, "Expected error but got success", mt.message)
	})

	t.Run("fails on another error", func(t *testing.T) {
		mt := runWithMockT(func(m *mockT) {
			Given(m, counterConfiguration(), &counter{}).
				When(Increment{By: -1}).
				ThenError(presage.ErrHandlerNotFound)
		})

		assert.True(t, mt.failed)
		assert.False(t, mt.fatal)
	})

	t.Run("fails on wrong substring", func(t *testing.T) {
		mt := runWithMockT(func(m *mockT) {
			Given(m, counterConfiguration(), &counter{}).
				When(Increment{By: -1}).
				ThenErrorContains("overflow")
		})

		assert.True(t, mt.failed)
	})
}

func TestTestFixture_Options(t *testing.T) {
	var seen []string
	spy := func(next presage.HandlerFunc[*counter]) presage.HandlerFunc[*counter] {
		return func(ctx context.Context, c *counter, cmd presage.BoxedCommand) (presage.Events, error) {
			seen = append(seen, cmd.Name())
			return next(ctx, c, cmd)
		}
	}

	fixture := Given(t, counterConfiguration(), &counter{}).
		WithContext(context.Background()).
		WithOptions(presage.WithMiddleware[*counter](spy)).
		When(Increment{By: 1})

	assert.NoError(t, fixture.Err())
	assert.Equal(t, []string{"increment"}, seen)
}

func TestTestFixture_RequiresWhen(t *testing.T) {
	mt := runWithMockT(func(m *mockT) {
		Given(m, counterConfiguration(), &counter{}).Then()
	})

	assert.True(t, mt.fatal)
}

type unknownCommand struct{}

func (unknownCommand) CommandName() string { return "unknown" }
