package presage

// test_helpers_test.go contains shared test doubles for presage package tests.

import (
	"context"
	"fmt"
	"sync"
)

// =============================================================================
// Shared Test Logger
// =============================================================================

type logEntry struct {
	level string
	msg   string
	args  []interface{}
}

// testLogger is a shared test implementation of Logger.
type testLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func newTestLogger() *testLogger {
	return &testLogger{}
}

func (l *testLogger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *testLogger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *testLogger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *testLogger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *testLogger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }

func (l *testLogger) messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var msgs []string
	for _, e := range l.entries {
		if e.level == level {
			msgs = append(msgs, e.msg)
		}
	}
	return msgs
}

func (l *testLogger) find(level, msg string) (logEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

// =============================================================================
// Shared Test Context
// =============================================================================

// journal is the context value of the tests. Handlers record what they do in it.
type journal struct {
	entries []string
}

func (j *journal) record(format string, args ...interface{}) {
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

// =============================================================================
// Shared Test Commands and Events
// =============================================================================

type placeOrder struct {
	OrderID string
	Items   int
}

func (placeOrder) CommandName() string { return "place-order" }

func (c placeOrder) Validate() error {
	if c.Items <= 0 {
		return NewValidationError(c.CommandName(), "Items", "must be positive")
	}
	return nil
}

type shipOrder struct {
	OrderID string
}

func (shipOrder) CommandName() string { return "ship-order" }

type notifyCustomer struct {
	OrderID string
}

func (notifyCustomer) CommandName() string { return "notify-customer" }

type orderPlaced struct {
	OrderID string `json:"order_id"`
	Items   int    `json:"items"`
}

func (orderPlaced) EventName() string { return "order-placed" }

type orderShipped struct {
	OrderID string `json:"order_id"`
}

func (orderShipped) EventName() string { return "order-shipped" }

type customerNotified struct {
	OrderID string `json:"order_id"`
}

func (customerNotified) EventName() string { return "customer-notified" }

// named is a command whose name is its value. It is only usable with
// CommandHandlerFunc, which does not read names from zero values.
type named string

func (n named) CommandName() string { return string(n) }

// rawEvent builds an event with an empty JSON object payload.
func rawEvent(name string) SerializedEvent {
	return NewSerializedEvent(name, []byte("{}"), nil)
}

// orderConfiguration wires the order commands: placing an order ships it and
// notifies the customer. customer-notified has no writer.
func orderConfiguration() *Configuration[*journal] {
	return NewConfiguration[*journal]().
		CommandHandler(NewCommandHandler(func(ctx context.Context, j *journal, cmd placeOrder) (Events, error) {
			j.record("handle place-order %s", cmd.OrderID)
			return NewEvents(orderPlaced{OrderID: cmd.OrderID, Items: cmd.Items})
		})).
		CommandHandler(NewCommandHandler(func(ctx context.Context, j *journal, cmd shipOrder) (Events, error) {
			j.record("handle ship-order %s", cmd.OrderID)
			return NewEvents(orderShipped{OrderID: cmd.OrderID})
		})).
		CommandHandler(NewCommandHandler(func(ctx context.Context, j *journal, cmd notifyCustomer) (Events, error) {
			j.record("handle notify-customer %s", cmd.OrderID)
			return NewEvents(customerNotified{OrderID: cmd.OrderID})
		})).
		EventWriter(NewEventWriter(func(ctx context.Context, j *journal, e orderPlaced) error {
			j.record("write order-placed %s", e.OrderID)
			return nil
		})).
		EventWriter(NewEventWriter(func(ctx context.Context, j *journal, e orderShipped) error {
			j.record("write order-shipped %s", e.OrderID)
			return nil
		})).
		EventHandler(NewEventHandler(func(ctx context.Context, j *journal, e orderPlaced) (Commands, error) {
			j.record("on order-placed ship %s", e.OrderID)
			return NewCommands(shipOrder{OrderID: e.OrderID}), nil
		})).
		EventHandler(NewEventHandler(func(ctx context.Context, j *journal, e orderPlaced) (Commands, error) {
			j.record("on order-placed notify %s", e.OrderID)
			return NewCommands(notifyCustomer{OrderID: e.OrderID}), nil
		}))
}
