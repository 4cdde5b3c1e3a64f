package presage

import (
	"context"
)

// CommandBus executes commands and dispatches the events they produce.
//
// Execute takes a context value and a command. The command handler returns
// events; each event is written by its event writer, then handed to its event
// handlers, which may return new commands. New commands join the back of the
// queue, and the process continues until the queue is empty.
//
// The registrations are copied from a Configuration when the bus is created and
// never change afterwards, so a bus can be shared by goroutines executing
// against different context values. Executions against the same context value
// must be serialized by the caller.
type CommandBus[C any] struct {
	commandHandlers map[string]CommandHandler[C]
	eventWriters    map[string]EventWriter[C]
	eventHandlers   map[string][]EventHandler[C]
	middleware      []Middleware[C]
	logger          Logger
	onUnwritten     func(ctx context.Context, event SerializedEvent)
}

// CommandBusOption configures a CommandBus.
type CommandBusOption[C any] func(*CommandBus[C])

// WithMiddleware adds middleware around every command handler invocation.
// Middleware is executed in the order it was added.
func WithMiddleware[C any](middleware ...Middleware[C]) CommandBusOption[C] {
	return func(b *CommandBus[C]) {
		b.middleware = append(b.middleware, middleware...)
	}
}

// WithLogger sets the logger receiving dispatch diagnostics.
func WithLogger[C any](logger Logger) CommandBusOption[C] {
	return func(b *CommandBus[C]) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithUnwrittenEventHook sets a function called for every event that has no
// registered writer, after the warning is logged.
func WithUnwrittenEventHook[C any](hook func(ctx context.Context, event SerializedEvent)) CommandBusOption[C] {
	return func(b *CommandBus[C]) {
		b.onUnwritten = hook
	}
}

// NewCommandBus creates a CommandBus from a snapshot of the configuration.
// A nil configuration yields a bus without registrations.
func NewCommandBus[C any](cfg *Configuration[C], opts ...CommandBusOption[C]) *CommandBus[C] {
	if cfg == nil {
		cfg = NewConfiguration[C]()
	}
	snapshot := cfg.clone()

	bus := &CommandBus[C]{
		commandHandlers: snapshot.commandHandlers,
		eventWriters:    snapshot.eventWriters,
		eventHandlers:   snapshot.eventHandlers,
		middleware:      make([]Middleware[C], 0),
		logger:          &noopLogger{},
	}

	for _, opt := range opts {
		opt(bus)
	}

	return bus
}

// Execute runs a command and everything it causes, until no command is left.
//
// The first error returned by a handler or writer aborts the execution and is
// returned as is; changes made to the context before the failure are kept.
// An event without a writer is not an error: a warning is logged and the event
// is still handed to its event handlers.
//
// There is no cycle detection. Cancelling ctx stops the execution before the
// next queued command.
func (b *CommandBus[C]) Execute(ctx context.Context, c C, cmd Command) error {
	if cmd == nil {
		return ErrNilCommand
	}
	return b.ExecuteBoxed(ctx, c, Box(cmd))
}

// ExecuteBoxed is Execute for an already boxed command.
func (b *CommandBus[C]) ExecuteBoxed(ctx context.Context, c C, cmd BoxedCommand) error {
	queue := []BoxedCommand{cmd}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		next := queue[0]
		queue[0] = BoxedCommand{}
		queue = queue[1:]

		events, err := b.handleCommand(ctx, c, next)
		if err != nil {
			return err
		}

		for _, event := range events {
			commands, err := b.dispatchEvent(ctx, c, event)
			if err != nil {
				return err
			}
			queue = append(queue, commands...)
		}
	}

	return nil
}

func (b *CommandBus[C]) handleCommand(ctx context.Context, c C, cmd BoxedCommand) (Events, error) {
	if cmd.IsZero() {
		return nil, ErrNilCommand
	}

	handler, ok := b.commandHandlers[cmd.Name()]
	if !ok {
		return nil, NewMissingCommandHandlerError(cmd.Name())
	}

	b.logger.Debug("Handling command", "command", cmd.Name())

	// Apply middleware in reverse order so they execute in the order they were added
	chain := HandlerFunc[C](handler.Handle)
	for i := len(b.middleware) - 1; i >= 0; i-- {
		chain = b.middleware[i](chain)
	}

	return chain(ctx, c, cmd)
}

func (b *CommandBus[C]) dispatchEvent(ctx context.Context, c C, event SerializedEvent) (Commands, error) {
	if writer, ok := b.eventWriters[event.Name()]; ok {
		b.logger.Debug("Writing event", "event", event.Name())
		if err := writer.Write(ctx, c, event); err != nil {
			return nil, err
		}
	} else {
		b.logger.Warn("No event writer registered, event is not persisted", "event", event.Name())
		if b.onUnwritten != nil {
			b.onUnwritten(ctx, event)
		}
	}

	var commands Commands
	for _, handler := range b.eventHandlers[event.Name()] {
		issued, err := handler.Handle(ctx, c, event)
		if err != nil {
			return nil, err
		}
		commands = append(commands, issued...)
	}

	return commands, nil
}

// HasCommandHandler returns true if a handler is registered for the command name.
func (b *CommandBus[C]) HasCommandHandler(name string) bool {
	_, ok := b.commandHandlers[name]
	return ok
}

// CommandHandlerCount returns the number of registered command handlers.
func (b *CommandBus[C]) CommandHandlerCount() int {
	return len(b.commandHandlers)
}

// MiddlewareCount returns the number of registered middleware.
func (b *CommandBus[C]) MiddlewareCount() int {
	return len(b.middleware)
}

// HandlerFunc is the function signature wrapped by middleware: it handles one
// boxed command and returns its events.
type HandlerFunc[C any] func(ctx context.Context, c C, cmd BoxedCommand) (Events, error)

// Middleware wraps a command handler invocation with additional functionality.
type Middleware[C any] func(next HandlerFunc[C]) HandlerFunc[C]

// ChainMiddleware creates a single middleware from multiple middleware.
func ChainMiddleware[C any](middleware ...Middleware[C]) Middleware[C] {
	return func(next HandlerFunc[C]) HandlerFunc[C] {
		for i := len(middleware) - 1; i >= 0; i-- {
			next = middleware[i](next)
		}
		return next
	}
}
