package presage

import (
	"context"
)

// CommandHandler handles one command type and produces events.
// C is the dispatch context shared by every handler of a bus.
type CommandHandler[C any] interface {
	// CommandName returns the name of the handled command.
	CommandName() string

	// Handle executes a command against the context.
	Handle(ctx context.Context, c C, cmd BoxedCommand) (Events, error)
}

// EventWriter persists the effects of events. It may store the events
// themselves, the state resulting from them, or both.
type EventWriter[C any] interface {
	// EventNames returns the names of the events this writer persists.
	EventNames() []string

	// Write persists one event.
	Write(ctx context.Context, c C, event SerializedEvent) error
}

// EventHandler reacts to events and may issue new commands.
type EventHandler[C any] interface {
	// EventNames returns the names of the handled events.
	EventNames() []string

	// Handle reacts to one event.
	Handle(ctx context.Context, c C, event SerializedEvent) (Commands, error)
}

// CommandHandlerFunc adapts a function over boxed commands to CommandHandler.
type CommandHandlerFunc[C any] struct {
	name string
	fn   func(ctx context.Context, c C, cmd BoxedCommand) (Events, error)
}

// NewCommandHandlerFunc creates a CommandHandler for the named command.
func NewCommandHandlerFunc[C any](name string, fn func(ctx context.Context, c C, cmd BoxedCommand) (Events, error)) *CommandHandlerFunc[C] {
	return &CommandHandlerFunc[C]{name: name, fn: fn}
}

// CommandName returns the handled command name.
func (h *CommandHandlerFunc[C]) CommandName() string {
	return h.name
}

// Handle calls the function.
func (h *CommandHandlerFunc[C]) Handle(ctx context.Context, c C, cmd BoxedCommand) (Events, error) {
	return h.fn(ctx, c, cmd)
}

// GenericCommandHandler is a type-safe CommandHandler for the command type T.
// The boxed command is unboxed before the function is called.
type GenericCommandHandler[C any, T Command] struct {
	name string
	fn   func(ctx context.Context, c C, cmd T) (Events, error)
}

// NewCommandHandler creates a GenericCommandHandler; the command name is read from T.
func NewCommandHandler[C any, T Command](fn func(ctx context.Context, c C, cmd T) (Events, error)) *GenericCommandHandler[C, T] {
	var zero T
	return &GenericCommandHandler[C, T]{
		name: zero.CommandName(),
		fn:   fn,
	}
}

// CommandName returns the handled command name.
func (h *GenericCommandHandler[C, T]) CommandName() string {
	return h.name
}

// Handle unboxes the command and calls the function.
func (h *GenericCommandHandler[C, T]) Handle(ctx context.Context, c C, cmd BoxedCommand) (Events, error) {
	typed, err := Unbox[T](cmd)
	if err != nil {
		return nil, err
	}
	return h.fn(ctx, c, typed)
}

// EventHandlerFunc adapts a function over serialized events to EventHandler.
type EventHandlerFunc[C any] struct {
	names []string
	fn    func(ctx context.Context, c C, event SerializedEvent) (Commands, error)
}

// NewEventHandlerFunc creates an EventHandler for the named events.
func NewEventHandlerFunc[C any](fn func(ctx context.Context, c C, event SerializedEvent) (Commands, error), names ...string) *EventHandlerFunc[C] {
	return &EventHandlerFunc[C]{names: names, fn: fn}
}

// EventNames returns the handled event names.
func (h *EventHandlerFunc[C]) EventNames() []string {
	return h.names
}

// Handle calls the function.
func (h *EventHandlerFunc[C]) Handle(ctx context.Context, c C, event SerializedEvent) (Commands, error) {
	return h.fn(ctx, c, event)
}

// GenericEventHandler is a type-safe EventHandler for the event type T.
// The event is deserialized before the function is called.
type GenericEventHandler[C any, T Event] struct {
	name string
	fn   func(ctx context.Context, c C, event T) (Commands, error)
}

// NewEventHandler creates a GenericEventHandler; the event name is read from T.
func NewEventHandler[C any, T Event](fn func(ctx context.Context, c C, event T) (Commands, error)) *GenericEventHandler[C, T] {
	var zero T
	return &GenericEventHandler[C, T]{
		name: zero.EventName(),
		fn:   fn,
	}
}

// EventNames returns the handled event name.
func (h *GenericEventHandler[C, T]) EventNames() []string {
	return []string{h.name}
}

// Handle deserializes the event and calls the function.
func (h *GenericEventHandler[C, T]) Handle(ctx context.Context, c C, event SerializedEvent) (Commands, error) {
	typed, err := Deserialize[T](event)
	if err != nil {
		return nil, err
	}
	return h.fn(ctx, c, typed)
}

// EventWriterFunc adapts a function over serialized events to EventWriter.
type EventWriterFunc[C any] struct {
	names []string
	fn    func(ctx context.Context, c C, event SerializedEvent) error
}

// NewEventWriterFunc creates an EventWriter for the named events.
func NewEventWriterFunc[C any](fn func(ctx context.Context, c C, event SerializedEvent) error, names ...string) *EventWriterFunc[C] {
	return &EventWriterFunc[C]{names: names, fn: fn}
}

// EventNames returns the written event names.
func (w *EventWriterFunc[C]) EventNames() []string {
	return w.names
}

// Write calls the function.
func (w *EventWriterFunc[C]) Write(ctx context.Context, c C, event SerializedEvent) error {
	return w.fn(ctx, c, event)
}

// GenericEventWriter is a type-safe EventWriter for the event type T.
type GenericEventWriter[C any, T Event] struct {
	name string
	fn   func(ctx context.Context, c C, event T) error
}

// NewEventWriter creates a GenericEventWriter; the event name is read from T.
func NewEventWriter[C any, T Event](fn func(ctx context.Context, c C, event T) error) *GenericEventWriter[C, T] {
	var zero T
	return &GenericEventWriter[C, T]{
		name: zero.EventName(),
		fn:   fn,
	}
}

// EventNames returns the written event name.
func (w *GenericEventWriter[C, T]) EventNames() []string {
	return []string{w.name}
}

// Write deserializes the event and calls the function.
func (w *GenericEventWriter[C, T]) Write(ctx context.Context, c C, event SerializedEvent) error {
	typed, err := Deserialize[T](event)
	if err != nil {
		return err
	}
	return w.fn(ctx, c, typed)
}
