package presage

import (
	"sort"
)

// Configuration collects the command handlers, event writers and event handlers
// a CommandBus is built from.
//
// Builder methods modify the configuration and return it to allow chaining.
// Configurations built by independent modules are combined with Merge.
type Configuration[C any] struct {
	commandHandlers map[string]CommandHandler[C]
	eventWriters    map[string]EventWriter[C]
	eventHandlers   map[string][]EventHandler[C]
}

// NewConfiguration creates an empty Configuration.
func NewConfiguration[C any]() *Configuration[C] {
	return &Configuration[C]{
		commandHandlers: make(map[string]CommandHandler[C]),
		eventWriters:    make(map[string]EventWriter[C]),
		eventHandlers:   make(map[string][]EventHandler[C]),
	}
}

// CommandHandler registers a command handler under its command name.
// A handler already registered under that name is replaced.
func (c *Configuration[C]) CommandHandler(handler CommandHandler[C]) *Configuration[C] {
	c.commandHandlers[handler.CommandName()] = handler
	return c
}

// EventWriter registers a writer under every event name it declares.
// There is at most one writer per event name; the last registration wins.
func (c *Configuration[C]) EventWriter(writer EventWriter[C]) *Configuration[C] {
	for _, name := range writer.EventNames() {
		c.eventWriters[name] = writer
	}
	return c
}

// EventHandler appends a handler to the handler list of every event name it declares.
// Handlers run in registration order.
func (c *Configuration[C]) EventHandler(handler EventHandler[C]) *Configuration[C] {
	for _, name := range handler.EventNames() {
		c.eventHandlers[name] = append(c.eventHandlers[name], handler)
	}
	return c
}

// Merge returns a new configuration combining c and other. Command handlers and
// event writers of other replace those of c with the same name; event handler
// lists are concatenated, c's handlers first. Neither input is modified; a nil
// configuration counts as an empty one.
func (c *Configuration[C]) Merge(other *Configuration[C]) *Configuration[C] {
	if c == nil {
		c = NewConfiguration[C]()
	}
	merged := c.clone()
	if other == nil {
		return merged
	}
	for name, handler := range other.commandHandlers {
		merged.commandHandlers[name] = handler
	}
	for name, writer := range other.eventWriters {
		merged.eventWriters[name] = writer
	}
	for name, handlers := range other.eventHandlers {
		merged.eventHandlers[name] = append(merged.eventHandlers[name], handlers...)
	}
	return merged
}

// MergeConfigurations merges configurations from left to right.
func MergeConfigurations[C any](configurations ...*Configuration[C]) *Configuration[C] {
	merged := NewConfiguration[C]()
	for _, cfg := range configurations {
		merged = merged.Merge(cfg)
	}
	return merged
}

// Decorator wraps the registrations of a configuration. Nil functions leave the
// corresponding registrations untouched.
type Decorator[C any] struct {
	CommandHandler func(CommandHandler[C]) CommandHandler[C]
	EventWriter    func(EventWriter[C]) EventWriter[C]
	EventHandler   func(EventHandler[C]) EventHandler[C]
}

// Decorate returns a copy of the configuration with every registration wrapped.
// A writer or handler registered under several names is wrapped once per name.
func (c *Configuration[C]) Decorate(d Decorator[C]) *Configuration[C] {
	decorated := c.clone()

	if d.CommandHandler != nil {
		for name, handler := range decorated.commandHandlers {
			decorated.commandHandlers[name] = d.CommandHandler(handler)
		}
	}

	if d.EventWriter != nil {
		for name, writer := range decorated.eventWriters {
			decorated.eventWriters[name] = d.EventWriter(writer)
		}
	}

	if d.EventHandler != nil {
		for _, handlers := range decorated.eventHandlers {
			for i, handler := range handlers {
				handlers[i] = d.EventHandler(handler)
			}
		}
	}

	return decorated
}

// CommandNames returns the names of the registered commands, sorted.
func (c *Configuration[C]) CommandNames() []string {
	return sortedKeys(c.commandHandlers)
}

// WrittenEventNames returns the event names that have a writer, sorted.
func (c *Configuration[C]) WrittenEventNames() []string {
	return sortedKeys(c.eventWriters)
}

// HandledEventNames returns the event names that have at least one handler, sorted.
func (c *Configuration[C]) HandledEventNames() []string {
	return sortedKeys(c.eventHandlers)
}

// HasCommandHandler returns true if a handler is registered for the command name.
func (c *Configuration[C]) HasCommandHandler(name string) bool {
	_, ok := c.commandHandlers[name]
	return ok
}

// HasEventWriter returns true if a writer is registered for the event name.
func (c *Configuration[C]) HasEventWriter(name string) bool {
	_, ok := c.eventWriters[name]
	return ok
}

// EventHandlerCount returns the number of handlers registered for the event name.
func (c *Configuration[C]) EventHandlerCount(name string) int {
	return len(c.eventHandlers[name])
}

// clone copies the maps and handler lists so the copy can be modified freely.
func (c *Configuration[C]) clone() *Configuration[C] {
	cloned := NewConfiguration[C]()
	for name, handler := range c.commandHandlers {
		cloned.commandHandlers[name] = handler
	}
	for name, writer := range c.eventWriters {
		cloned.eventWriters[name] = writer
	}
	for name, handlers := range c.eventHandlers {
		cloned.eventHandlers[name] = append([]EventHandler[C](nil), handlers...)
	}
	return cloned
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
