package presage

import (
	"fmt"
)

// Command represents a request to change the state of the system.
// Commands are handled by exactly one CommandHandler and never leave the process,
// so they carry no serialization requirement.
//
// CommandName returns the unique name of the command type. Like Event.EventName,
// it is read from the zero value of the type.
type Command interface {
	CommandName() string
}

// Validator is implemented by commands that can check their own fields.
// It is used by ValidationMiddleware.
type Validator interface {
	Validate() error
}

// BoxedCommand is the type-erased form of a Command, as stored in the dispatch queue.
type BoxedCommand struct {
	name    string
	payload Command
}

// Box erases the type of a command. A nil command yields an empty box, which
// the bus rejects with ErrNilCommand.
func Box(cmd Command) BoxedCommand {
	if cmd == nil {
		return BoxedCommand{}
	}
	return BoxedCommand{
		name:    cmd.CommandName(),
		payload: cmd,
	}
}

// Name returns the name of the boxed command.
func (b BoxedCommand) Name() string {
	return b.name
}

// Payload returns the boxed command as its Command interface.
func (b BoxedCommand) Payload() Command {
	return b.payload
}

// IsZero reports whether the box holds no command.
func (b BoxedCommand) IsZero() bool {
	return b.payload == nil
}

// String returns the command name.
func (b BoxedCommand) String() string {
	return b.name
}

// Unbox returns the boxed command as its concrete type T.
// It fails with a CommandDowncastError when the box holds another type.
func Unbox[T Command](b BoxedCommand) (T, error) {
	cmd, ok := b.payload.(T)
	if !ok {
		var zero T
		return zero, NewCommandDowncastError(b.name, fmt.Sprintf("%T", zero), fmt.Sprintf("%T", b.payload))
	}
	return cmd, nil
}

// Commands is an ordered batch of boxed commands. The order is the order in
// which they join the back of the dispatch queue.
type Commands []BoxedCommand

// NewCommands boxes the given commands.
func NewCommands(cmds ...Command) Commands {
	batch := make(Commands, 0, len(cmds))
	for _, cmd := range cmds {
		batch.Add(cmd)
	}
	return batch
}

// Add boxes a command and appends it.
func (c *Commands) Add(cmd Command) {
	*c = append(*c, Box(cmd))
}

// Names returns the command names in order.
func (c Commands) Names() []string {
	names := make([]string, len(c))
	for i, cmd := range c {
		names[i] = cmd.name
	}
	return names
}
