// Package presage provides a command and event dispatch engine for event-driven
// applications running in a single process.
//
// Commands express an intention. A command handler turns a command into events,
// facts that describe what happened. Each event is persisted by its event
// writer, then handed to event handlers, which may issue new commands. The
// engine repeats this until no command is left. Every handler receives a
// context value of a type chosen by the application: a database transaction, an
// in-memory store, or anything else the handlers need.
//
// # Defining Commands and Events
//
// Commands and events are plain structs with a static name:
//
//	type CreateTask struct {
//	    Name string `json:"name"`
//	}
//
//	func (CreateTask) CommandName() string { return "create-task" }
//
//	type TaskCreated struct {
//	    ID   TaskID `json:"id"`
//	    Name string `json:"name"`
//	}
//
//	func (TaskCreated) EventName() string { return "task-created" }
//
// The name is read from the zero value, so it must not depend on the fields.
//
// # Identifiers
//
// ID is an identifier tagged with the type it identifies, so that IDs of
// different aggregates cannot be mixed up:
//
//	type TaskID = presage.ID[Task, uuid.UUID]
//
//	id := presage.NewID[Task](uuid.New())
//
// # Handlers
//
// Handlers are registered in a Configuration. Typed adapters take care of
// unboxing commands and deserializing events:
//
//	cfg := presage.NewConfiguration[*Store]().
//	    CommandHandler(presage.NewCommandHandler(func(ctx context.Context, s *Store, cmd CreateTask) (presage.Events, error) {
//	        return presage.NewEvents(TaskCreated{ID: presage.NewID[Task](uuid.New()), Name: cmd.Name})
//	    })).
//	    EventWriter(presage.NewEventWriter(func(ctx context.Context, s *Store, e TaskCreated) error {
//	        s.tasks[e.ID] = &Task{id: e.ID, name: e.Name}
//	        return nil
//	    })).
//	    EventHandler(presage.NewEventHandler(func(ctx context.Context, s *Store, e TaskCreated) (presage.Commands, error) {
//	        return presage.NewCommands(IncrementTaskCount{}), nil
//	    }))
//
// Configurations built by independent modules are combined with Merge.
//
// # Executing Commands
//
//	bus := presage.NewCommandBus(cfg,
//	    presage.WithLogger[*Store](slog.Default()),
//	    presage.WithMiddleware(presage.RecoveryMiddleware[*Store]()),
//	)
//
//	err := bus.Execute(ctx, store, CreateTask{Name: "Buy milk"})
//
// Execution is breadth-first: commands issued while handling an event are
// queued behind the commands already waiting. The first error aborts the
// execution and is returned unchanged.
//
// # Aggregates
//
// AggregateWriter persists aggregates built from a creation event, updated by
// update events and removed by a deletion event, into an AggregateRepository
// reached through the context value.
package presage

// Version returns the library version string.
func Version() string {
	return "0.1.0"
}
