package presage

import (
	"context"
	"fmt"
)

// Aggregate represents a business entity whose state only evolves through events.
//
// The type parameters are the aggregate tag A and raw identifier K of its ID,
// and the update event type U. An aggregate is created once from its creation
// event by a constructor function (func(CE) T), then mutated in place by
// Apply, in the order update events arrive. Apply must accept every update
// event it can legally be given; passing an event for another aggregate is a
// caller bug, not a runtime error. Deletion is only an event: removing the
// aggregate is up to whatever stores it.
//
//	type Task struct {
//	    id   TaskID
//	    name string
//	}
//
//	func NewTask(e TaskCreated) *Task { return &Task{id: e.ID, name: e.Name} }
//
//	func (t *Task) ID() TaskID { return t.id }
//
//	func (t *Task) Apply(e TaskUpdated) { t.name = e.NewName }
type Aggregate[A any, K comparable, U any] interface {
	// ID returns the identifier of the aggregate.
	ID() ID[A, K]

	// Apply mutates the aggregate with an update event.
	Apply(event U)
}

// AggregateRepository stores aggregates of one kind.
type AggregateRepository[A any, K comparable, T any] interface {
	// Load returns the aggregate with the given ID, and false if it does not exist.
	Load(ctx context.Context, id ID[A, K]) (T, bool, error)

	// Add stores a new aggregate.
	Add(ctx context.Context, aggregate T) error

	// Update replaces an existing aggregate.
	Update(ctx context.Context, aggregate T) error

	// Delete removes an aggregate.
	Delete(ctx context.Context, id ID[A, K]) error
}

// AggregateWriter is an EventWriter that keeps one kind of aggregate up to date
// in a repository reachable from the dispatch context.
//
// Creation events build the aggregate with the constructor and add it, update
// events are applied to the stored aggregate (and ignored when it is absent),
// deletion events remove it.
type AggregateWriter[C any, A any, K comparable, T Aggregate[A, K, U], CE, U, DE AggregateEvent[A, K]] struct {
	repository func(C) AggregateRepository[A, K, T]
	create     func(CE) T

	creationName string
	updateName   string
	deletionName string
}

// NewAggregateWriter creates an AggregateWriter. The repository function
// resolves the repository from the dispatch context on every write.
func NewAggregateWriter[C any, A any, K comparable, T Aggregate[A, K, U], CE, U, DE AggregateEvent[A, K]](
	create func(CE) T,
	repository func(C) AggregateRepository[A, K, T],
) *AggregateWriter[C, A, K, T, CE, U, DE] {
	var (
		creation CE
		update   U
		deletion DE
	)
	return &AggregateWriter[C, A, K, T, CE, U, DE]{
		repository:   repository,
		create:       create,
		creationName: creation.EventName(),
		updateName:   update.EventName(),
		deletionName: deletion.EventName(),
	}
}

// EventNames returns the creation, update and deletion event names.
func (w *AggregateWriter[C, A, K, T, CE, U, DE]) EventNames() []string {
	return []string{w.creationName, w.updateName, w.deletionName}
}

// Write applies the event to the repository.
func (w *AggregateWriter[C, A, K, T, CE, U, DE]) Write(ctx context.Context, c C, event SerializedEvent) error {
	switch event.Name() {
	case w.creationName:
		creation, err := Deserialize[CE](event)
		if err != nil {
			return err
		}
		return w.repository(c).Add(ctx, w.create(creation))

	case w.updateName:
		update, err := Deserialize[U](event)
		if err != nil {
			return err
		}
		repository := w.repository(c)
		aggregate, found, err := repository.Load(ctx, update.AggregateID())
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		aggregate.Apply(update)
		return repository.Update(ctx, aggregate)

	case w.deletionName:
		deletion, err := Deserialize[DE](event)
		if err != nil {
			return err
		}
		return w.repository(c).Delete(ctx, deletion.AggregateID())

	default:
		return fmt.Errorf("presage: aggregate writer cannot write event %q", event.Name())
	}
}
