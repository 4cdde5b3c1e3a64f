package presage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfiguration_Registration(t *testing.T) {
	cfg := orderConfiguration()

	assert.Equal(t, []string{"notify-customer", "place-order", "ship-order"}, cfg.CommandNames())
	assert.Equal(t, []string{"order-placed", "order-shipped"}, cfg.WrittenEventNames())
	assert.Equal(t, []string{"order-placed"}, cfg.HandledEventNames())
	assert.True(t, cfg.HasCommandHandler("place-order"))
	assert.False(t, cfg.HasCommandHandler("order-placed"))
	assert.True(t, cfg.HasEventWriter("order-shipped"))
	assert.False(t, cfg.HasEventWriter("customer-notified"))
	assert.Equal(t, 2, cfg.EventHandlerCount("order-placed"))
	assert.Equal(t, 0, cfg.EventHandlerCount("order-shipped"))
}

func TestConfiguration_LastWriterWins(t *testing.T) {
	var written []string
	writer := func(label string) EventWriter[*journal] {
		return NewEventWriterFunc[*journal](func(ctx context.Context, j *journal, e SerializedEvent) error {
			written = append(written, label)
			return nil
		}, "order-shipped")
	}

	cfg := NewConfiguration[*journal]().
		CommandHandler(NewCommandHandler(func(ctx context.Context, j *journal, cmd shipOrder) (Events, error) {
			return NewEvents(orderShipped{OrderID: cmd.OrderID})
		})).
		EventWriter(writer("first")).
		EventWriter(writer("second"))

	require.NoError(t, NewCommandBus(cfg).Execute(context.Background(), &journal{}, shipOrder{OrderID: "o-1"}))
	assert.Equal(t, []string{"second"}, written)
}

func TestConfiguration_MultiNameRegistration(t *testing.T) {
	var seen []string
	cfg := NewConfiguration[*journal]().
		EventWriter(NewEventWriterFunc[*journal](func(ctx context.Context, j *journal, e SerializedEvent) error {
			return nil
		}, "a", "b")).
		EventHandler(NewEventHandlerFunc[*journal](func(ctx context.Context, j *journal, e SerializedEvent) (Commands, error) {
			seen = append(seen, e.Name())
			return nil, nil
		}, "a", "b", "c"))

	assert.Equal(t, []string{"a", "b"}, cfg.WrittenEventNames())
	assert.Equal(t, []string{"a", "b", "c"}, cfg.HandledEventNames())
	assert.Empty(t, seen)
}

func TestConfiguration_Merge(t *testing.T) {
	var order []string
	handler := func(label string) EventHandler[*journal] {
		return NewEventHandlerFunc[*journal](func(ctx context.Context, j *journal, e SerializedEvent) (Commands, error) {
			order = append(order, label)
			return nil, nil
		}, "order-placed")
	}

	left := orderConfiguration()
	right := NewConfiguration[*journal]().
		EventHandler(handler("right")).
		CommandHandler(NewCommandHandlerFunc[*journal]("cancel-order", func(ctx context.Context, j *journal, cmd BoxedCommand) (Events, error) {
			return nil, nil
		}))

	merged := left.Merge(right)

	t.Run("combines registrations", func(t *testing.T) {
		assert.True(t, merged.HasCommandHandler("cancel-order"))
		assert.True(t, merged.HasCommandHandler("place-order"))
		assert.Equal(t, 3, merged.EventHandlerCount("order-placed"))
	})

	t.Run("leaves inputs untouched", func(t *testing.T) {
		assert.False(t, left.HasCommandHandler("cancel-order"))
		assert.Equal(t, 2, left.EventHandlerCount("order-placed"))
		assert.Equal(t, 1, right.EventHandlerCount("order-placed"))
	})

	t.Run("left handlers run first", func(t *testing.T) {
		j := &journal{}
		require.NoError(t, NewCommandBus(merged).Execute(context.Background(), j, placeOrder{OrderID: "o-1", Items: 1}))

		assert.Equal(t, []string{"right"}, order)
		assert.Equal(t, "on order-placed ship o-1", j.entries[2])
		assert.Equal(t, "on order-placed notify o-1", j.entries[3])
	})

	t.Run("nil other", func(t *testing.T) {
		assert.Equal(t, left.CommandNames(), left.Merge(nil).CommandNames())
	})

	t.Run("merge configurations", func(t *testing.T) {
		all := MergeConfigurations(left, right, nil)

		assert.Equal(t, merged.CommandNames(), all.CommandNames())
		assert.Equal(t, 3, all.EventHandlerCount("order-placed"))
		assert.Empty(t, MergeConfigurations[*journal]().CommandNames())
	})
}

func TestConfiguration_MergeIsAssociative(t *testing.T) {
	var calls []string
	command := func(label string) CommandHandler[*journal] {
		return NewCommandHandlerFunc[*journal]("archive-order", func(ctx context.Context, j *journal, cmd BoxedCommand) (Events, error) {
			calls = append(calls, "command "+label)
			return Events{rawEvent("order-archived")}, nil
		})
	}
	writer := func(label string) EventWriter[*journal] {
		return NewEventWriterFunc[*journal](func(ctx context.Context, j *journal, e SerializedEvent) error {
			calls = append(calls, "write "+label)
			return nil
		}, "order-archived")
	}
	handler := func(label string) EventHandler[*journal] {
		return NewEventHandlerFunc[*journal](func(ctx context.Context, j *journal, e SerializedEvent) (Commands, error) {
			calls = append(calls, "handle "+label)
			return nil, nil
		}, "order-archived")
	}

	a := NewConfiguration[*journal]().CommandHandler(command("a")).EventWriter(writer("a")).EventHandler(handler("a"))
	b := NewConfiguration[*journal]().CommandHandler(command("b")).EventHandler(handler("b"))
	c := NewConfiguration[*journal]().EventWriter(writer("c")).EventHandler(handler("c"))

	run := func(cfg *Configuration[*journal]) []string {
		calls = nil
		require.NoError(t, NewCommandBus(cfg).Execute(context.Background(), &journal{}, named("archive-order")))
		return calls
	}

	expected := []string{"command b", "write c", "handle a", "handle b", "handle c"}
	assert.Equal(t, expected, run(a.Merge(b).Merge(c)))
	assert.Equal(t, expected, run(a.Merge(b.Merge(c))))
	assert.Equal(t, expected, run(MergeConfigurations(a, b, c)))
}

func TestConfiguration_MergeNil(t *testing.T) {
	var empty *Configuration[*journal]

	merged := empty.Merge(orderConfiguration())

	assert.Equal(t, orderConfiguration().CommandNames(), merged.CommandNames())
	assert.Equal(t, 2, merged.EventHandlerCount("order-placed"))
	assert.Empty(t, empty.Merge(nil).CommandNames())
}

func TestConfiguration_Decorate(t *testing.T) {
	var wrapped []string

	cfg := orderConfiguration().Decorate(Decorator[*journal]{
		CommandHandler: func(h CommandHandler[*journal]) CommandHandler[*journal] {
			return NewCommandHandlerFunc[*journal](h.CommandName(), func(ctx context.Context, j *journal, cmd BoxedCommand) (Events, error) {
				wrapped = append(wrapped, "command "+cmd.Name())
				return h.Handle(ctx, j, cmd)
			})
		},
		EventWriter: func(w EventWriter[*journal]) EventWriter[*journal] {
			return NewEventWriterFunc[*journal](func(ctx context.Context, j *journal, e SerializedEvent) error {
				wrapped = append(wrapped, "write "+e.Name())
				return w.Write(ctx, j, e)
			}, w.EventNames()...)
		},
	})

	j := &journal{}
	require.NoError(t, NewCommandBus(cfg).Execute(context.Background(), j, placeOrder{OrderID: "o-1", Items: 1}))

	assert.Equal(t, []string{
		"command place-order",
		"write order-placed",
		"command ship-order",
		"write order-shipped",
		"command notify-customer",
	}, wrapped)
	assert.Len(t, j.entries, 7)

	t.Run("original is untouched", func(t *testing.T) {
		wrapped = nil
		require.NoError(t, NewCommandBus(orderConfiguration()).Execute(context.Background(), &journal{}, placeOrder{OrderID: "o-1", Items: 1}))
		assert.Empty(t, wrapped)
	})
}
