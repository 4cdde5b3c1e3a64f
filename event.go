package presage

import (
	"bytes"
	"fmt"
)

// Event represents something that happened in the past.
//
// EventName returns the unique name of the event type. It is read from the
// zero value of the type, so it must not depend on the receiver's fields:
//
//	type TaskCreated struct {
//	    ID   TaskID `json:"id"`
//	    Name string `json:"name"`
//	}
//
//	func (TaskCreated) EventName() string { return "task-created" }
//
// Name uniqueness is the responsibility of whoever registers handlers for it.
type Event interface {
	EventName() string
}

// AggregateEvent is an Event that creates, updates or deletes one aggregate.
// AggregateID must be computed from the event's own fields only.
type AggregateEvent[A any, K comparable] interface {
	Event

	// AggregateID returns the identifier of the affected aggregate.
	AggregateID() ID[A, K]
}

// SerializedEvent is the type-erased form of an Event: its name plus the
// payload encoded as a structured value. It is immutable once created.
type SerializedEvent struct {
	name  string
	data  []byte
	codec Codec
}

// NewSerializedEvent builds a SerializedEvent from an already encoded payload.
// A nil codec means JSONCodec.
func NewSerializedEvent(name string, data []byte, codec Codec) SerializedEvent {
	if codec == nil {
		codec = JSONCodec
	}
	return SerializedEvent{
		name:  name,
		data:  bytes.Clone(data),
		codec: codec,
	}
}

// Serialize encodes an event with JSONCodec.
func Serialize(event Event) (SerializedEvent, error) {
	return SerializeWith(JSONCodec, event)
}

// SerializeWith encodes an event with the given codec.
func SerializeWith(codec Codec, event Event) (SerializedEvent, error) {
	if codec == nil {
		codec = JSONCodec
	}
	if event == nil {
		return SerializedEvent{}, NewSerializationError("", codec.Name(), ErrNilEvent)
	}

	name := event.EventName()
	data, err := codec.Marshal(event)
	if err != nil {
		return SerializedEvent{}, NewSerializationError(name, codec.Name(), err)
	}

	return SerializedEvent{
		name:  name,
		data:  data,
		codec: codec,
	}, nil
}

// Name returns the name of the serialized event.
func (e SerializedEvent) Name() string {
	return e.name
}

// Data returns a copy of the encoded payload.
func (e SerializedEvent) Data() []byte {
	return bytes.Clone(e.data)
}

// CodecName returns the name of the codec that encoded the payload.
func (e SerializedEvent) CodecName() string {
	if e.codec == nil {
		return ""
	}
	return e.codec.Name()
}

// Unmarshal decodes the payload into v without checking the event name.
func (e SerializedEvent) Unmarshal(v interface{}) error {
	codec := e.codec
	if codec == nil {
		codec = JSONCodec
	}
	if err := codec.Unmarshal(e.data, v); err != nil {
		return NewDeserializationError(e.name, codec.Name(), err)
	}
	return nil
}

// Equal reports whether both events carry the same name, codec and payload bytes.
func (e SerializedEvent) Equal(other SerializedEvent) bool {
	return e.name == other.name &&
		e.CodecName() == other.CodecName() &&
		bytes.Equal(e.data, other.data)
}

// String returns a short description of the event for logs.
func (e SerializedEvent) String() string {
	return fmt.Sprintf("%s (%s, %d bytes)", e.name, e.CodecName(), len(e.data))
}

// Deserialize decodes a serialized event into the concrete event type T.
// It fails when the stored name is not T's name or the payload does not
// match T's structure.
func Deserialize[T Event](event SerializedEvent) (T, error) {
	var target T
	if expected := target.EventName(); event.name != expected {
		return target, NewDeserializationError(event.name, event.CodecName(),
			fmt.Errorf("event name does not match %T (%q)", target, expected))
	}
	if err := event.Unmarshal(&target); err != nil {
		var zero T
		return zero, err
	}
	return target, nil
}

// Events is an ordered batch of serialized events. The order is the order in
// which events are written and fanned out.
type Events []SerializedEvent

// NewEvents serializes events with JSONCodec, stopping at the first failure.
func NewEvents(events ...Event) (Events, error) {
	return NewEventsWith(JSONCodec, events...)
}

// NewEventsWith serializes events with the given codec, stopping at the first failure.
func NewEventsWith(codec Codec, events ...Event) (Events, error) {
	batch := make(Events, 0, len(events))
	for _, event := range events {
		if err := batch.AddWith(codec, event); err != nil {
			return nil, err
		}
	}
	return batch, nil
}

// Add serializes an event with JSONCodec and appends it.
func (e *Events) Add(event Event) error {
	return e.AddWith(JSONCodec, event)
}

// AddWith serializes an event with the given codec and appends it.
func (e *Events) AddWith(codec Codec, event Event) error {
	serialized, err := SerializeWith(codec, event)
	if err != nil {
		return err
	}
	*e = append(*e, serialized)
	return nil
}

// Names returns the event names in order.
func (e Events) Names() []string {
	names := make([]string, len(e))
	for i, event := range e {
		names[i] = event.name
	}
	return names
}
