// Package assertions provides assertion utilities for testing presage handlers.
// It includes helpers for checking serialized events by name and payload,
// checking issued commands, and generating event diffs.
package assertions

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/alightgoesout/presage"
)

// TB is an alias for testing.TB interface to allow mocking in tests
type TB = testing.TB

// AssertEventNames checks that the events have the expected names in order.
func AssertEventNames(t TB, events presage.Events, names ...string) {
	t.Helper()

	if len(events) != len(names) {
		t.Fatalf("Expected %d events, got %d: %v", len(names), len(events), events.Names())
	}

	for i, expectedName := range names {
		if actual := events[i].Name(); actual != expectedName {
			t.Errorf("Event %d: expected name %s, got %s", i, expectedName, actual)
		}
	}
}

// AssertEventData checks that a serialized event decodes to the expected event.
func AssertEventData[T presage.Event](t TB, event presage.SerializedEvent, expected T) {
	t.Helper()

	actual, err := presage.Deserialize[T](event)
	if err != nil {
		t.Fatalf("Event %s cannot be decoded as %T: %v", event.Name(), expected, err)
	}

	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("Event data mismatch:\nExpected: %+v\nActual: %+v", expected, actual)
	}
}

// AssertEventCount checks the number of events.
func AssertEventCount(t TB, events presage.Events, expected int) {
	t.Helper()

	if len(events) != expected {
		t.Errorf("Expected %d events, got %d", expected, len(events))
	}
}

// AssertNoEvents checks that no events were produced.
func AssertNoEvents(t TB, events presage.Events) {
	t.Helper()

	if len(events) > 0 {
		t.Errorf("Expected no events, got %d: %v", len(events), events.Names())
	}
}

// AssertFirstEvent checks the first event matches the expected data.
func AssertFirstEvent[T presage.Event](t TB, events presage.Events, expected T) {
	t.Helper()

	if len(events) == 0 {
		t.Fatal("Expected at least one event, got none")
	}

	AssertEventData(t, events[0], expected)
}

// AssertLastEvent checks the last event matches the expected data.
func AssertLastEvent[T presage.Event](t TB, events presage.Events, expected T) {
	t.Helper()

	if len(events) == 0 {
		t.Fatal("Expected at least one event, got none")
	}

	AssertEventData(t, events[len(events)-1], expected)
}

// AssertEventAtIndex checks the event at a specific index matches the expected data.
func AssertEventAtIndex[T presage.Event](t TB, events presage.Events, index int, expected T) {
	t.Helper()

	if index < 0 || index >= len(events) {
		t.Fatalf("Index %d out of range (have %d events)", index, len(events))
	}

	AssertEventData(t, events[index], expected)
}

// AssertContainsEvent checks that the events contain the expected event.
func AssertContainsEvent[T presage.Event](t TB, events presage.Events, expected T) {
	t.Helper()

	if CountMatches(events, MatchEvent(expected)) == 0 {
		t.Errorf("Events do not contain %s %+v", expected.EventName(), expected)
	}
}

// AssertContainsEventName checks that the events contain at least one event with the name.
func AssertContainsEventName(t TB, events presage.Events, name string) {
	t.Helper()

	if CountMatches(events, MatchEventName(name)) == 0 {
		t.Errorf("Events do not contain event named %s", name)
	}
}

// =============================================================================
// Diffs
// =============================================================================

// EventDiff represents a difference between expected and actual events.
type EventDiff struct {
	Index    int
	Expected presage.Event
	Actual   interface{}
	Type     DiffType
}

// DiffType represents the type of difference.
type DiffType int

const (
	// DiffMissing indicates an expected event was not present.
	DiffMissing DiffType = iota
	// DiffExtra indicates an unexpected event was present.
	DiffExtra
	// DiffMismatch indicates event data did not match.
	DiffMismatch
)

// String returns a human-readable representation of the diff type.
func (d DiffType) String() string {
	switch d {
	case DiffMissing:
		return "missing"
	case DiffExtra:
		return "extra"
	case DiffMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// DiffEvents compares expected events with serialized events and returns the
// differences. An actual event is decoded into the type of the expected event
// at the same index; an event that cannot be decoded is a mismatch.
func DiffEvents(expected []presage.Event, actual presage.Events) []EventDiff {
	var diffs []EventDiff

	maxLen := len(expected)
	if len(actual) > maxLen {
		maxLen = len(actual)
	}

	for i := 0; i < maxLen; i++ {
		switch {
		case i >= len(expected):
			diffs = append(diffs, EventDiff{
				Index:  i,
				Actual: actual[i],
				Type:   DiffExtra,
			})
		case i >= len(actual):
			diffs = append(diffs, EventDiff{
				Index:    i,
				Expected: expected[i],
				Type:     DiffMissing,
			})
		default:
			decoded, err := DecodeAs(actual[i], expected[i])
			if err != nil {
				diffs = append(diffs, EventDiff{
					Index:    i,
					Expected: expected[i],
					Actual:   actual[i],
					Type:     DiffMismatch,
				})
			} else if !reflect.DeepEqual(decoded, expected[i]) {
				diffs = append(diffs, EventDiff{
					Index:    i,
					Expected: expected[i],
					Actual:   decoded,
					Type:     DiffMismatch,
				})
			}
		}
	}

	return diffs
}

// DecodeAs decodes a serialized event into a new value of the same type as
// like. The event name must be the name of like.
func DecodeAs(event presage.SerializedEvent, like presage.Event) (presage.Event, error) {
	if like == nil {
		return nil, presage.ErrNilEvent
	}
	if event.Name() != like.EventName() {
		return nil, fmt.Errorf("event %s is not %s", event.Name(), like.EventName())
	}

	typ := reflect.TypeOf(like)
	pointer := typ.Kind() == reflect.Ptr
	if pointer {
		typ = typ.Elem()
	}

	target := reflect.New(typ)
	if err := event.Unmarshal(target.Interface()); err != nil {
		return nil, err
	}

	if pointer {
		return target.Interface().(presage.Event), nil
	}
	return target.Elem().Interface().(presage.Event), nil
}

// FormatDiffs formats event diffs as a human-readable string.
func FormatDiffs(diffs []EventDiff) string {
	if len(diffs) == 0 {
		return "no differences"
	}

	var buf strings.Builder
	buf.WriteString("Event differences:\n")

	for _, diff := range diffs {
		buf.WriteString(formatDiff(diff))
	}

	return buf.String()
}

func formatDiff(diff EventDiff) string {
	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("  Event %d (%s):\n", diff.Index, diff.Type))

	switch diff.Type {
	case DiffExtra:
		buf.WriteString(fmt.Sprintf("    + %v (unexpected)\n", diff.Actual))
	case DiffMissing:
		buf.WriteString(fmt.Sprintf("    - %s %+v (missing)\n", eventName(diff.Expected), diff.Expected))
	case DiffMismatch:
		buf.WriteString(fmt.Sprintf("    - %s %+v\n", eventName(diff.Expected), diff.Expected))
		buf.WriteString(fmt.Sprintf("    + %+v\n", diff.Actual))
	}

	return buf.String()
}

func eventName(event presage.Event) string {
	if event == nil {
		return "<nil>"
	}
	return event.EventName()
}

// AssertEventsEqual compares expected events with serialized events and fails if they differ.
func AssertEventsEqual(t TB, expected []presage.Event, actual presage.Events) {
	t.Helper()

	diffs := DiffEvents(expected, actual)
	if len(diffs) > 0 {
		t.Error(FormatDiffs(diffs))
	}
}

// AssertEventsMatch checks that actual events start with the expected events,
// allowing for extra events at the end.
func AssertEventsMatch(t TB, expected []presage.Event, actual presage.Events) {
	t.Helper()

	if len(actual) < len(expected) {
		t.Fatalf("Expected at least %d events, got %d", len(expected), len(actual))
	}

	diffs := DiffEvents(expected, actual[:len(expected)])
	if len(diffs) > 0 {
		t.Error(FormatDiffs(diffs))
	}
}

// =============================================================================
// Matchers
// =============================================================================

// EventMatcher is a function that checks if an event matches certain criteria.
type EventMatcher func(event presage.SerializedEvent) bool

// MatchEventName returns a matcher that checks for a specific event name.
func MatchEventName(name string) EventMatcher {
	return func(event presage.SerializedEvent) bool {
		return event.Name() == name
	}
}

// MatchEvent returns a matcher that checks for exact event equality after decoding.
func MatchEvent[T presage.Event](expected T) EventMatcher {
	return func(event presage.SerializedEvent) bool {
		actual, err := presage.Deserialize[T](event)
		if err != nil {
			return false
		}
		return reflect.DeepEqual(actual, expected)
	}
}

// AssertAnyMatch checks that at least one event matches the matcher.
func AssertAnyMatch(t TB, events presage.Events, matcher EventMatcher) {
	t.Helper()

	for _, event := range events {
		if matcher(event) {
			return
		}
	}

	t.Error("No event matched the criteria")
}

// AssertAllMatch checks that all events match the matcher.
func AssertAllMatch(t TB, events presage.Events, matcher EventMatcher) {
	t.Helper()

	for i, event := range events {
		if !matcher(event) {
			t.Errorf("Event %d did not match: %v", i, event)
		}
	}
}

// AssertNoneMatch checks that no events match the matcher.
func AssertNoneMatch(t TB, events presage.Events, matcher EventMatcher) {
	t.Helper()

	for i, event := range events {
		if matcher(event) {
			t.Errorf("Event %d unexpectedly matched: %v", i, event)
		}
	}
}

// CountMatches returns the number of events that match the matcher.
func CountMatches(events presage.Events, matcher EventMatcher) int {
	count := 0
	for _, event := range events {
		if matcher(event) {
			count++
		}
	}
	return count
}

// FilterEvents returns events that match the matcher.
func FilterEvents(events presage.Events, matcher EventMatcher) presage.Events {
	var result presage.Events
	for _, event := range events {
		if matcher(event) {
			result = append(result, event)
		}
	}
	return result
}

// =============================================================================
// Commands
// =============================================================================

// AssertCommandNames checks that the commands have the expected names in order.
func AssertCommandNames(t TB, commands presage.Commands, names ...string) {
	t.Helper()

	if len(commands) != len(names) {
		t.Fatalf("Expected %d commands, got %d: %v", len(names), len(commands), commands.Names())
	}

	for i, expectedName := range names {
		if actual := commands[i].Name(); actual != expectedName {
			t.Errorf("Command %d: expected name %s, got %s", i, expectedName, actual)
		}
	}
}

// AssertNoCommands checks that no commands were issued.
func AssertNoCommands(t TB, commands presage.Commands) {
	t.Helper()

	if len(commands) > 0 {
		t.Errorf("Expected no commands, got %d: %v", len(commands), commands.Names())
	}
}

// AssertCommand checks that a boxed command holds the expected command.
func AssertCommand[T presage.Command](t TB, command presage.BoxedCommand, expected T) {
	t.Helper()

	actual, err := presage.Unbox[T](command)
	if err != nil {
		t.Fatalf("Command %s is not a %T: %v", command.Name(), expected, err)
	}

	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("Command mismatch:\nExpected: %+v\nActual: %+v", expected, actual)
	}
}
