// Package tracing provides OpenTelemetry integration for presage.
//
// This package enables tracing of command dispatch: command handling, event
// writing and event handling each get their own span.
//
// Basic usage with command bus:
//
//	tp := sdktrace.NewTracerProvider(...)
//	otel.SetTracerProvider(tp)
//
//	tracer := tracing.NewTracer()
//	bus := presage.NewCommandBus(tracing.Instrument(tracer, cfg),
//	    presage.WithMiddleware(tracing.CommandMiddleware[*Store](tracer)),
//	)
//
// The tracing middleware captures:
//   - Command and event names
//   - Number of events produced and commands issued
//   - Success/failure status
//   - Error details when handlers fail
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alightgoesout/presage"
)

const (
	// TracerName is the name of the presage tracer.
	TracerName = "github.com/alightgoesout/presage"

	// DefaultServiceName is the default service name for spans.
	DefaultServiceName = "presage"
)

// Span attribute keys.
const (
	AttributeService      = "presage.service"
	AttributeCommandName  = "presage.command.name"
	AttributeEventName    = "presage.event.name"
	AttributeEventCodec   = "presage.event.codec"
	AttributeEventCount   = "presage.result.events"
	AttributeCommandCount = "presage.result.commands"
)

// Tracer wraps OpenTelemetry tracer for presage operations.
type Tracer struct {
	tracer      trace.Tracer
	serviceName string
}

// TracerOption configures a Tracer.
type TracerOption func(*Tracer)

// WithTracerProvider sets a custom TracerProvider.
func WithTracerProvider(tp trace.TracerProvider) TracerOption {
	return func(t *Tracer) {
		t.tracer = tp.Tracer(TracerName)
	}
}

// WithServiceName sets the service name for spans.
func WithServiceName(name string) TracerOption {
	return func(t *Tracer) {
		t.serviceName = name
	}
}

// NewTracer creates a new Tracer with the global TracerProvider.
func NewTracer(opts ...TracerOption) *Tracer {
	t := &Tracer{
		tracer:      otel.Tracer(TracerName),
		serviceName: DefaultServiceName,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// StartSpan starts a new span with the given name.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// Tracer returns the underlying OpenTelemetry tracer.
func (t *Tracer) Tracer() trace.Tracer {
	return t.tracer
}

// ServiceName returns the configured service name.
func (t *Tracer) ServiceName() string {
	return t.serviceName
}

// =============================================================================
// Command Middleware
// =============================================================================

// CommandMiddleware creates middleware that traces command handling.
func CommandMiddleware[C any](tracer *Tracer) presage.Middleware[C] {
	return func(next presage.HandlerFunc[C]) presage.HandlerFunc[C] {
		return func(ctx context.Context, c C, cmd presage.BoxedCommand) (presage.Events, error) {
			spanName := fmt.Sprintf("command.%s", cmd.Name())

			ctx, span := tracer.StartSpan(ctx, spanName,
				trace.WithSpanKind(trace.SpanKindInternal),
			)
			defer span.End()

			span.SetAttributes(
				attribute.String(AttributeService, tracer.serviceName),
				attribute.String(AttributeCommandName, cmd.Name()),
			)

			events, err := next(ctx, c, cmd)

			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
				span.SetAttributes(attribute.Int(AttributeEventCount, len(events)))
			}

			return events, err
		}
	}
}

// =============================================================================
// Event Writer Middleware
// =============================================================================

// EventWriterMiddleware wraps an EventWriter with tracing.
type EventWriterMiddleware[C any] struct {
	writer presage.EventWriter[C]
	tracer *Tracer
}

// NewEventWriterMiddleware wraps a writer with tracing.
func NewEventWriterMiddleware[C any](writer presage.EventWriter[C], tracer *Tracer) *EventWriterMiddleware[C] {
	return &EventWriterMiddleware[C]{
		writer: writer,
		tracer: tracer,
	}
}

// EventNames returns the event names of the underlying writer.
func (m *EventWriterMiddleware[C]) EventNames() []string {
	return m.writer.EventNames()
}

// Write writes the event with tracing.
func (m *EventWriterMiddleware[C]) Write(ctx context.Context, c C, event presage.SerializedEvent) error {
	spanName := fmt.Sprintf("event.%s.write", event.Name())

	ctx, span := m.tracer.StartSpan(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	span.SetAttributes(eventAttributes(m.tracer, event)...)

	err := m.writer.Write(ctx, c, event)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return err
}

// =============================================================================
// Event Handler Middleware
// =============================================================================

// EventHandlerMiddleware wraps an EventHandler with tracing.
type EventHandlerMiddleware[C any] struct {
	handler presage.EventHandler[C]
	tracer  *Tracer
}

// NewEventHandlerMiddleware wraps an event handler with tracing.
func NewEventHandlerMiddleware[C any](handler presage.EventHandler[C], tracer *Tracer) *EventHandlerMiddleware[C] {
	return &EventHandlerMiddleware[C]{
		handler: handler,
		tracer:  tracer,
	}
}

// EventNames returns the event names of the underlying handler.
func (m *EventHandlerMiddleware[C]) EventNames() []string {
	return m.handler.EventNames()
}

// Handle handles the event with tracing.
func (m *EventHandlerMiddleware[C]) Handle(ctx context.Context, c C, event presage.SerializedEvent) (presage.Commands, error) {
	spanName := fmt.Sprintf("event.%s.handle", event.Name())

	ctx, span := m.tracer.StartSpan(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	span.SetAttributes(eventAttributes(m.tracer, event)...)

	commands, err := m.handler.Handle(ctx, c, event)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(attribute.Int(AttributeCommandCount, len(commands)))
	}

	return commands, err
}

func eventAttributes(tracer *Tracer, event presage.SerializedEvent) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttributeService, tracer.serviceName),
		attribute.String(AttributeEventName, event.Name()),
		attribute.String(AttributeEventCodec, event.CodecName()),
	}
}

// Instrument returns a copy of the configuration with every event writer and
// event handler traced. Command handlers are traced by CommandMiddleware.
func Instrument[C any](tracer *Tracer, cfg *presage.Configuration[C]) *presage.Configuration[C] {
	return cfg.Decorate(presage.Decorator[C]{
		EventWriter: func(w presage.EventWriter[C]) presage.EventWriter[C] {
			return NewEventWriterMiddleware(w, tracer)
		},
		EventHandler: func(h presage.EventHandler[C]) presage.EventHandler[C] {
			return NewEventHandlerMiddleware(h, tracer)
		},
	})
}

// =============================================================================
// Span Helpers
// =============================================================================

// SpanFromContext returns the current span from context.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// AddEvent adds an event to the current span.
func AddEvent(ctx context.Context, name string, opts ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, opts...)
}

// SetError sets an error on the current span.
func SetError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetAttributes sets attributes on the current span.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attrs...)
}
