// Package metrics provides Prometheus metrics integration for presage.
//
// This package enables observability through Prometheus metrics for command
// dispatch, including command handling, event writing and event handling.
//
// Basic usage:
//
//	m := metrics.New(metrics.WithMetricsServiceName("todo"))
//	// Register with Prometheus
//	prometheus.MustRegister(m.Collectors()...)
//
//	// Instrument writers and event handlers, then the command handlers
//	bus := presage.NewCommandBus(metrics.Instrument(m, cfg),
//	    presage.WithMiddleware(metrics.CommandMiddleware[*Store](m)),
//	    presage.WithUnwrittenEventHook[*Store](m.UnwrittenEvent),
//	)
//
// The metrics collected include:
//   - Command execution counts and durations
//   - Event writes and event handler invocations
//   - Commands issued by event handlers
//   - Events without a writer
//   - Error counts by type
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alightgoesout/presage"
)

// Default metric labels.
const (
	LabelCommandName = "command_name"
	LabelEventName   = "event_name"
	LabelStatus      = "status"
	LabelErrorType   = "error_type"
	LabelService     = "service"
)

// Status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics holds all Prometheus metrics for presage.
type Metrics struct {
	namespace   string
	subsystem   string
	serviceName string

	// Command metrics
	commandsTotal    *prometheus.CounterVec
	commandDuration  *prometheus.HistogramVec
	commandsInFlight *prometheus.GaugeVec

	// Event writer metrics
	eventsWrittenTotal  *prometheus.CounterVec
	eventWriteDuration  *prometheus.HistogramVec
	unwrittenEventTotal *prometheus.CounterVec

	// Event handler metrics
	eventHandlersTotal   *prometheus.CounterVec
	eventHandlerDuration *prometheus.HistogramVec
	commandsIssuedTotal  *prometheus.CounterVec

	// Error metrics
	errorsTotal *prometheus.CounterVec
}

// MetricsOption configures Metrics.
type MetricsOption func(*Metrics)

// WithNamespace sets the Prometheus namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(m *Metrics) {
		m.namespace = namespace
	}
}

// WithSubsystem sets the Prometheus subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(m *Metrics) {
		m.subsystem = subsystem
	}
}

// WithMetricsServiceName sets the service name label.
func WithMetricsServiceName(name string) MetricsOption {
	return func(m *Metrics) {
		m.serviceName = name
	}
}

// New creates a new Metrics instance with default settings.
func New(opts ...MetricsOption) *Metrics {
	m := &Metrics{
		namespace:   "presage",
		subsystem:   "",
		serviceName: "unknown",
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initMetrics()
	return m
}

// initMetrics initializes all Prometheus metrics.
func (m *Metrics) initMetrics() {
	// Command metrics
	m.commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "commands_total",
			Help:      "Total number of commands handled.",
		},
		[]string{LabelService, LabelCommandName, LabelStatus},
	)

	m.commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "command_duration_seconds",
			Help:      "Duration of command handling in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelService, LabelCommandName},
	)

	m.commandsInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "commands_in_flight",
			Help:      "Number of commands currently being handled.",
		},
		[]string{LabelService, LabelCommandName},
	)

	// Event writer metrics
	m.eventsWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_written_total",
			Help:      "Total number of events passed to event writers.",
		},
		[]string{LabelService, LabelEventName, LabelStatus},
	)

	m.eventWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "event_write_duration_seconds",
			Help:      "Duration of event writes in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelService, LabelEventName},
	)

	m.unwrittenEventTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_unwritten_total",
			Help:      "Total number of events dispatched without an event writer.",
		},
		[]string{LabelService, LabelEventName},
	)

	// Event handler metrics
	m.eventHandlersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "event_handlers_total",
			Help:      "Total number of event handler invocations.",
		},
		[]string{LabelService, LabelEventName, LabelStatus},
	)

	m.eventHandlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "event_handler_duration_seconds",
			Help:      "Duration of event handler invocations in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelService, LabelEventName},
	)

	m.commandsIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "commands_issued_total",
			Help:      "Total number of commands issued by event handlers.",
		},
		[]string{LabelService, LabelEventName},
	)

	// Error metrics
	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors by type.",
		},
		[]string{LabelService, LabelErrorType},
	)
}

// Collectors returns all Prometheus collectors for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.commandsTotal,
		m.commandDuration,
		m.commandsInFlight,
		m.eventsWrittenTotal,
		m.eventWriteDuration,
		m.unwrittenEventTotal,
		m.eventHandlersTotal,
		m.eventHandlerDuration,
		m.commandsIssuedTotal,
		m.errorsTotal,
	}
}

// MustRegister registers all collectors with the default registry.
// Panics if registration fails.
func (m *Metrics) MustRegister() {
	prometheus.MustRegister(m.Collectors()...)
}

// Register registers all collectors with the given registry.
func (m *Metrics) Register(registry prometheus.Registerer) error {
	for _, collector := range m.Collectors() {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Command Middleware
// =============================================================================

// CommandMiddleware returns middleware that records command metrics.
func CommandMiddleware[C any](m *Metrics) presage.Middleware[C] {
	return func(next presage.HandlerFunc[C]) presage.HandlerFunc[C] {
		return func(ctx context.Context, c C, cmd presage.BoxedCommand) (presage.Events, error) {
			name := cmd.Name()

			// Track in-flight
			m.commandsInFlight.WithLabelValues(m.serviceName, name).Inc()
			defer m.commandsInFlight.WithLabelValues(m.serviceName, name).Dec()

			// Time execution
			start := time.Now()
			events, err := next(ctx, c, cmd)
			duration := time.Since(start)

			// Record metrics
			m.commandDuration.WithLabelValues(m.serviceName, name).Observe(duration.Seconds())

			status := StatusSuccess
			if err != nil {
				status = StatusError
				m.RecordError(errorTypeName(err))
			}

			m.commandsTotal.WithLabelValues(m.serviceName, name, status).Inc()

			return events, err
		}
	}
}

// errorTypeName extracts the error type name based on sentinel errors.
func errorTypeName(err error) string {
	if err == nil {
		return "none"
	}

	switch {
	case errors.Is(err, presage.ErrHandlerNotFound):
		return "handler_not_found"
	case errors.Is(err, presage.ErrCommandDowncast):
		return "command_downcast"
	case errors.Is(err, presage.ErrValidationFailed):
		return "validation_failed"
	case errors.Is(err, presage.ErrHandlerPanicked):
		return "handler_panicked"
	case errors.Is(err, presage.ErrSerializationFailed):
		return "serialization_failed"
	case errors.Is(err, presage.ErrDeserializationFailed):
		return "deserialization_failed"
	case errors.Is(err, presage.ErrNilCommand):
		return "nil_command"
	case errors.Is(err, presage.ErrNilEvent):
		return "nil_event"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline_exceeded"
	default:
		return "unknown"
	}
}

// =============================================================================
// Event Writer Middleware
// =============================================================================

// EventWriterMiddleware wraps an EventWriter with metrics.
type EventWriterMiddleware[C any] struct {
	writer  presage.EventWriter[C]
	metrics *Metrics
}

// WrapEventWriter wraps a writer with metrics collection.
func WrapEventWriter[C any](m *Metrics, writer presage.EventWriter[C]) *EventWriterMiddleware[C] {
	return &EventWriterMiddleware[C]{
		writer:  writer,
		metrics: m,
	}
}

// EventNames returns the event names of the underlying writer.
func (wm *EventWriterMiddleware[C]) EventNames() []string {
	return wm.writer.EventNames()
}

// Write writes the event with metrics.
func (wm *EventWriterMiddleware[C]) Write(ctx context.Context, c C, event presage.SerializedEvent) error {
	start := time.Now()
	err := wm.writer.Write(ctx, c, event)
	duration := time.Since(start)

	wm.metrics.eventWriteDuration.WithLabelValues(wm.metrics.serviceName, event.Name()).Observe(duration.Seconds())

	status := StatusSuccess
	if err != nil {
		status = StatusError
		wm.metrics.RecordError("write_error")
	}

	wm.metrics.eventsWrittenTotal.WithLabelValues(wm.metrics.serviceName, event.Name(), status).Inc()

	return err
}

// UnwrittenEvent counts an event that has no writer. It has the signature of
// the command bus unwritten-event hook.
func (m *Metrics) UnwrittenEvent(ctx context.Context, event presage.SerializedEvent) {
	m.unwrittenEventTotal.WithLabelValues(m.serviceName, event.Name()).Inc()
}

// =============================================================================
// Event Handler Middleware
// =============================================================================

// EventHandlerMiddleware wraps an EventHandler with metrics.
type EventHandlerMiddleware[C any] struct {
	handler presage.EventHandler[C]
	metrics *Metrics
}

// WrapEventHandler wraps an event handler with metrics collection.
func WrapEventHandler[C any](m *Metrics, handler presage.EventHandler[C]) *EventHandlerMiddleware[C] {
	return &EventHandlerMiddleware[C]{
		handler: handler,
		metrics: m,
	}
}

// EventNames returns the event names of the underlying handler.
func (hm *EventHandlerMiddleware[C]) EventNames() []string {
	return hm.handler.EventNames()
}

// Handle handles the event with metrics.
func (hm *EventHandlerMiddleware[C]) Handle(ctx context.Context, c C, event presage.SerializedEvent) (presage.Commands, error) {
	start := time.Now()
	commands, err := hm.handler.Handle(ctx, c, event)
	duration := time.Since(start)

	hm.metrics.eventHandlerDuration.WithLabelValues(hm.metrics.serviceName, event.Name()).Observe(duration.Seconds())

	status := StatusSuccess
	if err != nil {
		status = StatusError
		hm.metrics.RecordError("event_handler_error")
	} else {
		hm.metrics.commandsIssuedTotal.WithLabelValues(hm.metrics.serviceName, event.Name()).Add(float64(len(commands)))
	}

	hm.metrics.eventHandlersTotal.WithLabelValues(hm.metrics.serviceName, event.Name(), status).Inc()

	return commands, err
}

// Instrument returns a copy of the configuration with every event writer and
// event handler wrapped with metrics collection. Command handlers are left
// untouched; use CommandMiddleware for them.
func Instrument[C any](m *Metrics, cfg *presage.Configuration[C]) *presage.Configuration[C] {
	return cfg.Decorate(presage.Decorator[C]{
		EventWriter: func(w presage.EventWriter[C]) presage.EventWriter[C] {
			return WrapEventWriter(m, w)
		},
		EventHandler: func(h presage.EventHandler[C]) presage.EventHandler[C] {
			return WrapEventHandler(m, h)
		},
	})
}

// =============================================================================
// Manual Metric Recording
// =============================================================================

// RecordError records a custom error.
func (m *Metrics) RecordError(errorType string) {
	m.errorsTotal.WithLabelValues(m.serviceName, errorType).Inc()
}

// =============================================================================
// Getters for testing
// =============================================================================

// CommandsTotal returns the commands counter.
func (m *Metrics) CommandsTotal() *prometheus.CounterVec {
	return m.commandsTotal
}

// CommandDuration returns the command duration histogram.
func (m *Metrics) CommandDuration() *prometheus.HistogramVec {
	return m.commandDuration
}

// CommandsInFlight returns the in-flight commands gauge.
func (m *Metrics) CommandsInFlight() *prometheus.GaugeVec {
	return m.commandsInFlight
}

// EventsWrittenTotal returns the events written counter.
func (m *Metrics) EventsWrittenTotal() *prometheus.CounterVec {
	return m.eventsWrittenTotal
}

// UnwrittenEventsTotal returns the unwritten events counter.
func (m *Metrics) UnwrittenEventsTotal() *prometheus.CounterVec {
	return m.unwrittenEventTotal
}

// EventHandlersTotal returns the event handler invocations counter.
func (m *Metrics) EventHandlersTotal() *prometheus.CounterVec {
	return m.eventHandlersTotal
}

// CommandsIssuedTotal returns the issued commands counter.
func (m *Metrics) CommandsIssuedTotal() *prometheus.CounterVec {
	return m.commandsIssuedTotal
}

// ErrorsTotal returns the errors counter.
func (m *Metrics) ErrorsTotal() *prometheus.CounterVec {
	return m.errorsTotal
}
