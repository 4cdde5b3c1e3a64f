package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/alightgoesout/presage"
	"github.com/alightgoesout/presage/cli/config"
	"github.com/alightgoesout/presage/examples/todo"
	"github.com/alightgoesout/presage/middleware/metrics"
	"github.com/alightgoesout/presage/middleware/tracing"
)

// taskRuntime is the task list app wired with the logging, metrics and
// tracing settings of a configuration.
type taskRuntime struct {
	app            *todo.App
	logger         *slog.Logger
	registry       *prometheus.Registry
	tracerProvider *sdktrace.TracerProvider
}

// newTaskRuntime builds the app. Logs go to logs; spans go to spans when the
// stdout exporter is selected.
func newTaskRuntime(cfg *config.Config, logs, spans io.Writer) (*taskRuntime, error) {
	codec, err := cfg.Codec()
	if err != nil {
		return nil, err
	}

	rt := &taskRuntime{logger: newLogger(cfg, logs)}

	dispatch := todo.Configuration()
	opts := []presage.CommandBusOption[*todo.Store]{
		presage.WithLogger[*todo.Store](rt.logger),
	}

	if cfg.Dispatch.RecoverPanics {
		opts = append(opts, presage.WithMiddleware(presage.RecoveryMiddleware[*todo.Store]()))
	}

	if cfg.Tracing.Enabled {
		tp, err := newTracerProvider(cfg, spans)
		if err != nil {
			return nil, err
		}
		rt.tracerProvider = tp

		tracer := tracing.NewTracer(
			tracing.WithTracerProvider(tp),
			tracing.WithServiceName(cfg.TracingServiceName()),
		)
		dispatch = tracing.Instrument(tracer, dispatch)
		opts = append(opts, presage.WithMiddleware(tracing.CommandMiddleware[*todo.Store](tracer)))
	}

	if cfg.Metrics.Enabled {
		m := metrics.New(
			metrics.WithNamespace(cfg.Metrics.Namespace),
			metrics.WithSubsystem(cfg.Metrics.Subsystem),
			metrics.WithMetricsServiceName(cfg.Service.Name),
		)
		rt.registry = prometheus.NewRegistry()
		if err := m.Register(rt.registry); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}

		dispatch = metrics.Instrument(m, dispatch)
		opts = append(opts,
			presage.WithMiddleware(metrics.CommandMiddleware[*todo.Store](m)),
			presage.WithUnwrittenEventHook[*todo.Store](m.UnwrittenEvent),
		)
	}

	if cfg.Dispatch.LogCommands {
		opts = append(opts, presage.WithMiddleware(presage.NewLoggingMiddleware[*todo.Store](rt.logger).Middleware()))
	}

	if cfg.Dispatch.ValidateCommands {
		opts = append(opts, presage.WithMiddleware(presage.ValidationMiddleware[*todo.Store]()))
	}

	rt.app = todo.NewAppFromConfiguration(todo.NewStore(todo.WithCodec(codec)), dispatch, opts...)
	return rt, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func newTracerProvider(cfg *config.Config, w io.Writer) (*sdktrace.TracerProvider, error) {
	if cfg.Tracing.Exporter == "none" {
		return sdktrace.NewTracerProvider(), nil
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create span exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)), nil
}

// Close flushes the spans.
func (rt *taskRuntime) Close(ctx context.Context) error {
	if rt.tracerProvider == nil {
		return nil
	}
	return rt.tracerProvider.Shutdown(ctx)
}

// metricSample is one gathered series, flattened for display.
type metricSample struct {
	Name   string
	Labels string
	Value  string
}

// gatherMetrics flattens the registered series. Histograms report their
// sample count and sum. Empty when metrics are disabled.
func (rt *taskRuntime) gatherMetrics() ([]metricSample, error) {
	if rt.registry == nil {
		return nil, nil
	}

	families, err := rt.registry.Gather()
	if err != nil {
		return nil, err
	}

	var samples []metricSample
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			samples = append(samples, metricSample{
				Name:   family.GetName(),
				Labels: formatLabels(metric.GetLabel()),
				Value:  formatValue(family.GetType(), metric),
			})
		}
	}

	sort.SliceStable(samples, func(i, j int) bool {
		if samples[i].Name != samples[j].Name {
			return samples[i].Name < samples[j].Name
		}
		return samples[i].Labels < samples[j].Labels
	})
	return samples, nil
}

func formatLabels(pairs []*dto.LabelPair) string {
	parts := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if pair.GetName() == metrics.LabelService {
			continue
		}
		parts = append(parts, pair.GetName()+"="+pair.GetValue())
	}
	return strings.Join(parts, ",")
}

func formatValue(kind dto.MetricType, metric *dto.Metric) string {
	switch kind {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%g", metric.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprintf("%g", metric.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := metric.GetHistogram()
		return fmt.Sprintf("count=%d sum=%.6fs", h.GetSampleCount(), h.GetSampleSum())
	default:
		return "-"
	}
}
