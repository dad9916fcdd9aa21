package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"house-price-api/internal/common/logger"
)

// Observability bundles the OTel meter and tracer used by the prediction path.
// A zero value is usable and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerShutdown func(context.Context) error
	tracer         trace.Tracer

	predictionCounter  otelmetric.Int64Counter
	predictionDuration otelmetric.Float64Histogram
}

// Options controls which exporters are started.
type Options struct {
	ServiceName    string
	MetricsEnabled bool
	JaegerEndpoint string
}

// New builds the meter (Prometheus exporter, served by promhttp on /metrics)
// and, when a Jaeger endpoint is configured, a batching tracer.
func New(opts Options, log logger.Logger) *Observability {
	o := &Observability{tracer: noop.NewTracerProvider().Tracer(opts.ServiceName)}

	if opts.MetricsEnabled {
		o.initMetrics(opts.ServiceName, log)
	}
	if opts.JaegerEndpoint != "" {
		tp, err := newTracerProvider(opts.ServiceName, opts.JaegerEndpoint)
		if err != nil {
			log.Warn("tracing disabled", map[string]interface{}{"error": err})
		} else {
			otel.SetTracerProvider(tp)
			o.tracer = tp.Tracer(opts.ServiceName)
			o.tracerShutdown = tp.Shutdown
		}
	}
	return o
}

func (o *Observability) initMetrics(serviceName string, log logger.Logger) {
	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create Prometheus exporter", map[string]interface{}{"error": err})
		return
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	o.meterProvider = provider
	o.registerInstruments(meter, log)
}

// registerInstruments leaves an instrument nil when the meter rejects it; the
// Record methods skip nil instruments.
func (o *Observability) registerInstruments(meter otelmetric.Meter, log logger.Logger) {
	var err error
	o.predictionCounter, err = meter.Int64Counter(
		"predictions.processed",
		otelmetric.WithDescription("Number of prediction requests processed"),
	)
	if err != nil {
		o.predictionCounter = nil
		log.Warn("failed to create prediction counter", map[string]interface{}{"error": err})
	}

	o.predictionDuration, err = meter.Float64Histogram(
		"predictions.duration",
		otelmetric.WithDescription("Prediction request processing duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		o.predictionDuration = nil
		log.Warn("failed to create prediction duration histogram", map[string]interface{}{"error": err})
	}
}

// StartSpan opens a span on the configured tracer. Callers must End it.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := o.tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordPrediction(ctx context.Context, outcome string) {
	if o.predictionCounter != nil {
		o.predictionCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) RecordPredictionDuration(ctx context.Context, duration time.Duration, outcome string) {
	if o.predictionDuration != nil {
		o.predictionDuration.Record(ctx, float64(duration.Microseconds())/1000.0, otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerShutdown != nil {
		_ = o.tracerShutdown(ctx)
	}
}
