package observability

import (
	"context"
	"fmt"
	"net/http"

	"skillscope/internal/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Metrics holds all custom metrics for skillscope. All Record helpers are
// nil-safe so disabled observability never needs guarding at call sites.
type Metrics struct {
	// Extraction pipeline metrics
	ExtractionDuration metric.Float64Histogram
	AnalysisCount      metric.Int64Counter
	FallbackCount      metric.Int64Counter
	AugmentationCount  metric.Int64Counter
	AITokenUsage       metric.Int64Histogram

	// Rate limiting metrics
	RateLimitHits metric.Int64Counter
}

// Manager manages OpenTelemetry setup
type Manager struct {
	fullConfig       *config.Config
	tracerProvider   *trace.TracerProvider
	meterProvider    *sdkmetric.MeterProvider
	metrics          *Metrics
	shutdownFuncs    []func(context.Context) error
	prometheusServer *http.ServeMux
}

// NewManager creates a new observability manager
func NewManager(cfg *config.Config) (*Manager, error) {
	if !cfg.Observability.Enabled {
		return &Manager{fullConfig: cfg}, nil
	}

	m := &Manager{
		fullConfig:    cfg,
		shutdownFuncs: make([]func(context.Context) error, 0),
	}

	if err := m.initTracing(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return m, nil
}

func (m *Manager) createResource() (*resource.Resource, error) {
	obs := m.fullConfig.Observability
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(obs.ServiceName),
			semconv.ServiceVersion(obs.ServiceVersion),
			attribute.String("service.instance.id", obs.ServiceInstance),
		),
	)
}

// initTracing sets up OpenTelemetry tracing
func (m *Manager) initTracing() error {
	obs := m.fullConfig.Observability

	var exporter trace.SpanExporter
	var err error

	switch {
	case obs.ConsoleOutput:
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case obs.OTLP.Enabled:
		exporter, err = m.createOTLPTraceExporter()
	default:
		exporter = &noOpSpanExporter{}
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := m.createResource()
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.TraceIDRatioBased(obs.Tracing.SampleRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	m.tracerProvider = tp
	m.shutdownFuncs = append(m.shutdownFuncs, tp.Shutdown)
	return nil
}

// initMetrics sets up OpenTelemetry metrics
func (m *Manager) initMetrics() error {
	readers, err := m.setupMetricReaders()
	if err != nil {
		return err
	}

	res, err := m.createResource()
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	m.meterProvider = mp
	m.shutdownFuncs = append(m.shutdownFuncs, mp.Shutdown)

	return m.initCustomMetrics()
}

// setupMetricReaders sets up all metric readers based on configuration
func (m *Manager) setupMetricReaders() ([]sdkmetric.Reader, error) {
	obs := m.fullConfig.Observability
	var readers []sdkmetric.Reader

	if obs.ConsoleOutput {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(obs.Metrics.CollectionInterval)))
	}

	if obs.OTLP.Enabled {
		reader, err := m.createOTLPMetricsReader()
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics reader: %w", err)
		}
		readers = append(readers, reader)
	}

	if obs.Prometheus.Enabled {
		reader, mux, err := SetupPrometheusExporter(obs.Prometheus)
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		if reader != nil {
			readers = append(readers, reader)
			m.prometheusServer = mux
			if err := StartPrometheusServer(mux, obs.Prometheus.Port); err != nil {
				return nil, fmt.Errorf("failed to start Prometheus server: %w", err)
			}
		}
	}

	// If no readers configured, use manual reader as fallback
	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}

	return readers, nil
}

// initCustomMetrics creates all custom metrics for skillscope
func (m *Manager) initCustomMetrics() error {
	meter := m.meterProvider.Meter(m.fullConfig.Observability.ServiceName)
	m.metrics = &Metrics{}

	var err error

	m.metrics.ExtractionDuration, err = meter.Float64Histogram(
		"skillscope_extraction_duration_seconds",
		metric.WithDescription("Time spent on completion calls for skill-gap extraction"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create extraction duration metric: %w", err)
	}

	m.metrics.AnalysisCount, err = meter.Int64Counter(
		"skillscope_analyses_total",
		metric.WithDescription("Total number of skill-gap analyses by policy and outcome"),
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis count metric: %w", err)
	}

	m.metrics.FallbackCount, err = meter.Int64Counter(
		"skillscope_fallbacks_total",
		metric.WithDescription("Total number of analyses resolved by fallback records"),
	)
	if err != nil {
		return fmt.Errorf("failed to create fallback count metric: %w", err)
	}

	m.metrics.AugmentationCount, err = meter.Int64Counter(
		"skillscope_augmentation_searches_total",
		metric.WithDescription("Total number of augmentation searches by result"),
	)
	if err != nil {
		return fmt.Errorf("failed to create augmentation count metric: %w", err)
	}

	m.metrics.AITokenUsage, err = meter.Int64Histogram(
		"skillscope_ai_token_usage_total",
		metric.WithDescription("Token usage for extraction calls"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return fmt.Errorf("failed to create token usage metric: %w", err)
	}

	m.metrics.RateLimitHits, err = meter.Int64Counter(
		"skillscope_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return nil
}

// GetMetrics returns the metrics instance, nil when observability is disabled.
func (m *Manager) GetMetrics() *Metrics {
	return m.metrics
}

// HTTPMiddleware returns HTTP middleware with OpenTelemetry instrumentation
func (m *Manager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !m.fullConfig.Observability.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}

	return otelhttp.NewMiddleware(
		m.fullConfig.Observability.ServiceName,
		otelhttp.WithTracerProvider(m.tracerProvider),
		otelhttp.WithMeterProvider(m.meterProvider),
	)
}

// Tracer returns a tracer for the service
func (m *Manager) Tracer(name string) oteltrace.Tracer {
	if !m.fullConfig.Observability.Enabled {
		return noop.NewTracerProvider().Tracer(name)
	}
	return otel.Tracer(name)
}

// Shutdown gracefully shuts down all observability components
func (m *Manager) Shutdown(ctx context.Context) error {
	for _, shutdown := range m.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RecordAnalysis counts one finished analysis under its policy and outcome.
func (m *Metrics) RecordAnalysis(ctx context.Context, policy, outcome string) {
	if m == nil || m.AnalysisCount == nil {
		return
	}
	m.AnalysisCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("policy", policy),
		attribute.String("outcome", outcome),
	))
}

// RecordFallback counts one fallback substitution by failure kind.
func (m *Metrics) RecordFallback(ctx context.Context, kind string) {
	if m == nil || m.FallbackCount == nil {
		return
	}
	m.FallbackCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("failure_kind", kind),
	))
}

// RecordAugmentation counts one augmentation search attempt.
func (m *Metrics) RecordAugmentation(ctx context.Context, success bool) {
	if m == nil || m.AugmentationCount == nil {
		return
	}
	m.AugmentationCount.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", success),
	))
}

// RecordExtractionDuration records the wall time of one completion call.
func (m *Metrics) RecordExtractionDuration(ctx context.Context, seconds float64) {
	if m == nil || m.ExtractionDuration == nil {
		return
	}
	m.ExtractionDuration.Record(ctx, seconds)
}

// RecordTokenUsage records token counts for one completion call.
func (m *Metrics) RecordTokenUsage(ctx context.Context, input, output int64) {
	if m == nil || m.AITokenUsage == nil {
		return
	}
	m.AITokenUsage.Record(ctx, input, metric.WithAttributes(attribute.String("token_type", "input")))
	m.AITokenUsage.Record(ctx, output, metric.WithAttributes(attribute.String("token_type", "output")))
	m.AITokenUsage.Record(ctx, input+output, metric.WithAttributes(attribute.String("token_type", "total")))
}

// RecordRateLimitHit counts one rejected request.
func (m *Metrics) RecordRateLimitHit(ctx context.Context, limiterType string) {
	if m == nil || m.RateLimitHits == nil {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("limiter", limiterType),
	))
}

// No-op exporter for when neither console nor OTLP tracing is configured
type noOpSpanExporter struct{}

func (n *noOpSpanExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	return nil
}

func (n *noOpSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}

// createOTLPTraceExporter creates an OTLP HTTP trace exporter
func (m *Manager) createOTLPTraceExporter() (trace.SpanExporter, error) {
	otlpConfig := m.fullConfig.Observability.OTLP

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(otlpConfig.Endpoint),
	}
	if otlpConfig.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	return exporter, nil
}

// createOTLPMetricsReader creates an OTLP HTTP metrics reader
func (m *Manager) createOTLPMetricsReader() (sdkmetric.Reader, error) {
	otlpConfig := m.fullConfig.Observability.OTLP

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(otlpConfig.Endpoint),
	}
	if otlpConfig.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	interval := m.fullConfig.Observability.Metrics.CollectionInterval
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)), nil
}
