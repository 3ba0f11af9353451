package observability

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ErrUnknownExporter indicates an unsupported trace exporter type.
var ErrUnknownExporter = errors.New("unknown trace exporter type")

// Provider manages the observability infrastructure.
type Provider struct {
	config         Config
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	reader         *sdkmetric.ManualReader
	shutdownFuncs  []func(context.Context) error
}

// New creates a new observability provider.
func New(opts ...Option) (*Provider, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Provider{
		config:         cfg,
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
		shutdownFuncs:  make([]func(context.Context) error, 0),
	}

	if cfg.Exporter != "" {
		if err := p.setupTracing(); err != nil {
			return nil, err
		}
	}
	if cfg.Metrics {
		p.setupMetrics()
	}

	return p, nil
}

func (p *Provider) resource() *resource.Resource {
	// Not merged with resource.Default() to avoid schema URL conflicts.
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(p.config.Service),
		semconv.ServiceVersion(p.config.Version),
		semconv.DeploymentEnvironment(p.config.Environment),
	)
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case ExporterOTLP:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts,
				otlptracegrpc.WithInsecure(),
				otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			)
		}
		return otlptracegrpc.New(ctx, opts...)
	case ExporterStdout:
		opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
		if cfg.TraceWriter != nil {
			opts = append(opts, stdouttrace.WithWriter(cfg.TraceWriter))
		}
		return stdouttrace.New(opts...)
	case ExporterNoop:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, cfg.Exporter)
}

func sampler(rate float64) sdktrace.Sampler {
	if rate >= 1 {
		return sdktrace.AlwaysSample()
	}
	if rate <= 0 {
		return sdktrace.NeverSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
}

func (p *Provider) setupTracing() error {
	exporter, err := newExporter(context.Background(), p.config)
	if err != nil {
		if errors.Is(err, ErrUnknownExporter) {
			return err
		}
		return fmt.Errorf("create %s exporter: %w", p.config.Exporter, err)
	}
	if exporter == nil {
		return nil
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(p.config.BatchTimeout),
			sdktrace.WithMaxExportBatchSize(p.config.BatchSize),
		),
		sdktrace.WithResource(p.resource()),
		sdktrace.WithSampler(sampler(p.config.SampleRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	p.tracerProvider = tp
	p.shutdownFuncs = append(p.shutdownFuncs, tp.Shutdown)
	return nil
}

// setupMetrics installs an SDK meter provider backed by a manual reader, so
// callers can pull a snapshot with CollectMetrics.
func (p *Provider) setupMetrics() {
	p.reader = sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(p.reader),
		sdkmetric.WithResource(p.resource()),
	)
	otel.SetMeterProvider(mp)

	p.meterProvider = mp
	p.shutdownFuncs = append(p.shutdownFuncs, mp.Shutdown)
}

// Tracer returns a tracer for the service.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracerProvider.Tracer(p.config.Service)
}

// TracerProvider returns the tracer provider.
func (p *Provider) TracerProvider() trace.TracerProvider {
	return p.tracerProvider
}

// MeterProvider returns the meter provider.
func (p *Provider) MeterProvider() metric.MeterProvider {
	return p.meterProvider
}

// CollectMetrics returns the current metric snapshot. It returns an empty
// snapshot when metrics are disabled.
func (p *Provider) CollectMetrics(ctx context.Context) (*metricdata.ResourceMetrics, error) {
	rm := &metricdata.ResourceMetrics{}
	if p.reader == nil {
		return rm, nil
	}
	if err := p.reader.Collect(ctx, rm); err != nil {
		return nil, err
	}
	return rm, nil
}

// Shutdown gracefully shuts down the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range p.shutdownFuncs {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewNoopProvider creates a provider with no-op tracer and meter providers.
func NewNoopProvider() *Provider {
	return &Provider{
		config:         DefaultConfig(),
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}
}
