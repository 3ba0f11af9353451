package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/config"
)

func TestNew_Defaults(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.Shutdown(context.Background())

	if p.Tracer() == nil {
		t.Error("expected non-nil tracer")
	}
	if p.MeterProvider() == nil {
		t.Error("expected non-nil meter provider")
	}
	rm, err := p.CollectMetrics(context.Background())
	if err != nil || len(rm.ScopeMetrics) != 0 {
		t.Errorf("CollectMetrics() = %+v, %v; want empty", rm, err)
	}
}

func TestNew_UnknownExporter(t *testing.T) {
	_, err := New(WithExporter("carrier-pigeon", ""))
	if !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("New() error = %v, want ErrUnknownExporter", err)
	}
}

func TestNew_StdoutTracing(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(WithService("test-svc", "1.2.3"), WithExporter(ExporterStdout, ""), WithTraceWriter(&buf))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, span := StartSpan(context.Background(), p.Tracer(), "workflow.execute", AttrProposalID.String("p-1"))
	EndSpan(span, nil)

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("workflow.execute")) {
		t.Errorf("exported output missing span name: %s", buf.String())
	}
}

func TestNew_Metrics(t *testing.T) {
	p, err := New(WithMetrics())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.Shutdown(context.Background())

	counter, err := p.MeterProvider().Meter("test").Int64Counter("test.count")
	if err != nil {
		t.Fatalf("Int64Counter() error = %v", err)
	}
	counter.Add(context.Background(), 3)

	rm, err := p.CollectMetrics(context.Background())
	if err != nil {
		t.Fatalf("CollectMetrics() error = %v", err)
	}
	if len(rm.ScopeMetrics) != 1 || rm.ScopeMetrics[0].Metrics[0].Name != "test.count" {
		t.Errorf("unexpected metrics: %+v", rm.ScopeMetrics)
	}
}

func TestFromTelemetry(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	for _, opt := range FromTelemetry(config.TelemetryConfig{
		Tracing: config.TracingConfig{Enabled: true, Exporter: "otlp", Endpoint: "collector:4317", Insecure: true, SampleRate: 0.25},
		Metrics: true,
	}) {
		opt(&cfg)
	}

	if cfg.Exporter != ExporterOTLP || cfg.Endpoint != "collector:4317" {
		t.Errorf("exporter = %q, endpoint = %q", cfg.Exporter, cfg.Endpoint)
	}
	if !cfg.Insecure || cfg.SampleRate != 0.25 {
		t.Errorf("insecure = %v, sample rate = %v", cfg.Insecure, cfg.SampleRate)
	}
	if !cfg.Metrics {
		t.Error("metrics should be enabled")
	}

	cfg = DefaultConfig()
	for _, opt := range FromTelemetry(config.TelemetryConfig{Tracing: config.TracingConfig{Enabled: true}}) {
		opt(&cfg)
	}
	if cfg.Exporter != ExporterStdout {
		t.Errorf("default exporter = %q, want stdout", cfg.Exporter)
	}

	if opts := FromTelemetry(config.TelemetryConfig{}); len(opts) != 0 {
		t.Errorf("FromTelemetry(empty) returned %d options", len(opts))
	}
}

func TestEndSpan_RecordsError(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	_, span := StartSpan(context.Background(), tp.Tracer("test"), "op")
	EndSpan(span, errors.New("boom"), AttrErrorCode.String("internal"))

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(ended))
	}
	if ended[0].Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", ended[0].Status().Code)
	}
	if len(ended[0].Events()) != 1 {
		t.Errorf("events = %d, want 1 error event", len(ended[0].Events()))
	}
}

func TestWithService_KeepsDefaultsForEmpty(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	WithService("", "")(&cfg)
	if cfg.Service != "proposal-workflow" || cfg.Version != "dev" {
		t.Errorf("service = %q, version = %q", cfg.Service, cfg.Version)
	}
	WithEnvironment("staging")(&cfg)
	if cfg.Environment != "staging" {
		t.Errorf("environment = %q", cfg.Environment)
	}
}

func TestNoopProvider(t *testing.T) {
	t.Parallel()

	p := NewNoopProvider()
	_, span := p.Tracer().Start(context.Background(), "noop")
	span.End()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestSampler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rate float64
		want string
	}{
		{1, sdktrace.AlwaysSample().Description()},
		{2, sdktrace.AlwaysSample().Description()},
		{0, sdktrace.NeverSample().Description()},
		{0.5, sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.5)).Description()},
	}
	for _, tt := range tests {
		if got := sampler(tt.rate).Description(); got != tt.want {
			t.Errorf("sampler(%v) = %s, want %s", tt.rate, got, tt.want)
		}
	}
}
