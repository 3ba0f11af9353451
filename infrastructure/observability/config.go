// Package observability sets up the OpenTelemetry tracer and meter
// providers that the workflow service reports through.
package observability

import (
	"io"
	"time"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/config"
)

// ExporterType names a span exporter.
type ExporterType string

// Span exporters. An empty exporter leaves tracing off.
const (
	ExporterOTLP   ExporterType = "otlp"
	ExporterStdout ExporterType = "stdout"
	ExporterNoop   ExporterType = "noop"
)

// Config describes the providers built by New.
type Config struct {
	Service     string
	Version     string
	Environment string

	// Exporter selects the span exporter; tracing is off when empty.
	Exporter ExporterType
	// Endpoint is the OTLP gRPC collector address.
	Endpoint string
	Insecure bool
	// SampleRate is clamped to [0, 1] by the sampler choice.
	SampleRate   float64
	BatchTimeout time.Duration
	BatchSize    int
	// TraceWriter receives stdout exporter output.
	TraceWriter io.Writer

	// Metrics installs an SDK meter provider with a manual reader.
	Metrics bool
}

// DefaultConfig has tracing and metrics off.
func DefaultConfig() Config {
	return Config{
		Service:      "proposal-workflow",
		Version:      "dev",
		Environment:  "development",
		SampleRate:   1,
		BatchTimeout: 5 * time.Second,
		BatchSize:    512,
	}
}

// Option adjusts a Config.
type Option func(*Config)

// WithService sets the service name and version resource attributes.
func WithService(name, version string) Option {
	return func(c *Config) {
		if name != "" {
			c.Service = name
		}
		if version != "" {
			c.Version = version
		}
	}
}

// WithEnvironment sets the deployment environment attribute.
func WithEnvironment(env string) Option {
	return func(c *Config) { c.Environment = env }
}

// WithExporter turns tracing on with the given exporter.
func WithExporter(exporter ExporterType, endpoint string) Option {
	return func(c *Config) {
		c.Exporter = exporter
		c.Endpoint = endpoint
	}
}

// WithInsecure disables TLS towards the OTLP collector.
func WithInsecure() Option {
	return func(c *Config) { c.Insecure = true }
}

// WithSampleRate sets the fraction of traces kept.
func WithSampleRate(rate float64) Option {
	return func(c *Config) { c.SampleRate = rate }
}

// WithTraceWriter sends stdout exporter output to w.
func WithTraceWriter(w io.Writer) Option {
	return func(c *Config) { c.TraceWriter = w }
}

// WithMetrics installs the SDK meter provider.
func WithMetrics() Option {
	return func(c *Config) { c.Metrics = true }
}

// FromTelemetry maps the telemetry section of the application config.
// Enabled tracing without an exporter defaults to stdout.
func FromTelemetry(cfg config.TelemetryConfig) []Option {
	var opts []Option
	if t := cfg.Tracing; t.Enabled {
		exporter := ExporterType(t.Exporter)
		if exporter == "" {
			exporter = ExporterStdout
		}
		opts = append(opts, WithExporter(exporter, t.Endpoint))
		if t.Insecure {
			opts = append(opts, WithInsecure())
		}
		if t.SampleRate > 0 {
			opts = append(opts, WithSampleRate(t.SampleRate))
		}
	}
	if cfg.Metrics {
		opts = append(opts, WithMetrics())
	}
	return opts
}
