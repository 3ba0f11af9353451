// Package telemetry provides OpenTelemetry metrics for the workflow engine.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Result attribute values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	transitions   metric.Int64Counter
	rejections    metric.Int64Counter
	notifications metric.Int64Counter
	archives      metric.Int64Counter

	// Histograms
	executeDuration metric.Float64Histogram

	initOnce sync.Once
	initErr  error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter.
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// Provider overrides the global meter provider.
	Provider metric.MeterProvider
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/YagmurCemGul/boltinsight-production-sub002",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	defaults := DefaultMetricsConfig()
	if config.MeterName == "" {
		config.MeterName = defaults.MeterName
		config.MeterVersion = defaults.MeterVersion
	}

	provider := config.Provider
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{
		meter: meter,
	}

	mp.initOnce.Do(func() {
		mp.initErr = mp.initInstruments()
	})

	return mp
}

func (mp *MetricsProvider) initInstruments() error {
	var err error

	mp.transitions, err = mp.meter.Int64Counter(
		"workflow.transitions",
		metric.WithDescription("Number of workflow transitions attempted"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return err
	}

	mp.rejections, err = mp.meter.Int64Counter(
		"workflow.rejections",
		metric.WithDescription("Number of rejected workflow requests by error code"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	mp.notifications, err = mp.meter.Int64Counter(
		"workflow.notifications",
		metric.WithDescription("Number of notifications emitted"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return err
	}

	mp.archives, err = mp.meter.Int64Counter(
		"workflow.archives",
		metric.WithDescription("Number of proposal archive uploads"),
		metric.WithUnit("{archive}"),
	)
	if err != nil {
		return err
	}

	mp.executeDuration, err = mp.meter.Float64Histogram(
		"workflow.execute.duration",
		metric.WithDescription("Duration of workflow Execute calls"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordTransition records a completed or failed transition.
func (mp *MetricsProvider) RecordTransition(ctx context.Context, action, fromStatus, toStatus, result string) {
	if mp.transitions == nil {
		return
	}
	mp.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("workflow.action", action),
		attribute.String("status.from", fromStatus),
		attribute.String("status.to", toStatus),
		attribute.String("result", result),
	))
}

// RecordRejection records a request rejected with the given error code.
func (mp *MetricsProvider) RecordRejection(ctx context.Context, action, code string) {
	if mp.rejections == nil {
		return
	}
	mp.rejections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("workflow.action", action),
		attribute.String("error.code", code),
	))
}

// RecordNotification records a notification hand-off.
func (mp *MetricsProvider) RecordNotification(ctx context.Context, notificationType, result string) {
	if mp.notifications == nil {
		return
	}
	mp.notifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("notification.type", notificationType),
		attribute.String("result", result),
	))
}

// RecordArchive records a proposal archive upload.
func (mp *MetricsProvider) RecordArchive(ctx context.Context, result string) {
	if mp.archives == nil {
		return
	}
	mp.archives.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordExecuteDuration records the duration of an Execute call.
func (mp *MetricsProvider) RecordExecuteDuration(ctx context.Context, action string, duration time.Duration, success bool) {
	if mp.executeDuration == nil {
		return
	}
	mp.executeDuration.Record(ctx, float64(duration.Microseconds())/1000, metric.WithAttributes(
		attribute.String("workflow.action", action),
		attribute.Bool("success", success),
	))
}

// NoopMetricsProvider is a no-op metrics provider for testing or when metrics are disabled.
type NoopMetricsProvider struct{}

// RecordTransition is a no-op.
func (n *NoopMetricsProvider) RecordTransition(ctx context.Context, action, fromStatus, toStatus, result string) {
}

// RecordRejection is a no-op.
func (n *NoopMetricsProvider) RecordRejection(ctx context.Context, action, code string) {}

// RecordNotification is a no-op.
func (n *NoopMetricsProvider) RecordNotification(ctx context.Context, notificationType, result string) {
}

// RecordArchive is a no-op.
func (n *NoopMetricsProvider) RecordArchive(ctx context.Context, result string) {}

// RecordExecuteDuration is a no-op.
func (n *NoopMetricsProvider) RecordExecuteDuration(ctx context.Context, action string, duration time.Duration, success bool) {
}

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordTransition(ctx context.Context, action, fromStatus, toStatus, result string)
	RecordRejection(ctx context.Context, action, code string)
	RecordNotification(ctx context.Context, notificationType, result string)
	RecordArchive(ctx context.Context, result string)
	RecordExecuteDuration(ctx context.Context, action string, duration time.Duration, success bool)
}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = (*NoopMetricsProvider)(nil)
)
