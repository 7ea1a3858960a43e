// internal/common/observability/metrics.go
package observability

import (
	"context"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability owns the OpenTelemetry meter provider for job and scoring
// instruments. A zero value records nothing.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	scoreCounter  otelmetric.Int64Counter
	scoreValue    otelmetric.Int64Histogram
}

// New exports through the default Prometheus registerer and installs the
// provider globally.
func New(serviceName string) (*Observability, error) {
	return NewWithRegisterer(serviceName, promclient.DefaultRegisterer)
}

func NewWithRegisterer(serviceName string, reg promclient.Registerer) (*Observability, error) {
	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		return &Observability{}, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	o, err := newWithReader(serviceName, exporter)
	if err != nil {
		return o, err
	}
	otel.SetMeterProvider(o.meterProvider)
	return o, nil
}

func newWithReader(serviceName string, reader metric.Reader) (*Observability, error) {
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	meter := provider.Meter(serviceName)

	o := &Observability{meterProvider: provider, meter: meter}

	var err error
	if o.jobCounter, err = meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	); err != nil {
		return o, err
	}
	if o.jobDuration, err = meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	); err != nil {
		return o, err
	}
	if o.scoreCounter, err = meter.Int64Counter(
		"credit.scores",
		otelmetric.WithDescription("Credit scores returned to workflows"),
	); err != nil {
		return o, err
	}
	if o.scoreValue, err = meter.Int64Histogram(
		"credit.score",
		otelmetric.WithDescription("Final credit score"),
		otelmetric.WithExplicitBucketBoundaries(300, 400, 500, 650, 750, 850),
	); err != nil {
		return o, err
	}

	return o, nil
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

// RecordScore counts a returned score by outcome and tier.
func (o *Observability) RecordScore(ctx context.Context, score int, outcome, riskTier string) {
	attrs := otelmetric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("risk_tier", riskTier),
	)
	if o.scoreCounter != nil {
		o.scoreCounter.Add(ctx, 1, attrs)
	}
	if o.scoreValue != nil {
		o.scoreValue.Record(ctx, int64(score), attrs)
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}
