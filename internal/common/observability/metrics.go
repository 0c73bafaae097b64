package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *TracerProvider
	meter          otelmetric.Meter
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	runCounter     otelmetric.Int64Counter
}

// New installs the OTel meter provider backed by the Prometheus exporter. Failures
// degrade to a no-op instance so workers still start.
func New(serviceName string, log *zap.Logger) *Observability {
	if log == nil {
		log = zap.NewNop()
	}

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("Failed to create Prometheus exporter", zap.Error(err))
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"summons.jobs.processed",
		otelmetric.WithDescription("Number of summons jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"summons.jobs.duration",
		otelmetric.WithDescription("Summons job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	runCounter, _ := meter.Int64Counter(
		"summons.pipeline.runs",
		otelmetric.WithDescription("Pipeline runs by terminal state"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		jobCounter:    jobCounter,
		jobDuration:   jobDuration,
		runCounter:    runCounter,
	}
}

// AttachTracing keeps tp so Shutdown flushes it.
func (o *Observability) AttachTracing(tp *TracerProvider) {
	o.tracerProvider = tp
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordRun(ctx context.Context, state, errorCode string) {
	if o.runCounter != nil {
		o.runCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("state", state),
			attribute.String("error_code", errorCode),
		))
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
