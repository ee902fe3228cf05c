// Package observe holds the OpenTelemetry metric instruments recorded by the
// frame pipeline.
//
// Tests and the CLI build a [Collector] backed by a manual reader so a run's
// numbers can be read back without an exporter; library callers can pass any
// [metric.MeterProvider] to [NewMetrics].
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all wavebars metrics.
const meterName = "wavebars"

// Metric names.
const (
	StageDurationName  = "wavebars.stage.duration"
	FrameDurationName  = "wavebars.frame.duration"
	FramesRenderedName = "wavebars.frames.rendered"
	RunsName           = "wavebars.runs"
	RunErrorsName      = "wavebars.run.errors"
	ActiveWorkersName  = "wavebars.render.active_workers"
)

// Metrics holds the instruments. All fields are safe for concurrent use.
type Metrics struct {
	// StageDuration tracks probe/decode/envelope/render latency. Use with
	// attribute.String("stage", ...).
	StageDuration metric.Float64Histogram

	// FrameDuration tracks interpolate+rasterize+encode time per frame.
	FrameDuration metric.Float64Histogram

	// FramesRendered counts committed frames.
	FramesRendered metric.Int64Counter

	// Runs counts finished runs by status.
	Runs metric.Int64Counter

	// RunErrors counts failed runs by services.Kind.
	RunErrors metric.Int64Counter

	// ActiveWorkers tracks frame workers currently rendering.
	ActiveWorkers metric.Int64UpDownCounter
}

// stageBuckets covers sub-millisecond envelope work up to multi-second decodes.
var stageBuckets = []float64{
	0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

var frameBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25,
}

// NewMetrics creates the instruments on the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.StageDuration, err = m.Float64Histogram(StageDurationName,
		metric.WithDescription("Latency of pipeline stages."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(stageBuckets...),
	); err != nil {
		return nil, err
	}
	if met.FrameDuration, err = m.Float64Histogram(FrameDurationName,
		metric.WithDescription("Time to interpolate, rasterize, and encode one frame."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(frameBuckets...),
	); err != nil {
		return nil, err
	}
	if met.FramesRendered, err = m.Int64Counter(FramesRenderedName,
		metric.WithDescription("Frames committed to the frames directory."),
	); err != nil {
		return nil, err
	}
	if met.Runs, err = m.Int64Counter(RunsName,
		metric.WithDescription("Pipeline runs by final status."),
	); err != nil {
		return nil, err
	}
	if met.RunErrors, err = m.Int64Counter(RunErrorsName,
		metric.WithDescription("Failed pipeline runs by error kind."),
	); err != nil {
		return nil, err
	}
	if met.ActiveWorkers, err = m.Int64UpDownCounter(ActiveWorkersName,
		metric.WithDescription("Frame workers currently rendering."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a package-level instance on otel.GetMeterProvider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordStage records one stage latency in seconds.
func (m *Metrics) RecordStage(ctx context.Context, stage string, seconds float64) {
	m.StageDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordFrame records one committed frame.
func (m *Metrics) RecordFrame(ctx context.Context, clipID string, seconds float64) {
	m.FrameDuration.Record(ctx, seconds)
	m.FramesRendered.Add(ctx, 1, metric.WithAttributes(attribute.String("clip_id", clipID)))
}

// RecordRun records a finished run; kind is empty on success.
func (m *Metrics) RecordRun(ctx context.Context, status, kind string) {
	m.Runs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	if kind != "" {
		m.RunErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
}
