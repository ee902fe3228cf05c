package observe

import (
	"context"
	"fmt"
	"sort"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Collector is an in-process meter provider whose data can be read back.
type Collector struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
	metrics  *Metrics
}

// NewCollector builds a manual-reader provider and its instruments.
func NewCollector() (*Collector, error) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(provider)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, fmt.Errorf("create metrics: %w", err)
	}
	return &Collector{reader: reader, provider: provider, metrics: m}, nil
}

// Metrics returns the instruments bound to this collector.
func (c *Collector) Metrics() *Metrics {
	return c.metrics
}

// StageTiming is the total time spent in one stage.
type StageTiming struct {
	Stage   string
	Count   uint64
	Seconds float64
}

// Summary is a read-back of the collected data.
type Summary struct {
	Frames       int64
	FrameSeconds float64
	Stages       []StageTiming
}

// Summary collects current values.
func (c *Collector) Summary(ctx context.Context) (Summary, error) {
	var rm metricdata.ResourceMetrics
	if err := c.reader.Collect(ctx, &rm); err != nil {
		return Summary{}, fmt.Errorf("collect metrics: %w", err)
	}
	var out Summary
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case FramesRenderedName:
				if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
					for _, dp := range sum.DataPoints {
						out.Frames += dp.Value
					}
				}
			case FrameDurationName:
				if hist, ok := m.Data.(metricdata.Histogram[float64]); ok {
					for _, dp := range hist.DataPoints {
						out.FrameSeconds += dp.Sum
					}
				}
			case StageDurationName:
				if hist, ok := m.Data.(metricdata.Histogram[float64]); ok {
					for _, dp := range hist.DataPoints {
						stage, _ := dp.Attributes.Value("stage")
						out.Stages = append(out.Stages, StageTiming{
							Stage:   stage.AsString(),
							Count:   dp.Count,
							Seconds: dp.Sum,
						})
					}
				}
			}
		}
	}
	sort.Slice(out.Stages, func(i, j int) bool { return out.Stages[i].Stage < out.Stages[j].Stage })
	return out, nil
}

// Shutdown releases the provider.
func (c *Collector) Shutdown(ctx context.Context) error {
	return c.provider.Shutdown(ctx)
}
