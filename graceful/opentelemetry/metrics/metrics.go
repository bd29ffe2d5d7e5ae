package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/LerianStudio/lib-http-shutdown/graceful/log"
	"go.opentelemetry.io/otel/metric"
)

// ErrNilMeter indicates that a nil OTEL meter was provided.
var ErrNilMeter = errors.New("metric meter cannot be nil")

// DefaultDrainBuckets are millisecond boundaries for drain duration histograms.
var DefaultDrainBuckets = []float64{1, 5, 10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000}

// Metric describes an instrument. Buckets only apply to histograms.
type Metric struct {
	Name        string
	Description string
	Unit        string
	Buckets     []float64
}

type instrumentKind string

const (
	kindCounter   instrumentKind = "counter"
	kindGauge     instrumentKind = "gauge"
	kindHistogram instrumentKind = "histogram"
)

type instrumentKey struct {
	kind instrumentKind
	name string
}

// MetricsFactory creates instruments on first use and hands out the cached
// instrument afterwards. It is safe for concurrent use.
type MetricsFactory struct {
	meter  metric.Meter
	logger log.Logger

	mu          sync.Mutex
	instruments map[instrumentKey]any
}

// NewMetricsFactory returns a factory creating its instruments on meter.
func NewMetricsFactory(meter metric.Meter, logger log.Logger) (*MetricsFactory, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}

	return &MetricsFactory{
		meter:       meter,
		logger:      log.OrNop(logger),
		instruments: make(map[instrumentKey]any),
	}, nil
}

func (f *MetricsFactory) Counter(m Metric) (*CounterBuilder, error) {
	counter, err := instrument(f, kindCounter, m, func() (metric.Int64Counter, error) {
		return f.meter.Int64Counter(m.Name, metric.WithDescription(m.Description), metric.WithUnit(m.Unit))
	})
	if err != nil {
		return nil, err
	}

	return &CounterBuilder{counter: counter, name: m.Name}, nil
}

func (f *MetricsFactory) Gauge(m Metric) (*GaugeBuilder, error) {
	gauge, err := instrument(f, kindGauge, m, func() (metric.Int64Gauge, error) {
		return f.meter.Int64Gauge(m.Name, metric.WithDescription(m.Description), metric.WithUnit(m.Unit))
	})
	if err != nil {
		return nil, err
	}

	return &GaugeBuilder{gauge: gauge, name: m.Name}, nil
}

// Histogram returns a histogram builder. Without Buckets it uses
// DefaultDrainBuckets. The buckets of the first call for a name win.
func (f *MetricsFactory) Histogram(m Metric) (*HistogramBuilder, error) {
	if m.Buckets == nil {
		m.Buckets = DefaultDrainBuckets
	}

	histogram, err := instrument(f, kindHistogram, m, func() (metric.Int64Histogram, error) {
		return f.meter.Int64Histogram(m.Name,
			metric.WithDescription(m.Description),
			metric.WithUnit(m.Unit),
			metric.WithExplicitBucketBoundaries(m.Buckets...))
	})
	if err != nil {
		return nil, err
	}

	return &HistogramBuilder{histogram: histogram, name: m.Name}, nil
}

func instrument[T any](f *MetricsFactory, kind instrumentKind, m Metric, create func() (T, error)) (T, error) {
	key := instrumentKey{kind: kind, name: m.Name}

	f.mu.Lock()
	defer f.mu.Unlock()

	if cached, ok := f.instruments[key]; ok {
		return cached.(T), nil
	}

	created, err := create()
	if err != nil {
		f.logger.Log(context.Background(), log.LevelError, "failed to create metric",
			log.String("metric_kind", string(kind)), log.String("metric_name", m.Name), log.Err(err))

		var zero T

		return zero, fmt.Errorf("create %s %q: %w", kind, m.Name, err)
	}

	f.instruments[key] = created

	return created, nil
}
