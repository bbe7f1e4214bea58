package oteladapters

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bookdesk/bookdesk/eventstore"
)

const totalSuffix = "_total"

// MetricsCollector implements eventstore.ContextualMetricsCollector with OpenTelemetry instruments,
// which are created on first use and cached by name:
//   - RecordDuration -> Float64Histogram in seconds
//   - IncrementCounter -> Int64Counter
//   - RecordValue -> Float64Counter for names ending in "_total", Float64Gauge otherwise
type MetricsCollector struct {
	meter metric.Meter

	mu            sync.RWMutex
	histograms    map[string]metric.Float64Histogram
	counters      map[string]metric.Int64Counter
	valueCounters map[string]metric.Float64Counter
	gauges        map[string]metric.Float64Gauge
}

// NewMetricsCollector creates a collector on a meter of the application's MeterProvider.
func NewMetricsCollector(meter metric.Meter) *MetricsCollector {
	return &MetricsCollector{
		meter:         meter,
		histograms:    make(map[string]metric.Float64Histogram),
		counters:      make(map[string]metric.Int64Counter),
		valueCounters: make(map[string]metric.Float64Counter),
		gauges:        make(map[string]metric.Float64Gauge),
	}
}

func (m *MetricsCollector) RecordDuration(name string, duration time.Duration, labels map[string]string) {
	m.RecordDurationContext(context.Background(), name, duration, labels)
}

// RecordDurationContext passes ctx on, so exemplars can link to the active span.
func (m *MetricsCollector) RecordDurationContext(ctx context.Context, name string, duration time.Duration, labels map[string]string) {
	histogram, ok := instrument(m, m.histograms, name, func() (metric.Float64Histogram, error) {
		return m.meter.Float64Histogram(name, metric.WithUnit("s"), metric.WithDescription("operation duration"))
	})
	if !ok {
		return
	}

	histogram.Record(ctx, duration.Seconds(), metric.WithAttributes(attributes(labels)...))
}

func (m *MetricsCollector) IncrementCounter(name string, labels map[string]string) {
	m.IncrementCounterContext(context.Background(), name, labels)
}

func (m *MetricsCollector) IncrementCounterContext(ctx context.Context, name string, labels map[string]string) {
	counter, ok := instrument(m, m.counters, name, func() (metric.Int64Counter, error) {
		return m.meter.Int64Counter(name)
	})
	if !ok {
		return
	}

	counter.Add(ctx, 1, metric.WithAttributes(attributes(labels)...))
}

func (m *MetricsCollector) RecordValue(name string, value float64, labels map[string]string) {
	m.RecordValueContext(context.Background(), name, value, labels)
}

func (m *MetricsCollector) RecordValueContext(ctx context.Context, name string, value float64, labels map[string]string) {
	options := metric.WithAttributes(attributes(labels)...)

	if strings.HasSuffix(name, totalSuffix) {
		counter, ok := instrument(m, m.valueCounters, name, func() (metric.Float64Counter, error) {
			return m.meter.Float64Counter(name)
		})
		if ok && value >= 0 {
			counter.Add(ctx, value, options)
		}

		return
	}

	gauge, ok := instrument(m, m.gauges, name, func() (metric.Float64Gauge, error) {
		return m.meter.Float64Gauge(name)
	})
	if ok {
		gauge.Record(ctx, value, options)
	}
}

// instrument returns the cached instrument for name or creates it.
// An instrument the meter refuses to create is skipped; observability never fails an operation.
func instrument[T any](m *MetricsCollector, cache map[string]T, name string, create func() (T, error)) (T, bool) {
	m.mu.RLock()
	cached, exists := cache[name]
	m.mu.RUnlock()

	if exists {
		return cached, true
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if cached, exists = cache[name]; exists {
		return cached, true
	}

	created, err := create()
	if err != nil {
		var zero T
		return zero, false
	}

	cache[name] = created

	return created, true
}

func attributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for key, value := range labels {
		attrs = append(attrs, attribute.String(key, value))
	}

	return attrs
}

var _ eventstore.ContextualMetricsCollector = (*MetricsCollector)(nil)
