package promadapters

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const totalSuffix = "_total"

// DefaultLabelNames are the label keys used by the event store engines and the command/query handlers.
var DefaultLabelNames = []string{
	"attempt_number",
	"command_type",
	"conflict_type",
	"engine",
	"error_type",
	"operation",
	"query_type",
	"snapshot_reason",
	"status",
}

// MetricsCollector implements eventstore.MetricsCollector:
//   - RecordDuration -> HistogramVec in seconds with prometheus.DefBuckets
//   - IncrementCounter -> CounterVec
//   - RecordValue -> CounterVec (Add) for names ending in "_total", GaugeVec (Set) otherwise
type MetricsCollector struct {
	registerer prometheus.Registerer
	namespace  string
	labelNames []string
	known      map[string]struct{}

	mu         sync.Mutex
	histograms map[string]*prometheus.HistogramVec
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
}

// Option configures a MetricsCollector.
type Option func(*MetricsCollector)

// WithNamespace prefixes every metric name, e.g. "bookdesk".
func WithNamespace(namespace string) Option {
	return func(m *MetricsCollector) {
		m.namespace = namespace
	}
}

// WithLabelNames replaces DefaultLabelNames.
func WithLabelNames(labelNames ...string) Option {
	return func(m *MetricsCollector) {
		m.labelNames = labelNames
	}
}

// NewMetricsCollector creates a collector registering its vectors on registerer.
func NewMetricsCollector(registerer prometheus.Registerer, opts ...Option) *MetricsCollector {
	m := &MetricsCollector{
		registerer: registerer,
		labelNames: DefaultLabelNames,
		histograms: make(map[string]*prometheus.HistogramVec),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.known = make(map[string]struct{}, len(m.labelNames))
	for _, name := range m.labelNames {
		m.known[name] = struct{}{}
	}

	return m
}

// Handler exposes the metrics gathered by gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (m *MetricsCollector) RecordDuration(name string, duration time.Duration, labels map[string]string) {
	histogram := m.histogram(name)
	if histogram == nil {
		return
	}

	histogram.With(m.labels(labels)).Observe(duration.Seconds())
}

func (m *MetricsCollector) IncrementCounter(name string, labels map[string]string) {
	counter := m.counter(name)
	if counter == nil {
		return
	}

	counter.With(m.labels(labels)).Inc()
}

func (m *MetricsCollector) RecordValue(name string, value float64, labels map[string]string) {
	if strings.HasSuffix(name, totalSuffix) {
		counter := m.counter(name)
		if counter == nil || value < 0 {
			return
		}

		counter.With(m.labels(labels)).Add(value)

		return
	}

	gauge := m.gauge(name)
	if gauge == nil {
		return
	}

	gauge.With(m.labels(labels)).Set(value)
}

// labels maps onto the fixed label names.
func (m *MetricsCollector) labels(labels map[string]string) prometheus.Labels {
	out := make(prometheus.Labels, len(m.labelNames))
	for _, name := range m.labelNames {
		out[name] = ""
	}

	for key, value := range labels {
		if _, ok := m.known[key]; ok {
			out[key] = value
		}
	}

	return out
}

func (m *MetricsCollector) histogram(name string) *prometheus.HistogramVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vec, ok := m.histograms[name]; ok {
		return vec
	}

	vec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Name:      name,
			Help:      "Duration of " + name + " in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		m.labelNames,
	)

	registered, ok := register(m.registerer, vec).(*prometheus.HistogramVec)
	if !ok {
		return nil
	}

	m.histograms[name] = registered

	return registered
}

func (m *MetricsCollector) counter(name string) *prometheus.CounterVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vec, ok := m.counters[name]; ok {
		return vec
	}

	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Name:      name,
			Help:      "Total of " + name,
		},
		m.labelNames,
	)

	registered, ok := register(m.registerer, vec).(*prometheus.CounterVec)
	if !ok {
		return nil
	}

	m.counters[name] = registered

	return registered
}

func (m *MetricsCollector) gauge(name string) *prometheus.GaugeVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vec, ok := m.gauges[name]; ok {
		return vec
	}

	vec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Name:      name,
			Help:      "Current value of " + name,
		},
		m.labelNames,
	)

	registered, ok := register(m.registerer, vec).(*prometheus.GaugeVec)
	if !ok {
		return nil
	}

	m.gauges[name] = registered

	return registered
}

// register returns the already registered collector when an identical one exists (e.g. a second
// MetricsCollector on the same registry), and nil when the name is taken by a different metric kind.
func register(registerer prometheus.Registerer, collector prometheus.Collector) prometheus.Collector {
	if registerer == nil {
		return collector
	}

	err := registerer.Register(collector)
	if err == nil {
		return collector
	}

	var alreadyRegistered prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegistered) {
		return alreadyRegistered.ExistingCollector
	}

	return nil
}
