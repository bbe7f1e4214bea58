// Package promadapters implements eventstore.MetricsCollector on the Prometheus client.
//
// Metric vectors are created lazily on first use and registered on the given prometheus.Registerer.
// Every vector shares one fixed set of label names, so engines and handlers may pass different
// subsets of labels for the same metric: missing labels are exported as empty values and
// unknown labels are dropped.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	collector := promadapters.NewMetricsCollector(registry)
//	store, err := fileengine.Open(dir, fileengine.WithMetrics(collector))
//
//	http.Handle("/metrics", promadapters.Handler(registry))
package promadapters
