package fileengine

import (
	"os"

	"github.com/bookdesk/bookdesk/eventstore"
)

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore) error

// WithLogger sets the logger for the EventStore.
//
// Debug level: file writes with timing
// Info level: event counts, durations, concurrency conflicts
// Warn level: repaired torn writes
// Error level: failures that cause operation failures.
func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) error {
		es.observer.Logger = logger
		return nil
	}
}

// WithContextualLogger sets a logger which receives the context, e.g. for trace correlation.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(es *EventStore) error {
		es.observer.ContextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the EventStore.
func WithMetrics(collector eventstore.MetricsCollector) Option {
	return func(es *EventStore) error {
		es.observer.Metrics = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the EventStore.
func WithTracing(collector eventstore.TracingCollector) Option {
	return func(es *EventStore) error {
		es.observer.Tracing = collector
		return nil
	}
}

// WithFileMode sets the permissions for newly created files (default 0o600).
func WithFileMode(mode os.FileMode) Option {
	return func(es *EventStore) error {
		es.fileMode = mode
		return nil
	}
}

// WithoutSync disables fsync after each append. Only meant for tests and throwaway stores.
func WithoutSync() Option {
	return func(es *EventStore) error {
		es.sync = false
		return nil
	}
}
