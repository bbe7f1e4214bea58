// Package instrument holds the logging, metrics and tracing plumbing shared by all engines.
//
// Every engine reports the same metric names, span names and log messages,
// so dashboards and tests do not depend on which engine is configured.
package instrument

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bookdesk/bookdesk/eventstore"
)

const (
	MetricQueryDuration         = "eventstore_query_duration_seconds"
	MetricEventsQueried         = "eventstore_events_queried_total"
	MetricAppendDuration        = "eventstore_append_duration_seconds"
	MetricEventsAppended        = "eventstore_events_appended_total"
	MetricConcurrencyConflicts  = "eventstore_concurrency_conflicts_total"
	MetricDatabaseErrors        = "eventstore_database_errors_total"
	MetricSnapshotDuration      = "eventstore_snapshot_duration_seconds"
	SpanNameQuery               = "eventstore.query"
	SpanNameAppend              = "eventstore.append"
	SpanNameSnapshot            = "eventstore.snapshot"
	OperationQuery              = "query"
	OperationAppend             = "append"
	OperationSaveSnapshot       = "save_snapshot"
	OperationLoadSnapshot       = "load_snapshot"
	OperationDeleteSnapshot     = "delete_snapshot"
	StatusSuccess               = "success"
	StatusError                 = "error"
	LabelOperation              = "operation"
	LabelStatus                 = "status"
	LabelErrorType              = "error_type"
	LabelConflictType           = "conflict_type"
	LabelEngine                 = "engine"
	ConflictTypeConcurrency     = "concurrency"
	SpanAttrEventCount          = "event_count"
	SpanAttrMaxSequence         = "max_sequence"
	SpanAttrDurationMS          = "duration_ms"
	SpanAttrExpectedSeq         = "expected_sequence"
	SpanAttrEventType           = "event_type"
	SpanAttrRowsAffected        = "rows_affected"
	SpanAttrProjectionType      = "projection_type"
	ErrorTypeBuildQuery         = "build_query"
	ErrorTypeDatabaseQuery      = "database_query"
	ErrorTypeRowScan            = "row_scan"
	ErrorTypeBuildStorableEvent = "build_storable_event"
	ErrorTypeDatabaseExec       = "database_exec"
	ErrorTypeRowsAffected       = "rows_affected"
	ErrorTypeIO                 = "io"
	ErrorTypeValidation         = "validation"
	ErrorTypeStoreClosed        = "store_closed"

	LogMsgOperation         = "eventstore operation: "
	LogMsgQueryCompleted    = "query completed"
	LogMsgEventsAppended    = "events appended"
	LogMsgConcurrency       = "concurrency conflict detected"
	LogMsgSnapshotSaved     = "snapshot saved"
	LogMsgSnapshotLoaded    = "snapshot loaded"
	LogMsgSnapshotMissing   = "snapshot not found"
	LogMsgSnapshotDeleted   = "snapshot deleted"
	LogAttrError            = "error"
	LogAttrQuery            = "query"
	LogAttrEventType        = "event_type"
	LogAttrEventCount       = "event_count"
	LogAttrDurationMS       = "duration_ms"
	LogAttrExpectedEvents   = "expected_events"
	LogAttrRowsAffected     = "rows_affected"
	LogAttrExpectedSequence = "expected_sequence"
	LogAttrProjectionType   = "projection_type"
	LogAttrSequenceNumber   = "sequence_number"
)

// Observer bundles the optional observability collaborators of one engine instance.
// The zero value is usable and observes nothing.
type Observer struct {
	Engine           string
	StatementKind    string // "sql" or "io", used in the debug message for executed statements
	Logger           eventstore.Logger
	ContextualLogger eventstore.ContextualLogger
	Metrics          eventstore.MetricsCollector
	Tracing          eventstore.TracingCollector
}

// Milliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func Milliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// LogStatement logs an executed statement (SQL or file IO) with its duration at debug level.
func (o *Observer) LogStatement(ctx context.Context, action, statement string, duration time.Duration) {
	msg := "executed " + o.statementKind() + " for: " + action
	args := []any{LogAttrDurationMS, Milliseconds(duration), LogAttrQuery, statement}

	if o.Logger != nil {
		o.Logger.Debug(msg, args...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.DebugContext(ctx, msg, args...)
	}
}

// LogOperation logs an operation summary at info level.
func (o *Observer) LogOperation(ctx context.Context, action string, args ...any) {
	if o.Logger != nil {
		o.Logger.Info(LogMsgOperation+action, args...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.InfoContext(ctx, LogMsgOperation+action, args...)
	}
}

// LogWarn logs a recoverable problem.
func (o *Observer) LogWarn(ctx context.Context, message string, err error, args ...any) {
	allArgs := append([]any{LogAttrError, err.Error()}, args...)

	if o.Logger != nil {
		o.Logger.Warn(message, allArgs...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.WarnContext(ctx, message, allArgs...)
	}
}

// LogError logs a failure which makes the current operation fail.
func (o *Observer) LogError(ctx context.Context, message string, err error, args ...any) {
	allArgs := append([]any{LogAttrError, err.Error()}, args...)

	if o.Logger != nil {
		o.Logger.Error(message, allArgs...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

func (o *Observer) statementKind() string {
	if o.StatementKind == "" {
		return "sql"
	}

	return o.StatementKind
}

func (o *Observer) labels(pairs ...string) map[string]string {
	labels := make(map[string]string, len(pairs)/2+1)
	for i := 0; i+1 < len(pairs); i += 2 {
		labels[pairs[i]] = pairs[i+1]
	}

	if o.Engine != "" {
		labels[LabelEngine] = o.Engine
	}

	return labels
}

func (o *Observer) recordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if o.Metrics == nil {
		return
	}

	if contextual, ok := o.Metrics.(eventstore.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	o.Metrics.RecordDuration(metric, duration, labels)
}

func (o *Observer) recordValue(ctx context.Context, metric string, value float64, labels map[string]string) {
	if o.Metrics == nil {
		return
	}

	if contextual, ok := o.Metrics.(eventstore.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(ctx, metric, value, labels)
		return
	}

	o.Metrics.RecordValue(metric, value, labels)
}

func (o *Observer) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if o.Metrics == nil {
		return
	}

	if contextual, ok := o.Metrics.(eventstore.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	o.Metrics.IncrementCounter(metric, labels)
}

func (o *Observer) recordDatabaseError(ctx context.Context, operation, errorType string) {
	o.incrementCounter(ctx, MetricDatabaseErrors, o.labels(
		LabelOperation, operation,
		LabelStatus, StatusError,
		LabelErrorType, errorType,
	))
}

func (o *Observer) startSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, eventstore.SpanContext) {
	if o.Tracing == nil {
		return ctx, nil
	}

	return o.Tracing.StartSpan(ctx, name, attrs)
}

func (o *Observer) finishSpan(span eventstore.SpanContext, status string, attrs map[string]string) {
	if o.Tracing == nil || span == nil {
		return
	}

	span.SetStatus(status)
	for key, value := range attrs {
		span.AddAttribute(key, value)
	}

	o.Tracing.FinishSpan(span, status, attrs)
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.2f", Milliseconds(d))
}
