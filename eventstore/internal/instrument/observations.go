package instrument

import (
	"context"
	"strconv"
	"time"

	"github.com/bookdesk/bookdesk/eventstore"
)

// QueryObservation tracks one Query call from start to finish.
type QueryObservation struct {
	o     *Observer
	ctx   context.Context
	span  eventstore.SpanContext
	start time.Time
}

// StartQuery opens the query span and starts the clock.
func (o *Observer) StartQuery(ctx context.Context) (*QueryObservation, context.Context) {
	spanCtx, span := o.startSpan(ctx, SpanNameQuery, map[string]string{LabelOperation: OperationQuery})

	return &QueryObservation{o: o, ctx: spanCtx, span: span, start: time.Now()}, spanCtx
}

// Success records metrics, finishes the span and logs the summary of a successful query.
func (q *QueryObservation) Success(events eventstore.StorableEvents, maxSequenceNumber eventstore.MaxSequenceNumberUint) {
	duration := time.Since(q.start)
	labels := q.o.labels(LabelOperation, OperationQuery, LabelStatus, StatusSuccess)

	q.o.recordDuration(q.ctx, MetricQueryDuration, duration, labels)
	q.o.recordValue(q.ctx, MetricEventsQueried, float64(len(events)), labels)

	q.o.finishSpan(q.span, StatusSuccess, map[string]string{
		SpanAttrEventCount:  strconv.Itoa(len(events)),
		SpanAttrMaxSequence: strconv.FormatUint(uint64(maxSequenceNumber), 10),
		SpanAttrDurationMS:  formatDuration(duration),
	})

	q.o.LogOperation(q.ctx, LogMsgQueryCompleted,
		LogAttrEventCount, len(events),
		LogAttrDurationMS, Milliseconds(duration))
}

// Error records metrics and finishes the span of a failed query.
func (q *QueryObservation) Error(errorType string) {
	duration := time.Since(q.start)

	q.o.recordDuration(q.ctx, MetricQueryDuration, duration, q.o.labels(LabelOperation, OperationQuery, LabelStatus, StatusError))
	q.o.recordDatabaseError(q.ctx, OperationQuery, errorType)

	q.o.finishSpan(q.span, StatusError, map[string]string{
		LabelErrorType:     errorType,
		SpanAttrDurationMS: formatDuration(duration),
	})
}

// AppendObservation tracks one Append call from start to finish.
type AppendObservation struct {
	o        *Observer
	ctx      context.Context
	span     eventstore.SpanContext
	start    time.Time
	events   int
	expected eventstore.MaxSequenceNumberUint
}

// StartAppend opens the append span and starts the clock.
func (o *Observer) StartAppend(
	ctx context.Context,
	events eventstore.StorableEvents,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (*AppendObservation, context.Context) {

	attrs := map[string]string{
		LabelOperation:      OperationAppend,
		SpanAttrEventCount:  strconv.Itoa(len(events)),
		SpanAttrExpectedSeq: strconv.FormatUint(uint64(expectedMaxSequenceNumber), 10),
	}

	if len(events) > 0 {
		attrs[SpanAttrEventType] = events[0].EventType
	}

	spanCtx, span := o.startSpan(ctx, SpanNameAppend, attrs)

	return &AppendObservation{
		o:        o,
		ctx:      spanCtx,
		span:     span,
		start:    time.Now(),
		events:   len(events),
		expected: expectedMaxSequenceNumber,
	}, spanCtx
}

// Success records metrics, finishes the span and logs the summary of a successful append.
func (a *AppendObservation) Success(rowsAffected int64) {
	duration := time.Since(a.start)
	labels := a.o.labels(LabelOperation, OperationAppend, LabelStatus, StatusSuccess)

	a.o.recordDuration(a.ctx, MetricAppendDuration, duration, labels)
	a.o.recordValue(a.ctx, MetricEventsAppended, float64(a.events), labels)

	a.o.finishSpan(a.span, StatusSuccess, map[string]string{
		SpanAttrRowsAffected: strconv.FormatInt(rowsAffected, 10),
		SpanAttrDurationMS:   formatDuration(duration),
	})

	a.o.LogOperation(a.ctx, LogMsgEventsAppended,
		LogAttrEventCount, a.events,
		LogAttrDurationMS, Milliseconds(duration))
}

// Conflict records a concurrency conflict, which is an expected outcome rather than a database error.
func (a *AppendObservation) Conflict(rowsAffected int64) {
	duration := time.Since(a.start)

	a.o.recordDuration(a.ctx, MetricAppendDuration, duration, a.o.labels(LabelOperation, OperationAppend, LabelStatus, StatusError))
	a.o.incrementCounter(a.ctx, MetricConcurrencyConflicts, a.o.labels(
		LabelOperation, OperationAppend,
		LabelConflictType, ConflictTypeConcurrency,
	))

	a.o.finishSpan(a.span, StatusError, map[string]string{
		LabelErrorType:       ConflictTypeConcurrency,
		SpanAttrRowsAffected: strconv.FormatInt(rowsAffected, 10),
		SpanAttrDurationMS:   formatDuration(duration),
	})

	a.o.LogOperation(a.ctx, LogMsgConcurrency,
		LogAttrExpectedEvents, a.events,
		LogAttrRowsAffected, rowsAffected,
		LogAttrExpectedSequence, a.expected)
}

// Error records metrics and finishes the span of a failed append.
func (a *AppendObservation) Error(errorType string) {
	duration := time.Since(a.start)

	a.o.recordDuration(a.ctx, MetricAppendDuration, duration, a.o.labels(LabelOperation, OperationAppend, LabelStatus, StatusError))
	a.o.recordDatabaseError(a.ctx, OperationAppend, errorType)

	a.o.finishSpan(a.span, StatusError, map[string]string{
		LabelErrorType:     errorType,
		SpanAttrDurationMS: formatDuration(duration),
	})
}

// SnapshotObservation tracks one snapshot save, load or delete.
type SnapshotObservation struct {
	o              *Observer
	ctx            context.Context
	span           eventstore.SpanContext
	start          time.Time
	operation      string
	projectionType string
}

// StartSnapshot opens the snapshot span for the given operation.
func (o *Observer) StartSnapshot(ctx context.Context, operation, projectionType string) (*SnapshotObservation, context.Context) {
	spanCtx, span := o.startSpan(ctx, SpanNameSnapshot, map[string]string{
		LabelOperation:         operation,
		SpanAttrProjectionType: projectionType,
	})

	return &SnapshotObservation{
		o:              o,
		ctx:            spanCtx,
		span:           span,
		start:          time.Now(),
		operation:      operation,
		projectionType: projectionType,
	}, spanCtx
}

// Success finishes a snapshot operation; message is one of the LogMsgSnapshot* constants.
func (s *SnapshotObservation) Success(message string, sequenceNumber eventstore.MaxSequenceNumberUint) {
	duration := time.Since(s.start)

	s.o.recordDuration(s.ctx, MetricSnapshotDuration, duration, s.o.labels(LabelOperation, s.operation, LabelStatus, StatusSuccess))
	s.o.finishSpan(s.span, StatusSuccess, map[string]string{
		SpanAttrMaxSequence: strconv.FormatUint(uint64(sequenceNumber), 10),
		SpanAttrDurationMS:  formatDuration(duration),
	})

	s.o.LogOperation(s.ctx, message,
		LogAttrProjectionType, s.projectionType,
		LogAttrSequenceNumber, sequenceNumber,
		LogAttrDurationMS, Milliseconds(duration))
}

// Error finishes a failed snapshot operation.
func (s *SnapshotObservation) Error(errorType string) {
	duration := time.Since(s.start)

	s.o.recordDuration(s.ctx, MetricSnapshotDuration, duration, s.o.labels(LabelOperation, s.operation, LabelStatus, StatusError))
	s.o.recordDatabaseError(s.ctx, s.operation, errorType)
	s.o.finishSpan(s.span, StatusError, map[string]string{
		LabelErrorType:     errorType,
		SpanAttrDurationMS: formatDuration(duration),
	})
}
