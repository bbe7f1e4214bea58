package enginetest

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/testutil/helper"
)

// RunObservabilityContract checks that the engine reports the shared log messages, metrics and spans.
//
//nolint:funlen
func RunObservabilityContract(t *testing.T, factory Factory) {
	t.Run("WithLogger_LogsQueriesAndAppends", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		logSpy := helper.NewLogHandlerSpy(false)
		es := factory(t, Collaborators{Logger: slog.New(logSpy)})
		bookID := GivenUniqueID(t)
		filter := FilterAllEventTypesForOneBook(bookID)

		// act
		_, _, queryErr := es.Query(ctx, filter)
		appendErr := es.Append(ctx, filter, 0, FixtureEvent(t, bookAdded, bookID, "", FixedTime(0)))

		// assert
		require.NoError(t, queryErr)
		require.NoError(t, appendErr)
		assert.True(t, logSpy.HasLog(slog.LevelInfo, "eventstore operation: query completed").
			WithAttr("event_count").
			WithDurationMS().
			Assert())
		assert.True(t, logSpy.HasLog(slog.LevelInfo, "eventstore operation: events appended").
			WithAttrValue("event_count", "1").
			Assert())
	})

	t.Run("WithLogger_LogsConcurrencyConflicts", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		logSpy := helper.NewLogHandlerSpy(false)
		es := factory(t, Collaborators{Logger: slog.New(logSpy)})
		bookID := GivenUniqueID(t)
		filter := FilterAllEventTypesForOneBook(bookID)
		require.NoError(t, es.Append(ctx, filter, 0, FixtureEvent(t, bookAdded, bookID, "", FixedTime(0))))

		// act
		err := es.Append(ctx, filter, 0, FixtureEvent(t, bookRemoved, bookID, "", FixedTime(time.Minute)))

		// assert
		assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
		assert.True(t, logSpy.HasLog(slog.LevelInfo, "eventstore operation: concurrency conflict detected").
			WithAttrValue("expected_events", "1").
			WithAttrValue("expected_sequence", "0").
			Assert())
	})

	t.Run("WithContextualLogger_LogsQueries", func(t *testing.T) {
		logSpy := helper.NewLogHandlerSpy(false)
		es := factory(t, Collaborators{ContextualLogger: slog.New(logSpy)})

		_, _, err := es.Query(context.Background(), FilterAllEventTypesForOneBook(GivenUniqueID(t)))

		require.NoError(t, err)
		assert.True(t, logSpy.HasInfoLog("eventstore operation: query completed"))
	})

	t.Run("WithMetrics_RecordsQueryAndAppendMetrics", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		metrics := helper.NewMetricsCollectorSpy(true)
		es := factory(t, Collaborators{Metrics: metrics})
		bookID := GivenUniqueID(t)
		filter := FilterAllEventTypesForOneBook(bookID)

		// act
		_, _, queryErr := es.Query(ctx, filter)
		appendErr := es.Append(ctx, filter, 0,
			FixtureEvent(t, bookAdded, bookID, "", FixedTime(0)),
			FixtureEvent(t, borrowApproved, bookID, "alice", FixedTime(time.Minute)))

		// assert
		require.NoError(t, queryErr)
		require.NoError(t, appendErr)
		assert.True(t, metrics.HasDurationRecordForMetric("eventstore_query_duration_seconds").
			WithOperation("query").
			WithStatus("success").
			Assert())
		assert.True(t, metrics.HasValueRecordForMetric("eventstore_events_queried_total").
			WithOperation("query").
			WithStatus("success").
			Assert())
		assert.True(t, metrics.HasDurationRecordForMetric("eventstore_append_duration_seconds").
			WithOperation("append").
			WithStatus("success").
			Assert())

		appended := metrics.ValueRecordsForMetric("eventstore_events_appended_total")
		require.Len(t, appended, 1)
		assert.Equal(t, float64(2), appended[0].Value)
	})

	t.Run("WithMetrics_RecordsConcurrencyConflicts", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		metrics := helper.NewMetricsCollectorSpy(true)
		es := factory(t, Collaborators{Metrics: metrics})
		bookID := GivenUniqueID(t)
		filter := FilterAllEventTypesForOneBook(bookID)
		require.NoError(t, es.Append(ctx, filter, 0, FixtureEvent(t, bookAdded, bookID, "", FixedTime(0))))

		// act
		err := es.Append(ctx, filter, 0, FixtureEvent(t, bookRemoved, bookID, "", FixedTime(time.Minute)))

		// assert
		assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
		assert.True(t, metrics.HasCounterRecordForMetric("eventstore_concurrency_conflicts_total").
			WithOperation("append").
			WithConflictType("concurrency").
			Assert())
		assert.True(t, metrics.HasDurationRecordForMetric("eventstore_append_duration_seconds").
			WithStatus("error").
			Assert())
	})

	t.Run("WithContextualMetrics_UsesContextualPath", func(t *testing.T) {
		metrics := helper.NewContextualMetricsCollectorSpy()
		es := factory(t, Collaborators{Metrics: metrics})

		_, _, err := es.Query(context.Background(), FilterAllEventTypesForOneBook(GivenUniqueID(t)))

		require.NoError(t, err)
		assert.Positive(t, metrics.ContextCalls())
	})

	t.Run("WithTracing_RecordsQueryAndAppendSpans", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		tracing := helper.NewTracingCollectorSpy(true)
		es := factory(t, Collaborators{Tracing: tracing})
		bookID := GivenUniqueID(t)
		filter := FilterAllEventTypesForOneBook(bookID)

		// act
		_, _, queryErr := es.Query(ctx, filter)
		appendErr := es.Append(ctx, filter, 0, FixtureEvent(t, bookAdded, bookID, "", FixedTime(0)))

		// assert
		require.NoError(t, queryErr)
		require.NoError(t, appendErr)

		querySpan, found := tracing.FinishedSpan("eventstore.query", "success")
		require.True(t, found)
		assert.Equal(t, "query", querySpan.StartAttributes["operation"])
		assert.Equal(t, "0", querySpan.EndAttributes["event_count"])

		appendSpan, found := tracing.FinishedSpan("eventstore.append", "success")
		require.True(t, found)
		assert.Equal(t, bookAdded, appendSpan.StartAttributes["event_type"])
		assert.Equal(t, "0", appendSpan.StartAttributes["expected_sequence"])
	})

	t.Run("WithTracing_RecordsConcurrencyConflictSpans", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		tracing := helper.NewTracingCollectorSpy(true)
		es := factory(t, Collaborators{Tracing: tracing})
		bookID := GivenUniqueID(t)
		filter := FilterAllEventTypesForOneBook(bookID)
		require.NoError(t, es.Append(ctx, filter, 0, FixtureEvent(t, bookAdded, bookID, "", FixedTime(0))))

		// act
		err := es.Append(ctx, filter, 0, FixtureEvent(t, bookRemoved, bookID, "", FixedTime(time.Minute)))

		// assert
		assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
		span, found := tracing.FinishedSpan("eventstore.append", "error")
		require.True(t, found)
		assert.Equal(t, "concurrency", span.EndAttributes["error_type"])
	})
}
