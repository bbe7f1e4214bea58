// Package enginetest holds the behavior every engine must show, as test suites the engine packages run
// against their own setup. It is only imported from _test.go files.
package enginetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/eventstore"
)

const (
	bookAdded      = "BookAddedToCatalog"
	bookRemoved    = "BookRemovedFromCatalog"
	borrowApproved = "BorrowApproved"
	bookReturned   = "BookReturned"
)

// Store is the contract shared by all engines.
type Store interface {
	Query(ctx context.Context, filter eventstore.Filter) (eventstore.StorableEvents, eventstore.MaxSequenceNumberUint, error)
	Append(
		ctx context.Context,
		filter eventstore.Filter,
		expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
		event eventstore.StorableEvent,
		additionalEvents ...eventstore.StorableEvent,
	) error
	SaveSnapshot(ctx context.Context, snapshot eventstore.Snapshot) error
	LoadSnapshot(ctx context.Context, projectionType string, filter eventstore.Filter) (*eventstore.Snapshot, error)
	DeleteSnapshot(ctx context.Context, projectionType string, filter eventstore.Filter) error
}

// Collaborators are the observability options a Factory must wire into the store it creates.
type Collaborators struct {
	Logger           eventstore.Logger
	ContextualLogger eventstore.ContextualLogger
	Metrics          eventstore.MetricsCollector
	Tracing          eventstore.TracingCollector
}

// Factory creates a ready-to-use store. Cleanup must be registered with t.Cleanup.
type Factory func(t *testing.T, collaborators Collaborators) Store

// GivenUniqueID returns a fresh id, so tests against a shared database don't see each other's events.
func GivenUniqueID(t testing.TB) string {
	id, err := uuid.NewV7()
	require.NoError(t, err, "error in arranging test data")

	return id.String()
}

// FixedTime returns a UTC time with microsecond precision, which every engine round-trips exactly.
func FixedTime(offset time.Duration) time.Time {
	return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC).Add(offset).Truncate(time.Microsecond)
}

// FilterAllEventTypesForOneBook is the "dynamic event stream" of one book.
func FilterAllEventTypesForOneBook(bookID string) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(bookAdded, bookRemoved, borrowApproved, bookReturned).
		AndAnyPredicateOf(eventstore.P("BookID", bookID)).
		Finalize()
}

// FixtureEvent builds a StorableEvent with BookID and MemberID in its payload.
func FixtureEvent(t testing.TB, eventType, bookID, memberID string, occurredAt time.Time) eventstore.StorableEvent {
	payload := fmt.Sprintf(`{"BookID": %q, "MemberID": %q, "Title": "Go in Action"}`, bookID, memberID)

	event, err := eventstore.BuildStorableEventWithEmptyMetadata(eventType, occurredAt, []byte(payload))
	require.NoError(t, err, "error in arranging test data")

	return event
}

func queryMaxSequenceNumber(ctx context.Context, t *testing.T, es Store, filter eventstore.Filter) eventstore.MaxSequenceNumberUint {
	_, maxSequenceNumber, err := es.Query(ctx, filter)
	require.NoError(t, err, "error in arranging test data")

	return maxSequenceNumber
}

// RunContract runs the Query/Append suite against the engine created by factory.
//
//nolint:funlen
func RunContract(t *testing.T, factory Factory) {
	t.Run("Append_When_NoEvent_MatchesTheQuery_BeforeAppend", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		es := factory(t, Collaborators{})
		bookID := GivenUniqueID(t)
		filter := FilterAllEventTypesForOneBook(bookID)

		// act
		err := es.Append(ctx, filter, 0, FixtureEvent(t, bookAdded, bookID, "", FixedTime(0)))

		// assert
		require.NoError(t, err)
		events, maxSequenceNumber, queryErr := es.Query(ctx, filter)
		require.NoError(t, queryErr)
		assert.Len(t, events, 1)
		assert.Greater(t, maxSequenceNumber, eventstore.MaxSequenceNumberUint(0))
	})

	t.Run("Append_When_SomeEvents_MatchTheQuery_BeforeAppend", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		es := factory(t, Collaborators{})
		bookID := GivenUniqueID(t)
		filter := FilterAllEventTypesForOneBook(bookID)
		require.NoError(t, es.Append(ctx, filter, 0, FixtureEvent(t, bookAdded, bookID, "", FixedTime(0))))
		maxBefore := queryMaxSequenceNumber(ctx, t, es, filter)

		// act
		err := es.Append(ctx, filter, maxBefore, FixtureEvent(t, bookRemoved, bookID, "", FixedTime(time.Minute)))

		// assert
		require.NoError(t, err)
		events, maxAfter, queryErr := es.Query(ctx, filter)
		require.NoError(t, queryErr)
		require.Len(t, events, 2)
		assert.Equal(t, bookAdded, events[0].EventType)
		assert.Equal(t, bookRemoved, events[1].EventType)
		assert.Greater(t, maxAfter, maxBefore)
		assert.True(t, FixedTime(time.Minute).Equal(events[1].OccurredAt))
	})

	t.Run("Append_When_A_ConcurrencyConflict_ShouldHappen", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		es := factory(t, Collaborators{})
		bookID := GivenUniqueID(t)
		filter := FilterAllEventTypesForOneBook(bookID)
		require.NoError(t, es.Append(ctx, filter, 0, FixtureEvent(t, bookAdded, bookID, "", FixedTime(0))))

		// act
		err := es.Append(ctx, filter, 0, FixtureEvent(t, bookRemoved, bookID, "", FixedTime(time.Minute)))

		// assert
		assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
		events, _, queryErr := es.Query(ctx, filter)
		require.NoError(t, queryErr)
		assert.Len(t, events, 1, "nothing must be written on conflict")
	})

	t.Run("AppendMultiple", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		es := factory(t, Collaborators{})
		bookID := GivenUniqueID(t)
		filter := FilterAllEventTypesForOneBook(bookID)

		// act
		err := es.Append(ctx, filter, 0,
			FixtureEvent(t, bookAdded, bookID, "", FixedTime(0)),
			FixtureEvent(t, borrowApproved, bookID, "alice", FixedTime(time.Minute)),
			FixtureEvent(t, bookReturned, bookID, "alice", FixedTime(2*time.Minute)))

		// assert
		require.NoError(t, err)
		events, _, queryErr := es.Query(ctx, filter)
		require.NoError(t, queryErr)
		require.Len(t, events, 3)
		assert.Equal(t, bookAdded, events[0].EventType)
		assert.Equal(t, borrowApproved, events[1].EventType)
		assert.Equal(t, bookReturned, events[2].EventType)
	})

	t.Run("AppendMultiple_When_A_ConcurrencyConflict_ShouldHappen", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		es := factory(t, Collaborators{})
		bookID := GivenUniqueID(t)
		filter := FilterAllEventTypesForOneBook(bookID)
		require.NoError(t, es.Append(ctx, filter, 0, FixtureEvent(t, bookAdded, bookID, "", FixedTime(0))))

		// act
		err := es.Append(ctx, filter, 0,
			FixtureEvent(t, borrowApproved, bookID, "alice", FixedTime(time.Minute)),
			FixtureEvent(t, bookReturned, bookID, "alice", FixedTime(2*time.Minute)))

		// assert
		assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
		events, _, queryErr := es.Query(ctx, filter)
		require.NoError(t, queryErr)
		assert.Len(t, events, 1, "an append writes all events or none")
	})

	t.Run("Append_Concurrent", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		es := factory(t, Collaborators{})
		bookID := GivenUniqueID(t)
		filter := FilterAllEventTypesForOneBook(bookID)
		workers := 8

		var wg sync.WaitGroup
		var mu sync.Mutex
		succeeded, conflicted := 0, 0

		// act
		for i := 0; i < workers; i++ {
			wg.Add(1)

			go func(memberID string) {
				defer wg.Done()

				err := es.Append(ctx, filter, 0, FixtureEvent(t, bookAdded, bookID, memberID, FixedTime(0)))

				mu.Lock()
				defer mu.Unlock()

				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, eventstore.ErrConcurrencyConflict):
					conflicted++
				}
			}(fmt.Sprintf("member-%d", i))
		}

		wg.Wait()

		// assert
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, workers-1, conflicted)
	})

	t.Run("Append_EventWithMetadata", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		es := factory(t, Collaborators{})
		bookID := GivenUniqueID(t)
		filter := FilterAllEventTypesForOneBook(bookID)
		metadata := `{"MessageID": "m-1", "CausationID": "c-1", "CorrelationID": "c-1"}`
		event, err := eventstore.BuildStorableEvent(bookAdded, FixedTime(0), []byte(fmt.Sprintf(`{"BookID": %q}`, bookID)), []byte(metadata))
		require.NoError(t, err)

		// act
		err = es.Append(ctx, filter, 0, event)

		// assert
		require.NoError(t, err)
		events, _, queryErr := es.Query(ctx, filter)
		require.NoError(t, queryErr)
		require.Len(t, events, 1)
		assert.JSONEq(t, metadata, string(events[0].MetadataJSON))
		assert.JSONEq(t, string(event.PayloadJSON), string(events[0].PayloadJSON))
	})

	t.Run("Append_DoesNotConflict_WithUnrelatedStreams", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		es := factory(t, Collaborators{})
		bookID := GivenUniqueID(t)
		otherBookID := GivenUniqueID(t)
		filter := FilterAllEventTypesForOneBook(bookID)
		maxBefore := queryMaxSequenceNumber(ctx, t, es, filter)
		require.NoError(t, es.Append(ctx, FilterAllEventTypesForOneBook(otherBookID), 0, FixtureEvent(t, bookAdded, otherBookID, "", FixedTime(0))))

		// act
		err := es.Append(ctx, filter, maxBefore, FixtureEvent(t, bookAdded, bookID, "", FixedTime(0)))

		// assert
		assert.NoError(t, err)
	})

	t.Run("QueryingWithFilter_WorksAsExpected", func(t *testing.T) {
		runFilterCases(t, factory)
	})

	t.Run("Query_When_Context_Is_Cancelled", func(t *testing.T) {
		// arrange
		es := factory(t, Collaborators{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// act
		_, _, err := es.Query(ctx, FilterAllEventTypesForOneBook(GivenUniqueID(t)))

		// assert
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Append_When_Context_Is_Cancelled", func(t *testing.T) {
		// arrange
		es := factory(t, Collaborators{})
		bookID := GivenUniqueID(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// act
		err := es.Append(ctx, FilterAllEventTypesForOneBook(bookID), 0, FixtureEvent(t, bookAdded, bookID, "", FixedTime(0)))

		// assert
		assert.ErrorIs(t, err, context.Canceled)
	})
}

//nolint:funlen
func runFilterCases(t *testing.T, factory Factory) {
	ctx := context.Background()
	es := factory(t, Collaborators{})
	bookID := GivenUniqueID(t)
	otherBookID := GivenUniqueID(t)
	alice := GivenUniqueID(t)
	bob := GivenUniqueID(t)

	// arrange: one stream per book, interleaved
	appendOne := func(eventType, book, member string, at time.Time) {
		filter := FilterAllEventTypesForOneBook(book)
		maxSeq := queryMaxSequenceNumber(ctx, t, es, filter)
		require.NoError(t, es.Append(ctx, filter, maxSeq, FixtureEvent(t, eventType, book, member, at)))
	}

	appendOne(bookAdded, bookID, "", FixedTime(0))
	appendOne(bookAdded, otherBookID, "", FixedTime(time.Minute))
	appendOne(borrowApproved, bookID, alice, FixedTime(2*time.Minute))
	appendOne(borrowApproved, otherBookID, bob, FixedTime(3*time.Minute))
	appendOne(bookReturned, bookID, alice, FixedTime(4*time.Minute))

	tests := []struct {
		name          string
		filter        eventstore.Filter
		expectedTypes []string
	}{
		{
			name:          "event types and one predicate",
			filter:        FilterAllEventTypesForOneBook(bookID),
			expectedTypes: []string{bookAdded, borrowApproved, bookReturned},
		},
		{
			name: "any of two predicates",
			filter: eventstore.BuildEventFilter().
				Matching().
				AnyEventTypeOf(borrowApproved).
				AndAnyPredicateOf(eventstore.P("MemberID", alice), eventstore.P("MemberID", bob)).
				Finalize(),
			expectedTypes: []string{borrowApproved, borrowApproved},
		},
		{
			name: "all predicates",
			filter: eventstore.BuildEventFilter().
				Matching().
				AnyEventTypeOf(borrowApproved, bookReturned).
				AndAllPredicatesOf(eventstore.P("BookID", bookID), eventstore.P("MemberID", alice)).
				Finalize(),
			expectedTypes: []string{borrowApproved, bookReturned},
		},
		{
			name: "predicates only",
			filter: eventstore.BuildEventFilter().
				Matching().
				AnyPredicateOf(eventstore.P("MemberID", bob)).
				Finalize(),
			expectedTypes: []string{borrowApproved},
		},
		{
			name: "two items",
			filter: eventstore.BuildEventFilter().
				Matching().
				AnyEventTypeOf(bookAdded).
				AndAnyPredicateOf(eventstore.P("BookID", otherBookID)).
				OrMatching().
				AnyEventTypeOf(bookReturned).
				AndAnyPredicateOf(eventstore.P("BookID", bookID)).
				Finalize(),
			expectedTypes: []string{bookAdded, bookReturned},
		},
		{
			name: "occurred from and until",
			filter: eventstore.BuildEventFilter().
				Matching().
				AnyPredicateOf(eventstore.P("BookID", bookID), eventstore.P("BookID", otherBookID)).
				OccurredFrom(FixedTime(time.Minute)).
				AndOccurredUntil(FixedTime(3 * time.Minute)).
				Finalize(),
			expectedTypes: []string{bookAdded, borrowApproved, borrowApproved},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, maxSequenceNumber, err := es.Query(ctx, tt.filter)
			require.NoError(t, err)

			types := make([]string, 0, len(events))
			for _, e := range events {
				types = append(types, e.EventType)
			}

			assert.Equal(t, tt.expectedTypes, types)
			assert.Greater(t, maxSequenceNumber, eventstore.MaxSequenceNumberUint(0))
		})
	}

	t.Run("sequence number higher than", func(t *testing.T) {
		base := FilterAllEventTypesForOneBook(bookID)
		all, _, err := es.Query(ctx, base)
		require.NoError(t, err)
		require.Len(t, all, 3)

		// the max sequence after the first event of this book
		firstOnly := eventstore.BuildEventFilter().
			Matching().
			AnyEventTypeOf(bookAdded).
			AndAnyPredicateOf(eventstore.P("BookID", bookID)).
			Finalize()
		_, firstSeq, err := es.Query(ctx, firstOnly)
		require.NoError(t, err)

		incremental := base.ReopenForSequenceFiltering().(eventstore.SequenceFilteringCapable).
			WithSequenceNumberHigherThan(firstSeq).
			Finalize()

		events, _, err := es.Query(ctx, incremental)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, borrowApproved, events[0].EventType)
		assert.Equal(t, bookReturned, events[1].EventType)
	})

	t.Run("nothing newer yields max sequence 0", func(t *testing.T) {
		base := FilterAllEventTypesForOneBook(bookID)
		_, maxSeq, err := es.Query(ctx, base)
		require.NoError(t, err)

		incremental := base.ReopenForSequenceFiltering().(eventstore.SequenceFilteringCapable).
			WithSequenceNumberHigherThan(maxSeq).
			Finalize()

		events, newMax, err := es.Query(ctx, incremental)
		require.NoError(t, err)
		assert.Empty(t, events)
		assert.Equal(t, eventstore.MaxSequenceNumberUint(0), newMax)
	})
}
