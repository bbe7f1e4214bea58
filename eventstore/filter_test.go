package eventstore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/eventstore"
)

//nolint:funlen
func Test_FilterBuilder_ValidCombinations(t *testing.T) {
	tests := []struct {
		name     string
		build    func() eventstore.Filter
		validate func(t *testing.T, filter eventstore.Filter)
	}{
		{
			name: "matching_any_event_creates_empty_filter",
			build: func() eventstore.Filter {
				return eventstore.BuildEventFilter().MatchingAnyEvent()
			},
			validate: func(t *testing.T, f eventstore.Filter) {
				assert.Empty(t, f.Items())
				assert.False(t, f.HasItemRestrictions())
				assert.True(t, f.OccurredFrom().IsZero())
				assert.Equal(t, uint(0), f.SequenceNumberHigherThan())
			},
		},
		{
			name: "sequence_only_filter",
			build: func() eventstore.Filter {
				return eventstore.BuildEventFilter().
					WithSequenceNumberHigherThan(42).
					Finalize()
			},
			validate: func(t *testing.T, f eventstore.Filter) {
				assert.Equal(t, uint(42), f.SequenceNumberHigherThan())
				assert.Len(t, f.Items(), 1)
				assert.True(t, f.Items()[0].IsEmpty())
				assert.False(t, f.HasItemRestrictions())
			},
		},
		{
			name: "event_types_are_sanitized",
			build: func() eventstore.Filter {
				return eventstore.BuildEventFilter().
					Matching().
					AnyEventTypeOf("BorrowRequested", "", "BorrowApproved", "BorrowRequested").
					Finalize()
			},
			validate: func(t *testing.T, f eventstore.Filter) {
				assert.Len(t, f.Items(), 1)
				assert.Equal(t, []string{"BorrowApproved", "BorrowRequested"}, f.Items()[0].EventTypes())
				assert.Empty(t, f.Items()[0].Predicates())
				assert.True(t, f.HasItemRestrictions())
			},
		},
		{
			name: "predicates_are_sanitized",
			build: func() eventstore.Filter {
				return eventstore.BuildEventFilter().
					Matching().
					AnyEventTypeOf("BorrowRequested").
					AndAnyPredicateOf(
						eventstore.P("MemberID", "alice"),
						eventstore.P("BookID", "book-1"),
						eventstore.P("BookID", ""),
						eventstore.P("", "x"),
						eventstore.P("MemberID", "alice")).
					Finalize()
			},
			validate: func(t *testing.T, f eventstore.Filter) {
				predicates := f.Items()[0].Predicates()
				require.Len(t, predicates, 2)
				assert.Equal(t, "BookID", predicates[0].Key())
				assert.Equal(t, "book-1", predicates[0].Val())
				assert.Equal(t, "MemberID", predicates[1].Key())
				assert.Equal(t, "alice", predicates[1].Val())
				assert.False(t, f.Items()[0].AllPredicatesMustMatch())
			},
		},
		{
			name: "all_predicates_then_event_types",
			build: func() eventstore.Filter {
				return eventstore.BuildEventFilter().
					Matching().
					AllPredicatesOf(eventstore.P("BookID", "book-1"), eventstore.P("MemberID", "alice")).
					AndAnyEventTypeOf("BorrowRequested").
					Finalize()
			},
			validate: func(t *testing.T, f eventstore.Filter) {
				assert.Equal(t, []string{"BorrowRequested"}, f.Items()[0].EventTypes())
				assert.Len(t, f.Items()[0].Predicates(), 2)
				assert.True(t, f.Items()[0].AllPredicatesMustMatch())
			},
		},
		{
			name: "multiple_items_with_time_boundaries",
			build: func() eventstore.Filter {
				return eventstore.BuildEventFilter().
					Matching().
					AnyEventTypeOf("BookAddedToCatalog").
					OrMatching().
					AnyEventTypeOf("BorrowApproved").
					AndAnyPredicateOf(eventstore.P("BookID", "book-1")).
					OccurredFrom(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)).
					AndOccurredUntil(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)).
					Finalize()
			},
			validate: func(t *testing.T, f eventstore.Filter) {
				assert.Len(t, f.Items(), 2)
				assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), f.OccurredFrom())
				assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), f.OccurredUntil())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, tt.build())
		})
	}
}

func Test_FilterBuilder_DoesNotShareStateBetweenBranches(t *testing.T) {
	// arrange
	base := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BorrowRequested")

	// act
	withBook := base.AndAnyPredicateOf(eventstore.P("BookID", "book-1")).Finalize()
	withMember := base.AndAnyPredicateOf(eventstore.P("MemberID", "alice")).Finalize()

	// assert
	assert.Equal(t, "BookID", withBook.Items()[0].Predicates()[0].Key())
	assert.Len(t, withBook.Items()[0].Predicates(), 1)
	assert.Equal(t, "MemberID", withMember.Items()[0].Predicates()[0].Key())
	assert.Len(t, withMember.Items()[0].Predicates(), 1)
}

func Test_Filter_Hash_Format_And_Determinism(t *testing.T) {
	filter := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BookAddedToCatalog", "BookRemovedFromCatalog").
		AndAnyPredicateOf(eventstore.P("BookID", "book-1")).
		Finalize()

	hash := filter.Hash()

	assert.Equal(t, hash, filter.Hash())
	assert.Contains(t, hash, "sha256:")
	assert.Len(t, hash, len("sha256:")+64)
}

func Test_Filter_Hash_DiffersForDifferentFilters(t *testing.T) {
	byBook := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BorrowRequested").
		AndAnyPredicateOf(eventstore.P("BookID", "book-1")).
		Finalize()

	byOtherBook := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BorrowRequested").
		AndAnyPredicateOf(eventstore.P("BookID", "book-2")).
		Finalize()

	byBookAll := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BorrowRequested").
		AndAllPredicatesOf(eventstore.P("BookID", "book-1")).
		Finalize()

	assert.NotEqual(t, byBook.Hash(), byOtherBook.Hash())
	assert.NotEqual(t, byBook.Hash(), byBookAll.Hash())
}

func Test_Filter_Hash_DiffersWhenValuesContainSeparators(t *testing.T) {
	twoPredicates := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BorrowRequested").
		AndAnyPredicateOf(eventstore.P("MemberID", "a"), eventstore.P("MemberID", "b")).
		Finalize()

	onePredicate := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BorrowRequested").
		AndAnyPredicateOf(eventstore.P("MemberID", "a;MemberID=b")).
		Finalize()

	twoTypes := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BorrowRequested", "BorrowApproved").
		Finalize()

	oneType := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BorrowRequested,BorrowApproved").
		Finalize()

	assert.NotEqual(t, twoPredicates.Hash(), onePredicate.Hash())
	assert.NotEqual(t, twoTypes.Hash(), oneType.Hash())
}

func Test_Filter_Hash_IgnoresSequenceBoundary(t *testing.T) {
	base := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BookAddedToCatalog").
		Finalize()

	incremental := base.ReopenForSequenceFiltering().(eventstore.SequenceFilteringCapable).
		WithSequenceNumberHigherThan(99).
		Finalize()

	assert.Equal(t, base.Hash(), incremental.Hash())
}

func Test_Filter_ReopenForSequenceFiltering_Compatible(t *testing.T) {
	// arrange
	base := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BorrowApproved").
		AndAnyPredicateOf(eventstore.P("MemberID", "alice")).
		OrMatching().
		AnyEventTypeOf("BookAddedToCatalog").
		Finalize()

	// act
	reopened := base.ReopenForSequenceFiltering()
	capable, ok := reopened.(eventstore.SequenceFilteringCapable)
	require.True(t, ok)
	result := capable.WithSequenceNumberHigherThan(7).Finalize()

	// assert
	assert.Equal(t, uint(7), result.SequenceNumberHigherThan())
	assert.Equal(t, base.Items(), result.Items())
	assert.Equal(t, uint(0), base.SequenceNumberHigherThan())
}

func Test_Filter_ReopenForSequenceFiltering_Incompatible(t *testing.T) {
	base := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BorrowApproved").
		OccurredFrom(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)).
		Finalize()

	reopened := base.ReopenForSequenceFiltering()

	_, isCapable := reopened.(eventstore.SequenceFilteringCapable)
	assert.False(t, isCapable)

	incompatible, ok := reopened.(eventstore.SequenceFilteringIncompatible)
	require.True(t, ok)
	assert.Contains(t, incompatible.CannotAddSequenceFiltering(), "time boundaries already present")
}
