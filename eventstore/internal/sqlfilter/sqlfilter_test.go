package sqlfilter_test

import (
	"testing"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/eventstore/internal/sqlfilter"
)

func testDialect() sqlfilter.Dialect {
	return sqlfilter.Dialect{
		Predicate: func(key, val string) (exp.Expression, error) {
			return goqu.L("payload->>? = ?", key, val), nil
		},
	}
}

func toSQL(t *testing.T, filter eventstore.Filter) string {
	t.Helper()

	where, err := sqlfilter.Where(filter, testDialect())
	require.NoError(t, err)

	sql, _, err := goqu.Dialect("postgres").From("events").Select(sqlfilter.ColEventType).Where(where).ToSQL()
	require.NoError(t, err)

	return sql
}

func Test_Where_MatchingAnyEvent_HasNoWhereClause(t *testing.T) {
	sql := toSQL(t, eventstore.BuildEventFilter().MatchingAnyEvent())

	assert.NotContains(t, sql, "WHERE")
}

func Test_Where_RendersEventTypesAndPredicates(t *testing.T) {
	filter := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BorrowRequested", "BorrowApproved").
		AndAnyPredicateOf(eventstore.P("BookID", "book-1"), eventstore.P("MemberID", "alice")).
		Finalize()

	sql := toSQL(t, filter)

	assert.Contains(t, sql, `"event_type" IN ('BorrowApproved', 'BorrowRequested')`)
	assert.Contains(t, sql, `payload->>'BookID' = 'book-1'`)
	assert.Contains(t, sql, `payload->>'MemberID' = 'alice'`)
	assert.Contains(t, sql, " OR ")
}

func Test_Where_AllPredicatesAreANDed(t *testing.T) {
	filter := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BorrowRequested").
		AndAllPredicatesOf(eventstore.P("BookID", "book-1"), eventstore.P("MemberID", "alice")).
		Finalize()

	sql := toSQL(t, filter)

	assert.Contains(t, sql, `(payload->>'BookID' = 'book-1' AND payload->>'MemberID' = 'alice')`)
}

func Test_Where_RendersBounds(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	withTime := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BookAddedToCatalog").
		OccurredFrom(from).
		Finalize()

	withSequence := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BookAddedToCatalog").
		WithSequenceNumberHigherThan(42).
		Finalize()

	assert.Contains(t, toSQL(t, withTime), `"occurred_at" >= `)
	assert.Contains(t, toSQL(t, withSequence), `"sequence_number" > 42`)
}

func Test_Where_UsesDialectTimeConversion(t *testing.T) {
	dialect := testDialect()
	dialect.Time = func(t time.Time) any { return t.Format("2006-01-02") }

	filter := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BookAddedToCatalog").
		OccurredFrom(time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)).
		Finalize()

	where, err := sqlfilter.Where(filter, dialect)
	require.NoError(t, err)

	sql, _, err := goqu.Dialect("postgres").From("events").Where(where).ToSQL()
	require.NoError(t, err)

	assert.Contains(t, sql, `"occurred_at" >= '2026-03-04'`)
}
