// Package sqlfilter translates an eventstore.Filter into a goqu where clause.
//
// The SQL engines only differ in how a payload predicate and a timestamp are rendered,
// everything else (OR between items, OR between event types, OR/AND between predicates,
// time and sequence bounds) is built here.
package sqlfilter

import (
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/bookdesk/bookdesk/eventstore"
)

const (
	ColEventType      = "event_type"
	ColOccurredAt     = "occurred_at"
	ColPayload        = "payload"
	ColMetadata       = "metadata"
	ColSequenceNumber = "sequence_number"
)

// Dialect renders the engine specific parts of a where clause.
type Dialect struct {
	// Predicate renders "the top-level payload key equals val".
	Predicate func(key, val string) (exp.Expression, error)

	// Time converts a time bound into the value stored in the occurred_at column.
	// Nil means the time.Time is passed through unchanged.
	Time func(t time.Time) any
}

// Where builds the where clause for filter.
// A filter without item restrictions and without bounds yields an empty expression list,
// which goqu omits, so every event matches.
func Where(filter eventstore.Filter, dialect Dialect) (exp.ExpressionList, error) {
	itemExpressions := make([]exp.Expression, 0, len(filter.Items()))

	if filter.HasItemRestrictions() {
		for _, item := range filter.Items() {
			itemExpression, err := whereItem(item, dialect)
			if err != nil {
				return nil, err
			}

			itemExpressions = append(itemExpressions, itemExpression)
		}
	}

	boundExpressions := make([]exp.Expression, 0, 3)

	if !filter.OccurredFrom().IsZero() {
		boundExpressions = append(boundExpressions, goqu.C(ColOccurredAt).Gte(dialect.timeValue(filter.OccurredFrom())))
	}

	if !filter.OccurredUntil().IsZero() {
		boundExpressions = append(boundExpressions, goqu.C(ColOccurredAt).Lte(dialect.timeValue(filter.OccurredUntil())))
	}

	if filter.SequenceNumberHigherThan() > 0 {
		boundExpressions = append(boundExpressions, goqu.C(ColSequenceNumber).Gt(filter.SequenceNumberHigherThan()))
	}

	clause := make([]exp.Expression, 0, 2)
	if len(itemExpressions) > 0 {
		clause = append(clause, goqu.Or(itemExpressions...))
	}

	if len(boundExpressions) > 0 {
		clause = append(clause, goqu.And(boundExpressions...))
	}

	return goqu.And(clause...), nil
}

func whereItem(item eventstore.FilterItem, dialect Dialect) (exp.Expression, error) {
	parts := make([]exp.Expression, 0, 2)

	if len(item.EventTypes()) > 0 {
		eventTypes := make([]any, 0, len(item.EventTypes()))
		for _, eventType := range item.EventTypes() {
			eventTypes = append(eventTypes, eventType)
		}

		// event types are always ORed
		parts = append(parts, goqu.C(ColEventType).In(eventTypes...))
	}

	if len(item.Predicates()) > 0 {
		predicateExpressions := make([]exp.Expression, 0, len(item.Predicates()))

		for _, predicate := range item.Predicates() {
			expression, err := dialect.Predicate(predicate.Key(), predicate.Val())
			if err != nil {
				return nil, err
			}

			predicateExpressions = append(predicateExpressions, expression)
		}

		if item.AllPredicatesMustMatch() {
			parts = append(parts, goqu.And(predicateExpressions...))
		} else {
			parts = append(parts, goqu.Or(predicateExpressions...))
		}
	}

	return goqu.And(parts...), nil
}

func (d Dialect) timeValue(t time.Time) any {
	if d.Time == nil {
		return t
	}

	return d.Time(t)
}
