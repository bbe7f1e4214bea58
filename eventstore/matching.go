package eventstore

import (
	"errors"
	"slices"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// ErrExtractingPayloadFieldsFailed is returned when a payload can't be parsed as a JSON object.
var ErrExtractingPayloadFieldsFailed = errors.New("extracting payload fields failed")

// PayloadFields holds the top-level string properties of an event payload, which is what FilterPredicate(s) match on.
type PayloadFields = map[FilterKeyString]FilterValString

// ExtractPayloadFields parses payloadJSON once so that it can be matched against many filters.
// Non-string properties are skipped, as predicates only ever match string values.
func ExtractPayloadFields(payloadJSON []byte) (PayloadFields, error) {
	raw := make(map[string]any)

	if err := jsoniter.ConfigFastest.Unmarshal(payloadJSON, &raw); err != nil {
		return nil, errors.Join(ErrExtractingPayloadFieldsFailed, err)
	}

	fields := make(PayloadFields, len(raw))
	for key, val := range raw {
		if s, ok := val.(string); ok {
			fields[key] = s
		}
	}

	return fields, nil
}

// Matches evaluates the Filter in memory against one event, for engines which can't push the filter down into a query.
// The sequence boundary is not evaluated here, because only the engine knows the sequence number of an event.
func (f Filter) Matches(eventType string, occurredAt time.Time, fields PayloadFields) bool {
	if !f.occurredFrom.IsZero() && occurredAt.Before(f.occurredFrom) {
		return false
	}

	if !f.occurredUntil.IsZero() && occurredAt.After(f.occurredUntil) {
		return false
	}

	if !f.HasItemRestrictions() {
		return true
	}

	for _, item := range f.items {
		if item.matches(eventType, fields) {
			return true
		}
	}

	return false
}

func (fi FilterItem) matches(eventType string, fields PayloadFields) bool {
	if len(fi.eventTypes) > 0 && !slices.Contains(fi.eventTypes, eventType) {
		return false
	}

	if len(fi.predicates) == 0 {
		return true
	}

	for _, p := range fi.predicates {
		val, ok := fields[p.key]
		hit := ok && val == p.val

		if fi.allPredicatesMustMatch && !hit {
			return false
		}

		if !fi.allPredicatesMustMatch && hit {
			return true
		}
	}

	return fi.allPredicatesMustMatch
}
