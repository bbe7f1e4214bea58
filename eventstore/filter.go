package eventstore

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"
	"time"
)

type FilterEventTypeString = string
type FilterKeyString = string
type FilterValString = string

const reasonTimeBoundariesPresent = "cannot add sequence filtering: time boundaries already present"

/***** Filter *****/

// Filter selects the events of one "dynamic event stream".
// Items are OR-ed, the time and sequence boundaries apply to all items.
type Filter struct {
	items                    []FilterItem
	occurredFrom             time.Time
	occurredUntil            time.Time
	sequenceNumberHigherThan MaxSequenceNumberUint
}

func (f Filter) Items() []FilterItem {
	return f.items
}

func (f Filter) OccurredFrom() time.Time {
	return f.occurredFrom
}

func (f Filter) OccurredUntil() time.Time {
	return f.occurredUntil
}

func (f Filter) SequenceNumberHigherThan() MaxSequenceNumberUint {
	return f.sequenceNumberHigherThan
}

// HasItemRestrictions reports whether at least one FilterItem restricts event types or predicates.
// A Filter without item restrictions matches every event (within the time and sequence boundaries).
func (f Filter) HasItemRestrictions() bool {
	if len(f.items) == 0 {
		return false
	}

	for _, item := range f.items {
		if item.IsEmpty() {
			return false
		}
	}

	return true
}

// Hash returns a deterministic fingerprint of the Filter in the form "sha256:<hex>".
//
// The sequence boundary is not part of the hash, so a snapshot built with a base filter can be found again
// with the same base filter, independent of the incremental sequence boundary used to update it.
func (f Filter) Hash() string {
	var b strings.Builder

	for i, item := range f.items {
		writeHashField(&b, "item", strconv.Itoa(i))

		for _, eventType := range item.eventTypes {
			writeHashField(&b, "type", eventType)
		}

		for _, p := range item.predicates {
			writeHashField(&b, "key", p.key)
			writeHashField(&b, "val", p.val)
		}

		writeHashField(&b, "all", strconv.FormatBool(item.allPredicatesMustMatch))
	}

	if !f.occurredFrom.IsZero() {
		writeHashField(&b, "from", f.occurredFrom.UTC().Format(time.RFC3339Nano))
	}

	if !f.occurredUntil.IsZero() {
		writeHashField(&b, "until", f.occurredUntil.UTC().Format(time.RFC3339Nano))
	}

	sum := sha256.Sum256([]byte(b.String()))

	return "sha256:" + hex.EncodeToString(sum[:])
}

// writeHashField length-prefixes value, so no value can forge a field boundary.
func writeHashField(b *strings.Builder, name, value string) {
	b.WriteString(name)
	b.WriteString(":")
	b.WriteString(strconv.Itoa(len(value)))
	b.WriteString(":")
	b.WriteString(value)
}

// ReopenForSequenceFiltering returns a builder that allows to add a sequence boundary to an already finalized Filter.
//
// The result is either SequenceFilteringCapable or SequenceFilteringIncompatible,
// because time boundaries and a sequence boundary must not be combined.
func (f Filter) ReopenForSequenceFiltering() SequenceFilteringReopened {
	if !f.occurredFrom.IsZero() || !f.occurredUntil.IsZero() {
		return sequenceFilteringIncompatible{reason: reasonTimeBoundariesPresent}
	}

	reopened := filterBuilder{
		filter: Filter{items: slices.Clone(f.items)},
	}

	return sequenceFilteringCapable{fb: reopened}
}

// SequenceFilteringReopened is the result of Filter.ReopenForSequenceFiltering.
type SequenceFilteringReopened interface {
	isSequenceFilteringReopened()
}

// SequenceFilteringCapable allows to add a sequence boundary to a reopened Filter.
type SequenceFilteringCapable interface {
	SequenceFilteringReopened
	WithSequenceNumberHigherThan(sequenceNumber MaxSequenceNumberUint) CompletedFilterItemBuilderWithSequence
}

// SequenceFilteringIncompatible documents why a reopened Filter can't get a sequence boundary.
type SequenceFilteringIncompatible interface {
	SequenceFilteringReopened
	CannotAddSequenceFiltering() string
}

type sequenceFilteringCapable struct {
	fb filterBuilder
}

func (sequenceFilteringCapable) isSequenceFilteringReopened() {}

func (s sequenceFilteringCapable) WithSequenceNumberHigherThan(
	sequenceNumber MaxSequenceNumberUint,
) CompletedFilterItemBuilderWithSequence {

	s.fb.filter.sequenceNumberHigherThan = sequenceNumber
	s.fb.reopened = true

	return s.fb
}

type sequenceFilteringIncompatible struct {
	reason string
}

func (sequenceFilteringIncompatible) isSequenceFilteringReopened() {}

func (s sequenceFilteringIncompatible) CannotAddSequenceFiltering() string {
	return s.reason
}

/***** FilterItem *****/

type FilterItem struct {
	eventTypes             []FilterEventTypeString
	predicates             []FilterPredicate
	allPredicatesMustMatch bool
}

func (fi FilterItem) EventTypes() []FilterEventTypeString {
	return fi.eventTypes
}

func (fi FilterItem) Predicates() []FilterPredicate {
	return fi.predicates
}

func (fi FilterItem) AllPredicatesMustMatch() bool {
	return fi.allPredicatesMustMatch
}

// IsEmpty reports whether the FilterItem neither restricts event types nor predicates.
func (fi FilterItem) IsEmpty() bool {
	return len(fi.eventTypes) == 0 && len(fi.predicates) == 0
}

/***** FilterPredicate *****/

type FilterPredicate struct {
	key FilterKeyString
	val FilterValString
}

// P builds a FilterPredicate: the top-level payload property key must have the string value val.
func P(key FilterKeyString, val FilterValString) FilterPredicate {
	return FilterPredicate{key: key, val: val}
}

func (fp FilterPredicate) Key() FilterKeyString {
	return fp.key
}

func (fp FilterPredicate) Val() FilterValString {
	return fp.val
}

/***** FilterBuilder *****/

// FilterBuilder builds a generic event filter to be used in storage-specific engines to build queries for
// the specific query language (SQLite, Postgres) or to match events in memory (flat file).
// It is designed with the idea to only allow "useful" filter combinations for event-sourced workflows:
//
//   - empty filter
//   - (eventType)
//   - (eventType OR eventType...)
//   - (predicate)
//   - (predicate OR predicate...)
//   - (predicate AND predicate...)
//   - (eventType AND predicate)
//   - (eventType AND (predicate OR predicate...))
//   - (eventType AND (predicate AND predicate...))
//   - ((eventType OR eventType...) AND (predicate OR predicate...))
//   - ((eventType OR eventType...) AND (predicate AND predicate...))
//   - ((eventType AND predicate) OR (eventType AND predicate)...) -> multiple FilterItem(s)
//
// Each of those can be restricted with time boundaries (OccurredFrom, OccurredUntil)
// OR with a sequence boundary (WithSequenceNumberHigherThan), but not with both.
type FilterBuilder interface {
	// Matching starts a new FilterItem.
	Matching() EmptyFilterItemBuilder

	// MatchingAnyEvent directly creates an empty Filter.
	MatchingAnyEvent() Filter

	OccurredFrom(occurredAtFrom time.Time) CompletedFilterItemBuilderWithOccurredFrom
	OccurredUntil(occurredAtUntil time.Time) CompletedFilterItemBuilderWithOccurredUntil
	WithSequenceNumberHigherThan(sequenceNumber MaxSequenceNumberUint) CompletedFilterItemBuilderWithSequence
}

type EmptyFilterItemBuilder interface {
	// AnyEventTypeOf adds one or multiple EventTypes to the current FilterItem.
	//
	// It sanitizes the input:
	//	- removing empty EventTypes ("")
	//	- sorting the EventTypes
	//	- removing duplicate EventTypes
	AnyEventTypeOf(eventType FilterEventTypeString, eventTypes ...FilterEventTypeString) FilterItemBuilderLackingPredicates

	// AnyPredicateOf adds one or multiple FilterPredicate(s) to the current FilterItem.
	//
	// It sanitizes the input:
	//	- removing empty/partial FilterPredicate(s) (key or val is "")
	//	- sorting the FilterPredicate(s)
	//	- removing duplicate FilterPredicate(s)
	AnyPredicateOf(predicate FilterPredicate, predicates ...FilterPredicate) FilterItemBuilderLackingEventTypes

	AllPredicatesOf(predicate FilterPredicate, predicates ...FilterPredicate) FilterItemBuilderLackingEventTypes
}

type FilterItemBuilderLackingPredicates interface {
	AndAnyPredicateOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder
	AndAllPredicatesOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder

	// OrMatching finalizes the current FilterItem and starts a new one.
	OrMatching() EmptyFilterItemBuilder

	OccurredFrom(occurredAtFrom time.Time) CompletedFilterItemBuilderWithOccurredFrom
	OccurredUntil(occurredAtUntil time.Time) CompletedFilterItemBuilderWithOccurredUntil
	WithSequenceNumberHigherThan(sequenceNumber MaxSequenceNumberUint) CompletedFilterItemBuilderWithSequence

	// Finalize returns the Filter once it has at least one FilterItem with at least one EventType OR one Predicate.
	Finalize() Filter
}

type FilterItemBuilderLackingEventTypes interface {
	AndAnyEventTypeOf(eventType FilterEventTypeString, eventTypes ...FilterEventTypeString) CompletedFilterItemBuilder

	// OrMatching finalizes the current FilterItem and starts a new one.
	OrMatching() EmptyFilterItemBuilder

	OccurredFrom(occurredAtFrom time.Time) CompletedFilterItemBuilderWithOccurredFrom
	OccurredUntil(occurredAtUntil time.Time) CompletedFilterItemBuilderWithOccurredUntil
	WithSequenceNumberHigherThan(sequenceNumber MaxSequenceNumberUint) CompletedFilterItemBuilderWithSequence

	Finalize() Filter
}

type CompletedFilterItemBuilder interface {
	OrMatching() EmptyFilterItemBuilder

	OccurredFrom(occurredAtFrom time.Time) CompletedFilterItemBuilderWithOccurredFrom
	OccurredUntil(occurredAtUntil time.Time) CompletedFilterItemBuilderWithOccurredUntil
	WithSequenceNumberHigherThan(sequenceNumber MaxSequenceNumberUint) CompletedFilterItemBuilderWithSequence

	Finalize() Filter
}

type CompletedFilterItemBuilderWithOccurredFrom interface {
	AndOccurredUntil(occurredAtUntil time.Time) CompletedFilterItemBuilderWithOccurredUntil
	Finalize() Filter
}

type CompletedFilterItemBuilderWithOccurredUntil interface {
	Finalize() Filter
}

type CompletedFilterItemBuilderWithSequence interface {
	Finalize() Filter
}

// filterBuilder implements all the interfaces of FilterBuilder
type filterBuilder struct {
	filter            Filter
	currentFilterItem FilterItem
	reopened          bool
}

// BuildEventFilter creates a FilterBuilder which must eventually be finalized with Finalize() or MatchingAnyEvent().
func BuildEventFilter() FilterBuilder {
	return filterBuilder{}
}

// Matching starts a new FilterItem.
func (fb filterBuilder) Matching() EmptyFilterItemBuilder {
	fb.currentFilterItem = FilterItem{}

	return fb
}

// AnyEventTypeOf adds one or multiple EventTypes to the current FilterItem expecting ANY EventType to match.
func (fb filterBuilder) AnyEventTypeOf(
	eventType FilterEventTypeString,
	eventTypes ...FilterEventTypeString,
) FilterItemBuilderLackingPredicates {

	fb.currentFilterItem.eventTypes = fb.sanitizeEventTypes(
		append(slices.Clone(fb.currentFilterItem.eventTypes), append([]FilterEventTypeString{eventType}, eventTypes...)...),
	)

	return fb
}

// AndAnyEventTypeOf adds one or multiple EventTypes to the current FilterItem expecting ANY EventType to match.
func (fb filterBuilder) AndAnyEventTypeOf(
	eventType FilterEventTypeString,
	eventTypes ...FilterEventTypeString,
) CompletedFilterItemBuilder {

	return fb.AnyEventTypeOf(eventType, eventTypes...)
}

func (fb filterBuilder) sanitizeEventTypes(allEventTypes []FilterEventTypeString) []FilterEventTypeString {
	allEventTypes = slices.DeleteFunc(
		allEventTypes,
		func(e FilterEventTypeString) bool {
			return e == ""
		})
	slices.Sort(allEventTypes)
	allEventTypes = slices.Compact(allEventTypes)
	allEventTypes = slices.Clip(allEventTypes)

	return allEventTypes
}

// AnyPredicateOf adds one or multiple FilterPredicate(s) to the current FilterItem expecting ANY predicate to match.
func (fb filterBuilder) AnyPredicateOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) FilterItemBuilderLackingEventTypes {

	fb.currentFilterItem.predicates = fb.sanitizePredicates(
		append(slices.Clone(fb.currentFilterItem.predicates), append([]FilterPredicate{predicate}, predicates...)...),
	)

	return fb
}

// AndAnyPredicateOf adds one or multiple FilterPredicate(s) to the current FilterItem expecting ANY predicate to match.
func (fb filterBuilder) AndAnyPredicateOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) CompletedFilterItemBuilder {

	return fb.AnyPredicateOf(predicate, predicates...)
}

// AllPredicatesOf adds one or multiple FilterPredicate(s) to the current FilterItem expecting ALL predicates to match.
func (fb filterBuilder) AllPredicatesOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) FilterItemBuilderLackingEventTypes {

	fb.currentFilterItem.allPredicatesMustMatch = true

	return fb.AnyPredicateOf(predicate, predicates...)
}

// AndAllPredicatesOf adds one or multiple FilterPredicate(s) to the current FilterItem expecting ALL predicates to match.
func (fb filterBuilder) AndAllPredicatesOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) CompletedFilterItemBuilder {

	return fb.AllPredicatesOf(predicate, predicates...)
}

func (fb filterBuilder) sanitizePredicates(allPredicates []FilterPredicate) []FilterPredicate {
	allPredicates = slices.DeleteFunc(allPredicates, func(e FilterPredicate) bool { return len(e.key) == 0 || len(e.val) == 0 })
	slices.SortFunc(
		allPredicates,
		func(a, b FilterPredicate) int {
			if c := strings.Compare(a.key, b.key); c != 0 {
				return c
			}

			return strings.Compare(a.val, b.val)
		})

	allPredicates = slices.Compact(allPredicates)
	allPredicates = slices.Clip(allPredicates)

	return allPredicates
}

// OrMatching finalizes the current FilterItem and starts a new one.
func (fb filterBuilder) OrMatching() EmptyFilterItemBuilder {
	fb.filter.items = append(slices.Clone(fb.filter.items), fb.currentFilterItem)
	fb.currentFilterItem = FilterItem{}

	return fb
}

// OccurredFrom restricts the Filter to events that occurred at or after occurredAtFrom.
func (fb filterBuilder) OccurredFrom(occurredAtFrom time.Time) CompletedFilterItemBuilderWithOccurredFrom {
	fb.filter.occurredFrom = occurredAtFrom

	return fb
}

// AndOccurredUntil additionally restricts the Filter to events that occurred at or before occurredAtUntil.
func (fb filterBuilder) AndOccurredUntil(occurredAtUntil time.Time) CompletedFilterItemBuilderWithOccurredUntil {
	return fb.OccurredUntil(occurredAtUntil)
}

// OccurredUntil restricts the Filter to events that occurred at or before occurredAtUntil.
func (fb filterBuilder) OccurredUntil(occurredAtUntil time.Time) CompletedFilterItemBuilderWithOccurredUntil {
	fb.filter.occurredUntil = occurredAtUntil

	return fb
}

// WithSequenceNumberHigherThan restricts the Filter to events with a sequence number higher than sequenceNumber.
func (fb filterBuilder) WithSequenceNumberHigherThan(sequenceNumber MaxSequenceNumberUint) CompletedFilterItemBuilderWithSequence {
	fb.filter.sequenceNumberHigherThan = sequenceNumber

	return fb
}

// MatchingAnyEvent directly creates an empty filter.
func (fb filterBuilder) MatchingAnyEvent() Filter {
	return fb.filter
}

// Finalize returns the Filter.
func (fb filterBuilder) Finalize() Filter {
	if fb.reopened {
		return fb.filter
	}

	fb.filter.items = append(slices.Clone(fb.filter.items), fb.currentFilterItem)

	return fb.filter
}
