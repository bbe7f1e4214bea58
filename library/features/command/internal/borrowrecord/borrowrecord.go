// Package borrowrecord holds what the borrow record transitions share: resolving a record to its
// book, projecting record and book state, and running a transition in one consistency boundary.
package borrowrecord

import (
	"context"
	"fmt"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/shell"
)

// State is a borrow record together with the state of its book.
type State struct {
	Found         bool
	RecordID      core.RecordIDString
	BookID        core.BookIDString
	MemberID      core.MemberIDString
	Status        core.LoanStatus
	LastEventType core.EventTypeString

	BookIsInCatalog         bool
	BookIsLentByOtherRecord bool
}

// Project replays the history of a record's book. An empty history yields a State which is not Found.
func Project(history core.DomainEvents, recordID core.RecordIDString) State {
	s := State{RecordID: recordID}
	otherRecords := make(map[core.RecordIDString]core.LoanStatus)

	for _, event := range history {
		switch e := event.(type) {
		case core.BookAddedToCatalog:
			s.BookIsInCatalog = true
		case core.BookRemovedFromCatalog:
			s.BookIsInCatalog = false
		case core.BorrowRequested:
			if e.RecordID == recordID {
				s.Found = true
				s.BookID = e.BookID
				s.MemberID = e.MemberID
			}
		}

		eventRecordID, status, ok := core.LoanStatusAfter(event)
		if !ok {
			continue
		}

		if eventRecordID != recordID {
			otherRecords[eventRecordID] = status
			continue
		}

		s.Status = status
		s.LastEventType = event.EventType()
	}

	for _, status := range otherRecords {
		if core.IsLent(status) {
			s.BookIsLentByOtherRecord = true
		}
	}

	return s
}

// Failure builds the error decision of a transition which is not allowed.
func Failure(recordID core.RecordIDString, transition string, reason *core.BusinessError, occurredAt core.OccurredAtTS) core.DecisionResult {
	event := core.BuildBorrowRecordTransitionFailed(recordID, transition, reason.Error(), occurredAt)
	return core.ErrorDecision(event, fmt.Errorf("%s: %w", event.EventType(), reason))
}

// BuildResolveFilter selects the BorrowRequested event which names the record's book and member.
func BuildResolveFilter(recordID core.RecordIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.BorrowRequestedEventType).
		AndAnyPredicateOf(eventstore.P("RecordID", recordID)).
		Finalize()
}

// BuildEventFilter selects the catalog events and all loan events of a book, the record's events included.
func BuildEventFilter(bookID core.BookIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.BookAddedToCatalogEventType,
			core.BookRemovedFromCatalogEventType,
			core.BorrowRequestedEventType,
			core.BorrowApprovedEventType,
			core.BorrowRejectedEventType,
			core.ReturnRequestedEventType,
			core.ReturnApprovedEventType,
			core.ReturnRejectedEventType,
			core.BookReturnedEventType,
		).
		AndAnyPredicateOf(eventstore.P("BookID", bookID)).
		Finalize()
}

// DecideFunc is the Decide function of a transition bound to its command.
type DecideFunc func(history core.DomainEvents) core.DecisionResult

// Execute runs one attempt of a transition:
//
//	resolve:  query the record's BorrowRequested to learn its book
//	query:    query the book's events (record included)
//	decide:   decide on that history
//	append:   append guarded by the book filter, so availability and transition are checked together
//
// An unknown record is decided on an empty history, the failure event is guarded by the resolve filter.
func Execute(
	ctx context.Context,
	eventStore shell.QueriesAndAppendsEvents,
	recordID core.RecordIDString,
	decide DecideFunc,
) (bool, error) {

	resolveFilter := BuildResolveFilter(recordID)

	requested, maxSequenceNumber, err := shell.QueryHistory(ctx, eventStore, resolveFilter)
	if err != nil {
		return false, err
	}

	if len(requested) == 0 {
		return shell.AppendDecision(ctx, eventStore, resolveFilter, maxSequenceNumber, decide(core.DomainEvents{}))
	}

	bookID := Project(requested, recordID).BookID
	filter := BuildEventFilter(bookID)

	history, maxSequenceNumber, err := shell.QueryHistory(ctx, eventStore, filter)
	if err != nil {
		return false, err
	}

	return shell.AppendDecision(ctx, eventStore, filter, maxSequenceNumber, decide(history))
}
