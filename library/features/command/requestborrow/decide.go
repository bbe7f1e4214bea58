package requestborrow

import (
	"fmt"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/library/core"
)

type record struct {
	bookID   core.BookIDString
	memberID core.MemberIDString
	status   core.LoanStatus
}

type state struct {
	recordExists             bool
	memberIsRegistered       bool
	bookIsInCatalog          bool
	bookIsLent               bool
	memberHasOpenRequestHere bool
	memberOpenLoans          int
}

// Decide determines whether a borrow request should be created.
//
//	GIVEN: a registered member and an available book in the catalog
//	WHEN: RequestBorrow is received
//	THEN: BorrowRequested
//	ERROR: "member is not registered"
//	ERROR: "book is not in the catalog"
//	ERROR: "book is not available" while the book is lent
//	ERROR: "member already has an open request for this book"
//	ERROR: "member has reached the maximum of open loans"
//	IDEMPOTENCY: a record with this id exists, no event
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	s := project(history, command)

	switch {
	case s.recordExists:
		return core.IdempotentDecision()
	case !s.memberIsRegistered:
		return failure(command, core.ErrMemberNotRegistered)
	case !s.bookIsInCatalog:
		return failure(command, core.ErrBookNotInCatalog)
	case s.bookIsLent:
		return failure(command, core.ErrBookNotAvailable)
	case s.memberHasOpenRequestHere:
		return failure(command, core.ErrOpenRequestExists)
	case s.memberOpenLoans >= core.MaxOpenLoans:
		return failure(command, core.ErrMaxOpenLoansReached)
	}

	return core.SuccessDecision(
		core.BuildBorrowRequested(command.RecordID, command.BookID, command.MemberID, command.OccurredAt),
	)
}

func failure(command Command, reason *core.BusinessError) core.DecisionResult {
	event := core.BuildRequestingBorrowFailed(command.RecordID, command.BookID, command.MemberID, reason.Error(), command.OccurredAt)
	return core.ErrorDecision(event, fmt.Errorf("%s: %w", event.EventType(), reason))
}

func project(history core.DomainEvents, command Command) state { //nolint:gocognit
	s := state{}
	records := make(map[core.RecordIDString]*record)

	for _, event := range history {
		switch e := event.(type) {
		case core.MemberRegistered:
			s.memberIsRegistered = true
		case core.MemberDeleted:
			s.memberIsRegistered = false
		case core.BookAddedToCatalog:
			s.bookIsInCatalog = true
		case core.BookRemovedFromCatalog:
			s.bookIsInCatalog = false
		case core.BorrowRequested:
			records[e.RecordID] = &record{bookID: e.BookID, memberID: e.MemberID, status: core.LoanStatusPending}
		default:
			if recordID, status, ok := core.LoanStatusAfter(event); ok && records[recordID] != nil {
				records[recordID].status = status
			}
		}
	}

	for recordID, r := range records {
		if recordID == command.RecordID {
			s.recordExists = true
		}

		if r.bookID == command.BookID && core.IsLent(r.status) {
			s.bookIsLent = true
		}

		if r.memberID == command.MemberID && core.IsOpenLoan(r.status) {
			s.memberOpenLoans++

			if r.bookID == command.BookID {
				s.memberHasOpenRequestHere = true
			}
		}
	}

	return s
}

// BuildEventFilter selects the member's registration events, the book's catalog events and
// every loan event of the book, the member or the record.
func BuildEventFilter(recordID core.RecordIDString, bookID core.BookIDString, memberID core.MemberIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.MemberRegisteredEventType,
			core.MemberDeletedEventType,
		).
		AndAnyPredicateOf(eventstore.P("MemberID", memberID)).
		OrMatching().
		AnyEventTypeOf(
			core.BookAddedToCatalogEventType,
			core.BookRemovedFromCatalogEventType,
		).
		AndAnyPredicateOf(eventstore.P("BookID", bookID)).
		OrMatching().
		AnyEventTypeOf(
			core.BorrowRequestedEventType,
			core.BorrowApprovedEventType,
			core.BorrowRejectedEventType,
			core.ReturnRequestedEventType,
			core.ReturnApprovedEventType,
			core.ReturnRejectedEventType,
			core.BookReturnedEventType,
		).
		AndAnyPredicateOf(
			eventstore.P("BookID", bookID),
			eventstore.P("MemberID", memberID),
			eventstore.P("RecordID", recordID),
		).
		Finalize()
}
