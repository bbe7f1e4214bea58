package removebook

import (
	"fmt"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/library/core"
)

type state struct {
	bookWasEverAdded bool
	bookIsInCatalog  bool
	loanStatuses     map[core.RecordIDString]core.LoanStatus
}

func (s state) bookIsLent() bool {
	for _, status := range s.loanStatuses {
		if core.IsLent(status) {
			return true
		}
	}

	return false
}

// Decide determines whether the book should be removed from the catalog.
//
//	GIVEN: a book in the catalog which is not lent
//	WHEN: RemoveBook is received
//	THEN: BookRemovedFromCatalog
//	ERROR: "book was never added to the catalog"
//	ERROR: "book is currently lent" while a record of the book is APPROVED or RETURN_PENDING
//	IDEMPOTENCY: the book was already removed, no event
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	s := project(history)

	if !s.bookWasEverAdded {
		return failure(command, core.ErrBookNeverAdded)
	}

	if !s.bookIsInCatalog {
		return core.IdempotentDecision()
	}

	if s.bookIsLent() {
		return failure(command, core.ErrBookIsLent)
	}

	return core.SuccessDecision(
		core.BuildBookRemovedFromCatalog(command.BookID, command.RemovedBy, command.OccurredAt),
	)
}

func failure(command Command, reason *core.BusinessError) core.DecisionResult {
	event := core.BuildRemovingBookFailed(command.BookID, reason.Error(), command.OccurredAt)
	return core.ErrorDecision(event, fmt.Errorf("%s: %w", event.EventType(), reason))
}

func project(history core.DomainEvents) state {
	s := state{loanStatuses: make(map[core.RecordIDString]core.LoanStatus)}

	for _, event := range history {
		switch event.(type) {
		case core.BookAddedToCatalog:
			s.bookWasEverAdded = true
			s.bookIsInCatalog = true
		case core.BookRemovedFromCatalog:
			s.bookIsInCatalog = false
		default:
			if recordID, status, ok := core.LoanStatusAfter(event); ok {
				s.loanStatuses[recordID] = status
			}
		}
	}

	return s
}

// BuildEventFilter selects the catalog and loan events of the book.
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
