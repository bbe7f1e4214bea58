package returnbook

import (
	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/command/internal/borrowrecord"
)

// Decide determines the ReturnBook transition of a borrow record from the history of its book.
//
//	GIVEN: an APPROVED or RETURN_PENDING record
//	WHEN: ReturnBook is received
//	THEN: BookReturned
//	ERROR: "borrow record not found"
//	ERROR: "book is not currently borrowed"
//	IDEMPOTENCY: the record is RETURNED, no event
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	s := borrowrecord.Project(history, command.RecordID)

	switch {
	case !s.Found:
		return borrowrecord.Failure(command.RecordID, commandType, core.ErrRecordNotFound, command.OccurredAt)
	case s.Status == core.LoanStatusReturned:
		return core.IdempotentDecision()
	case !core.IsLent(s.Status):
		return borrowrecord.Failure(command.RecordID, commandType, core.ErrNotBorrowed, command.OccurredAt)
	}

	return core.SuccessDecision(
		core.BuildBookReturned(s.RecordID, s.BookID, s.MemberID, command.ReceivedBy, command.OccurredAt),
	)
}
