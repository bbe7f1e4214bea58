package requestreturn

import (
	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/command/internal/borrowrecord"
)

// Decide determines the RequestReturn transition of a borrow record from the history of its book.
//
//	GIVEN: an APPROVED record of the requesting member
//	WHEN: RequestReturn is received
//	THEN: ReturnRequested
//	ERROR: "borrow record not found"
//	ERROR: "only the borrowing member can request the return"
//	ERROR: "book is not currently borrowed"
//	IDEMPOTENCY: the record is RETURN_PENDING, no event
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	s := borrowrecord.Project(history, command.RecordID)

	switch {
	case !s.Found:
		return borrowrecord.Failure(command.RecordID, commandType, core.ErrRecordNotFound, command.OccurredAt)
	case s.MemberID != command.RequestedBy:
		return borrowrecord.Failure(command.RecordID, commandType, core.ErrNotBorrower, command.OccurredAt)
	case s.Status == core.LoanStatusReturnPending:
		return core.IdempotentDecision()
	case s.Status != core.LoanStatusApproved:
		return borrowrecord.Failure(command.RecordID, commandType, core.ErrNotBorrowed, command.OccurredAt)
	}

	return core.SuccessDecision(
		core.BuildReturnRequested(s.RecordID, s.BookID, s.MemberID, command.OccurredAt),
	)
}
