package rejectborrow

import (
	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/command/internal/borrowrecord"
)

// Decide determines the RejectBorrow transition of a borrow record from the history of its book.
//
//	GIVEN: a PENDING record
//	WHEN: RejectBorrow is received
//	THEN: BorrowRejected
//	ERROR: "borrow record not found"
//	ERROR: "borrow request is not pending"
//	IDEMPOTENCY: the record is REJECTED, no event
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	s := borrowrecord.Project(history, command.RecordID)

	switch {
	case !s.Found:
		return borrowrecord.Failure(command.RecordID, commandType, core.ErrRecordNotFound, command.OccurredAt)
	case s.Status == core.LoanStatusRejected:
		return core.IdempotentDecision()
	case s.Status != core.LoanStatusPending:
		return borrowrecord.Failure(command.RecordID, commandType, core.ErrNotPending, command.OccurredAt)
	}

	return core.SuccessDecision(
		core.BuildBorrowRejected(s.RecordID, s.BookID, s.MemberID, command.RejectedBy, command.OccurredAt),
	)
}
