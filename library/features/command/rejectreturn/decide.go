package rejectreturn

import (
	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/command/internal/borrowrecord"
)

// Decide determines the RejectReturn transition of a borrow record from the history of its book.
//
//	GIVEN: a RETURN_PENDING record
//	WHEN: RejectReturn is received
//	THEN: ReturnRejected
//	ERROR: "borrow record not found"
//	ERROR: "no return was requested"
//	IDEMPOTENCY: the record is APPROVED because its return was rejected, no event
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	s := borrowrecord.Project(history, command.RecordID)

	switch {
	case !s.Found:
		return borrowrecord.Failure(command.RecordID, commandType, core.ErrRecordNotFound, command.OccurredAt)
	case s.Status == core.LoanStatusApproved && s.LastEventType == core.ReturnRejectedEventType:
		return core.IdempotentDecision()
	case s.Status != core.LoanStatusReturnPending:
		return borrowrecord.Failure(command.RecordID, commandType, core.ErrNoReturnRequested, command.OccurredAt)
	}

	return core.SuccessDecision(
		core.BuildReturnRejected(s.RecordID, s.BookID, s.MemberID, command.RejectedBy, command.OccurredAt),
	)
}
