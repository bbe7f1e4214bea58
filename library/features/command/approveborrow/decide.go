package approveborrow

import (
	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/command/internal/borrowrecord"
)

// Decide determines the ApproveBorrow transition of a borrow record from the history of its book.
//
//	GIVEN: a PENDING record whose book is in the catalog and not lent
//	WHEN: ApproveBorrow is received
//	THEN: BorrowApproved with due date = approval + 14 days
//	ERROR: "borrow record not found"
//	ERROR: "borrow request is not pending"
//	ERROR: "book was removed from the catalog"
//	ERROR: "book is not available" while another record of the book is lent
//	IDEMPOTENCY: the record is APPROVED, no event
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	s := borrowrecord.Project(history, command.RecordID)

	switch {
	case !s.Found:
		return borrowrecord.Failure(command.RecordID, commandType, core.ErrRecordNotFound, command.OccurredAt)
	case s.Status == core.LoanStatusApproved:
		return core.IdempotentDecision()
	case s.Status != core.LoanStatusPending:
		return borrowrecord.Failure(command.RecordID, commandType, core.ErrNotPending, command.OccurredAt)
	case !s.BookIsInCatalog:
		return borrowrecord.Failure(command.RecordID, commandType, core.ErrBookRemoved, command.OccurredAt)
	case s.BookIsLentByOtherRecord:
		return borrowrecord.Failure(command.RecordID, commandType, core.ErrBookNotAvailable, command.OccurredAt)
	}

	return core.SuccessDecision(
		core.BuildBorrowApproved(s.RecordID, s.BookID, s.MemberID, command.ApprovedBy, command.OccurredAt),
	)
}
