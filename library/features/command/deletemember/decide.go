package deletemember

import (
	"fmt"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/library/core"
)

type state struct {
	memberWasEverRegistered bool
	memberIsRegistered      bool
	openLoans               int
}

// Decide determines whether the member should be deleted.
//
//	GIVEN: a registered member without open loans
//	WHEN: DeleteMember is received from another member
//	THEN: MemberDeleted
//	ERROR: "members cannot delete their own account"
//	ERROR: "member was never registered"
//	ERROR: "member has open loans"
//	IDEMPOTENCY: the member was already deleted, no event
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	if command.MemberID == command.DeletedBy {
		return failure(command, core.ErrCannotDeleteOwnAccount)
	}

	s := project(history)

	if !s.memberWasEverRegistered {
		return failure(command, core.ErrMemberNeverRegistered)
	}

	if !s.memberIsRegistered {
		return core.IdempotentDecision()
	}

	if s.openLoans > 0 {
		return failure(command, core.ErrMemberHasOpenLoans)
	}

	return core.SuccessDecision(core.BuildMemberDeleted(command.MemberID, command.DeletedBy, command.OccurredAt))
}

func failure(command Command, reason *core.BusinessError) core.DecisionResult {
	event := core.BuildDeletingMemberFailed(command.MemberID, reason.Error(), command.OccurredAt)
	return core.ErrorDecision(event, fmt.Errorf("%s: %w", event.EventType(), reason))
}

func project(history core.DomainEvents) state {
	s := state{}
	loanStatuses := make(map[core.RecordIDString]core.LoanStatus)

	for _, event := range history {
		switch event.(type) {
		case core.MemberRegistered:
			s.memberWasEverRegistered = true
			s.memberIsRegistered = true
		case core.MemberDeleted:
			s.memberIsRegistered = false
		default:
			if recordID, status, ok := core.LoanStatusAfter(event); ok {
				loanStatuses[recordID] = status
			}
		}
	}

	for _, status := range loanStatuses {
		if core.IsOpenLoan(status) {
			s.openLoans++
		}
	}

	return s
}

// BuildEventFilter selects the registration and loan events of the member.
func BuildEventFilter(memberID core.MemberIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.MemberRegisteredEventType,
			core.MemberDeletedEventType,
			core.BorrowRequestedEventType,
			core.BorrowApprovedEventType,
			core.BorrowRejectedEventType,
			core.ReturnRequestedEventType,
			core.ReturnApprovedEventType,
			core.ReturnRejectedEventType,
			core.BookReturnedEventType,
		).
		AndAnyPredicateOf(eventstore.P("MemberID", memberID)).
		Finalize()
}
