package registermember

import (
	"fmt"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/library/core"
)

type state struct {
	registered *core.MemberRegistered
}

// Decide determines whether the member should be registered.
//
//	GIVEN: a username which is not in use
//	WHEN: RegisterMember is received
//	THEN: MemberRegistered
//	ERROR: "username is already taken" if an active member with a different profile has the username
//	IDEMPOTENCY: an active member with the same username and profile exists, no event
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	s := project(history)

	if s.registered != nil {
		if sameProfile(*s.registered, command) {
			return core.IdempotentDecision()
		}

		event := core.BuildRegisteringMemberFailed(command.MemberID, core.ErrUsernameTaken.Error(), command.OccurredAt)

		return core.ErrorDecision(event, fmt.Errorf("%s: %w", event.EventType(), core.ErrUsernameTaken))
	}

	return core.SuccessDecision(
		core.BuildMemberRegistered(
			command.MemberID,
			command.PasswordHash,
			command.FullName,
			command.Contact,
			command.Email,
			command.Role,
			command.MembershipID,
			command.OccurredAt,
		),
	)
}

// sameProfile ignores password and membership id, the hash differs on every registration.
func sameProfile(registered core.MemberRegistered, command Command) bool {
	return registered.FullName == command.FullName &&
		registered.Contact == command.Contact &&
		registered.Email == command.Email &&
		registered.Role == command.Role
}

func project(history core.DomainEvents) state {
	s := state{}

	for _, event := range history {
		switch e := event.(type) {
		case core.MemberRegistered:
			s.registered = &e
		case core.MemberDeleted:
			s.registered = nil
		}
	}

	return s
}

// BuildEventFilter selects the registration events of the member.
func BuildEventFilter(memberID core.MemberIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.MemberRegisteredEventType,
			core.MemberDeletedEventType,
		).
		AndAnyPredicateOf(eventstore.P("MemberID", memberID)).
		Finalize()
}
