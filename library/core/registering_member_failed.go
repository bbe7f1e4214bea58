package core

import (
	"time"
)

// RegisteringMemberFailedEventType is the event type identifier.
const RegisteringMemberFailedEventType = "RegisteringMemberFailed"

// RegisteringMemberFailed records that registering a member violated a business rule.
type RegisteringMemberFailed struct {
	MemberID    MemberIDString
	FailureInfo string
	OccurredAt  OccurredAtTS
}

// BuildRegisteringMemberFailed creates a new RegisteringMemberFailed event.
func BuildRegisteringMemberFailed(memberID MemberIDString, failureInfo string, occurredAt time.Time) RegisteringMemberFailed {
	return RegisteringMemberFailed{
		MemberID:    memberID,
		FailureInfo: failureInfo,
		OccurredAt:  ToOccurredAt(occurredAt),
	}
}

func (e RegisteringMemberFailed) EventType() string {
	return RegisteringMemberFailedEventType
}

func (e RegisteringMemberFailed) HasOccurredAt() time.Time {
	return e.OccurredAt
}

func (e RegisteringMemberFailed) IsErrorEvent() bool {
	return true
}
