package core

import (
	"time"
)

// DeletingMemberFailedEventType is the event type identifier.
const DeletingMemberFailedEventType = "DeletingMemberFailed"

// DeletingMemberFailed records that deleting a member violated a business rule.
type DeletingMemberFailed struct {
	MemberID    MemberIDString
	FailureInfo string
	OccurredAt  OccurredAtTS
}

// BuildDeletingMemberFailed creates a new DeletingMemberFailed event.
func BuildDeletingMemberFailed(memberID MemberIDString, failureInfo string, occurredAt time.Time) DeletingMemberFailed {
	return DeletingMemberFailed{
		MemberID:    memberID,
		FailureInfo: failureInfo,
		OccurredAt:  ToOccurredAt(occurredAt),
	}
}

func (e DeletingMemberFailed) EventType() string {
	return DeletingMemberFailedEventType
}

func (e DeletingMemberFailed) HasOccurredAt() time.Time {
	return e.OccurredAt
}

func (e DeletingMemberFailed) IsErrorEvent() bool {
	return true
}
