package core

import (
	"time"
)

// MemberDeletedEventType is the event type identifier.
const MemberDeletedEventType = "MemberDeleted"

// MemberDeleted records that a librarian deleted a member account.
type MemberDeleted struct {
	MemberID   MemberIDString
	DeletedBy  MemberIDString
	OccurredAt OccurredAtTS
}

// BuildMemberDeleted creates a new MemberDeleted event.
func BuildMemberDeleted(memberID MemberIDString, deletedBy MemberIDString, occurredAt time.Time) MemberDeleted {
	return MemberDeleted{
		MemberID:   memberID,
		DeletedBy:  deletedBy,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e MemberDeleted) EventType() string {
	return MemberDeletedEventType
}

func (e MemberDeleted) HasOccurredAt() time.Time {
	return e.OccurredAt
}

func (e MemberDeleted) IsErrorEvent() bool {
	return false
}
