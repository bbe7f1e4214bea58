package core

import (
	"time"
)

// ReturnApprovedEventType is the event type identifier.
const ReturnApprovedEventType = "ReturnApproved"

// ReturnApproved records that a librarian confirmed a requested return, the book is available again.
type ReturnApproved struct {
	RecordID   RecordIDString
	BookID     BookIDString
	MemberID   MemberIDString
	ApprovedBy MemberIDString
	OccurredAt OccurredAtTS
}

// BuildReturnApproved creates a new ReturnApproved event.
func BuildReturnApproved(
	recordID RecordIDString,
	bookID BookIDString,
	memberID MemberIDString,
	approvedBy MemberIDString,
	occurredAt time.Time,
) ReturnApproved {

	return ReturnApproved{
		RecordID:   recordID,
		BookID:     bookID,
		MemberID:   memberID,
		ApprovedBy: approvedBy,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e ReturnApproved) EventType() string {
	return ReturnApprovedEventType
}

func (e ReturnApproved) HasOccurredAt() time.Time {
	return e.OccurredAt
}

func (e ReturnApproved) IsErrorEvent() bool {
	return false
}
