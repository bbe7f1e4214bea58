package core

import (
	"time"
)

// ReturnRejectedEventType is the event type identifier.
const ReturnRejectedEventType = "ReturnRejected"

// ReturnRejected records that a librarian declined a requested return, the loan continues.
type ReturnRejected struct {
	RecordID   RecordIDString
	BookID     BookIDString
	MemberID   MemberIDString
	RejectedBy MemberIDString
	OccurredAt OccurredAtTS
}

// BuildReturnRejected creates a new ReturnRejected event.
func BuildReturnRejected(
	recordID RecordIDString,
	bookID BookIDString,
	memberID MemberIDString,
	rejectedBy MemberIDString,
	occurredAt time.Time,
) ReturnRejected {

	return ReturnRejected{
		RecordID:   recordID,
		BookID:     bookID,
		MemberID:   memberID,
		RejectedBy: rejectedBy,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e ReturnRejected) EventType() string {
	return ReturnRejectedEventType
}

func (e ReturnRejected) HasOccurredAt() time.Time {
	return e.OccurredAt
}

func (e ReturnRejected) IsErrorEvent() bool {
	return false
}
