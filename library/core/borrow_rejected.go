package core

import (
	"time"
)

// BorrowRejectedEventType is the event type identifier.
const BorrowRejectedEventType = "BorrowRejected"

// BorrowRejected records that a librarian declined a borrow request.
type BorrowRejected struct {
	RecordID   RecordIDString
	BookID     BookIDString
	MemberID   MemberIDString
	RejectedBy MemberIDString
	OccurredAt OccurredAtTS
}

// BuildBorrowRejected creates a new BorrowRejected event.
func BuildBorrowRejected(
	recordID RecordIDString,
	bookID BookIDString,
	memberID MemberIDString,
	rejectedBy MemberIDString,
	occurredAt time.Time,
) BorrowRejected {

	return BorrowRejected{
		RecordID:   recordID,
		BookID:     bookID,
		MemberID:   memberID,
		RejectedBy: rejectedBy,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e BorrowRejected) EventType() string {
	return BorrowRejectedEventType
}

func (e BorrowRejected) HasOccurredAt() time.Time {
	return e.OccurredAt
}

func (e BorrowRejected) IsErrorEvent() bool {
	return false
}
