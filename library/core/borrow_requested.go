package core

import (
	"time"
)

// BorrowRequestedEventType is the event type identifier.
const BorrowRequestedEventType = "BorrowRequested"

// BorrowRequested records that a member asked to borrow a book. It opens the borrow record.
type BorrowRequested struct {
	RecordID   RecordIDString
	BookID     BookIDString
	MemberID   MemberIDString
	OccurredAt OccurredAtTS
}

// BuildBorrowRequested creates a new BorrowRequested event.
func BuildBorrowRequested(
	recordID RecordIDString,
	bookID BookIDString,
	memberID MemberIDString,
	occurredAt time.Time,
) BorrowRequested {

	return BorrowRequested{
		RecordID:   recordID,
		BookID:     bookID,
		MemberID:   memberID,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e BorrowRequested) EventType() string {
	return BorrowRequestedEventType
}

func (e BorrowRequested) HasOccurredAt() time.Time {
	return e.OccurredAt
}

func (e BorrowRequested) IsErrorEvent() bool {
	return false
}
