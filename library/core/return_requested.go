package core

import (
	"time"
)

// ReturnRequestedEventType is the event type identifier.
const ReturnRequestedEventType = "ReturnRequested"

// ReturnRequested records that the borrowing member announced the return of a book.
type ReturnRequested struct {
	RecordID   RecordIDString
	BookID     BookIDString
	MemberID   MemberIDString
	OccurredAt OccurredAtTS
}

// BuildReturnRequested creates a new ReturnRequested event.
func BuildReturnRequested(
	recordID RecordIDString,
	bookID BookIDString,
	memberID MemberIDString,
	occurredAt time.Time,
) ReturnRequested {

	return ReturnRequested{
		RecordID:   recordID,
		BookID:     bookID,
		MemberID:   memberID,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e ReturnRequested) EventType() string {
	return ReturnRequestedEventType
}

func (e ReturnRequested) HasOccurredAt() time.Time {
	return e.OccurredAt
}

func (e ReturnRequested) IsErrorEvent() bool {
	return false
}
