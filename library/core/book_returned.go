package core

import (
	"time"
)

// BookReturnedEventType is the event type identifier.
const BookReturnedEventType = "BookReturned"

// BookReturned records that a librarian took a lent book back without a return request.
type BookReturned struct {
	RecordID   RecordIDString
	BookID     BookIDString
	MemberID   MemberIDString
	ReceivedBy MemberIDString
	OccurredAt OccurredAtTS
}

// BuildBookReturned creates a new BookReturned event.
func BuildBookReturned(
	recordID RecordIDString,
	bookID BookIDString,
	memberID MemberIDString,
	receivedBy MemberIDString,
	occurredAt time.Time,
) BookReturned {

	return BookReturned{
		RecordID:   recordID,
		BookID:     bookID,
		MemberID:   memberID,
		ReceivedBy: receivedBy,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e BookReturned) EventType() string {
	return BookReturnedEventType
}

func (e BookReturned) HasOccurredAt() time.Time {
	return e.OccurredAt
}

func (e BookReturned) IsErrorEvent() bool {
	return false
}
