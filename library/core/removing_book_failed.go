package core

import (
	"time"
)

// RemovingBookFailedEventType is the event type identifier.
const RemovingBookFailedEventType = "RemovingBookFailed"

// RemovingBookFailed records that removing a book from the catalog violated a business rule.
type RemovingBookFailed struct {
	BookID      BookIDString
	FailureInfo string
	OccurredAt  OccurredAtTS
}

// BuildRemovingBookFailed creates a new RemovingBookFailed event.
func BuildRemovingBookFailed(bookID BookIDString, failureInfo string, occurredAt time.Time) RemovingBookFailed {
	return RemovingBookFailed{
		BookID:      bookID,
		FailureInfo: failureInfo,
		OccurredAt:  ToOccurredAt(occurredAt),
	}
}

func (e RemovingBookFailed) EventType() string {
	return RemovingBookFailedEventType
}

func (e RemovingBookFailed) HasOccurredAt() time.Time {
	return e.OccurredAt
}

func (e RemovingBookFailed) IsErrorEvent() bool {
	return true
}
