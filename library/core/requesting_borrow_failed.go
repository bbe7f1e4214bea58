package core

import (
	"time"
)

// RequestingBorrowFailedEventType is the event type identifier.
const RequestingBorrowFailedEventType = "RequestingBorrowFailed"

// RequestingBorrowFailed records that a borrow request violated a business rule.
type RequestingBorrowFailed struct {
	RecordID    RecordIDString
	BookID      BookIDString
	MemberID    MemberIDString
	FailureInfo string
	OccurredAt  OccurredAtTS
}

// BuildRequestingBorrowFailed creates a new RequestingBorrowFailed event.
func BuildRequestingBorrowFailed(
	recordID RecordIDString,
	bookID BookIDString,
	memberID MemberIDString,
	failureInfo string,
	occurredAt time.Time,
) RequestingBorrowFailed {

	return RequestingBorrowFailed{
		RecordID:    recordID,
		BookID:      bookID,
		MemberID:    memberID,
		FailureInfo: failureInfo,
		OccurredAt:  ToOccurredAt(occurredAt),
	}
}

func (e RequestingBorrowFailed) EventType() string {
	return RequestingBorrowFailedEventType
}

func (e RequestingBorrowFailed) HasOccurredAt() time.Time {
	return e.OccurredAt
}

func (e RequestingBorrowFailed) IsErrorEvent() bool {
	return true
}
