package core

import (
	"time"
)

// BorrowRecordTransitionFailedEventType is the event type identifier.
const BorrowRecordTransitionFailedEventType = "BorrowRecordTransitionFailed"

// BorrowRecordTransitionFailed records that a transition of a borrow record (approve, reject, return, ...) violated a business rule.
type BorrowRecordTransitionFailed struct {
	RecordID    RecordIDString
	Transition  string
	FailureInfo string
	OccurredAt  OccurredAtTS
}

// BuildBorrowRecordTransitionFailed creates a new BorrowRecordTransitionFailed event.
func BuildBorrowRecordTransitionFailed(
	recordID RecordIDString,
	transition string,
	failureInfo string,
	occurredAt time.Time,
) BorrowRecordTransitionFailed {

	return BorrowRecordTransitionFailed{
		RecordID:    recordID,
		Transition:  transition,
		FailureInfo: failureInfo,
		OccurredAt:  ToOccurredAt(occurredAt),
	}
}

func (e BorrowRecordTransitionFailed) EventType() string {
	return BorrowRecordTransitionFailedEventType
}

func (e BorrowRecordTransitionFailed) HasOccurredAt() time.Time {
	return e.OccurredAt
}

func (e BorrowRecordTransitionFailed) IsErrorEvent() bool {
	return true
}
