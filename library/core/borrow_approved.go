package core

import (
	"time"
)

// BorrowApprovedEventType is the event type identifier.
const BorrowApprovedEventType = "BorrowApproved"

// BorrowApproved records that a librarian handed the book out.
type BorrowApproved struct {
	RecordID   RecordIDString
	BookID     BookIDString
	MemberID   MemberIDString
	ApprovedBy MemberIDString
	DueDate    time.Time
	OccurredAt OccurredAtTS
}

// BuildBorrowApproved creates a new BorrowApproved event.
func BuildBorrowApproved(
	recordID RecordIDString,
	bookID BookIDString,
	memberID MemberIDString,
	approvedBy MemberIDString,
	occurredAt time.Time,
) BorrowApproved {

	return BorrowApproved{
		RecordID:   recordID,
		BookID:     bookID,
		MemberID:   memberID,
		ApprovedBy: approvedBy,
		DueDate:    ToOccurredAt(occurredAt.Add(LoanPeriod)),
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e BorrowApproved) EventType() string {
	return BorrowApprovedEventType
}

func (e BorrowApproved) HasOccurredAt() time.Time {
	return e.OccurredAt
}

func (e BorrowApproved) IsErrorEvent() bool {
	return false
}
