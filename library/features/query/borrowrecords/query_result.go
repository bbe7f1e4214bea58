package borrowrecords

import (
	"slices"
	"time"

	"github.com/bookdesk/bookdesk/library/core"
)

// BorrowRecord is a borrow request and what became of it. Dates which did not happen yet are zero.
type BorrowRecord struct {
	RecordID          core.RecordIDString
	BookID            core.BookIDString
	MemberID          core.MemberIDString
	Status            core.LoanStatus
	RequestedAt       time.Time
	BorrowedAt        time.Time
	DueDate           time.Time
	ReturnRequestedAt time.Time
	ReturnedAt        time.Time
}

// IsOverdue reports whether the book is still out after its due date.
func (r BorrowRecord) IsOverdue(now time.Time) bool {
	return core.IsLent(r.Status) && now.After(r.DueDate)
}

// BorrowRecords is the result of the Borrow Records query, ordered by request time.
type BorrowRecords struct {
	All            []BorrowRecord
	Statuses       []core.LoanStatus
	SequenceNumber uint
}

func (r BorrowRecords) GetSequenceNumber() uint {
	return r.SequenceNumber
}

// Records returns the records with one of the selected statuses.
func (r BorrowRecords) Records() []BorrowRecord {
	if len(r.Statuses) == 0 {
		return r.All
	}

	selected := make([]BorrowRecord, 0)

	for _, record := range r.All {
		if slices.Contains(r.Statuses, record.Status) {
			selected = append(selected, record)
		}
	}

	return selected
}

// Overdue returns the selected records which are overdue at now.
func (r BorrowRecords) Overdue(now time.Time) []BorrowRecord {
	overdue := make([]BorrowRecord, 0)

	for _, record := range r.Records() {
		if record.IsOverdue(now) {
			overdue = append(overdue, record)
		}
	}

	return overdue
}

// Find returns the record with recordID, regardless of the status selection.
func (r BorrowRecords) Find(recordID core.RecordIDString) (BorrowRecord, bool) {
	for _, record := range r.All {
		if record.RecordID == recordID {
			return record, true
		}
	}

	return BorrowRecord{}, false
}
