package borrowrecords

import (
	"cmp"
	"slices"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/library/core"
)

// Project derives the borrow records from history, on top of base when given.
// The status selection is always taken from query, never from base.
func Project(history core.DomainEvents, query Query, maxSequence uint, base ...BorrowRecords) BorrowRecords { //nolint:gocognit
	records := make(map[core.RecordIDString]*BorrowRecord)

	if len(base) > 0 {
		for i := range base[0].All {
			record := base[0].All[i]
			records[record.RecordID] = &record
		}
	}

	for _, event := range history {
		if e, ok := event.(core.BorrowRequested); ok {
			records[e.RecordID] = &BorrowRecord{
				RecordID:    e.RecordID,
				BookID:      e.BookID,
				MemberID:    e.MemberID,
				Status:      core.LoanStatusPending,
				RequestedAt: e.OccurredAt,
			}

			continue
		}

		recordID, status, ok := core.LoanStatusAfter(event)
		if !ok || records[recordID] == nil {
			continue
		}

		record := records[recordID]
		record.Status = status

		switch e := event.(type) {
		case core.BorrowApproved:
			record.BorrowedAt = e.OccurredAt
			record.DueDate = e.DueDate
		case core.ReturnRequested:
			record.ReturnRequestedAt = e.OccurredAt
		case core.ReturnRejected:
			record.ReturnRequestedAt = core.OccurredAtTS{}
		case core.ReturnApproved:
			record.ReturnedAt = e.OccurredAt
		case core.BookReturned:
			record.ReturnedAt = e.OccurredAt
		}
	}

	all := make([]BorrowRecord, 0, len(records))
	for _, record := range records {
		all = append(all, *record)
	}

	slices.SortFunc(all, func(a, b BorrowRecord) int {
		return cmp.Or(a.RequestedAt.Compare(b.RequestedAt), cmp.Compare(a.RecordID, b.RecordID))
	})

	return BorrowRecords{
		All:            all,
		Statuses:       query.Statuses,
		SequenceNumber: maxSequence,
	}
}

// BuildEventFilter selects the loan events, of one member when the query is scoped.
func BuildEventFilter(query Query) eventstore.Filter {
	loanEvents := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.BorrowRequestedEventType,
			core.BorrowApprovedEventType,
			core.BorrowRejectedEventType,
			core.ReturnRequestedEventType,
			core.ReturnApprovedEventType,
			core.ReturnRejectedEventType,
			core.BookReturnedEventType,
		)

	if query.MemberID == "" {
		return loanEvents.Finalize()
	}

	return loanEvents.AndAnyPredicateOf(eventstore.P("MemberID", query.MemberID)).Finalize()
}
