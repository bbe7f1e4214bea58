package dashboard

import (
	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/query/borrowrecords"
	"github.com/bookdesk/bookdesk/library/features/query/catalog"
	"github.com/bookdesk/bookdesk/library/features/query/members"
)

// Project has no incremental form, the figures cannot be updated without the projections behind them.
func Project(history core.DomainEvents, query Query, maxSequence uint, _ ...Stats) Stats {
	books := catalog.Project(history, catalog.BuildQuery(), maxSequence)
	records := borrowrecords.Project(history, borrowrecords.HistoryOf(""), maxSequence)
	accounts := members.Project(history, members.BuildQuery(), maxSequence)

	stats := Stats{
		TotalBooks:     books.Count,
		Members:        accounts.Count,
		SequenceNumber: maxSequence,
	}

	for _, book := range books.Books {
		if book.Available {
			stats.AvailableBooks++
		} else {
			stats.LentBooks++
		}
	}

	for _, record := range records.All {
		switch {
		case record.Status == core.LoanStatusPending:
			stats.PendingBorrowRequests++
		case record.Status == core.LoanStatusReturnPending:
			stats.PendingReturnRequests++
		}

		if record.IsOverdue(query.Now) {
			stats.OverdueLoans++
		}
	}

	return stats
}

func BuildEventFilter(_ Query) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.BookAddedToCatalogEventType,
			core.BookRemovedFromCatalogEventType,
			core.MemberRegisteredEventType,
			core.MemberDeletedEventType,
			core.BorrowRequestedEventType,
			core.BorrowApprovedEventType,
			core.BorrowRejectedEventType,
			core.ReturnRequestedEventType,
			core.ReturnApprovedEventType,
			core.ReturnRejectedEventType,
			core.BookReturnedEventType,
		).
		Finalize()
}
