package helper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/shell"
)

// EventStore is what the helpers need to arrange history.
type EventStore interface {
	Query(ctx context.Context, filter eventstore.Filter) (eventstore.StorableEvents, eventstore.MaxSequenceNumberUint, error)
	Append(
		ctx context.Context,
		filter eventstore.Filter,
		expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
		storableEvent eventstore.StorableEvent,
		storableEvents ...eventstore.StorableEvent,
	) error
}

// FakeClock is the fixed "now" of a test.
func FakeClock() time.Time {
	return time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
}

func GivenUniqueID(t testing.TB) string {
	id, err := uuid.NewV7()
	require.NoError(t, err, "error in arranging test data")

	return id.String()
}

func ToStorable(t testing.TB, domainEvent core.DomainEvent) eventstore.StorableEvent {
	storableEvent, err := shell.StorableEventFrom(domainEvent, shell.NewCommandEventMetadata())
	require.NoError(t, err, "error in arranging test data")

	return storableEvent
}

// GivenEventsWereAppended appends the events one by one, unconditionally.
func GivenEventsWereAppended(t testing.TB, ctx context.Context, es EventStore, domainEvents ...core.DomainEvent) {
	filter := eventstore.BuildEventFilter().MatchingAnyEvent()

	for _, domainEvent := range domainEvents {
		_, maxSeq, err := es.Query(ctx, filter)
		require.NoError(t, err, "error in arranging test data")

		err = es.Append(ctx, filter, maxSeq, ToStorable(t, domainEvent))
		require.NoError(t, err, "error in arranging test data")
	}
}

// GivenBookInCatalog returns the BookAddedToCatalog event of a typical book.
func GivenBookInCatalog(bookID core.BookIDString, at time.Time) core.BookAddedToCatalog {
	return core.BuildBookAddedToCatalog(bookID, "The Pragmatic Programmer", "David Thomas", "Software", 1999, "Shelf A-3", at)
}

// GivenMember returns the MemberRegistered event of a member with role core.RoleMember.
func GivenMember(memberID core.MemberIDString, at time.Time) core.MemberRegistered {
	return core.BuildMemberRegistered(memberID, "$2a$04$notarealhash", "Member "+memberID, "+1 555 0100", memberID+"@example.org", core.RoleMember, "M-"+memberID, at)
}

// GivenLibrarian returns the MemberRegistered event of a member with role core.RoleAdmin.
func GivenLibrarian(memberID core.MemberIDString, at time.Time) core.MemberRegistered {
	return core.BuildMemberRegistered(memberID, "$2a$04$notarealhash", "Librarian "+memberID, "", memberID+"@example.org", core.RoleAdmin, "L-"+memberID, at)
}

// LoanEvents returns the events of a borrow record which went through the given statuses in order,
// starting one hour after at and one hour apart.
func LoanEvents(recordID core.RecordIDString, bookID core.BookIDString, memberID core.MemberIDString, at time.Time, path ...core.LoanStatus) core.DomainEvents {
	events := core.DomainEvents{}
	current := ""

	for i, status := range path {
		ts := at.Add(time.Duration(i+1) * time.Hour)

		switch {
		case status == core.LoanStatusPending:
			events = append(events, core.BuildBorrowRequested(recordID, bookID, memberID, ts))
		case status == core.LoanStatusApproved && current == core.LoanStatusReturnPending:
			events = append(events, core.BuildReturnRejected(recordID, bookID, memberID, "admin", ts))
		case status == core.LoanStatusApproved:
			events = append(events, core.BuildBorrowApproved(recordID, bookID, memberID, "admin", ts))
		case status == core.LoanStatusRejected:
			events = append(events, core.BuildBorrowRejected(recordID, bookID, memberID, "admin", ts))
		case status == core.LoanStatusReturnPending:
			events = append(events, core.BuildReturnRequested(recordID, bookID, memberID, ts))
		case status == core.LoanStatusReturned && current == core.LoanStatusReturnPending:
			events = append(events, core.BuildReturnApproved(recordID, bookID, memberID, "admin", ts))
		case status == core.LoanStatusReturned:
			events = append(events, core.BuildBookReturned(recordID, bookID, memberID, "admin", ts))
		}

		current = status
	}

	return events
}

// LoanEventsOfRecordFilter selects all loan events of one borrow record.
func LoanEventsOfRecordFilter(recordID core.RecordIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.BorrowRequestedEventType,
			core.BorrowApprovedEventType,
			core.BorrowRejectedEventType,
			core.ReturnRequestedEventType,
			core.ReturnApprovedEventType,
			core.ReturnRejectedEventType,
			core.BookReturnedEventType,
		).
		AndAnyPredicateOf(eventstore.P("RecordID", recordID)).
		Finalize()
}
