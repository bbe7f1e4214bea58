package app

import (
	"context"
	"fmt"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/query/authentication"
	"github.com/bookdesk/bookdesk/library/features/query/borrowrecords"
	"github.com/bookdesk/bookdesk/library/features/query/catalog"
	"github.com/bookdesk/bookdesk/library/features/query/dashboard"
	"github.com/bookdesk/bookdesk/library/features/query/members"
)

func (l *Library) Catalog(ctx context.Context) (catalog.Catalog, error) {
	return l.catalog.Handle(ctx, catalog.BuildQuery())
}

// Book returns core.ErrBookNotInCatalog for unknown and removed books.
func (l *Library) Book(ctx context.Context, bookID core.BookIDString) (catalog.Book, error) {
	books, err := l.Catalog(ctx)
	if err != nil {
		return catalog.Book{}, err
	}

	book, ok := books.Find(bookID)
	if !ok {
		return catalog.Book{}, fmt.Errorf("%s: %w", bookID, core.ErrBookNotInCatalog)
	}

	return book, nil
}

// SearchBooks matches term case-insensitively; field is "title", "author" or "either".
func (l *Library) SearchBooks(ctx context.Context, term string, field string) ([]catalog.Book, error) {
	searchField, err := catalog.ParseSearchField(field)
	if err != nil {
		return nil, err
	}

	books, err := l.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	return books.Search(term, searchField), nil
}

func (l *Library) Members(ctx context.Context, actor core.MemberIDString) (members.Members, error) {
	if err := l.requireLibrarian(ctx, actor, "Members"); err != nil {
		return members.Members{}, err
	}

	return l.members.Handle(ctx, members.BuildQuery())
}

func (l *Library) PendingBorrowRequests(ctx context.Context, actor core.MemberIDString) (borrowrecords.BorrowRecords, error) {
	if err := l.requireLibrarian(ctx, actor, "PendingBorrowRequests"); err != nil {
		return borrowrecords.BorrowRecords{}, err
	}

	return l.borrowRecords.Handle(ctx, borrowrecords.PendingBorrowRequests())
}

func (l *Library) PendingReturnRequests(ctx context.Context, actor core.MemberIDString) (borrowrecords.BorrowRecords, error) {
	if err := l.requireLibrarian(ctx, actor, "PendingReturnRequests"); err != nil {
		return borrowrecords.BorrowRecords{}, err
	}

	return l.borrowRecords.Handle(ctx, borrowrecords.PendingReturnRequests())
}

// CurrentLoans are the pending, approved and return-pending records of memberID.
func (l *Library) CurrentLoans(
	ctx context.Context,
	actor core.MemberIDString,
	memberID core.MemberIDString,
) (borrowrecords.BorrowRecords, error) {

	if err := l.requireSelfOrLibrarian(ctx, actor, memberID, "CurrentLoans"); err != nil {
		return borrowrecords.BorrowRecords{}, err
	}

	return l.borrowRecords.Handle(ctx, borrowrecords.CurrentLoansOf(memberID))
}

func (l *Library) History(
	ctx context.Context,
	actor core.MemberIDString,
	memberID core.MemberIDString,
) (borrowrecords.BorrowRecords, error) {

	if err := l.requireSelfOrLibrarian(ctx, actor, memberID, "History"); err != nil {
		return borrowrecords.BorrowRecords{}, err
	}

	return l.borrowRecords.Handle(ctx, borrowrecords.HistoryOf(memberID))
}

// Overdue lists all loans past their due date.
func (l *Library) Overdue(ctx context.Context, actor core.MemberIDString) ([]borrowrecords.BorrowRecord, error) {
	if err := l.requireLibrarian(ctx, actor, "Overdue"); err != nil {
		return nil, err
	}

	records, err := l.borrowRecords.Handle(ctx, borrowrecords.BuildQuery("", core.LoanStatusApproved, core.LoanStatusReturnPending))
	if err != nil {
		return nil, err
	}

	return records.Overdue(l.now()), nil
}

func (l *Library) Dashboard(ctx context.Context, actor core.MemberIDString) (dashboard.Stats, error) {
	if err := l.requireLibrarian(ctx, actor, "Dashboard"); err != nil {
		return dashboard.Stats{}, err
	}

	return l.dashboard.Handle(ctx, dashboard.BuildQuery(l.now()))
}

// Login returns a wrapped core.ErrInvalidCredentials for unknown or deleted members and wrong passwords.
func (l *Library) Login(ctx context.Context, username string, password string) (authentication.Authenticated, error) {
	return l.authentication.Handle(ctx, authentication.BuildQuery(username, password))
}
