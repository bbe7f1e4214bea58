package app

import (
	"context"
	"fmt"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/command/addbook"
	"github.com/bookdesk/bookdesk/library/features/command/approveborrow"
	"github.com/bookdesk/bookdesk/library/features/command/approvereturn"
	"github.com/bookdesk/bookdesk/library/features/command/deletemember"
	"github.com/bookdesk/bookdesk/library/features/command/registermember"
	"github.com/bookdesk/bookdesk/library/features/command/rejectborrow"
	"github.com/bookdesk/bookdesk/library/features/command/rejectreturn"
	"github.com/bookdesk/bookdesk/library/features/command/removebook"
	"github.com/bookdesk/bookdesk/library/features/command/requestborrow"
	"github.com/bookdesk/bookdesk/library/features/command/requestreturn"
	"github.com/bookdesk/bookdesk/library/features/command/returnbook"
	"github.com/bookdesk/bookdesk/library/features/query/members"
	"github.com/bookdesk/bookdesk/library/shell"
)

// NewBook is the input of AddBook. An empty BookID is generated.
type NewBook struct {
	BookID          core.BookIDString `json:"bookId"`
	Title           string            `json:"title"`
	Author          string            `json:"author"`
	Genre           string            `json:"genre"`
	PublicationYear int               `json:"publicationYear"`
	Location        string            `json:"location"`
}

// NewMember is the input of RegisterMember. An empty Role means member, an empty MembershipID is generated.
type NewMember struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	FullName     string `json:"fullName"`
	Contact      string `json:"contact"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	MembershipID string `json:"membershipId"`
}

// Outcome reports what a command did. Idempotent means nothing had to change.
type Outcome struct {
	ID         string `json:"id"`
	Idempotent bool   `json:"idempotent"`
}

func outcome(id string, result shell.HandlerResult) Outcome {
	return Outcome{ID: id, Idempotent: result.Idempotent}
}

func (l *Library) AddBook(ctx context.Context, actor core.MemberIDString, book NewBook) (Outcome, error) {
	if err := l.requireLibrarian(ctx, actor, "AddBook"); err != nil {
		return Outcome{}, err
	}

	command, err := addbook.BuildCommand(
		book.BookID, book.Title, book.Author, book.Genre, book.PublicationYear, book.Location, l.now(),
	)
	if err != nil {
		return Outcome{}, err
	}

	result, err := l.addBook.Handle(ctx, command)

	return outcome(command.BookID, result), err
}

func (l *Library) RemoveBook(ctx context.Context, actor core.MemberIDString, bookID core.BookIDString) (Outcome, error) {
	if err := l.requireLibrarian(ctx, actor, "RemoveBook"); err != nil {
		return Outcome{}, err
	}

	result, err := l.removeBook.Handle(ctx, removebook.BuildCommand(bookID, actor, l.now()))

	return outcome(bookID, result), err
}

// RegisterMember lets anyone register as member. Registering a librarian takes a librarian,
// except for the very first one.
func (l *Library) RegisterMember(ctx context.Context, actor core.MemberIDString, member NewMember) (Outcome, error) {
	command, err := registermember.BuildCommand(
		member.Username, member.Password, member.FullName, member.Contact, member.Email,
		member.Role, member.MembershipID, l.now(),
	)
	if err != nil {
		return Outcome{}, err
	}

	if command.Role == core.RoleAdmin {
		registered, queryErr := l.members.Handle(ctx, members.BuildQuery())
		if queryErr != nil {
			return Outcome{}, queryErr
		}

		if registered.HasLibrarian() && !registered.IsLibrarian(actor) {
			return Outcome{}, fmt.Errorf("RegisterMember: %w", core.ErrNotLibrarian)
		}
	}

	result, err := l.registerMember.Handle(ctx, command)

	return outcome(command.MemberID, result), err
}

func (l *Library) DeleteMember(ctx context.Context, actor core.MemberIDString, memberID core.MemberIDString) (Outcome, error) {
	if err := l.requireLibrarian(ctx, actor, "DeleteMember"); err != nil {
		return Outcome{}, err
	}

	command := deletemember.BuildCommand(memberID, actor, l.now())
	result, err := l.deleteMember.Handle(ctx, command)

	return outcome(command.MemberID, result), err
}

// RequestBorrow requests bookID for the actor. Clients that retry should pass their own recordID.
func (l *Library) RequestBorrow(
	ctx context.Context,
	actor core.MemberIDString,
	bookID core.BookIDString,
	recordID core.RecordIDString,
) (Outcome, error) {

	command := requestborrow.BuildCommand(recordID, bookID, actor, l.now())
	result, err := l.requestBorrow.Handle(ctx, command)

	return outcome(command.RecordID, result), err
}

func (l *Library) ApproveBorrow(ctx context.Context, actor core.MemberIDString, recordID core.RecordIDString) (Outcome, error) {
	if err := l.requireLibrarian(ctx, actor, "ApproveBorrow"); err != nil {
		return Outcome{}, err
	}

	result, err := l.approveBorrow.Handle(ctx, approveborrow.BuildCommand(recordID, actor, l.now()))

	return outcome(recordID, result), err
}

func (l *Library) RejectBorrow(ctx context.Context, actor core.MemberIDString, recordID core.RecordIDString) (Outcome, error) {
	if err := l.requireLibrarian(ctx, actor, "RejectBorrow"); err != nil {
		return Outcome{}, err
	}

	result, err := l.rejectBorrow.Handle(ctx, rejectborrow.BuildCommand(recordID, actor, l.now()))

	return outcome(recordID, result), err
}

// RequestReturn is only accepted from the borrowing member.
func (l *Library) RequestReturn(ctx context.Context, actor core.MemberIDString, recordID core.RecordIDString) (Outcome, error) {
	result, err := l.requestReturn.Handle(ctx, requestreturn.BuildCommand(recordID, actor, l.now()))

	return outcome(recordID, result), err
}

func (l *Library) ApproveReturn(ctx context.Context, actor core.MemberIDString, recordID core.RecordIDString) (Outcome, error) {
	if err := l.requireLibrarian(ctx, actor, "ApproveReturn"); err != nil {
		return Outcome{}, err
	}

	result, err := l.approveReturn.Handle(ctx, approvereturn.BuildCommand(recordID, actor, l.now()))

	return outcome(recordID, result), err
}

func (l *Library) RejectReturn(ctx context.Context, actor core.MemberIDString, recordID core.RecordIDString) (Outcome, error) {
	if err := l.requireLibrarian(ctx, actor, "RejectReturn"); err != nil {
		return Outcome{}, err
	}

	result, err := l.rejectReturn.Handle(ctx, rejectreturn.BuildCommand(recordID, actor, l.now()))

	return outcome(recordID, result), err
}

// ReturnBook takes a lent book back at the desk, with or without a return request.
func (l *Library) ReturnBook(ctx context.Context, actor core.MemberIDString, recordID core.RecordIDString) (Outcome, error) {
	if err := l.requireLibrarian(ctx, actor, "ReturnBook"); err != nil {
		return Outcome{}, err
	}

	result, err := l.returnBook.Handle(ctx, returnbook.BuildCommand(recordID, actor, l.now()))

	return outcome(recordID, result), err
}
