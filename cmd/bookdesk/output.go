package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bookdesk/bookdesk/library/app"
	"github.com/bookdesk/bookdesk/library/features/query/borrowrecords"
	"github.com/bookdesk/bookdesk/library/features/query/catalog"
	"github.com/bookdesk/bookdesk/library/features/query/members"
)

const dateLayout = "2006-01-02"

func newTable(out io.Writer, header ...string) *tabwriter.Writer {
	table := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(table, strings.Join(header, "\t"))

	return table
}

func row(table io.Writer, cells ...any) {
	parts := make([]string, 0, len(cells))
	for _, cell := range cells {
		parts = append(parts, fmt.Sprint(cell))
	}

	fmt.Fprintln(table, strings.Join(parts, "\t"))
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	return t.Format(dateLayout)
}

func printBooks(out io.Writer, books []catalog.Book) error {
	table := newTable(out, "ID", "TITLE", "AUTHOR", "GENRE", "YEAR", "LOCATION", "AVAILABLE")
	for _, book := range books {
		row(table, book.BookID, book.Title, book.Author, book.Genre, book.PublicationYear, book.Location, book.Available)
	}

	return table.Flush()
}

func printMembers(out io.Writer, result members.Members) error {
	table := newTable(out, "ID", "NAME", "ROLE", "MEMBERSHIP", "EMAIL", "CONTACT", "REGISTERED")
	for _, member := range result.Members {
		row(table, member.MemberID, member.FullName, member.Role, member.MembershipID, member.Email, member.Contact, date(member.RegisteredAt))
	}

	return table.Flush()
}

func printRecords(out io.Writer, records []borrowrecords.BorrowRecord) error {
	table := newTable(out, "RECORD", "BOOK", "MEMBER", "STATUS", "REQUESTED", "BORROWED", "DUE", "RETURNED")
	for _, record := range records {
		row(table, record.RecordID, record.BookID, record.MemberID, record.Status,
			date(record.RequestedAt), date(record.BorrowedAt), date(record.DueDate), date(record.ReturnedAt))
	}

	return table.Flush()
}

func printOutcome(out io.Writer, verb string, outcome app.Outcome) {
	if outcome.Idempotent {
		fmt.Fprintf(out, "%s %s (nothing changed)\n", verb, outcome.ID)
		return
	}

	fmt.Fprintf(out, "%s %s\n", verb, outcome.ID)
}
