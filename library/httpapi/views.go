package httpapi

import (
	"time"

	"github.com/bookdesk/bookdesk/library/features/query/authentication"
	"github.com/bookdesk/bookdesk/library/features/query/borrowrecords"
	"github.com/bookdesk/bookdesk/library/features/query/catalog"
	"github.com/bookdesk/bookdesk/library/features/query/dashboard"
	"github.com/bookdesk/bookdesk/library/features/query/members"
)

type bookView struct {
	BookID          string    `json:"bookId"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Genre           string    `json:"genre"`
	PublicationYear int       `json:"publicationYear"`
	Location        string    `json:"location"`
	Available       bool      `json:"available"`
	AddedAt         time.Time `json:"addedAt"`
}

func toBookViews(books []catalog.Book) []bookView {
	views := make([]bookView, 0, len(books))
	for _, book := range books {
		views = append(views, toBookView(book))
	}

	return views
}

func toBookView(book catalog.Book) bookView {
	return bookView{
		BookID:          book.BookID,
		Title:           book.Title,
		Author:          book.Author,
		Genre:           book.Genre,
		PublicationYear: book.PublicationYear,
		Location:        book.Location,
		Available:       book.Available,
		AddedAt:         book.AddedAt,
	}
}

// recordView leaves dates that did not happen yet out of the body.
type recordView struct {
	RecordID          string     `json:"recordId"`
	BookID            string     `json:"bookId"`
	MemberID          string     `json:"memberId"`
	Status            string     `json:"status"`
	RequestedAt       time.Time  `json:"requestedAt"`
	BorrowedAt        *time.Time `json:"borrowedAt,omitempty"`
	DueDate           *time.Time `json:"dueDate,omitempty"`
	ReturnRequestedAt *time.Time `json:"returnRequestedAt,omitempty"`
	ReturnedAt        *time.Time `json:"returnedAt,omitempty"`
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}

	return &t
}

func toRecordViews(records []borrowrecords.BorrowRecord) []recordView {
	views := make([]recordView, 0, len(records))
	for _, record := range records {
		views = append(views, recordView{
			RecordID:          record.RecordID,
			BookID:            record.BookID,
			MemberID:          record.MemberID,
			Status:            string(record.Status),
			RequestedAt:       record.RequestedAt,
			BorrowedAt:        optionalTime(record.BorrowedAt),
			DueDate:           optionalTime(record.DueDate),
			ReturnRequestedAt: optionalTime(record.ReturnRequestedAt),
			ReturnedAt:        optionalTime(record.ReturnedAt),
		})
	}

	return views
}

type memberView struct {
	MemberID     string    `json:"memberId"`
	FullName     string    `json:"fullName"`
	Contact      string    `json:"contact"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	MembershipID string    `json:"membershipId"`
	RegisteredAt time.Time `json:"registeredAt"`
}

func toMemberViews(result members.Members) []memberView {
	views := make([]memberView, 0, len(result.Members))
	for _, member := range result.Members {
		views = append(views, memberView{
			MemberID:     member.MemberID,
			FullName:     member.FullName,
			Contact:      member.Contact,
			Email:        member.Email,
			Role:         member.Role,
			MembershipID: member.MembershipID,
			RegisteredAt: member.RegisteredAt,
		})
	}

	return views
}

type loginView struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	MemberID  string    `json:"memberId"`
	FullName  string    `json:"fullName"`
	Role      string    `json:"role"`
}

func toLoginView(authenticated authentication.Authenticated, token string, expiresAt time.Time) loginView {
	return loginView{
		Token:     token,
		ExpiresAt: expiresAt,
		MemberID:  authenticated.MemberID,
		FullName:  authenticated.FullName,
		Role:      authenticated.Role,
	}
}

type statsView struct {
	TotalBooks            int `json:"totalBooks"`
	AvailableBooks        int `json:"availableBooks"`
	LentBooks             int `json:"lentBooks"`
	PendingBorrowRequests int `json:"pendingBorrowRequests"`
	PendingReturnRequests int `json:"pendingReturnRequests"`
	OverdueLoans          int `json:"overdueLoans"`
	Members               int `json:"members"`
}

func toStatsView(stats dashboard.Stats) statsView {
	return statsView{
		TotalBooks:            stats.TotalBooks,
		AvailableBooks:        stats.AvailableBooks,
		LentBooks:             stats.LentBooks,
		PendingBorrowRequests: stats.PendingBorrowRequests,
		PendingReturnRequests: stats.PendingReturnRequests,
		OverdueLoans:          stats.OverdueLoans,
		Members:               stats.Members,
	}
}
