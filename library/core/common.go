package core

import (
	"strings"
	"time"
)

// BookIDString identifies a book in the catalog, chosen by the librarian or generated.
type BookIDString = string

// MemberIDString is the lowercased username of a member.
type MemberIDString = string

// RecordIDString identifies a borrow record.
type RecordIDString = string

// EventTypeString is the event type identifier.
type EventTypeString = string

// OccurredAtTS represents when an event occurred.
type OccurredAtTS = time.Time

const (
	// RoleAdmin is a librarian.
	RoleAdmin = "admin"

	// RoleMember is a borrowing member.
	RoleMember = "user"

	// LoanPeriod is the time between approval and due date.
	LoanPeriod = 14 * 24 * time.Hour

	// MaxOpenLoans limits pending, approved and return-pending records per member.
	MaxOpenLoans = 5
)

// LoanStatus is the state of a borrow record.
type LoanStatus = string

const (
	LoanStatusPending       LoanStatus = "PENDING"
	LoanStatusApproved      LoanStatus = "APPROVED"
	LoanStatusRejected      LoanStatus = "REJECTED"
	LoanStatusReturnPending LoanStatus = "RETURN_PENDING"
	LoanStatusReturned      LoanStatus = "RETURNED"
)

// IsOpenLoan reports whether a record in this status still counts against the member.
func IsOpenLoan(status LoanStatus) bool {
	return status == LoanStatusPending || status == LoanStatusApproved || status == LoanStatusReturnPending
}

// IsLent reports whether the book of a record in this status is out of the library.
func IsLent(status LoanStatus) bool {
	return status == LoanStatusApproved || status == LoanStatusReturnPending
}

// IsValidRole reports whether role is RoleAdmin or RoleMember.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleMember
}

// ToMemberID normalizes a username, usernames are unique case-insensitively.
func ToMemberID(username string) MemberIDString {
	return strings.ToLower(strings.TrimSpace(username))
}

// ToOccurredAt converts a time to OccurredAt with UTC normalization and microsecond precision,
// which is what every engine can store.
func ToOccurredAt(t time.Time) OccurredAtTS {
	return t.UTC().Truncate(time.Microsecond)
}
