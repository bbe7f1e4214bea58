package borrowrecords

import (
	"github.com/bookdesk/bookdesk/library/core"
)

const (
	queryType    = "BorrowRecords"
	snapshotType = "BorrowRecords"
)

// Query selects the records of one member (all members when MemberID is empty)
// with one of Statuses (any status when empty).
type Query struct {
	MemberID core.MemberIDString
	Statuses []core.LoanStatus
}

func BuildQuery(memberID core.MemberIDString, statuses ...core.LoanStatus) Query {
	return Query{
		MemberID: core.ToMemberID(memberID),
		Statuses: statuses,
	}
}

// PendingBorrowRequests are the requests waiting for a librarian.
func PendingBorrowRequests() Query {
	return BuildQuery("", core.LoanStatusPending)
}

// PendingReturnRequests are the returns waiting for a librarian.
func PendingReturnRequests() Query {
	return BuildQuery("", core.LoanStatusReturnPending)
}

// CurrentLoansOf are the member's open records: requested, at home, or waiting for a return approval.
func CurrentLoansOf(memberID core.MemberIDString) Query {
	return BuildQuery(memberID, core.LoanStatusPending, core.LoanStatusApproved, core.LoanStatusReturnPending)
}

// HistoryOf is every record of a member.
func HistoryOf(memberID core.MemberIDString) Query {
	return BuildQuery(memberID)
}

func (q Query) QueryType() string {
	return queryType
}

func (q Query) SnapshotType() string {
	return snapshotType
}
