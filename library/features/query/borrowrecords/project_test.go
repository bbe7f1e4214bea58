package borrowrecords_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/query/borrowrecords"
	"github.com/bookdesk/bookdesk/testutil/helper"
)

func givenLoans(start time.Time) core.DomainEvents {
	history := core.DomainEvents{}
	history = append(history, helper.LoanEvents("r-1", "b-1", "alice", start, core.LoanStatusPending)...)
	history = append(history, helper.LoanEvents("r-2", "b-2", "alice", start.Add(time.Minute),
		core.LoanStatusPending, core.LoanStatusApproved)...)
	history = append(history, helper.LoanEvents("r-3", "b-3", "bob", start.Add(2*time.Minute),
		core.LoanStatusPending, core.LoanStatusApproved, core.LoanStatusReturnPending)...)

	return append(history, helper.LoanEvents("r-4", "b-4", "alice", start.Add(3*time.Minute),
		core.LoanStatusPending, core.LoanStatusApproved, core.LoanStatusReturnPending, core.LoanStatusReturned)...)
}

func recordIDs(records []borrowrecords.BorrowRecord) []string {
	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.RecordID)
	}

	return ids
}

func Test_Project_Presets(t *testing.T) {
	history := givenLoans(time.Now().Add(-time.Hour))

	testCases := map[string]struct {
		query    borrowrecords.Query
		expected []string
	}{
		"pending borrow requests": {borrowrecords.PendingBorrowRequests(), []string{"r-1"}},
		"pending return requests": {borrowrecords.PendingReturnRequests(), []string{"r-3"}},
		"current loans of alice":  {borrowrecords.CurrentLoansOf("Alice"), []string{"r-1", "r-2"}},
		"current loans of bob":    {borrowrecords.CurrentLoansOf("bob"), []string{"r-3"}},
		"history of alice":        {borrowrecords.HistoryOf("alice"), []string{"r-1", "r-2", "r-4"}},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			// arrange
			scoped := core.DomainEvents{}
			for _, event := range history {
				if tc.query.MemberID == "" || memberOf(event) == tc.query.MemberID {
					scoped = append(scoped, event)
				}
			}

			// act
			result := borrowrecords.Project(scoped, tc.query, 42)

			// assert
			assert.Equal(t, tc.expected, recordIDs(result.Records()))
			assert.Equal(t, uint(42), result.GetSequenceNumber())
		})
	}
}

func memberOf(event core.DomainEvent) string {
	switch e := event.(type) {
	case core.BorrowRequested:
		return e.MemberID
	case core.BorrowApproved:
		return e.MemberID
	case core.ReturnRequested:
		return e.MemberID
	case core.ReturnApproved:
		return e.MemberID
	default:
		return ""
	}
}

func Test_Project_Dates(t *testing.T) {
	// arrange
	start := time.Now().Add(-time.Hour)

	// act
	result := borrowrecords.Project(givenLoans(start), borrowrecords.HistoryOf(""), 1)

	// assert
	returned, found := result.Find("r-4")
	require.True(t, found)
	assert.Equal(t, core.LoanStatusReturned, returned.Status)
	assert.False(t, returned.RequestedAt.IsZero())
	assert.Equal(t, returned.BorrowedAt.Add(core.LoanPeriod), returned.DueDate)
	assert.False(t, returned.ReturnRequestedAt.IsZero())
	assert.False(t, returned.ReturnedAt.IsZero())

	pending, found := result.Find("r-1")
	require.True(t, found)
	assert.True(t, pending.BorrowedAt.IsZero())
}

func Test_BorrowRecord_IsOverdue(t *testing.T) {
	// arrange
	start := time.Now().Add(-time.Hour)
	result := borrowrecords.Project(givenLoans(start), borrowrecords.BuildQuery(""), 1)
	lent, _ := result.Find("r-2")
	pending, _ := result.Find("r-1")
	returned, _ := result.Find("r-4")
	later := start.Add(core.LoanPeriod + 24*time.Hour)

	// act + assert
	assert.False(t, lent.IsOverdue(time.Now()))
	assert.True(t, lent.IsOverdue(later))
	assert.False(t, pending.IsOverdue(later))
	assert.False(t, returned.IsOverdue(later))
	assert.Len(t, result.Overdue(later), 2)
}

func Test_Project_IncrementalOnBase_EqualsFullProjection(t *testing.T) {
	// arrange
	history := givenLoans(time.Now().Add(-time.Hour))
	query := borrowrecords.PendingBorrowRequests()

	// act
	base := borrowrecords.Project(history[:4], borrowrecords.HistoryOf(""), 4)
	incremental := borrowrecords.Project(history[4:], query, uint(len(history)), base)
	full := borrowrecords.Project(history, query, uint(len(history)))

	// assert
	assert.Equal(t, full, incremental)
}
