package requestborrow_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/command/requestborrow"
	"github.com/bookdesk/bookdesk/testutil/helper"
)

func givenMemberAndBook(start time.Time) core.DomainEvents {
	return core.DomainEvents{
		helper.GivenMember("alice", start),
		helper.GivenBookInCatalog("b-1", start),
	}
}

func Test_Decide_Success_WhenAllPreconditionsMet(t *testing.T) {
	// arrange
	now := time.Now()
	history := givenMemberAndBook(now.Add(-time.Hour))

	// act
	result := requestborrow.Decide(history, requestborrow.BuildCommand("r-1", "b-1", "Alice", now))

	// assert
	require.NoError(t, result.HasError())
	requested, ok := result.Event.(core.BorrowRequested)
	require.True(t, ok)
	assert.Equal(t, "r-1", requested.RecordID)
	assert.Equal(t, "alice", requested.MemberID)
}

func Test_Decide_Success_WhenAnotherMemberHasPendingRequest(t *testing.T) {
	// arrange
	start := time.Now().Add(-24 * time.Hour)
	history := givenMemberAndBook(start)
	history = append(history, helper.LoanEvents("r-0", "b-1", "bob", start, core.LoanStatusPending)...)

	// act
	result := requestborrow.Decide(history, requestborrow.BuildCommand("r-1", "b-1", "alice", time.Now()))

	// assert
	require.NoError(t, result.HasError())
	assert.IsType(t, core.BorrowRequested{}, result.Event)
}

func Test_Decide_Idempotent_WhenRecordExists(t *testing.T) {
	// arrange
	start := time.Now().Add(-24 * time.Hour)
	history := givenMemberAndBook(start)
	history = append(history, helper.LoanEvents("r-1", "b-1", "alice", start, core.LoanStatusPending, core.LoanStatusRejected)...)

	// act
	result := requestborrow.Decide(history, requestborrow.BuildCommand("r-1", "b-1", "alice", time.Now()))

	// assert
	assert.True(t, result.IsIdempotent())
}

func Test_Decide_Error(t *testing.T) {
	start := time.Now().Add(-24 * time.Hour)

	testCases := map[string]struct {
		history  core.DomainEvents
		expected error
	}{
		"member not registered": {
			history:  core.DomainEvents{helper.GivenBookInCatalog("b-1", start)},
			expected: core.ErrMemberNotRegistered,
		},
		"member deleted": {
			history:  append(givenMemberAndBook(start), core.BuildMemberDeleted("alice", "admin", start.Add(time.Minute))),
			expected: core.ErrMemberNotRegistered,
		},
		"book not in catalog": {
			history:  core.DomainEvents{helper.GivenMember("alice", start)},
			expected: core.ErrBookNotInCatalog,
		},
		"book removed": {
			history:  append(givenMemberAndBook(start), core.BuildBookRemovedFromCatalog("b-1", "admin", start.Add(time.Minute))),
			expected: core.ErrBookNotInCatalog,
		},
		"book lent to another member": {
			history:  append(givenMemberAndBook(start), helper.LoanEvents("r-0", "b-1", "bob", start, core.LoanStatusPending, core.LoanStatusApproved)...),
			expected: core.ErrBookNotAvailable,
		},
		"open request for this book": {
			history:  append(givenMemberAndBook(start), helper.LoanEvents("r-0", "b-1", "alice", start, core.LoanStatusPending)...),
			expected: core.ErrOpenRequestExists,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			// act
			result := requestborrow.Decide(tc.history, requestborrow.BuildCommand("r-1", "b-1", "alice", time.Now()))

			// assert
			assert.ErrorIs(t, result.HasError(), tc.expected)
			failed, ok := result.Event.(core.RequestingBorrowFailed)
			require.True(t, ok)
			assert.Equal(t, "r-1", failed.RecordID)
		})
	}
}

func Test_Decide_Error_WhenMaxOpenLoansReached(t *testing.T) {
	// arrange
	start := time.Now().Add(-24 * time.Hour)
	history := givenMemberAndBook(start)
	paths := [][]core.LoanStatus{
		{core.LoanStatusPending},
		{core.LoanStatusPending, core.LoanStatusApproved},
		{core.LoanStatusPending, core.LoanStatusApproved, core.LoanStatusReturnPending},
	}

	for i := 0; i < core.MaxOpenLoans; i++ {
		history = append(history, helper.LoanEvents(fmt.Sprintf("r-%d", i+10), fmt.Sprintf("b-%d", i+10), "alice", start, paths[i%len(paths)]...)...)
	}

	// act
	result := requestborrow.Decide(history, requestborrow.BuildCommand("r-1", "b-1", "alice", time.Now()))

	// assert
	assert.ErrorIs(t, result.HasError(), core.ErrMaxOpenLoansReached)
}

func Test_Decide_Success_WhenClosedLoansDoNotCount(t *testing.T) {
	// arrange
	start := time.Now().Add(-24 * time.Hour)
	history := givenMemberAndBook(start)

	for i := 0; i < core.MaxOpenLoans; i++ {
		history = append(history, helper.LoanEvents(fmt.Sprintf("r-%d", i+10), fmt.Sprintf("b-%d", i+10), "alice", start,
			core.LoanStatusPending, core.LoanStatusApproved, core.LoanStatusReturned)...)
	}

	// act
	result := requestborrow.Decide(history, requestborrow.BuildCommand("r-1", "b-1", "alice", time.Now()))

	// assert
	require.NoError(t, result.HasError())
}
