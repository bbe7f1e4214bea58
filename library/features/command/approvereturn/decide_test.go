package approvereturn_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/command/approvereturn"
	"github.com/bookdesk/bookdesk/testutil/helper"
)

func givenRecord(start time.Time, path ...core.LoanStatus) core.DomainEvents {
	history := core.DomainEvents{helper.GivenBookInCatalog("b-1", start)}
	return append(history, helper.LoanEvents("r-1", "b-1", "alice", start, path...)...)
}

func Test_Decide_Success(t *testing.T) {
	// arrange
	history := givenRecord(time.Now().Add(-24*time.Hour), core.LoanStatusPending, core.LoanStatusApproved, core.LoanStatusReturnPending)

	// act
	result := approvereturn.Decide(history, approvereturn.BuildCommand("r-1", "admin", time.Now()))

	// assert
	require.NoError(t, result.HasError())
	event, ok := result.Event.(core.ReturnApproved)
	require.True(t, ok)
	assert.Equal(t, "r-1", event.RecordID)
	assert.Equal(t, "b-1", event.BookID)
	assert.Equal(t, "alice", event.MemberID)
}

func Test_Decide_Idempotent(t *testing.T) {
	// arrange
	history := givenRecord(time.Now().Add(-24*time.Hour), core.LoanStatusPending, core.LoanStatusApproved, core.LoanStatusReturnPending, core.LoanStatusReturned)

	// act
	result := approvereturn.Decide(history, approvereturn.BuildCommand("r-1", "admin", time.Now()))

	// assert
	assert.True(t, result.IsIdempotent())
}

func Test_Decide_Error(t *testing.T) {
	start := time.Now().Add(-24 * time.Hour)

	testCases := map[string]struct {
		history  core.DomainEvents
		expected error
	}{
		"approved": {
			history:  givenRecord(start, core.LoanStatusPending, core.LoanStatusApproved),
			expected: core.ErrNoReturnRequested,
		},
		"pending": {
			history:  givenRecord(start, core.LoanStatusPending),
			expected: core.ErrNoReturnRequested,
		},
		"unknown record": {
			history:  core.DomainEvents{},
			expected: core.ErrRecordNotFound,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			// act
			result := approvereturn.Decide(tc.history, approvereturn.BuildCommand("r-1", "admin", time.Now()))

			// assert
			assert.ErrorIs(t, result.HasError(), tc.expected)
			assert.IsType(t, core.BorrowRecordTransitionFailed{}, result.Event)
		})
	}
}
