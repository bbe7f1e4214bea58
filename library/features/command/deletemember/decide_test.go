package deletemember_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/command/deletemember"
	"github.com/bookdesk/bookdesk/testutil/helper"
)

func Test_Decide_Success_WhenMemberHasNoOpenLoans(t *testing.T) {
	// arrange
	start := time.Now().Add(-24 * time.Hour)
	history := core.DomainEvents{helper.GivenMember("alice", start)}
	history = append(history, helper.LoanEvents("r-1", "b-1", "alice", start,
		core.LoanStatusPending, core.LoanStatusApproved, core.LoanStatusReturned)...)

	// act
	result := deletemember.Decide(history, deletemember.BuildCommand("alice", "admin", time.Now()))

	// assert
	require.NoError(t, result.HasError())
	deleted, ok := result.Event.(core.MemberDeleted)
	require.True(t, ok)
	assert.Equal(t, "admin", deleted.DeletedBy)
}

func Test_Decide_Error_WhenDeletingOwnAccount(t *testing.T) {
	// arrange
	history := core.DomainEvents{helper.GivenLibrarian("admin", time.Now().Add(-time.Hour))}

	// act
	result := deletemember.Decide(history, deletemember.BuildCommand("admin", "Admin", time.Now()))

	// assert
	assert.ErrorIs(t, result.HasError(), core.ErrCannotDeleteOwnAccount)
	assert.IsType(t, core.DeletingMemberFailed{}, result.Event)
}

func Test_Decide_Error_WhenMemberWasNeverRegistered(t *testing.T) {
	// act
	result := deletemember.Decide(core.DomainEvents{}, deletemember.BuildCommand("alice", "admin", time.Now()))

	// assert
	assert.ErrorIs(t, result.HasError(), core.ErrMemberNeverRegistered)
}

func Test_Decide_Error_WhenMemberHasOpenLoans(t *testing.T) {
	for _, status := range []core.LoanStatus{core.LoanStatusPending, core.LoanStatusApproved, core.LoanStatusReturnPending} {
		t.Run(status, func(t *testing.T) {
			// arrange
			start := time.Now().Add(-24 * time.Hour)
			path := map[core.LoanStatus][]core.LoanStatus{
				core.LoanStatusPending:       {core.LoanStatusPending},
				core.LoanStatusApproved:      {core.LoanStatusPending, core.LoanStatusApproved},
				core.LoanStatusReturnPending: {core.LoanStatusPending, core.LoanStatusApproved, core.LoanStatusReturnPending},
			}[status]

			history := core.DomainEvents{helper.GivenMember("alice", start)}
			history = append(history, helper.LoanEvents("r-1", "b-1", "alice", start, path...)...)

			// act
			result := deletemember.Decide(history, deletemember.BuildCommand("alice", "admin", time.Now()))

			// assert
			assert.ErrorIs(t, result.HasError(), core.ErrMemberHasOpenLoans)
		})
	}
}

func Test_Decide_Idempotent_WhenMemberWasDeleted(t *testing.T) {
	// arrange
	now := time.Now()
	history := core.DomainEvents{
		helper.GivenMember("alice", now.Add(-2*time.Hour)),
		core.BuildMemberDeleted("alice", "admin", now.Add(-time.Hour)),
	}

	// act
	result := deletemember.Decide(history, deletemember.BuildCommand("alice", "admin", now))

	// assert
	assert.True(t, result.IsIdempotent())
}
