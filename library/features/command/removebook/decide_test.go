package removebook_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/command/removebook"
	"github.com/bookdesk/bookdesk/testutil/helper"
)

func Test_Decide_Success_WhenBookIsInCatalogAndNotLent(t *testing.T) {
	// arrange
	now := time.Now()
	history := core.DomainEvents{helper.GivenBookInCatalog("b-1", now.Add(-time.Hour))}

	// act
	result := removebook.Decide(history, removebook.BuildCommand("b-1", "admin", now))

	// assert
	require.NoError(t, result.HasError())
	removed, ok := result.Event.(core.BookRemovedFromCatalog)
	require.True(t, ok)
	assert.Equal(t, "admin", removed.RemovedBy)
}

func Test_Decide_Success_WhenLoansAreClosed(t *testing.T) {
	// arrange
	now := time.Now().Add(-24 * time.Hour)
	history := core.DomainEvents{helper.GivenBookInCatalog("b-1", now)}
	history = append(history, helper.LoanEvents("r-1", "b-1", "alice", now,
		core.LoanStatusPending, core.LoanStatusApproved, core.LoanStatusReturnPending, core.LoanStatusReturned)...)
	history = append(history, helper.LoanEvents("r-2", "b-1", "bob", now,
		core.LoanStatusPending, core.LoanStatusRejected)...)

	// act
	result := removebook.Decide(history, removebook.BuildCommand("b-1", "admin", time.Now()))

	// assert
	require.NoError(t, result.HasError())
	assert.IsType(t, core.BookRemovedFromCatalog{}, result.Event)
}

func Test_Decide_Error_WhenBookWasNeverAdded(t *testing.T) {
	// act
	result := removebook.Decide(core.DomainEvents{}, removebook.BuildCommand("b-1", "admin", time.Now()))

	// assert
	assert.ErrorIs(t, result.HasError(), core.ErrBookNeverAdded)
	failed, ok := result.Event.(core.RemovingBookFailed)
	require.True(t, ok)
	assert.Equal(t, core.ErrBookNeverAdded.Error(), failed.FailureInfo)
}

func Test_Decide_Error_WhenBookIsLent(t *testing.T) {
	for _, path := range [][]core.LoanStatus{
		{core.LoanStatusPending, core.LoanStatusApproved},
		{core.LoanStatusPending, core.LoanStatusApproved, core.LoanStatusReturnPending},
		{core.LoanStatusPending, core.LoanStatusApproved, core.LoanStatusReturnPending, core.LoanStatusApproved},
	} {
		// arrange
		now := time.Now().Add(-24 * time.Hour)
		history := core.DomainEvents{helper.GivenBookInCatalog("b-1", now)}
		history = append(history, helper.LoanEvents("r-1", "b-1", "alice", now, path...)...)

		// act
		result := removebook.Decide(history, removebook.BuildCommand("b-1", "admin", time.Now()))

		// assert
		assert.ErrorIs(t, result.HasError(), core.ErrBookIsLent)
		assert.IsType(t, core.RemovingBookFailed{}, result.Event)
	}
}

func Test_Decide_Idempotent_WhenBookWasRemoved(t *testing.T) {
	// arrange
	now := time.Now()
	history := core.DomainEvents{
		helper.GivenBookInCatalog("b-1", now.Add(-2*time.Hour)),
		core.BuildBookRemovedFromCatalog("b-1", "admin", now.Add(-time.Hour)),
	}

	// act
	result := removebook.Decide(history, removebook.BuildCommand("b-1", "admin", now))

	// assert
	assert.True(t, result.IsIdempotent())
}
