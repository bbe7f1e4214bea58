package borrowrecords_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/query/borrowrecords"
	"github.com/bookdesk/bookdesk/library/shell/snapshot"
	"github.com/bookdesk/bookdesk/testutil/helper"
	"github.com/bookdesk/bookdesk/testutil/helper/storewrapper"
)

func Test_QueryHandler_Handle_ScopedToMember(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	helper.GivenEventsWereAppended(t, ctx, es, givenLoans(helper.FakeClock())...)

	// act
	result, err := borrowrecords.NewQueryHandler(es).Handle(ctx, borrowrecords.HistoryOf("bob"))

	// assert
	require.NoError(t, err)
	require.Len(t, result.All, 1)
	assert.Equal(t, "r-3", result.All[0].RecordID)
	assert.Equal(t, core.LoanStatusReturnPending, result.All[0].Status)
}

func Test_SnapshotWrapper_Handle_SharesSnapshotAcrossStatusSelections(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	handler := snapshot.NewQueryWrapper(
		borrowrecords.NewQueryHandler(es),
		es,
		borrowrecords.Project,
		borrowrecords.BuildEventFilter,
	)
	helper.GivenEventsWereAppended(t, ctx, es, givenLoans(helper.FakeClock())...)

	_, err := handler.Handle(ctx, borrowrecords.PendingReturnRequests())
	require.NoError(t, err)

	helper.GivenEventsWereAppended(t, ctx, es, core.BuildBorrowRequested("r-5", "b-5", "carol", helper.FakeClock().Add(10*time.Hour)))

	// act
	result, err := handler.Handle(ctx, borrowrecords.PendingBorrowRequests())

	// assert
	require.NoError(t, err)
	assert.Equal(t, []string{"r-1", "r-5"}, recordIDs(result.Records()))
}
