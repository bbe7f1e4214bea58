package removebook_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/command/removebook"
	"github.com/bookdesk/bookdesk/testutil/helper"
	"github.com/bookdesk/bookdesk/testutil/helper/storewrapper"
)

func Test_CommandHandler_Handle_Success(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	bookID := helper.GivenUniqueID(t)
	helper.GivenEventsWereAppended(t, ctx, es, helper.GivenBookInCatalog(bookID, helper.FakeClock()))

	// act
	result, err := removebook.NewCommandHandler(es).Handle(ctx, removebook.BuildCommand(bookID, "admin", helper.FakeClock()))

	// assert
	require.NoError(t, err)
	assert.False(t, result.Idempotent)

	storableEvents, _, err := es.Query(ctx, removebook.BuildEventFilter(bookID))
	require.NoError(t, err)
	require.Len(t, storableEvents, 2)
	assert.Equal(t, core.BookRemovedFromCatalogEventType, storableEvents[1].EventType)
}

func Test_CommandHandler_Handle_Error_AppendsFailureEvent_WhenBookIsLent(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	bookID := helper.GivenUniqueID(t)
	helper.GivenEventsWereAppended(t, ctx, es, helper.GivenBookInCatalog(bookID, helper.FakeClock()))
	helper.GivenEventsWereAppended(t, ctx, es,
		helper.LoanEvents(helper.GivenUniqueID(t), bookID, "alice", helper.FakeClock(), core.LoanStatusPending, core.LoanStatusApproved)...)

	// act
	_, err := removebook.NewCommandHandler(es).Handle(ctx, removebook.BuildCommand(bookID, "admin", helper.FakeClock()))

	// assert
	assert.ErrorIs(t, err, core.ErrBookIsLent)
	assert.True(t, core.IsBusinessError(err))

	storableEvents, _, err := es.Query(ctx, removebook.BuildEventFilter(bookID))
	require.NoError(t, err)
	assert.Len(t, storableEvents, 3)
}
