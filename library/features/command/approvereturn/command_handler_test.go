package approvereturn_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/command/approvereturn"
	"github.com/bookdesk/bookdesk/testutil/helper"
	"github.com/bookdesk/bookdesk/testutil/helper/storewrapper"
)

func Test_CommandHandler_Handle_Success_ThenIdempotent(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	handler := approvereturn.NewCommandHandler(es)
	recordID := helper.GivenUniqueID(t)
	bookID := helper.GivenUniqueID(t)
	helper.GivenEventsWereAppended(t, ctx, es, helper.GivenBookInCatalog(bookID, helper.FakeClock()))
	helper.GivenEventsWereAppended(t, ctx, es,
		helper.LoanEvents(recordID, bookID, "alice", helper.FakeClock(), core.LoanStatusPending, core.LoanStatusApproved, core.LoanStatusReturnPending)...)
	command := approvereturn.BuildCommand(recordID, "admin", helper.FakeClock())

	// act
	first, firstErr := handler.Handle(ctx, command)
	second, secondErr := handler.Handle(ctx, command)

	// assert
	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	assert.False(t, first.Idempotent)
	assert.True(t, second.Idempotent)

	storableEvents, _, err := es.Query(ctx, helper.LoanEventsOfRecordFilter(recordID))
	require.NoError(t, err)
	require.NotEmpty(t, storableEvents)
	assert.Equal(t, core.ReturnApprovedEventType, storableEvents[len(storableEvents)-1].EventType)
}
