package requestborrow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/command/requestborrow"
	"github.com/bookdesk/bookdesk/library/shell"
	"github.com/bookdesk/bookdesk/testutil/helper"
	"github.com/bookdesk/bookdesk/testutil/helper/storewrapper"
)

func Test_CommandHandler_Handle_Success(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	memberID := helper.GivenUniqueID(t)
	bookID := helper.GivenUniqueID(t)
	helper.GivenEventsWereAppended(t, ctx, es,
		helper.GivenMember(memberID, helper.FakeClock()),
		helper.GivenBookInCatalog(bookID, helper.FakeClock()),
	)
	command := requestborrow.BuildCommand("", bookID, memberID, helper.FakeClock())

	// act
	result, err := requestborrow.NewCommandHandler(es).Handle(ctx, command)

	// assert
	require.NoError(t, err)
	assert.False(t, result.Idempotent)

	storableEvents, _, err := es.Query(ctx, requestborrow.BuildEventFilter(command.RecordID, bookID, memberID))
	require.NoError(t, err)
	history, err := shell.DomainEventsFrom(storableEvents)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, command.RecordID, history[2].(core.BorrowRequested).RecordID)
}

func Test_CommandHandler_Handle_Error_WhenMemberIsNotRegistered(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	bookID := helper.GivenUniqueID(t)
	helper.GivenEventsWereAppended(t, ctx, es, helper.GivenBookInCatalog(bookID, helper.FakeClock()))

	// act
	result, err := requestborrow.NewCommandHandler(es).Handle(ctx,
		requestborrow.BuildCommand("", bookID, "nobody", helper.FakeClock()))

	// assert
	assert.ErrorIs(t, err, core.ErrMemberNotRegistered)
	assert.Equal(t, 1, result.RetryAttempts)
}
