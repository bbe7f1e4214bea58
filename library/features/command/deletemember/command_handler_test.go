package deletemember_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/command/deletemember"
	"github.com/bookdesk/bookdesk/testutil/helper"
	"github.com/bookdesk/bookdesk/testutil/helper/storewrapper"
)

func Test_CommandHandler_Handle_Success_ThenIdempotent(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	handler := deletemember.NewCommandHandler(es)
	memberID := helper.GivenUniqueID(t)
	helper.GivenEventsWereAppended(t, ctx, es, helper.GivenMember(memberID, helper.FakeClock()))
	command := deletemember.BuildCommand(memberID, "admin", helper.FakeClock())

	// act
	first, firstErr := handler.Handle(ctx, command)
	second, secondErr := handler.Handle(ctx, command)

	// assert
	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	assert.False(t, first.Idempotent)
	assert.True(t, second.Idempotent)

	storableEvents, _, err := es.Query(ctx, deletemember.BuildEventFilter(memberID))
	require.NoError(t, err)
	require.Len(t, storableEvents, 2)
	assert.Equal(t, core.MemberDeletedEventType, storableEvents[1].EventType)
}

func Test_CommandHandler_Handle_Error_WhenMemberHasOpenLoans(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	memberID := helper.GivenUniqueID(t)
	helper.GivenEventsWereAppended(t, ctx, es, helper.GivenMember(memberID, helper.FakeClock()))
	helper.GivenEventsWereAppended(t, ctx, es,
		helper.LoanEvents(helper.GivenUniqueID(t), helper.GivenUniqueID(t), memberID, helper.FakeClock(), core.LoanStatusPending)...)

	// act
	_, err := deletemember.NewCommandHandler(es).Handle(ctx, deletemember.BuildCommand(memberID, "admin", helper.FakeClock()))

	// assert
	assert.ErrorIs(t, err, core.ErrMemberHasOpenLoans)
}
