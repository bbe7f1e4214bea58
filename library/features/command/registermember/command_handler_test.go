package registermember_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/command/registermember"
	"github.com/bookdesk/bookdesk/library/shell"
	"github.com/bookdesk/bookdesk/testutil/helper"
	"github.com/bookdesk/bookdesk/testutil/helper/storewrapper"
)

func Test_CommandHandler_Handle_Success(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	username := helper.GivenUniqueID(t)

	// act
	result, err := registermember.NewCommandHandler(es).Handle(ctx, buildCommand(t, username, "Alice Liddell", helper.FakeClock()))

	// assert
	require.NoError(t, err)
	assert.False(t, result.Idempotent)

	storableEvents, _, err := es.Query(ctx, registermember.BuildEventFilter(username))
	require.NoError(t, err)
	require.Len(t, storableEvents, 1)

	event, err := shell.DomainEventFrom(storableEvents[0])
	require.NoError(t, err)
	assert.True(t, shell.PasswordMatches(event.(core.MemberRegistered).PasswordHash, "secret"))
}

func Test_CommandHandler_Handle_Error_WhenUsernameIsTaken(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	handler := registermember.NewCommandHandler(es)
	username := helper.GivenUniqueID(t)

	_, err := handler.Handle(ctx, buildCommand(t, username, "Alice Liddell", helper.FakeClock()))
	require.NoError(t, err)

	// act
	_, err = handler.Handle(ctx, buildCommand(t, username, "Somebody Else", helper.FakeClock()))

	// assert
	assert.ErrorIs(t, err, core.ErrUsernameTaken)
}
