package authentication_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/query/authentication"
	"github.com/bookdesk/bookdesk/library/shell"
	"github.com/bookdesk/bookdesk/testutil/helper"
	"github.com/bookdesk/bookdesk/testutil/helper/storewrapper"
)

func givenAccount(t *testing.T, ctx context.Context, es helper.EventStore, memberID string, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	helper.GivenEventsWereAppended(t, ctx, es,
		core.BuildMemberRegistered(memberID, string(hash), "Alice Liddell", "", "", core.RoleAdmin, "L-1", helper.FakeClock()))
}

func Test_QueryHandler_Handle_Success(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	memberID := helper.GivenUniqueID(t)
	givenAccount(t, ctx, es, memberID, "secret")

	// act
	result, err := authentication.NewQueryHandler(es).Handle(ctx, authentication.BuildQuery(memberID, "secret"))

	// assert
	require.NoError(t, err)
	assert.Equal(t, memberID, result.MemberID)
	assert.True(t, result.IsLibrarian())
}

func Test_QueryHandler_Handle_InvalidCredentials(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	handler := authentication.NewQueryHandler(es)
	memberID := helper.GivenUniqueID(t)
	deletedID := helper.GivenUniqueID(t)
	givenAccount(t, ctx, es, memberID, "secret")
	givenAccount(t, ctx, es, deletedID, "secret")
	helper.GivenEventsWereAppended(t, ctx, es, core.BuildMemberDeleted(deletedID, "admin", helper.FakeClock().Add(time.Hour)))

	for name, query := range map[string]authentication.Query{
		"wrong password": authentication.BuildQuery(memberID, "guess"),
		"unknown member": authentication.BuildQuery("nobody", "secret"),
		"deleted member": authentication.BuildQuery(deletedID, "secret"),
	} {
		t.Run(name, func(t *testing.T) {
			// act
			_, err := handler.Handle(ctx, query)

			// assert
			assert.ErrorIs(t, err, core.ErrInvalidCredentials)
			assert.Equal(t, shell.StatusBusinessError, shell.StatusFor(err))
		})
	}
}

func Test_Query_String_HidesPassword(t *testing.T) {
	assert.NotContains(t, authentication.BuildQuery("alice", "secret").String(), "secret")
}
