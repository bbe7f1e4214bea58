package members_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/query/members"
	"github.com/bookdesk/bookdesk/testutil/helper"
	"github.com/bookdesk/bookdesk/testutil/helper/storewrapper"
)

func Test_Project_ActiveMembers(t *testing.T) {
	// arrange
	start := time.Now().Add(-time.Hour)
	history := core.DomainEvents{
		helper.GivenMember("carol", start),
		helper.GivenLibrarian("admin", start),
		helper.GivenMember("bob", start.Add(time.Minute)),
		core.BuildMemberDeleted("carol", "admin", start.Add(2*time.Minute)),
	}

	// act
	result := members.Project(history, members.BuildQuery(), 4)

	// assert
	require.Equal(t, 2, result.Count)
	assert.Equal(t, "admin", result.Members[0].MemberID)
	assert.Equal(t, "bob", result.Members[1].MemberID)
	assert.True(t, result.HasLibrarian())
	assert.True(t, result.IsLibrarian("Admin"))
	assert.False(t, result.IsLibrarian("bob"))
	assert.False(t, result.IsLibrarian("carol"))

	_, found := result.Find("carol")
	assert.False(t, found)
}

func Test_QueryHandler_Handle(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	memberID := helper.GivenUniqueID(t)
	helper.GivenEventsWereAppended(t, ctx, es, helper.GivenMember(memberID, helper.FakeClock()))

	// act
	result, err := members.NewQueryHandler(es).Handle(ctx, members.BuildQuery())

	// assert
	require.NoError(t, err)
	member, found := result.Find(memberID)
	require.True(t, found)
	assert.Equal(t, core.RoleMember, member.Role)
	assert.False(t, result.HasLibrarian())
}
