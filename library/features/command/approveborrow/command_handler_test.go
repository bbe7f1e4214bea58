package approveborrow_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/command/approveborrow"
	"github.com/bookdesk/bookdesk/testutil/helper"
	"github.com/bookdesk/bookdesk/testutil/helper/storewrapper"
)

func Test_CommandHandler_Handle_Success(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	recordID := helper.GivenUniqueID(t)
	bookID := helper.GivenUniqueID(t)
	helper.GivenEventsWereAppended(t, ctx, es, helper.GivenBookInCatalog(bookID, helper.FakeClock()))
	helper.GivenEventsWereAppended(t, ctx, es, helper.LoanEvents(recordID, bookID, "alice", helper.FakeClock(), core.LoanStatusPending)...)

	// act
	result, err := approveborrow.NewCommandHandler(es).Handle(ctx, approveborrow.BuildCommand(recordID, "admin", helper.FakeClock()))

	// assert
	require.NoError(t, err)
	assert.False(t, result.Idempotent)
}

func Test_CommandHandler_Handle_Error_WhenRecordIsUnknown(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()

	// act
	_, err := approveborrow.NewCommandHandler(es).Handle(ctx, approveborrow.BuildCommand(helper.GivenUniqueID(t), "admin", helper.FakeClock()))

	// assert
	assert.ErrorIs(t, err, core.ErrRecordNotFound)
}

func Test_CommandHandler_Handle_ApprovesOnlyOneOfTwoCompetingRequests(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	handler := approveborrow.NewCommandHandler(es)
	bookID := helper.GivenUniqueID(t)
	first := helper.GivenUniqueID(t)
	second := helper.GivenUniqueID(t)
	helper.GivenEventsWereAppended(t, ctx, es, helper.GivenBookInCatalog(bookID, helper.FakeClock()))
	helper.GivenEventsWereAppended(t, ctx, es, helper.LoanEvents(first, bookID, "alice", helper.FakeClock(), core.LoanStatusPending)...)
	helper.GivenEventsWereAppended(t, ctx, es, helper.LoanEvents(second, bookID, "bob", helper.FakeClock(), core.LoanStatusPending)...)

	// act
	errs := make([]error, 2)
	wg := sync.WaitGroup{}

	for i, recordID := range []string{first, second} {
		wg.Add(1)

		go func() {
			defer wg.Done()
			_, errs[i] = handler.Handle(ctx, approveborrow.BuildCommand(recordID, "admin", helper.FakeClock()))
		}()
	}

	wg.Wait()

	// assert
	succeeded := 0
	notAvailable := 0

	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, core.ErrBookNotAvailable):
			notAvailable++
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, notAvailable)
}
