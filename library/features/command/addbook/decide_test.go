package addbook_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/command/addbook"
	"github.com/bookdesk/bookdesk/library/shell"
)

func buildCommand(t *testing.T, bookID string, now time.Time) addbook.Command {
	command, err := addbook.BuildCommand(bookID, " Dune ", "Frank Herbert", "Science Fiction", 1965, "Shelf B-1", now)
	require.NoError(t, err)

	return command
}

func Test_BuildCommand_Error_WhenTitleOrAuthorMissing(t *testing.T) {
	// act
	_, errTitle := addbook.BuildCommand("b-1", " ", "Frank Herbert", "", 1965, "", time.Now())
	_, errAuthor := addbook.BuildCommand("b-1", "Dune", "", "", 1965, "", time.Now())

	// assert
	assert.ErrorIs(t, errTitle, shell.ErrInvalidCommand)
	assert.ErrorIs(t, errTitle, addbook.ErrTitleRequired)
	assert.ErrorIs(t, errAuthor, addbook.ErrAuthorRequired)
}

func Test_BuildCommand_GeneratesBookID_WhenEmpty(t *testing.T) {
	// act
	command := buildCommand(t, "", time.Now())

	// assert
	assert.NotEmpty(t, command.BookID)
	assert.Equal(t, "Dune", command.Title)
}

func Test_Decide_Success_WhenBookIsNew(t *testing.T) {
	// arrange
	now := time.Now()
	command := buildCommand(t, "b-1", now)

	// act
	result := addbook.Decide(core.DomainEvents{}, command)

	// assert
	require.True(t, result.HasEventToAppend())
	require.NoError(t, result.HasError())
	added, ok := result.Event.(core.BookAddedToCatalog)
	require.True(t, ok)
	assert.Equal(t, "b-1", added.BookID)
	assert.Equal(t, "Frank Herbert", added.Author)
	assert.Equal(t, 1965, added.PublicationYear)
}

func Test_Decide_Idempotent_WhenBookIsInCatalog(t *testing.T) {
	// arrange
	now := time.Now()
	history := core.DomainEvents{
		core.BuildBookAddedToCatalog("b-1", "Dune", "Frank Herbert", "", 1965, "", now.Add(-time.Hour)),
	}

	// act
	result := addbook.Decide(history, buildCommand(t, "b-1", now))

	// assert
	assert.True(t, result.IsIdempotent())
}

func Test_Decide_Success_WhenBookWasRemoved(t *testing.T) {
	// arrange
	now := time.Now()
	history := core.DomainEvents{
		core.BuildBookAddedToCatalog("b-1", "Dune", "Frank Herbert", "", 1965, "", now.Add(-2*time.Hour)),
		core.BuildBookRemovedFromCatalog("b-1", "admin", now.Add(-time.Hour)),
	}

	// act
	result := addbook.Decide(history, buildCommand(t, "b-1", now))

	// assert
	assert.True(t, result.HasEventToAppend())
	assert.IsType(t, core.BookAddedToCatalog{}, result.Event)
}
