package catalog_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/query/catalog"
	"github.com/bookdesk/bookdesk/testutil/helper"
)

func givenHistory(start time.Time) core.DomainEvents {
	history := core.DomainEvents{
		core.BuildBookAddedToCatalog("b-1", "Dune", "Frank Herbert", "Science Fiction", 1965, "B-1", start),
		core.BuildBookAddedToCatalog("b-2", "Emma", "Jane Austen", "Classic", 1815, "C-4", start.Add(time.Minute)),
		core.BuildBookAddedToCatalog("b-3", "Persuasion", "Jane Austen", "Classic", 1817, "C-4", start.Add(2*time.Minute)),
		core.BuildBookRemovedFromCatalog("b-3", "admin", start.Add(3*time.Minute)),
	}

	return append(history, helper.LoanEvents("r-1", "b-2", "alice", start.Add(3*time.Minute),
		core.LoanStatusPending, core.LoanStatusApproved)...)
}

func Test_Project_BooksInCatalogWithAvailability(t *testing.T) {
	// act
	result := catalog.Project(givenHistory(time.Now().Add(-time.Hour)), catalog.BuildQuery(), 9)

	// assert
	require.Equal(t, 2, result.Count)
	assert.Equal(t, uint(9), result.SequenceNumber)
	assert.Equal(t, "b-1", result.Books[0].BookID)
	assert.True(t, result.Books[0].Available)
	assert.Equal(t, "b-2", result.Books[1].BookID)
	assert.False(t, result.Books[1].Available)

	_, found := result.Find("b-3")
	assert.False(t, found)
}

func Test_Project_IncrementalOnBase_EqualsFullProjection(t *testing.T) {
	// arrange
	start := time.Now().Add(-time.Hour)
	history := givenHistory(start)
	history = append(history, core.BuildBookReturned("r-1", "b-2", "alice", "admin", start.Add(10*time.Hour)))

	// act
	base := catalog.Project(history[:3], catalog.BuildQuery(), 3)
	incremental := catalog.Project(history[3:], catalog.BuildQuery(), uint(len(history)), base)
	full := catalog.Project(history, catalog.BuildQuery(), uint(len(history)))

	// assert
	assert.Equal(t, full, incremental)
	book, found := full.Find("b-2")
	require.True(t, found)
	assert.True(t, book.Available)
}

func Test_Catalog_Search(t *testing.T) {
	// arrange
	result := catalog.Project(givenHistory(time.Now().Add(-time.Hour)), catalog.BuildQuery(), 9)

	// act + assert
	assert.Len(t, result.Search("AUSTEN", catalog.SearchByAuthor), 1)
	assert.Len(t, result.Search("austen", catalog.SearchByTitle), 0)
	assert.Len(t, result.Search("un", catalog.SearchByTitleOrAuthor), 1)
	assert.Len(t, result.Search("", catalog.SearchByTitle), 2)
}

func Test_ParseSearchField(t *testing.T) {
	field, err := catalog.ParseSearchField(" Title ")
	require.NoError(t, err)
	assert.Equal(t, catalog.SearchByTitle, field)

	field, err = catalog.ParseSearchField("")
	require.NoError(t, err)
	assert.Equal(t, catalog.SearchByTitleOrAuthor, field)

	_, err = catalog.ParseSearchField("isbn")
	assert.ErrorIs(t, err, catalog.ErrUnknownSearchField)
}
