package core

import (
	"time"
)

// BookAddedToCatalogEventType is the event type identifier.
const BookAddedToCatalogEventType = "BookAddedToCatalog"

// BookAddedToCatalog records that a librarian added a book to the catalog.
type BookAddedToCatalog struct {
	BookID          BookIDString
	Title           string
	Author          string
	Genre           string
	PublicationYear int
	Location        string
	OccurredAt      OccurredAtTS
}

// BuildBookAddedToCatalog creates a new BookAddedToCatalog event.
func BuildBookAddedToCatalog(
	bookID BookIDString,
	title string,
	author string,
	genre string,
	publicationYear int,
	location string,
	occurredAt time.Time,
) BookAddedToCatalog {

	return BookAddedToCatalog{
		BookID:          bookID,
		Title:           title,
		Author:          author,
		Genre:           genre,
		PublicationYear: publicationYear,
		Location:        location,
		OccurredAt:      ToOccurredAt(occurredAt),
	}
}

func (e BookAddedToCatalog) EventType() string {
	return BookAddedToCatalogEventType
}

func (e BookAddedToCatalog) HasOccurredAt() time.Time {
	return e.OccurredAt
}

func (e BookAddedToCatalog) IsErrorEvent() bool {
	return false
}
