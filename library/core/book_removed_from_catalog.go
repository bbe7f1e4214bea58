package core

import (
	"time"
)

// BookRemovedFromCatalogEventType is the event type identifier.
const BookRemovedFromCatalogEventType = "BookRemovedFromCatalog"

// BookRemovedFromCatalog records that a librarian removed a book from the catalog.
type BookRemovedFromCatalog struct {
	BookID     BookIDString
	RemovedBy  MemberIDString
	OccurredAt OccurredAtTS
}

// BuildBookRemovedFromCatalog creates a new BookRemovedFromCatalog event.
func BuildBookRemovedFromCatalog(bookID BookIDString, removedBy MemberIDString, occurredAt time.Time) BookRemovedFromCatalog {
	return BookRemovedFromCatalog{
		BookID:     bookID,
		RemovedBy:  removedBy,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e BookRemovedFromCatalog) EventType() string {
	return BookRemovedFromCatalogEventType
}

func (e BookRemovedFromCatalog) HasOccurredAt() time.Time {
	return e.OccurredAt
}

func (e BookRemovedFromCatalog) IsErrorEvent() bool {
	return false
}
