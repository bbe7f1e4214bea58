package catalog

import (
	"cmp"
	"slices"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/library/core"
)

// Project derives the catalog from history, on top of base when given.
//
//	INCLUDES: books added and not removed afterward
//	DETAILS: a book is unavailable between BorrowApproved and ReturnApproved or BookReturned
func Project(history core.DomainEvents, _ Query, maxSequence uint, base ...Catalog) Catalog {
	books := make(map[core.BookIDString]*Book)

	if len(base) > 0 {
		for i := range base[0].Books {
			book := base[0].Books[i]
			books[book.BookID] = &book
		}
	}

	for _, event := range history {
		switch e := event.(type) {
		case core.BookAddedToCatalog:
			books[e.BookID] = &Book{
				BookID:          e.BookID,
				Title:           e.Title,
				Author:          e.Author,
				Genre:           e.Genre,
				PublicationYear: e.PublicationYear,
				Location:        e.Location,
				Available:       true,
				AddedAt:         e.OccurredAt,
			}

		case core.BookRemovedFromCatalog:
			delete(books, e.BookID)

		case core.BorrowApproved:
			if book := books[e.BookID]; book != nil {
				book.Available = false
			}

		case core.ReturnApproved:
			if book := books[e.BookID]; book != nil {
				book.Available = true
			}

		case core.BookReturned:
			if book := books[e.BookID]; book != nil {
				book.Available = true
			}
		}
	}

	bookList := make([]Book, 0, len(books))
	for _, book := range books {
		bookList = append(bookList, *book)
	}

	slices.SortFunc(bookList, func(a, b Book) int {
		return cmp.Or(a.AddedAt.Compare(b.AddedAt), cmp.Compare(a.BookID, b.BookID))
	})

	return Catalog{
		Books:          bookList,
		Count:          len(bookList),
		SequenceNumber: maxSequence,
	}
}

// BuildEventFilter selects the catalog events and the loan events which change availability.
func BuildEventFilter(_ Query) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.BookAddedToCatalogEventType,
			core.BookRemovedFromCatalogEventType,
			core.BorrowApprovedEventType,
			core.ReturnApprovedEventType,
			core.BookReturnedEventType,
		).
		Finalize()
}
