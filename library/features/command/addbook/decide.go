package addbook

import (
	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/library/core"
)

type state struct {
	bookIsInCatalog bool
}

// Decide determines whether the book should be added to the catalog.
//
//	GIVEN: a book id which is not in the catalog
//	WHEN: AddBook is received
//	THEN: BookAddedToCatalog
//	IDEMPOTENCY: the book is already in the catalog, no event
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	s := project(history)

	if s.bookIsInCatalog {
		return core.IdempotentDecision()
	}

	return core.SuccessDecision(
		core.BuildBookAddedToCatalog(
			command.BookID,
			command.Title,
			command.Author,
			command.Genre,
			command.PublicationYear,
			command.Location,
			command.OccurredAt,
		),
	)
}

func project(history core.DomainEvents) state {
	s := state{}

	for _, event := range history {
		switch event.(type) {
		case core.BookAddedToCatalog:
			s.bookIsInCatalog = true
		case core.BookRemovedFromCatalog:
			s.bookIsInCatalog = false
		}
	}

	return s
}

// BuildEventFilter selects the catalog events of the book.
func BuildEventFilter(bookID core.BookIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.BookAddedToCatalogEventType,
			core.BookRemovedFromCatalogEventType,
		).
		AndAnyPredicateOf(eventstore.P("BookID", bookID)).
		Finalize()
}
