package catalog

import (
	"errors"
	"strings"
	"time"

	"github.com/bookdesk/bookdesk/library/core"
)

// SearchField selects what Search compares the term with.
type SearchField string

const (
	SearchByTitle         SearchField = "title"
	SearchByAuthor        SearchField = "author"
	SearchByTitleOrAuthor SearchField = "either"
)

// ErrUnknownSearchField is returned by ParseSearchField.
var ErrUnknownSearchField = errors.New("search field must be title, author or either")

// Book is a book in the catalog.
type Book struct {
	BookID          core.BookIDString
	Title           string
	Author          string
	Genre           string
	PublicationYear int
	Location        string
	Available       bool
	AddedAt         time.Time
}

// Catalog is the result of the Catalog query, books are ordered by the time they were added.
type Catalog struct {
	Books          []Book
	Count          int
	SequenceNumber uint
}

func (c Catalog) GetSequenceNumber() uint {
	return c.SequenceNumber
}

// Find returns the book with bookID.
func (c Catalog) Find(bookID core.BookIDString) (Book, bool) {
	for _, book := range c.Books {
		if book.BookID == bookID {
			return book, true
		}
	}

	return Book{}, false
}

// Search returns the books whose field contains term, ignoring case. An empty term matches all books.
func (c Catalog) Search(term string, field SearchField) []Book {
	term = strings.ToLower(strings.TrimSpace(term))
	found := make([]Book, 0)

	for _, book := range c.Books {
		inTitle := strings.Contains(strings.ToLower(book.Title), term)
		inAuthor := strings.Contains(strings.ToLower(book.Author), term)

		switch field {
		case SearchByTitle:
			if inTitle {
				found = append(found, book)
			}
		case SearchByAuthor:
			if inAuthor {
				found = append(found, book)
			}
		default:
			if inTitle || inAuthor {
				found = append(found, book)
			}
		}
	}

	return found
}

// ParseSearchField accepts "title", "author", "either" and "" (either).
func ParseSearchField(field string) (SearchField, error) {
	switch SearchField(strings.ToLower(strings.TrimSpace(field))) {
	case SearchByTitle:
		return SearchByTitle, nil
	case SearchByAuthor:
		return SearchByAuthor, nil
	case SearchByTitleOrAuthor, "":
		return SearchByTitleOrAuthor, nil
	default:
		return "", ErrUnknownSearchField
	}
}
