package addbook

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/shell"
)

const (
	commandType = "AddBook"
)

var (
	ErrTitleRequired  = errors.New("title is required")
	ErrAuthorRequired = errors.New("author is required")
)

// Command represents the intent to add a book to the catalog.
type Command struct {
	BookID          core.BookIDString
	Title           string
	Author          string
	Genre           string
	PublicationYear int
	Location        string
	OccurredAt      core.OccurredAtTS
}

func (c Command) CommandType() string {
	return commandType
}

// BuildCommand trims all text fields and generates a book id when bookID is empty.
func BuildCommand(
	bookID core.BookIDString,
	title string,
	author string,
	genre string,
	publicationYear int,
	location string,
	occurredAt time.Time,
) (Command, error) {

	command := Command{
		BookID:          strings.TrimSpace(bookID),
		Title:           strings.TrimSpace(title),
		Author:          strings.TrimSpace(author),
		Genre:           strings.TrimSpace(genre),
		PublicationYear: publicationYear,
		Location:        strings.TrimSpace(location),
		OccurredAt:      core.ToOccurredAt(occurredAt),
	}

	if command.Title == "" {
		return Command{}, errors.Join(shell.ErrInvalidCommand, ErrTitleRequired)
	}

	if command.Author == "" {
		return Command{}, errors.Join(shell.ErrInvalidCommand, ErrAuthorRequired)
	}

	if command.BookID == "" {
		command.BookID = uuid.NewString()
	}

	return command, nil
}
