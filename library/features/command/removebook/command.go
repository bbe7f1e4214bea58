package removebook

import (
	"time"

	"github.com/bookdesk/bookdesk/library/core"
)

const (
	commandType = "RemoveBook"
)

// Command represents the intent to remove a book from the catalog.
type Command struct {
	BookID     core.BookIDString
	RemovedBy  core.MemberIDString
	OccurredAt core.OccurredAtTS
}

func (c Command) CommandType() string {
	return commandType
}

func BuildCommand(bookID core.BookIDString, removedBy core.MemberIDString, occurredAt time.Time) Command {
	return Command{
		BookID:     bookID,
		RemovedBy:  core.ToMemberID(removedBy),
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}
