package requestborrow

import (
	"time"

	"github.com/google/uuid"

	"github.com/bookdesk/bookdesk/library/core"
)

const (
	commandType = "RequestBorrow"
)

// Command represents the intent of a member to borrow a book.
type Command struct {
	RecordID   core.RecordIDString
	BookID     core.BookIDString
	MemberID   core.MemberIDString
	OccurredAt core.OccurredAtTS
}

func (c Command) CommandType() string {
	return commandType
}

// BuildCommand generates the record id when recordID is empty. Clients which retry a request
// should send their own record id, the request is idempotent per record id.
func BuildCommand(
	recordID core.RecordIDString,
	bookID core.BookIDString,
	memberID core.MemberIDString,
	occurredAt time.Time,
) Command {

	if recordID == "" {
		recordID = uuid.NewString()
	}

	return Command{
		RecordID:   recordID,
		BookID:     bookID,
		MemberID:   core.ToMemberID(memberID),
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}
