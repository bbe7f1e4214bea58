package requestreturn

import (
	"time"

	"github.com/bookdesk/bookdesk/library/core"
)

const (
	commandType = "RequestReturn"
)

// Command represents the intent of the borrowing member to return a book.
type Command struct {
	RecordID    core.RecordIDString
	RequestedBy core.MemberIDString
	OccurredAt  core.OccurredAtTS
}

func (c Command) CommandType() string {
	return commandType
}

func BuildCommand(recordID core.RecordIDString, requestedBy core.MemberIDString, occurredAt time.Time) Command {
	return Command{
		RecordID:    recordID,
		RequestedBy: core.ToMemberID(requestedBy),
		OccurredAt:  core.ToOccurredAt(occurredAt),
	}
}
