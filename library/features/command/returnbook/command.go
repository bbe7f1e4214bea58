package returnbook

import (
	"time"

	"github.com/bookdesk/bookdesk/library/core"
)

const (
	commandType = "ReturnBook"
)

// Command represents the intent of a librarian to take a lent book back.
type Command struct {
	RecordID   core.RecordIDString
	ReceivedBy core.MemberIDString
	OccurredAt core.OccurredAtTS
}

func (c Command) CommandType() string {
	return commandType
}

func BuildCommand(recordID core.RecordIDString, receivedBy core.MemberIDString, occurredAt time.Time) Command {
	return Command{
		RecordID:   recordID,
		ReceivedBy: core.ToMemberID(receivedBy),
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}
