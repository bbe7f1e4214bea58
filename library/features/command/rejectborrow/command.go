package rejectborrow

import (
	"time"

	"github.com/bookdesk/bookdesk/library/core"
)

const (
	commandType = "RejectBorrow"
)

// Command represents the intent of a librarian to reject a borrow request.
type Command struct {
	RecordID   core.RecordIDString
	RejectedBy core.MemberIDString
	OccurredAt core.OccurredAtTS
}

func (c Command) CommandType() string {
	return commandType
}

func BuildCommand(recordID core.RecordIDString, rejectedBy core.MemberIDString, occurredAt time.Time) Command {
	return Command{
		RecordID:   recordID,
		RejectedBy: core.ToMemberID(rejectedBy),
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}
