package approvereturn

import (
	"time"

	"github.com/bookdesk/bookdesk/library/core"
)

const (
	commandType = "ApproveReturn"
)

// Command represents the intent of a librarian to confirm a requested return.
type Command struct {
	RecordID   core.RecordIDString
	ApprovedBy core.MemberIDString
	OccurredAt core.OccurredAtTS
}

func (c Command) CommandType() string {
	return commandType
}

func BuildCommand(recordID core.RecordIDString, approvedBy core.MemberIDString, occurredAt time.Time) Command {
	return Command{
		RecordID:   recordID,
		ApprovedBy: core.ToMemberID(approvedBy),
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}
