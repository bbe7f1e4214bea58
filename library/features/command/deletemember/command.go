package deletemember

import (
	"time"

	"github.com/bookdesk/bookdesk/library/core"
)

const (
	commandType = "DeleteMember"
)

// Command represents the intent to delete a member account.
type Command struct {
	MemberID   core.MemberIDString
	DeletedBy  core.MemberIDString
	OccurredAt core.OccurredAtTS
}

func (c Command) CommandType() string {
	return commandType
}

func BuildCommand(memberID core.MemberIDString, deletedBy core.MemberIDString, occurredAt time.Time) Command {
	return Command{
		MemberID:   core.ToMemberID(memberID),
		DeletedBy:  core.ToMemberID(deletedBy),
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}
