package members

import (
	"time"

	"github.com/bookdesk/bookdesk/library/core"
)

type Member struct {
	MemberID     core.MemberIDString
	FullName     string
	Contact      string
	Email        string
	Role         string
	MembershipID string
	RegisteredAt time.Time
}

func (m Member) IsLibrarian() bool {
	return m.Role == core.RoleAdmin
}

// Members is the result of the Members query, ordered by member id.
type Members struct {
	Members        []Member
	Count          int
	SequenceNumber uint
}

func (m Members) GetSequenceNumber() uint {
	return m.SequenceNumber
}

func (m Members) Find(memberID core.MemberIDString) (Member, bool) {
	memberID = core.ToMemberID(memberID)

	for _, member := range m.Members {
		if member.MemberID == memberID {
			return member, true
		}
	}

	return Member{}, false
}

// IsLibrarian reports whether memberID is an active librarian.
func (m Members) IsLibrarian(memberID core.MemberIDString) bool {
	member, found := m.Find(memberID)
	return found && member.IsLibrarian()
}

// HasLibrarian reports whether any active member is a librarian.
func (m Members) HasLibrarian() bool {
	for _, member := range m.Members {
		if member.IsLibrarian() {
			return true
		}
	}

	return false
}
