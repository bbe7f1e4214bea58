package authentication

import (
	"github.com/bookdesk/bookdesk/library/core"
)

// Authenticated is the member who proved their identity.
type Authenticated struct {
	MemberID       core.MemberIDString
	FullName       string
	Role           string
	SequenceNumber uint
}

func (a Authenticated) GetSequenceNumber() uint {
	return a.SequenceNumber
}

func (a Authenticated) IsLibrarian() bool {
	return a.Role == core.RoleAdmin
}
