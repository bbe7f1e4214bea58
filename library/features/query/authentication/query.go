package authentication

import (
	"github.com/bookdesk/bookdesk/library/core"
)

const (
	queryType    = "Authenticate"
	snapshotType = "Account"
)

// Query carries the plain password, it must never be logged or stored.
type Query struct {
	MemberID core.MemberIDString
	Password string
}

func BuildQuery(username string, password string) Query {
	return Query{
		MemberID: core.ToMemberID(username),
		Password: password,
	}
}

func (q Query) QueryType() string {
	return queryType
}

func (q Query) SnapshotType() string {
	return snapshotType
}

// String hides the password from fmt and slog.
func (q Query) String() string {
	return queryType + "{" + q.MemberID + "}"
}
