package dashboard

import (
	"time"
)

const (
	queryType    = "Dashboard"
	snapshotType = "Dashboard"
)

// Query asks for the figures at Now, which decides what counts as overdue.
type Query struct {
	Now time.Time
}

func BuildQuery(now time.Time) Query {
	return Query{Now: now}
}

func (q Query) QueryType() string {
	return queryType
}

func (q Query) SnapshotType() string {
	return snapshotType
}
