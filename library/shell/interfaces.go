package shell

import (
	"context"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/library/core"
)

// QueriesEvents is what query handlers need from an event store.
type QueriesEvents interface {
	Query(ctx context.Context, filter eventstore.Filter) (
		eventstore.StorableEvents,
		eventstore.MaxSequenceNumberUint,
		error,
	)
}

// QueriesAndAppendsEvents is what command handlers need from an event store.
type QueriesAndAppendsEvents interface {
	QueriesEvents
	Append(
		ctx context.Context,
		filter eventstore.Filter,
		expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
		storableEvent eventstore.StorableEvent,
		storableEvents ...eventstore.StorableEvent,
	) error
}

// Query is implemented by every query of the query slices.
// SnapshotType names the projection, snapshots are stored per (snapshot type, filter hash).
type Query interface {
	QueryType() string
	SnapshotType() string
}

// QueryResult is a projection which knows the sequence number of the last event it includes.
type QueryResult interface {
	GetSequenceNumber() uint
}

// QueryHandler runs Query -> Unmarshal -> Project.
type QueryHandler[Q Query, R QueryResult] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

// ProjectionFunc derives a projection from history. With a base it only applies history on top of it,
// which is how snapshots are brought up to date.
type ProjectionFunc[Q Query, R QueryResult] func(
	history core.DomainEvents,
	query Q,
	maxSeq uint,
	base ...R,
) R

// FilterBuilderFunc builds the filter of the events a query needs.
type FilterBuilderFunc[Q Query] func(query Q) eventstore.Filter

// Command is implemented by every command of the command slices.
type Command interface {
	CommandType() string
}

// CommandHandler runs Query -> Unmarshal -> Decide -> Append, retrying on concurrency conflicts.
type CommandHandler[C Command] interface {
	Handle(ctx context.Context, command C) (HandlerResult, error)
}
