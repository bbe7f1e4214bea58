package eventstore

import (
	"errors"
)

var (
	// ErrConcurrencyConflict is returned by Append when the "dynamic event stream" changed since it was queried.
	ErrConcurrencyConflict = errors.New("concurrency error, no rows were affected")

	ErrEmptyEventsTableName        = errors.New("events table name must not be empty")
	ErrEmptySnapshotsTableName     = errors.New("snapshots table name must not be empty")
	ErrNilDatabaseConnection       = errors.New("database connection must not be nil")
	ErrEmptyDataDirectory          = errors.New("data directory must not be empty")
	ErrQueryingEventsFailed        = errors.New("querying events failed")
	ErrAppendingEventFailed        = errors.New("appending the event failed")
	ErrBuildingQueryFailed         = errors.New("building the query failed")
	ErrScanningDBRowFailed         = errors.New("scanning the database row failed")
	ErrBuildingStorableEventFailed = errors.New("building the storable event failed")
	ErrGettingRowsAffectedFailed   = errors.New("getting rows affected failed")
	ErrStoreClosed                 = errors.New("event store is closed")
)

// MaxSequenceNumberUint is a type alias for uint, representing the maximum sequence number for a "dynamic event stream".
type MaxSequenceNumberUint = uint
