package sqliteengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	_ "modernc.org/sqlite" // database/sql driver "sqlite"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/eventstore/internal/instrument"
	"github.com/bookdesk/bookdesk/eventstore/internal/sqlfilter"
)

const (
	defaultEventTableName          = "events"
	defaultSnapshotTableName       = "snapshots"
	driverName                     = "sqlite"
	dialectSQLite                  = "sqlite3"
	engineName                     = "sqlite"
	occurredAtLayout               = "2006-01-02T15:04:05.000000Z07:00"
	logMsgBuildSelectQueryFailed   = "failed to build select query"
	logMsgDBQueryFailed            = "database query execution failed"
	logMsgCloseRowsFailed          = "failed to close database rows"
	logMsgScanRowFailed            = "failed to scan database row"
	logMsgBuildStorableEventFailed = "failed to build storable event from database row"
	logMsgBuildInsertQueryFailed   = "failed to build insert query"
	logMsgDBExecFailed             = "database execution failed during event append"
	logMsgRowsAffectedFailed       = "failed to get rows affected count"
	logMsgRollbackFailed           = "failed to roll back transaction"
	logActionQuery                 = "query"
	logActionAppend                = "append"
	logActionSchema                = "ensure schema"
)

// EventStore implements the eventstore contract on SQLite through database/sql and the pure Go modernc driver.
type EventStore struct {
	db                *sql.DB
	eventTableName    string
	snapshotTableName string
	observer          instrument.Observer
}

// Open opens (or creates) the SQLite database file at path, configures it for a single writer
// and creates the tables if they don't exist.
func Open(ctx context.Context, path string, options ...Option) (*EventStore, error) {
	if path == "" {
		return nil, eventstore.ErrEmptyDataDirectory
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Join(eventstore.ErrNilDatabaseConnection, err)
	}

	// one writer at a time; SQLite serializes writes anyway, and this avoids SQLITE_BUSY between our own connections
	db.SetMaxOpenConns(1)

	es, err := NewEventStore(db, options...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if err = es.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return es, nil
}

// NewEventStore creates an EventStore on an already opened database handle.
func NewEventStore(db *sql.DB, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	es := &EventStore{
		db:                db,
		eventTableName:    defaultEventTableName,
		snapshotTableName: defaultSnapshotTableName,
		observer:          instrument.Observer{Engine: engineName},
	}

	for _, option := range options {
		if err := option(es); err != nil {
			return nil, err
		}
	}

	return es, nil
}

// EnsureSchema creates the events and snapshots tables if they don't exist.
func (es *EventStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
			sequence_number INTEGER PRIMARY KEY AUTOINCREMENT,
			event_type TEXT NOT NULL,
			occurred_at TEXT NOT NULL,
			payload TEXT NOT NULL,
			metadata TEXT NOT NULL
		)`, es.eventTableName),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q (event_type)`, es.eventTableName+"_event_type_idx", es.eventTableName),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
			projection_type TEXT NOT NULL,
			filter_hash TEXT NOT NULL,
			sequence_number INTEGER NOT NULL,
			snapshot_data TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (projection_type, filter_hash)
		)`, es.snapshotTableName),
	}

	for _, statement := range statements {
		start := time.Now()
		_, err := es.db.ExecContext(ctx, statement)
		es.observer.LogStatement(ctx, logActionSchema, statement, time.Since(start))

		if err != nil {
			es.observer.LogError(ctx, logMsgDBExecFailed, err, instrument.LogAttrQuery, statement)
			return errors.Join(eventstore.ErrAppendingEventFailed, err)
		}
	}

	return nil
}

// Close closes the underlying database handle.
func (es *EventStore) Close() error {
	return es.db.Close()
}

// Query returns the events matching filter in ascending sequence order,
// together with the highest sequence number among them (0 when there are none).
func (es *EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	var empty eventstore.StorableEvents

	observation, ctx := es.observer.StartQuery(ctx)

	sqlQuery, args, buildErr := es.buildSelectQuery(filter)
	if buildErr != nil {
		es.observer.LogError(ctx, logMsgBuildSelectQueryFailed, buildErr)
		observation.Error(instrument.ErrorTypeBuildQuery)

		return empty, 0, buildErr
	}

	start := time.Now()
	rows, queryErr := es.db.QueryContext(ctx, sqlQuery, args...)
	es.observer.LogStatement(ctx, logActionQuery, sqlQuery, time.Since(start))

	if queryErr != nil {
		es.observer.LogError(ctx, logMsgDBQueryFailed, queryErr, instrument.LogAttrQuery, sqlQuery)
		observation.Error(instrument.ErrorTypeDatabaseQuery)

		return empty, 0, errors.Join(eventstore.ErrQueryingEventsFailed, queryErr)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			es.observer.LogWarn(ctx, logMsgCloseRowsFailed, closeErr)
		}
	}()

	eventStream, maxSequenceNumber, errorType, scanErr := es.processQueryResults(ctx, rows)
	if scanErr != nil {
		observation.Error(errorType)
		return empty, 0, scanErr
	}

	observation.Success(eventStream, maxSequenceNumber)

	return eventStream, maxSequenceNumber, nil
}

func (es *EventStore) processQueryResults(ctx context.Context, rows *sql.Rows) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	string,
	error,
) {

	eventStream := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for rows.Next() {
		var (
			eventType, occurredAt, payload, metadata string
			sequenceNumber                           int64
		)

		if err := rows.Scan(&eventType, &occurredAt, &payload, &metadata, &sequenceNumber); err != nil {
			es.observer.LogError(ctx, logMsgScanRowFailed, err)
			return nil, 0, instrument.ErrorTypeRowScan, errors.Join(eventstore.ErrScanningDBRowFailed, err)
		}

		occurredAtTime, err := time.Parse(occurredAtLayout, occurredAt)
		if err != nil {
			es.observer.LogError(ctx, logMsgScanRowFailed, err)
			return nil, 0, instrument.ErrorTypeRowScan, errors.Join(eventstore.ErrScanningDBRowFailed, err)
		}

		event, err := eventstore.BuildStorableEvent(eventType, occurredAtTime, []byte(payload), []byte(metadata))
		if err != nil {
			es.observer.LogError(ctx, logMsgBuildStorableEventFailed, err, instrument.LogAttrEventType, eventType)
			return nil, 0, instrument.ErrorTypeBuildStorableEvent, errors.Join(eventstore.ErrBuildingStorableEventFailed, err)
		}

		eventStream = append(eventStream, event)
		maxSequenceNumber = eventstore.MaxSequenceNumberUint(sequenceNumber) //nolint:gosec
	}

	if err := rows.Err(); err != nil {
		es.observer.LogError(ctx, logMsgScanRowFailed, err)
		return nil, 0, instrument.ErrorTypeRowScan, errors.Join(eventstore.ErrScanningDBRowFailed, err)
	}

	return eventStream, maxSequenceNumber, "", nil
}

// Append writes all events iff the max sequence number of filter still equals expectedMaxSequenceNumber.
//
// The first insert is guarded by the max sequence number of the filtered stream. The guarded insert takes the
// write lock, so the remaining events of the same call are inserted in the same transaction without another check.
func (es *EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	allEvents := eventstore.StorableEvents{event}
	allEvents = append(allEvents, additionalEvents...)

	observation, ctx := es.observer.StartAppend(ctx, allEvents, expectedMaxSequenceNumber)

	statements := make([]sqlStatement, 0, len(allEvents))

	guarded, buildErr := es.buildGuardedInsert(allEvents[0], filter, expectedMaxSequenceNumber)
	if buildErr == nil {
		statements = append(statements, guarded)

		for _, e := range allEvents[1:] {
			plain, err := es.buildPlainInsert(e)
			if err != nil {
				buildErr = err
				break
			}

			statements = append(statements, plain)
		}
	}

	if buildErr != nil {
		es.observer.LogError(ctx, logMsgBuildInsertQueryFailed, buildErr, instrument.LogAttrEventCount, len(allEvents))
		observation.Error(instrument.ErrorTypeBuildQuery)

		return buildErr
	}

	tx, err := es.db.BeginTx(ctx, nil)
	if err != nil {
		es.observer.LogError(ctx, logMsgDBExecFailed, err)
		observation.Error(instrument.ErrorTypeDatabaseExec)

		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	rowsAffected, errorType, execErr := es.execAppend(ctx, tx, statements)
	if execErr != nil || rowsAffected < int64(len(allEvents)) {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			es.observer.LogWarn(ctx, logMsgRollbackFailed, rollbackErr)
		}

		if execErr != nil {
			observation.Error(errorType)
			return execErr
		}

		observation.Conflict(rowsAffected)

		return eventstore.ErrConcurrencyConflict
	}

	if err = tx.Commit(); err != nil {
		es.observer.LogError(ctx, logMsgDBExecFailed, err)
		observation.Error(instrument.ErrorTypeDatabaseExec)

		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	observation.Success(rowsAffected)

	return nil
}

// execAppend stops after the guarded insert when it did not insert anything.
func (es *EventStore) execAppend(ctx context.Context, tx *sql.Tx, statements []sqlStatement) (int64, string, error) {
	total := int64(0)

	for i, statement := range statements {
		start := time.Now()
		result, err := tx.ExecContext(ctx, statement.query, statement.args...)
		es.observer.LogStatement(ctx, logActionAppend, statement.query, time.Since(start))

		if err != nil {
			es.observer.LogError(ctx, logMsgDBExecFailed, err, instrument.LogAttrQuery, statement.query)
			return total, instrument.ErrorTypeDatabaseExec, errors.Join(eventstore.ErrAppendingEventFailed, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			es.observer.LogError(ctx, logMsgRowsAffectedFailed, err)
			return total, instrument.ErrorTypeRowsAffected, errors.Join(eventstore.ErrGettingRowsAffectedFailed, err)
		}

		total += rowsAffected

		if i == 0 && rowsAffected == 0 {
			break
		}
	}

	return total, "", nil
}

type sqlStatement struct {
	query string
	args  []any
}

func (es *EventStore) dialect() sqlfilter.Dialect {
	return sqlfilter.Dialect{
		Predicate: func(key, val string) (exp.Expression, error) {
			return goqu.L("json_extract(?, ?) = ?", goqu.C(sqlfilter.ColPayload), fmt.Sprintf("$.%q", key), val), nil
		},
		Time: formatOccurredAt,
	}
}

func formatOccurredAt(t time.Time) any {
	return t.UTC().Format(occurredAtLayout)
}

func (es *EventStore) buildSelectQuery(filter eventstore.Filter) (string, []any, error) {
	where, err := sqlfilter.Where(filter, es.dialect())
	if err != nil {
		return "", nil, errors.Join(eventstore.ErrBuildingQueryFailed, err)
	}

	sqlQuery, args, err := goqu.Dialect(dialectSQLite).
		From(es.eventTableName).
		Prepared(true).
		Select(
			sqlfilter.ColEventType,
			sqlfilter.ColOccurredAt,
			sqlfilter.ColPayload,
			sqlfilter.ColMetadata,
			sqlfilter.ColSequenceNumber).
		Where(where).
		Order(goqu.I(sqlfilter.ColSequenceNumber).Asc()).
		ToSQL()
	if err != nil {
		return "", nil, errors.Join(eventstore.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, args, nil
}

func (es *EventStore) buildGuardedInsert(
	event eventstore.StorableEvent,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (sqlStatement, error) {

	builder := goqu.Dialect(dialectSQLite)

	where, err := sqlfilter.Where(filter, es.dialect())
	if err != nil {
		return sqlStatement{}, errors.Join(eventstore.ErrBuildingQueryFailed, err)
	}

	currentMax := builder.
		From(es.eventTableName).
		Select(goqu.COALESCE(goqu.MAX(sqlfilter.ColSequenceNumber), 0)).
		Where(where)

	values := builder.
		Select(
			goqu.V(event.EventType),
			goqu.V(formatOccurredAt(event.OccurredAt)),
			goqu.V(string(event.PayloadJSON)),
			goqu.V(string(event.MetadataJSON))).
		Where(goqu.V(expectedMaxSequenceNumber).Eq(currentMax))

	sqlQuery, args, err := builder.
		Insert(es.eventTableName).
		Prepared(true).
		Cols(sqlfilter.ColEventType, sqlfilter.ColOccurredAt, sqlfilter.ColPayload, sqlfilter.ColMetadata).
		FromQuery(values).
		ToSQL()
	if err != nil {
		return sqlStatement{}, errors.Join(eventstore.ErrBuildingQueryFailed, err)
	}

	return sqlStatement{query: sqlQuery, args: args}, nil
}

func (es *EventStore) buildPlainInsert(event eventstore.StorableEvent) (sqlStatement, error) {
	sqlQuery, args, err := goqu.Dialect(dialectSQLite).
		Insert(es.eventTableName).
		Prepared(true).
		Rows(goqu.Record{
			sqlfilter.ColEventType:  event.EventType,
			sqlfilter.ColOccurredAt: formatOccurredAt(event.OccurredAt),
			sqlfilter.ColPayload:    string(event.PayloadJSON),
			sqlfilter.ColMetadata:   string(event.MetadataJSON),
		}).
		ToSQL()
	if err != nil {
		return sqlStatement{}, errors.Join(eventstore.ErrBuildingQueryFailed, err)
	}

	return sqlStatement{query: sqlQuery, args: args}, nil
}
