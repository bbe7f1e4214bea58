package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/eventstore/internal/instrument"
	"github.com/bookdesk/bookdesk/eventstore/internal/sqlfilter"
	"github.com/bookdesk/bookdesk/eventstore/postgresengine/internal/adapters"
)

const (
	defaultEventTableName          = "events"
	defaultSnapshotTableName       = "snapshots"
	engineName                     = "postgres"
	logMsgBuildSelectQueryFailed   = "failed to build select query"
	logMsgDBQueryFailed            = "database query execution failed"
	logMsgCloseRowsFailed          = "failed to close database rows"
	logMsgScanRowFailed            = "failed to scan database row"
	logMsgBuildStorableEventFailed = "failed to build storable event from database row"
	logMsgBuildInsertQueryFailed   = "failed to build insert query"
	logMsgDBExecFailed             = "database execution failed during event append"
	logMsgRowsAffectedFailed       = "failed to get rows affected count"
	logActionQuery                 = "query"
	logActionAppend                = "append"
	cteContext                     = "context"
	cteVals                        = "vals"
	dialectPostgres                = "postgres"
	aliasMaxSeq                    = "max_seq"
	castText                       = "?::text"
	castTimestamp                  = "?::timestamp with time zone"
	castJsonb                      = "?::jsonb"
	predicateContains              = "? @> ?::jsonb"
)

type (
	sqlQueryString    = string
	rowsAffectedInt64 = int64
)

// EventStore implements the eventstore contract on PostgreSQL.
// It runs on pgxpool.Pool (optionally with a read replica), sql.DB or sqlx.DB.
type EventStore struct {
	db                adapters.DBAdapter
	eventTableName    string
	snapshotTableName string
	observer          instrument.Observer
}

type queryResultRow struct {
	eventType      string
	payload        []byte
	metadata       []byte
	occurredAt     time.Time
	sequenceNumber int64
}

// NewEventStoreFromPGXPool creates a new EventStore using a pgx Pool with optional configuration.
func NewEventStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapter(db), options...)
}

// NewEventStoreFromPGXPoolAndReplica creates a new EventStore which runs queries with eventual consistency
// (see eventstore.WithEventualConsistency) against the replica and everything else against the primary.
func NewEventStoreFromPGXPoolAndReplica(primary *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (*EventStore, error) {
	if primary == nil || replica == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapterWithReplica(primary, replica), options...)
}

// NewEventStoreFromSQLDB creates a new EventStore using a sql.DB with optional configuration.
func NewEventStoreFromSQLDB(db *sql.DB, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLAdapter(db), options...)
}

// NewEventStoreFromSQLX creates a new EventStore using a sqlx.DB with optional configuration.
func NewEventStoreFromSQLX(db *sqlx.DB, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapter(db), options...)
}

func newEventStore(db adapters.DBAdapter, options ...Option) (*EventStore, error) {
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

// Query retrieves events from the Postgres event store based on the provided eventstore.Filter criteria
// and returns them as eventstore.StorableEvents
// as well as the MaxSequenceNumberUint for this "dynamic event stream" at the time of the query.
func (es *EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	var empty eventstore.StorableEvents

	observation, ctx := es.observer.StartQuery(ctx)

	sqlQuery, args, buildQueryErr := es.buildSelectQuery(filter)
	if buildQueryErr != nil {
		es.observer.LogError(ctx, logMsgBuildSelectQueryFailed, buildQueryErr)
		observation.Error(instrument.ErrorTypeBuildQuery)

		return empty, 0, buildQueryErr
	}

	start := time.Now()
	rows, queryErr := es.db.Query(ctx, sqlQuery, args...)
	es.observer.LogStatement(ctx, logActionQuery, sqlQuery, time.Since(start))

	if queryErr != nil {
		es.observer.LogError(ctx, logMsgDBQueryFailed, queryErr, instrument.LogAttrQuery, sqlQuery)
		observation.Error(instrument.ErrorTypeDatabaseQuery)

		return empty, 0, errors.Join(eventstore.ErrQueryingEventsFailed, queryErr)
	}
	defer es.closeRows(ctx, rows)

	eventStream, maxSequenceNumber, errorType, scanErr := es.processQueryResults(ctx, rows)
	if scanErr != nil {
		observation.Error(errorType)
		return empty, 0, scanErr
	}

	observation.Success(eventStream, maxSequenceNumber)

	return eventStream, maxSequenceNumber, nil
}

func (es *EventStore) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		es.observer.LogWarn(ctx, logMsgCloseRowsFailed, closeErr)
	}
}

// processQueryResults converts database rows to storable events.
func (es *EventStore) processQueryResults(ctx context.Context, rows adapters.DBRows) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	string,
	error,
) {

	result := queryResultRow{}
	eventStream := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for rows.Next() {
		rowScanErr := rows.Scan(&result.eventType, &result.occurredAt, &result.payload, &result.metadata, &result.sequenceNumber)
		if rowScanErr != nil {
			es.observer.LogError(ctx, logMsgScanRowFailed, rowScanErr)
			return nil, 0, instrument.ErrorTypeRowScan, errors.Join(eventstore.ErrScanningDBRowFailed, rowScanErr)
		}

		event, buildStorableErr := eventstore.BuildStorableEvent(result.eventType, result.occurredAt, result.payload, result.metadata)
		if buildStorableErr != nil {
			es.observer.LogError(ctx, logMsgBuildStorableEventFailed, buildStorableErr, instrument.LogAttrEventType, result.eventType)

			return nil, 0, instrument.ErrorTypeBuildStorableEvent,
				errors.Join(eventstore.ErrBuildingStorableEventFailed, buildStorableErr)
		}

		eventStream = append(eventStream, event)
		maxSequenceNumber = eventstore.MaxSequenceNumberUint(result.sequenceNumber) //nolint:gosec
	}

	if err := rows.Err(); err != nil {
		es.observer.LogError(ctx, logMsgScanRowFailed, err)
		return nil, 0, instrument.ErrorTypeRowScan, errors.Join(eventstore.ErrQueryingEventsFailed, err)
	}

	return eventStream, maxSequenceNumber, "", nil
}

// Append attempts to append one or multiple eventstore.StorableEvent(s) onto the Postgres event store respecting
// concurrency constraints for this "dynamic event stream" based on the provided eventstore.Filter criteria and the
// expected MaxSequenceNumberUint.
//
// The provided eventstore.Filter criteria should be the same as the ones used for the Query before making the business decisions.
//
// The insert query to append multiple events atomically is heavier than the one built to append a single event.
// In event-sourced applications, one command/request should typically only produce one event.
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

	sqlQuery, args, buildQueryErr := es.buildAppendQuery(allEvents, filter, expectedMaxSequenceNumber)
	if buildQueryErr != nil {
		es.observer.LogError(ctx, logMsgBuildInsertQueryFailed, buildQueryErr, instrument.LogAttrEventCount, len(allEvents))
		observation.Error(instrument.ErrorTypeBuildQuery)

		return buildQueryErr
	}

	rowsAffected, errorType, execErr := es.executeAppendQuery(ctx, sqlQuery, args)
	if execErr != nil {
		observation.Error(errorType)
		return execErr
	}

	if rowsAffected < int64(len(allEvents)) {
		observation.Conflict(rowsAffected)
		return eventstore.ErrConcurrencyConflict
	}

	observation.Success(rowsAffected)

	return nil
}

func (es *EventStore) buildAppendQuery(
	allEvents eventstore.StorableEvents,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (sqlQueryString, []any, error) {

	if len(allEvents) == 1 {
		return es.buildInsertQueryForSingleEvent(allEvents[0], filter, expectedMaxSequenceNumber)
	}

	return es.buildInsertQueryForMultipleEvents(allEvents, filter, expectedMaxSequenceNumber)
}

func (es *EventStore) executeAppendQuery(ctx context.Context, sqlQuery string, args []any) (
	rowsAffectedInt64,
	string,
	error,
) {

	start := time.Now()
	result, execErr := es.db.Exec(ctx, sqlQuery, args...)
	es.observer.LogStatement(ctx, logActionAppend, sqlQuery, time.Since(start))

	if execErr != nil {
		es.observer.LogError(ctx, logMsgDBExecFailed, execErr, instrument.LogAttrQuery, sqlQuery)
		return 0, instrument.ErrorTypeDatabaseExec, errors.Join(eventstore.ErrAppendingEventFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		es.observer.LogError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)
		return 0, instrument.ErrorTypeRowsAffected, errors.Join(eventstore.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, "", nil
}

// dialect renders predicates as jsonb containment, so the GIN index on payload is used.
func dialect() sqlfilter.Dialect {
	return sqlfilter.Dialect{
		Predicate: func(key, val string) (exp.Expression, error) {
			document, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(map[string]string{key: val})
			if err != nil {
				return nil, err
			}

			return goqu.L(predicateContains, goqu.C(sqlfilter.ColPayload), document), nil
		},
	}
}

func (es *EventStore) buildSelectQuery(filter eventstore.Filter) (sqlQueryString, []any, error) {
	where, err := sqlfilter.Where(filter, dialect())
	if err != nil {
		return "", nil, errors.Join(eventstore.ErrBuildingQueryFailed, err)
	}

	sqlQuery, args, toSQLErr := goqu.Dialect(dialectPostgres).
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
	if toSQLErr != nil {
		return "", nil, errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, args, nil
}

// maxSequenceCTE selects the current max sequence number of the filtered stream.
func (es *EventStore) maxSequenceCTE(filter eventstore.Filter) (*goqu.SelectDataset, error) {
	where, err := sqlfilter.Where(filter, dialect())
	if err != nil {
		return nil, errors.Join(eventstore.ErrBuildingQueryFailed, err)
	}

	return goqu.Dialect(dialectPostgres).
		From(es.eventTableName).
		Select(goqu.MAX(sqlfilter.ColSequenceNumber).As(aliasMaxSeq)).
		Where(where), nil
}

func (es *EventStore) buildInsertQueryForSingleEvent(
	event eventstore.StorableEvent,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (sqlQueryString, []any, error) {

	builder := goqu.Dialect(dialectPostgres)

	cteStmt, err := es.maxSequenceCTE(filter)
	if err != nil {
		return "", nil, err
	}

	selectStmt := builder.
		From(cteContext).
		Select(
			goqu.L(castText, event.EventType),
			goqu.L(castTimestamp, event.OccurredAt),
			goqu.L(castJsonb, string(event.PayloadJSON)),
			goqu.L(castJsonb, string(event.MetadataJSON))).
		Where(goqu.COALESCE(goqu.C(aliasMaxSeq), 0).Eq(goqu.V(int64(expectedMaxSequenceNumber)))) //nolint:gosec

	sqlQuery, args, toSQLErr := builder.
		Insert(es.eventTableName).
		Prepared(true).
		Cols(sqlfilter.ColEventType, sqlfilter.ColOccurredAt, sqlfilter.ColPayload, sqlfilter.ColMetadata).
		FromQuery(selectStmt).
		With(cteContext, cteStmt).
		ToSQL()
	if toSQLErr != nil {
		return "", nil, errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, args, nil
}

func (es *EventStore) buildInsertQueryForMultipleEvents(
	events []eventstore.StorableEvent,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (sqlQueryString, []any, error) {

	builder := goqu.Dialect(dialectPostgres)

	cteStmt, err := es.maxSequenceCTE(filter)
	if err != nil {
		return "", nil, err
	}

	// one SELECT per event, combined with UNION ALL, keeps the order of sequence numbers equal to the order of events
	valuesStmt := builder.Select(eventColumns(events[0])...)
	for _, event := range events[1:] {
		valuesStmt = valuesStmt.UnionAll(builder.Select(eventColumns(event)...))
	}

	valsColumn := func(column string) string {
		return fmt.Sprintf("%s.%s", cteVals, column)
	}

	sqlQuery, args, toSQLErr := builder.
		Insert(es.eventTableName).
		Prepared(true).
		Cols(sqlfilter.ColEventType, sqlfilter.ColOccurredAt, sqlfilter.ColPayload, sqlfilter.ColMetadata).
		With(cteContext, cteStmt).
		With(cteVals, valuesStmt).
		FromQuery(
			builder.From(cteContext, cteVals).
				Select(
					valsColumn(sqlfilter.ColEventType),
					valsColumn(sqlfilter.ColOccurredAt),
					valsColumn(sqlfilter.ColPayload),
					valsColumn(sqlfilter.ColMetadata)).
				Where(goqu.COALESCE(goqu.C(aliasMaxSeq), 0).Eq(goqu.V(int64(expectedMaxSequenceNumber)))), //nolint:gosec
		).
		ToSQL()
	if toSQLErr != nil {
		return "", nil, errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, args, nil
}

func eventColumns(event eventstore.StorableEvent) []any {
	return []any{
		goqu.L(castText, event.EventType).As(sqlfilter.ColEventType),
		goqu.L(castTimestamp, event.OccurredAt).As(sqlfilter.ColOccurredAt),
		goqu.L(castJsonb, string(event.PayloadJSON)).As(sqlfilter.ColPayload),
		goqu.L(castJsonb, string(event.MetadataJSON)).As(sqlfilter.ColMetadata),
	}
}
