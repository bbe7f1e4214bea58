package sqliteengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/eventstore/internal/instrument"
)

const (
	logActionSaveSnapshot   = "save snapshot"
	logActionLoadSnapshot   = "load snapshot"
	logActionDeleteSnapshot = "delete snapshot"
	createdAtLayout         = time.RFC3339Nano
)

// SaveSnapshot upserts the snapshot for (projection type, filter hash).
// A stored snapshot with a higher sequence number is kept.
func (es *EventStore) SaveSnapshot(ctx context.Context, snapshot eventstore.Snapshot) error {
	observation, ctx := es.observer.StartSnapshot(ctx, instrument.OperationSaveSnapshot, snapshot.ProjectionType)

	if err := snapshot.Validate(); err != nil {
		observation.Error(instrument.ErrorTypeValidation)
		return err
	}

	// goqu has no conditional DO UPDATE for sqlite3, so the upsert is plain SQL
	statement := fmt.Sprintf(`INSERT INTO %q (projection_type, filter_hash, sequence_number, snapshot_data, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (projection_type, filter_hash) DO UPDATE SET
			sequence_number = excluded.sequence_number,
			snapshot_data = excluded.snapshot_data,
			created_at = excluded.created_at
		WHERE excluded.sequence_number >= %q.sequence_number`, es.snapshotTableName, es.snapshotTableName)

	start := time.Now()
	_, err := es.db.ExecContext(ctx, statement,
		snapshot.ProjectionType,
		snapshot.FilterHash,
		int64(snapshot.SequenceNumber), //nolint:gosec
		string(snapshot.Data),
		snapshot.CreatedAt.UTC().Format(createdAtLayout),
	)
	es.observer.LogStatement(ctx, logActionSaveSnapshot, statement, time.Since(start))

	if err != nil {
		es.observer.LogError(ctx, logMsgDBExecFailed, err, instrument.LogAttrProjectionType, snapshot.ProjectionType)
		observation.Error(instrument.ErrorTypeDatabaseExec)

		return errors.Join(eventstore.ErrSavingSnapshotFailed, err)
	}

	observation.Success(instrument.LogMsgSnapshotSaved, snapshot.SequenceNumber)

	return nil
}

// LoadSnapshot returns nil, nil when no snapshot exists for (projectionType, filter).
func (es *EventStore) LoadSnapshot(
	ctx context.Context,
	projectionType string,
	filter eventstore.Filter,
) (*eventstore.Snapshot, error) {

	observation, ctx := es.observer.StartSnapshot(ctx, instrument.OperationLoadSnapshot, projectionType)
	filterHash := filter.Hash()

	sqlQuery, args, err := goqu.Dialect(dialectSQLite).
		From(es.snapshotTableName).
		Prepared(true).
		Select("sequence_number", "snapshot_data", "created_at").
		Where(goqu.Ex{"projection_type": projectionType, "filter_hash": filterHash}).
		ToSQL()
	if err != nil {
		observation.Error(instrument.ErrorTypeBuildQuery)
		return nil, errors.Join(eventstore.ErrLoadingSnapshotFailed, eventstore.ErrBuildingQueryFailed, err)
	}

	var (
		sequenceNumber  int64
		data, createdAt string
	)

	start := time.Now()
	err = es.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&sequenceNumber, &data, &createdAt)
	es.observer.LogStatement(ctx, logActionLoadSnapshot, sqlQuery, time.Since(start))

	switch {
	case errors.Is(err, sql.ErrNoRows):
		observation.Success(instrument.LogMsgSnapshotMissing, 0)
		return nil, nil //nolint:nilnil
	case err != nil:
		es.observer.LogError(ctx, logMsgDBQueryFailed, err, instrument.LogAttrQuery, sqlQuery)
		observation.Error(instrument.ErrorTypeDatabaseQuery)

		return nil, errors.Join(eventstore.ErrLoadingSnapshotFailed, err)
	}

	createdAtTime, err := time.Parse(createdAtLayout, createdAt)
	if err != nil {
		observation.Error(instrument.ErrorTypeRowScan)
		return nil, errors.Join(eventstore.ErrLoadingSnapshotFailed, eventstore.ErrScanningDBRowFailed, err)
	}

	snapshot := &eventstore.Snapshot{
		ProjectionType: projectionType,
		FilterHash:     filterHash,
		SequenceNumber: eventstore.MaxSequenceNumberUint(sequenceNumber), //nolint:gosec
		Data:           []byte(data),
		CreatedAt:      createdAtTime,
	}

	observation.Success(instrument.LogMsgSnapshotLoaded, snapshot.SequenceNumber)

	return snapshot, nil
}

// DeleteSnapshot removes the snapshot; deleting a missing snapshot is not an error.
func (es *EventStore) DeleteSnapshot(ctx context.Context, projectionType string, filter eventstore.Filter) error {
	observation, ctx := es.observer.StartSnapshot(ctx, instrument.OperationDeleteSnapshot, projectionType)
	filterHash := filter.Hash()

	sqlQuery, args, err := goqu.Dialect(dialectSQLite).
		Delete(es.snapshotTableName).
		Prepared(true).
		Where(goqu.Ex{"projection_type": projectionType, "filter_hash": filterHash}).
		ToSQL()
	if err != nil {
		observation.Error(instrument.ErrorTypeBuildQuery)
		return errors.Join(eventstore.ErrDeletingSnapshotFailed, eventstore.ErrBuildingQueryFailed, err)
	}

	start := time.Now()
	_, err = es.db.ExecContext(ctx, sqlQuery, args...)
	es.observer.LogStatement(ctx, logActionDeleteSnapshot, sqlQuery, time.Since(start))

	if err != nil {
		es.observer.LogError(ctx, logMsgDBExecFailed, err, instrument.LogAttrQuery, sqlQuery)
		observation.Error(instrument.ErrorTypeDatabaseExec)

		return errors.Join(eventstore.ErrDeletingSnapshotFailed, err)
	}

	observation.Success(instrument.LogMsgSnapshotDeleted, 0)

	return nil
}
