package postgresengine

import (
	"context"
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
	colProjectionType       = "projection_type"
	colFilterHash           = "filter_hash"
	colSnapshotData         = "snapshot_data"
	colCreatedAt            = "created_at"
	colSequenceNumber       = "sequence_number"
)

// SaveSnapshot upserts the snapshot for (projection type, filter hash).
// A stored snapshot with a higher sequence number is kept.
func (es *EventStore) SaveSnapshot(ctx context.Context, snapshot eventstore.Snapshot) error {
	observation, ctx := es.observer.StartSnapshot(ctx, instrument.OperationSaveSnapshot, snapshot.ProjectionType)

	if err := snapshot.Validate(); err != nil {
		observation.Error(instrument.ErrorTypeValidation)
		return err
	}

	sqlQuery, args, err := goqu.Dialect(dialectPostgres).
		Insert(es.snapshotTableName).
		Prepared(true).
		Rows(goqu.Record{
			colProjectionType: snapshot.ProjectionType,
			colFilterHash:     snapshot.FilterHash,
			colSequenceNumber: int64(snapshot.SequenceNumber), //nolint:gosec
			colSnapshotData:   goqu.L(castJsonb, string(snapshot.Data)),
			colCreatedAt:      snapshot.CreatedAt,
		}).
		OnConflict(goqu.DoUpdate(
			colProjectionType+", "+colFilterHash,
			goqu.Record{
				colSequenceNumber: goqu.I("excluded." + colSequenceNumber),
				colSnapshotData:   goqu.I("excluded." + colSnapshotData),
				colCreatedAt:      goqu.I("excluded." + colCreatedAt),
			}).
			Where(goqu.I("excluded." + colSequenceNumber).Gte(goqu.I(es.snapshotTableName + "." + colSequenceNumber)))).
		ToSQL()
	if err != nil {
		observation.Error(instrument.ErrorTypeBuildQuery)
		return errors.Join(eventstore.ErrSavingSnapshotFailed, eventstore.ErrBuildingQueryFailed, err)
	}

	start := time.Now()
	_, err = es.db.Exec(ctx, sqlQuery, args...)
	es.observer.LogStatement(ctx, logActionSaveSnapshot, sqlQuery, time.Since(start))

	if err != nil {
		es.observer.LogError(ctx, logMsgDBExecFailed, err, instrument.LogAttrQuery, sqlQuery)
		observation.Error(instrument.ErrorTypeDatabaseExec)

		return errors.Join(eventstore.ErrSavingSnapshotFailed, err)
	}

	observation.Success(instrument.LogMsgSnapshotSaved, snapshot.SequenceNumber)

	return nil
}

// LoadSnapshot returns nil, nil when no snapshot exists for (projectionType, filter).
// It always reads from the primary.
func (es *EventStore) LoadSnapshot(
	ctx context.Context,
	projectionType string,
	filter eventstore.Filter,
) (*eventstore.Snapshot, error) {

	observation, ctx := es.observer.StartSnapshot(ctx, instrument.OperationLoadSnapshot, projectionType)
	filterHash := filter.Hash()

	sqlQuery, args, err := goqu.Dialect(dialectPostgres).
		From(es.snapshotTableName).
		Prepared(true).
		Select(colSequenceNumber, colSnapshotData, colCreatedAt).
		Where(goqu.Ex{colProjectionType: projectionType, colFilterHash: filterHash}).
		ToSQL()
	if err != nil {
		observation.Error(instrument.ErrorTypeBuildQuery)
		return nil, errors.Join(eventstore.ErrLoadingSnapshotFailed, eventstore.ErrBuildingQueryFailed, err)
	}

	start := time.Now()
	rows, err := es.db.Query(eventstore.WithStrongConsistency(ctx), sqlQuery, args...)
	es.observer.LogStatement(ctx, logActionLoadSnapshot, sqlQuery, time.Since(start))

	if err != nil {
		es.observer.LogError(ctx, logMsgDBQueryFailed, err, instrument.LogAttrQuery, sqlQuery)
		observation.Error(instrument.ErrorTypeDatabaseQuery)

		return nil, errors.Join(eventstore.ErrLoadingSnapshotFailed, err)
	}
	defer es.closeRows(ctx, rows)

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			observation.Error(instrument.ErrorTypeDatabaseQuery)
			return nil, errors.Join(eventstore.ErrLoadingSnapshotFailed, err)
		}

		observation.Success(instrument.LogMsgSnapshotMissing, 0)

		return nil, nil //nolint:nilnil
	}

	var (
		sequenceNumber int64
		data           []byte
		createdAt      time.Time
	)

	if err = rows.Scan(&sequenceNumber, &data, &createdAt); err != nil {
		es.observer.LogError(ctx, logMsgScanRowFailed, err)
		observation.Error(instrument.ErrorTypeRowScan)

		return nil, errors.Join(eventstore.ErrLoadingSnapshotFailed, eventstore.ErrScanningDBRowFailed, err)
	}

	snapshot := &eventstore.Snapshot{
		ProjectionType: projectionType,
		FilterHash:     filterHash,
		SequenceNumber: eventstore.MaxSequenceNumberUint(sequenceNumber), //nolint:gosec
		Data:           data,
		CreatedAt:      createdAt,
	}

	observation.Success(instrument.LogMsgSnapshotLoaded, snapshot.SequenceNumber)

	return snapshot, nil
}

// DeleteSnapshot removes the snapshot; deleting a missing snapshot is not an error.
func (es *EventStore) DeleteSnapshot(ctx context.Context, projectionType string, filter eventstore.Filter) error {
	observation, ctx := es.observer.StartSnapshot(ctx, instrument.OperationDeleteSnapshot, projectionType)

	sqlQuery, args, err := goqu.Dialect(dialectPostgres).
		Delete(es.snapshotTableName).
		Prepared(true).
		Where(goqu.Ex{colProjectionType: projectionType, colFilterHash: filter.Hash()}).
		ToSQL()
	if err != nil {
		observation.Error(instrument.ErrorTypeBuildQuery)
		return errors.Join(eventstore.ErrDeletingSnapshotFailed, eventstore.ErrBuildingQueryFailed, err)
	}

	start := time.Now()
	_, err = es.db.Exec(ctx, sqlQuery, args...)
	es.observer.LogStatement(ctx, logActionDeleteSnapshot, sqlQuery, time.Since(start))

	if err != nil {
		es.observer.LogError(ctx, logMsgDBExecFailed, err, instrument.LogAttrQuery, sqlQuery)
		observation.Error(instrument.ErrorTypeDatabaseExec)

		return errors.Join(eventstore.ErrDeletingSnapshotFailed, fmt.Errorf("delete %s: %w", projectionType, err))
	}

	observation.Success(instrument.LogMsgSnapshotDeleted, 0)

	return nil
}
