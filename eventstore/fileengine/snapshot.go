package fileengine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/eventstore/internal/instrument"
)

var unsafeFileNameChars = regexp.MustCompile(`[^A-Za-z0-9_.]+`)

type snapshotFile struct {
	ProjectionType string                           `json:"projection_type"`
	FilterHash     string                           `json:"filter_hash"`
	SequenceNumber eventstore.MaxSequenceNumberUint `json:"sequence_number"`
	Data           jsoniter.RawMessage              `json:"data"`
	CreatedAt      time.Time                        `json:"created_at"`
}

// SaveSnapshot upserts the snapshot for (projection type, filter hash).
// A stored snapshot with a higher sequence number is kept.
func (es *EventStore) SaveSnapshot(ctx context.Context, snapshot eventstore.Snapshot) error {
	observation, ctx := es.observer.StartSnapshot(ctx, instrument.OperationSaveSnapshot, snapshot.ProjectionType)

	if err := snapshot.Validate(); err != nil {
		observation.Error(instrument.ErrorTypeValidation)
		return err
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	if es.closed {
		observation.Error(instrument.ErrorTypeStoreClosed)
		return eventstore.ErrStoreClosed
	}

	path := es.snapshotPath(snapshot.ProjectionType, snapshot.FilterHash)

	existing, err := readSnapshotFile(path)
	if err != nil {
		es.observer.LogError(ctx, eventstore.ErrSavingSnapshotFailed.Error(), err, logAttrFile, path)
		observation.Error(instrument.ErrorTypeIO)

		return errors.Join(eventstore.ErrSavingSnapshotFailed, err)
	}

	if !snapshot.Supersedes(existing) {
		observation.Success(instrument.LogMsgSnapshotSaved, existing.SequenceNumber)
		return nil
	}

	raw, err := json.Marshal(snapshotFile{
		ProjectionType: snapshot.ProjectionType,
		FilterHash:     snapshot.FilterHash,
		SequenceNumber: snapshot.SequenceNumber,
		Data:           jsoniter.RawMessage(snapshot.Data),
		CreatedAt:      snapshot.CreatedAt,
	})
	if err != nil {
		observation.Error(instrument.ErrorTypeBuildQuery)
		return errors.Join(eventstore.ErrSavingSnapshotFailed, err)
	}

	start := time.Now()
	err = es.writeFileAtomically(path, raw)
	es.observer.LogStatement(ctx, instrument.OperationSaveSnapshot, path, time.Since(start))

	if err != nil {
		es.observer.LogError(ctx, eventstore.ErrSavingSnapshotFailed.Error(), err, logAttrFile, path)
		observation.Error(instrument.ErrorTypeIO)

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

	es.mu.RLock()
	defer es.mu.RUnlock()

	if es.closed {
		observation.Error(instrument.ErrorTypeStoreClosed)
		return nil, eventstore.ErrStoreClosed
	}

	path := es.snapshotPath(projectionType, filter.Hash())

	stored, err := readSnapshotFile(path)
	if err != nil {
		es.observer.LogError(ctx, eventstore.ErrLoadingSnapshotFailed.Error(), err, logAttrFile, path)
		observation.Error(instrument.ErrorTypeIO)

		return nil, errors.Join(eventstore.ErrLoadingSnapshotFailed, err)
	}

	if stored == nil {
		observation.Success(instrument.LogMsgSnapshotMissing, 0)
		return nil, nil //nolint:nilnil
	}

	observation.Success(instrument.LogMsgSnapshotLoaded, stored.SequenceNumber)

	return stored, nil
}

// DeleteSnapshot removes the snapshot for (projectionType, filter). Deleting a missing snapshot is not an error.
func (es *EventStore) DeleteSnapshot(ctx context.Context, projectionType string, filter eventstore.Filter) error {
	observation, ctx := es.observer.StartSnapshot(ctx, instrument.OperationDeleteSnapshot, projectionType)

	es.mu.Lock()
	defer es.mu.Unlock()

	if es.closed {
		observation.Error(instrument.ErrorTypeStoreClosed)
		return eventstore.ErrStoreClosed
	}

	path := es.snapshotPath(projectionType, filter.Hash())

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		es.observer.LogError(ctx, eventstore.ErrDeletingSnapshotFailed.Error(), err, logAttrFile, path)
		observation.Error(instrument.ErrorTypeIO)

		return errors.Join(eventstore.ErrDeletingSnapshotFailed, err)
	}

	observation.Success(instrument.LogMsgSnapshotDeleted, 0)

	return nil
}

func (es *EventStore) snapshotPath(projectionType, filterHash string) string {
	hash := strings.TrimPrefix(filterHash, "sha256:")
	name := unsafeFileNameChars.ReplaceAllString(projectionType, "_") + "-" + unsafeFileNameChars.ReplaceAllString(hash, "_") + ".json"

	return filepath.Join(es.dir, snapshotsDirName, name)
}

func (es *EventStore) writeFileAtomically(path string, raw []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return err
	}

	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}

	if es.sync {
		if err = tmp.Sync(); err != nil {
			_ = tmp.Close()
			return err
		}
	}

	if err = tmp.Close(); err != nil {
		return err
	}

	if err = os.Chmod(tmp.Name(), es.fileMode); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

func readSnapshotFile(path string) (*eventstore.Snapshot, error) {
	raw, err := os.ReadFile(path) //nolint:gosec
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil //nolint:nilnil
	}

	if err != nil {
		return nil, err
	}

	var stored snapshotFile
	if err = json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}

	return &eventstore.Snapshot{
		ProjectionType: stored.ProjectionType,
		FilterHash:     stored.FilterHash,
		SequenceNumber: stored.SequenceNumber,
		Data:           []byte(stored.Data),
		CreatedAt:      stored.CreatedAt,
	}, nil
}
