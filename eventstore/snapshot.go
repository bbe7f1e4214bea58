package eventstore

import (
	"encoding/json"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var (
	ErrInvalidSnapshotJSON    = errors.New("snapshot json is not valid")
	ErrEmptyProjectionType    = errors.New("projection type must not be empty")
	ErrEmptyFilterHash        = errors.New("filter hash must not be empty")
	ErrSavingSnapshotFailed   = errors.New("saving snapshot failed")
	ErrLoadingSnapshotFailed  = errors.New("loading snapshot failed")
	ErrDeletingSnapshotFailed = errors.New("deleting snapshot failed")
)

// Snapshot is a serialized projection keyed by (ProjectionType, FilterHash).
// It covers every matching event up to and including SequenceNumber, so a reader
// only has to project the events appended after it.
type Snapshot struct {
	ProjectionType string
	FilterHash     string
	SequenceNumber MaxSequenceNumberUint
	Data           json.RawMessage
	CreatedAt      time.Time
}

func (s Snapshot) Validate() error {
	switch {
	case s.ProjectionType == "":
		return ErrEmptyProjectionType
	case s.FilterHash == "":
		return ErrEmptyFilterHash
	case !jsoniter.ConfigFastest.Valid(s.Data):
		return ErrInvalidSnapshotJSON
	}

	return nil
}

// Supersedes reports whether s may replace stored. Engines never let an older
// projection overwrite a newer one of the same key.
func (s Snapshot) Supersedes(stored *Snapshot) bool {
	return stored == nil || s.SequenceNumber >= stored.SequenceNumber
}

// BuildSnapshot stamps the snapshot with the current UTC time and validates it.
func BuildSnapshot(
	projectionType string,
	filterHash string,
	sequenceNumber MaxSequenceNumberUint,
	data json.RawMessage,
) (Snapshot, error) {

	snapshot := Snapshot{
		ProjectionType: projectionType,
		FilterHash:     filterHash,
		SequenceNumber: sequenceNumber,
		Data:           data,
		CreatedAt:      time.Now().UTC(),
	}

	if err := snapshot.Validate(); err != nil {
		return Snapshot{}, err
	}

	return snapshot, nil
}
