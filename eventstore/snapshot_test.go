package eventstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_BuildSnapshot(t *testing.T) {
	snapshot, err := BuildSnapshot("Catalog", "sha256:abc", 12, []byte(`{"Books":[]}`))

	assert.NoError(t, err)
	assert.Equal(t, "Catalog", snapshot.ProjectionType)
	assert.Equal(t, uint(12), snapshot.SequenceNumber)
	assert.False(t, snapshot.CreatedAt.IsZero())
}

func Test_BuildSnapshot_ValidationErrors(t *testing.T) {
	_, err := BuildSnapshot("", "sha256:abc", 1, []byte(`{}`))
	assert.ErrorIs(t, err, ErrEmptyProjectionType)

	_, err = BuildSnapshot("Catalog", "", 1, []byte(`{}`))
	assert.ErrorIs(t, err, ErrEmptyFilterHash)

	_, err = BuildSnapshot("Catalog", "sha256:abc", 1, []byte(`{"Books":`))
	assert.ErrorIs(t, err, ErrInvalidSnapshotJSON)
}

func Test_Snapshot_Supersedes(t *testing.T) {
	stored := &Snapshot{ProjectionType: "Catalog", FilterHash: "sha256:abc", SequenceNumber: 10}

	assert.True(t, Snapshot{SequenceNumber: 11}.Supersedes(stored))
	assert.True(t, Snapshot{SequenceNumber: 10}.Supersedes(stored))
	assert.False(t, Snapshot{SequenceNumber: 9}.Supersedes(stored))
	assert.True(t, Snapshot{SequenceNumber: 1}.Supersedes(nil))
}
