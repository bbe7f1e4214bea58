package enginetest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/eventstore"
)

// RunSnapshotContract runs the snapshot suite against the engine created by factory.
//
//nolint:funlen
func RunSnapshotContract(t *testing.T, factory Factory) {
	t.Run("SaveAndLoad_Snapshot", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		es := factory(t, Collaborators{})
		filter := FilterAllEventTypesForOneBook(GivenUniqueID(t))
		snapshot, err := eventstore.BuildSnapshot("Catalog", filter.Hash(), 42, json.RawMessage(`{"books":[{"id":"b1"}],"count":1}`))
		require.NoError(t, err)

		// act
		saveErr := es.SaveSnapshot(ctx, snapshot)
		loaded, loadErr := es.LoadSnapshot(ctx, "Catalog", filter)

		// assert
		require.NoError(t, saveErr)
		require.NoError(t, loadErr)
		require.NotNil(t, loaded)
		assert.Equal(t, snapshot.ProjectionType, loaded.ProjectionType)
		assert.Equal(t, snapshot.FilterHash, loaded.FilterHash)
		assert.Equal(t, snapshot.SequenceNumber, loaded.SequenceNumber)
		assert.JSONEq(t, string(snapshot.Data), string(loaded.Data))
		assert.WithinDuration(t, snapshot.CreatedAt, loaded.CreatedAt, time.Second)
	})

	t.Run("LoadSnapshot_IfSnapshotIs_NotFound", func(t *testing.T) {
		es := factory(t, Collaborators{})

		loaded, err := es.LoadSnapshot(context.Background(), "NonExistentProjection", FilterAllEventTypesForOneBook(GivenUniqueID(t)))

		assert.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("SaveSnapshot_ValidatesInput", func(t *testing.T) {
		es := factory(t, Collaborators{})
		hash := FilterAllEventTypesForOneBook(GivenUniqueID(t)).Hash()

		tests := []struct {
			name     string
			snapshot eventstore.Snapshot
			expected error
		}{
			{"empty projection type", eventstore.Snapshot{FilterHash: hash, Data: json.RawMessage(`{}`)}, eventstore.ErrEmptyProjectionType},
			{"empty filter hash", eventstore.Snapshot{ProjectionType: "Catalog", Data: json.RawMessage(`{}`)}, eventstore.ErrEmptyFilterHash},
			{"invalid json", eventstore.Snapshot{ProjectionType: "Catalog", FilterHash: hash, Data: json.RawMessage(`{broken`)}, eventstore.ErrInvalidSnapshotJSON},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := es.SaveSnapshot(context.Background(), tt.snapshot)
				assert.ErrorIs(t, err, tt.expected)
			})
		}
	})

	t.Run("Snapshot_PreservesHigherSequence_WhenTryToUpsertWithLowerSequence", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		es := factory(t, Collaborators{})
		filter := FilterAllEventTypesForOneBook(GivenUniqueID(t))
		newer, err := eventstore.BuildSnapshot("Catalog", filter.Hash(), 100, json.RawMessage(`{"books":[],"count":0}`))
		require.NoError(t, err)
		older, err := eventstore.BuildSnapshot("Catalog", filter.Hash(), 50, json.RawMessage(`{"books":[{"id":"old"}],"count":1}`))
		require.NoError(t, err)
		require.NoError(t, es.SaveSnapshot(ctx, newer))

		// act
		err = es.SaveSnapshot(ctx, older)

		// assert
		require.NoError(t, err)
		loaded, loadErr := es.LoadSnapshot(ctx, "Catalog", filter)
		require.NoError(t, loadErr)
		require.NotNil(t, loaded)
		assert.Equal(t, eventstore.MaxSequenceNumberUint(100), loaded.SequenceNumber)
		assert.JSONEq(t, `{"books":[],"count":0}`, string(loaded.Data))
	})

	t.Run("Snapshots_WithSameFilter_UpsertsSnapshot", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		es := factory(t, Collaborators{})
		filter := FilterAllEventTypesForOneBook(GivenUniqueID(t))
		first, err := eventstore.BuildSnapshot("Catalog", filter.Hash(), 1, json.RawMessage(`{"count":1}`))
		require.NoError(t, err)
		second, err := eventstore.BuildSnapshot("Catalog", filter.Hash(), 2, json.RawMessage(`{"count":2}`))
		require.NoError(t, err)

		// act
		require.NoError(t, es.SaveSnapshot(ctx, first))
		require.NoError(t, es.SaveSnapshot(ctx, second))

		// assert
		loaded, loadErr := es.LoadSnapshot(ctx, "Catalog", filter)
		require.NoError(t, loadErr)
		require.NotNil(t, loaded)
		assert.Equal(t, eventstore.MaxSequenceNumberUint(2), loaded.SequenceNumber)
		assert.JSONEq(t, `{"count":2}`, string(loaded.Data))
	})

	t.Run("Snapshots_WithDifferentFilters_CreateDifferentSnapshots", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		es := factory(t, Collaborators{})
		filterA := FilterAllEventTypesForOneBook(GivenUniqueID(t))
		filterB := FilterAllEventTypesForOneBook(GivenUniqueID(t))
		snapshotA, err := eventstore.BuildSnapshot("Catalog", filterA.Hash(), 1, json.RawMessage(`{"name":"a"}`))
		require.NoError(t, err)
		snapshotB, err := eventstore.BuildSnapshot("Catalog", filterB.Hash(), 2, json.RawMessage(`{"name":"b"}`))
		require.NoError(t, err)

		// act
		require.NoError(t, es.SaveSnapshot(ctx, snapshotA))
		require.NoError(t, es.SaveSnapshot(ctx, snapshotB))

		// assert
		loadedA, errA := es.LoadSnapshot(ctx, "Catalog", filterA)
		loadedB, errB := es.LoadSnapshot(ctx, "Catalog", filterB)
		require.NoError(t, errA)
		require.NoError(t, errB)
		require.NotNil(t, loadedA)
		require.NotNil(t, loadedB)
		assert.JSONEq(t, `{"name":"a"}`, string(loadedA.Data))
		assert.JSONEq(t, `{"name":"b"}`, string(loadedB.Data))
	})

	t.Run("DeleteSnapshot", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		es := factory(t, Collaborators{})
		filter := FilterAllEventTypesForOneBook(GivenUniqueID(t))
		snapshot, err := eventstore.BuildSnapshot("Catalog", filter.Hash(), 7, json.RawMessage(`{}`))
		require.NoError(t, err)
		require.NoError(t, es.SaveSnapshot(ctx, snapshot))

		// act
		deleteErr := es.DeleteSnapshot(ctx, "Catalog", filter)

		// assert
		require.NoError(t, deleteErr)
		loaded, loadErr := es.LoadSnapshot(ctx, "Catalog", filter)
		require.NoError(t, loadErr)
		assert.Nil(t, loaded)
	})

	t.Run("DeleteSnapshot_Is_Idempotent", func(t *testing.T) {
		es := factory(t, Collaborators{})

		err := es.DeleteSnapshot(context.Background(), "Catalog", FilterAllEventTypesForOneBook(GivenUniqueID(t)))

		assert.NoError(t, err)
	})
}
