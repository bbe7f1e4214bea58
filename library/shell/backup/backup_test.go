package backup_test

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/eventstore/sqliteengine"
	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/shell/backup"
	"github.com/bookdesk/bookdesk/testutil/helper"
	"github.com/bookdesk/bookdesk/testutil/helper/storewrapper"
)

func givenLibraryHistory(t *testing.T, ctx context.Context, es helper.EventStore) {
	bookID := helper.GivenUniqueID(t)
	memberID := helper.GivenUniqueID(t)
	recordID := helper.GivenUniqueID(t)

	helper.GivenEventsWereAppended(t, ctx, es,
		helper.GivenBookInCatalog(bookID, helper.FakeClock()),
		helper.GivenMember(memberID, helper.FakeClock()),
	)
	helper.GivenEventsWereAppended(t, ctx, es,
		helper.LoanEvents(recordID, bookID, memberID, helper.FakeClock(), core.LoanStatusApproved, core.LoanStatusReturned)...,
	)
}

func Test_ObjectKey(t *testing.T) {
	at := time.Date(2025, 3, 3, 9, 30, 0, 0, time.FixedZone("CET", 3600))

	assert.Equal(t, "nightly/events-20250303T083000.000000000Z.jsonl", backup.ObjectKey("/nightly/", at))
	assert.Equal(t, "events-20250303T083000.000000000Z.jsonl", backup.ObjectKey("", at))
}

func Test_ExportAndRestore_RoundTrip(t *testing.T) {
	// arrange
	ctx := context.Background()
	source := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	restored := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	givenLibraryHistory(t, ctx, source)

	target, err := backup.NewFSTarget(t.TempDir())
	require.NoError(t, err)

	// act
	exported, err := backup.Export(ctx, source, target, "bookdesk", helper.FakeClock())
	require.NoError(t, err)

	latest, err := backup.LatestKey(ctx, target, "bookdesk")
	require.NoError(t, err)

	result, err := backup.Restore(ctx, restored, target, latest)

	// assert
	require.NoError(t, err)
	assert.Equal(t, exported.Key, latest)
	assert.Equal(t, exported.Events, result.Events)

	filter := eventstore.BuildEventFilter().MatchingAnyEvent()
	want, _, err := source.Query(ctx, filter)
	require.NoError(t, err)
	got, maxSeq, err := restored.Query(ctx, filter)
	require.NoError(t, err)

	require.Len(t, got, len(want))
	assert.Equal(t, eventstore.MaxSequenceNumberUint(len(want)), maxSeq)

	for i := range want {
		assert.Equal(t, want[i].EventType, got[i].EventType)
		assert.True(t, want[i].OccurredAt.Equal(got[i].OccurredAt))
		assert.JSONEq(t, string(want[i].PayloadJSON), string(got[i].PayloadJSON))
		assert.JSONEq(t, string(want[i].MetadataJSON), string(got[i].MetadataJSON))
	}
}

func givenManyBooks(t *testing.T, ctx context.Context, es helper.EventStore, count int) {
	events := make(eventstore.StorableEvents, 0, count)
	for i := range count {
		bookID := fmt.Sprintf("book-%04d", i)
		events = append(events, helper.ToStorable(t, helper.GivenBookInCatalog(bookID, helper.FakeClock().Add(time.Duration(i)*time.Second))))
	}

	filter := eventstore.BuildEventFilter().MatchingAnyEvent()
	require.NoError(t, es.Append(ctx, filter, 0, events[0], events[1:]...), "error in arranging test data")
}

// givenEmptiedSQLiteStore returns a store whose next sequence number is far above 1, as after a wipe.
func givenEmptiedSQLiteStore(t *testing.T, ctx context.Context) *sqliteengine.EventStore {
	path := filepath.Join(t.TempDir(), "bookdesk.db")

	es, err := sqliteengine.Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = es.Close() })

	givenLibraryHistory(t, ctx, es)

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.ExecContext(ctx, `DELETE FROM "events"`)
	require.NoError(t, err, "error in arranging test data")

	return es
}

func Test_Restore_MoreThanOneBatch_IntoStoreWithSequenceGap(t *testing.T) {
	// arrange
	ctx := context.Background()
	source := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	givenManyBooks(t, ctx, source, 1234)

	target, err := backup.NewFSTarget(t.TempDir())
	require.NoError(t, err)
	exported, err := backup.Export(ctx, source, target, "", helper.FakeClock())
	require.NoError(t, err)

	restored := givenEmptiedSQLiteStore(t, ctx)

	// act
	result, err := backup.Restore(ctx, restored, target, exported.Key)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1234, result.Events)

	events, _, err := restored.Query(ctx, eventstore.BuildEventFilter().MatchingAnyEvent())
	require.NoError(t, err)
	assert.Len(t, events, 1234)
}

func Test_Restore_IntoNonEmptyStore_ShouldFail(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	givenLibraryHistory(t, ctx, es)

	target, err := backup.NewFSTarget(t.TempDir())
	require.NoError(t, err)

	exported, err := backup.Export(ctx, es, target, "", helper.FakeClock())
	require.NoError(t, err)

	// act
	_, err = backup.Restore(ctx, es, target, exported.Key)

	// assert
	assert.ErrorIs(t, err, backup.ErrStoreNotEmpty)
}

func Test_Restore_CorruptExport_ShouldFail(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"not json", "{nope\n"},
		{"sequence gap", `{"seq":2,"type":"BookAddedToCatalog","occurred_at":"2025-03-03T09:00:00Z","payload":{},"metadata":{}}` + "\n"},
		{"unknown event type", `{"seq":1,"type":"SomethingElse","occurred_at":"2025-03-03T09:00:00Z","payload":{},"metadata":{}}` + "\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			ctx := context.Background()
			es := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
			target, err := backup.NewFSTarget(t.TempDir())
			require.NoError(t, err)
			require.NoError(t, target.Put(ctx, "events-broken.jsonl", []byte(tc.body)))

			// act
			_, err = backup.Restore(ctx, es, target, "events-broken.jsonl")

			// assert
			assert.ErrorIs(t, err, backup.ErrCorruptExport)
		})
	}
}

func Test_LatestKey_WithoutExports_ShouldFail(t *testing.T) {
	target, err := backup.NewFSTarget(t.TempDir())
	require.NoError(t, err)

	_, err = backup.LatestKey(context.Background(), target, "bookdesk")

	assert.ErrorIs(t, err, backup.ErrNoBackupFound)
}

func Test_FSTarget_RejectsKeysOutsideRoot(t *testing.T) {
	// arrange
	root := t.TempDir()
	target, err := backup.NewFSTarget(filepath.Join(root, "backups"))
	require.NoError(t, err)

	// act
	err = target.Put(context.Background(), "../escaped.jsonl", []byte("{}"))

	// assert
	assert.ErrorIs(t, err, backup.ErrInvalidKey)
	assert.NoFileExists(t, filepath.Join(root, "escaped.jsonl"))
}

func Test_FSTarget_GetMissing_ShouldFail(t *testing.T) {
	target, err := backup.NewFSTarget(t.TempDir())
	require.NoError(t, err)

	_, err = target.Get(context.Background(), "missing.jsonl")

	assert.ErrorIs(t, err, backup.ErrObjectNotFound)
}
