// Package storewrapper gives handler tests an event store on the engine selected by
// BOOKDESK_TEST_ENGINE: "file" (default), "sqlite" or "postgres" (needs BOOKDESK_TEST_POSTGRES_DSN).
package storewrapper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/eventstore/fileengine"
	"github.com/bookdesk/bookdesk/eventstore/postgresengine"
	"github.com/bookdesk/bookdesk/eventstore/sqliteengine"
)

const (
	envEngine      = "BOOKDESK_TEST_ENGINE"
	envPostgresDSN = "BOOKDESK_TEST_POSTGRES_DSN"

	engineFile     = "file"
	engineSQLite   = "sqlite"
	enginePostgres = "postgres"
)

// EventStore is the complete engine contract.
type EventStore interface {
	Query(ctx context.Context, filter eventstore.Filter) (eventstore.StorableEvents, eventstore.MaxSequenceNumberUint, error)
	Append(
		ctx context.Context,
		filter eventstore.Filter,
		expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
		storableEvent eventstore.StorableEvent,
		storableEvents ...eventstore.StorableEvent,
	) error
	SaveSnapshot(ctx context.Context, snapshot eventstore.Snapshot) error
	LoadSnapshot(ctx context.Context, projectionType string, filter eventstore.Filter) (*eventstore.Snapshot, error)
	DeleteSnapshot(ctx context.Context, projectionType string, filter eventstore.Filter) error
}

// Wrapper owns an event store and whatever it runs on.
type Wrapper interface {
	GetEventStore() EventStore
	Close()
}

type fileWrapper struct {
	es *fileengine.EventStore
}

func (w fileWrapper) GetEventStore() EventStore { return w.es }
func (w fileWrapper) Close()                    { _ = w.es.Close() }

type sqliteWrapper struct {
	es *sqliteengine.EventStore
}

func (w sqliteWrapper) GetEventStore() EventStore { return w.es }
func (w sqliteWrapper) Close()                    { _ = w.es.Close() }

type postgresWrapper struct {
	pool *pgxpool.Pool
	es   *postgresengine.EventStore
}

func (w postgresWrapper) GetEventStore() EventStore { return w.es }
func (w postgresWrapper) Close()                    { w.pool.Close() }

// CreateWrapperWithTestConfig returns an empty store. It is closed by t.Cleanup.
func CreateWrapperWithTestConfig(t testing.TB) Wrapper {
	t.Helper()

	var wrapper Wrapper

	switch engine := os.Getenv(envEngine); engine {
	case "", engineFile:
		es, err := fileengine.Open(t.TempDir(), fileengine.WithoutSync())
		require.NoError(t, err)
		wrapper = fileWrapper{es: es}

	case engineSQLite:
		es, err := sqliteengine.Open(context.Background(), filepath.Join(t.TempDir(), "bookdesk.db"))
		require.NoError(t, err)
		wrapper = sqliteWrapper{es: es}

	case enginePostgres:
		wrapper = newPostgresWrapper(t)

	default:
		t.Fatalf("unknown %s %q", envEngine, engine)
	}

	t.Cleanup(wrapper.Close)

	return wrapper
}

// newPostgresWrapper isolates each test in its own tables.
func newPostgresWrapper(t testing.TB) Wrapper {
	dsn := os.Getenv(envPostgresDSN)
	if dsn == "" {
		t.Skipf("%s is not set", envPostgresDSN)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)

	suffix := uuid.NewString()[:8]

	es, err := postgresengine.NewEventStoreFromPGXPool(
		pool,
		postgresengine.WithTableName(fmt.Sprintf("events_%s", suffix)),
		postgresengine.WithSnapshotTableName(fmt.Sprintf("snapshots_%s", suffix)),
	)
	require.NoError(t, err)
	require.NoError(t, es.EnsureSchema(ctx))

	return postgresWrapper{pool: pool, es: es}
}
