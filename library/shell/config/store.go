package config

import (
	"context"
	"fmt"
	"os"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/eventstore/fileengine"
	"github.com/bookdesk/bookdesk/eventstore/postgresengine"
	"github.com/bookdesk/bookdesk/eventstore/sqliteengine"
)

// EventStore is what every engine offers: events plus snapshots.
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

// StoreObservability is handed to the engine. Nil members are skipped.
type StoreObservability struct {
	Logger           eventstore.Logger
	ContextualLogger eventstore.ContextualLogger
	Metrics          eventstore.MetricsCollector
	Tracing          eventstore.TracingCollector
}

// OpenedStore owns the store and the connections it runs on.
type OpenedStore struct {
	EventStore
	closers []func() error
}

// Close releases the store and its connections in reverse order of opening.
func (s *OpenedStore) Close() error {
	var err error

	for i := len(s.closers) - 1; i >= 0; i-- {
		if closeErr := s.closers[i](); closeErr != nil && err == nil {
			err = closeErr
		}
	}

	return err
}

// OpenEventStore opens the engine cfg.Kind names. Postgres and sqlite schemas are created if missing.
func OpenEventStore(ctx context.Context, cfg Store, obs StoreObservability) (*OpenedStore, error) {
	switch cfg.Kind {
	case StoreFile, "":
		return openFileStore(cfg, obs)
	case StoreSQLite:
		return openSQLiteStore(ctx, cfg, obs)
	case StorePostgres:
		return openPostgresStore(ctx, cfg, obs)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStoreKind, cfg.Kind)
	}
}

func openFileStore(cfg Store, obs StoreObservability) (*OpenedStore, error) {
	var options []fileengine.Option

	if obs.Logger != nil {
		options = append(options, fileengine.WithLogger(obs.Logger))
	}

	if obs.ContextualLogger != nil {
		options = append(options, fileengine.WithContextualLogger(obs.ContextualLogger))
	}

	if obs.Metrics != nil {
		options = append(options, fileengine.WithMetrics(obs.Metrics))
	}

	if obs.Tracing != nil {
		options = append(options, fileengine.WithTracing(obs.Tracing))
	}

	if !cfg.SyncWrites {
		options = append(options, fileengine.WithoutSync())
	}

	es, err := fileengine.Open(cfg.DataDir, options...)
	if err != nil {
		return nil, err
	}

	return &OpenedStore{EventStore: es, closers: []func() error{es.Close}}, nil
}

func openSQLiteStore(ctx context.Context, cfg Store, obs StoreObservability) (*OpenedStore, error) {
	options := []sqliteengine.Option{
		sqliteengine.WithTableName(cfg.EventsTable),
		sqliteengine.WithSnapshotTableName(cfg.SnapshotsTable),
	}

	if obs.Logger != nil {
		options = append(options, sqliteengine.WithLogger(obs.Logger))
	}

	if obs.ContextualLogger != nil {
		options = append(options, sqliteengine.WithContextualLogger(obs.ContextualLogger))
	}

	if obs.Metrics != nil {
		options = append(options, sqliteengine.WithMetrics(obs.Metrics))
	}

	if obs.Tracing != nil {
		options = append(options, sqliteengine.WithTracing(obs.Tracing))
	}

	if cfg.SQLitePath == "" {
		if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
			return nil, err
		}
	}

	es, err := sqliteengine.Open(ctx, cfg.SQLiteFile(), options...)
	if err != nil {
		return nil, err
	}

	return &OpenedStore{EventStore: es, closers: []func() error{es.Close}}, nil
}

func openPostgresStore(ctx context.Context, cfg Store, obs StoreObservability) (*OpenedStore, error) {
	if cfg.PostgresDSN == "" {
		return nil, ErrMissingPostgresDSN
	}

	options := []postgresengine.Option{
		postgresengine.WithTableName(cfg.EventsTable),
		postgresengine.WithSnapshotTableName(cfg.SnapshotsTable),
	}

	if obs.Logger != nil {
		options = append(options, postgresengine.WithLogger(obs.Logger))
	}

	if obs.ContextualLogger != nil {
		options = append(options, postgresengine.WithContextualLogger(obs.ContextualLogger))
	}

	if obs.Metrics != nil {
		options = append(options, postgresengine.WithMetrics(obs.Metrics))
	}

	if obs.Tracing != nil {
		options = append(options, postgresengine.WithTracing(obs.Tracing))
	}

	opened := &OpenedStore{}

	var (
		es  *postgresengine.EventStore
		err error
	)

	switch cfg.PostgresAdapter {
	case AdapterPGX, "":
		es, err = openPGXStore(ctx, cfg, opened, options)
	case AdapterSQL:
		db, openErr := OpenSQLDB(ctx, cfg.PostgresDSN)
		if openErr != nil {
			return nil, openErr
		}

		opened.closers = append(opened.closers, db.Close)
		es, err = postgresengine.NewEventStoreFromSQLDB(db, options...)
	case AdapterSQLX:
		db, openErr := OpenSQLX(ctx, cfg.PostgresDSN)
		if openErr != nil {
			return nil, openErr
		}

		opened.closers = append(opened.closers, db.Close)
		es, err = postgresengine.NewEventStoreFromSQLX(db, options...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPostgresAdapter, cfg.PostgresAdapter)
	}

	if err == nil {
		err = es.EnsureSchema(ctx)
	}

	if err != nil {
		_ = opened.Close()
		return nil, err
	}

	opened.EventStore = es

	return opened, nil
}

// openPGXStore reads from the replica when one is configured.
func openPGXStore(
	ctx context.Context,
	cfg Store,
	opened *OpenedStore,
	options []postgresengine.Option,
) (*postgresengine.EventStore, error) {

	primary, err := OpenPGXPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	opened.closers = append(opened.closers, closePool(primary.Close))

	if cfg.PostgresReplicaDSN == "" {
		return postgresengine.NewEventStoreFromPGXPool(primary, options...)
	}

	replica, err := OpenPGXPool(ctx, cfg.PostgresReplicaDSN)
	if err != nil {
		return nil, err
	}

	opened.closers = append(opened.closers, closePool(replica.Close))

	return postgresengine.NewEventStoreFromPGXPoolAndReplica(primary, replica, options...)
}

func closePool(closeFn func()) func() error {
	return func() error {
		closeFn()
		return nil
	}
}
