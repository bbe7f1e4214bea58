// Package postgresengine provides a PostgreSQL implementation of the eventstore contract.
//
// It runs on pgxpool.Pool, sql.DB (lib/pq or the pgx stdlib driver) or sqlx.DB.
// Payload predicates compile to jsonb containment (payload @> '{"BookID":"..."}'),
// which is served by the GIN index EnsureSchema creates.
//
// Append is a single INSERT ... SELECT guarded by a CTE that selects the current max sequence number
// of the filtered stream; when it differs from the expected one, nothing is inserted and
// eventstore.ErrConcurrencyConflict is returned.
//
// Usage:
//
//	pool, _ := pgxpool.New(ctx, dsn)
//	store, _ := postgresengine.NewEventStoreFromPGXPool(
//		pool,
//		postgresengine.WithTableName("events"),
//		postgresengine.WithLogger(logger),
//	)
//
//	events, maxSeq, _ := store.Query(ctx, filter)
//	err := store.Append(ctx, filter, maxSeq, newEvent)
//
// With NewEventStoreFromPGXPoolAndReplica, queries whose context carries eventstore.WithEventualConsistency
// are served by the replica.
package postgresengine
