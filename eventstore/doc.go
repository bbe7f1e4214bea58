// Package eventstore provides the storage-agnostic core for event sourcing with dynamic event streams.
//
// There are no aggregates and no fixed streams. Each use case defines the events it needs with a Filter
// (event types AND JSON payload predicates, optionally bounded in time or by sequence number),
// queries them, decides, and appends its outcome guarded by the max sequence number of exactly that filtered stream.
//
// Engines implementing the same contract live in sub packages:
//   - fileengine: append-only JSON-lines file, filters evaluated in memory
//   - sqliteengine: SQLite via modernc.org/sqlite
//   - postgresengine: PostgreSQL via pgx, database/sql or sqlx
//
// Common usage pattern:
//
//	filter := eventstore.BuildEventFilter().
//		Matching().
//		AnyEventTypeOf(
//			core.BorrowApprovedEventType,
//			core.BookReturnedEventType).
//		AndAnyPredicateOf(eventstore.P("BookID", bookID)).
//		Finalize()
//
//	events, maxSeq, err := store.Query(ctx, filter)
//	if err != nil {
//		// handle error
//	}
//
//	newEvent, err := eventstore.BuildStorableEvent(eventType, time.Now(), payload, metadata)
//	err = store.Append(ctx, filter, maxSeq, newEvent)
//	if errors.Is(err, eventstore.ErrConcurrencyConflict) {
//		// query again, decide again
//	}
package eventstore
