// Package sqliteengine stores events in a single SQLite database file through the pure Go modernc.org/sqlite driver.
//
// Payloads are stored as JSON text; predicates compile to json_extract comparisons and occurred_at is stored
// as a fixed-width UTC string, so lexical order is time order.
//
// Appends run in one transaction whose first INSERT ... SELECT only inserts when the max sequence number of
// the filter still equals the expected one. A guarded insert that inserts nothing is a concurrency conflict.
//
// Usage:
//
//	store, err := sqliteengine.Open(ctx, "./data/bookdesk.db", sqliteengine.WithLogger(logger))
//	if err != nil {
//		// handle error
//	}
//	defer store.Close()
package sqliteengine
