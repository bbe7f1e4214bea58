// Package fileengine is the default engine: an append-only JSON-lines log in a data directory.
//
// Layout:
//
//	<dir>/events.jsonl                               one event per line: {"seq","type","occurred_at","payload","metadata"}
//	<dir>/snapshots/<projection>-<filterhash>.json   one file per snapshot
//
// The complete log is held in memory and filters are evaluated with eventstore.Filter.Matches,
// which is fine for the size of a library's lending history.
//
// Usage:
//
//	store, err := fileengine.Open("./data", fileengine.WithLogger(logger))
//	if err != nil {
//		// handle error
//	}
//	defer store.Close()
//
//	events, maxSeq, err := store.Query(ctx, filter)
//	err = store.Append(ctx, filter, maxSeq, newEvent)
package fileengine
