// Package shell is the imperative shell around the pure domain in library/core.
//
// It converts between domain events and eventstore.StorableEvent, builds event metadata,
// retries handlers on concurrency conflicts, hashes passwords, and provides the observability
// helpers used by the observable wrappers. The feature slices import it; it never imports them.
package shell
