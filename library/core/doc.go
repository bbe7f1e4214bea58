// Package core holds the domain of a lending library: the catalog, its members and the
// borrow records linking them.
//
// Everything that happened is a DomainEvent. Success events (BookAddedToCatalog, BorrowApproved, ...)
// change state, failure events (RequestingBorrowFailed, ...) record rejected intents and carry the reason.
// Decisions are DecisionResult values built by the pure Decide functions of the command slices.
//
// There are no entities here: a Book, Member or BorrowRecord is whatever a projection makes of the events.
package core
