// Package removebook implements the Remove Book use case.
//
// A librarian removes a book from the catalog. A book which is lent (approved or return pending)
// cannot be removed, removing a book which is not in the catalog anymore is a no-op.
// Failures are appended as RemovingBookFailed events.
package removebook
