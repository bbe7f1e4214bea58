// Package rejectborrow implements the Reject Borrow use case: a librarian rejects a PENDING borrow request.
package rejectborrow
