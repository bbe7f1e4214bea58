// Package rejectreturn implements the Reject Return use case: a librarian rejects a requested
// return, e.g. because the book never arrived, and the loan is APPROVED again.
package rejectreturn
