// Package approvereturn implements the Approve Return use case: a librarian confirms a requested
// return, the record becomes RETURNED and the book is available again.
package approvereturn
