// Package returnbook implements the Return Book use case.
//
// A librarian takes a book back at the desk. This closes an APPROVED or RETURN_PENDING loan directly,
// without the member requesting the return first.
package returnbook
