// Package addbook implements the Add Book use case.
//
// A librarian adds a book to the catalog. Title and author are required, the book id is chosen by
// the librarian or generated. Adding a book which is already in the catalog is a no-op, a book
// which was removed may be added again.
package addbook
