// Package catalog implements the Catalog query: every book currently in the catalog with its
// availability, plus lookups by id and case-insensitive search on title and author.
//
// The projection can be updated incrementally from a base, which is how snapshot.QueryWrapper
// keeps it cheap on a long history.
package catalog
