// Package dashboard implements the Dashboard query with the librarian's key figures. It combines
// the catalog, borrowrecords and members projections over one query of the whole history.
package dashboard
