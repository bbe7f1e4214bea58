// Package borrowrecords implements the Borrow Records query.
//
// One projection serves the librarian's pending lists and a member's current loans and history:
// the query optionally scopes to one member and selects statuses, the result always holds every
// record of the scope and Records() applies the status selection. That keeps one snapshot per
// scope, whatever statuses are asked for.
package borrowrecords
