// Package requestreturn implements the Request Return use case.
//
// The borrowing member announces the return of an APPROVED loan, a librarian then approves or
// rejects the return. Nobody else can request the return of a member's loan.
package requestreturn
