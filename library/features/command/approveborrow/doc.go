// Package approveborrow implements the Approve Borrow use case.
//
// A librarian approves a PENDING borrow request. The book must still be in the catalog and not be
// lent to anybody else. The due date is the approval date plus core.LoanPeriod.
// Failures are appended as BorrowRecordTransitionFailed events.
package approveborrow
