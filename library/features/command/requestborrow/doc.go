// Package requestborrow implements the Request Borrow use case.
//
// A registered member asks to borrow an available book, which creates a PENDING borrow record.
// Several members may request the same book, a librarian approves one of them. A member can hold
// one open request per book and at most core.MaxOpenLoans open loans.
// Failures are appended as RequestingBorrowFailed events.
package requestborrow
