// Package deletemember implements the Delete Member use case.
//
// A librarian deletes a member account. Members cannot delete their own account and members with
// open loans (pending, approved or return pending) cannot be deleted. Failures are appended as
// DeletingMemberFailed events.
package deletemember
