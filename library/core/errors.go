package core

import "errors"

// ErrorKind groups business errors by how a caller should react.
type ErrorKind string

const (
	KindNotFound  ErrorKind = "not_found"
	KindConflict  ErrorKind = "conflict"
	KindForbidden ErrorKind = "forbidden"
	KindDenied    ErrorKind = "denied"
)

// BusinessError is the error of an ErrorDecision. Its message is the failure info of the failure event.
type BusinessError struct {
	Reason string
	Kind   ErrorKind
}

func (e *BusinessError) Error() string {
	return e.Reason
}

func newBusinessError(kind ErrorKind, reason string) *BusinessError {
	return &BusinessError{Reason: reason, Kind: kind}
}

var (
	ErrBookNeverAdded         = newBusinessError(KindNotFound, "book was never added to the catalog")
	ErrBookNotInCatalog       = newBusinessError(KindNotFound, "book is not in the catalog")
	ErrBookIsLent             = newBusinessError(KindConflict, "book is currently lent")
	ErrBookNotAvailable       = newBusinessError(KindConflict, "book is not available")
	ErrBookRemoved            = newBusinessError(KindConflict, "book was removed from the catalog")
	ErrUsernameTaken          = newBusinessError(KindConflict, "username is already taken")
	ErrCannotDeleteOwnAccount = newBusinessError(KindForbidden, "members cannot delete their own account")
	ErrMemberNeverRegistered  = newBusinessError(KindNotFound, "member was never registered")
	ErrMemberNotRegistered    = newBusinessError(KindNotFound, "member is not registered")
	ErrMemberHasOpenLoans     = newBusinessError(KindConflict, "member has open loans")
	ErrOpenRequestExists      = newBusinessError(KindConflict, "member already has an open request for this book")
	ErrMaxOpenLoansReached    = newBusinessError(KindConflict, "member has reached the maximum of open loans")
	ErrRecordNotFound         = newBusinessError(KindNotFound, "borrow record not found")
	ErrNotPending             = newBusinessError(KindConflict, "borrow request is not pending")
	ErrNotBorrower            = newBusinessError(KindForbidden, "only the borrowing member can request the return")
	ErrNotBorrowed            = newBusinessError(KindConflict, "book is not currently borrowed")
	ErrNoReturnRequested      = newBusinessError(KindConflict, "no return was requested")
	ErrNotLibrarian           = newBusinessError(KindForbidden, "only librarians are allowed to do this")
	ErrInvalidCredentials     = newBusinessError(KindDenied, "invalid username or password")
)

// AsBusinessError returns the BusinessError in err's tree, if any.
func AsBusinessError(err error) (*BusinessError, bool) {
	var businessErr *BusinessError
	if errors.As(err, &businessErr) {
		return businessErr, true
	}

	return nil, false
}

// IsBusinessError reports whether err was caused by a business rule.
func IsBusinessError(err error) bool {
	_, ok := AsBusinessError(err)
	return ok
}
