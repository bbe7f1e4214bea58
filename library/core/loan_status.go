package core

// LoanStatusAfter returns the record a loan event belongs to and the status the record has after it.
// ok is false for events which do not change a borrow record.
func LoanStatusAfter(event DomainEvent) (recordID RecordIDString, status LoanStatus, ok bool) {
	switch e := event.(type) {
	case BorrowRequested:
		return e.RecordID, LoanStatusPending, true
	case BorrowApproved:
		return e.RecordID, LoanStatusApproved, true
	case BorrowRejected:
		return e.RecordID, LoanStatusRejected, true
	case ReturnRequested:
		return e.RecordID, LoanStatusReturnPending, true
	case ReturnApproved:
		return e.RecordID, LoanStatusReturned, true
	case ReturnRejected:
		return e.RecordID, LoanStatusApproved, true
	case BookReturned:
		return e.RecordID, LoanStatusReturned, true
	default:
		return "", "", false
	}
}
