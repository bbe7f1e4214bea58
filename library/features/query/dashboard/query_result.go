package dashboard

type Stats struct {
	TotalBooks            int
	AvailableBooks        int
	LentBooks             int
	PendingBorrowRequests int
	PendingReturnRequests int
	OverdueLoans          int
	Members               int
	SequenceNumber        uint
}

func (s Stats) GetSequenceNumber() uint {
	return s.SequenceNumber
}
