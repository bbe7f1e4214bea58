package authentication

import (
	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/library/core"
)

// Account is the stored state of one member account, password hash included.
type Account struct {
	Active         bool
	MemberID       core.MemberIDString
	PasswordHash   string
	FullName       string
	Role           string
	SequenceNumber uint
}

func (a Account) GetSequenceNumber() uint {
	return a.SequenceNumber
}

func Project(history core.DomainEvents, query Query, maxSequence uint, base ...Account) Account {
	account := Account{MemberID: query.MemberID}
	if len(base) > 0 {
		account = base[0]
	}

	for _, event := range history {
		switch e := event.(type) {
		case core.MemberRegistered:
			account = Account{
				Active:       true,
				MemberID:     e.MemberID,
				PasswordHash: e.PasswordHash,
				FullName:     e.FullName,
				Role:         e.Role,
			}
		case core.MemberDeleted:
			account = Account{MemberID: e.MemberID}
		}
	}

	account.SequenceNumber = maxSequence

	return account
}

func BuildEventFilter(query Query) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.MemberRegisteredEventType,
			core.MemberDeletedEventType,
		).
		AndAnyPredicateOf(eventstore.P("MemberID", query.MemberID)).
		Finalize()
}
