package core

import (
	"time"
)

// MemberRegisteredEventType is the event type identifier.
const MemberRegisteredEventType = "MemberRegistered"

// MemberRegistered records that an account was created. Role RoleAdmin makes the member a librarian.
type MemberRegistered struct {
	MemberID     MemberIDString
	PasswordHash string
	FullName     string
	Contact      string
	Email        string
	Role         string
	MembershipID string
	OccurredAt   OccurredAtTS
}

// BuildMemberRegistered creates a new MemberRegistered event.
func BuildMemberRegistered(
	memberID MemberIDString,
	passwordHash string,
	fullName string,
	contact string,
	email string,
	role string,
	membershipID string,
	occurredAt time.Time,
) MemberRegistered {

	return MemberRegistered{
		MemberID:     memberID,
		PasswordHash: passwordHash,
		FullName:     fullName,
		Contact:      contact,
		Email:        email,
		Role:         role,
		MembershipID: membershipID,
		OccurredAt:   ToOccurredAt(occurredAt),
	}
}

func (e MemberRegistered) EventType() string {
	return MemberRegisteredEventType
}

func (e MemberRegistered) HasOccurredAt() time.Time {
	return e.OccurredAt
}

func (e MemberRegistered) IsErrorEvent() bool {
	return false
}
