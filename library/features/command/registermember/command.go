package registermember

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/shell"
)

const (
	commandType = "RegisterMember"
)

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrFullNameRequired = errors.New("full name is required")
	ErrInvalidRole      = errors.New("role must be admin or user")
)

// Command represents the intent to register a member. It never carries the plain password.
type Command struct {
	MemberID     core.MemberIDString
	PasswordHash string
	FullName     string
	Contact      string
	Email        string
	Role         string
	MembershipID string
	OccurredAt   core.OccurredAtTS
}

func (c Command) CommandType() string {
	return commandType
}

// BuildCommand validates the input and hashes the password.
// An empty role means core.RoleMember, an empty membershipID is generated.
func BuildCommand(
	username string,
	password string,
	fullName string,
	contact string,
	email string,
	role string,
	membershipID string,
	occurredAt time.Time,
) (Command, error) {

	memberID := core.ToMemberID(username)
	if memberID == "" {
		return Command{}, errors.Join(shell.ErrInvalidCommand, ErrUsernameRequired)
	}

	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return Command{}, errors.Join(shell.ErrInvalidCommand, ErrFullNameRequired)
	}

	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		role = core.RoleMember
	}

	if !core.IsValidRole(role) {
		return Command{}, errors.Join(shell.ErrInvalidCommand, ErrInvalidRole)
	}

	passwordHash, err := shell.HashPassword(password)
	if err != nil {
		return Command{}, errors.Join(shell.ErrInvalidCommand, err)
	}

	membershipID = strings.TrimSpace(membershipID)
	if membershipID == "" {
		membershipID = "M-" + strings.ToUpper(uuid.NewString()[:8])
	}

	return Command{
		MemberID:     memberID,
		PasswordHash: passwordHash,
		FullName:     fullName,
		Contact:      strings.TrimSpace(contact),
		Email:        strings.TrimSpace(email),
		Role:         role,
		MembershipID: membershipID,
		OccurredAt:   core.ToOccurredAt(occurredAt),
	}, nil
}
