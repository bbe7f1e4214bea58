package app

import (
	"context"
	"errors"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/query/members"
)

var ErrAdminPasswordRequired = errors.New("initial admin needs a password")

// EnsureAdmin registers the initial librarian when the store has none yet.
// It reports whether an account was created.
func (l *Library) EnsureAdmin(ctx context.Context, username, password, fullName string) (bool, error) {
	registered, err := l.members.Handle(ctx, members.BuildQuery())
	if err != nil {
		return false, err
	}

	if registered.HasLibrarian() {
		return false, nil
	}

	if password == "" {
		return false, ErrAdminPasswordRequired
	}

	result, err := l.RegisterMember(ctx, "", NewMember{
		Username: username,
		Password: password,
		FullName: fullName,
		Role:     core.RoleAdmin,
	})
	if err != nil {
		return false, err
	}

	return !result.Idempotent, nil
}
