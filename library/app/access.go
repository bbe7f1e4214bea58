package app

import (
	"context"
	"fmt"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/query/members"
)

func (l *Library) requireLibrarian(ctx context.Context, actor core.MemberIDString, action string) error {
	registered, err := l.members.Handle(ctx, members.BuildQuery())
	if err != nil {
		return err
	}

	if !registered.IsLibrarian(actor) {
		return fmt.Errorf("%s: %w", action, core.ErrNotLibrarian)
	}

	return nil
}

// requireSelfOrLibrarian lets members act on their own data only.
func (l *Library) requireSelfOrLibrarian(
	ctx context.Context,
	actor core.MemberIDString,
	memberID core.MemberIDString,
	action string,
) error {

	if actor != "" && core.ToMemberID(actor) == core.ToMemberID(memberID) {
		return nil
	}

	return l.requireLibrarian(ctx, actor, action)
}
