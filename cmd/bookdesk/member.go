package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bookdesk/bookdesk/library/app"
)

func newMemberCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage members",
	}

	cmd.AddCommand(
		newMemberRegisterCmd(opts),
		&cobra.Command{
			Use:   "delete MEMBER_ID",
			Short: "Delete a member without open loans",
			Args:  cobra.ExactArgs(1),
			RunE: opts.withSession(func(ctx context.Context, s *session, args []string) error {
				outcome, err := s.library.DeleteMember(ctx, opts.actorID(), args[0])
				if err != nil {
					return err
				}

				printOutcome(opts.out, "deleted", outcome)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List members",
			Args:  cobra.NoArgs,
			RunE: opts.withSession(func(ctx context.Context, s *session, _ []string) error {
				result, err := s.library.Members(ctx, opts.actorID())
				if err != nil {
					return err
				}

				return printMembers(opts.out, result)
			}),
		},
	)

	return cmd
}

func newMemberRegisterCmd(opts *rootOptions) *cobra.Command {
	var member app.NewMember

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a member",
		Args:  cobra.NoArgs,
		RunE: opts.withSession(func(ctx context.Context, s *session, _ []string) error {
			outcome, err := s.library.RegisterMember(ctx, opts.actorID(), member)
			if err != nil {
				return err
			}

			printOutcome(opts.out, "registered", outcome)
			return nil
		}),
	}

	flags := cmd.Flags()
	flags.StringVar(&member.Username, "username", "", "username, used as member id")
	flags.StringVar(&member.Password, "password", "", "password")
	flags.StringVar(&member.FullName, "full-name", "", "full name")
	flags.StringVar(&member.Contact, "contact", "", "phone or address")
	flags.StringVar(&member.Email, "email", "", "email address")
	flags.StringVar(&member.Role, "role", "", "user or admin")
	flags.StringVar(&member.MembershipID, "membership-id", "", "membership id, generated when empty")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
