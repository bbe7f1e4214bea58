package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bookdesk/bookdesk/library/app"
	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/query/borrowrecords"
)

type loanTransition func(l *app.Library, ctx context.Context, actor core.MemberIDString, recordID core.RecordIDString) (app.Outcome, error)

func newLoanCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loan",
		Short: "Request, approve and return loans",
	}

	cmd.AddCommand(
		newLoanRequestCmd(opts),
		newLoanTransitionCmd(opts, "approve", "Approve a borrow request", "approved", (*app.Library).ApproveBorrow),
		newLoanTransitionCmd(opts, "reject", "Reject a borrow request", "rejected", (*app.Library).RejectBorrow),
		newLoanTransitionCmd(opts, "request-return", "Ask to return a borrowed book", "return requested", (*app.Library).RequestReturn),
		newLoanTransitionCmd(opts, "approve-return", "Confirm a return request", "returned", (*app.Library).ApproveReturn),
		newLoanTransitionCmd(opts, "reject-return", "Reject a return request", "return rejected", (*app.Library).RejectReturn),
		newLoanTransitionCmd(opts, "return", "Take back a book at the desk", "returned", (*app.Library).ReturnBook),
		newLoanPendingCmd(opts),
		newLoanMemberCmd(opts, "list [MEMBER_ID]", "List a member's current loans", (*app.Library).CurrentLoans),
		newLoanMemberCmd(opts, "history [MEMBER_ID]", "List a member's borrow history", (*app.Library).History),
		&cobra.Command{
			Use:   "overdue",
			Short: "List loans past their due date",
			Args:  cobra.NoArgs,
			RunE: opts.withSession(func(ctx context.Context, s *session, _ []string) error {
				records, err := s.library.Overdue(ctx, opts.actorID())
				if err != nil {
					return err
				}

				return printRecords(opts.out, records)
			}),
		},
	)

	return cmd
}

func newLoanRequestCmd(opts *rootOptions) *cobra.Command {
	var recordID string

	cmd := &cobra.Command{
		Use:   "request BOOK_ID",
		Short: "Request to borrow a book",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withSession(func(ctx context.Context, s *session, args []string) error {
			outcome, err := s.library.RequestBorrow(ctx, opts.actorID(), args[0], recordID)
			if err != nil {
				return err
			}

			printOutcome(opts.out, "requested", outcome)
			return nil
		}),
	}

	cmd.Flags().StringVar(&recordID, "record-id", "", "record id, generated when empty")

	return cmd
}

func newLoanTransitionCmd(opts *rootOptions, name, short, verb string, transition loanTransition) *cobra.Command {
	return &cobra.Command{
		Use:   name + " RECORD_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: opts.withSession(func(ctx context.Context, s *session, args []string) error {
			outcome, err := transition(s.library, ctx, opts.actorID(), args[0])
			if err != nil {
				return err
			}

			printOutcome(opts.out, verb, outcome)
			return nil
		}),
	}
}

func newLoanPendingCmd(opts *rootOptions) *cobra.Command {
	var returns bool

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List pending borrow requests, or return requests with --returns",
		Args:  cobra.NoArgs,
		RunE: opts.withSession(func(ctx context.Context, s *session, _ []string) error {
			pending := s.library.PendingBorrowRequests
			if returns {
				pending = s.library.PendingReturnRequests
			}

			result, err := pending(ctx, opts.actorID())
			if err != nil {
				return err
			}

			return printRecords(opts.out, result.Records())
		}),
	}

	cmd.Flags().BoolVar(&returns, "returns", false, "list return requests")

	return cmd
}

// newLoanMemberCmd lists records of the given member, the acting member by default.
func newLoanMemberCmd(
	opts *rootOptions,
	use, short string,
	list func(*app.Library, context.Context, core.MemberIDString, core.MemberIDString) (borrowrecords.BorrowRecords, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: opts.withSession(func(ctx context.Context, s *session, args []string) error {
			memberID := opts.actorID()
			if len(args) == 1 {
				memberID = core.ToMemberID(args[0])
			}

			result, err := list(s.library, ctx, opts.actorID(), memberID)
			if err != nil {
				return err
			}

			return printRecords(opts.out, result.Records())
		}),
	}
}
