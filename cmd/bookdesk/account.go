package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errPasswordRequired = errors.New("--password is required")

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check credentials and print the member id to act as",
		Args:  cobra.NoArgs,
		RunE: opts.withSession(func(ctx context.Context, s *session, _ []string) error {
			if password == "" {
				return errPasswordRequired
			}

			authenticated, err := s.library.Login(ctx, username, password)
			if err != nil {
				return err
			}

			fmt.Fprintf(opts.out, "logged in as %s (%s, %s)\n", authenticated.MemberID, authenticated.FullName, authenticated.Role)
			return nil
		}),
	}

	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the librarian dashboard",
		Args:  cobra.NoArgs,
		RunE: opts.withSession(func(ctx context.Context, s *session, _ []string) error {
			stats, err := s.library.Dashboard(ctx, opts.actorID())
			if err != nil {
				return err
			}

			table := newTable(opts.out, "METRIC", "VALUE")
			row(table, "books", stats.TotalBooks)
			row(table, "available", stats.AvailableBooks)
			row(table, "lent", stats.LentBooks)
			row(table, "pending borrow requests", stats.PendingBorrowRequests)
			row(table, "pending return requests", stats.PendingReturnRequests)
			row(table, "overdue", stats.OverdueLoans)
			row(table, "members", stats.Members)

			return table.Flush()
		}),
	}
}
