package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bookdesk/bookdesk/library/app"
)

func newBookCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Manage the catalog",
	}

	cmd.AddCommand(
		newBookAddCmd(opts),
		&cobra.Command{
			Use:   "remove BOOK_ID",
			Short: "Remove a book from the catalog",
			Args:  cobra.ExactArgs(1),
			RunE: opts.withSession(func(ctx context.Context, s *session, args []string) error {
				outcome, err := s.library.RemoveBook(ctx, opts.actorID(), args[0])
				if err != nil {
					return err
				}

				printOutcome(opts.out, "removed", outcome)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the catalog",
			Args:  cobra.NoArgs,
			RunE: opts.withSession(func(ctx context.Context, s *session, _ []string) error {
				result, err := s.library.Catalog(ctx)
				if err != nil {
					return err
				}

				return printBooks(opts.out, result.Books)
			}),
		},
		newBookSearchCmd(opts),
	)

	return cmd
}

func newBookAddCmd(opts *rootOptions) *cobra.Command {
	var book app.NewBook

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the catalog",
		Args:  cobra.NoArgs,
		RunE: opts.withSession(func(ctx context.Context, s *session, _ []string) error {
			outcome, err := s.library.AddBook(ctx, opts.actorID(), book)
			if err != nil {
				return err
			}

			printOutcome(opts.out, "added", outcome)
			return nil
		}),
	}

	flags := cmd.Flags()
	flags.StringVar(&book.BookID, "id", "", "book id, generated when empty")
	flags.StringVar(&book.Title, "title", "", "title")
	flags.StringVar(&book.Author, "author", "", "author")
	flags.StringVar(&book.Genre, "genre", "", "genre")
	flags.IntVar(&book.PublicationYear, "year", 0, "publication year")
	flags.StringVar(&book.Location, "location", "", "shelf location")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")

	return cmd
}

func newBookSearchCmd(opts *rootOptions) *cobra.Command {
	var field string

	cmd := &cobra.Command{
		Use:   "search TERM",
		Short: "Search books by title or author",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withSession(func(ctx context.Context, s *session, args []string) error {
			books, err := s.library.SearchBooks(ctx, args[0], field)
			if err != nil {
				return err
			}

			return printBooks(opts.out, books)
		}),
	}

	cmd.Flags().StringVar(&field, "field", "either", "title, author or either")

	return cmd
}
