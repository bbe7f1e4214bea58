package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bookdesk/bookdesk/eventstore/promadapters"
	"github.com/bookdesk/bookdesk/library/app"
	"github.com/bookdesk/bookdesk/library/httpapi"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: opts.withSession(func(ctx context.Context, s *session, _ []string) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			admin := opts.cfg.Admin
			created, err := s.library.EnsureAdmin(ctx, admin.Username, admin.Password, admin.FullName)
			switch {
			case errors.Is(err, app.ErrAdminPasswordRequired):
				s.logger.Warn("no librarian registered, set BOOKDESK_ADMIN_PASSWORD to create one")
			case err != nil:
				return err
			case created:
				s.logger.Info("initial librarian registered", "member_id", admin.Username)
			}

			if addr == "" {
				addr = opts.cfg.HTTP.Addr
			}

			secret := []byte(opts.cfg.HTTP.AuthSecret)
			if len(secret) == 0 {
				s.logger.Warn("no auth secret configured, tokens will not survive a restart; set BOOKDESK_AUTH_SECRET")
				if secret, err = httpapi.RandomSecret(); err != nil {
					return err
				}
			}

			tokens := httpapi.NewTokens(secret, opts.cfg.HTTP.TokenTTL)
			router := httpapi.Router(s.library, s.logger, promadapters.Handler(s.observers.Registry), tokens)

			return httpapi.Serve(ctx, addr, router, s.logger)
		}),
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "address to listen on (BOOKDESK_HTTP_ADDR)")

	return cmd
}
