package main

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bookdesk/bookdesk/library/app"
	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/shell"
	"github.com/bookdesk/bookdesk/library/shell/config"
)

type flagOverride struct {
	name   string
	target *string
	usage  string
	value  string
}

type rootOptions struct {
	cfg   config.Config
	actor string

	out    io.Writer
	errOut io.Writer

	overrides []*flagOverride
}

// session is everything a command needs to talk to the library.
type session struct {
	logger    *slog.Logger
	observers *config.Observers
	store     *config.OpenedStore
	library   *app.Library
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:   "bookdesk",
		Short: "A small library management system",
		Long: `bookdesk keeps a library's catalog, members and loans in an event store.
Members request books, librarians approve loans and returns.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: opts.loadConfig,
	}

	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.PersistentFlags()
	opts.overrides = []*flagOverride{
		{name: "store", target: &opts.cfg.Store.Kind, usage: "event store: file, sqlite or postgres (BOOKDESK_STORE)"},
		{name: "data-dir", target: &opts.cfg.Store.DataDir, usage: "directory of the file and sqlite stores (BOOKDESK_DATA_DIR)"},
		{name: "dsn", target: &opts.cfg.Store.PostgresDSN, usage: "postgres connection string (BOOKDESK_POSTGRES_DSN)"},
		{name: "log-level", target: &opts.cfg.Log.Level, usage: "debug, info, warn or error (BOOKDESK_LOG_LEVEL)"},
		{name: "log-format", target: &opts.cfg.Log.Format, usage: "text or json (BOOKDESK_LOG_FORMAT)"},
	}
	for _, override := range opts.overrides {
		flags.StringVar(&override.value, override.name, "", override.usage)
	}
	flags.StringVar(&opts.actor, "as", "", "member id acting on the library")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newBookCmd(opts),
		newMemberCmd(opts),
		newLoanCmd(opts),
		newLoginCmd(opts),
		newStatsCmd(opts),
		newBackupCmd(opts),
	)

	return rootCmd
}

// loadConfig reads the environment, then lets explicitly set flags win.
func (o *rootOptions) loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	o.cfg = cfg
	for _, override := range o.overrides {
		if cmd.Flags().Changed(override.name) {
			*override.target = override.value
		}
	}

	return o.cfg.Validate()
}

func (o *rootOptions) actorID() core.MemberIDString {
	return core.ToMemberID(o.actor)
}

func (o *rootOptions) openSession(ctx context.Context) (*session, error) {
	logger, err := config.NewLogger(o.cfg.Log, o.errOut)
	if err != nil {
		return nil, err
	}

	observers, err := config.NewObservers(ctx, o.cfg.Telemetry, logger)
	if err != nil {
		return nil, err
	}

	store, err := config.OpenEventStore(ctx, o.cfg.Store, config.StoreObservability{
		Logger:           observers.Logger,
		ContextualLogger: observers.Logger,
		Metrics:          observers.Metrics,
		Tracing:          observers.Tracing,
	})
	if err != nil {
		return nil, errors.Join(err, observers.Shutdown(ctx))
	}

	library := app.New(store, app.WithObservability(shell.Observability{
		Metrics:          observers.Metrics,
		Tracing:          observers.Tracing,
		ContextualLogger: observers.Logger,
		Logger:           observers.Logger,
	}))

	return &session{logger: observers.Logger, observers: observers, store: store, library: library}, nil
}

func (s *session) close(ctx context.Context) error {
	return errors.Join(s.store.Close(), s.observers.Shutdown(ctx))
}

// withSession opens a session for the duration of fn.
func (o *rootOptions) withSession(fn func(ctx context.Context, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		s, err := o.openSession(ctx)
		if err != nil {
			return err
		}

		defer func() {
			err = errors.Join(err, s.close(context.WithoutCancel(ctx)))
		}()

		return fn(ctx, s, args)
	}
}
