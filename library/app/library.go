package app

import (
	"context"
	"time"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/library/features/command/addbook"
	"github.com/bookdesk/bookdesk/library/features/command/approveborrow"
	"github.com/bookdesk/bookdesk/library/features/command/approvereturn"
	"github.com/bookdesk/bookdesk/library/features/command/deletemember"
	"github.com/bookdesk/bookdesk/library/features/command/registermember"
	"github.com/bookdesk/bookdesk/library/features/command/rejectborrow"
	"github.com/bookdesk/bookdesk/library/features/command/rejectreturn"
	"github.com/bookdesk/bookdesk/library/features/command/removebook"
	"github.com/bookdesk/bookdesk/library/features/command/requestborrow"
	"github.com/bookdesk/bookdesk/library/features/command/requestreturn"
	"github.com/bookdesk/bookdesk/library/features/command/returnbook"
	"github.com/bookdesk/bookdesk/library/features/query/authentication"
	"github.com/bookdesk/bookdesk/library/features/query/borrowrecords"
	"github.com/bookdesk/bookdesk/library/features/query/catalog"
	"github.com/bookdesk/bookdesk/library/features/query/dashboard"
	"github.com/bookdesk/bookdesk/library/features/query/members"
	"github.com/bookdesk/bookdesk/library/shell"
	"github.com/bookdesk/bookdesk/library/shell/observable"
	"github.com/bookdesk/bookdesk/library/shell/snapshot"
)

// EventStore is what the library needs from an engine.
type EventStore interface {
	shell.QueriesAndAppendsEvents
	SaveSnapshot(ctx context.Context, snapshot eventstore.Snapshot) error
	LoadSnapshot(ctx context.Context, projectionType string, filter eventstore.Filter) (*eventstore.Snapshot, error)
}

// Library is safe for concurrent use.
type Library struct {
	addBook        shell.CommandHandler[addbook.Command]
	removeBook     shell.CommandHandler[removebook.Command]
	registerMember shell.CommandHandler[registermember.Command]
	deleteMember   shell.CommandHandler[deletemember.Command]
	requestBorrow  shell.CommandHandler[requestborrow.Command]
	approveBorrow  shell.CommandHandler[approveborrow.Command]
	rejectBorrow   shell.CommandHandler[rejectborrow.Command]
	requestReturn  shell.CommandHandler[requestreturn.Command]
	approveReturn  shell.CommandHandler[approvereturn.Command]
	rejectReturn   shell.CommandHandler[rejectreturn.Command]
	returnBook     shell.CommandHandler[returnbook.Command]

	catalog        shell.QueryHandler[catalog.Query, catalog.Catalog]
	borrowRecords  shell.QueryHandler[borrowrecords.Query, borrowrecords.BorrowRecords]
	members        shell.QueryHandler[members.Query, members.Members]
	authentication shell.QueryHandler[authentication.Query, authentication.Authenticated]
	dashboard      shell.QueryHandler[dashboard.Query, dashboard.Stats]

	now func() time.Time
}

type settings struct {
	obs          shell.Observability
	retryOptions []shell.RetryOption
	now          func() time.Time
}

type Option func(*settings)

// WithObservability instruments every handler and the snapshot lookups.
func WithObservability(obs shell.Observability) Option {
	return func(s *settings) { s.obs = obs }
}

// WithRetryOptions replaces the default retry behavior of the command handlers.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(s *settings) { s.retryOptions = opts }
}

// WithClock sets the time source for OccurredAt and overdue checks.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

func New(es EventStore, opts ...Option) *Library {
	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}

	wrap := observable.WithObservability(s.obs)
	retry := s.retryOptions

	return &Library{
		addBook: observable.NewCommandWrapper[addbook.Command](
			addbook.NewCommandHandler(es, addbook.WithRetryOptions(retry...)), wrap),
		removeBook: observable.NewCommandWrapper[removebook.Command](
			removebook.NewCommandHandler(es, removebook.WithRetryOptions(retry...)), wrap),
		registerMember: observable.NewCommandWrapper[registermember.Command](
			registermember.NewCommandHandler(es, registermember.WithRetryOptions(retry...)), wrap),
		deleteMember: observable.NewCommandWrapper[deletemember.Command](
			deletemember.NewCommandHandler(es, deletemember.WithRetryOptions(retry...)), wrap),
		requestBorrow: observable.NewCommandWrapper[requestborrow.Command](
			requestborrow.NewCommandHandler(es, requestborrow.WithRetryOptions(retry...)), wrap),
		approveBorrow: observable.NewCommandWrapper[approveborrow.Command](
			approveborrow.NewCommandHandler(es, approveborrow.WithRetryOptions(retry...)), wrap),
		rejectBorrow: observable.NewCommandWrapper[rejectborrow.Command](
			rejectborrow.NewCommandHandler(es, rejectborrow.WithRetryOptions(retry...)), wrap),
		requestReturn: observable.NewCommandWrapper[requestreturn.Command](
			requestreturn.NewCommandHandler(es, requestreturn.WithRetryOptions(retry...)), wrap),
		approveReturn: observable.NewCommandWrapper[approvereturn.Command](
			approvereturn.NewCommandHandler(es, approvereturn.WithRetryOptions(retry...)), wrap),
		rejectReturn: observable.NewCommandWrapper[rejectreturn.Command](
			rejectreturn.NewCommandHandler(es, rejectreturn.WithRetryOptions(retry...)), wrap),
		returnBook: observable.NewCommandWrapper[returnbook.Command](
			returnbook.NewCommandHandler(es, returnbook.WithRetryOptions(retry...)), wrap),

		catalog: observable.NewQueryWrapper[catalog.Query, catalog.Catalog](
			snapshot.NewQueryWrapper[catalog.Query, catalog.Catalog](
				catalog.NewQueryHandler(es), es, catalog.Project, catalog.BuildEventFilter,
				snapshot.WithObservability(s.obs),
			), wrap),
		borrowRecords: observable.NewQueryWrapper[borrowrecords.Query, borrowrecords.BorrowRecords](
			snapshot.NewQueryWrapper[borrowrecords.Query, borrowrecords.BorrowRecords](
				borrowrecords.NewQueryHandler(es), es, borrowrecords.Project, borrowrecords.BuildEventFilter,
				snapshot.WithObservability(s.obs),
			), wrap),
		members: observable.NewQueryWrapper[members.Query, members.Members](
			members.NewQueryHandler(es), wrap),
		authentication: observable.NewQueryWrapper[authentication.Query, authentication.Authenticated](
			authentication.NewQueryHandler(es), wrap),
		dashboard: observable.NewQueryWrapper[dashboard.Query, dashboard.Stats](
			dashboard.NewQueryHandler(es), wrap),

		now: s.now,
	}
}
