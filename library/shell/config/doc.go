// Package config turns BOOKDESK_* environment variables into a Config and builds
// what the application runs on from it: the slog logger, the event store of the
// configured kind (file, sqlite, postgres over pgx.Pool, sql.DB or sqlx.DB)
// and the OpenTelemetry providers.
//
// Every value has a default, so an empty environment yields a working
// single-user setup with a file store in ./data. The cobra flags of
// cmd/bookdesk override the environment.
package config
