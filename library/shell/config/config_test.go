package config_test

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/library/shell/config"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
}

func Test_LoadFrom_EmptyEnvironment_YieldsDefaults(t *testing.T) {
	// act
	cfg, err := config.LoadFrom(lookupFrom(nil))

	// assert
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, config.StoreFile, cfg.Store.Kind)
	assert.Equal(t, filepath.Join("./data", "bookdesk.db"), cfg.Store.SQLiteFile())
}

func Test_LoadFrom_ReadsPrefixedVariables(t *testing.T) {
	// arrange
	env := map[string]string{
		"BOOKDESK_STORE":             "postgres",
		"BOOKDESK_POSTGRES_DSN":      "postgres://bookdesk@localhost/bookdesk",
		"BOOKDESK_POSTGRES_ADAPTER":  "sqlx",
		"BOOKDESK_LOG_LEVEL":         "debug",
		"BOOKDESK_LOG_FORMAT":        "json",
		"BOOKDESK_SYNC_WRITES":       "false",
		"BOOKDESK_BACKUP_TARGET":     "s3",
		"BOOKDESK_S3_BUCKET":         " library-backups ",
		"BOOKDESK_S3_USE_PATH_STYLE": "true",
		"BOOKDESK_AUTH_SECRET":       "s3cr3t",
		"BOOKDESK_TOKEN_TTL":         "30m",
	}

	// act
	cfg, err := config.LoadFrom(lookupFrom(env))

	// assert
	require.NoError(t, err)
	assert.Equal(t, config.StorePostgres, cfg.Store.Kind)
	assert.Equal(t, config.AdapterSQLX, cfg.Store.PostgresAdapter)
	assert.False(t, cfg.Store.SyncWrites)
	assert.Equal(t, config.LogFormatJSON, cfg.Log.Format)
	assert.Equal(t, "library-backups", cfg.Backup.S3.Bucket)
	assert.True(t, cfg.Backup.S3.UsePathStyle)
	assert.Equal(t, "s3cr3t", cfg.HTTP.AuthSecret)
	assert.Equal(t, 30*time.Minute, cfg.HTTP.TokenTTL)
}

func Test_LoadFrom_ShouldFail(t *testing.T) {
	testCases := []struct {
		name        string
		env         map[string]string
		expectedErr error
	}{
		{"unknown store", map[string]string{"BOOKDESK_STORE": "mysql"}, config.ErrUnknownStoreKind},
		{"postgres without dsn", map[string]string{"BOOKDESK_STORE": "postgres"}, config.ErrMissingPostgresDSN},
		{
			"unknown adapter",
			map[string]string{"BOOKDESK_STORE": "postgres", "BOOKDESK_POSTGRES_DSN": "x", "BOOKDESK_POSTGRES_ADAPTER": "gorm"},
			config.ErrUnknownPostgresAdapter,
		},
		{"unknown log level", map[string]string{"BOOKDESK_LOG_LEVEL": "verbose"}, config.ErrUnknownLogLevel},
		{"unknown log format", map[string]string{"BOOKDESK_LOG_FORMAT": "xml"}, config.ErrUnknownLogFormat},
		{"s3 without bucket", map[string]string{"BOOKDESK_BACKUP_TARGET": "s3"}, config.ErrMissingBucket},
		{"unknown backup target", map[string]string{"BOOKDESK_BACKUP_TARGET": "ftp"}, config.ErrUnknownBackupTarget},
		{"malformed bool", map[string]string{"BOOKDESK_SYNC_WRITES": "sometimes"}, config.ErrInvalidValue},
		{"malformed duration", map[string]string{"BOOKDESK_TOKEN_TTL": "a while"}, config.ErrInvalidValue},
		{"non-positive token ttl", map[string]string{"BOOKDESK_TOKEN_TTL": "0s"}, config.ErrInvalidValue},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := config.LoadFrom(lookupFrom(tc.env))

			// assert
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func Test_NewLogger_HonorsLevelAndFormat(t *testing.T) {
	// arrange
	var buf bytes.Buffer

	// act
	logger, err := config.NewLogger(config.Log{Level: "warn", Format: config.LogFormatJSON}, &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "book_id", "b-1")

	// assert
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"book_id":"b-1"`)
}

func Test_ParseLevel(t *testing.T) {
	level, err := config.ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = config.ParseLevel("loud")
	assert.ErrorIs(t, err, config.ErrUnknownLogLevel)
}

func Test_OpenEventStore_FileAndSQLite(t *testing.T) {
	for _, kind := range []string{config.StoreFile, config.StoreSQLite} {
		t.Run(kind, func(t *testing.T) {
			// arrange
			cfg := config.Default().Store
			cfg.Kind = kind
			cfg.DataDir = t.TempDir()
			cfg.SyncWrites = false

			// act
			store, err := config.OpenEventStore(context.Background(), cfg, config.StoreObservability{})

			// assert
			require.NoError(t, err)
			require.NotNil(t, store.EventStore)
			assert.NoError(t, store.Close())
		})
	}
}

func Test_OpenEventStore_PostgresWithoutDSN_ShouldFail(t *testing.T) {
	// arrange
	cfg := config.Default().Store
	cfg.Kind = config.StorePostgres

	// act
	_, err := config.OpenEventStore(context.Background(), cfg, config.StoreObservability{})

	// assert
	assert.ErrorIs(t, err, config.ErrMissingPostgresDSN)
}

func Test_NewObservers_WithoutEndpoint_UsesPrometheus(t *testing.T) {
	// arrange
	base := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	// act
	obs, err := config.NewObservers(context.Background(), config.Default().Telemetry, base)

	// assert
	require.NoError(t, err)
	assert.NotNil(t, obs.Metrics)
	assert.Nil(t, obs.Tracing)
	assert.Same(t, base, obs.Logger)

	obs.Metrics.IncrementCounter("commandhandler_handle_calls_total", map[string]string{"command_type": "AddBook"})
	families, err := obs.Registry.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}

	assert.Contains(t, names, "bookdesk_commandhandler_handle_calls_total")
	assert.NoError(t, obs.Shutdown(context.Background()))
}
