package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "BOOKDESK_"

// Store kinds.
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Postgres adapters.
const (
	AdapterPGX  = "pgx"
	AdapterSQL  = "sql"
	AdapterSQLX = "sqlx"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Backup targets.
const (
	BackupTargetFS = "fs"
	BackupTargetS3 = "s3"
)

var (
	ErrUnknownStoreKind       = errors.New("unknown store kind")
	ErrUnknownPostgresAdapter = errors.New("unknown postgres adapter")
	ErrMissingPostgresDSN     = errors.New("postgres store needs a DSN")
	ErrUnknownLogLevel        = errors.New("unknown log level")
	ErrUnknownLogFormat       = errors.New("unknown log format")
	ErrUnknownBackupTarget    = errors.New("unknown backup target")
	ErrMissingBucket          = errors.New("s3 backup target needs a bucket")
	ErrInvalidValue           = errors.New("invalid configuration value")
)

type Store struct {
	Kind               string
	DataDir            string
	SQLitePath         string
	PostgresDSN        string
	PostgresReplicaDSN string
	PostgresAdapter    string
	EventsTable        string
	SnapshotsTable     string
	// SyncWrites fsyncs the file store after every append.
	SyncWrites bool
}

type Log struct {
	Level  string
	Format string
}

// Telemetry is off unless OTLPEndpoint is set. Prometheus metrics are always collected.
type Telemetry struct {
	ServiceName      string
	OTLPEndpoint     string
	OTLPInsecure     bool
	MetricsNamespace string
}

// An empty AuthSecret makes the server sign tokens with a random per-process key.
type HTTP struct {
	Addr       string
	AuthSecret string
	TokenTTL   time.Duration
}

// Admin is registered on startup when the store has no librarian yet.
type Admin struct {
	Username string
	Password string
	FullName string
}

type S3 struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

type Backup struct {
	Target string
	Dir    string
	Prefix string
	S3     S3
}

type Config struct {
	Store     Store
	Log       Log
	Telemetry Telemetry
	HTTP      HTTP
	Admin     Admin
	Backup    Backup
}

// Default returns the configuration of an empty environment.
func Default() Config {
	return Config{
		Store: Store{
			Kind:            StoreFile,
			DataDir:         "./data",
			PostgresAdapter: AdapterPGX,
			EventsTable:     "events",
			SnapshotsTable:  "snapshots",
			SyncWrites:      true,
		},
		Log: Log{
			Level:  "info",
			Format: LogFormatText,
		},
		Telemetry: Telemetry{
			ServiceName:      "bookdesk",
			OTLPInsecure:     true,
			MetricsNamespace: "bookdesk",
		},
		HTTP: HTTP{
			Addr:     ":8080",
			TokenTTL: 12 * time.Hour,
		},
		Admin: Admin{
			Username: "admin",
			FullName: "Administrator",
		},
		Backup: Backup{
			Target: BackupTargetFS,
			Dir:    "./backups",
			Prefix: "bookdesk",
			S3: S3{
				Region: "us-east-1",
			},
		},
	}
}

// Load reads the process environment on top of Default.
func Load() (Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads the variables through lookup on top of Default and validates the result.
func LoadFrom(lookup func(key string) (string, bool)) (Config, error) {
	cfg := Default()
	env := envReader{lookup: lookup}

	env.str("STORE", &cfg.Store.Kind)
	env.str("DATA_DIR", &cfg.Store.DataDir)
	env.str("SQLITE_PATH", &cfg.Store.SQLitePath)
	env.str("POSTGRES_DSN", &cfg.Store.PostgresDSN)
	env.str("POSTGRES_REPLICA_DSN", &cfg.Store.PostgresReplicaDSN)
	env.str("POSTGRES_ADAPTER", &cfg.Store.PostgresAdapter)
	env.str("EVENTS_TABLE", &cfg.Store.EventsTable)
	env.str("SNAPSHOTS_TABLE", &cfg.Store.SnapshotsTable)
	env.boolean("SYNC_WRITES", &cfg.Store.SyncWrites)

	env.str("LOG_LEVEL", &cfg.Log.Level)
	env.str("LOG_FORMAT", &cfg.Log.Format)

	env.str("SERVICE_NAME", &cfg.Telemetry.ServiceName)
	env.str("OTLP_ENDPOINT", &cfg.Telemetry.OTLPEndpoint)
	env.boolean("OTLP_INSECURE", &cfg.Telemetry.OTLPInsecure)
	env.str("METRICS_NAMESPACE", &cfg.Telemetry.MetricsNamespace)

	env.str("HTTP_ADDR", &cfg.HTTP.Addr)
	env.str("AUTH_SECRET", &cfg.HTTP.AuthSecret)
	env.duration("TOKEN_TTL", &cfg.HTTP.TokenTTL)

	env.str("ADMIN_USERNAME", &cfg.Admin.Username)
	env.str("ADMIN_PASSWORD", &cfg.Admin.Password)
	env.str("ADMIN_FULL_NAME", &cfg.Admin.FullName)

	env.str("BACKUP_TARGET", &cfg.Backup.Target)
	env.str("BACKUP_DIR", &cfg.Backup.Dir)
	env.str("BACKUP_PREFIX", &cfg.Backup.Prefix)
	env.str("S3_BUCKET", &cfg.Backup.S3.Bucket)
	env.str("S3_REGION", &cfg.Backup.S3.Region)
	env.str("S3_ENDPOINT", &cfg.Backup.S3.Endpoint)
	env.str("S3_ACCESS_KEY_ID", &cfg.Backup.S3.AccessKeyID)
	env.str("S3_SECRET_ACCESS_KEY", &cfg.Backup.S3.SecretAccessKey)
	env.boolean("S3_USE_PATH_STYLE", &cfg.Backup.S3.UsePathStyle)

	if env.err != nil {
		return Config{}, env.err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the enumerations and the values a kind or target depends on.
func (c Config) Validate() error {
	switch c.Store.Kind {
	case StoreFile, StoreSQLite:
	case StorePostgres:
		if c.Store.PostgresDSN == "" {
			return ErrMissingPostgresDSN
		}

		switch c.Store.PostgresAdapter {
		case AdapterPGX, AdapterSQL, AdapterSQLX:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownPostgresAdapter, c.Store.PostgresAdapter)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStoreKind, c.Store.Kind)
	}

	if c.HTTP.TokenTTL <= 0 {
		return fmt.Errorf("%w: token ttl %s", ErrInvalidValue, c.HTTP.TokenTTL)
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	switch c.Log.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLogFormat, c.Log.Format)
	}

	return c.Backup.Validate()
}

func (b Backup) Validate() error {
	switch b.Target {
	case BackupTargetFS:
		return nil
	case BackupTargetS3:
		if b.S3.Bucket == "" {
			return ErrMissingBucket
		}

		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackupTarget, b.Target)
	}
}

// SQLiteFile is SQLitePath, or bookdesk.db in the data directory.
func (s Store) SQLiteFile() string {
	if s.SQLitePath != "" {
		return s.SQLitePath
	}

	return filepath.Join(s.DataDir, "bookdesk.db")
}

type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *envReader) str(name string, target *string) {
	if value, ok := r.lookup(envPrefix + name); ok {
		*target = strings.TrimSpace(value)
	}
}

func (r *envReader) boolean(name string, target *bool) {
	value, ok := r.lookup(envPrefix + name)
	if !ok || strings.TrimSpace(value) == "" {
		return
	}

	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		r.err = errors.Join(r.err, fmt.Errorf("%w: %s%s=%q", ErrInvalidValue, envPrefix, name, value))
		return
	}

	*target = parsed
}

func (r *envReader) duration(name string, target *time.Duration) {
	value, ok := r.lookup(envPrefix + name)
	if !ok || strings.TrimSpace(value) == "" {
		return
	}

	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		r.err = errors.Join(r.err, fmt.Errorf("%w: %s%s=%q", ErrInvalidValue, envPrefix, name, value))
		return
	}

	*target = parsed
}
