package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrNotConnected is returned by Store operations invoked before Open or
// after Close. Callers get a clear failure instead of a hang or a nil panic.
var ErrNotConnected = errors.New("database: not connected")

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the connection settings for the store.
type Config struct {
	Driver string
	DSN    string
}

// Store wraps the shared GORM connection with an explicit
// open-on-startup / close-on-shutdown lifecycle.
type Store struct {
	mu   sync.RWMutex
	conn *gorm.DB
	log  zerolog.Logger
}

// Open connects to the configured database and enables foreign key
// enforcement for the connection.
func Open(cfg Config, logg zerolog.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(sqliteDSN(cfg.DSN))
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", cfg.Driver)
	}

	// Keep GORM's own logging quiet; the store logs through zerolog.
	silent := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(dialector, &gorm.Config{Logger: silent})
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if cfg.Driver == DriverSQLite || cfg.Driver == "" {
		if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	logg.Info().Str("driver", cfg.Driver).Msg("database connection established")
	return &Store{conn: conn, log: logg}, nil
}

// sqliteDSN makes sure foreign key enforcement is requested on every pooled
// connection, not only on the one that ran the pragma.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_fk=1"
	}
	return dsn + "?_fk=1"
}

// DB returns the underlying GORM connection, or ErrNotConnected once the
// store has been closed.
func (s *Store) DB() (*gorm.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.conn == nil {
		return nil, ErrNotConnected
	}
	return s.conn, nil
}

// WithTx runs fn inside a single transaction, committing on nil and rolling
// back on error.
func (s *Store) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	conn, err := s.DB()
	if err != nil {
		return err
	}
	return conn.WithContext(ctx).Transaction(fn)
}

// Ping verifies the datasource is reachable.
func (s *Store) Ping(ctx context.Context) error {
	conn, err := s.DB()
	if err != nil {
		return err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close shuts down the pooled connections. Operations issued afterward fail
// with ErrNotConnected.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	sqlDB, err := s.conn.DB()
	s.conn = nil
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	s.log.Info().Msg("database connection closed")
	return nil
}
