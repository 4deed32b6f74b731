package store

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	_ "modernc.org/sqlite"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/config"
)

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// insertChunk bounds the rows bound into one multi-row INSERT.
const insertChunk = 200

// Store persists derived components, indicator history, forecasts and
// pipeline runs.
type Store struct {
	db     *sqlx.DB
	driver string
	// writes serializes snapshot replacements; sqlite allows a single writer.
	writes *semaphore.Weighted
}

// Open connects with the configured driver and applies the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s, err := New(ctx, db, cfg.Driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info().Str("driver", cfg.Driver).Msg("store ready")
	return s, nil
}

// New wraps an open connection and migrates it.
func New(ctx context.Context, db *sqlx.DB, driver string) (*Store, error) {
	weight := int64(4)
	if driver == DriverSQLite {
		weight = 1
	}
	s := &Store{db: db, driver: driver, writes: semaphore.NewWeighted(weight)}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// write runs fn in a transaction while holding a write slot.
func (s *Store) write(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	if err := s.writes.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.writes.Release(1)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// insertAll writes rows with a named multi-row INSERT, chunked to stay under
// driver bind limits.
func insertAll[T any](ctx context.Context, tx *sqlx.Tx, query string, rows []T) error {
	for start := 0; start < len(rows); start += insertChunk {
		end := min(start+insertChunk, len(rows))
		if _, err := tx.NamedExecContext(ctx, query, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}
