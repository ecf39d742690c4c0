// Package database provides the optional storage bootstrap: connect, ping,
// and run pending migrations during application boot.
package database

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/openfieldhq/webcore/internal/config"
	"github.com/openfieldhq/webcore/internal/logging"
)

// Database wraps the connection pool with boot and lifecycle helpers.
type Database struct {
	db  *sqlx.DB
	cfg config.DatabaseConfig
	log *logging.Logger
}

// Connect opens the pool and verifies connectivity within the configured
// timeout.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *logging.Logger) (*Database, error) {
	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	d := &Database{db: db, cfg: cfg, log: log}
	if err := d.Health(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.WithField("driver", cfg.Driver).Info("database connected")
	return d, nil
}

// New wraps an existing pool; used by tests to inject a mock connection.
func New(db *sqlx.DB, cfg config.DatabaseConfig, log *logging.Logger) *Database {
	return &Database{db: db, cfg: cfg, log: log}
}

// DB exposes the underlying pool.
func (d *Database) DB() *sqlx.DB { return d.db }

// Health pings the database, bounded by the configured connect timeout.
func (d *Database) Health(ctx context.Context) error {
	if timeout := d.cfg.ConnectTimeout.Std(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Migrate applies pending migrations from dir. A database already at the
// latest version is not an error.
func (d *Database) Migrate(dir string) error {
	driver, err := migratepg.WithInstance(d.db.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("open migrations %s: %w", dir, err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	d.log.WithField("dir", dir).Info("migrations up to date")
	return nil
}

// Close releases the pool.
func (d *Database) Close() error {
	return d.db.Close()
}
