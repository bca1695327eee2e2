package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	"github.com/richard-senior/matchodds/internal/logger"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB owns the connection pool. Its embedded Session runs statements outside any transaction.
type DB struct {
	Session
	sqlDB *sql.DB
}

// Open connects to sqlite (a file path or ":memory:") or postgres (a connection url)
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite:
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// every pooled connection to :memory: would be a separate empty database
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database initialized successfully", driver)
	return &DB{Session: Session{q: sqlDB, driver: driver}, sqlDB: sqlDB}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	if d == nil || d.sqlDB == nil {
		return nil
	}
	return d.sqlDB.Close()
}

// WithTx runs fn inside a transaction, committing only if fn returns nil.
// fn must use the session it is given, sqlite runs on a single connection.
func (d *DB) WithTx(ctx context.Context, fn func(tx *Session) error) error {
	tx, err := d.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Session{q: tx, driver: d.driver}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// BulkSave saves multiple objects in a transaction
func (d *DB) BulkSave(ctx context.Context, objects []Persistable) error {
	return d.WithTx(ctx, func(tx *Session) error {
		for _, obj := range objects {
			if err := tx.Save(ctx, obj); err != nil {
				return fmt.Errorf("failed to save object: %w", err)
			}
		}
		return nil
	})
}
