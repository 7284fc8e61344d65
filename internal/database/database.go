// Package database provides PostgreSQL persistence for alert records.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/Dyel-L/alert-processor/internal/record"
)

// DB wraps a database connection and provides alert record operations.
type DB struct {
	conn *sql.DB
}

var _ record.Store = (*DB)(nil)

// NewDB creates a new database connection using the provided DSN.
func NewDB(dsn string) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Successfully connected to PostgreSQL database")

	return &DB{conn: conn}, nil
}

// NewFromConn wraps an existing connection pool.
func NewFromConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		slog.Info("Closing database connection")
		return db.conn.Close()
	}
	return nil
}

// Begin starts a READ COMMITTED transaction on a fresh connection from the pool.
func (db *DB) Begin(ctx context.Context) (record.Tx, error) {
	tx, err := db.conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// EnsureSchema creates the alert_records table and its indexes if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Join(fmt.Errorf("failed to apply schema: %w", err), tx.Rollback())
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}
	slog.Info("Alert record schema is up to date")
	return nil
}

// GetRecord returns the record with the given record ID or record.ErrNotFound.
func (db *DB) GetRecord(ctx context.Context, recordID string) (*record.AlertRecord, error) {
	rec, err := scanRecord(db.conn.QueryRowContext(ctx, getRecordQuery, recordID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, record.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert record %s: %w", recordID, err)
	}
	return rec, nil
}

// CountByStatus returns the number of stored records per processing status.
func (db *DB) CountByStatus(ctx context.Context) (map[record.ProcessingStatus]int64, error) {
	rows, err := db.conn.QueryContext(ctx, countByStatusQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to count alert records: %w", err)
	}
	defer rows.Close()

	counts := make(map[record.ProcessingStatus]int64)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[record.ProcessingStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}
	return counts, nil
}
