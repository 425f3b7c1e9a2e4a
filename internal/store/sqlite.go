// Package store - SQLite-backed store for snapshots and interview results.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/nia-vf/pocket-stakeholder/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN (a file path).
// The containing directory is created if it doesn't exist.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// SaveSnapshot stores or replaces the snapshot for its role.
func (s *SQLiteStore) SaveSnapshot(snap models.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		slog.Error("SQLiteStore SaveSnapshot marshal failed", "error", err, "role", snap.Role)
		return fmt.Errorf("failed to marshal snapshot for role %s: %w", snap.Role, err)
	}

	now := time.Now()
	_, err = s.db.Exec(`
		INSERT INTO session_snapshots (role, state, snapshot, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(role) DO UPDATE SET state = excluded.state, snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		snap.Role, string(snap.State), string(payload), now, now)
	if err != nil {
		slog.Error("SQLiteStore SaveSnapshot failed", "error", err, "role", snap.Role)
		return fmt.Errorf("failed to save snapshot for role %s: %w", snap.Role, err)
	}
	slog.Debug("SQLiteStore SaveSnapshot succeeded", "role", snap.Role, "state", snap.State)
	return nil
}

// GetSnapshot retrieves the snapshot for a role, or nil when none exists.
func (s *SQLiteStore) GetSnapshot(role string) (*models.Snapshot, error) {
	var payload string
	err := s.db.QueryRow(`SELECT snapshot FROM session_snapshots WHERE role = ?`, role).Scan(&payload)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetSnapshot not found", "role", role)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSnapshot failed", "error", err, "role", role)
		return nil, fmt.Errorf("failed to query snapshot for role %s: %w", role, err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		slog.Error("SQLiteStore GetSnapshot unmarshal failed", "error", err, "role", role)
		return nil, fmt.Errorf("failed to unmarshal snapshot for role %s: %w", role, err)
	}
	return &snap, nil
}

// DeleteSnapshot removes the snapshot for a role.
func (s *SQLiteStore) DeleteSnapshot(role string) error {
	_, err := s.db.Exec(`DELETE FROM session_snapshots WHERE role = ?`, role)
	if err != nil {
		slog.Error("SQLiteStore DeleteSnapshot failed", "error", err, "role", role)
		return fmt.Errorf("failed to delete snapshot for role %s: %w", role, err)
	}
	slog.Debug("SQLiteStore DeleteSnapshot succeeded", "role", role)
	return nil
}

// AddResult appends an interview result.
func (s *SQLiteStore) AddResult(res models.InterviewResult) error {
	exchanges, err := json.Marshal(res.Exchanges)
	if err != nil {
		slog.Error("SQLiteStore AddResult marshal failed", "error", err, "id", res.ID)
		return fmt.Errorf("failed to marshal exchanges for result %s: %w", res.ID, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO interview_results (id, role, state, exchanges, started_at, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.Role, string(res.State), string(exchanges), res.StartedAt, res.CompletedAt, time.Now())
	if err != nil {
		slog.Error("SQLiteStore AddResult failed", "error", err, "id", res.ID, "role", res.Role)
		return fmt.Errorf("failed to insert result %s: %w", res.ID, err)
	}
	slog.Debug("SQLiteStore AddResult succeeded", "id", res.ID, "role", res.Role)
	return nil
}

// GetResults returns all results in insertion order.
func (s *SQLiteStore) GetResults() ([]models.InterviewResult, error) {
	rows, err := s.db.Query(`SELECT id, role, state, exchanges, started_at, completed_at FROM interview_results ORDER BY created_at`)
	if err != nil {
		slog.Error("SQLiteStore GetResults query failed", "error", err)
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []models.InterviewResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			slog.Error("SQLiteStore GetResults scan failed", "error", err)
			return nil, err
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore GetResults rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate result rows: %w", err)
	}
	slog.Debug("SQLiteStore GetResults succeeded", "count", len(results))
	return results, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}
