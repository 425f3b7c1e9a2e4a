// Package store - PostgreSQL-backed store for snapshots and interview results.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/nia-vf/pocket-stakeholder/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants.
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database.
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool.
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused.
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

// SaveSnapshot stores or replaces the snapshot for its role.
func (s *PostgresStore) SaveSnapshot(snap models.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		slog.Error("PostgresStore SaveSnapshot marshal failed", "error", err, "role", snap.Role)
		return fmt.Errorf("failed to marshal snapshot for role %s: %w", snap.Role, err)
	}

	now := time.Now()
	_, err = s.db.Exec(`
		INSERT INTO session_snapshots (role, state, snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (role) DO UPDATE SET state = EXCLUDED.state, snapshot = EXCLUDED.snapshot, updated_at = EXCLUDED.updated_at`,
		snap.Role, string(snap.State), string(payload), now, now)
	if err != nil {
		slog.Error("PostgresStore SaveSnapshot failed", "error", err, "role", snap.Role)
		return fmt.Errorf("failed to save snapshot for role %s: %w", snap.Role, err)
	}
	slog.Debug("PostgresStore SaveSnapshot succeeded", "role", snap.Role, "state", snap.State)
	return nil
}

// GetSnapshot retrieves the snapshot for a role, or nil when none exists.
func (s *PostgresStore) GetSnapshot(role string) (*models.Snapshot, error) {
	var payload string
	err := s.db.QueryRow(`SELECT snapshot FROM session_snapshots WHERE role = $1`, role).Scan(&payload)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetSnapshot not found", "role", role)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSnapshot failed", "error", err, "role", role)
		return nil, fmt.Errorf("failed to query snapshot for role %s: %w", role, err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		slog.Error("PostgresStore GetSnapshot unmarshal failed", "error", err, "role", role)
		return nil, fmt.Errorf("failed to unmarshal snapshot for role %s: %w", role, err)
	}
	return &snap, nil
}

// DeleteSnapshot removes the snapshot for a role.
func (s *PostgresStore) DeleteSnapshot(role string) error {
	_, err := s.db.Exec(`DELETE FROM session_snapshots WHERE role = $1`, role)
	if err != nil {
		slog.Error("PostgresStore DeleteSnapshot failed", "error", err, "role", role)
		return fmt.Errorf("failed to delete snapshot for role %s: %w", role, err)
	}
	slog.Debug("PostgresStore DeleteSnapshot succeeded", "role", role)
	return nil
}

// AddResult appends an interview result.
func (s *PostgresStore) AddResult(res models.InterviewResult) error {
	exchanges, err := json.Marshal(res.Exchanges)
	if err != nil {
		slog.Error("PostgresStore AddResult marshal failed", "error", err, "id", res.ID)
		return fmt.Errorf("failed to marshal exchanges for result %s: %w", res.ID, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO interview_results (id, role, state, exchanges, started_at, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		res.ID, res.Role, string(res.State), string(exchanges), res.StartedAt, res.CompletedAt, time.Now())
	if err != nil {
		slog.Error("PostgresStore AddResult failed", "error", err, "id", res.ID, "role", res.Role)
		return fmt.Errorf("failed to insert result %s: %w", res.ID, err)
	}
	slog.Debug("PostgresStore AddResult succeeded", "id", res.ID, "role", res.Role)
	return nil
}

// GetResults returns all results in insertion order.
func (s *PostgresStore) GetResults() ([]models.InterviewResult, error) {
	rows, err := s.db.Query(`SELECT id, role, state, exchanges, started_at, completed_at FROM interview_results ORDER BY created_at`)
	if err != nil {
		slog.Error("PostgresStore GetResults query failed", "error", err)
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []models.InterviewResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			slog.Error("PostgresStore GetResults scan failed", "error", err)
			return nil, err
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore GetResults rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate result rows: %w", err)
	}
	slog.Debug("PostgresStore GetResults succeeded", "count", len(results))
	return results, nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}
