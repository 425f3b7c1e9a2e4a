// Package store provides storage backends for interview snapshots and
// results.
//
// The interview core never persists anything itself; the pipeline hands
// snapshot and result objects to a Store. Backends: in-memory, SQLite, and
// PostgreSQL.
package store

import (
	"strings"
	"sync"

	"github.com/nia-vf/pocket-stakeholder/internal/models"
)

// Store persists session snapshots (one per role, latest wins) and completed
// interview results (append-only).
type Store interface {
	SaveSnapshot(snap models.Snapshot) error
	GetSnapshot(role string) (*models.Snapshot, error)
	DeleteSnapshot(role string) error
	AddResult(res models.InterviewResult) error
	GetResults() ([]models.InterviewResult, error)
	Close() error
}

// Opts holds store configuration.
type Opts struct {
	DSN string
}

// Option configures a store backend.
type Option func(*Opts)

// WithSQLiteDSN sets a SQLite file path as the DSN.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets a PostgreSQL connection string as the DSN.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports "postgres" for PostgreSQL-style DSNs and "sqlite"
// for anything else (assumed to be a file path).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// InMemoryStore is a simple mutex-guarded in-memory store, used in tests and
// when no DSN is configured.
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]models.Snapshot
	results   []models.InterviewResult
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{snapshots: make(map[string]models.Snapshot)}
}

// SaveSnapshot stores or replaces the snapshot for its role.
func (s *InMemoryStore) SaveSnapshot(snap models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.Role] = snap
	return nil
}

// GetSnapshot returns the snapshot for a role, or nil when none exists.
func (s *InMemoryStore) GetSnapshot(role string) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[role]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

// DeleteSnapshot removes the snapshot for a role.
func (s *InMemoryStore) DeleteSnapshot(role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, role)
	return nil
}

// AddResult appends an interview result.
func (s *InMemoryStore) AddResult(res models.InterviewResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, res)
	return nil
}

// GetResults returns all results in insertion order.
func (s *InMemoryStore) GetResults() ([]models.InterviewResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.InterviewResult(nil), s.results...), nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }
