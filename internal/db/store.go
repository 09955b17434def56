package db

import (
	"database/sql"
)

// Task statuses. Task status is driven by the user (or the agent on their
// behalf), never by the session engine.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

// Focus session statuses.
const (
	SessionActive    = "active"
	SessionPaused    = "paused"
	SessionCompleted = "completed"
)

// Store provides database access for projects, tasks, focus sessions,
// daily records and conversation context.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store from an open database connection
func NewStore(sqlDB *sql.DB) *Store {
	return &Store{db: sqlDB}
}

// GetDB returns the underlying database connection for sharing with other components
func (s *Store) GetDB() *sql.DB {
	return s.db
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	return s.db.Close()
}
