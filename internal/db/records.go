package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// DailyStats aggregates completed focus work for a single day
type DailyStats struct {
	Date              string `json:"date"`
	CompletedSessions int    `json:"completed_sessions"`
	TotalWorkMinutes  int    `json:"total_work_minutes"`
}

// RecordCompletedSession bumps the daily record for the given date (YYYY-MM-DD)
func (s *Store) RecordCompletedSession(ctx context.Context, date string, workMinutes int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_records (id, date, completed_sessions, total_work_minutes)
		 VALUES (?, ?, 1, ?)
		 ON CONFLICT (date) DO UPDATE SET
		   completed_sessions = completed_sessions + 1,
		   total_work_minutes = total_work_minutes + excluded.total_work_minutes`,
		uuid.New().String(), date, workMinutes,
	)
	if err != nil {
		return fmt.Errorf("failed to record completed session: %w", err)
	}
	return nil
}

// GetDailyStats returns the record for one day; zero stats when the day has none
func (s *Store) GetDailyStats(ctx context.Context, date string) (DailyStats, error) {
	stats := DailyStats{Date: date}
	err := s.db.QueryRowContext(ctx,
		`SELECT completed_sessions, total_work_minutes FROM daily_records WHERE date = ?`,
		date).Scan(&stats.CompletedSessions, &stats.TotalWorkMinutes)
	if err == sql.ErrNoRows {
		return stats, nil
	}
	if err != nil {
		return stats, fmt.Errorf("failed to get daily stats: %w", err)
	}
	return stats, nil
}
