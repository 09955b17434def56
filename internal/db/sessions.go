package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// FocusSession is one timed work/break cycle associated with a task.
// RemainingWorkMinutes is the authoritative work budget for the next active
// interval; it is recomputed only at pause time, never on resume.
type FocusSession struct {
	ID                   string    `json:"id"`
	TaskID               string    `json:"task_id"`
	WorkMinutes          int       `json:"work_minutes"`
	BreakMinutes         int       `json:"break_minutes"`
	Status               string    `json:"status"`
	StartedAt            time.Time `json:"started_at"`
	PausedAt             time.Time `json:"paused_at,omitempty"`    // zero unless paused
	RemainingWorkMinutes int       `json:"remaining_work_minutes"`
	CompletedAt          time.Time `json:"completed_at,omitempty"` // zero unless completed
	CreatedAt            time.Time `json:"created_at"`
}

// SessionPatch is the fixed allow-list of mutable focus session fields.
// Nil fields are left untouched. ClearPausedAt nulls paused_at, which a
// *time.Time alone cannot express.
type SessionPatch struct {
	WorkMinutes          *int
	BreakMinutes         *int
	Status               *string
	RemainingWorkMinutes *int
	StartedAt            *time.Time
	PausedAt             *time.Time
	ClearPausedAt        bool
	CompletedAt          *time.Time
}

const sessionColumns = `id, task_id, work_minutes, break_minutes, status, started_at, paused_at, remaining_work_minutes, completed_at, created_at`

func scanSession(row interface{ Scan(...any) error }) (FocusSession, error) {
	var fs FocusSession
	var startedAt, createdAt int64
	var pausedAt, completedAt sql.NullInt64
	if err := row.Scan(&fs.ID, &fs.TaskID, &fs.WorkMinutes, &fs.BreakMinutes, &fs.Status,
		&startedAt, &pausedAt, &fs.RemainingWorkMinutes, &completedAt, &createdAt); err != nil {
		return FocusSession{}, err
	}
	fs.StartedAt = time.Unix(startedAt, 0)
	if pausedAt.Valid {
		fs.PausedAt = time.Unix(pausedAt.Int64, 0)
	}
	if completedAt.Valid {
		fs.CompletedAt = time.Unix(completedAt.Int64, 0)
	}
	fs.CreatedAt = time.Unix(createdAt, 0)
	return fs, nil
}

// InsertSession persists a new focus session row
func (s *Store) InsertSession(ctx context.Context, fs FocusSession) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO focus_sessions (id, task_id, work_minutes, break_minutes, status, started_at, remaining_work_minutes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		fs.ID, fs.TaskID, fs.WorkMinutes, fs.BreakMinutes, fs.Status,
		fs.StartedAt.Unix(), fs.RemainingWorkMinutes, fs.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetSession returns a focus session by id, or sql.ErrNoRows if absent
func (s *Store) GetSession(ctx context.Context, id string) (*FocusSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM focus_sessions WHERE id = ?`, id)
	fs, err := scanSession(row)
	if err != nil {
		return nil, err
	}
	return &fs, nil
}

// UpdateSessionFields applies a partial update to one session row.
// Only allow-listed fields can change; an empty patch is a no-op.
func (s *Store) UpdateSessionFields(ctx context.Context, id string, patch SessionPatch) error {
	var sets []string
	var args []any

	if patch.WorkMinutes != nil {
		sets = append(sets, "work_minutes = ?")
		args = append(args, *patch.WorkMinutes)
	}
	if patch.BreakMinutes != nil {
		sets = append(sets, "break_minutes = ?")
		args = append(args, *patch.BreakMinutes)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
	}
	if patch.RemainingWorkMinutes != nil {
		sets = append(sets, "remaining_work_minutes = ?")
		args = append(args, *patch.RemainingWorkMinutes)
	}
	if patch.StartedAt != nil {
		sets = append(sets, "started_at = ?")
		args = append(args, patch.StartedAt.Unix())
	}
	if patch.PausedAt != nil {
		sets = append(sets, "paused_at = ?")
		args = append(args, patch.PausedAt.Unix())
	} else if patch.ClearPausedAt {
		sets = append(sets, "paused_at = NULL")
	}
	if patch.CompletedAt != nil {
		sets = append(sets, "completed_at = ?")
		args = append(args, patch.CompletedAt.Unix())
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	result, err := s.db.ExecContext(ctx,
		`UPDATE focus_sessions SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteSession removes one session row
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM focus_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ListSessionsByStatus returns sessions in the given status, most recently started first
func (s *Store) ListSessionsByStatus(ctx context.Context, status string) ([]FocusSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM focus_sessions WHERE status = ? ORDER BY started_at DESC`,
		status)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions by status: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

// ListSessionsByTask returns a task's sessions, most recently created first
func (s *Store) ListSessionsByTask(ctx context.Context, taskID string) ([]FocusSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM focus_sessions WHERE task_id = ? ORDER BY created_at DESC`,
		taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions by task: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

func collectSessions(rows *sql.Rows) ([]FocusSession, error) {
	var sessions []FocusSession
	for rows.Next() {
		fs, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, fs)
	}
	return sessions, rows.Err()
}
