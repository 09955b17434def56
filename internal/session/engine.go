package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/focusloop/focusbot/internal/db"
)

// ErrInvalidState means a state-machine transition was attempted from a
// terminal or incompatible state. Surfaced to the user, never retried.
var ErrInvalidState = errors.New("invalid session state for this operation")

// ErrValidation means the input was rejected before any store call
var ErrValidation = errors.New("invalid session parameters")

// ErrSessionNotFound means the session id matched no stored row
var ErrSessionNotFound = errors.New("session not found")

// Store is the persistence port the engine drives. The engine never caches
// session state between calls; every operation is a read-modify-write cycle
// against this port, and store failures propagate to the caller unretried.
type Store interface {
	InsertSession(ctx context.Context, fs db.FocusSession) error
	GetSession(ctx context.Context, id string) (*db.FocusSession, error)
	UpdateSessionFields(ctx context.Context, id string, patch db.SessionPatch) error
	ListSessionsByStatus(ctx context.Context, status string) ([]db.FocusSession, error)
	ListSessionsByTask(ctx context.Context, taskID string) ([]db.FocusSession, error)
	RecordCompletedSession(ctx context.Context, date string, workMinutes int) error
}

// BatchFailure records one failed item of a batch operation
type BatchFailure struct {
	SessionID string `json:"session_id"`
	Error     string `json:"error"`
}

// BatchReport is the outcome of a non-transactional batch operation. One bad
// row never blocks the rest; the report says how far the batch got.
type BatchReport struct {
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Failures  []BatchFailure `json:"failures,omitempty"`
}

// Engine owns the focus session state machine. It holds no timers and no
// per-session memory; callers schedule phase-transition signals externally.
type Engine struct {
	store Store

	// Clock is swappable for tests. Production uses time.Now.
	Clock func() time.Time
}

// NewEngine creates a lifecycle engine over the given store port
func NewEngine(store Store) *Engine {
	return &Engine{store: store, Clock: time.Now}
}

// Start creates a new active session for a task and returns its id.
// The task reference must already be resolved; defaults for work/break
// minutes are the caller's job, so non-positive values are rejected here.
// Multiple concurrent active sessions are allowed at this layer.
func (e *Engine) Start(ctx context.Context, taskID string, workMinutes, breakMinutes int) (string, error) {
	if taskID == "" {
		return "", fmt.Errorf("%w: task id is required", ErrValidation)
	}
	if workMinutes <= 0 || breakMinutes <= 0 {
		return "", fmt.Errorf("%w: work and break minutes must be positive", ErrValidation)
	}

	now := e.Clock()
	fs := db.FocusSession{
		ID:                   uuid.New().String(),
		TaskID:               taskID,
		WorkMinutes:          workMinutes,
		BreakMinutes:         breakMinutes,
		Status:               db.SessionActive,
		StartedAt:            now,
		RemainingWorkMinutes: workMinutes,
		CreatedAt:            now,
	}
	if err := e.store.InsertSession(ctx, fs); err != nil {
		return "", err
	}
	return fs.ID, nil
}

// Pause transitions an active session to paused, snapshotting the remaining
// work minutes. Elapsed time floors to whole minutes and the remainder clamps
// at zero; a session paused after its nominal work period pauses cleanly.
func (e *Engine) Pause(ctx context.Context, sessionID string) error {
	fs, err := e.getSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if fs.Status != db.SessionActive {
		return fmt.Errorf("%w: cannot pause a %s session", ErrInvalidState, fs.Status)
	}
	return e.pauseSession(ctx, fs)
}

func (e *Engine) pauseSession(ctx context.Context, fs *db.FocusSession) error {
	now := e.Clock()
	elapsed := int(now.Sub(fs.StartedAt) / time.Minute) // floor, never round
	remaining := fs.RemainingWorkMinutes - elapsed
	if remaining < 0 {
		remaining = 0
	}

	status := db.SessionPaused
	return e.store.UpdateSessionFields(ctx, fs.ID, db.SessionPatch{
		Status:               &status,
		PausedAt:             &now,
		RemainingWorkMinutes: &remaining,
	})
}

// Resume transitions a paused session back to active. The remaining-minutes
// snapshot taken at pause time stays authoritative: the next active interval
// runs against it, not against the originally configured work minutes.
func (e *Engine) Resume(ctx context.Context, sessionID string) error {
	fs, err := e.getSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if fs.Status != db.SessionPaused {
		return fmt.Errorf("%w: cannot resume a %s session", ErrInvalidState, fs.Status)
	}
	return e.resumeSession(ctx, fs)
}

func (e *Engine) resumeSession(ctx context.Context, fs *db.FocusSession) error {
	now := e.Clock()
	status := db.SessionActive
	return e.store.UpdateSessionFields(ctx, fs.ID, db.SessionPatch{
		Status:        &status,
		StartedAt:     &now,
		ClearPausedAt: true,
	})
}

// Complete transitions a session to its terminal state from either active or
// paused, and records the finished work in the daily record.
func (e *Engine) Complete(ctx context.Context, sessionID string) error {
	fs, err := e.getSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if fs.Status == db.SessionCompleted {
		return fmt.Errorf("%w: session already completed", ErrInvalidState)
	}

	now := e.Clock()
	status := db.SessionCompleted
	if err := e.store.UpdateSessionFields(ctx, sessionID, db.SessionPatch{
		Status:      &status,
		CompletedAt: &now,
	}); err != nil {
		return err
	}

	// Daily record failures don't undo the completion; stats are best-effort
	if err := e.store.RecordCompletedSession(ctx, now.Format("2006-01-02"), fs.WorkMinutes); err != nil {
		return fmt.Errorf("session completed but daily record failed: %w", err)
	}
	return nil
}

// PauseAll pauses every active session independently. Not transactional:
// failures are reported per session and the rest proceed.
func (e *Engine) PauseAll(ctx context.Context) (BatchReport, error) {
	sessions, err := e.store.ListSessionsByStatus(ctx, db.SessionActive)
	if err != nil {
		return BatchReport{}, err
	}

	var report BatchReport
	for i := range sessions {
		if err := e.pauseSession(ctx, &sessions[i]); err != nil {
			report.Failed++
			report.Failures = append(report.Failures, BatchFailure{
				SessionID: sessions[i].ID,
				Error:     err.Error(),
			})
			continue
		}
		report.Succeeded++
	}
	return report, nil
}

// ResumeAll resumes every paused session independently
func (e *Engine) ResumeAll(ctx context.Context) (BatchReport, error) {
	sessions, err := e.store.ListSessionsByStatus(ctx, db.SessionPaused)
	if err != nil {
		return BatchReport{}, err
	}

	var report BatchReport
	for i := range sessions {
		if err := e.resumeSession(ctx, &sessions[i]); err != nil {
			report.Failed++
			report.Failures = append(report.Failures, BatchFailure{
				SessionID: sessions[i].ID,
				Error:     err.Error(),
			})
			continue
		}
		report.Succeeded++
	}
	return report, nil
}

// ListActive returns active sessions, most recently started first
func (e *Engine) ListActive(ctx context.Context) ([]db.FocusSession, error) {
	return e.store.ListSessionsByStatus(ctx, db.SessionActive)
}

// ListPaused returns paused sessions, most recently started first
func (e *Engine) ListPaused(ctx context.Context) ([]db.FocusSession, error) {
	return e.store.ListSessionsByStatus(ctx, db.SessionPaused)
}

// ListForTask returns a task's sessions, most recent first
func (e *Engine) ListForTask(ctx context.Context, taskID string) ([]db.FocusSession, error) {
	return e.store.ListSessionsByTask(ctx, taskID)
}

func (e *Engine) getSession(ctx context.Context, sessionID string) (*db.FocusSession, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrValidation)
	}
	fs, err := e.store.GetSession(ctx, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, err
	}
	return fs, nil
}
