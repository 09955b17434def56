package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/focusloop/focusbot/internal/db"
)

// fakeStore keeps sessions in memory and applies patches the way the SQL
// store does. failPatchFor simulates a write failure for one session id.
type fakeStore struct {
	sessions     map[string]*db.FocusSession
	records      map[string]int
	failPatchFor string
}

var errWrite = errors.New("write failed")

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[string]*db.FocusSession),
		records:  make(map[string]int),
	}
}

func (f *fakeStore) InsertSession(_ context.Context, fs db.FocusSession) error {
	f.sessions[fs.ID] = &fs
	return nil
}

func (f *fakeStore) GetSession(_ context.Context, id string) (*db.FocusSession, error) {
	fs, ok := f.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *fs
	return &cp, nil
}

func (f *fakeStore) UpdateSessionFields(_ context.Context, id string, patch db.SessionPatch) error {
	if id == f.failPatchFor {
		return errWrite
	}
	fs, ok := f.sessions[id]
	if !ok {
		return sql.ErrNoRows
	}
	if patch.Status != nil {
		fs.Status = *patch.Status
	}
	if patch.WorkMinutes != nil {
		fs.WorkMinutes = *patch.WorkMinutes
	}
	if patch.BreakMinutes != nil {
		fs.BreakMinutes = *patch.BreakMinutes
	}
	if patch.RemainingWorkMinutes != nil {
		fs.RemainingWorkMinutes = *patch.RemainingWorkMinutes
	}
	if patch.StartedAt != nil {
		fs.StartedAt = *patch.StartedAt
	}
	if patch.PausedAt != nil {
		fs.PausedAt = *patch.PausedAt
	}
	if patch.ClearPausedAt {
		fs.PausedAt = time.Time{}
	}
	if patch.CompletedAt != nil {
		fs.CompletedAt = *patch.CompletedAt
	}
	return nil
}

func (f *fakeStore) ListSessionsByStatus(_ context.Context, status string) ([]db.FocusSession, error) {
	var out []db.FocusSession
	for _, fs := range f.sessions {
		if fs.Status == status {
			out = append(out, *fs)
		}
	}
	return out, nil
}

func (f *fakeStore) ListSessionsByTask(_ context.Context, taskID string) ([]db.FocusSession, error) {
	var out []db.FocusSession
	for _, fs := range f.sessions {
		if fs.TaskID == taskID {
			out = append(out, *fs)
		}
	}
	return out, nil
}

func (f *fakeStore) RecordCompletedSession(_ context.Context, date string, workMinutes int) error {
	f.records[date] += workMinutes
	return nil
}

var t0 = time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

func newTestEngine(store Store) *Engine {
	e := NewEngine(store)
	e.Clock = func() time.Time { return t0 }
	return e
}

func TestStartSession(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(store)

	id, err := e.Start(context.Background(), "task-1", 25, 5)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	fs := store.sessions[id]
	if fs == nil {
		t.Fatal("session not persisted")
	}
	if fs.Status != db.SessionActive {
		t.Errorf("status = %q", fs.Status)
	}
	if fs.RemainingWorkMinutes != 25 {
		t.Errorf("remaining = %d, want 25", fs.RemainingWorkMinutes)
	}
	if !fs.StartedAt.Equal(t0) {
		t.Errorf("started_at = %v", fs.StartedAt)
	}
}

func TestStartValidation(t *testing.T) {
	e := newTestEngine(newFakeStore())

	tests := []struct {
		name   string
		taskID string
		work   int
		brk    int
	}{
		{"missing task", "", 25, 5},
		{"zero work", "task-1", 0, 5},
		{"negative work", "task-1", -10, 5},
		{"zero break", "task-1", 25, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Start(context.Background(), tc.taskID, tc.work, tc.brk)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestPauseComputesRemaining(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(store)

	id, err := e.Start(context.Background(), "task-1", 25, 5)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// 10 minutes and change into the work phase; elapsed floors to 10
	e.Clock = func() time.Time { return t0.Add(10*time.Minute + 42*time.Second) }
	if err := e.Pause(context.Background(), id); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	fs := store.sessions[id]
	if fs.Status != db.SessionPaused {
		t.Errorf("status = %q", fs.Status)
	}
	if fs.RemainingWorkMinutes != 15 {
		t.Errorf("remaining = %d, want 15", fs.RemainingWorkMinutes)
	}
	if fs.PausedAt.IsZero() {
		t.Error("paused_at not set")
	}
}

func TestPauseClampsAtZero(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(store)

	id, _ := e.Start(context.Background(), "task-1", 25, 5)

	// Paused long after the work period elapsed
	e.Clock = func() time.Time { return t0.Add(3 * time.Hour) }
	if err := e.Pause(context.Background(), id); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if got := store.sessions[id].RemainingWorkMinutes; got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}
}

func TestPauseResumePauseCarriesRemaining(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(store)

	id, _ := e.Start(context.Background(), "task-1", 25, 5)

	e.Clock = func() time.Time { return t0.Add(10 * time.Minute) }
	if err := e.Pause(context.Background(), id); err != nil {
		t.Fatalf("first Pause: %v", err)
	}

	// Resume resets the active interval but keeps the 15-minute budget
	resumeAt := t0.Add(30 * time.Minute)
	e.Clock = func() time.Time { return resumeAt }
	if err := e.Resume(context.Background(), id); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	fs := store.sessions[id]
	if !fs.StartedAt.Equal(resumeAt) {
		t.Errorf("started_at = %v, want %v", fs.StartedAt, resumeAt)
	}
	if !fs.PausedAt.IsZero() {
		t.Error("paused_at not cleared on resume")
	}
	if fs.RemainingWorkMinutes != 15 {
		t.Errorf("remaining after resume = %d, want 15", fs.RemainingWorkMinutes)
	}

	// Second interval runs 5 minutes against the 15-minute budget
	e.Clock = func() time.Time { return resumeAt.Add(5 * time.Minute) }
	if err := e.Pause(context.Background(), id); err != nil {
		t.Fatalf("second Pause: %v", err)
	}
	if got := store.sessions[id].RemainingWorkMinutes; got != 10 {
		t.Errorf("remaining after second pause = %d, want 10", got)
	}
}

func TestInvalidTransitions(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(store)

	id, _ := e.Start(context.Background(), "task-1", 25, 5)

	// Resume while active
	if err := e.Resume(context.Background(), id); !errors.Is(err, ErrInvalidState) {
		t.Errorf("resume active: expected ErrInvalidState, got %v", err)
	}

	if err := e.Pause(context.Background(), id); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	// Pause while paused
	if err := e.Pause(context.Background(), id); !errors.Is(err, ErrInvalidState) {
		t.Errorf("pause paused: expected ErrInvalidState, got %v", err)
	}

	if err := e.Complete(context.Background(), id); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	// Completed is terminal
	if err := e.Pause(context.Background(), id); !errors.Is(err, ErrInvalidState) {
		t.Errorf("pause completed: expected ErrInvalidState, got %v", err)
	}
	if err := e.Resume(context.Background(), id); !errors.Is(err, ErrInvalidState) {
		t.Errorf("resume completed: expected ErrInvalidState, got %v", err)
	}
	if err := e.Complete(context.Background(), id); !errors.Is(err, ErrInvalidState) {
		t.Errorf("complete completed: expected ErrInvalidState, got %v", err)
	}
}

func TestCompleteFromPausedAndRecords(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(store)

	id, _ := e.Start(context.Background(), "task-1", 25, 5)
	if err := e.Pause(context.Background(), id); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := e.Complete(context.Background(), id); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	fs := store.sessions[id]
	if fs.Status != db.SessionCompleted {
		t.Errorf("status = %q", fs.Status)
	}
	if fs.CompletedAt.IsZero() {
		t.Error("completed_at not set")
	}
	if got := store.records["2026-08-28"]; got != 25 {
		t.Errorf("daily record = %d, want 25", got)
	}
}

func TestSessionNotFound(t *testing.T) {
	e := newTestEngine(newFakeStore())
	if err := e.Pause(context.Background(), "missing-id"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestPauseAllPartialFailure(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(store)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := e.Start(context.Background(), fmt.Sprintf("task-%d", i), 25, 5)
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
		ids = append(ids, id)
	}
	store.failPatchFor = ids[1]

	report, err := e.PauseAll(context.Background())
	if err != nil {
		t.Fatalf("PauseAll: %v", err)
	}
	if report.Succeeded != 2 || report.Failed != 1 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Failures) != 1 || report.Failures[0].SessionID != ids[1] {
		t.Errorf("failures = %+v", report.Failures)
	}

	// The failed session stays active, the others are paused
	if store.sessions[ids[1]].Status != db.SessionActive {
		t.Errorf("failed session status = %q", store.sessions[ids[1]].Status)
	}
	for _, id := range []string{ids[0], ids[2]} {
		if store.sessions[id].Status != db.SessionPaused {
			t.Errorf("session %s status = %q", id, store.sessions[id].Status)
		}
	}
}

func TestResumeAll(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(store)

	for i := 0; i < 2; i++ {
		id, _ := e.Start(context.Background(), fmt.Sprintf("task-%d", i), 25, 5)
		if err := e.Pause(context.Background(), id); err != nil {
			t.Fatalf("Pause: %v", err)
		}
	}

	report, err := e.ResumeAll(context.Background())
	if err != nil {
		t.Fatalf("ResumeAll: %v", err)
	}
	if report.Succeeded != 2 || report.Failed != 0 {
		t.Errorf("report = %+v", report)
	}

	active, _ := e.ListActive(context.Background())
	if len(active) != 2 {
		t.Errorf("active = %d, want 2", len(active))
	}
}

func TestBatchOnEmptyStore(t *testing.T) {
	e := newTestEngine(newFakeStore())
	report, err := e.PauseAll(context.Background())
	if err != nil {
		t.Fatalf("PauseAll: %v", err)
	}
	if report.Succeeded != 0 || report.Failed != 0 {
		t.Errorf("report = %+v", report)
	}
}
