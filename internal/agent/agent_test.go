package agent

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/focusloop/focusbot/internal/db"
	"github.com/focusloop/focusbot/internal/db/migrations"
	"github.com/focusloop/focusbot/internal/intent"
	"github.com/focusloop/focusbot/internal/logging"
	"github.com/focusloop/focusbot/internal/resolve"
	"github.com/focusloop/focusbot/internal/session"
)

// scriptedClassifier returns canned results keyed by message text
type scriptedClassifier struct {
	results map[string]*intent.Result
}

func (s *scriptedClassifier) Classify(_ context.Context, message, _ string) (*intent.Result, error) {
	if r, ok := s.results[message]; ok {
		return r, nil
	}
	return &intent.Result{Kind: intent.KindUnknown}, nil
}

type nopSender struct{}

func (nopSender) Send(context.Context, string, string) error { return nil }

func newTestAgent(t *testing.T, results map[string]*intent.Result) (*Agent, *db.Store) {
	t.Helper()
	logging.Disable()
	migrations.QuietMode = true

	store, err := db.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	a := New(store, resolve.New(store), session.NewEngine(store),
		&scriptedClassifier{results: results}, nopSender{})
	t.Cleanup(a.Timers().StopAll)
	return a, store
}

func TestHandleMessageCreateProjectAndTask(t *testing.T) {
	a, store := newTestAgent(t, map[string]*intent.Result{
		"make a website project": {
			Kind:    intent.KindCreateProject,
			Project: &intent.ProjectEntity{Name: "Website Redesign"},
		},
		"add the landing page task": {
			Kind: intent.KindCreateTask,
			Task: &intent.TaskEntity{ProjectRef: "website", Title: "Landing page copy"},
		},
	})
	ctx := context.Background()

	reply := a.HandleMessage(ctx, "make a website project", "C1")
	require.Contains(t, reply, "Created project")
	require.Contains(t, reply, "Website Redesign")

	reply = a.HandleMessage(ctx, "add the landing page task", "C1")
	require.Contains(t, reply, "Created task")
	require.Contains(t, reply, "Website Redesign")

	tasks, err := store.ListAllTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, 25, tasks[0].EstimatedMinutes)
}

func TestHandleMessageConversationContextPersists(t *testing.T) {
	a, store := newTestAgent(t, map[string]*intent.Result{
		"make a project": {
			Kind:    intent.KindCreateProject,
			Project: &intent.ProjectEntity{Name: "Solo"},
		},
		// Empty project reference: the active project from context must be used
		"add a task": {
			Kind: intent.KindCreateTask,
			Task: &intent.TaskEntity{Title: "Implicit home"},
		},
	})
	ctx := context.Background()

	a.HandleMessage(ctx, "make a project", "C1")

	cc, err := store.GetConversationContext(ctx, "C1")
	require.NoError(t, err)
	require.NotEmpty(t, cc.ActiveProjectID)
	require.Len(t, cc.Messages, 2) // user turn + assistant turn

	reply := a.HandleMessage(ctx, "add a task", "C1")
	require.Contains(t, reply, "Created task")
	require.Contains(t, reply, "Solo")
}

func TestHandleMessageSuggestionsOnMiss(t *testing.T) {
	a, _ := newTestAgent(t, map[string]*intent.Result{
		"setup": {
			Kind:    intent.KindCreateProject,
			Project: &intent.ProjectEntity{Name: "Website Redesign"},
		},
		"start": {
			Kind:    intent.KindStartSession,
			Session: &intent.SessionEntity{TaskRef: "zzzz completely unrelated zzzz"},
		},
	})
	ctx := context.Background()

	a.HandleMessage(ctx, "setup", "C1")

	reply := a.HandleMessage(ctx, "start", "C1")
	require.Contains(t, reply, "couldn't find a task")
}

func TestHandleMessageSessionLifecycle(t *testing.T) {
	a, store := newTestAgent(t, map[string]*intent.Result{
		"setup project": {
			Kind:    intent.KindCreateProject,
			Project: &intent.ProjectEntity{Name: "Website"},
		},
		"setup task": {
			Kind: intent.KindCreateTask,
			Task: &intent.TaskEntity{Title: "Landing page"},
		},
		"start focus": {
			Kind:    intent.KindStartSession,
			Session: &intent.SessionEntity{TaskRef: "landing"},
		},
		"pause": {Kind: intent.KindPauseSessions},
		"resume": {Kind: intent.KindResumeSessions},
		"finish": {Kind: intent.KindCompleteSession},
	})
	ctx := context.Background()

	a.HandleMessage(ctx, "setup project", "C1")
	a.HandleMessage(ctx, "setup task", "C1")

	reply := a.HandleMessage(ctx, "start focus", "C1")
	require.Contains(t, reply, "25 min work / 5 min break")
	require.Equal(t, 1, a.Timers().Pending())

	active, err := store.ListSessionsByStatus(ctx, db.SessionActive)
	require.NoError(t, err)
	require.Len(t, active, 1)

	reply = a.HandleMessage(ctx, "pause", "C1")
	require.Contains(t, reply, "Paused 1 sessions")
	require.Zero(t, a.Timers().Pending())

	reply = a.HandleMessage(ctx, "resume", "C1")
	require.Contains(t, reply, "Resumed 1 sessions")
	require.Equal(t, 1, a.Timers().Pending())

	reply = a.HandleMessage(ctx, "finish", "C1")
	require.Contains(t, reply, "Session completed")
	require.Zero(t, a.Timers().Pending())

	completed, err := store.ListSessionsByStatus(ctx, db.SessionCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
}

func TestHandleMessagePauseWithNothingRunning(t *testing.T) {
	a, _ := newTestAgent(t, map[string]*intent.Result{
		"pause": {Kind: intent.KindPauseSessions},
	})
	reply := a.HandleMessage(context.Background(), "pause", "C1")
	require.Equal(t, "No active sessions to pause.", reply)
}

func TestHandleMessageGoingOutPausesSessions(t *testing.T) {
	a, store := newTestAgent(t, map[string]*intent.Result{
		"setup project": {
			Kind:    intent.KindCreateProject,
			Project: &intent.ProjectEntity{Name: "Website"},
		},
		"setup task": {
			Kind: intent.KindCreateTask,
			Task: &intent.TaskEntity{Title: "Landing page"},
		},
		"start focus": {
			Kind:    intent.KindStartSession,
			Session: &intent.SessionEntity{TaskRef: "landing"},
		},
		"leaving": {
			Kind: intent.KindGoingOut,
			Away: &intent.AwayEntity{Reason: "lunch", DurationMinutes: 30},
		},
	})
	ctx := context.Background()

	a.HandleMessage(ctx, "setup project", "C1")
	a.HandleMessage(ctx, "setup task", "C1")
	a.HandleMessage(ctx, "start focus", "C1")

	reply := a.HandleMessage(ctx, "leaving", "C1")
	require.Contains(t, reply, "lunch")
	require.Contains(t, reply, "Paused 1 running sessions")
	require.Contains(t, reply, "30 minutes")

	paused, err := store.ListSessionsByStatus(ctx, db.SessionPaused)
	require.NoError(t, err)
	require.Len(t, paused, 1)
}

func TestHandleMessageDeleteProjectClearsContext(t *testing.T) {
	a, store := newTestAgent(t, map[string]*intent.Result{
		"setup": {
			Kind:    intent.KindCreateProject,
			Project: &intent.ProjectEntity{Name: "Doomed"},
		},
		"remove": {
			Kind:       intent.KindDeleteProject,
			ProjectRef: "Doomed",
		},
	})
	ctx := context.Background()

	a.HandleMessage(ctx, "setup", "C1")
	reply := a.HandleMessage(ctx, "remove", "C1")
	require.Contains(t, reply, "Deleted project")

	cc, err := store.GetConversationContext(ctx, "C1")
	require.NoError(t, err)
	require.Empty(t, cc.ActiveProjectID)

	projects, err := store.ListAllProjects(ctx)
	require.NoError(t, err)
	require.Empty(t, projects)
}

func TestHandleMessageHelpAndUnknown(t *testing.T) {
	a, _ := newTestAgent(t, map[string]*intent.Result{
		"help": {Kind: intent.KindHelp},
	})
	ctx := context.Background()

	reply := a.HandleMessage(ctx, "help", "C1")
	require.True(t, strings.Contains(reply, "What I can do"))

	reply = a.HandleMessage(ctx, "blah blah", "C1")
	require.Contains(t, reply, "didn't catch that")
}

func TestHandleMessageSummary(t *testing.T) {
	a, store := newTestAgent(t, map[string]*intent.Result{
		"summary": {Kind: intent.KindShowSummary},
	})
	ctx := context.Background()

	projectID, err := store.CreateProject(ctx, db.CreateProjectParams{Name: "P"})
	require.NoError(t, err)
	taskID, err := store.CreateTask(ctx, db.CreateTaskParams{ProjectID: projectID, Title: "Visible task"})
	require.NoError(t, err)
	require.NoError(t, store.UpdateTaskStatus(ctx, taskID, db.TaskStatusInProgress))

	reply := a.HandleMessage(ctx, "summary", "C1")
	require.Contains(t, reply, "Current status")
	require.Contains(t, reply, "Visible task")
}
