package resolve

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/focusloop/focusbot/internal/db"
)

// fakeQuery serves projects and tasks from slices, most recent first,
// the same ordering the real store returns.
type fakeQuery struct {
	projects []db.Project
	tasks    []db.Task
	failList bool
}

var errStore = errors.New("store exploded")

func (f *fakeQuery) FindProjectByID(_ context.Context, id string) (*db.Project, error) {
	for i := range f.projects {
		if f.projects[i].ID == id {
			return &f.projects[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeQuery) FindProjectsByNameContains(_ context.Context, name string) ([]db.Project, error) {
	return nil, nil
}

func (f *fakeQuery) ListAllProjects(_ context.Context) ([]db.Project, error) {
	if f.failList {
		return nil, errStore
	}
	return f.projects, nil
}

func (f *fakeQuery) FindTaskByID(_ context.Context, id string) (*db.Task, error) {
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			return &f.tasks[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeQuery) FindTasksByTitleContains(_ context.Context, title string) ([]db.Task, error) {
	return nil, nil
}

func (f *fakeQuery) ListAllTasks(_ context.Context) ([]db.Task, error) {
	if f.failList {
		return nil, errStore
	}
	return f.tasks, nil
}

const (
	idWebsite = "11111111-1111-1111-1111-111111111111"
	idBackend = "22222222-2222-2222-2222-222222222222"
	idLanding = "33333333-3333-3333-3333-333333333333"
	idAPI     = "44444444-4444-4444-4444-444444444444"
)

func testQuery() *fakeQuery {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return &fakeQuery{
		projects: []db.Project{
			{ID: idBackend, Name: "Backend Rewrite", CreatedAt: base.Add(2 * time.Hour)},
			{ID: idWebsite, Name: "Website Redesign", CreatedAt: base},
		},
		tasks: []db.Task{
			{ID: idAPI, ProjectID: idBackend, Title: "Design API schema", CreatedAt: base.Add(3 * time.Hour)},
			{ID: idLanding, ProjectID: idWebsite, Title: "Write landing page copy", CreatedAt: base.Add(time.Hour)},
		},
	}
}

func TestResolveProjectByID(t *testing.T) {
	r := New(testQuery())
	p, err := r.ResolveProject(context.Background(), idWebsite, nil)
	if err != nil {
		t.Fatalf("ResolveProject: %v", err)
	}
	if p.Name != "Website Redesign" {
		t.Errorf("got %q", p.Name)
	}
}

func TestResolveProjectExactName(t *testing.T) {
	r := New(testQuery())
	p, err := r.ResolveProject(context.Background(), "Backend Rewrite", nil)
	if err != nil {
		t.Fatalf("ResolveProject: %v", err)
	}
	if p.ID != idBackend {
		t.Errorf("got %q", p.ID)
	}
}

func TestResolveProjectExactNameAmbiguous(t *testing.T) {
	q := testQuery()
	// Two projects with the same exact name: the exact tier must not pick
	// either, but the substring tier then takes the most recent.
	q.projects = append([]db.Project{
		{ID: "55555555-5555-5555-5555-555555555555", Name: "Website Redesign", CreatedAt: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)},
	}, q.projects...)

	r := New(q)
	p, err := r.ResolveProject(context.Background(), "Website Redesign", nil)
	if err != nil {
		t.Fatalf("ResolveProject: %v", err)
	}
	if p.ID != "55555555-5555-5555-5555-555555555555" {
		t.Errorf("expected most recent duplicate, got %q", p.ID)
	}
}

func TestResolveProjectSubstring(t *testing.T) {
	r := New(testQuery())
	p, err := r.ResolveProject(context.Background(), "website", nil)
	if err != nil {
		t.Fatalf("ResolveProject: %v", err)
	}
	if p.ID != idWebsite {
		t.Errorf("got %q", p.ID)
	}
}

func TestResolveProjectFuzzy(t *testing.T) {
	r := New(testQuery())
	// One typo, no substring match; fuzzy tier should still land it
	p, err := r.ResolveProject(context.Background(), "Website Redesine", nil)
	if err != nil {
		t.Fatalf("ResolveProject: %v", err)
	}
	if p.ID != idWebsite {
		t.Errorf("got %q", p.ID)
	}
}

func TestResolveProjectNotFound(t *testing.T) {
	r := New(testQuery())
	_, err := r.ResolveProject(context.Background(), "zzzzzzzz", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveProjectEmptyReferenceUsesHint(t *testing.T) {
	r := New(testQuery())

	hint := &db.ConversationContext{ActiveProjectID: idBackend}
	p, err := r.ResolveProject(context.Background(), "", hint)
	if err != nil {
		t.Fatalf("ResolveProject: %v", err)
	}
	if p.ID != idBackend {
		t.Errorf("got %q", p.ID)
	}

	if _, err := r.ResolveProject(context.Background(), "", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound without hint, got %v", err)
	}
}

func TestResolveProjectIDShapedMissFallsThrough(t *testing.T) {
	q := testQuery()
	q.projects = append(q.projects, db.Project{
		ID:        "66666666-6666-6666-6666-666666666666",
		Name:      "99999999-9999-9999-9999-999999999999",
		CreatedAt: time.Now(),
	})
	r := New(q)

	// Id-shaped reference matching no row, but matching a name exactly
	p, err := r.ResolveProject(context.Background(), "99999999-9999-9999-9999-999999999999", nil)
	if err != nil {
		t.Fatalf("ResolveProject: %v", err)
	}
	if p.ID != "66666666-6666-6666-6666-666666666666" {
		t.Errorf("got %q", p.ID)
	}
}

func TestResolveProjectStoreErrorPropagates(t *testing.T) {
	q := testQuery()
	q.failList = true
	r := New(q)
	_, err := r.ResolveProject(context.Background(), "website", nil)
	if !errors.Is(err, errStore) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}

func TestResolveTaskTiers(t *testing.T) {
	r := New(testQuery())

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"by id", idLanding, idLanding},
		{"exact title", "Design API schema", idAPI},
		{"substring", "landing", idLanding},
		{"fuzzy", "Design API shcema", idAPI},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			task, err := r.ResolveTask(context.Background(), tc.ref, nil)
			if err != nil {
				t.Fatalf("ResolveTask(%q): %v", tc.ref, err)
			}
			if task.ID != tc.want {
				t.Errorf("ResolveTask(%q) = %s, want %s", tc.ref, task.ID, tc.want)
			}
		})
	}

	if _, err := r.ResolveTask(context.Background(), "qqqqqq", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSuggestTasksRankedAndAnnotated(t *testing.T) {
	r := New(testQuery())

	candidates, err := r.SuggestTasks(context.Background(), "landing page", 3)
	if err != nil {
		t.Fatalf("SuggestTasks: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if candidates[0].Task.ID != idLanding {
		t.Errorf("best candidate = %s, want %s", candidates[0].Task.ID, idLanding)
	}
	if candidates[0].Score < candidates[1].Score {
		t.Errorf("candidates not sorted by score")
	}
	if candidates[0].ProjectName != "Website Redesign" {
		t.Errorf("project annotation = %q", candidates[0].ProjectName)
	}
}

func TestSuggestTasksEmptyStore(t *testing.T) {
	r := New(&fakeQuery{})
	candidates, err := r.SuggestTasks(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("SuggestTasks: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected empty suggestions, got %d", len(candidates))
	}
}

func TestSuggestProjectsLimit(t *testing.T) {
	r := New(testQuery())
	candidates, err := r.SuggestProjects(context.Background(), "rewrite", 1)
	if err != nil {
		t.Fatalf("SuggestProjects: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if candidates[0].Project.ID != idBackend {
		t.Errorf("best candidate = %s", candidates[0].Project.ID)
	}
}
