package resolve

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/focusloop/focusbot/internal/db"
)

// ErrNotFound means no stored entity matched the reference through any tier.
// It is a recoverable outcome: callers turn it into a disambiguation prompt
// built from Suggest, never into a silent best-guess substitute.
var ErrNotFound = errors.New("no matching entity found")

// idPattern matches the canonical entity id shape (hyphenated hex UUID)
var idPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Query is the read-only store surface the resolver needs
type Query interface {
	FindProjectByID(ctx context.Context, id string) (*db.Project, error)
	FindProjectsByNameContains(ctx context.Context, name string) ([]db.Project, error)
	ListAllProjects(ctx context.Context) ([]db.Project, error)
	FindTaskByID(ctx context.Context, id string) (*db.Task, error)
	FindTasksByTitleContains(ctx context.Context, title string) ([]db.Task, error)
	ListAllTasks(ctx context.Context) ([]db.Task, error)
}

// Resolver maps ambiguous user references to stored projects and tasks.
// It only reads through the query port; resolution has no side effects.
type Resolver struct {
	store Query
}

// New creates a resolver over the given query port
func New(store Query) *Resolver {
	return &Resolver{store: store}
}

// IsID reports whether a reference has the canonical id shape
func IsID(reference string) bool {
	return idPattern.MatchString(strings.ToLower(reference))
}

// ResolveProject resolves a reference to a stored project. The hint, when
// present, supplies the conversation's active project for empty references.
// Tiers: id lookup, exact name, substring (most recent), fuzzy above threshold.
func (r *Resolver) ResolveProject(ctx context.Context, reference string, hint *db.ConversationContext) (*db.Project, error) {
	reference = strings.TrimSpace(reference)

	if reference == "" {
		if hint != nil && hint.ActiveProjectID != "" {
			return r.lookupProjectID(ctx, hint.ActiveProjectID)
		}
		return nil, ErrNotFound
	}

	if IsID(reference) {
		p, err := r.lookupProjectID(ctx, reference)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		// An id-shaped reference that matches nothing falls through to the
		// name tiers: it could still be a strangely formatted name.
	}

	projects, err := r.store.ListAllProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	// Exact case-sensitive name, only when unambiguous
	var exact *db.Project
	exactCount := 0
	for i := range projects {
		if projects[i].Name == reference {
			exactCount++
			if exact == nil {
				exact = &projects[i]
			}
		}
	}
	if exactCount == 1 {
		return exact, nil
	}

	// Substring, case-insensitive; lists are most-recent-first so the first
	// hit is the most recently created match
	lower := strings.ToLower(reference)
	for i := range projects {
		if strings.Contains(strings.ToLower(projects[i].Name), lower) {
			return &projects[i], nil
		}
	}

	// Fuzzy scan, linear over all names
	var best *db.Project
	bestScore := 0.0
	for i := range projects {
		score := Score(reference, projects[i].Name)
		if score > bestScore {
			bestScore = score
			best = &projects[i]
		}
	}
	if best != nil && bestScore >= Threshold {
		return best, nil
	}

	return nil, ErrNotFound
}

// ResolveTask resolves a reference to a stored task, scored against titles.
// Same tiers as ResolveProject.
func (r *Resolver) ResolveTask(ctx context.Context, reference string, hint *db.ConversationContext) (*db.Task, error) {
	reference = strings.TrimSpace(reference)

	if reference == "" {
		if hint != nil && hint.ActiveTaskID != "" {
			return r.lookupTaskID(ctx, hint.ActiveTaskID)
		}
		return nil, ErrNotFound
	}

	if IsID(reference) {
		t, err := r.lookupTaskID(ctx, reference)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	tasks, err := r.store.ListAllTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	var exact *db.Task
	exactCount := 0
	for i := range tasks {
		if tasks[i].Title == reference {
			exactCount++
			if exact == nil {
				exact = &tasks[i]
			}
		}
	}
	if exactCount == 1 {
		return exact, nil
	}

	lower := strings.ToLower(reference)
	for i := range tasks {
		if strings.Contains(strings.ToLower(tasks[i].Title), lower) {
			return &tasks[i], nil
		}
	}

	var best *db.Task
	bestScore := 0.0
	for i := range tasks {
		score := Score(reference, tasks[i].Title)
		if score > bestScore {
			bestScore = score
			best = &tasks[i]
		}
	}
	if best != nil && bestScore >= Threshold {
		return best, nil
	}

	return nil, ErrNotFound
}

func (r *Resolver) lookupProjectID(ctx context.Context, id string) (*db.Project, error) {
	p, err := r.store.FindProjectByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find project %s: %w", id, err)
	}
	return p, nil
}

func (r *Resolver) lookupTaskID(ctx context.Context, id string) (*db.Task, error) {
	t, err := r.store.FindTaskByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find task %s: %w", id, err)
	}
	return t, nil
}

// TaskCandidate is a ranked suggestion for a failed task resolution
type TaskCandidate struct {
	Task        db.Task `json:"task"`
	ProjectName string  `json:"project_name"`
	Score       float64 `json:"score"`
}

// ProjectCandidate is a ranked suggestion for a failed project resolution
type ProjectCandidate struct {
	Project db.Project `json:"project"`
	Score   float64    `json:"score"`
}

// SuggestTasks returns up to limit tasks ranked by similarity to the
// reference, best first, ties broken by most recent creation. Each candidate
// carries its owning project's name for display. Never returns ErrNotFound:
// an empty store yields an empty list.
func (r *Resolver) SuggestTasks(ctx context.Context, reference string, limit int) ([]TaskCandidate, error) {
	if limit <= 0 {
		limit = 3
	}

	tasks, err := r.store.ListAllTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	candidates := make([]TaskCandidate, 0, len(tasks))
	for _, t := range tasks {
		candidates = append(candidates, TaskCandidate{
			Task:  t,
			Score: Score(reference, t.Title),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Task.CreatedAt.After(candidates[j].Task.CreatedAt)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	// Annotate owning project names; a missing project leaves the name blank
	// rather than failing the suggestion
	names := make(map[string]string)
	for i := range candidates {
		pid := candidates[i].Task.ProjectID
		name, ok := names[pid]
		if !ok {
			if p, err := r.store.FindProjectByID(ctx, pid); err == nil {
				name = p.Name
			}
			names[pid] = name
		}
		candidates[i].ProjectName = name
	}
	return candidates, nil
}

// SuggestProjects returns up to limit projects ranked by similarity to the
// reference, best first, ties broken by most recent creation.
func (r *Resolver) SuggestProjects(ctx context.Context, reference string, limit int) ([]ProjectCandidate, error) {
	if limit <= 0 {
		limit = 3
	}

	projects, err := r.store.ListAllProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	candidates := make([]ProjectCandidate, 0, len(projects))
	for _, p := range projects {
		candidates = append(candidates, ProjectCandidate{
			Project: p,
			Score:   Score(reference, p.Name),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Project.CreatedAt.After(candidates[j].Project.CreatedAt)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
