package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task represents a unit of work owned by exactly one project
type Task struct {
	ID               string    `json:"id"`
	ProjectID        string    `json:"project_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Status           string    `json:"status"`
	EstimatedMinutes int       `json:"estimated_minutes"`
	Deadline         string    `json:"deadline,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreateTaskParams holds the fields for a new task
type CreateTaskParams struct {
	ProjectID        string
	Title            string
	Description      string
	Deadline         string
	EstimatedMinutes int
}

const taskColumns = `id, project_id, title, description, status, estimated_minutes, deadline, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (Task, error) {
	var t Task
	var deadline sql.NullString
	var createdAt, updatedAt int64
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status,
		&t.EstimatedMinutes, &deadline, &createdAt, &updatedAt); err != nil {
		return Task{}, err
	}
	t.Deadline = deadline.String
	t.CreatedAt = time.Unix(createdAt, 0)
	t.UpdatedAt = time.Unix(updatedAt, 0)
	return t, nil
}

// CreateTask inserts a new task under an existing project and returns its id.
// The owning project must exist; the foreign key rejects orphan tasks.
func (s *Store) CreateTask(ctx context.Context, params CreateTaskParams) (string, error) {
	id := uuid.New().String()
	now := time.Now().Unix()

	estimated := params.EstimatedMinutes
	if estimated <= 0 {
		estimated = 25
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, project_id, title, description, status, estimated_minutes, deadline, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, params.ProjectID, params.Title, params.Description, TaskStatusPending,
		estimated, nullString(params.Deadline), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}
	return id, nil
}

// CreateTasks inserts multiple tasks under one project, returning ids in input order
func (s *Store) CreateTasks(ctx context.Context, projectID string, params []CreateTaskParams) ([]string, error) {
	ids := make([]string, 0, len(params))
	for _, p := range params {
		p.ProjectID = projectID
		id, err := s.CreateTask(ctx, p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FindTaskByID returns a task by id, or sql.ErrNoRows if absent
func (s *Store) FindTaskByID(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindTasksByTitleContains returns tasks whose title contains the given
// string, case-insensitive, most recently created first.
func (s *Store) FindTasksByTitleContains(ctx context.Context, title string) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE title LIKE '%' || ? || '%' ORDER BY created_at DESC`,
		title)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// ListAllTasks returns every task, most recently created first
func (s *Store) ListAllTasks(ctx context.Context) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// ListTasksByProject returns a project's tasks, most recently created first
func (s *Store) ListTasksByProject(ctx context.Context, projectID string) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY created_at DESC`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// ListTasksByStatus returns tasks in the given status, most recently created first
func (s *Store) ListTasksByStatus(ctx context.Context, status string) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE status = ? ORDER BY created_at DESC`,
		status)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks by status: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// ListPriorityTasks returns up to limit unfinished tasks, deadline-bearing
// tasks first (earliest deadline), then oldest first.
func (s *Store) ListPriorityTasks(ctx context.Context, limit int) ([]Task, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE status != ?
		 ORDER BY CASE WHEN deadline IS NULL THEN 1 ELSE 0 END, deadline ASC, created_at ASC
		 LIMIT ?`,
		TaskStatusCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list priority tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// UpdateTaskStatus sets a task's status and bumps updated_at
func (s *Store) UpdateTaskStatus(ctx context.Context, id, status string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
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

func collectTasks(rows *sql.Rows) ([]Task, error) {
	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
