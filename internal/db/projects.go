package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Project represents a project owning zero or more tasks.
// Project names are not unique; resolution ranks rather than assumes.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Deadline    string    `json:"deadline,omitempty"` // YYYY-MM-DD, empty when unset
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateProjectParams holds the fields for a new project
type CreateProjectParams struct {
	Name        string
	Description string
	Deadline    string
}

const projectColumns = `id, name, description, deadline, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (Project, error) {
	var p Project
	var deadline sql.NullString
	var createdAt, updatedAt int64
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &deadline, &createdAt, &updatedAt); err != nil {
		return Project{}, err
	}
	p.Deadline = deadline.String
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return p, nil
}

// CreateProject inserts a new project and returns its id
func (s *Store) CreateProject(ctx context.Context, params CreateProjectParams) (string, error) {
	id := uuid.New().String()
	now := time.Now().Unix()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, deadline, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, params.Name, params.Description, nullString(params.Deadline), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create project: %w", err)
	}
	return id, nil
}

// CreateProjects inserts multiple projects and returns their ids in input order.
// Inserts are independent; a failure aborts with the ids created so far discarded.
func (s *Store) CreateProjects(ctx context.Context, params []CreateProjectParams) ([]string, error) {
	ids := make([]string, 0, len(params))
	for _, p := range params {
		id, err := s.CreateProject(ctx, p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FindProjectByID returns a project by id, or sql.ErrNoRows if absent
func (s *Store) FindProjectByID(ctx context.Context, id string) (*Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindProjectsByNameContains returns projects whose name contains the given
// string, case-insensitive, most recently created first.
func (s *Store) FindProjectsByNameContains(ctx context.Context, name string) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE name LIKE '%' || ? || '%' ORDER BY created_at DESC`,
		name)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()
	return collectProjects(rows)
}

// ListAllProjects returns every project, most recently created first
func (s *Store) ListAllProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()
	return collectProjects(rows)
}

// DeleteProject removes a project and, via cascade, all its tasks and their
// sessions. Hard delete - there is no undo.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
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

func collectProjects(rows *sql.Rows) ([]Project, error) {
	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
