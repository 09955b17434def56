package types

import (
	"github.com/focusloop/focusbot/internal/db"
	"github.com/focusloop/focusbot/internal/resolve"
	"github.com/focusloop/focusbot/internal/session"
)

// HealthResponse is returned by the health check endpoint
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// CreateProjectRequest creates one project
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Deadline    string `json:"deadline,omitempty"` // YYYY-MM-DD
}

// CreateProjectResponse returns the new project's id
type CreateProjectResponse struct {
	ID string `json:"id"`
}

// ListProjectsResponse lists every project, most recent first
type ListProjectsResponse struct {
	Projects []db.Project `json:"projects"`
}

// GetProjectResponse returns one project
type GetProjectResponse struct {
	Project db.Project `json:"project"`
}

// CreateTaskRequest creates one task under a project. ProjectRef may be an
// id, an exact name, or a fuzzy reference.
type CreateTaskRequest struct {
	ProjectRef       string `json:"project_ref"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	Deadline         string `json:"deadline,omitempty"`
	EstimatedMinutes int    `json:"estimated_minutes,omitempty"`
}

// CreateTaskResponse returns the new task's id
type CreateTaskResponse struct {
	ID string `json:"id"`
}

// ListTasksResponse lists tasks, most recent first
type ListTasksResponse struct {
	Tasks []db.Task `json:"tasks"`
}

// GetTaskResponse returns one task
type GetTaskResponse struct {
	Task db.Task `json:"task"`
}

// UpdateTaskStatusRequest sets a task's status
type UpdateTaskStatusRequest struct {
	ID     string `path:"id" json:"-"`
	Status string `json:"status"`
}

// ResolveRequest resolves a fuzzy reference to one entity
type ResolveRequest struct {
	Ref string `form:"ref" json:"ref"`
}

// SuggestTasksResponse carries ranked task candidates for a reference
type SuggestTasksResponse struct {
	Candidates []resolve.TaskCandidate `json:"candidates"`
}

// SuggestProjectsResponse carries ranked project candidates for a reference
type SuggestProjectsResponse struct {
	Candidates []resolve.ProjectCandidate `json:"candidates"`
}

// StartSessionRequest starts a focus session. TaskRef may be fuzzy; minutes
// fall back to the configured defaults when omitted.
type StartSessionRequest struct {
	TaskRef      string `json:"task_ref"`
	WorkMinutes  int    `json:"work_minutes,omitempty"`
	BreakMinutes int    `json:"break_minutes,omitempty"`
}

// StartSessionResponse returns the new session's id
type StartSessionResponse struct {
	ID string `json:"id"`
}

// ListSessionsResponse lists sessions, most recently started first
type ListSessionsResponse struct {
	Sessions []db.FocusSession `json:"sessions"`
}

// GetSessionResponse returns one session
type GetSessionResponse struct {
	Session db.FocusSession `json:"session"`
}

// BatchSessionResponse reports a pause-all or resume-all outcome
type BatchSessionResponse struct {
	Report session.BatchReport `json:"report"`
}

// SummaryResponse carries the formatted status summary
type SummaryResponse struct {
	Summary string        `json:"summary"`
	Today   db.DailyStats `json:"today"`
}

// ChatRequest routes one message through the conversational agent
type ChatRequest struct {
	ChannelID string `json:"channel_id"`
	Message   string `json:"message"`
}

// ChatResponse carries the agent's reply
type ChatResponse struct {
	Reply string `json:"reply"`
}
