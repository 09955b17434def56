package intent

// Kind identifies what the user wants. The set is closed; every kind carries
// its own typed entity struct on Result instead of a schema-less bag.
type Kind string

const (
	KindCreateProject   Kind = "create_project"
	KindCreateProjects  Kind = "create_projects"
	KindCreateTask      Kind = "create_task"
	KindCreateTasks     Kind = "create_tasks"
	KindListProjects    Kind = "list_projects"
	KindListTasks       Kind = "list_tasks"
	KindShowSummary     Kind = "show_summary"
	KindDeleteProject   Kind = "delete_project"
	KindStartSession    Kind = "start_session"
	KindPauseSessions   Kind = "pause_sessions"
	KindResumeSessions  Kind = "resume_sessions"
	KindCompleteSession Kind = "complete_session"
	KindGoingOut        Kind = "going_out"
	KindComingBack      Kind = "coming_back"
	KindHelp            Kind = "help"
	KindUnknown         Kind = "unknown"
)

// ProjectEntity describes a project to create
type ProjectEntity struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
}

// TaskEntity describes a task to create
type TaskEntity struct {
	ProjectRef       string `json:"project_ref,omitempty"` // id, name, or fuzzy reference
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	Deadline         string `json:"deadline,omitempty"`
	EstimatedMinutes int    `json:"estimated_minutes,omitempty"`
}

// SessionEntity describes a focus session to start or complete
type SessionEntity struct {
	TaskRef      string `json:"task_ref,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
	WorkMinutes  int    `json:"work_minutes,omitempty"`
	BreakMinutes int    `json:"break_minutes,omitempty"`
}

// AwayEntity describes a going-out announcement
type AwayEntity struct {
	Reason          string `json:"reason,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

// Result is one classified message. Only the entity field matching the kind
// is populated; everything else stays nil.
type Result struct {
	Kind Kind `json:"intent"`

	Project  *ProjectEntity  `json:"project,omitempty"`
	Projects []ProjectEntity `json:"projects,omitempty"`
	Task     *TaskEntity     `json:"task,omitempty"`
	Tasks    []TaskEntity    `json:"tasks,omitempty"`
	Session  *SessionEntity  `json:"session,omitempty"`
	Away     *AwayEntity     `json:"away,omitempty"`

	// ProjectRef / TaskRef carry the reference for list/delete kinds
	ProjectRef string `json:"project_ref,omitempty"`
	TaskRef    string `json:"task_ref,omitempty"`
}
