package task

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/focusloop/focusbot/internal/db"
	"github.com/focusloop/focusbot/internal/httputil"
	"github.com/focusloop/focusbot/internal/logging"
	"github.com/focusloop/focusbot/internal/resolve"
	"github.com/focusloop/focusbot/internal/svc"
	"github.com/focusloop/focusbot/internal/types"
)

// ListTasksHandler returns tasks, optionally filtered by status
func ListTasksHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			tasks []db.Task
			err   error
		)
		if status := httputil.QueryString(r, "status", ""); status != "" {
			tasks, err = svcCtx.DB.ListTasksByStatus(r.Context(), status)
		} else {
			tasks, err = svcCtx.DB.ListAllTasks(r.Context())
		}
		if err != nil {
			logging.Errorf("Failed to list tasks: %v", err)
			httputil.InternalError(w, "failed to list tasks")
			return
		}
		httputil.OkJSON(w, types.ListTasksResponse{Tasks: tasks})
	}
}

// GetTaskHandler returns a single task by id
func GetTaskHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := httputil.PathVar(r, "id")
		t, err := svcCtx.DB.FindTaskByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httputil.NotFound(w, "task not found")
				return
			}
			logging.Errorf("Failed to get task: %v", err)
			httputil.InternalError(w, "failed to get task")
			return
		}
		httputil.OkJSON(w, types.GetTaskResponse{Task: *t})
	}
}

// CreateTaskHandler creates a task under a project resolved from a reference
func CreateTaskHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CreateTaskRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		if req.Title == "" {
			httputil.BadRequest(w, "title is required")
			return
		}

		project, err := svcCtx.Resolver.ResolveProject(r.Context(), req.ProjectRef, nil)
		if err != nil {
			if errors.Is(err, resolve.ErrNotFound) {
				httputil.NotFound(w, "no project matched the reference")
				return
			}
			logging.Errorf("Failed to resolve project: %v", err)
			httputil.InternalError(w, "failed to resolve project")
			return
		}

		id, err := svcCtx.DB.CreateTask(r.Context(), db.CreateTaskParams{
			ProjectID:        project.ID,
			Title:            req.Title,
			Description:      req.Description,
			Deadline:         req.Deadline,
			EstimatedMinutes: req.EstimatedMinutes,
		})
		if err != nil {
			logging.Errorf("Failed to create task: %v", err)
			httputil.InternalError(w, "failed to create task")
			return
		}
		httputil.OkJSON(w, types.CreateTaskResponse{ID: id})
	}
}

// UpdateTaskStatusHandler sets a task's status
func UpdateTaskStatusHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.UpdateTaskStatusRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		switch req.Status {
		case db.TaskStatusPending, db.TaskStatusInProgress, db.TaskStatusCompleted:
		default:
			httputil.BadRequest(w, "invalid task status")
			return
		}

		if err := svcCtx.DB.UpdateTaskStatus(r.Context(), req.ID, req.Status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httputil.NotFound(w, "task not found")
				return
			}
			logging.Errorf("Failed to update task status: %v", err)
			httputil.InternalError(w, "failed to update task status")
			return
		}
		httputil.OkJSON(w, map[string]bool{"updated": true})
	}
}

// ResolveTaskHandler resolves a fuzzy reference to one task
func ResolveTaskHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := httputil.QueryString(r, "ref", "")
		t, err := svcCtx.Resolver.ResolveTask(r.Context(), ref, nil)
		if err != nil {
			if errors.Is(err, resolve.ErrNotFound) {
				httputil.NotFound(w, "no task matched the reference")
				return
			}
			logging.Errorf("Failed to resolve task: %v", err)
			httputil.InternalError(w, "failed to resolve task")
			return
		}
		httputil.OkJSON(w, types.GetTaskResponse{Task: *t})
	}
}

// SuggestTasksHandler returns ranked task candidates for a reference
func SuggestTasksHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := httputil.QueryString(r, "ref", "")
		limit := httputil.QueryInt(r, "limit", 3)
		candidates, err := svcCtx.Resolver.SuggestTasks(r.Context(), ref, limit)
		if err != nil {
			logging.Errorf("Failed to suggest tasks: %v", err)
			httputil.InternalError(w, "failed to suggest tasks")
			return
		}
		httputil.OkJSON(w, types.SuggestTasksResponse{Candidates: candidates})
	}
}
