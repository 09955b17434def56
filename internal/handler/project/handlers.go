package project

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

// ListProjectsHandler returns every project, most recent first
func ListProjectsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := svcCtx.DB.ListAllProjects(r.Context())
		if err != nil {
			logging.Errorf("Failed to list projects: %v", err)
			httputil.InternalError(w, "failed to list projects")
			return
		}
		httputil.OkJSON(w, types.ListProjectsResponse{Projects: projects})
	}
}

// GetProjectHandler returns a single project by id
func GetProjectHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := httputil.PathVar(r, "id")
		p, err := svcCtx.DB.FindProjectByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httputil.NotFound(w, "project not found")
				return
			}
			logging.Errorf("Failed to get project: %v", err)
			httputil.InternalError(w, "failed to get project")
			return
		}
		httputil.OkJSON(w, types.GetProjectResponse{Project: *p})
	}
}

// CreateProjectHandler creates a new project
func CreateProjectHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CreateProjectRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		if req.Name == "" {
			httputil.BadRequest(w, "name is required")
			return
		}

		id, err := svcCtx.DB.CreateProject(r.Context(), db.CreateProjectParams{
			Name:        req.Name,
			Description: req.Description,
			Deadline:    req.Deadline,
		})
		if err != nil {
			logging.Errorf("Failed to create project: %v", err)
			httputil.InternalError(w, "failed to create project")
			return
		}
		httputil.OkJSON(w, types.CreateProjectResponse{ID: id})
	}
}

// DeleteProjectHandler deletes a project and all of its tasks
func DeleteProjectHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := httputil.PathVar(r, "id")
		if err := svcCtx.DB.DeleteProject(r.Context(), id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httputil.NotFound(w, "project not found")
				return
			}
			logging.Errorf("Failed to delete project: %v", err)
			httputil.InternalError(w, "failed to delete project")
			return
		}
		httputil.OkJSON(w, map[string]bool{"deleted": true})
	}
}

// ListProjectTasksHandler returns a project's tasks
func ListProjectTasksHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := httputil.PathVar(r, "id")
		tasks, err := svcCtx.DB.ListTasksByProject(r.Context(), id)
		if err != nil {
			logging.Errorf("Failed to list project tasks: %v", err)
			httputil.InternalError(w, "failed to list tasks")
			return
		}
		httputil.OkJSON(w, types.ListTasksResponse{Tasks: tasks})
	}
}

// ResolveProjectHandler resolves a fuzzy reference to one project
func ResolveProjectHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := httputil.QueryString(r, "ref", "")
		p, err := svcCtx.Resolver.ResolveProject(r.Context(), ref, nil)
		if err != nil {
			if errors.Is(err, resolve.ErrNotFound) {
				httputil.NotFound(w, "no project matched the reference")
				return
			}
			logging.Errorf("Failed to resolve project: %v", err)
			httputil.InternalError(w, "failed to resolve project")
			return
		}
		httputil.OkJSON(w, types.GetProjectResponse{Project: *p})
	}
}

// SuggestProjectsHandler returns ranked project candidates for a reference
func SuggestProjectsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := httputil.QueryString(r, "ref", "")
		limit := httputil.QueryInt(r, "limit", 3)
		candidates, err := svcCtx.Resolver.SuggestProjects(r.Context(), ref, limit)
		if err != nil {
			logging.Errorf("Failed to suggest projects: %v", err)
			httputil.InternalError(w, "failed to suggest projects")
			return
		}
		httputil.OkJSON(w, types.SuggestProjectsResponse{Candidates: candidates})
	}
}
