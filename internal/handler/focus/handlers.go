package focus

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/focusloop/focusbot/internal/db"
	"github.com/focusloop/focusbot/internal/digest"
	"github.com/focusloop/focusbot/internal/httputil"
	"github.com/focusloop/focusbot/internal/logging"
	"github.com/focusloop/focusbot/internal/resolve"
	"github.com/focusloop/focusbot/internal/session"
	"github.com/focusloop/focusbot/internal/svc"
	"github.com/focusloop/focusbot/internal/types"
)

// StartSessionHandler starts a focus session on a task resolved from a
// reference. Omitted work/break minutes fall back to the configured defaults.
func StartSessionHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.StartSessionRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		task, err := svcCtx.Resolver.ResolveTask(r.Context(), req.TaskRef, nil)
		if err != nil {
			if errors.Is(err, resolve.ErrNotFound) {
				httputil.NotFound(w, "no task matched the reference")
				return
			}
			logging.Errorf("Failed to resolve task: %v", err)
			httputil.InternalError(w, "failed to resolve task")
			return
		}

		work := req.WorkMinutes
		if work <= 0 {
			work = svcCtx.Config.Sessions.DefaultWorkMinutes
		}
		brk := req.BreakMinutes
		if brk <= 0 {
			brk = svcCtx.Config.Sessions.DefaultBreakMinutes
		}

		id, err := svcCtx.Engine.Start(r.Context(), task.ID, work, brk)
		if err != nil {
			if errors.Is(err, session.ErrValidation) {
				httputil.Error(w, err)
				return
			}
			logging.Errorf("Failed to start session: %v", err)
			httputil.InternalError(w, "failed to start session")
			return
		}
		httputil.OkJSON(w, types.StartSessionResponse{ID: id})
	}
}

// GetSessionHandler returns a single session by id
func GetSessionHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := httputil.PathVar(r, "id")
		fs, err := svcCtx.DB.GetSession(r.Context(), id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httputil.NotFound(w, "session not found")
				return
			}
			logging.Errorf("Failed to get session: %v", err)
			httputil.InternalError(w, "failed to get session")
			return
		}
		httputil.OkJSON(w, types.GetSessionResponse{Session: *fs})
	}
}

// ListSessionsHandler lists sessions by status (active by default)
func ListSessionsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := httputil.QueryString(r, "status", db.SessionActive)
		switch status {
		case db.SessionActive, db.SessionPaused, db.SessionCompleted:
		default:
			httputil.BadRequest(w, "invalid session status")
			return
		}

		sessions, err := svcCtx.DB.ListSessionsByStatus(r.Context(), status)
		if err != nil {
			logging.Errorf("Failed to list sessions: %v", err)
			httputil.InternalError(w, "failed to list sessions")
			return
		}
		httputil.OkJSON(w, types.ListSessionsResponse{Sessions: sessions})
	}
}

// ListTaskSessionsHandler returns a task's sessions, most recent first
func ListTaskSessionsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID := httputil.PathVar(r, "id")
		sessions, err := svcCtx.Engine.ListForTask(r.Context(), taskID)
		if err != nil {
			logging.Errorf("Failed to list task sessions: %v", err)
			httputil.InternalError(w, "failed to list sessions")
			return
		}
		httputil.OkJSON(w, types.ListSessionsResponse{Sessions: sessions})
	}
}

// PauseSessionHandler pauses one active session and cancels its phase timer
func PauseSessionHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return transitionHandler(svcCtx.Engine.Pause, func(id string) {
		svcCtx.Agent.Timers().Stop(id)
	})
}

// ResumeSessionHandler resumes one paused session. Phase timers stay down:
// API-driven sessions have no chat channel to notify.
func ResumeSessionHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return transitionHandler(svcCtx.Engine.Resume, nil)
}

// CompleteSessionHandler completes one session and cancels its phase timer
func CompleteSessionHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return transitionHandler(svcCtx.Engine.Complete, func(id string) {
		svcCtx.Agent.Timers().Stop(id)
	})
}

// PauseAllHandler pauses every active session, reporting per-item failures
func PauseAllHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svcCtx.Engine.PauseAll(r.Context())
		if err != nil {
			logging.Errorf("Failed to pause sessions: %v", err)
			httputil.InternalError(w, "failed to pause sessions")
			return
		}
		svcCtx.Agent.Timers().StopAll()
		httputil.OkJSON(w, types.BatchSessionResponse{Report: report})
	}
}

// ResumeAllHandler resumes every paused session, reporting per-item failures
func ResumeAllHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svcCtx.Engine.ResumeAll(r.Context())
		if err != nil {
			logging.Errorf("Failed to resume sessions: %v", err)
			httputil.InternalError(w, "failed to resume sessions")
			return
		}
		httputil.OkJSON(w, types.BatchSessionResponse{Report: report})
	}
}

// SummaryHandler returns the formatted status summary and today's stats
func SummaryHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := digest.Generate(r.Context(), svcCtx.DB)
		if err != nil {
			logging.Errorf("Failed to generate summary: %v", err)
			httputil.InternalError(w, "failed to generate summary")
			return
		}
		today, err := svcCtx.DB.GetDailyStats(r.Context(), time.Now().Format("2006-01-02"))
		if err != nil {
			logging.Errorf("Failed to load daily stats: %v", err)
			httputil.InternalError(w, "failed to load daily stats")
			return
		}
		httputil.OkJSON(w, types.SummaryResponse{Summary: summary, Today: today})
	}
}

func transitionHandler(op func(ctx context.Context, id string) error, after func(id string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := httputil.PathVar(r, "id")
		if err := op(r.Context(), id); err != nil {
			switch {
			case errors.Is(err, session.ErrSessionNotFound):
				httputil.NotFound(w, "session not found")
			case errors.Is(err, session.ErrInvalidState):
				httputil.Conflict(w, err.Error())
			case errors.Is(err, session.ErrValidation):
				httputil.Error(w, err)
			default:
				logging.Errorf("Session transition failed: %v", err)
				httputil.InternalError(w, "session transition failed")
			}
			return
		}
		if after != nil {
			after(id)
		}
		httputil.OkJSON(w, map[string]bool{"ok": true})
	}
}
