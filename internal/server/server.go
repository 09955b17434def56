package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/focusloop/focusbot/internal/handler"
	"github.com/focusloop/focusbot/internal/handler/chat"
	"github.com/focusloop/focusbot/internal/handler/focus"
	"github.com/focusloop/focusbot/internal/handler/project"
	"github.com/focusloop/focusbot/internal/handler/task"
	"github.com/focusloop/focusbot/internal/logging"
	"github.com/focusloop/focusbot/internal/svc"
)

// Run starts the HTTP API over an initialized service context and blocks
// until the context is cancelled.
func Run(ctx context.Context, svcCtx *svc.ServiceContext) error {
	addr := fmt.Sprintf("%s:%d", svcCtx.Config.Host, svcCtx.Config.Port)
	if err := checkPortAvailable(addr); err != nil {
		return fmt.Errorf("port %d is already in use", svcCtx.Config.Port)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Get("/health", handler.HealthCheckHandler(svcCtx))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/projects", project.ListProjectsHandler(svcCtx))
		r.Post("/projects", project.CreateProjectHandler(svcCtx))
		r.Get("/projects/resolve", project.ResolveProjectHandler(svcCtx))
		r.Get("/projects/suggest", project.SuggestProjectsHandler(svcCtx))
		r.Get("/projects/{id}", project.GetProjectHandler(svcCtx))
		r.Delete("/projects/{id}", project.DeleteProjectHandler(svcCtx))
		r.Get("/projects/{id}/tasks", project.ListProjectTasksHandler(svcCtx))

		r.Get("/tasks", task.ListTasksHandler(svcCtx))
		r.Post("/tasks", task.CreateTaskHandler(svcCtx))
		r.Get("/tasks/resolve", task.ResolveTaskHandler(svcCtx))
		r.Get("/tasks/suggest", task.SuggestTasksHandler(svcCtx))
		r.Get("/tasks/{id}", task.GetTaskHandler(svcCtx))
		r.Put("/tasks/{id}/status", task.UpdateTaskStatusHandler(svcCtx))
		r.Get("/tasks/{id}/sessions", focus.ListTaskSessionsHandler(svcCtx))

		r.Get("/sessions", focus.ListSessionsHandler(svcCtx))
		r.Post("/sessions", focus.StartSessionHandler(svcCtx))
		r.Post("/sessions/pause", focus.PauseAllHandler(svcCtx))
		r.Post("/sessions/resume", focus.ResumeAllHandler(svcCtx))
		r.Get("/sessions/{id}", focus.GetSessionHandler(svcCtx))
		r.Post("/sessions/{id}/pause", focus.PauseSessionHandler(svcCtx))
		r.Post("/sessions/{id}/resume", focus.ResumeSessionHandler(svcCtx))
		r.Post("/sessions/{id}/complete", focus.CompleteSessionHandler(svcCtx))

		r.Get("/summary", focus.SummaryHandler(svcCtx))
		r.Post("/chat", chat.ChatHandler(svcCtx))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Infof("HTTP API listening on http://%s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ln.Close()
}
