package handlers

import (
	"net/http"
	"time"
	"workTracker/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Tasks       TaskHandler
	Timer       TimerHandler
	Reports     ReportHandler
	Permissions PermissionHandler
}

type RouterOptions struct {
	RateLimit      int
	RequestTimeout time.Duration
	CORSOrigins    []string
}

func NewRouter(h Handlers, opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	if opts.RateLimit > 0 {
		r.Use(middleware.RateLimit(opts.RateLimit))
	}
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", middleware.HeaderUserID, middleware.HeaderUserRole},
			ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", h.Tasks.HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.Tasks.ListTasks) // GET /tasks
			r.Post("/", h.Tasks.PostTask) // POST /tasks

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Tasks.GetTaskByID)       // GET /tasks/{id}
				r.Put("/", h.Tasks.UpdateTaskByID)    // PUT /tasks/{id}
				r.Delete("/", h.Tasks.DeleteTaskByID) // DELETE /tasks/{id}

				r.Get("/subtasks", h.Tasks.ListSubtasks) // GET /tasks/{id}/subtasks
				r.Post("/subtasks", h.Tasks.PostSubtask) // POST /tasks/{id}/subtasks
			})
		})

		r.Route("/spaces/{spaceID}", func(r chi.Router) {
			r.Get("/tasks", h.Tasks.ListSpaceTasks) // GET /spaces/{spaceID}/tasks
			r.Post("/tasks", h.Tasks.PostSpaceTask) // POST /spaces/{spaceID}/tasks

			r.Put("/members/{userID}", h.Permissions.PutMember)       // PUT /spaces/{spaceID}/members/{userID}
			r.Delete("/members/{userID}", h.Permissions.DeleteMember) // DELETE /spaces/{spaceID}/members/{userID}
		})

		r.Route("/timer", func(r chi.Router) {
			r.Get("/", h.Timer.GetActive)
			r.Post("/start", h.Timer.Start)
			r.Post("/pause", h.Timer.Pause)
			r.Post("/resume", h.Timer.Resume)
			r.Post("/stop", h.Timer.Stop)
		})

		r.Route("/time-entries", func(r chi.Router) {
			r.Post("/", h.Timer.PostManualEntry)
			r.Post("/sync", h.Timer.SyncOffline)
			r.Put("/{id}", h.Timer.UpdateEntry)
			r.Delete("/{id}", h.Timer.DeleteEntry)
		})

		r.Get("/reports", h.Reports.GetReport)
	})

	return r
}
