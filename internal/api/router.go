package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/QuangLe1997/media-transcode-sub001/internal/api/middleware"
	"github.com/QuangLe1997/media-transcode-sub001/internal/api/response"
)

// Dependencies holds all handler dependencies for the router.
type Dependencies struct {
	HealthHandler http.HandlerFunc

	ListTasksHandler   http.HandlerFunc
	TaskDetailHandler  http.HandlerFunc
	TaskOutputsHandler http.HandlerFunc
	TaskResultHandler  http.HandlerFunc
	DeleteTaskHandler  http.HandlerFunc
	RetryTaskHandler   http.HandlerFunc

	BulkDeleteHandler http.HandlerFunc
	BulkRetryHandler  http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/tasks", func(r chi.Router) {
		r.Get("/", orNotImplemented(deps.ListTasksHandler))

		r.Post("/bulk/delete", orNotImplemented(deps.BulkDeleteHandler))
		r.Post("/bulk/retry", orNotImplemented(deps.BulkRetryHandler))

		r.Route("/{taskID}", func(r chi.Router) {
			r.Get("/", orNotImplemented(deps.TaskDetailHandler))
			r.Get("/outputs", orNotImplemented(deps.TaskOutputsHandler))
			r.Get("/result", orNotImplemented(deps.TaskResultHandler))
			r.Delete("/", orNotImplemented(deps.DeleteTaskHandler))
			r.Post("/retry", orNotImplemented(deps.RetryTaskHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
