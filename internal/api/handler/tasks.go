package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/QuangLe1997/media-transcode-sub001/internal/api/response"
	"github.com/QuangLe1997/media-transcode-sub001/internal/cache"
	"github.com/QuangLe1997/media-transcode-sub001/internal/facets"
	"github.com/QuangLe1997/media-transcode-sub001/internal/taskstore"
	"github.com/QuangLe1997/media-transcode-sub001/internal/transcoder"
	"github.com/QuangLe1997/media-transcode-sub001/internal/view"
	"github.com/QuangLe1997/media-transcode-sub001/pkg/models"
)

// SnapshotStore is the slice of the task store the list handler depends on.
type SnapshotStore interface {
	Snapshot() []models.Task
	Fetch(ctx context.Context, status *models.TaskStatus, limit int) ([]models.Task, error)
}

// DetailFetcher retrieves one full task record.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, taskID string) (*models.TaskDetail, error)
}

// ResultFetcher retrieves the raw result JSON for one task.
type ResultFetcher interface {
	GetTaskResult(ctx context.Context, taskID string) (json.RawMessage, error)
}

// DetailSource combines the detail fetcher with an optional short-TTL cache
// so repeated operator clicks do not hammer the transcoder.
type DetailSource struct {
	Fetcher DetailFetcher
	Cache   cache.Cache
	TTL     time.Duration
}

func (s *DetailSource) get(ctx context.Context, taskID string) (*models.TaskDetail, error) {
	if s.Cache != nil {
		if raw, found, err := s.Cache.Get(ctx, cache.TaskDetailKey(taskID)); err == nil && found {
			var detail models.TaskDetail
			if json.Unmarshal(raw, &detail) == nil {
				return &detail, nil
			}
		} else if err != nil {
			slog.Warn("detail cache read failed", "task_id", taskID, "error", err)
		}
	}

	detail, err := s.Fetcher.FetchDetail(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if raw, err := json.Marshal(detail); err == nil {
			if err := s.Cache.Set(ctx, cache.TaskDetailKey(taskID), raw, s.TTL); err != nil {
				slog.Warn("detail cache write failed", "task_id", taskID, "error", err)
			}
		}
	}
	return detail, nil
}

// NewListTasksHandler returns the handler for GET /api/v1/tasks. The list is
// served from the synchronized snapshot; refresh=true forces a fetch first.
func NewListTasksHandler(store SnapshotStore, fetchLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var status *models.TaskStatus
		if raw := q.Get("status"); raw != "" {
			s := models.TaskStatus(raw)
			if !s.Valid() {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown status "+raw, nil)
				return
			}
			status = &s
		}

		tasks := store.Snapshot()
		if q.Get("refresh") == "true" {
			fetched, err := store.Fetch(r.Context(), status, fetchLimit)
			switch {
			case err == nil:
				tasks = fetched
			case errors.Is(err, taskstore.ErrStaleResponse):
				// A newer fetch already applied; the snapshot is fresher
				// than what this request would have delivered.
				tasks = store.Snapshot()
			default:
				writeUpstreamError(w, err)
				return
			}
		}

		if status != nil {
			kept := tasks[:0]
			for _, task := range tasks {
				if task.Status == *status {
					kept = append(kept, task)
				}
			}
			tasks = kept
		}

		page, err := view.Paginate(tasks,
			view.SortKey(q.Get("sort")),
			view.SortOrder(q.Get("order")),
			intParam(q.Get("page"), 1),
			intParam(q.Get("page_size"), view.DefaultPageSize),
		)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		response.Collection(w, page.Tasks, response.PaginationMeta{
			Page:       page.Page,
			PageSize:   page.PageSize,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		})
	}
}

// NewTaskDetailHandler returns the handler for GET /api/v1/tasks/{taskID}.
func NewTaskDetailHandler(source *DetailSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID := chi.URLParam(r, "taskID")

		detail, err := source.get(r.Context(), taskID)
		if err != nil {
			writeUpstreamError(w, err)
			return
		}
		response.JSON(w, detail)
	}
}

// NewTaskOutputsHandler returns the handler for
// GET /api/v1/tasks/{taskID}/outputs: the task's artifact collection run
// through the facet filter, plus the per-axis value counts over the full
// (unfiltered) collection for rendering facet options.
func NewTaskOutputsHandler(source *DetailSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID := chi.URLParam(r, "taskID")

		selection, err := parseSelection(r)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		detail, err := source.get(r.Context(), taskID)
		if err != nil {
			writeUpstreamError(w, err)
			return
		}

		response.JSON(w, map[string]any{
			"task_id": taskID,
			"outputs": facets.Filter(detail.Outputs, selection),
			"facets":  facets.Counts(detail.Outputs),
		})
	}
}

// NewTaskResultHandler returns the handler for
// GET /api/v1/tasks/{taskID}/result, an opaque passthrough of the raw
// result JSON for copy-to-clipboard use.
func NewTaskResultHandler(fetcher ResultFetcher, resultCache cache.Cache, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID := chi.URLParam(r, "taskID")

		if resultCache != nil {
			if raw, found, err := resultCache.Get(r.Context(), cache.TaskResultKey(taskID)); err == nil && found {
				response.Raw(w, raw)
				return
			}
		}

		raw, err := fetcher.GetTaskResult(r.Context(), taskID)
		if err != nil {
			writeUpstreamError(w, err)
			return
		}

		if resultCache != nil {
			if err := resultCache.Set(r.Context(), cache.TaskResultKey(taskID), raw, ttl); err != nil {
				slog.Warn("result cache write failed", "task_id", taskID, "error", err)
			}
		}
		response.Raw(w, raw)
	}
}

// Deleter issues one remote task delete.
type Deleter interface {
	DeleteTask(ctx context.Context, taskID string, opts transcoder.DeleteOptions) (*transcoder.DeleteResult, error)
}

// Retryer issues one remote task retry.
type Retryer interface {
	RetryTask(ctx context.Context, taskID string, opts transcoder.RetryOptions) (*transcoder.RetryResult, error)
}

// RemovalApplier drops confirmed-deleted tasks from the snapshot.
type RemovalApplier interface {
	ApplyRemoval(taskID string)
}

// NewDeleteTaskHandler returns the handler for DELETE /api/v1/tasks/{taskID}.
// A task already gone upstream (404) still counts as deleted.
func NewDeleteTaskHandler(deleter Deleter, store RemovalApplier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID := chi.URLParam(r, "taskID")
		q := r.URL.Query()

		result, err := deleter.DeleteTask(r.Context(), taskID, transcoder.DeleteOptions{
			DeleteMedia: q.Get("delete_media") == "true",
			DeleteFaces: q.Get("delete_faces") == "true",
		})
		if err != nil && !transcoder.IsNotFound(err) {
			writeUpstreamError(w, err)
			return
		}

		store.ApplyRemoval(taskID)

		body := map[string]any{"task_id": taskID, "already_gone": err != nil}
		if result != nil {
			body["deleted_files"] = result.DeletedFiles
			body["failed_deletions"] = result.FailedDeletions
		}
		response.JSON(w, body)
	}
}

// NewRetryTaskHandler returns the handler for
// POST /api/v1/tasks/{taskID}/retry. The new status is observed by the next
// poll, not assumed here.
func NewRetryTaskHandler(retryer Retryer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID := chi.URLParam(r, "taskID")

		result, err := retryer.RetryTask(r.Context(), taskID, transcoder.RetryOptions{
			DeleteFiles: r.URL.Query().Get("delete_files") == "true",
		})
		if err != nil {
			writeUpstreamError(w, err)
			return
		}
		response.JSON(w, result)
	}
}

// parseSelection builds a facet selection from query params. The preset
// param, when present, wins over individual axis params.
func parseSelection(r *http.Request) (facets.Selection, error) {
	q := r.URL.Query()

	if name := q.Get("preset"); name != "" {
		sel, ok := facets.Presets[name]
		if !ok {
			return nil, errors.New("unknown preset " + name)
		}
		return sel, nil
	}

	selection := facets.Selection{}
	for _, axis := range facets.Axes {
		if values, ok := q[string(axis)]; ok {
			selection[axis] = values
		}
	}
	return selection, nil
}

func intParam(raw string, defaultVal int) int {
	if raw == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}
	return n
}
