package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/QuangLe1997/media-transcode-sub001/internal/api/response"
	"github.com/QuangLe1997/media-transcode-sub001/internal/bulk"
)

// BulkRunner executes a bulk operation over an explicit id list, or over
// every task in the snapshot.
type BulkRunner interface {
	Execute(ctx context.Context, taskIDs []string, op bulk.Operation, opts bulk.Options) *bulk.Result
	ExecuteAll(ctx context.Context, op bulk.Operation, opts bulk.Options) *bulk.Result
}

type bulkRequest struct {
	TaskIDs     []string `json:"task_ids"`
	All         bool     `json:"all"`
	DeleteMedia bool     `json:"delete_media"`
	DeleteFaces bool     `json:"delete_faces"`
	DeleteFiles bool     `json:"delete_files"`
}

// NewBulkDeleteHandler returns the handler for POST /api/v1/tasks/bulk/delete.
func NewBulkDeleteHandler(runner BulkRunner) http.HandlerFunc {
	return newBulkHandler(runner, bulk.OpDelete)
}

// NewBulkRetryHandler returns the handler for POST /api/v1/tasks/bulk/retry.
func NewBulkRetryHandler(runner BulkRunner) http.HandlerFunc {
	return newBulkHandler(runner, bulk.OpRetry)
}

// newBulkHandler always answers 200 once the batch ran: partial failure is
// the expected shape of the result, not an error response.
func newBulkHandler(runner BulkRunner, op bulk.Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body", nil)
			return
		}
		if !req.All && len(req.TaskIDs) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "task_ids is required unless all is true", nil)
			return
		}
		if req.All && len(req.TaskIDs) > 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "task_ids and all are mutually exclusive", nil)
			return
		}

		opts := bulk.Options{
			DeleteMedia: req.DeleteMedia,
			DeleteFaces: req.DeleteFaces,
			DeleteFiles: req.DeleteFiles,
		}

		var result *bulk.Result
		if req.All {
			result = runner.ExecuteAll(r.Context(), op, opts)
		} else {
			result = runner.Execute(r.Context(), req.TaskIDs, op, opts)
		}
		response.JSON(w, result)
	}
}
