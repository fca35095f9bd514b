package handler

import (
	"errors"
	"net/http"

	"github.com/QuangLe1997/media-transcode-sub001/internal/api/response"
	"github.com/QuangLe1997/media-transcode-sub001/internal/transcoder"
)

// writeUpstreamError maps transcoder failures onto console API responses.
// 404s and 403s pass through with their meaning intact; transcoder 5xx
// becomes 502 (the upstream misbehaved, not us); transport failures become
// 503 with a retry affordance for the operator.
func writeUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case transcoder.IsNotFound(err):
		response.Error(w, http.StatusNotFound, "TASK_NOT_FOUND", "Task not found on the transcoder", nil)
	case transcoder.IsPermissionDenied(err):
		response.Error(w, http.StatusForbidden, "PERMISSION_DENIED", "The transcoder rejected the operation", nil)
	case errors.Is(err, transcoder.ErrUnreachable), errors.Is(err, transcoder.ErrTimeout):
		response.Error(w, http.StatusServiceUnavailable, "UPSTREAM_UNREACHABLE", "The transcoder did not respond; try again", nil)
	default:
		var apiErr *transcoder.APIError
		if errors.As(err, &apiErr) {
			response.Error(w, http.StatusBadGateway, "UPSTREAM_ERROR", "The transcoder returned an error", map[string]any{
				"status": apiErr.Status,
				"detail": apiErr.Detail,
			})
			return
		}
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
	}
}
