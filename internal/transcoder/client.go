package transcoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/QuangLe1997/media-transcode-sub001/pkg/models"
)

// Sentinel errors for transport-level failures: no response reached us.
var (
	ErrUnreachable = errors.New("transcoder unreachable")
	ErrTimeout     = errors.New("transcoder request timeout")
)

// APIError is a non-2xx response from the transcoder. The status code is
// what the console branches on: 404 means the task is gone, 403 is a
// permission problem the operator cannot retry past, 5xx is transient.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("transcoder api error: status %d", e.Status)
	}
	return fmt.Sprintf("transcoder api error: status %d: %s", e.Status, e.Detail)
}

// IsNotFound reports whether err is a 404 from the transcoder.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsPermissionDenied reports whether err is a 403 from the transcoder.
func IsPermissionDenied(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden
}

// IsTransient reports whether err is worth an operator-initiated retry:
// a 5xx response or a transport-level failure.
func IsTransient(err error) bool {
	if errors.Is(err, ErrUnreachable) || errors.Is(err, ErrTimeout) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 500
}

// DeleteOptions controls what a task delete purges alongside the record.
type DeleteOptions struct {
	DeleteMedia bool
	DeleteFaces bool
}

// RetryOptions controls whether previously produced outputs are purged
// before the task transitions back to pending.
type RetryOptions struct {
	DeleteFiles bool
}

// DeleteResult is the transcoder's accounting for one delete call.
type DeleteResult struct {
	DeletedFiles    []string `json:"deleted_files"`
	FailedDeletions []string `json:"failed_deletions"`
}

// RetryResult is the transcoder's accounting for one retry call.
type RetryResult struct {
	PublishedProfiles    int      `json:"published_profiles"`
	TotalProfiles        int      `json:"total_profiles"`
	FaceDetectionRetried bool     `json:"face_detection_retried"`
	DeletedOutputs       []string `json:"deleted_outputs"`
	FailedDeletions      []string `json:"failed_deletions"`
}

// Client is the interface for the transcoder task API.
type Client interface {
	ListTasks(ctx context.Context, status *models.TaskStatus, limit int) ([]models.Task, error)
	GetTask(ctx context.Context, taskID string) (*models.TaskDetail, error)
	GetTaskResult(ctx context.Context, taskID string) (json.RawMessage, error)
	DeleteTask(ctx context.Context, taskID string, opts DeleteOptions) (*DeleteResult, error)
	RetryTask(ctx context.Context, taskID string, opts RetryOptions) (*RetryResult, error)
}

// HTTPClient implements Client against the transcoder's REST API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a transcoder client. Pass a client with a Timeout
// set to bound requests; a nil client falls back to http.DefaultClient.
func NewHTTPClient(baseURL string, client *http.Client) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPClient{baseURL: baseURL, client: client}
}

func (c *HTTPClient) ListTasks(ctx context.Context, status *models.TaskStatus, limit int) ([]models.Task, error) {
	params := url.Values{}
	if status != nil {
		params.Set("status", string(*status))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	u := c.baseURL + "/tasks"
	if enc := params.Encode(); enc != "" {
		u += "?" + enc
	}

	var listResp taskListResponse
	if err := c.getJSON(ctx, u, &listResp); err != nil {
		return nil, err
	}
	return listResp.Tasks, nil
}

func (c *HTTPClient) GetTask(ctx context.Context, taskID string) (*models.TaskDetail, error) {
	u := fmt.Sprintf("%s/tasks/%s", c.baseURL, url.PathEscape(taskID))

	var detail models.TaskDetail
	if err := c.getJSON(ctx, u, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *HTTPClient) GetTaskResult(ctx context.Context, taskID string) (json.RawMessage, error) {
	u := fmt.Sprintf("%s/tasks/%s/result", c.baseURL, url.PathEscape(taskID))

	resp, err := c.do(ctx, http.MethodGet, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	// Opaque passthrough: the result JSON is handed to the operator as-is.
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading result body: %w", err)
	}
	return json.RawMessage(raw), nil
}

func (c *HTTPClient) DeleteTask(ctx context.Context, taskID string, opts DeleteOptions) (*DeleteResult, error) {
	params := url.Values{
		"delete_media": {strconv.FormatBool(opts.DeleteMedia)},
		"delete_faces": {strconv.FormatBool(opts.DeleteFaces)},
	}
	u := fmt.Sprintf("%s/tasks/%s?%s", c.baseURL, url.PathEscape(taskID), params.Encode())

	resp, err := c.do(ctx, http.MethodDelete, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result DeleteResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding delete response: %w", err)
	}
	return &result, nil
}

func (c *HTTPClient) RetryTask(ctx context.Context, taskID string, opts RetryOptions) (*RetryResult, error) {
	params := url.Values{
		"delete_files": {strconv.FormatBool(opts.DeleteFiles)},
	}
	u := fmt.Sprintf("%s/tasks/%s/retry?%s", c.baseURL, url.PathEscape(taskID), params.Encode())

	resp, err := c.do(ctx, http.MethodPost, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result RetryResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding retry response: %w", err)
	}
	return &result, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, u string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding transcoder response: %w", err)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyError(err)
	}
	return resp, nil
}

// checkStatus converts a non-2xx response into an *APIError, pulling the
// detail message out of the body when the transcoder provides one.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(body) > 0 {
		var detail struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(body, &detail) == nil && detail.Detail != "" {
			apiErr.Detail = detail.Detail
		} else {
			apiErr.Detail = string(body)
		}
	}
	return apiErr
}

// classifyError maps transport-level errors to sentinel errors. The
// original error stays in the chain so callers can still see, for example,
// the context cancellation underneath the sentinel.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	return fmt.Errorf("%w: %w", ErrUnreachable, err)
}

// --- transcoder response types ---

type taskListResponse struct {
	Tasks []models.Task `json:"tasks"`
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
