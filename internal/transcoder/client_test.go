package transcoder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/QuangLe1997/media-transcode-sub001/pkg/models"
)

// --- helpers ---

func transcoderServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(handler)
}

func newTestClient(t *testing.T, baseURL string) *HTTPClient {
	t.Helper()
	return NewHTTPClient(baseURL, &http.Client{Timeout: 5 * time.Second})
}

// --- ListTasks ---

func TestListTasks_ValidResponse(t *testing.T) {
	ts := transcoderServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method: %s", r.Method)
		}

		q := r.URL.Query()
		if q.Get("status") != "completed" {
			t.Errorf("unexpected status param: %s", q.Get("status"))
		}
		if q.Get("limit") != "50" {
			t.Errorf("unexpected limit param: %s", q.Get("limit"))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"tasks": []map[string]any{
				{
					"task_id":    "task-1",
					"status":     "completed",
					"source_url": "s3://bucket/video-1.mp4",
					"outputs": map[string]any{
						"high_main_video_l": []any{
							"https://cdn.example.com/a.mp4",
							map[string]any{
								"url":      "https://cdn.example.com/b.mp4",
								"metadata": map[string]any{"file_size": 1024},
							},
						},
					},
				},
				{"task_id": "task-2", "status": "completed"},
			},
		})
	})
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	status := models.StatusCompleted
	tasks, err := c.ListTasks(context.Background(), &status, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].TaskID != "task-1" {
		t.Errorf("unexpected task id: %s", tasks[0].TaskID)
	}

	// Mixed output representations must arrive normalized.
	refs := tasks[0].Outputs["high_main_video_l"]
	if len(refs) != 2 {
		t.Fatalf("expected 2 output refs, got %d", len(refs))
	}
	if refs[0].URL != "https://cdn.example.com/a.mp4" || refs[0].Metadata != nil {
		t.Errorf("bare output ref not normalized: %+v", refs[0])
	}
	if refs[1].Metadata == nil || refs[1].Metadata.FileSize != 1024 {
		t.Errorf("object output ref not normalized: %+v", refs[1])
	}
}

func TestListTasks_OmitsStatusWhenNil(t *testing.T) {
	ts := transcoderServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("status") {
			t.Errorf("status param must be omitted, got %q", r.URL.Query().Get("status"))
		}
		json.NewEncoder(w).Encode(map[string]any{"tasks": []any{}})
	})
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	tasks, err := c.ListTasks(context.Background(), nil, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected empty task list, got %d", len(tasks))
	}
}

// --- error taxonomy ---

func TestGetTask_NotFound(t *testing.T) {
	ts := transcoderServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "task not found"})
	})
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	_, err := c.GetTask(context.Background(), "gone")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsNotFound(err) {
		t.Errorf("expected IsNotFound, got %v", err)
	}
	if IsTransient(err) {
		t.Error("404 must not be classified transient")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Detail != "task not found" {
		t.Errorf("unexpected detail: %q", apiErr.Detail)
	}
}

func TestDeleteTask_PermissionDenied(t *testing.T) {
	ts := transcoderServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	_, err := c.DeleteTask(context.Background(), "task-1", DeleteOptions{})
	if !IsPermissionDenied(err) {
		t.Errorf("expected IsPermissionDenied, got %v", err)
	}
	if IsTransient(err) {
		t.Error("403 must not be classified transient")
	}
}

func TestListTasks_ServerErrorIsTransient(t *testing.T) {
	ts := transcoderServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	_, err := c.ListTasks(context.Background(), nil, 10)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsTransient(err) {
		t.Errorf("expected 500 to be transient, got %v", err)
	}
}

func TestListTasks_Unreachable(t *testing.T) {
	// Point at a closed port: no response ever reaches the client.
	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.ListTasks(context.Background(), nil, 10)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got %v", err)
	}
	if !IsTransient(err) {
		t.Error("network failure must be classified transient")
	}
}

func TestListTasks_CancellationStaysInErrorChain(t *testing.T) {
	release := make(chan struct{})
	ts := transcoderServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	defer ts.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	c := newTestClient(t, ts.URL)

	done := make(chan error, 1)
	go func() {
		_, err := c.ListTasks(ctx, nil, 10)
		done <- err
	}()
	cancel()

	err := <-done
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
	// Callers distinguish their own cancellation from a slow upstream, so
	// the sentinel must not flatten it out of the chain.
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in the chain, got %v", err)
	}
}

// --- DeleteTask / RetryTask ---

func TestDeleteTask_SendsOptions(t *testing.T) {
	ts := transcoderServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/tasks/task-1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("delete_media") != "true" || q.Get("delete_faces") != "false" {
			t.Errorf("unexpected params: %v", q)
		}
		json.NewEncoder(w).Encode(DeleteResult{
			DeletedFiles:    []string{"out/a.mp4"},
			FailedDeletions: []string{},
		})
	})
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	result, err := c.DeleteTask(context.Background(), "task-1", DeleteOptions{DeleteMedia: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.DeletedFiles) != 1 || result.DeletedFiles[0] != "out/a.mp4" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestRetryTask_SendsOptions(t *testing.T) {
	ts := transcoderServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/tasks/task-9/retry" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("delete_files") != "true" {
			t.Errorf("unexpected params: %v", r.URL.Query())
		}
		json.NewEncoder(w).Encode(RetryResult{
			PublishedProfiles:    4,
			TotalProfiles:        4,
			FaceDetectionRetried: true,
		})
	})
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	result, err := c.RetryTask(context.Background(), "task-9", RetryOptions{DeleteFiles: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PublishedProfiles != 4 || !result.FaceDetectionRetried {
		t.Errorf("unexpected result: %+v", result)
	}
}

// --- GetTaskResult ---

func TestGetTaskResult_OpaquePassthrough(t *testing.T) {
	raw := `{"anything":{"nested":[1,2,3]},"the_console":"does not interpret this"}`
	ts := transcoderServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks/task-1/result" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(raw))
	})
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	result, err := c.GetTaskResult(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != raw {
		t.Errorf("result body must pass through untouched:\nwant %s\ngot  %s", raw, result)
	}
}
