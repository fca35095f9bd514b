package bulk_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/QuangLe1997/media-transcode-sub001/internal/bulk"
	"github.com/QuangLe1997/media-transcode-sub001/internal/taskstore"
	"github.com/QuangLe1997/media-transcode-sub001/internal/transcoder"
	"github.com/QuangLe1997/media-transcode-sub001/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient fails the ids listed in failIDs and records call order.
type fakeClient struct {
	mu      sync.Mutex
	failIDs map[string]error
	deleted []string
	retried []string
	tasks   []models.Task
}

func (f *fakeClient) ListTasks(ctx context.Context, status *models.TaskStatus, limit int) ([]models.Task, error) {
	return f.tasks, nil
}

func (f *fakeClient) GetTask(ctx context.Context, taskID string) (*models.TaskDetail, error) {
	return &models.TaskDetail{Task: models.Task{TaskID: taskID}}, nil
}

func (f *fakeClient) GetTaskResult(ctx context.Context, taskID string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (f *fakeClient) DeleteTask(ctx context.Context, taskID string, opts transcoder.DeleteOptions) (*transcoder.DeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, taskID)
	if err := f.failIDs[taskID]; err != nil {
		return nil, err
	}
	return &transcoder.DeleteResult{}, nil
}

func (f *fakeClient) RetryTask(ctx context.Context, taskID string, opts transcoder.RetryOptions) (*transcoder.RetryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retried = append(f.retried, taskID)
	if err := f.failIDs[taskID]; err != nil {
		return nil, err
	}
	return &transcoder.RetryResult{}, nil
}

func setupStore(t *testing.T, client transcoder.Client, ids ...string) *taskstore.Store {
	t.Helper()
	store := taskstore.New(client)
	fc, ok := client.(*fakeClient)
	require.True(t, ok)
	for _, id := range ids {
		fc.tasks = append(fc.tasks, models.Task{TaskID: id, Status: models.StatusCompleted})
	}
	_, err := store.Fetch(context.Background(), nil, 100)
	require.NoError(t, err)
	return store
}

// --- isolated failure accounting ---

func TestExecute_PartialFailure(t *testing.T) {
	client := &fakeClient{failIDs: map[string]error{
		"b": &transcoder.APIError{Status: http.StatusInternalServerError},
		"d": transcoder.ErrUnreachable,
	}}
	store := setupStore(t, client, "a", "b", "c", "d", "e")
	executor := bulk.NewExecutor(client, store)

	result := executor.Execute(context.Background(), []string{"a", "b", "c", "d", "e"}, bulk.OpDelete, bulk.Options{})

	assert.Equal(t, []string{"a", "c", "e"}, result.Succeeded)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, "b", result.Failed[0].TaskID)
	assert.Equal(t, "d", result.Failed[1].TaskID)

	// Every item was attempted despite the mid-batch failures.
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, client.deleted)

	// Succeeded deletes are gone from the snapshot; failed ones remain.
	for _, id := range []string{"a", "c", "e"} {
		_, ok := store.Get(id)
		assert.False(t, ok, "deleted task %s still in snapshot", id)
	}
	for _, id := range []string{"b", "d"} {
		_, ok := store.Get(id)
		assert.True(t, ok, "failed task %s missing from snapshot", id)
	}
}

func TestExecute_DeleteTreats404AsSuccess(t *testing.T) {
	client := &fakeClient{failIDs: map[string]error{
		"gone": &transcoder.APIError{Status: http.StatusNotFound},
	}}
	store := setupStore(t, client, "gone", "present")
	executor := bulk.NewExecutor(client, store)

	result := executor.Execute(context.Background(), []string{"gone", "present"}, bulk.OpDelete, bulk.Options{})

	assert.Equal(t, []string{"gone", "present"}, result.Succeeded)
	assert.Empty(t, result.Failed)
	assert.Equal(t, 0, store.Len())
}

func TestExecute_Retry404IsAFailure(t *testing.T) {
	client := &fakeClient{failIDs: map[string]error{
		"gone": &transcoder.APIError{Status: http.StatusNotFound},
	}}
	store := setupStore(t, client, "gone")
	executor := bulk.NewExecutor(client, store)

	result := executor.Execute(context.Background(), []string{"gone"}, bulk.OpRetry, bulk.Options{})

	assert.Empty(t, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "gone", result.Failed[0].TaskID)
}

func TestExecute_RetryLeavesSnapshotForNextPoll(t *testing.T) {
	client := &fakeClient{}
	store := setupStore(t, client, "a", "b")
	executor := bulk.NewExecutor(client, store)

	result := executor.Execute(context.Background(), []string{"a", "b"}, bulk.OpRetry, bulk.Options{DeleteFiles: true})

	assert.Equal(t, []string{"a", "b"}, result.Succeeded)
	assert.Equal(t, 2, store.Len(), "retry must not remove tasks; the next poll observes the new status")
	assert.Equal(t, []string{"a", "b"}, client.retried)
}

func TestExecute_EmptyBatch(t *testing.T) {
	client := &fakeClient{}
	store := setupStore(t, client)
	executor := bulk.NewExecutor(client, store)

	result := executor.Execute(context.Background(), nil, bulk.OpDelete, bulk.Options{})

	assert.NotNil(t, result.Succeeded)
	assert.NotNil(t, result.Failed)
	assert.Empty(t, result.Succeeded)
	assert.Empty(t, result.Failed)
}

func TestExecuteAll_CoversWholeSnapshot(t *testing.T) {
	client := &fakeClient{}
	store := setupStore(t, client, "a", "b", "c")
	executor := bulk.NewExecutor(client, store)

	result := executor.ExecuteAll(context.Background(), bulk.OpDelete, bulk.Options{DeleteMedia: true})

	assert.Equal(t, []string{"a", "b", "c"}, result.Succeeded)
	assert.Equal(t, 0, store.Len())
}

func TestExecute_CancelledContextAccountsRemainingItems(t *testing.T) {
	client := &fakeClient{}
	store := setupStore(t, client, "a", "b")
	executor := bulk.NewExecutor(client, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := executor.Execute(ctx, []string{"a", "b"}, bulk.OpDelete, bulk.Options{})

	assert.Empty(t, result.Succeeded)
	assert.Len(t, result.Failed, 2, "remaining items must appear in the summary, not vanish")
}
