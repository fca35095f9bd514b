// Package bulk executes destructive operations against many independent
// tasks with isolated per-item failure handling.
package bulk

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/QuangLe1997/media-transcode-sub001/internal/metrics"
	"github.com/QuangLe1997/media-transcode-sub001/internal/taskstore"
	"github.com/QuangLe1997/media-transcode-sub001/internal/transcoder"
)

// Operation is the kind of bulk action.
type Operation string

const (
	OpDelete Operation = "delete"
	OpRetry  Operation = "retry"
)

// Options carries the per-operation flags forwarded to the transcoder.
type Options struct {
	DeleteMedia bool // delete: also purge produced media
	DeleteFaces bool // delete: also purge face-detection artifacts
	DeleteFiles bool // retry: purge previous outputs before re-queueing
}

// ItemFailure records why one task in a batch failed.
type ItemFailure struct {
	TaskID string `json:"task_id"`
	Error  string `json:"error"`
}

// Result is the full accounting of one batch. The batch itself never fails
// as a whole: per-item errors are captured here and the caller renders a
// combined summary. Succeeded and Failed preserve the input selection order.
type Result struct {
	ID        uuid.UUID     `json:"id"`
	Op        Operation     `json:"op"`
	Succeeded []string      `json:"succeeded"`
	Failed    []ItemFailure `json:"failed"`
}

// Executor runs bulk operations. Per-item calls are strictly sequential:
// that bounds the load placed on the transcoder, keeps results in selection
// order, and lets the operator watch incremental progress in the logs.
type Executor struct {
	client transcoder.Client
	store  *taskstore.Store
}

// NewExecutor creates an executor over the given client and store.
func NewExecutor(client transcoder.Client, store *taskstore.Store) *Executor {
	return &Executor{client: client, store: store}
}

// Execute runs op over taskIDs in the order given. A per-item failure is
// recorded and the batch proceeds to the next item; it never aborts
// siblings. After the batch, deletes are applied to the snapshot so the
// view updates without waiting for the next poll; retried tasks are left
// for the next poll to observe.
func (e *Executor) Execute(ctx context.Context, taskIDs []string, op Operation, opts Options) *Result {
	result := &Result{
		ID:        uuid.New(),
		Op:        op,
		Succeeded: []string{},
		Failed:    []ItemFailure{},
	}

	for _, taskID := range taskIDs {
		if err := ctx.Err(); err != nil {
			// Context gone: account for the remaining items as failed
			// rather than dropping them from the summary silently.
			result.Failed = append(result.Failed, ItemFailure{TaskID: taskID, Error: err.Error()})
			metrics.BulkItemsTotal.WithLabelValues(string(op), "failed").Inc()
			continue
		}

		if err := e.executeOne(ctx, taskID, op, opts); err != nil {
			slog.Warn("bulk item failed",
				"bulk_id", result.ID,
				"op", op,
				"task_id", taskID,
				"error", err,
			)
			result.Failed = append(result.Failed, ItemFailure{TaskID: taskID, Error: err.Error()})
			metrics.BulkItemsTotal.WithLabelValues(string(op), "failed").Inc()
			continue
		}

		result.Succeeded = append(result.Succeeded, taskID)
		metrics.BulkItemsTotal.WithLabelValues(string(op), "ok").Inc()
	}

	if op == OpDelete && len(result.Succeeded) > 0 {
		e.store.ApplyRemovals(result.Succeeded)
	}

	slog.Info("bulk operation finished",
		"bulk_id", result.ID,
		"op", op,
		"succeeded", len(result.Succeeded),
		"failed", len(result.Failed),
	)
	return result
}

// ExecuteAll runs op over every task currently in the snapshot (clear-all).
func (e *Executor) ExecuteAll(ctx context.Context, op Operation, opts Options) *Result {
	return e.Execute(ctx, e.store.TaskIDs(), op, opts)
}

func (e *Executor) executeOne(ctx context.Context, taskID string, op Operation, opts Options) error {
	switch op {
	case OpDelete:
		_, err := e.client.DeleteTask(ctx, taskID, transcoder.DeleteOptions{
			DeleteMedia: opts.DeleteMedia,
			DeleteFaces: opts.DeleteFaces,
		})
		// A task already gone upstream is as deleted as it gets.
		if transcoder.IsNotFound(err) {
			return nil
		}
		return err
	case OpRetry:
		_, err := e.client.RetryTask(ctx, taskID, transcoder.RetryOptions{
			DeleteFiles: opts.DeleteFiles,
		})
		return err
	default:
		return fmt.Errorf("unknown bulk operation %q", op)
	}
}
