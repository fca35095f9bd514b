// Package taskstore holds the console's authoritative local snapshot of the
// transcoder's task collection and keeps it consistent under concurrent
// re-fetches.
package taskstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/QuangLe1997/media-transcode-sub001/internal/transcoder"
	"github.com/QuangLe1997/media-transcode-sub001/pkg/models"
)

// ErrStaleResponse is returned when a fetch completed out of order and its
// result was discarded in favor of a newer one. It is an internal condition:
// callers log it at debug level at most, never surface it to the operator.
var ErrStaleResponse = errors.New("stale fetch response discarded")

// Store synchronizes the local task snapshot with the transcoder. Every
// fetch is tagged with a monotonically increasing sequence number and a
// response is applied only if no later response has been applied already, so
// a slow in-flight request can never overwrite the result of a faster, newer
// one. The snapshot is only ever replaced wholesale (never merged), which
// also covers fetches issued under a different status filter.
type Store struct {
	client transcoder.Client

	mu           sync.Mutex
	tasks        []models.Task
	index        map[string]int
	activeStatus *models.TaskStatus
	nextSeq      uint64
	appliedSeq   uint64

	updates chan struct{}
}

// New creates an empty store backed by the given transcoder client.
func New(client transcoder.Client) *Store {
	return &Store{
		client:  client,
		index:   make(map[string]int),
		updates: make(chan struct{}, 1),
	}
}

// Fetch retrieves up to limit task summaries, optionally constrained to one
// status, and replaces the snapshot on success. On failure the previous
// snapshot is left untouched. Returns ErrStaleResponse when a newer fetch
// already applied its result.
func (s *Store) Fetch(ctx context.Context, status *models.TaskStatus, limit int) ([]models.Task, error) {
	s.mu.Lock()
	s.nextSeq++
	seq := s.nextSeq
	s.mu.Unlock()

	tasks, err := s.client.ListTasks(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.appliedSeq {
		return nil, ErrStaleResponse
	}
	s.appliedSeq = seq

	s.tasks = make([]models.Task, len(tasks))
	copy(s.tasks, tasks)
	s.reindex()
	s.activeStatus = status

	s.notify()
	return s.snapshotLocked(), nil
}

// FetchDetail retrieves the full record for one task. Detail fetches never
// touch the snapshot.
func (s *Store) FetchDetail(ctx context.Context, taskID string) (*models.TaskDetail, error) {
	detail, err := s.client.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("fetch task detail: %w", err)
	}
	return detail, nil
}

// ApplyRemoval drops one task from the snapshot after a confirmed remote
// delete, without waiting for the next poll.
func (s *Store) ApplyRemoval(taskID string) {
	s.ApplyRemovals([]string{taskID})
}

// ApplyRemovals drops the given tasks from the snapshot. Unknown ids are
// ignored.
func (s *Store) ApplyRemovals(taskIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := false
	drop := make(map[string]bool, len(taskIDs))
	for _, id := range taskIDs {
		if _, ok := s.index[id]; ok {
			drop[id] = true
			removed = true
		}
	}
	if !removed {
		return
	}

	kept := s.tasks[:0]
	for _, task := range s.tasks {
		if !drop[task.TaskID] {
			kept = append(kept, task)
		}
	}
	s.tasks = kept
	s.reindex()
	s.notify()
}

// Snapshot returns a copy of the current task collection in snapshot order.
// Callers may mutate the returned slice freely.
func (s *Store) Snapshot() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get returns the snapshot entry for one task id.
func (s *Store) Get(taskID string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[taskID]
	if !ok {
		return models.Task{}, false
	}
	return s.tasks[pos], true
}

// TaskIDs returns every id in the snapshot in order. Used by clear-all bulk
// operations.
func (s *Store) TaskIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(s.tasks))
	for i, task := range s.tasks {
		ids[i] = task.TaskID
	}
	return ids
}

// Len returns the snapshot size.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// ActiveStatus returns the status filter of the last applied fetch, or nil
// when the snapshot is unfiltered.
func (s *Store) ActiveStatus() *models.TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeStatus == nil {
		return nil
	}
	status := *s.activeStatus
	return &status
}

// Updates returns a coalesced change-notification channel: at least one
// receive is possible after any snapshot change, but bursts collapse into a
// single signal.
func (s *Store) Updates() <-chan struct{} {
	return s.updates
}

func (s *Store) snapshotLocked() []models.Task {
	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.tasks))
	for i, task := range s.tasks {
		s.index[task.TaskID] = i
	}
}

func (s *Store) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
