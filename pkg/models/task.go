package models

import (
	"encoding/json"
	"time"
)

// TaskStatus is the primary lifecycle state of a transcode task. It is
// mutated only by the transcoder; the console observes it via re-fetch.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// Valid reports whether s is one of the known primary states.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s is an end state of the primary lifecycle.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// FaceDetectionStatus is the independent face-detection sub-lifecycle.
// It evolves on its own schedule; a task can be completed overall while
// face detection is still processing.
type FaceDetectionStatus string

const (
	FaceDetectionAbsent     FaceDetectionStatus = ""
	FaceDetectionPending    FaceDetectionStatus = "pending"
	FaceDetectionProcessing FaceDetectionStatus = "processing"
	FaceDetectionCompleted  FaceDetectionStatus = "completed"
	FaceDetectionFailed     FaceDetectionStatus = "failed"
)

// Task is one remote transcode job as returned by the task list endpoint.
type Task struct {
	TaskID               string                    `json:"task_id"`
	Status               TaskStatus                `json:"status"`
	SourceURL            string                    `json:"source_url"`
	ExpectedProfiles     int                       `json:"expected_profiles"`
	CompletedProfiles    int                       `json:"completed_profiles"`
	FailedProfilesCount  int                       `json:"failed_profiles_count"`
	CompletionPercentage float64                   `json:"completion_percentage"`
	Outputs              map[string][]OutputRef    `json:"outputs,omitempty"`
	FailedProfiles       map[string]ProfileFailure `json:"failed_profiles,omitempty"`
	FaceDetectionStatus  FaceDetectionStatus       `json:"face_detection_status,omitempty"`
	FaceDetectionError   string                    `json:"face_detection_error,omitempty"`
	CreatedAt            time.Time                 `json:"created_at"`
	UpdatedAt            time.Time                 `json:"updated_at"`
}

// TaskDetail is the full record for a single task. Superset of Task.
type TaskDetail struct {
	Task
	Profiles             []Profile             `json:"profiles,omitempty"`
	FaceDetectionResults []FaceDetectionResult `json:"face_detection_results,omitempty"`
}

// Profile is one requested output variant configuration.
type Profile struct {
	ID     string          `json:"id_profile"`
	Config json.RawMessage `json:"config,omitempty"`
}

// ProfileFailure carries the failure detail for one profile.
type ProfileFailure struct {
	ErrorMessage string    `json:"error_message"`
	FailedAt     time.Time `json:"failed_at"`
}

// FaceDetectionResult is one detected face record.
type FaceDetectionResult struct {
	FaceIndex   int             `json:"face_index"`
	AvatarURL   string          `json:"avatar_url,omitempty"`
	FrameURLs   []string        `json:"frame_urls,omitempty"`
	BoundingBox json.RawMessage `json:"bounding_box,omitempty"`
	Confidence  float64         `json:"confidence,omitempty"`
}

// EffectiveCompletion returns the completion percentage for display. The
// server-supplied value wins when present; otherwise it is derived from the
// profile counters. A task whose counters are closed (completed + failed ==
// expected) reports 100 even if the primary status has not flipped yet —
// counters and primary status must never be assumed to agree.
func (t *Task) EffectiveCompletion() float64 {
	if t.CompletionPercentage > 0 {
		return t.CompletionPercentage
	}
	if t.ExpectedProfiles <= 0 {
		return 0
	}
	done := t.CompletedProfiles + t.FailedProfilesCount
	if done >= t.ExpectedProfiles {
		return 100
	}
	return float64(done) / float64(t.ExpectedProfiles) * 100
}

// CountersClosed reports whether every expected profile has either
// completed or failed, regardless of the primary status enum.
func (t *Task) CountersClosed() bool {
	return t.ExpectedProfiles > 0 &&
		t.CompletedProfiles+t.FailedProfilesCount >= t.ExpectedProfiles
}
