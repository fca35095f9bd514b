package cache

import "fmt"

// TaskDetailKey caches GET /tasks/{id} responses.
func TaskDetailKey(taskID string) string {
	return fmt.Sprintf("task:detail:%s", taskID)
}

// TaskResultKey caches GET /tasks/{id}/result passthrough bodies.
func TaskResultKey(taskID string) string {
	return fmt.Sprintf("task:result:%s", taskID)
}
