package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TaskHandle identifies a submitted automation task.
type TaskHandle string

// NewTaskHandle validates a handle returned by the automation service.
// A blank handle means the submission was not accepted, whatever the HTTP
// status said.
func NewTaskHandle(raw string) (TaskHandle, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", fmt.Errorf("%w: response carried no task id", ErrSubmissionFailed)
	}
	return TaskHandle(id), nil
}

// String returns the handle as a plain string.
func (h TaskHandle) String() string {
	return string(h)
}

// TaskState is the lifecycle state of an automation task as seen by the poller.
type TaskState string

const (
	// TaskStatePending covers every non-terminal status (created, queued, running, paused, ...).
	TaskStatePending TaskState = "pending"
	// TaskStateCompleted means the task finished and carries a result.
	TaskStateCompleted TaskState = "completed"
	// TaskStateFailed means the task reported failure; polling stops.
	TaskStateFailed TaskState = "failed"
)

// TaskStatus is one observation of a task's state.
type TaskStatus struct {
	State TaskState
	// Result is set only when State is TaskStateCompleted.
	Result json.RawMessage
	// Error is set only when State is TaskStateFailed.
	Error string
}

// NewTaskStatus classifies a raw status report. A completed status wins;
// otherwise an explicit failed status or any error detail makes it failed;
// everything else is pending.
func NewTaskStatus(rawStatus string, result json.RawMessage, errDetail string) TaskStatus {
	errDetail = strings.TrimSpace(errDetail)

	switch strings.ToLower(strings.TrimSpace(rawStatus)) {
	case "completed", "finished":
		return TaskStatus{State: TaskStateCompleted, Result: result}
	case "failed":
		if errDetail == "" {
			errDetail = "task reported failed status"
		}
		return TaskStatus{State: TaskStateFailed, Error: errDetail}
	}

	if errDetail != "" {
		return TaskStatus{State: TaskStateFailed, Error: errDetail}
	}
	return TaskStatus{State: TaskStatePending}
}

// Terminal reports whether the status ends polling.
func (s TaskStatus) Terminal() bool {
	return s.State == TaskStateCompleted || s.State == TaskStateFailed
}
