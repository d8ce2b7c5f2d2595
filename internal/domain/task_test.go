package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskHandle(t *testing.T) {
	h, err := NewTaskHandle("  task-123 ")
	require.NoError(t, err)
	assert.Equal(t, TaskHandle("task-123"), h)
	assert.Equal(t, "task-123", h.String())

	_, err = NewTaskHandle("   ")
	assert.True(t, errors.Is(err, ErrSubmissionFailed))
}

func TestNewTaskStatus(t *testing.T) {
	result := json.RawMessage(`"4.5"`)

	tests := []struct {
		name      string
		status    string
		result    json.RawMessage
		errDetail string
		want      TaskState
		terminal  bool
	}{
		{name: "completed", status: "completed", result: result, want: TaskStateCompleted, terminal: true},
		{name: "finished alias", status: "Finished", result: result, want: TaskStateCompleted, terminal: true},
		{name: "failed", status: "failed", want: TaskStateFailed, terminal: true},
		{name: "error indicator while running", status: "running", errDetail: "sheet not found", want: TaskStateFailed, terminal: true},
		{name: "running", status: "running", want: TaskStatePending},
		{name: "created", status: "created", want: TaskStatePending},
		{name: "empty status", status: "", want: TaskStatePending},
		{name: "completed beats error detail", status: "completed", result: result, errDetail: "warning", want: TaskStateCompleted, terminal: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewTaskStatus(tt.status, tt.result, tt.errDetail)
			assert.Equal(t, tt.want, s.State)
			assert.Equal(t, tt.terminal, s.Terminal())

			switch s.State {
			case TaskStateCompleted:
				assert.Equal(t, tt.result, s.Result)
				assert.Empty(t, s.Error)
			case TaskStateFailed:
				assert.NotEmpty(t, s.Error)
				assert.Nil(t, s.Result)
			default:
				assert.Nil(t, s.Result)
				assert.Empty(t, s.Error)
			}
		})
	}
}
