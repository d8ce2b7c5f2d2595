package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/balance-proxy/internal/domain"
	"github.com/phrazzld/balance-proxy/internal/redact"
)

// TaskSubmitter starts an automation task from an instruction.
type TaskSubmitter interface {
	SubmitTask(ctx context.Context, instruction string) (domain.TaskHandle, error)
}

// Submitter turns a display name into a running automation task.
type Submitter struct {
	tasks  TaskSubmitter
	logger *slog.Logger
}

// NewSubmitter creates a Submitter.
func NewSubmitter(tasks TaskSubmitter, logger *slog.Logger) (*Submitter, error) {
	if tasks == nil {
		return nil, errors.New("task submitter cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Submitter{tasks: tasks, logger: logger}, nil
}

// Submit renders the balance instruction for name and submits it.
//
// Returns:
//   - the non-empty handle of the new task
//   - domain.ErrInvalidInput if name is blank
//   - domain.ErrSubmissionFailed if the task could not be started
func (s *Submitter) Submit(ctx context.Context, name string) (domain.TaskHandle, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: empty display name", domain.ErrInvalidInput)
	}

	instruction, err := BuildInstruction(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSubmissionFailed, err)
	}

	handle, err := s.tasks.SubmitTask(ctx, instruction)
	if err != nil {
		s.logger.ErrorContext(ctx, "automation task submission failed", "error", redact.Error(err))
		if errors.Is(err, domain.ErrSubmissionFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", domain.ErrSubmissionFailed, err)
	}

	// A success status without a handle is still a failed submission.
	if strings.TrimSpace(handle.String()) == "" {
		s.logger.ErrorContext(ctx, "automation task submission returned no handle")
		return "", fmt.Errorf("%w: no task handle returned", domain.ErrSubmissionFailed)
	}

	s.logger.InfoContext(ctx, "automation task submitted", "task_id", handle.String())
	return handle, nil
}
