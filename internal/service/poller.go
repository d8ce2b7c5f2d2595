package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/balance-proxy/internal/domain"
	"github.com/phrazzld/balance-proxy/internal/redact"
)

// StatusQuerier reads the current status of a submitted task.
type StatusQuerier interface {
	TaskStatus(ctx context.Context, handle domain.TaskHandle) (domain.TaskStatus, error)
}

// StatusQueryFunc adapts a plain function to StatusQuerier.
type StatusQueryFunc func(ctx context.Context, handle domain.TaskHandle) (domain.TaskStatus, error)

// TaskStatus implements StatusQuerier.
func (f StatusQueryFunc) TaskStatus(ctx context.Context, handle domain.TaskHandle) (domain.TaskStatus, error) {
	return f(ctx, handle)
}

// SleepFunc waits for d or until ctx is done, returning ctx.Err() in the latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Poll outcomes reported to a PollObserver.
const (
	PollOutcomeCompleted = "completed"
	PollOutcomeFailed    = "failed"
	PollOutcomeTimedOut  = "timed_out"
	PollOutcomeCancelled = "cancelled"
)

// PollObserver receives one call per finished poll run and one per
// transient query fault.
type PollObserver interface {
	ObservePoll(outcome string, attempts int)
	ObserveTransientFault()
}

type noopObserver struct{}

func (noopObserver) ObservePoll(string, int) {}
func (noopObserver) ObserveTransientFault()  {}

// PollerConfig bounds the polling loop.
type PollerConfig struct {
	// MaxAttempts is the number of status queries allowed before timing out.
	MaxAttempts int

	// Interval is the fixed delay between two attempts.
	Interval time.Duration
}

// DefaultPollerConfig returns the standard budget: 30 attempts, 1.5s apart.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		MaxAttempts: 30,
		Interval:    1500 * time.Millisecond,
	}
}

// PollResult is the outcome of a poll that reached the completed state.
type PollResult struct {
	Handle   domain.TaskHandle
	Attempts int
	Result   json.RawMessage
}

// Poller waits for an automation task to reach a terminal status.
//
// Every attempt issues one status query. A completed status returns the
// result. A failed status stops with domain.ErrTaskFailed. A query error is
// transient and counts exactly like a pending status. When MaxAttempts
// queries have been made without a terminal status, Poll returns
// domain.ErrTimedOut.
type Poller struct {
	querier  StatusQuerier
	config   PollerConfig
	sleep    SleepFunc
	observer PollObserver
	logger   *slog.Logger
}

// NewPoller creates a Poller. It returns an error if a dependency is nil or
// the configuration cannot bound the loop.
func NewPoller(querier StatusQuerier, config PollerConfig, logger *slog.Logger) (*Poller, error) {
	if querier == nil {
		return nil, errors.New("status querier cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if config.MaxAttempts < 1 {
		return nil, fmt.Errorf("max attempts must be at least 1, got %d", config.MaxAttempts)
	}
	if config.Interval < 0 {
		return nil, fmt.Errorf("poll interval cannot be negative, got %s", config.Interval)
	}

	return &Poller{
		querier:  querier,
		config:   config,
		sleep:    sleepContext,
		observer: noopObserver{},
		logger:   logger,
	}, nil
}

// SetSleepFunc replaces the delay used between attempts. Tests use it to run
// the loop without real time passing.
func (p *Poller) SetSleepFunc(sleep SleepFunc) {
	if sleep != nil {
		p.sleep = sleep
	}
}

// SetObserver registers o to receive poll outcomes. A nil o is ignored.
func (p *Poller) SetObserver(o PollObserver) {
	if o != nil {
		p.observer = o
	}
}

// Config returns the poller's attempt budget.
func (p *Poller) Config() PollerConfig {
	return p.config
}

// Poll queries the task until it completes, fails, or the budget runs out.
func (p *Poller) Poll(ctx context.Context, handle domain.TaskHandle) (*PollResult, error) {
	log := p.logger.With("task_id", handle.String())
	maxAttempts := p.config.MaxAttempts

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		status, err := p.querier.TaskStatus(ctx, handle)

		switch {
		case err != nil:
			p.observer.ObserveTransientFault()
			log.WarnContext(ctx, "task status query failed, will retry",
				"attempt", attempt,
				"max_attempts", maxAttempts,
				"error", redact.Error(err))

		case status.State == domain.TaskStateCompleted:
			log.InfoContext(ctx, "automation task completed", "attempt", attempt)
			p.observer.ObservePoll(PollOutcomeCompleted, attempt)
			return &PollResult{Handle: handle, Attempts: attempt, Result: status.Result}, nil

		case status.State == domain.TaskStateFailed:
			log.ErrorContext(ctx, "automation task reported failure",
				"attempt", attempt,
				"task_error", redact.String(status.Error))
			p.observer.ObservePoll(PollOutcomeFailed, attempt)
			return nil, fmt.Errorf("%w: %s", domain.ErrTaskFailed, status.Error)

		default:
			log.DebugContext(ctx, "automation task still running",
				"attempt", attempt,
				"max_attempts", maxAttempts)
		}

		if attempt == maxAttempts {
			break
		}

		if err := p.sleep(ctx, p.config.Interval); err != nil {
			log.WarnContext(ctx, "polling cancelled", "attempt", attempt, "ctx_err", err)
			p.observer.ObservePoll(PollOutcomeCancelled, attempt)
			return nil, fmt.Errorf("%w: cancelled after %d attempts: %v", domain.ErrTimedOut, attempt, err)
		}
	}

	log.ErrorContext(ctx, "automation task did not finish within the attempt budget",
		"max_attempts", maxAttempts,
		"interval", p.config.Interval.String())
	p.observer.ObservePoll(PollOutcomeTimedOut, maxAttempts)
	return nil, fmt.Errorf("%w: no terminal status after %d attempts", domain.ErrTimedOut, maxAttempts)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
