package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/balance-proxy/internal/domain"
	"github.com/phrazzld/balance-proxy/internal/platform/logger"
	"github.com/phrazzld/balance-proxy/internal/redact"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/phrazzld/balance-proxy/internal/service"

// Pipeline stages, used in errors, logs and span names.
const (
	StageResolve = "resolve"
	StageSubmit  = "submit"
	StagePoll    = "poll"
	StageParse   = "parse"
)

// NameLookup resolves a user identifier to a display name.
type NameLookup interface {
	LookupName(ctx context.Context, userID string) (string, error)
}

// ResultPoller waits for a submitted task to finish.
type ResultPoller interface {
	Poll(ctx context.Context, handle domain.TaskHandle) (*PollResult, error)
}

// BalanceRequest identifies whose balance to fetch. UserName wins when both
// fields are set.
type BalanceRequest struct {
	UserName string
	UserID   string
}

// BalanceResult is a successfully scraped balance.
type BalanceResult struct {
	Balance  decimal.Decimal
	TaskID   domain.TaskHandle
	Attempts int
}

// BalanceService runs the resolve, submit, poll pipeline for one request.
type BalanceService interface {
	GetBalance(ctx context.Context, req BalanceRequest) (*BalanceResult, error)
}

// BalanceServiceConfig holds per-stage deadlines. A zero value disables the
// stage deadline and leaves only the caller's context.
type BalanceServiceConfig struct {
	LookupTimeout time.Duration
	SubmitTimeout time.Duration
}

type balanceServiceImpl struct {
	lookup    NameLookup
	submitter *Submitter
	poller    ResultPoller
	config    BalanceServiceConfig
	tracer    trace.Tracer
	logger    *slog.Logger
}

var _ BalanceService = (*balanceServiceImpl)(nil)

// NewBalanceService creates a BalanceService.
// It returns an error if any of the required dependencies are nil.
func NewBalanceService(
	lookup NameLookup,
	submitter *Submitter,
	poller ResultPoller,
	config BalanceServiceConfig,
	logger *slog.Logger,
) (BalanceService, error) {
	if lookup == nil {
		return nil, &BalanceServiceError{Stage: "create_service", Message: "name lookup cannot be nil"}
	}
	if submitter == nil {
		return nil, &BalanceServiceError{Stage: "create_service", Message: "submitter cannot be nil"}
	}
	if poller == nil {
		return nil, &BalanceServiceError{Stage: "create_service", Message: "poller cannot be nil"}
	}
	if logger == nil {
		return nil, &BalanceServiceError{Stage: "create_service", Message: "logger cannot be nil"}
	}

	return &balanceServiceImpl{
		lookup:    lookup,
		submitter: submitter,
		poller:    poller,
		config:    config,
		tracer:    otel.Tracer(tracerName),
		logger:    logger.With(slog.String("component", "balance_service")),
	}, nil
}

// GetBalance resolves the display name, submits the automation task, polls
// it to a terminal state and parses the balance out of the result.
// The first failing stage ends the pipeline.
func (s *balanceServiceImpl) GetBalance(ctx context.Context, req BalanceRequest) (*BalanceResult, error) {
	ctx, span := s.tracer.Start(ctx, "balance.get")
	defer span.End()

	log := logger.FromContextOrDefault(ctx, s.logger)
	started := time.Now()

	name, err := s.resolve(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, span, StageResolve, "could not resolve display name", err)
	}

	handle, err := s.submit(ctx, name)
	if err != nil {
		return nil, s.fail(ctx, span, StageSubmit, "could not start automation task", err)
	}
	span.SetAttributes(attribute.String("task.id", handle.String()))

	res, err := s.poll(ctx, handle)
	if err != nil {
		return nil, s.fail(ctx, span, StagePoll, "automation task did not complete", err)
	}

	balance, err := domain.ParseBalance(res.Result)
	if err != nil {
		log.ErrorContext(ctx, "completed task returned no usable balance",
			"task_id", handle.String(),
			"result", redact.Body(res.Result, 512))
		return nil, s.fail(ctx, span, StageParse, "could not read balance from task result", err)
	}

	span.SetAttributes(attribute.Int("poll.attempts", res.Attempts))
	span.SetStatus(codes.Ok, "")
	log.InfoContext(ctx, "balance retrieved",
		"task_id", handle.String(),
		"attempts", res.Attempts,
		"duration_ms", time.Since(started).Milliseconds())

	return &BalanceResult{Balance: balance, TaskID: handle, Attempts: res.Attempts}, nil
}

// resolve returns the request's name when present, otherwise looks the
// identifier up.
func (s *balanceServiceImpl) resolve(ctx context.Context, req BalanceRequest) (string, error) {
	if name := strings.TrimSpace(req.UserName); name != "" {
		return name, nil
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return "", fmt.Errorf("%w: neither userName nor userId given", domain.ErrInvalidInput)
	}

	ctx, span := s.tracer.Start(ctx, "balance.resolve")
	defer span.End()

	ctx, cancel := withOptionalTimeout(ctx, s.config.LookupTimeout)
	defer cancel()

	name, err := s.lookup.LookupName(ctx, userID)
	if err != nil {
		recordSpanError(span, err)
		if isLookupSentinel(err) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", domain.ErrLookupFailed, err)
	}
	return name, nil
}

func (s *balanceServiceImpl) submit(ctx context.Context, name string) (domain.TaskHandle, error) {
	ctx, span := s.tracer.Start(ctx, "balance.submit")
	defer span.End()

	ctx, cancel := withOptionalTimeout(ctx, s.config.SubmitTimeout)
	defer cancel()

	handle, err := s.submitter.Submit(ctx, name)
	if err != nil {
		recordSpanError(span, err)
		return "", err
	}
	return handle, nil
}

func (s *balanceServiceImpl) poll(ctx context.Context, handle domain.TaskHandle) (*PollResult, error) {
	ctx, span := s.tracer.Start(ctx, "balance.poll",
		trace.WithAttributes(attribute.String("task.id", handle.String())))
	defer span.End()

	res, err := s.poller.Poll(ctx, handle)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("poll.attempts", res.Attempts))
	return res, nil
}

func (s *balanceServiceImpl) fail(ctx context.Context, span trace.Span, stage, message string, err error) error {
	recordSpanError(span, err)
	logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "balance pipeline failed",
		"stage", stage,
		"error", redact.Error(err))
	return NewBalanceServiceError(stage, message, err)
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, redact.Error(err))
}

func isLookupSentinel(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrLookupFailed) ||
		errors.Is(err, domain.ErrMalformedResponse) ||
		errors.Is(err, domain.ErrNameNotFound)
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
