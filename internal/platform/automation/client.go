package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phrazzld/balance-proxy/internal/config"
	"github.com/phrazzld/balance-proxy/internal/domain"
	"github.com/phrazzld/balance-proxy/internal/redact"
)

const (
	maxLoggedBody = 2048
	maxBodySize   = 1 << 20
)

// ErrStatusQuery is returned by TaskStatus when a single status query fails.
// The poller treats it as transient.
var ErrStatusQuery = errors.New("task status query failed")

// Client talks to the automation API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an automation client from configuration. httpClient may
// be nil, in which case one with the configured request timeout is created.
func NewClient(cfg config.AutomationConfig, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid automation base URL: %w", err)
	}

	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("automation model cannot be empty")
	}

	if httpClient == nil {
		timeout := cfg.RequestTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Model returns the engine selector sent with every submission.
func (c *Client) Model() string {
	return c.model
}

type submitRequest struct {
	Task     string `json:"task"`
	LLMModel string `json:"llm_model"`
}

type submitResponse struct {
	ID     string `json:"id"`
	TaskID string `json:"task_id"`
}

// statusResponse accepts both "result" and "output" for the payload, and
// "error" for an explicit failure indicator. The error field is kept raw
// because the service sends strings, objects and booleans there.
type statusResponse struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
	Output json.RawMessage `json:"output"`
	Error  json.RawMessage `json:"error"`
}

// errorDetail turns a raw error field into a detail string. null, false and
// the empty string mean no error. A string yields its value; anything else
// yields its compact JSON.
func errorDetail(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", "false", `""`:
		return ""
	}

	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err == nil {
			return strings.TrimSpace(text)
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return string(trimmed)
	}
	return compact.String()
}

// SubmitTask starts a task and returns its handle. Any failure, including a
// success status whose body has no task id, wraps domain.ErrSubmissionFailed.
func (c *Client) SubmitTask(ctx context.Context, instruction string) (domain.TaskHandle, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: automation API key not configured", domain.ErrSubmissionFailed)
	}

	payload, err := json.Marshal(submitRequest{Task: instruction, LLMModel: c.model})
	if err != nil {
		return "", fmt.Errorf("%w: encoding request: %v", domain.ErrSubmissionFailed, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/run-task", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSubmissionFailed, err)
	}

	status, body, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSubmissionFailed, err)
	}

	if status < 200 || status > 299 {
		c.logger.ErrorContext(ctx, "automation API rejected task submission",
			"status_code", status,
			"body", redact.Body(body, maxLoggedBody))
		return "", fmt.Errorf("%w: status %d", domain.ErrSubmissionFailed, status)
	}

	var decoded submitResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		c.logger.ErrorContext(ctx, "automation API returned undecodable submission response",
			"raw_body", redact.Body(body, maxLoggedBody))
		return "", fmt.Errorf("%w: decoding response: %v", domain.ErrSubmissionFailed, err)
	}

	id := decoded.ID
	if strings.TrimSpace(id) == "" {
		id = decoded.TaskID
	}

	handle, err := domain.NewTaskHandle(id)
	if err != nil {
		c.logger.ErrorContext(ctx, "automation API accepted submission without a task id",
			"raw_body", redact.Body(body, maxLoggedBody))
		return "", err
	}

	c.logger.DebugContext(ctx, "automation API accepted task", "task_id", handle.String(), "status_code", status)
	return handle, nil
}

// TaskStatus reads the current status of a task. Transport failures,
// non-2xx statuses and undecodable bodies wrap ErrStatusQuery.
func (c *Client) TaskStatus(ctx context.Context, handle domain.TaskHandle) (domain.TaskStatus, error) {
	endpoint := c.baseURL + "/task/" + url.PathEscape(handle.String())
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.TaskStatus{}, fmt.Errorf("%w: %v", ErrStatusQuery, err)
	}

	status, body, err := c.do(req)
	if err != nil {
		return domain.TaskStatus{}, fmt.Errorf("%w: %v", ErrStatusQuery, err)
	}

	if status < 200 || status > 299 {
		return domain.TaskStatus{}, fmt.Errorf("%w: status %d: %s",
			ErrStatusQuery, status, redact.Body(body, 256))
	}

	var decoded statusResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return domain.TaskStatus{}, fmt.Errorf("%w: decoding response: %v", ErrStatusQuery, err)
	}

	result := decoded.Result
	if len(bytes.TrimSpace(result)) == 0 || bytes.Equal(bytes.TrimSpace(result), []byte("null")) {
		result = decoded.Output
	}

	return domain.NewTaskStatus(decoded.Status, result, errorDetail(decoded.Error)), nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, body, nil
}
