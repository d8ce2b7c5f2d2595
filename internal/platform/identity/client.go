package identity

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
	// ModeGraphQL posts a user query to /v2/graphql.
	ModeGraphQL = "graphql"
	// ModeREST fetches /v1/users/{id}.
	ModeREST = "rest"

	userNameQuery = `query($id: ID!) { user(id: $id) { name } }`

	// maxLoggedBody caps how much of an upstream body ends up in a log line.
	maxLoggedBody = 2048
	// maxBodySize caps how much of an upstream body is read at all.
	maxBodySize = 1 << 20
)

// Client looks up user display names.
type Client struct {
	baseURL    string
	mode       string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a lookup client from configuration. httpClient may be nil,
// in which case one with the configured request timeout is created.
func NewClient(cfg config.IdentityConfig, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid identity base URL: %w", err)
	}

	mode := cfg.Mode
	if mode == "" {
		mode = ModeGraphQL
	}
	if mode != ModeGraphQL && mode != ModeREST {
		return nil, fmt.Errorf("unsupported identity mode %q", mode)
	}

	if httpClient == nil {
		timeout := cfg.RequestTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    baseURL,
		mode:       mode,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// graphQLResponse mirrors {"data":{"user":{"name":...}}}.
type graphQLResponse struct {
	Data struct {
		User *struct {
			Name string `json:"name"`
		} `json:"user"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// restResponse mirrors {"data":{"attributes":{"name":...}}}.
type restResponse struct {
	Data struct {
		Attributes struct {
			Name string `json:"name"`
		} `json:"attributes"`
	} `json:"data"`
}

// LookupName resolves a user ID to its display name.
//
// Errors wrap domain.ErrLookupFailed (transport failure or non-2xx status),
// domain.ErrMalformedResponse (2xx with a body that is not JSON) or
// domain.ErrNameNotFound (valid JSON without a name).
func (c *Client) LookupName(ctx context.Context, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("%w: user id is empty", domain.ErrInvalidInput)
	}
	if c.apiKey == "" || c.apiSecret == "" {
		return "", fmt.Errorf("%w: identity credentials not configured", domain.ErrLookupFailed)
	}

	req, err := c.newRequest(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrLookupFailed, err)
	}

	c.logger.DebugContext(ctx, "looking up user name", "user_id", userID, "mode", c.mode)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrLookupFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", domain.ErrLookupFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.ErrorContext(ctx, "identity API returned non-success status",
			"status_code", resp.StatusCode,
			"body", redact.Body(body, maxLoggedBody))
		return "", fmt.Errorf("%w: status %d", domain.ErrLookupFailed, resp.StatusCode)
	}

	// Some failures come back as 200 with an HTML or empty body. Keep the raw
	// text before giving up so the cause is visible in the logs.
	if !json.Valid(body) {
		c.logger.ErrorContext(ctx, "identity API returned non-JSON body",
			"status_code", resp.StatusCode,
			"body_length", len(body),
			"raw_body", redact.Body(body, maxLoggedBody))
		return "", fmt.Errorf("%w: body is not valid JSON", domain.ErrMalformedResponse)
	}

	name, err := c.extractName(ctx, body)
	if err != nil {
		return "", err
	}

	c.logger.InfoContext(ctx, "resolved user name", "user_id", userID)
	return name, nil
}

func (c *Client) newRequest(ctx context.Context, userID string) (*http.Request, error) {
	var req *http.Request
	var err error

	switch c.mode {
	case ModeREST:
		endpoint := c.baseURL + "/v1/users/" + url.PathEscape(userID)
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	default:
		payload, marshalErr := json.Marshal(map[string]interface{}{
			"query":     userNameQuery,
			"variables": map[string]string{"id": userID},
		})
		if marshalErr != nil {
			return nil, marshalErr
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/graphql", bytes.NewReader(payload))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	}
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.apiKey, c.apiSecret)
	return req, nil
}

func (c *Client) extractName(ctx context.Context, body []byte) (string, error) {
	var name string

	switch c.mode {
	case ModeREST:
		var decoded restResponse
		if err := json.Unmarshal(body, &decoded); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
		}
		name = decoded.Data.Attributes.Name
	default:
		var decoded graphQLResponse
		if err := json.Unmarshal(body, &decoded); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
		}
		if len(decoded.Errors) > 0 {
			c.logger.WarnContext(ctx, "identity API returned GraphQL errors",
				"first_error", redact.String(decoded.Errors[0].Message),
				"error_count", len(decoded.Errors))
		}
		if decoded.Data.User != nil {
			name = decoded.Data.User.Name
		}
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrNameNotFound
	}
	return name, nil
}
