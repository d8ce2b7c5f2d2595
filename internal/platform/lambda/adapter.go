// Package lambda serves an http.Handler from AWS Lambda behind API Gateway
// (REST proxy integration). The same router answers in both deployments.
package lambda

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// Adapter converts API Gateway proxy events to HTTP requests and back.
type Adapter struct {
	handler http.Handler
	logger  *slog.Logger
}

// NewAdapter creates an Adapter for handler.
func NewAdapter(handler http.Handler, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		handler: handler,
		logger:  logger.With(slog.String("component", "lambda_adapter")),
	}
}

// Handle is the Lambda entrypoint: pass it to lambda.Start.
// A malformed event yields a 400 response rather than an invocation error
// so the caller still receives the CORS headers set by the handler chain.
func (a *Adapter) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	req, err := NewRequest(ctx, event)
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to convert gateway event", "error", err)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusBadRequest,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"error":"Invalid request body or missing userName."}`,
		}, nil
	}

	w := newResponseWriter()
	a.handler.ServeHTTP(w, req)
	return w.toGatewayResponse(), nil
}

// NewRequest builds an *http.Request from an API Gateway proxy event.
func NewRequest(ctx context.Context, event events.APIGatewayProxyRequest) (*http.Request, error) {
	method := event.HTTPMethod
	if method == "" {
		method = http.MethodGet
	}

	path := event.Path
	if path == "" {
		path = "/"
	}

	u := &url.URL{Path: path, RawQuery: queryString(event).Encode()}

	body := []byte(event.Body)
	if event.IsBase64Encoded && event.Body != "" {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 body: %w", err)
		}
		body = decoded
	}

	var reader *bytes.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	var req *http.Request
	var err error
	if reader != nil {
		req, err = http.NewRequestWithContext(ctx, method, u.String(), reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u.String(), http.NoBody)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for k, v := range event.Headers {
		req.Header.Set(k, v)
	}
	for k, values := range event.MultiValueHeaders {
		req.Header.Del(k)
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	if host := req.Header.Get("Host"); host != "" {
		req.Host = host
	}
	req.RemoteAddr = event.RequestContext.Identity.SourceIP
	req.RequestURI = u.RequestURI()

	return req, nil
}

func queryString(event events.APIGatewayProxyRequest) url.Values {
	q := url.Values{}
	for k, v := range event.QueryStringParameters {
		q.Set(k, v)
	}
	for k, values := range event.MultiValueQueryStringParameters {
		q[k] = append([]string(nil), values...)
	}
	return q
}

// responseWriter buffers a response for conversion to a gateway response.
type responseWriter struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newResponseWriter() *responseWriter {
	return &responseWriter{header: http.Header{}}
}

func (w *responseWriter) Header() http.Header {
	return w.header
}

func (w *responseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

func (w *responseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *responseWriter) toGatewayResponse() events.APIGatewayProxyResponse {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}

	single := make(map[string]string, len(w.header))
	multi := make(map[string][]string, len(w.header))
	for k, values := range w.header {
		single[k] = strings.Join(values, ", ")
		multi[k] = append([]string(nil), values...)
	}

	return events.APIGatewayProxyResponse{
		StatusCode:        status,
		Headers:           single,
		MultiValueHeaders: multi,
		Body:              w.body.String(),
	}
}
