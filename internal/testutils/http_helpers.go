package testutils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/balance-proxy/internal/api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// CreateTestServer creates a httptest server with the given handler.
// Automatically registers cleanup via t.Cleanup() so callers don't need to manually close the server.
func CreateTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// AssertErrorResponse checks that a recorded response is an error with the
// expected status code and exactly the expected message.
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedMsg string) {
	t.Helper()

	assert.Equal(t, expectedStatus, w.Code, "unexpected status code, body: %s", w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err, "Failed to read response body")

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &fields), "Failed to unmarshal error response: %s", string(body))
	assert.Len(t, fields, 1, "error body carries only the message")

	var errResp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, expectedMsg, errResp.Error)
}

// AssertCORSHeaders checks the cross-origin headers sent on every response.
func AssertCORSHeaders(t *testing.T, h http.Header, origin string) {
	t.Helper()
	assert.Equal(t, origin, h.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Content-Type, Authorization", h.Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "POST, OPTIONS", h.Get("Access-Control-Allow-Methods"))
}
