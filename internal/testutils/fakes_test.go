package testutils

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeAutomation(t *testing.T) {
	f := NewFakeAutomation(t, "key")
	f.SetStatuses(`{"status":"completed","result":"1"}`)

	req, err := http.NewRequest(http.MethodPost, f.URL+"/run-task", strings.NewReader(`{"task":"t","llm_model":"m"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer key")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":"task-123"}`, string(body))
	assert.Equal(t, []map[string]string{{"task": "t", "llm_model": "m"}}, f.Submissions())

	for _, want := range []string{`{"status":"completed","result":"1"}`, `{"status":"running"}`} {
		resp, err := http.Get(f.URL + "/task/task-123")
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		assert.JSONEq(t, want, string(body))
	}
	assert.Equal(t, []string{"task-123", "task-123"}, f.Queries())
}

func TestFakeAutomation_RejectsWrongKey(t *testing.T) {
	f := NewFakeAutomation(t, "key")

	resp, err := http.Post(f.URL+"/run-task", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, f.Submissions())
}

func TestFakeIdentity(t *testing.T) {
	f := NewFakeIdentity(t, "k", "s", map[string]string{"42": "Jane Doe"})

	lookup := func(id string) string {
		req, err := http.NewRequest(http.MethodPost, f.URL+"/v2/graphql",
			strings.NewReader(`{"variables":{"id":"`+id+`"}}`))
		require.NoError(t, err)
		req.SetBasicAuth("k", "s")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(resp.Body)
		return string(body)
	}

	assert.JSONEq(t, `{"data":{"user":{"name":"Jane Doe"}}}`, lookup("42"))
	assert.JSONEq(t, `{"data":{"user":null}}`, lookup("7"))
	assert.Equal(t, []string{"42", "7"}, f.Lookups())

	f.SetRawReply("<html>maintenance</html>")
	assert.Equal(t, "<html>maintenance</html>", lookup("42"))
}
