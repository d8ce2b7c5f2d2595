package testutils

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
)

// FakeAutomation stands in for the automation API. It accepts submissions at
// /run-task and answers /task/{id} from a script of raw JSON bodies; once the
// script runs out every query answers {"status":"running"}.
type FakeAutomation struct {
	// APIKey is the bearer credential the fake expects.
	APIKey string
	URL    string

	mu           sync.Mutex
	submitReply  string
	submitStatus int
	statuses     []string
	submissions  []map[string]string
	queries      []string
}

// SetStatuses scripts the status query bodies, one per query, in order.
func (f *FakeAutomation) SetStatuses(bodies ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = bodies
}

// SetSubmitReply replaces the submission answer, by default
// 200 {"id":"task-123"}.
func (f *FakeAutomation) SetSubmitReply(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitStatus = status
	f.submitReply = body
}

// NewFakeAutomation starts a FakeAutomation server.
func NewFakeAutomation(t *testing.T, apiKey string) *FakeAutomation {
	t.Helper()
	f := &FakeAutomation{APIKey: apiKey}

	mux := http.NewServeMux()
	mux.HandleFunc("/run-task", f.handleSubmit(t))
	mux.HandleFunc("/task/", f.handleStatus)
	f.URL = CreateTestServer(t, mux).URL
	return f
}

func (f *FakeAutomation) handleSubmit(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Authorization") != "Bearer "+f.APIKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("fake automation: undecodable submission: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.submissions = append(f.submissions, body)
		reply, status := f.submitReply, f.submitStatus
		f.mu.Unlock()

		if reply == "" {
			reply = `{"id":"task-123"}`
		}
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}
}

func (f *FakeAutomation) handleStatus(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.queries = append(f.queries, strings.TrimPrefix(r.URL.Path, "/task/"))
	n := len(f.queries)
	body := `{"status":"running"}`
	if n <= len(f.statuses) {
		body = f.statuses[n-1]
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

// Submissions returns every decoded submission body.
func (f *FakeAutomation) Submissions() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.submissions...)
}

// Queries returns the task ID of every status query, in order.
func (f *FakeAutomation) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// FakeIdentity stands in for the identity API in graphql mode. It checks
// Basic credentials and answers with the name registered for the user ID.
type FakeIdentity struct {
	Key    string
	Secret string
	URL    string

	mu       sync.Mutex
	names    map[string]string
	rawReply string
	lookups  []string
}

// SetRawReply makes every lookup answer body verbatim with status 200.
func (f *FakeIdentity) SetRawReply(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rawReply = body
}

// NewFakeIdentity starts a FakeIdentity server.
func NewFakeIdentity(t *testing.T, key, secret string, names map[string]string) *FakeIdentity {
	t.Helper()
	f := &FakeIdentity{Key: key, Secret: secret, names: names}
	f.URL = CreateTestServer(t, http.HandlerFunc(f.serve)).URL
	return f
}

func (f *FakeIdentity) serve(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != f.Key || pass != f.Secret {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var body struct {
		Variables struct {
			ID string `json:"id"`
		} `json:"variables"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.lookups = append(f.lookups, body.Variables.ID)
	raw := f.rawReply
	name, found := f.names[body.Variables.ID]
	f.mu.Unlock()

	if raw != "" {
		_, _ = w.Write([]byte(raw))
		return
	}

	if !found {
		_, _ = w.Write([]byte(`{"data":{"user":null}}`))
		return
	}
	out, _ := json.Marshal(map[string]any{"data": map[string]any{"user": map[string]string{"name": name}}})
	_, _ = w.Write(out)
}

// Lookups returns every looked-up user ID, in order.
func (f *FakeIdentity) Lookups() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lookups...)
}
