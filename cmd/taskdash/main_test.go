// file: cmd/taskdash/main_test.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/taskdash/internal/clickup"
	"github.com/dkoosis/taskdash/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

// stubAPI serves canned responses keyed by "METHOD /path" below /api/v2.
type stubAPI struct {
	mu       sync.Mutex
	routes   map[string]string
	status   map[string]int
	lastAuth string
	bodies   map[string]map[string]any
}

func newStubAPI(t *testing.T) (*stubAPI, *httptest.Server) {
	t.Helper()
	s := &stubAPI{routes: map[string]string{}, status: map[string]int{}, bodies: map[string]map[string]any{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api/v2")
		data, _ := io.ReadAll(r.Body)

		s.mu.Lock()
		s.lastAuth = r.Header.Get("Authorization")
		if len(data) > 0 {
			var body map[string]any
			_ = json.Unmarshal(data, &body)
			s.bodies[key] = body
		}
		body, ok := s.routes[key]
		status := s.status[key]
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"err":"Route not found"}`)
			return
		}
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return s, srv
}

func (s *stubAPI) on(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[route] = body
	s.status[route] = status
}

// isolate points configuration and token storage at temporary locations.
func isolate(t *testing.T, baseURL, token string) {
	t.Helper()
	keyring.MockInit()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvAPIToken, token)
	t.Setenv(config.EnvListID, "901")
	t.Setenv(config.EnvTeamID, "777")
	t.Setenv(config.EnvBaseURL, baseURL+"/api/v2")
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvTokenPath, home+"/token.json")
	t.Setenv(config.EnvConcurrency, "")
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, clickup.WithCooldown(1))
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--no-color"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestProjectsCommand_JSON(t *testing.T) {
	api, srv := newStubAPI(t)
	isolate(t, srv.URL, "pk_env")
	api.on("GET /list/901/task", http.StatusOK, `{"tasks":[{"id":"a1","name":"Website","status":{"status":"open"}}]}`)

	out, _, err := run(t, "projects", "-o", "json")
	require.NoError(t, err)

	var tasks []clickup.Task
	require.NoError(t, json.Unmarshal([]byte(out), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "Website", tasks[0].Name)
	assert.Equal(t, "pk_env", api.lastAuth)
}

func TestCheckCommand_ReportsMissingToken(t *testing.T) {
	_, srv := newStubAPI(t)
	isolate(t, srv.URL, "")

	out, _, err := run(t, "check")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errCheckFailed))
	assert.Contains(t, out, "missing api token")
}

func TestCheckCommand_Passes(t *testing.T) {
	api, srv := newStubAPI(t)
	isolate(t, srv.URL, "pk_env")
	api.on("GET /list/901", http.StatusOK, `{"id":"901","name":"Client projects"}`)
	api.on("GET /team/777/member", http.StatusOK, `{"members":[{"user":{"id":1,"username":"ana"}}]}`)

	out, _, err := run(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "Client projects")
	assert.Contains(t, out, "1 users")
	assert.Contains(t, out, "healthy")
}

func TestTokenSet_UsedByLaterCommands(t *testing.T) {
	api, srv := newStubAPI(t)
	isolate(t, srv.URL, "")
	api.on("GET /user/5", http.StatusOK, `{"user":{"id":5,"username":"cy"}}`)

	out, _, err := run(t, "token", "set", "pk_stored")
	require.NoError(t, err)
	assert.Contains(t, out, "Token stored in keyring.")

	out, _, err = run(t, "user", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "cy")
	assert.Equal(t, "pk_stored", api.lastAuth)

	_, _, err = run(t, "token", "delete")
	require.NoError(t, err)
	_, _, err = run(t, "user", "5")
	assert.True(t, clickup.IsConfigurationError(err))
}

func TestTimeAddCommand_SendsPayload(t *testing.T) {
	api, srv := newStubAPI(t)
	isolate(t, srv.URL, "pk_env")
	api.on("POST /team/777/time_entries", http.StatusOK, `{"data":{"id":"t9","duration":"5400000"}}`)

	out, _, err := run(t, "time", "add", "a1", "--duration", "90m", "--description", "review", "--billable")
	require.NoError(t, err)
	assert.Contains(t, out, "entry t9")
	assert.Equal(t, map[string]any{
		"tid": "a1", "duration": float64(5400000), "description": "review", "billable": true,
	}, api.bodies["POST /team/777/time_entries"])
}

func TestFieldSetCommand_HintsOnUnknownField(t *testing.T) {
	api, srv := newStubAPI(t)
	isolate(t, srv.URL, "pk_env")
	api.on("POST /task/a1/field/nope", http.StatusNotFound, `{"err":"Field not found"}`)
	api.on("GET /task/a1", http.StatusOK, `{"id":"a1","name":"Website","custom_fields":[]}`)

	_, errOut, err := run(t, "field", "set", "a1", "nope", "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Custom field with ID nope not found on task a1")
	assert.Contains(t, errOut, "taskdash project a1")
}

func TestDatesCommand_RejectsBadDate(t *testing.T) {
	_, srv := newStubAPI(t)
	isolate(t, srv.URL, "pk_env")

	_, _, err := run(t, "dates", "a1", "--due", "next tuesday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a date")
}

func TestParseDateFlag(t *testing.T) {
	ms, err := parseDateFlag("due", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1709251200000), *ms)

	ms, err = parseDateFlag("due", "1709251200000")
	require.NoError(t, err)
	assert.Equal(t, int64(1709251200000), *ms)

	ms, err = parseDateFlag("due", "")
	require.NoError(t, err)
	assert.Nil(t, ms)
}
