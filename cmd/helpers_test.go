// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/hyperaide-sync/internal/browser"
	"github.com/xkilldash9x/hyperaide-sync/internal/config"
	"github.com/xkilldash9x/hyperaide-sync/internal/cookies"
	"github.com/xkilldash9x/hyperaide-sync/internal/credential"
	"github.com/xkilldash9x/hyperaide-sync/internal/observability"
)

// fakeCapturer stands in for the browser.
type fakeCapturer struct {
	mu      sync.Mutex
	capture *browser.Capture
	err     error
	calls   int
}

func (f *fakeCapturer) Capture(ctx context.Context) (*browser.Capture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.capture, f.err
}

func (f *fakeCapturer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// apiRequest is one request seen by the fake API.
type apiRequest struct {
	Method string
	Path   string
	APIKey string
	Body   []byte
}

// fakeAPI is an httptest server that records every request.
type fakeAPI struct {
	*httptest.Server
	mu       sync.Mutex
	requests []apiRequest
}

// newFakeAPI serves routes keyed by "METHOD /path".
func newFakeAPI(t *testing.T, routes map[string]http.HandlerFunc) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		api.mu.Lock()
		api.requests = append(api.requests, apiRequest{Method: r.Method, Path: r.URL.Path, APIKey: r.Header.Get("x-api-key"), Body: body})
		api.mu.Unlock()

		if h, ok := routes[r.Method+" "+r.URL.Path]; ok {
			h(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(api.Close)
	return api
}

func (a *fakeAPI) Requests() []apiRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]apiRequest(nil), a.requests...)
}

func (a *fakeAPI) Paths() []string {
	var paths []string
	for _, r := range a.Requests() {
		paths = append(paths, r.Method+" "+r.Path)
	}
	return paths
}

// respondJSON returns a handler that writes v with the given status.
func respondJSON(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
}

// nonInteractive is a prompt that behaves as if stdin were a pipe.
func nonInteractive() credential.Source {
	return &credential.Prompt{IsTerminal: func(int) bool { return false }}
}

// typedToken is a prompt that behaves as if the user typed token.
func typedToken(token string) credential.Source {
	return &credential.Prompt{
		IsTerminal:   func(int) bool { return true },
		ReadPassword: func(int) ([]byte, error) { return []byte(token), nil },
	}
}

// testDeps uses the real API client with a fake browser and prompt.
func testDeps(capt capturer, prompt credential.Source) *dependencies {
	d := defaultDependencies()
	d.newCapturer = func(*config.Config, *zap.Logger) capturer { return capt }
	if prompt == nil {
		prompt = nonInteractive()
	}
	d.newPrompt = func(io.Writer) credential.Source { return prompt }
	return d
}

type runOptions struct {
	stdin string
	env   map[string]string
	// extraConfig is appended to the generated config file.
	extraConfig string
	// noLogFile leaves logger.log_file at its default.
	noLogFile bool
}

type runResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes a fresh command tree against an isolated config file.
func runCLI(t *testing.T, d *dependencies, opts runOptions, args ...string) runResult {
	t.Helper()

	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)

	for _, key := range []string{"HYPERAIDE_SYNC_TOKEN", "HYPERAIDE_API_URL", "HYPERAIDE_DEV"} {
		t.Setenv(key, "")
	}
	for k, v := range opts.env {
		t.Setenv(k, v)
	}

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := "browser:\n  profile_root: " + dir + "\n" + opts.extraConfig
	if !opts.noLogFile {
		content = "logger:\n  log_file: " + filepath.Join(dir, "sync.log") + "\n" + content
	}
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	var stdout, stderr bytes.Buffer
	root := newRootCmd(d)
	root.SetIn(strings.NewReader(opts.stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))

	err := execute(context.Background(), root)
	return runResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// rawCookie builds a captured cookie; ttl 0 means a session cookie.
func rawCookie(name, domain string, httpOnly, secure bool, ttl time.Duration) cookies.RawCookie {
	c := cookies.RawCookie{Name: name, Value: "v-" + name, Domain: domain, Path: "/", HTTPOnly: httpOnly, Secure: secure}
	if ttl > 0 {
		exp := time.Now().Add(ttl).UTC()
		c.Expires = &exp
	}
	return c
}

func captureOf(visited []string, raw ...cookies.RawCookie) *browser.Capture {
	now := time.Now()
	return &browser.Capture{
		Cookies:        raw,
		VisitedDomains: visited,
		StartedAt:      now.Add(-time.Minute),
		EndedAt:        now,
	}
}
