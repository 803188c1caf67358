package storage

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/keboola/kbcstorage-go/pkg/blob/blobtest"
	"github.com/keboola/kbcstorage-go/pkg/jobs"
	"github.com/keboola/kbcstorage-go/pkg/transport/transporttest"
)

const testToken = "test-token"

// recordedRequest is a request as the fake API received it.
type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Form parses a form encoded body.
func (r recordedRequest) Form(t *testing.T) url.Values {
	t.Helper()
	form, err := url.ParseQuery(string(r.Body))
	require.NoError(t, err)
	return form
}

// fakeAPI is an httptest server routing Storage API paths to handlers and
// recording every request.
type fakeAPI struct {
	t   *testing.T
	mux *http.ServeMux
	srv *httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	api := &fakeAPI{t: t, mux: http.NewServeMux()}
	api.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		r.Body = io.NopCloser(bytes.NewReader(body))

		api.mu.Lock()
		api.requests = append(api.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		api.mu.Unlock()

		api.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(api.srv.Close)
	return api
}

func (a *fakeAPI) handle(pattern string, h http.HandlerFunc) {
	a.mux.HandleFunc(pattern, h)
}

// reply serves body as JSON with status on pattern.
func (a *fakeAPI) reply(pattern string, status int, body any) {
	a.handle(pattern, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, body)
	})
}

// sequence serves the bodies in order, repeating the last one.
func (a *fakeAPI) sequence(pattern string, bodies ...any) {
	var (
		mu sync.Mutex
		i  int
	)
	a.handle(pattern, func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		body := bodies[i]
		if i < len(bodies)-1 {
			i++
		}
		mu.Unlock()
		writeJSON(w, http.StatusOK, body)
	})
}

func (a *fakeAPI) Requests() []recordedRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]recordedRequest(nil), a.requests...)
}

// last returns the last request to path.
func (a *fakeAPI) last(path string) recordedRequest {
	a.t.Helper()

	reqs := a.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Path == path {
			return reqs[i]
		}
	}
	a.t.Fatalf("no request to %s", path)
	return recordedRequest{}
}

func (a *fakeAPI) count(path string) int {
	n := 0
	for _, r := range a.Requests() {
		if r.Path == path {
			n++
		}
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if s, ok := body.(string); ok {
		_, _ = io.WriteString(w, s)
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// testEnv is a client wired to a fake API with recording timers, an
// in-memory blob store and an in-memory filesystem.
type testEnv struct {
	api       *fakeAPI
	client    *Client
	blob      *blobtest.Memory
	fs        afero.Fs
	execTimer *transporttest.RecordingTimer
	pollTimer *transporttest.RecordingTimer
}

func newTestEnv(t *testing.T, opts ...func(*Config)) *testEnv {
	t.Helper()

	env := &testEnv{
		api:       newFakeAPI(t),
		blob:      blobtest.NewMemory(),
		fs:        afero.NewMemMapFs(),
		execTimer: transporttest.NewRecordingTimer(),
		pollTimer: transporttest.NewRecordingTimer(),
	}

	cfg := DefaultConfig()
	cfg.RootURL = env.api.srv.URL
	cfg.Token = testToken
	cfg.Blob = env.blob
	cfg.Fs = env.fs
	cfg.Timer = env.execTimer
	cfg.PollerOptions = []jobs.PollerOption{jobs.WithTimer(env.pollTimer)}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := NewClient(cfg)
	require.NoError(t, err)
	env.client = client
	return env
}

func storagePath(parts ...string) string {
	p := "/v2/storage"
	for _, part := range parts {
		p += "/" + part
	}
	return p
}
