// Package basetest wires a base.Command to an httptest Storage API, an
// in-memory blob store and timers that never sleep.
package basetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/keboola/kbcstorage-go/internal/cmd/base"
	"github.com/keboola/kbcstorage-go/internal/config"
	"github.com/keboola/kbcstorage-go/pkg/blob/blobtest"
	"github.com/keboola/kbcstorage-go/pkg/jobs"
	"github.com/keboola/kbcstorage-go/pkg/storage"
	"github.com/keboola/kbcstorage-go/pkg/transport/transporttest"
)

// Token is the Storage API token the command is configured with.
const Token = "test-token"

// Env is a command under test.
type Env struct {
	Command   *base.Command
	UI        *cli.MockUi
	Mux       *http.ServeMux
	Fs        afero.Fs
	Blob      *blobtest.Memory
	PollTimer *transporttest.RecordingTimer
}

// New creates an Env. Register handlers on Mux before running the command.
func New(t *testing.T) *Env {
	t.Helper()

	env := &Env{
		UI:        cli.NewMockUi(),
		Mux:       http.NewServeMux(),
		Fs:        afero.NewMemMapFs(),
		Blob:      blobtest.NewMemory(),
		PollTimer: transporttest.NewRecordingTimer(),
	}
	srv := httptest.NewServer(env.Mux)
	t.Cleanup(srv.Close)

	execTimer := transporttest.NewRecordingTimer()
	c := base.NewCommand(hclog.NewNullLogger(), env.UI)
	c.Fs = env.Fs
	c.Getenv = func(key string) string {
		switch key {
		case config.EnvURL:
			return srv.URL
		case config.EnvToken:
			return Token
		}
		return ""
	}
	c.NewClient = func(cfg *storage.Config) (*storage.Client, error) {
		cfg.Blob = env.Blob
		cfg.Timer = execTimer
		cfg.PollerOptions = append(cfg.PollerOptions, jobs.WithTimer(env.PollTimer))
		return storage.NewClient(cfg)
	}
	env.Command = c

	return env
}

// Reply serves body as JSON with status for pattern. String bodies are
// written as they are.
func (e *Env) Reply(pattern string, status int, body any) {
	e.Mux.HandleFunc(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if s, ok := body.(string); ok {
			_, _ = w.Write([]byte(s))
			return
		}
		_ = json.NewEncoder(w).Encode(body)
	})
}
