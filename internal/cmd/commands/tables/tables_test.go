package tables

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/kbcstorage-go/internal/cmd/base/basetest"
)

func preparedFile(id int64, name string) map[string]any {
	return map[string]any{
		"id":       id,
		"name":     name,
		"provider": "aws",
		"region":   "eu-central-1",
		"uploadParams": map[string]any{
			"bucket": "kbc-files",
			"key":    "exp-15/" + name,
			"acl":    "private",
			"credentials": map[string]any{
				"AccessKeyId":     "AKIA",
				"SecretAccessKey": "secret",
				"SessionToken":    "session",
			},
		},
	}
}

func newEnv(t *testing.T) *basetest.Env {
	t.Helper()
	env := basetest.New(t)
	require.NoError(t, afero.WriteFile(env.Fs, "/data/y.csv", []byte("id,name\n1,a\n"), 0o644))
	env.Reply("POST /v2/storage/files/prepare", http.StatusOK, preparedFile(101, "y.csv"))
	return env
}

func TestCreateCommand(t *testing.T) {
	env := newEnv(t)
	forms := make(chan url.Values, 1)
	env.Mux.HandleFunc("POST /v2/storage/buckets/out.c-x/tables-async", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		forms <- r.PostForm
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"id":42,"status":"waiting"}`))
	})
	env.Reply("GET /v2/storage/jobs/42", http.StatusOK, map[string]any{
		"id": 42, "status": "success", "results": map[string]any{"id": "out.c-x.y"},
	})

	code := (&CreateCommand{Command: env.Command}).Run([]string{
		"-format", "json", "-primary-key", "id, name", "out.c-x", "y", "/data/y.csv",
	})
	require.Equal(t, 0, code, env.UI.ErrorWriter.String())
	assert.JSONEq(t, `{"id":"out.c-x.y"}`, env.UI.OutputWriter.String())
	assert.Equal(t, []string{"id", "name"}, (<-forms)["primaryKey[]"])

	obj := env.Blob.Object("kbc-files", "exp-15/y.csv")
	require.NotNil(t, obj)
	assert.Equal(t, "id,name\n1,a\n", string(obj.Data))
}

func TestCreateCommand_JobError(t *testing.T) {
	env := newEnv(t)
	env.Reply("POST /v2/storage/buckets/out.c-x/tables-async", http.StatusAccepted, `{"id":43,"status":"waiting"}`)
	env.Reply("GET /v2/storage/jobs/43", http.StatusOK, map[string]any{
		"id": 43, "status": "error", "error": map[string]any{"message": "Table already exists"},
	})

	code := (&CreateCommand{Command: env.Command}).Run([]string{"out.c-x", "y", "/data/y.csv"})
	assert.Equal(t, 1, code)
	assert.Contains(t, env.UI.ErrorWriter.String(), "create table out.c-x.y failed: Table already exists")
	assert.Empty(t, env.UI.OutputWriter.String())
}

func TestCreateCommand_Arguments(t *testing.T) {
	env := basetest.New(t)

	code := (&CreateCommand{Command: env.Command}).Run([]string{"out.c-x", "y"})
	assert.Equal(t, 1, code)
	assert.Contains(t, env.UI.ErrorWriter.String(), "bucket id, table name and csv file are required")
}

func TestLoadCommand(t *testing.T) {
	env := newEnv(t)
	forms := make(chan url.Values, 1)
	env.Mux.HandleFunc("POST /v2/storage/tables/in.c-x.y/import-async", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		forms <- r.PostForm
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"id":44,"status":"waiting"}`))
	})
	var polls int32
	env.Mux.HandleFunc("GET /v2/storage/jobs/44", func(w http.ResponseWriter, r *http.Request) {
		status := "processing"
		if atomic.AddInt32(&polls, 1) > 1 {
			status = "success"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 44, "status": status, "results": map[string]any{"importedColumns": []string{"id", "name"}},
		})
	})

	code := (&LoadCommand{Command: env.Command}).Run([]string{
		"-incremental", "-columns", "id,name", "in.c-x.y", "/data/y.csv",
	})
	require.Equal(t, 0, code, env.UI.ErrorWriter.String())
	assert.Contains(t, env.UI.OutputWriter.String(), "importedColumns")
	form := <-forms
	assert.Equal(t, []string{"1"}, form["incremental"])
	assert.Equal(t, []string{"101"}, form["dataFileId"])
	assert.Equal(t, []string{"id", "name"}, form["columns[]"])
	assert.Equal(t, []time.Duration{2 * time.Second}, env.PollTimer.Delays())
}

func TestLoadCommand_JobError(t *testing.T) {
	env := newEnv(t)
	env.Reply("POST /v2/storage/tables/in.c-x.y/import-async", http.StatusAccepted, `{"id":45,"status":"waiting"}`)
	env.Reply("GET /v2/storage/jobs/45", http.StatusOK, map[string]any{
		"id": 45, "status": "error", "error": map[string]any{"message": "Some columns are missing in the csv file"},
	})

	code := (&LoadCommand{Command: env.Command}).Run([]string{"in.c-x.y", "/data/y.csv"})
	assert.Equal(t, 1, code)
	assert.Contains(t, env.UI.ErrorWriter.String(), "load table in.c-x.y failed: Some columns are missing in the csv file")
}

func TestLoadCommand_ExclusiveCSVFlags(t *testing.T) {
	env := newEnv(t)

	code := (&LoadCommand{Command: env.Command}).Run([]string{
		"-enclosure", `"`, "-escaped-by", `\`, "in.c-x.y", "/data/y.csv",
	})
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, env.UI.ErrorWriter.String())
	assert.Nil(t, env.Blob.Object("kbc-files", "exp-15/y.csv"))
}

func TestListCommand_Bucket(t *testing.T) {
	env := basetest.New(t)
	env.Reply("GET /v2/storage/buckets/in.c-x/tables", http.StatusOK,
		`[{"id":"in.c-x.y","name":"y","primaryKey":["id"],"rowsCount":3}]`)

	code := (&ListCommand{Command: env.Command}).Run([]string{"in.c-x"})
	require.Equal(t, 0, code, env.UI.ErrorWriter.String())
	assert.Contains(t, env.UI.OutputWriter.String(), "in.c-x.y")
}

func TestPreviewCommand(t *testing.T) {
	env := basetest.New(t)
	queries := make(chan url.Values, 1)
	env.Mux.HandleFunc("GET /v2/storage/tables/in.c-x.y/data-preview", func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Query()
		_, _ = w.Write([]byte("\"id\",\"name\"\n\"1\",\"a\"\n"))
	})

	code := (&PreviewCommand{Command: env.Command}).Run([]string{"-limit", "5", "in.c-x.y"})
	require.Equal(t, 0, code, env.UI.ErrorWriter.String())
	assert.Equal(t, "5", (<-queries).Get("limit"))
	assert.Equal(t, "\"id\",\"name\"\n\"1\",\"a\"\n", env.UI.OutputWriter.String())
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList("a, b"))
}
