package buckets

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/kbcstorage-go/internal/cmd/base/basetest"
)

func TestListCommand(t *testing.T) {
	env := basetest.New(t)
	env.Mux.HandleFunc("GET /v2/storage/buckets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, basetest.Token, r.Header.Get("X-StorageApi-Token"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "in.c-main", "name": "main", "stage": "in", "backend": "snowflake", "rowsCount": 12},
		})
	})

	code := (&ListCommand{Command: env.Command}).Run([]string{"-format", "json"})
	require.Equal(t, 0, code, env.UI.ErrorWriter.String())

	var out []map[string]any
	require.NoError(t, json.Unmarshal(env.UI.OutputWriter.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "in.c-main", out[0]["id"])
}

func TestListCommand_Table(t *testing.T) {
	env := basetest.New(t)
	env.Reply("GET /v2/storage/buckets", http.StatusOK, `[{"id":"out.c-report","name":"report","stage":"out"}]`)

	code := (&ListCommand{Command: env.Command}).Run(nil)
	require.Equal(t, 0, code, env.UI.ErrorWriter.String())
	assert.Contains(t, env.UI.OutputWriter.String(), "Stage")
	assert.Contains(t, env.UI.OutputWriter.String(), "out.c-report")
}

func TestCreateCommand(t *testing.T) {
	env := basetest.New(t)
	forms := make(chan url.Values, 1)
	env.Mux.HandleFunc("POST /v2/storage/buckets", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		forms <- r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"out.c-report","name":"report","stage":"out"}`))
	})

	code := (&CreateCommand{Command: env.Command}).Run([]string{"-stage", "out", "-description", "Reports", "report"})
	require.Equal(t, 0, code, env.UI.ErrorWriter.String())
	form := <-forms
	assert.Equal(t, []string{"report"}, form["name"])
	assert.Equal(t, []string{"out"}, form["stage"])
	assert.Equal(t, []string{"Reports"}, form["description"])
	assert.Contains(t, env.UI.OutputWriter.String(), "out.c-report")
}

func TestCreateCommand_RequiresName(t *testing.T) {
	env := basetest.New(t)

	code := (&CreateCommand{Command: env.Command}).Run(nil)
	assert.Equal(t, 1, code)
	assert.Contains(t, env.UI.ErrorWriter.String(), "bucket name is required")
}

func TestDeleteCommand_Force(t *testing.T) {
	env := basetest.New(t)
	queries := make(chan url.Values, 1)
	env.Mux.HandleFunc("DELETE /v2/storage/buckets/in.c-old", func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Query()
		w.WriteHeader(http.StatusNoContent)
	})

	code := (&DeleteCommand{Command: env.Command}).Run([]string{"-force", "in.c-old"})
	require.Equal(t, 0, code, env.UI.ErrorWriter.String())
	assert.Equal(t, "true", (<-queries).Get("force"))
	assert.Contains(t, env.UI.OutputWriter.String(), "Bucket in.c-old deleted")
}
