package workspaces

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/kbcstorage-go/internal/cmd/base/basetest"
)

func TestListCommand(t *testing.T) {
	env := basetest.New(t)
	env.Reply("GET /v2/storage/workspaces", http.StatusOK, []map[string]any{{
		"id":              "501",
		"type":            "table",
		"component":       "keboola.snowflake-transformation",
		"configurationId": "cfg-1",
		"connection":      map[string]any{"backend": "snowflake", "password": "hidden"},
	}})

	code := (&ListCommand{Command: env.Command}).Run(nil)
	require.Equal(t, 0, code, env.UI.ErrorWriter.String())
	out := env.UI.OutputWriter.String()
	assert.Contains(t, out, "501")
	assert.Contains(t, out, "snowflake")
	assert.Contains(t, out, "cfg-1")
	assert.NotContains(t, out, "hidden")
}

func TestListCommand_JSON(t *testing.T) {
	env := basetest.New(t)
	env.Reply("GET /v2/storage/workspaces", http.StatusOK, []map[string]any{
		{"id": "501", "connection": map[string]any{"backend": "snowflake"}},
		{"id": "502", "connection": map[string]any{"backend": "bigquery"}},
	})

	code := (&ListCommand{Command: env.Command}).Run([]string{"-format", "json"})
	require.Equal(t, 0, code, env.UI.ErrorWriter.String())

	var out []map[string]any
	require.NoError(t, json.Unmarshal(env.UI.OutputWriter.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "502", out[1]["id"])
}
