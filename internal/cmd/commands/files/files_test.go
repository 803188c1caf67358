package files

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/kbcstorage-go/internal/cmd/base/basetest"
)

func TestUploadCommand(t *testing.T) {
	env := basetest.New(t)
	require.NoError(t, afero.WriteFile(env.Fs, "/data/report.csv", []byte("a,b\n"), 0o644))
	forms := make(chan url.Values, 1)
	env.Mux.HandleFunc("POST /v2/storage/files/prepare", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		forms <- r.PostForm
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 88, "name": "report.csv", "provider": "aws", "region": "us-east-1",
			"uploadParams": map[string]any{
				"bucket": "kbc-files", "key": "exp-15/report.csv", "acl": "private",
				"credentials": map[string]any{"AccessKeyId": "AKIA", "SecretAccessKey": "secret", "SessionToken": "session"},
			},
		})
	})

	code := (&UploadCommand{Command: env.Command}).Run([]string{"-format", "json", "-tags", "daily,raw", "/data/report.csv"})
	require.Equal(t, 0, code, env.UI.ErrorWriter.String())
	assert.JSONEq(t, `{"id":88}`, env.UI.OutputWriter.String())

	form := <-forms
	assert.Equal(t, []string{"report.csv"}, form["name"])
	assert.Equal(t, []string{"daily", "raw"}, form["tags[]"])

	obj := env.Blob.Object("kbc-files", "exp-15/report.csv")
	require.NotNil(t, obj)
	assert.Equal(t, "a,b\n", string(obj.Data))
	require.Len(t, env.Blob.Opened(), 1)
	assert.Equal(t, "us-east-1", env.Blob.Opened()[0].Region)
}

func TestUploadCommand_MissingFile(t *testing.T) {
	env := basetest.New(t)

	code := (&UploadCommand{Command: env.Command}).Run([]string{"/data/missing.csv"})
	assert.Equal(t, 1, code)
	assert.Contains(t, env.UI.ErrorWriter.String(), "file /data/missing.csv does not exist")
	assert.Nil(t, env.Blob.Object("kbc-files", "exp-15/missing.csv"))
}

func TestDownloadCommand(t *testing.T) {
	env := basetest.New(t)
	queries := make(chan url.Values, 1)
	env.Mux.HandleFunc("GET /v2/storage/files/90", func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Query()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 90, "name": "a.csv", "provider": "aws", "region": "eu-central-1", "isSliced": false,
			"s3Path":      map[string]any{"bucket": "kbc-files", "key": "exp-2/a.csv"},
			"credentials": map[string]any{"AccessKeyId": "AKIA", "SecretAccessKey": "secret", "SessionToken": "session"},
		})
	})
	env.Blob.Set("kbc-files", "exp-2/a.csv", []byte("id\n1\n"))

	code := (&DownloadCommand{Command: env.Command}).Run([]string{"90", "/downloads"})
	require.Equal(t, 0, code, env.UI.ErrorWriter.String())
	assert.Equal(t, "true", (<-queries).Get("federationToken"))
	assert.Contains(t, env.UI.OutputWriter.String(), "File 90 downloaded to /downloads/a.csv")

	data, err := afero.ReadFile(env.Fs, "/downloads/a.csv")
	require.NoError(t, err)
	assert.Equal(t, "id\n1\n", string(data))
}

func TestDownloadCommand_NotFound(t *testing.T) {
	env := basetest.New(t)
	env.Reply("GET /v2/storage/files/91", http.StatusNotFound, map[string]any{
		"error": "File not found", "code": "storage.files.notFound",
	})

	code := (&DownloadCommand{Command: env.Command}).Run([]string{"91", "/downloads"})
	assert.Equal(t, 1, code)
	assert.Contains(t, env.UI.ErrorWriter.String(), "failed to get file 91")
	exists, err := afero.Exists(env.Fs, "/downloads/a.csv")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDownloadCommand_Arguments(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"missing directory", []string{"90"}, "file id and directory are required"},
		{"invalid id", []string{"abc", "/downloads"}, `invalid file id "abc"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := basetest.New(t)

			code := (&DownloadCommand{Command: env.Command}).Run(tc.args)
			assert.Equal(t, 1, code)
			assert.Contains(t, env.UI.ErrorWriter.String(), tc.want)
		})
	}
}
