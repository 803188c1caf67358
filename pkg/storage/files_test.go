package storage

import (
	"context"
	"net/http"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiles_List(t *testing.T) {
	env := newTestEnv(t)
	env.api.reply("GET /v2/storage/files", http.StatusOK, []map[string]any{
		{"id": 1, "name": "a.csv", "tags": []string{"export"}, "runId": 555},
	})

	files, err := env.client.Files.List(context.Background(), ListFilesOptions{
		Tags:    []string{"export", "daily"},
		RunID:   "555",
		SinceID: 10,
		MaxID:   20,
	})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "555", files[0].RunID.String())

	query := env.api.last(storagePath("files")).Query
	assert.Equal(t, "100", query.Get("limit"))
	assert.Equal(t, "0", query.Get("offset"))
	assert.Equal(t, []string{"export", "daily"}, query["tags[]"])
	assert.Equal(t, "555", query.Get("runId"))
	assert.Equal(t, "10", query.Get("sinceId"))
	assert.Equal(t, "20", query.Get("maxId"))
}

func TestFiles_UploadUnsupportedProvider(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, afero.WriteFile(env.fs, "/data/a.csv", []byte("a\n"), 0o644))

	prepared := preparedFileResponse(5, "a.csv")
	prepared["provider"] = "azure"
	env.api.reply("POST /v2/storage/files/prepare", http.StatusOK, prepared)

	_, err := env.client.Files.UploadFile(context.Background(), "/data/a.csv", UploadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `provider "azure" is not supported`)
	assert.Empty(t, env.blob.Opened())
}

func TestFiles_UploadWithoutEncryption(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, afero.WriteFile(env.fs, "/data/a.csv", []byte("a\n"), 0o644))
	env.api.reply("POST /v2/storage/files/prepare", http.StatusOK, preparedFileResponse(6, "a.csv"))

	fileID, err := env.client.Files.UploadFile(context.Background(), "/data/a.csv", UploadOptions{
		Tags:      []string{"manual"},
		Permanent: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), fileID)

	obj := env.blob.Object("kbc-files", "exp-15/a.csv")
	require.NotNil(t, obj)
	assert.Empty(t, obj.ServerSideEncryption)

	form := env.api.last(storagePath("files", "prepare")).Form(t)
	assert.Equal(t, "1", form.Get("isPermanent"))
	assert.Equal(t, "0", form.Get("isEncrypted"))
	assert.Equal(t, "2", form.Get("sizeBytes"))
}

func TestFiles_DownloadSliced(t *testing.T) {
	env := newTestEnv(t)

	env.api.reply("GET /v2/storage/files/90", http.StatusOK, map[string]any{
		"id":       90,
		"name":     "orders.csv",
		"provider": "aws",
		"region":   "eu-central-1",
		"isSliced": true,
		"url":      env.api.srv.URL + "/manifests/90",
		"s3Path":   map[string]any{"bucket": "kbc-files", "key": "exports/90/"},
		"credentials": map[string]any{
			"AccessKeyId":     "AKIA",
			"SecretAccessKey": "secret",
			"SessionToken":    "session",
		},
	})
	env.api.reply("GET /manifests/90", http.StatusOK, map[string]any{
		"entries": []map[string]any{
			{"url": "s3://kbc-files/exports/90/part0000"},
			{"url": "s3://kbc-files/exports/90/part0001"},
			{"url": "s3://kbc-files/exports/90/part0002"},
		},
	})
	env.blob.Set("kbc-files", "exports/90/part0000", []byte("1,a\n"))
	env.blob.Set("kbc-files", "exports/90/part0001", []byte("2,b\n"))
	env.blob.Set("kbc-files", "exports/90/part0002", []byte("3,c\n"))

	path, err := env.client.Files.Download(context.Background(), 90, "/downloads")
	require.NoError(t, err)
	assert.Equal(t, "/downloads/orders.csv", path)

	data, err := afero.ReadFile(env.fs, path)
	require.NoError(t, err)
	assert.Equal(t, "1,a\n2,b\n3,c\n", string(data))

	// Slice files are removed after the join.
	entries, err := afero.ReadDir(env.fs, "/downloads")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "orders.csv", entries[0].Name())

	// The manifest is fetched through its presigned URL without the token.
	manifest := env.api.last("/manifests/90")
	assert.Empty(t, manifest.Header.Get("X-StorageApi-Token"))
}

func TestFiles_DownloadMissingSlice(t *testing.T) {
	env := newTestEnv(t)

	env.api.reply("GET /v2/storage/files/91", http.StatusOK, map[string]any{
		"id":          91,
		"name":        "orders.csv",
		"provider":    "aws",
		"isSliced":    true,
		"url":         env.api.srv.URL + "/manifests/91",
		"s3Path":      map[string]any{"bucket": "kbc-files", "key": "exports/91/"},
		"credentials": map[string]any{"AccessKeyId": "AKIA"},
	})
	env.api.reply("GET /manifests/91", http.StatusOK, map[string]any{
		"entries": []map[string]any{
			{"url": "s3://kbc-files/exports/91/part0000"},
			{"url": "s3://kbc-files/exports/91/part0001"},
		},
	})
	env.blob.Set("kbc-files", "exports/91/part0000", []byte("1,a\n"))

	_, err := env.client.Files.Download(context.Background(), 91, "/downloads")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exports/91/part0001")

	exists, err := afero.Exists(env.fs, "/downloads/orders.csv")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSliceKey(t *testing.T) {
	key, err := sliceKey("s3://kbc-files/exports/90/part0000")
	require.NoError(t, err)
	assert.Equal(t, "exports/90/part0000", key)

	_, err = sliceKey("s3://kbc-files")
	assert.Error(t, err)
}
