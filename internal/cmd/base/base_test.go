package base

import (
	"io"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/kbcstorage-go/internal/config"
	"github.com/keboola/kbcstorage-go/pkg/storage"
)

type row struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestRender(t *testing.T) {
	rows := []row{{ID: "in.c-a", Name: "a"}}

	out, err := Render(FormatJSON, rows, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"in.c-a","name":"a"}]`, out)

	out, err = Render(FormatYAML, rows, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "- id: in.c-a")
	assert.Contains(t, out, "name: a")

	out, err = Render(FormatTable, rows, &Table{Header: []string{"ID", "Name"}, Rows: [][]string{{"in.c-a", "a"}}})
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "in.c-a")

	out, err = Render(FormatTable, rows, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"in.c-a","name":"a"}]`, out)

	_, err = Render("xml", rows, nil)
	assert.Error(t, err)
}

func newTestCommand(env map[string]string) (*Command, *cli.MockUi) {
	ui := cli.NewMockUi()
	c := NewCommand(hclog.NewNullLogger(), ui)
	c.Fs = afero.NewMemMapFs()
	c.Getenv = func(key string) string { return env[key] }
	return c, ui
}

func TestCommand_ClientFlagOverrides(t *testing.T) {
	c, _ := newTestCommand(map[string]string{
		config.EnvURL:   "https://connection.keboola.com",
		config.EnvToken: "env-token",
	})

	var got *storage.Config
	c.NewClient = func(cfg *storage.Config) (*storage.Client, error) {
		got = cfg
		return storage.NewClient(cfg)
	}

	f := c.NewFlagSet("test")
	require.NoError(t, c.Parse(f, []string{
		"-token", "flag-token",
		"-branch", "42",
		"-max-retries", "1",
		"-wait-timeout", "10m",
		"-format", "json",
	}))

	client, err := c.Client()
	require.NoError(t, err)
	require.NotNil(t, client)
	require.NotNil(t, got)

	assert.Equal(t, "https://connection.keboola.com", got.RootURL)
	assert.Equal(t, "flag-token", got.Token)
	assert.Equal(t, "42", got.BranchID)
	assert.Equal(t, 1, got.MaxRetries)
	assert.Equal(t, 10*time.Minute, got.PollDeadline)
	assert.NotEmpty(t, got.RunID)
	assert.NotNil(t, got.Blob)
	assert.Equal(t, FormatJSON, c.Format())
}

func TestCommand_ParseRejectsUnknownFormat(t *testing.T) {
	c, _ := newTestCommand(nil)

	err := c.Parse(c.NewFlagSet("test"), []string{"-format", "xml"})
	assert.Error(t, err)
}

func TestCommand_ClientRequiresToken(t *testing.T) {
	c, _ := newTestCommand(map[string]string{config.EnvURL: "https://connection.keboola.com"})
	require.NoError(t, c.Parse(c.NewFlagSet("test"), nil))

	_, err := c.Client()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token is required")
}

func TestFlagSet_Help(t *testing.T) {
	c, _ := newTestCommand(nil)
	help := c.NewFlagSet("test").Help()

	assert.Contains(t, help, "Options:")
	assert.Contains(t, help, "-format=table")
	assert.Contains(t, help, "-max-retries=-1")
}

func TestLogLevel(t *testing.T) {
	cases := []struct {
		name string
		want hclog.Level
	}{
		{"debug", hclog.Debug},
		{"ERROR", hclog.Error},
		{"", hclog.Warn},
		{"loud", hclog.Warn},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LogLevel(tc.name, hclog.Warn), tc.name)
	}
}

func TestCommand_ClientLogLevel(t *testing.T) {
	env := map[string]string{
		config.EnvURL:      "https://connection.keboola.com",
		config.EnvToken:    "env-token",
		config.EnvLogLevel: "info",
	}

	c, _ := newTestCommand(env)
	c.Log = hclog.New(&hclog.LoggerOptions{Level: hclog.Warn, Output: io.Discard})
	require.NoError(t, c.Parse(c.NewFlagSet("test"), nil))
	_, err := c.Client()
	require.NoError(t, err)
	assert.Equal(t, hclog.Info, c.Log.GetLevel())

	c, _ = newTestCommand(env)
	c.Log = hclog.New(&hclog.LoggerOptions{Level: hclog.Warn, Output: io.Discard})
	require.NoError(t, c.Parse(c.NewFlagSet("test"), []string{"-log-level", "trace"}))
	_, err = c.Client()
	require.NoError(t, err)
	assert.Equal(t, hclog.Trace, c.Log.GetLevel())

	env[config.EnvLogLevel] = "loud"
	c, _ = newTestCommand(env)
	c.Log = hclog.New(&hclog.LoggerOptions{Level: hclog.Warn, Output: io.Discard})
	require.NoError(t, c.Parse(c.NewFlagSet("test"), nil))
	_, err = c.Client()
	require.NoError(t, err)
	assert.Equal(t, hclog.Warn, c.Log.GetLevel())
}
