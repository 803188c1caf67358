// Package base holds what every kbc command shares: logger, UI, the global
// client flags and output rendering.
package base

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/keboola/kbcstorage-go/internal/config"
	"github.com/keboola/kbcstorage-go/pkg/blob/s3"
	"github.com/keboola/kbcstorage-go/pkg/storage"
)

// Command is embedded by every command.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui

	// Fs and Getenv default to the OS; tests replace them.
	Fs     afero.Fs
	Getenv func(string) string

	// NewClient builds the Storage API client. Tests replace it to inject
	// fakes; the default wires the S3 blob transfer.
	NewClient func(*storage.Config) (*storage.Client, error)

	flagConfig      string
	flagURL         string
	flagToken       string
	flagBranch      string
	flagFormat      string
	flagLogLevel    string
	flagMaxRetries  int
	flagWaitTimeout time.Duration
}

// LogLevel parses a level name such as "debug" and returns fallback when the
// name is empty or unknown.
func LogLevel(name string, fallback hclog.Level) hclog.Level {
	if lvl := hclog.LevelFromString(name); lvl != hclog.NoLevel {
		return lvl
	}
	return fallback
}

// NewCommand creates a Command writing to ui.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{
		Log:       log,
		UI:        ui,
		Fs:        afero.NewOsFs(),
		Getenv:    os.Getenv,
		NewClient: storage.NewClient,
	}
}

// NewFlagSet creates a flag set for name with the global client flags
// registered.
func (c *Command) NewFlagSet(name string) *FlagSet {
	f := NewFlagSet(flag.NewFlagSet(name, flag.ContinueOnError))
	f.SetOutput(io.Discard)

	f.StringVar(&c.flagConfig, "config", "", "Path to an HCL config file.")
	f.StringVar(&c.flagURL, "url", "", "Storage API URL. Overrides KBC_STORAGE_API_URL.")
	f.StringVar(&c.flagToken, "token", "", "Storage API token. Overrides KBC_STORAGE_API_TOKEN.")
	f.StringVar(&c.flagBranch, "branch", "", "Branch id. Overrides KBC_BRANCH_ID.")
	f.StringVar(&c.flagFormat, "format", FormatTable, "Output format: table, json or yaml.")
	f.StringVar(&c.flagLogLevel, "log-level", "", "Log level: trace, debug, info, warn or error.")
	f.IntVar(&c.flagMaxRetries, "max-retries", -1, "Total attempts per request. -1 keeps the configured value.")
	f.DurationVar(&c.flagWaitTimeout, "wait-timeout", 0, "Deadline for waiting on jobs. 0 waits without a deadline.")
	return f
}

// Parse parses args and checks the global flags.
func (c *Command) Parse(f *FlagSet, args []string) error {
	if err := f.Parse(args); err != nil {
		return err
	}
	switch c.flagFormat {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("unsupported format %q", c.flagFormat)
	}
	return nil
}

// Client loads the configuration, applies flag overrides and builds the
// Storage API client. Every invocation gets its own run id.
func (c *Command) Client() (*storage.Client, error) {
	cfg, err := config.Load(c.Fs, c.flagConfig, c.Getenv)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if c.flagLogLevel != "" {
		level = c.flagLogLevel
	}
	c.Log.SetLevel(LogLevel(level, c.Log.GetLevel()))

	sc, err := cfg.StorageConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if c.flagURL != "" {
		sc.RootURL = c.flagURL
	}
	if c.flagToken != "" {
		sc.Token = c.flagToken
	}
	if c.flagBranch != "" {
		sc.BranchID = c.flagBranch
	}
	if c.flagMaxRetries >= 0 {
		sc.MaxRetries = c.flagMaxRetries
	}
	if c.flagWaitTimeout > 0 {
		sc.PollDeadline = c.flagWaitTimeout
	}
	if sc.RunID == "" {
		sc.RunID = uuid.NewString()
	}
	sc.Logger = c.Log
	sc.Fs = c.Fs

	bc, err := cfg.BlobConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	factory, err := s3.NewFactory(bc, c.Log)
	if err != nil {
		return nil, err
	}
	sc.Blob = factory

	c.Log.Debug("storage client configured", "url", sc.RootURL, "branch_id", sc.BranchID, "run_id", sc.RunID)
	return c.NewClient(sc)
}

// Context returns a context cancelled on SIGINT or SIGTERM.
func (c *Command) Context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Format returns the selected output format.
func (c *Command) Format() string {
	return c.flagFormat
}

// Error reports err on the UI and returns the exit code for a failure.
func (c *Command) Error(err error) int {
	c.UI.Error(err.Error())
	return 1
}
