// Package storage is a client for the Storage API. Each resource (buckets,
// tables, files, jobs, workspaces and so on) has its own small client; all of
// them share one retrying executor and one job poller built by NewClient.
package storage

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/keboola/kbcstorage-go/pkg/jobs"
	"github.com/keboola/kbcstorage-go/pkg/transport"
)

// Client groups the resource clients for one project and branch.
type Client struct {
	cfg    *Config
	logger hclog.Logger

	Buckets                *Buckets
	Tables                 *Tables
	TablesMetadata         *TablesMetadata
	Files                  *Files
	Jobs                   *Jobs
	Workspaces             *Workspaces
	Components             *Components
	Configurations         *Configurations
	ConfigurationsMetadata *ConfigurationsMetadata
	Tokens                 *Tokens
	Triggers               *Triggers
	Branches               *Branches
}

// New creates a client with the default configuration.
func New(rootURL, token string) (*Client, error) {
	cfg := DefaultConfig()
	cfg.RootURL = rootURL
	cfg.Token = token
	return NewClient(cfg)
}

// NewClient creates a new Storage API client. Configuration problems are
// reported here, before any request is sent.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("invalid storage config: config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid storage config: %w", err)
	}
	cfg.SetDefaults()

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = cfg.NewHTTPClient()
	}

	exec, err := transport.NewExecutor(transport.Config{
		MaxRetries:    cfg.MaxRetries,
		BackoffFactor: cfg.BackoffFactor,
		HTTPClient:    httpClient,
		Logger:        cfg.Logger,
		Timer:         cfg.Timer,
		Metrics:       cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger.Named("storage")
	ep := &endpoint{
		rootURL:   strings.TrimRight(cfg.RootURL, "/"),
		token:     cfg.Token,
		userAgent: cfg.UserAgent,
		runID:     cfg.RunID,
		exec:      exec,
		logger:    logger,
	}

	jobsClient := &Jobs{endpoint: ep}
	pollerOpts := []jobs.PollerOption{
		jobs.WithLogger(cfg.Logger),
		jobs.WithDeadline(cfg.PollDeadline),
		jobs.WithMetrics(cfg.JobsMetrics),
	}
	ep.poller = jobs.NewPoller(jobsClient, append(pollerOpts, cfg.PollerOptions...)...)

	files := &Files{endpoint: ep, blob: cfg.Blob, fs: cfg.Fs}

	c := &Client{
		cfg:                    cfg,
		logger:                 logger,
		Buckets:                &Buckets{endpoint: ep},
		Tables:                 &Tables{endpoint: ep, files: files},
		TablesMetadata:         &TablesMetadata{endpoint: ep},
		Files:                  files,
		Jobs:                   jobsClient,
		Workspaces:             &Workspaces{endpoint: ep, files: files},
		Components:             &Components{endpoint: ep, branchID: cfg.BranchID},
		Configurations:         &Configurations{endpoint: ep, branchID: cfg.BranchID},
		ConfigurationsMetadata: &ConfigurationsMetadata{endpoint: ep, branchID: cfg.BranchID},
		Tokens:                 &Tokens{endpoint: ep},
		Triggers:               &Triggers{endpoint: ep},
		Branches:               &Branches{endpoint: ep},
	}

	logger.Debug("storage client initialized",
		"url", ep.rootURL,
		"branch_id", cfg.BranchID,
		"max_retries", cfg.MaxRetries)

	return c, nil
}

// RootURL returns the API host the client talks to.
func (c *Client) RootURL() string {
	return strings.TrimRight(c.cfg.RootURL, "/")
}

// BranchID returns the branch used by branch-scoped resources.
func (c *Client) BranchID() string {
	return c.cfg.BranchID
}

// Poller returns the job poller shared by all resource clients.
func (c *Client) Poller() *jobs.Poller {
	return c.Jobs.poller
}
