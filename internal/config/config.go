// Package config loads the kbc CLI configuration from an HCL file and the
// environment.
package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"

	"github.com/keboola/kbcstorage-go/pkg/blob/s3"
	"github.com/keboola/kbcstorage-go/pkg/storage"
)

// Environment variables read by Load.
const (
	EnvURL      = "KBC_STORAGE_API_URL"
	EnvToken    = "KBC_STORAGE_API_TOKEN"
	EnvBranchID = "KBC_BRANCH_ID"
	EnvLogLevel = "KBC_LOG_LEVEL"
)

// Config is the CLI configuration.
//
// Example:
//
//	log_level = "info"
//
//	storage {
//	  url           = "https://connection.keboola.com"
//	  token         = "..."
//	  branch_id     = "default"
//	  max_retries   = 11
//	  poll_deadline = "30m"
//	}
//
//	blob {
//	  endpoint = "http://localhost:9000"
//	}
type Config struct {
	LogLevel string   `hcl:"log_level,optional"`
	Storage  *Storage `hcl:"storage,block"`
	Blob     *Blob    `hcl:"blob,block"`
}

// Storage configures the Storage API client. Durations are Go duration
// strings such as "90s" or "5m".
type Storage struct {
	URL           string   `hcl:"url,optional"`
	Token         string   `hcl:"token,optional"`
	BranchID      string   `hcl:"branch_id,optional"`
	MaxRetries    *int     `hcl:"max_retries,optional"`
	BackoffFactor *float64 `hcl:"backoff_factor,optional"`
	Timeout       string   `hcl:"timeout,optional"`
	PollDeadline  string   `hcl:"poll_deadline,optional"`
	TLSVerify     *bool    `hcl:"tls_verify,optional"`
	UserAgent     string   `hcl:"user_agent,optional"`
}

// Blob configures the S3 transfer used for file contents.
type Blob struct {
	Endpoint           string `hcl:"endpoint,optional"`
	Region             string `hcl:"region,optional"`
	RequestTimeout     string `hcl:"request_timeout,optional"`
	InsecureSkipVerify bool   `hcl:"insecure_skip_verify,optional"`
	RetryMaxAttempts   int    `hcl:"retry_max_attempts,optional"`
}

// Load reads path from fs when path is set and applies environment
// overrides from getenv. A missing path yields a configuration built from
// the environment alone.
func Load(fs afero.Fs, path string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		src, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := hclsimple.Decode(path, src, nil, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if cfg.Storage == nil {
		cfg.Storage = &Storage{}
	}
	if cfg.Blob == nil {
		cfg.Blob = &Blob{}
	}

	if getenv != nil {
		if v := getenv(EnvURL); v != "" {
			cfg.Storage.URL = v
		}
		if v := getenv(EnvToken); v != "" {
			cfg.Storage.Token = v
		}
		if v := getenv(EnvBranchID); v != "" {
			cfg.Storage.BranchID = v
		}
		if v := getenv(EnvLogLevel); v != "" {
			cfg.LogLevel = v
		}
	}

	return cfg, nil
}

// StorageConfig converts the file settings into a storage.Config. Every
// invalid duration is reported.
func (c *Config) StorageConfig() (*storage.Config, error) {
	out := storage.DefaultConfig()
	s := c.Storage
	if s == nil {
		return out, nil
	}

	out.RootURL = s.URL
	out.Token = s.Token
	if s.BranchID != "" {
		out.BranchID = s.BranchID
	}
	if s.MaxRetries != nil {
		out.MaxRetries = *s.MaxRetries
	}
	if s.BackoffFactor != nil {
		out.BackoffFactor = *s.BackoffFactor
	}
	if s.TLSVerify != nil {
		out.TLSVerify = s.TLSVerify
	}
	if s.UserAgent != "" {
		out.UserAgent = s.UserAgent
	}

	var result *multierror.Error
	if d, err := parseDuration("timeout", s.Timeout); err != nil {
		result = multierror.Append(result, err)
	} else if d > 0 {
		out.Timeout = d
	}
	if d, err := parseDuration("poll_deadline", s.PollDeadline); err != nil {
		result = multierror.Append(result, err)
	} else {
		out.PollDeadline = d
	}

	return out, result.ErrorOrNil()
}

// BlobConfig converts the blob block into an s3.Config.
func (c *Config) BlobConfig() (*s3.Config, error) {
	b := c.Blob
	if b == nil {
		return &s3.Config{}, nil
	}

	timeout, err := parseDuration("request_timeout", b.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return &s3.Config{
		Endpoint:           b.Endpoint,
		Region:             b.Region,
		RequestTimeout:     timeout,
		InsecureSkipVerify: b.InsecureSkipVerify,
		RetryMaxAttempts:   b.RetryMaxAttempts,
	}, nil
}

func parseDuration(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must be non-negative, got: %s", name, value)
	}
	return d, nil
}
