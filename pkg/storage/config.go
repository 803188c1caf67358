package storage

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/keboola/kbcstorage-go/pkg/blob"
	"github.com/keboola/kbcstorage-go/pkg/jobs"
	"github.com/keboola/kbcstorage-go/pkg/transport"
)

const (
	// DefaultBranchID addresses the project's main branch.
	DefaultBranchID = "default"

	// DefaultUserAgent identifies this client to the API.
	DefaultUserAgent = "Keboola Storage API Go Client"
)

// Config contains configuration for the Storage API client.
//
// Example configuration (HCL):
//
//	storage {
//	  url         = "https://connection.keboola.com"
//	  token       = env("KBC_STORAGE_API_TOKEN")
//	  max_retries = 11
//	}
type Config struct {
	// RootURL is the API host, e.g. "https://connection.keboola.com".
	RootURL string `hcl:"url" json:"url"`

	// Token is the Storage API token sent as X-StorageApi-Token.
	Token string `hcl:"token" json:"-"`

	// BranchID selects the branch for branch-scoped resources.
	// Default: "default"
	BranchID string `hcl:"branch_id,optional" json:"branchId,omitempty"`

	// MaxRetries is the number of total attempts per request. Zero and one
	// both disable retries, so start from DefaultConfig to get 11.
	MaxRetries int `hcl:"max_retries,optional" json:"maxRetries"`

	// BackoffFactor is the retry delay base in seconds.
	BackoffFactor float64 `hcl:"backoff_factor,optional" json:"backoffFactor"`

	// Timeout bounds one HTTP round trip.
	// Default: 5 minutes
	Timeout time.Duration `hcl:"timeout,optional" json:"timeout,omitempty"`

	// TLSVerify controls TLS certificate verification.
	TLSVerify *bool `hcl:"tls_verify,optional" json:"tlsVerify,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `hcl:"user_agent,optional" json:"userAgent,omitempty"`

	// RunID is sent as X-KBC-RunId so the API can correlate requests.
	RunID string `hcl:"run_id,optional" json:"runId,omitempty"`

	// PollDeadline bounds every job wait. Zero waits without a deadline.
	PollDeadline time.Duration `hcl:"poll_deadline,optional" json:"pollDeadline,omitempty"`

	Logger      hclog.Logger       `json:"-"`
	HTTPClient  transport.Doer     `json:"-"`
	Blob        blob.Factory       `json:"-"`
	Fs          afero.Fs           `json:"-"`
	Metrics     *transport.Metrics `json:"-"`
	JobsMetrics *jobs.Metrics      `json:"-"`

	// Timer drives retry sleeps and PollerOptions tune the job poller.
	Timer         backoff.Timer       `json:"-"`
	PollerOptions []jobs.PollerOption `json:"-"`
}

// DefaultConfig returns a Config with the historical retry defaults.
func DefaultConfig() *Config {
	tlsVerify := true
	return &Config{
		BranchID:      DefaultBranchID,
		MaxRetries:    transport.DefaultMaxRetries,
		BackoffFactor: transport.DefaultBackoffFactor,
		Timeout:       transport.DefaultTimeout,
		TLSVerify:     &tlsVerify,
		UserAgent:     DefaultUserAgent,
	}
}

// SetDefaults fills in unset optional fields. The retry settings are left
// alone because zero is a meaningful value for both.
func (c *Config) SetDefaults() {
	if c.BranchID == "" {
		c.BranchID = DefaultBranchID
	}
	if c.Timeout == 0 {
		c.Timeout = transport.DefaultTimeout
	}
	if c.TLSVerify == nil {
		tlsVerify := true
		c.TLSVerify = &tlsVerify
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
	if c.Fs == nil {
		c.Fs = afero.NewOsFs()
	}
}

// Validate checks if the configuration is valid. All problems are reported
// at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.RootURL == "" {
		result = multierror.Append(result, fmt.Errorf("url is required"))
	} else if u, err := url.Parse(c.RootURL); err != nil {
		result = multierror.Append(result, fmt.Errorf("invalid url: %w", err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		result = multierror.Append(result, fmt.Errorf("url must use http or https scheme, got: %s", u.Scheme))
	}

	if c.Token == "" {
		result = multierror.Append(result, fmt.Errorf("token is required"))
	}
	if c.MaxRetries < 0 {
		result = multierror.Append(result, fmt.Errorf("max_retries must be non-negative, got: %d", c.MaxRetries))
	}
	if c.BackoffFactor < 0 {
		result = multierror.Append(result, fmt.Errorf("backoff_factor must be non-negative, got: %v", c.BackoffFactor))
	}
	if c.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("timeout must be non-negative, got: %v", c.Timeout))
	}
	if c.PollDeadline < 0 {
		result = multierror.Append(result, fmt.Errorf("poll_deadline must be non-negative, got: %v", c.PollDeadline))
	}

	return result.ErrorOrNil()
}

// NewHTTPClient creates a configured HTTP client for the API host.
func (c *Config) NewHTTPClient() *http.Client {
	tlsVerify := c.TLSVerify == nil || *c.TLSVerify
	return transport.NewHTTPClient(c.Timeout, tlsVerify)
}
