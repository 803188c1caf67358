// Package s3 implements blob.Transfer on Amazon S3 or an S3-compatible
// endpoint such as MinIO.
package s3

import (
	"fmt"
	"net/url"
	"time"
)

// Config contains configuration for the S3 blob transfer. The credentials
// and region come from the Storage API with each file, so only connection
// settings live here.
type Config struct {
	// Endpoint overrides the AWS endpoint (e.g. a MinIO URL). Path-style
	// addressing is used whenever it is set.
	Endpoint string `hcl:"endpoint,optional"`

	// Region is used when the Storage API does not report one.
	Region string `hcl:"region,optional"`

	RequestTimeout     time.Duration `hcl:"request_timeout,optional"`
	InsecureSkipVerify bool          `hcl:"insecure_skip_verify,optional"`
	RetryMaxAttempts   int           `hcl:"retry_max_attempts,optional"`
}

// Validate validates the S3 configuration
func (c *Config) Validate() error {
	if c.Endpoint != "" {
		u, err := url.Parse(c.Endpoint)
		if err != nil {
			return fmt.Errorf("invalid endpoint: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("endpoint must use http or https scheme, got: %s", u.Scheme)
		}
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must be non-negative, got: %v", c.RequestTimeout)
	}
	if c.RetryMaxAttempts < 0 {
		return fmt.Errorf("retry_max_attempts must be non-negative, got: %d", c.RetryMaxAttempts)
	}
	return nil
}

// SetDefaults sets default values for optional configuration fields
func (c *Config) SetDefaults() {
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 10 * time.Minute
	}
	if c.RetryMaxAttempts == 0 {
		c.RetryMaxAttempts = 3
	}
}
