package transport

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
)

const (
	// DefaultMaxRetries is the default number of total attempts for one request.
	DefaultMaxRetries = 11

	// DefaultBackoffFactor is the default base, in seconds, of the retry delay.
	DefaultBackoffFactor = 1.0

	// DefaultTimeout bounds a single HTTP round trip.
	DefaultTimeout = 5 * time.Minute
)

// Doer sends a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures an Executor.
type Config struct {
	// MaxRetries is the maximum number of total attempts, including the first.
	// Zero and one both mean a single attempt without any retry.
	MaxRetries int

	// BackoffFactor is the base delay in seconds. Retry k (0-indexed) waits
	// BackoffFactor * 2^k seconds.
	BackoffFactor float64

	// HTTPClient sends the requests. Default: NewHTTPClient(DefaultTimeout, true).
	HTTPClient Doer

	// Logger (optional).
	Logger hclog.Logger

	// Timer drives the backoff sleeps. Nil uses a real timer; tests inject a
	// recording timer so no wall-clock time passes.
	Timer backoff.Timer

	// Metrics (optional) records requests and retries.
	Metrics *Metrics
}

// DefaultConfig returns a Config with the historical retry defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:    DefaultMaxRetries,
		BackoffFactor: DefaultBackoffFactor,
	}
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative, got: %d", c.MaxRetries)
	}
	if c.BackoffFactor < 0 {
		return fmt.Errorf("backoff_factor must be non-negative, got: %v", c.BackoffFactor)
	}
	return nil
}

// NewHTTPClient creates an HTTP client tuned for talking to a single API host.
func NewHTTPClient(timeout time.Duration, tlsVerify bool) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	if !tlsVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
