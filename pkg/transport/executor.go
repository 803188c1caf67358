// Package transport performs HTTP requests against the Storage API, retrying
// transient server-side failures with exponential backoff.
//
// A response is retry-eligible when its status is 5xx other than 501. Every
// other outcome, including 4xx and 501, is definitive and returned at once.
// Retry k (0-indexed) sleeps BackoffFactor * 2^k seconds, with no jitter and
// no cap; the number of attempts is bounded by MaxRetries.
//
// The executor never turns a status into an error. Callers classify the
// returned Response, usually with CheckStatus.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
)

// Request describes one logical request. The body is replayed verbatim on
// every attempt.
type Request struct {
	Method string
	URL    string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Response is a fully buffered HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Executor sends requests with bounded retry on retry-eligible statuses.
// Its configuration is fixed at construction, so an Executor is safe for
// concurrent use as long as its Doer is.
type Executor struct {
	client     Doer
	maxRetries int
	factor     float64
	timer      backoff.Timer
	logger     hclog.Logger
	metrics    *Metrics
}

// NewExecutor creates a new Executor.
func NewExecutor(cfg Config) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transport config: %w", err)
	}

	if cfg.HTTPClient == nil {
		cfg.HTTPClient = NewHTTPClient(DefaultTimeout, true)
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	return &Executor{
		client:     cfg.HTTPClient,
		maxRetries: cfg.MaxRetries,
		factor:     cfg.BackoffFactor,
		timer:      cfg.Timer,
		logger:     cfg.Logger.Named("transport"),
		metrics:    cfg.Metrics,
	}, nil
}

// MaxRetries returns the configured number of total attempts.
func (e *Executor) MaxRetries() int {
	return e.maxRetries
}

// WithMaxRetries returns a copy of the executor with a different attempt
// bound. The receiver is left unchanged.
func (e *Executor) WithMaxRetries(n int) *Executor {
	if n < 0 {
		n = 0
	}
	cp := *e
	cp.maxRetries = n
	return &cp
}

// RetryEligible reports whether a response status signals a transient
// server-side condition worth retrying.
func RetryEligible(status int) bool {
	return status >= 500 && status < 600 && status != http.StatusNotImplemented
}

// BackoffDelay returns the delay before retry k (0-indexed).
func BackoffDelay(factor float64, k int) time.Duration {
	return time.Duration(factor * math.Pow(2, float64(k)) * float64(time.Second))
}

// retryableStatusError marks an attempt whose status is retry-eligible.
type retryableStatusError struct {
	status int
}

func (e *retryableStatusError) Error() string {
	return fmt.Sprintf("retry-eligible status %d", e.status)
}

// Do performs the request. It returns the last response received, which may
// still carry a retry-eligible status once the attempts are exhausted.
// Transport failures are returned without retry; a cancelled ctx aborts a
// pending backoff sleep.
func (e *Executor) Do(ctx context.Context, r *Request) (*Response, error) {
	attempt := 0
	operation := func() (*Response, error) {
		attempt++
		resp, err := e.send(ctx, r)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		e.metrics.observeRequest(r.Method, resp.StatusCode)

		if RetryEligible(resp.StatusCode) {
			return resp, &retryableStatusError{status: resp.StatusCode}
		}
		return resp, nil
	}

	notify := func(err error, delay time.Duration) {
		e.metrics.observeRetry(r.Method)
		e.logger.Warn("retrying request",
			"method", r.Method,
			"url", r.URL,
			"attempt", attempt,
			"max_attempts", e.maxRetries,
			"reason", err.Error(),
			"delay", delay)
	}

	resp, err := backoff.RetryNotifyWithTimerAndData(operation, e.newBackOff(ctx), notify, e.timer)
	if err != nil {
		var statusErr *retryableStatusError
		if errors.As(err, &statusErr) {
			e.logger.Error("request attempts exhausted",
				"method", r.Method,
				"url", r.URL,
				"attempts", attempt,
				"status", statusErr.status)
			return resp, nil
		}
		return nil, err
	}

	return resp, nil
}

// newBackOff builds the deterministic delay sequence factor * 2^k.
func (e *Executor) newBackOff(ctx context.Context) backoff.BackOffContext {
	retries := e.maxRetries - 1
	if retries <= 0 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}

	exp := &backoff.ExponentialBackOff{
		InitialInterval:     time.Duration(e.factor * float64(time.Second)),
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         time.Duration(math.MaxInt64),
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	exp.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// send performs a single attempt.
func (e *Executor) send(ctx context.Context, r *Request) (*Response, error) {
	endpoint := r.URL
	if len(r.Query) > 0 {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint += sep + r.Query.Encode()
	}

	var bodyReader io.Reader
	if r.Body != nil {
		bodyReader = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for name, values := range r.Header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	e.logger.Trace("sending request", "method", r.Method, "url", endpoint)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}
