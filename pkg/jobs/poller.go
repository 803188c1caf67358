package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
)

const (
	// DefaultInitialInterval is the sleep after the first non-terminal poll.
	DefaultInitialInterval = 2 * time.Second

	// DefaultMaxInterval caps the sleep between polls.
	DefaultMaxInterval = 20 * time.Second
)

// Fetcher fetches the current record of a job.
type Fetcher interface {
	Detail(ctx context.Context, id ID) (*Job, error)
}

// errJobPending marks a poll that observed a non-terminal status.
var errJobPending = errors.New("job still running")

// Poller waits for jobs to reach a terminal status. Polls are spaced
// min(2^r, 20) seconds apart for poll r = 1, 2, ... and there is no deadline
// unless one is set with WithDeadline.
type Poller struct {
	fetcher     Fetcher
	maxInterval time.Duration
	deadline    time.Duration
	timer       backoff.Timer
	clock       backoff.Clock
	logger      hclog.Logger
	metrics     *Metrics
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithDeadline bounds the total wait. A sleep that would end past the
// deadline is not started; the wait fails with a *TimeoutError instead.
// Zero means no deadline.
func WithDeadline(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.deadline = d
	}
}

// WithMaxInterval overrides the 20s cap on the poll interval.
func WithMaxInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.maxInterval = d
		}
	}
}

// WithTimer replaces the timer used for sleeping between polls.
func WithTimer(t backoff.Timer) PollerOption {
	return func(p *Poller) {
		p.timer = t
	}
}

// WithClock replaces the clock used to measure the deadline.
func WithClock(c backoff.Clock) PollerOption {
	return func(p *Poller) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) PollerOption {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics sets the poll metrics.
func WithMetrics(m *Metrics) PollerOption {
	return func(p *Poller) {
		p.metrics = m
	}
}

// NewPoller creates a Poller that fetches job records through f.
func NewPoller(f Fetcher, opts ...PollerOption) *Poller {
	p := &Poller{
		fetcher:     f,
		maxInterval: DefaultMaxInterval,
		clock:       backoff.SystemClock,
		logger:      hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("job-poller")

	return p
}

// WithDeadline returns a copy of the poller with a different deadline.
func (p *Poller) WithDeadline(d time.Duration) *Poller {
	cp := *p
	cp.deadline = d
	return &cp
}

// WithFetcher returns a copy of the poller that fetches job records through f.
// Timer, deadline, logger and metrics are shared with p.
func (p *Poller) WithFetcher(f Fetcher) *Poller {
	cp := *p
	cp.fetcher = f
	return &cp
}

// Status fetches the job once and returns its status.
func (p *Poller) Status(ctx context.Context, id ID) (Status, error) {
	job, err := p.fetcher.Detail(ctx, id)
	if err != nil {
		return "", err
	}
	return job.Status, nil
}

// Completed fetches the job once and reports whether it is terminal.
func (p *Poller) Completed(ctx context.Context, id ID) (bool, error) {
	status, err := p.Status(ctx, id)
	if err != nil {
		return false, err
	}
	return status.Terminal(), nil
}

// BlockUntilCompleted polls the job until it is terminal and returns the
// terminal record, whether it succeeded or failed. Fetch errors are returned
// as they are.
func (p *Poller) BlockUntilCompleted(ctx context.Context, id ID) (*Job, error) {
	poll := 0
	operation := func() (*Job, error) {
		poll++
		p.metrics.observePoll()

		job, err := p.fetcher.Detail(ctx, id)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if job.Status.Terminal() {
			return job, nil
		}
		return job, errJobPending
	}

	notify := func(_ error, delay time.Duration) {
		p.logger.Debug("job still running",
			"job_id", id,
			"poll", poll,
			"delay", delay)
	}

	job, err := backoff.RetryNotifyWithTimerAndData(operation, p.newBackOff(ctx), notify, p.timer)
	switch {
	case err == nil:
		p.metrics.observeOutcome(string(job.Status))
		p.logger.Debug("job completed", "job_id", id, "status", job.Status, "polls", poll)
		return job, nil
	case errors.Is(err, errJobPending):
		p.metrics.observeOutcome("timeout")
		p.logger.Warn("job poll deadline exceeded", "job_id", id, "deadline", p.deadline, "polls", poll)
		return nil, &TimeoutError{JobID: id, Deadline: p.deadline, Last: job}
	default:
		p.metrics.observeOutcome("failed")
		return nil, err
	}
}

// BlockForSuccess waits like BlockUntilCompleted and reports whether the job
// succeeded.
func (p *Poller) BlockForSuccess(ctx context.Context, id ID) (bool, error) {
	job, err := p.BlockUntilCompleted(ctx, id)
	if err != nil {
		return false, err
	}
	return job.Status == StatusSuccess, nil
}

// newBackOff builds the poll interval sequence 2, 4, 8, 16, 20, 20, ...
func (p *Poller) newBackOff(ctx context.Context) backoff.BackOffContext {
	exp := &backoff.ExponentialBackOff{
		InitialInterval:     DefaultInitialInterval,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         p.maxInterval,
		MaxElapsedTime:      p.deadline,
		Stop:                backoff.Stop,
		Clock:               p.clock,
	}
	exp.Reset()

	return backoff.WithContext(exp, ctx)
}
