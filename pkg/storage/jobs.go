package storage

import (
	"context"
	"fmt"

	"github.com/keboola/kbcstorage-go/pkg/jobs"
)

var _ jobs.Fetcher = (*Jobs)(nil)

// Jobs reads asynchronous jobs and waits for them through the shared poller.
type Jobs struct {
	*endpoint
}

// WithMaxRetries returns a copy of the client with a different attempt bound
// for its own requests.
func (j *Jobs) WithMaxRetries(n int) *Jobs {
	return &Jobs{endpoint: j.withMaxRetries(n)}
}

// List lists recent jobs.
func (j *Jobs) List(ctx context.Context) ([]jobs.Job, error) {
	var out []jobs.Job
	if err := j.get(ctx, j.url("jobs"), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return out, nil
}

// Detail returns the current record of a job.
func (j *Jobs) Detail(ctx context.Context, id jobs.ID) (*jobs.Job, error) {
	if err := requireID("job_id", id.String()); err != nil {
		return nil, err
	}

	var out jobs.Job
	if err := j.get(ctx, j.url("jobs", id.String()), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return &out, nil
}

// Status returns the current status of a job.
func (j *Jobs) Status(ctx context.Context, id jobs.ID) (jobs.Status, error) {
	return j.poller.Status(ctx, id)
}

// Completed reports whether a job has reached a terminal status.
func (j *Jobs) Completed(ctx context.Context, id jobs.ID) (bool, error) {
	return j.poller.Completed(ctx, id)
}

// BlockUntilCompleted waits until the job is terminal and returns its record.
func (j *Jobs) BlockUntilCompleted(ctx context.Context, id jobs.ID) (*jobs.Job, error) {
	return j.poller.BlockUntilCompleted(ctx, id)
}

// BlockForSuccess waits until the job is terminal and reports whether it
// succeeded.
func (j *Jobs) BlockForSuccess(ctx context.Context, id jobs.ID) (bool, error) {
	return j.poller.BlockForSuccess(ctx, id)
}
