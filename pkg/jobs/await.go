package jobs

import (
	"context"
	"errors"
)

// Waiter blocks until a job is terminal. *Poller implements it.
type Waiter interface {
	BlockUntilCompleted(ctx context.Context, id ID) (*Job, error)
}

// Await waits for the job behind handle and returns its terminal record. A
// job that ends in error is returned together with a *JobError naming
// operation and carrying the job's error message.
func Await(ctx context.Context, w Waiter, operation string, handle *Job) (*Job, error) {
	if handle == nil || handle.ID == "" {
		return nil, errors.New(operation + ": response did not contain a job id")
	}

	job, err := w.BlockUntilCompleted(ctx, handle.ID)
	if err != nil {
		return nil, err
	}

	if job.Status == StatusError {
		jobErr := &JobError{
			Operation: operation,
			JobID:     handle.ID,
			Message:   job.ErrorMessage(),
			Job:       job,
		}
		if job.Error != nil {
			jobErr.ExceptionID = job.Error.ExceptionID
		}
		return job, jobErr
	}

	return job, nil
}
