package jobs

import (
	"errors"
	"fmt"
	"time"
)

// ErrPollTimeout matches every *TimeoutError.
var ErrPollTimeout = errors.New("job polling deadline exceeded")

// JobError reports that a job finished with status error.
type JobError struct {
	Operation   string
	JobID       ID
	Message     string
	ExceptionID string
	Job         *Job
}

func (e *JobError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("job %s ended with status %s", e.JobID, StatusError)
	}
	if e.Operation == "" {
		return msg
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, msg)
}

// TimeoutError reports that a job was still running when the poll deadline
// passed. It says nothing about the job's eventual outcome.
type TimeoutError struct {
	JobID    ID
	Deadline time.Duration
	Last     *Job
}

func (e *TimeoutError) Error() string {
	status := Status("unknown")
	if e.Last != nil {
		status = e.Last.Status
	}
	return fmt.Sprintf("job %s did not complete within %s (last status %s)", e.JobID, e.Deadline, status)
}

// Is makes errors.Is(err, ErrPollTimeout) hold.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrPollTimeout
}
