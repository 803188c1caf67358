// Package jobs tracks asynchronous Storage API jobs. A long-running write
// returns a job handle; the Poller observes that job until the server reports
// a terminal status.
package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/keboola/kbcstorage-go/pkg/models"
)

// Status is the server-reported state of a job.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// Terminal reports whether no further transition can follow s. Unknown
// statuses are treated as still running.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}

// ID identifies a job. The API returns ids as strings or integers; both
// decode to the same ID.
type ID = models.ID

// IDFromInt converts a numeric job id.
func IDFromInt(n int64) ID {
	return models.IDFromInt(n)
}

// ErrorDetail is the error payload of a failed job.
type ErrorDetail struct {
	Message     string `json:"message"`
	ExceptionID string `json:"exceptionId,omitempty"`
}

// Job is a server-side asynchronous task as returned by GET /jobs/{id}.
// Results is set only on success and Error only on failure.
type Job struct {
	ID              ID           `json:"id"`
	Status          Status       `json:"status"`
	URL             string       `json:"url,omitempty"`
	OperationName   string       `json:"operationName,omitempty"`
	OperationParams models.JSON  `json:"operationParams,omitempty"`
	TableID         string       `json:"tableId,omitempty"`
	RunID           string       `json:"runId,omitempty"`
	Results         models.JSON  `json:"results,omitempty"`
	Error           *ErrorDetail `json:"error,omitempty"`
	CreatedTime     models.Time  `json:"createdTime"`
	StartTime       models.Time  `json:"startTime"`
	EndTime         models.Time  `json:"endTime"`

	// Raw is the payload exactly as received.
	Raw models.JSON `json:"-"`
}

// UnmarshalJSON decodes a job and keeps a copy of the raw payload.
func (j *Job) UnmarshalJSON(data []byte) error {
	type job Job
	var v job
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	*j = Job(v)
	j.Raw = append(models.JSON(nil), data...)
	return nil
}

// DecodeResults decodes the job results into out.
func (j *Job) DecodeResults(out any) error {
	if err := j.Results.Decode(out); err != nil {
		return fmt.Errorf("failed to decode results of job %s: %w", j.ID, err)
	}
	return nil
}

// ErrorMessage returns the job's error message, or "" when the job did not
// fail.
func (j *Job) ErrorMessage() string {
	if j.Error == nil {
		return ""
	}
	return j.Error.Message
}
