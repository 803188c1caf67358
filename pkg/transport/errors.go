package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// maxErrorBody caps how much of a non-JSON error body ends up in messages.
const maxErrorBody = 512

// HTTPError is a non-2xx response surfaced to the caller.
type HTTPError struct {
	Method      string
	URL         string
	StatusCode  int
	Body        []byte
	Message     string
	Code        string
	ExceptionID string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: API error (status %d): %s", e.Method, e.URL, e.StatusCode, e.Message)
	}

	body := string(e.Body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	return fmt.Sprintf("%s %s: API returned status %d: %s", e.Method, e.URL, e.StatusCode, body)
}

// Temporary reports whether the status was retry-eligible, i.e. the request
// failed only because the retry budget ran out.
func (e *HTTPError) Temporary() bool {
	return RetryEligible(e.StatusCode)
}

// IsNotFound reports whether err is an HTTPError with status 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// StatusCode extracts the status of an HTTPError anywhere in err's chain,
// or returns 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// CheckStatus returns nil for 2xx responses and an *HTTPError otherwise.
func CheckStatus(r *Request, resp *Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	httpErr := &HTTPError{
		Method:     r.Method,
		URL:        r.URL,
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
	}

	// The API reports {"error": ..., "code": ..., "exceptionId": ...}.
	var apiErr struct {
		Error       string `json:"error"`
		Message     string `json:"message"`
		Code        any    `json:"code"`
		ExceptionID string `json:"exceptionId"`
	}
	if err := json.Unmarshal(resp.Body, &apiErr); err == nil {
		httpErr.Message = apiErr.Error
		if httpErr.Message == "" {
			httpErr.Message = apiErr.Message
		}
		if apiErr.Code != nil {
			httpErr.Code = fmt.Sprint(apiErr.Code)
		}
		httpErr.ExceptionID = apiErr.ExceptionID
	}

	return httpErr
}
