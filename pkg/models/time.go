package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
)

// Time is a timestamp as reported by the Storage API. The API uses a
// zone offset without a colon (2017-03-15T09:04:02+0100), which
// time.RFC3339 rejects, so parsing goes through dateparse.
type Time struct {
	time.Time
}

// ParseTime parses a Storage API timestamp.
func ParseTime(s string) (Time, error) {
	t, err := dateparse.ParseStrict(s)
	if err != nil {
		return Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return Time{Time: t}, nil
}

// UnmarshalJSON accepts a timestamp string, null or an empty string.
func (t *Time) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		*t = Time{}
		return nil
	}

	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON renders the timestamp as RFC 3339, or null when unset.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}
