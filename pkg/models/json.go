package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// JSON holds a raw JSON document returned by the Storage API whose shape
// depends on the operation, such as job results or operation params.
type JSON json.RawMessage

// IsNull reports whether j is empty or the JSON literal null.
func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// Map decodes j into a generic map. A null document yields a nil map.
func (j JSON) Map() (map[string]any, error) {
	if j.IsNull() {
		return nil, nil
	}

	var m map[string]any
	if err := json.Unmarshal(j, &m); err != nil {
		return nil, fmt.Errorf("invalid JSON object: %w", err)
	}
	return m, nil
}

// Decode decodes j into out. Struct fields are matched by their json tags and
// scalar values are weakly converted, so a numeric id decodes into a string
// field and vice versa.
func (j JSON) Decode(out any) error {
	if j.IsNull() {
		return nil
	}

	var raw any
	if err := json.Unmarshal(j, &raw); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
	return nil
}

// MarshalJSON implements json.Marshaler interface.
func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return errors.New("JSON: UnmarshalJSON on nil pointer")
	}
	*j = append((*j)[0:0], data...)
	return nil
}

// String returns the JSON as a string.
func (j JSON) String() string {
	return string(j)
}
