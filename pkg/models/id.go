package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is an identifier the API returns either as a string or as an integer.
// Both forms decode to the same ID.
type ID string

// IDFromInt converts a numeric id.
func IDFromInt(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if string(data) == "null" {
		*id = ""
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}
