package storage

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeForm(t *testing.T) {
	type request struct {
		CSVOptions
		Name           string
		RowsLimit      int      `form:"limit,omitempty"`
		Incremental    bool     `form:"incremental"`
		PrimaryKey     []string `form:"primaryKey"`
		Secret         string   `form:"-"`
		CoolDown       *int     `form:"coolDown"`
		Unset          *string  `form:"unset"`
		unexported     string
		WithoutHeaders bool
	}

	coolDown := 5
	got := encodeForm(request{
		CSVOptions:  CSVOptions{Delimiter: ";"},
		Name:        "events",
		Incremental: true,
		PrimaryKey:  []string{"id", "date"},
		Secret:      "hidden",
		CoolDown:    &coolDown,
		unexported:  "x",
	})

	assert.Equal(t, url.Values{
		"delimiter":      {";"},
		"name":           {"events"},
		"incremental":    {"1"},
		"primaryKey[]":   {"id", "date"},
		"coolDown":       {"5"},
		"withoutHeaders": {"0"},
	}, got)
}

func TestEncodeForm_NilPointer(t *testing.T) {
	var req *CreateBucketOptions
	assert.Empty(t, encodeForm(req))
}
