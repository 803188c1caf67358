package base

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Table is the tabular rendering of a result.
type Table struct {
	Header []string
	Rows   [][]string
}

// Render renders v in the selected format. The table format uses table and
// falls back to JSON when table is nil.
func Render(format string, v any, table *Table) (string, error) {
	switch format {
	case FormatJSON:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode output: %w", err)
		}
		return string(b), nil
	case FormatYAML:
		// Round trip through JSON so the API field names are kept.
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to encode output: %w", err)
		}
		var generic any
		if err := yaml.Unmarshal(b, &generic); err != nil {
			return "", fmt.Errorf("failed to encode output: %w", err)
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return "", fmt.Errorf("failed to encode output: %w", err)
		}
		return strings.TrimRight(string(out), "\n"), nil
	case FormatTable:
		if table == nil {
			return Render(FormatJSON, v, nil)
		}
		var buf bytes.Buffer
		w := tablewriter.NewWriter(&buf)
		w.SetHeader(table.Header)
		w.SetAutoFormatHeaders(false)
		w.SetAutoWrapText(false)
		w.AppendBulk(table.Rows)
		w.Render()
		return strings.TrimRight(buf.String(), "\n"), nil
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

// Output renders v and writes it to the UI.
func (c *Command) Output(v any, table *Table) int {
	out, err := Render(c.Format(), v, table)
	if err != nil {
		return c.Error(err)
	}
	c.UI.Output(out)
	return 0
}
