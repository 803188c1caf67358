package base

import (
	"flag"
	"fmt"
	"sort"
	"strings"
)

// FlagSet wraps flag.FlagSet to render flag help the way the command help
// texts expect.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet wraps f.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	return &FlagSet{FlagSet: f}
}

// Help returns the options section of a command help text.
func (f *FlagSet) Help() string {
	var lines []string
	f.VisitAll(func(fl *flag.Flag) {
		line := fmt.Sprintf("  -%s", fl.Name)
		if fl.DefValue != "" && fl.DefValue != "false" {
			line += fmt.Sprintf("=%s", fl.DefValue)
		}
		lines = append(lines, line+"\n      "+fl.Usage)
	})
	if len(lines) == 0 {
		return ""
	}
	sort.Strings(lines)
	return "\n\nOptions:\n\n" + strings.Join(lines, "\n\n")
}
