package version

import (
	"github.com/keboola/kbcstorage-go/internal/cmd/base"
	"github.com/keboola/kbcstorage-go/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the kbc version"
}

func (c *Command) Help() string {
	return `Usage: kbc version

  Print the version of the kbc binary.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output("kbc " + version.Version)
	return 0
}
