package workspaces

import (
	"fmt"

	"github.com/mitchellh/cli"

	"github.com/keboola/kbcstorage-go/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Inspect workspaces"
}

func (c *Command) Help() string {
	return `Usage: kbc workspaces <subcommand> [options] [args]

  This command groups subcommands for Storage API workspaces.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}

type ListCommand struct {
	*base.Command
}

func (c *ListCommand) Synopsis() string {
	return "List workspaces"
}

func (c *ListCommand) Help() string {
	return `Usage: kbc workspaces list [options]` +
		c.Flags().Help()
}

func (c *ListCommand) Flags() *base.FlagSet {
	return c.NewFlagSet("workspaces list")
}

func (c *ListCommand) Run(args []string) int {
	if err := c.Parse(c.Flags(), args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	client, err := c.Client()
	if err != nil {
		return c.Error(err)
	}
	ctx, cancel := c.Context()
	defer cancel()

	list, err := client.Workspaces.List(ctx)
	if err != nil {
		return c.Error(err)
	}

	t := &base.Table{Header: []string{"ID", "Type", "Backend", "Component", "Configuration"}}
	for _, ws := range list {
		t.Rows = append(t.Rows, []string{
			ws.ID.String(), ws.Type, ws.Connection.Backend, ws.Component, ws.ConfigurationID,
		})
	}
	return c.Output(list, t)
}
