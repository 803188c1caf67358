package token

import (
	"fmt"
	"strconv"

	"github.com/mitchellh/cli"

	"github.com/keboola/kbcstorage-go/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Inspect Storage API tokens"
}

func (c *Command) Help() string {
	return `Usage: kbc token <subcommand> [options]

  This command groups subcommands for Storage API tokens.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}

type VerifyCommand struct {
	*base.Command
}

func (c *VerifyCommand) Synopsis() string {
	return "Verify the configured token"
}

func (c *VerifyCommand) Help() string {
	return `Usage: kbc token verify [options]

  Verify the token and print the project it belongs to.` +
		c.Flags().Help()
}

func (c *VerifyCommand) Flags() *base.FlagSet {
	return c.NewFlagSet("token verify")
}

func (c *VerifyCommand) Run(args []string) int {
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

	token, err := client.Tokens.Verify(ctx)
	if err != nil {
		return c.Error(err)
	}

	return c.Output(token, &base.Table{
		Header: []string{"ID", "Description", "Project", "Master"},
		Rows: [][]string{{
			token.ID.String(),
			token.Description,
			fmt.Sprintf("%s (%d)", token.Owner.Name, token.Owner.ID),
			strconv.FormatBool(token.IsMasterToken),
		}},
	})
}
