package buckets

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/mitchellh/cli"

	"github.com/keboola/kbcstorage-go/internal/cmd/base"
	"github.com/keboola/kbcstorage-go/pkg/storage"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Manage buckets"
}

func (c *Command) Help() string {
	return `Usage: kbc buckets <subcommand> [options] [args]

  This command groups subcommands for Storage API buckets.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}

func bucketTable(buckets []storage.Bucket) *base.Table {
	t := &base.Table{Header: []string{"ID", "Name", "Stage", "Backend", "Rows", "Description"}}
	for _, b := range buckets {
		t.Rows = append(t.Rows, []string{
			b.ID, b.Name, b.Stage, b.Backend, strconv.FormatInt(b.RowsCount, 10), b.Description,
		})
	}
	return t
}

type ListCommand struct {
	*base.Command
}

func (c *ListCommand) Synopsis() string {
	return "List buckets"
}

func (c *ListCommand) Help() string {
	return `Usage: kbc buckets list [options]

  List all buckets in the project.` +
		c.Flags().Help()
}

func (c *ListCommand) Flags() *base.FlagSet {
	return c.NewFlagSet("buckets list")
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

	buckets, err := client.Buckets.List(ctx)
	if err != nil {
		return c.Error(err)
	}
	return c.Output(buckets, bucketTable(buckets))
}

type CreateCommand struct {
	*base.Command

	flagStage       string
	flagDescription string
	flagBackend     string
}

func (c *CreateCommand) Synopsis() string {
	return "Create a bucket"
}

func (c *CreateCommand) Help() string {
	return `Usage: kbc buckets create [options] <name>

  Create a bucket. The bucket id is <stage>.c-<name>.` +
		c.Flags().Help()
}

func (c *CreateCommand) Flags() *base.FlagSet {
	f := c.NewFlagSet("buckets create")
	f.StringVar(&c.flagStage, "stage", storage.StageIn, "Bucket stage: in or out.")
	f.StringVar(&c.flagDescription, "description", "", "Bucket description.")
	f.StringVar(&c.flagBackend, "backend", "", "Storage backend. Defaults to the project backend.")
	return f
}

func (c *CreateCommand) Run(args []string) int {
	f := c.Flags()
	if err := c.Parse(f, args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		return c.Error(errors.New("exactly one bucket name is required"))
	}

	client, err := c.Client()
	if err != nil {
		return c.Error(err)
	}
	ctx, cancel := c.Context()
	defer cancel()

	bucket, err := client.Buckets.Create(ctx, storage.CreateBucketOptions{
		Name:        f.Arg(0),
		Stage:       c.flagStage,
		Description: c.flagDescription,
		Backend:     c.flagBackend,
	})
	if err != nil {
		return c.Error(err)
	}
	return c.Output(bucket, bucketTable([]storage.Bucket{*bucket}))
}

type DeleteCommand struct {
	*base.Command

	flagForce bool
}

func (c *DeleteCommand) Synopsis() string {
	return "Delete a bucket"
}

func (c *DeleteCommand) Help() string {
	return `Usage: kbc buckets delete [options] <bucket-id>

  Delete a bucket. Use -force to also drop its tables.` +
		c.Flags().Help()
}

func (c *DeleteCommand) Flags() *base.FlagSet {
	f := c.NewFlagSet("buckets delete")
	f.BoolVar(&c.flagForce, "force", false, "Delete the bucket together with its tables.")
	return f
}

func (c *DeleteCommand) Run(args []string) int {
	f := c.Flags()
	if err := c.Parse(f, args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		return c.Error(errors.New("exactly one bucket id is required"))
	}

	client, err := c.Client()
	if err != nil {
		return c.Error(err)
	}
	ctx, cancel := c.Context()
	defer cancel()

	if err := client.Buckets.Delete(ctx, f.Arg(0), c.flagForce); err != nil {
		return c.Error(err)
	}
	c.UI.Info(fmt.Sprintf("Bucket %s deleted", f.Arg(0)))
	return 0
}
