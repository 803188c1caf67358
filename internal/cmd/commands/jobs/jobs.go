package jobs

import (
	"errors"
	"fmt"

	"github.com/mitchellh/cli"

	"github.com/keboola/kbcstorage-go/internal/cmd/base"
	"github.com/keboola/kbcstorage-go/pkg/jobs"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Inspect asynchronous jobs"
}

func (c *Command) Help() string {
	return `Usage: kbc jobs <subcommand> [options] [args]

  This command groups subcommands for Storage API jobs.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}

func jobTable(job *jobs.Job) *base.Table {
	return &base.Table{
		Header: []string{"ID", "Status", "Operation", "Table", "Error"},
		Rows: [][]string{{
			job.ID.String(), string(job.Status), job.OperationName, job.TableID, job.ErrorMessage(),
		}},
	}
}

type DetailCommand struct {
	*base.Command
}

func (c *DetailCommand) Synopsis() string {
	return "Show a job"
}

func (c *DetailCommand) Help() string {
	return `Usage: kbc jobs detail [options] <job-id>` +
		c.Flags().Help()
}

func (c *DetailCommand) Flags() *base.FlagSet {
	return c.NewFlagSet("jobs detail")
}

func (c *DetailCommand) Run(args []string) int {
	f := c.Flags()
	if err := c.Parse(f, args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		return c.Error(errors.New("exactly one job id is required"))
	}

	client, err := c.Client()
	if err != nil {
		return c.Error(err)
	}
	ctx, cancel := c.Context()
	defer cancel()

	job, err := client.Jobs.Detail(ctx, jobs.ID(f.Arg(0)))
	if err != nil {
		return c.Error(err)
	}
	return c.Output(job.Raw, jobTable(job))
}

type WaitCommand struct {
	*base.Command
}

func (c *WaitCommand) Synopsis() string {
	return "Wait for a job to finish"
}

func (c *WaitCommand) Help() string {
	return `Usage: kbc jobs wait [options] <job-id>

  Wait until the job reaches a terminal status. Exits 1 when the job
  fails or -wait-timeout passes first.` +
		c.Flags().Help()
}

func (c *WaitCommand) Flags() *base.FlagSet {
	return c.NewFlagSet("jobs wait")
}

func (c *WaitCommand) Run(args []string) int {
	f := c.Flags()
	if err := c.Parse(f, args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		return c.Error(errors.New("exactly one job id is required"))
	}

	client, err := c.Client()
	if err != nil {
		return c.Error(err)
	}
	ctx, cancel := c.Context()
	defer cancel()

	id := jobs.ID(f.Arg(0))
	job, err := jobs.Await(ctx, client.Poller(), "job "+id.String(), &jobs.Job{ID: id})
	if err != nil {
		if job != nil {
			c.Output(job.Raw, jobTable(job))
		}
		return c.Error(err)
	}
	return c.Output(job.Raw, jobTable(job))
}
