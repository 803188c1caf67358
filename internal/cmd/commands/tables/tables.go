package tables

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/cli"

	"github.com/keboola/kbcstorage-go/internal/cmd/base"
	"github.com/keboola/kbcstorage-go/pkg/storage"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Manage tables"
}

func (c *Command) Help() string {
	return `Usage: kbc tables <subcommand> [options] [args]

  This command groups subcommands for Storage API tables.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}

func tableTable(tables []storage.Table) *base.Table {
	t := &base.Table{Header: []string{"ID", "Name", "Primary key", "Rows", "Last import"}}
	for _, tbl := range tables {
		lastImport := ""
		if !tbl.LastImportDate.IsZero() {
			lastImport = tbl.LastImportDate.Format("2006-01-02 15:04:05")
		}
		t.Rows = append(t.Rows, []string{
			tbl.ID,
			tbl.Name,
			strings.Join(tbl.PrimaryKey, ","),
			strconv.FormatInt(tbl.RowsCount, 10),
			lastImport,
		})
	}
	return t
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// csvFlags are the CSV dialect flags shared by create and load.
type csvFlags struct {
	delimiter string
	enclosure string
	escapedBy string
}

func (f *csvFlags) register(fs *base.FlagSet) {
	fs.StringVar(&f.delimiter, "delimiter", "", "CSV field delimiter. Defaults to a comma.")
	fs.StringVar(&f.enclosure, "enclosure", "", "CSV enclosure. Defaults to a double quote.")
	fs.StringVar(&f.escapedBy, "escaped-by", "", "CSV escape character. Exclusive with -enclosure.")
}

func (f *csvFlags) options() storage.CSVOptions {
	return storage.CSVOptions{Delimiter: f.delimiter, Enclosure: f.enclosure, EscapedBy: f.escapedBy}
}

type ListCommand struct {
	*base.Command
}

func (c *ListCommand) Synopsis() string {
	return "List tables"
}

func (c *ListCommand) Help() string {
	return `Usage: kbc tables list [options] [bucket-id]

  List all tables in the project, or only those of one bucket.` +
		c.Flags().Help()
}

func (c *ListCommand) Flags() *base.FlagSet {
	return c.NewFlagSet("tables list")
}

func (c *ListCommand) Run(args []string) int {
	f := c.Flags()
	if err := c.Parse(f, args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	client, err := c.Client()
	if err != nil {
		return c.Error(err)
	}
	ctx, cancel := c.Context()
	defer cancel()

	var tables []storage.Table
	if f.NArg() > 0 {
		tables, err = client.Tables.ListBucket(ctx, f.Arg(0))
	} else {
		tables, err = client.Tables.List(ctx)
	}
	if err != nil {
		return c.Error(err)
	}
	return c.Output(tables, tableTable(tables))
}

type DetailCommand struct {
	*base.Command
}

func (c *DetailCommand) Synopsis() string {
	return "Show a table"
}

func (c *DetailCommand) Help() string {
	return `Usage: kbc tables detail [options] <table-id>` +
		c.Flags().Help()
}

func (c *DetailCommand) Flags() *base.FlagSet {
	return c.NewFlagSet("tables detail")
}

func (c *DetailCommand) Run(args []string) int {
	f := c.Flags()
	if err := c.Parse(f, args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		return c.Error(errors.New("exactly one table id is required"))
	}

	client, err := c.Client()
	if err != nil {
		return c.Error(err)
	}
	ctx, cancel := c.Context()
	defer cancel()

	table, err := client.Tables.Detail(ctx, f.Arg(0))
	if err != nil {
		return c.Error(err)
	}
	return c.Output(table, tableTable([]storage.Table{*table}))
}

type CreateCommand struct {
	*base.Command
	csv csvFlags

	flagPrimaryKey string
}

func (c *CreateCommand) Synopsis() string {
	return "Create a table from a CSV file"
}

func (c *CreateCommand) Help() string {
	return `Usage: kbc tables create [options] <bucket-id> <name> <csv-file>

  Upload a CSV file and create a table from it. Waits for the import job.` +
		c.Flags().Help()
}

func (c *CreateCommand) Flags() *base.FlagSet {
	f := c.NewFlagSet("tables create")
	c.csv.register(f)
	f.StringVar(&c.flagPrimaryKey, "primary-key", "", "Comma separated primary key columns.")
	return f
}

func (c *CreateCommand) Run(args []string) int {
	f := c.Flags()
	if err := c.Parse(f, args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 3 {
		return c.Error(errors.New("bucket id, table name and csv file are required"))
	}

	client, err := c.Client()
	if err != nil {
		return c.Error(err)
	}
	ctx, cancel := c.Context()
	defer cancel()

	tableID, err := client.Tables.Create(ctx, f.Arg(0), f.Arg(1), f.Arg(2), c.csv.options(), splitList(c.flagPrimaryKey)...)
	if err != nil {
		return c.Error(err)
	}
	return c.Output(map[string]string{"id": tableID}, &base.Table{
		Header: []string{"ID"},
		Rows:   [][]string{{tableID}},
	})
}

type LoadCommand struct {
	*base.Command
	csv csvFlags

	flagIncremental    bool
	flagWithoutHeaders bool
	flagColumns        string
}

func (c *LoadCommand) Synopsis() string {
	return "Load a CSV file into a table"
}

func (c *LoadCommand) Help() string {
	return `Usage: kbc tables load [options] <table-id> <csv-file>

  Upload a CSV file and import it into an existing table. Waits for the
  import job.` +
		c.Flags().Help()
}

func (c *LoadCommand) Flags() *base.FlagSet {
	f := c.NewFlagSet("tables load")
	c.csv.register(f)
	f.BoolVar(&c.flagIncremental, "incremental", false, "Append to the table instead of replacing it.")
	f.BoolVar(&c.flagWithoutHeaders, "without-headers", false, "The CSV file has no header row.")
	f.StringVar(&c.flagColumns, "columns", "", "Comma separated column names of the CSV file.")
	return f
}

func (c *LoadCommand) Run(args []string) int {
	f := c.Flags()
	if err := c.Parse(f, args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 2 {
		return c.Error(errors.New("table id and csv file are required"))
	}

	client, err := c.Client()
	if err != nil {
		return c.Error(err)
	}
	ctx, cancel := c.Context()
	defer cancel()

	results, err := client.Tables.Load(ctx, f.Arg(0), f.Arg(1), storage.LoadOptions{
		CSV:            c.csv.options(),
		Incremental:    c.flagIncremental,
		WithoutHeaders: c.flagWithoutHeaders,
		Columns:        splitList(c.flagColumns),
	})
	if err != nil {
		return c.Error(err)
	}
	return c.Output(results, nil)
}

type ExportCommand struct {
	*base.Command

	flagColumns string
	flagLimit   int
	flagGzip    bool
}

func (c *ExportCommand) Synopsis() string {
	return "Export a table to a local file"
}

func (c *ExportCommand) Help() string {
	return `Usage: kbc tables export [options] <table-id> <directory>

  Export a table and download the result into directory.` +
		c.Flags().Help()
}

func (c *ExportCommand) Flags() *base.FlagSet {
	f := c.NewFlagSet("tables export")
	f.StringVar(&c.flagColumns, "columns", "", "Comma separated columns to export.")
	f.IntVar(&c.flagLimit, "limit", 0, "Maximum number of rows. 0 exports all rows.")
	f.BoolVar(&c.flagGzip, "gzip", false, "Compress the exported file.")
	return f
}

func (c *ExportCommand) Run(args []string) int {
	f := c.Flags()
	if err := c.Parse(f, args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 2 {
		return c.Error(errors.New("table id and directory are required"))
	}

	client, err := c.Client()
	if err != nil {
		return c.Error(err)
	}
	ctx, cancel := c.Context()
	defer cancel()

	path, err := client.Tables.ExportToFile(ctx, f.Arg(0), f.Arg(1), storage.ExportOptions{
		Columns: splitList(c.flagColumns),
		Limit:   c.flagLimit,
		Gzip:    c.flagGzip,
	})
	if err != nil {
		return c.Error(err)
	}
	c.UI.Info(fmt.Sprintf("Table %s exported to %s", f.Arg(0), path))
	return 0
}

type PreviewCommand struct {
	*base.Command

	flagLimit   int
	flagColumns string
}

func (c *PreviewCommand) Synopsis() string {
	return "Print the first rows of a table"
}

func (c *PreviewCommand) Help() string {
	return `Usage: kbc tables preview [options] <table-id>

  Print up to -limit rows of a table as CSV.` +
		c.Flags().Help()
}

func (c *PreviewCommand) Flags() *base.FlagSet {
	f := c.NewFlagSet("tables preview")
	f.IntVar(&c.flagLimit, "limit", 100, "Maximum number of rows.")
	f.StringVar(&c.flagColumns, "columns", "", "Comma separated columns to show.")
	return f
}

func (c *PreviewCommand) Run(args []string) int {
	f := c.Flags()
	if err := c.Parse(f, args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		return c.Error(errors.New("exactly one table id is required"))
	}

	client, err := c.Client()
	if err != nil {
		return c.Error(err)
	}
	ctx, cancel := c.Context()
	defer cancel()

	csv, err := client.Tables.Preview(ctx, f.Arg(0), storage.PreviewOptions{
		Limit:   c.flagLimit,
		Columns: splitList(c.flagColumns),
	})
	if err != nil {
		return c.Error(err)
	}
	c.UI.Output(strings.TrimRight(csv, "\n"))
	return 0
}
