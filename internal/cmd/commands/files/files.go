package files

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
	return "Upload and download files"
}

func (c *Command) Help() string {
	return `Usage: kbc files <subcommand> [options] [args]

  This command groups subcommands for Storage API files.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}

type UploadCommand struct {
	*base.Command

	flagTags      string
	flagPublic    bool
	flagPermanent bool
	flagEncrypted bool
}

func (c *UploadCommand) Synopsis() string {
	return "Upload a local file"
}

func (c *UploadCommand) Help() string {
	return `Usage: kbc files upload [options] <path>

  Upload a local file to Storage and print the new file id.` +
		c.Flags().Help()
}

func (c *UploadCommand) Flags() *base.FlagSet {
	f := c.NewFlagSet("files upload")
	f.StringVar(&c.flagTags, "tags", "", "Comma separated file tags.")
	f.BoolVar(&c.flagPublic, "public", false, "Make the file public.")
	f.BoolVar(&c.flagPermanent, "permanent", false, "Keep the file instead of expiring it.")
	f.BoolVar(&c.flagEncrypted, "encrypted", true, "Encrypt the file at rest.")
	return f
}

func (c *UploadCommand) Run(args []string) int {
	f := c.Flags()
	if err := c.Parse(f, args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		return c.Error(errors.New("exactly one path is required"))
	}

	client, err := c.Client()
	if err != nil {
		return c.Error(err)
	}
	ctx, cancel := c.Context()
	defer cancel()

	var tags []string
	if c.flagTags != "" {
		tags = strings.Split(c.flagTags, ",")
	}
	fileID, err := client.Files.UploadFile(ctx, f.Arg(0), storage.UploadOptions{
		Tags:      tags,
		Public:    c.flagPublic,
		Permanent: c.flagPermanent,
		Encrypted: c.flagEncrypted,
	})
	if err != nil {
		return c.Error(err)
	}
	return c.Output(map[string]int64{"id": fileID}, &base.Table{
		Header: []string{"ID"},
		Rows:   [][]string{{strconv.FormatInt(fileID, 10)}},
	})
}

type DownloadCommand struct {
	*base.Command
}

func (c *DownloadCommand) Synopsis() string {
	return "Download a file"
}

func (c *DownloadCommand) Help() string {
	return `Usage: kbc files download [options] <file-id> <directory>

  Download a file into directory. Sliced files are joined into one file.` +
		c.Flags().Help()
}

func (c *DownloadCommand) Flags() *base.FlagSet {
	return c.NewFlagSet("files download")
}

func (c *DownloadCommand) Run(args []string) int {
	f := c.Flags()
	if err := c.Parse(f, args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 2 {
		return c.Error(errors.New("file id and directory are required"))
	}
	fileID, err := strconv.ParseInt(f.Arg(0), 10, 64)
	if err != nil {
		return c.Error(fmt.Errorf("invalid file id %q", f.Arg(0)))
	}

	client, err := c.Client()
	if err != nil {
		return c.Error(err)
	}
	ctx, cancel := c.Context()
	defer cancel()

	path, err := client.Files.Download(ctx, fileID, f.Arg(1))
	if err != nil {
		return c.Error(err)
	}
	c.UI.Info(fmt.Sprintf("File %d downloaded to %s", fileID, path))
	return 0
}
