package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/keboola/kbcstorage-go/internal/cmd/base"
	"github.com/keboola/kbcstorage-go/internal/cmd/commands/buckets"
	"github.com/keboola/kbcstorage-go/internal/cmd/commands/files"
	"github.com/keboola/kbcstorage-go/internal/cmd/commands/jobs"
	"github.com/keboola/kbcstorage-go/internal/cmd/commands/tables"
	"github.com/keboola/kbcstorage-go/internal/cmd/commands/token"
	"github.com/keboola/kbcstorage-go/internal/cmd/commands/version"
	"github.com/keboola/kbcstorage-go/internal/cmd/commands/workspaces"
)

// Commands is the mapping of all available kbc commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := base.NewCommand(log, ui)
	registerCommands(b)
}

func registerCommands(b *base.Command) {
	Commands = map[string]cli.CommandFactory{
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},

		"token": func() (cli.Command, error) {
			return &token.Command{Command: b}, nil
		},
		"token verify": func() (cli.Command, error) {
			return &token.VerifyCommand{Command: b}, nil
		},

		"buckets": func() (cli.Command, error) {
			return &buckets.Command{Command: b}, nil
		},
		"buckets list": func() (cli.Command, error) {
			return &buckets.ListCommand{Command: b}, nil
		},
		"buckets create": func() (cli.Command, error) {
			return &buckets.CreateCommand{Command: b}, nil
		},
		"buckets delete": func() (cli.Command, error) {
			return &buckets.DeleteCommand{Command: b}, nil
		},

		"tables": func() (cli.Command, error) {
			return &tables.Command{Command: b}, nil
		},
		"tables list": func() (cli.Command, error) {
			return &tables.ListCommand{Command: b}, nil
		},
		"tables detail": func() (cli.Command, error) {
			return &tables.DetailCommand{Command: b}, nil
		},
		"tables create": func() (cli.Command, error) {
			return &tables.CreateCommand{Command: b}, nil
		},
		"tables load": func() (cli.Command, error) {
			return &tables.LoadCommand{Command: b}, nil
		},
		"tables export": func() (cli.Command, error) {
			return &tables.ExportCommand{Command: b}, nil
		},
		"tables preview": func() (cli.Command, error) {
			return &tables.PreviewCommand{Command: b}, nil
		},

		"files": func() (cli.Command, error) {
			return &files.Command{Command: b}, nil
		},
		"files upload": func() (cli.Command, error) {
			return &files.UploadCommand{Command: b}, nil
		},
		"files download": func() (cli.Command, error) {
			return &files.DownloadCommand{Command: b}, nil
		},

		"jobs": func() (cli.Command, error) {
			return &jobs.Command{Command: b}, nil
		},
		"jobs detail": func() (cli.Command, error) {
			return &jobs.DetailCommand{Command: b}, nil
		},
		"jobs wait": func() (cli.Command, error) {
			return &jobs.WaitCommand{Command: b}, nil
		},

		"workspaces": func() (cli.Command, error) {
			return &workspaces.Command{Command: b}, nil
		},
		"workspaces list": func() (cli.Command, error) {
			return &workspaces.ListCommand{Command: b}, nil
		},
	}
}
