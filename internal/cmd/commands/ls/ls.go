// Package ls implements the "ls" command: list the children of a Drive
// folder in a compact table.
package ls

import (
	"context"
	"fmt"

	"github.com/wilsonkkyip/google-apis-go-client/internal/cmd/base"
	"github.com/wilsonkkyip/google-apis-go-client/pkg/drive"
)

type Command struct {
	*base.Command

	flagLimit int
	flagJSON  bool
}

func (c *Command) Synopsis() string {
	return "List the files in a Drive folder"
}

func (c *Command) Help() string {
	return `Usage: gapi ls [options] <folder-id>

  Lists the direct, non-trashed children of a Drive folder.

Options:

  -limit=<n>           Stop after n files. 0 means list everything.
  -json                Print full metadata as JSON instead of a table.
  -credentials=<path>  Credential file. Defaults to $` + base.EnvCredentials + `.
  -scopes=<list>       Comma-separated scopes overriding the defaults.
  -conventions=<path>  YAML conventions override file.
`
}

func (c *Command) Run(args []string) int {
	f := c.FlagSet("ls")
	f.IntVar(&c.flagLimit, "limit", 0, "stop after this many files")
	f.BoolVar(&c.flagJSON, "json", false, "print JSON")
	if err := f.Parse(args); err != nil {
		return 1
	}
	rest := f.Args()
	if len(rest) != 1 {
		c.UI.Error("exactly one folder id is required")
		return 1
	}

	ctx := context.Background()
	client, err := c.Client(ctx)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	var opts []drive.FindOption
	if c.flagLimit > 0 {
		opts = append(opts, drive.WithLimit(c.flagLimit))
	}
	files, err := drive.New(client).Ls(ctx, rest[0], opts...)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	if c.flagJSON {
		if err := c.PrintJSON(files); err != nil {
			c.UI.Error(err.Error())
			return 1
		}
		return 0
	}
	for _, file := range files {
		c.UI.Output(fmt.Sprintf("%-36s  %-28s  %s", file.ID, file.MimeType, file.Name))
	}
	return 0
}
