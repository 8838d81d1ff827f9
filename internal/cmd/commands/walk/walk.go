// Package walk implements the "walk" command: traverse a paginated
// method and stream its items as JSON lines.
package walk

import (
	"context"
	"encoding/json"

	"github.com/wilsonkkyip/google-apis-go-client/internal/cmd/base"
	"github.com/wilsonkkyip/google-apis-go-client/pkg/gapi"
)

type Command struct {
	*base.Command

	flagLimit    int
	flagPageSize int
}

func (c *Command) Synopsis() string {
	return "Stream the items of a paginated API method"
}

func (c *Command) Help() string {
	return `Usage: gapi walk [options] <service:version.resource.method> [key=value ...]

  Walks every page of a paginated method and prints one item per line
  as JSON.

  Example:

    gapi walk -limit=25 drive:v3.files.list q="name contains 'report'"

Options:

  -limit=<n>           Stop after n items. 0 means walk to the end.
  -page-size=<n>       Page size to request from the provider.
  -credentials=<path>  Credential file. Defaults to $` + base.EnvCredentials + `.
  -scopes=<list>       Comma-separated scopes overriding the defaults.
  -conventions=<path>  YAML conventions override file.
`
}

func (c *Command) Run(args []string) int {
	f := c.FlagSet("walk")
	f.IntVar(&c.flagLimit, "limit", 0, "stop after this many items")
	f.IntVar(&c.flagPageSize, "page-size", 0, "page size to request")
	if err := f.Parse(args); err != nil {
		return 1
	}
	rest := f.Args()
	if len(rest) < 1 {
		c.UI.Error("a method reference is required")
		return 1
	}

	walkArgs, err := base.ParseArgs(rest[1:])
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ctx := context.Background()
	client, err := c.Client(ctx)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	var opts []gapi.WalkOption
	if c.flagPageSize > 0 {
		opts = append(opts, gapi.WithPageSize(c.flagPageSize))
	}
	it, err := client.Walk(rest[0], walkArgs, opts...)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	emitted := 0
	for c.flagLimit == 0 || emitted < c.flagLimit {
		item, err := it.Next(ctx)
		if err == gapi.Done {
			break
		}
		if err != nil {
			c.UI.Error(err.Error())
			return 1
		}
		line, err := json.Marshal(item)
		if err != nil {
			c.UI.Error(err.Error())
			return 1
		}
		c.UI.Output(string(line))
		emitted++
	}
	return 0
}
