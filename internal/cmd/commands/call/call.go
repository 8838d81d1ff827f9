// Package call implements the "call" command: one catalog method,
// arbitrary key=value arguments, JSON out.
package call

import (
	"context"

	"github.com/wilsonkkyip/google-apis-go-client/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Execute one API method by reference"
}

func (c *Command) Help() string {
	return `Usage: gapi call [options] <service:version.resource.method> [key=value ...]

  Executes a single catalog method and prints the JSON response.
  Values that parse as JSON are sent structured; everything else is
  sent as a string.

  Example:

    gapi call drive:v3.files.get fileId=1a2b3c fields=id,name,mimeType

Options:

  -credentials=<path>  Credential file (API key, service account, or
                       OAuth token). Defaults to $` + base.EnvCredentials + `.
  -scopes=<list>       Comma-separated scopes overriding the defaults.
  -conventions=<path>  YAML conventions override file.
`
}

func (c *Command) Run(args []string) int {
	f := c.FlagSet("call")
	if err := f.Parse(args); err != nil {
		return 1
	}
	rest := f.Args()
	if len(rest) < 1 {
		c.UI.Error("a method reference is required")
		return 1
	}

	callArgs, err := base.ParseArgs(rest[1:])
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

	resp, err := client.Call(ctx, rest[0], callArgs)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	if err := c.PrintJSON(resp.Body); err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	return 0
}
