// Package version implements the "version" command.
package version

import (
	"github.com/wilsonkkyip/google-apis-go-client/internal/cmd/base"
	buildversion "github.com/wilsonkkyip/google-apis-go-client/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the CLI version"
}

func (c *Command) Help() string {
	return `Usage: gapi version

  Prints the version of this build.
`
}

func (c *Command) Run(args []string) int {
	c.UI.Output(buildversion.Version)
	return 0
}
