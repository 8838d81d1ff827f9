// Package methods implements the "methods" command: enumerate or
// describe the methods the embedded catalog knows.
package methods

import (
	"fmt"
	"strings"

	"github.com/wilsonkkyip/google-apis-go-client/internal/cmd/base"
	"github.com/wilsonkkyip/google-apis-go-client/pkg/discovery"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "List or describe catalog methods"
}

func (c *Command) Help() string {
	return `Usage: gapi methods [<service:version.resource.method>]

  With no argument, lists every method reference in the catalog. With a
  reference, prints the method's verb, URL template, and parameters.
  Needs no credentials.
`
}

func (c *Command) Run(args []string) int {
	f := c.FlagSet("methods")
	if err := f.Parse(args); err != nil {
		return 1
	}
	rest := f.Args()

	catalog, err := discovery.EmbeddedCatalog()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	if len(rest) == 0 {
		for _, ref := range catalog.Refs() {
			c.UI.Output(ref)
		}
		return 0
	}

	schema, err := catalog.Describe(rest[0])
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	c.describe(schema)
	return 0
}

func (c *Command) describe(schema *discovery.MethodSchema) {
	c.UI.Output(fmt.Sprintf("%s %s%s", schema.HTTPVerb, schema.BaseURL, schema.PathTemplate))
	if schema.Paginated() {
		c.UI.Output(fmt.Sprintf("paginated: token=%s items=%s", schema.PageTokenParam, schema.ItemsField))
	}
	if schema.Batchable {
		c.UI.Output(fmt.Sprintf("batchable: path=%s limit=%d", schema.BatchPath, schema.BatchLimit))
	}
	c.UI.Output("parameters:")
	for _, p := range schema.SortedParameters() {
		attrs := []string{p.Location.String()}
		if p.Required {
			attrs = append(attrs, "required")
		}
		if p.Repeated {
			attrs = append(attrs, "repeated")
		}
		c.UI.Output(fmt.Sprintf("  %-28s %s", p.Name, strings.Join(attrs, ", ")))
	}
}
