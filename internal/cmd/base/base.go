// Package base carries the state and helpers shared by every CLI
// command: flag handling, credential resolution, and client assembly.
package base

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/wilsonkkyip/google-apis-go-client/pkg/auth"
	"github.com/wilsonkkyip/google-apis-go-client/pkg/discovery"
	"github.com/wilsonkkyip/google-apis-go-client/pkg/gapi"
)

// EnvCredentials names the environment variable consulted when the
// -credentials flag is not set.
const EnvCredentials = "GOOGLE_CREDENTIALS"

// Command is embedded by every CLI command.
type Command struct {
	UI  cli.Ui
	Log hclog.Logger

	flagCredentials string
	flagScopes      string
	flagConventions string
}

// FlagSet builds a flag set carrying the flags every command accepts.
// Command-specific flags are registered by the caller before parsing.
func (c *Command) FlagSet(name string) *flag.FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	f.SetOutput(newUIErrorWriter(c.UI))
	f.StringVar(&c.flagCredentials, "credentials", "",
		"Path to an API key, service account, or OAuth token file. Defaults to $"+EnvCredentials+".")
	f.StringVar(&c.flagScopes, "scopes", "",
		"Comma-separated OAuth scopes to request instead of the defaults.")
	f.StringVar(&c.flagConventions, "conventions", "",
		"Path to a YAML file overriding per-service pagination and batch conventions.")
	return f
}

// Client assembles a ready client: credential parsing, token exchange,
// and the embedded method catalog.
func (c *Command) Client(ctx context.Context) (*gapi.Client, error) {
	source := c.flagCredentials
	if source == "" {
		source = os.Getenv(EnvCredentials)
	}
	if source == "" {
		return nil, fmt.Errorf("no credentials: set -credentials or $%s", EnvCredentials)
	}

	cred, err := auth.ParseCredential(source)
	if err != nil {
		return nil, err
	}

	opts := []auth.ResolverOption{auth.WithLogger(c.Log.Named("auth"))}
	if c.flagScopes != "" {
		opts = append(opts, auth.WithScopes(strings.Split(c.flagScopes, ",")))
	}
	capability, err := auth.NewResolver(opts...).Resolve(ctx, cred)
	if err != nil {
		return nil, err
	}

	catalog, err := c.catalog()
	if err != nil {
		return nil, err
	}
	return gapi.NewClient(catalog, capability,
		gapi.WithClientLogger(c.Log.Named("client")))
}

func (c *Command) catalog() (*discovery.Catalog, error) {
	if c.flagConventions == "" {
		return discovery.EmbeddedCatalog()
	}
	f, err := os.Open(c.flagConventions)
	if err != nil {
		return nil, fmt.Errorf("failed to open conventions file: %w", err)
	}
	defer f.Close()

	overrides, err := discovery.LoadConventions(f)
	if err != nil {
		return nil, err
	}
	docs, err := discovery.EmbeddedDocuments()
	if err != nil {
		return nil, err
	}
	return discovery.NewCatalog(docs, discovery.DefaultConventions().Merge(overrides))
}

// ParseArgs turns key=value pairs into call arguments. Values that parse
// as JSON are passed structured; everything else stays a string, so
// q='name contains "x"' and pageSize=5 and body={"name":"f"} all work.
func ParseArgs(pairs []string) (gapi.Args, error) {
	args := make(gapi.Args, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q is not key=value", pair)
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			args[key] = decoded
			continue
		}
		args[key] = value
	}
	return args, nil
}

// PrintJSON writes v to the UI as indented JSON.
func (c *Command) PrintJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	c.UI.Output(string(data))
	return nil
}

// uiErrorWriter adapts a cli.Ui to io.Writer for flag.FlagSet output.
type uiErrorWriter struct {
	ui cli.Ui
}

func newUIErrorWriter(ui cli.Ui) *uiErrorWriter {
	return &uiErrorWriter{ui: ui}
}

func (w *uiErrorWriter) Write(p []byte) (int, error) {
	w.ui.Error(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
