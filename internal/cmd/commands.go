package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/wilsonkkyip/google-apis-go-client/internal/cmd/base"
	"github.com/wilsonkkyip/google-apis-go-client/internal/cmd/commands/call"
	"github.com/wilsonkkyip/google-apis-go-client/internal/cmd/commands/ls"
	"github.com/wilsonkkyip/google-apis-go-client/internal/cmd/commands/methods"
	verscmd "github.com/wilsonkkyip/google-apis-go-client/internal/cmd/commands/version"
	"github.com/wilsonkkyip/google-apis-go-client/internal/cmd/commands/walk"
)

// Commands is the mapping of all available CLI commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	newBase := func(name string) *base.Command {
		return &base.Command{UI: ui, Log: log.Named(name)}
	}

	Commands = map[string]cli.CommandFactory{
		"call": func() (cli.Command, error) {
			return &call.Command{Command: newBase("call")}, nil
		},
		"walk": func() (cli.Command, error) {
			return &walk.Command{Command: newBase("walk")}, nil
		},
		"ls": func() (cli.Command, error) {
			return &ls.Command{Command: newBase("ls")}, nil
		},
		"methods": func() (cli.Command, error) {
			return &methods.Command{Command: newBase("methods")}, nil
		},
		"version": func() (cli.Command, error) {
			return &verscmd.Command{Command: newBase("version")}, nil
		},
	}
}
