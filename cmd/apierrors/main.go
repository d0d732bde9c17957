package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/commerceapi/apierrors"
	"git.home.luguber.info/inful/commerceapi/cmd/apierrors/commands"
	"git.home.luguber.info/inful/commerceapi/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("apierrors"),
		kong.Description("Inspect and exercise the commerce platform failure taxonomy."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	globals := &commands.Global{Logger: slog.Default()}
	if err := ctx.Run(globals, &cli); err != nil {
		apierrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
