package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/typedstrings/cmd/typedstrings/commands"
	ferrors "git.home.luguber.info/inful/typedstrings/internal/foundation/errors"
	"git.home.luguber.info/inful/typedstrings/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Must(cli,
		kong.Name("typedstrings"),
		kong.Description("Generate strongly-typed C# enums for the strings of a Unity project."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := kctx.Run(&commands.Global{}, cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
	}
}
