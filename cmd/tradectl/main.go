package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&costsCmd{}, "journal")
	subcommands.Register(&statsCmd{}, "journal")
	subcommands.Register(&migrateCmd{}, "admin")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
