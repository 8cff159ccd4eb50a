package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/trogers1052/trade-journal/internal/database"
)

type migrateCmd struct {
	db     string
	source string
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending database migrations" }
func (*migrateCmd) Usage() string {
	return `tradectl migrate -db <postgres url> [-source file://db/migrations]

  Applies every pending migration. Running it on an up-to-date database is a no-op.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.db, "db", os.Getenv("JOURNAL_DATABASE_URL"), "PostgreSQL connection URL")
	f.StringVar(&c.source, "source", "file://db/migrations", "migration source URL")
}

func (c *migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.db == "" {
		fmt.Fprintln(os.Stderr, "Error: -db is required.")
		return subcommands.ExitUsageError
	}
	if err := database.Migrate(c.db, c.source); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println("migrations applied")
	return subcommands.ExitSuccess
}
