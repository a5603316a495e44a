// Command vaultctl performs operator tasks against a vault deployment:
// schema migration, administrator bootstrap and caller token issuance.
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
	subcommands.Register(&migrateCmd{}, "database")
	subcommands.Register(&initAdminCmd{}, "database")
	subcommands.Register(&tokenCmd{}, "credentials")
	subcommands.Register(&addressCmd{}, "credentials")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
