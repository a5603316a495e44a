package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/congo-pay/vault/internal/infra"
	"github.com/congo-pay/vault/internal/ledger"
)

type migrateCmd struct {
	dsn string
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply the vault schema to Postgres" }
func (*migrateCmd) Usage() string {
	return `vaultctl migrate [-dsn <url>]

  Creates the vault tables when missing. The DSN defaults to $DATABASE_URL.
`
}
func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dsn, "dsn", os.Getenv("DATABASE_URL"), "Postgres connection URL.")
}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, closeFn, err := openStore(ctx, c.dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	if err := store.EnsureSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error applying schema: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println("schema applied")
	return subcommands.ExitSuccess
}

type initAdminCmd struct {
	dsn   string
	admin string
}

func (*initAdminCmd) Name() string     { return "init-admin" }
func (*initAdminCmd) Synopsis() string { return "set the vault administrator if none is set" }
func (*initAdminCmd) Usage() string {
	return `vaultctl init-admin -admin <address> [-dsn <url>]

  Records the initial administrator. An existing administrator is left
  untouched; use the update_admin message to hand the role over.
`
}
func (c *initAdminCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dsn, "dsn", os.Getenv("DATABASE_URL"), "Postgres connection URL.")
	f.StringVar(&c.admin, "admin", os.Getenv("ADMIN_ADDRESS"), "Administrator address.")
}

func (c *initAdminCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.admin == "" {
		fmt.Fprintln(os.Stderr, "Error: -admin is required.")
		return subcommands.ExitUsageError
	}
	store, closeFn, err := openStore(ctx, c.dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	if err := store.EnsureSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error applying schema: %v\n", err)
		return subcommands.ExitFailure
	}
	created, err := store.InitAdmin(ctx, c.admin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing admin: %v\n", err)
		return subcommands.ExitFailure
	}
	if !created {
		fmt.Println("administrator already set; nothing changed")
		return subcommands.ExitSuccess
	}
	fmt.Printf("administrator set to %s\n", c.admin)
	return subcommands.ExitSuccess
}

func openStore(ctx context.Context, dsn string) (*ledger.PostgresStore, func(), error) {
	if dsn == "" {
		return nil, nil, errors.New("-dsn or $DATABASE_URL is required")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := infra.NewLedgerPool(ctx, infra.LedgerPoolOptions{URL: dsn, AppName: "vaultctl", MaxConns: 2})
	if err != nil {
		return nil, nil, err
	}
	return ledger.NewPostgres(pool), pool.Close, nil
}
