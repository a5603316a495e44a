package ledger

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/congo-pay/vault/internal/amount"
)

// setupPostgres connects to TEST_DATABASE_URL and resets the vault tables.
// The test is skipped when no database is configured.
func setupPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	store := NewPostgres(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE vault_config, vault_currencies, vault_handlers, vault_accounts`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return store
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	store := setupPostgres(t)
	ctx := context.Background()

	written, err := store.InitAdmin(ctx, "admin")
	if err != nil || !written {
		t.Fatalf("init admin: written=%v err=%v", written, err)
	}
	if written, _ := store.InitAdmin(ctx, "other"); written {
		t.Fatalf("second init must not overwrite the admin")
	}

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := RegisterCurrency(ctx, tx, "X"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := SetHandlerAuthorization(ctx, tx, "svc", true); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	big := amount.MustParse("340282366920938463463374607431768211455")
	if err := CreditAvailable(ctx, tx, "owner", "X", big); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := Lock(ctx, tx, "owner", "X", amount.New(1)); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	tx, _ = store.Begin(ctx)
	defer tx.Rollback(ctx) // nolint:errcheck
	if ok, _ := IsAdmin(ctx, tx, "admin"); !ok {
		t.Fatalf("expected admin persisted")
	}
	if ok, _ := IsAuthorizedHandler(ctx, tx, "svc"); !ok {
		t.Fatalf("expected handler persisted")
	}
	acct, err := Read(ctx, tx, "owner", "X")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if acct.Available.String() != "340282366920938463463374607431768211454" || acct.Locked.String() != "1" {
		t.Fatalf("unexpected account %+v", acct)
	}
}

func TestPostgresStore_RollbackDiscards(t *testing.T) {
	store := setupPostgres(t)
	ctx := context.Background()
	store.InitAdmin(ctx, "admin") // nolint:errcheck

	tx, _ := store.Begin(ctx)
	if err := CreditAvailable(ctx, tx, "owner", "X", amount.New(5)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if err := tx.Commit(ctx); !errors.Is(err, ErrTxDone) {
		t.Fatalf("expected ErrTxDone, got %v", err)
	}

	tx, _ = store.Begin(ctx)
	defer tx.Rollback(ctx) // nolint:errcheck
	if _, exists, _ := tx.Account(ctx, "owner", "X"); exists {
		t.Fatalf("expected rolled back account to be absent")
	}
}
