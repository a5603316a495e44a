package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/congo-pay/vault/internal/amount"
)

func TestInMemoryStore_RollbackUndoesWrites(t *testing.T) {
	s := NewInMemory("admin")
	ctx := context.Background()

	if err := SeedAccount(s, "alice", "uatom", CurrencyAccount{Available: amount.New(10)}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := CreditAvailable(ctx, tx, "alice", "uatom", amount.New(5)); err != nil {
		t.Fatalf("credit existing: %v", err)
	}
	if err := CreditAvailable(ctx, tx, "bob", "uatom", amount.New(7)); err != nil {
		t.Fatalf("credit new: %v", err)
	}
	if err := RegisterCurrency(ctx, tx, "uatom"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := SetHandlerAuthorization(ctx, tx, "svc", true); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if err := SetAdmin(ctx, tx, "other"); err != nil {
		t.Fatalf("set admin: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	tx, err = s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin after rollback: %v", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	alice, _, _ := tx.Account(ctx, "alice", "uatom")
	if alice.Available.String() != "10" {
		t.Fatalf("expected alice available 10 after rollback, got %s", alice.Available)
	}
	if _, exists, _ := tx.Account(ctx, "bob", "uatom"); exists {
		t.Fatalf("expected bob account to be discarded")
	}
	if ids, _ := tx.Currencies(ctx); len(ids) != 0 {
		t.Fatalf("expected empty registry, got %v", ids)
	}
	if ok, _ := tx.HandlerAuthorized(ctx, "svc"); ok {
		t.Fatalf("expected handler authorization to be discarded")
	}
	if admin, _ := tx.Admin(ctx); admin != "admin" {
		t.Fatalf("expected admin restored, got %s", admin)
	}
}

func TestInMemoryStore_CommitThenRollbackIsNoop(t *testing.T) {
	s := NewInMemory("admin")
	ctx := context.Background()

	tx, _ := s.Begin(ctx)
	if err := CreditAvailable(ctx, tx, "alice", "uatom", amount.New(3)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback after commit: %v", err)
	}
	if err := tx.Commit(ctx); err != ErrTxDone {
		t.Fatalf("expected ErrTxDone on second commit, got %v", err)
	}
	if _, _, err := tx.Account(ctx, "alice", "uatom"); err != ErrTxDone {
		t.Fatalf("expected ErrTxDone on finished tx, got %v", err)
	}

	tx, _ = s.Begin(ctx)
	defer tx.Rollback(ctx) // nolint:errcheck
	acct, err := Read(ctx, tx, "alice", "uatom")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if acct.Available.String() != "3" {
		t.Fatalf("expected committed available 3, got %s", acct.Available)
	}
}

func TestInMemoryStore_UninitializedAdmin(t *testing.T) {
	s := NewInMemory("")
	ctx := context.Background()
	tx, _ := s.Begin(ctx)
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := IsAdmin(ctx, tx, "anyone"); err != ErrNotInitialized {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestInMemoryStore_ConcurrentTransactionsSerialize(t *testing.T) {
	s := NewInMemory("admin")
	ctx := context.Background()
	if err := SeedAccount(s, "alice", "uatom", CurrencyAccount{Locked: amount.New(100_000)}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx, err := s.Begin(ctx)
			if err != nil {
				t.Errorf("begin %d: %v", i, err)
				return
			}
			defer tx.Rollback(ctx) // nolint:errcheck
			if err := TransferLocked(ctx, tx, "alice", fmt.Sprintf("bob-%d", i), "uatom", amount.New(500)); err != nil {
				t.Errorf("transfer %d: %v", i, err)
				return
			}
			if err := tx.Commit(ctx); err != nil {
				t.Errorf("commit %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	tx, _ := s.Begin(ctx)
	defer tx.Rollback(ctx) // nolint:errcheck
	alice, _ := Read(ctx, tx, "alice", "uatom")
	if alice.Locked.String() != "95000" {
		t.Fatalf("expected alice locked 95000, got %s", alice.Locked)
	}
	total := alice.Locked
	for i := 0; i < workers; i++ {
		bob, _ := Read(ctx, tx, fmt.Sprintf("bob-%d", i), "uatom")
		total, _ = total.Add(bob.Available)
	}
	if total.String() != "100000" {
		t.Fatalf("ledger not conserved after concurrency, total=%s", total)
	}
}
