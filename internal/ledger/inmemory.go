package ledger

import (
	"context"
	"sync"
)

type accountKey struct {
	owner    string
	currency string
}

type inMemoryStore struct {
	// mu is held by the open transaction from Begin until Commit or Rollback.
	mu sync.Mutex

	admin      string
	currencies []string
	handlers   map[string]bool
	accounts   map[accountKey]CurrencyAccount
}

// NewInMemory creates a store kept in process memory with admin as the
// initial administrator. Transactions run one at a time; rolled back writes
// are undone from a per-transaction log.
func NewInMemory(admin string) Store {
	return &inMemoryStore{
		admin:    admin,
		handlers: make(map[string]bool),
		accounts: make(map[accountKey]CurrencyAccount),
	}
}

func (s *inMemoryStore) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &inMemoryTx{store: s}, nil
}

type inMemoryTx struct {
	store *inMemoryStore
	undo  []func()
	done  bool
}

func (t *inMemoryTx) Commit(_ context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.undo = nil
	t.store.mu.Unlock()
	return nil
}

func (t *inMemoryTx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.done = true
	t.undo = nil
	t.store.mu.Unlock()
	return nil
}

func (t *inMemoryTx) Admin(_ context.Context) (string, error) {
	if t.done {
		return "", ErrTxDone
	}
	if t.store.admin == "" {
		return "", ErrNotInitialized
	}
	return t.store.admin, nil
}

func (t *inMemoryTx) SetAdmin(_ context.Context, admin string) error {
	if t.done {
		return ErrTxDone
	}
	prev := t.store.admin
	t.undo = append(t.undo, func() { t.store.admin = prev })
	t.store.admin = admin
	return nil
}

func (t *inMemoryTx) Currencies(_ context.Context) ([]string, error) {
	if t.done {
		return nil, ErrTxDone
	}
	out := make([]string, len(t.store.currencies))
	copy(out, t.store.currencies)
	return out, nil
}

func (t *inMemoryTx) SetCurrencies(_ context.Context, ids []string) error {
	if t.done {
		return ErrTxDone
	}
	prev := t.store.currencies
	t.undo = append(t.undo, func() { t.store.currencies = prev })
	next := make([]string, len(ids))
	copy(next, ids)
	t.store.currencies = next
	return nil
}

func (t *inMemoryTx) HandlerAuthorized(_ context.Context, owner string) (bool, error) {
	if t.done {
		return false, ErrTxDone
	}
	return t.store.handlers[owner], nil
}

func (t *inMemoryTx) SetHandlerAuthorized(_ context.Context, owner string, authorized bool) error {
	if t.done {
		return ErrTxDone
	}
	prev, existed := t.store.handlers[owner]
	t.undo = append(t.undo, func() {
		if existed {
			t.store.handlers[owner] = prev
		} else {
			delete(t.store.handlers, owner)
		}
	})
	t.store.handlers[owner] = authorized
	return nil
}

func (t *inMemoryTx) Account(_ context.Context, owner, currency string) (CurrencyAccount, bool, error) {
	if t.done {
		return CurrencyAccount{}, false, ErrTxDone
	}
	acct, ok := t.store.accounts[accountKey{owner: owner, currency: currency}]
	return acct, ok, nil
}

func (t *inMemoryTx) PutAccount(_ context.Context, owner, currency string, account CurrencyAccount) error {
	if t.done {
		return ErrTxDone
	}
	key := accountKey{owner: owner, currency: currency}
	prev, existed := t.store.accounts[key]
	t.undo = append(t.undo, func() {
		if existed {
			t.store.accounts[key] = prev
		} else {
			delete(t.store.accounts, key)
		}
	})
	t.store.accounts[key] = account
	return nil
}
