package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/congo-pay/vault/internal/amount"
)

var (
	// ErrAccountNotFound occurs when lock, unlock or transfer-locked target an
	// (owner, currency) pair that was never credited.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientAvailableFunds occurs when the available balance cannot
	// cover a lock or a debit.
	ErrInsufficientAvailableFunds = errors.New("insufficient available funds")

	// ErrInsufficientLockedFunds occurs when the locked balance cannot cover an
	// unlock or a transfer of locked funds.
	ErrInsufficientLockedFunds = errors.New("insufficient locked funds")

	// ErrNotInitialized indicates the administrator has not been set yet.
	ErrNotInitialized = errors.New("vault state not initialized")

	// ErrTxDone is returned when a finished transaction is used again.
	ErrTxDone = errors.New("transaction already finished")
)

// CurrencyAccount holds the balances of one owner in one currency.
type CurrencyAccount struct {
	Available amount.Uint128 `json:"available"`
	Locked    amount.Uint128 `json:"locked"`
}

// Total returns Available + Locked.
func (a CurrencyAccount) Total() (amount.Uint128, error) {
	return a.Available.Add(a.Locked)
}

// FundsError describes a rejected balance movement. It unwraps to one of
// ErrAccountNotFound, ErrInsufficientAvailableFunds or ErrInsufficientLockedFunds.
type FundsError struct {
	Kind      error
	Owner     string
	Currency  string
	Balance   amount.Uint128
	Requested amount.Uint128
}

func (e *FundsError) Error() string {
	if errors.Is(e.Kind, ErrAccountNotFound) {
		return fmt.Sprintf("%s: owner=%s currency=%s", e.Kind, e.Owner, e.Currency)
	}
	return fmt.Sprintf("%s: owner=%s currency=%s have=%s need=%s", e.Kind, e.Owner, e.Currency, e.Balance, e.Requested)
}

func (e *FundsError) Unwrap() error {
	return e.Kind
}

// State is the persisted vault state as seen from inside one request. Every
// ledger, registry and authorization operation receives it explicitly.
type State interface {
	Admin(ctx context.Context) (string, error)
	SetAdmin(ctx context.Context, admin string) error

	Currencies(ctx context.Context) ([]string, error)
	SetCurrencies(ctx context.Context, ids []string) error

	HandlerAuthorized(ctx context.Context, owner string) (bool, error)
	SetHandlerAuthorized(ctx context.Context, owner string, authorized bool) error

	// Account returns the stored account and whether it exists.
	Account(ctx context.Context, owner, currency string) (CurrencyAccount, bool, error)
	PutAccount(ctx context.Context, owner, currency string, account CurrencyAccount) error
}

// Tx is a State whose writes become visible only on Commit. Rollback after
// Commit is a no-op, so callers may always defer it.
type Tx interface {
	State
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store hands out transactions. Implementations serialize transactions so a
// request observes no concurrent writer.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}
