package ledger

import (
	"context"
	"fmt"

	"github.com/congo-pay/vault/internal/amount"
)

// CreditAvailable adds amt to the available balance of (owner, currency),
// creating the account when absent.
func CreditAvailable(ctx context.Context, st State, owner, currency string, amt amount.Uint128) error {
	acct, _, err := st.Account(ctx, owner, currency)
	if err != nil {
		return err
	}
	available, err := acct.Available.Add(amt)
	if err != nil {
		return fmt.Errorf("credit %s/%s: %w", owner, currency, err)
	}
	acct.Available = available
	return st.PutAccount(ctx, owner, currency, acct)
}

// DebitAvailable removes amt from the available balance. An absent account
// reads as zero.
func DebitAvailable(ctx context.Context, st State, owner, currency string, amt amount.Uint128) error {
	acct, exists, err := st.Account(ctx, owner, currency)
	if err != nil {
		return err
	}
	if acct.Available.LessThan(amt) {
		return &FundsError{Kind: ErrInsufficientAvailableFunds, Owner: owner, Currency: currency, Balance: acct.Available, Requested: amt}
	}
	if !exists {
		// only a zero debit reaches here; nothing to materialize
		return nil
	}
	available, err := acct.Available.Sub(amt)
	if err != nil {
		return fmt.Errorf("debit %s/%s: %w", owner, currency, err)
	}
	acct.Available = available
	return st.PutAccount(ctx, owner, currency, acct)
}

// Lock moves amt from available to locked.
func Lock(ctx context.Context, st State, owner, currency string, amt amount.Uint128) error {
	acct, exists, err := st.Account(ctx, owner, currency)
	if err != nil {
		return err
	}
	if !exists {
		return &FundsError{Kind: ErrAccountNotFound, Owner: owner, Currency: currency, Requested: amt}
	}
	if acct.Available.LessThan(amt) {
		return &FundsError{Kind: ErrInsufficientAvailableFunds, Owner: owner, Currency: currency, Balance: acct.Available, Requested: amt}
	}
	available, err := acct.Available.Sub(amt)
	if err != nil {
		return fmt.Errorf("lock %s/%s: %w", owner, currency, err)
	}
	locked, err := acct.Locked.Add(amt)
	if err != nil {
		return fmt.Errorf("lock %s/%s: %w", owner, currency, err)
	}
	return st.PutAccount(ctx, owner, currency, CurrencyAccount{Available: available, Locked: locked})
}

// Unlock moves amt from locked back to available.
func Unlock(ctx context.Context, st State, owner, currency string, amt amount.Uint128) error {
	acct, exists, err := st.Account(ctx, owner, currency)
	if err != nil {
		return err
	}
	if !exists {
		return &FundsError{Kind: ErrAccountNotFound, Owner: owner, Currency: currency, Requested: amt}
	}
	next, err := release(acct, owner, currency, amt)
	if err != nil {
		return err
	}
	return st.PutAccount(ctx, owner, currency, next)
}

// TransferLocked removes amt from the locked balance of from and credits it
// to the available balance of to. The recipient account is created when
// absent. Both sides are validated before either is written.
func TransferLocked(ctx context.Context, st State, from, to, currency string, amt amount.Uint128) error {
	sender, exists, err := st.Account(ctx, from, currency)
	if err != nil {
		return err
	}
	if !exists {
		return &FundsError{Kind: ErrAccountNotFound, Owner: from, Currency: currency, Requested: amt}
	}
	if from == to {
		next, err := release(sender, from, currency, amt)
		if err != nil {
			return err
		}
		return st.PutAccount(ctx, from, currency, next)
	}
	if sender.Locked.LessThan(amt) {
		return &FundsError{Kind: ErrInsufficientLockedFunds, Owner: from, Currency: currency, Balance: sender.Locked, Requested: amt}
	}
	recipient, _, err := st.Account(ctx, to, currency)
	if err != nil {
		return err
	}
	locked, err := sender.Locked.Sub(amt)
	if err != nil {
		return fmt.Errorf("transfer locked %s->%s/%s: %w", from, to, currency, err)
	}
	available, err := recipient.Available.Add(amt)
	if err != nil {
		return fmt.Errorf("transfer locked %s->%s/%s: %w", from, to, currency, err)
	}
	sender.Locked = locked
	recipient.Available = available
	if err := st.PutAccount(ctx, from, currency, sender); err != nil {
		return err
	}
	return st.PutAccount(ctx, to, currency, recipient)
}

// Read returns the account for (owner, currency), or the zero account.
func Read(ctx context.Context, st State, owner, currency string) (CurrencyAccount, error) {
	acct, _, err := st.Account(ctx, owner, currency)
	if err != nil {
		return CurrencyAccount{}, err
	}
	return acct, nil
}

// ReadAll returns one account per registered currency, in registry order.
func ReadAll(ctx context.Context, st State, owner string) ([]CurrencyAccount, error) {
	ids, err := st.Currencies(ctx)
	if err != nil {
		return nil, err
	}
	accounts := make([]CurrencyAccount, 0, len(ids))
	for _, id := range ids {
		acct, err := Read(ctx, st, owner, id)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

func release(acct CurrencyAccount, owner, currency string, amt amount.Uint128) (CurrencyAccount, error) {
	if acct.Locked.LessThan(amt) {
		return CurrencyAccount{}, &FundsError{Kind: ErrInsufficientLockedFunds, Owner: owner, Currency: currency, Balance: acct.Locked, Requested: amt}
	}
	locked, err := acct.Locked.Sub(amt)
	if err != nil {
		return CurrencyAccount{}, fmt.Errorf("unlock %s/%s: %w", owner, currency, err)
	}
	available, err := acct.Available.Add(amt)
	if err != nil {
		return CurrencyAccount{}, fmt.Errorf("unlock %s/%s: %w", owner, currency, err)
	}
	return CurrencyAccount{Available: available, Locked: locked}, nil
}
