package ledger

import "context"

// SeedAccount is a test helper that writes an account directly, bypassing
// the balance operations. It commits immediately.
func SeedAccount(s Store, owner, currency string, account CurrencyAccount) error {
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck
	if err := tx.PutAccount(ctx, owner, currency, account); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
