package ledger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/congo-pay/vault/internal/amount"
)

// requestLockID keys the advisory lock that serializes vault transactions.
const requestLockID = 0x7661756c74

//go:embed schema/001_vault.sql
var schemaSQL string

// PostgresStore persists vault state in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgres constructs a Postgres-backed store.
func NewPostgres(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the vault tables when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL, pgx.QueryExecModeSimpleProtocol); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// InitAdmin records admin as the administrator unless one is already set.
// It reports whether the value was written.
func (s *PostgresStore) InitAdmin(ctx context.Context, admin string) (bool, error) {
	if admin == "" {
		return false, fmt.Errorf("admin is required")
	}
	tag, err := s.db.Exec(ctx, `INSERT INTO vault_config (id, admin) VALUES (TRUE, $1)
        ON CONFLICT (id) DO NOTHING`, admin)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Begin opens a transaction holding the vault-wide advisory lock.
func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(requestLockID)); err != nil {
		tx.Rollback(ctx) // nolint:errcheck
		return nil, fmt.Errorf("acquire vault lock: %w", err)
	}
	return &postgresTx{tx: tx}, nil
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) Commit(ctx context.Context) error {
	err := t.tx.Commit(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return ErrTxDone
	}
	return err
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func (t *postgresTx) Admin(ctx context.Context) (string, error) {
	var admin string
	if err := t.tx.QueryRow(ctx, `SELECT admin FROM vault_config WHERE id`).Scan(&admin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotInitialized
		}
		return "", err
	}
	return admin, nil
}

func (t *postgresTx) SetAdmin(ctx context.Context, admin string) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO vault_config (id, admin) VALUES (TRUE, $1)
        ON CONFLICT (id) DO UPDATE SET admin = EXCLUDED.admin`, admin)
	return err
}

func (t *postgresTx) Currencies(ctx context.Context) ([]string, error) {
	rows, err := t.tx.Query(ctx, `SELECT currency_id FROM vault_currencies ORDER BY position`)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (t *postgresTx) SetCurrencies(ctx context.Context, ids []string) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM vault_currencies`); err != nil {
		return err
	}
	for i, id := range ids {
		if _, err := t.tx.Exec(ctx, `INSERT INTO vault_currencies (currency_id, position) VALUES ($1, $2)`, id, i); err != nil {
			return err
		}
	}
	return nil
}

func (t *postgresTx) HandlerAuthorized(ctx context.Context, owner string) (bool, error) {
	var authorized bool
	if err := t.tx.QueryRow(ctx, `SELECT authorized FROM vault_handlers WHERE owner = $1`, owner).Scan(&authorized); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return authorized, nil
}

func (t *postgresTx) SetHandlerAuthorized(ctx context.Context, owner string, authorized bool) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO vault_handlers (owner, authorized) VALUES ($1, $2)
        ON CONFLICT (owner) DO UPDATE SET authorized = EXCLUDED.authorized`, owner, authorized)
	return err
}

func (t *postgresTx) Account(ctx context.Context, owner, currency string) (CurrencyAccount, bool, error) {
	const query = `SELECT available::text, locked::text FROM vault_accounts WHERE owner = $1 AND currency_id = $2`
	var available, locked string
	if err := t.tx.QueryRow(ctx, query, owner, currency).Scan(&available, &locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CurrencyAccount{}, false, nil
		}
		return CurrencyAccount{}, false, err
	}
	var acct CurrencyAccount
	var err error
	if acct.Available, err = amount.Parse(available); err != nil {
		return CurrencyAccount{}, false, fmt.Errorf("stored available %s/%s: %w", owner, currency, err)
	}
	if acct.Locked, err = amount.Parse(locked); err != nil {
		return CurrencyAccount{}, false, fmt.Errorf("stored locked %s/%s: %w", owner, currency, err)
	}
	return acct, true, nil
}

func (t *postgresTx) PutAccount(ctx context.Context, owner, currency string, account CurrencyAccount) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO vault_accounts (owner, currency_id, available, locked)
        VALUES ($1, $2, $3::numeric, $4::numeric)
        ON CONFLICT (owner, currency_id) DO UPDATE
        SET available = EXCLUDED.available, locked = EXCLUDED.locked, updated_at = NOW()`,
		owner, currency, account.Available.String(), account.Locked.String())
	return err
}
