package infra

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerPoolOptions tune the pool behind the Postgres ledger store.
type LedgerPoolOptions struct {
	URL     string
	AppName string
	// MaxConns caps the pool. Ledger transactions serialize on one advisory
	// lock, so connections beyond a handful only queue on it.
	MaxConns int
	// LockTimeout bounds each statement, including the wait for the ledger
	// advisory lock. Zero leaves the server default.
	LockTimeout time.Duration
}

// NewLedgerPool opens the pool for the vault ledger and verifies connectivity.
func NewLedgerPool(ctx context.Context, opts LedgerPoolOptions) (*pgxpool.Pool, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("database url is required")
	}

	cfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = int32(opts.MaxConns)
	}
	params := cfg.ConnConfig.RuntimeParams
	if _, ok := params["application_name"]; !ok && opts.AppName != "" {
		params["application_name"] = opts.AppName
	}
	if opts.LockTimeout > 0 {
		params["statement_timeout"] = strconv.FormatInt(opts.LockTimeout.Milliseconds(), 10)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}
