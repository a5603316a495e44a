package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/congo-pay/vault/internal/address"
	"github.com/congo-pay/vault/internal/amount"
	"github.com/congo-pay/vault/internal/ledger"
	"github.com/congo-pay/vault/internal/logging"
	"github.com/congo-pay/vault/internal/metrics"
	"github.com/congo-pay/vault/internal/settlement"
)

// Version is reported by the config query.
const Version = "0.3.0"

// Config carries the collaborators of a Service.
type Config struct {
	Store          ledger.Store
	Addresses      address.Validator
	Executor       settlement.Executor
	CustodyAddress string
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
}

// Service executes vault messages. Each Execute call is one ledger
// transaction: either every write and every intent of the request takes
// effect or none does.
type Service struct {
	store     ledger.Store
	addresses address.Validator
	executor  settlement.Executor
	custody   string
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewService validates cfg and fills in defaults for optional collaborators.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	if cfg.CustodyAddress == "" {
		return nil, fmt.Errorf("custody address is required")
	}
	if cfg.Addresses == nil {
		cfg.Addresses = address.NewBase58(0, 0)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Executor == nil {
		cfg.Executor = settlement.NewLoggerExecutor(cfg.Logger)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New(nil)
	}
	return &Service{
		store:     cfg.Store,
		addresses: cfg.Addresses,
		executor:  cfg.Executor,
		custody:   cfg.CustodyAddress,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}, nil
}

// Execute runs msg on behalf of info.Sender.
func (s *Service) Execute(ctx context.Context, info MessageInfo, msg ExecuteMsg) (res Response, err error) {
	if msg == nil {
		return Response{}, ErrUnknownMessage
	}
	action := msg.Action()
	start := time.Now()
	defer func() {
		s.metrics.RequestDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
		s.metrics.Requests.WithLabelValues(action, outcome(err)).Inc()
	}()

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	res, err = msg.execute(ctx, &request{svc: s, st: tx, info: info})
	if err != nil {
		s.logger.Warn("vault request rejected",
			slog.String("action", action),
			slog.String("sender", info.Sender),
			slog.String("error", err.Error()))
		return Response{}, err
	}

	stampIntents(info, res.Intents)

	// Intents are handed over before commit so a refused intent discards the
	// ledger writes that produced it. A retry under the same RequestKey after
	// a failed commit republishes the same IDs, which the executor drops.
	if len(res.Intents) > 0 {
		if err = s.executor.Execute(ctx, res.Intents); err != nil {
			s.logger.Error("settlement failed",
				slog.String("action", action),
				slog.String("sender", info.Sender),
				slog.String("error", err.Error()))
			return Response{}, fmt.Errorf("settle intents: %w", err)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		s.logger.Error("commit failed after settlement",
			slog.String("action", action),
			slog.String("request_key", info.RequestKey),
			slog.Any("intent_ids", intentIDs(res.Intents)),
			slog.String("error", err.Error()))
		return Response{}, fmt.Errorf("commit: %w", err)
	}

	for _, in := range res.Intents {
		s.metrics.Intents.WithLabelValues(string(in.Kind)).Inc()
	}
	s.logger.Info("vault request executed",
		slog.String("action", action),
		slog.String("sender", info.Sender),
		slog.Int("intents", len(res.Intents)))
	return res, nil
}

// stampIntents replaces the random intent IDs with ones derived from the
// caller and request key.
func stampIntents(info MessageInfo, intents []settlement.Intent) {
	if info.RequestKey == "" {
		return
	}
	scope := info.Sender + "\x00" + info.RequestKey
	for i := range intents {
		intents[i].ID = intents[i].DeriveID(scope, i)
	}
}

func intentIDs(intents []settlement.Intent) []string {
	ids := make([]string, len(intents))
	for i, in := range intents {
		ids[i] = in.ID
	}
	return ids
}

// Query answers a read-only message.
func (s *Service) Query(ctx context.Context, q QueryMsg) (any, error) {
	if q == nil {
		return nil, ErrUnknownMessage
	}
	s.metrics.Queries.WithLabelValues(q.Action()).Inc()
	return q.query(ctx, s)
}

// ConfigInfo describes the vault's administrative state.
type ConfigInfo struct {
	Admin      string   `json:"admin"`
	Currencies []string `json:"currencies"`
	Version    string   `json:"version"`
}

// Balance returns owner's account in currency, zero when never credited.
func (s *Service) Balance(ctx context.Context, owner, currency string) (ledger.CurrencyAccount, error) {
	var acct ledger.CurrencyAccount
	err := s.view(ctx, func(st ledger.State) error {
		var err error
		acct, err = ledger.Read(ctx, st, owner, currency)
		return err
	})
	return acct, err
}

// AllBalances returns owner's accounts for every registered currency in
// registry order.
func (s *Service) AllBalances(ctx context.Context, owner string) ([]ledger.CurrencyAccount, error) {
	var accts []ledger.CurrencyAccount
	err := s.view(ctx, func(st ledger.State) error {
		var err error
		accts, err = ledger.ReadAll(ctx, st, owner)
		return err
	})
	return accts, err
}

// Config returns the administrator and the accepted currencies.
func (s *Service) Config(ctx context.Context) (ConfigInfo, error) {
	info := ConfigInfo{Version: Version}
	err := s.view(ctx, func(st ledger.State) error {
		admin, err := st.Admin(ctx)
		if err != nil {
			return err
		}
		ids, err := ledger.Currencies(ctx, st)
		if err != nil {
			return err
		}
		info.Admin = admin
		info.Currencies = ids
		return nil
	})
	return info, err
}

// view runs fn in a transaction that is always rolled back.
func (s *Service) view(ctx context.Context, fn func(st ledger.State) error) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck
	return fn(tx)
}

func (q GetBalance) query(ctx context.Context, s *Service) (any, error) {
	return s.Balance(ctx, q.AccountOwner, q.CurrencyID)
}

func (q GetAllBalances) query(ctx context.Context, s *Service) (any, error) {
	return s.AllBalances(ctx, q.AccountOwner)
}

func (GetConfig) query(ctx context.Context, s *Service) (any, error) {
	return s.Config(ctx)
}

// request is the per-call context handed to message variants.
type request struct {
	svc  *Service
	st   ledger.State
	info MessageInfo
}

func (r *request) validBeneficiary(addr string) error {
	if err := r.svc.addresses.Validate(addr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBeneficiary, err)
	}
	return nil
}

func (r *request) requireRegistered(ctx context.Context, id string, notAccepted error) error {
	ok, err := ledger.IsRegistered(ctx, r.st, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", notAccepted, id)
	}
	return nil
}

func (r *request) requireHandler(ctx context.Context) error {
	ok, err := ledger.IsAuthorizedHandler(ctx, r.st, r.info.Sender)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

func (r *request) requireAdmin(ctx context.Context) error {
	ok, err := ledger.IsAdmin(ctx, r.st, r.info.Sender)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

func requireNonZero(amt amount.Uint128) error {
	if amt.IsZero() {
		return ErrInvalidZeroAmount
	}
	return nil
}

// outcome labels err for the request counter.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case IsRejection(err):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

// IsRejection reports whether err is the vault refusing a request, as opposed
// to an infrastructure failure.
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrUnauthorized, ErrInvalidBeneficiary, ErrCurrencyNotAccepted, ErrCw20NotAccepted,
		ErrInvalidZeroAmount, ErrRequiresFunds, ErrInvalidHookMessage, ErrUnimplemented,
		ErrUnknownMessage, ErrMalformedMessage, ErrUnattestedFunds, ErrUnexpectedFunds,
		amount.ErrInvalidAmount, amount.ErrOverflow, amount.ErrUnderflow, address.ErrInvalidAddress,
		ledger.ErrAccountNotFound, ledger.ErrInsufficientAvailableFunds, ledger.ErrInsufficientLockedFunds,
		settlement.ErrRejected,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
