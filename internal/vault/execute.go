package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/congo-pay/vault/internal/ledger"
	"github.com/congo-pay/vault/internal/settlement"
)

// Every check of a variant runs before its first ledger write.

func (m DepositNative) execute(ctx context.Context, r *request) (Response, error) {
	if err := r.validBeneficiary(m.Beneficiary); err != nil {
		return Response{}, err
	}
	if len(r.info.Funds) == 0 {
		return Response{}, ErrRequiresFunds
	}
	for _, coin := range r.info.Funds {
		if err := requireNonZero(coin.Amount); err != nil {
			return Response{}, fmt.Errorf("%w: %s", err, coin.Denom)
		}
		if err := r.requireRegistered(ctx, coin.Denom, ErrCurrencyNotAccepted); err != nil {
			return Response{}, err
		}
	}

	funds := make([]string, 0, len(r.info.Funds))
	for _, coin := range r.info.Funds {
		if err := ledger.CreditAvailable(ctx, r.st, m.Beneficiary, coin.Denom, coin.Amount); err != nil {
			return Response{}, err
		}
		funds = append(funds, coin.Amount.String()+coin.Denom)
	}
	return newResponse(m.Action()).
		with("beneficiary", m.Beneficiary).
		with("funds", strings.Join(funds, ",")), nil
}

func (m DepositCw20) execute(ctx context.Context, r *request) (Response, error) {
	// Only the allowance owner may have its tokens pulled.
	if r.info.Sender != m.Sender {
		return Response{}, ErrUnauthorized
	}
	if err := requireNonZero(m.Amount); err != nil {
		return Response{}, err
	}
	if err := r.requireRegistered(ctx, m.TokenAddress, ErrCw20NotAccepted); err != nil {
		return Response{}, err
	}
	if err := r.validBeneficiary(m.Beneficiary); err != nil {
		return Response{}, err
	}

	if err := ledger.CreditAvailable(ctx, r.st, m.Beneficiary, m.TokenAddress, m.Amount); err != nil {
		return Response{}, err
	}
	return newResponse(m.Action()).
		with("beneficiary", m.Beneficiary).
		with("token", m.TokenAddress).
		with("amount", m.Amount.String()).
		emit(settlement.NewTokenTransferFrom(m.TokenAddress, m.Sender, r.svc.custody, m.Amount)), nil
}

func (m Receive) execute(ctx context.Context, r *request) (Response, error) {
	token := r.info.Sender
	if err := r.requireRegistered(ctx, token, ErrCw20NotAccepted); err != nil {
		return Response{}, err
	}
	if err := requireNonZero(m.Amount); err != nil {
		return Response{}, err
	}
	var hook ReceiveHook
	if err := json.Unmarshal(m.Msg, &hook); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidHookMessage, err)
	}
	if err := r.validBeneficiary(hook.Beneficiary); err != nil {
		return Response{}, err
	}

	if err := ledger.CreditAvailable(ctx, r.st, hook.Beneficiary, token, m.Amount); err != nil {
		return Response{}, err
	}
	return newResponse(m.Action()).
		with("sender", m.Sender).
		with("beneficiary", hook.Beneficiary).
		with("token", token).
		with("amount", m.Amount.String()), nil
}

func (m WithdrawNative) execute(ctx context.Context, r *request) (Response, error) {
	if err := r.validBeneficiary(m.Beneficiary); err != nil {
		return Response{}, err
	}
	if err := requireNonZero(m.Amount); err != nil {
		return Response{}, err
	}
	if err := r.requireRegistered(ctx, m.Denom, ErrCurrencyNotAccepted); err != nil {
		return Response{}, err
	}

	if err := ledger.DebitAvailable(ctx, r.st, r.info.Sender, m.Denom, m.Amount); err != nil {
		return Response{}, err
	}
	return newResponse(m.Action()).
		with("owner", r.info.Sender).
		with("beneficiary", m.Beneficiary).
		with("amount", m.Amount.String()+m.Denom).
		emit(settlement.NewNativeTransfer(m.Beneficiary, m.Denom, m.Amount)), nil
}

func (m WithdrawCw20) execute(ctx context.Context, r *request) (Response, error) {
	if err := r.validBeneficiary(m.Beneficiary); err != nil {
		return Response{}, err
	}
	if err := requireNonZero(m.Amount); err != nil {
		return Response{}, err
	}
	if err := r.requireRegistered(ctx, m.TokenAddress, ErrCw20NotAccepted); err != nil {
		return Response{}, err
	}

	if err := ledger.DebitAvailable(ctx, r.st, r.info.Sender, m.TokenAddress, m.Amount); err != nil {
		return Response{}, err
	}
	return newResponse(m.Action()).
		with("owner", r.info.Sender).
		with("beneficiary", m.Beneficiary).
		with("token", m.TokenAddress).
		with("amount", m.Amount.String()).
		emit(settlement.NewTokenTransfer(m.TokenAddress, m.Beneficiary, m.Amount)), nil
}

func (m Lock) execute(ctx context.Context, r *request) (Response, error) {
	if err := r.handlerPreflight(ctx, m.CurrencyIdentifier, m.Amount.IsZero()); err != nil {
		return Response{}, err
	}
	if err := ledger.Lock(ctx, r.st, m.Account, m.CurrencyIdentifier, m.Amount); err != nil {
		return Response{}, err
	}
	return newResponse(m.Action()).
		with("handler", r.info.Sender).
		with("account", m.Account).
		with("amount", m.Amount.String()+m.CurrencyIdentifier), nil
}

func (m Unlock) execute(ctx context.Context, r *request) (Response, error) {
	if err := r.handlerPreflight(ctx, m.CurrencyIdentifier, m.Amount.IsZero()); err != nil {
		return Response{}, err
	}
	if err := ledger.Unlock(ctx, r.st, m.Account, m.CurrencyIdentifier, m.Amount); err != nil {
		return Response{}, err
	}
	return newResponse(m.Action()).
		with("handler", r.info.Sender).
		with("account", m.Account).
		with("amount", m.Amount.String()+m.CurrencyIdentifier), nil
}

func (m TransferLocked) execute(ctx context.Context, r *request) (Response, error) {
	if err := r.handlerPreflight(ctx, m.CurrencyIdentifier, m.Amount.IsZero()); err != nil {
		return Response{}, err
	}
	if err := r.validBeneficiary(m.Beneficiary); err != nil {
		return Response{}, err
	}
	if err := ledger.TransferLocked(ctx, r.st, m.Account, m.Beneficiary, m.CurrencyIdentifier, m.Amount); err != nil {
		return Response{}, err
	}
	return newResponse(m.Action()).
		with("handler", r.info.Sender).
		with("account", m.Account).
		with("beneficiary", m.Beneficiary).
		with("amount", m.Amount.String()+m.CurrencyIdentifier), nil
}

// handlerPreflight gates handler messages: role first, then amount and currency.
func (r *request) handlerPreflight(ctx context.Context, currency string, zero bool) error {
	if err := r.requireHandler(ctx); err != nil {
		return err
	}
	if zero {
		return ErrInvalidZeroAmount
	}
	return r.requireRegistered(ctx, currency, ErrCurrencyNotAccepted)
}

func (m Admin) execute(ctx context.Context, r *request) (Response, error) {
	if err := r.requireAdmin(ctx); err != nil {
		return Response{}, err
	}
	if m.Msg == nil {
		return Response{}, ErrUnimplemented
	}
	return m.Msg.apply(ctx, r)
}

func (m SetAuthorizationStatus) apply(ctx context.Context, r *request) (Response, error) {
	if m.Target == "" {
		return Response{}, fmt.Errorf("%w: empty target", ErrMalformedMessage)
	}
	if err := ledger.SetHandlerAuthorization(ctx, r.st, m.Target, m.NewStatus); err != nil {
		return Response{}, err
	}
	return newResponse(m.Action()).
		with("target", m.Target).
		with("authorized", fmt.Sprintf("%t", m.NewStatus)), nil
}

func (m AddValidCurrency) apply(ctx context.Context, r *request) (Response, error) {
	if m.CurrencyID == "" {
		return Response{}, fmt.Errorf("%w: empty currency id", ErrMalformedMessage)
	}
	if err := ledger.RegisterCurrency(ctx, r.st, m.CurrencyID); err != nil {
		return Response{}, err
	}
	return newResponse(m.Action()).with("currency_id", m.CurrencyID), nil
}

func (m UpdateAdmin) apply(ctx context.Context, r *request) (Response, error) {
	if err := r.svc.addresses.Validate(m.NewAdmin); err != nil {
		return Response{}, fmt.Errorf("new admin: %w", err)
	}
	if err := ledger.SetAdmin(ctx, r.st, m.NewAdmin); err != nil {
		return Response{}, err
	}
	return newResponse(m.Action()).
		with("previous", r.info.Sender).
		with("admin", m.NewAdmin), nil
}
