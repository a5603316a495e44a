// Package vault orchestrates custody requests: it authorizes and validates
// each message, applies it to the ledger inside one transaction and hands the
// resulting asset-movement intents to the settlement executor.
package vault

import (
	"context"
	"encoding/json"

	"github.com/congo-pay/vault/internal/amount"
	"github.com/congo-pay/vault/internal/settlement"
)

// MessageInfo identifies the caller of a request and the native funds the
// platform has already moved into custody on its behalf. RequestKey, when
// set, names the request across retries; intents of a request carrying the
// same key and payload get the same IDs.
type MessageInfo struct {
	Sender     string
	Funds      []Coin
	RequestKey string
}

// Coin is an amount of one native denomination.
type Coin struct {
	Denom  string         `json:"denom"`
	Amount amount.Uint128 `json:"amount"`
}

// Attribute is a key/value pair describing an executed request.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Response is the outcome of an executed request.
type Response struct {
	Action     string              `json:"action"`
	Attributes []Attribute         `json:"attributes"`
	Intents    []settlement.Intent `json:"intents"`
}

func newResponse(action string) Response {
	return Response{Action: action, Attributes: []Attribute{}, Intents: []settlement.Intent{}}
}

func (r Response) with(key, value string) Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

func (r Response) emit(in settlement.Intent) Response {
	r.Intents = append(r.Intents, in)
	return r
}

// ExecuteMsg is a state-changing request. The set of implementations is
// closed: each variant below provides execute.
type ExecuteMsg interface {
	// Action is the message's wire tag.
	Action() string
	execute(ctx context.Context, r *request) (Response, error)
}

// DepositNative credits the native funds attached to the request to Beneficiary.
type DepositNative struct {
	Beneficiary string `json:"beneficiary"`
}

// DepositCw20 credits Beneficiary and pulls Amount of TokenAddress from
// Sender's allowance into custody.
type DepositCw20 struct {
	Sender       string         `json:"sender"`
	Beneficiary  string         `json:"beneficiary"`
	TokenAddress string         `json:"token_address"`
	Amount       amount.Uint128 `json:"amount"`
}

// Receive is the token contract's notification that Amount was pushed into
// custody by Sender. Msg carries a ReceiveHook.
type Receive struct {
	Sender string         `json:"sender"`
	Amount amount.Uint128 `json:"amount"`
	Msg    []byte         `json:"msg"`
}

// ReceiveHook is the payload embedded in Receive.Msg.
type ReceiveHook struct {
	Beneficiary string `json:"beneficiary"`
}

// WithdrawNative pays the caller's available balance out to Beneficiary.
type WithdrawNative struct {
	Beneficiary string         `json:"beneficiary"`
	Denom       string         `json:"denom"`
	Amount      amount.Uint128 `json:"amount"`
}

// WithdrawCw20 pays the caller's available token balance out to Beneficiary.
type WithdrawCw20 struct {
	Beneficiary  string         `json:"beneficiary"`
	TokenAddress string         `json:"token_address"`
	Amount       amount.Uint128 `json:"amount"`
}

// Lock reserves Amount of Account's available balance. Handler only.
type Lock struct {
	Account            string         `json:"account"`
	CurrencyIdentifier string         `json:"currency_identifier"`
	Amount             amount.Uint128 `json:"amount"`
}

// Unlock releases Amount of Account's locked balance. Handler only.
type Unlock struct {
	Account            string         `json:"account"`
	CurrencyIdentifier string         `json:"currency_identifier"`
	Amount             amount.Uint128 `json:"amount"`
}

// TransferLocked moves Amount of Account's locked balance into Beneficiary's
// available balance. Handler only.
type TransferLocked struct {
	Account            string         `json:"account"`
	CurrencyIdentifier string         `json:"currency_identifier"`
	Amount             amount.Uint128 `json:"amount"`
	Beneficiary        string         `json:"beneficiary"`
}

// Admin wraps an administrator-only message.
type Admin struct {
	Msg AdminMsg
}

func (DepositNative) Action() string  { return "deposit_native" }
func (DepositCw20) Action() string    { return "deposit_cw20" }
func (Receive) Action() string        { return "receive" }
func (WithdrawNative) Action() string { return "withdraw_native" }
func (WithdrawCw20) Action() string   { return "withdraw_cw20" }
func (Lock) Action() string           { return "lock" }
func (Unlock) Action() string         { return "unlock" }
func (TransferLocked) Action() string { return "transfer_locked" }
func (Admin) Action() string          { return "admin" }

// MarshalJSON encodes the wrapped admin message under its tag.
func (a Admin) MarshalJSON() ([]byte, error) {
	if a.Msg == nil {
		return nil, ErrUnimplemented
	}
	return json.Marshal(map[string]AdminMsg{a.Msg.Action(): a.Msg})
}

// UnmarshalJSON decodes a tagged admin message.
func (a *Admin) UnmarshalJSON(data []byte) error {
	msg, err := DecodeAdminMsg(data)
	if err != nil {
		return err
	}
	a.Msg = msg
	return nil
}

// AdminMsg is an administrator-only request. The set of implementations is closed.
type AdminMsg interface {
	Action() string
	apply(ctx context.Context, r *request) (Response, error)
}

// SetAuthorizationStatus grants or revokes the handler role of Target.
type SetAuthorizationStatus struct {
	Target    string `json:"target"`
	NewStatus bool   `json:"new_status"`
}

// AddValidCurrency registers CurrencyID.
type AddValidCurrency struct {
	CurrencyID string `json:"currency_id"`
}

// UpdateAdmin hands the administrator role to NewAdmin.
type UpdateAdmin struct {
	NewAdmin string `json:"new_admin"`
}

func (SetAuthorizationStatus) Action() string { return "set_authorization_status" }
func (AddValidCurrency) Action() string       { return "add_valid_currency" }
func (UpdateAdmin) Action() string            { return "update_admin" }

// QueryMsg is a read-only request. The set of implementations is closed.
type QueryMsg interface {
	Action() string
	query(ctx context.Context, s *Service) (any, error)
}

// GetBalance returns one account.
type GetBalance struct {
	AccountOwner string `json:"account_owner"`
	CurrencyID   string `json:"currency_id"`
}

// GetAllBalances returns one account per registered currency.
type GetAllBalances struct {
	AccountOwner string `json:"account_owner"`
}

// GetConfig returns the administrator and the accepted currencies.
type GetConfig struct{}

func (GetBalance) Action() string     { return "get_balance" }
func (GetAllBalances) Action() string { return "get_all_balances" }
func (GetConfig) Action() string      { return "get_config" }
