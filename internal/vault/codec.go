package vault

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/congo-pay/vault/internal/amount"
)

var executeDecoders = map[string]func(json.RawMessage) (ExecuteMsg, error){
	"deposit_native":  decodeVariant[ExecuteMsg, DepositNative],
	"deposit_cw20":    decodeVariant[ExecuteMsg, DepositCw20],
	"receive":         decodeVariant[ExecuteMsg, Receive],
	"withdraw_native": decodeVariant[ExecuteMsg, WithdrawNative],
	"withdraw_cw20":   decodeVariant[ExecuteMsg, WithdrawCw20],
	"lock":            decodeVariant[ExecuteMsg, Lock],
	"unlock":          decodeVariant[ExecuteMsg, Unlock],
	"transfer_locked": decodeVariant[ExecuteMsg, TransferLocked],
	"admin":           decodeVariant[ExecuteMsg, Admin],
}

var adminDecoders = map[string]func(json.RawMessage) (AdminMsg, error){
	"set_authorization_status": decodeVariant[AdminMsg, SetAuthorizationStatus],
	"add_valid_currency":       decodeVariant[AdminMsg, AddValidCurrency],
	"update_admin":             decodeVariant[AdminMsg, UpdateAdmin],
}

var queryDecoders = map[string]func(json.RawMessage) (QueryMsg, error){
	"get_balance":      decodeVariant[QueryMsg, GetBalance],
	"get_all_balances": decodeVariant[QueryMsg, GetAllBalances],
	"get_config":       decodeVariant[QueryMsg, GetConfig],
}

// DecodeExecuteMsg decodes an externally tagged execute message such as
// {"lock":{"account":"...","currency_identifier":"...","amount":"10"}}.
func DecodeExecuteMsg(data []byte) (ExecuteMsg, error) {
	tag, body, err := splitTag(data)
	if err != nil {
		return nil, err
	}
	decode, ok := executeDecoders[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, tag)
	}
	return decode(body)
}

// DecodeAdminMsg decodes the body of an admin message. Unknown tags are
// reported as ErrUnimplemented.
func DecodeAdminMsg(data []byte) (AdminMsg, error) {
	tag, body, err := splitTag(data)
	if err != nil {
		return nil, err
	}
	decode, ok := adminDecoders[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnimplemented, tag)
	}
	return decode(body)
}

// DecodeQueryMsg decodes an externally tagged query message.
func DecodeQueryMsg(data []byte) (QueryMsg, error) {
	tag, body, err := splitTag(data)
	if err != nil {
		return nil, err
	}
	decode, ok := queryDecoders[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, tag)
	}
	return decode(body)
}

// EncodeExecuteMsg encodes msg in the same tagged form DecodeExecuteMsg reads.
func EncodeExecuteMsg(msg ExecuteMsg) ([]byte, error) {
	if msg == nil {
		return nil, ErrUnknownMessage
	}
	return json.Marshal(map[string]ExecuteMsg{msg.Action(): msg})
}

// EncodeQueryMsg encodes q in the same tagged form DecodeQueryMsg reads.
func EncodeQueryMsg(q QueryMsg) ([]byte, error) {
	if q == nil {
		return nil, ErrUnknownMessage
	}
	return json.Marshal(map[string]QueryMsg{q.Action(): q})
}

func splitTag(data []byte) (string, json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if len(envelope) != 1 {
		return "", nil, fmt.Errorf("%w: expected exactly one message tag, got %d", ErrMalformedMessage, len(envelope))
	}
	var tag string
	for k := range envelope {
		tag = k
	}
	return tag, envelope[tag], nil
}

func decodeVariant[I any, T any](body json.RawMessage) (I, error) {
	var v T
	var zero I
	if err := json.Unmarshal(body, &v); err != nil {
		// Amount and nested tag errors keep their own classification.
		if errors.Is(err, amount.ErrInvalidAmount) || errors.Is(err, ErrUnimplemented) ||
			errors.Is(err, ErrMalformedMessage) {
			return zero, err
		}
		return zero, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	msg, ok := any(v).(I)
	if !ok {
		return zero, fmt.Errorf("%w: %T", ErrUnknownMessage, v)
	}
	return msg, nil
}
