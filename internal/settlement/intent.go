// Package settlement carries the asset-movement intents the vault emits and
// the executors that hand them to the platform that moves the assets.
package settlement

import (
	"encoding/json"
	"strconv"

	"github.com/google/uuid"

	"github.com/congo-pay/vault/internal/amount"
)

// Kind distinguishes intent payloads.
type Kind string

const (
	// KindNativeTransfer moves native currency out of custody.
	KindNativeTransfer Kind = "native_transfer"
	// KindTokenCall invokes a method on a token contract.
	KindTokenCall Kind = "token_call"
)

// Token contract methods used by the vault.
const (
	MethodTransfer     = "transfer"
	MethodTransferFrom = "transfer_from"
)

// Intent is one instruction for the host platform. Exactly one of Native and
// Token is set, matching Kind.
type Intent struct {
	ID     string          `json:"id"`
	Kind   Kind            `json:"kind"`
	Native *NativeTransfer `json:"native,omitempty"`
	Token  *TokenCall      `json:"token,omitempty"`
}

// NativeTransfer sends Amount of Denom to To.
type NativeTransfer struct {
	To     string         `json:"to"`
	Denom  string         `json:"denom"`
	Amount amount.Uint128 `json:"amount"`
}

// TokenCall executes Method on Contract with Args.
type TokenCall struct {
	Contract string            `json:"contract"`
	Method   string            `json:"method"`
	Args     map[string]string `json:"args"`
}

// NewNativeTransfer builds a native transfer intent.
func NewNativeTransfer(to, denom string, amt amount.Uint128) Intent {
	return Intent{
		ID:     uuid.NewString(),
		Kind:   KindNativeTransfer,
		Native: &NativeTransfer{To: to, Denom: denom, Amount: amt},
	}
}

// NewTokenTransfer builds a token call moving amt from custody to recipient.
func NewTokenTransfer(contract, recipient string, amt amount.Uint128) Intent {
	return Intent{
		ID:   uuid.NewString(),
		Kind: KindTokenCall,
		Token: &TokenCall{
			Contract: contract,
			Method:   MethodTransfer,
			Args:     map[string]string{"recipient": recipient, "amount": amt.String()},
		},
	}
}

// NewTokenTransferFrom builds a token call pulling amt from owner's allowance
// into recipient.
func NewTokenTransferFrom(contract, owner, recipient string, amt amount.Uint128) Intent {
	return Intent{
		ID:   uuid.NewString(),
		Kind: KindTokenCall,
		Token: &TokenCall{
			Contract: contract,
			Method:   MethodTransferFrom,
			Args:     map[string]string{"owner": owner, "recipient": recipient, "amount": amt.String()},
		},
	}
}

var intentNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("vault.intents"))

// DeriveID returns a stable ID for the index-th intent of the request
// identified by scope. The intent's payload is part of the name, so the same
// scope reused for a different movement yields a different ID.
func (in Intent) DeriveID(scope string, index int) string {
	in.ID = ""
	payload, err := json.Marshal(in)
	if err != nil {
		return uuid.NewString()
	}
	name := make([]byte, 0, len(scope)+len(payload)+8)
	name = append(name, scope...)
	name = append(name, 0)
	name = strconv.AppendInt(name, int64(index), 10)
	name = append(name, 0)
	name = append(name, payload...)
	return uuid.NewSHA1(intentNamespace, name).String()
}
