package vault

import "errors"

var (
	// ErrUnauthorized is returned when the caller lacks the admin or handler role
	// a message requires.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidBeneficiary is returned for a beneficiary that fails address validation.
	ErrInvalidBeneficiary = errors.New("invalid beneficiary")

	// ErrCurrencyNotAccepted is returned for native denominations missing from the registry.
	ErrCurrencyNotAccepted = errors.New("currency not accepted")

	// ErrCw20NotAccepted is returned for token contracts missing from the registry.
	ErrCw20NotAccepted = errors.New("cw20 token not accepted")

	// ErrInvalidZeroAmount is returned when a movement of zero is requested.
	ErrInvalidZeroAmount = errors.New("invalid zero amount")

	// ErrRequiresFunds is returned by a native deposit carrying no funds.
	ErrRequiresFunds = errors.New("deposit requires funds")

	// ErrInvalidHookMessage is returned when a receive hook payload cannot be decoded.
	ErrInvalidHookMessage = errors.New("invalid receive hook message")

	// ErrUnimplemented is returned for admin messages the vault does not handle.
	ErrUnimplemented = errors.New("unimplemented admin message")

	// ErrUnknownMessage is returned for execute or query payloads with an unknown tag.
	ErrUnknownMessage = errors.New("unknown message")

	// ErrMalformedMessage is returned when a message body does not decode.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrUnattestedFunds is returned when funds are declared by a caller other
	// than the platform that moves native assets into custody.
	ErrUnattestedFunds = errors.New("funds must be attested by the platform")

	// ErrUnexpectedFunds is returned when funds accompany a message other than
	// deposit_native.
	ErrUnexpectedFunds = errors.New("funds only accompany deposit_native")
)
