// Package address validates the syntax of account references before the
// vault credits or pays out to them.
package address

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// ErrInvalidAddress is returned for references that fail syntax validation.
var ErrInvalidAddress = errors.New("invalid address")

// Validator checks that an account reference is well formed.
type Validator interface {
	Validate(addr string) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(addr string) error

// Validate calls f(addr).
func (f ValidatorFunc) Validate(addr string) error {
	return f(addr)
}

// Base58 accepts base58-encoded references whose decoded payload length lies
// within [MinBytes, MaxBytes].
type Base58 struct {
	MinBytes int
	MaxBytes int
}

// NewBase58 returns a Base58 validator. Non-positive bounds default to 20 and 32 bytes.
func NewBase58(minBytes, maxBytes int) Base58 {
	if minBytes <= 0 {
		minBytes = 20
	}
	if maxBytes <= 0 {
		maxBytes = 32
	}
	return Base58{MinBytes: minBytes, MaxBytes: maxBytes}
}

// Validate implements Validator.
func (v Base58) Validate(addr string) error {
	if addr == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidAddress, addr, err)
	}
	if len(raw) < v.MinBytes || len(raw) > v.MaxBytes {
		return fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidAddress, addr, len(raw))
	}
	return nil
}

// Encode renders raw bytes as a base58 reference. Used by tooling and tests to
// mint well-formed addresses.
func Encode(raw []byte) string {
	return base58.Encode(raw)
}
