// Package amount implements the unsigned 128-bit integer used for every
// balance and transfer amount. Values are opaque base units of a currency.
package amount

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

const maxDigits = 39

var (
	// ErrInvalidAmount is returned for input that is not a plain unsigned decimal integer.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrOverflow is returned when a result exceeds 2^128-1.
	ErrOverflow = errors.New("amount overflow")
	// ErrUnderflow is returned when a subtraction would go below zero.
	ErrUnderflow = errors.New("amount underflow")
)

// Uint128 is an unsigned 128-bit integer. The zero value is 0.
type Uint128 struct {
	n uint256.Int
}

// Zero is the zero amount.
var Zero Uint128

// New returns v as a Uint128.
func New(v uint64) Uint128 {
	var a Uint128
	a.n.SetUint64(v)
	return a
}

// Max returns 2^128-1.
func Max() Uint128 {
	var a Uint128
	a.n.SetAllOne()
	a.n.Rsh(&a.n, 128)
	return a
}

// Parse reads a base-10 string of digits. Signs, whitespace, fractions and
// exponents are rejected.
func Parse(s string) (Uint128, error) {
	if s == "" {
		return Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
	}
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	if len(trimmed) > maxDigits {
		return Zero, fmt.Errorf("%w: %q exceeds 128 bits", ErrInvalidAmount, s)
	}
	n, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if n.BitLen() > 128 {
		return Zero, fmt.Errorf("%w: %q exceeds 128 bits", ErrInvalidAmount, s)
	}
	return Uint128{n: *n}, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Uint128 {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns a+b or ErrOverflow.
func (a Uint128) Add(b Uint128) (Uint128, error) {
	var out Uint128
	if _, overflow := out.n.AddOverflow(&a.n, &b.n); overflow || out.n.BitLen() > 128 {
		return Zero, fmt.Errorf("%w: %s + %s", ErrOverflow, a, b)
	}
	return out, nil
}

// Sub returns a-b or ErrUnderflow.
func (a Uint128) Sub(b Uint128) (Uint128, error) {
	var out Uint128
	if _, underflow := out.n.SubOverflow(&a.n, &b.n); underflow {
		return Zero, fmt.Errorf("%w: %s - %s", ErrUnderflow, a, b)
	}
	return out, nil
}

// Cmp compares a and b and returns -1, 0 or +1.
func (a Uint128) Cmp(b Uint128) int {
	return a.n.Cmp(&b.n)
}

// LessThan reports whether a < b.
func (a Uint128) LessThan(b Uint128) bool {
	return a.n.Lt(&b.n)
}

// IsZero reports whether a == 0.
func (a Uint128) IsZero() bool {
	return a.n.IsZero()
}

// String returns the base-10 representation.
func (a Uint128) String() string {
	return a.n.Dec()
}

// MarshalText encodes the amount as a decimal string.
func (a Uint128) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses a decimal string.
func (a *Uint128) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// MarshalJSON encodes the amount as a quoted decimal string so no precision
// is lost in JSON consumers.
func (a Uint128) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a quoted decimal string.
func (a *Uint128) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: expected decimal string", ErrInvalidAmount)
	}
	return a.UnmarshalText([]byte(s))
}
