package address

import (
	"bytes"
	"errors"
	"testing"
)

func TestBase58Validate(t *testing.T) {
	v := NewBase58(0, 0)
	valid := Encode(bytes.Repeat([]byte{0x42}, 20))

	if err := v.Validate(valid); err != nil {
		t.Fatalf("expected %s to be valid: %v", valid, err)
	}

	cases := map[string]string{
		"empty":         "",
		"bad alphabet":  "0OIl" + valid,
		"too short":     Encode([]byte{1, 2, 3}),
		"too long":      Encode(bytes.Repeat([]byte{7}, 33)),
		"contains dash": "abc-def",
	}
	for name, addr := range cases {
		if err := v.Validate(addr); !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("%s: expected ErrInvalidAddress, got %v", name, err)
		}
	}
}

func TestValidatorFunc(t *testing.T) {
	called := ""
	var v Validator = ValidatorFunc(func(addr string) error {
		called = addr
		return nil
	})
	if err := v.Validate("x"); err != nil || called != "x" {
		t.Fatalf("expected func to be invoked, got %q %v", called, err)
	}
}
