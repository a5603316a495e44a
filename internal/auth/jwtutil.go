package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

var b64 = base64.RawURLEncoding

// ErrInvalidToken is returned for tokens that are malformed or carry a bad signature.
var ErrInvalidToken = errors.New("invalid token")

// SignHS256 creates a compact JWT string using HS256.
func SignHS256(claims map[string]any, secret []byte) (string, error) {
	h, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	if err != nil {
		return "", err
	}
	c, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	unsigned := b64.EncodeToString(h) + "." + b64.EncodeToString(c)
	return unsigned + "." + b64.EncodeToString(mac(unsigned, secret)), nil
}

// ParseAndVerifyHS256 verifies the token signature and returns its claims.
func ParseAndVerifyHS256(token string, secret []byte) (map[string]any, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errors.Join(ErrInvalidToken, errors.New("expected three segments"))
	}
	header, err := b64.DecodeString(parts[0])
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, errors.New("invalid header encoding"))
	}
	var h struct {
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(header, &h); err != nil || h.Alg != "HS256" {
		return nil, errors.Join(ErrInvalidToken, errors.New("unsupported algorithm"))
	}
	sig, err := b64.DecodeString(parts[2])
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, errors.New("invalid signature encoding"))
	}
	if !hmac.Equal(sig, mac(parts[0]+"."+parts[1], secret)) {
		return nil, errors.Join(ErrInvalidToken, errors.New("signature mismatch"))
	}
	payload, err := b64.DecodeString(parts[1])
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, errors.New("invalid payload encoding"))
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, errors.Join(ErrInvalidToken, errors.New("invalid claims json"))
	}
	return claims, nil
}

func mac(unsigned string, secret []byte) []byte {
	m := hmac.New(sha256.New, secret)
	m.Write([]byte(unsigned))
	return m.Sum(nil)
}
