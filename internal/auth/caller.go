package auth

import (
	"errors"
	"time"
)

// ErrTokenExpired is returned for tokens past their exp claim.
var ErrTokenExpired = errors.New("token expired")

// IssueCallerToken signs a token naming subject as the vault caller. A zero
// ttl issues a token without expiry.
func IssueCallerToken(subject string, ttl time.Duration, secret []byte) (string, error) {
	if subject == "" {
		return "", errors.New("subject is required")
	}
	now := time.Now()
	claims := map[string]any{
		"sub": subject,
		"iat": now.Unix(),
	}
	if ttl > 0 {
		claims["exp"] = now.Add(ttl).Unix()
	}
	return SignHS256(claims, secret)
}

// VerifyCallerToken checks token and returns its subject.
func VerifyCallerToken(token string, secret []byte, now time.Time) (string, error) {
	claims, err := ParseAndVerifyHS256(token, secret)
	if err != nil {
		return "", err
	}
	if exp, ok := claims["exp"].(float64); ok && now.Unix() >= int64(exp) {
		return "", ErrTokenExpired
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.Join(ErrInvalidToken, errors.New("missing subject"))
	}
	return sub, nil
}
