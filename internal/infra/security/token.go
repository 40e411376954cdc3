// Package security verifies the bearer tokens issued by the identity provider.
package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("token: invalid")
	ErrNoSubject    = errors.New("token: missing subject")
)

// Claims identify a user by the token subject. Roles is optional.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// HMACTokens signs and verifies HS256 tokens with a shared secret.
type HMACTokens struct {
	Secret []byte
	Issuer string
	Now    func() time.Time
}

// Verify returns the claims of a valid token.
func (t HMACTokens) Verify(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if t.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.Issuer))
	}
	if t.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(t.Now))
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.Secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrNoSubject
	}
	return claims, nil
}

// Issue signs a token for uid valid for ttl. Used by tooling and tests; production tokens
// come from the identity provider.
func (t HMACTokens) Issue(uid string, ttl time.Duration, roles ...string) (string, error) {
	now := time.Now()
	if t.Now != nil {
		now = t.Now()
	}
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    t.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
}
