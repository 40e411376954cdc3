package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	tokens := HMACTokens{Secret: []byte("s3cret"), Issuer: "shareit"}
	raw, err := tokens.Issue("renter-1", time.Hour, "admin")
	require.NoError(t, err)

	claims, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "renter-1", claims.Subject)
	assert.Equal(t, []string{"admin"}, claims.Roles)
}

func TestVerifyRejects(t *testing.T) {
	tokens := HMACTokens{Secret: []byte("s3cret"), Issuer: "shareit"}

	expired, err := tokens.Issue("u", -time.Minute)
	require.NoError(t, err)
	_, err = tokens.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := HMACTokens{Secret: []byte("other"), Issuer: "shareit"}.Issue("u", time.Hour)
	require.NoError(t, err)
	_, err = tokens.Verify(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := HMACTokens{Secret: []byte("s3cret"), Issuer: "elsewhere"}.Issue("u", time.Hour)
	require.NoError(t, err)
	_, err = tokens.Verify(wrongIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)

	anonymous, err := tokens.Issue("", time.Hour)
	require.NoError(t, err)
	_, err = tokens.Verify(anonymous)
	assert.ErrorIs(t, err, ErrNoSubject)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Verify(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
