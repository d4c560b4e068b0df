package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	token, err := svc.GenerateToken(42, true)
	require.NoError(t, err)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.True(t, claims.Admin)
	assert.Equal(t, "fetchhub", claims.Issuer)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("a", time.Hour).GenerateToken(1, false)
	require.NoError(t, err)

	_, err = NewJWTService("b", time.Hour).ParseToken(token)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	svc := NewJWTService("k", time.Minute)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := svc.GenerateToken(1, false)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ParseToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseRejectsMissingUser(t *testing.T) {
	svc := NewJWTService("k", time.Hour)
	token, err := svc.GenerateToken(0, false)
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNoSecret(t *testing.T) {
	svc := NewJWTService("", 0)
	_, err := svc.GenerateToken(1, false)
	assert.ErrorIs(t, err, ErrNoSecret)
	_, err = svc.ParseToken("x")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestParseRejectsOtherAlgorithm(t *testing.T) {
	claims := Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{Issuer: "fetchhub"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTService("k", time.Hour).ParseToken(token)
	assert.Error(t, err)
}
