package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService(JWTConfig{
		Secret:         "test-secret",
		Issuer:         "milltrack",
		AccessTokenTTL: 15 * time.Minute,
	})

	token, expiresAt, err := svc.GenerateAccessToken(
		"0198b2c0-0000-7000-8000-000000000001",
		"operator@mill.local",
		[]string{"operator"},
		[]string{"ledger:read", "ledger:write", "catalog:read"},
		false,
	)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	userCtx, err := svc.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, "0198b2c0-0000-7000-8000-000000000001", userCtx.UserID)
	assert.Equal(t, "operator@mill.local", userCtx.Email)
	assert.Equal(t, []string{"operator"}, userCtx.Roles)
	assert.Equal(t, []string{"ledger:read", "ledger:write", "catalog:read"}, userCtx.Permissions)
	assert.False(t, userCtx.IsAdmin)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService(JWTConfig{Secret: "right", Issuer: "milltrack", AccessTokenTTL: time.Minute})
	verifier := NewJWTService(JWTConfig{Secret: "wrong", Issuer: "milltrack", AccessTokenTTL: time.Minute})

	token, _, err := issuer.GenerateAccessToken("uid", "x@mill.local", nil, nil, false)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	svc := NewJWTService(JWTConfig{Secret: "s", Issuer: "milltrack", AccessTokenTTL: -time.Minute})

	token, _, err := svc.GenerateAccessToken("uid", "x@mill.local", nil, nil, true)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTRejectsGarbage(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("s"))

	_, err := svc.ValidateToken("not.a.jwt")
	assert.Error(t, err)
}
