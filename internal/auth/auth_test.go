package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agendo-api/internal/model"
)

const secret = "test-secret"

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("testpass123")
	require.NoError(t, err)
	assert.NotEqual(t, "testpass123", hash)
	assert.True(t, CheckPassword(hash, "testpass123"))
	assert.False(t, CheckPassword(hash, "wrongpassword"))
}

func TestAccessTokenClaims(t *testing.T) {
	tok, err := MakeToken("user-1", model.RoleProvider, secret)
	require.NoError(t, err)

	claims, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, model.RoleProvider, claims.Role)

	// expiry is ~15 min from now
	diff := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, diff, 14*time.Minute)
	assert.LessOrEqual(t, diff, 15*time.Minute)
}

func TestParseTokenRejects(t *testing.T) {
	tok, err := MakeToken("uid", model.RoleClient, secret)
	require.NoError(t, err)

	_, err = ParseToken(tok, "wrong-secret")
	assert.Error(t, err, "wrong secret")

	_, err = ParseToken("not.a.token", secret)
	assert.Error(t, err, "garbage token")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "uid",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	raw, err := expired.SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = ParseToken(raw, secret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	// alg none must not pass
	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "uid"})
	raw, err = none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken(raw, secret)
	assert.Error(t, err)
}

func TestParseTokenRequiresUser(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	raw, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = ParseToken(raw, secret)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestRefreshTokenGeneration(t *testing.T) {
	raw, hash, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.Len(t, raw, 64) // 32 bytes hex
	assert.Len(t, hash, 64)
	assert.Equal(t, hash, HashRefreshToken(raw))

	raw2, _, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, raw, raw2)
}
