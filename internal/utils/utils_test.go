package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef"

func TestSignAndParseJWT(t *testing.T) {
	tok, err := SignJWT(secret, "user-1", "provider", 60)
	require.NoError(t, err)

	claims, err := ParseJWT(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "provider", claims.Role)

	_, err = ParseJWT("another-secret-value", tok)
	assert.Error(t, err)
}

func TestParseJWTRejectsExpired(t *testing.T) {
	tok, err := SignJWT(secret, "user-1", "user", -1)
	require.NoError(t, err)

	_, err = ParseJWT(secret, tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseJWTRejectsNoneAlg(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"})
	raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseJWT(secret, raw)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestTokens(t *testing.T) {
	a, b := RandomToken(32), RandomToken(32)
	assert.NotEqual(t, a, b)
	assert.Len(t, HashToken(a), 64)
	assert.Equal(t, HashToken(a), HashToken(a))
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "hi there", PlainText(" <b>hi</b> there <script>alert(1)</script>"))
	assert.Equal(t, "Tom & Jerry", PlainText("Tom & Jerry"))
	assert.Empty(t, PlainText("<img src=x onerror=alert(1)>"))
}
