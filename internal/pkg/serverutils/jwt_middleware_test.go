package serverutils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "2f5a9d5e-3a48-4c7a-9a15-6f0cf32cfc10",
		"email":   "owner@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParseUserClaims(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	claims, err := ParseUserClaims(signedToken(t, "unit-test-secret"))
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", claims["email"])
	assert.Equal(t, "2f5a9d5e-3a48-4c7a-9a15-6f0cf32cfc10", claims["user_id"])
}

func TestParseUserClaimsRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	_, err := ParseUserClaims(signedToken(t, "some-other-secret"))
	assert.Error(t, err)
}

func TestParseUserClaimsRejectsUnsignedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": "anyone",
	})
	unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseUserClaims(unsigned)
	assert.Error(t, err)
}
