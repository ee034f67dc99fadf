package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := generateCode()
		require.Len(t, code, codeLength)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(codeChars, c), "unexpected character %q in code %s", c, code)
		}
		seen[code] = true
	}
	// 100 draws from a 36^6 space colliding down to a handful would
	// mean the generator is broken.
	assert.Greater(t, len(seen), 90)
}

func TestJWTRoundTrip(t *testing.T) {
	svc := NewUserService(nil, nil, "test-secret")

	token, err := svc.GenerateJWT("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestValidateJWTWrongSecret(t *testing.T) {
	svc := NewUserService(nil, nil, "test-secret")
	other := NewUserService(nil, nil, "other-secret")

	token, err := svc.GenerateJWT("user-123")
	require.NoError(t, err)

	_, err = other.ValidateJWT(token)
	assert.Error(t, err)
}

func TestValidateJWTGarbage(t *testing.T) {
	svc := NewUserService(nil, nil, "test-secret")

	_, err := svc.ValidateJWT("not-a-token")
	assert.Error(t, err)
}
