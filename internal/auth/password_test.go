package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	digest, salt, err := HashPassword("s3cret-passphrase")
	require.NoError(t, err)
	require.Len(t, salt, saltLength)
	require.Len(t, digest, keyLength)

	assert.True(t, VerifyPassword("s3cret-passphrase", digest, salt))
	assert.False(t, VerifyPassword("wrong-passphrase", digest, salt))
}

func TestHashPasswordFreshSaltPerCall(t *testing.T) {
	first, firstSalt, err := HashPassword("same-password")
	require.NoError(t, err)
	second, secondSalt, err := HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, firstSalt, secondSalt)
	assert.NotEqual(t, first, second)
}

func TestHashPasswordEmpty(t *testing.T) {
	_, _, err := HashPassword("")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestVerifyPasswordEmptyInputs(t *testing.T) {
	digest, salt, err := HashPassword("valid-password")
	require.NoError(t, err)

	assert.False(t, VerifyPassword("", digest, salt))
	assert.False(t, VerifyPassword("valid-password", nil, salt))
	assert.False(t, VerifyPassword("valid-password", digest, nil))
}
