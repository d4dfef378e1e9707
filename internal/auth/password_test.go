package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret!")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3rSecret!", hash)

	assert.True(t, VerifyPassword("Sup3rSecret!", hash))
	assert.False(t, VerifyPassword("sup3rsecret!", hash))
	assert.False(t, VerifyPassword("", hash))
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestHashPassword_SaltVaries(t *testing.T) {
	h1, err := HashPassword("same-input")
	require.NoError(t, err)
	h2, err := HashPassword("same-input")
	require.NoError(t, err)

	// Per-call salt: two hashes of the same input differ, both verify.
	assert.NotEqual(t, h1, h2)
	assert.True(t, VerifyPassword("same-input", h1))
	assert.True(t, VerifyPassword("same-input", h2))
}

func TestVerifyPassword_GarbageHash(t *testing.T) {
	assert.False(t, VerifyPassword("anything", "not-a-bcrypt-hash"))
}
