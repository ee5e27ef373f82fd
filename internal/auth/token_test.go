package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAPIToken(t *testing.T) {
	plaintext, hash, err := GenerateAPIToken()
	require.NoError(t, err)
	assert.Len(t, plaintext, 64)
	assert.Equal(t, HashToken(plaintext), hash)
	assert.NotEqual(t, plaintext, hash)

	other, _, err := GenerateAPIToken()
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, other)
}

func TestDecodeSessionSecret(t *testing.T) {
	configured, err := GenerateSessionSecret()
	require.NoError(t, err)

	key, err := DecodeSessionSecret(configured)
	require.NoError(t, err)
	assert.Len(t, key, 32)

	again, err := DecodeSessionSecret(configured)
	require.NoError(t, err)
	assert.Equal(t, key, again, "a configured secret is stable")

	generated, err := DecodeSessionSecret("")
	require.NoError(t, err)
	assert.Len(t, generated, 32)

	generated, err = DecodeSessionSecret("not-hex")
	require.NoError(t, err)
	assert.Len(t, generated, 32)
}
