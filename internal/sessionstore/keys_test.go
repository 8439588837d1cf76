package sessionstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKeys(t *testing.T) {
	t.Parallel()

	hashKey, blockKey, err := DeriveKeys("secret")
	require.NoError(t, err)
	assert.Len(t, hashKey, 32)
	assert.Len(t, blockKey, 32)
	assert.NotEqual(t, hashKey, blockKey)

	again, _, err := DeriveKeys("secret")
	require.NoError(t, err)
	assert.Equal(t, hashKey, again)

	other, _, err := DeriveKeys("another")
	require.NoError(t, err)
	assert.NotEqual(t, hashKey, other)
}

func TestDeriveKeysEmptySecret(t *testing.T) {
	t.Parallel()

	_, _, err := DeriveKeys("")
	assert.Error(t, err)
}
