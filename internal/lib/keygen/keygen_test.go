package keygen

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey(t *testing.T) {
	seen := make(map[string]struct{})

	for range 100 {
		key, err := NewKey()
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(key)
		require.NoError(t, err)
		assert.Len(t, raw, keyBytes)

		_, dup := seen[key]
		require.False(t, dup, "duplicate key generated")
		seen[key] = struct{}{}
	}
}

func TestHash(t *testing.T) {
	assert.Equal(t, "2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b", Hash("secret"))
	assert.Equal(t, Hash("k1"), Hash("k1"))
	assert.NotEqual(t, Hash("k1"), Hash("k2"))
}
