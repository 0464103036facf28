package signingkey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateProducesVerifiableKey(t *testing.T) {
	now := time.Now()
	sk, err := generate(now, now.Add(time.Hour))
	require.NoError(t, err)

	vk := sk.Verifying()
	assert.Equal(t, sk.KeyID, vk.KeyID)
	assert.Equal(t, sk.NotBefore, vk.NotBefore)
	assert.False(t, sk.Expired(now))
	assert.True(t, sk.Expired(now.Add(2*time.Hour)))
}

func TestTwoGeneratedKeysHaveDistinctIDs(t *testing.T) {
	now := time.Now()
	a, err := generate(now, now.Add(time.Hour))
	require.NoError(t, err)
	b, err := generate(now, now.Add(time.Hour))
	require.NoError(t, err)

	assert.NotEqual(t, a.KeyID, b.KeyID)
}
