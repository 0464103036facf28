package signaturestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitwarden/akd-watch/internal/epochsig"
)

func TestMemoryRepositorySetGetHas(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	has, err := repo.Has(ctx, "ns1", 1)
	require.NoError(t, err)
	assert.False(t, has)

	_, err = repo.Get(ctx, "ns1", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	sig := epochsig.EpochSignature{Namespace: "ns1", Epoch: 1, Timestamp: time.Now()}
	require.NoError(t, repo.Set(ctx, sig))

	has, err = repo.Has(ctx, "ns1", 1)
	require.NoError(t, err)
	assert.True(t, has)

	got, err := repo.Get(ctx, "ns1", 1)
	require.NoError(t, err)
	assert.Equal(t, sig.Namespace, got.Namespace)
	assert.Equal(t, sig.Epoch, got.Epoch)
}

func TestMemoryRepositorySetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	sig := epochsig.EpochSignature{Namespace: "ns1", Epoch: 1}

	require.NoError(t, repo.Set(ctx, sig))
	require.NoError(t, repo.Set(ctx, sig))

	has, err := repo.Has(ctx, "ns1", 1)
	require.NoError(t, err)
	assert.True(t, has)
}
