package signingkey

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryRotatesOnExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	clock := &fakeClock{t: now}

	repo, err := newMemoryRepository(time.Minute, clock.Now)
	require.NoError(t, err)

	first, err := repo.CurrentSigningKey(ctx)
	require.NoError(t, err)

	clock.t = now.Add(2 * time.Minute)
	second, err := repo.CurrentSigningKey(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first.KeyID, second.KeyID)

	vr := repo.VerifyingRepository()
	vk, ok, err := vr.Get(ctx, first.KeyID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, first.KeyID, vk.KeyID)

	vk, ok, err = vr.Get(ctx, second.KeyID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, second.KeyID, vk.KeyID)
}

func TestMemoryRepositoryForceRotation(t *testing.T) {
	ctx := context.Background()
	repo, err := newMemoryRepository(time.Hour, time.Now)
	require.NoError(t, err)

	before, err := repo.CurrentSigningKey(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.ForceRotation(ctx))

	after, err := repo.CurrentSigningKey(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before.KeyID, after.KeyID)
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }
