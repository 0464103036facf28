package signingkey

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRepositoryPersistsAcrossReload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	repo, err := newFileRepository(dir, time.Hour, time.Now)
	require.NoError(t, err)

	first, err := repo.CurrentSigningKey(ctx)
	require.NoError(t, err)

	reopened, err := newFileRepository(dir, time.Hour, time.Now)
	require.NoError(t, err)

	current, err := reopened.CurrentSigningKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.KeyID, current.KeyID)
	assert.Equal(t, first.Secret, current.Secret)
}

func TestFileRepositoryRetiredKeysResolveAfterReload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	now := time.Now()
	clock := &fakeClock{t: now}

	repo, err := newFileRepository(dir, time.Minute, clock.Now)
	require.NoError(t, err)

	retired, err := repo.CurrentSigningKey(ctx)
	require.NoError(t, err)

	clock.t = now.Add(2 * time.Minute)
	_, err = repo.CurrentSigningKey(ctx)
	require.NoError(t, err)

	reopened, err := newFileRepository(dir, time.Minute, clock.Now)
	require.NoError(t, err)

	vk, ok, err := reopened.VerifyingRepository().Get(ctx, retired.KeyID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, retired.KeyID, vk.KeyID)
}

func TestFileRepositoryRotationFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	repo, err := newFileRepository(dir, time.Hour, time.Now)
	require.NoError(t, err)

	before, err := repo.CurrentSigningKey(ctx)
	require.NoError(t, err)

	repo.signingPath = "/nonexistent/dir/keys.json"
	err = repo.ForceRotation(ctx)
	require.Error(t, err)

	after, err2 := repo.CurrentSigningKey(ctx)
	require.NoError(t, err2)
	assert.Equal(t, before.KeyID, after.KeyID)
}
