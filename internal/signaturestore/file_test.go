package signaturestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitwarden/akd-watch/internal/epochsig"
)

func TestFileRepositorySetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRepository(t.TempDir())

	var digest [32]byte
	digest[0] = 0xAB
	sig := epochsig.EpochSignature{
		Ciphersuite: epochsig.CiphersuiteProtobufEd25519,
		Namespace:   "ns1",
		Timestamp:   time.Now(),
		Epoch:       42,
		Digest:      digest,
		Signature:   []byte{1, 2, 3, 4},
	}

	require.NoError(t, repo.Set(ctx, sig))

	has, err := repo.Has(ctx, "ns1", 42)
	require.NoError(t, err)
	assert.True(t, has)

	got, err := repo.Get(ctx, "ns1", 42)
	require.NoError(t, err)
	assert.Equal(t, sig.Namespace, got.Namespace)
	assert.Equal(t, sig.Epoch, got.Epoch)
	assert.Equal(t, sig.Digest, got.Digest)
	assert.Equal(t, sig.Signature, got.Signature)
}

func TestFileRepositoryLayoutIsNamespaceEpochSig(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	repo := NewFileRepository(root)

	sig := epochsig.EpochSignature{
		Ciphersuite: epochsig.CiphersuiteProtobufEd25519,
		Namespace:   "ns1",
		Timestamp:   time.Now(),
		Epoch:       42,
		Signature:   []byte{1, 2, 3, 4},
	}
	require.NoError(t, repo.Set(ctx, sig))

	want := filepath.Join(root, "ns1", "00000000000000000042", "sig")
	_, err := os.Stat(want)
	assert.NoError(t, err, "expected signature file at %s", want)
}

func TestFileRepositoryGetMissing(t *testing.T) {
	repo := NewFileRepository(t.TempDir())
	_, err := repo.Get(context.Background(), "ns1", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
