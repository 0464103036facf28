package auditor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitwarden/akd-watch/internal/akdclient"
	"github.com/bitwarden/akd-watch/internal/akdwatch"
	"github.com/bitwarden/akd-watch/internal/epochsig"
	"github.com/bitwarden/akd-watch/internal/namespacestore"
	"github.com/bitwarden/akd-watch/internal/signaturestore"
	"github.com/bitwarden/akd-watch/internal/signingkey"
)

// acceptingVerifier treats every proof as a valid extension of its anchor,
// the append-only primitive being out of this repository's scope.
type acceptingVerifier struct{}

func (acceptingVerifier) VerifyConsecutiveAppendOnly(context.Context, akdwatch.Configuration, akdwatch.Digest, akdclient.ProofBlob) error {
	return nil
}

// rejectingVerifier always reports the proof does not extend the anchor.
type rejectingVerifier struct{}

func (rejectingVerifier) VerifyConsecutiveAppendOnly(context.Context, akdwatch.Configuration, akdwatch.Digest, akdclient.ProofBlob) error {
	return assert.AnError
}

func digestOf(n uint64) akdwatch.Digest {
	var d akdwatch.Digest
	d[0] = byte(n)
	d[1] = byte(n >> 8)
	return d
}

// publishChain publishes proofs for epochs [from, to] into dir, each one
// chaining from the previous epoch's digest (or the zero digest, for
// from==startingEpoch, matching the trust-anchor convention).
func publishChain(dir *akdclient.MemoryDirectoryClient, logDir string, from, to akdwatch.Epoch, prevOfFrom akdwatch.Digest) {
	prev := prevOfFrom
	for e := from; e <= to; e++ {
		end := digestOf(uint64(e))
		dir.Publish(logDir, e, akdclient.ProofBlob{EndEpoch: e, PreviousHash: prev, EndHash: end})
		prev = end
	}
}

func newHarness(t *testing.T) (*NamespaceAuditor, namespacestore.Repository, *akdclient.MemoryDirectoryClient) {
	t.Helper()
	keys, err := signingkey.NewMemoryRepository(time.Hour)
	require.NoError(t, err)

	namespaces := namespacestore.NewMemoryRepository()
	dir := akdclient.NewMemoryDirectoryClient()

	a := New()
	a.Name = "ns1"
	a.Namespaces = namespaces
	a.Keys = keys
	a.Signatures = signaturestore.NewMemoryRepository()
	a.Directory = dir
	a.Verifiers = acceptingVerifier{}
	a.SleepDuration = time.Hour

	return a, namespaces, dir
}

func TestColdStartFiftyProofsAvailable(t *testing.T) {
	ctx := context.Background()
	a, namespaces, dir := newHarness(t)

	require.NoError(t, namespaces.Add(ctx, akdwatch.NamespaceInfo{
		Name: "ns1", StartingEpoch: 1, Status: akdwatch.StatusOnline,
	}))
	publishChain(dir, "ns1", 1, 100, akdwatch.Digest{})

	blobs, err := a.poll(ctx, mustGet(ctx, t, namespaces, "ns1"))
	require.NoError(t, err)
	require.Len(t, blobs, MaxEpochsPerPoll)

	info := mustGet(ctx, t, namespaces, "ns1")
	for _, blob := range blobs {
		require.NoError(t, a.processOne(ctx, &info, blob, a.Log))
	}

	final := mustGet(ctx, t, namespaces, "ns1")
	require.NotNil(t, final.LastVerifiedEpoch)
	assert.Equal(t, akdwatch.Epoch(50), *final.LastVerifiedEpoch)

	for e := akdwatch.Epoch(1); e <= 50; e++ {
		has, err := a.Signatures.Has(ctx, "ns1", e)
		require.NoError(t, err)
		assert.True(t, has, "epoch %d", e)
	}
}

func TestPredecessorMissingRaisesSignatureLost(t *testing.T) {
	ctx := context.Background()
	a, namespaces, dir := newHarness(t)

	require.NoError(t, namespaces.Add(ctx, akdwatch.NamespaceInfo{
		Name: "ns1", StartingEpoch: 1, Status: akdwatch.StatusOnline,
	}))
	publishChain(dir, "ns1", 1, 10, akdwatch.Digest{})

	info := mustGet(ctx, t, namespaces, "ns1")
	blobs, err := a.poll(ctx, info)
	require.NoError(t, err)

	for _, blob := range blobs[:4] {
		require.NoError(t, a.processOne(ctx, &info, blob, a.Log))
	}

	// epoch 4's signature is durably present; hide it out-of-band to
	// simulate the predecessor signature being lost.
	a.Signatures = &hidingStore{Repository: a.Signatures, hiddenEpoch: 4}

	err = a.processOne(ctx, &info, blobs[4], a.Log) // blob for epoch 5, predecessor epoch 4
	var notFound *SignatureNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, akdwatch.Epoch(4), notFound.Epoch)
	assert.Equal(t, akdwatch.StatusSignatureLost, failureStatus(err))
}

func TestAkdVerificationFailureSetsStatus(t *testing.T) {
	ctx := context.Background()
	a, namespaces, dir := newHarness(t)
	a.Verifiers = rejectingVerifier{}

	require.NoError(t, namespaces.Add(ctx, akdwatch.NamespaceInfo{
		Name: "ns1", StartingEpoch: 1, Status: akdwatch.StatusOnline,
	}))
	publishChain(dir, "ns1", 1, 1, akdwatch.Digest{})

	info := mustGet(ctx, t, namespaces, "ns1")
	blobs, err := a.poll(ctx, info)
	require.NoError(t, err)
	require.Len(t, blobs, 1)

	err = a.processOne(ctx, &info, blobs[0], a.Log)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAkdVerificationError)
	assert.Equal(t, akdwatch.StatusSignatureVerificationFailed, failureStatus(err))

	has, _ := a.Signatures.Has(ctx, "ns1", 1)
	assert.False(t, has)
}

func TestReprocessingAlreadySignedEpochIsNoOp(t *testing.T) {
	ctx := context.Background()
	a, namespaces, dir := newHarness(t)

	require.NoError(t, namespaces.Add(ctx, akdwatch.NamespaceInfo{
		Name: "ns1", StartingEpoch: 1, Status: akdwatch.StatusOnline,
	}))
	publishChain(dir, "ns1", 1, 1, akdwatch.Digest{})

	info := mustGet(ctx, t, namespaces, "ns1")
	blobs, err := a.poll(ctx, info)
	require.NoError(t, err)

	require.NoError(t, a.processOne(ctx, &info, blobs[0], a.Log))
	before, err := a.Signatures.Get(ctx, "ns1", 1)
	require.NoError(t, err)

	require.NoError(t, a.processOne(ctx, &info, blobs[0], a.Log))
	after, err := a.Signatures.Get(ctx, "ns1", 1)
	require.NoError(t, err)

	assert.Equal(t, before.Signature, after.Signature)
}

func TestClassifyErrorKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want cycleOutcome
	}{
		{"namespace persistence failure", &namespacestore.PersistenceError{Op: "update", Err: assert.AnError}, outcomePersistenceFailure},
		{"signature persistence failure", &signaturestore.PersistenceError{Op: "set", Err: assert.AnError}, outcomePersistenceFailure},
		{"predecessor signature not found", &SignatureNotFoundError{Epoch: 4}, outcomeTerminal},
		{"append-only verification failure", fmt.Errorf("wrap: %w", ErrAkdVerificationError), outcomeTerminal},
		{"verifying key not found", fmt.Errorf("wrap: %w", epochsig.ErrVerifyingKeyNotFound), outcomeTerminal},
		{"signature verification failed", fmt.Errorf("wrap: %w", epochsig.ErrSignatureVerificationFailed), outcomeTerminal},
		{"proof not found race", fmt.Errorf("wrap: %w", akdclient.ErrProofNotFound), outcomeRetry},
		{"malformed proof blob", fmt.Errorf("wrap: %w", akdclient.ErrMalformedProofBlob), outcomeRetry},
		{"malformed envelope", fmt.Errorf("wrap: %w", epochsig.ErrMalformedEnvelope), outcomeRetry},
		{"unrecognized transport error", assert.AnError, outcomeRetry},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classify(tc.err))
		})
	}
}

// raceDirectoryClient wraps a DirectoryClient and reports one epoch's blob
// as gone when fetched, simulating a delete racing the poll that listed it.
type raceDirectoryClient struct {
	akdclient.DirectoryClient
	racingEpoch akdwatch.Epoch
}

func (r raceDirectoryClient) FetchProof(ctx context.Context, logDirectory string, name akdclient.AuditBlobName) (akdclient.ProofBlob, error) {
	if name.Epoch == r.racingEpoch {
		return akdclient.ProofBlob{}, akdclient.ErrProofNotFound
	}
	return r.DirectoryClient.FetchProof(ctx, logDirectory, name)
}

func TestFetchProofRaceIsRetryableAndLeavesNoSignature(t *testing.T) {
	ctx := context.Background()
	a, namespaces, dir := newHarness(t)

	require.NoError(t, namespaces.Add(ctx, akdwatch.NamespaceInfo{
		Name: "ns1", StartingEpoch: 1, Status: akdwatch.StatusOnline,
	}))
	publishChain(dir, "ns1", 1, 1, akdwatch.Digest{})

	info := mustGet(ctx, t, namespaces, "ns1")
	blobs, err := a.poll(ctx, info)
	require.NoError(t, err)
	require.Len(t, blobs, 1)

	a.Directory = raceDirectoryClient{DirectoryClient: dir, racingEpoch: blobs[0].Epoch}

	err = a.processOne(ctx, &info, blobs[0], a.Log)
	require.Error(t, err)
	assert.ErrorIs(t, err, akdclient.ErrProofNotFound)
	assert.Equal(t, outcomeRetry, classify(err))

	has, _ := a.Signatures.Has(ctx, "ns1", 1)
	assert.False(t, has)
}

// failingSetStore wraps a signaturestore.Repository and reports a
// persistence failure from Set, simulating a local disk write failure
// after append-only verification has already succeeded.
type failingSetStore struct {
	signaturestore.Repository
}

func (failingSetStore) Set(context.Context, epochsig.EpochSignature) error {
	return &signaturestore.PersistenceError{Op: "set", Err: assert.AnError}
}

func TestPersistenceFailureStopsWorkerWithoutStatusChange(t *testing.T) {
	ctx := context.Background()
	a, namespaces, dir := newHarness(t)

	require.NoError(t, namespaces.Add(ctx, akdwatch.NamespaceInfo{
		Name: "ns1", StartingEpoch: 1, Status: akdwatch.StatusOnline,
	}))
	publishChain(dir, "ns1", 1, 1, akdwatch.Digest{})
	a.Signatures = failingSetStore{Repository: a.Signatures}

	err := a.Run(ctx)
	require.Error(t, err)
	var persistErr *signaturestore.PersistenceError
	assert.ErrorAs(t, err, &persistErr)

	final := mustGet(ctx, t, namespaces, "ns1")
	assert.Equal(t, akdwatch.StatusOnline, final.Status)
}

func TestRunStopsOnShutdown(t *testing.T) {
	ctx := context.Background()
	a, namespaces, _ := newHarness(t)
	a.SleepDuration = time.Minute

	require.NoError(t, namespaces.Add(ctx, akdwatch.NamespaceInfo{
		Name: "ns1", StartingEpoch: 1, Status: akdwatch.StatusOnline,
	}))

	shutdown := make(chan struct{})
	a.Shutdown = shutdown
	close(shutdown)

	err := a.Run(ctx)
	assert.NoError(t, err)
}

func TestRunStopsWhenNamespaceInactive(t *testing.T) {
	ctx := context.Background()
	a, namespaces, _ := newHarness(t)

	require.NoError(t, namespaces.Add(ctx, akdwatch.NamespaceInfo{
		Name: "ns1", StartingEpoch: 1, Status: akdwatch.StatusDisabled,
	}))

	err := a.Run(ctx)
	assert.NoError(t, err)
}

func mustGet(ctx context.Context, t *testing.T, repo namespacestore.Repository, name string) akdwatch.NamespaceInfo {
	t.Helper()
	info, ok, err := repo.Get(ctx, name)
	require.NoError(t, err)
	require.True(t, ok)
	return info
}

// hidingStore wraps a signaturestore.Repository and reports hiddenEpoch as
// not-found regardless of what the embedded store actually has, letting
// tests simulate out-of-band signature loss without a full fake
// implementation of the interface.
type hidingStore struct {
	signaturestore.Repository
	hiddenEpoch akdwatch.Epoch
}

func (h *hidingStore) Has(ctx context.Context, namespace string, epoch akdwatch.Epoch) (bool, error) {
	if epoch == h.hiddenEpoch {
		return false, nil
	}
	return h.Repository.Has(ctx, namespace, epoch)
}

func (h *hidingStore) Get(ctx context.Context, namespace string, epoch akdwatch.Epoch) (epochsig.EpochSignature, error) {
	if epoch == h.hiddenEpoch {
		return epochsig.EpochSignature{}, signaturestore.ErrNotFound
	}
	return h.Repository.Get(ctx, namespace, epoch)
}
