// Package auditor implements C6, the per-namespace audit loop: poll →
// verify-chain → sign → persist, repeated until shutdown or a terminal
// failure.
package auditor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitwarden/akd-watch/internal/akdclient"
	"github.com/bitwarden/akd-watch/internal/akdwatch"
	"github.com/bitwarden/akd-watch/internal/epochsig"
	"github.com/bitwarden/akd-watch/internal/namespacestore"
	"github.com/bitwarden/akd-watch/internal/obslog"
	"github.com/bitwarden/akd-watch/internal/signaturestore"
	"github.com/bitwarden/akd-watch/internal/signingkey"
)

// MaxEpochsPerPoll bounds how many new epochs a single audit cycle will
// claim in one pass, so one namespace backlog can't starve the others
// sharing a worker pool.
const MaxEpochsPerPoll = 50

// backlogSleep is the shortened interruptible-sleep duration used when a
// cycle processed a full MaxEpochsPerPoll batch, to drain backlog quickly
// while still honoring shutdown.
const backlogSleep = 10 * time.Millisecond

// AppendOnlyVerifier is the narrow view of akdclient.VerifierRegistry this
// package depends on, so tests can substitute a stub verifier.
type AppendOnlyVerifier interface {
	VerifyConsecutiveAppendOnly(ctx context.Context, cfg akdwatch.Configuration, previousHash akdwatch.Digest, proof akdclient.ProofBlob) error
}

// NamespaceAuditor drives the audit loop for exactly one namespace. All
// dependent stores may be shared with other NamespaceAuditors except
// Signatures, which is namespace-scoped by construction.
type NamespaceAuditor struct {
	Name string

	Namespaces namespacestore.Repository
	Keys       signingkey.Repository
	Signatures signaturestore.Repository
	Directory  akdclient.DirectoryClient
	Verifiers  AppendOnlyVerifier

	Ciphersuite   epochsig.Ciphersuite
	SleepDuration time.Duration
	Shutdown      <-chan struct{}
	Log           obslog.Logger

	// Now is overridable for tests; defaults to time.Now in New.
	Now func() time.Time
}

// New builds a NamespaceAuditor with Now defaulted to time.Now and Log
// defaulted to a no-op logger, so callers only need to set the fields they
// care about for a given test.
func New() *NamespaceAuditor {
	return &NamespaceAuditor{
		Ciphersuite:   epochsig.DefaultCiphersuite,
		SleepDuration: 30 * time.Second,
		Now:           time.Now,
		Log:           obslog.Noop{},
	}
}

// Run executes audit cycles until the namespace becomes inactive, a
// terminal failure occurs, shutdown is signaled, or ctx is canceled. A nil
// return means a clean stop (inactive namespace or shutdown); any other
// return is the terminal error that caused the worker to exit.
func (a *NamespaceAuditor) Run(ctx context.Context) error {
	log := a.Log.With("namespace", a.Name)
	for {
		info, ok, err := a.Namespaces.Get(ctx, a.Name)
		if err != nil {
			return fmt.Errorf("auditor: load namespace %s: %w", a.Name, err)
		}
		if !ok {
			return ErrNamespaceGone
		}
		if !info.IsActive() {
			log.Infow("namespace inactive, stopping worker", "status", info.Status)
			return nil
		}

		blobs, pollErr := a.poll(ctx, info)
		if pollErr != nil {
			log.Warnw("poll failed, will retry next cycle", "error", pollErr)
		}

	processBlobs:
		for _, blob := range blobs {
			procErr := a.processOne(ctx, &info, blob, log)
			if procErr == nil {
				continue
			}
			switch classify(procErr) {
			case outcomeRetry:
				log.Warnw("transient failure processing epoch, will retry next cycle", "epoch", blob.Epoch, "error", procErr)
				break processBlobs
			case outcomePersistenceFailure:
				log.Errorw("persistence failure, stopping worker", "epoch", blob.Epoch, "error", procErr)
				return procErr
			default:
				info.Status = failureStatus(procErr)
				if updateErr := a.Namespaces.Update(ctx, info); updateErr != nil {
					log.Errorw("failed to persist terminal status", "error", updateErr)
				}
				log.Warnw("audit cycle terminated", "error", procErr, "status", info.Status)
				return procErr
			}
		}

		sleepDur := a.SleepDuration
		if len(blobs) == MaxEpochsPerPoll {
			sleepDur = backlogSleep
		}

		select {
		case <-time.After(sleepDur):
		case <-a.Shutdown:
			log.Infow("shutdown received, stopping worker")
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// poll discovers up to MaxEpochsPerPoll newly published blob names
// starting from info's next unaudited epoch.
func (a *NamespaceAuditor) poll(ctx context.Context, info akdwatch.NamespaceInfo) ([]akdclient.AuditBlobName, error) {
	next := info.NextEpoch()
	var blobs []akdclient.AuditBlobName

	for len(blobs) < MaxEpochsPerPoll {
		has, err := a.Directory.HasProof(ctx, info.LogDirectory, next)
		if err != nil {
			return blobs, err
		}
		if !has {
			break
		}
		name, err := a.Directory.ProofName(ctx, info.LogDirectory, next)
		if err != nil {
			return blobs, err
		}
		blobs = append(blobs, name)
		next = next.Next()
	}
	return blobs, nil
}

// processOne verifies a single published blob against its anchor and, on
// success, signs and persists the resulting epoch signature. info is
// mutated in place and persisted to Namespaces on success, so a crash
// between epochs never loses or reorders progress.
func (a *NamespaceAuditor) processOne(ctx context.Context, info *akdwatch.NamespaceInfo, blob akdclient.AuditBlobName, log obslog.Logger) error {
	if blob.Epoch < info.StartingEpoch {
		return nil
	}

	verifyingKeys := a.Keys.VerifyingRepository()

	if has, err := a.Signatures.Has(ctx, info.Name, blob.Epoch); err != nil {
		return fmt.Errorf("auditor: check existing signature: %w", err)
	} else if has {
		existing, err := a.Signatures.Get(ctx, info.Name, blob.Epoch)
		if err != nil {
			return fmt.Errorf("auditor: load existing signature: %w", err)
		}
		if err := epochsig.Verify(ctx, verifyingKeys, existing); err != nil {
			return fmt.Errorf("auditor: re-verify existing signature at epoch %d: %w", blob.Epoch, err)
		}
		return nil
	}

	var anchor akdwatch.Digest
	if blob.Epoch == info.StartingEpoch {
		anchor = blob.PreviousHash
	} else {
		prevEpoch := blob.Epoch - 1
		prevSig, err := a.Signatures.Get(ctx, info.Name, prevEpoch)
		if err != nil {
			if errors.Is(err, signaturestore.ErrNotFound) {
				return &SignatureNotFoundError{Epoch: prevEpoch}
			}
			return fmt.Errorf("auditor: load predecessor signature: %w", err)
		}
		if err := epochsig.Verify(ctx, verifyingKeys, prevSig); err != nil {
			return fmt.Errorf("auditor: re-verify predecessor signature at epoch %d: %w", prevEpoch, err)
		}
		anchor = prevSig.Digest
	}

	proof, err := a.Directory.FetchProof(ctx, info.LogDirectory, blob)
	if err != nil {
		return fmt.Errorf("auditor: fetch proof %s: %w", blob, err)
	}

	if err := a.Verifiers.VerifyConsecutiveAppendOnly(ctx, info.Configuration, anchor, proof); err != nil {
		return fmt.Errorf("%w: %v", ErrAkdVerificationError, err)
	}

	now := a.Now()
	sig, err := epochsig.Sign(ctx, a.Keys, a.Ciphersuite, info.Name, proof.EndEpoch, proof.EndHash, now)
	if err != nil {
		return fmt.Errorf("auditor: sign epoch %d: %w", proof.EndEpoch, err)
	}
	if err := a.Signatures.Set(ctx, sig); err != nil {
		return fmt.Errorf("auditor: persist signature for epoch %d: %w", proof.EndEpoch, err)
	}

	endEpoch := proof.EndEpoch
	info.LastVerifiedEpoch = &endEpoch
	if err := a.Namespaces.Update(ctx, *info); err != nil {
		return fmt.Errorf("auditor: advance last_verified_epoch: %w", err)
	}

	log.Infow("accepted epoch", "epoch", proof.EndEpoch, "digest", sig.DigestHex(), "key_id", sig.KeyID)
	return nil
}
