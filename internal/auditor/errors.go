package auditor

import (
	"errors"
	"fmt"

	"github.com/bitwarden/akd-watch/internal/akdclient"
	"github.com/bitwarden/akd-watch/internal/akdwatch"
	"github.com/bitwarden/akd-watch/internal/epochsig"
	"github.com/bitwarden/akd-watch/internal/namespacestore"
	"github.com/bitwarden/akd-watch/internal/signaturestore"
)

var (
	// ErrNamespaceGone is raised when a worker's namespace disappears from
	// the namespace repository entirely; this is fatal for the worker.
	ErrNamespaceGone = errors.New("auditor: namespace no longer exists")

	// ErrAkdVerificationError means a proof failed
	// verify_consecutive_append_only against its anchor.
	ErrAkdVerificationError = errors.New("auditor: append-only proof does not chain to anchor")
)

// SignatureNotFoundError means the predecessor signature a worker needed
// to use as its verification anchor is missing from the signature store.
type SignatureNotFoundError struct {
	Epoch akdwatch.Epoch
}

func (e *SignatureNotFoundError) Error() string {
	return fmt.Sprintf("auditor: signature not found for epoch %d", e.Epoch)
}

// cycleOutcome classifies how Run reacts to a processOne failure.
type cycleOutcome int

const (
	// outcomeTerminal means the AKD is not trustworthy for this namespace,
	// or key retention/verification is broken: the worker stops and the
	// namespace is pinned to a sticky failure status.
	outcomeTerminal cycleOutcome = iota

	// outcomeRetry means a transient or upstream problem: the proof isn't
	// published yet, a fetch raced a deletion, a blob failed to decode,
	// or some other transport hiccup. Logged, this poll aborts, no status
	// change, and the worker retries on the next cycle.
	outcomeRetry

	// outcomePersistenceFailure means local durable storage failed. The
	// worker stops and the error is surfaced to its caller, but the
	// namespace status is left untouched: a storage outage says nothing
	// about whether the AKD itself is trustworthy.
	outcomePersistenceFailure
)

// classify maps a processOne error to the outcome it should drive.
// Persistence and verification failures are checked before the
// network/parse catch-all, since both wrap more specific sentinel errors.
func classify(err error) cycleOutcome {
	var nsPersist *namespacestore.PersistenceError
	if errors.As(err, &nsPersist) {
		return outcomePersistenceFailure
	}
	var sigPersist *signaturestore.PersistenceError
	if errors.As(err, &sigPersist) {
		return outcomePersistenceFailure
	}

	var notFound *SignatureNotFoundError
	if errors.As(err, &notFound) {
		return outcomeTerminal
	}
	if errors.Is(err, ErrAkdVerificationError) ||
		errors.Is(err, epochsig.ErrVerifyingKeyNotFound) ||
		errors.Is(err, epochsig.ErrSignatureVerificationFailed) {
		return outcomeTerminal
	}

	if errors.Is(err, akdclient.ErrProofNotFound) ||
		errors.Is(err, akdclient.ErrMalformedProofBlob) ||
		errors.Is(err, epochsig.ErrMalformedEnvelope) {
		return outcomeRetry
	}

	// Anything else reaching here (a raw transport error from FetchProof,
	// a signing-key backend hiccup) is treated as transient rather than
	// risking a false-positive trust-failure status.
	return outcomeRetry
}

// failureStatus maps a terminal-outcome error to the sticky namespace
// status it causes.
func failureStatus(err error) akdwatch.Status {
	var notFound *SignatureNotFoundError
	if errors.As(err, &notFound) {
		return akdwatch.StatusSignatureLost
	}
	return akdwatch.StatusSignatureVerificationFailed
}
