// Package signaturestore implements C2, the durable record of every
// accepted EpochSignature, keyed by (namespace, epoch). An Azure-backed
// variant is reserved but not implemented here; this package ships an
// in-memory and a local-file backend.
package signaturestore

import (
	"context"

	"github.com/bitwarden/akd-watch/internal/akdwatch"
	"github.com/bitwarden/akd-watch/internal/epochsig"
)

// Repository is the contract every signature store implementation
// satisfies.
type Repository interface {
	// Has reports whether a signature has already been stored for
	// (namespace, epoch), letting a NamespaceAuditor avoid re-signing work
	// it already durably committed.
	Has(ctx context.Context, namespace string, epoch akdwatch.Epoch) (bool, error)

	// Get returns the stored signature for (namespace, epoch), or
	// ErrNotFound.
	Get(ctx context.Context, namespace string, epoch akdwatch.Epoch) (epochsig.EpochSignature, error)

	// Set durably stores sig, keyed by (sig.Namespace, sig.Epoch). Set is
	// idempotent: storing the same signature twice is not an error.
	Set(ctx context.Context, sig epochsig.EpochSignature) error
}
