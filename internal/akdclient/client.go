package akdclient

import (
	"context"

	"github.com/bitwarden/akd-watch/internal/akdwatch"
)

// DirectoryClient is C4: it discovers and retrieves newly published AKD
// epoch proof blobs for a namespace's log directory. Implementations
// never interpret proof bytes beyond handing them to an AppendOnlyVerifier
// (see verifier.go).
type DirectoryClient interface {
	// HasProof reports whether a blob extending from epoch exists.
	HasProof(ctx context.Context, logDirectory string, epoch akdwatch.Epoch) (bool, error)

	// ProofName returns the blob name a directory has published for the
	// proof extending from epoch, or ErrProofNotFound if none exists yet.
	ProofName(ctx context.Context, logDirectory string, epoch akdwatch.Epoch) (AuditBlobName, error)

	// FetchProof downloads and decodes the blob named by name.
	FetchProof(ctx context.Context, logDirectory string, name AuditBlobName) (ProofBlob, error)
}
