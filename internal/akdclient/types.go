// Package akdclient implements C4, the AkdDirectoryClient: discovery and
// retrieval of newly published AKD epoch proof blobs, plus the
// verify_consecutive_append_only primitive dispatch the auditor consumes
// but never reimplements.
package akdclient

import (
	"fmt"

	"github.com/bitwarden/akd-watch/internal/akdwatch"
)

// AuditBlobName is the structured name of a published proof blob:
// "<epoch>-<previous_hash>-<current_hash>", giving log lines and object
// keys a stable, human-readable rendering.
type AuditBlobName struct {
	Epoch       akdwatch.Epoch
	PreviousHash akdwatch.Digest
	CurrentHash  akdwatch.Digest
}

func (b AuditBlobName) String() string {
	return fmt.Sprintf("%d-%s-%s", b.Epoch, b.PreviousHash, b.CurrentHash)
}

// Key returns the object-store key this blob is published under, relative
// to a namespace's log directory prefix.
func (b AuditBlobName) Key() string {
	return b.String()
}

// ProofBlob is the decoded contents of a published proof blob: the
// append-only proof plus the epoch range and digests it attests to.
type ProofBlob struct {
	EndEpoch     akdwatch.Epoch
	PreviousHash akdwatch.Digest
	EndHash      akdwatch.Digest
	Proof        []byte
}
