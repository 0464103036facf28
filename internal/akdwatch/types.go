// Package akdwatch holds the data types shared by every component of the
// auditor: the epoch/digest primitives, the namespace record and its
// lifecycle, and the AKD configuration tag used to select an append-only
// proof verifier. Nothing in this package talks to storage, the network, or
// the signing key material — it is the vocabulary the rest of the module
// is built from.
package akdwatch

import (
	"encoding/hex"
	"fmt"
)

// Epoch is the monotonically increasing sequence number an AKD assigns to
// each published state.
type Epoch uint64

// Next returns the epoch immediately following e.
func (e Epoch) Next() Epoch { return e + 1 }

// DigestSize is the fixed width of an AKD commitment hash.
const DigestSize = 32

// Digest is a 32-byte commitment over AKD state at a given epoch.
type Digest [DigestSize]byte

func (d Digest) String() string { return fmt.Sprintf("%x", [DigestSize]byte(d)) }

// IsZero reports whether d is the all-zero digest, used by callers that
// need to distinguish "no digest yet" from a real commitment.
func (d Digest) IsZero() bool { return d == Digest{} }

// DigestFromHex parses the hex rendering produced by Digest.String.
func DigestFromHex(s string) (Digest, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, fmt.Errorf("akdwatch: bad digest %q: %w", s, err)
	}
	if len(b) != DigestSize {
		return Digest{}, fmt.Errorf("akdwatch: digest %q has wrong length %d", s, len(b))
	}
	var d Digest
	copy(d[:], b)
	return d, nil
}

// Configuration selects which AKD cryptographic configuration governs
// append-only proof verification for a namespace.
type Configuration string

const (
	ConfigurationWhatsAppV1  Configuration = "WhatsAppV1"
	ConfigurationBitwardenV1 Configuration = "BitwardenV1"
	// ConfigurationTest is only ever set by tests; it is accepted by the
	// in-memory AKD verification double but never by configuration loading.
	ConfigurationTest Configuration = "Test"
)

// Status is the lifecycle state of a namespace.
type Status string

const (
	StatusOnline                     Status = "Online"
	StatusInitialization              Status = "Initialization"
	StatusDisabled                    Status = "Disabled"
	StatusSignatureLost               Status = "SignatureLost"
	StatusSignatureVerificationFailed Status = "SignatureVerificationFailed"
)

// IsSticky reports whether status can only be cleared by explicit operator
// action — configuration reload must never overwrite it.
func (s Status) IsSticky() bool {
	return s == StatusSignatureLost || s == StatusSignatureVerificationFailed
}

// NamespaceInfo is the durable record C1 (NamespaceRepository) owns for a
// single namespace.
type NamespaceInfo struct {
	Name          string        `json:"name"`
	Configuration Configuration `json:"configuration"`
	LogDirectory  string        `json:"log_directory"`

	// StartingEpoch is the trust anchor: the first epoch this auditor will
	// ever sign for this namespace. Its digest is accepted without
	// backward verification; only later epochs must chain to a previously
	// accepted signature.
	StartingEpoch Epoch `json:"starting_epoch"`

	// LastVerifiedEpoch is present once at least one epoch has been
	// signed for this namespace.
	LastVerifiedEpoch *Epoch `json:"last_verified_epoch,omitempty"`

	Status Status `json:"status"`
}

// IsActive reports whether the audit loop should keep polling this
// namespace.
func (n NamespaceInfo) IsActive() bool {
	return n.Status == StatusOnline || n.Status == StatusInitialization
}

// NextEpoch returns the next epoch this auditor needs to audit: one past
// LastVerifiedEpoch if set, otherwise StartingEpoch.
func (n NamespaceInfo) NextEpoch() Epoch {
	if n.LastVerifiedEpoch != nil {
		return n.LastVerifiedEpoch.Next()
	}
	return n.StartingEpoch
}

// Clone returns a deep copy safe to mutate independently of n.
func (n NamespaceInfo) Clone() NamespaceInfo {
	out := n
	if n.LastVerifiedEpoch != nil {
		v := *n.LastVerifiedEpoch
		out.LastVerifiedEpoch = &v
	}
	return out
}
