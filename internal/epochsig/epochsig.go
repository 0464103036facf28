// Package epochsig implements the canonical signed epoch message (C5 in
// the system design): the envelope a NamespaceAuditor produces for each
// accepted epoch, and the Sign/Verify operations over it.
package epochsig

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bitwarden/akd-watch/internal/akdwatch"
	"github.com/bitwarden/akd-watch/internal/epochsig/wirebincode"
	"github.com/bitwarden/akd-watch/internal/epochsig/wireprotobuf"
	"github.com/bitwarden/akd-watch/internal/signingkey"
)

// EpochSignature is the signed statement "namespace reached epoch with
// digest at timestamp", attested by the key identified by KeyID. Timestamp
// and the rest of the fields are exactly the canonical message bytes that
// were signed; Signature and KeyID are metadata layered around it.
type EpochSignature struct {
	Ciphersuite Ciphersuite
	Namespace   string
	Timestamp   time.Time
	Epoch       akdwatch.Epoch
	Digest      akdwatch.Digest
	Signature   []byte
	KeyID       uuid.UUID
}

// DigestHex renders the digest for log lines and CLI output.
func (s EpochSignature) DigestHex() string {
	return hex.EncodeToString(s.Digest[:])
}

func canonicalMessage(namespace string, epoch akdwatch.Epoch, digest akdwatch.Digest, ts time.Time, suite Ciphersuite) ([]byte, error) {
	switch suite {
	case CiphersuiteProtobufEd25519:
		return wireprotobuf.Marshal(wireprotobuf.Message{
			Ciphersuite: uint32(suite),
			Namespace:   namespace,
			Timestamp:   uint64(ts.Unix()),
			Epoch:       uint64(epoch),
			Digest:      digest[:],
		}), nil
	case CiphersuiteBincodeEd25519:
		return wirebincode.Marshal(wirebincode.Message{
			Ciphersuite: uint32(suite),
			Namespace:   namespace,
			Timestamp:   uint64(ts.Unix()),
			Epoch:       uint64(epoch),
			Digest:      digest[:],
		}), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCiphersuite, suite)
	}
}

// Sign builds the canonical message for (namespace, epoch, digest) under
// suite, signs it with the directory's current signing key, and returns
// the resulting EpochSignature. The timestamp is captured from now at call
// time.
func Sign(ctx context.Context, keys signingkey.Repository, suite Ciphersuite, namespace string, epoch akdwatch.Epoch, digest akdwatch.Digest, now time.Time) (EpochSignature, error) {
	msg, err := canonicalMessage(namespace, epoch, digest, now, suite)
	if err != nil {
		return EpochSignature{}, err
	}

	key, err := keys.CurrentSigningKey(ctx)
	if err != nil {
		return EpochSignature{}, fmt.Errorf("epochsig: load signing key: %w", err)
	}

	sig := ed25519.Sign(key.Secret, msg)
	return EpochSignature{
		Ciphersuite: suite,
		Namespace:   namespace,
		Timestamp:   now,
		Epoch:       epoch,
		Digest:      digest,
		Signature:   sig,
		KeyID:       key.KeyID,
	}, nil
}

// Verify resolves s.KeyID against keys (current or retired) and checks
// s.Signature against the reconstructed canonical message. It returns
// ErrVerifyingKeyNotFound or ErrSignatureVerificationFailed on failure,
// wrapped with context where useful.
func Verify(ctx context.Context, keys signingkey.VerifyingKeyRepository, s EpochSignature) error {
	vk, ok, err := keys.Get(ctx, s.KeyID)
	if err != nil {
		return fmt.Errorf("epochsig: resolve verifying key: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: key_id=%s", ErrVerifyingKeyNotFound, s.KeyID)
	}

	msg, err := canonicalMessage(s.Namespace, s.Epoch, s.Digest, s.Timestamp, s.Ciphersuite)
	if err != nil {
		return err
	}

	if !ed25519.Verify(vk.Public, msg, s.Signature) {
		return fmt.Errorf("%w: namespace=%s epoch=%d key_id=%s", ErrSignatureVerificationFailed, s.Namespace, s.Epoch, s.KeyID)
	}
	return nil
}
