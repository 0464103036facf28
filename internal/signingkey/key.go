// Package signingkey implements C3, the signing-key lifecycle: a
// repository that returns a current signing key, rotates it on expiry or
// demand, retains retired keys so past signatures stay verifiable, and
// persists both signing and verifying material durably.
package signingkey

import (
	"crypto/ed25519"
	"crypto/rand"
	"time"

	"github.com/google/uuid"
)

// SigningKey is a private key plus the identifiers needed to retire and
// later verify against it.
type SigningKey struct {
	Secret    ed25519.PrivateKey
	KeyID     uuid.UUID
	NotBefore time.Time
	NotAfter  time.Time
}

// Expired reports whether now is past the key's not_after boundary.
func (k SigningKey) Expired(now time.Time) bool {
	return now.After(k.NotAfter)
}

// Verifying projects the public half of k.
func (k SigningKey) Verifying() VerifyingKey {
	pub, ok := k.Secret.Public().(ed25519.PublicKey)
	if !ok {
		panic("signingkey: ed25519 private key did not yield an ed25519 public key")
	}
	return VerifyingKey{
		Public:    pub,
		KeyID:     k.KeyID,
		NotBefore: k.NotBefore,
	}
}

// VerifyingKey is the public projection of a SigningKey, safe to publish.
type VerifyingKey struct {
	Public    ed25519.PublicKey
	KeyID     uuid.UUID
	NotBefore time.Time
}

// generate creates a fresh Ed25519 key pair, current as of notBefore and
// valid until notAfter.
func generate(notBefore, notAfter time.Time) (SigningKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return SigningKey{}, err
	}
	return SigningKey{
		Secret:    priv,
		KeyID:     uuid.New(),
		NotBefore: notBefore,
		NotAfter:  notAfter,
	}, nil
}
