package signingkey

import (
	"context"

	"github.com/google/uuid"
)

// Repository owns the current signing key plus every expired-but-retained
// key, and hands out a read-only VerifyingKeyRepository view over both.
type Repository interface {
	// CurrentSigningKey returns the live signing key, rotating first if
	// the existing one has expired.
	CurrentSigningKey(ctx context.Context) (SigningKey, error)

	// ForceRotation unconditionally expires the current key, generates a
	// new one, and persists the result before returning.
	ForceRotation(ctx context.Context) error

	// VerifyingRepository returns a view over {current} ∪ {retired} keys
	// keyed by key id.
	VerifyingRepository() VerifyingKeyRepository
}

// VerifyingKeyRepository resolves key ids to public verifying material.
// Implementations reload from disk on a miss so a key rotated by another
// process becomes visible without a restart.
type VerifyingKeyRepository interface {
	Get(ctx context.Context, keyID uuid.UUID) (VerifyingKey, bool, error)
	List(ctx context.Context) ([]VerifyingKey, error)
}
