package akdclient

import (
	"context"
	"fmt"

	"github.com/bitwarden/akd-watch/internal/akdwatch"
)

// AppendOnlyVerifier wraps the foreign verify_consecutive_append_only
// primitive, deliberately out of scope to reimplement here: given a
// previously trusted digest and a freshly fetched ProofBlob, it reports
// whether the blob's proof extends the log from previousHash to
// proof.EndHash without rewriting history. Each akdwatch.Configuration may
// require a differently-shaped underlying AKD crate/service call, so
// implementations are registered per configuration rather than assumed
// uniform.
type AppendOnlyVerifier interface {
	VerifyConsecutiveAppendOnly(ctx context.Context, previousHash akdwatch.Digest, proof ProofBlob) error
}

// AppendOnlyVerifierFunc adapts a plain function to AppendOnlyVerifier.
type AppendOnlyVerifierFunc func(ctx context.Context, previousHash akdwatch.Digest, proof ProofBlob) error

func (f AppendOnlyVerifierFunc) VerifyConsecutiveAppendOnly(ctx context.Context, previousHash akdwatch.Digest, proof ProofBlob) error {
	return f(ctx, previousHash, proof)
}

// VerifierRegistry dispatches to the AppendOnlyVerifier registered for a
// namespace's configuration, so each AKD configuration can bind its own
// verify_consecutive_append_only implementation.
type VerifierRegistry struct {
	verifiers map[akdwatch.Configuration]AppendOnlyVerifier
}

func NewVerifierRegistry() *VerifierRegistry {
	return &VerifierRegistry{verifiers: make(map[akdwatch.Configuration]AppendOnlyVerifier)}
}

// Register binds a configuration to the verifier that should handle it.
// Registering the same configuration twice replaces the previous binding.
func (r *VerifierRegistry) Register(cfg akdwatch.Configuration, v AppendOnlyVerifier) {
	r.verifiers[cfg] = v
}

func (r *VerifierRegistry) VerifyConsecutiveAppendOnly(ctx context.Context, cfg akdwatch.Configuration, previousHash akdwatch.Digest, proof ProofBlob) error {
	v, ok := r.verifiers[cfg]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConfiguration, cfg)
	}
	if err := v.VerifyConsecutiveAppendOnly(ctx, previousHash, proof); err != nil {
		return fmt.Errorf("%w: %v", ErrAppendOnlyVerificationFailed, err)
	}
	return nil
}
