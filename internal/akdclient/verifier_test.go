package akdclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitwarden/akd-watch/internal/akdwatch"
)

func TestVerifierRegistryDispatchesByConfiguration(t *testing.T) {
	ctx := context.Background()
	registry := NewVerifierRegistry()

	var called akdwatch.Configuration
	registry.Register(akdwatch.ConfigurationBitwardenV1, AppendOnlyVerifierFunc(
		func(_ context.Context, _ akdwatch.Digest, _ ProofBlob) error {
			called = akdwatch.ConfigurationBitwardenV1
			return nil
		}))

	err := registry.VerifyConsecutiveAppendOnly(ctx, akdwatch.ConfigurationBitwardenV1, akdwatch.Digest{}, ProofBlob{})
	require.NoError(t, err)
	assert.Equal(t, akdwatch.ConfigurationBitwardenV1, called)
}

func TestVerifierRegistryUnknownConfiguration(t *testing.T) {
	registry := NewVerifierRegistry()
	err := registry.VerifyConsecutiveAppendOnly(context.Background(), akdwatch.ConfigurationWhatsAppV1, akdwatch.Digest{}, ProofBlob{})
	assert.ErrorIs(t, err, ErrUnknownConfiguration)
}

func TestVerifierRegistryWrapsFailure(t *testing.T) {
	registry := NewVerifierRegistry()
	registry.Register(akdwatch.ConfigurationTest, AppendOnlyVerifierFunc(
		func(context.Context, akdwatch.Digest, ProofBlob) error {
			return errors.New("proof does not extend anchor")
		}))

	err := registry.VerifyConsecutiveAppendOnly(context.Background(), akdwatch.ConfigurationTest, akdwatch.Digest{}, ProofBlob{})
	assert.ErrorIs(t, err, ErrAppendOnlyVerificationFailed)
}
