package epochsig

import "errors"

var (
	// ErrVerifyingKeyNotFound is returned when an EpochSignature names a
	// key_id absent from both the current and retired verifying keys.
	ErrVerifyingKeyNotFound = errors.New("epochsig: verifying key not found")

	// ErrSignatureVerificationFailed is returned when the signature bytes
	// do not verify against the resolved key for the reconstructed
	// canonical message.
	ErrSignatureVerificationFailed = errors.New("epochsig: signature verification failed")

	// ErrUnknownCiphersuite is returned when signing or verifying is
	// attempted with a ciphersuite discriminant this build does not
	// implement.
	ErrUnknownCiphersuite = errors.New("epochsig: unknown ciphersuite")

	// ErrMalformedEnvelope is returned when the wire bytes for an
	// EpochSignature cannot be decoded into a canonical message.
	ErrMalformedEnvelope = errors.New("epochsig: malformed envelope")
)
