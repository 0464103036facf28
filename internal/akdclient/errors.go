package akdclient

import "errors"

var (
	// ErrProofNotFound is returned by FetchProof when no blob exists for
	// the requested name.
	ErrProofNotFound = errors.New("akdclient: proof blob not found")

	// ErrMalformedProofBlob is returned when a fetched blob cannot be
	// decoded into a ProofBlob.
	ErrMalformedProofBlob = errors.New("akdclient: malformed proof blob")

	// ErrUnknownConfiguration is returned when no append-only verifier is
	// registered for a namespace's akdwatch.Configuration.
	ErrUnknownConfiguration = errors.New("akdclient: unknown configuration")

	// ErrAppendOnlyVerificationFailed is returned when
	// verify_consecutive_append_only rejects a proof.
	ErrAppendOnlyVerificationFailed = errors.New("akdclient: append-only verification failed")
)
