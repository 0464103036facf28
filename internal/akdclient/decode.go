package akdclient

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/bitwarden/akd-watch/internal/akdwatch"
)

// proofBlobWire is the CBOR shape of a published blob: a four-element map
// carrying the epoch range, the digests it attests to, and the opaque
// append-only proof bytes. Field order on the wire is whatever the
// publisher chose; decMode below only constrains decoding, not the
// accepted key order, rejecting duplicate keys and indefinite-length
// items since this data is untrusted input.
type proofBlobWire struct {
	EndEpoch     uint64 `cbor:"end_epoch"`
	PreviousHash []byte `cbor:"previous_hash"`
	EndHash      []byte `cbor:"end_hash"`
	Proof        []byte `cbor:"proof"`
}

var decMode = newDeterministicDecMode()

func newDeterministicDecMode() cbor.DecMode {
	mode, err := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("akdclient: build cbor decode mode: %v", err))
	}
	return mode
}

// decodeProofBlob parses raw blob bytes fetched from an object store.
func decodeProofBlob(raw []byte) (ProofBlob, error) {
	var w proofBlobWire
	if err := decMode.Unmarshal(raw, &w); err != nil {
		return ProofBlob{}, fmt.Errorf("%w: %v", ErrMalformedProofBlob, err)
	}
	if len(w.PreviousHash) != akdwatch.DigestSize {
		return ProofBlob{}, fmt.Errorf("%w: previous_hash has wrong length %d", ErrMalformedProofBlob, len(w.PreviousHash))
	}
	if len(w.EndHash) != akdwatch.DigestSize {
		return ProofBlob{}, fmt.Errorf("%w: end_hash has wrong length %d", ErrMalformedProofBlob, len(w.EndHash))
	}

	var prev, end akdwatch.Digest
	copy(prev[:], w.PreviousHash)
	copy(end[:], w.EndHash)

	return ProofBlob{
		EndEpoch:     akdwatch.Epoch(w.EndEpoch),
		PreviousHash: prev,
		EndHash:      end,
		Proof:        w.Proof,
	}, nil
}
