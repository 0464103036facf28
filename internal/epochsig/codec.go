package epochsig

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bitwarden/akd-watch/internal/akdwatch"
	"github.com/bitwarden/akd-watch/internal/wire"
)

// Encode serializes a full EpochSignature (envelope plus signature and
// key_id) for on-disk storage by a SignatureRepository, using the
// little-endian variable-length-integer framing from internal/wire. This
// is independent of s.Ciphersuite, which governs only how the signed
// message itself is reconstructed for verification.
func Encode(s EpochSignature) []byte {
	w := wire.NewWriter()
	w.PutUint(uint64(s.Ciphersuite))
	w.PutString(s.Namespace)
	w.PutUint(uint64(s.Timestamp.Unix()))
	w.PutUint(uint64(s.Epoch))
	w.PutBytes(s.Digest[:])
	w.PutBytes(s.Signature)
	w.PutBytes([]byte(s.KeyID.String()))
	return w.Bytes()
}

// Decode reverses Encode.
func Decode(data []byte) (EpochSignature, error) {
	r := wire.NewReader(data)

	suite, err := r.Uint()
	if err != nil {
		return EpochSignature{}, fmt.Errorf("%w: ciphersuite: %v", ErrMalformedEnvelope, err)
	}
	namespace, err := r.String()
	if err != nil {
		return EpochSignature{}, fmt.Errorf("%w: namespace: %v", ErrMalformedEnvelope, err)
	}
	ts, err := r.Uint()
	if err != nil {
		return EpochSignature{}, fmt.Errorf("%w: timestamp: %v", ErrMalformedEnvelope, err)
	}
	epoch, err := r.Uint()
	if err != nil {
		return EpochSignature{}, fmt.Errorf("%w: epoch: %v", ErrMalformedEnvelope, err)
	}
	digest, err := r.Bytes()
	if err != nil {
		return EpochSignature{}, fmt.Errorf("%w: digest: %v", ErrMalformedEnvelope, err)
	}
	if len(digest) != akdwatch.DigestSize {
		return EpochSignature{}, fmt.Errorf("%w: digest has wrong length %d", ErrMalformedEnvelope, len(digest))
	}
	sig, err := r.Bytes()
	if err != nil {
		return EpochSignature{}, fmt.Errorf("%w: signature: %v", ErrMalformedEnvelope, err)
	}
	keyIDBytes, err := r.Bytes()
	if err != nil {
		return EpochSignature{}, fmt.Errorf("%w: key_id: %v", ErrMalformedEnvelope, err)
	}
	keyID, err := uuid.Parse(string(keyIDBytes))
	if err != nil {
		return EpochSignature{}, fmt.Errorf("%w: key_id: %v", ErrMalformedEnvelope, err)
	}

	var d akdwatch.Digest
	copy(d[:], digest)

	return EpochSignature{
		Ciphersuite: Ciphersuite(suite),
		Namespace:   namespace,
		Timestamp:   time.Unix(int64(ts), 0).UTC(),
		Epoch:       akdwatch.Epoch(epoch),
		Digest:      d,
		Signature:   sig,
		KeyID:       keyID,
	}, nil
}
