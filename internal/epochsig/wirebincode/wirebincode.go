// Package wirebincode implements the bincode-Ed25519 ciphersuite's
// canonical encoding of the signed epoch message, using the
// little-endian variable-length-integer framing from internal/wire.
// Field order matches wireprotobuf exactly so the two ciphersuites
// disagree only in framing, never in semantics.
package wirebincode

import (
	"github.com/bitwarden/akd-watch/internal/wire"
)

// Message mirrors the canonical signed payload.
type Message struct {
	Ciphersuite uint32
	Namespace   string
	Timestamp   uint64
	Epoch       uint64
	Digest      []byte
}

// Marshal returns m's canonical bincode-style encoding.
func Marshal(m Message) []byte {
	w := wire.NewWriter()
	w.PutUint(uint64(m.Ciphersuite))
	w.PutString(m.Namespace)
	w.PutUint(m.Timestamp)
	w.PutUint(m.Epoch)
	w.PutBytes(m.Digest)
	return w.Bytes()
}

// Unmarshal decodes bytes produced by Marshal.
func Unmarshal(data []byte) (Message, error) {
	r := wire.NewReader(data)

	var m Message
	ciphersuite, err := r.Uint()
	if err != nil {
		return Message{}, err
	}
	m.Ciphersuite = uint32(ciphersuite)

	if m.Namespace, err = r.String(); err != nil {
		return Message{}, err
	}
	if m.Timestamp, err = r.Uint(); err != nil {
		return Message{}, err
	}
	if m.Epoch, err = r.Uint(); err != nil {
		return Message{}, err
	}
	if m.Digest, err = r.Bytes(); err != nil {
		return Message{}, err
	}
	return m, nil
}
