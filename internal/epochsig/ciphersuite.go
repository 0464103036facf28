package epochsig

import "fmt"

// Ciphersuite selects the canonical wire encoding of the signed message.
// The discriminant is a u32 and deliberately open-ended: unknown values
// round-trip through decode/encode but fail if ever used to sign or
// verify.
type Ciphersuite uint32

const (
	// CiphersuiteProtobufEd25519 is the default: the signed message is
	// serialized as canonical protobuf wire bytes, signed with Ed25519.
	CiphersuiteProtobufEd25519 Ciphersuite = 1

	// CiphersuiteBincodeEd25519 is the forward-compatibility alternative:
	// the same fields, same order, under the little-endian
	// variable-length-integer encoding from internal/wire.
	CiphersuiteBincodeEd25519 Ciphersuite = 2
)

func (c Ciphersuite) String() string {
	switch c {
	case CiphersuiteProtobufEd25519:
		return "protobuf-ed25519"
	case CiphersuiteBincodeEd25519:
		return "bincode-ed25519"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(c))
	}
}

// DefaultCiphersuite is used whenever a caller does not request one
// explicitly.
const DefaultCiphersuite = CiphersuiteProtobufEd25519
