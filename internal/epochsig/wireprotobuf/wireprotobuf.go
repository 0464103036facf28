// Package wireprotobuf implements the canonical protobuf-Ed25519 encoding
// of the signed epoch message: {ciphersuite, namespace, timestamp, epoch,
// digest} as protobuf fields 1-5, in declared order, using the low-level
// wire primitives rather than a generated .pb.go — the message has no
// schema evolution needs beyond what protowire's tag/varint/length-prefix
// primitives already give us.
package wireprotobuf

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	fieldCiphersuite protowire.Number = 1
	fieldNamespace   protowire.Number = 2
	fieldTimestamp   protowire.Number = 3
	fieldEpoch       protowire.Number = 4
	fieldDigest      protowire.Number = 5
)

// Message mirrors the canonical signed payload. Field order is fixed and
// reproduced exactly regardless of Go struct field order.
type Message struct {
	Ciphersuite uint32
	Namespace   string
	Timestamp   uint64
	Epoch       uint64
	Digest      []byte
}

// Marshal appends m's canonical protobuf wire encoding.
func Marshal(m Message) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldCiphersuite, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Ciphersuite))
	b = protowire.AppendTag(b, fieldNamespace, protowire.BytesType)
	b = protowire.AppendString(b, m.Namespace)
	b = protowire.AppendTag(b, fieldTimestamp, protowire.VarintType)
	b = protowire.AppendVarint(b, m.Timestamp)
	b = protowire.AppendTag(b, fieldEpoch, protowire.VarintType)
	b = protowire.AppendVarint(b, m.Epoch)
	b = protowire.AppendTag(b, fieldDigest, protowire.BytesType)
	b = protowire.AppendBytes(b, m.Digest)
	return b
}

// Unmarshal decodes bytes produced by Marshal. Unknown fields are
// skipped, matching protobuf's forward-compatibility rules.
func Unmarshal(data []byte) (Message, error) {
	var m Message
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Message{}, fmt.Errorf("wireprotobuf: bad tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case fieldCiphersuite:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Message{}, fmt.Errorf("wireprotobuf: bad ciphersuite: %w", protowire.ParseError(n))
			}
			m.Ciphersuite = uint32(v)
			data = data[n:]
		case fieldNamespace:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return Message{}, fmt.Errorf("wireprotobuf: bad namespace: %w", protowire.ParseError(n))
			}
			m.Namespace = v
			data = data[n:]
		case fieldTimestamp:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Message{}, fmt.Errorf("wireprotobuf: bad timestamp: %w", protowire.ParseError(n))
			}
			m.Timestamp = v
			data = data[n:]
		case fieldEpoch:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Message{}, fmt.Errorf("wireprotobuf: bad epoch: %w", protowire.ParseError(n))
			}
			m.Epoch = v
			data = data[n:]
		case fieldDigest:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Message{}, fmt.Errorf("wireprotobuf: bad digest: %w", protowire.ParseError(n))
			}
			m.Digest = append([]byte(nil), v...)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return Message{}, fmt.Errorf("wireprotobuf: bad field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return m, nil
}
